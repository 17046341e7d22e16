package authz

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/quickboard/quickboard-backend/internal/models"
	"github.com/quickboard/quickboard-backend/internal/pkg/metrics"
)

// Store is the read surface the resolver needs: membership index, grant
// store, and existence checks. Implemented by the repository layer.
type Store interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetDataSource(ctx context.Context, id string) (*models.DataSource, error)
	GroupsOf(ctx context.Context, userID string) ([]*models.Group, error)
	GrantsForUser(ctx context.Context, userID string) ([]*models.DataSourceGrant, error)
	MembersOf(ctx context.Context, groupID string) ([]*models.GroupMember, error)
}

// Snapshot is a user's fully resolved permission state. It is immutable once
// built; concurrent readers share it without locking.
type Snapshot struct {
	// Levels maps data source id to the user's effective access level.
	// Data sources with no applicable grant are absent (effective none).
	Levels map[string]AccessLevel

	// Capabilities is the union of capability flags across the user's groups.
	Capabilities CapabilitySet

	// DashboardOnly is true when the user belongs to at least one group and
	// every one of them is dashboard_only, i.e. the only access path is a
	// dashboard-only group.
	DashboardOnly bool
}

// Level returns the effective access level for a data source.
func (s *Snapshot) Level(dataSourceID string) AccessLevel {
	return s.Levels[dataSourceID]
}

// Resolver computes effective data-source access for a user by combining the
// membership index with the grant store. Resolution is a pure read; repeated
// calls with unchanged state return identical results, which is what makes
// the snapshot cache valid.
type Resolver struct {
	store Store
	cache *ResolutionCache
	group singleflight.Group
}

// NewResolver creates a resolver. cache may be nil to disable caching; the
// resolver behaves identically either way.
func NewResolver(store Store, cache *ResolutionCache) *Resolver {
	return &Resolver{store: store, cache: cache}
}

// Snapshot returns the user's resolved permission state, from cache when
// possible. Unknown users yield ErrNotFound.
func (r *Resolver) Snapshot(ctx context.Context, userID string) (*Snapshot, error) {
	if r.cache != nil {
		if snap, ok := r.cache.Get(userID); ok {
			metrics.PermissionCacheHitsTotal.Inc()
			return snap, nil
		}
		metrics.PermissionCacheMissesTotal.Inc()
	}

	// Collapse concurrent misses for the same user into one build.
	v, err, _ := r.group.Do(userID, func() (interface{}, error) {
		snap, err := r.build(ctx, userID)
		if err != nil {
			return nil, err
		}
		if r.cache != nil {
			r.cache.Add(userID, snap)
		}
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

func (r *Resolver) build(ctx context.Context, userID string) (*Snapshot, error) {
	if _, err := r.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	groups, err := r.store.GroupsOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	typeByGroup := make(map[string]GroupType, len(groups))
	caps := make(CapabilitySet)
	dashboardOnly := len(groups) > 0
	for _, g := range groups {
		gt, err := ParseGroupType(g.Type)
		if err != nil {
			return nil, err
		}
		typeByGroup[g.ID] = gt
		if gt != GroupTypeDashboardOnly {
			dashboardOnly = false
		}
		for _, name := range g.Capabilities {
			// Stored flags were validated at write time; skip any the
			// current binary does not know.
			if c, err := ParseCapability(name); err == nil {
				caps[c] = struct{}{}
			}
		}
	}

	grants, err := r.store.GrantsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	levels := make(map[string]AccessLevel, len(grants))
	for _, grant := range grants {
		level, err := ParseAccessLevel(grant.Level)
		if err != nil {
			return nil, err
		}
		// Clamp again at read time so a grant row that predates a group's
		// conversion to dashboard_only can never leak full access.
		level = typeByGroup[grant.GroupID].ClampLevel(level)
		levels[grant.DataSourceID] = MaxAccess(levels[grant.DataSourceID], level)
	}

	return &Snapshot{
		Levels:        levels,
		Capabilities:  caps,
		DashboardOnly: dashboardOnly,
	}, nil
}

// ResolveAccess returns the user's effective access level for one data
// source: the maximum level across all of the user's groups, or AccessNone
// when no group holds a grant. Unknown user or data source is ErrNotFound,
// never AccessNone.
func (r *Resolver) ResolveAccess(ctx context.Context, userID, dataSourceID string) (AccessLevel, error) {
	if _, err := r.store.GetDataSource(ctx, dataSourceID); err != nil {
		return AccessNone, err
	}
	snap, err := r.Snapshot(ctx, userID)
	if err != nil {
		return AccessNone, err
	}
	return snap.Level(dataSourceID), nil
}

// Capabilities returns the union of capability flags across the user's groups.
func (r *Resolver) Capabilities(ctx context.Context, userID string) (CapabilitySet, error) {
	snap, err := r.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return snap.Capabilities, nil
}

// ResolveAll returns the user's effective level for every data source they
// hold any grant on. Callers must not mutate the returned map.
func (r *Resolver) ResolveAll(ctx context.Context, userID string) (map[string]AccessLevel, error) {
	snap, err := r.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return snap.Levels, nil
}

// IsDashboardOnly reports whether the user's only access path is via
// dashboard-only groups.
func (r *Resolver) IsDashboardOnly(ctx context.Context, userID string) (bool, error) {
	snap, err := r.Snapshot(ctx, userID)
	if err != nil {
		return false, err
	}
	return snap.DashboardOnly, nil
}

// InvalidateUser evicts the user's cached snapshot after a membership change.
func (r *Resolver) InvalidateUser(userID string) {
	if r.cache != nil {
		r.cache.Remove(userID)
	}
}

// InvalidateGroup evicts every current member of the group after a grant or
// group mutation.
func (r *Resolver) InvalidateGroup(ctx context.Context, groupID string) error {
	if r.cache == nil {
		return nil
	}
	members, err := r.store.MembersOf(ctx, groupID)
	if err != nil {
		return err
	}
	for _, m := range members {
		r.cache.Remove(m.UserID)
	}
	return nil
}
