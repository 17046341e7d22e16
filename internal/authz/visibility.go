package authz

import (
	"context"

	"github.com/quickboard/quickboard-backend/internal/models"
	"github.com/quickboard/quickboard-backend/internal/pkg/metrics"
)

// Graph is the read-only query/widget metadata the policy layers walk:
// which data source a query runs against, and which data sources a
// dashboard reaches through its widgets.
type Graph interface {
	GetQuery(ctx context.Context, id string) (*models.Query, error)
	GetDashboard(ctx context.Context, id string) (*models.Dashboard, error)
	// DashboardDataSourceIDs returns the dashboard's footprint: the
	// deduplicated data source ids reachable via widget visualizations.
	DashboardDataSourceIDs(ctx context.Context, dashboardID string) ([]string, error)
}

// DashboardVisibility decides whether a dashboard is listable or directly
// accessible for a user. The same AND-closure predicate applies to both:
// a dashboard-only user must hold at least view_only on every data source in
// the dashboard's footprint.
type DashboardVisibility struct {
	resolver *Resolver
	graph    Graph
}

func NewDashboardVisibility(resolver *Resolver, graph Graph) *DashboardVisibility {
	return &DashboardVisibility{resolver: resolver, graph: graph}
}

// Footprint returns the deduplicated data source ids a dashboard reaches.
func (v *DashboardVisibility) Footprint(ctx context.Context, dashboardID string) ([]string, error) {
	return v.graph.DashboardDataSourceIDs(ctx, dashboardID)
}

// IsVisible reports whether the user may access the dashboard. Users with a
// regular access path bypass the footprint check entirely; their visibility
// is governed by the dashboard's own sharing rules, which live outside this
// engine. Unknown dashboards yield ErrNotFound.
func (v *DashboardVisibility) IsVisible(ctx context.Context, userID, dashboardID string) (bool, error) {
	if _, err := v.graph.GetDashboard(ctx, dashboardID); err != nil {
		return false, err
	}

	snap, err := v.resolver.Snapshot(ctx, userID)
	if err != nil {
		return false, err
	}
	if !snap.DashboardOnly {
		metrics.AuthzDecisionsTotal.WithLabelValues("dashboard_view", "granted").Inc()
		return true, nil
	}

	footprint, err := v.graph.DashboardDataSourceIDs(ctx, dashboardID)
	if err != nil {
		return false, err
	}
	visible := coversFootprint(snap, footprint)
	outcome := "granted"
	if !visible {
		outcome = "denied"
	}
	metrics.AuthzDecisionsTotal.WithLabelValues("dashboard_view", outcome).Inc()
	return visible, nil
}

// FilterListable filters a candidate dashboard collection with the same
// predicate as IsVisible. A dashboard failing the check must not appear in
// any list, count, or search result.
func (v *DashboardVisibility) FilterListable(ctx context.Context, userID string, dashboards []*models.Dashboard) ([]*models.Dashboard, error) {
	snap, err := v.resolver.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !snap.DashboardOnly {
		return dashboards, nil
	}

	listable := make([]*models.Dashboard, 0, len(dashboards))
	for _, d := range dashboards {
		footprint, err := v.graph.DashboardDataSourceIDs(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		if coversFootprint(snap, footprint) {
			listable = append(listable, d)
		}
	}
	return listable, nil
}

// coversFootprint is the AND-closure rule: every data source in the footprint
// must resolve to at least view_only. An empty footprint (no widgets, or only
// text widgets) is vacuously covered.
func coversFootprint(snap *Snapshot, footprint []string) bool {
	for _, dataSourceID := range footprint {
		if !snap.Level(dataSourceID).AtLeast(AccessViewOnly) {
			return false
		}
	}
	return true
}
