package repository

import (
	"context"

	"github.com/quickboard/quickboard-backend/internal/authz"
	"github.com/quickboard/quickboard-backend/internal/models"
)

// UserRepository defines user data access methods
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// GroupRepository defines group and membership data access methods
type GroupRepository interface {
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	ListGroups(ctx context.Context) ([]*models.Group, error)
	// UpdateGroupType changes a group's type. Converting to dashboard_only
	// clamps all of the group's full grants to view_only in the same
	// transaction.
	UpdateGroupType(ctx context.Context, id string, groupType authz.GroupType) error
	// DeleteGroup removes the group and cascades to its membership and
	// grant rows.
	DeleteGroup(ctx context.Context, id string) error

	AddMember(ctx context.Context, groupID, userID string) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	MembersOf(ctx context.Context, groupID string) ([]*models.GroupMember, error)
	GroupsOf(ctx context.Context, userID string) ([]*models.Group, error)
}

// GrantRepository defines data-source grant access methods
type GrantRepository interface {
	// SetGrant upserts the (group, data source) grant and returns the
	// effective stored level, which is clamped to view_only for
	// dashboard_only groups regardless of the requested level.
	SetGrant(ctx context.Context, groupID, dataSourceID string, level authz.AccessLevel) (authz.AccessLevel, error)
	// RemoveGrant is idempotent; removing an absent grant is not an error.
	RemoveGrant(ctx context.Context, groupID, dataSourceID string) error
	ListGrants(ctx context.Context, groupID string) ([]*models.DataSourceGrant, error)
	GrantsForUser(ctx context.Context, userID string) ([]*models.DataSourceGrant, error)
}

// DataSourceRepository defines data source identity methods
type DataSourceRepository interface {
	CreateDataSource(ctx context.Context, ds *models.DataSource) error
	GetDataSource(ctx context.Context, id string) (*models.DataSource, error)
	ListDataSources(ctx context.Context) ([]*models.DataSource, error)
}

// CatalogRepository defines the query/dashboard/widget metadata reads and
// writes the policy layers depend on
type CatalogRepository interface {
	CreateQuery(ctx context.Context, q *models.Query) error
	GetQuery(ctx context.Context, id string) (*models.Query, error)

	CreateDashboard(ctx context.Context, d *models.Dashboard) error
	GetDashboard(ctx context.Context, id string) (*models.Dashboard, error)
	GetDashboardBySlug(ctx context.Context, slug string) (*models.Dashboard, error)
	// ListDashboards returns non-archived dashboards matching the optional
	// search term, with drafts visible only to their creator.
	ListDashboards(ctx context.Context, search, viewerID string) ([]*models.Dashboard, error)

	CreateVisualization(ctx context.Context, v *models.Visualization) error
	CreateWidget(ctx context.Context, w *models.Widget) error
	ListWidgets(ctx context.Context, dashboardID string) ([]*models.Widget, error)
	DashboardDataSourceIDs(ctx context.Context, dashboardID string) ([]string, error)

	SaveQueryResult(ctx context.Context, qr *models.QueryResult) error
	// LatestQueryResult returns the most recent stored result for a query,
	// or ErrNotFound when none exists.
	LatestQueryResult(ctx context.Context, queryID string) (*models.QueryResult, error)
}

// Store aggregates all repositories behind one interface so SQLite and
// Postgres implementations are interchangeable.
type Store interface {
	UserRepository
	GroupRepository
	GrantRepository
	DataSourceRepository
	CatalogRepository
	Close() error
}
