package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickboard/quickboard-backend/internal/authz"
	"github.com/quickboard/quickboard-backend/internal/models"
	"github.com/quickboard/quickboard-backend/migrations"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	schema, err := migrations.Schema("sqlite")
	require.NoError(t, err)
	require.NoError(t, repo.RunMigrations(schema))
	return repo
}

func seedUser(t *testing.T, repo *SQLiteRepository, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

func seedGroup(t *testing.T, repo *SQLiteRepository, name string, groupType authz.GroupType) *models.Group {
	t.Helper()
	group := &models.Group{Name: name, Type: string(groupType)}
	require.NoError(t, repo.CreateGroup(context.Background(), group))
	return group
}

func seedDataSource(t *testing.T, repo *SQLiteRepository, name string) *models.DataSource {
	t.Helper()
	ds := &models.DataSource{Name: name}
	require.NoError(t, repo.CreateDataSource(context.Background(), ds))
	return ds
}

func seedQuery(t *testing.T, repo *SQLiteRepository, name, dataSourceID string) *models.Query {
	t.Helper()
	q := &models.Query{Name: name, DataSourceID: dataSourceID}
	require.NoError(t, repo.CreateQuery(context.Background(), q))
	return q
}

func TestGetUserByEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seeded := seedUser(t, repo, "alice@example.com")

	user, err := repo.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, user.ID)

	_, err = repo.GetUserByEmail(ctx, "ghost@example.com")
	require.ErrorIs(t, err, authz.ErrNotFound)
}

func TestSetGrantClampsDashboardOnlyGroup(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	group := seedGroup(t, repo, "embed", authz.GroupTypeDashboardOnly)
	ds := seedDataSource(t, repo, "warehouse")

	effective, err := repo.SetGrant(ctx, group.ID, ds.ID, authz.AccessFull)
	require.NoError(t, err)
	assert.Equal(t, authz.AccessViewOnly, effective)

	grants, err := repo.ListGrants(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, "view_only", grants[0].Level)
}

func TestSetGrantUpsertsLevel(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	group := seedGroup(t, repo, "editors", authz.GroupTypeRegular)
	ds := seedDataSource(t, repo, "warehouse")

	_, err := repo.SetGrant(ctx, group.ID, ds.ID, authz.AccessViewOnly)
	require.NoError(t, err)
	effective, err := repo.SetGrant(ctx, group.ID, ds.ID, authz.AccessFull)
	require.NoError(t, err)
	assert.Equal(t, authz.AccessFull, effective)

	grants, err := repo.ListGrants(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, grants, 1, "re-granting must update in place, not duplicate")
	assert.Equal(t, "full", grants[0].Level)
}

func TestSetGrantUnknownEntities(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	group := seedGroup(t, repo, "editors", authz.GroupTypeRegular)
	ds := seedDataSource(t, repo, "warehouse")

	_, err := repo.SetGrant(ctx, "ghost", ds.ID, authz.AccessFull)
	require.ErrorIs(t, err, authz.ErrNotFound)

	_, err = repo.SetGrant(ctx, group.ID, "ghost", authz.AccessFull)
	require.ErrorIs(t, err, authz.ErrNotFound)
}

func TestRemoveGrantIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	group := seedGroup(t, repo, "editors", authz.GroupTypeRegular)
	ds := seedDataSource(t, repo, "warehouse")

	_, err := repo.SetGrant(ctx, group.ID, ds.ID, authz.AccessFull)
	require.NoError(t, err)

	require.NoError(t, repo.RemoveGrant(ctx, group.ID, ds.ID))
	require.NoError(t, repo.RemoveGrant(ctx, group.ID, ds.ID))

	grants, err := repo.ListGrants(ctx, group.ID)
	require.NoError(t, err)
	assert.Empty(t, grants)
}

func TestAddMemberIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	group := seedGroup(t, repo, "editors", authz.GroupTypeRegular)
	user := seedUser(t, repo, "alice@example.com")

	require.NoError(t, repo.AddMember(ctx, group.ID, user.ID))
	require.NoError(t, repo.AddMember(ctx, group.ID, user.ID))

	members, err := repo.MembersOf(ctx, group.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestAddMemberUnknownEntities(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	group := seedGroup(t, repo, "editors", authz.GroupTypeRegular)
	user := seedUser(t, repo, "alice@example.com")

	require.ErrorIs(t, repo.AddMember(ctx, "ghost", user.ID), authz.ErrNotFound)
	require.ErrorIs(t, repo.AddMember(ctx, group.ID, "ghost"), authz.ErrNotFound)
}

func TestDeleteGroupCascades(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	group := seedGroup(t, repo, "editors", authz.GroupTypeRegular)
	user := seedUser(t, repo, "alice@example.com")
	ds := seedDataSource(t, repo, "warehouse")
	require.NoError(t, repo.AddMember(ctx, group.ID, user.ID))
	_, err := repo.SetGrant(ctx, group.ID, ds.ID, authz.AccessFull)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteGroup(ctx, group.ID))

	_, err = repo.GetGroup(ctx, group.ID)
	require.ErrorIs(t, err, authz.ErrNotFound)

	groups, err := repo.GroupsOf(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, groups, "membership rows must cascade")

	grants, err := repo.GrantsForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, grants, "grant rows must cascade")
}

func TestDeleteGroupUnknown(t *testing.T) {
	repo := newTestRepo(t)
	require.ErrorIs(t, repo.DeleteGroup(context.Background(), "ghost"), authz.ErrNotFound)
}

func TestUpdateGroupTypeClampsExistingGrants(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	group := seedGroup(t, repo, "editors", authz.GroupTypeRegular)
	ds := seedDataSource(t, repo, "warehouse")
	_, err := repo.SetGrant(ctx, group.ID, ds.ID, authz.AccessFull)
	require.NoError(t, err)

	require.NoError(t, repo.UpdateGroupType(ctx, group.ID, authz.GroupTypeDashboardOnly))

	got, err := repo.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, "dashboard_only", got.Type)

	grants, err := repo.ListGrants(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, "view_only", grants[0].Level, "existing full grants must be downgraded")
}

func TestUpdateGroupTypeUnknown(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.UpdateGroupType(context.Background(), "ghost", authz.GroupTypeDashboardOnly)
	require.ErrorIs(t, err, authz.ErrNotFound)
}

func TestGrantsForUserFollowsMembership(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := seedUser(t, repo, "alice@example.com")
	mine := seedGroup(t, repo, "mine", authz.GroupTypeRegular)
	other := seedGroup(t, repo, "other", authz.GroupTypeRegular)
	ds1 := seedDataSource(t, repo, "warehouse")
	ds2 := seedDataSource(t, repo, "events")
	require.NoError(t, repo.AddMember(ctx, mine.ID, user.ID))
	_, err := repo.SetGrant(ctx, mine.ID, ds1.ID, authz.AccessViewOnly)
	require.NoError(t, err)
	_, err = repo.SetGrant(ctx, other.ID, ds2.ID, authz.AccessFull)
	require.NoError(t, err)

	grants, err := repo.GrantsForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, ds1.ID, grants[0].DataSourceID)
}

func TestDashboardDataSourceIDs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	ds1 := seedDataSource(t, repo, "warehouse")
	ds2 := seedDataSource(t, repo, "events")
	q1 := seedQuery(t, repo, "revenue", ds1.ID)
	q2 := seedQuery(t, repo, "signups", ds2.ID)
	q3 := seedQuery(t, repo, "churn", ds1.ID)

	dashboard := &models.Dashboard{Slug: "sales", Name: "Sales"}
	require.NoError(t, repo.CreateDashboard(ctx, dashboard))

	for _, q := range []*models.Query{q1, q2, q3} {
		viz := &models.Visualization{QueryID: q.ID, Type: "chart"}
		require.NoError(t, repo.CreateVisualization(ctx, viz))
		vizID := viz.ID
		require.NoError(t, repo.CreateWidget(ctx, &models.Widget{
			DashboardID:     dashboard.ID,
			VisualizationID: &vizID,
		}))
	}
	// Text widgets contribute nothing to the footprint.
	require.NoError(t, repo.CreateWidget(ctx, &models.Widget{
		DashboardID: dashboard.ID,
		Text:        "quarterly summary",
	}))

	footprint, err := repo.DashboardDataSourceIDs(ctx, dashboard.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{ds1.ID, ds2.ID}, footprint, "footprint is deduplicated")
}

func TestGetDashboardBySlug(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	dashboard := &models.Dashboard{Slug: "sales-q3", Name: "Sales Q3"}
	require.NoError(t, repo.CreateDashboard(ctx, dashboard))

	got, err := repo.GetDashboardBySlug(ctx, "sales-q3")
	require.NoError(t, err)
	assert.Equal(t, dashboard.ID, got.ID)

	_, err = repo.GetDashboardBySlug(ctx, "ghost")
	require.ErrorIs(t, err, authz.ErrNotFound)
}

func TestListDashboardsFiltersArchivedAndDrafts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	owner := seedUser(t, repo, "owner@example.com")
	other := seedUser(t, repo, "other@example.com")

	published := &models.Dashboard{Slug: "published", Name: "Published"}
	require.NoError(t, repo.CreateDashboard(ctx, published))
	archived := &models.Dashboard{Slug: "archived", Name: "Archived", IsArchived: true}
	require.NoError(t, repo.CreateDashboard(ctx, archived))
	draft := &models.Dashboard{Slug: "draft", Name: "Draft", UserID: owner.ID, IsDraft: true}
	require.NoError(t, repo.CreateDashboard(ctx, draft))

	list, err := repo.ListDashboards(ctx, "", other.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, published.ID, list[0].ID)

	list, err = repo.ListDashboards(ctx, "", owner.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2, "drafts are listed for their owner")
}

func TestListDashboardsSearch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	sales := &models.Dashboard{Slug: "sales", Name: "Sales Overview"}
	require.NoError(t, repo.CreateDashboard(ctx, sales))
	ops := &models.Dashboard{Slug: "ops", Name: "Operations"}
	require.NoError(t, repo.CreateDashboard(ctx, ops))

	list, err := repo.ListDashboards(ctx, "Sales", "viewer")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, sales.ID, list[0].ID)
}

func TestLatestQueryResult(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	ds := seedDataSource(t, repo, "warehouse")
	q := seedQuery(t, repo, "revenue", ds.ID)

	older := &models.QueryResult{
		QueryID:      q.ID,
		DataSourceID: ds.ID,
		Data:         `{"rows":[1]}`,
		RetrievedAt:  time.Now().Add(-time.Hour),
	}
	require.NoError(t, repo.SaveQueryResult(ctx, older))
	newer := &models.QueryResult{
		QueryID:      q.ID,
		DataSourceID: ds.ID,
		Data:         `{"rows":[2]}`,
		RetrievedAt:  time.Now(),
	}
	require.NoError(t, repo.SaveQueryResult(ctx, newer))

	got, err := repo.LatestQueryResult(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)

	_, err = repo.LatestQueryResult(ctx, "ghost")
	require.ErrorIs(t, err, authz.ErrNotFound)
}
