package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/quickboard/quickboard-backend/internal/authz"
	"github.com/quickboard/quickboard-backend/internal/models"
)

// PostgresRepository implements Store using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(connectionString string) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	// Connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresRepository{db: db}, nil
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// RunMigrations runs database migrations
func (r *PostgresRepository) RunMigrations(migrationSQL string) error {
	_, err := r.db.Exec(migrationSQL)
	return err
}

// UserRepository implementation

func (r *PostgresRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	query := `INSERT INTO users (id, email, name, created_at) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.Name, user.CreatedAt)
	return err
}

func (r *PostgresRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, authz.ErrNotFound)
	}
	return &user, err
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", email, authz.ErrNotFound)
	}
	return &user, err
}

// GroupRepository implementation

func (r *PostgresRepository) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.Type == "" {
		group.Type = string(authz.GroupTypeRegular)
	}
	now := time.Now()
	group.CreatedAt = now
	group.UpdatedAt = now

	query := `
		INSERT INTO groups (id, name, type, capabilities, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		group.ID,
		group.Name,
		group.Type,
		group.Capabilities,
		group.CreatedAt,
		group.UpdatedAt,
	)
	return err
}

func (r *PostgresRepository) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group, `SELECT * FROM groups WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", id, authz.ErrNotFound)
	}
	return &group, err
}

func (r *PostgresRepository) ListGroups(ctx context.Context) ([]*models.Group, error) {
	var groups []*models.Group
	err := r.db.SelectContext(ctx, &groups, `SELECT * FROM groups ORDER BY name`)
	return groups, err
}

func (r *PostgresRepository) UpdateGroupType(ctx context.Context, id string, groupType authz.GroupType) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE groups SET type = $1, updated_at = $2 WHERE id = $3`,
		string(groupType), time.Now(), id,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("group %s: %w", id, authz.ErrNotFound)
	}

	// A group converted to dashboard_only must not keep full grants.
	if groupType == authz.GroupTypeDashboardOnly {
		_, err = tx.ExecContext(ctx,
			`UPDATE data_source_grants SET level = $1 WHERE group_id = $2 AND level = $3`,
			authz.AccessViewOnly.String(), id, authz.AccessFull.String(),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PostgresRepository) DeleteGroup(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("group %s: %w", id, authz.ErrNotFound)
	}
	return nil
}

func (r *PostgresRepository) AddMember(ctx context.Context, groupID, userID string) error {
	if _, err := r.GetGroup(ctx, groupID); err != nil {
		return err
	}
	if _, err := r.GetUser(ctx, userID); err != nil {
		return err
	}

	query := `
		INSERT INTO group_members (id, group_id, user_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (group_id, user_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, uuid.New().String(), groupID, userID, time.Now())
	return err
}

func (r *PostgresRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	return err
}

func (r *PostgresRepository) MembersOf(ctx context.Context, groupID string) ([]*models.GroupMember, error) {
	var members []*models.GroupMember
	err := r.db.SelectContext(ctx, &members,
		`SELECT * FROM group_members WHERE group_id = $1 ORDER BY created_at`, groupID)
	return members, err
}

func (r *PostgresRepository) GroupsOf(ctx context.Context, userID string) ([]*models.Group, error) {
	var groups []*models.Group
	err := instrumentQuery("groups_of_user", func() error {
		return r.db.SelectContext(ctx, &groups, `
			SELECT g.* FROM groups g
			JOIN group_members gm ON gm.group_id = g.id
			WHERE gm.user_id = $1
			ORDER BY g.name
		`, userID)
	})
	return groups, err
}

// GrantRepository implementation

func (r *PostgresRepository) SetGrant(ctx context.Context, groupID, dataSourceID string, level authz.AccessLevel) (authz.AccessLevel, error) {
	group, err := r.GetGroup(ctx, groupID)
	if err != nil {
		return authz.AccessNone, err
	}
	if _, err := r.GetDataSource(ctx, dataSourceID); err != nil {
		return authz.AccessNone, err
	}

	groupType, err := authz.ParseGroupType(group.Type)
	if err != nil {
		return authz.AccessNone, err
	}
	effective := groupType.ClampLevel(level)

	query := `
		INSERT INTO data_source_grants (id, group_id, data_source_id, level, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (group_id, data_source_id) DO UPDATE SET level = excluded.level
	`
	err = instrumentQuery("set_grant", func() error {
		_, err := r.db.ExecContext(ctx, query,
			uuid.New().String(), groupID, dataSourceID, effective.String(), time.Now())
		return err
	})
	if err != nil {
		return authz.AccessNone, err
	}
	return effective, nil
}

func (r *PostgresRepository) RemoveGrant(ctx context.Context, groupID, dataSourceID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM data_source_grants WHERE group_id = $1 AND data_source_id = $2`,
		groupID, dataSourceID)
	return err
}

func (r *PostgresRepository) ListGrants(ctx context.Context, groupID string) ([]*models.DataSourceGrant, error) {
	var grants []*models.DataSourceGrant
	err := r.db.SelectContext(ctx, &grants,
		`SELECT * FROM data_source_grants WHERE group_id = $1 ORDER BY data_source_id`, groupID)
	return grants, err
}

func (r *PostgresRepository) GrantsForUser(ctx context.Context, userID string) ([]*models.DataSourceGrant, error) {
	var grants []*models.DataSourceGrant
	err := instrumentQuery("grants_for_user", func() error {
		return r.db.SelectContext(ctx, &grants, `
			SELECT dsg.* FROM data_source_grants dsg
			JOIN group_members gm ON gm.group_id = dsg.group_id
			WHERE gm.user_id = $1
		`, userID)
	})
	return grants, err
}

// DataSourceRepository implementation

func (r *PostgresRepository) CreateDataSource(ctx context.Context, ds *models.DataSource) error {
	if ds.ID == "" {
		ds.ID = uuid.New().String()
	}
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = time.Now()
	}

	query := `INSERT INTO data_sources (id, name, type, created_at) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, ds.ID, ds.Name, ds.Type, ds.CreatedAt)
	return err
}

func (r *PostgresRepository) GetDataSource(ctx context.Context, id string) (*models.DataSource, error) {
	var ds models.DataSource
	err := r.db.GetContext(ctx, &ds, `SELECT * FROM data_sources WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("data source %s: %w", id, authz.ErrNotFound)
	}
	return &ds, err
}

func (r *PostgresRepository) ListDataSources(ctx context.Context) ([]*models.DataSource, error) {
	var sources []*models.DataSource
	err := r.db.SelectContext(ctx, &sources, `SELECT * FROM data_sources ORDER BY name`)
	return sources, err
}

// CatalogRepository implementation

func (r *PostgresRepository) CreateQuery(ctx context.Context, q *models.Query) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO queries (id, name, data_source_id, query_text, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		q.ID, q.Name, q.DataSourceID, q.QueryText, q.UserID, q.CreatedAt)
	return err
}

func (r *PostgresRepository) GetQuery(ctx context.Context, id string) (*models.Query, error) {
	var q models.Query
	err := r.db.GetContext(ctx, &q, `SELECT * FROM queries WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("query %s: %w", id, authz.ErrNotFound)
	}
	return &q, err
}

func (r *PostgresRepository) CreateDashboard(ctx context.Context, d *models.Dashboard) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now

	query := `
		INSERT INTO dashboards (id, slug, name, user_id, is_archived, is_draft, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		d.ID, d.Slug, d.Name, d.UserID, d.IsArchived, d.IsDraft, d.CreatedAt, d.UpdatedAt)
	return err
}

func (r *PostgresRepository) GetDashboard(ctx context.Context, id string) (*models.Dashboard, error) {
	var d models.Dashboard
	err := r.db.GetContext(ctx, &d, `SELECT * FROM dashboards WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dashboard %s: %w", id, authz.ErrNotFound)
	}
	return &d, err
}

func (r *PostgresRepository) GetDashboardBySlug(ctx context.Context, slug string) (*models.Dashboard, error) {
	var d models.Dashboard
	err := r.db.GetContext(ctx, &d, `SELECT * FROM dashboards WHERE slug = $1`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dashboard %s: %w", slug, authz.ErrNotFound)
	}
	return &d, err
}

func (r *PostgresRepository) ListDashboards(ctx context.Context, search, viewerID string) ([]*models.Dashboard, error) {
	var dashboards []*models.Dashboard
	query := `
		SELECT * FROM dashboards
		WHERE is_archived = FALSE
		  AND (is_draft = FALSE OR user_id = $1)
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%')
		ORDER BY created_at DESC
	`
	err := r.db.SelectContext(ctx, &dashboards, query, viewerID, search)
	return dashboards, err
}

func (r *PostgresRepository) CreateVisualization(ctx context.Context, v *models.Visualization) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO visualizations (id, query_id, type, name, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, v.ID, v.QueryID, v.Type, v.Name, v.CreatedAt)
	return err
}

func (r *PostgresRepository) CreateWidget(ctx context.Context, w *models.Widget) error {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO widgets (id, dashboard_id, visualization_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		w.ID, w.DashboardID, w.VisualizationID, w.Text, w.CreatedAt)
	return err
}

func (r *PostgresRepository) ListWidgets(ctx context.Context, dashboardID string) ([]*models.Widget, error) {
	var widgets []*models.Widget
	err := r.db.SelectContext(ctx, &widgets,
		`SELECT * FROM widgets WHERE dashboard_id = $1 ORDER BY created_at`, dashboardID)
	return widgets, err
}

func (r *PostgresRepository) DashboardDataSourceIDs(ctx context.Context, dashboardID string) ([]string, error) {
	var ids []string
	err := instrumentQuery("dashboard_footprint", func() error {
		return r.db.SelectContext(ctx, &ids, `
			SELECT DISTINCT q.data_source_id
			FROM widgets w
			JOIN visualizations v ON w.visualization_id = v.id
			JOIN queries q ON v.query_id = q.id
			WHERE w.dashboard_id = $1
		`, dashboardID)
	})
	return ids, err
}

func (r *PostgresRepository) SaveQueryResult(ctx context.Context, qr *models.QueryResult) error {
	if qr.ID == "" {
		qr.ID = uuid.New().String()
	}
	if qr.RetrievedAt.IsZero() {
		qr.RetrievedAt = time.Now()
	}

	query := `
		INSERT INTO query_results (id, query_id, data_source_id, data, retrieved_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		qr.ID, qr.QueryID, qr.DataSourceID, qr.Data, qr.RetrievedAt)
	return err
}

func (r *PostgresRepository) LatestQueryResult(ctx context.Context, queryID string) (*models.QueryResult, error) {
	var qr models.QueryResult
	query := `
		SELECT * FROM query_results
		WHERE query_id = $1
		ORDER BY retrieved_at DESC
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &qr, query, queryID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("result for query %s: %w", queryID, authz.ErrNotFound)
	}
	return &qr, err
}
