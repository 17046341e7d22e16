package models

import "time"

// Dashboard is a collection of widgets addressable by ID or by slug.
type Dashboard struct {
	ID         string    `json:"id" db:"id"`
	Slug       string    `json:"slug" db:"slug"`
	Name       string    `json:"name" db:"name"`
	UserID     string    `json:"user_id,omitempty" db:"user_id"`
	IsArchived bool      `json:"is_archived" db:"is_archived"`
	IsDraft    bool      `json:"is_draft" db:"is_draft"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Visualization renders one query. Its query binding is what puts the
// query's data source into a dashboard's footprint.
type Visualization struct {
	ID        string    `json:"id" db:"id"`
	QueryID   string    `json:"query_id" db:"query_id"`
	Type      string    `json:"type,omitempty" db:"type"`
	Name      string    `json:"name,omitempty" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Widget places either a visualization or free text on a dashboard. Text
// widgets have a nil VisualizationID and contribute nothing to the footprint.
type Widget struct {
	ID              string    `json:"id" db:"id"`
	DashboardID     string    `json:"dashboard_id" db:"dashboard_id"`
	VisualizationID *string   `json:"visualization_id,omitempty" db:"visualization_id"`
	Text            string    `json:"text,omitempty" db:"text"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
