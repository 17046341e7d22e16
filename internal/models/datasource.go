package models

import "time"

// DataSource is a registered data source identity. The permission engine only
// needs its existence; connection details belong to the query runner.
type DataSource struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Type      string    `json:"type,omitempty" db:"type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
