package models

import "time"

// Query is a saved query bound to exactly one data source. The binding is
// what execution and result-view decisions are made against.
type Query struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	DataSourceID string    `json:"data_source_id" db:"data_source_id"`
	QueryText    string    `json:"query,omitempty" db:"query_text"`
	UserID       string    `json:"user_id,omitempty" db:"user_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// QueryResult is a stored run of a query. Data is an opaque JSON payload.
type QueryResult struct {
	ID           string    `json:"id" db:"id"`
	QueryID      string    `json:"query_id" db:"query_id"`
	DataSourceID string    `json:"data_source_id" db:"data_source_id"`
	Data         string    `json:"data" db:"data"`
	RetrievedAt  time.Time `json:"retrieved_at" db:"retrieved_at"`
}
