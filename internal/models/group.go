package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Group represents a permission group
type Group struct {
	ID           string     `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Type         string     `json:"type" db:"type"` // regular, dashboard_only
	Capabilities StringList `json:"capabilities" db:"capabilities"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// GroupMember represents a user's membership in a group
type GroupMember struct {
	ID        string    `json:"id" db:"id"`
	GroupID   string    `json:"group_id" db:"group_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DataSourceGrant represents a group's access level on a data source.
// Unique per (group_id, data_source_id); re-granting updates the level.
type DataSourceGrant struct {
	ID           string    `json:"id" db:"id"`
	GroupID      string    `json:"group_id" db:"group_id"`
	DataSourceID string    `json:"data_source_id" db:"data_source_id"`
	Level        string    `json:"level" db:"level"` // view_only, full
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// StringList is a []string stored as a JSON text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
}
