package models

import "time"

// User represents an account. Group memberships live in group_members rows,
// never on the user itself; effective permissions are derived per request.
type User struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name,omitempty" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
