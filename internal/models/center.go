package models

import "time"

// Center represents a physical site people belong to and courses run at.
type Center struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Zone      string    `db:"zone" json:"zone"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
