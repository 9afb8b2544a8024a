package models

import "time"

// IdentifierAlias maps a previously-seen malformed identifier variant to the
// person it was resolved to, so future imports skip the manual review.
type IdentifierAlias struct {
	ID        string    `db:"id" json:"id"`
	PersonID  string    `db:"person_id" json:"person_id"`
	Value     string    `db:"value" json:"value"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
