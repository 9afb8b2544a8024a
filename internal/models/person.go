package models

import "time"

// PersonRole classifies the people registered in the platform.
type PersonRole string

const (
	RoleStudent     PersonRole = "ESTUDIANTE"
	RoleInstructor  PersonRole = "INSTRUCTOR"
	RoleCoordinator PersonRole = "COORDINADOR"
	RoleOther       PersonRole = "OTRO"
)

// Person represents an individual identified by their national ID.
type Person struct {
	ID          string     `db:"id" json:"id"`
	NationalID  string     `db:"national_id" json:"national_id"`
	FullName    string     `db:"full_name" json:"full_name"`
	Email       *string    `db:"email" json:"email,omitempty"`
	Role        PersonRole `db:"role" json:"role"`
	CenterID    string     `db:"center_id" json:"center_id"`
	Institution string     `db:"institution" json:"institution"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// PersonFilter captures search criteria for listing people.
type PersonFilter struct {
	NationalID string
	CenterID   string
	Role       PersonRole
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// PersonDetail enriches Person with its center name.
type PersonDetail struct {
	Person
	CenterName string `db:"center_name" json:"center_name"`
}
