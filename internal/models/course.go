package models

import (
	"time"

	"github.com/lib/pq"
)

// Course describes a training offering with its approval rules.
type Course struct {
	ID            string         `db:"id" json:"id"`
	Name          string         `db:"name" json:"name"`
	Type          string         `db:"type" json:"type"`
	Modality      string         `db:"modality" json:"modality"`
	StartDate     *time.Time     `db:"start_date" json:"start_date,omitempty"`
	EndDate       *time.Time     `db:"end_date" json:"end_date,omitempty"`
	DurationHours int            `db:"duration_hours" json:"duration_hours"`
	PassThreshold float64        `db:"pass_threshold" json:"pass_threshold"`
	Audience      pq.StringArray `db:"audience" json:"audience"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// Evaluation is one graded activity within a course's schema.
type Evaluation struct {
	ID            string    `db:"id" json:"id"`
	CourseID      string    `db:"course_id" json:"course_id"`
	Name          string    `db:"name" json:"name"`
	WeightPercent float64   `db:"weight_percent" json:"weight_percent"`
	Position      int       `db:"position" json:"position"`
	Required      bool      `db:"required" json:"required"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// CourseFilter captures search criteria for listing courses.
type CourseFilter struct {
	Search     string
	Type       string
	Modality   string
	ActiveOnly bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
