package models

import "time"

// GradeDetail stores the raw score of one evaluation for one enrollment.
type GradeDetail struct {
	ID           string    `db:"id" json:"id"`
	EnrollmentID string    `db:"enrollment_id" json:"enrollment_id"`
	EvaluationID string    `db:"evaluation_id" json:"evaluation_id"`
	Score        float64   `db:"score" json:"score"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
