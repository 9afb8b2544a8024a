package models

import (
	"fmt"
	"time"
)

// EnrollmentStatus is the academic outcome of an enrollment. The string
// values are the canonical serialization used at the persistence boundary.
type EnrollmentStatus string

const (
	StatusInProgress EnrollmentStatus = "EN CURSO"
	StatusPassed     EnrollmentStatus = "APROBADO"
	StatusFailed     EnrollmentStatus = "REPROBADO"
	StatusNoShow     EnrollmentStatus = "NO REALIZO"
)

// ParseEnrollmentStatus converts a stored string into the closed enum.
func ParseEnrollmentStatus(s string) (EnrollmentStatus, error) {
	switch EnrollmentStatus(s) {
	case StatusInProgress, StatusPassed, StatusFailed, StatusNoShow:
		return EnrollmentStatus(s), nil
	}
	return "", fmt.Errorf("unknown enrollment status %q", s)
}

// Enrollment ties a person to a course, carrying grade and status.
type Enrollment struct {
	ID         string           `db:"id" json:"id"`
	PersonID   string           `db:"person_id" json:"person_id"`
	CourseID   string           `db:"course_id" json:"course_id"`
	CenterID   string           `db:"center_id" json:"center_id"`
	FinalGrade *float64         `db:"final_grade" json:"final_grade,omitempty"`
	Status     EnrollmentStatus `db:"status" json:"status"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`
}

// GradeOrZero returns the final grade, treating an absent grade as 0.0.
func (e Enrollment) GradeOrZero() float64 {
	if e.FinalGrade == nil {
		return 0.0
	}
	return *e.FinalGrade
}

// EnrollmentDetail enriches Enrollment with person and course context.
type EnrollmentDetail struct {
	Enrollment
	PersonName       string `db:"person_name" json:"person_name"`
	PersonNationalID string `db:"person_national_id" json:"person_national_id"`
	CourseName       string `db:"course_name" json:"course_name"`
	CenterName       string `db:"center_name" json:"center_name"`
}

// EnrollmentFilter captures search criteria for listing enrollments.
type EnrollmentFilter struct {
	PersonID  string
	CourseID  string
	CenterID  string
	Status    EnrollmentStatus
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
