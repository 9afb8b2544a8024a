package grading

import (
	"time"

	"github.com/FleerJam/appGestionAcademica/internal/models"
)

// CourseRules is the slice of a course that status resolution needs.
type CourseRules struct {
	PassThreshold float64
	EndDate       *time.Time
}

// Resolve decides the academic status of an enrollment. Rules, in strict
// priority order:
//
//  1. An explicit withdrawal always yields NO REALIZO, even over a passing grade.
//  2. A grade at or above the pass threshold yields APROBADO regardless of
//     dates: merit beats timing.
//  3. A course without an end date is perpetually open: EN CURSO.
//  4. Once the course has closed, a zero grade means NO REALIZO and anything
//     below threshold means REPROBADO.
//  5. While the course is open the enrollment stays EN CURSO.
func Resolve(finalGrade float64, course CourseRules, withdrawal bool) models.EnrollmentStatus {
	return ResolveAt(finalGrade, course, withdrawal, time.Now())
}

// ResolveAt is Resolve with an injectable clock.
func ResolveAt(finalGrade float64, course CourseRules, withdrawal bool, now time.Time) models.EnrollmentStatus {
	if withdrawal {
		return models.StatusNoShow
	}

	if finalGrade >= course.PassThreshold {
		return models.StatusPassed
	}

	if course.EndDate == nil {
		return models.StatusInProgress
	}

	today := truncateToDay(now)
	closed := truncateToDay(*course.EndDate).Before(today)
	if !closed {
		return models.StatusInProgress
	}

	if finalGrade == 0.0 {
		return models.StatusNoShow
	}
	return models.StatusFailed
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
