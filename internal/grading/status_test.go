package grading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/FleerJam/appGestionAcademica/internal/models"
)

func datePtr(t time.Time) *time.Time { return &t }

func TestResolveClosedCourse(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	course := CourseRules{PassThreshold: 7.0, EndDate: datePtr(yesterday)}

	// Merit overrides the closed course.
	assert.Equal(t, models.StatusPassed, ResolveAt(8.0, course, false, now))
	// Attempted but below threshold after close.
	assert.Equal(t, models.StatusFailed, ResolveAt(5.0, course, false, now))
	// No activity at all after close.
	assert.Equal(t, models.StatusNoShow, ResolveAt(0.0, course, false, now))
	// Withdrawal wins over everything, including a passing grade.
	assert.Equal(t, models.StatusNoShow, ResolveAt(5.0, course, true, now))
	assert.Equal(t, models.StatusNoShow, ResolveAt(9.5, course, true, now))
}

func TestResolveOpenCourse(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	tomorrow := now.AddDate(0, 0, 1)
	course := CourseRules{PassThreshold: 7.0, EndDate: datePtr(tomorrow)}

	assert.Equal(t, models.StatusInProgress, ResolveAt(5.0, course, false, now))
	assert.Equal(t, models.StatusPassed, ResolveAt(7.0, course, false, now))
}

func TestResolveCourseEndingToday(t *testing.T) {
	// A course whose end date is today is still open; closure starts the day after.
	now := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	course := CourseRules{PassThreshold: 7.0, EndDate: datePtr(now)}

	assert.Equal(t, models.StatusInProgress, ResolveAt(0.0, course, false, now))
}

func TestResolveNoEndDate(t *testing.T) {
	course := CourseRules{PassThreshold: 7.0}
	assert.Equal(t, models.StatusInProgress, Resolve(3.0, course, false))
	assert.Equal(t, models.StatusPassed, Resolve(7.5, course, false))
	assert.Equal(t, models.StatusNoShow, Resolve(7.5, course, true))
}

func TestResolveIsDeterministic(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	course := CourseRules{PassThreshold: 7.0, EndDate: datePtr(now.AddDate(0, 0, -30))}
	first := ResolveAt(4.2, course, false, now)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ResolveAt(4.2, course, false, now))
	}
}
