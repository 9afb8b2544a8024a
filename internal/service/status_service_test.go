package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FleerJam/appGestionAcademica/internal/models"
)

type mockStatusEnrollmentStore struct {
	byCourse []models.Enrollment
	stale    []models.Enrollment
	updated  []*models.Enrollment
}

func (m *mockStatusEnrollmentStore) ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	return m.byCourse, nil
}

func (m *mockStatusEnrollmentStore) Update(ctx context.Context, enrollment *models.Enrollment) error {
	m.updated = append(m.updated, enrollment)
	return nil
}

func (m *mockStatusEnrollmentStore) ListStaleInProgress(ctx context.Context) ([]models.Enrollment, error) {
	return m.stale, nil
}

func grade(v float64) *float64 { return &v }

func TestStatusServiceRecomputeCourse(t *testing.T) {
	past := time.Now().AddDate(0, -2, 0)
	courses := &mockCourseReader{course: &models.Course{ID: "crs-1", PassThreshold: 7.0, EndDate: &past}}
	enrollments := &mockStatusEnrollmentStore{byCourse: []models.Enrollment{
		{ID: "enr-1", CourseID: "crs-1", FinalGrade: grade(8.0), Status: models.StatusInProgress},
		{ID: "enr-2", CourseID: "crs-1", FinalGrade: grade(4.0), Status: models.StatusInProgress},
		{ID: "enr-3", CourseID: "crs-1", FinalGrade: grade(0.0), Status: models.StatusInProgress},
		{ID: "enr-4", CourseID: "crs-1", FinalGrade: grade(8.0), Status: models.StatusPassed},
	}}
	details := &mockGradeDetailStore{}
	svc := NewStatusService(courses, enrollments, details, nil)

	changed, err := svc.RecomputeCourse(context.Background(), "crs-1")
	require.NoError(t, err)
	assert.Equal(t, 3, changed)

	statuses := map[string]models.EnrollmentStatus{}
	for _, e := range enrollments.updated {
		statuses[e.ID] = e.Status
	}
	assert.Equal(t, models.StatusPassed, statuses["enr-1"])
	assert.Equal(t, models.StatusFailed, statuses["enr-2"])
	assert.Equal(t, models.StatusNoShow, statuses["enr-3"])
	assert.NotContains(t, statuses, "enr-4")
	assert.Contains(t, details.zeroed, "enr-3")
}

func TestStatusServiceNoShowIsSticky(t *testing.T) {
	// no end date and a passing grade would normally mean APROBADO,
	// but a settled withdrawal never comes back
	courses := &mockCourseReader{course: &models.Course{ID: "crs-1", PassThreshold: 7.0}}
	enrollments := &mockStatusEnrollmentStore{byCourse: []models.Enrollment{
		{ID: "enr-1", CourseID: "crs-1", FinalGrade: grade(9.5), Status: models.StatusNoShow},
	}}
	details := &mockGradeDetailStore{}
	svc := NewStatusService(courses, enrollments, details, nil)

	changed, err := svc.RecomputeCourse(context.Background(), "crs-1")
	require.NoError(t, err)
	assert.Equal(t, 1, changed) // the non-zero grade gets flattened

	require.Len(t, enrollments.updated, 1)
	assert.Equal(t, models.StatusNoShow, enrollments.updated[0].Status)
	require.NotNil(t, enrollments.updated[0].FinalGrade)
	assert.Zero(t, *enrollments.updated[0].FinalGrade)
	assert.Contains(t, details.zeroed, "enr-1")
}

func TestStatusServiceMaintenanceSweep(t *testing.T) {
	past := time.Now().AddDate(0, -1, 0)
	courses := &mockCourseReader{course: &models.Course{ID: "crs-1", PassThreshold: 7.0, EndDate: &past}}
	enrollments := &mockStatusEnrollmentStore{stale: []models.Enrollment{
		{ID: "enr-1", CourseID: "crs-1", FinalGrade: grade(2.5), Status: models.StatusInProgress},
		{ID: "enr-2", CourseID: "crs-1", FinalGrade: nil, Status: models.StatusInProgress},
	}}
	details := &mockGradeDetailStore{}
	svc := NewStatusService(courses, enrollments, details, nil)

	report, err := svc.MaintenanceSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Examined)
	assert.Equal(t, 2, report.Settled)

	statuses := map[string]models.EnrollmentStatus{}
	for _, e := range enrollments.updated {
		statuses[e.ID] = e.Status
	}
	assert.Equal(t, models.StatusFailed, statuses["enr-1"])
	assert.Equal(t, models.StatusNoShow, statuses["enr-2"])
}

func TestStatusServiceSweepIsIdempotentOnCleanData(t *testing.T) {
	courses := &mockCourseReader{}
	enrollments := &mockStatusEnrollmentStore{}
	svc := NewStatusService(courses, enrollments, &mockGradeDetailStore{}, nil)

	report, err := svc.MaintenanceSweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Examined)
	assert.Zero(t, report.Settled)
	assert.Empty(t, enrollments.updated)
}
