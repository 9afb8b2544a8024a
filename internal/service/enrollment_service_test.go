package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FleerJam/appGestionAcademica/internal/models"
	appErrors "github.com/FleerJam/appGestionAcademica/pkg/errors"
)

type mockEnrollmentRepo struct {
	byID     map[string]*models.Enrollment
	existing map[string]*models.Enrollment // personID -> enrollment
	created  []*models.Enrollment
	updated  []*models.Enrollment
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.byID[id]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) FindByPersonAndCourse(ctx context.Context, personID, courseID string) (*models.Enrollment, error) {
	if e, ok := m.existing[personID]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	return nil, 0, nil
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	enrollment.ID = "enr-new"
	m.created = append(m.created, enrollment)
	return nil
}

func (m *mockEnrollmentRepo) Update(ctx context.Context, enrollment *models.Enrollment) error {
	m.updated = append(m.updated, enrollment)
	return nil
}

type mockPersonReader struct {
	person *models.Person
}

func (m *mockPersonReader) FindByID(ctx context.Context, id string) (*models.Person, error) {
	if m.person == nil {
		return nil, sql.ErrNoRows
	}
	return m.person, nil
}

type mockGradeDetailReader struct {
	mockGradeDetailStore
	stored []models.GradeDetail
}

func (m *mockGradeDetailReader) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.GradeDetail, error) {
	out := append([]models.GradeDetail{}, m.stored...)
	for _, u := range m.upserts {
		out = append(out, u)
	}
	return out, nil
}

func TestEnrollmentServiceMatriculate(t *testing.T) {
	enrollments := &mockEnrollmentRepo{existing: map[string]*models.Enrollment{}}
	people := &mockPersonReader{person: &models.Person{ID: "per-1", CenterID: "ctr-1"}}
	courses := &mockCourseReader{course: &models.Course{ID: "crs-1", PassThreshold: 7.0}}
	svc := NewEnrollmentService(enrollments, people, courses, &mockEvaluationReader{}, &mockGradeDetailReader{}, nil, nil)

	enrollment, err := svc.Matriculate(context.Background(), MatriculateRequest{PersonID: "per-1", CourseID: "crs-1"})
	require.NoError(t, err)
	assert.Equal(t, "per-1", enrollment.PersonID)
	assert.Equal(t, "ctr-1", enrollment.CenterID) // inherited from the person
	assert.Equal(t, models.StatusInProgress, enrollment.Status)
}

func TestEnrollmentServiceMatriculateTwiceConflicts(t *testing.T) {
	enrollments := &mockEnrollmentRepo{existing: map[string]*models.Enrollment{
		"per-1": {ID: "enr-1", PersonID: "per-1", CourseID: "crs-1"},
	}}
	people := &mockPersonReader{person: &models.Person{ID: "per-1", CenterID: "ctr-1"}}
	courses := &mockCourseReader{course: &models.Course{ID: "crs-1", PassThreshold: 7.0}}
	svc := NewEnrollmentService(enrollments, people, courses, &mockEvaluationReader{}, &mockGradeDetailReader{}, nil, nil)

	_, err := svc.Matriculate(context.Background(), MatriculateRequest{PersonID: "per-1", CourseID: "crs-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, enrollments.created)
}

func TestEnrollmentServiceRecordScoreRecomputesGrade(t *testing.T) {
	enrollments := &mockEnrollmentRepo{
		byID: map[string]*models.Enrollment{
			"enr-1": {ID: "enr-1", PersonID: "per-1", CourseID: "crs-1", Status: models.StatusInProgress},
		},
	}
	people := &mockPersonReader{person: &models.Person{ID: "per-1"}}
	courses := &mockCourseReader{course: &models.Course{ID: "crs-1", PassThreshold: 7.0}}
	evaluations := &mockEvaluationReader{evaluations: []models.Evaluation{
		{ID: "ev-1", WeightPercent: 60},
		{ID: "ev-2", WeightPercent: 40},
	}}
	details := &mockGradeDetailReader{stored: []models.GradeDetail{
		{EnrollmentID: "enr-1", EvaluationID: "ev-1", Score: 8.0},
	}}
	svc := NewEnrollmentService(enrollments, people, courses, evaluations, details, nil, nil)

	enrollment, err := svc.RecordScore(context.Background(), "enr-1", ScoreRequest{EvaluationID: "ev-2", Score: 9.0})
	require.NoError(t, err)
	require.NotNil(t, enrollment.FinalGrade)
	assert.InDelta(t, 8.4, *enrollment.FinalGrade, 0.001)
	assert.Equal(t, models.StatusPassed, enrollment.Status)
	require.Len(t, enrollments.updated, 1)
}

func TestEnrollmentServiceRecordScoreClearsWithdrawal(t *testing.T) {
	enrollments := &mockEnrollmentRepo{
		byID: map[string]*models.Enrollment{
			"enr-1": {ID: "enr-1", PersonID: "per-1", CourseID: "crs-1", Status: models.StatusNoShow},
		},
	}
	courses := &mockCourseReader{course: &models.Course{ID: "crs-1", PassThreshold: 7.0}}
	evaluations := &mockEvaluationReader{evaluations: []models.Evaluation{{ID: "ev-1", WeightPercent: 100}}}
	svc := NewEnrollmentService(enrollments, &mockPersonReader{}, courses, evaluations, &mockGradeDetailReader{}, nil, nil)

	attending := false
	enrollment, err := svc.RecordScore(context.Background(), "enr-1", ScoreRequest{EvaluationID: "ev-1", Score: 9.0, Withdrawal: &attending})
	require.NoError(t, err)
	require.NotNil(t, enrollment.FinalGrade)
	assert.InDelta(t, 9.0, *enrollment.FinalGrade, 0.001)
	assert.Equal(t, models.StatusPassed, enrollment.Status)
}

func TestEnrollmentServiceRecordScoreKeepsWithdrawalWhenFlagOmitted(t *testing.T) {
	enrollments := &mockEnrollmentRepo{
		byID: map[string]*models.Enrollment{
			"enr-1": {ID: "enr-1", PersonID: "per-1", CourseID: "crs-1", Status: models.StatusNoShow},
		},
	}
	courses := &mockCourseReader{course: &models.Course{ID: "crs-1", PassThreshold: 7.0}}
	evaluations := &mockEvaluationReader{evaluations: []models.Evaluation{{ID: "ev-1", WeightPercent: 100}}}
	svc := NewEnrollmentService(enrollments, &mockPersonReader{}, courses, evaluations, &mockGradeDetailReader{}, nil, nil)

	enrollment, err := svc.RecordScore(context.Background(), "enr-1", ScoreRequest{EvaluationID: "ev-1", Score: 9.0})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNoShow, enrollment.Status)
	require.NotNil(t, enrollment.FinalGrade)
	assert.Zero(t, *enrollment.FinalGrade)
}

func TestEnrollmentServiceRecordScoreRejectsForeignEvaluation(t *testing.T) {
	enrollments := &mockEnrollmentRepo{
		byID: map[string]*models.Enrollment{
			"enr-1": {ID: "enr-1", CourseID: "crs-1", Status: models.StatusInProgress},
		},
	}
	courses := &mockCourseReader{course: &models.Course{ID: "crs-1", PassThreshold: 7.0}}
	evaluations := &mockEvaluationReader{evaluations: []models.Evaluation{{ID: "ev-1", WeightPercent: 100}}}
	svc := NewEnrollmentService(enrollments, &mockPersonReader{}, courses, evaluations, &mockGradeDetailReader{}, nil, nil)

	_, err := svc.RecordScore(context.Background(), "enr-1", ScoreRequest{EvaluationID: "ev-other", Score: 5.0})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
