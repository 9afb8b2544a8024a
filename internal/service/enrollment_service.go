package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/FleerJam/appGestionAcademica/internal/grading"
	"github.com/FleerJam/appGestionAcademica/internal/models"
	appErrors "github.com/FleerJam/appGestionAcademica/pkg/errors"
)

type enrollmentRepo interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindByPersonAndCourse(ctx context.Context, personID, courseID string) (*models.Enrollment, error)
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Update(ctx context.Context, enrollment *models.Enrollment) error
}

type enrollmentPersonReader interface {
	FindByID(ctx context.Context, id string) (*models.Person, error)
}

type enrollmentCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type enrollmentEvaluationReader interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Evaluation, error)
}

type enrollmentGradeDetailStore interface {
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.GradeDetail, error)
	Upsert(ctx context.Context, detail *models.GradeDetail) error
}

// MatriculateRequest enrolls a person in a course by hand.
type MatriculateRequest struct {
	PersonID string `json:"person_id" validate:"required"`
	CourseID string `json:"course_id" validate:"required"`
	CenterID string `json:"center_id"`
}

// ScoreRequest records one evaluation score for an enrollment. Withdrawal
// mirrors the no-show mark on the grade entry form: omitted, the current
// status decides; set to false it lifts a standing NO REALIZO so the
// re-entered scores count again.
type ScoreRequest struct {
	EvaluationID string  `json:"evaluation_id" validate:"required"`
	Score        float64 `json:"score" validate:"gte=0,lte=10"`
	Withdrawal   *bool   `json:"withdrawal"`
}

// EnrollmentService covers manual matriculation and grade entry; bulk intake
// goes through the import pipeline instead.
type EnrollmentService struct {
	enrollments enrollmentRepo
	people      enrollmentPersonReader
	courses     enrollmentCourseReader
	evaluations enrollmentEvaluationReader
	details     enrollmentGradeDetailStore
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(enrollments enrollmentRepo, people enrollmentPersonReader, courses enrollmentCourseReader, evaluations enrollmentEvaluationReader, details enrollmentGradeDetailStore, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		enrollments: enrollments,
		people:      people,
		courses:     courses,
		evaluations: evaluations,
		details:     details,
		validator:   validate,
		logger:      logger,
	}
}

// List returns enriched enrollments matching the filter.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	details, total, err := s.enrollments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return details, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Matriculate enrolls a person in a course. Enrolling the same pair twice is a
// conflict; the import pipeline is the only writer allowed to overwrite.
func (s *EnrollmentService) Matriculate(ctx context.Context, req MatriculateRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid matriculation payload")
	}

	person, err := s.people.FindByID(ctx, req.PersonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "person does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load person")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrCourseNotFound, "course does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	if _, err := s.enrollments.FindByPersonAndCourse(ctx, person.ID, course.ID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "person is already enrolled in this course")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}

	centerID := req.CenterID
	if centerID == "" {
		centerID = person.CenterID
	}

	rules := grading.CourseRules{PassThreshold: course.PassThreshold, EndDate: course.EndDate}
	enrollment := &models.Enrollment{
		PersonID: person.ID,
		CourseID: course.ID,
		CenterID: centerID,
		Status:   grading.Resolve(0.0, rules, false),
	}
	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	return enrollment, nil
}

// RecordScore stores one evaluation score and re-derives the enrollment's
// final grade and status from the full score set.
func (s *EnrollmentService) RecordScore(ctx context.Context, enrollmentID string, req ScoreRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}

	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	course, err := s.courses.FindByID(ctx, enrollment.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	evaluations, err := s.evaluations.ListByCourse(ctx, enrollment.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation schema")
	}
	weights := make(map[string]float64, len(evaluations))
	for _, ev := range evaluations {
		weights[ev.ID] = ev.WeightPercent
	}
	if _, ok := weights[req.EvaluationID]; !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "evaluation does not belong to the enrollment's course")
	}

	if err := s.details.Upsert(ctx, &models.GradeDetail{
		EnrollmentID: enrollment.ID,
		EvaluationID: req.EvaluationID,
		Score:        req.Score,
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store score")
	}

	stored, err := s.details.ListByEnrollment(ctx, enrollment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scores")
	}
	entries := make([]grading.WeightedEntry, 0, len(stored))
	for _, d := range stored {
		entries = append(entries, grading.WeightedEntry{Score: d.Score, WeightPercent: weights[d.EvaluationID]})
	}

	rules := grading.CourseRules{PassThreshold: course.PassThreshold, EndDate: course.EndDate}
	grade := grading.WeightedAverage(entries)
	withdrawal := enrollment.Status == models.StatusNoShow
	if req.Withdrawal != nil {
		withdrawal = *req.Withdrawal
	}
	status := grading.Resolve(grade, rules, withdrawal)
	if status == models.StatusNoShow {
		grade = 0.0
	}

	enrollment.FinalGrade = &grade
	enrollment.Status = status
	if err := s.enrollments.Update(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}
	return enrollment, nil
}
