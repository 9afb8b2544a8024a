package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/FleerJam/appGestionAcademica/internal/models"
	appErrors "github.com/FleerJam/appGestionAcademica/pkg/errors"
)

// weightTolerance absorbs float drift when checking that weights sum to 100.
const weightTolerance = 0.01

type courseRepo interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
}

type evaluationRepo interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Evaluation, error)
	ReplaceSchema(ctx context.Context, courseID string, evaluations []models.Evaluation) error
}

type statusRecomputer interface {
	RecomputeCourse(ctx context.Context, courseID string) (int, error)
}

// CourseRequest is the create/update payload for a course.
type CourseRequest struct {
	Name          string     `json:"name" validate:"required"`
	Type          string     `json:"type"`
	Modality      string     `json:"modality"`
	StartDate     *time.Time `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
	DurationHours int        `json:"duration_hours" validate:"gte=0"`
	PassThreshold float64    `json:"pass_threshold" validate:"gte=0,lte=10"`
	Audience      []string   `json:"audience"`
}

// EvaluationRequest is one entry of a course's evaluation schema.
type EvaluationRequest struct {
	Name          string  `json:"name" validate:"required"`
	WeightPercent float64 `json:"weight_percent" validate:"gt=0,lte=100"`
	Required      bool    `json:"required"`
}

// CourseService manages courses and their evaluation schemas.
type CourseService struct {
	courses     courseRepo
	evaluations evaluationRepo
	statuses    statusRecomputer
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(courses courseRepo, evaluations evaluationRepo, statuses statusRecomputer, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{courses: courses, evaluations: evaluations, statuses: statuses, validator: validate, logger: logger}
}

// List returns courses matching the filter.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return courses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one course with its evaluation schema.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, []models.Evaluation, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrCourseNotFound, "course does not exist")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	evaluations, err := s.evaluations.ListByCourse(ctx, id)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation schema")
	}
	return course, evaluations, nil
}

// Create registers a new course.
func (s *CourseService) Create(ctx context.Context, req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course := &models.Course{
		Name:          req.Name,
		Type:          req.Type,
		Modality:      req.Modality,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		DurationHours: req.DurationHours,
		PassThreshold: req.PassThreshold,
		Audience:      pq.StringArray(req.Audience),
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// Update rewrites a course. When the pass threshold or the end date moved,
// every enrollment of the course gets its status re-derived.
func (s *CourseService) Update(ctx context.Context, id string, req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrCourseNotFound, "course does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	rulesChanged := course.PassThreshold != req.PassThreshold || !equalDates(course.EndDate, req.EndDate)

	course.Name = req.Name
	course.Type = req.Type
	course.Modality = req.Modality
	course.StartDate = req.StartDate
	course.EndDate = req.EndDate
	course.DurationHours = req.DurationHours
	course.PassThreshold = req.PassThreshold
	course.Audience = pq.StringArray(req.Audience)

	if err := s.courses.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}

	if rulesChanged && s.statuses != nil {
		if _, err := s.statuses.RecomputeCourse(ctx, id); err != nil {
			s.logger.Warn("status recompute after course update failed", zap.String("course_id", id), zap.Error(err))
		}
	}
	return course, nil
}

// ReplaceEvaluations swaps a course's evaluation schema. The weights must sum
// to 100 within tolerance, otherwise the whole schema is rejected.
func (s *CourseService) ReplaceEvaluations(ctx context.Context, courseID string, reqs []EvaluationRequest) ([]models.Evaluation, error) {
	if len(reqs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "evaluation schema cannot be empty")
	}
	sum := 0.0
	for _, req := range reqs {
		if err := s.validator.Struct(req); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation payload")
		}
		sum += req.WeightPercent
	}
	if math.Abs(sum-100.0) > weightTolerance {
		return nil, appErrors.Clone(appErrors.ErrInvalidWeights, "")
	}

	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrCourseNotFound, "course does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	evaluations := make([]models.Evaluation, len(reqs))
	for i, req := range reqs {
		evaluations[i] = models.Evaluation{
			Name:          req.Name,
			WeightPercent: req.WeightPercent,
			Required:      req.Required,
		}
	}
	if err := s.evaluations.ReplaceSchema(ctx, courseID, evaluations); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace evaluation schema")
	}

	if s.statuses != nil {
		if _, err := s.statuses.RecomputeCourse(ctx, courseID); err != nil {
			s.logger.Warn("status recompute after schema change failed", zap.String("course_id", courseID), zap.Error(err))
		}
	}
	return evaluations, nil
}

func equalDates(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
