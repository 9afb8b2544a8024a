package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/FleerJam/appGestionAcademica/internal/grading"
	"github.com/FleerJam/appGestionAcademica/internal/models"
	appErrors "github.com/FleerJam/appGestionAcademica/pkg/errors"
)

type statusCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type statusEnrollmentStore interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error)
	Update(ctx context.Context, enrollment *models.Enrollment) error
	ListStaleInProgress(ctx context.Context) ([]models.Enrollment, error)
}

type statusGradeDetailStore interface {
	ZeroByEnrollment(ctx context.Context, enrollmentID string) error
}

// SweepReport summarises one maintenance sweep.
type SweepReport struct {
	Examined int `json:"examined"`
	Settled  int `json:"settled"`
}

// StatusService recomputes enrollment statuses when course parameters change
// and settles stale in-progress enrollments at startup.
type StatusService struct {
	courses     statusCourseReader
	enrollments statusEnrollmentStore
	details     statusGradeDetailStore
	logger      *zap.Logger
}

// NewStatusService constructs StatusService.
func NewStatusService(courses statusCourseReader, enrollments statusEnrollmentStore, details statusGradeDetailStore, logger *zap.Logger) *StatusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusService{courses: courses, enrollments: enrollments, details: details, logger: logger}
}

// RecomputeCourse re-derives the status of every enrollment in a course. A
// settled no-show stays a no-show: the withdrawal decision was explicit and no
// parameter change revives the enrollment.
func (s *StatusService) RecomputeCourse(ctx context.Context, courseID string) (int, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrCourseNotFound, "course does not exist")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	rules := grading.CourseRules{PassThreshold: course.PassThreshold, EndDate: course.EndDate}

	enrollments, err := s.enrollments.ListByCourse(ctx, courseID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}

	changed := 0
	for i := range enrollments {
		if updated, err := s.recomputeOne(ctx, &enrollments[i], rules); err != nil {
			s.logger.Warn("status recompute failed", zap.String("enrollment_id", enrollments[i].ID), zap.Error(err))
		} else if updated {
			changed++
		}
	}
	s.logger.Info("course statuses recomputed", zap.String("course_id", courseID), zap.Int("changed", changed))
	return changed, nil
}

// MaintenanceSweep settles enrollments still in progress whose course already
// closed. It is idempotent: a clean database yields an empty report.
func (s *StatusService) MaintenanceSweep(ctx context.Context) (*SweepReport, error) {
	stale, err := s.enrollments.ListStaleInProgress(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list stale enrollments")
	}

	report := &SweepReport{Examined: len(stale)}
	rulesByCourse := make(map[string]grading.CourseRules)

	for i := range stale {
		rules, ok := rulesByCourse[stale[i].CourseID]
		if !ok {
			course, err := s.courses.FindByID(ctx, stale[i].CourseID)
			if err != nil {
				s.logger.Warn("sweep skipped enrollment, course load failed", zap.String("course_id", stale[i].CourseID), zap.Error(err))
				continue
			}
			rules = grading.CourseRules{PassThreshold: course.PassThreshold, EndDate: course.EndDate}
			rulesByCourse[stale[i].CourseID] = rules
		}
		if updated, err := s.recomputeOne(ctx, &stale[i], rules); err != nil {
			s.logger.Warn("sweep update failed", zap.String("enrollment_id", stale[i].ID), zap.Error(err))
		} else if updated {
			report.Settled++
		}
	}

	s.logger.Info("maintenance sweep finished", zap.Int("examined", report.Examined), zap.Int("settled", report.Settled))
	return report, nil
}

// recomputeOne applies the status rules to one enrollment, persisting only on
// change. No-show settlement forces the aggregate grade and details to zero.
func (s *StatusService) recomputeOne(ctx context.Context, enrollment *models.Enrollment, rules grading.CourseRules) (bool, error) {
	withdrawal := enrollment.Status == models.StatusNoShow
	status := grading.Resolve(enrollment.GradeOrZero(), rules, withdrawal)

	grade := enrollment.GradeOrZero()
	if status == models.StatusNoShow {
		grade = 0.0
	}

	if status == enrollment.Status && grade == enrollment.GradeOrZero() && enrollment.FinalGrade != nil {
		return false, nil
	}

	enrollment.Status = status
	enrollment.FinalGrade = &grade
	if err := s.enrollments.Update(ctx, enrollment); err != nil {
		return false, err
	}
	if status == models.StatusNoShow {
		if err := s.details.ZeroByEnrollment(ctx, enrollment.ID); err != nil {
			return false, err
		}
	}
	return true, nil
}
