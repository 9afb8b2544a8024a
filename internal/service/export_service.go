package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/FleerJam/appGestionAcademica/internal/models"
	appErrors "github.com/FleerJam/appGestionAcademica/pkg/errors"
	"github.com/FleerJam/appGestionAcademica/pkg/export"
)

type exportEnrollmentReader interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
}

type exportCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// ExportService renders import logs and course reports as files.
type ExportService struct {
	enrollments exportEnrollmentReader
	courses     exportCourseReader
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	titlePrefix string
	logger      *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(enrollments exportEnrollmentReader, courses exportCourseReader, titlePrefix string, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		enrollments: enrollments,
		courses:     courses,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		titlePrefix: titlePrefix,
		logger:      logger,
	}
}

// ImportLogCSV renders an import batch result as CSV.
func (s *ExportService) ImportLogCSV(result *models.ImportResult) ([]byte, error) {
	headers := []string{"metric", "value"}
	rows := []map[string]string{
		{"metric": "total_rows", "value": strconv.Itoa(result.TotalRows)},
		{"metric": "accepted_valid", "value": strconv.Itoa(result.AcceptedValid)},
		{"metric": "accepted_corrected", "value": strconv.Itoa(result.AcceptedCorrected)},
		{"metric": "omitted_rows", "value": strconv.Itoa(result.OmittedRows)},
		{"metric": "new_people", "value": strconv.Itoa(result.NewPeople)},
		{"metric": "new_enrollments", "value": strconv.Itoa(result.NewEnrollments)},
		{"metric": "updated_enrollments", "value": strconv.Itoa(result.UpdatedEnrollments)},
	}
	for i, note := range result.Notes {
		rows = append(rows, map[string]string{"metric": fmt.Sprintf("note_%d", i+1), "value": note})
	}
	data, err := s.csv.Render(export.Dataset{Headers: headers, Rows: rows})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render import log")
	}
	return data, nil
}

// CourseReportPDF renders the enrollment roster of one course as a PDF.
func (s *ExportService) CourseReportPDF(ctx context.Context, courseID string) ([]byte, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrCourseNotFound, "course does not exist")
	}

	details, err := s.fullRoster(ctx, courseID)
	if err != nil {
		return nil, err
	}

	headers := []string{"Cedula", "Nombre", "Centro", "Nota", "Estado"}
	rows := make([]map[string]string, 0, len(details))
	for _, d := range details {
		rows = append(rows, map[string]string{
			"Cedula": d.PersonNationalID,
			"Nombre": d.PersonName,
			"Centro": d.CenterName,
			"Nota":   strconv.FormatFloat(d.GradeOrZero(), 'f', 2, 64),
			"Estado": string(d.Status),
		})
	}

	title := strings.TrimSpace(s.titlePrefix + " " + course.Name)
	data, err := s.pdf.Render(export.Dataset{Headers: headers, Rows: rows}, title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render course report")
	}
	return data, nil
}

// fullRoster pages through every enrollment of a course.
func (s *ExportService) fullRoster(ctx context.Context, courseID string) ([]models.EnrollmentDetail, error) {
	var all []models.EnrollmentDetail
	for page := 1; ; page++ {
		details, _, err := s.enrollments.List(ctx, models.EnrollmentFilter{CourseID: courseID, Page: page, PageSize: 100})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
		}
		all = append(all, details...)
		if len(details) < 100 {
			return all, nil
		}
	}
}

// CourseRosterCSV renders the enrollment roster of one course as CSV.
func (s *ExportService) CourseRosterCSV(ctx context.Context, courseID string) ([]byte, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrCourseNotFound, "course does not exist")
	}

	details, err := s.fullRoster(ctx, courseID)
	if err != nil {
		return nil, err
	}

	headers := []string{"cedula", "nombre", "centro", "nota", "estado"}
	rows := make([]map[string]string, 0, len(details))
	for _, d := range details {
		rows = append(rows, map[string]string{
			"cedula": d.PersonNationalID,
			"nombre": d.PersonName,
			"centro": d.CenterName,
			"nota":   strconv.FormatFloat(d.GradeOrZero(), 'f', 2, 64),
			"estado": string(d.Status),
		})
	}
	data, err := s.csv.Render(export.Dataset{Headers: headers, Rows: rows})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}
	return data, nil
}
