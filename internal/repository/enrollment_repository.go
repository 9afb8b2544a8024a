package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/FleerJam/appGestionAcademica/internal/models"
)

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentColumns = `id, person_id, course_id, center_id, final_grade, status, created_at, updated_at`

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE id = $1`, enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindByPersonAndCourse returns the enrollment joining a person to a course.
func (r *EnrollmentRepository) FindByPersonAndCourse(ctx context.Context, personID, courseID string) (*models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE person_id = $1 AND course_id = $2`, enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, personID, courseID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ListByCourse returns every enrollment of a course.
func (r *EnrollmentRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE course_id = $1`, enrollmentColumns)
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, courseID); err != nil {
		return nil, fmt.Errorf("list enrollments by course: %w", err)
	}
	return enrollments, nil
}

// List returns enriched enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e
        JOIN people p ON p.id = e.person_id
        JOIN courses co ON co.id = e.course_id
        LEFT JOIN centers c ON c.id = e.center_id`
	var conditions []string
	var args []interface{}

	if filter.PersonID != "" {
		conditions = append(conditions, fmt.Sprintf("e.person_id = $%d", len(args)+1))
		args = append(args, filter.PersonID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("e.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.CenterID != "" {
		conditions = append(conditions, fmt.Sprintf("e.center_id = $%d", len(args)+1))
		args = append(args, filter.CenterID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		conditions = append(conditions, fmt.Sprintf("(p.full_name ILIKE $%d OR p.national_id ILIKE $%d)", len(args)+1, len(args)+2))
		args = append(args, pattern, pattern)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"person_name": "p.full_name",
		"status":      "e.status",
		"final_grade": "e.final_grade",
		"created_at":  "e.created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "p.full_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.person_id, e.course_id, e.center_id, e.final_grade, e.status, e.created_at, e.updated_at,
        p.full_name AS person_name, p.national_id AS person_national_id,
        co.name AS course_name, COALESCE(c.name, '') AS center_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var details []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &details, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return details, total, nil
}

// Create persists a new enrollment.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	const query = `INSERT INTO enrollments (id, person_id, course_id, center_id, final_grade, status, created_at, updated_at)
        VALUES (:id, :person_id, :course_id, :center_id, :final_grade, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// Update rewrites an enrollment's grade, status and center.
func (r *EnrollmentRepository) Update(ctx context.Context, enrollment *models.Enrollment) error {
	enrollment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE enrollments SET final_grade = :final_grade, status = :status,
        center_id = :center_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}
	return nil
}

// ListStaleInProgress returns enrollments still marked in progress whose
// course already closed; the startup sweep settles them. Closure is compared
// at the day boundary: a course ending today is still open, matching the
// status engine.
func (r *EnrollmentRepository) ListStaleInProgress(ctx context.Context) ([]models.Enrollment, error) {
	const query = `SELECT e.id, e.person_id, e.course_id, e.center_id, e.final_grade, e.status, e.created_at, e.updated_at
        FROM enrollments e
        JOIN courses c ON c.id = e.course_id
        WHERE e.status = $1 AND c.end_date IS NOT NULL AND c.end_date < $2`
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, models.StatusInProgress, today); err != nil {
		return nil, fmt.Errorf("list stale enrollments: %w", err)
	}
	return enrollments, nil
}
