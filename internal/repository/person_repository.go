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

// PersonRepository handles persistence of people.
type PersonRepository struct {
	db *sqlx.DB
}

// NewPersonRepository constructs the repository.
func NewPersonRepository(db *sqlx.DB) *PersonRepository {
	return &PersonRepository{db: db}
}

// List returns people filtered by the provided criteria.
func (r *PersonRepository) List(ctx context.Context, filter models.PersonFilter) ([]models.PersonDetail, int, error) {
	base := `FROM people p LEFT JOIN centers c ON c.id = p.center_id`
	var conditions []string
	var args []interface{}

	if filter.NationalID != "" {
		conditions = append(conditions, fmt.Sprintf("p.national_id = $%d", len(args)+1))
		args = append(args, filter.NationalID)
	}
	if filter.CenterID != "" {
		conditions = append(conditions, fmt.Sprintf("p.center_id = $%d", len(args)+1))
		args = append(args, filter.CenterID)
	}
	if filter.Role != "" {
		conditions = append(conditions, fmt.Sprintf("p.role = $%d", len(args)+1))
		args = append(args, filter.Role)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		conditions = append(conditions, fmt.Sprintf("(p.full_name ILIKE $%d OR p.national_id ILIKE $%d OR p.institution ILIKE $%d)", len(args)+1, len(args)+2, len(args)+3))
		args = append(args, pattern, pattern, pattern)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"full_name":   "p.full_name",
		"national_id": "p.national_id",
		"created_at":  "p.created_at",
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

	query := fmt.Sprintf(`SELECT p.id, p.national_id, p.full_name, p.email, p.role, p.center_id, p.institution, p.created_at, p.updated_at,
        COALESCE(c.name, '') AS center_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var people []models.PersonDetail
	if err := r.db.SelectContext(ctx, &people, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list people: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count people: %w", err)
	}
	return people, total, nil
}

// All returns every person; used to prime the import batch cache.
func (r *PersonRepository) All(ctx context.Context) ([]models.Person, error) {
	const query = `SELECT id, national_id, full_name, email, role, center_id, institution, created_at, updated_at FROM people`
	var people []models.Person
	if err := r.db.SelectContext(ctx, &people, query); err != nil {
		return nil, fmt.Errorf("load people: %w", err)
	}
	return people, nil
}

// FindByID returns a person by its ID.
func (r *PersonRepository) FindByID(ctx context.Context, id string) (*models.Person, error) {
	const query = `SELECT id, national_id, full_name, email, role, center_id, institution, created_at, updated_at FROM people WHERE id = $1`
	var person models.Person
	if err := r.db.GetContext(ctx, &person, query, id); err != nil {
		return nil, err
	}
	return &person, nil
}

// FindByNationalID returns a person by their national identifier.
func (r *PersonRepository) FindByNationalID(ctx context.Context, nationalID string) (*models.Person, error) {
	const query = `SELECT id, national_id, full_name, email, role, center_id, institution, created_at, updated_at FROM people WHERE national_id = $1`
	var person models.Person
	if err := r.db.GetContext(ctx, &person, query, nationalID); err != nil {
		return nil, err
	}
	return &person, nil
}

// Create persists a new person.
func (r *PersonRepository) Create(ctx context.Context, person *models.Person) error {
	if person.ID == "" {
		person.ID = uuid.NewString()
	}
	if person.Role == "" {
		person.Role = models.RoleStudent
	}
	now := time.Now().UTC()
	person.CreatedAt = now
	person.UpdatedAt = now
	const query = `INSERT INTO people (id, national_id, full_name, email, role, center_id, institution, created_at, updated_at)
        VALUES (:id, :national_id, :full_name, :email, :role, :center_id, :institution, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, person); err != nil {
		return fmt.Errorf("create person: %w", err)
	}
	return nil
}

// Update rewrites a person's mutable profile fields.
func (r *PersonRepository) Update(ctx context.Context, person *models.Person) error {
	person.UpdatedAt = time.Now().UTC()
	const query = `UPDATE people SET full_name = :full_name, email = :email, role = :role,
        center_id = :center_id, institution = :institution, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, person); err != nil {
		return fmt.Errorf("update person: %w", err)
	}
	return nil
}

// UpdateCenter reassigns a person to a center (last-import-wins).
func (r *PersonRepository) UpdateCenter(ctx context.Context, personID, centerID string) error {
	const query = `UPDATE people SET center_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, personID, centerID, time.Now().UTC()); err != nil {
		return fmt.Errorf("update person center: %w", err)
	}
	return nil
}
