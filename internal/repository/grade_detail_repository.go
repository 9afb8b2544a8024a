package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/FleerJam/appGestionAcademica/internal/models"
)

// GradeDetailRepository handles persistence of per-evaluation scores.
type GradeDetailRepository struct {
	db *sqlx.DB
}

// NewGradeDetailRepository constructs the repository.
func NewGradeDetailRepository(db *sqlx.DB) *GradeDetailRepository {
	return &GradeDetailRepository{db: db}
}

// ListByEnrollment returns the stored scores of one enrollment.
func (r *GradeDetailRepository) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.GradeDetail, error) {
	const query = `SELECT id, enrollment_id, evaluation_id, score, created_at, updated_at
        FROM grade_details WHERE enrollment_id = $1`
	var details []models.GradeDetail
	if err := r.db.SelectContext(ctx, &details, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list grade details: %w", err)
	}
	return details, nil
}

// Upsert writes a score, overwriting any previous value for the same
// enrollment and evaluation pair.
func (r *GradeDetailRepository) Upsert(ctx context.Context, detail *models.GradeDetail) error {
	if detail.ID == "" {
		detail.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	detail.CreatedAt = now
	detail.UpdatedAt = now
	const query = `INSERT INTO grade_details (id, enrollment_id, evaluation_id, score, created_at, updated_at)
        VALUES (:id, :enrollment_id, :evaluation_id, :score, :created_at, :updated_at)
        ON CONFLICT (enrollment_id, evaluation_id)
        DO UPDATE SET score = EXCLUDED.score, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, detail); err != nil {
		return fmt.Errorf("upsert grade detail: %w", err)
	}
	return nil
}

// ZeroByEnrollment flattens every stored score of an enrollment to zero.
// Used when an enrollment settles as a no-show.
func (r *GradeDetailRepository) ZeroByEnrollment(ctx context.Context, enrollmentID string) error {
	const query = `UPDATE grade_details SET score = 0, updated_at = $2 WHERE enrollment_id = $1`
	if _, err := r.db.ExecContext(ctx, query, enrollmentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("zero grade details: %w", err)
	}
	return nil
}
