package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/FleerJam/appGestionAcademica/internal/models"
)

// EvaluationRepository handles persistence of course evaluation schemas.
type EvaluationRepository struct {
	db *sqlx.DB
}

// NewEvaluationRepository constructs the repository.
func NewEvaluationRepository(db *sqlx.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// ListByCourse returns the evaluation schema of a course ordered by position.
func (r *EvaluationRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Evaluation, error) {
	const query = `SELECT id, course_id, name, weight_percent, position, required, created_at
        FROM evaluations WHERE course_id = $1 ORDER BY position`
	var evaluations []models.Evaluation
	if err := r.db.SelectContext(ctx, &evaluations, query, courseID); err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	return evaluations, nil
}

// ReplaceSchema swaps the full evaluation schema of a course in one
// transaction. Grade details referencing the old rows cascade away with them.
func (r *EvaluationRepository) ReplaceSchema(ctx context.Context, courseID string, evaluations []models.Evaluation) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace schema: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM evaluations WHERE course_id = $1`, courseID); err != nil {
		return fmt.Errorf("clear evaluations: %w", err)
	}

	const insert = `INSERT INTO evaluations (id, course_id, name, weight_percent, position, required, created_at)
        VALUES (:id, :course_id, :name, :weight_percent, :position, :required, :created_at)`
	now := time.Now().UTC()
	for i := range evaluations {
		if evaluations[i].ID == "" {
			evaluations[i].ID = uuid.NewString()
		}
		evaluations[i].CourseID = courseID
		evaluations[i].Position = i + 1
		evaluations[i].CreatedAt = now
		if _, err := tx.NamedExecContext(ctx, insert, evaluations[i]); err != nil {
			return fmt.Errorf("insert evaluation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace schema: %w", err)
	}
	return nil
}
