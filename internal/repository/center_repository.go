package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/FleerJam/appGestionAcademica/internal/models"
)

// CenterRepository handles persistence of centers.
type CenterRepository struct {
	db *sqlx.DB
}

// NewCenterRepository constructs the repository.
func NewCenterRepository(db *sqlx.DB) *CenterRepository {
	return &CenterRepository{db: db}
}

// All returns every registered center.
func (r *CenterRepository) All(ctx context.Context) ([]models.Center, error) {
	const query = `SELECT id, name, zone, active, created_at, updated_at FROM centers ORDER BY name`
	var centers []models.Center
	if err := r.db.SelectContext(ctx, &centers, query); err != nil {
		return nil, fmt.Errorf("list centers: %w", err)
	}
	return centers, nil
}

// FindByID returns a center by its ID.
func (r *CenterRepository) FindByID(ctx context.Context, id string) (*models.Center, error) {
	const query = `SELECT id, name, zone, active, created_at, updated_at FROM centers WHERE id = $1`
	var center models.Center
	if err := r.db.GetContext(ctx, &center, query, id); err != nil {
		return nil, err
	}
	return &center, nil
}

// Create persists a new center.
func (r *CenterRepository) Create(ctx context.Context, center *models.Center) error {
	if center.ID == "" {
		center.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	center.CreatedAt = now
	center.UpdatedAt = now
	const query = `INSERT INTO centers (id, name, zone, active, created_at, updated_at)
        VALUES (:id, :name, :zone, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, center); err != nil {
		return fmt.Errorf("create center: %w", err)
	}
	return nil
}
