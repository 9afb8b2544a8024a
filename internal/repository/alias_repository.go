package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/FleerJam/appGestionAcademica/internal/models"
)

// AliasRepository handles persistence of identifier aliases.
type AliasRepository struct {
	db *sqlx.DB
}

// NewAliasRepository constructs the repository.
func NewAliasRepository(db *sqlx.DB) *AliasRepository {
	return &AliasRepository{db: db}
}

// All returns the full alias dictionary keyed by the malformed variant. The
// value is the person's current national ID, resolved through the join so the
// dictionary survives identifier corrections on the person record.
func (r *AliasRepository) All(ctx context.Context) (map[string]string, error) {
	const query = `SELECT a.value, p.national_id FROM identifier_aliases a
        JOIN people p ON p.id = a.person_id`
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load aliases: %w", err)
	}
	defer rows.Close()

	dict := make(map[string]string)
	for rows.Next() {
		var value, nationalID string
		if err := rows.Scan(&value, &nationalID); err != nil {
			return nil, fmt.Errorf("scan alias: %w", err)
		}
		dict[value] = nationalID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aliases: %w", err)
	}
	return dict, nil
}

// ExistsValue reports whether the variant is already registered.
func (r *AliasRepository) ExistsValue(ctx context.Context, value string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM identifier_aliases WHERE value = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, value); err != nil {
		return false, fmt.Errorf("check alias: %w", err)
	}
	return exists, nil
}

// Create registers a new alias.
func (r *AliasRepository) Create(ctx context.Context, alias *models.IdentifierAlias) error {
	if alias.ID == "" {
		alias.ID = uuid.NewString()
	}
	alias.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO identifier_aliases (id, person_id, value, created_at)
        VALUES (:id, :person_id, :value, :created_at)
        ON CONFLICT (value) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, alias); err != nil {
		return fmt.Errorf("create alias: %w", err)
	}
	return nil
}
