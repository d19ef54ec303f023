package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/skysurvey-labs/exodb/pkg/apperrors"
	"github.com/skysurvey-labs/exodb/pkg/database"
	"github.com/skysurvey-labs/exodb/pkg/models"
)

// StarRepository defines data access for host stars.
type StarRepository interface {
	// Upsert inserts a star or, if the hostname already exists, refreshes
	// its distance. The surrogate key is written back to star.StarID.
	Upsert(ctx context.Context, star *models.Star) error

	// GetByHostname retrieves a star by its natural key.
	GetByHostname(ctx context.Context, hostname string) (*models.Star, error)

	// Delete removes a star by ID. Deletion cascades to its planets and
	// their discoveries.
	Delete(ctx context.Context, starID int64) error

	// Count returns the number of star rows.
	Count(ctx context.Context) (int64, error)
}

type starRepository struct {
	db *database.DB
}

// NewStarRepository creates a new star repository.
func NewStarRepository(db *database.DB) StarRepository {
	return &starRepository{db: db}
}

func (r *starRepository) Upsert(ctx context.Context, star *models.Star) error {
	query := `
		INSERT INTO stars (hostname, sy_dist)
		VALUES ($1, $2)
		ON CONFLICT (hostname) DO UPDATE
		SET sy_dist = EXCLUDED.sy_dist
		RETURNING star_id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, star.Hostname, star.SyDist).
		Scan(&star.StarID, &star.CreatedAt, &star.UpdatedAt)
	if err != nil {
		return translateError("upsert star", err)
	}
	return nil
}

func (r *starRepository) GetByHostname(ctx context.Context, hostname string) (*models.Star, error) {
	query := `
		SELECT star_id, hostname, sy_dist, created_at, updated_at
		FROM stars
		WHERE hostname = $1`

	var star models.Star
	err := r.db.QueryRow(ctx, query, hostname).
		Scan(&star.StarID, &star.Hostname, &star.SyDist, &star.CreatedAt, &star.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, translateError("get star by hostname", err)
	}
	return &star, nil
}

func (r *starRepository) Delete(ctx context.Context, starID int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM stars WHERE star_id = $1", starID)
	if err != nil {
		return translateError("delete star", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *starRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM stars").Scan(&count); err != nil {
		return 0, translateError("count stars", err)
	}
	return count, nil
}
