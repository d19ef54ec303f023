package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/skysurvey-labs/exodb/pkg/apperrors"
	"github.com/skysurvey-labs/exodb/pkg/database"
	"github.com/skysurvey-labs/exodb/pkg/models"
)

// DiscoveryRepository defines data access for discovery records.
type DiscoveryRepository interface {
	// Upsert inserts a discovery or, if the planet already has one,
	// refreshes its method and year. planet_id is unique, so this is
	// what keeps the planet-discovery relation 1:1 across re-runs.
	Upsert(ctx context.Context, discovery *models.Discovery) error

	// GetByPlanetID retrieves the discovery record for a planet.
	GetByPlanetID(ctx context.Context, planetID int64) (*models.Discovery, error)

	// Count returns the number of discovery rows.
	Count(ctx context.Context) (int64, error)
}

type discoveryRepository struct {
	db *database.DB
}

// NewDiscoveryRepository creates a new discovery repository.
func NewDiscoveryRepository(db *database.DB) DiscoveryRepository {
	return &discoveryRepository{db: db}
}

func (r *discoveryRepository) Upsert(ctx context.Context, discovery *models.Discovery) error {
	query := `
		INSERT INTO discoveries (planet_id, discoverymethod, disc_year)
		VALUES ($1, $2, $3)
		ON CONFLICT (planet_id) DO UPDATE
		SET discoverymethod = EXCLUDED.discoverymethod,
		    disc_year       = EXCLUDED.disc_year
		RETURNING discovery_id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		discovery.PlanetID,
		discovery.DiscoveryMethod,
		discovery.DiscYear,
	).Scan(&discovery.DiscoveryID, &discovery.CreatedAt, &discovery.UpdatedAt)
	if err != nil {
		return translateError("upsert discovery", err)
	}
	return nil
}

func (r *discoveryRepository) GetByPlanetID(ctx context.Context, planetID int64) (*models.Discovery, error) {
	query := `
		SELECT discovery_id, planet_id, discoverymethod, disc_year, created_at, updated_at
		FROM discoveries
		WHERE planet_id = $1`

	var d models.Discovery
	err := r.db.QueryRow(ctx, query, planetID).Scan(
		&d.DiscoveryID, &d.PlanetID, &d.DiscoveryMethod, &d.DiscYear, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, translateError("get discovery by planet id", err)
	}
	return &d, nil
}

func (r *discoveryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM discoveries").Scan(&count); err != nil {
		return 0, translateError("count discoveries", err)
	}
	return count, nil
}
