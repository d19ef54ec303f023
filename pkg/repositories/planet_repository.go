package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/skysurvey-labs/exodb/pkg/apperrors"
	"github.com/skysurvey-labs/exodb/pkg/database"
	"github.com/skysurvey-labs/exodb/pkg/models"
)

// PlanetRepository defines data access for planets.
type PlanetRepository interface {
	// Upsert inserts a planet or, if pl_name already exists, refreshes
	// its physical attributes and stage flags. The surrogate key is
	// written back to planet.PlanetID. Cluster ids are never touched by
	// the importer; they belong to the external classification step.
	Upsert(ctx context.Context, planet *models.Planet) error

	// GetByName retrieves a planet by its natural key.
	GetByName(ctx context.Context, plName string) (*models.Planet, error)

	// UpdateClusterID records an externally computed cluster label.
	UpdateClusterID(ctx context.Context, planetID int64, clusterID int32) error

	// Count returns the number of planet rows.
	Count(ctx context.Context) (int64, error)

	// CountOrphans returns planets whose star_id resolves to no star.
	// With the foreign key in place this must always be zero; the import
	// verification step asserts it anyway.
	CountOrphans(ctx context.Context) (int64, error)

	// CountWithoutDiscovery returns planets lacking a discovery record.
	CountWithoutDiscovery(ctx context.Context) (int64, error)
}

type planetRepository struct {
	db *database.DB
}

// NewPlanetRepository creates a new planet repository.
func NewPlanetRepository(db *database.DB) PlanetRepository {
	return &planetRepository{db: db}
}

func (r *planetRepository) Upsert(ctx context.Context, planet *models.Planet) error {
	query := `
		INSERT INTO planets (pl_name, star_id, pl_masse, pl_rade, pl_orbper, pl_eqt, density,
		                     in_stage1, in_stage1c, in_stage2, in_stage2c)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (pl_name) DO UPDATE
		SET star_id    = EXCLUDED.star_id,
		    pl_masse   = EXCLUDED.pl_masse,
		    pl_rade    = EXCLUDED.pl_rade,
		    pl_orbper  = EXCLUDED.pl_orbper,
		    pl_eqt     = EXCLUDED.pl_eqt,
		    density    = EXCLUDED.density,
		    in_stage1  = EXCLUDED.in_stage1,
		    in_stage1c = EXCLUDED.in_stage1c,
		    in_stage2  = EXCLUDED.in_stage2,
		    in_stage2c = EXCLUDED.in_stage2c
		RETURNING planet_id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		planet.PlName,
		planet.StarID,
		planet.PlMasse,
		planet.PlRade,
		planet.PlOrbper,
		planet.PlEqt,
		planet.Density,
		planet.InStage1,
		planet.InStage1c,
		planet.InStage2,
		planet.InStage2c,
	).Scan(&planet.PlanetID, &planet.CreatedAt, &planet.UpdatedAt)
	if err != nil {
		return translateError("upsert planet", err)
	}
	return nil
}

func (r *planetRepository) GetByName(ctx context.Context, plName string) (*models.Planet, error) {
	query := `
		SELECT planet_id, pl_name, star_id, pl_masse, pl_rade, pl_orbper, pl_eqt, density,
		       in_stage1, in_stage1c, in_stage2, in_stage2c,
		       cluster_id, cluster_id_stage1, cluster_id_stage1c, cluster_id_stage2,
		       created_at, updated_at
		FROM planets
		WHERE pl_name = $1`

	var p models.Planet
	err := r.db.QueryRow(ctx, query, plName).Scan(
		&p.PlanetID, &p.PlName, &p.StarID, &p.PlMasse, &p.PlRade, &p.PlOrbper, &p.PlEqt, &p.Density,
		&p.InStage1, &p.InStage1c, &p.InStage2, &p.InStage2c,
		&p.ClusterID, &p.ClusterIDStage1, &p.ClusterIDStage1c, &p.ClusterIDStage2,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, translateError("get planet by name", err)
	}
	return &p, nil
}

func (r *planetRepository) UpdateClusterID(ctx context.Context, planetID int64, clusterID int32) error {
	tag, err := r.db.Exec(ctx,
		"UPDATE planets SET cluster_id = $1 WHERE planet_id = $2", clusterID, planetID)
	if err != nil {
		return translateError("update cluster id", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *planetRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM planets").Scan(&count); err != nil {
		return 0, translateError("count planets", err)
	}
	return count, nil
}

func (r *planetRepository) CountOrphans(ctx context.Context) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM planets p
		LEFT JOIN stars s ON p.star_id = s.star_id
		WHERE s.star_id IS NULL`

	var count int64
	if err := r.db.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, translateError("count orphaned planets", err)
	}
	return count, nil
}

func (r *planetRepository) CountWithoutDiscovery(ctx context.Context) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM planets p
		LEFT JOIN discoveries d ON p.planet_id = d.planet_id
		WHERE d.discovery_id IS NULL`

	var count int64
	if err := r.db.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, translateError("count planets without discovery", err)
	}
	return count, nil
}
