package importer

import (
	"context"
	"fmt"
)

// IntegrityReport is the outcome of the post-import checks.
type IntegrityReport struct {
	Stars       int64
	Planets     int64
	Discoveries int64

	// OrphanedPlanets counts planets whose star reference does not
	// resolve. The foreign key makes this impossible; a non-zero value
	// means the schema itself is broken.
	OrphanedPlanets int64

	// PlanetsWithoutDiscovery counts planets lacking a discovery row.
	// Non-zero is legitimate: a source row with neither method nor year
	// gets no discovery record.
	PlanetsWithoutDiscovery int64
}

// OK reports whether referential integrity holds.
func (r *IntegrityReport) OK() bool {
	return r.OrphanedPlanets == 0
}

// Verify runs the integrity checks against the populated schema.
func (imp *Importer) Verify(ctx context.Context) (*IntegrityReport, error) {
	report := &IntegrityReport{}
	var err error

	if report.Stars, err = imp.stars.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count stars: %w", err)
	}
	if report.Planets, err = imp.planets.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count planets: %w", err)
	}
	if report.Discoveries, err = imp.discoveries.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count discoveries: %w", err)
	}
	if report.OrphanedPlanets, err = imp.planets.CountOrphans(ctx); err != nil {
		return nil, fmt.Errorf("failed to count orphaned planets: %w", err)
	}
	if report.PlanetsWithoutDiscovery, err = imp.planets.CountWithoutDiscovery(ctx); err != nil {
		return nil, fmt.Errorf("failed to count planets without discovery: %w", err)
	}

	return report, nil
}
