package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skysurvey-labs/exodb/pkg/apperrors"
	"github.com/skysurvey-labs/exodb/pkg/models"
	"github.com/skysurvey-labs/exodb/pkg/repositories"
)

// Stage names used in reports and error messages.
const (
	StageStars       = "stars"
	StagePlanets     = "planets"
	StageDiscoveries = "discoveries"
	StageViews       = "views"
)

// SkippedRow records one source row a stage could not load: its natural
// key and the reason. Missing-reference reasons match
// apperrors.ErrMissingHostStar / apperrors.ErrMissingPlanet under
// errors.Is; constraint rejections carry the repository error.
type SkippedRow struct {
	Key    string
	Reason error
}

// StageReport carries the per-stage outcome of an import run.
type StageReport struct {
	Upserted int
	Skipped  int
	Skips    []SkippedRow
}

// Report is the outcome of one import run. All run state lives here and
// in the Importer; nothing is ambient.
type Report struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time

	SourceRows    int
	SourceSkipped int

	Stars       StageReport
	Planets     StageReport
	Discoveries StageReport

	// FailedStage names the stage that aborted the run, empty on success.
	FailedStage string
}

// Importer loads a parsed source dataset into the normalized schema in
// dependency order: stars, then planets, then discoveries.
type Importer struct {
	stars       repositories.StarRepository
	planets     repositories.PlanetRepository
	discoveries repositories.DiscoveryRepository
	views       repositories.ViewRepository
	logger      *zap.Logger
}

// New creates an importer over the entity repositories and the
// materialized-view refresher.
func New(
	stars repositories.StarRepository,
	planets repositories.PlanetRepository,
	discoveries repositories.DiscoveryRepository,
	views repositories.ViewRepository,
	logger *zap.Logger,
) *Importer {
	return &Importer{
		stars:       stars,
		planets:     planets,
		discoveries: discoveries,
		views:       views,
		logger:      logger,
	}
}

// Run imports the dataset. Row-level constraint rejections are counted
// and the run continues; an operational failure (lost connection and the
// like) aborts the run with the failing stage named in the report and
// the returned error. Already-committed stages stay committed.
//
// Re-running against a populated schema is safe: every write is an
// upsert on the natural key, so rows are refreshed, never duplicated.
func (imp *Importer) Run(ctx context.Context, src *Source) (*Report, error) {
	report := &Report{
		RunID:         uuid.New(),
		StartedAt:     time.Now(),
		SourceRows:    len(src.Rows),
		SourceSkipped: src.SkippedRows,
	}
	defer func() { report.FinishedAt = time.Now() }()

	imp.logger.Info("starting import",
		zap.String("run_id", report.RunID.String()),
		zap.Int("source_rows", len(src.Rows)))

	starIDs, err := imp.importStars(ctx, src, report)
	if err != nil {
		report.FailedStage = StageStars
		return report, fmt.Errorf("import aborted in stage %s: %w", StageStars, err)
	}

	planetIDs, err := imp.importPlanets(ctx, src, starIDs, report)
	if err != nil {
		report.FailedStage = StagePlanets
		return report, fmt.Errorf("import aborted in stage %s: %w", StagePlanets, err)
	}

	if err := imp.importDiscoveries(ctx, src, planetIDs, report); err != nil {
		report.FailedStage = StageDiscoveries
		return report, fmt.Errorf("import aborted in stage %s: %w", StageDiscoveries, err)
	}

	// Rebuild the read views once the base tables are loaded.
	if err := imp.views.RefreshAll(ctx); err != nil {
		report.FailedStage = StageViews
		return report, fmt.Errorf("import aborted in stage %s: %w", StageViews, err)
	}

	imp.logger.Info("import finished",
		zap.String("run_id", report.RunID.String()),
		zap.Int("stars", report.Stars.Upserted),
		zap.Int("planets", report.Planets.Upserted),
		zap.Int("discoveries", report.Discoveries.Upserted))
	return report, nil
}

// importStars deduplicates the dataset on hostname (first occurrence
// wins for sy_dist) and upserts one star per distinct host, returning
// the hostname -> star_id map the planet stage resolves against.
func (imp *Importer) importStars(ctx context.Context, src *Source, report *Report) (map[string]int64, error) {
	starIDs := make(map[string]int64)

	for _, row := range src.Rows {
		if _, seen := starIDs[row.Hostname]; seen {
			continue
		}

		star := models.Star{
			Hostname: row.Hostname,
			SyDist:   row.SyDist,
		}
		if err := imp.stars.Upsert(ctx, &star); err != nil {
			if repositories.IsConstraintViolation(err) {
				imp.logger.Warn("star rejected",
					zap.String("hostname", row.Hostname),
					zap.Error(err))
				report.Stars.Skipped++
				report.Stars.Skips = append(report.Stars.Skips,
					SkippedRow{Key: row.Hostname, Reason: err})
				continue
			}
			return nil, err
		}

		starIDs[row.Hostname] = star.StarID
		report.Stars.Upserted++
	}

	return starIDs, nil
}

// importPlanets upserts one planet per source row, resolving the host
// star through the hostname map. A row whose host is unknown (rejected
// in the star stage) is skipped with its natural key recorded.
func (imp *Importer) importPlanets(ctx context.Context, src *Source, starIDs map[string]int64, report *Report) (map[string]int64, error) {
	planetIDs := make(map[string]int64)

	for _, row := range src.Rows {
		starID, ok := starIDs[row.Hostname]
		if !ok {
			imp.logger.Warn("planet references unknown host star",
				zap.String("pl_name", row.PlName),
				zap.String("hostname", row.Hostname))
			report.Planets.Skipped++
			report.Planets.Skips = append(report.Planets.Skips, SkippedRow{
				Key:    row.PlName,
				Reason: fmt.Errorf("%w: %q", apperrors.ErrMissingHostStar, row.Hostname),
			})
			continue
		}

		planet := models.Planet{
			PlName:    row.PlName,
			StarID:    starID,
			PlMasse:   row.PlMasse,
			PlRade:    row.PlRade,
			PlOrbper:  row.PlOrbper,
			PlEqt:     row.PlEqt,
			Density:   row.Density,
			InStage1:  row.InStage1,
			InStage1c: row.InStage1c,
			InStage2:  row.InStage2,
			InStage2c: row.InStage2c,
		}
		if err := imp.planets.Upsert(ctx, &planet); err != nil {
			if repositories.IsConstraintViolation(err) {
				imp.logger.Warn("planet rejected",
					zap.String("pl_name", row.PlName),
					zap.Error(err))
				report.Planets.Skipped++
				report.Planets.Skips = append(report.Planets.Skips,
					SkippedRow{Key: row.PlName, Reason: err})
				continue
			}
			return nil, err
		}

		planetIDs[row.PlName] = planet.PlanetID
		report.Planets.Upserted++
	}

	return planetIDs, nil
}

// importDiscoveries upserts one discovery per source row that carries a
// method or year and whose planet was loaded.
func (imp *Importer) importDiscoveries(ctx context.Context, src *Source, planetIDs map[string]int64, report *Report) error {
	for _, row := range src.Rows {
		if row.DiscoveryMethod == nil && row.DiscYear == nil {
			continue
		}

		planetID, ok := planetIDs[row.PlName]
		if !ok {
			report.Discoveries.Skipped++
			report.Discoveries.Skips = append(report.Discoveries.Skips,
				SkippedRow{Key: row.PlName, Reason: apperrors.ErrMissingPlanet})
			continue
		}

		discovery := models.Discovery{
			PlanetID:        planetID,
			DiscoveryMethod: row.DiscoveryMethod,
			DiscYear:        row.DiscYear,
		}
		if err := imp.discoveries.Upsert(ctx, &discovery); err != nil {
			if repositories.IsConstraintViolation(err) {
				imp.logger.Warn("discovery rejected",
					zap.String("pl_name", row.PlName),
					zap.Error(err))
				report.Discoveries.Skipped++
				report.Discoveries.Skips = append(report.Discoveries.Skips,
					SkippedRow{Key: row.PlName, Reason: err})
				continue
			}
			return err
		}

		report.Discoveries.Upserted++
	}

	return nil
}
