package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skysurvey-labs/exodb/pkg/apperrors"
	"github.com/skysurvey-labs/exodb/pkg/models"
)

// fakeStarRepo is an in-memory StarRepository with upsert semantics.
type fakeStarRepo struct {
	byHostname map[string]*models.Star
	nextID     int64
	rejectHost map[string]error // per-hostname injected failures
	opErr      error            // operational failure on every call
}

func newFakeStarRepo() *fakeStarRepo {
	return &fakeStarRepo{
		byHostname: make(map[string]*models.Star),
		nextID:     1,
		rejectHost: make(map[string]error),
	}
}

func (f *fakeStarRepo) Upsert(_ context.Context, star *models.Star) error {
	if f.opErr != nil {
		return f.opErr
	}
	if err, ok := f.rejectHost[star.Hostname]; ok {
		return err
	}
	if existing, ok := f.byHostname[star.Hostname]; ok {
		existing.SyDist = star.SyDist
		star.StarID = existing.StarID
		return nil
	}
	star.StarID = f.nextID
	f.nextID++
	stored := *star
	f.byHostname[star.Hostname] = &stored
	return nil
}

func (f *fakeStarRepo) GetByHostname(_ context.Context, hostname string) (*models.Star, error) {
	star, ok := f.byHostname[hostname]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return star, nil
}

func (f *fakeStarRepo) Delete(_ context.Context, starID int64) error {
	for host, star := range f.byHostname {
		if star.StarID == starID {
			delete(f.byHostname, host)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (f *fakeStarRepo) Count(_ context.Context) (int64, error) {
	return int64(len(f.byHostname)), nil
}

// fakePlanetRepo is an in-memory PlanetRepository with upsert semantics.
type fakePlanetRepo struct {
	byName map[string]*models.Planet
	nextID int64
	opErr  error
}

func newFakePlanetRepo() *fakePlanetRepo {
	return &fakePlanetRepo{byName: make(map[string]*models.Planet), nextID: 1}
}

func (f *fakePlanetRepo) Upsert(_ context.Context, planet *models.Planet) error {
	if f.opErr != nil {
		return f.opErr
	}
	if existing, ok := f.byName[planet.PlName]; ok {
		planet.PlanetID = existing.PlanetID
		stored := *planet
		f.byName[planet.PlName] = &stored
		return nil
	}
	planet.PlanetID = f.nextID
	f.nextID++
	stored := *planet
	f.byName[planet.PlName] = &stored
	return nil
}

func (f *fakePlanetRepo) GetByName(_ context.Context, plName string) (*models.Planet, error) {
	p, ok := f.byName[plName]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return p, nil
}

func (f *fakePlanetRepo) UpdateClusterID(_ context.Context, planetID int64, clusterID int32) error {
	for _, p := range f.byName {
		if p.PlanetID == planetID {
			cid := clusterID
			p.ClusterID = &cid
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (f *fakePlanetRepo) Count(_ context.Context) (int64, error) {
	return int64(len(f.byName)), nil
}

func (f *fakePlanetRepo) CountOrphans(_ context.Context) (int64, error) { return 0, nil }

func (f *fakePlanetRepo) CountWithoutDiscovery(_ context.Context) (int64, error) { return 0, nil }

// fakeDiscoveryRepo is an in-memory DiscoveryRepository keyed by planet id.
type fakeDiscoveryRepo struct {
	byPlanetID map[int64]*models.Discovery
	nextID     int64
}

func newFakeDiscoveryRepo() *fakeDiscoveryRepo {
	return &fakeDiscoveryRepo{byPlanetID: make(map[int64]*models.Discovery), nextID: 1}
}

func (f *fakeDiscoveryRepo) Upsert(_ context.Context, d *models.Discovery) error {
	if existing, ok := f.byPlanetID[d.PlanetID]; ok {
		d.DiscoveryID = existing.DiscoveryID
		stored := *d
		f.byPlanetID[d.PlanetID] = &stored
		return nil
	}
	d.DiscoveryID = f.nextID
	f.nextID++
	stored := *d
	f.byPlanetID[d.PlanetID] = &stored
	return nil
}

func (f *fakeDiscoveryRepo) GetByPlanetID(_ context.Context, planetID int64) (*models.Discovery, error) {
	d, ok := f.byPlanetID[planetID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return d, nil
}

func (f *fakeDiscoveryRepo) Count(_ context.Context) (int64, error) {
	return int64(len(f.byPlanetID)), nil
}

// fakeViewRepo counts refreshes of the materialized read views.
type fakeViewRepo struct {
	refreshes int
	opErr     error
}

func (f *fakeViewRepo) RefreshAll(_ context.Context) error {
	if f.opErr != nil {
		return f.opErr
	}
	f.refreshes++
	return nil
}

func ptr[T any](v T) *T { return &v }

func newTestImporter() (*Importer, *fakeStarRepo, *fakePlanetRepo, *fakeDiscoveryRepo) {
	stars := newFakeStarRepo()
	planets := newFakePlanetRepo()
	discoveries := newFakeDiscoveryRepo()
	return New(stars, planets, discoveries, &fakeViewRepo{}, zap.NewNop()), stars, planets, discoveries
}

func TestRun_SingleRowProducesOneOfEach(t *testing.T) {
	imp, stars, planets, discoveries := newTestImporter()

	src := &Source{Rows: []SourceRow{{
		PlName:          "Kepler-10b",
		Hostname:        "Kepler-10",
		SyDist:          ptr(56.9),
		PlMasse:         ptr(3.3),
		PlRade:          ptr(1.47),
		DiscoveryMethod: ptr("Transit"),
		DiscYear:        ptr(int32(2011)),
	}}}

	report, err := imp.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Stars.Upserted)
	assert.Equal(t, 1, report.Planets.Upserted)
	assert.Equal(t, 1, report.Discoveries.Upserted)
	assert.Empty(t, report.FailedStage)

	star, err := stars.GetByHostname(context.Background(), "Kepler-10")
	require.NoError(t, err)

	planet, err := planets.GetByName(context.Background(), "Kepler-10b")
	require.NoError(t, err)
	assert.Equal(t, star.StarID, planet.StarID)

	discovery, err := discoveries.GetByPlanetID(context.Background(), planet.PlanetID)
	require.NoError(t, err)
	assert.Equal(t, "Transit", *discovery.DiscoveryMethod)
	assert.Equal(t, int32(2011), *discovery.DiscYear)
}

func TestRun_SharedHostDeduplicatesStar(t *testing.T) {
	imp, stars, planets, _ := newTestImporter()

	src := &Source{Rows: []SourceRow{
		{PlName: "Kepler-10b", Hostname: "Kepler-10", SyDist: ptr(56.9)},
		{PlName: "Kepler-10c", Hostname: "Kepler-10", SyDist: ptr(60.0)},
	}}

	report, err := imp.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Stars.Upserted, "one star for two planets of the same host")
	assert.Equal(t, 2, report.Planets.Upserted)

	star, err := stars.GetByHostname(context.Background(), "Kepler-10")
	require.NoError(t, err)
	// First occurrence wins for distance
	assert.InDelta(t, 56.9, *star.SyDist, 1e-9)

	b, err := planets.GetByName(context.Background(), "Kepler-10b")
	require.NoError(t, err)
	c, err := planets.GetByName(context.Background(), "Kepler-10c")
	require.NoError(t, err)
	assert.Equal(t, b.StarID, c.StarID)
}

func TestRun_NoDiscoveryWithoutMethodOrYear(t *testing.T) {
	imp, _, _, discoveries := newTestImporter()

	src := &Source{Rows: []SourceRow{
		{PlName: "Kepler-10b", Hostname: "Kepler-10"},
		{PlName: "Kepler-10c", Hostname: "Kepler-10", DiscYear: ptr(int32(2011))},
	}}

	report, err := imp.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Discoveries.Upserted)
	count, _ := discoveries.Count(context.Background())
	assert.Equal(t, int64(1), count)
}

func TestRun_RejectedStarSkipsItsPlanets(t *testing.T) {
	imp, stars, _, _ := newTestImporter()
	// A check-constraint rejection, the kind the run must survive.
	stars.rejectHost["Bad Star"] = &pgconn.PgError{Code: "23514", ConstraintName: "stars_sy_dist_positive"}

	src := &Source{Rows: []SourceRow{
		{PlName: "Good b", Hostname: "Good Star"},
		{PlName: "Bad b", Hostname: "Bad Star", DiscoveryMethod: ptr("Transit")},
	}}

	report, err := imp.Run(context.Background(), src)
	require.NoError(t, err, "row-level rejection must not abort the run")

	assert.Equal(t, 1, report.Stars.Upserted)
	assert.Equal(t, 1, report.Stars.Skipped)
	assert.Equal(t, 1, report.Planets.Upserted)
	assert.Equal(t, 1, report.Planets.Skipped)
	require.Len(t, report.Planets.Skips, 1)
	assert.Equal(t, "Bad b", report.Planets.Skips[0].Key)
	assert.ErrorIs(t, report.Planets.Skips[0].Reason, apperrors.ErrMissingHostStar)
	assert.Contains(t, report.Planets.Skips[0].Reason.Error(), "Bad Star")

	// The cascade reaches the discovery stage with its own reason
	require.Len(t, report.Discoveries.Skips, 1)
	assert.Equal(t, "Bad b", report.Discoveries.Skips[0].Key)
	assert.ErrorIs(t, report.Discoveries.Skips[0].Reason, apperrors.ErrMissingPlanet)
}

func TestRun_OperationalErrorAbortsWithStage(t *testing.T) {
	imp, stars, _, _ := newTestImporter()
	stars.opErr = errors.New("connection refused")

	src := &Source{Rows: []SourceRow{
		{PlName: "Kepler-10b", Hostname: "Kepler-10"},
	}}

	report, err := imp.Run(context.Background(), src)
	require.Error(t, err)
	assert.Equal(t, StageStars, report.FailedStage)
	assert.Contains(t, err.Error(), StageStars)
}

func TestRun_PlanetStageFailureKeepsStarCounts(t *testing.T) {
	imp, _, planets, _ := newTestImporter()
	planets.opErr = errors.New("connection reset")

	src := &Source{Rows: []SourceRow{
		{PlName: "Kepler-10b", Hostname: "Kepler-10"},
	}}

	report, err := imp.Run(context.Background(), src)
	require.Error(t, err)
	assert.Equal(t, StagePlanets, report.FailedStage)
	assert.Equal(t, 1, report.Stars.Upserted, "completed stage counts must survive the abort")
}

func TestRun_RefreshesViewsAfterLoad(t *testing.T) {
	stars := newFakeStarRepo()
	planets := newFakePlanetRepo()
	discoveries := newFakeDiscoveryRepo()
	views := &fakeViewRepo{}
	imp := New(stars, planets, discoveries, views, zap.NewNop())

	src := &Source{Rows: []SourceRow{{PlName: "Kepler-10b", Hostname: "Kepler-10"}}}
	_, err := imp.Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1, views.refreshes)

	// A refresh failure aborts with its own stage name
	views.opErr = errors.New("deadlock detected")
	report, err := imp.Run(context.Background(), src)
	require.Error(t, err)
	assert.Equal(t, StageViews, report.FailedStage)
}

func TestRun_RerunDoesNotDuplicate(t *testing.T) {
	imp, stars, planets, discoveries := newTestImporter()

	src := &Source{Rows: []SourceRow{{
		PlName:          "Kepler-10b",
		Hostname:        "Kepler-10",
		PlMasse:         ptr(3.3),
		DiscoveryMethod: ptr("Transit"),
		DiscYear:        ptr(int32(2011)),
	}}}

	_, err := imp.Run(context.Background(), src)
	require.NoError(t, err)

	// Re-run with an updated mass
	src.Rows[0].PlMasse = ptr(3.5)
	report, err := imp.Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Stars.Upserted)
	assert.Equal(t, 1, report.Planets.Upserted)

	starCount, _ := stars.Count(context.Background())
	planetCount, _ := planets.Count(context.Background())
	discoveryCount, _ := discoveries.Count(context.Background())
	assert.Equal(t, int64(1), starCount)
	assert.Equal(t, int64(1), planetCount)
	assert.Equal(t, int64(1), discoveryCount)

	p, err := planets.GetByName(context.Background(), "Kepler-10b")
	require.NoError(t, err)
	assert.InDelta(t, 3.5, *p.PlMasse, 1e-9, "upsert refreshes attributes")
}
