package models

import "time"

// Planet is a confirmed exoplanet. Every planet belongs to exactly one
// star. Physical attributes are nullable because the source archive is
// sparse; when present they are constrained by schema checks.
type Planet struct {
	PlanetID int64
	PlName   string
	StarID   int64

	PlMasse  *float64 // mass in Earth masses
	PlRade   *float64 // radius in Earth radii
	PlOrbper *float64 // orbital period in days
	PlEqt    *float64 // equilibrium temperature in Kelvin
	Density  *float64 // mass / radius^3, relative to Earth

	// Stage membership flags mark which cleaning stages a planet
	// survived. Cluster ids are written later by the external
	// classification step and stay NULL until then.
	InStage1  bool
	InStage1c bool
	InStage2  bool
	InStage2c bool

	ClusterID        *int32
	ClusterIDStage1  *int32
	ClusterIDStage1c *int32
	ClusterIDStage2  *int32

	CreatedAt time.Time
	UpdatedAt time.Time
}
