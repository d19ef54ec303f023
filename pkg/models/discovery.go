package models

import "time"

// Discovery records how and when a planet was found. The planet_id
// column is unique, so a planet has at most one discovery row.
type Discovery struct {
	DiscoveryID     int64
	PlanetID        int64
	DiscoveryMethod *string
	DiscYear        *int32 // bounded to [1990, 2030] by a schema check
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
