package models

import "time"

// Star is a host star in the catalog. Hostname is the natural key;
// StarID is the surrogate key assigned by the database.
type Star struct {
	StarID    int64
	Hostname  string
	SyDist    *float64 // distance from Earth in parsecs, nullable
	CreatedAt time.Time
	UpdatedAt time.Time
}
