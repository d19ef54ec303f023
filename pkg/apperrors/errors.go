package apperrors

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrMissingHostStar = errors.New("host star not found")
	ErrMissingPlanet   = errors.New("planet not found")
	ErrEmptySource     = errors.New("source dataset is empty")
)
