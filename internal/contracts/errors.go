package contracts

import "errors"

// Pipeline error taxonomy. Callers wrap these with fmt.Errorf("...: %w", err)
// and test with errors.Is.
var (
	// ErrUpstream is returned when the generative service is unreachable,
	// times out, or returns a payload that cannot be turned into valid data.
	ErrUpstream = errors.New("upstream error")

	// ErrConflict is returned when a record with the same natural key already
	// exists. Snapshots and spotlights are append-only.
	ErrConflict = errors.New("conflict: record already exists")

	// ErrValidation is returned for bad trigger input.
	ErrValidation = errors.New("validation error")

	// ErrStore is returned when the persistence layer is unavailable or fails.
	ErrStore = errors.New("store error")

	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when a trigger carries a missing or wrong secret.
	ErrUnauthorized = errors.New("unauthorized")
)
