package models

import "errors"

// Sentinel errors shared across the engine. Callers wrap them with
// fmt.Errorf("...: %w", ...) to add the entity that triggered them;
// HTTP handlers map them to status codes with errors.Is.
var (
	// ErrValidation marks malformed input (bad date range, missing field).
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a lookup for an entity that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a booking overlap or a duplicate feed URL.
	ErrConflict = errors.New("conflict")

	// ErrPermissionDenied marks an operation the caller may never perform,
	// such as deleting a feed-owned block through the manual-block API.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrUpstream marks a feed fetch or decode failure. It is recorded on
	// the feed and surfaced in sync results, never fatal to the orchestrator.
	ErrUpstream = errors.New("upstream feed error")
)
