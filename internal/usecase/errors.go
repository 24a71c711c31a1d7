package usecase

import "errors"

// Sentinels callers match with errors.Is. The HTTP layer maps each to a
// status code; the sync entry points never return them unwrapped.
var (
	// ErrInvalidInput covers bad ids, unknown phases and malformed bodies.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is a missing team season, match or player.
	ErrNotFound = errors.New("resource not found")
	// ErrUnauthorized is missing or rejected spreadsheet or provider credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrDependencyUnavailable is a disabled provider or an open circuit.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrSyncFailed reports a sync that ran and returned false.
	ErrSyncFailed = errors.New("sync failed")
)
