package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrFetchInFlight rejects a trigger while an attempt for the same
	// tournament is still running. The caller is told, never queued.
	ErrFetchInFlight = errors.New("fetch already in flight")

	// ErrFetchTransient marks fetch failures worth retrying (network,
	// timeouts, upstream 5xx). ErrFetchStructural marks failures that
	// retrying cannot fix (unknown event id, layout changes).
	ErrFetchTransient  = errors.New("transient fetch failure")
	ErrFetchStructural = errors.New("structural fetch failure")
)
