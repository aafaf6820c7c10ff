package distributedjob

import "errors"

var (
	// ErrNoStore is returned by New when no store is provided.
	ErrNoStore = errors.New("distributedjob: no store configured")

	// ErrAlreadyClosed is returned when parts are pushed into a job that
	// has stopped accepting new parts. It signals token reuse after
	// finalization, a caller bug rather than a transient condition.
	ErrAlreadyClosed = errors.New("distributedjob: job already closed")

	// ErrInvalidTTL is returned by store backends when a mutating
	// operation is given a TTL shorter than one second.
	ErrInvalidTTL = errors.New("distributedjob: ttl must be at least one second")
)
