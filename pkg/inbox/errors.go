package inbox

import "errors"

var (
	// ErrContextNotFound is returned by storage lookups when no context
	// exists for the (user, document) pair. Commands treat it as a no-op.
	ErrContextNotFound = errors.New("notify context not found")

	// ErrConcurrentUpdate signals an optimistic-concurrency conflict on a
	// context write. The manager retries internally; callers never see it.
	ErrConcurrentUpdate = errors.New("concurrent context update")

	// ErrEmptyBatch is returned when a candidate batch carries no entries.
	ErrEmptyBatch = errors.New("empty candidate batch")

	// ErrInvalidLifecycleEvent is returned on a context lifecycle
	// transition that is not declared in the transition table.
	ErrInvalidLifecycleEvent = errors.New("invalid context lifecycle event")
)
