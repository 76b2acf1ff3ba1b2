package engine

import "errors"

var (
	// ErrNotStarted is returned by Submit before Start or after Stop.
	ErrNotStarted = errors.New("engine not started")

	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("engine already started")

	// ErrShutdownTimeout is returned when in-flight events do not drain
	// within the shutdown timeout.
	ErrShutdownTimeout = errors.New("engine shutdown timed out")
)
