package docevent

import "errors"

var (
	// ErrUnknownDocument is returned by DocumentStore implementations when
	// the referenced document cannot be found or classified. The engine
	// logs and drops events for unknown documents; it is not fatal.
	ErrUnknownDocument = errors.New("unknown document")

	// ErrClassAlreadyRegistered is returned when a class is registered twice.
	ErrClassAlreadyRegistered = errors.New("class already registered")

	// ErrUnknownParentClass is returned when a class names a parent that
	// has not been registered yet.
	ErrUnknownParentClass = errors.New("unknown parent class")
)
