package settings

import "errors"

var (
	// ErrInvalidKey is returned when a preference key misses the user,
	// provider or notification type component.
	ErrInvalidKey = errors.New("invalid setting key")
)
