package dispatch

import "errors"

var (
	// ErrNoAddress is returned by address resolution when no email is
	// known for the user. The email deliverer drops the instruction.
	ErrNoAddress = errors.New("no email address for user")

	// ErrDelivererClosed is returned on delivery through a closed
	// broadcast deliverer.
	ErrDelivererClosed = errors.New("deliverer closed")
)
