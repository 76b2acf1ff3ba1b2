package collab

import "errors"

var (
	// ErrNoSpaceMembers is returned when a space-subscribed rule is
	// resolved without a space membership source configured.
	ErrNoSpaceMembers = errors.New("no space members source configured")
)
