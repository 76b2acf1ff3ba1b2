package settings

import (
	"context"

	"github.com/dmitrymomot/docnotify/pkg/docevent"
)

// Setting is one per-user provider override for a notification type.
type Setting struct {
	UserID   docevent.UserID
	Provider docevent.ProviderID
	Type     string
	Enabled  bool
}

// Store persists user notification preferences.
type Store interface {
	// Get returns the user's override for (provider, type). ok is false
	// when the user has no override and the rule default applies.
	Get(ctx context.Context, user docevent.UserID, provider docevent.ProviderID, ruleID string) (enabled bool, ok bool, err error)

	// Set records an override, replacing any previous value.
	Set(ctx context.Context, setting Setting) error

	// ClassMuted reports whether the user muted the document class
	// entirely.
	ClassMuted(ctx context.Context, user docevent.UserID, class docevent.Class) (bool, error)

	// SetClassMuted mutes or unmutes a document class for the user.
	SetClassMuted(ctx context.Context, user docevent.UserID, class docevent.Class, muted bool) error
}

func (s Setting) validate() error {
	if s.UserID == "" || s.Provider == "" || s.Type == "" {
		return ErrInvalidKey
	}
	return nil
}
