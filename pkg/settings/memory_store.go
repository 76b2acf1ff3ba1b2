package settings

import (
	"context"
	"sync"

	"github.com/dmitrymomot/docnotify/pkg/docevent"
)

type overrideKey struct {
	user     docevent.UserID
	provider docevent.ProviderID
	ruleID   string
}

type muteKey struct {
	user  docevent.UserID
	class docevent.Class
}

// MemoryStore is an in-memory Store implementation for development and
// testing. Safe for concurrent use.
type MemoryStore struct {
	overrides map[overrideKey]bool
	mutes     map[muteKey]bool
	mu        sync.RWMutex
}

// NewMemoryStore creates an empty in-memory settings store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		overrides: make(map[overrideKey]bool),
		mutes:     make(map[muteKey]bool),
	}
}

func (s *MemoryStore) Get(ctx context.Context, user docevent.UserID, provider docevent.ProviderID, ruleID string) (bool, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	enabled, ok := s.overrides[overrideKey{user: user, provider: provider, ruleID: ruleID}]
	return enabled, ok, nil
}

func (s *MemoryStore) Set(ctx context.Context, setting Setting) error {
	if err := setting.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.overrides[overrideKey{user: setting.UserID, provider: setting.Provider, ruleID: setting.Type}] = setting.Enabled
	return nil
}

func (s *MemoryStore) ClassMuted(ctx context.Context, user docevent.UserID, class docevent.Class) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mutes[muteKey{user: user, class: class}], nil
}

func (s *MemoryStore) SetClassMuted(ctx context.Context, user docevent.UserID, class docevent.Class, muted bool) error {
	if user == "" || class == "" {
		return ErrInvalidKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if muted {
		s.mutes[muteKey{user: user, class: class}] = true
	} else {
		delete(s.mutes, muteKey{user: user, class: class})
	}
	return nil
}
