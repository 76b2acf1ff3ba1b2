package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/docnotify/pkg/docevent"
	"github.com/dmitrymomot/docnotify/pkg/logger"
)

// Manager is the single writer of inbox state. It wraps a Storage with
// the retry policy for optimistic-concurrency conflicts and the no-op
// semantics of user commands on absent contexts.
type Manager struct {
	storage       Storage
	logger        *slog.Logger
	retryAttempts int
	retryInterval time.Duration
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger for the Manager.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithRetryPolicy tunes the internal retry on concurrent context
// updates. Attempts below 1 are ignored.
func WithRetryPolicy(attempts int, interval time.Duration) ManagerOption {
	return func(m *Manager) {
		if attempts >= 1 {
			m.retryAttempts = attempts
		}
		if interval > 0 {
			m.retryInterval = interval
		}
	}
}

// NewManager creates a manager on top of a storage.
func NewManager(storage Storage, opts ...ManagerOption) *Manager {
	m := &Manager{
		storage:       storage,
		logger:        slog.Default(),
		retryAttempts: 5,
		retryInterval: 20 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ApplyCandidates records one event's accepted candidates. All entries
// are applied atomically; a concurrent-update conflict is retried
// internally and never surfaces to the caller. An empty batch is a no-op.
func (m *Manager) ApplyCandidates(ctx context.Context, batch Batch) ([]Notification, error) {
	if len(batch.Entries) == 0 {
		return nil, nil
	}

	var created []Notification
	err := m.withRetry(ctx, "apply candidates", func() error {
		var err error
		created, err = m.storage.ApplyBatch(ctx, batch)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("apply candidates for document %s: %w", batch.DocumentID, err)
	}
	return created, nil
}

// Subscribe explicitly creates (or re-activates) the user's context for
// a document, independent of any matched rule.
func (m *Manager) Subscribe(ctx context.Context, user docevent.UserID, doc docevent.ID, class docevent.Class) (*NotifyContext, error) {
	var c *NotifyContext
	err := m.withRetry(ctx, "subscribe", func() error {
		var err error
		c, err = m.storage.EnsureContext(ctx, user, doc, class, time.Now())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s to %s: %w", user, doc, err)
	}
	return c, nil
}

// ReadDoc marks every notification under the user's context for the
// document as viewed and advances the context's last-viewed timestamp.
// Without a context it is a no-op.
func (m *Manager) ReadDoc(ctx context.Context, user docevent.UserID, doc docevent.ID) error {
	err := m.withRetry(ctx, "read doc", func() error {
		return m.storage.ReadContext(ctx, user, doc, time.Now())
	})
	if err != nil {
		return fmt.Errorf("read doc %s: %w", doc, err)
	}
	return nil
}

// ReadMessages marks the notifications referencing the given source
// messages as viewed for the calling user.
func (m *Manager) ReadMessages(ctx context.Context, user docevent.UserID, messages []docevent.ID) error {
	if len(messages) == 0 {
		return nil
	}
	if err := m.storage.SetViewed(ctx, user, messages, true); err != nil {
		return fmt.Errorf("read messages: %w", err)
	}
	return nil
}

// UnreadMessages clears the viewed flag on the notifications referencing
// the given source messages for the calling user.
func (m *Manager) UnreadMessages(ctx context.Context, user docevent.UserID, messages []docevent.ID) error {
	if len(messages) == 0 {
		return nil
	}
	if err := m.storage.SetViewed(ctx, user, messages, false); err != nil {
		return fmt.Errorf("unread messages: %w", err)
	}
	return nil
}

// DeleteMessagesNotifications removes the calling user's notifications
// referencing the given source messages. Other users keep theirs.
func (m *Manager) DeleteMessagesNotifications(ctx context.Context, user docevent.UserID, messages []docevent.ID) error {
	if len(messages) == 0 {
		return nil
	}
	if err := m.storage.DeleteByMessages(ctx, user, messages); err != nil {
		return fmt.Errorf("delete message notifications: %w", err)
	}
	return nil
}

// HideContext removes the user's context for the document from the inbox
// until new activity arrives. Without a context it is a no-op.
func (m *Manager) HideContext(ctx context.Context, user docevent.UserID, doc docevent.ID) error {
	err := m.withRetry(ctx, "hide context", func() error {
		return m.storage.SetHidden(ctx, user, doc, true)
	})
	if err != nil {
		return fmt.Errorf("hide context for %s: %w", doc, err)
	}
	return nil
}

// DeleteDocument cascades a permanent document deletion across every
// user's contexts, notifications and rollups.
func (m *Manager) DeleteDocument(ctx context.Context, doc docevent.ID) error {
	if err := m.storage.DeleteDocument(ctx, doc); err != nil {
		return fmt.Errorf("delete document %s: %w", doc, err)
	}
	return nil
}

// ListContexts returns the user's visible contexts, newest activity first.
func (m *Manager) ListContexts(ctx context.Context, user docevent.UserID) ([]NotifyContext, error) {
	return m.storage.ListContexts(ctx, user)
}

// ListNotifications returns the user's notifications under a context.
func (m *Manager) ListNotifications(ctx context.Context, user docevent.UserID, contextID docevent.ID, opts ListOptions) ([]Notification, error) {
	return m.storage.ListNotifications(ctx, user, contextID, opts)
}

// UnreadCount returns the user's total unread notification count.
func (m *Manager) UnreadCount(ctx context.Context, user docevent.UserID) (int, error) {
	return m.storage.CountUnread(ctx, user)
}

// ListDocUpdates returns the legacy per-document rollup view.
func (m *Manager) ListDocUpdates(ctx context.Context, user docevent.UserID) ([]DocUpdates, error) {
	return m.storage.ListDocUpdates(ctx, user)
}

// Storage exposes the underlying storage, mainly for wiring decorators.
func (m *Manager) Storage() Storage {
	return m.storage
}

// withRetry runs op, retrying ErrConcurrentUpdate with a flat interval.
// Any other error aborts immediately.
func (m *Manager) withRetry(ctx context.Context, action string, op func() error) error {
	var err error
	for attempt := 1; attempt <= m.retryAttempts; attempt++ {
		err = op()
		if err == nil || !errors.Is(err, ErrConcurrentUpdate) {
			return err
		}

		m.logger.LogAttrs(ctx, slog.LevelDebug, "retrying after concurrent context update",
			slog.String("action", action),
			logger.RetryCount(attempt),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.retryInterval):
		}
	}
	return err
}
