package inbox

import (
	"context"
	"time"

	"github.com/dmitrymomot/docnotify/pkg/docevent"
)

// Storage persists notify contexts, inbox notifications and the legacy
// doc-updates rollup.
//
// ApplyBatch and ReadContext carry the concurrency contract: ApplyBatch
// records all of a batch's effects atomically, and both fail with
// ErrConcurrentUpdate when a context version moved underneath them. The
// manager retries; implementations never partially apply a batch.
type Storage interface {
	// GetContext returns the context for (user, document), or
	// ErrContextNotFound.
	GetContext(ctx context.Context, user docevent.UserID, doc docevent.ID) (*NotifyContext, error)

	// ListContexts returns the user's non-hidden contexts ordered by
	// last update, newest first.
	ListContexts(ctx context.Context, user docevent.UserID) ([]NotifyContext, error)

	// EnsureContext creates an active context for (user, document) if
	// none exists and returns it. An existing hidden context is
	// re-activated: an explicit subscribe puts the document back in the
	// inbox.
	EnsureContext(ctx context.Context, user docevent.UserID, doc docevent.ID, class docevent.Class, now time.Time) (*NotifyContext, error)

	// ApplyBatch atomically records every entry of the batch: contexts
	// are created or re-activated, one unread notification is inserted
	// per entry unless a notification for (user, sourceTx) already
	// exists, LastUpdatedAt advances monotonically and the doc-updates
	// rollup is extended. Returns the notifications actually created.
	ApplyBatch(ctx context.Context, batch Batch) ([]Notification, error)

	// ListNotifications returns the user's notifications under a
	// context, oldest first.
	ListNotifications(ctx context.Context, user docevent.UserID, contextID docevent.ID, opts ListOptions) ([]Notification, error)

	// SetViewed sets the viewed flag on the user's notifications
	// referencing the given source messages. Missing entries are
	// ignored.
	SetViewed(ctx context.Context, user docevent.UserID, messages []docevent.ID, viewed bool) error

	// ReadContext marks every notification under the user's context for
	// the document that existed at the call as viewed and advances
	// LastViewedAt to now. A notification applied concurrently after
	// the snapshot stays unread. No context is a no-op.
	ReadContext(ctx context.Context, user docevent.UserID, doc docevent.ID, now time.Time) error

	// DeleteByMessages removes the user's notifications referencing the
	// given source messages. Other users' notifications are untouched.
	DeleteByMessages(ctx context.Context, user docevent.UserID, messages []docevent.ID) error

	// SetHidden hides or re-surfaces the user's context for the
	// document. No context is a no-op.
	SetHidden(ctx context.Context, user docevent.UserID, doc docevent.ID, hidden bool) error

	// DeleteDocument cascades a permanent document deletion: drops every
	// context, notification and rollup for the document, all users.
	DeleteDocument(ctx context.Context, doc docevent.ID) error

	// CountUnread returns the user's total unread notification count.
	CountUnread(ctx context.Context, user docevent.UserID) (int, error)

	// ListDocUpdates returns the user's legacy rollups, newest first.
	ListDocUpdates(ctx context.Context, user docevent.UserID) ([]DocUpdates, error)
}
