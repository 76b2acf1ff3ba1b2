package inbox

import (
	"time"

	"github.com/dmitrymomot/docnotify/pkg/docevent"
)

// NotifyContext tracks one user's read position and visibility for one
// document. At most one context exists per (user, document) pair.
type NotifyContext struct {
	ID            docevent.ID     `bson:"_id" json:"id"`
	UserID        docevent.UserID `bson:"user_id" json:"user_id"`
	DocumentID    docevent.ID     `bson:"document_id" json:"document_id"`
	DocumentClass docevent.Class  `bson:"document_class" json:"document_class"`
	Hidden        bool            `bson:"hidden" json:"hidden"`

	// LastViewedAt is advanced only by a document read. Zero means the
	// user never read the document.
	LastViewedAt time.Time `bson:"last_viewed_at" json:"last_viewed_at"`

	// LastUpdatedAt is the timestamp of the latest notification-worthy
	// mutation. Monotonic per context.
	LastUpdatedAt time.Time `bson:"last_updated_at" json:"last_updated_at"`

	// Version guards optimistic context updates.
	Version int64 `bson:"version" json:"-"`
}

// State returns the lifecycle state of the context.
func (c *NotifyContext) State() ContextState {
	if c == nil {
		return StateNone
	}
	if c.Hidden {
		return StateHidden
	}
	return StateActive
}

// Notification is one inbox entry: a user's unread/read marker for one
// originating activity message.
type Notification struct {
	ID           docevent.ID     `bson:"_id" json:"id"`
	UserID       docevent.UserID `bson:"user_id" json:"user_id"`
	SourceTx     docevent.ID     `bson:"source_tx" json:"source_tx"`
	MessageClass docevent.Class  `bson:"message_class" json:"message_class"`
	ContextID    docevent.ID     `bson:"context_id" json:"context_id"`
	Viewed       bool            `bson:"viewed" json:"viewed"`
	CreatedAt    time.Time       `bson:"created_at" json:"created_at"`
	Title        string          `bson:"title,omitempty" json:"title,omitempty"`
	Body         string          `bson:"body,omitempty" json:"body,omitempty"`
}

// DocUpdate is one transaction summary in the legacy per-document rollup.
type DocUpdate struct {
	TxID       docevent.ID     `bson:"tx_id" json:"tx_id"`
	Author     docevent.UserID `bson:"author" json:"author"`
	ModifiedAt time.Time       `bson:"modified_at" json:"modified_at"`
	IsNew      bool            `bson:"is_new" json:"is_new"`
	Title      string          `bson:"title,omitempty" json:"title,omitempty"`
	Body       string          `bson:"body,omitempty" json:"body,omitempty"`
}

// DocUpdates is the legacy per-(user, document) rollup view, kept
// derivable from the same event stream for compatibility.
type DocUpdates struct {
	ID            docevent.ID     `bson:"_id" json:"id"`
	UserID        docevent.UserID `bson:"user_id" json:"user_id"`
	DocumentID    docevent.ID     `bson:"document_id" json:"document_id"`
	DocumentClass docevent.Class  `bson:"document_class" json:"document_class"`
	Hidden        bool            `bson:"hidden" json:"hidden"`
	LastTxAt      time.Time       `bson:"last_tx_at" json:"last_tx_at"`
	Updates       []DocUpdate     `bson:"updates" json:"updates"`
}

// Batch carries everything the storage needs to record one event's
// accepted candidates atomically.
type Batch struct {
	DocumentID    docevent.ID
	DocumentClass docevent.Class
	Timestamp     time.Time
	Entries       []BatchEntry
}

// BatchEntry is one accepted candidate within a batch.
type BatchEntry struct {
	User         docevent.UserID
	SourceTx     docevent.ID
	MessageClass docevent.Class
	Author       docevent.UserID
	IsNew        bool
	Title        string
	Body         string
}

// ListOptions filters notification listings.
type ListOptions struct {
	OnlyUnread bool
	Limit      int
}
