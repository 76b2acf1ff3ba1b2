package docevent

import (
	"slices"
	"time"
)

// ID identifies a document, space, transaction or activity message.
type ID string

// Class names a domain class ("Issue", "Comment") or a transaction
// class ("TxCreate", "TxUpdate").
type Class string

// UserID identifies an account.
type UserID string

// ProviderID identifies a delivery channel (platform, browser, email).
type ProviderID string

// Built-in transaction classes. The registry matches on these by default,
// but any Class registered in the hierarchy can serve as a tx class.
const (
	TxCreate Class = "TxCreate"
	TxUpdate Class = "TxUpdate"
	TxRemove Class = "TxRemove"
	TxMixin  Class = "TxMixin"
)

// Event is a single mutation applied to a document, as delivered by the
// upstream transaction log. Events for one document arrive in order;
// events for different documents carry no ordering guarantee.
type Event struct {
	DocumentID    ID
	DocumentClass Class
	SpaceID       ID
	TxID          ID
	TxClass       Class
	ActingUser    UserID
	ChangedFields []string
	Timestamp     time.Time

	// AttachedToID/AttachedToClass are set when the mutated document is
	// attached to a parent (a comment under an issue).
	AttachedToID    ID
	AttachedToClass Class

	// Payload carries the mutated field values keyed by field name.
	Payload map[string]any
}

// Changed reports whether the mutation touched the named field.
func (e Event) Changed(field string) bool {
	return slices.Contains(e.ChangedFields, field)
}

// Field returns the payload value for the named field.
func (e Event) Field(name string) (any, bool) {
	if e.Payload == nil {
		return nil, false
	}
	v, ok := e.Payload[name]
	return v, ok
}

// IsCreate reports whether the event introduces a new document.
func (e Event) IsCreate() bool {
	return e.TxClass == TxCreate
}
