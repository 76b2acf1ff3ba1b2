// Package inbox owns the durable per-user notification state: one
// notify context per (user, document) pair and one inbox notification
// per (user, originating activity message).
//
// The Manager is the only writer. It applies candidate batches produced
// by the matcher (all candidates of one event are recorded atomically or
// not at all), answers read/unread queries and executes user commands:
// read a document, read or unread individual messages, delete message
// notifications, hide a context.
//
// Contexts follow a small lifecycle: none -> active on the first
// accepted candidate or an explicit subscribe, active -> hidden on an
// explicit hide, hidden -> active automatically when new activity
// arrives. Contexts are never deleted while the document exists.
//
// Contexts are updated optimistically: storage implementations compare a
// per-context version and fail with ErrConcurrentUpdate when it moved,
// and the Manager retries internally. A document read races a concurrent
// candidate application by snapshotting: only notifications present at
// the snapshot are marked viewed, so a concurrently applied candidate
// stays unread.
//
// MemoryStorage backs tests and development; MongoStorage is the
// production implementation. UnreadCountCache optionally layers a Redis
// cache over the hot unread-count query.
package inbox
