package inbox

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/docnotify/pkg/docevent"
)

type contextKey struct {
	user docevent.UserID
	doc  docevent.ID
}

type dedupKey struct {
	user docevent.UserID
	tx   docevent.ID
}

// MemoryStorage is an in-memory Storage implementation for development
// and testing. A single mutex makes every batch trivially atomic.
type MemoryStorage struct {
	contexts      map[contextKey]*NotifyContext
	notifications map[docevent.UserID][]*Notification
	byDedup       map[dedupKey]*Notification
	rollups       map[contextKey]*DocUpdates
	mu            sync.RWMutex
}

// NewMemoryStorage creates an empty in-memory inbox storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		contexts:      make(map[contextKey]*NotifyContext),
		notifications: make(map[docevent.UserID][]*Notification),
		byDedup:       make(map[dedupKey]*Notification),
		rollups:       make(map[contextKey]*DocUpdates),
	}
}

func (s *MemoryStorage) GetContext(ctx context.Context, user docevent.UserID, doc docevent.ID) (*NotifyContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.contexts[contextKey{user: user, doc: doc}]
	if !ok {
		return nil, ErrContextNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *MemoryStorage) ListContexts(ctx context.Context, user docevent.UserID) ([]NotifyContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []NotifyContext
	for key, c := range s.contexts {
		if key.user != user || c.Hidden {
			continue
		}
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b NotifyContext) int {
		return b.LastUpdatedAt.Compare(a.LastUpdatedAt)
	})
	return out, nil
}

func (s *MemoryStorage) EnsureContext(ctx context.Context, user docevent.UserID, doc docevent.ID, class docevent.Class, now time.Time) (*NotifyContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.ensureLocked(user, doc, class, now, EventSubscribe)
	if err != nil {
		return nil, err
	}
	copied := *c
	return &copied, nil
}

func (s *MemoryStorage) ApplyBatch(ctx context.Context, batch Batch) ([]Notification, error) {
	if len(batch.Entries) == 0 {
		return nil, ErrEmptyBatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var created []Notification
	for _, entry := range batch.Entries {
		c, err := s.ensureLocked(entry.User, batch.DocumentID, batch.DocumentClass, batch.Timestamp, EventActivity)
		if err != nil {
			return nil, err
		}
		if batch.Timestamp.After(c.LastUpdatedAt) {
			c.LastUpdatedAt = batch.Timestamp
		}
		c.Version++

		// Dedup per (user, source message): re-applying the same
		// transaction never creates a second inbox entry.
		key := dedupKey{user: entry.User, tx: entry.SourceTx}
		if _, ok := s.byDedup[key]; ok {
			continue
		}

		notif := &Notification{
			ID:           docevent.ID(uuid.New().String()),
			UserID:       entry.User,
			SourceTx:     entry.SourceTx,
			MessageClass: entry.MessageClass,
			ContextID:    c.ID,
			Viewed:       false,
			CreatedAt:    batch.Timestamp,
			Title:        entry.Title,
			Body:         entry.Body,
		}
		s.notifications[entry.User] = append(s.notifications[entry.User], notif)
		s.byDedup[key] = notif
		created = append(created, *notif)

		s.appendRollupLocked(batch, entry)
	}
	return created, nil
}

func (s *MemoryStorage) ListNotifications(ctx context.Context, user docevent.UserID, contextID docevent.ID, opts ListOptions) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Notification
	for _, n := range s.notifications[user] {
		if n.ContextID != contextID {
			continue
		}
		if opts.OnlyUnread && n.Viewed {
			continue
		}
		out = append(out, *n)
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStorage) SetViewed(ctx context.Context, user docevent.UserID, messages []docevent.ID, viewed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, msg := range messages {
		if n, ok := s.byDedup[dedupKey{user: user, tx: msg}]; ok {
			n.Viewed = viewed
		}
	}
	return nil
}

func (s *MemoryStorage) ReadContext(ctx context.Context, user docevent.UserID, doc docevent.ID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contexts[contextKey{user: user, doc: doc}]
	if !ok {
		return nil
	}

	for _, n := range s.notifications[user] {
		if n.ContextID == c.ID {
			n.Viewed = true
		}
	}
	c.LastViewedAt = now
	c.Version++
	return nil
}

func (s *MemoryStorage) DeleteByMessages(ctx context.Context, user docevent.UserID, messages []docevent.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doomed := make(map[docevent.ID]struct{}, len(messages))
	for _, msg := range messages {
		if _, ok := s.byDedup[dedupKey{user: user, tx: msg}]; ok {
			doomed[msg] = struct{}{}
			delete(s.byDedup, dedupKey{user: user, tx: msg})
		}
	}
	if len(doomed) == 0 {
		return nil
	}

	kept := s.notifications[user][:0]
	for _, n := range s.notifications[user] {
		if _, ok := doomed[n.SourceTx]; !ok {
			kept = append(kept, n)
		}
	}
	s.notifications[user] = kept
	return nil
}

func (s *MemoryStorage) SetHidden(ctx context.Context, user docevent.UserID, doc docevent.ID, hidden bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contexts[contextKey{user: user, doc: doc}]
	if !ok {
		return nil
	}

	event := EventHide
	if !hidden {
		event = EventSubscribe
	}
	next, err := Transition(c.State(), event)
	if err != nil {
		return err
	}
	c.Hidden = next == StateHidden
	c.Version++

	if rollup, ok := s.rollups[contextKey{user: user, doc: doc}]; ok {
		rollup.Hidden = c.Hidden
	}
	return nil
}

func (s *MemoryStorage) DeleteDocument(ctx context.Context, doc docevent.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, c := range s.contexts {
		if key.doc != doc {
			continue
		}
		kept := s.notifications[key.user][:0]
		for _, n := range s.notifications[key.user] {
			if n.ContextID == c.ID {
				delete(s.byDedup, dedupKey{user: key.user, tx: n.SourceTx})
				continue
			}
			kept = append(kept, n)
		}
		s.notifications[key.user] = kept
		delete(s.contexts, key)
		delete(s.rollups, key)
	}
	return nil
}

func (s *MemoryStorage) CountUnread(ctx context.Context, user docevent.UserID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.notifications[user] {
		if !n.Viewed {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStorage) ListDocUpdates(ctx context.Context, user docevent.UserID) ([]DocUpdates, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []DocUpdates
	for key, rollup := range s.rollups {
		if key.user != user {
			continue
		}
		copied := *rollup
		copied.Updates = slices.Clone(rollup.Updates)
		out = append(out, copied)
	}
	slices.SortFunc(out, func(a, b DocUpdates) int {
		return b.LastTxAt.Compare(a.LastTxAt)
	})
	return out, nil
}

// ensureLocked creates or re-activates a context. Caller holds the lock.
func (s *MemoryStorage) ensureLocked(user docevent.UserID, doc docevent.ID, class docevent.Class, now time.Time, event ContextEvent) (*NotifyContext, error) {
	key := contextKey{user: user, doc: doc}
	c, ok := s.contexts[key]
	if !ok {
		if _, err := Transition(StateNone, event); err != nil {
			return nil, err
		}
		c = &NotifyContext{
			ID:            docevent.ID(uuid.New().String()),
			UserID:        user,
			DocumentID:    doc,
			DocumentClass: class,
			LastUpdatedAt: now,
			Version:       1,
		}
		s.contexts[key] = c
		return c, nil
	}

	next, err := Transition(c.State(), event)
	if err != nil {
		return nil, err
	}
	if c.Hidden && next == StateActive {
		c.Hidden = false
		c.Version++
	}
	return c, nil
}

func (s *MemoryStorage) appendRollupLocked(batch Batch, entry BatchEntry) {
	key := contextKey{user: entry.User, doc: batch.DocumentID}
	rollup, ok := s.rollups[key]
	if !ok {
		rollup = &DocUpdates{
			ID:            docevent.ID(uuid.New().String()),
			UserID:        entry.User,
			DocumentID:    batch.DocumentID,
			DocumentClass: batch.DocumentClass,
		}
		s.rollups[key] = rollup
	}
	rollup.Hidden = false
	if batch.Timestamp.After(rollup.LastTxAt) {
		rollup.LastTxAt = batch.Timestamp
	}
	rollup.Updates = append(rollup.Updates, DocUpdate{
		TxID:       entry.SourceTx,
		Author:     entry.Author,
		ModifiedAt: batch.Timestamp,
		IsNew:      entry.IsNew,
		Title:      entry.Title,
		Body:       entry.Body,
	})
}
