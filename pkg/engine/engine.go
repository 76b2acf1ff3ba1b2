package engine

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/docnotify/pkg/dispatch"
	"github.com/dmitrymomot/docnotify/pkg/docevent"
	"github.com/dmitrymomot/docnotify/pkg/inbox"
	"github.com/dmitrymomot/docnotify/pkg/logger"
	"github.com/dmitrymomot/docnotify/pkg/matcher"
)

// Engine is the notification pipeline. One Engine instance owns the
// worker pool; create it once at startup.
type Engine struct {
	matcher    *matcher.Matcher
	manager    *inbox.Manager
	dispatcher *dispatch.Dispatcher
	hierarchy  *docevent.Hierarchy
	logger     *slog.Logger

	shardCount      int
	queueSize       int
	processTimeout  time.Duration
	shutdownTimeout time.Duration

	mu      sync.RWMutex
	shards  []chan docevent.Event
	started bool
	wg      sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithConfig applies pool sizing from a loaded Config.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		if cfg.Shards >= 1 {
			e.shardCount = cfg.Shards
		}
		if cfg.QueueSize >= 1 {
			e.queueSize = cfg.QueueSize
		}
		if cfg.ProcessTimeout > 0 {
			e.processTimeout = cfg.ProcessTimeout
		}
		if cfg.ShutdownTimeout > 0 {
			e.shutdownTimeout = cfg.ShutdownTimeout
		}
	}
}

// New creates an engine over the matcher, the inbox manager and the
// dispatcher. The hierarchy is used to recognize document removal
// transactions.
func New(m *matcher.Matcher, manager *inbox.Manager, d *dispatch.Dispatcher, h *docevent.Hierarchy, opts ...Option) *Engine {
	e := &Engine{
		matcher:         m,
		manager:         manager,
		dispatcher:      d,
		hierarchy:       h,
		logger:          slog.Default(),
		shardCount:      8,
		queueSize:       256,
		processTimeout:  30 * time.Second,
		shutdownTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the shard workers.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return ErrAlreadyStarted
	}

	e.shards = make([]chan docevent.Event, e.shardCount)
	for i := range e.shards {
		e.shards[i] = make(chan docevent.Event, e.queueSize)
		e.wg.Add(1)
		go e.runShard(i, e.shards[i])
	}
	e.started = true

	e.logger.LogAttrs(ctx, slog.LevelInfo, "notification engine started",
		slog.Int("shards", e.shardCount),
		slog.Int("queue_size", e.queueSize),
	)
	return nil
}

// Stop drains the shard queues and waits for in-flight events.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return ErrNotStarted
	}
	e.started = false
	for _, ch := range e.shards {
		close(ch)
	}
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("notification engine stopped")
		return nil
	case <-time.After(e.shutdownTimeout):
		return ErrShutdownTimeout
	}
}

// Run starts the engine and returns a function suitable for errgroup.
func (e *Engine) Run(ctx context.Context) func() error {
	return func() error {
		if err := e.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return e.Stop()
	}
}

// Submit enqueues an event on the shard owning its document. It blocks
// while the shard queue is full, which backpressures the producer
// instead of reordering events.
func (e *Engine) Submit(ctx context.Context, ev docevent.Event) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.started {
		return ErrNotStarted
	}

	select {
	case e.shards[e.shardFor(ev.DocumentID)] <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Manager exposes the inbox command and query surface for the
// presentation layer.
func (e *Engine) Manager() *inbox.Manager {
	return e.manager
}

// Process runs one event through the pipeline synchronously: a document
// removal cascades, anything else is matched, recorded atomically and
// dispatched. An event referencing an unknown document is dropped with
// a warning.
func (e *Engine) Process(ctx context.Context, ev docevent.Event) error {
	if e.hierarchy.IsDerived(ev.TxClass, docevent.TxRemove) && ev.AttachedToID == "" {
		return e.manager.DeleteDocument(ctx, ev.DocumentID)
	}

	candidates, err := e.matcher.Match(ctx, ev)
	if err != nil {
		if errors.Is(err, docevent.ErrUnknownDocument) {
			e.logger.LogAttrs(ctx, slog.LevelWarn, "dropping event for unknown document",
				logger.DocID(ev.DocumentID),
				logger.TxID(ev.TxID),
			)
			return nil
		}
		return fmt.Errorf("match event %s: %w", ev.TxID, err)
	}
	if len(candidates) == 0 {
		return nil
	}

	created, err := e.manager.ApplyCandidates(ctx, batchFrom(ev, candidates))
	if err != nil {
		return fmt.Errorf("record event %s: %w", ev.TxID, err)
	}

	// Dispatch only freshly created notifications: a deduplicated
	// re-apply must not ping providers a second time. Delivery failures
	// are logged by the dispatcher and never unwind the inbox write.
	createdID := make(map[docevent.UserID]docevent.ID, len(created))
	for _, n := range created {
		createdID[n.UserID] = n.ID
	}
	for _, cand := range candidates {
		id, ok := createdID[cand.User]
		if !ok {
			continue
		}
		if err := e.dispatcher.Dispatch(ctx, cand, id); err != nil {
			e.logger.LogAttrs(ctx, slog.LevelWarn, "some deliveries failed",
				logger.UserID(cand.User),
				logger.TxID(cand.SourceTx),
				logger.Error(err),
			)
		}
	}
	return nil
}

func (e *Engine) runShard(shard int, events <-chan docevent.Event) {
	defer e.wg.Done()

	for ev := range events {
		ctx, cancel := context.WithTimeout(context.Background(), e.processTimeout)
		if err := e.Process(ctx, ev); err != nil {
			e.logger.LogAttrs(ctx, slog.LevelError, "processing event failed",
				logger.Shard(shard),
				logger.DocID(ev.DocumentID),
				logger.TxID(ev.TxID),
				logger.Error(err),
			)
		}
		cancel()
	}
}

func (e *Engine) shardFor(doc docevent.ID) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(doc))
	return int(h.Sum32() % uint32(e.shardCount))
}

// batchFrom folds one event's candidates into a storage batch. Two
// rules hitting the same user produce one entry; the storage dedup on
// (user, sourceTx) would drop the second anyway.
func batchFrom(ev docevent.Event, candidates []matcher.Candidate) inbox.Batch {
	batch := inbox.Batch{
		DocumentID:    ev.DocumentID,
		DocumentClass: ev.DocumentClass,
		Timestamp:     ev.Timestamp,
	}
	seen := make(map[docevent.UserID]struct{}, len(candidates))
	for _, cand := range candidates {
		if _, ok := seen[cand.User]; ok {
			continue
		}
		seen[cand.User] = struct{}{}
		batch.Entries = append(batch.Entries, inbox.BatchEntry{
			User:         cand.User,
			SourceTx:     cand.SourceTx,
			MessageClass: ev.TxClass,
			Author:       cand.Author,
			IsNew:        ev.IsCreate(),
			Title:        cand.Content.Title,
			Body:         cand.Content.Body,
		})
	}
	return batch
}
