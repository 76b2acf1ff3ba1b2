package dispatch

import (
	"context"
	"sync"

	"github.com/dmitrymomot/docnotify/pkg/docevent"
)

// Subscription is one connected client's stream of delivery
// instructions.
type Subscription struct {
	ch     chan Instruction
	closed bool
	mu     sync.Mutex
}

// Instructions returns the channel carrying the user's instructions.
// The channel closes when the subscription or the deliverer closes.
func (s *Subscription) Instructions() <-chan Instruction {
	return s.ch
}

// Close releases the subscription. Idempotent.
func (s *Subscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.ch)
		s.closed = true
	}
	return nil
}

// send is non-blocking; a full buffer means a slow consumer and the
// instruction is dropped for it.
func (s *Subscription) send(ins Instruction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	select {
	case s.ch <- ins:
		return true
	default:
		return false
	}
}

// BroadcastDeliverer pushes instructions to the user's connected
// clients over in-process channels. It backs the platform and browser
// providers: a gateway subscribes per authenticated connection and
// forwards instructions over its own transport.
//
// Delivery to users without an active subscription succeeds silently;
// their inbox state is already recorded and the client catches up on
// reconnect.
type BroadcastDeliverer struct {
	provider    docevent.ProviderID
	bufferSize  int
	subscribers map[docevent.UserID]map[*Subscription]struct{}
	closed      bool
	done        chan struct{}
	mu          sync.RWMutex
	cleanupWg   sync.WaitGroup
}

// NewBroadcastDeliverer creates a deliverer for the provider. The
// buffer size bounds each subscription's channel; a minimum of 1 keeps
// sends non-blocking.
func NewBroadcastDeliverer(provider docevent.ProviderID, bufferSize int) *BroadcastDeliverer {
	return &BroadcastDeliverer{
		provider:    provider,
		bufferSize:  max(bufferSize, 1),
		subscribers: make(map[docevent.UserID]map[*Subscription]struct{}),
		done:        make(chan struct{}),
	}
}

func (b *BroadcastDeliverer) Provider() docevent.ProviderID { return b.provider }

// Subscribe attaches a client stream for the user. The subscription is
// cleaned up when the context is cancelled.
func (b *BroadcastDeliverer) Subscribe(ctx context.Context, user docevent.UserID) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription{ch: make(chan Instruction, b.bufferSize)}
	if b.closed {
		_ = sub.Close()
		return sub
	}

	set, ok := b.subscribers[user]
	if !ok {
		set = make(map[*Subscription]struct{})
		b.subscribers[user] = set
	}
	set[sub] = struct{}{}

	if ctx.Done() != nil {
		b.cleanupWg.Add(1)
		go func() {
			defer b.cleanupWg.Done()
			select {
			case <-ctx.Done():
				b.unsubscribe(user, sub)
			case <-b.done:
				// Close already released every subscription.
			}
		}()
	}

	return sub
}

// Deliver fans the instruction out to the user's active subscriptions.
// Slow consumers are dropped rather than blocking delivery.
func (b *BroadcastDeliverer) Deliver(ctx context.Context, ins Instruction) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrDelivererClosed
	}

	for sub := range b.subscribers[ins.User] {
		if !sub.send(ins) {
			// Remove slow or closed subscriptions asynchronously to
			// avoid write-lock contention during delivery.
			go b.unsubscribe(ins.User, sub)
		}
	}
	return nil
}

// Close shuts down the deliverer and every subscription. Safe to call
// multiple times.
func (b *BroadcastDeliverer) Close() error {
	b.mu.Lock()

	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true

	for _, set := range b.subscribers {
		for sub := range set {
			_ = sub.Close()
		}
	}
	clear(b.subscribers)
	close(b.done)
	b.mu.Unlock()

	b.cleanupWg.Wait()
	return nil
}

func (b *BroadcastDeliverer) unsubscribe(user docevent.UserID, sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if set, ok := b.subscribers[user]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(b.subscribers, user)
		}
	}
	_ = sub.Close()
}
