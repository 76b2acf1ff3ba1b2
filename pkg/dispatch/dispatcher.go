package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/docnotify/pkg/docevent"
	"github.com/dmitrymomot/docnotify/pkg/logger"
	"github.com/dmitrymomot/docnotify/pkg/matcher"
	"github.com/dmitrymomot/docnotify/pkg/settings"
)

// Dispatcher routes one recorded notification to every enabled provider.
type Dispatcher struct {
	settings    settings.Store
	deliverers  map[docevent.ProviderID]Deliverer
	logger      *slog.Logger
	backoff     BackoffStrategy
	maxAttempts int
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDeliverer registers a delivery channel. A later registration for
// the same provider replaces the earlier one.
func WithDeliverer(d Deliverer) DispatcherOption {
	return func(dp *Dispatcher) {
		dp.deliverers[d.Provider()] = d
	}
}

// WithDispatcherLogger sets the logger.
func WithDispatcherLogger(l *slog.Logger) DispatcherOption {
	return func(dp *Dispatcher) {
		dp.logger = l
	}
}

// WithBackoff replaces the retry policy for failing deliveries.
func WithBackoff(strategy BackoffStrategy, maxAttempts int) DispatcherOption {
	return func(dp *Dispatcher) {
		if strategy != nil {
			dp.backoff = strategy
		}
		if maxAttempts >= 1 {
			dp.maxAttempts = maxAttempts
		}
	}
}

// New creates a dispatcher reading provider overrides from the settings
// store.
func New(store settings.Store, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		settings:    store,
		deliverers:  make(map[docevent.ProviderID]Deliverer),
		logger:      slog.Default(),
		backoff:     DefaultBackoffStrategy(),
		maxAttempts: 3,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch delivers the notification through every registered provider
// the user has enabled. A user override beats the rule default; without
// either the provider stays off. The returned error aggregates final
// delivery failures for observability only: recorded inbox state is
// never rolled back.
func (d *Dispatcher) Dispatch(ctx context.Context, cand matcher.Candidate, notificationID docevent.ID) error {
	var failures []error
	for provider, deliverer := range d.deliverers {
		if !d.enabled(ctx, cand, provider) {
			continue
		}

		ins := Instruction{
			Provider:       provider,
			User:           cand.User,
			NotificationID: notificationID,
			SourceTx:       cand.SourceTx,
			DocumentID:     cand.DocumentID,
			DocumentClass:  cand.DocumentClass,
			RuleID:         cand.RuleID,
			Author:         cand.Author,
			Title:          cand.Content.Title,
			Body:           cand.Content.Body,
			Templates:      cand.Templates,
			Timestamp:      cand.Timestamp,
		}

		if err := d.deliver(ctx, deliverer, ins); err != nil {
			d.logger.LogAttrs(ctx, slog.LevelError, "notification delivery failed",
				logger.Provider(provider),
				logger.UserID(cand.User),
				logger.RuleID(cand.RuleID),
				logger.Error(err),
			)
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}

// enabled resolves the provider switch: user override first, then the
// rule's provider defaults.
func (d *Dispatcher) enabled(ctx context.Context, cand matcher.Candidate, provider docevent.ProviderID) bool {
	enabled, ok, err := d.settings.Get(ctx, cand.User, provider, cand.RuleID)
	if err != nil {
		d.logger.LogAttrs(ctx, slog.LevelWarn, "reading provider override failed, using rule default",
			logger.Provider(provider),
			logger.UserID(cand.User),
			logger.Error(err),
		)
	} else if ok {
		return enabled
	}
	return cand.Providers[provider]
}

func (d *Dispatcher) deliver(ctx context.Context, deliverer Deliverer, ins Instruction) error {
	var err error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		if err = deliverer.Deliver(ctx, ins); err == nil {
			return nil
		}
		if attempt == d.maxAttempts {
			break
		}

		d.logger.LogAttrs(ctx, slog.LevelDebug, "retrying delivery",
			logger.Provider(ins.Provider),
			logger.RetryCount(attempt),
			logger.Error(err),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.backoff.NextInterval(attempt)):
		}
	}
	return err
}
