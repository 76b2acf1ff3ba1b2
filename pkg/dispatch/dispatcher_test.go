package dispatch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/docnotify/pkg/dispatch"
	"github.com/dmitrymomot/docnotify/pkg/docevent"
	"github.com/dmitrymomot/docnotify/pkg/matcher"
	"github.com/dmitrymomot/docnotify/pkg/rules"
	"github.com/dmitrymomot/docnotify/pkg/settings"
)

type mockDeliverer struct {
	mock.Mock

	provider docevent.ProviderID
}

func (m *mockDeliverer) Provider() docevent.ProviderID {
	return m.provider
}

func (m *mockDeliverer) Deliver(ctx context.Context, ins dispatch.Instruction) error {
	return m.Called(ctx, ins).Error(0)
}

func testCandidate() matcher.Candidate {
	return matcher.Candidate{
		User:   "alice",
		RuleID: "issue-assigned",
		Providers: map[docevent.ProviderID]bool{
			dispatch.ProviderPlatform: true,
		},
		Templates: &rules.Templates{
			Subject: "Issue assigned",
			HTML:    "<h1>Issue assigned</h1>",
		},
		SourceTx:      "tx-1",
		DocumentID:    "doc-1",
		DocumentClass: "tracker.Issue",
		Author:        "bob",
		Timestamp:     time.Now(),
		Content:       matcher.Content{Title: "Issue assigned"},
	}
}

func TestDispatcherDispatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("rule default enables delivery", func(t *testing.T) {
		t.Parallel()

		deliverer := &mockDeliverer{provider: dispatch.ProviderPlatform}
		deliverer.On("Deliver", mock.Anything, mock.MatchedBy(func(ins dispatch.Instruction) bool {
			return ins.User == "alice" && ins.NotificationID == "n-1" &&
				ins.Title == "Issue assigned" &&
				ins.Templates != nil && ins.Templates.HTML == "<h1>Issue assigned</h1>"
		})).Return(nil).Once()

		d := dispatch.New(settings.NewMemoryStore(), dispatch.WithDeliverer(deliverer))
		require.NoError(t, d.Dispatch(ctx, testCandidate(), "n-1"))
		deliverer.AssertExpectations(t)
	})

	t.Run("provider without rule default stays off", func(t *testing.T) {
		t.Parallel()

		deliverer := &mockDeliverer{provider: dispatch.ProviderEmail}

		d := dispatch.New(settings.NewMemoryStore(), dispatch.WithDeliverer(deliverer))
		require.NoError(t, d.Dispatch(ctx, testCandidate(), "n-1"))
		deliverer.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
	})

	t.Run("user override disables an enabled provider", func(t *testing.T) {
		t.Parallel()

		store := settings.NewMemoryStore()
		require.NoError(t, store.Set(ctx, settings.Setting{
			UserID:   "alice",
			Provider: dispatch.ProviderPlatform,
			Type:     "issue-assigned",
			Enabled:  false,
		}))

		deliverer := &mockDeliverer{provider: dispatch.ProviderPlatform}

		d := dispatch.New(store, dispatch.WithDeliverer(deliverer))
		require.NoError(t, d.Dispatch(ctx, testCandidate(), "n-1"))
		deliverer.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
	})

	t.Run("user override enables a disabled provider", func(t *testing.T) {
		t.Parallel()

		store := settings.NewMemoryStore()
		require.NoError(t, store.Set(ctx, settings.Setting{
			UserID:   "alice",
			Provider: dispatch.ProviderEmail,
			Type:     "issue-assigned",
			Enabled:  true,
		}))

		deliverer := &mockDeliverer{provider: dispatch.ProviderEmail}
		deliverer.On("Deliver", mock.Anything, mock.Anything).Return(nil).Once()

		d := dispatch.New(store, dispatch.WithDeliverer(deliverer))
		require.NoError(t, d.Dispatch(ctx, testCandidate(), "n-1"))
		deliverer.AssertExpectations(t)
	})

	t.Run("transient failure retries with backoff", func(t *testing.T) {
		t.Parallel()

		deliverer := &mockDeliverer{provider: dispatch.ProviderPlatform}
		deliverer.On("Deliver", mock.Anything, mock.Anything).
			Return(errors.New("connection reset")).Twice()
		deliverer.On("Deliver", mock.Anything, mock.Anything).Return(nil).Once()

		d := dispatch.New(settings.NewMemoryStore(),
			dispatch.WithDeliverer(deliverer),
			dispatch.WithBackoff(dispatch.FixedBackoff{Interval: time.Millisecond}, 3),
		)
		require.NoError(t, d.Dispatch(ctx, testCandidate(), "n-1"))
		deliverer.AssertExpectations(t)
	})

	t.Run("exhausted retries surface as aggregated error", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("provider down")
		deliverer := &mockDeliverer{provider: dispatch.ProviderPlatform}
		deliverer.On("Deliver", mock.Anything, mock.Anything).Return(boom).Times(2)

		d := dispatch.New(settings.NewMemoryStore(),
			dispatch.WithDeliverer(deliverer),
			dispatch.WithBackoff(dispatch.FixedBackoff{Interval: time.Millisecond}, 2),
		)
		err := d.Dispatch(ctx, testCandidate(), "n-1")
		assert.ErrorIs(t, err, boom)
		deliverer.AssertExpectations(t)
	})

	t.Run("one failing provider does not block another", func(t *testing.T) {
		t.Parallel()

		cand := testCandidate()
		cand.Providers[dispatch.ProviderEmail] = true

		failing := &mockDeliverer{provider: dispatch.ProviderPlatform}
		failing.On("Deliver", mock.Anything, mock.Anything).
			Return(errors.New("provider down")).Once()

		healthy := &mockDeliverer{provider: dispatch.ProviderEmail}
		healthy.On("Deliver", mock.Anything, mock.Anything).Return(nil).Once()

		d := dispatch.New(settings.NewMemoryStore(),
			dispatch.WithDeliverer(failing),
			dispatch.WithDeliverer(healthy),
			dispatch.WithBackoff(dispatch.FixedBackoff{Interval: time.Millisecond}, 1),
		)
		err := d.Dispatch(ctx, cand, "n-1")
		require.Error(t, err)
		failing.AssertExpectations(t)
		healthy.AssertExpectations(t)
	})
}
