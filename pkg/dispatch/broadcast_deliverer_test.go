package dispatch_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/docnotify/pkg/dispatch"
)

func TestBroadcastDeliverer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("delivers to the user's subscriptions only", func(t *testing.T) {
		t.Parallel()

		b := dispatch.NewBroadcastDeliverer(dispatch.ProviderPlatform, 4)
		defer b.Close()

		alice := b.Subscribe(ctx, "alice")
		bob := b.Subscribe(ctx, "bob")

		require.NoError(t, b.Deliver(ctx, dispatch.Instruction{
			Provider: dispatch.ProviderPlatform,
			User:     "alice",
			SourceTx: "tx-1",
		}))

		select {
		case ins := <-alice.Instructions():
			assert.Equal(t, "tx-1", string(ins.SourceTx))
		case <-time.After(time.Second):
			t.Fatal("expected instruction for alice")
		}

		select {
		case ins, ok := <-bob.Instructions():
			if ok {
				t.Fatalf("unexpected instruction for bob: %+v", ins)
			}
		default:
		}
	})

	t.Run("delivery without subscribers succeeds", func(t *testing.T) {
		t.Parallel()

		b := dispatch.NewBroadcastDeliverer(dispatch.ProviderPlatform, 1)
		defer b.Close()

		require.NoError(t, b.Deliver(ctx, dispatch.Instruction{User: "nobody"}))
	})

	t.Run("context cancellation cleans up the subscription", func(t *testing.T) {
		t.Parallel()

		b := dispatch.NewBroadcastDeliverer(dispatch.ProviderPlatform, 1)
		defer b.Close()

		subCtx, cancel := context.WithCancel(ctx)
		sub := b.Subscribe(subCtx, "alice")
		cancel()

		select {
		case _, ok := <-sub.Instructions():
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("expected subscription channel to close")
		}
	})

	t.Run("close returns while subscriber contexts are still live", func(t *testing.T) {
		t.Parallel()

		b := dispatch.NewBroadcastDeliverer(dispatch.ProviderPlatform, 1)

		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		sub := b.Subscribe(subCtx, "alice")

		closed := make(chan error, 1)
		go func() { closed <- b.Close() }()

		select {
		case err := <-closed:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("Close did not return with a live subscriber context")
		}

		_, ok := <-sub.Instructions()
		assert.False(t, ok)
	})

	t.Run("close is idempotent and rejects delivery", func(t *testing.T) {
		t.Parallel()

		b := dispatch.NewBroadcastDeliverer(dispatch.ProviderBrowser, 1)
		sub := b.Subscribe(ctx, "alice")

		require.NoError(t, b.Close())
		require.NoError(t, b.Close())

		_, ok := <-sub.Instructions()
		assert.False(t, ok)

		require.ErrorIs(t, b.Deliver(ctx, dispatch.Instruction{User: "alice"}), dispatch.ErrDelivererClosed)
	})
}
