package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Overrides(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	t.Run("unset key reports ok=false", func(t *testing.T) {
		t.Parallel()

		_, ok, err := store.Get(ctx, "u1", "email", "issue-assigned")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set then get", func(t *testing.T) {
		t.Parallel()

		s := NewMemoryStore()
		require.NoError(t, s.Set(ctx, Setting{UserID: "u1", Provider: "email", Type: "issue-assigned", Enabled: false}))

		enabled, ok, err := s.Get(ctx, "u1", "email", "issue-assigned")
		require.NoError(t, err)
		require.True(t, ok)
		assert.False(t, enabled)

		// Overrides are scoped per provider and rule.
		_, ok, err = s.Get(ctx, "u1", "platform", "issue-assigned")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set replaces previous value", func(t *testing.T) {
		t.Parallel()

		s := NewMemoryStore()
		require.NoError(t, s.Set(ctx, Setting{UserID: "u1", Provider: "email", Type: "r1", Enabled: false}))
		require.NoError(t, s.Set(ctx, Setting{UserID: "u1", Provider: "email", Type: "r1", Enabled: true}))

		enabled, ok, err := s.Get(ctx, "u1", "email", "r1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, enabled)
	})

	t.Run("incomplete key rejected", func(t *testing.T) {
		t.Parallel()

		err := store.Set(ctx, Setting{Provider: "email", Type: "r1"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidKey)
	})
}

func TestMemoryStore_ClassMutes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	muted, err := store.ClassMuted(ctx, "u1", "Issue")
	require.NoError(t, err)
	assert.False(t, muted)

	require.NoError(t, store.SetClassMuted(ctx, "u1", "Issue", true))
	muted, err = store.ClassMuted(ctx, "u1", "Issue")
	require.NoError(t, err)
	assert.True(t, muted)

	// Other users and classes are unaffected.
	muted, err = store.ClassMuted(ctx, "u2", "Issue")
	require.NoError(t, err)
	assert.False(t, muted)

	require.NoError(t, store.SetClassMuted(ctx, "u1", "Issue", false))
	muted, err = store.ClassMuted(ctx, "u1", "Issue")
	require.NoError(t, err)
	assert.False(t, muted)

	assert.ErrorIs(t, store.SetClassMuted(ctx, "", "Issue", true), ErrInvalidKey)
}
