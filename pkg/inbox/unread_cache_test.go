package inbox_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/docnotify/pkg/docevent"
	"github.com/dmitrymomot/docnotify/pkg/inbox"
)

// fakeCounterCache is an in-memory CounterCache recording deletes.
type fakeCounterCache struct {
	mu     sync.Mutex
	vals   map[string]string
	dels   []string
	getErr error
}

func newFakeCounterCache() *fakeCounterCache {
	return &fakeCounterCache{vals: make(map[string]string)}
}

func (f *fakeCounterCache) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.vals[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeCounterCache) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.vals[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeCounterCache) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, key := range keys {
		delete(f.vals, key)
		f.dels = append(f.dels, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (f *fakeCounterCache) deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.dels...)
}

func TestCachedStorageCountUnread(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now()

	t.Run("reads through and serves the cached counter", func(t *testing.T) {
		t.Parallel()

		storage := inbox.NewMemoryStorage()
		cache := newFakeCounterCache()
		cached := inbox.NewCachedStorage(storage, cache)

		_, err := cached.ApplyBatch(ctx, testBatch("doc-1", "tx-1", now, "alice"))
		require.NoError(t, err)

		count, err := cached.CountUnread(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, 1, count)

		// A write bypassing the decorator is invisible until invalidation:
		// the counter still comes from the cache.
		_, err = storage.ApplyBatch(ctx, testBatch("doc-2", "tx-2", now, "alice"))
		require.NoError(t, err)

		count, err = cached.CountUnread(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("cache errors degrade to the underlying storage", func(t *testing.T) {
		t.Parallel()

		storage := inbox.NewMemoryStorage()
		cache := newFakeCounterCache()
		cache.getErr = fmt.Errorf("connection refused")
		cached := inbox.NewCachedStorage(storage, cache)

		_, err := storage.ApplyBatch(ctx, testBatch("doc-1", "tx-1", now, "alice"))
		require.NoError(t, err)

		count, err := cached.CountUnread(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestCachedStorageInvalidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now()

	key := func(user docevent.UserID) string { return "docnotify:unread:" + string(user) }

	newCached := func(t *testing.T) (*inbox.CachedStorage, *fakeCounterCache) {
		t.Helper()

		cache := newFakeCounterCache()
		cached := inbox.NewCachedStorage(inbox.NewMemoryStorage(), cache)

		_, err := cached.ApplyBatch(ctx, testBatch("doc-1", "tx-1", now, "alice", "bob"))
		require.NoError(t, err)

		// Warm the counter so each write has something to drop.
		count, err := cached.CountUnread(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, 1, count)
		return cached, cache
	}

	t.Run("apply batch drops the counter of every notified user", func(t *testing.T) {
		t.Parallel()

		cached, cache := newCached(t)
		_, err := cached.ApplyBatch(ctx, testBatch("doc-1", "tx-2", now.Add(time.Second), "alice"))
		require.NoError(t, err)

		assert.Contains(t, cache.deleted(), key("alice"))

		count, err := cached.CountUnread(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("set viewed drops the user's counter", func(t *testing.T) {
		t.Parallel()

		cached, cache := newCached(t)
		require.NoError(t, cached.SetViewed(ctx, "alice", []docevent.ID{"tx-1"}, true))
		assert.Contains(t, cache.deleted(), key("alice"))

		count, err := cached.CountUnread(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("read context drops the user's counter", func(t *testing.T) {
		t.Parallel()

		cached, cache := newCached(t)
		require.NoError(t, cached.ReadContext(ctx, "alice", "doc-1", now.Add(time.Minute)))
		assert.Contains(t, cache.deleted(), key("alice"))

		count, err := cached.CountUnread(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("delete by messages drops the user's counter", func(t *testing.T) {
		t.Parallel()

		cached, cache := newCached(t)
		require.NoError(t, cached.DeleteByMessages(ctx, "alice", []docevent.ID{"tx-1"}))
		assert.Contains(t, cache.deleted(), key("alice"))

		count, err := cached.CountUnread(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("failed write does not invalidate", func(t *testing.T) {
		t.Parallel()

		cached, cache := newCached(t)
		_, err := cached.ApplyBatch(ctx, inbox.Batch{DocumentID: "doc-1"})
		require.ErrorIs(t, err, inbox.ErrEmptyBatch)
		assert.NotContains(t, cache.deleted(), key("alice"))
	})
}
