package inbox

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/docnotify/pkg/docevent"
)

const unreadKeyPrefix = "docnotify:unread:"

// CounterCache is the slice of the Redis command surface the unread
// cache uses. Any go-redis client satisfies it.
type CounterCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CachedStorage decorates a Storage with a Redis cache for the unread
// counter, the hottest read in the inbox (badge polling). Writes that
// change a user's unread set invalidate that user's counter; the TTL is
// the backstop for paths that cannot name the affected users, such as a
// document cascade delete.
type CachedStorage struct {
	Storage

	rdb CounterCache
	ttl time.Duration
}

// CacheOption configures a CachedStorage.
type CacheOption func(*CachedStorage)

// WithCacheTTL overrides the default 1 minute counter TTL.
func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(c *CachedStorage) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// NewCachedStorage wraps a storage with the unread counter cache.
func NewCachedStorage(storage Storage, rdb CounterCache, opts ...CacheOption) *CachedStorage {
	c := &CachedStorage{
		Storage: storage,
		rdb:     rdb,
		ttl:     time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CountUnread serves the counter from Redis when present, otherwise
// reads through and caches the result. Cache errors degrade to the
// underlying storage instead of failing the call.
func (c *CachedStorage) CountUnread(ctx context.Context, user docevent.UserID) (int, error) {
	cached, err := c.rdb.Get(ctx, unreadKey(user)).Result()
	if err == nil {
		if count, convErr := strconv.Atoi(cached); convErr == nil {
			return count, nil
		}
	}

	count, err := c.Storage.CountUnread(ctx, user)
	if err != nil {
		return 0, err
	}
	c.rdb.Set(ctx, unreadKey(user), strconv.Itoa(count), c.ttl)
	return count, nil
}

func (c *CachedStorage) ApplyBatch(ctx context.Context, batch Batch) ([]Notification, error) {
	created, err := c.Storage.ApplyBatch(ctx, batch)
	if err != nil {
		return nil, err
	}
	for _, n := range created {
		c.invalidate(ctx, n.UserID)
	}
	return created, nil
}

func (c *CachedStorage) SetViewed(ctx context.Context, user docevent.UserID, messages []docevent.ID, viewed bool) error {
	if err := c.Storage.SetViewed(ctx, user, messages, viewed); err != nil {
		return err
	}
	c.invalidate(ctx, user)
	return nil
}

func (c *CachedStorage) ReadContext(ctx context.Context, user docevent.UserID, doc docevent.ID, now time.Time) error {
	if err := c.Storage.ReadContext(ctx, user, doc, now); err != nil {
		return err
	}
	c.invalidate(ctx, user)
	return nil
}

func (c *CachedStorage) DeleteByMessages(ctx context.Context, user docevent.UserID, messages []docevent.ID) error {
	if err := c.Storage.DeleteByMessages(ctx, user, messages); err != nil {
		return err
	}
	c.invalidate(ctx, user)
	return nil
}

// invalidate drops the user's counter. Best effort: a failed delete
// only extends staleness until the TTL expires.
func (c *CachedStorage) invalidate(ctx context.Context, user docevent.UserID) {
	c.rdb.Del(ctx, unreadKey(user))
}

func unreadKey(user docevent.UserID) string {
	return fmt.Sprintf("%s%s", unreadKeyPrefix, user)
}
