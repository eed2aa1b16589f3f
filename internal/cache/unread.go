package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// UnreadCache is a read-through Redis cache for per-user unread counts.
// The count is recomputed by the store on a miss; mutations invalidate.
// A nil receiver (Redis disabled) degrades to a permanent miss.
type UnreadCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewUnreadCache(rdb *redis.Client, ttl time.Duration) *UnreadCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &UnreadCache{rdb: rdb, ttl: ttl}
}

func key(userID int) string {
	return fmt.Sprintf("notifications:unread:%d", userID)
}

// Get returns the cached count and whether it was present.
func (c *UnreadCache) Get(ctx context.Context, userID int) (int, bool) {
	if c == nil || c.rdb == nil {
		return 0, false
	}
	count, err := c.rdb.Get(ctx, key(userID)).Int()
	if err != nil {
		return 0, false
	}
	return count, true
}

// Set stores the count with the cache TTL.
func (c *UnreadCache) Set(ctx context.Context, userID int, count int) {
	if c == nil || c.rdb == nil {
		return
	}
	c.rdb.Set(ctx, key(userID), count, c.ttl)
}

// Invalidate drops the user's cached count.
func (c *UnreadCache) Invalidate(ctx context.Context, userID int) {
	if c == nil || c.rdb == nil {
		return
	}
	c.rdb.Del(ctx, key(userID))
}
