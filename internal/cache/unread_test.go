package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCache(t *testing.T) *UnreadCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewUnreadCache(client, time.Minute)
}

func TestUnreadCacheSetGet(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	_, ok := c.Get(ctx, 1)
	require.False(t, ok)

	c.Set(ctx, 1, 7)
	count, ok := c.Get(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, 7, count)
}

func TestUnreadCacheInvalidate(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	c.Set(ctx, 1, 7)
	c.Invalidate(ctx, 1)

	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)
}

func TestUnreadCacheKeysAreScopedPerUser(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	c.Set(ctx, 1, 3)
	c.Set(ctx, 2, 9)
	c.Invalidate(ctx, 1)

	count, ok := c.Get(ctx, 2)
	require.True(t, ok)
	assert.Equal(t, 9, count)
}

func TestUnreadCacheDisabled(t *testing.T) {
	ctx := context.Background()
	var c *UnreadCache

	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)
	c.Set(ctx, 1, 5)
	c.Invalidate(ctx, 1)

	c = NewUnreadCache(nil, 0)
	c.Set(ctx, 1, 5)
	_, ok = c.Get(ctx, 1)
	assert.False(t, ok)
}
