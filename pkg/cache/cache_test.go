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

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisCache(client, "sendy:share"), mr
}

func TestRedisCache_SetGet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "abc123XY", []byte(`{"stats":{}}`), time.Minute))

	val, err := c.Get(ctx, "abc123XY")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"stats":{}}`), val)
}

func TestRedisCache_Miss(t *testing.T) {
	c, _ := newTestCache(t)

	_, err := c.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_Delete(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "abc123XY", []byte("data"), time.Minute))
	require.NoError(t, c.Delete(ctx, "abc123XY"))

	_, err := c.Get(ctx, "abc123XY")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_TTLExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "abc123XY", []byte("data"), time.Minute))

	mr.FastForward(2 * time.Minute)

	_, err := c.Get(ctx, "abc123XY")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_KeysArePrefixed(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "abc123XY", []byte("data"), time.Minute))
	assert.True(t, mr.Exists("sendy:share:abc123XY"))
}
