package infra

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"authgate/middleware/gate/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T, opts ...RedisCacheOption) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisCache(RedisConfig{Addr: mr.Addr()}, opts...)
	require.NoError(t, err)
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisCache_SetGetDeleteWithTTL(t *testing.T) {
	c, mr := newTestRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 1500*time.Millisecond))

	v, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", string(v))

	mr.FastForward(2 * time.Second)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k2", []byte("v"), 0))
	require.NoError(t, c.Delete(ctx, "k2"))
	_, ok, _ = c.Get(ctx, "k2")
	assert.False(t, ok)
}

func TestRedisCache_UpdateReturnsRaceLostOnConcurrentWrite(t *testing.T) {
	c, mr := newTestRedisCache(t)
	ctx := context.Background()

	other := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = other.Close() }()

	require.NoError(t, c.Set(ctx, "k", []byte("1"), 0))

	err := c.Update(ctx, "k", time.Minute, func(cur []byte, found bool) ([]byte, bool, error) {
		require.True(t, found)
		require.NoError(t, other.Set(ctx, "k", "other", 0).Err())
		return []byte("2"), true, nil
	})
	require.ErrorIs(t, err, domain.ErrRaceLost)

	v, _, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "other", string(v))
}

func TestRedisCache_UpdateWritesWithTTL(t *testing.T) {
	c, mr := newTestRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Update(ctx, "k", 10*time.Second, func(cur []byte, found bool) ([]byte, bool, error) {
		assert.False(t, found)
		return []byte("1"), true, nil
	}))

	assert.Equal(t, 10*time.Second, mr.TTL("k"))
}

func TestRedisCache_ClearExceptKeepsRateLimits(t *testing.T) {
	c, mr := newTestRedisCache(t, WithScanCount(2), WithClearRate(0, 0))
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		require.NoError(t, mr.Set("fullusers:"+strconv.Itoa(i), "x"))
	}
	require.NoError(t, mr.Set("ratelimits:u1:GET:/x", "{}"))

	cleared, err := c.ClearExcept(ctx, "ratelimits")
	require.NoError(t, err)
	assert.Len(t, cleared, 7)
	assert.Equal(t, []string{"ratelimits:u1:GET:/x"}, mr.Keys())
}

func TestRedisCache_ClearExceptConcurrentWithIncrements(t *testing.T) {
	c, mr := newTestRedisCache(t)
	ctx := context.Background()
	key := "ratelimits:u1:PUT:/friends/{id}/block"

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = mr.Set("other:"+strconv.Itoa(i), "x")
			_, err := c.ClearExcept(ctx, domain.RateLimitNamespace)
			assert.NoError(t, err)
		}(i)
		go func() {
			defer wg.Done()
			err := c.Update(ctx, key, time.Minute, func(cur []byte, found bool) ([]byte, bool, error) {
				return []byte("n"), true, nil
			})
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrRaceLost)
			}
		}()
	}
	wg.Wait()

	assert.True(t, mr.Exists(key))
}

func TestRedisCache_ConnectFailureIsConnectionError(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	c, err := NewRedisCache(RedisConfig{Addr: addr}, WithPingTimeout(200*time.Millisecond))
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	err = c.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsConnectionError(err))
}

func TestNewRedisCache_RequiresAddr(t *testing.T) {
	_, err := NewRedisCache(RedisConfig{})
	require.Error(t, err)
}
