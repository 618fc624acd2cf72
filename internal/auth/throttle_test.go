package auth

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisThrottle(t *testing.T, maxFailures int, window time.Duration) (LoginThrottle, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisThrottle(client, maxFailures, window), mr
}

func TestThrottle_BlocksAfterMaxAttempts(t *testing.T) {
	redisThrottle, _ := newRedisThrottle(t, 3, time.Minute)
	for name, throttle := range map[string]LoginThrottle{
		"memory": NewMemoryThrottle(3, time.Minute),
		"redis":  redisThrottle,
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := ThrottleKey("user", "A@x.com ")

			for i := 0; i < 3; i++ {
				allowed, err := throttle.Reserve(ctx, key)
				require.NoError(t, err)
				assert.True(t, allowed, "attempt %d", i+1)
			}

			allowed, err := throttle.Reserve(ctx, key)
			require.NoError(t, err)
			assert.False(t, allowed)

			other, err := throttle.Reserve(ctx, ThrottleKey("user", "b@x.com"))
			require.NoError(t, err)
			assert.True(t, other, "keys are independent")

			require.NoError(t, throttle.Reset(ctx, key))
			allowed, err = throttle.Reserve(ctx, key)
			require.NoError(t, err)
			assert.True(t, allowed)
		})
	}
}

func TestThrottle_ConcurrentAttemptsCannotExceedLimit(t *testing.T) {
	redisThrottle, _ := newRedisThrottle(t, 3, time.Minute)
	for name, throttle := range map[string]LoginThrottle{
		"memory": NewMemoryThrottle(3, time.Minute),
		"redis":  redisThrottle,
	} {
		t.Run(name, func(t *testing.T) {
			var allowed atomic.Int32
			var wg sync.WaitGroup
			for i := 0; i < 40; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					ok, err := throttle.Reserve(context.Background(), "user:a@x.com")
					assert.NoError(t, err)
					if ok {
						allowed.Add(1)
					}
				}()
			}
			wg.Wait()
			assert.Equal(t, int32(3), allowed.Load())
		})
	}
}

func TestMemoryThrottle_WindowExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	throttle := NewMemoryThrottle(1, time.Minute).(*memoryThrottle)
	throttle.now = func() time.Time { return now }

	allowed, _ := throttle.Reserve(ctx, "k")
	assert.True(t, allowed)
	allowed, _ = throttle.Reserve(ctx, "k")
	assert.False(t, allowed)

	now = now.Add(time.Minute)
	allowed, _ = throttle.Reserve(ctx, "k")
	assert.True(t, allowed)
}

func TestMemoryThrottle_SweepsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	throttle := NewMemoryThrottle(3, 15*time.Minute).(*memoryThrottle)
	throttle.now = func() time.Time { return now }

	for i := 0; i < 5000; i++ {
		_, err := throttle.Reserve(ctx, fmt.Sprintf("user:%d@x.com", i))
		require.NoError(t, err)
	}

	now = now.Add(time.Hour)
	_, err := throttle.Reserve(ctx, "user:late@x.com")
	require.NoError(t, err)

	throttle.mu.Lock()
	defer throttle.mu.Unlock()
	assert.Len(t, throttle.attempts, 1)
}

func TestRedisThrottle_WindowExpires(t *testing.T) {
	ctx := context.Background()
	throttle, mr := newRedisThrottle(t, 1, time.Minute)

	allowed, err := throttle.Reserve(ctx, "k")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, time.Minute, mr.TTL(throttleKeyPrefix+"k"))

	allowed, err = throttle.Reserve(ctx, "k")
	require.NoError(t, err)
	assert.False(t, allowed)

	mr.FastForward(time.Minute)
	assert.False(t, mr.Exists(throttleKeyPrefix+"k"))
	allowed, err = throttle.Reserve(ctx, "k")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisThrottle_ResetDeletesCounter(t *testing.T) {
	ctx := context.Background()
	throttle, mr := newRedisThrottle(t, 2, time.Minute)

	_, err := throttle.Reserve(ctx, "k")
	require.NoError(t, err)
	require.True(t, mr.Exists(throttleKeyPrefix+"k"))

	require.NoError(t, throttle.Reset(ctx, "k"))
	assert.False(t, mr.Exists(throttleKeyPrefix+"k"))
	require.NoError(t, throttle.Reset(ctx, "missing"))
}

func TestRedisThrottle_UnavailableServer(t *testing.T) {
	ctx := context.Background()
	throttle, mr := newRedisThrottle(t, 2, time.Minute)
	mr.Close()

	_, err := throttle.Reserve(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, throttle.Reset(ctx, "k"))
}

func TestThrottle_DisabledWhenMaxIsZero(t *testing.T) {
	ctx := context.Background()
	for _, throttle := range []LoginThrottle{NewMemoryThrottle(0, time.Minute), NewRedisThrottle(nil, 0, time.Minute)} {
		for i := 0; i < 10; i++ {
			allowed, err := throttle.Reserve(ctx, "k")
			require.NoError(t, err)
			assert.True(t, allowed)
		}
		require.NoError(t, throttle.Reset(ctx, "k"))
	}
}

func TestThrottleKey(t *testing.T) {
	assert.Equal(t, "admin:ops", ThrottleKey("admin", "  OPS "))
}
