package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	throttleKeyPrefix = "auth:login_attempts:"

	// memory entries are swept once the map reaches this size, at most once per window.
	throttleSweepThreshold = 1000
)

// LoginThrottle counts login attempts per login key. Keys are taken from the
// submitted identifier, so throttling says nothing about whether the account
// exists.
type LoginThrottle interface {
	// Reserve atomically counts one attempt for key and reports whether it may
	// proceed. The attempt is counted before the credentials are checked.
	Reserve(ctx context.Context, key string) (bool, error)
	// Reset clears the counter after a successful login.
	Reset(ctx context.Context, key string) error
}

// ThrottleKey normalizes a login identifier for throttling.
func ThrottleKey(kind, identifier string) string {
	return kind + ":" + strings.ToLower(strings.TrimSpace(identifier))
}

type noopThrottle struct{}

// NewNoopThrottle returns a throttle that never blocks.
func NewNoopThrottle() LoginThrottle { return noopThrottle{} }

func (noopThrottle) Reserve(context.Context, string) (bool, error) { return true, nil }
func (noopThrottle) Reset(context.Context, string) error           { return nil }

type redisThrottle struct {
	client *redis.Client
	max    int64
	window time.Duration
}

// NewRedisThrottle stores attempt counters in Redis. Every attempt pushes the
// expiry out to a full window.
func NewRedisThrottle(client *redis.Client, maxFailures int, window time.Duration) LoginThrottle {
	if maxFailures <= 0 {
		return NewNoopThrottle()
	}
	return &redisThrottle{client: client, max: int64(maxFailures), window: window}
}

func (t *redisThrottle) Reserve(ctx context.Context, key string) (bool, error) {
	pipe := t.client.TxPipeline()
	incr := pipe.Incr(ctx, throttleKeyPrefix+key)
	pipe.Expire(ctx, throttleKeyPrefix+key, t.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("reserve login attempt: %w", err)
	}
	return incr.Val() <= t.max, nil
}

func (t *redisThrottle) Reset(ctx context.Context, key string) error {
	if err := t.client.Del(ctx, throttleKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("reset login attempts: %w", err)
	}
	return nil
}

type attemptWindow struct {
	count     int
	expiresAt time.Time
}

type memoryThrottle struct {
	mu        sync.Mutex
	max       int
	window    time.Duration
	now       func() time.Time
	attempts  map[string]attemptWindow
	lastSweep time.Time
}

// NewMemoryThrottle keeps attempt counters in process, for single-instance
// deployments without Redis.
func NewMemoryThrottle(maxFailures int, window time.Duration) LoginThrottle {
	if maxFailures <= 0 {
		return NewNoopThrottle()
	}
	return &memoryThrottle{
		max:      maxFailures,
		window:   window,
		now:      time.Now,
		attempts: make(map[string]attemptWindow),
	}
}

func (t *memoryThrottle) Reserve(_ context.Context, key string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	entry, ok := t.attempts[key]
	if !ok || !now.Before(entry.expiresAt) {
		entry = attemptWindow{}
	}
	entry.count++
	entry.expiresAt = now.Add(t.window)
	t.attempts[key] = entry
	t.gcLocked(now)
	return entry.count <= t.max, nil
}

func (t *memoryThrottle) Reset(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.attempts, key)
	return nil
}

func (t *memoryThrottle) gcLocked(now time.Time) {
	if len(t.attempts) < throttleSweepThreshold || now.Sub(t.lastSweep) < t.window {
		return
	}
	t.lastSweep = now
	for key, entry := range t.attempts {
		if !now.Before(entry.expiresAt) {
			delete(t.attempts, key)
		}
	}
}
