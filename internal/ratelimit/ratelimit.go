// Package ratelimit throttles callers by key, in process or through Redis.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/robroyhobbs/burgerprice/pkg/redis"
)

// Limiter decides whether one more attempt for key is allowed now.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Memory keeps one token bucket per key. Buckets idle longer than idleTTL
// are dropped by Sweep, and the oldest bucket is evicted when maxKeys is
// reached.
type Memory struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	every   rate.Limit
	idleTTL time.Duration
	maxKeys int
	now     func() time.Time
}

// NewMemory allows one attempt per key per window.
func NewMemory(window, idleTTL time.Duration, maxKeys int) *Memory {
	if maxKeys <= 0 {
		maxKeys = 10000
	}
	return &Memory{
		buckets: make(map[string]*bucket),
		every:   rate.Every(window),
		idleTTL: idleTTL,
		maxKeys: maxKeys,
		now:     time.Now,
	}
}

// Allow consumes one token for key.
func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	b, ok := m.buckets[key]
	if !ok {
		if len(m.buckets) >= m.maxKeys {
			m.sweepLocked(now)
		}
		if len(m.buckets) >= m.maxKeys {
			m.evictOldestLocked()
		}
		b = &bucket{limiter: rate.NewLimiter(m.every, 1)}
		m.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1), nil
}

// Sweep drops idle buckets and returns how many were removed.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(m.now())
}

// Len returns the number of tracked keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}

func (m *Memory) sweepLocked(now time.Time) int {
	if m.idleTTL <= 0 {
		return 0
	}
	removed := 0
	for k, b := range m.buckets {
		if now.Sub(b.lastSeen) > m.idleTTL {
			delete(m.buckets, k)
			removed++
		}
	}
	return removed
}

func (m *Memory) evictOldestLocked() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for k, b := range m.buckets {
		if oldestKey == "" || b.lastSeen.Before(oldest) {
			oldestKey, oldest = k, b.lastSeen
		}
	}
	delete(m.buckets, oldestKey)
}

// Redis shares the limit across processes with a sliding window.
type Redis struct {
	limiter *redis.RateLimiter
	window  time.Duration
}

// NewRedis allows one subscribe attempt per key per window.
func NewRedis(limiter *redis.RateLimiter, window time.Duration) *Redis {
	return &Redis{limiter: limiter, window: window}
}

// Allow records one attempt for key.
func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	allowed, _, err := r.limiter.Allow(ctx, redis.SubscribeRateLimit(key, r.window))
	return allowed, err
}

// Throttle blocks until the shared generative-service quota has room.
// It satisfies httputil.Waiter.
type Throttle struct {
	limiter *redis.RateLimiter
	cfg     redis.RateLimitConfig
}

// NewGenerativeThrottle paces generative calls across every process to rps
// calls per second. rps must be positive.
func NewGenerativeThrottle(limiter *redis.RateLimiter, rps float64) *Throttle {
	return &Throttle{limiter: limiter, cfg: redis.GenerativeRateLimit(rps)}
}

// Wait blocks until a slot is available or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx, t.cfg)
}
