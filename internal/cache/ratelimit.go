package cache

import (
	"context"
	"sync"
	"time"
)

// RateLimiter counts attempts per key in a fixed window. It uses redis
// when available so the count is shared between instances, and an
// in-process map otherwise.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	count   int
	resetAt time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Allow records an attempt for key and reports whether it is within the limit
func (l *RateLimiter) Allow(ctx context.Context, key string) bool {
	if l.limit <= 0 {
		return true
	}
	if client != nil {
		if n, err := l.incrRedis(ctx, key); err == nil {
			return n <= int64(l.limit)
		}
	}
	return l.incrLocal(key) <= l.limit
}

// Reset forgets the attempts of key, used after a successful login
func (l *RateLimiter) Reset(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, "ratelimit:"+key)
	}
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
}

func (l *RateLimiter) incrRedis(ctx context.Context, key string) (int64, error) {
	k := "ratelimit:" + key
	n, err := client.Incr(ctx, k).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		client.Expire(ctx, k, l.window)
	}
	return n, nil
}

func (l *RateLimiter) incrLocal(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok || now.After(b.resetAt) {
		b = &bucket{resetAt: now.Add(l.window)}
		l.buckets[key] = b
	}
	b.count++
	return b.count
}
