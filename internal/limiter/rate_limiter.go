package limiter

import (
	"context"
	"math"
	"sync"
	"time"
)

// Limiter decides whether a client may trigger another lookup
// Each lookup costs one call to the geolocation provider, whose quota is
// tied to the configured API key.
type Limiter interface {
	// Allow reports whether a request from client may proceed
	Allow(ctx context.Context, client string) bool

	// Close releases any resources (Redis connections, etc.)
	Close() error
}

// bucket is a token bucket for one client
// Tokens refill continuously at rate per second up to capacity
type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// MemoryLimiter keeps one token bucket per client in process memory
// Suitable for single-server deployments
type MemoryLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	rate     float64 // tokens added per second
	capacity float64 // burst size, at least 1
	idle     time.Duration
	lastGC   time.Time
	now      func() time.Time
}

// NewMemoryLimiter creates an in-memory limiter
//
// Parameters:
//   - lookupsPerSecond: allowed lookups per second per client (fractions allowed, e.g. 0.2)
//
// Returns:
//   - *MemoryLimiter: new in-memory limiter
func NewMemoryLimiter(lookupsPerSecond float64) *MemoryLimiter {
	return &MemoryLimiter{
		buckets:  make(map[string]*bucket),
		rate:     lookupsPerSecond,
		capacity: math.Max(lookupsPerSecond, 1),
		idle:     5 * time.Minute,
		lastGC:   time.Now(),
		now:      time.Now,
	}
}

// Allow implements the Limiter interface
func (l *MemoryLimiter) Allow(_ context.Context, client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.collect(now)

	b, ok := l.buckets[client]
	if !ok {
		// a new client starts with a full bucket
		b = &bucket{tokens: l.capacity, lastSeen: now}
		l.buckets[client] = b
	}

	elapsed := now.Sub(b.lastSeen).Seconds()
	b.tokens = math.Min(b.tokens+elapsed*l.rate, l.capacity)
	b.lastSeen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// collect drops buckets of clients idle for longer than l.idle
// Runs at most once per idle period; must be called with l.mu held
func (l *MemoryLimiter) collect(now time.Time) {
	if now.Sub(l.lastGC) < l.idle {
		return
	}
	for client, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idle {
			delete(l.buckets, client)
		}
	}
	l.lastGC = now
}

// Close implements the Limiter interface; nothing to release in memory
func (l *MemoryLimiter) Close() error {
	return nil
}
