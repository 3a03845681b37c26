package limiter

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// windowScript increments the counter of the current window and sets its
// expiry (milliseconds) on first use, atomically
var windowScript = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return current
`)

// RedisLimiter implements a fixed-window limiter shared by every server instance
// Key format: ratelimit:{client}:{window number}, windows counted in milliseconds
type RedisLimiter struct {
	client *redis.Client
	window time.Duration
	limit  int64
	now    func() time.Time
}

// NewRedisLimiter creates a Redis-backed limiter
//
// Parameters:
//   - addr, password, db: Redis connection settings
//   - lookupsPerSecond: allowed lookups per second per client (fractions allowed)
//
// Returns:
//   - *RedisLimiter: new limiter
//   - error: connection failure
func NewRedisLimiter(addr, password string, db int, lookupsPerSecond float64) (*RedisLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis for rate limiting: %w", err)
	}

	// Fractional rates get a longer window: 0.2/s becomes 1 per 5 seconds
	window := time.Second
	if lookupsPerSecond < 1 {
		window = time.Duration(float64(time.Second) / lookupsPerSecond).Round(time.Millisecond)
	}

	// the epsilon keeps 2/3 per 1.5s at 1 instead of rounding float noise up
	limit := int64(math.Ceil(lookupsPerSecond*window.Seconds() - 1e-9))
	if limit < 1 {
		limit = 1
	}

	return &RedisLimiter{
		client: client,
		window: window,
		limit:  limit,
		now:    time.Now,
	}, nil
}

// Allow implements the Limiter interface
// Redis errors fail open so an unavailable Redis never blocks the page
func (l *RedisLimiter) Allow(ctx context.Context, client string) bool {
	windowMs := l.window.Milliseconds()
	if windowMs < 1 {
		windowMs = 1
	}
	key := fmt.Sprintf("ratelimit:%s:%d", client, l.now().UnixMilli()/windowMs)

	count, err := windowScript.Run(ctx, l.client, []string{key}, windowMs*2).Int64()
	if err != nil {
		return true
	}

	return count <= l.limit
}

// Close closes the Redis connection
func (l *RedisLimiter) Close() error {
	if l.client != nil {
		return l.client.Close()
	}
	return nil
}
