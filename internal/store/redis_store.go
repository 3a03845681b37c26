package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/evyataryagoni/iptracker/internal/tracker"
	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store using Redis
// Sessions survive restarts and are shared by every server instance
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a new Redis store
//
// Parameters:
//   - addr: Redis server address (e.g., "localhost:6379")
//   - password: Redis password (empty string if no password)
//   - db: Redis database number (0-15, default is 0)
//   - ttl: expiry of a saved session (0 = no expiry)
//
// Returns:
//   - *RedisStore: pointer to the created store
//   - error: any error that occurred during connection
func NewRedisStore(addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client: client,
		ttl:    ttl,
	}, nil
}

// sessionKey builds the Redis key of a session
// Key Format: session:<id>
func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// Load implements the Store interface
// Value: JSON-encoded tracker.State
func (s *RedisStore) Load(ctx context.Context, sessionID string) (*tracker.State, error) {
	val, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("Redis query failed: %w", err)
	}

	var state tracker.State
	if err := json.Unmarshal(val, &state); err != nil {
		return nil, fmt.Errorf("failed to decode session state: %w", err)
	}

	return &state, nil
}

// Save implements the Store interface; every save refreshes the expiry
func (s *RedisStore) Save(ctx context.Context, sessionID string, state tracker.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session state: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store in Redis: %w", err)
	}

	return nil
}

// Delete implements the Store interface
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete from Redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
