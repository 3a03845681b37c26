package store

import (
	"fmt"
	"strings"
	"time"
)

// Config holds configuration for creating a session store
type Config struct {
	Type string        // "memory", "redis" or "mysql"
	TTL  time.Duration // how long a saved session lives

	// MySQL-specific config
	MySQLDSN string

	// Redis-specific config
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// New creates a session store based on the configuration (factory pattern)
func New(cfg Config) (Store, error) {
	storeType := strings.ToLower(strings.TrimSpace(cfg.Type))

	switch storeType {
	case "memory", "":
		return NewMemoryStore(cfg.TTL), nil

	case "redis":
		s, err := NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.TTL)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis session store: %w", err)
		}
		return s, nil

	case "mysql":
		s, err := NewMySQLStore(cfg.MySQLDSN, cfg.TTL)
		if err != nil {
			return nil, fmt.Errorf("failed to create MySQL session store: %w", err)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown session store type: %s (supported: 'memory', 'redis', 'mysql')", cfg.Type)
	}
}
