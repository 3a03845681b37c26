package store

import (
	"context"
	"errors"

	"github.com/evyataryagoni/iptracker/internal/tracker"
)

// ErrSessionNotFound is returned when a session has no saved state (or it expired)
var ErrSessionNotFound = errors.New("session not found")

// Store persists the latest tracker state of each browser session
// Allows multiple implementations (memory, Redis, MySQL) and easy testing with mocks
type Store interface {
	// Load returns the saved state of a session
	Load(ctx context.Context, sessionID string) (*tracker.State, error)

	// Save replaces the saved state of a session
	Save(ctx context.Context, sessionID string, state tracker.State) error

	// Delete forgets a session
	Delete(ctx context.Context, sessionID string) error

	// Close cleans up resources (database connections, etc.)
	Close() error
}

// Purger is implemented by stores that need expired sessions removed explicitly
// Redis expires keys by itself and does not implement it
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}
