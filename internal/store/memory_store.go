package store

import (
	"context"
	"sync"
	"time"

	"github.com/evyataryagoni/iptracker/internal/tracker"
)

// MemoryStore keeps session states in a map
// Good for single-server deployments; everything is lost on restart
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

type memoryEntry struct {
	state     tracker.State
	expiresAt time.Time
}

// NewMemoryStore creates an in-memory store; ttl <= 0 keeps sessions forever
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Load implements the Store interface
func (s *MemoryStore) Load(_ context.Context, sessionID string) (*tracker.State, error) {
	s.mu.RLock()
	e, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok || s.expired(e) {
		return nil, ErrSessionNotFound
	}

	state := e.state
	return &state, nil
}

// Save implements the Store interface
// Expired entries are purged on write so the map does not grow forever
func (s *MemoryStore) Save(_ context.Context, sessionID string, state tracker.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeLocked()

	e := memoryEntry{state: state}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.sessions[sessionID] = e
	return nil
}

// Delete implements the Store interface
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// PurgeExpired implements the Purger interface
func (s *MemoryStore) PurgeExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purgeLocked(), nil
}

func (s *MemoryStore) purgeLocked() int64 {
	var n int64
	for id, e := range s.sessions {
		if s.expired(e) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Close implements the Store interface; there is nothing to release
func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && s.now().After(e.expiresAt)
}
