package store

import (
	"context"
	"sync"

	"github.com/evyataryagoni/iptracker/internal/tracker"
)

// MockStore is a test double for the Store interface
// It allows tests to control behavior and verify interactions
type MockStore struct {
	mu sync.Mutex

	// Data holds the saved states (session ID -> state)
	Data map[string]tracker.State

	// Track method calls for verification in tests
	LoadCalls   []string
	SaveCalls   []string
	DeleteCalls []string
	PurgeCalls  int
	CloseCalled bool

	// Control behavior for error scenarios
	LoadError   error
	SaveError   error
	DeleteError error
	PurgeError  error
}

// NewMockStore creates an empty mock store
func NewMockStore() *MockStore {
	return &MockStore{
		Data: map[string]tracker.State{},
	}
}

// Load implements the Store interface
func (m *MockStore) Load(_ context.Context, sessionID string) (*tracker.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LoadCalls = append(m.LoadCalls, sessionID)
	if m.LoadError != nil {
		return nil, m.LoadError
	}

	state, ok := m.Data[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &state, nil
}

// Save implements the Store interface
func (m *MockStore) Save(_ context.Context, sessionID string, state tracker.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveCalls = append(m.SaveCalls, sessionID)
	if m.SaveError != nil {
		return m.SaveError
	}
	m.Data[sessionID] = state
	return nil
}

// Delete implements the Store interface
func (m *MockStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls = append(m.DeleteCalls, sessionID)
	if m.DeleteError != nil {
		return m.DeleteError
	}
	delete(m.Data, sessionID)
	return nil
}

// PurgeExpired implements the Purger interface
// The mock has no expiry, so nothing is ever purged
func (m *MockStore) PurgeExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PurgeCalls++
	if m.PurgeError != nil {
		return 0, m.PurgeError
	}
	return 0, nil
}

// Close implements the Store interface
func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
	return nil
}

// Saved returns the saved state of a session, if any
func (m *MockStore) Saved(sessionID string) (tracker.State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.Data[sessionID]
	return state, ok
}
