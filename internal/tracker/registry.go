package tracker

import (
	"sync"
	"time"
)

// Registry keeps the live trackers of this process, keyed by session ID
// Requests of the same session share one Tracker and therefore its sequencing
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	now     func() time.Time
}

type entry struct {
	tracker  *Tracker
	lastSeen time.Time
}

// NewRegistry creates a registry that forgets sessions idle for longer than ttl
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the live tracker of a session and marks it as used
func (r *Registry) Get(sessionID string) (*Tracker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[sessionID]
	if !ok {
		return nil, false
	}
	if r.expired(e) {
		delete(r.entries, sessionID)
		return nil, false
	}
	e.lastSeen = r.now()
	return e.tracker, true
}

// Put stores (or replaces) the tracker of a session
func (r *Registry) Put(sessionID string, t *Tracker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[sessionID] = &entry{tracker: t, lastSeen: r.now()}
}

// GetOrPut returns the existing live tracker or stores the one built by create
// create runs under the registry lock and must not block
func (r *Registry) GetOrPut(sessionID string, create func() *Tracker) (*Tracker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[sessionID]; ok && !r.expired(e) {
		e.lastSeen = r.now()
		return e.tracker, true
	}

	t := create()
	r.entries[sessionID] = &entry{tracker: t, lastSeen: r.now()}
	return t, false
}

// Delete forgets a session
func (r *Registry) Delete(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, sessionID)
}

// Sweep drops expired sessions and returns how many are left
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, e := range r.entries {
		if r.expired(e) {
			delete(r.entries, id)
		}
	}
	return len(r.entries)
}

// Len returns the number of sessions currently held
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) expired(e *entry) bool {
	return r.ttl > 0 && r.now().Sub(e.lastSeen) > r.ttl
}
