package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/evyataryagoni/iptracker/internal/geo"
	"github.com/evyataryagoni/iptracker/internal/logger"
	"github.com/evyataryagoni/iptracker/internal/metrics"
	"github.com/evyataryagoni/iptracker/internal/models"
	"github.com/evyataryagoni/iptracker/internal/store"
	"github.com/evyataryagoni/iptracker/internal/tracker"
	"github.com/go-playground/validator/v10"
)

// kindAPI labels lookups made through the JSON API
const kindAPI = "api"

// TrackerService handles the business logic of the tracker page
// This is the service layer - it sits between handlers and the trackers
//
// Responsibilities:
//   - Find (or rebuild) the tracker of a browser session
//   - Run page loads and form submissions against it
//   - Persist the resulting state to the snapshot store
//   - Stateless lookups for the JSON API
type TrackerService struct {
	client    geo.Lookuper
	sessions  *tracker.Registry
	store     store.Store
	validator *validator.Validate
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

// NewTrackerService creates a new tracker service
//
// Parameters:
//   - client: the geolocation provider
//   - sessions: live trackers of this process
//   - st: snapshot store used to rehydrate sessions
//   - m: metrics collector (optional, can be nil)
//   - log: logger (optional, can be nil)
func NewTrackerService(client geo.Lookuper, sessions *tracker.Registry, st store.Store, m *metrics.Metrics, log *logger.Logger) *TrackerService {
	if log == nil {
		log = logger.NewDefault()
	}
	return &TrackerService{
		client:    client,
		sessions:  sessions,
		store:     st,
		validator: validator.New(),
		metrics:   m,
		logger:    log.WithComponent("TrackerService"),
	}
}

// Load handles a page load: the session starts over with a self-lookup
// A reload therefore behaves like opening the page for the first time
func (s *TrackerService) Load(ctx context.Context, sessionID, caller string) (tracker.State, error) {
	s.reset(ctx, sessionID)

	t := tracker.New(s.client, tracker.State{}, s.metrics, s.logger)
	s.sessions.Put(sessionID, t)
	s.updateActiveSessions()

	err := t.Start(ctx, caller)
	return s.finish(ctx, sessionID, t, err)
}

// Submit handles a query entered in the search form
//
// Flow:
//  1. Find the session tracker (live, then snapshot, then a fresh self-looked-up one)
//  2. Submit the query to it
//  3. Persist the new state
//
// A lookup failure is returned together with the state, which already
// carries the user-facing message.
func (s *TrackerService) Submit(ctx context.Context, sessionID, caller, query string) (tracker.State, error) {
	s.checkQuery(query)

	t := s.session(ctx, sessionID, caller)
	_, err := t.Submit(ctx, query)
	return s.finish(ctx, sessionID, t, err)
}

// Lookup resolves a query without touching any session
// An empty query looks up the address the provider sees
func (s *TrackerService) Lookup(ctx context.Context, query string) (*models.LookupResult, error) {
	s.checkQuery(query)

	result, err := s.client.Lookup(ctx, query)
	if err != nil {
		s.countLookup("failed")
		return nil, err
	}

	s.logger.Info().
		Str("query", query).
		Str("ip", result.IP).
		Str("region", result.Location.Region).
		Msg("API lookup successful")
	s.countLookup("success")
	return result, nil
}

// Sweep forgets idle sessions and returns how many are still live
// Stores that keep expired snapshots around are purged as well
func (s *TrackerService) Sweep(ctx context.Context) (int, error) {
	n := s.sessions.Sweep()
	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(n))
	}

	p, ok := s.store.(store.Purger)
	if !ok {
		return n, nil
	}

	purged, err := p.PurgeExpired(ctx)
	if err != nil {
		s.countStoreOp("purge", "error")
		return n, fmt.Errorf("purge expired sessions: %w", err)
	}
	s.countStoreOp("purge", "success")
	if purged > 0 {
		s.logger.Debug().Int64("purged", purged).Msg("Purged expired sessions")
	}
	return n, nil
}

// Close cleans up resources
// This will close the underlying snapshot store (database connections, etc.)
func (s *TrackerService) Close() error {
	return s.store.Close()
}

// session returns the tracker of a session, rebuilding it when this process has none
func (s *TrackerService) session(ctx context.Context, sessionID, caller string) *tracker.Tracker {
	if t, ok := s.sessions.Get(sessionID); ok {
		return t
	}

	log := s.logger.WithSession(sessionID)

	saved, err := s.store.Load(ctx, sessionID)
	switch {
	case err == nil:
		s.countStoreOp("load", "success")
		t, _ := s.sessions.GetOrPut(sessionID, func() *tracker.Tracker {
			return tracker.New(s.client, *saved, s.metrics, s.logger)
		})
		s.updateActiveSessions()
		log.Debug().Uint64("seq", saved.Seq).Msg("Session rehydrated from store")
		return t

	case errors.Is(err, store.ErrSessionNotFound):
		s.countStoreOp("load", "miss")

	default:
		s.countStoreOp("load", "error")
		log.Warn().Err(err).Msg("Failed to load session, starting over")
	}

	t, existed := s.sessions.GetOrPut(sessionID, func() *tracker.Tracker {
		return tracker.New(s.client, tracker.State{}, s.metrics, s.logger)
	})
	s.updateActiveSessions()
	if !existed {
		// the page was never rendered for this session
		if err := t.Start(ctx, caller); err != nil {
			log.Warn().Err(err).Msg("Self-lookup failed for rebuilt session")
		}
	}
	return t
}

// reset forgets the live tracker and the saved snapshot of a session
func (s *TrackerService) reset(ctx context.Context, sessionID string) {
	s.sessions.Delete(sessionID)

	if err := s.store.Delete(ctx, sessionID); err != nil {
		s.countStoreOp("delete", "error")
		s.logger.WithSession(sessionID).Warn().Err(err).Msg("Failed to delete session")
		return
	}
	s.countStoreOp("delete", "success")
}

// finish persists the state once a lookup completed and picks what to return
// Stale lookups and trackers replaced by a newer page load are not persisted
func (s *TrackerService) finish(ctx context.Context, sessionID string, t *tracker.Tracker, lookupErr error) (tracker.State, error) {
	state := t.State()

	if errors.Is(lookupErr, tracker.ErrStale) {
		return state, nil
	}

	if current, ok := s.sessions.Get(sessionID); ok && current == t {
		s.save(ctx, sessionID, state)
	}

	return state, lookupErr
}

func (s *TrackerService) save(ctx context.Context, sessionID string, state tracker.State) {
	if err := s.store.Save(ctx, sessionID, state); err != nil {
		s.countStoreOp("save", "error")
		s.logger.WithSession(sessionID).Error().Err(err).Msg("Failed to save session")
		return
	}
	s.countStoreOp("save", "success")
}

// checkQuery warns about queries that are not dotted-quad IPv4 addresses
// They are still sent: the provider also resolves domains and IPv6
func (s *TrackerService) checkQuery(query string) {
	if query == "" {
		return
	}
	if err := s.validator.Var(query, "ipv4"); err != nil {
		s.logger.Warn().Str("query", query).Msg("Query is not an IPv4 address")
	}
}

func (s *TrackerService) countLookup(result string) {
	if s.metrics != nil {
		s.metrics.LookupsTotal.WithLabelValues(kindAPI, result).Inc()
	}
}

func (s *TrackerService) countStoreOp(operation, status string) {
	if s.metrics != nil {
		s.metrics.SessionStoreOpsTotal.WithLabelValues(operation, status).Inc()
	}
}

func (s *TrackerService) updateActiveSessions() {
	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(s.sessions.Len()))
	}
}
