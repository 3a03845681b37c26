package tracker

import (
	"context"
	"errors"
	"net/netip"
	"sync"

	"github.com/evyataryagoni/iptracker/internal/geo"
	"github.com/evyataryagoni/iptracker/internal/logger"
	"github.com/evyataryagoni/iptracker/internal/metrics"
	"github.com/evyataryagoni/iptracker/internal/models"
)

// Lookup kinds, used as metric labels
const (
	KindSelf     = "self"
	KindTargeted = "targeted"
)

// State is everything the page needs to render
// It holds at most one result: a newer successful lookup replaces it entirely
type State struct {
	Query  string               `json:"query"`
	Result *models.LookupResult `json:"result,omitempty"`
	Error  string               `json:"error,omitempty"`
	Seq    uint64               `json:"seq"` // sequence of the lookup that produced Result/Error
}

// Tracker is the result store of one browser session
//
// Transitions:
//   - success: Result replaced, Error cleared
//   - failure: Error set, Result untouched
//
// Lookups are sequenced: when several are in flight the most recently
// issued one wins and older responses are dropped.
type Tracker struct {
	mu     sync.Mutex
	client geo.Lookuper
	state  State
	issued uint64 // sequence of the most recently issued lookup

	metrics *metrics.Metrics
	logger  *logger.Logger
}

// New creates a tracker, optionally seeded from a saved snapshot
//
// Parameters:
//   - client: the geolocation provider
//   - initial: previous state (zero value for a fresh page)
//   - m: metrics collector (optional, can be nil)
//   - log: logger (optional, can be nil)
func New(client geo.Lookuper, initial State, m *metrics.Metrics, log *logger.Logger) *Tracker {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Tracker{
		client:  client,
		state:   initial,
		issued:  initial.Seq,
		metrics: m,
		logger:  log.WithComponent("Tracker"),
	}
}

// Start runs the automatic lookup done on first render
//
// The provider resolves the address a request comes from, which is the
// server. When the browser's own address is public it is sent explicitly so
// the result still describes the visitor; otherwise the parameter is omitted.
func (t *Tracker) Start(ctx context.Context, caller string) error {
	t.mu.Lock()
	seq := t.next()
	t.mu.Unlock()

	return t.lookup(ctx, KindSelf, SelfQuery(caller), seq)
}

// Submit stores a query entered in the form and looks it up
//
// An empty query is ignored and returns false. The lookup only runs when the
// stored query actually changed; submitting the current value again is a no-op.
func (t *Tracker) Submit(ctx context.Context, query string) (bool, error) {
	if query == "" {
		return false, nil
	}

	// the query and its sequence number change together, so the latest
	// stored query is always the one whose response can win
	t.mu.Lock()
	if t.state.Query == query {
		t.mu.Unlock()
		return true, nil
	}
	t.state.Query = query
	seq := t.next()
	t.mu.Unlock()

	return true, t.lookup(ctx, KindTargeted, query, seq)
}

// State returns a copy of the current state
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// ErrStale is returned when a response lost the race against a newer lookup
var ErrStale = errors.New("lookup superseded by a newer request")

// next issues a sequence number; callers hold t.mu
func (t *Tracker) next() uint64 {
	t.issued++
	return t.issued
}

func (t *Tracker) lookup(ctx context.Context, kind, query string, seq uint64) error {
	result, err := t.client.Lookup(ctx, query)

	t.mu.Lock()
	defer t.mu.Unlock()

	if seq != t.issued {
		t.logger.Debug().
			Str("query", query).
			Uint64("seq", seq).
			Uint64("latest", t.issued).
			Msg("Dropping stale lookup response")
		t.count(kind, "stale")
		return ErrStale
	}

	t.state.Seq = seq
	if err != nil {
		t.state.Error = geo.FailureMessage
		t.count(kind, "failed")
		return err
	}

	t.state.Result = result
	t.state.Error = ""
	t.count(kind, "success")
	return nil
}

func (t *Tracker) count(kind, result string) {
	if t.metrics != nil {
		t.metrics.LookupsTotal.WithLabelValues(kind, result).Inc()
	}
}

// SelfQuery turns the caller's address into the query of a self-lookup
// Only public unicast addresses are forwarded; private, loopback and
// unparsable addresses give "" so the provider uses the request origin.
func SelfQuery(caller string) string {
	addr, err := netip.ParseAddr(caller)
	if err != nil {
		// RemoteAddr style "host:port"
		ap, perr := netip.ParseAddrPort(caller)
		if perr != nil {
			return ""
		}
		addr = ap.Addr()
	}
	addr = addr.Unmap()

	if !addr.IsGlobalUnicast() || addr.IsPrivate() {
		return ""
	}
	return addr.String()
}
