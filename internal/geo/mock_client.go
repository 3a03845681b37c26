package geo

import (
	"context"
	"sync"

	"github.com/evyataryagoni/iptracker/internal/models"
)

// MockClient is a test double for the Lookuper interface
// It allows tests to control results and verify interactions
type MockClient struct {
	mu sync.Mutex

	// Results maps a query to the record returned for it ("" is the self-lookup)
	Results map[string]*models.LookupResult

	// Errors maps a query to the error returned for it
	Errors map[string]error

	// Hook, when set, runs before the result is returned (used to hold a lookup in flight)
	Hook func(ctx context.Context, query string)

	// LookupCalls tracks every query in call order
	LookupCalls []string
}

// NewMockClient creates a mock with a self-lookup and two well known addresses
func NewMockClient() *MockClient {
	return &MockClient{
		Results: map[string]*models.LookupResult{
			"": {
				IP:  "203.0.113.7",
				ISP: "Example Broadband",
				Location: models.Location{
					Country:  "US",
					Region:   "California",
					City:     "San Jose",
					Lat:      Float(37.33939),
					Lng:      Float(-121.89496),
					Timezone: "-07:00",
				},
			},
			"8.8.8.8": {
				IP:  "8.8.8.8",
				ISP: "Google LLC",
				Location: models.Location{
					Country:  "US",
					Region:   "California",
					City:     "Mountain View",
					Lat:      Float(37.40599),
					Lng:      Float(-122.078514),
					Timezone: "-07:00",
				},
			},
			"1.1.1.1": {
				IP:  "1.1.1.1",
				ISP: "Cloudflare, Inc.",
				Location: models.Location{
					Country:  "AU",
					Region:   "Queensland",
					City:     "South Brisbane",
					Lat:      Float(-27.47482),
					Lng:      Float(153.017),
					Timezone: "+10:00",
				},
			},
		},
		Errors:      map[string]error{},
		LookupCalls: []string{},
	}
}

// Lookup implements the Lookuper interface
func (m *MockClient) Lookup(ctx context.Context, query string) (*models.LookupResult, error) {
	m.mu.Lock()
	m.LookupCalls = append(m.LookupCalls, query)
	hook := m.Hook
	m.mu.Unlock()

	if hook != nil {
		hook(ctx, query)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.Errors[query]; ok {
		return nil, err
	}

	result, ok := m.Results[query]
	if !ok {
		return nil, ErrLookupFailed
	}

	// hand out a copy so callers cannot mutate the fixture
	clone := *result
	return &clone, nil
}

// Calls returns a snapshot of the recorded queries
func (m *MockClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.LookupCalls...)
}

// Float returns a pointer to v, handy for building coordinates
func Float(v float64) *float64 {
	return &v
}
