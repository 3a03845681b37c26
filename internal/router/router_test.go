package router

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/evyataryagoni/iptracker/internal/geo"
	"github.com/evyataryagoni/iptracker/internal/handler"
	"github.com/evyataryagoni/iptracker/internal/limiter"
	"github.com/evyataryagoni/iptracker/internal/logger"
	"github.com/evyataryagoni/iptracker/internal/metrics"
	custommiddleware "github.com/evyataryagoni/iptracker/internal/middleware"
	"github.com/evyataryagoni/iptracker/internal/service"
	"github.com/evyataryagoni/iptracker/internal/store"
	"github.com/evyataryagoni/iptracker/internal/tracker"
	"github.com/evyataryagoni/iptracker/internal/view"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type testApp struct {
	router  chi.Router
	client  *geo.MockClient
	store   *store.MockStore
	limiter *limiter.MockLimiter
	metrics *metrics.Metrics
}

func newTestApp(allow bool) *testApp {
	app := &testApp{
		client:  geo.NewMockClient(),
		store:   store.NewMockStore(),
		limiter: limiter.NewMockLimiter(allow),
		metrics: metrics.New(prometheus.NewRegistry()),
	}

	log := logger.NewNop()
	svc := service.NewTrackerService(app.client, tracker.NewRegistry(time.Hour), app.store, app.metrics, log)
	pages := handler.NewPageHandler(svc, view.MustNewRenderer(), log)
	lookups := handler.NewLookupHandler(svc, log)

	app.router = SetupRouter(pages, lookups, app.limiter, Config{SessionTTL: time.Hour}, app.metrics, log)
	return app
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	if req.Header.Get("X-Real-IP") == "" {
		req.RemoteAddr = "127.0.0.1:54321"
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == custommiddleware.SessionCookie {
			return c
		}
	}
	t.Fatal("expected a session cookie")
	return nil
}

// TestRouter_PageFlow tests a page load followed by a search in the same session
func TestRouter_PageFlow(t *testing.T) {
	app := newTestApp(true)

	rec := app.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Example Broadband") {
		t.Error("expected the self-lookup result")
	}
	cookie := sessionCookie(t, rec)

	form := url.Values{"ip": {"8.8.8.8"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)

	rec = app.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Google LLC") {
		t.Error("expected the searched result")
	}
	if got := sessionCookie(t, rec).Value; got != cookie.Value {
		t.Errorf("expected the session to be kept, got %s", got)
	}

	saved, ok := app.store.Saved(cookie.Value)
	if !ok || saved.Query != "8.8.8.8" {
		t.Errorf("expected saved query 8.8.8.8, got %+v", saved)
	}
	if calls := app.client.Calls(); len(calls) != 2 {
		t.Errorf("expected 2 lookups, got %v", calls)
	}
}

// TestRouter_RealIP tests that the forwarded client address drives the self-lookup
func TestRouter_RealIP(t *testing.T) {
	app := newTestApp(true)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "1.1.1.1")
	app.do(req)

	if calls := app.client.Calls(); len(calls) != 1 || calls[0] != "1.1.1.1" {
		t.Errorf("expected lookup of 1.1.1.1, got %v", calls)
	}
	if calls := app.limiter.AllowCalls; len(calls) != 1 || calls[0] != "1.1.1.1" {
		t.Errorf("expected rate limit key 1.1.1.1, got %v", calls)
	}
}

// TestRouter_Lookup tests the JSON API route
func TestRouter_Lookup(t *testing.T) {
	app := newTestApp(true)

	rec := app.do(httptest.NewRequest(http.MethodGet, "/v1/lookup?ip=1.1.1.1", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"isp":"Cloudflare, Inc."`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
	if got := testutil.ToFloat64(app.metrics.HTTPRequestsTotal.WithLabelValues("GET", "/v1/lookup", "200")); got != 1 {
		t.Errorf("expected 1 request recorded on /v1/lookup, got %v", got)
	}
}

// TestRouter_RateLimited tests that lookups are limited and other routes are not
func TestRouter_RateLimited(t *testing.T) {
	app := newTestApp(false)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/", nil),
		httptest.NewRequest(http.MethodPost, "/", strings.NewReader("ip=8.8.8.8")),
		httptest.NewRequest(http.MethodGet, "/v1/lookup?ip=8.8.8.8", nil),
	} {
		if rec := app.do(req); rec.Code != http.StatusTooManyRequests {
			t.Errorf("%s %s: expected status 429, got %d", req.Method, req.URL, rec.Code)
		}
	}
	if len(app.client.Calls()) != 0 {
		t.Errorf("expected no lookups, got %v", app.client.Calls())
	}

	if rec := app.do(httptest.NewRequest(http.MethodGet, "/health", nil)); rec.Code != http.StatusOK {
		t.Errorf("expected health to bypass the limiter, got %d", rec.Code)
	}
	if got := testutil.ToFloat64(app.metrics.RateLimitedTotal); got != 3 {
		t.Errorf("expected 3 rate limited requests, got %v", got)
	}
}

// TestRouter_Health tests the health endpoint
func TestRouter_Health(t *testing.T) {
	app := newTestApp(true)

	rec := app.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("expected 200 OK, got %d %q", rec.Code, rec.Body.String())
	}
}

// TestRouter_Metrics tests that the metrics endpoint is mounted
func TestRouter_Metrics(t *testing.T) {
	app := newTestApp(true)

	rec := app.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
}

// TestRouter_NotFound tests unknown routes
func TestRouter_NotFound(t *testing.T) {
	app := newTestApp(true)

	rec := app.do(httptest.NewRequest(http.MethodGet, "/v1/find-country", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}
