package router

import (
	"net/http"
	"time"

	"github.com/evyataryagoni/iptracker/internal/handler"
	"github.com/evyataryagoni/iptracker/internal/limiter"
	"github.com/evyataryagoni/iptracker/internal/logger"
	"github.com/evyataryagoni/iptracker/internal/metrics"
	custommiddleware "github.com/evyataryagoni/iptracker/internal/middleware"
	v1 "github.com/evyataryagoni/iptracker/internal/router/v1"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config holds the router settings that do not come from a component
type Config struct {
	SessionTTL    time.Duration // lifetime of the session cookie
	SessionSecret []byte        // signs the session cookie; empty means a random key
}

// SetupRouter creates and configures the Chi router with all middleware and routes
//
// Parameters:
//   - pages: the tracker page handler
//   - lookups: the JSON lookup handler
//   - rateLimiter: the rate limiter (memory or Redis)
//   - cfg: session cookie settings
//   - m: metrics collector
//   - log: structured logger
func SetupRouter(pages *handler.PageHandler, lookups *handler.LookupHandler, rateLimiter limiter.Limiter, cfg Config, m *metrics.Metrics, log *logger.Logger) chi.Router {
	r := chi.NewRouter()

	// Order matters: the session ID must be known before the request is logged
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.SessionMiddleware(cfg.SessionTTL, cfg.SessionSecret))
	r.Use(custommiddleware.LoggingMiddleware(log))
	r.Use(middleware.Recoverer)
	r.Use(custommiddleware.MetricsMiddleware(m))

	// Every route that reaches the provider spends API quota
	limit := custommiddleware.RateLimitMiddleware(rateLimiter, m)

	r.With(limit).Get("/", pages.Show)
	r.With(limit).Post("/", pages.Search)

	r.Mount("/v1", v1.SetupRoutes(lookups, limit))

	r.Get("/health", healthCheckHandler)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// healthCheckHandler returns 200 OK while the process is serving
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
