package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP Metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec
	RateLimitedTotal    prometheus.Counter

	// Geolocation provider metrics
	GeoRequestsTotal   *prometheus.CounterVec
	GeoRequestDuration prometheus.Histogram

	// Tracker metrics
	LookupsTotal   *prometheus.CounterVec
	ActiveSessions prometheus.Gauge

	// Session snapshot store metrics
	SessionStoreOpsTotal *prometheus.CounterVec
}

// New creates all metrics and registers them with reg
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint", "status"},
		),

		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 7),
			},
			[]string{"method", "endpoint", "status"},
		),

		RateLimitedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "http_rate_limited_total",
				Help: "Total number of requests rejected by the rate limiter",
			},
		),

		GeoRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geo_requests_total",
				Help: "Total number of requests sent to the geolocation provider",
			},
			[]string{"result"},
		),

		GeoRequestDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "geo_request_duration_seconds",
				Help:    "Geolocation provider latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		LookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracker_lookups_total",
				Help: "Total number of tracker lookups by kind and outcome",
			},
			[]string{"kind", "result"},
		),

		ActiveSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tracker_active_sessions",
				Help: "Number of sessions with a live tracker in this process",
			},
		),

		SessionStoreOpsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "session_store_operations_total",
				Help: "Total number of session snapshot store operations",
			},
			[]string{"operation", "status"},
		),
	}
}
