package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evyataryagoni/iptracker/internal/config"
	"github.com/evyataryagoni/iptracker/internal/geo"
	"github.com/evyataryagoni/iptracker/internal/handler"
	"github.com/evyataryagoni/iptracker/internal/limiter"
	"github.com/evyataryagoni/iptracker/internal/logger"
	"github.com/evyataryagoni/iptracker/internal/metrics"
	"github.com/evyataryagoni/iptracker/internal/router"
	"github.com/evyataryagoni/iptracker/internal/scheduler"
	"github.com/evyataryagoni/iptracker/internal/service"
	"github.com/evyataryagoni/iptracker/internal/store"
	"github.com/evyataryagoni/iptracker/internal/tracker"
	"github.com/evyataryagoni/iptracker/internal/view"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Load configuration
	appConfig := config.Load()

	// Initialize components
	appLogger := setupLogger(appConfig)
	if err := appConfig.Validate(); err != nil {
		appLogger.Fatal().Err(err).Msg("Invalid configuration")
	}
	if appConfig.GeoAPIKey == "" {
		appLogger.Warn().Msg("GEO_API_KEY is empty, every lookup will fail")
	}
	if appConfig.SessionSecret == "" {
		appLogger.Warn().Msg("SESSION_SECRET is empty, sessions will not survive a restart")
	}

	metricsCollector := setupMetrics(appLogger)

	sessionStore := setupSessionStore(appConfig, appLogger)

	rateLimiter := setupRateLimiter(appConfig, appLogger)
	defer rateLimiter.Close()

	geoClient := geo.NewClient(geo.Config{
		BaseURL: appConfig.GeoAPIURL,
		APIKey:  appConfig.GeoAPIKey,
		Timeout: appConfig.GeoAPITimeout,
	}, metricsCollector, appLogger)

	// Build application layers
	sessions := tracker.NewRegistry(appConfig.SessionTTL)
	trackerService := service.NewTrackerService(geoClient, sessions, sessionStore, metricsCollector, appLogger)
	defer trackerService.Close()

	pageHandler := handler.NewPageHandler(trackerService, view.MustNewRenderer(), appLogger)
	lookupHandler := handler.NewLookupHandler(trackerService, appLogger)
	appRouter := router.SetupRouter(pageHandler, lookupHandler, rateLimiter, router.Config{
		SessionTTL:    appConfig.SessionTTL,
		SessionSecret: []byte(appConfig.SessionSecret),
	}, metricsCollector, appLogger)

	jobs := setupScheduler(appConfig, trackerService, appLogger)
	defer jobs.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server
	startServer(ctx, appConfig, appRouter, appLogger)
}

// setupLogger initializes the structured logger
func setupLogger(appConfig *config.Config) *logger.Logger {
	appLogger := logger.New(logger.Config{
		Level:  appConfig.LogLevel,
		Pretty: appConfig.LogPretty,
	})

	appLogger.Info().Msg("Starting IP Address Tracker...")
	appLogger.Info().
		Str("port", appConfig.Port).
		Str("geo_api_url", appConfig.GeoAPIURL).
		Dur("geo_api_timeout", appConfig.GeoAPITimeout).
		Str("session_store_type", appConfig.SessionStoreType).
		Dur("session_ttl", appConfig.SessionTTL).
		Str("rate_limiter_type", appConfig.RateLimitType).
		Int("rate_limit", appConfig.RateLimit).
		Int("rate_limit_window", appConfig.RateLimitWindow).
		Msg("Configuration loaded")

	return appLogger
}

// setupSessionStore initializes the snapshot store (memory, Redis or MySQL)
func setupSessionStore(appConfig *config.Config, log *logger.Logger) store.Store {
	sessionStore, err := store.New(store.Config{
		Type:          appConfig.SessionStoreType,
		TTL:           appConfig.SessionTTL,
		MySQLDSN:      appConfig.MySQLDSN,
		RedisAddr:     appConfig.RedisAddr,
		RedisPassword: appConfig.RedisPassword,
		RedisDB:       appConfig.RedisDB,
	})
	if err != nil {
		log.Fatal().Err(err).Str("type", appConfig.SessionStoreType).Msg("Failed to initialize session store")
	}

	fmt.Printf("✅ Session store initialized (type: %s)\n", appConfig.SessionStoreType)
	return sessionStore
}

// setupRateLimiter initializes the rate limiter
// Supports in-memory and Redis-based rate limiting
func setupRateLimiter(appConfig *config.Config, log *logger.Logger) limiter.Limiter {
	effectiveRate := appConfig.LookupsPerSecond()

	rateLimiter, err := limiter.NewLimiter(limiter.LimiterConfig{
		Type:             appConfig.RateLimitType,
		LookupsPerSecond: effectiveRate,
		RedisAddr:        appConfig.RedisAddr,
		RedisPassword:    appConfig.RedisPassword,
		RedisDB:          appConfig.RedisDB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize rate limiter")
	}

	fmt.Printf("✅ Rate limiter initialized (type: %s, limit: %d lookups per %d sec = %.2f/s)\n",
		appConfig.RateLimitType, appConfig.RateLimit, appConfig.RateLimitWindow, effectiveRate)

	return rateLimiter
}

// setupMetrics initializes the Prometheus metrics collector
func setupMetrics(log *logger.Logger) *metrics.Metrics {
	metricsCollector := metrics.New(prometheus.DefaultRegisterer)
	log.Info().Msg("Metrics initialized")
	return metricsCollector
}

// setupScheduler starts the background housekeeping jobs
func setupScheduler(appConfig *config.Config, svc *service.TrackerService, log *logger.Logger) *scheduler.Scheduler {
	jobs := scheduler.New(30*time.Second, log)

	err := jobs.Add(appConfig.SessionSweep, "Session Sweep", func(ctx context.Context) error {
		n, err := svc.Sweep(ctx)
		log.Debug().Int("active_sessions", n).Msg("Swept idle sessions")
		return err
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule session sweep")
	}

	jobs.Start()
	return jobs
}

// startServer serves until ctx is canceled, then shuts down gracefully
func startServer(ctx context.Context, appConfig *config.Config, appRouter http.Handler, log *logger.Logger) {
	server := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           appRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", appConfig.Port).
			Str("page", "http://localhost:"+appConfig.Port+"/").
			Str("api_endpoint", "http://localhost:"+appConfig.Port+"/v1/lookup?ip=<ip>").
			Str("health_check", "http://localhost:"+appConfig.Port+"/health").
			Str("metrics", "http://localhost:"+appConfig.Port+"/metrics").
			Msg("Server is running")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
}
