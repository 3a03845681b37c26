package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// DefaultGeoAPIURL is the ipify country+city endpoint
const DefaultGeoAPIURL = "https://geo.ipify.org/api/v2/country,city"

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string `validate:"required,numeric"`

	// Logging
	LogLevel  string
	LogPretty bool

	// Geolocation provider
	GeoAPIURL     string        `validate:"required,url"`
	GeoAPIKey     string        // ipify API key, sent as apiKey query parameter
	GeoAPITimeout time.Duration // upstream request timeout

	// Session snapshots
	SessionStoreType string        `validate:"oneof=memory redis mysql"`
	SessionTTL       time.Duration // how long an idle session is kept
	SessionSecret    string        `validate:"omitempty,min=32"` // signs the session cookie
	SessionSweep     string        `validate:"required"`         // cron spec of the idle session cleanup

	// Rate limiting of lookups
	RateLimitType   string `validate:"oneof=memory redis"`
	RateLimit       int    `validate:"gt=0"` // number of lookups allowed
	RateLimitWindow int    `validate:"gt=0"` // time window in seconds

	// MySQL configuration
	MySQLDSN string `validate:"required_if=SessionStoreType mysql"`

	// Redis configuration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads configuration from environment variables
// with sensible defaults
func Load() *Config {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or defaults")
	}

	return &Config{
		Port: getEnv("PORT", "3000"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", true),

		GeoAPIURL:     getEnv("GEO_API_URL", DefaultGeoAPIURL),
		GeoAPIKey:     getEnv("GEO_API_KEY", ""),
		GeoAPITimeout: time.Duration(getEnvAsInt("GEO_API_TIMEOUT", 10)) * time.Second,

		SessionStoreType: strings.ToLower(getEnv("SESSION_STORE_TYPE", "memory")),
		SessionTTL:       time.Duration(getEnvAsInt("SESSION_TTL", 1800)) * time.Second,
		SessionSecret:    getEnv("SESSION_SECRET", ""),
		SessionSweep:     getEnv("SESSION_SWEEP_SCHEDULE", "@every 1m"),

		// Rate limiting (default: memory, 5 lookups per 1 second)
		RateLimitType:   strings.ToLower(getEnv("RATE_LIMITER_TYPE", "memory")),
		RateLimit:       getEnvAsInt("RATE_LIMIT", 5),
		RateLimitWindow: getEnvAsInt("RATE_LIMIT_WINDOW", 1),

		MySQLDSN: getEnv("MYSQL_DSN", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
	}
}

// Validate checks the loaded values using the struct tags above
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// LookupsPerSecond is the effective rate given to the limiter
// Example: 10 lookups per 5 seconds = 2.0 per second
func (c *Config) LookupsPerSecond() float64 {
	return float64(c.RateLimit) / float64(c.RateLimitWindow)
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt reads an environment variable as an integer
// Returns default if not set or invalid
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsBool reads an environment variable as a bool
// Accepts anything strconv.ParseBool does ("1", "true", "FALSE", ...)
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
