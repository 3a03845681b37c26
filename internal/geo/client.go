package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/evyataryagoni/iptracker/internal/logger"
	"github.com/evyataryagoni/iptracker/internal/metrics"
	"github.com/evyataryagoni/iptracker/internal/models"
)

// FailureMessage is the only message a user ever sees for a failed lookup
const FailureMessage = "Something went wrong. Try again please ☹️"

// maxBodyBytes bounds how much of a provider response is read
const maxBodyBytes = 1 << 20

// ErrLookupFailed is returned for every failed lookup: bad status, network error or bad body
var ErrLookupFailed = errors.New(FailureMessage)

// Lookuper resolves a query (IP address or domain) to a geolocation record
// An empty query asks the provider to resolve the caller's own address
type Lookuper interface {
	Lookup(ctx context.Context, query string) (*models.LookupResult, error)
}

// Config holds the provider settings
type Config struct {
	BaseURL string        // e.g. https://geo.ipify.org/api/v2/country,city
	APIKey  string        // sent as apiKey
	Timeout time.Duration // zero means no client-side timeout
}

// Client talks to the ipify geolocation API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *logger.Logger
}

// NewClient creates a provider client
//
// Parameters:
//   - cfg: endpoint, key and timeout
//   - m: metrics collector (optional, can be nil)
//   - log: logger (optional, can be nil)
func NewClient(cfg Config, m *metrics.Metrics, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		metrics:    m,
		logger:     log.WithComponent("GeoClient"),
	}
}

// Lookup performs one GET against the provider
// No retries: any failure is reported as ErrLookupFailed wrapping the cause
func (c *Client) Lookup(ctx context.Context, query string) (*models.LookupResult, error) {
	start := time.Now()

	result, err := c.do(ctx, query)

	if c.metrics != nil {
		c.metrics.GeoRequestDuration.Observe(time.Since(start).Seconds())
		outcome := "success"
		if err != nil {
			outcome = "failed"
		}
		c.metrics.GeoRequestsTotal.WithLabelValues(outcome).Inc()
	}

	if err != nil {
		c.logger.Warn().Err(err).Str("query", query).Msg("Geolocation lookup failed")
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}

	c.logger.Debug().
		Str("query", query).
		Str("ip", result.IP).
		Str("region", result.Location.Region).
		Dur("duration", time.Since(start)).
		Msg("Geolocation lookup successful")

	return result, nil
}

func (c *Client) do(ctx context.Context, query string) (*models.LookupResult, error) {
	endpoint, err := c.requestURL(query)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var result models.LookupResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &result, nil
}

// requestURL builds <base>?apiKey=<key>[&ipAddress=<query>]
func (c *Client) requestURL(query string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	q := u.Query()
	q.Set("apiKey", c.apiKey)
	if query != "" {
		q.Set("ipAddress", query)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}
