// Package datasource fetches reference data and headlines from public web
// sources. All requests go through a Client that applies a user agent, a
// token-bucket rate limit, a circuit breaker and a response-size cap.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/seenimoa/stockrec/internal/config"
	"github.com/seenimoa/stockrec/internal/infra"
	"github.com/seenimoa/stockrec/internal/metrics"
	"github.com/seenimoa/stockrec/pkg/models"
)

// --- Sentinel errors ---

// ErrNotFound is returned when the remote resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrCircuitOpen is returned while the breaker rejects requests.
var ErrCircuitOpen = errors.New("circuit breaker open")

// ErrHTTP wraps a non-2xx response.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// Is reports 404 responses as ErrNotFound.
func (e *ErrHTTP) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// DefaultUserAgent is sent with every request.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 8 << 20

// Client is the shared HTTP client for all fetchers.
type Client struct {
	cfg     config.FetchConfig
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  zerolog.Logger

	constituents *infra.Cache[[]models.StockReference]
	headlines    *infra.Cache[[]models.Headline]
}

// NewClient builds a client from fetch configuration.
func NewClient(cfg config.FetchConfig, logger zerolog.Logger) *Client {
	logger = logger.With().Str("component", "datasource").Logger()

	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond <= 0 {
		limit = rate.Inf
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	c := &Client{
		cfg:          cfg,
		http:         &http.Client{Timeout: cfg.Timeout()},
		limiter:      rate.NewLimiter(limit, burst),
		logger:       logger,
		constituents: infra.NewCache[[]models.StockReference](time.Hour, 4),
		headlines:    infra.NewCache[[]models.Headline](10*time.Minute, 1024),
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "datasource",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// A missing resource says nothing about the remote's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	return c
}

// Get fetches url and returns the body. source labels the request in
// metrics and logs.
func (c *Client) Get(ctx context.Context, source, url, accept string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.doGet(ctx, url, accept)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordFetch(source, "circuit_open")
		return nil, fmt.Errorf("%s: %w", source, ErrCircuitOpen)
	case err != nil:
		metrics.RecordFetch(source, metrics.OutcomeError)
		c.logger.Debug().Err(err).Str("source", source).Str("url", url).Msg("fetch failed")
		return nil, err
	}
	metrics.RecordFetch(source, metrics.OutcomeOK)
	return body, nil
}

// doGet performs a single GET and reads the body.
func (c *Client) doGet(ctx context.Context, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if accept == "" {
		accept = "*/*"
	}
	req.Header.Set("Accept", accept)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}
