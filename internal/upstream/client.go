// Package upstream provides the resilient HTTP client used for every call
// that leaves the process: the app origin and the analysis backend.
package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// Client errors.
var (
	// ErrCircuitOpen is returned when the circuit breaker refuses the call.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// ServerError represents an HTTP 5xx answer from the upstream. 5xx is
// surfaced as an error so it counts against the circuit breaker.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return "upstream error: " + http.StatusText(e.StatusCode)
}

// Config holds configuration for the upstream client.
type Config struct {
	// Name identifies the upstream for breaker naming and health reporting.
	Name string

	// Timeout is the per-attempt HTTP timeout. Default: 10s.
	Timeout time.Duration

	// MaxRetries is the number of retry attempts on transient failure.
	// Default: 3.
	MaxRetries uint64

	// InitialInterval is the first retry backoff interval. Default: 100ms.
	InitialInterval time.Duration

	// MaxInterval caps the retry backoff interval. Default: 5s.
	MaxInterval time.Duration

	// BreakerTimeout is how long the breaker stays open before probing.
	// Default: 60s.
	BreakerTimeout time.Duration
}

// DefaultConfig returns sensible defaults for an upstream.
func DefaultConfig(name string) Config {
	return Config{
		Name:            name,
		Timeout:         10 * time.Second,
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		BreakerTimeout:  60 * time.Second,
	}
}

// Client wraps http.Client with a circuit breaker and exponential retry.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	config     Config
	health     *Health
}

// NewClient creates a new upstream client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 5 * time.Second
	}
	if cfg.BreakerTimeout == 0 {
		cfg.BreakerTimeout = 60 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{ //nolint:bodyclose // type param, not a response
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// 50% failures over at least 5 requests.
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && ratio >= 0.5
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
		config:     cfg,
		health:     newHealth(cfg.Name),
	}
}

// Do executes the request with breaker protection and retry on transient
// failures (network errors and 5xx). Returns ErrCircuitOpen immediately
// when the breaker is open.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.DoWithContext(req.Context(), req)
}

// DoWithContext executes the request under the given context.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.InitialInterval
	bo.MaxInterval = c.config.MaxInterval
	bo.MaxElapsedTime = 0 // retries bounded by WithMaxRetries below

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.config.MaxRetries), ctx)

	// Retries need a fresh body per attempt. Requests built from a plain
	// reader lack GetBody, so buffer the body once up front.
	getBody := req.GetBody
	if getBody == nil && req.Body != nil && req.Body != http.NoBody {
		raw, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("buffering request body: %w", err)
		}
		getBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(raw)), nil
		}
	}

	var lastResp *http.Response

	// Replaces the retained response, draining the superseded one.
	keep := func(resp *http.Response) {
		if lastResp != nil && lastResp != resp {
			_, _ = io.Copy(io.Discard, lastResp.Body)
			lastResp.Body.Close()
		}
		lastResp = resp
	}

	operation := func() error {
		attempt := req.Clone(ctx)
		if getBody != nil {
			body, bodyErr := getBody()
			if bodyErr != nil {
				return backoff.Permanent(bodyErr)
			}
			attempt.Body = body
		}

		resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // caller closes
			r, err := c.httpClient.Do(attempt)
			if err != nil {
				return nil, err
			}
			if r.StatusCode >= 500 {
				return r, &ServerError{StatusCode: r.StatusCode}
			}
			return r, nil
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			if resp != nil {
				keep(resp)
			}
			return err
		}

		keep(resp)
		return nil
	}

	err := backoff.Retry(operation, policy)
	if err != nil {
		c.health.recordFailure(err)
		// A 5xx that exhausted retries is still an answer the caller
		// may want to inspect.
		if lastResp != nil {
			return lastResp, nil
		}
		return nil, err
	}

	c.health.recordSuccess()
	return lastResp, nil
}

// BreakerState returns the current circuit breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// Health returns the health tracker for this upstream.
func (c *Client) Health() *Health {
	return c.health
}
