package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
	"trailweather.app/errors"
)

// BackoffConfig controls exponential backoff behaviour between retries.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// ClientConfig bundles timeout and resilience settings for one upstream.
type ClientConfig struct {
	Timeout time.Duration
	Backoff BackoffConfig
	// Requests per second allowed against the upstream; zero disables
	// rate limiting.
	RateLimit float64
	Burst     int
}

// DefaultClientConfig returns the settings used by international providers.
func DefaultClientConfig(timeout time.Duration) ClientConfig {
	return ClientConfig{
		Timeout: timeout,
		Backoff: BackoffConfig{
			MaxRetries:      2,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		RateLimit: 5,
		Burst:     5,
	}
}

// Client is the shared HTTP door every provider goes through: one lazily
// created long-lived http.Client, a circuit breaker, a rate limiter, and
// retry with exponential backoff. All failures come back as typed provider
// errors so callers drive fallback on the error variant.
type Client struct {
	name    string
	cfg     ClientConfig
	once    sync.Once
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func NewClient(name string, cfg ClientConfig) *Client {
	c := &Client{
		name: name,
		cfg:  cfg,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c
}

func (c *Client) client() *http.Client {
	c.once.Do(func() {
		c.http = &http.Client{Timeout: c.cfg.Timeout}
	})
	return c.http
}

// Close releases the connection pool. Safe to call before first use.
func (c *Client) Close() {
	if c.http != nil {
		c.http.CloseIdleConnections()
	}
}

// GetJSON issues a GET against url and decodes the body into out.
// A 404 maps to ProviderUnsupportedLocation (coordinates outside the
// upstream's coverage); everything else that fails maps to
// ProviderUnavailable.
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, out interface{}) error {
	resp, err := c.do(ctx, url, headers)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			_ = closeErr
		}
	}()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewProviderUnavailable(
			fmt.Sprintf("%s: failed to decode response", c.name), err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.NewProviderUnavailable(
				fmt.Sprintf("%s: rate limit wait canceled", c.name), err)
		}
	}

	var attempt int
	var lastErr error

	for {
		if ctx.Err() != nil {
			return nil, errors.NewProviderUnavailable(
				fmt.Sprintf("%s: request canceled", c.name), ctx.Err())
		}

		resp, err := c.attempt(ctx, url, headers)
		if err == nil {
			return resp, nil
		}

		// Unsupported-location and circuit-open responses are not retried.
		if errors.IsType(err, errors.ProviderUnsupportedLocation) {
			return nil, err
		}
		if gbErr, ok := err.(*breakerOpenError); ok {
			return nil, errors.NewProviderUnavailable(
				fmt.Sprintf("%s: circuit breaker open", c.name), gbErr.cause)
		}

		lastErr = err
		if attempt >= c.cfg.Backoff.MaxRetries {
			return nil, lastErr
		}

		delay := c.cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if c.cfg.Backoff.MaxInterval > 0 && delay > c.cfg.Backoff.MaxInterval {
			delay = c.cfg.Backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.NewProviderUnavailable(
				fmt.Sprintf("%s: request canceled", c.name), ctx.Err())
		case <-timer.C:
		}
		attempt++
	}
}

type breakerOpenError struct{ cause error }

func (e *breakerOpenError) Error() string { return e.cause.Error() }

func (c *Client) attempt(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewProviderUnavailable(
			fmt.Sprintf("%s: build request", c.name), err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, execErr := c.client().Do(req)
		if execErr != nil {
			return nil, errors.NewProviderUnavailable(
				fmt.Sprintf("%s: request failed", c.name), execErr)
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			closeBody(resp)
			return nil, errors.NewProviderUnsupportedLocation(
				fmt.Sprintf("%s: coordinates outside coverage area", c.name))
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			closeBody(resp)
			return nil, errors.NewProviderUnavailable(
				fmt.Sprintf("%s: rejected credentials (HTTP %d)", c.name, resp.StatusCode), nil)
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			closeBody(resp)
			return nil, errors.NewProviderUnavailable(
				fmt.Sprintf("%s: HTTP %d", c.name, resp.StatusCode), nil)
		}
		return resp, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, &breakerOpenError{cause: err}
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, errors.NewProviderUnavailable(
			fmt.Sprintf("%s: unexpected breaker result", c.name), nil)
	}
	return resp, nil
}

func closeBody(resp *http.Response) {
	if closeErr := resp.Body.Close(); closeErr != nil {
		_ = closeErr
	}
}
