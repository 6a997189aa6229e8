// Package groww is the client for the Groww market-data API. It composes
// sliding-window rate limiting and reactive credential refresh around every
// outbound call: each attempt passes through the shared limiter, carries the
// cached bearer token, and a 401 invalidates the token and retries exactly
// once.
package groww

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"momentum-scalper/internal/metrics"
	"momentum-scalper/internal/ratelimit"
)

// DefaultBaseURL is the upstream API root.
const DefaultBaseURL = "https://api.groww.in/v1"

const (
	defaultTimeout = 7 * time.Second
	maxAttempts    = 2
)

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL string        // default: DefaultBaseURL
	Timeout time.Duration // per-request HTTP timeout, default 7s
}

// Client issues authenticated, rate-limited requests to the upstream API.
// The limiter and credential cache are injected; one limiter instance must
// be shared by every caller that targets the same upstream.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	creds      *CredentialCache
	log        *slog.Logger
	metrics    *metrics.Metrics
}

// NewClient creates a Client from cfg, applying defaults.
func NewClient(cfg ClientConfig, limiter *ratelimit.Limiter, creds *CredentialCache, log *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
		creds:      creds,
		log:        log,
	}
}

// WithMetrics attaches request instrumentation. Optional.
func (c *Client) WithMetrics(m *metrics.Metrics) *Client {
	c.metrics = m
	return c
}

// RequestSpec describes one upstream call.
type RequestSpec struct {
	Method string // default GET
	Path   string // e.g. "/live-data/quote"
	Query  url.Values
}

// Do executes the request and decodes the JSON response into out.
//
// Each attempt consumes a rate-limiter slot. On a 401 the credential cache
// is invalidated and the request retried once; a second 401, or any other
// failure, propagates to the caller as a typed error.
func (c *Client) Do(ctx context.Context, spec RequestSpec, out any) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		start := time.Now()
		_, err := c.limiter.Execute(ctx, func(ctx context.Context) (any, error) {
			return nil, c.doOnce(ctx, spec, out, attempt)
		})
		if c.metrics != nil {
			c.metrics.APIRequestDuration.Observe(time.Since(start).Seconds())
			c.metrics.APIRequestsTotal.WithLabelValues(outcomeLabel(err)).Inc()
		}
		if err == nil {
			return nil
		}
		lastErr = err

		var he *HTTPError
		if errors.As(err, &he) && he.Status == http.StatusUnauthorized && attempt < maxAttempts {
			c.log.Debug("unauthorized, invalidating credentials and retrying",
				slog.String("path", spec.Path), slog.Int("attempt", attempt))
			c.creds.Invalidate()
			if c.metrics != nil {
				c.metrics.APIRetriesTotal.Inc()
			}
			continue
		}
		return err
	}
	return lastErr
}

// outcomeLabel maps an attempt's result onto the api_requests_total label.
func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return "http_error"
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return "network_error"
	}
	var ce *CredentialError
	if errors.As(err, &ce) {
		return "credential_error"
	}
	return "error"
}

func (c *Client) doOnce(ctx context.Context, spec RequestSpec, out any, attempt int) error {
	token, err := c.creds.Token(ctx)
	if err != nil {
		return err // already a *CredentialError
	}

	method := spec.Method
	if method == "" {
		method = http.MethodGet
	}
	reqURL := c.baseURL + spec.Path
	if len(spec.Query) > 0 {
		reqURL += "?" + spec.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return fmt.Errorf("groww: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	c.log.Debug("upstream request",
		slog.String("method", method), slog.String("url", reqURL), slog.Int("attempt", attempt))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Error("upstream error response",
			slog.Int("status", resp.StatusCode),
			slog.String("url", reqURL),
			slog.Int("attempt", attempt),
			slog.String("body", string(raw)))
		return &HTTPError{Status: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("groww: decode response: %w", err)
	}
	return nil
}
