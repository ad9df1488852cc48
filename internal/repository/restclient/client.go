// Package restclient is the JSON-over-HTTP transport shared by the Booqable
// and Airtable clients: bearer auth, per-call timeout, one transient retry,
// client-side rate limiting and an optional circuit breaker.
package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gearshare-backend/internal/config"
	"gearshare-backend/internal/logger"
	"gearshare-backend/internal/metrics"
)

type Client struct {
	name    string
	baseURL string
	apiKey  string
	http    *http.Client
	retry   RetryPolicy
	limiter *RateLimiter
	breaker CircuitBreaker
}

// New builds a client for the named backend.
func New(name string, cfg config.ClientConfig) *Client {
	return &Client{
		name:    name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout()},
		retry: RetryPolicy{
			MaxRetries: cfg.RetryCount,
			Delay:      cfg.RetryDelay(),
		},
		limiter: NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		breaker: NewCircuitBreaker(name, cfg.CircuitBreaker),
	}
}

// Name is the backend label used in logs and metrics.
func (c *Client) Name() string { return c.name }

// Do sends one request. body is JSON-encoded when non-nil and the response
// is decoded into out when out is non-nil. Status >= 400 returns *APIError.
func (c *Client) Do(ctx context.Context, operation, method, path string, query url.Values, body, out any) error {
	started := time.Now()
	logger.ExternalServiceCall(c.name, operation, "method", method, "path", path)

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: encode request: %w", c.name, operation, err)
		}
		payload = b
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	err := c.retry.Do(ctx, isIdempotent(method), func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		return c.breaker.Execute(func() error {
			return c.send(ctx, method, target, payload, out)
		})
	})

	metrics.ObserveBackendCall(c.name, operation, time.Since(started).Seconds(), err)
	logger.ExternalServiceResult(c.name, operation, started, err)
	return err
}

func (c *Client) send(ctx context.Context, method, target string, payload []byte, out any) error {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return newAPIError(resp.StatusCode, raw)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}
