// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package resilience

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Operation types with distinct timeout expectations.
const (
	OpHealthCheck   = "health_check"
	OpSQLGeneration = "sql_generation"
	OpSchemaFetch   = "schema_fetch"
)

// HTTPError represents an HTTP error with status code
type HTTPError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// RetryConfig bounds the retry loop.
type RetryConfig struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the standard retry settings.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    time.Second,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// ClientConfig configures a Client.
type ClientConfig struct {
	Retry          RetryConfig
	CircuitBreaker CircuitBreakerConfig
	// Timeouts maps operation type to request timeout. Missing
	// operation types fall back to DefaultTimeout.
	Timeouts       map[string]time.Duration
	DefaultTimeout time.Duration
}

// DefaultClientConfig returns the standard client settings.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Retry:          DefaultRetryConfig(),
		CircuitBreaker: DefaultCircuitBreakerConfig(),
		Timeouts: map[string]time.Duration{
			OpHealthCheck:   5 * time.Second,
			OpSQLGeneration: 60 * time.Second,
			OpSchemaFetch:   10 * time.Second,
		},
		DefaultTimeout: 30 * time.Second,
	}
}

// Client is an HTTP client hardened for candidate-agent calls: each
// destination host gets its own circuit breaker, each operation type
// its own timeout, and transient failures are retried with exponential
// backoff. One breaker failure is recorded per Request call, after the
// retry budget is exhausted.
type Client struct {
	config   ClientConfig
	http     *http.Client
	logger   *zap.Logger
	breakers map[string]*CircuitBreaker
	mu       sync.Mutex

	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a resilient client.
func NewClient(config ClientConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Retry.MaxAttempts <= 0 {
		config.Retry = DefaultRetryConfig()
	}
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = 30 * time.Second
	}
	return &Client{
		config:   config,
		http:     &http.Client{},
		logger:   logger,
		breakers: map[string]*CircuitBreaker{},
		sleep:    sleepCtx,
	}
}

// TimeoutFor returns the timeout for an operation type.
func (c *Client) TimeoutFor(operationType string) time.Duration {
	if d, ok := c.config.Timeouts[operationType]; ok {
		return d
	}
	return c.config.DefaultTimeout
}

// breakerFor returns the breaker for a host, creating it on first use.
func (c *Client) breakerFor(host string) *CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	cb, ok := c.breakers[host]
	if !ok {
		cb = NewCircuitBreaker(c.config.CircuitBreaker)
		c.breakers[host] = cb
	}
	return cb
}

// BreakerState reports the breaker state for a host, for health
// reporting. A host with no recorded traffic is closed.
func (c *Client) BreakerState(host string) CircuitState {
	return c.breakerFor(host).State()
}

// Request performs one guarded HTTP round trip. body may be nil. The
// response body is fully read and returned. Non-2xx responses are
// returned as *HTTPError.
func (c *Client) Request(ctx context.Context, method, rawURL, operationType string, body []byte, headers map[string]string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	host := u.Host

	cb := c.breakerFor(host)
	if err := cb.Allow(); err != nil {
		var open *CircuitOpenError
		if errors.As(err, &open) {
			open.Host = host
		}
		return nil, err
	}

	timeout := c.TimeoutFor(operationType)

	var lastErr error
	for attempt := 0; attempt < c.config.Retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			backoff := c.backoff(attempt - 1)
			c.logger.Debug("Retrying request",
				zap.String("url", rawURL),
				zap.String("operation", operationType),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
			)
			if err := c.sleep(ctx, backoff); err != nil {
				cb.RecordFailure()
				return nil, err
			}
		}

		data, err := c.do(ctx, method, rawURL, timeout, body, headers)
		if err == nil {
			cb.RecordSuccess()
			return data, nil
		}
		lastErr = err

		if !isRetryable(err) {
			cb.RecordFailure()
			return nil, err
		}
	}

	cb.RecordFailure()
	c.logger.Warn("Request failed after all retries",
		zap.String("url", rawURL),
		zap.String("operation", operationType),
		zap.Int("attempts", c.config.Retry.MaxAttempts),
		zap.Error(lastErr),
	)
	return nil, fmt.Errorf("request to %s failed after %d attempts: %w", host, c.config.Retry.MaxAttempts, lastErr)
}

func (c *Client) do(ctx context.Context, method, rawURL string, timeout time.Duration, body []byte, headers map[string]string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, rawURL, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    resp.Status,
			Body:       string(data),
		}
	}
	return data, nil
}

func (c *Client) backoff(attempt int) time.Duration {
	ms := float64(c.config.Retry.InitialBackoff.Milliseconds()) * math.Pow(c.config.Retry.BackoffMultiplier, float64(attempt))
	if limit := float64(c.config.Retry.MaxBackoff.Milliseconds()); ms > limit {
		ms = limit
	}
	return time.Duration(ms) * time.Millisecond
}

// isRetryable reports whether an error is transient: server-side HTTP
// failures, timeouts, and connection-level errors retry; everything
// else (including 4xx and an open circuit) fails immediately.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var open *CircuitOpenError
	if errors.As(err, &open) {
		return false
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500 || httpErr.StatusCode == http.StatusTooManyRequests
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"timeout",
		"connection reset",
		"connection refused",
		"no such host",
		"i/o timeout",
		"temporary failure",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
