// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package resilience provides the outbound-call protection used when
// talking to candidate agents: a per-host circuit breaker, bounded
// retries with exponential backoff, and per-operation adaptive
// timeouts.
package resilience

import (
	"fmt"
	"sync"
	"time"
)

// CircuitState represents the state of the circuit breaker
type CircuitState int

const (
	// CircuitClosed - Normal operation, requests allowed
	CircuitClosed CircuitState = iota
	// CircuitOpen - Failing, requests blocked
	CircuitOpen
	// CircuitHalfOpen - Testing if recovered, one trial request allowed
	CircuitHalfOpen
)

// String returns the string representation of the circuit state
func (cs CircuitState) String() string {
	switch cs {
	case CircuitClosed:
		return "CLOSED"
	case CircuitOpen:
		return "OPEN"
	case CircuitHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// CircuitBreakerConfig configures one breaker instance.
type CircuitBreakerConfig struct {
	// FailureThreshold is the consecutive-failure count that opens the
	// circuit.
	FailureThreshold int
	// RecoveryTimeout is how long the circuit stays open before a
	// trial request is allowed.
	RecoveryTimeout time.Duration
}

// DefaultCircuitBreakerConfig returns the standard breaker settings.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 3,
		RecoveryTimeout:  30 * time.Second,
	}
}

// CircuitOpenError is returned when a request is rejected because the
// circuit for its host is open.
type CircuitOpenError struct {
	Host       string
	RetryAfter time.Duration
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker open for %s (retry after %s)", e.Host, e.RetryAfter.Round(time.Second))
}

// CircuitBreaker is a three-state breaker guarding calls to one host.
//
// State transitions:
//   - CLOSED -> OPEN: after FailureThreshold consecutive failures
//   - OPEN -> HALF_OPEN: after RecoveryTimeout elapsed
//   - HALF_OPEN -> CLOSED: on a successful trial request
//   - HALF_OPEN -> OPEN: on a failed trial request
//
// Elapsed time is measured against a monotonic clock, so wall-clock
// adjustments never reopen or extend the window.
type CircuitBreaker struct {
	config      CircuitBreakerConfig
	state       CircuitState
	failures    int
	lastFailure time.Time
	mu          sync.Mutex

	// now is swappable for tests.
	now func() time.Time
}

// NewCircuitBreaker creates a breaker with the given configuration.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 3
	}
	if config.RecoveryTimeout <= 0 {
		config.RecoveryTimeout = 30 * time.Second
	}
	return &CircuitBreaker{
		config: config,
		state:  CircuitClosed,
		now:    time.Now,
	}
}

// Allow reports whether a request may proceed. In the open state it
// transitions to half-open once the recovery timeout has elapsed and
// admits exactly one trial request.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return nil

	case CircuitOpen:
		elapsed := cb.now().Sub(cb.lastFailure)
		if elapsed >= cb.config.RecoveryTimeout {
			cb.state = CircuitHalfOpen
			return nil
		}
		return &CircuitOpenError{RetryAfter: cb.config.RecoveryTimeout - elapsed}

	case CircuitHalfOpen:
		// A trial request is already in flight.
		return &CircuitOpenError{RetryAfter: cb.config.RecoveryTimeout}

	default:
		return nil
	}
}

// RecordSuccess resets the failure count and closes the circuit.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.state = CircuitClosed
}

// RecordFailure counts one failure; the circuit opens once the
// threshold is reached, and a half-open trial failure reopens it.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = cb.now()

	switch cb.state {
	case CircuitClosed:
		if cb.failures >= cb.config.FailureThreshold {
			cb.state = CircuitOpen
		}
	case CircuitHalfOpen:
		cb.state = CircuitOpen
	}
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset returns the breaker to closed with no recorded failures.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = CircuitClosed
	cb.failures = 0
}
