// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock drives the breaker's recovery window deterministically.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestBreaker() (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig())
	cb.now = clock.now
	return cb, clock
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker()

	assert.NoError(t, cb.Allow())
	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, CircuitClosed, cb.State())
	assert.NoError(t, cb.Allow())

	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.State())

	err := cb.Allow()
	require.Error(t, err)
	var open *CircuitOpenError
	require.True(t, errors.As(err, &open))
	assert.Greater(t, open.RetryAfter, time.Duration(0))
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	cb, _ := newTestBreaker()

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()

	// Only two consecutive failures since the last success.
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestBreakerHalfOpenAfterRecoveryTimeout(t *testing.T) {
	cb, clock := newTestBreaker()

	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	require.Equal(t, CircuitOpen, cb.State())

	clock.advance(29 * time.Second)
	assert.Error(t, cb.Allow())

	clock.advance(2 * time.Second)
	assert.NoError(t, cb.Allow())
	assert.Equal(t, CircuitHalfOpen, cb.State())

	// Only one trial request is admitted while half-open.
	assert.Error(t, cb.Allow())
}

func TestBreakerHalfOpenSuccessCloses(t *testing.T) {
	cb, clock := newTestBreaker()

	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	clock.advance(31 * time.Second)
	require.NoError(t, cb.Allow())

	cb.RecordSuccess()
	assert.Equal(t, CircuitClosed, cb.State())
	assert.NoError(t, cb.Allow())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker()

	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	clock.advance(31 * time.Second)
	require.NoError(t, cb.Allow())

	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.State())
	assert.Error(t, cb.Allow())

	// The recovery window restarts from the trial failure.
	clock.advance(31 * time.Second)
	assert.NoError(t, cb.Allow())
}

func TestBreakerReset(t *testing.T) {
	cb, _ := newTestBreaker()

	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	require.Equal(t, CircuitOpen, cb.State())

	cb.Reset()
	assert.Equal(t, CircuitClosed, cb.State())
	assert.NoError(t, cb.Allow())
}

func TestCircuitStateString(t *testing.T) {
	assert.Equal(t, "CLOSED", CircuitClosed.String())
	assert.Equal(t, "OPEN", CircuitOpen.String())
	assert.Equal(t, "HALF_OPEN", CircuitHalfOpen.String())
}
