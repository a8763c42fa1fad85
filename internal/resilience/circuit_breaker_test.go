// SPDX-License-Identifier: MIT

package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockClock struct {
	now time.Time
}

func (m *mockClock) Now() time.Time { return m.now }

var errRemote = errors.New("remote failed")

func failingCalls(cb *CircuitBreaker, n int) {
	for i := 0; i < n; i++ {
		_ = cb.Execute(func() error { return errRemote })
	}
}

func TestCircuitBreakerOpensAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 30*time.Second)

	failingCalls(cb, 2)
	assert.Equal(t, StateClosed, cb.State())

	failingCalls(cb, 1)
	assert.Equal(t, StateOpen, cb.State())

	// Open breaker short-circuits without running the function.
	ran := false
	err := cb.Execute(func() error { ran = true; return nil })
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, ran)
}

func TestCircuitBreakerSuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 30*time.Second)

	failingCalls(cb, 2)
	require.NoError(t, cb.Execute(func() error { return nil }))

	failingCalls(cb, 2)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerHalfOpenProbe(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("test", 1, 10*time.Second, WithClock(clock))

	failingCalls(cb, 1)
	require.Equal(t, StateOpen, cb.State())

	// Before the reset timeout the breaker stays shut.
	err := cb.Execute(func() error { return nil })
	require.ErrorIs(t, err, ErrCircuitOpen)

	// After the timeout one probe is admitted; its failure reopens.
	clock.now = clock.now.Add(11 * time.Second)
	err = cb.Execute(func() error { return errRemote })
	require.ErrorIs(t, err, errRemote)
	assert.Equal(t, StateOpen, cb.State())

	// A successful probe closes the breaker again.
	clock.now = clock.now.Add(11 * time.Second)
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerDefaults(t *testing.T) {
	cb := NewCircuitBreaker("test", 0, 0)

	failingCalls(cb, 2)
	assert.Equal(t, StateClosed, cb.State())

	failingCalls(cb, 1)
	assert.Equal(t, StateOpen, cb.State(), "default threshold is three failures")
}

func TestCircuitBreakerPassesErrorThrough(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 30*time.Second)

	err := cb.Execute(func() error { return errRemote })
	assert.ErrorIs(t, err, errRemote)
}
