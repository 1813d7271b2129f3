package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// CircuitState is the classic three-state circuit-breaker state machine.
type CircuitState string

const (
	StateClosed   CircuitState = "closed"
	StateOpen     CircuitState = "open"
	StateHalfOpen CircuitState = "half-open"
)

// CircuitOpenError is returned when a call is rejected because the breaker
// is open (or half-open and already has a trial call in flight).
type CircuitOpenError struct {
	OpenedAt time.Time
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("ingest: circuit open since %s", e.OpenedAt.Format(time.RFC3339))
}

// CircuitBreaker protects a flaky downstream dependency (here, the
// open-access lookup client) by failing fast once a failure threshold is
// crossed, and probing recovery with a single trial call after a cooldown.
type CircuitBreaker struct {
	threshold  int
	resetAfter time.Duration
	now        func() time.Time

	mu              sync.Mutex
	state           CircuitState
	consecutiveFail int
	openedAt        time.Time
	trialInFlight   bool
}

// NewCircuitBreaker constructs a breaker that opens after `threshold`
// consecutive failures and allows one half-open trial call after
// `resetAfter` has elapsed.
func NewCircuitBreaker(threshold int, resetAfter time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if resetAfter <= 0 {
		resetAfter = 30 * time.Second
	}
	return &CircuitBreaker{threshold: threshold, resetAfter: resetAfter, now: time.Now, state: StateClosed}
}

// IsAvailable reports whether a call may currently be attempted, advancing
// an open breaker to half-open once resetAfter has elapsed.
func (b *CircuitBreaker) IsAvailable() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeTransitionToHalfOpenLocked()
	if b.state == StateOpen {
		return false
	}
	if b.state == StateHalfOpen && b.trialInFlight {
		return false
	}
	return true
}

func (b *CircuitBreaker) maybeTransitionToHalfOpenLocked() {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.resetAfter {
		b.state = StateHalfOpen
		b.trialInFlight = false
	}
}

// Call runs fn if the breaker allows it, recording success/failure and
// driving the state machine accordingly. Returns CircuitOpenError without
// calling fn when the breaker is open.
func (b *CircuitBreaker) Call(ctx context.Context, fn func(ctx context.Context) error) error {
	b.mu.Lock()
	b.maybeTransitionToHalfOpenLocked()
	switch b.state {
	case StateOpen:
		openedAt := b.openedAt
		b.mu.Unlock()
		return &CircuitOpenError{OpenedAt: openedAt}
	case StateHalfOpen:
		if b.trialInFlight {
			openedAt := b.openedAt
			b.mu.Unlock()
			return &CircuitOpenError{OpenedAt: openedAt}
		}
		b.trialInFlight = true
	}
	b.mu.Unlock()

	err := fn(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.recordFailureLocked()
		return err
	}
	b.recordSuccessLocked()
	return nil
}

func (b *CircuitBreaker) recordFailureLocked() {
	switch b.state {
	case StateHalfOpen:
		b.state = StateOpen
		b.openedAt = b.now()
		b.trialInFlight = false
	case StateClosed:
		b.consecutiveFail++
		if b.consecutiveFail >= b.threshold {
			b.state = StateOpen
			b.openedAt = b.now()
		}
	}
}

func (b *CircuitBreaker) recordSuccessLocked() {
	b.state = StateClosed
	b.consecutiveFail = 0
	b.trialInFlight = false
}

// State reports the breaker's current state, for observability.
func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeTransitionToHalfOpenLocked()
	return b.state
}
