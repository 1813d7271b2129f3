// Package ratelimit implements a token-bucket limiter shared by every
// outbound client that talks to a rate-limited external source.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a token-bucket rate limiter. All state transitions happen
// under a single mutex; refill and check are performed atomically so that
// concurrent callers can never observe or consume more capacity than the
// bucket actually holds.
type Limiter struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	now        func() time.Time
}

// Config configures a new Limiter.
type Config struct {
	MaxTokens  float64
	RefillRate float64 // tokens per second
}

// New creates a Limiter starting at full capacity.
func New(cfg Config) *Limiter {
	return &Limiter{
		tokens:     cfg.MaxTokens,
		maxTokens:  cfg.MaxTokens,
		refillRate: cfg.RefillRate,
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

// NewBibliographicLimiter returns a limiter preconfigured at 1 token every
// 3 seconds with burst 1, approximating a conservative bibliographic-source
// rate policy.
func NewBibliographicLimiter() *Limiter {
	return New(Config{MaxTokens: 1, RefillRate: 1.0 / 3.0})
}

// refillLocked advances tokens to the current time. Callers must hold mu.
func (l *Limiter) refillLocked() {
	now := l.now()
	if now.Before(l.lastRefill) {
		return
	}
	elapsed := now.Sub(l.lastRefill).Seconds()
	l.tokens = min(l.maxTokens, l.tokens+elapsed*l.refillRate)
	l.lastRefill = now
}

// TryAcquire attempts to consume n tokens without blocking. It returns true
// and decrements the bucket if enough tokens were available.
func (l *Limiter) TryAcquire(n float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refillLocked()
	if l.tokens >= n {
		l.tokens -= n
		return true
	}
	return false
}

// WaitTime returns how long a caller would need to sleep before n tokens
// become available. Zero when tokens are already available.
func (l *Limiter) WaitTime(n float64) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refillLocked()
	if l.tokens >= n {
		return 0
	}
	if l.refillRate <= 0 {
		return time.Duration(1<<63 - 1)
	}
	deficit := n - l.tokens
	seconds := deficit / l.refillRate
	return time.Duration(seconds * float64(time.Second))
}

// Acquire blocks until n tokens are available, or until ctx is cancelled.
// Cancellation aborts the pending sleep and returns ctx.Err().
func (l *Limiter) Acquire(ctx context.Context, n float64) error {
	for {
		if l.TryAcquire(n) {
			return nil
		}
		wait := l.WaitTime(n)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
