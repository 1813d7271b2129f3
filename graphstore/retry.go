package graphstore

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig configures ExecuteWithRetry's backoff schedule.
type RetryConfig struct {
	MaxRetries        int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	IsRetryable       IsRetryable
}

// DefaultRetryConfig matches the documented defaults: three retries, 100ms
// initial delay doubling up to a 5s ceiling, retryable on the documented
// transient-kind set.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialDelay:      100 * time.Millisecond,
		MaxDelay:          5 * time.Second,
		BackoffMultiplier: 2,
		IsRetryable:       DefaultIsRetryable,
	}
}

// ExecuteWithRetry runs op, retrying on classified-transient failures up to
// cfg.MaxRetries additional times with exponential backoff. Non-retryable
// errors surface immediately. A cancelled context aborts further retries.
func ExecuteWithRetry[T any](ctx context.Context, cfg RetryConfig, op func(context.Context) (T, error)) (T, error) {
	isRetryable := cfg.IsRetryable
	if isRetryable == nil {
		isRetryable = DefaultIsRetryable
	}

	delay := cfg.InitialDelay
	var zero T
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return zero, err
		}
		if attempt == cfg.MaxRetries {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * cfg.BackoffMultiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return zero, fmt.Errorf("executeWithRetry: exhausted %d attempts: %w", cfg.MaxRetries+1, lastErr)
}
