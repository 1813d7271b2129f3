package graphstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteWithRetrySucceedsImmediately(t *testing.T) {
	calls := 0
	result, err := ExecuteWithRetry(context.Background(), DefaultRetryConfig(), func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
}

func TestExecuteWithRetryRetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	cfg := RetryConfig{
		MaxRetries:        3,
		InitialDelay:      time.Millisecond,
		MaxDelay:          10 * time.Millisecond,
		BackoffMultiplier: 2,
		IsRetryable:       DefaultIsRetryable,
	}

	result, err := ExecuteWithRetry(context.Background(), cfg, func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, NewStoreError(KindDeadlockDetected, "op", errors.New("deadlock"))
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetryReturnsNonRetryableImmediately(t *testing.T) {
	calls := 0
	boom := NewStoreError(KindOther, "op", errors.New("bad query"))

	_, err := ExecuteWithRetry(context.Background(), DefaultRetryConfig(), func(ctx context.Context) (int, error) {
		calls++
		return 0, boom
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestExecuteWithRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	cfg := RetryConfig{
		MaxRetries:        2,
		InitialDelay:      time.Millisecond,
		MaxDelay:          5 * time.Millisecond,
		BackoffMultiplier: 2,
		IsRetryable:       DefaultIsRetryable,
	}

	_, err := ExecuteWithRetry(context.Background(), cfg, func(ctx context.Context) (int, error) {
		calls++
		return 0, NewStoreError(KindDeadlockDetected, "op", errors.New("still locked"))
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls) // initial attempt + 2 retries
}

func TestExecuteWithRetryRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{
		MaxRetries:        5,
		InitialDelay:      50 * time.Millisecond,
		MaxDelay:          time.Second,
		BackoffMultiplier: 2,
		IsRetryable:       DefaultIsRetryable,
	}

	calls := 0
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	_, err := ExecuteWithRetry(ctx, cfg, func(ctx context.Context) (int, error) {
		calls++
		return 0, NewStoreError(KindDeadlockDetected, "op", errors.New("locked"))
	})

	require.ErrorIs(t, err, context.Canceled)
}
