package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencite/litgraph/ratelimit"
)

func TestDoReturnsSuccessResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := New(nil, "litgraph-test/1.0")
	resp, err := client.Do(context.Background(), NewRequest(http.MethodGet, server.URL))
	require.NoError(t, err)
	assert.True(t, resp.IsSuccess())
	assert.Equal(t, `{"ok":true}`, resp.BodyString)
}

func TestDoDoesNotRetryOnClientError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := New(nil, "")
	req := NewRequest(http.MethodGet, server.URL)
	req.RetryCount = 3

	resp, err := client.Do(context.Background(), req)
	require.Error(t, err)
	assert.True(t, resp.IsClientError())
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestDoRetriesOnServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(nil, "")
	req := NewRequest(http.MethodGet, server.URL)
	req.RetryCount = 3
	req.RetryInterval = time.Millisecond

	resp, err := client.Do(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, resp.IsSuccess())
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestDoRespectsRateLimiter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	limiter := ratelimit.New(ratelimit.Config{MaxTokens: 1, RefillRate: 1.0 / 3.0})
	client := New(limiter, "")

	_, err := client.Do(context.Background(), NewRequest(http.MethodGet, server.URL))
	require.NoError(t, err)

	start := time.Now()
	_, err = client.Do(context.Background(), NewRequest(http.MethodGet, server.URL))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 2900*time.Millisecond)
}
