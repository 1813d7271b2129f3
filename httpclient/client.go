package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/opencite/litgraph/common"
	"github.com/opencite/litgraph/ratelimit"
)

// Client wraps net/http with a per-source token-bucket limiter and
// exponential-backoff retry, so every ingestion source client shares one
// place that enforces the provider's request budget.
type Client struct {
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	userAgent  string
}

// New builds a Client bound to limiter. A nil limiter disables rate
// limiting, useful for tests.
func New(limiter *ratelimit.Limiter, userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{},
		limiter:    limiter,
		userAgent:  userAgent,
	}
}

// Do executes req, waiting on the rate limiter first, then retrying on
// non-4xx failures with the configured backoff.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req.Method == "" {
		return nil, fmt.Errorf("httpclient: method is required")
	}
	if req.URL == "" {
		return nil, fmt.Errorf("httpclient: url is required")
	}

	if c.limiter != nil {
		if err := c.limiter.Acquire(ctx, 1); err != nil {
			return nil, newError(SourceRateLimiter, 0, false, err)
		}
	}

	logger := common.RequestLogger("httpclient", req.Method, req.URL).WithContext(ctx)

	start := time.Now()
	attempts := req.RetryCount + 1

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		resp, err := c.executeOnce(ctx, req)
		if err == nil {
			resp.Duration = time.Since(start)
			logger.WithFields(map[string]any{
				"status":      resp.StatusCode,
				"duration_ms": resp.Duration.Milliseconds(),
			}).Debug("request completed")
			return resp, nil
		}
		lastErr = err
		logger.WithField("attempt", attempt+1).WithError(err).Debug("request attempt failed")

		if resp != nil && resp.IsClientError() {
			resp.Duration = time.Since(start)
			return resp, err
		}
		if attempt < attempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(calculateBackoff(attempt, req.RetryBackoff, req.RetryInterval)):
			}
		}
	}

	return nil, fmt.Errorf("httpclient: request failed after %d attempts: %w", attempts, lastErr)
}

func (c *Client) executeOnce(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	client := c.httpClient
	if req.Timeout > 0 {
		cloned := *client
		cloned.Timeout = req.Timeout
		client = &cloned
	}
	if !req.FollowRedirect {
		client = cloneWithRedirectPolicy(client, func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		})
	} else if req.MaxRedirects > 0 {
		max := req.MaxRedirects
		client = cloneWithRedirectPolicy(client, func(_ *http.Request, via []*http.Request) error {
			if len(via) >= max {
				return fmt.Errorf("stopped after %d redirects", max)
			}
			return nil
		})
	}

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, newError(SourceTransport, 0, true, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, newError(SourceTransport, 0, true, err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    make(map[string]string, len(httpResp.Header)),
		Body:       body,
		BodyString: string(body),
	}
	for key, values := range httpResp.Header {
		if len(values) > 0 {
			resp.Headers[key] = values[0]
		}
	}

	if !resp.IsSuccess() {
		return resp, newError(SourceStatus, resp.StatusCode, resp.IsServerError(), fmt.Errorf("%s", resp.Status))
	}
	return resp, nil
}

func (c *Client) buildRequest(ctx context.Context, req *Request) (*http.Request, error) {
	var body io.Reader
	var contentType string

	switch {
	case req.JSONBody != "":
		body = strings.NewReader(req.JSONBody)
		contentType = "application/json"
	case req.RawBody != nil:
		body = bytes.NewReader(req.RawBody)
		contentType = "application/octet-stream"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = c.userAgent
	}
	if userAgent != "" {
		httpReq.Header.Set("User-Agent", userAgent)
	}

	return httpReq, nil
}

func cloneWithRedirectPolicy(client *http.Client, policy func(*http.Request, []*http.Request) error) *http.Client {
	cloned := *client
	cloned.CheckRedirect = policy
	return &cloned
}

// calculateBackoff computes the delay before the next retry attempt.
func calculateBackoff(attempt int, strategy string, initial time.Duration) time.Duration {
	if strategy == "linear" {
		return initial * time.Duration(attempt+1)
	}
	return initial * time.Duration(1<<uint(attempt))
}
