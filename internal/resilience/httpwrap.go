package resilience

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// HTTPClient wraps an http.Client with retries, per-attempt timeouts and an
// optional circuit breaker. Requests with a body are buffered so retries can
// replay them.
type HTTPClient struct {
	Client      *http.Client
	Breaker     *Breaker
	BaseBackoff time.Duration
	MaxAttempts int
	Jitter      float64
	Timeout     time.Duration
	Target      string
	Logger      *zerolog.Logger
}

// Do executes the request with retry and breaker semantics. Responses with a
// 5xx status count as failures and are retried; 4xx responses are returned to
// the caller untouched.
func (c *HTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c == nil || c.Client == nil {
		return nil, fmt.Errorf("resilience: http client not configured")
	}
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var body []byte
	if req.Body != nil {
		buf, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("resilience: buffer request body: %w", err)
		}
		body = buf
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c.Breaker != nil && !c.Breaker.Allow() {
			return nil, fmt.Errorf("%w: %s", ErrOpenCircuit, c.Target)
		}

		attemptCtx := ctx
		cancel := func() {}
		if c.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		}

		attemptReq := req.Clone(attemptCtx)
		if body != nil {
			attemptReq.Body = io.NopCloser(bytes.NewReader(body))
			attemptReq.ContentLength = int64(len(body))
		}

		resp, err := c.Client.Do(attemptReq)
		if err == nil && resp.StatusCode < http.StatusInternalServerError {
			cancel()
			if c.Breaker != nil {
				c.Breaker.Report(true)
			}
			return resp, nil
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("resilience: %s returned %d", c.Target, resp.StatusCode)
			_ = resp.Body.Close()
		}
		cancel()
		if c.Breaker != nil {
			c.Breaker.Report(false)
		}
		if c.Logger != nil {
			c.Logger.Warn().
				Str("target", c.Target).
				Int("attempt", attempt).
				Err(lastErr).
				Msg("outbound_request_failed")
		}

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(Backoff(c.BaseBackoff, attempt, c.Jitter)):
		}
	}
	return nil, lastErr
}
