package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// RetryPolicy controls how failed attempts are retried.
type RetryPolicy struct {
	BaseBackoff time.Duration
	MaxAttempts int
	Jitter      float64
}

// HTTPClient issues body-less outbound requests with a per-attempt timeout,
// retries with jittered exponential backoff and a circuit breaker.
type HTTPClient struct {
	Client  *http.Client
	Breaker *Breaker
	Retry   RetryPolicy
	Timeout time.Duration
}

// StatusError is returned when every attempt ended in a retryable status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream responded %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Get performs a GET request. The caller owns the returned body. Responses with
// status 429 or 5xx count as failures and are retried; other statuses are
// returned as-is.
func (cl HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	if cl.Client == nil {
		return nil, errors.New("resilience: http client not configured")
	}
	attempts := cl.Retry.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	target := "default"
	if cl.Breaker != nil {
		target = cl.Breaker.Target()
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if cl.Breaker != nil && !cl.Breaker.Allow(ctx) {
			UpstreamAttempts.WithLabelValues(target, "rejected").Inc()
			return nil, ErrOpenCircuit
		}
		resp, err := cl.attempt(ctx, url)
		ok := err == nil && !retryable(resp.StatusCode)
		if cl.Breaker != nil {
			cl.Breaker.Report(ctx, ok)
		}
		if ok {
			UpstreamAttempts.WithLabelValues(target, "ok").Inc()
			return resp, nil
		}
		UpstreamAttempts.WithLabelValues(target, "error").Inc()
		if err != nil {
			lastErr = err
		} else {
			_ = resp.Body.Close()
			lastErr = &StatusError{StatusCode: resp.StatusCode}
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt == attempts {
			break
		}
		timer := time.NewTimer(Backoff(cl.Retry.BaseBackoff, attempt, cl.Retry.Jitter))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

func (cl HTTPClient) attempt(ctx context.Context, url string) (*http.Response, error) {
	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if cl.Timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, cl.Timeout)
	}
	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := cl.Client.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}
