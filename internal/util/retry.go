// ABOUTME: Retry utilities for network calls with exponential backoff
// ABOUTME: Shared by store scrapers and the LLM sentiment client
package util

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig controls how often and how slowly an operation is retried
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryConfig returns the retry policy used by the scrapers
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   30 * time.Second,
	}
}

// Retry runs op until it succeeds, returns a permanent error, the retry
// budget is spent or ctx is done. Errors wrapped with Permanent stop at once.
func Retry(ctx context.Context, cfg RetryConfig, op func() error) error {
	b := backoff.NewExponentialBackOff()
	if cfg.BaseDelay > 0 {
		b.InitialInterval = cfg.BaseDelay
	}
	if cfg.MaxDelay > 0 {
		b.MaxInterval = cfg.MaxDelay
	}
	// Attempts are bounded by MaxRetries, not wall time
	b.MaxElapsedTime = 0

	var policy backoff.BackOff = b
	if cfg.MaxRetries >= 0 {
		policy = backoff.WithMaxRetries(b, uint64(cfg.MaxRetries))
	}
	return backoff.Retry(op, backoff.WithContext(policy, ctx))
}

// RetryValue is Retry for operations that produce a value
func RetryValue[T any](ctx context.Context, cfg RetryConfig, op func() (T, error)) (T, error) {
	var result T
	err := Retry(ctx, cfg, func() error {
		v, err := op()
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// StatusError reports a non-2xx HTTP response
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// CheckStatus turns a non-2xx status into a StatusError. Client errors
// other than 429 are permanent; 429 and 5xx stay retriable.
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	err := &StatusError{StatusCode: resp.StatusCode, URL: resp.Request.URL.String()}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return Permanent(err)
	}
	return err
}
