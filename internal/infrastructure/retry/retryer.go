package retry

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	apppromotion "github.com/crm/backend/internal/application/promotion"
	"github.com/crm/backend/internal/infrastructure/config"
)

// HTTPError carries the status code of a failed HTTP call so the retry
// policy can tell transient failures from permanent ones.
type HTTPError struct {
	Status int
	Body   string
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http status %d", e.Status)
	}
	return fmt.Sprintf("http status %d: %s", e.Status, e.Body)
}

// StatusCode returns the HTTP status code
func (e *HTTPError) StatusCode() int {
	return e.Status
}

// BackoffRetryer retries operations with exponential backoff. Only errors
// that look transient are retried; client errors fail fast.
type BackoffRetryer struct {
	cfg config.RetryConfig
	log *zap.Logger
}

// NewBackoffRetryer creates a new BackoffRetryer
func NewBackoffRetryer(cfg config.RetryConfig, log *zap.Logger) *BackoffRetryer {
	return &BackoffRetryer{cfg: cfg, log: log}
}

// Do runs fn with the configured retry policy. The operation name only
// feeds logging.
func (r *BackoffRetryer) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.cfg.InitialInterval
	policy.MaxInterval = r.cfg.MaxInterval
	policy.MaxElapsedTime = r.cfg.MaxElapsedTime

	attempts := 0
	operation := func() error {
		attempts++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		// The caller giving up is final; a timed-out call is not
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		if !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		if attempts >= r.cfg.MaxAttempts {
			return backoff.Permanent(err)
		}
		r.log.Debug("retrying operation",
			zap.String("operation", op),
			zap.Int("attempt", attempts),
			zap.Error(err))
		return err
	}

	return backoff.Retry(operation, backoff.WithContext(policy, ctx))
}

// IsRetryable reports whether an error is worth retrying: timeouts,
// network faults and transient HTTP statuses are, everything else is not.
// Cancellation of the caller's own context is handled in Do; here a
// context error only means the call itself ran out of time.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status >= 500 || httpErr.Status == 429 || httpErr.Status == 408
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	// Unknown errors default to retryable; the attempt cap bounds the cost
	return true
}

// Ensure BackoffRetryer implements Retryer
var _ apppromotion.Retryer = (*BackoffRetryer)(nil)
