// Package retry decides whether a failed sub-batch is attempted again and how long
// to wait before doing so.
package retry

import (
	"context"
	"time"

	config "github.com/tigerroll/buildmeta/pkg/batch/core/config"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/exception"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/logger"
)

// maxBackoff caps the exponential backoff.
const maxBackoff = 30 * time.Second

// RetryPolicy is an interface that defines retry logic.
type RetryPolicy interface {
	// ShouldRetry determines if a given error is retryable.
	ShouldRetry(err error) bool
	// GetBackoffInterval returns the wait before attempt+1, attempt starting at 1.
	GetBackoffInterval(attempt int) time.Duration
	// GetMaxAttempts returns the maximum number of attempts, the first one included.
	GetMaxAttempts() int
}

// exponentialRetryPolicy retries temporary errors, doubling the interval after each attempt.
type exponentialRetryPolicy struct {
	maxAttempts     int
	initialInterval time.Duration
}

// NewRetryPolicy creates a RetryPolicy. maxAttempts below 1 is treated as 1.
func NewRetryPolicy(maxAttempts int, initialInterval time.Duration) RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &exponentialRetryPolicy{maxAttempts: maxAttempts, initialInterval: initialInterval}
}

// NewRetryPolicyProvider builds the policy from the batch configuration.
func NewRetryPolicyProvider(cfg *config.BatchConfig) RetryPolicy {
	return NewRetryPolicy(cfg.RetryMaxAttempts, cfg.RetryBackoff())
}

func (p *exponentialRetryPolicy) GetMaxAttempts() int {
	return p.maxAttempts
}

// ShouldRetry follows the retry flag of a BatchError and otherwise classifies
// the error as temporary or not.
func (p *exponentialRetryPolicy) ShouldRetry(err error) bool {
	return exception.IsTemporary(err)
}

func (p *exponentialRetryPolicy) GetBackoffInterval(attempt int) time.Duration {
	if p.initialInterval <= 0 || attempt < 1 {
		return 0
	}
	d := p.initialInterval
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

// Do calls fn until it succeeds, fails with an error the policy does not retry,
// runs out of attempts or ctx is done. fn receives the attempt number, starting at 1.
// The last error is returned.
func Do(ctx context.Context, policy RetryPolicy, name string, fn func(ctx context.Context, attempt int) error) error {
	var err error
	for attempt := 1; attempt <= policy.GetMaxAttempts(); attempt++ {
		err = fn(ctx, attempt)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !policy.ShouldRetry(err) || attempt == policy.GetMaxAttempts() {
			return err
		}

		wait := policy.GetBackoffInterval(attempt)
		logger.Warnf("%s: attempt %d/%d failed, retrying in %s: %v", name, attempt, policy.GetMaxAttempts(), wait, err)
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return err
			case <-timer.C:
			}
		}
	}
	return err
}

var _ RetryPolicy = (*exponentialRetryPolicy)(nil)
