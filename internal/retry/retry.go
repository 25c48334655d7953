// Package retry provides an explicit retry policy applied imperatively
// around external call sites, keeping attempt budgets and backoff visible
// instead of hiding them in decorators or transports.
package retry

import (
	"context"
	"math/rand"
	"time"
)

// Policy bounds retries for one class of external call.
type Policy struct {
	// MaxAttempts is the total attempt budget, first try included.
	MaxAttempts int
	// Backoff returns the sleep before attempt n (n starts at 1 after the
	// first failure). Nil means no sleep.
	Backoff func(attempt int) time.Duration
	// Retryable reports whether an error is worth another attempt. Nil
	// means every error is retryable.
	Retryable func(err error) bool
}

// Jittered returns a short backoff of base*attempt plus up to jitter of
// random slack, matching polite scraper pacing.
func Jittered(base, jitter time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return time.Duration(attempt)*base + time.Duration(rand.Int63n(int64(jitter)+1))
	}
}

// Do runs fn under the policy. It returns nil on the first success, the
// last error once the budget is spent or the error is not retryable, and
// the context error if cancelled between attempts.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}
		if p.Backoff != nil {
			select {
			case <-time.After(p.Backoff(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		} else if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return lastErr
}
