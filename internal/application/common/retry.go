package common

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/erp/ledger-engine/internal/domain/shared"
)

// RetryConfig controls how often an operation that lost an optimistic lock
// race is run again
type RetryConfig struct {
	// MaxRetries is the number of additional attempts after the first one
	MaxRetries int
	// Backoff is multiplied by the attempt number before each retry
	Backoff time.Duration
}

// DefaultRetryConfig returns 3 retries with a 20ms linear backoff
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		Backoff:    20 * time.Millisecond,
	}
}

// linearBackOff waits step, 2×step, 3×step...
type linearBackOff struct {
	step  time.Duration
	tries int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.tries++
	return time.Duration(b.tries) * b.step
}

func (b *linearBackOff) Reset() { b.tries = 0 }

// RetryOnConflict runs fn and runs it again while it fails with
// shared.ErrConcurrencyConflict, up to cfg.MaxRetries extra times.
// Any other error, or a cancelled context, is returned immediately.
// fn must start from freshly loaded state on every attempt.
func RetryOnConflict(ctx context.Context, cfg RetryConfig, fn func(attempt int) error) error {
	attempt := 0
	op := func() (struct{}, error) {
		err := fn(attempt)
		attempt++
		if err != nil && !errors.Is(err, shared.ErrConcurrencyConflict) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(&linearBackOff{step: cfg.Backoff}),
		backoff.WithMaxTries(uint(max(cfg.MaxRetries, 0))+1),
		backoff.WithMaxElapsedTime(0),
	)
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Err
	}
	return err
}
