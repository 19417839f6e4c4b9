package database

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds a store call with a per-attempt timeout and a capped
// number of exponential-backoff retries. The zero value makes one attempt
// without a deadline.
type RetryPolicy struct {
	Timeout         time.Duration
	MaxRetries      uint64
	InitialInterval time.Duration
}

// Do runs op until it succeeds, returns a non-transient error, or the
// retries are exhausted.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	eb := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		eb.InitialInterval = p.InitialInterval
	}

	b := backoff.WithContext(backoff.WithMaxRetries(eb, p.MaxRetries), ctx)

	return backoff.Retry(func() error {
		attemptCtx, cancel := p.attemptContext(ctx)
		defer cancel()

		err := op(attemptCtx)
		if err == nil {
			return nil
		}

		if !IsTransient(err) {
			return backoff.Permanent(err)
		}

		return err
	}, b)
}

func (p RetryPolicy) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.Timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, p.Timeout)
}
