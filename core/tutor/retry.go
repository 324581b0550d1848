package tutor

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var sleepFunc = sleepCtx // mockable

// RetryConfig drives the generic retry combinator.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryConfig matches the documented schedule: up to 3 retries with
// delays of 1s, 2s, 4s.
var DefaultRetryConfig = RetryConfig{
	MaxRetries: 3,
	BaseDelay:  time.Second,
	MaxDelay:   8 * time.Second,
}

// IsRetryable reports whether err belongs to the retryable class: an upstream
// rate limit or a per-attempt deadline. Anything else propagates immediately.
func IsRetryable(err error) bool {
	cause := errors.Cause(err)
	return cause == ErrRateLimited || cause == context.DeadlineExceeded
}

// Retry runs op, retrying retryable failures up to cfg.MaxRetries times with
// exponential delay (BaseDelay doubling per attempt, capped at MaxDelay).
// Non-retryable errors propagate immediately; after the budget is exhausted
// the last error propagates.
func Retry(ctx context.Context, cfg RetryConfig, op func(context.Context) error) error {
	delay := cfg.BaseDelay
	var err error
	for attempt := 0; ; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if !IsRetryable(err) || attempt >= cfg.MaxRetries {
			return err
		}
		if serr := sleepFunc(ctx, delay); serr != nil {
			return serr
		}
		delay *= 2
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
