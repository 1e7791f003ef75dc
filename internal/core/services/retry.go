package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
)

// Retry tuning for transient provider failures.
var (
	retryAttempts  = 3
	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 10 * time.Second
)

// retryTransient runs fn until it succeeds, fails with a non-transient
// error, or has been attempted retryAttempts times. Delays grow
// exponentially with full jitter.
func retryTransient(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			if werr := sleepCtx(ctx, backoff(attempt)); werr != nil {
				return werr
			}
		}
		err = fn(ctx)
		if err == nil || !errors.Is(err, domain.ErrTransientProvider) {
			return err
		}
	}
	return err
}

// backoff returns a random delay in [0, base*2^(attempt-1)], capped at retryMaxDelay.
func backoff(attempt int) time.Duration {
	if retryBaseDelay <= 0 {
		return 0
	}
	d := retryBaseDelay << (attempt - 1)
	if d <= 0 || d > retryMaxDelay {
		d = retryMaxDelay
	}
	return rand.N(d + 1)
}

// jitter returns a random duration in [lo, hi].
func jitter(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}

// sleepCtx sleeps for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
