package backoff

import (
	"context"
	"errors"
	"time"

	distributedjob "github.com/mrkamel/distributed-job"
)

// Retry invokes fn up to attempts times, sleeping per strategy between
// failures, and returns the first success or the last error. A nil
// strategy means DefaultStrategy.
//
// Retrying is only correct because every distributedjob operation is
// idempotent; Retry is meant to wrap exactly one such call. Two error
// classes are never retried: context cancellation (the wait honors ctx
// and returns its error), and the caller-bug sentinels ErrAlreadyClosed
// and ErrInvalidTTL, which no retry can fix.
func Retry(ctx context.Context, strategy Strategy, attempts int, fn func(ctx context.Context) error) error {
	if strategy == nil {
		strategy = DefaultStrategy()
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if permanent(err) || attempt == attempts {
			return err
		}

		timer := time.NewTimer(strategy.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

// permanent reports whether retrying err can never succeed.
func permanent(err error) bool {
	return errors.Is(err, distributedjob.ErrAlreadyClosed) ||
		errors.Is(err, distributedjob.ErrInvalidTTL) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
