package backoff_test

import (
	"context"
	"errors"
	"testing"
	"time"

	distributedjob "github.com/mrkamel/distributed-job"
	"github.com/mrkamel/distributed-job/backoff"
)

func TestConstant_ReturnsFixedDelay(t *testing.T) {
	c := backoff.NewConstant(5 * time.Second)
	for attempt := 1; attempt <= 10; attempt++ {
		if got := c.Delay(attempt); got != 5*time.Second {
			t.Errorf("Delay(%d) = %v, want %v", attempt, got, 5*time.Second)
		}
	}
}

func TestExponential_DoublesAndCaps(t *testing.T) {
	e := backoff.NewExponential(time.Second, 10*time.Second)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second}, // capped
		{8, 10 * time.Second},
	}
	for _, tt := range tests {
		if got := e.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestExponentialWithJitter_StaysInRange(t *testing.T) {
	e := backoff.NewExponentialWithJitter(time.Second, 8*time.Second)

	for attempt := 1; attempt <= 6; attempt++ {
		ceiling := min(time.Duration(1<<(attempt-1))*time.Second, 8*time.Second)
		for range 50 {
			if got := e.Delay(attempt); got < 0 || got > ceiling {
				t.Fatalf("Delay(%d) = %v, want in [0, %v]", attempt, got, ceiling)
			}
		}
	}
}

// ──────────────────────────────────────────────────
// Retry
// ──────────────────────────────────────────────────

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	t.Parallel()
	transient := errors.New("connection reset")

	calls := 0
	err := backoff.Retry(context.Background(), backoff.NewConstant(time.Millisecond), 5,
		func(context.Context) error {
			calls++
			if calls < 3 {
				return transient
			}
			return nil
		})
	if err != nil {
		t.Fatalf("Retry returned error: %v", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestRetry_ReturnsLastErrorWhenExhausted(t *testing.T) {
	t.Parallel()
	transient := errors.New("connection reset")

	calls := 0
	err := backoff.Retry(context.Background(), backoff.NewConstant(time.Millisecond), 3,
		func(context.Context) error {
			calls++
			return transient
		})
	if !errors.Is(err, transient) {
		t.Errorf("Retry error = %v, want %v", err, transient)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestRetry_PermanentErrorsNotRetried(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{"already closed", distributedjob.ErrAlreadyClosed},
		{"invalid ttl", distributedjob.ErrInvalidTTL},
		{"wrapped already closed", errors.Join(errors.New("push part"), distributedjob.ErrAlreadyClosed)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := backoff.Retry(context.Background(), backoff.NewConstant(time.Millisecond), 5,
				func(context.Context) error {
					calls++
					return tt.err
				})
			if !errors.Is(err, tt.err) {
				t.Errorf("Retry error = %v, want %v", err, tt.err)
			}
			if calls != 1 {
				t.Errorf("fn called %d times, want 1", calls)
			}
		})
	}
}

func TestRetry_ContextCancellationAbortsWait(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := backoff.Retry(ctx, backoff.NewConstant(time.Hour), 3,
		func(context.Context) error {
			return errors.New("transient")
		})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry error = %v, want context.Canceled", err)
	}
}
