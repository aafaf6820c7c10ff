package distributedjob

import (
	"context"
	"iter"
	"strconv"
)

// PushEach pushes one part per element of seq, assigning sequential part
// identifiers "0", "1", ... and invoking fn with each element and its
// part. It closes the job after the input is exhausted and returns the
// first error from a push, from fn, or from closing.
//
// fn runs one iteration behind the pushes: the part for element i is
// already visible in the store before fn sees element i-1, and the job is
// closed before fn sees the final element. Both orderings matter when fn
// hands the part straight to concurrent execution. A worker may call Done
// the moment it receives a part, and if the last part's Done could race
// ahead of the close, it would observe an open job with zero parts and
// the finished signal would never fire. Closing strictly before the last
// dispatch makes that race impossible.
//
// PushEach fails with ErrAlreadyClosed, before consuming seq, when the
// job is already closed. An empty sequence still closes the job.
func PushEach[T any](ctx context.Context, j *Job, seq iter.Seq[T], fn func(item T, part string) error) error {
	closed, err := j.Closed(ctx)
	if err != nil {
		return err
	}
	if closed {
		return ErrAlreadyClosed
	}

	var (
		prev     T
		prevPart string
		pending  bool
	)

	i := 0
	for item := range seq {
		part := strconv.Itoa(i)
		if err := j.Push(ctx, part); err != nil {
			return err
		}
		if pending {
			if err := fn(prev, prevPart); err != nil {
				return err
			}
		}
		prev, prevPart, pending = item, part, true
		i++
	}

	if err := j.close(ctx); err != nil {
		return err
	}
	if pending {
		return fn(prev, prevPart)
	}
	return nil
}
