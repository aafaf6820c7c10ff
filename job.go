package distributedjob

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"
)

// Job is a handle on one distributed job instance, identified by a token.
// The handle itself holds no mutable state (all state lives in the store
// under the job's two records), so handles are safe for concurrent use and
// freely constructed in every process that touches the job.
//
// A job accepts parts while open. Closing (done implicitly by PushEach and
// PushAll once their input is exhausted) makes the part set final; the job
// is finished once it is closed and every part has been reported done. The
// orthogonal stopped flag is a purely advisory cancellation signal.
type Job struct {
	store    Store
	token    string
	partsKey string
	stateKey string
	ttl      time.Duration
	logger   *slog.Logger
}

// Token returns the opaque token identifying this job.
func (j *Job) Token() string { return j.token }

// TTL returns the sliding expiry applied by this handle's mutations.
func (j *Job) TTL() time.Duration { return j.ttl }

// Push adds a part to the job. Pushing the same part again is a no-op:
// the part is counted into Total at most once no matter how many callers
// submit it concurrently. Push fails with ErrAlreadyClosed once the job
// has been closed.
func (j *Job) Push(ctx context.Context, part string) error {
	if err := j.store.PushPart(ctx, j.partsKey, j.stateKey, part, j.ttl); err != nil {
		return fmt.Errorf("distributedjob: push part %q: %w", part, err)
	}
	return nil
}

// Done reports completion of a part. It returns true exactly once per job:
// when this call removed the last outstanding part of a closed job. All
// other calls return false, whether the part is unknown, already
// reported, or the job is still open or has parts remaining. Reporting an
// unknown part is defined, harmless behavior, not an error.
func (j *Job) Done(ctx context.Context, part string) (bool, error) {
	res, err := j.store.RemovePart(ctx, j.partsKey, j.stateKey, part, j.ttl)
	if err != nil {
		return false, fmt.Errorf("distributedjob: done part %q: %w", part, err)
	}
	return res.Removed && res.Remaining == 0 && res.Closed, nil
}

// PushAll pushes every element of parts as a part identifier, in order,
// then closes the job. Duplicate elements are pushed idempotently. It
// fails with ErrAlreadyClosed, before consuming parts, when the job is
// already closed.
func (j *Job) PushAll(ctx context.Context, parts iter.Seq[string]) error {
	closed, err := j.Closed(ctx)
	if err != nil {
		return err
	}
	if closed {
		return ErrAlreadyClosed
	}
	for part := range parts {
		if err := j.Push(ctx, part); err != nil {
			return err
		}
	}
	return j.close(ctx)
}

// OpenParts enumerates the parts not yet reported done. The sequence is
// finite and restartable (ranging over it again re-reads current state)
// but it is a best-effort status view: under concurrent Push and Done
// calls, members may be missed or seen twice.
func (j *Job) OpenParts(ctx context.Context) iter.Seq2[string, error] {
	return j.store.Parts(ctx, j.partsKey)
}

// OpenPart reports whether part has been pushed and not yet reported
// done. Same consistency caveat as OpenParts.
func (j *Job) OpenPart(ctx context.Context, part string) (bool, error) {
	ok, err := j.store.HasPart(ctx, j.partsKey, part)
	if err != nil {
		return false, fmt.Errorf("distributedjob: open part %q: %w", part, err)
	}
	return ok, nil
}

// Total returns the number of distinct parts ever accepted, 0 when the
// job does not exist.
func (j *Job) Total(ctx context.Context) (int64, error) {
	n, err := j.store.Total(ctx, j.stateKey)
	if err != nil {
		return 0, fmt.Errorf("distributedjob: total: %w", err)
	}
	return n, nil
}

// Count returns the number of parts not yet reported done, 0 when the job
// does not exist.
func (j *Job) Count(ctx context.Context) (int64, error) {
	n, err := j.store.Count(ctx, j.partsKey)
	if err != nil {
		return 0, fmt.Errorf("distributedjob: count: %w", err)
	}
	return n, nil
}

// Closed reports whether the job has stopped accepting new parts.
func (j *Job) Closed(ctx context.Context) (bool, error) {
	closed, err := j.store.Closed(ctx, j.stateKey)
	if err != nil {
		return false, fmt.Errorf("distributedjob: closed: %w", err)
	}
	return closed, nil
}

// Finished reports whether the job is closed and every part has been
// reported done. It is a derived status read, not a transition signal;
// for the one-shot signal see Done.
func (j *Job) Finished(ctx context.Context) (bool, error) {
	closed, err := j.Closed(ctx)
	if err != nil {
		return false, err
	}
	if !closed {
		return false, nil
	}
	count, err := j.Count(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// Stop raises the advisory cancellation flag and refreshes both record
// TTLs in one transaction. Idempotent, and it never blocks any other
// operation: Push and Done keep working, and cooperating workers abort
// only because they choose to check Stopped.
func (j *Job) Stop(ctx context.Context) error {
	if err := j.store.MarkStopped(ctx, j.partsKey, j.stateKey, j.ttl); err != nil {
		return fmt.Errorf("distributedjob: stop: %w", err)
	}
	j.logger.Debug("job stopped", slog.String("token", j.token))
	return nil
}

// Stopped reports whether Stop has been called for this job.
func (j *Job) Stopped(ctx context.Context) (bool, error) {
	stopped, err := j.store.Stopped(ctx, j.stateKey)
	if err != nil {
		return false, fmt.Errorf("distributedjob: stopped: %w", err)
	}
	return stopped, nil
}

// close marks the job as accepting no further parts and refreshes both
// record TTLs in one transaction. Idempotent: closing again only
// re-refreshes the TTLs. Invoked by PushEach and PushAll once their
// input is exhausted.
func (j *Job) close(ctx context.Context) error {
	if err := j.store.MarkClosed(ctx, j.partsKey, j.stateKey, j.ttl); err != nil {
		return fmt.Errorf("distributedjob: close: %w", err)
	}
	return nil
}
