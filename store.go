package distributedjob

import (
	"context"
	"iter"
	"time"
)

// RemoveResult reports the outcome of an atomic part removal.
type RemoveResult struct {
	// Removed is true when the part was present and has been removed.
	Removed bool
	// Remaining is the cardinality of the parts set after the removal.
	// Only meaningful when Removed is true.
	Remaining int64
	// Closed reports whether the job was closed at the time of removal.
	// Only meaningful when Removed is true.
	Closed bool
}

// Store is the persistence contract for job part tracking. A backend must
// execute PushPart, RemovePart, MarkClosed and MarkStopped as single
// indivisible server-side operations: splitting any of them into separate
// check-then-act client calls reintroduces exactly the races they exist to
// prevent. The read methods are plain reads with no isolation guarantee
// against concurrent writers.
//
// All mutating operations refresh the expiry of both records to the given
// TTL. Backends reject TTLs below one second with ErrInvalidTTL.
type Store interface {
	// PushPart atomically adds part to the parts set if absent,
	// increments the total field by one when it was newly added, and
	// refreshes both record TTLs. It returns ErrAlreadyClosed when the
	// job's closed flag is set; the check happens inside the same atomic
	// operation.
	PushPart(ctx context.Context, partsKey, stateKey, part string, ttl time.Duration) error

	// RemovePart atomically removes part from the parts set. When the
	// part was absent it returns a zero RemoveResult and performs no
	// further effect, not even a TTL refresh. When present, it refreshes
	// both record TTLs and reports the remaining cardinality and the
	// closed flag as observed inside the same atomic operation.
	RemovePart(ctx context.Context, partsKey, stateKey, part string, ttl time.Duration) (RemoveResult, error)

	// MarkClosed atomically sets the closed flag and refreshes both
	// record TTLs in one transaction. Idempotent.
	MarkClosed(ctx context.Context, partsKey, stateKey string, ttl time.Duration) error

	// MarkStopped atomically sets the stopped flag and refreshes both
	// record TTLs in one transaction. Idempotent.
	MarkStopped(ctx context.Context, partsKey, stateKey string, ttl time.Duration) error

	// Total reads the total field, 0 when the record is absent.
	Total(ctx context.Context, stateKey string) (int64, error)

	// Count reads the cardinality of the parts set, 0 when absent.
	Count(ctx context.Context, partsKey string) (int64, error)

	// Closed reads the closed flag, false when absent.
	Closed(ctx context.Context, stateKey string) (bool, error)

	// Stopped reads the stopped flag, false when absent.
	Stopped(ctx context.Context, stateKey string) (bool, error)

	// Parts enumerates the current members of the parts set. The
	// sequence is finite and restartable: ranging over it again re-reads
	// current state. Under concurrent writers members may be missed or
	// seen twice.
	Parts(ctx context.Context, partsKey string) iter.Seq2[string, error]

	// HasPart reports whether part is currently a member of the parts
	// set.
	HasPart(ctx context.Context, partsKey, part string) (bool, error)

	// Ping verifies the store connection is alive.
	Ping(ctx context.Context) error
}
