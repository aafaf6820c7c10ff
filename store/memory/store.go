// Package memory is a fully in-memory implementation of
// distributedjob.Store. Safe for concurrent access. Intended for unit
// testing and development; nothing survives the process.
//
// TTLs are honored lazily: expired records are treated as absent (and
// dropped) the next time they are touched, which is indistinguishable
// from eager expiry through the Store interface.
package memory

import (
	"context"
	"iter"
	"sync"
	"time"

	distributedjob "github.com/mrkamel/distributed-job"
)

// Ensure Store implements distributedjob.Store at compile time.
var _ distributedjob.Store = (*Store)(nil)

// partsRecord mirrors the set-typed parts record.
type partsRecord struct {
	members  map[string]struct{}
	expireAt time.Time
}

// stateRecord mirrors the hash-typed state record.
type stateRecord struct {
	total    int64
	closed   bool
	stopped  bool
	expireAt time.Time
}

// Store is an in-memory distributedjob.Store. The zero value is not
// usable; create one with New.
type Store struct {
	mu     sync.Mutex
	parts  map[string]*partsRecord
	states map[string]*stateRecord
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		parts:  make(map[string]*partsRecord),
		states: make(map[string]*stateRecord),
	}
}

// Ping always succeeds for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// ──────────────────────────────────────────────────
// Atomic mutations
// ──────────────────────────────────────────────────

// PushPart adds part if absent, bumps total when newly added, and
// refreshes both record TTLs, all under one lock acquisition.
func (s *Store) PushPart(_ context.Context, partsKey, stateKey, part string, ttl time.Duration) error {
	if ttl < time.Second {
		return distributedjob.ErrInvalidTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stateFor(stateKey, true)
	if st.closed {
		return distributedjob.ErrAlreadyClosed
	}

	pr := s.partsFor(partsKey, true)
	if _, exists := pr.members[part]; !exists {
		pr.members[part] = struct{}{}
		st.total++
	}
	s.refresh(pr, st, ttl)
	return nil
}

// RemovePart removes part if present. An absent part is a complete no-op,
// TTLs included.
func (s *Store) RemovePart(_ context.Context, partsKey, stateKey, part string, ttl time.Duration) (distributedjob.RemoveResult, error) {
	if ttl < time.Second {
		return distributedjob.RemoveResult{}, distributedjob.ErrInvalidTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pr := s.partsFor(partsKey, false)
	if pr == nil {
		return distributedjob.RemoveResult{}, nil
	}
	if _, exists := pr.members[part]; !exists {
		return distributedjob.RemoveResult{}, nil
	}
	delete(pr.members, part)
	if len(pr.members) == 0 {
		// Redis drops a set on removal of its last member; mirror that.
		delete(s.parts, partsKey)
		pr = nil
	}

	st := s.stateFor(stateKey, true)
	s.refresh(pr, st, ttl)

	remaining := int64(0)
	if pr != nil {
		remaining = int64(len(pr.members))
	}
	return distributedjob.RemoveResult{
		Removed:   true,
		Remaining: remaining,
		Closed:    st.closed,
	}, nil
}

// MarkClosed sets the closed flag and refreshes both record TTLs.
func (s *Store) MarkClosed(_ context.Context, partsKey, stateKey string, ttl time.Duration) error {
	return s.markFlag(partsKey, stateKey, ttl, func(st *stateRecord) { st.closed = true })
}

// MarkStopped sets the stopped flag and refreshes both record TTLs.
func (s *Store) MarkStopped(_ context.Context, partsKey, stateKey string, ttl time.Duration) error {
	return s.markFlag(partsKey, stateKey, ttl, func(st *stateRecord) { st.stopped = true })
}

func (s *Store) markFlag(partsKey, stateKey string, ttl time.Duration, set func(*stateRecord)) error {
	if ttl < time.Second {
		return distributedjob.ErrInvalidTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stateFor(stateKey, true)
	set(st)
	s.refresh(s.partsFor(partsKey, false), st, ttl)
	return nil
}

// ──────────────────────────────────────────────────
// Reads
// ──────────────────────────────────────────────────

// Total reads the total field, 0 when absent.
func (s *Store) Total(_ context.Context, stateKey string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stateFor(stateKey, false)
	if st == nil {
		return 0, nil
	}
	return st.total, nil
}

// Count reads the parts set cardinality, 0 when absent.
func (s *Store) Count(_ context.Context, partsKey string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pr := s.partsFor(partsKey, false)
	if pr == nil {
		return 0, nil
	}
	return int64(len(pr.members)), nil
}

// Closed reads the closed flag, false when absent.
func (s *Store) Closed(_ context.Context, stateKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stateFor(stateKey, false)
	return st != nil && st.closed, nil
}

// Stopped reads the stopped flag, false when absent.
func (s *Store) Stopped(_ context.Context, stateKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stateFor(stateKey, false)
	return st != nil && st.stopped, nil
}

// Parts enumerates a point-in-time copy of the set members. Each ranging
// takes a fresh copy, matching the restartable, best-effort contract.
func (s *Store) Parts(_ context.Context, partsKey string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		s.mu.Lock()
		pr := s.partsFor(partsKey, false)
		members := make([]string, 0)
		if pr != nil {
			for m := range pr.members {
				members = append(members, m)
			}
		}
		s.mu.Unlock()

		for _, m := range members {
			if !yield(m, nil) {
				return
			}
		}
	}
}

// HasPart reports set membership.
func (s *Store) HasPart(_ context.Context, partsKey, part string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pr := s.partsFor(partsKey, false)
	if pr == nil {
		return false, nil
	}
	_, ok := pr.members[part]
	return ok, nil
}

// TTL returns the remaining time-to-live of a record, 0 when the record
// is absent or expired. Test helper; not part of distributedjob.Store.
func (s *Store) TTL(key string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expireAt time.Time
	if pr := s.partsFor(key, false); pr != nil {
		expireAt = pr.expireAt
	} else if st := s.stateFor(key, false); st != nil {
		expireAt = st.expireAt
	} else {
		return 0
	}
	return time.Until(expireAt)
}

// ──────────────────────────────────────────────────
// Internals
// ──────────────────────────────────────────────────

// partsFor returns the live parts record for key, dropping it when
// expired. With create set, a missing record is created (unexpired, TTL
// assigned by the caller via refresh). Callers must hold s.mu.
func (s *Store) partsFor(key string, create bool) *partsRecord {
	pr, ok := s.parts[key]
	if ok && s.expired(pr.expireAt) {
		delete(s.parts, key)
		ok = false
	}
	if !ok {
		if !create {
			return nil
		}
		pr = &partsRecord{members: make(map[string]struct{})}
		s.parts[key] = pr
	}
	return pr
}

// stateFor is partsFor for the state record.
func (s *Store) stateFor(key string, create bool) *stateRecord {
	st, ok := s.states[key]
	if ok && s.expired(st.expireAt) {
		delete(s.states, key)
		ok = false
	}
	if !ok {
		if !create {
			return nil
		}
		st = &stateRecord{}
		s.states[key] = st
	}
	return st
}

func (s *Store) expired(expireAt time.Time) bool {
	return !expireAt.IsZero() && time.Now().After(expireAt)
}

// refresh slides both expiries to now+ttl. Either record may be nil.
func (s *Store) refresh(pr *partsRecord, st *stateRecord, ttl time.Duration) {
	expireAt := time.Now().Add(ttl)
	if pr != nil {
		pr.expireAt = expireAt
	}
	if st != nil {
		st.expireAt = expireAt
	}
}
