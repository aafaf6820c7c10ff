package redis

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	goredis "github.com/redis/go-redis/v9"

	distributedjob "github.com/mrkamel/distributed-job"
)

// State hash field names. Part of the shared protocol; do not rename.
const (
	fieldTotal   = "total"
	fieldClosed  = "closed"
	fieldStopped = "stopped"
)

// PushPart runs the push script: closed guard, add-if-absent, conditional
// total increment, and dual TTL refresh as one server-side operation.
func (s *Store) PushPart(ctx context.Context, partsKey, stateKey, part string, ttl time.Duration) error {
	seconds, err := ttlSeconds(ttl)
	if err != nil {
		return err
	}

	added, err := pushScript.Run(ctx, s.client, []string{partsKey, stateKey}, part, seconds).Int()
	if err != nil {
		return fmt.Errorf("distributedjob/redis: push script: %w", err)
	}
	if added < 0 {
		return distributedjob.ErrAlreadyClosed
	}
	return nil
}

// RemovePart runs the remove script. The remaining cardinality and the
// closed flag are read inside the script, so the finished decision made
// from them is race-free.
func (s *Store) RemovePart(ctx context.Context, partsKey, stateKey, part string, ttl time.Duration) (distributedjob.RemoveResult, error) {
	seconds, err := ttlSeconds(ttl)
	if err != nil {
		return distributedjob.RemoveResult{}, err
	}

	vals, err := removeScript.Run(ctx, s.client, []string{partsKey, stateKey}, part, seconds).Int64Slice()
	if err != nil {
		return distributedjob.RemoveResult{}, fmt.Errorf("distributedjob/redis: remove script: %w", err)
	}
	if len(vals) != 3 {
		return distributedjob.RemoveResult{}, fmt.Errorf("distributedjob/redis: remove script returned %d values, want 3", len(vals))
	}

	return distributedjob.RemoveResult{
		Removed:   vals[0] == 1,
		Remaining: vals[1],
		Closed:    vals[2] == 1,
	}, nil
}

// MarkClosed sets closed=1 and slides both TTLs in one MULTI/EXEC.
func (s *Store) MarkClosed(ctx context.Context, partsKey, stateKey string, ttl time.Duration) error {
	return s.markFlag(ctx, partsKey, stateKey, fieldClosed, ttl)
}

// MarkStopped sets stopped=1 and slides both TTLs in one MULTI/EXEC.
func (s *Store) MarkStopped(ctx context.Context, partsKey, stateKey string, ttl time.Duration) error {
	return s.markFlag(ctx, partsKey, stateKey, fieldStopped, ttl)
}

func (s *Store) markFlag(ctx context.Context, partsKey, stateKey, field string, ttl time.Duration) error {
	seconds, err := ttlSeconds(ttl)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, stateKey, field, 1)
	pipe.Expire(ctx, partsKey, time.Duration(seconds)*time.Second)
	pipe.Expire(ctx, stateKey, time.Duration(seconds)*time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("distributedjob/redis: set %s: %w", field, err)
	}
	return nil
}

// Total reads the total field, 0 when the record or field is absent.
func (s *Store) Total(ctx context.Context, stateKey string) (int64, error) {
	n, err := s.client.HGet(ctx, stateKey, fieldTotal).Int64()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("distributedjob/redis: get total: %w", err)
	}
	return n, nil
}

// Count reads the parts set cardinality. SCARD on a missing key is 0.
func (s *Store) Count(ctx context.Context, partsKey string) (int64, error) {
	n, err := s.client.SCard(ctx, partsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("distributedjob/redis: count parts: %w", err)
	}
	return n, nil
}

// Closed reads the closed flag, false when absent.
func (s *Store) Closed(ctx context.Context, stateKey string) (bool, error) {
	return s.flag(ctx, stateKey, fieldClosed)
}

// Stopped reads the stopped flag, false when absent.
func (s *Store) Stopped(ctx context.Context, stateKey string) (bool, error) {
	return s.flag(ctx, stateKey, fieldStopped)
}

func (s *Store) flag(ctx context.Context, stateKey, field string) (bool, error) {
	val, err := s.client.HGet(ctx, stateKey, field).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("distributedjob/redis: get %s: %w", field, err)
	}
	return val == "1", nil
}

// Parts enumerates set members with SSCAN. Each ranging starts a fresh
// scan; SSCAN guarantees members present for the whole scan are seen, but
// concurrent writers can cause misses and duplicates, matching the
// best-effort contract.
func (s *Store) Parts(ctx context.Context, partsKey string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		it := s.client.SScan(ctx, partsKey, 0, "", 0).Iterator()
		for it.Next(ctx) {
			if !yield(it.Val(), nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			yield("", fmt.Errorf("distributedjob/redis: scan parts: %w", err))
		}
	}
}

// HasPart reports set membership via SISMEMBER.
func (s *Store) HasPart(ctx context.Context, partsKey, part string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, partsKey, part).Result()
	if err != nil {
		return false, fmt.Errorf("distributedjob/redis: has part: %w", err)
	}
	return ok, nil
}

// ttlSeconds converts a TTL to whole seconds for EXPIRE, rejecting values
// EXPIRE would interpret as deletion.
func ttlSeconds(ttl time.Duration) (int64, error) {
	if ttl < time.Second {
		return 0, distributedjob.ErrInvalidTTL
	}
	return int64(ttl / time.Second), nil
}
