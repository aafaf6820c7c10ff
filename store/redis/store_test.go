package redis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	distributedjob "github.com/mrkamel/distributed-job"
	redisstore "github.com/mrkamel/distributed-job/store/redis"
)

// setupTestStore starts a Redis container and returns a connected Store.
func setupTestStore(t *testing.T) *redisstore.Store {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	t.Cleanup(func() {
		if termErr := container.Terminate(ctx); termErr != nil {
			t.Logf("terminate container: %v", termErr)
		}
	})

	connStr, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	opts, err := goredis.ParseURL(connStr)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}

	client := goredis.NewClient(opts)
	t.Cleanup(func() {
		_ = client.Close() //nolint:errcheck // test teardown
	})

	s := redisstore.New(client)
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	return s
}

func TestRedisProtocol(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	client := s.Client()

	partsKey := "distributed_jobs:tok:parts"
	stateKey := "distributed_jobs:tok:state"

	t.Run("push is idempotent and counts once", func(t *testing.T) {
		for range 3 {
			if err := s.PushPart(ctx, partsKey, stateKey, "a", time.Minute); err != nil {
				t.Fatalf("PushPart returned error: %v", err)
			}
		}
		if err := s.PushPart(ctx, partsKey, stateKey, "b", time.Minute); err != nil {
			t.Fatalf("PushPart returned error: %v", err)
		}

		count, err := s.Count(ctx, partsKey)
		if err != nil || count != 2 {
			t.Errorf("Count = %d, %v, want 2, nil", count, err)
		}
		total, err := s.Total(ctx, stateKey)
		if err != nil || total != 2 {
			t.Errorf("Total = %d, %v, want 2, nil", total, err)
		}
	})

	t.Run("records use native redis types", func(t *testing.T) {
		partsType, err := client.Type(ctx, partsKey).Result()
		if err != nil || partsType != "set" {
			t.Errorf("TYPE parts = %q, %v, want \"set\", nil", partsType, err)
		}
		stateType, err := client.Type(ctx, stateKey).Result()
		if err != nil || stateType != "hash" {
			t.Errorf("TYPE state = %q, %v, want \"hash\", nil", stateType, err)
		}
	})

	t.Run("mutations slide both ttls", func(t *testing.T) {
		if err := s.MarkStopped(ctx, partsKey, stateKey, 30*time.Second); err != nil {
			t.Fatalf("MarkStopped returned error: %v", err)
		}
		for _, key := range []string{partsKey, stateKey} {
			ttl, err := client.TTL(ctx, key).Result()
			if err != nil {
				t.Fatalf("TTL(%q) returned error: %v", key, err)
			}
			if ttl <= 0 || ttl > 30*time.Second {
				t.Errorf("TTL(%q) = %v, want in (0, 30s]", key, ttl)
			}
		}
	})

	t.Run("remove of absent part is a complete no-op", func(t *testing.T) {
		res, err := s.RemovePart(ctx, partsKey, stateKey, "missing", time.Hour)
		if err != nil {
			t.Fatalf("RemovePart returned error: %v", err)
		}
		if res != (distributedjob.RemoveResult{}) {
			t.Errorf("RemovePart(absent) = %+v, want zero result", res)
		}
		ttl, err := client.TTL(ctx, partsKey).Result()
		if err != nil {
			t.Fatalf("TTL returned error: %v", err)
		}
		if ttl > 30*time.Second {
			t.Errorf("TTL = %v after RemovePart(absent), want unrefreshed (<= 30s)", ttl)
		}
	})

	t.Run("remove reports remaining and closed atomically", func(t *testing.T) {
		res, err := s.RemovePart(ctx, partsKey, stateKey, "a", time.Minute)
		if err != nil {
			t.Fatalf("RemovePart returned error: %v", err)
		}
		want := distributedjob.RemoveResult{Removed: true, Remaining: 1, Closed: false}
		if res != want {
			t.Errorf("RemovePart = %+v, want %+v", res, want)
		}

		if err := s.MarkClosed(ctx, partsKey, stateKey, time.Minute); err != nil {
			t.Fatalf("MarkClosed returned error: %v", err)
		}

		res, err = s.RemovePart(ctx, partsKey, stateKey, "b", time.Minute)
		if err != nil {
			t.Fatalf("RemovePart returned error: %v", err)
		}
		want = distributedjob.RemoveResult{Removed: true, Remaining: 0, Closed: true}
		if res != want {
			t.Errorf("RemovePart = %+v, want %+v", res, want)
		}
	})

	t.Run("push after close is rejected", func(t *testing.T) {
		err := s.PushPart(ctx, partsKey, stateKey, "c", time.Minute)
		if !errors.Is(err, distributedjob.ErrAlreadyClosed) {
			t.Errorf("PushPart on closed job error = %v, want ErrAlreadyClosed", err)
		}
	})

	t.Run("invalid ttl is rejected client side", func(t *testing.T) {
		err := s.PushPart(ctx, partsKey, stateKey, "c", 500*time.Millisecond)
		if !errors.Is(err, distributedjob.ErrInvalidTTL) {
			t.Errorf("PushPart with sub-second ttl error = %v, want ErrInvalidTTL", err)
		}
	})
}

func TestRedisEnumeration(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	partsKey := "distributed_jobs:enum:parts"
	stateKey := "distributed_jobs:enum:state"

	want := map[string]struct{}{"a": {}, "b": {}, "c": {}}
	for part := range want {
		if err := s.PushPart(ctx, partsKey, stateKey, part, time.Minute); err != nil {
			t.Fatalf("PushPart returned error: %v", err)
		}
	}

	got := make(map[string]struct{})
	for part, err := range s.Parts(ctx, partsKey) {
		if err != nil {
			t.Fatalf("Parts yielded error: %v", err)
		}
		got[part] = struct{}{}
	}
	if len(got) != len(want) {
		t.Errorf("Parts = %v, want %v", got, want)
	}
	for part := range want {
		if _, ok := got[part]; !ok {
			t.Errorf("Parts missing %q", part)
		}
	}

	ok, err := s.HasPart(ctx, partsKey, "a")
	if err != nil || !ok {
		t.Errorf("HasPart(a) = %v, %v, want true, nil", ok, err)
	}
	ok, err = s.HasPart(ctx, partsKey, "zzz")
	if err != nil || ok {
		t.Errorf("HasPart(zzz) = %v, %v, want false, nil", ok, err)
	}
}

// TestRedisEndToEnd drives the public API against a real Redis to cover
// the full producer/worker round trip.
func TestRedisEndToEnd(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	coord, err := distributedjob.New(s, distributedjob.WithNamespace("e2e"))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	job := coord.Job(distributedjob.NewToken())

	items := []string{"img-1.png", "img-2.png", "img-3.png"}
	type dispatched struct{ item, part string }
	var work []dispatched

	err = distributedjob.PushEach(ctx, job, func(yield func(string) bool) {
		for _, it := range items {
			if !yield(it) {
				return
			}
		}
	}, func(item, part string) error {
		work = append(work, dispatched{item, part})
		return nil
	})
	if err != nil {
		t.Fatalf("PushEach returned error: %v", err)
	}
	if len(work) != len(items) {
		t.Fatalf("dispatched %d items, want %d", len(work), len(items))
	}

	// Workers in another "process": fresh handles from the bare token.
	for i, w := range work {
		finished, doneErr := coord.Job(job.Token()).Done(ctx, w.part)
		if doneErr != nil {
			t.Fatalf("Done returned error: %v", doneErr)
		}
		wantFinished := i == len(work)-1
		if finished != wantFinished {
			t.Errorf("Done(%q) = %v, want %v", w.part, finished, wantFinished)
		}
	}

	finished, err := job.Finished(ctx)
	if err != nil || !finished {
		t.Errorf("Finished = %v, %v, want true, nil", finished, err)
	}
}
