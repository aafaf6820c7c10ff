package distributedjob_test

import (
	"errors"
	"regexp"
	"testing"
	"time"

	distributedjob "github.com/mrkamel/distributed-job"
	"github.com/mrkamel/distributed-job/store/memory"
)

func TestNew_RequiresStore(t *testing.T) {
	t.Parallel()

	if _, err := distributedjob.New(nil); !errors.Is(err, distributedjob.ErrNoStore) {
		t.Errorf("New(nil) error = %v, want ErrNoStore", err)
	}
}

func TestJob_TTLSelection(t *testing.T) {
	t.Parallel()

	coord, err := distributedjob.New(memory.New(),
		distributedjob.WithDefaultTTL(time.Minute),
	)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	tests := []struct {
		name string
		job  *distributedjob.Job
		want time.Duration
	}{
		{"default ttl", coord.Job("a"), time.Minute},
		{"per-job override", coord.Job("b", distributedjob.WithTTL(time.Hour)), time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.job.TTL(); got != tt.want {
				t.Errorf("TTL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJob_PureConstruction(t *testing.T) {
	t.Parallel()

	coord, err := distributedjob.New(memory.New())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	job := coord.Job("some-token")
	if job.Token() != "some-token" {
		t.Errorf("Token() = %q, want %q", job.Token(), "some-token")
	}

	// Building a handle must not touch the store.
	count, err := coord.Store().Count(t.Context(), "distributed_jobs:some-token:parts")
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 0 {
		t.Errorf("store touched during construction: count = %d", count)
	}
}

func TestNewToken(t *testing.T) {
	t.Parallel()

	hexToken := regexp.MustCompile(`^[0-9a-f]{32}$`)

	seen := make(map[string]struct{})
	for range 100 {
		tok := distributedjob.NewToken()
		if !hexToken.MatchString(tok) {
			t.Fatalf("NewToken() = %q, want 32 lowercase hex chars", tok)
		}
		if _, dup := seen[tok]; dup {
			t.Fatalf("NewToken() produced duplicate %q", tok)
		}
		seen[tok] = struct{}{}
	}
}
