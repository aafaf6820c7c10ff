package distributedjob

import (
	"log/slog"
	"time"
)

// DefaultTTL is the sliding expiry applied to job records when no other
// TTL is configured. Active jobs refresh it on every mutation; a job idle
// for this long is reclaimed by the store.
const DefaultTTL = 24 * time.Hour

// Coordinator holds the shared settings (store handle, key namespace,
// default TTL) and manufactures Job handles bound to a token. It is
// stateless and safe for concurrent use; one Coordinator typically lives
// for the whole process.
type Coordinator struct {
	store      Store
	namespace  string
	defaultTTL time.Duration
	logger     *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator) error

// WithNamespace prefixes every record key with "namespace:". Jobs created
// under different namespaces never see each other's state.
func WithNamespace(ns string) Option {
	return func(c *Coordinator) error {
		c.namespace = ns
		return nil
	}
}

// WithDefaultTTL sets the sliding expiry applied to job records when the
// Job is built without an explicit TTL.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *Coordinator) error {
		c.defaultTTL = ttl
		return nil
	}
}

// WithLogger sets the structured logger handed to Job handles.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) error {
		c.logger = l
		return nil
	}
}

// New creates a Coordinator backed by the given store.
func New(s Store, opts ...Option) (*Coordinator, error) {
	if s == nil {
		return nil, ErrNoStore
	}
	c := &Coordinator{
		store:      s,
		defaultTTL: DefaultTTL,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Store returns the coordinator's store.
func (c *Coordinator) Store() Store { return c.store }

// Namespace returns the configured key namespace, empty when unset.
func (c *Coordinator) Namespace() string { return c.namespace }

// JobOption configures a single Job handle.
type JobOption func(*Job)

// WithTTL overrides the coordinator's default TTL for this job.
func WithTTL(ttl time.Duration) JobOption {
	return func(j *Job) { j.ttl = ttl }
}

// Job builds a handle for the job identified by token. Construction is
// pure: no store access happens until an operation is invoked, and any
// number of handles for the same token, in this or any other process,
// refer to the same job. The token is an opaque correlation key chosen by
// the caller; see NewToken.
func (c *Coordinator) Job(token string, opts ...JobOption) *Job {
	j := &Job{
		store:    c.store,
		token:    token,
		partsKey: partsKey(c.namespace, token),
		stateKey: stateKey(c.namespace, token),
		ttl:      c.defaultTTL,
		logger:   c.logger,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}
