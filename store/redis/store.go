// Package redis implements distributedjob.Store on Redis. The parts record
// is a native Set, the state record a Hash, and expiry rides on Redis key
// TTLs. The push and remove compound operations run as server-side Lua
// scripts so their add-if-absent / remove-if-present steps are indivisible;
// close and stop use MULTI/EXEC transactions.
//
// Usage:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	s := redisstore.New(client)
//	if err := s.Ping(ctx); err != nil { ... }
package redis

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	distributedjob "github.com/mrkamel/distributed-job"
)

// Compile-time interface check.
var _ distributedjob.Store = (*Store)(nil)

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store implements distributedjob.Store backed by Redis.
type Store struct {
	client redis.Cmdable
	logger *slog.Logger
}

// New creates a new Redis-backed store. The caller owns the Redis client
// lifecycle; Store never closes it. Any redis.Cmdable works, including
// cluster and ring clients.
func New(client redis.Cmdable, opts ...Option) *Store {
	s := &Store{client: client, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Client returns the underlying Redis client.
func (s *Store) Client() redis.Cmdable { return s.client }

// Ping verifies the Redis connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
