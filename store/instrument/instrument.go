// Package instrument wraps a distributedjob.Store with structured logging,
// OpenTelemetry tracing, and OTel metrics. If no global TracerProvider or
// MeterProvider is configured, the noop implementations are used and the
// wrapper degrades to debug logging with near-zero overhead.
//
//	s := instrument.New(redisstore.New(client), instrument.WithLogger(logger))
//	coord, err := distributedjob.New(s)
package instrument

import (
	"context"
	"iter"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	distributedjob "github.com/mrkamel/distributed-job"
)

// scopeName is the instrumentation scope for distributedjob telemetry.
const scopeName = "github.com/mrkamel/distributed-job"

// Compile-time interface check.
var _ distributedjob.Store = (*Store)(nil)

// Option configures the wrapper.
type Option func(*Store)

// WithLogger sets the logger used for per-call debug logging.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithTracer sets a specific tracer instead of the global provider's.
// Useful for testing or when multiple providers are in use.
func WithTracer(t trace.Tracer) Option {
	return func(s *Store) { s.tracer = t }
}

// WithMeter sets a specific meter instead of the global provider's.
func WithMeter(m metric.Meter) Option {
	return func(s *Store) { s.meter = m }
}

// Store decorates an inner distributedjob.Store. Every operation is
// wrapped in a span named "distributedjob.store.<op>" and recorded on two
// instruments:
//
//   - distributedjob.store.duration (Float64Histogram, seconds), with
//     attributes: op, status ("ok" or "error")
//   - distributedjob.store.calls (Int64Counter), same attributes
//
// Parts enumeration is delegated untraced: it is a lazy, caller-driven
// read whose lifetime the wrapper cannot bracket.
type Store struct {
	inner  distributedjob.Store
	logger *slog.Logger
	tracer trace.Tracer
	meter  metric.Meter

	duration metric.Float64Histogram
	calls    metric.Int64Counter
}

// New wraps inner with logging, tracing, and metrics.
func New(inner distributedjob.Store, opts ...Option) *Store {
	s := &Store{
		inner:  inner,
		logger: slog.Default(),
		tracer: otel.Tracer(scopeName),
		meter:  otel.Meter(scopeName),
	}
	for _, o := range opts {
		o(s)
	}

	// Instruments are created once; the OTel API guarantees noop
	// fallbacks on error, so creation errors are ignorable.
	s.duration, _ = s.meter.Float64Histogram( //nolint:errcheck // noop fallback guaranteed by OTel API contract
		"distributedjob.store.duration",
		metric.WithDescription("Duration of store operations in seconds"),
		metric.WithUnit("s"),
	)
	s.calls, _ = s.meter.Int64Counter( //nolint:errcheck // noop fallback guaranteed by OTel API contract
		"distributedjob.store.calls",
		metric.WithDescription("Total number of store operations"),
		metric.WithUnit("{call}"),
	)

	return s
}

// observe brackets one store call with a span, the two instruments, and a
// debug log line.
func (s *Store) observe(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "distributedjob.store."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("distributedjob.op", op)),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	attrs := metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("status", status),
	)
	s.duration.Record(ctx, elapsed.Seconds(), attrs)
	s.calls.Add(ctx, 1, attrs)

	if err != nil {
		s.logger.Debug("store call failed",
			slog.String("op", op),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
	} else {
		s.logger.Debug("store call",
			slog.String("op", op),
			slog.Duration("elapsed", elapsed),
		)
	}

	return err
}

// PushPart delegates with instrumentation.
func (s *Store) PushPart(ctx context.Context, partsKey, stateKey, part string, ttl time.Duration) error {
	return s.observe(ctx, "push_part", func(ctx context.Context) error {
		return s.inner.PushPart(ctx, partsKey, stateKey, part, ttl)
	})
}

// RemovePart delegates with instrumentation.
func (s *Store) RemovePart(ctx context.Context, partsKey, stateKey, part string, ttl time.Duration) (distributedjob.RemoveResult, error) {
	var res distributedjob.RemoveResult
	err := s.observe(ctx, "remove_part", func(ctx context.Context) error {
		var innerErr error
		res, innerErr = s.inner.RemovePart(ctx, partsKey, stateKey, part, ttl)
		return innerErr
	})
	return res, err
}

// MarkClosed delegates with instrumentation.
func (s *Store) MarkClosed(ctx context.Context, partsKey, stateKey string, ttl time.Duration) error {
	return s.observe(ctx, "mark_closed", func(ctx context.Context) error {
		return s.inner.MarkClosed(ctx, partsKey, stateKey, ttl)
	})
}

// MarkStopped delegates with instrumentation.
func (s *Store) MarkStopped(ctx context.Context, partsKey, stateKey string, ttl time.Duration) error {
	return s.observe(ctx, "mark_stopped", func(ctx context.Context) error {
		return s.inner.MarkStopped(ctx, partsKey, stateKey, ttl)
	})
}

// Total delegates with instrumentation.
func (s *Store) Total(ctx context.Context, stateKey string) (int64, error) {
	var n int64
	err := s.observe(ctx, "total", func(ctx context.Context) error {
		var innerErr error
		n, innerErr = s.inner.Total(ctx, stateKey)
		return innerErr
	})
	return n, err
}

// Count delegates with instrumentation.
func (s *Store) Count(ctx context.Context, partsKey string) (int64, error) {
	var n int64
	err := s.observe(ctx, "count", func(ctx context.Context) error {
		var innerErr error
		n, innerErr = s.inner.Count(ctx, partsKey)
		return innerErr
	})
	return n, err
}

// Closed delegates with instrumentation.
func (s *Store) Closed(ctx context.Context, stateKey string) (bool, error) {
	var ok bool
	err := s.observe(ctx, "closed", func(ctx context.Context) error {
		var innerErr error
		ok, innerErr = s.inner.Closed(ctx, stateKey)
		return innerErr
	})
	return ok, err
}

// Stopped delegates with instrumentation.
func (s *Store) Stopped(ctx context.Context, stateKey string) (bool, error) {
	var ok bool
	err := s.observe(ctx, "stopped", func(ctx context.Context) error {
		var innerErr error
		ok, innerErr = s.inner.Stopped(ctx, stateKey)
		return innerErr
	})
	return ok, err
}

// Parts delegates directly; see the Store doc for why enumeration is not
// traced.
func (s *Store) Parts(ctx context.Context, partsKey string) iter.Seq2[string, error] {
	return s.inner.Parts(ctx, partsKey)
}

// HasPart delegates with instrumentation.
func (s *Store) HasPart(ctx context.Context, partsKey, part string) (bool, error) {
	var ok bool
	err := s.observe(ctx, "has_part", func(ctx context.Context) error {
		var innerErr error
		ok, innerErr = s.inner.HasPart(ctx, partsKey, part)
		return innerErr
	})
	return ok, err
}

// Ping delegates with instrumentation.
func (s *Store) Ping(ctx context.Context) error {
	return s.observe(ctx, "ping", func(ctx context.Context) error {
		return s.inner.Ping(ctx)
	})
}
