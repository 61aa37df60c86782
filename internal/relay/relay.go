// Package relay pumps committed cross-chain messages from a source chain to
// the bridge inbox of its destination.
//
// A Relayer owns one route. It reads the route's checkpoint, fetches the next
// messages after it, delivers them in order and advances the checkpoint after
// each one. Delivery is at least once: a crash between delivery and
// checkpoint means the message is delivered again, which the bridge answers
// with ErrDuplicate and the relayer skips.
package relay

//go:generate mockgen -source=relay.go -destination=mocks/mocks.go -package=mocks Source,Sink,Checkpoint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tokenregistry/internal/chain"
	"tokenregistry/internal/platform/metrics"
	"tokenregistry/internal/tunnel"
	dErrors "tokenregistry/pkg/domain-errors"
)

// Source yields committed messages of one origin in sequence order.
type Source interface {
	Fetch(ctx context.Context, after uint64, limit int) ([]chain.Message, error)
}

// Sink accepts messages. Sinks that remember what they applied return
// tunnel.ErrDuplicate for a repeat.
type Sink interface {
	Deliver(ctx context.Context, msg chain.Message) error
}

// Checkpoint stores the last delivered sequence number per route.
type Checkpoint interface {
	Load(ctx context.Context, route string) (uint64, error)
	Save(ctx context.Context, route string, seq uint64) error
}

const (
	outcomeDelivered = "delivered"
	outcomeDuplicate = "duplicate"
	outcomeFailed    = "failed"

	defaultBatchSize = 100
	defaultInterval  = time.Second
	defaultMaxWait   = 30 * time.Second
)

// Relayer moves messages for one route.
type Relayer struct {
	route      string
	source     Source
	sink       Sink
	checkpoint Checkpoint

	batchSize int
	interval  time.Duration
	backoff   Backoff
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

type Option func(*Relayer)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relayer) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Relayer) {
		r.metrics = m
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relayer) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithInterval sets the pause between polls that found nothing to do.
func WithInterval(d time.Duration) Option {
	return func(r *Relayer) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithMaxBackoff caps the wait between failed batches.
func WithMaxBackoff(d time.Duration) Option {
	return func(r *Relayer) {
		r.backoff.MaxWait = d
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(r *Relayer) {
		r.tracer = tracer
	}
}

// New returns a relayer for route.
func New(route string, source Source, sink Sink, checkpoint Checkpoint, opts ...Option) (*Relayer, error) {
	if route == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "route is required")
	}
	if source == nil || sink == nil || checkpoint == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "source, sink and checkpoint are required")
	}
	r := &Relayer{
		route:      route,
		source:     source,
		sink:       sink,
		checkpoint: checkpoint,
		batchSize:  defaultBatchSize,
		interval:   defaultInterval,
		backoff:    Backoff{MaxWait: defaultMaxWait},
		logger:     slog.New(slog.DiscardHandler),
		tracer:     otel.Tracer("tokenregistry/internal/relay"),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.backoff.Report = r.report
	return r, nil
}

func (r *Relayer) Route() string { return r.route }

// RelayOnce delivers one batch and returns how many messages were applied.
// Duplicates advance the checkpoint without counting. Any other delivery
// error stops the batch, leaving the checkpoint at the last good message.
func (r *Relayer) RelayOnce(ctx context.Context) (delivered int, err error) {
	ctx, span := r.tracer.Start(ctx, "relay.batch", trace.WithAttributes(attribute.String("relay.route", r.route)))
	defer func() {
		span.SetAttributes(attribute.Int("relay.delivered", delivered))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	after, err := r.checkpoint.Load(ctx, r.route)
	if err != nil {
		return 0, fmt.Errorf("load checkpoint: %w", err)
	}
	msgs, err := r.source.Fetch(ctx, after, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch after %d: %w", after, err)
	}

	for _, msg := range msgs {
		if msg.Seq <= after {
			continue
		}
		err := r.sink.Deliver(ctx, msg)
		switch {
		case err == nil:
			delivered++
			r.metrics.ObserveRelay(r.route, outcomeDelivered)
		case errors.Is(err, tunnel.ErrDuplicate):
			r.metrics.ObserveRelay(r.route, outcomeDuplicate)
			r.logger.DebugContext(ctx, "skipping duplicate message",
				"route", r.route,
				"seq", msg.Seq,
			)
		default:
			r.metrics.ObserveRelay(r.route, outcomeFailed)
			return delivered, fmt.Errorf("deliver seq %d: %w", msg.Seq, err)
		}

		if err := r.checkpoint.Save(ctx, r.route, msg.Seq); err != nil {
			return delivered, fmt.Errorf("save checkpoint %d: %w", msg.Seq, err)
		}
		r.metrics.SetCheckpoint(r.route, msg.Seq)
		after = msg.Seq
	}
	return delivered, nil
}

// Run relays until ctx is cancelled. Failed batches are retried with
// exponential backoff; an idle poll waits for the configured interval.
func (r *Relayer) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "relayer started", "route", r.route)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		var n int
		err := r.backoff.Retry(ctx, func() error {
			var err error
			n, err = r.RelayOnce(ctx)
			return err
		})
		if err != nil {
			r.logger.InfoContext(ctx, "relayer stopped", "route", r.route)
			return err
		}
		if n > 0 {
			continue
		}
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "relayer stopped", "route", r.route)
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Relayer) report(err error) error {
	r.logger.Warn("relay batch failed",
		"route", r.route,
		"reason", dErrors.ReasonOf(err),
		"error", err,
	)
	return nil
}
