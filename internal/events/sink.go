package events

import (
	"context"
	"log/slog"

	"tokenregistry/internal/chain"
	"tokenregistry/internal/platform/metrics"
)

// Sink writes logs to a Store as the chain commits them. A failed write is
// logged and dropped; the chain never waits on storage errors.
type Sink struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Sink)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sink) {
		s.metrics = m
	}
}

func NewSink(store Store, opts ...Option) *Sink {
	s := &Sink{store: store, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sink) Consume(ctx context.Context, logs []chain.Log) {
	records := s.convert(ctx, logs)
	if len(records) == 0 {
		return
	}
	if err := s.store.Append(ctx, records); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist chain events",
			"chain_id", records[0].ChainID,
			"block", records[0].Block,
			"error", err,
		)
		return
	}
	s.metrics.AddEventsPersisted(records[0].ChainID, len(records))
}

func (s *Sink) convert(ctx context.Context, logs []chain.Log) []Record {
	records := make([]Record, 0, len(logs))
	for _, l := range logs {
		r, err := FromLog(l)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping unencodable event",
				"chain_id", l.ChainID,
				"event", l.Event.EventName(),
				"error", err,
			)
			continue
		}
		records = append(records, r)
	}
	return records
}

// Queue is a chain.EventSink that hands records to a Worker, so the chain
// lock is not held across database round trips. When the queue is full the
// commit blocks until the worker catches up or ctx ends.
type Queue struct {
	sink  *Sink
	inbox chan []Record
}

func NewQueue(size int, opts ...Option) *Queue {
	return &Queue{sink: NewSink(nil, opts...), inbox: make(chan []Record, size)}
}

func (q *Queue) Consume(ctx context.Context, logs []chain.Log) {
	records := q.sink.convert(ctx, logs)
	if len(records) == 0 {
		return
	}
	select {
	case q.inbox <- records:
	case <-ctx.Done():
		q.sink.logger.WarnContext(ctx, "dropping chain events, context done",
			"chain_id", records[0].ChainID,
			"block", records[0].Block,
		)
	}
}

// Worker drains a Queue into a Store.
type Worker struct {
	store Store
	queue *Queue
}

func NewWorker(store Store, queue *Queue) *Worker {
	return &Worker{store: store, queue: queue}
}

// Run persists batches until ctx is cancelled. Storage errors are logged;
// the batch is not retried.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case records := <-w.queue.inbox:
			if err := w.store.Append(ctx, records); err != nil {
				w.queue.sink.logger.ErrorContext(ctx, "failed to persist chain events",
					"chain_id", records[0].ChainID,
					"block", records[0].Block,
					"error", err,
				)
				continue
			}
			w.queue.sink.metrics.AddEventsPersisted(records[0].ChainID, len(records))
		}
	}
}
