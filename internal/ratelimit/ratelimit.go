// Package ratelimit bounds how many state-changing requests one caller may
// submit per sliding window. Counters live in Redis when configured; an
// in-memory store takes over behind a circuit breaker while Redis is down.
package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"tokenregistry/internal/platform/metrics"
	"tokenregistry/pkg/platform/circuit"
	"tokenregistry/pkg/platform/sentinel"
)

const keyPrefix = "ratelimit:caller:"

// Result describes the window after one Allow call.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// Degraded is set when the decision came from the fallback store.
	Degraded bool
}

// RetryAfter is the whole number of seconds until the window frees a slot,
// never less than one.
func (r *Result) RetryAfter(now time.Time) int {
	secs := int(math.Ceil(r.ResetAt.Sub(now).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// Store counts requests for a key in a sliding window and admits one more if
// the window has room. Implementations return sentinel.ErrUnavailable when
// their backend cannot be reached.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

type Limiter struct {
	primary  Store
	fallback Store
	breaker  *circuit.Breaker
	limit    int
	window   time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Limiter)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		l.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Limiter) {
		l.metrics = m
	}
}

// WithFallback serves decisions from store while the primary is unavailable.
func WithFallback(store Store) Option {
	return func(l *Limiter) {
		l.fallback = store
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(l *Limiter) {
		l.breaker = b
	}
}

// New admits limit requests per caller per window.
func New(primary Store, limit int, window time.Duration, opts ...Option) (*Limiter, error) {
	if primary == nil {
		return nil, errors.New("ratelimit: store is required")
	}
	if limit <= 0 || window <= 0 {
		return nil, errors.New("ratelimit: limit and window must be positive")
	}
	l := &Limiter{
		primary: primary,
		limit:   limit,
		window:  window,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.breaker == nil {
		l.breaker = circuit.New("ratelimit")
	}
	return l, nil
}

// Allow records one request by caller.
func (l *Limiter) Allow(ctx context.Context, caller string) (*Result, error) {
	key := keyPrefix + caller
	res, err := l.primary.Allow(ctx, key, l.limit, l.window)
	if err != nil {
		if l.fallback == nil || !errors.Is(err, sentinel.ErrUnavailable) {
			l.metrics.ObserveRateLimit("error")
			return nil, err
		}
		if _, change := l.breaker.RecordFailure(); change.Opened {
			l.logger.WarnContext(ctx, "rate limit store unavailable, using fallback",
				"breaker", l.breaker.Name(),
				"error", err,
			)
		}
		return l.degraded(ctx, key)
	}
	if l.fallback != nil {
		usePrimary, change := l.breaker.RecordSuccess()
		if change.Closed {
			l.logger.InfoContext(ctx, "rate limit store recovered", "breaker", l.breaker.Name())
		}
		if !usePrimary {
			return l.degraded(ctx, key)
		}
	}
	l.observe(res)
	return res, nil
}

func (l *Limiter) degraded(ctx context.Context, key string) (*Result, error) {
	res, err := l.fallback.Allow(ctx, key, l.limit, l.window)
	if err != nil {
		l.metrics.ObserveRateLimit("error")
		return nil, err
	}
	res.Degraded = true
	l.observe(res)
	return res, nil
}

func (l *Limiter) observe(res *Result) {
	outcome := "limited"
	if res.Allowed {
		outcome = "allowed"
	}
	if res.Degraded {
		outcome = "degraded_" + outcome
	}
	l.metrics.ObserveRateLimit(outcome)
}
