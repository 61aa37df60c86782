package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the node.
type Metrics struct {
	ProtocolCalls    *prometheus.CounterVec
	RelayedMessages  *prometheus.CounterVec
	RelayCheckpoint  *prometheus.GaugeVec
	EventsPersisted  *prometheus.CounterVec
	EndpointDuration *prometheus.HistogramVec
	RateLimited      *prometheus.CounterVec
}

// New creates the node metrics on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ProtocolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenregistry_protocol_calls_total",
			Help: "Protocol operations by operation and result",
		}, []string{"operation", "result"}),
		RelayedMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenregistry_relayed_messages_total",
			Help: "Cross-chain messages handled by the relayer by route and outcome",
		}, []string{"route", "outcome"}),
		RelayCheckpoint: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tokenregistry_relay_checkpoint",
			Help: "Sequence number of the last message delivered on a route",
		}, []string{"route"}),
		EventsPersisted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenregistry_events_persisted_total",
			Help: "Chain events written to the event store",
		}, []string{"chain_id"}),
		EndpointDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tokenregistry_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		RateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenregistry_ratelimit_decisions_total",
			Help: "Rate limit decisions on authenticated endpoints by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveCall records the result of a protocol operation. result is the
// failure reason or "ok".
func (m *Metrics) ObserveCall(operation, result string) {
	if m == nil {
		return
	}
	m.ProtocolCalls.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) ObserveRelay(route, outcome string) {
	if m == nil {
		return
	}
	m.RelayedMessages.WithLabelValues(route, outcome).Inc()
}

func (m *Metrics) SetCheckpoint(route string, seq uint64) {
	if m == nil {
		return
	}
	m.RelayCheckpoint.WithLabelValues(route).Set(float64(seq))
}

func (m *Metrics) AddEventsPersisted(chainID uint64, n int) {
	if m == nil {
		return
	}
	m.EventsPersisted.WithLabelValues(strconv.FormatUint(chainID, 10)).Add(float64(n))
}

func (m *Metrics) ObserveEndpoint(method, route string, d time.Duration) {
	if m == nil {
		return
	}
	m.EndpointDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveRateLimit counts one limiter decision. Decisions served by the
// fallback store carry a degraded_ prefix.
func (m *Metrics) ObserveRateLimit(outcome string) {
	if m == nil {
		return
	}
	m.RateLimited.WithLabelValues(outcome).Inc()
}
