package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cmdrouter"

// Route outcome label values.
const (
	OutcomeRouted    = "routed"
	OutcomeNoHandler = "no_handler"
	OutcomeKeyError  = "key_error"
)

// Membership source label values.
const (
	SourceLocal     = "local"
	SourceGossip    = "gossip"
	SourceDirectory = "directory"
)

// Membership operation label values.
const (
	OperationUpdate = "update"
	OperationRemove = "remove"
)

// Resolve result label values.
const (
	ResultLocal       = "local"
	ResultFetched     = "fetched"
	ResultEmbedded    = "embedded"
	ResultUnavailable = "endpoint_unavailable"
	ResultUnreachable = "unreachable"
)

// DefaultResolveLatencyBuckets cover a LAN round trip up to the resolver timeout.
var DefaultResolveLatencyBuckets = []float64{
	0.0005, // 0.5ms
	0.001,  // 1ms
	0.005,  // 5ms
	0.01,   // 10ms
	0.025,  // 25ms
	0.05,   // 50ms
	0.1,    // 100ms
	0.25,   // 250ms
	0.5,    // 500ms
	1.0,    // 1s
	2.5,    // 2.5s
	5.0,    // 5s
}

// RouterMetrics holds the command router collectors. A nil *RouterMetrics
// records nothing.
type RouterMetrics struct {
	// RoutesTotal counts route calls.
	// Labels: outcome (routed, no_handler, key_error)
	RoutesTotal *prometheus.CounterVec

	// RingMembers is the number of members in the current ring snapshot.
	RingMembers prometheus.Gauge

	// RingVirtualNodes is the number of ring positions in the current snapshot.
	RingVirtualNodes prometheus.Gauge

	// MembershipUpdatesTotal counts applied membership changes.
	// Labels: source (local, gossip, directory), operation (update, remove)
	MembershipUpdatesTotal *prometheus.CounterVec

	// DecodeFailuresTotal counts dropped join messages and routing information bodies.
	// Labels: source (gossip, directory)
	DecodeFailuresTotal *prometheus.CounterVec

	// ResolveTotal counts routing information resolves by result.
	ResolveTotal *prometheus.CounterVec

	// ResolveLatencyHistogram tracks backup fetch latency.
	ResolveLatencyHistogram prometheus.Histogram
}

// NewRouterMetrics creates router metrics registered with the default registry.
func NewRouterMetrics() *RouterMetrics {
	return newRouterMetrics(promauto.With(prometheus.DefaultRegisterer))
}

// NewRouterMetricsWithRegistry creates router metrics registered with reg.
// Useful for tests and for serving an isolated registry.
func NewRouterMetricsWithRegistry(reg prometheus.Registerer) *RouterMetrics {
	return newRouterMetrics(promauto.With(reg))
}

func newRouterMetrics(f promauto.Factory) *RouterMetrics {
	return &RouterMetrics{
		RoutesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "route",
				Name:      "requests_total",
				Help:      "Total number of route calls, broken down by outcome.",
			},
			[]string{"outcome"},
		),
		RingMembers: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "ring",
				Name:      "members",
				Help:      "Number of members in the current ring.",
			},
		),
		RingVirtualNodes: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "ring",
				Name:      "virtual_nodes",
				Help:      "Number of virtual nodes in the current ring.",
			},
		),
		MembershipUpdatesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "membership",
				Name:      "updates_total",
				Help:      "Total number of membership changes applied, by source and operation.",
			},
			[]string{"source", "operation"},
		),
		DecodeFailuresTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "membership",
				Name:      "decode_failures_total",
				Help:      "Total number of dropped malformed membership messages, by source.",
			},
			[]string{"source"},
		),
		ResolveTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "resolver",
				Name:      "requests_total",
				Help:      "Total number of routing information resolves, by result.",
			},
			[]string{"result"},
		),
		ResolveLatencyHistogram: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "resolver",
				Name:      "fetch_latency_seconds",
				Help:      "Latency of remote routing information fetches in seconds.",
				Buckets:   DefaultResolveLatencyBuckets,
			},
		),
	}
}

func (m *RouterMetrics) RecordRoute(outcome string) {
	if m == nil {
		return
	}
	m.RoutesTotal.WithLabelValues(outcome).Inc()
}

// RecordRing publishes the size of a freshly swapped ring.
func (m *RouterMetrics) RecordRing(members, virtualNodes int) {
	if m == nil {
		return
	}
	m.RingMembers.Set(float64(members))
	m.RingVirtualNodes.Set(float64(virtualNodes))
}

func (m *RouterMetrics) RecordMembership(source, operation string) {
	if m == nil {
		return
	}
	m.MembershipUpdatesTotal.WithLabelValues(source, operation).Inc()
}

func (m *RouterMetrics) RecordDecodeFailure(source string) {
	if m == nil {
		return
	}
	m.DecodeFailuresTotal.WithLabelValues(source).Inc()
}

// RecordResolve counts a resolve. elapsed is observed only for remote fetches.
func (m *RouterMetrics) RecordResolve(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ResolveTotal.WithLabelValues(result).Inc()
	if result == ResultFetched || result == ResultUnreachable {
		m.ResolveLatencyHistogram.Observe(elapsed.Seconds())
	}
}
