package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	return m.Counter.GetValue()
}

func TestNewRouterMetricsWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRouterMetricsWithRegistry(reg)

	if m.RoutesTotal == nil {
		t.Fatal("RoutesTotal is nil")
	}
	if m.ResolveLatencyHistogram == nil {
		t.Fatal("ResolveLatencyHistogram is nil")
	}

	m.RecordRoute(OutcomeRouted)
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "cmdrouter_route_requests_total" {
			found = true
		}
	}
	if !found {
		t.Error("cmdrouter_route_requests_total not registered")
	}
}

func TestRouterMetrics_RecordRoute(t *testing.T) {
	m := NewRouterMetricsWithRegistry(prometheus.NewRegistry())

	m.RecordRoute(OutcomeRouted)
	m.RecordRoute(OutcomeRouted)
	m.RecordRoute(OutcomeNoHandler)

	if got := counterValue(t, m.RoutesTotal.WithLabelValues(OutcomeRouted)); got != 2 {
		t.Errorf("routed = %f, want 2", got)
	}
	if got := counterValue(t, m.RoutesTotal.WithLabelValues(OutcomeNoHandler)); got != 1 {
		t.Errorf("no_handler = %f, want 1", got)
	}
}

func TestRouterMetrics_RecordRing(t *testing.T) {
	m := NewRouterMetricsWithRegistry(prometheus.NewRegistry())
	m.RecordRing(3, 12)

	metric := &dto.Metric{}
	if err := m.RingVirtualNodes.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if got := metric.Gauge.GetValue(); got != 12 {
		t.Errorf("virtual nodes = %f, want 12", got)
	}
}

func TestRouterMetrics_RecordResolveObservesFetchesOnly(t *testing.T) {
	m := NewRouterMetricsWithRegistry(prometheus.NewRegistry())

	m.RecordResolve(ResultLocal, 0)
	m.RecordResolve(ResultFetched, 20*time.Millisecond)
	m.RecordResolve(ResultUnreachable, time.Second)

	metric := &dto.Metric{}
	if err := m.ResolveLatencyHistogram.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if got := metric.Histogram.GetSampleCount(); got != 2 {
		t.Errorf("sample count = %d, want 2", got)
	}
	if got := counterValue(t, m.ResolveTotal.WithLabelValues(ResultLocal)); got != 1 {
		t.Errorf("local = %f, want 1", got)
	}
}

func TestRouterMetrics_NilIsNoop(t *testing.T) {
	var m *RouterMetrics
	m.RecordRoute(OutcomeRouted)
	m.RecordRing(1, 1)
	m.RecordMembership(SourceLocal, OperationUpdate)
	m.RecordDecodeFailure(SourceGossip)
	m.RecordResolve(ResultFetched, time.Millisecond)
}
