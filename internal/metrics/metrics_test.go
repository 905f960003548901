package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsInitialization(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	if m == nil {
		t.Fatal("metrics collector should not be nil")
	}

	if m.PipelineQueueDepth == nil {
		t.Error("PipelineQueueDepth should be initialized")
	}
	if m.GetterInvocationsTotal == nil {
		t.Error("GetterInvocationsTotal should be initialized")
	}
	if m.GetterDuration == nil {
		t.Error("GetterDuration should be initialized")
	}
	if m.BrokerConnState == nil {
		t.Error("BrokerConnState should be initialized")
	}
	if m.CoverageFillRequestsTotal == nil {
		t.Error("CoverageFillRequestsTotal should be initialized")
	}
}

func TestObserveEnqueue(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveEnqueue("fred", "series_observations", "normal")

	count := promtest.ToFloat64(m.RequestsEnqueued.WithLabelValues("fred", "series_observations", "normal"))
	if count != 1 {
		t.Errorf("expected 1 enqueued request, got %.0f", count)
	}
}

func TestObserveRequestResolved(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveRequestResolved("fred", "series_observations", 250*time.Millisecond)

	if m.RequestDuration == nil {
		t.Error("RequestDuration should be initialized")
	}
}

func TestObserveSingleflightJoin(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveSingleflightJoin("fred", "series_observations")

	count := promtest.ToFloat64(m.SingleflightJoins.WithLabelValues("fred", "series_observations"))
	if count != 1 {
		t.Errorf("expected 1 singleflight join, got %.0f", count)
	}
}

func TestObserveGetterCall(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveGetterCall("edgar", "filings", 1*time.Second, "")
	calls := promtest.ToFloat64(m.GetterInvocationsTotal.WithLabelValues("edgar", "filings"))
	if calls != 1 {
		t.Errorf("expected 1 getter invocation, got %.0f", calls)
	}

	m.ObserveGetterCall("edgar", "filings", 1*time.Second, "upstream_transport_failure")
	errs := promtest.ToFloat64(m.GetterErrorsTotal.WithLabelValues("edgar", "filings", "upstream_transport_failure"))
	if errs != 1 {
		t.Errorf("expected 1 getter error, got %.0f", errs)
	}
}

func TestObserveRateLimiterWait(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveRateLimiterWait("fred", 50*time.Millisecond)

	if m.RateLimiterWait == nil {
		t.Error("RateLimiterWait should be initialized")
	}
}

func TestSetBrokerConnState(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.SetBrokerConnState("ibkr", 2)

	state := promtest.ToFloat64(m.BrokerConnState.WithLabelValues("ibkr"))
	if state != 2 {
		t.Errorf("expected connection state 2, got %.0f", state)
	}
}

func TestObserveBrokerMessage(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveBrokerMessage("ibkr", "historical_data", true)
	m.ObserveBrokerMessage("ibkr", "req_historical_data", false)

	in := promtest.ToFloat64(m.BrokerMessagesIn.WithLabelValues("ibkr", "historical_data"))
	if in != 1 {
		t.Errorf("expected 1 inbound message, got %.0f", in)
	}
	out := promtest.ToFloat64(m.BrokerMessagesOut.WithLabelValues("ibkr", "req_historical_data"))
	if out != 1 {
		t.Errorf("expected 1 outbound message, got %.0f", out)
	}
}

func TestObserveCoverageFillRequest(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveCoverageFillRequest("fred", "series_observations")

	count := promtest.ToFloat64(m.CoverageFillRequestsTotal.WithLabelValues("fred", "series_observations"))
	if count != 1 {
		t.Errorf("expected 1 fill request, got %.0f", count)
	}
}

func TestSetCoverageGaps(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.SetCoverageGaps("fred", "series_observations", 3)

	gaps := promtest.ToFloat64(m.CoverageGapsDetected.WithLabelValues("fred", "series_observations"))
	if gaps != 3 {
		t.Errorf("expected 3 coverage gaps, got %.0f", gaps)
	}
}

func TestObserveRateLimit(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveRateLimit("per_ip", "192.0.2.1")

	hits := promtest.ToFloat64(m.RateLimitHitsTotal.WithLabelValues("per_ip", "192.0.2.1"))
	if hits != 1 {
		t.Errorf("expected 1 rate limit hit, got %.0f", hits)
	}
}

func TestObserveDBQuery(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveDBQuery("SELECT", "fred_series_observations", 50*time.Millisecond)

	if m.DBQueryDuration == nil {
		t.Error("DBQueryDuration should be initialized")
	}
}
