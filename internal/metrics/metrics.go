package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the broker.
type Metrics struct {
	// Pipeline metrics
	PipelineQueueDepth  *prometheus.GaugeVec
	RequestsEnqueued    *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec
	SingleflightJoins   *prometheus.CounterVec

	// Getter metrics
	GetterInvocationsTotal *prometheus.CounterVec
	GetterDuration         *prometheus.HistogramVec
	GetterErrorsTotal      *prometheus.CounterVec
	RateLimiterWait        *prometheus.HistogramVec

	// Broker connection metrics
	BrokerConnState      *prometheus.GaugeVec
	BrokerMessagesIn     *prometheus.CounterVec
	BrokerMessagesOut    *prometheus.CounterVec
	BrokerReconnectTotal *prometheus.CounterVec

	// Coverage planner metrics
	CoverageFillRequestsTotal *prometheus.CounterVec
	CoverageGapsDetected      *prometheus.GaugeVec

	// Rate limiting metrics (HTTP front-end)
	RateLimitHitsTotal *prometheus.CounterVec

	// Database metrics
	DBQueryDuration     *prometheus.HistogramVec
	DBConnectionsActive prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		PipelineQueueDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hedgepy_pipeline_queue_depth",
				Help: "Number of pending requests in the pipeline's priority queues",
			},
			[]string{"priority"},
		),
		RequestsEnqueued: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hedgepy_requests_enqueued_total",
				Help: "Total number of requests enqueued onto the pipeline",
			},
			[]string{"vendor", "endpoint", "priority"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hedgepy_request_duration_seconds",
				Help:    "Time from enqueue to response resolution",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"vendor", "endpoint"},
		),
		SingleflightJoins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hedgepy_singleflight_joins_total",
				Help: "Total number of requests that joined an in-flight call instead of dispatching a new one",
			},
			[]string{"vendor", "endpoint"},
		),

		GetterInvocationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hedgepy_getter_invocations_total",
				Help: "Total number of getter invocations per vendor/endpoint",
			},
			[]string{"vendor", "endpoint"},
		),
		GetterDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hedgepy_getter_duration_seconds",
				Help:    "Duration of a getter invocation, including decorator overhead",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"vendor", "endpoint"},
		),
		GetterErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hedgepy_getter_errors_total",
				Help: "Total number of getter invocations that failed",
			},
			[]string{"vendor", "endpoint", "error_code"},
		),
		RateLimiterWait: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hedgepy_ratelimiter_wait_seconds",
				Help:    "Time a getter call spent waiting on its vendor's rate limiter",
				Buckets: []float64{0, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"vendor"},
		),

		BrokerConnState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hedgepy_broker_connection_state",
				Help: "Current state of a broker-protocol vendor's TCP connection (0=disconnected,1=connecting,2=connected)",
			},
			[]string{"vendor"},
		),
		BrokerMessagesIn: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hedgepy_broker_messages_in_total",
				Help: "Total number of inbound messages read from a broker connection",
			},
			[]string{"vendor", "message_type"},
		),
		BrokerMessagesOut: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hedgepy_broker_messages_out_total",
				Help: "Total number of outbound messages written to a broker connection",
			},
			[]string{"vendor", "message_type"},
		),
		BrokerReconnectTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hedgepy_broker_reconnect_total",
				Help: "Total number of broker reconnect attempts",
			},
			[]string{"vendor"},
		),

		CoverageFillRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hedgepy_coverage_fill_requests_total",
				Help: "Total number of fill requests emitted by the coverage planner",
			},
			[]string{"vendor", "endpoint"},
		),
		CoverageGapsDetected: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hedgepy_coverage_gaps_detected",
				Help: "Number of coverage gaps detected on the most recent scheduler cycle",
			},
			[]string{"vendor", "endpoint"},
		),

		RateLimitHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hedgepy_rate_limit_hits_total",
				Help: "Total number of HTTP front-end rate limit hits",
			},
			[]string{"limit_type", "identifier"},
		),

		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hedgepy_db_query_duration_seconds",
				Help:    "Database query duration",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5, 1, 2},
			},
			[]string{"operation", "table"},
		),
		DBConnectionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "hedgepy_db_connections_active",
				Help: "Number of active database connections",
			},
		),
	}
}

// ObserveEnqueue records a request being accepted onto the pipeline.
func (m *Metrics) ObserveEnqueue(vendor, endpoint, priority string) {
	m.RequestsEnqueued.WithLabelValues(vendor, endpoint, priority).Inc()
}

// ObserveRequestResolved records the time between enqueue and the pipeline
// resolving a waiter for this request.
func (m *Metrics) ObserveRequestResolved(vendor, endpoint string, duration time.Duration) {
	m.RequestDuration.WithLabelValues(vendor, endpoint).Observe(duration.Seconds())
}

// ObserveSingleflightJoin records a request that joined an in-flight call.
func (m *Metrics) ObserveSingleflightJoin(vendor, endpoint string) {
	m.SingleflightJoins.WithLabelValues(vendor, endpoint).Inc()
}

// ObserveGetterCall records a single getter invocation and its outcome.
func (m *Metrics) ObserveGetterCall(vendor, endpoint string, duration time.Duration, errCode string) {
	m.GetterInvocationsTotal.WithLabelValues(vendor, endpoint).Inc()
	m.GetterDuration.WithLabelValues(vendor, endpoint).Observe(duration.Seconds())
	if errCode != "" {
		m.GetterErrorsTotal.WithLabelValues(vendor, endpoint, errCode).Inc()
	}
}

// ObserveRateLimiterWait records how long a getter call blocked on its
// vendor's token-bucket rate limiter before being allowed through.
func (m *Metrics) ObserveRateLimiterWait(vendor string, wait time.Duration) {
	m.RateLimiterWait.WithLabelValues(vendor).Observe(wait.Seconds())
}

// SetBrokerConnState sets a broker-protocol vendor's connection state gauge.
// 0=disconnected, 1=connecting, 2=connected.
func (m *Metrics) SetBrokerConnState(vendor string, state int) {
	m.BrokerConnState.WithLabelValues(vendor).Set(float64(state))
}

// ObserveBrokerMessage records an inbound or outbound broker-protocol message.
func (m *Metrics) ObserveBrokerMessage(vendor, messageType string, inbound bool) {
	if inbound {
		m.BrokerMessagesIn.WithLabelValues(vendor, messageType).Inc()
		return
	}
	m.BrokerMessagesOut.WithLabelValues(vendor, messageType).Inc()
}

// ObserveBrokerReconnect records a reconnect attempt for a broker-protocol vendor.
func (m *Metrics) ObserveBrokerReconnect(vendor string) {
	m.BrokerReconnectTotal.WithLabelValues(vendor).Inc()
}

// ObserveCoverageFillRequest records a fill request emitted by the coverage planner.
func (m *Metrics) ObserveCoverageFillRequest(vendor, endpoint string) {
	m.CoverageFillRequestsTotal.WithLabelValues(vendor, endpoint).Inc()
}

// SetCoverageGaps records how many gaps the most recent scheduler cycle found.
func (m *Metrics) SetCoverageGaps(vendor, endpoint string, gaps int) {
	m.CoverageGapsDetected.WithLabelValues(vendor, endpoint).Set(float64(gaps))
}

// ObserveRateLimit records an HTTP front-end rate limit hit.
func (m *Metrics) ObserveRateLimit(limitType, identifier string) {
	m.RateLimitHitsTotal.WithLabelValues(limitType, identifier).Inc()
}

// ObserveDBQuery records a database query.
func (m *Metrics) ObserveDBQuery(operation, table string, duration time.Duration) {
	m.DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}
