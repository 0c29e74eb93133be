package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kevin07696/soap-gateway/pkg/resilience"
)

const namespace = "soap_gateway"

// GatewayMetrics records gateway client activity. It satisfies soap.Recorder.
type GatewayMetrics struct {
	callsTotal        *prometheus.CounterVec
	callDuration      *prometheus.HistogramVec
	overridesTotal    *prometheus.CounterVec
	transportFailures *prometheus.CounterVec
	breakerState      *prometheus.GaugeVec
}

// NewGatewayMetrics registers the gateway collectors with reg.
// Passing prometheus.DefaultRegisterer exposes them on the default gatherer.
func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	factory := promauto.With(reg)

	return &GatewayMetrics{
		callsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_total",
			Help:      "Total number of gateway action calls that reached the transport",
		}, []string{
			"client_type", // payment, recurring, ...
			"action",      // SOAPAction header value
			"outcome",     // success, client_error, server_error, transport_error, error
		}),

		callDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_duration_seconds",
			Help:      "Duration of gateway exchanges in seconds",
			// Buckets: 50ms to 60s (gateway batch actions are slow)
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"client_type", "action"}),

		overridesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overrides_consumed_total",
			Help:      "Calls answered from the override slot without a network exchange",
		}, []string{"client_type", "action"}),

		transportFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_failures_total",
			Help:      "Exchanges that failed before a response was classified",
		}, []string{
			"client_type",
			"action",
			"reason", // certificate, dns, timeout, canceled, connection, read, request, circuit_open
		}),

		breakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state per client type (0=closed, 1=open, 2=half-open)",
		}, []string{"client_type"}),
	}
}

// ObserveCall records one classified or failed exchange
func (m *GatewayMetrics) ObserveCall(clientType, action, outcome string, duration time.Duration) {
	m.callsTotal.WithLabelValues(clientType, action, outcome).Inc()
	m.callDuration.WithLabelValues(clientType, action).Observe(duration.Seconds())
}

// ObserveOverride records a call answered from the override slot
func (m *GatewayMetrics) ObserveOverride(clientType, action string) {
	m.overridesTotal.WithLabelValues(clientType, action).Inc()
}

// ObserveTransportFailure records a failed exchange by reason
func (m *GatewayMetrics) ObserveTransportFailure(clientType, action, reason string) {
	m.transportFailures.WithLabelValues(clientType, action, reason).Inc()
}

// BreakerStateChange matches resilience.CircuitBreakerConfig.OnStateChange
func (m *GatewayMetrics) BreakerStateChange(name string, _, to resilience.State) {
	m.breakerState.WithLabelValues(name).Set(float64(to))
}
