package soap

import (
	"time"

	"golang.org/x/time/rate"
)

// Recorder receives call metrics. pkg/observability.GatewayMetrics implements it.
type Recorder interface {
	ObserveCall(clientType, action, outcome string, duration time.Duration)
	ObserveOverride(clientType, action string)
	ObserveTransportFailure(clientType, action, reason string)
}

// Breaker guards the exchange. pkg/resilience.CircuitBreaker implements it.
// Call must not invoke fn when it rejects the call.
type Breaker interface {
	Call(fn func() error) error
}

type nopRecorder struct{}

func (nopRecorder) ObserveCall(string, string, string, time.Duration) {}
func (nopRecorder) ObserveOverride(string, string)                    {}
func (nopRecorder) ObserveTransportFailure(string, string, string)    {}

type options struct {
	overrides        *OverrideRegistry
	envelope         Envelope
	recorder         Recorder
	breaker          Breaker
	limiter          *rate.Limiter
	callTimeout      time.Duration
	maxResponseBytes int64
}

// Option configures a Client
type Option func(*options)

// WithOverrides shares registry with other clients and with test harnesses.
// Without it every client gets a private registry.
func WithOverrides(registry *OverrideRegistry) Option {
	return func(o *options) {
		o.overrides = registry
	}
}

// WithEnvelope replaces DefaultEnvelope.
func WithEnvelope(envelope Envelope) Option {
	return func(o *options) {
		o.envelope = envelope
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(o *options) {
		o.recorder = recorder
	}
}

// WithCircuitBreaker fails calls fast while the gateway keeps failing.
// Transport errors and server errors count as failures; client errors do not.
func WithCircuitBreaker(breaker Breaker) Option {
	return func(o *options) {
		o.breaker = breaker
	}
}

// WithRateLimiter throttles outbound exchanges. Override responses are never throttled.
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(o *options) {
		o.limiter = limiter
	}
}

// WithCallTimeout bounds each call, credentials lookup included.
func WithCallTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.callTimeout = timeout
	}
}

// WithMaxResponseBytes rejects bodies larger than n bytes. 0 means no limit.
func WithMaxResponseBytes(n int64) Option {
	return func(o *options) {
		o.maxResponseBytes = n
	}
}
