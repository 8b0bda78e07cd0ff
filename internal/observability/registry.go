package observability

import "time"

// MetricsRegistry provides an interface for recording console metrics so
// components never touch the Prometheus globals directly.
type MetricsRegistry interface {
	// HTTP Request metrics
	IncrementRequests(endpoint, method, status string)
	RecordRequestLatency(endpoint, method string, duration time.Duration)

	// Backend metrics
	IncrementBackendCalls(route, outcome string)
	RecordBackendLatency(route string, duration time.Duration)

	// Demo fallback metrics
	IncrementFallbacks(entity, source string)

	// Mutation metrics
	IncrementMutations(entity, action, outcome string)
	IncrementRateLimitHits(entity string)

	// Settlement metrics
	SetPendingSettlementAmount(amount float64)
}

// PrometheusRegistry implements MetricsRegistry using the global Prometheus metrics
type PrometheusRegistry struct{}

// NewPrometheusRegistry creates a new PrometheusRegistry
func NewPrometheusRegistry() *PrometheusRegistry {
	return &PrometheusRegistry{}
}

func (r *PrometheusRegistry) IncrementRequests(endpoint, method, status string) {
	RequestCount.WithLabelValues(endpoint, method, status).Inc()
}

func (r *PrometheusRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {
	RequestLatency.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementBackendCalls(route, outcome string) {
	BackendCalls.WithLabelValues(route, outcome).Inc()
}

func (r *PrometheusRegistry) RecordBackendLatency(route string, duration time.Duration) {
	BackendLatency.WithLabelValues(route).Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementFallbacks(entity, source string) {
	FallbackCount.WithLabelValues(entity, source).Inc()
}

func (r *PrometheusRegistry) IncrementMutations(entity, action, outcome string) {
	MutationCount.WithLabelValues(entity, action, outcome).Inc()
}

func (r *PrometheusRegistry) IncrementRateLimitHits(entity string) {
	RateLimitHits.WithLabelValues(entity).Inc()
}

func (r *PrometheusRegistry) SetPendingSettlementAmount(amount float64) {
	PendingSettlementAmount.Set(amount)
}

// NoOpRegistry implements MetricsRegistry with no-op methods for testing
type NoOpRegistry struct{}

// NewNoOpRegistry creates a new NoOpRegistry
func NewNoOpRegistry() *NoOpRegistry {
	return &NoOpRegistry{}
}

func (r *NoOpRegistry) IncrementRequests(endpoint, method, status string)                    {}
func (r *NoOpRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}
func (r *NoOpRegistry) IncrementBackendCalls(route, outcome string)                          {}
func (r *NoOpRegistry) RecordBackendLatency(route string, duration time.Duration)            {}
func (r *NoOpRegistry) IncrementFallbacks(entity, source string)                             {}
func (r *NoOpRegistry) IncrementMutations(entity, action, outcome string)                    {}
func (r *NoOpRegistry) IncrementRateLimitHits(entity string)                                 {}
func (r *NoOpRegistry) SetPendingSettlementAmount(amount float64)                            {}
