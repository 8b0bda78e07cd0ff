package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// total console requests per endpoint, method and status code
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "troyconsole_requests_total",
			Help: "Total console requests received",
		},
		[]string{"endpoint", "method", "status"},
	)

	// request latency in seconds per endpoint/method
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "troyconsole_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	// outbound calls to the platform backend labelled by path template and outcome
	BackendCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "troyconsole_backend_calls_total",
			Help: "Total calls made to the platform REST backend",
		},
		[]string{"route", "outcome"},
	)

	BackendLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "troyconsole_backend_duration_seconds",
			Help:    "Duration of platform backend calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// list loads served from demo data, by entity and source (cache or fixture)
	FallbackCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "troyconsole_demo_fallbacks_total",
			Help: "Total list loads answered from demo data",
		},
		[]string{"entity", "source"},
	)

	// mutations proxied to the backend (approve/reject/settle/read)
	MutationCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "troyconsole_mutations_total",
			Help: "Total state-changing actions proxied to the backend",
		},
		[]string{"entity", "action", "outcome"},
	)

	// mutations rejected by the per-client rate limiter
	RateLimitHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "troyconsole_rate_limit_hits_total",
			Help: "Total mutations rejected by the per-client rate limiter",
		},
		[]string{"entity"},
	)

	// settlement amount currently awaiting payout
	PendingSettlementAmount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "troyconsole_pending_settlement_krw",
			Help: "Sum of pending settlement amounts seen in the last settlement view",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestCount,
		RequestLatency,
		BackendCalls,
		BackendLatency,
		FallbackCount,
		MutationCount,
		RateLimitHits,
		PendingSettlementAmount,
	)
}
