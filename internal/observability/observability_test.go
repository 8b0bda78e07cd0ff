package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		level, env string
		want       zapcore.Level
	}{
		{"", "", zap.InfoLevel},
		{"", "development", zap.DebugLevel},
		{"", "dev", zap.DebugLevel},
		{"WARN", "development", zap.WarnLevel},
		{"error", "", zap.ErrorLevel},
		{"loud", "", zap.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, logLevel(tt.level, tt.env), "level=%q env=%q", tt.level, tt.env)
	}
}

func TestSampler(t *testing.T) {
	assert.Equal(t, "AlwaysOnSampler", sampler(1).Description())
	assert.Equal(t, "AlwaysOnSampler", sampler(2).Description())
	assert.Equal(t, "AlwaysOffSampler", sampler(0).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased")
}

func TestMockMetricsRegistry(t *testing.T) {
	m := &MockMetricsRegistry{}
	m.IncrementRequests("views.campaigns", "GET", "200")
	m.IncrementRequests("views.campaigns", "GET", "200")
	m.IncrementFallbacks("partners", "fixture")
	m.IncrementRateLimitHits("payments")
	m.RecordRequestLatency("views.campaigns", "GET", time.Millisecond)
	m.SetPendingSettlementAmount(3600)

	assert.Equal(t, 2, m.Count(m.Requests, "views.campaigns GET 200"))
	assert.Equal(t, 1, m.Count(m.Fallbacks, "partners fixture"))
	assert.Equal(t, 1, m.Count(m.Limited, "payments"))
	assert.Equal(t, 0, m.Count(m.Mutations, "payments approve success"))
	assert.Equal(t, 3600.0, m.Pending)
}

func TestNoOpRegistry(t *testing.T) {
	var r MetricsRegistry = NewNoOpRegistry()
	assert.NotPanics(t, func() {
		r.IncrementRequests("x", "GET", "200")
		r.IncrementBackendCalls("campaigns", "success")
		r.IncrementMutations("payments", "approve", "success")
		r.IncrementRateLimitHits("payments")
		r.SetPendingSettlementAmount(1)
	})
}
