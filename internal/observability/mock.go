package observability

import (
	"sync"
	"time"
)

// MockMetricsRegistry records counters in memory so tests can assert on them.
type MockMetricsRegistry struct {
	mu        sync.Mutex
	Requests  map[string]int
	Backend   map[string]int
	Fallbacks map[string]int
	Mutations map[string]int
	Limited   map[string]int
	Pending   float64
}

func (m *MockMetricsRegistry) inc(bucket *map[string]int, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if *bucket == nil {
		*bucket = make(map[string]int)
	}
	(*bucket)[key]++
}

func (m *MockMetricsRegistry) IncrementRequests(endpoint, method, status string) {
	m.inc(&m.Requests, endpoint+" "+method+" "+status)
}

func (m *MockMetricsRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}

func (m *MockMetricsRegistry) IncrementBackendCalls(route, outcome string) {
	m.inc(&m.Backend, route+" "+outcome)
}

func (m *MockMetricsRegistry) RecordBackendLatency(route string, duration time.Duration) {}

func (m *MockMetricsRegistry) IncrementFallbacks(entity, source string) {
	m.inc(&m.Fallbacks, entity+" "+source)
}

func (m *MockMetricsRegistry) IncrementMutations(entity, action, outcome string) {
	m.inc(&m.Mutations, entity+" "+action+" "+outcome)
}

func (m *MockMetricsRegistry) IncrementRateLimitHits(entity string) {
	m.inc(&m.Limited, entity)
}

func (m *MockMetricsRegistry) SetPendingSettlementAmount(amount float64) {
	m.mu.Lock()
	m.Pending = amount
	m.mu.Unlock()
}

// Count returns how often key was recorded in the given bucket.
func (m *MockMetricsRegistry) Count(bucket map[string]int, key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return bucket[key]
}
