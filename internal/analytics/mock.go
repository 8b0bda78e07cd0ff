package analytics

import (
	"context"
	"sync"
)

var _ AnalyticsService = (*MockAnalytics)(nil)

// MockAnalytics collects activity events in memory for tests.
type MockAnalytics struct {
	mu     sync.Mutex
	Events []ActivityEvent
	// Err, when set, is returned from every call after the event is captured.
	Err error
}

// NewMockAnalytics creates a new mock analytics instance
func NewMockAnalytics() *MockAnalytics {
	return &MockAnalytics{}
}

func (m *MockAnalytics) RecordActivity(_ context.Context, ev ActivityEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, ev)
	return m.Err
}

// Recorded returns a copy of the captured events.
func (m *MockAnalytics) Recorded() []ActivityEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ActivityEvent, len(m.Events))
	copy(out, m.Events)
	return out
}
