package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithUserAgent(t *testing.T) {
	tests := []struct {
		name   string
		ua     string
		device string
	}{
		{"desktop chrome", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/100.0.4896.127 Safari/537.36", "desktop"},
		{"iphone", "Mozilla/5.0 (iPhone; CPU iPhone OS 15_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.0 Mobile/15E148 Safari/604.1", "mobile"},
		{"ipad", "Mozilla/5.0 (iPad; CPU OS 15_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.0 Mobile/15E148 Safari/604.1", "tablet"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := ActivityEvent{EventType: EventView}.WithUserAgent(tt.ua)
			assert.Equal(t, tt.device, ev.DeviceType)
			assert.NotEmpty(t, ev.Browser)
		})
	}

	ev := ActivityEvent{}.WithUserAgent("")
	assert.Empty(t, ev.DeviceType)
}

func TestRecordActivityUnavailable(t *testing.T) {
	var a *Analytics
	assert.ErrorIs(t, a.RecordActivity(context.Background(), ActivityEvent{}), ErrUnavailable)
	_, err := (&Analytics{}).EventsByRequestID(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestMockAnalyticsCaptures(t *testing.T) {
	m := NewMockAnalytics()
	_ = m.RecordActivity(context.Background(), ActivityEvent{EventType: EventMutation, Entity: "payment"})
	got := m.Recorded()
	if assert.Len(t, got, 1) {
		assert.Equal(t, "payment", got[0].Entity)
	}
}
