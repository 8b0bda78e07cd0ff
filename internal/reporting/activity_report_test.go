package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTotalActivityWeightsDuration(t *testing.T) {
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	daily := []DailyActivity{
		{Date: day, Views: 3, Mutations: 1, Failures: 1, AvgMS: 100},
		{Date: day.AddDate(0, 0, -1), Views: 1, Fallbacks: 1, AvgMS: 300},
	}

	total := totalActivity(daily)
	assert.Equal(t, int64(4), total.Views)
	assert.Equal(t, int64(1), total.Mutations)
	assert.Equal(t, int64(1), total.Failures)
	assert.Equal(t, int64(1), total.Fallbacks)
	// (4 events * 100ms + 1 event * 300ms) / 5
	assert.InDelta(t, 140.0, total.AvgMS, 0.001)
}

func TestTotalActivityEmpty(t *testing.T) {
	total := totalActivity(nil)
	assert.Zero(t, total.Views)
	assert.Zero(t, total.AvgMS)
}
