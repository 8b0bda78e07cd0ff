package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickwarner/troyconsole/internal/models"
)

var (
	jun1  = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	jun30 = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
)

func TestDeriveStates(t *testing.T) {
	d, err := Derive(jun1, jun30, jun1.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Equal(t, Upcoming, d.Status)
	assert.Equal(t, "예정", d.Status.Label().Text)
	assert.Equal(t, 0.0, d.Progress)

	d, err = Derive(jun1, jun30, jun30.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, Completed, d.Status)
	assert.Equal(t, "완료", d.Status.Label().Text)
	assert.Equal(t, 100.0, d.Progress)

	for _, now := range []time.Time{jun1, jun1.AddDate(0, 0, 10), jun30} {
		d, err = Derive(jun1, jun30, now)
		require.NoError(t, err)
		assert.Equal(t, Active, d.Status, now)
		assert.Equal(t, "진행중", d.Status.Label().Text)
		assert.GreaterOrEqual(t, d.Progress, 0.0)
		assert.LessOrEqual(t, d.Progress, 100.0)
	}

	d, _ = Derive(jun1, jun1.AddDate(0, 0, 10), jun1.AddDate(0, 0, 5))
	assert.InDelta(t, 50.0, d.Progress, 1e-9)

	_, err = Derive(jun30, jun1, jun1)
	assert.ErrorIs(t, err, ErrRange)
}

func TestParseRangeRejectsMalformed(t *testing.T) {
	_, _, err := ParseRange("2024-13-45", "2024-06-30", time.UTC)
	assert.ErrorIs(t, err, models.ErrInvalidDate)

	_, _, err = ParseRange("2024-06-30", "2024-06-01", time.UTC)
	assert.ErrorIs(t, err, ErrRange)

	s, e, err := ParseRange("2024-06-01", "2024-06-30", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, jun1, s)
	assert.Equal(t, jun30.AddDate(0, 0, 1).Add(-time.Nanosecond), e)
}

func TestFromCampaignsSkipsBadDates(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	items, skipped := FromCampaigns([]models.Campaign{
		{ID: "1", Title: "A", StartDate: "2024-06-01", EndDate: "2024-06-30"},
		{ID: "2", Title: "B", StartDate: "nope", EndDate: "2024-06-30"},
		{ID: "3", Title: "C", StartDate: "2024-07-01", EndDate: "2024-07-10"},
	}, now, time.UTC)

	require.Len(t, items, 2)
	assert.Equal(t, Active, items[0].Status)
	assert.Equal(t, Upcoming, items[1].Status)
	require.Len(t, skipped, 1)
	assert.Equal(t, models.ID("2"), skipped[0].ID)
}

func TestTimelineOrder(t *testing.T) {
	items := []Item{
		{ID: "b", Start: jun30},
		{ID: "c", Start: jun1},
		{ID: "a", Start: jun1},
	}
	got := Timeline(items)
	assert.Equal(t, []models.ID{"a", "c", "b"}, []models.ID{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, models.ID("b"), items[0].ID, "input untouched")
}

func TestCalendarGrid(t *testing.T) {
	items := []Item{{ID: "1", Start: jun1, End: time.Date(2024, 6, 2, 23, 0, 0, 0, time.UTC)}}
	weeks := Calendar(2024, time.June, items, time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC), time.UTC)

	// June 2024 starts on a Saturday and ends on a Sunday: 6 rows
	require.Len(t, weeks, 6)
	assert.Equal(t, time.Date(2024, 5, 26, 0, 0, 0, 0, time.UTC), weeks[0][0].Date)
	assert.False(t, weeks[0][0].InMonth)
	assert.True(t, weeks[0][6].InMonth)
	assert.Len(t, weeks[0][6].Items, 1)
	assert.Len(t, weeks[1][0].Items, 1)
	assert.Empty(t, weeks[1][1].Items)
	assert.True(t, weeks[2][6].Today)
	assert.Equal(t, time.Date(2024, 7, 6, 0, 0, 0, 0, time.UTC), weeks[5][6].Date)
}

func TestGanttGeometry(t *testing.T) {
	items := []Item{
		{ID: "1", Start: jun1, End: time.Date(2024, 6, 10, 23, 59, 0, 0, time.UTC)},
		{ID: "2", Start: time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)},
	}
	g := NewGantt(items, 200, time.Date(2024, 6, 11, 8, 0, 0, 0, time.UTC))
	assert.Equal(t, 20, g.TotalDays)
	require.Len(t, g.Bars, 2)
	assert.Equal(t, 0.0, g.Bars[0].Offset)
	assert.Equal(t, 100.0, g.Bars[0].Width)
	assert.Equal(t, 100.0, g.Bars[1].Offset)
	assert.Equal(t, 100.0, g.Bars[1].Width)
	assert.Equal(t, 100.0, g.TodayOffset)

	assert.Equal(t, -1.0, NewGantt(nil, 200, jun1).TodayOffset)
	assert.Equal(t, -1.0, NewGantt(items, 200, jun30).TodayOffset)
}
