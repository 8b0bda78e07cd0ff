package schedule

import (
	"math"
	"time"
)

// Day is one cell of the month calendar.
type Day struct {
	Date    time.Time `json:"date"`
	InMonth bool      `json:"in_month"`
	Today   bool      `json:"today"`
	Items   []Item    `json:"items,omitempty"`
}

// Week is one row of the month calendar, Sunday first.
type Week [7]Day

// Calendar lays the month out as full weeks, Sunday through Saturday,
// padding with days of the adjacent months. Each day lists the items whose
// range covers it.
func Calendar(year int, month time.Month, items []Item, now time.Time, loc *time.Location) []Week {
	if loc == nil {
		loc = time.Local
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	gridStart := first.AddDate(0, 0, -int(first.Weekday()))
	last := first.AddDate(0, 1, -1)
	gridEnd := last.AddDate(0, 0, 6-int(last.Weekday()))

	today := dayStart(now.In(loc))
	var weeks []Week
	for d := gridStart; !d.After(gridEnd); d = d.AddDate(0, 0, 7) {
		var w Week
		for i := 0; i < 7; i++ {
			date := d.AddDate(0, 0, i)
			cell := Day{Date: date, InMonth: date.Month() == month, Today: date.Equal(today)}
			next := date.AddDate(0, 0, 1)
			for _, it := range items {
				if it.Start.Before(next) && !it.End.Before(date) {
					cell.Items = append(cell.Items, it)
				}
			}
			w[i] = cell
		}
		weeks = append(weeks, w)
	}
	return weeks
}

// Bar is one row of the Gantt chart, in pixels.
type Bar struct {
	Item
	Offset float64 `json:"offset"`
	Width  float64 `json:"width"`
}

// Gantt is a chart spanning from the earliest start to the latest end.
type Gantt struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	TotalDays int       `json:"total_days"`
	Bars      []Bar     `json:"bars"`
	// TodayOffset is the pixel position of now, or -1 when outside the chart.
	TodayOffset float64 `json:"today_offset"`
}

// NewGantt places items on a chart width pixels wide. A bar's offset is
// dayOffset/totalDays*width and its width is its inclusive day count over
// totalDays times width.
func NewGantt(items []Item, width float64, now time.Time) Gantt {
	g := Gantt{TodayOffset: -1}
	if len(items) == 0 || width <= 0 {
		return g
	}
	sorted := Timeline(items)
	g.Start = dayStart(sorted[0].Start)
	g.End = dayStart(sorted[0].End)
	for _, it := range sorted {
		if e := dayStart(it.End); e.After(g.End) {
			g.End = e
		}
	}
	g.TotalDays = daysBetween(g.Start, g.End) + 1

	for _, it := range sorted {
		offsetDays := daysBetween(g.Start, dayStart(it.Start))
		spanDays := daysBetween(dayStart(it.Start), dayStart(it.End)) + 1
		g.Bars = append(g.Bars, Bar{
			Item:   it,
			Offset: float64(offsetDays) / float64(g.TotalDays) * width,
			Width:  float64(spanDays) / float64(g.TotalDays) * width,
		})
	}
	if t := dayStart(now.In(g.Start.Location())); !t.Before(g.Start) && !t.After(g.End) {
		g.TodayOffset = float64(daysBetween(g.Start, t)) / float64(g.TotalDays) * width
	}
	return g
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days, robust to DST shifts.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(math.Round(ub.Sub(ua).Hours() / 24))
}
