// Package schedule derives campaign schedule state from date ranges and lays
// it out as a month calendar, a Gantt chart and a timeline.
package schedule

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/patrickwarner/troyconsole/internal/models"
)

// Status is the schedule state derived from a date range and the current time.
type Status string

const (
	Upcoming  Status = "upcoming"
	Active    Status = "active"
	Completed Status = "completed"
)

var statusLabels = map[Status]models.Label{
	Upcoming:  {Text: "예정", Color: "#f59e0b"},
	Active:    {Text: "진행중", Color: "#10b981"},
	Completed: {Text: "완료", Color: "#6b7280"},
}

// Label returns the display label of the status.
func (s Status) Label() models.Label {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return models.Label{Text: string(s), Color: "#6b7280"}
}

// ErrRange is returned when the end of a range precedes its start.
var ErrRange = errors.New("end before start")

// Derived is the state of one date range at a point in time.
type Derived struct {
	Status   Status  `json:"status"`
	Progress float64 `json:"progress"`
}

// Derive interpolates progress across [start, end]: 0 before start, 100 after
// end, linear in between.
func Derive(start, end, now time.Time) (Derived, error) {
	if end.Before(start) {
		return Derived{}, ErrRange
	}
	switch {
	case now.Before(start):
		return Derived{Status: Upcoming, Progress: 0}, nil
	case now.After(end):
		return Derived{Status: Completed, Progress: 100}, nil
	}
	total := end.Sub(start)
	if total <= 0 {
		return Derived{Status: Active, Progress: 100}, nil
	}
	p := float64(now.Sub(start)) / float64(total) * 100
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	return Derived{Status: Active, Progress: p}, nil
}

// ParseRange parses a start/end pair. A date-only end covers its whole day.
func ParseRange(start, end string, loc *time.Location) (time.Time, time.Time, error) {
	s, err := models.ParseDate(start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start: %w", err)
	}
	e, err := models.ParseDate(end, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end: %w", err)
	}
	if dateOnly(end) {
		e = e.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if e.Before(s) {
		return time.Time{}, time.Time{}, ErrRange
	}
	return s, e, nil
}

func dateOnly(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) == len("2006-01-02") && !strings.ContainsAny(s, "T :")
}

// Item is one campaign placed on the schedule.
type Item struct {
	ID    models.ID `json:"id"`
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Derived
}

// Skipped records a campaign left off the schedule and why.
type Skipped struct {
	ID  models.ID
	Err error
}

// FromCampaigns builds schedule items, skipping campaigns with malformed or
// inverted dates.
func FromCampaigns(cs []models.Campaign, now time.Time, loc *time.Location) ([]Item, []Skipped) {
	items := make([]Item, 0, len(cs))
	var skipped []Skipped
	for _, c := range cs {
		start, end, err := ParseRange(c.StartDate, c.EndDate, loc)
		if err != nil {
			skipped = append(skipped, Skipped{ID: c.ID, Err: err})
			continue
		}
		d, err := Derive(start, end, now)
		if err != nil {
			skipped = append(skipped, Skipped{ID: c.ID, Err: err})
			continue
		}
		items = append(items, Item{ID: c.ID, Title: c.Title, Start: start, End: end, Derived: d})
	}
	return items, skipped
}

// Timeline returns items ordered by start date, then id.
func Timeline(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out
}
