package render

import (
	"github.com/patrickwarner/troyconsole/internal/listing"
	"github.com/patrickwarner/troyconsole/internal/models"
	"github.com/patrickwarner/troyconsole/internal/progress"
	"github.com/patrickwarner/troyconsole/internal/schedule"
	"github.com/patrickwarner/troyconsole/internal/settlement"
)

// List is the model of every list fragment. Items holds the typed page of
// records; the template named by View knows its element type.
type List struct {
	View       string
	Base       string
	Title      string
	Items      any
	Pagination listing.Pagination
	Query      listing.Query
	Source     string
	Summary    any
	ReadIDs    map[string]bool
}

// Empty reports whether the page has no rows.
func (l List) Empty() bool { return l.Pagination.Total == 0 }

// Modal is the model of a detail dialog.
type Modal struct {
	View   string
	Record models.Record
}

// Error is the inline error fragment shown in place of a list.
type Error struct {
	Status  int
	Message string
	Retry   string
}

// Dashboard is the landing view.
type Dashboard struct {
	Stats         progress.Stats
	Progress      []models.ProgressRecord
	Notifications []models.Notification
	Unread        int
	Settlements   *settlement.Summary
	Failures      map[string]string
}

// Schedule is the combined calendar, gantt and timeline view.
type Schedule struct {
	Year     int
	Month    string
	Weekdays []string
	Weeks    []schedule.Week
	Gantt    schedule.Gantt
	Timeline []schedule.Item
	Skipped  []schedule.Skipped
}
