package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/patrickwarner/troyconsole/internal/backend"
	"github.com/patrickwarner/troyconsole/internal/models"
	"github.com/patrickwarner/troyconsole/internal/render"
	"github.com/patrickwarner/troyconsole/internal/schedule"
	"github.com/patrickwarner/troyconsole/internal/session"
)

// ganttWidth is the pixel width Gantt bars are laid out in.
const ganttWidth = 960

var weekdays = []string{"일", "월", "화", "수", "목", "금", "토"}

// Schedule renders the calendar, Gantt chart and timeline of campaigns.
// year and month select the calendar page and default to the current month.
func (s *Server) Schedule(w http.ResponseWriter, r *http.Request) {
	sc, _, err := s.sessionFor(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	info(r).entity = viewSchedule
	ctx := r.Context()
	loc := s.loc()
	now := s.clock().In(loc)

	year := pageParam(r, "year", now.Year())
	month := pageParam(r, "month", int(now.Month()))
	if month < 1 || month > 12 {
		month = int(now.Month())
	}

	campaigns, _, _, err := load(ctx, s, r, viewCampaigns, snapshotScope(sc), func() ([]models.Campaign, *backend.Meta, error) {
		if sc.Role == session.Admin {
			return s.Backend.Campaigns(ctx, sc, nil)
		}
		return s.Backend.MyCampaigns(ctx, sc)
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items, skipped := schedule.FromCampaigns(campaigns, now, loc)
	view := render.Schedule{
		Year:     year,
		Month:    fmt.Sprintf("%d월", month),
		Weekdays: weekdays,
		Weeks:    schedule.Calendar(year, time.Month(month), items, now, loc),
		Gantt:    schedule.NewGantt(items, ganttWidth, now),
		Timeline: schedule.Timeline(items),
		Skipped:  skipped,
	}
	if outputFormat(r) == formatJSON {
		writeJSON(w, view)
		return
	}
	s.html(w, r, "schedule", view)
}
