package api

import (
	"context"
	"math"
	"net/http"
	"sort"
	"sync"

	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/patrickwarner/troyconsole/internal/backend"
	"github.com/patrickwarner/troyconsole/internal/models"
	"github.com/patrickwarner/troyconsole/internal/notifications"
	"github.com/patrickwarner/troyconsole/internal/observability"
	"github.com/patrickwarner/troyconsole/internal/progress"
	"github.com/patrickwarner/troyconsole/internal/render"
	"github.com/patrickwarner/troyconsole/internal/session"
	"github.com/patrickwarner/troyconsole/internal/settlement"
)

// dashboardRows is how many progress rows and notifications the landing
// view shows.
const dashboardRows = 5

// Dashboard loads progress stats, the most advanced campaigns, recent
// notifications and the settlement summary concurrently. A part that fails
// is reported inline; the rest of the dashboard still renders.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	sc, _, err := s.sessionFor(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	info(r).entity = "dashboard"

	var (
		mu   sync.Mutex
		view = render.Dashboard{Failures: map[string]string{}}
	)
	failed := func(part string, err error) {
		mu.Lock()
		view.Failures[part] = userMessage(err)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(r.Context())
	tracer := observability.Tracer("troyconsole/api")
	part := func(name string, fn func(ctx context.Context) error) {
		g.Go(func() error {
			ctx, span := tracer.Start(gctx, "dashboard."+name)
			defer span.End()
			if err := fn(ctx); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				failed(name, err)
			}
			return nil
		})
	}

	part("stats", func(ctx context.Context) error {
		stats, err := s.dashboardStats(ctx, sc)
		if err != nil {
			return err
		}
		mu.Lock()
		view.Stats = stats
		mu.Unlock()
		return nil
	})
	part("progress", func(ctx context.Context) error {
		items, _, _, err := load(ctx, s, r, viewProgress, snapshotScope(sc), func() ([]models.ProgressRecord, *backend.Meta, error) {
			return s.Backend.CampaignProgress(ctx, sc, nil)
		})
		if err != nil {
			return err
		}
		items = progress.MergeOverrides(items, s.progressOverrides(ctx, r))
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].ProgressPercentage > items[j].ProgressPercentage
		})
		if len(items) > dashboardRows {
			items = items[:dashboardRows]
		}
		mu.Lock()
		view.Progress = items
		mu.Unlock()
		return nil
	})
	part("notifications", func(ctx context.Context) error {
		items, _, _, err := load(ctx, s, r, viewNotifications, snapshotScope(sc), func() ([]models.Notification, *backend.Meta, error) {
			return s.Backend.Notifications(ctx, sc, nil)
		})
		if err != nil {
			return err
		}
		merged := s.feed(r, sc).Merge(items)
		unread := notifications.UnreadCount(merged)
		if len(merged) > dashboardRows {
			merged = merged[:dashboardRows]
		}
		mu.Lock()
		view.Notifications, view.Unread = merged, unread
		mu.Unlock()
		return nil
	})
	if sc.Role == session.Admin {
		part("settlements", func(ctx context.Context) error {
			items, _, _, err := load(ctx, s, r, viewSettlements, snapshotScope(sc), func() ([]models.Settlement, *backend.Meta, error) {
				return s.Backend.Settlements(ctx, sc, nil)
			})
			if err != nil {
				return err
			}
			sum := settlement.Summarize(settlement.Fill(items, s.Config.SettlementUnitPrice))
			mu.Lock()
			view.Settlements = &sum
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if outputFormat(r) == formatJSON {
		writeJSON(w, view)
		return
	}
	s.html(w, r, "dashboard", view)
}

// dashboardStats prefers the backend aggregate and falls back to computing
// it from the progress list.
func (s *Server) dashboardStats(ctx context.Context, sc session.Context) (progress.Stats, error) {
	st, err := s.Backend.CampaignProgressStats(ctx, sc)
	if err == nil {
		return progress.Stats{
			Active:    int(st.Active.Int()),
			Completed: int(st.Completed.Int()),
			Average:   int(math.Round(st.Average.Float())),
		}, nil
	}
	items, _, ferr := s.Backend.CampaignProgress(ctx, sc, nil)
	if ferr != nil {
		return progress.Stats{}, err
	}
	return progress.CalculateProgressStats(items), nil
}
