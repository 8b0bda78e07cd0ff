package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/patrickwarner/troyconsole/internal/backend"
	"github.com/patrickwarner/troyconsole/internal/listing"
	"github.com/patrickwarner/troyconsole/internal/models"
	"github.com/patrickwarner/troyconsole/internal/notifications"
	"github.com/patrickwarner/troyconsole/internal/progress"
	"github.com/patrickwarner/troyconsole/internal/render"
	"github.com/patrickwarner/troyconsole/internal/session"
	"github.com/patrickwarner/troyconsole/internal/settlement"
)

// View names. They double as route segments and view-cache keys.
const (
	viewCampaigns     = "campaigns"
	viewProgress      = "progress"
	viewPartners      = "partners"
	viewAgencies      = "agencies"
	viewCustomers     = "customers"
	viewPayments      = "payments"
	viewSettlements   = "settlements"
	viewNotifications = "notifications"
	viewSchedule      = "schedule"
)

// load calls fetch and, when it fails and demo mode is on, answers from the
// demo fallback instead. Successful loads refresh the offline snapshot of
// the view within scope.
func load[T models.Record](ctx context.Context, s *Server, r *http.Request, view, scope string, fetch func() ([]T, *backend.Meta, error)) ([]T, *backend.Meta, string, error) {
	items, meta, err := fetch()
	if err == nil {
		if raw, merr := json.Marshal(items); merr == nil {
			s.Fallback.Remember(ctx, view, scope, raw)
		}
		return items, meta, "", nil
	}
	raw, source, ferr := s.Fallback.Load(ctx, view, scope)
	if ferr != nil {
		return nil, nil, "", err
	}
	fallback, _, derr := backend.DecodeList[T](raw)
	if derr != nil {
		s.logger(r).Error("decode demo data", zap.String("view", view), zap.Error(derr))
		return nil, nil, "", err
	}
	s.logger(r).Warn("serving demo data", zap.String("view", view), zap.String("source", source), zap.Error(err))
	s.Metrics.IncrementFallbacks(view, source)
	info(r).fallback.Store(true)
	return fallback, nil, source, nil
}

// pages adapts a query-taking backend call for load. HTML and JSON answers
// fetch the requested page; CSV exports walk every page the backend reports
// so the file holds the whole filtered list.
func pages[T models.Record](s *Server, r *http.Request, q url.Values, fetch func(url.Values) ([]T, *backend.Meta, error)) func() ([]T, *backend.Meta, error) {
	if outputFormat(r) != formatCSV {
		return func() ([]T, *backend.Meta, error) { return fetch(q) }
	}
	return func() ([]T, *backend.Meta, error) {
		items, err := backend.FetchAll(q, listing.MaxLimit, fetch)
		if errors.Is(err, backend.ErrIncomplete) {
			s.logger(r).Warn("csv export incomplete", zap.Error(err))
			err = nil
		}
		return items, nil, err
	}
}

// snapshotScope ties offline snapshots to the role and credential that
// loaded them.
func snapshotScope(sc session.Context) string {
	sum := sha256.Sum256([]byte(sc.Token))
	return string(sc.Role) + ":" + hex.EncodeToString(sum[:8])
}

// listPage is everything respond needs to answer a list request.
type listPage[T models.Record] struct {
	view     string
	template string
	columns  []listing.Column[T]
	result   listing.Result[T]
	query    listing.Query
	source   string
	summary  any
	readIDs  map[string]bool
}

func respond[T models.Record](s *Server, w http.ResponseWriter, r *http.Request, client string, p listPage[T]) {
	records := make([]models.Record, len(p.result.Filtered))
	for i, it := range p.result.Filtered {
		records[i] = it
	}
	s.Views.Put(client, p.view, records)

	switch outputFormat(r) {
	case formatJSON:
		writeJSON(w, map[string]any{
			"items":      p.result.Items,
			"pagination": p.result.Pagination,
			"source":     p.source,
			"summary":    p.summary,
		})
	case formatCSV:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+p.view+`.csv"`)
		if err := listing.WriteCSV(w, p.columns, p.result.Filtered); err != nil {
			s.logger(r).Error("write csv", zap.String("view", p.view), zap.Error(err))
		}
	default:
		s.html(w, r, p.template, render.List{
			View:       p.view,
			Base:       r.URL.Path,
			Items:      p.result.Items,
			Pagination: p.result.Pagination,
			Query:      p.query,
			Source:     p.source,
			Summary:    p.summary,
			ReadIDs:    p.readIDs,
		})
	}
}

func (s *Server) query(r *http.Request) listing.Query {
	return listing.ParseQuery(r.URL.Query(), s.Config.PageSize)
}

// ListCampaigns lists campaigns. Admins see every campaign; other roles see
// their own.
func (s *Server) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	sc, client, err := s.sessionFor(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	info(r).entity = viewCampaigns
	ctx := r.Context()
	q := s.query(r)
	items, meta, source, err := load(ctx, s, r, viewCampaigns, snapshotScope(sc), pages(s, r, q.Values(), func(v url.Values) ([]models.Campaign, *backend.Meta, error) {
		if sc.Role == session.Admin {
			return s.Backend.Campaigns(ctx, sc, v)
		}
		return s.Backend.MyCampaigns(ctx, sc)
	}))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(s, w, r, client, listPage[models.Campaign]{
		view: viewCampaigns, template: "campaigns", columns: listing.CampaignColumns,
		result: listing.Apply(items, meta, q, s.loc()), query: q, source: source,
		readIDs: s.readCampaigns(ctx, r, client),
	})
}

func (s *Server) readCampaigns(ctx context.Context, r *http.Request, client string) map[string]bool {
	if s.Store == nil || s.Store.Client == nil {
		return nil
	}
	ids, err := s.Store.ReadCampaigns(ctx, client)
	if err != nil {
		s.logger(r).Warn("load read campaigns", zap.Error(err))
		return nil
	}
	return ids
}

// ListProgress lists campaign progress with local overrides merged in. The
// campaign and range query parameters narrow the rows before paging.
func (s *Server) ListProgress(w http.ResponseWriter, r *http.Request) {
	sc, client, err := s.sessionFor(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	info(r).entity = viewProgress
	ctx := r.Context()
	q := s.query(r)
	items, meta, source, err := load(ctx, s, r, viewProgress, snapshotScope(sc), pages(s, r, q.Values(), func(v url.Values) ([]models.ProgressRecord, *backend.Meta, error) {
		return s.Backend.CampaignProgress(ctx, sc, v)
	}))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items = progress.MergeOverrides(items, s.progressOverrides(ctx, r))
	items = progress.FilterProgressData(items, progress.Filter{
		Campaign: r.URL.Query().Get("campaign"),
		Range:    r.URL.Query().Get("range"),
	}, s.clock())
	result := listing.Apply(items, meta, q, s.loc())
	respond(s, w, r, client, listPage[models.ProgressRecord]{
		view: viewProgress, template: "progress", columns: listing.ProgressColumns,
		result: result, query: q, source: source,
		summary: progress.CalculateProgressStats(result.Filtered),
	})
}

func (s *Server) progressOverrides(ctx context.Context, r *http.Request) map[string]float64 {
	if s.Store == nil || s.Store.Client == nil {
		return nil
	}
	o, err := s.Store.ProgressOverrides(ctx)
	if err != nil {
		s.logger(r).Warn("load progress overrides", zap.Error(err))
		return nil
	}
	return o
}

// ListOrganizations lists partners, agencies or customers depending on kind.
func (s *Server) ListOrganizations(kind models.OrgKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, client, err := s.sessionFor(w, r)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		view := kind.Plural()
		info(r).entity = view
		ctx := r.Context()
		q := s.query(r)
		items, meta, source, err := load(ctx, s, r, view, snapshotScope(sc), pages(s, r, q.Values(), func(v url.Values) ([]models.Organization, *backend.Meta, error) {
			return s.Backend.Organizations(ctx, sc, kind, v)
		}))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		respond(s, w, r, client, listPage[models.Organization]{
			view: view, template: "organizations", columns: listing.OrganizationColumns,
			result: listing.Apply(items, meta, q, s.loc()), query: q, source: source,
		})
	}
}

// ListPayments lists payments; the status filter works on the three display
// buckets.
func (s *Server) ListPayments(w http.ResponseWriter, r *http.Request) {
	sc, client, err := s.sessionFor(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	info(r).entity = viewPayments
	ctx := r.Context()
	q := s.query(r)
	backendQuery := q.Values()
	backendQuery.Del("status")
	items, meta, source, err := load(ctx, s, r, viewPayments, snapshotScope(sc), pages(s, r, backendQuery, func(v url.Values) ([]models.Payment, *backend.Meta, error) {
		return s.Backend.Payments(ctx, sc, v)
	}))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(s, w, r, client, listPage[models.Payment]{
		view: viewPayments, template: "payments", columns: listing.PaymentColumns,
		result: listing.Apply(items, meta, q, s.loc()), query: q, source: source,
	})
}

// ListSettlements lists settlements with amounts filled in, optionally
// narrowed to a creation range (today, week, month).
func (s *Server) ListSettlements(w http.ResponseWriter, r *http.Request) {
	sc, client, err := s.sessionFor(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	info(r).entity = viewSettlements
	ctx := r.Context()
	q := s.query(r)
	view := viewSettlements
	partnerID := mux.Vars(r)["id"]
	if partnerID != "" {
		info(r).entityID = partnerID
	}
	scope := snapshotScope(sc)
	if partnerID != "" {
		scope += ":partner:" + partnerID
	}
	items, meta, source, err := load(ctx, s, r, view, scope, pages(s, r, q.Values(), func(v url.Values) ([]models.Settlement, *backend.Meta, error) {
		if partnerID != "" {
			return s.Backend.PartnerSettlements(ctx, sc, partnerID)
		}
		return s.Backend.Settlements(ctx, sc, v)
	}))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items = settlement.Fill(items, s.Config.SettlementUnitPrice)
	if rng := r.URL.Query().Get("range"); rng != "" {
		items = settlement.FilterByRange(items, rng, s.clock().In(s.loc()))
	}
	result := listing.Apply(items, meta, q, s.loc())
	summary := settlement.Summarize(result.Filtered)
	if partnerID == "" && source == "" {
		s.Metrics.SetPendingSettlementAmount(summary.PendingTotal.InexactFloat64())
	}
	respond(s, w, r, client, listPage[models.Settlement]{
		view: view, template: "settlements", columns: listing.SettlementColumns,
		result: result, query: q, source: source, summary: summary,
	})
}

// SettlementMonths returns per-month settlement totals as JSON.
func (s *Server) SettlementMonths(w http.ResponseWriter, r *http.Request) {
	sc, _, err := s.sessionFor(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	info(r).entity = viewSettlements
	ctx := r.Context()
	items, _, _, err := load(ctx, s, r, viewSettlements, snapshotScope(sc), func() ([]models.Settlement, *backend.Meta, error) {
		return s.Backend.Settlements(ctx, sc, nil)
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items = settlement.Fill(items, s.Config.SettlementUnitPrice)
	writeJSON(w, settlement.ByMonth(items, s.loc()))
}

// ListNotifications lists backend notifications merged with the ones the
// console created itself.
func (s *Server) ListNotifications(w http.ResponseWriter, r *http.Request) {
	sc, client, err := s.sessionFor(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	info(r).entity = viewNotifications
	ctx := r.Context()
	q := s.query(r)
	items, meta, source, err := load(ctx, s, r, viewNotifications, snapshotScope(sc), pages(s, r, q.Values(), func(v url.Values) ([]models.Notification, *backend.Meta, error) {
		return s.Backend.Notifications(ctx, sc, v)
	}))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	feed := s.feed(r, sc)
	var merged []models.Notification
	if meta == nil || q.Page <= 1 {
		merged = feed.Merge(items)
	} else {
		// local entries are shown on the first backend page only
		merged = feed.Marked(items)
	}
	if meta != nil {
		meta = &backend.Meta{Total: meta.Total + feed.LocalCount(), Page: meta.Page, Limit: meta.Limit}
	}
	result := listing.Apply(merged, meta, q, s.loc())
	respond(s, w, r, client, listPage[models.Notification]{
		view: viewNotifications, template: "notifications", columns: listing.NotificationColumns,
		result: result, query: q, source: source,
		summary: notifications.UnreadCount(merged),
	})
}

func pageParam(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return n
}
