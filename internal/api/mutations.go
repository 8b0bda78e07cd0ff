package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/patrickwarner/troyconsole/internal/models"
	"github.com/patrickwarner/troyconsole/internal/progress"
	"github.com/patrickwarner/troyconsole/internal/session"
)

// mutation is one state-changing action proxied to the backend.
type mutation struct {
	// view is the list that owns the entity; it is re-rendered on success
	view   string
	action string
	id     string
	call   func(ctx context.Context, sc session.Context) error
	// notify, when set, adds a console notification on success
	notify models.NotificationType
	title  string
	// reply replaces the default list re-render
	reply http.HandlerFunc
}

// mutate runs m, journals the outcome and re-renders the owning list. The
// list is always reloaded from the backend; nothing is updated optimistically.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, m mutation) {
	sc, client, err := s.sessionFor(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ri := info(r)
	ri.entity, ri.entityID = m.view, m.id
	if !s.Limiter.Allow(client, m.view) {
		s.Metrics.IncrementMutations(m.view, m.action, "limited")
		s.fail(w, r, errRateLimited)
		return
	}

	err = m.call(r.Context(), sc)
	s.journal(r, sc, m, err)
	if err != nil {
		s.Metrics.IncrementMutations(m.view, m.action, "failure")
		s.fail(w, r, err)
		return
	}
	s.Metrics.IncrementMutations(m.view, m.action, "success")
	if m.notify != "" {
		s.feed(r, sc).Push(m.notify, m.title, m.id)
	}
	s.notifyUpdate(m.view, m.action, m.id)
	if m.reply != nil {
		m.reply(w, r)
		return
	}
	s.rerender(m.view, w, r)
}

func (s *Server) journal(r *http.Request, sc session.Context, m mutation, callErr error) {
	a := &models.ConsoleAction{
		Role:     string(sc.Role),
		UserID:   sc.UserID,
		Entity:   m.view,
		EntityID: m.id,
		Action:   m.action,
		Outcome:  models.OutcomeSuccess,
	}
	if callErr != nil {
		a.Outcome = models.OutcomeFailure
		a.Error = callErr.Error()
	}
	if err := s.Journal.InsertAction(context.WithoutCancel(r.Context()), a); err != nil {
		s.logger(r).Error("journal action", zap.String("entity", m.view), zap.String("action", m.action), zap.Error(err))
	}
}

// rerender answers a successful mutation with the refreshed list.
func (s *Server) rerender(view string, w http.ResponseWriter, r *http.Request) {
	switch view {
	case viewCampaigns:
		s.ListCampaigns(w, r)
	case viewProgress:
		s.ListProgress(w, r)
	case viewPartners:
		s.ListOrganizations(models.OrgPartner)(w, r)
	case viewAgencies:
		s.ListOrganizations(models.OrgAgency)(w, r)
	case viewCustomers:
		s.ListOrganizations(models.OrgCustomer)(w, r)
	case viewPayments:
		s.ListPayments(w, r)
	case viewSettlements:
		s.ListSettlements(w, r)
	case viewNotifications:
		s.ListNotifications(w, r)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// SetApproval approves or rejects a partner, agency or customer.
func (s *Server) SetApproval(kind models.OrgKind, approve bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		reason := strings.TrimSpace(r.FormValue("reason"))
		m := mutation{view: kind.Plural(), action: "reject", id: id, notify: models.NotifySystem, title: "가입 반려"}
		if approve {
			m.action, m.title = "approve", "가입 승인"
		}
		m.call = func(ctx context.Context, sc session.Context) error {
			return s.Backend.SetApproval(ctx, sc, kind, id, approve, reason)
		}
		s.mutate(w, r, m)
	}
}

// ApprovePayment approves one payment.
func (s *Server) ApprovePayment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mutate(w, r, mutation{
		view: viewPayments, action: "approve", id: id,
		notify: models.NotifyPaymentApproved, title: "결제 승인",
		call: func(ctx context.Context, sc session.Context) error {
			return s.Backend.ApprovePayment(ctx, sc, id)
		},
	})
}

// RejectPayment rejects one payment.
func (s *Server) RejectPayment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	reason := strings.TrimSpace(r.FormValue("reason"))
	s.mutate(w, r, mutation{
		view: viewPayments, action: "reject", id: id,
		notify: models.NotifyPaymentRejected, title: "결제 반려",
		call: func(ctx context.Context, sc session.Context) error {
			return s.Backend.RejectPayment(ctx, sc, id, reason)
		},
	})
}

// BulkApprovePayments approves the payments named by payment_ids.
func (s *Server) BulkApprovePayments(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			PaymentIDs []string `json:"payment_ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.fail(w, r, fmt.Errorf("%w: invalid json", errBadRequest))
			return
		}
		ids = body.PaymentIDs
	} else if err := r.ParseForm(); err == nil {
		ids = r.PostForm["payment_ids"]
	}
	ids = compact(ids)
	if len(ids) == 0 {
		s.fail(w, r, &models.ValidationError{Fields: []models.FieldError{{Field: "payment_ids", Message: "required"}}})
		return
	}
	s.mutate(w, r, mutation{
		view: viewPayments, action: "bulk_approve", id: strings.Join(ids, ","),
		notify: models.NotifyPaymentApproved, title: fmt.Sprintf("결제 %d건 승인", len(ids)),
		call: func(ctx context.Context, sc session.Context) error {
			return s.Backend.BulkApprovePayments(ctx, sc, ids)
		},
	})
}

func compact(ids []string) []string {
	out := ids[:0]
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Settle pays out a settlement.
func (s *Server) Settle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mutate(w, r, mutation{
		view: viewSettlements, action: "settle", id: id,
		notify: models.NotifySettlementCompleted, title: "정산 완료",
		call: func(ctx context.Context, sc session.Context) error {
			return s.Backend.Settle(ctx, sc, id)
		},
	})
}

// feedMarker adapts the backend client to the notification feed.
type feedMarker struct {
	s  *Server
	sc session.Context
}

func (m feedMarker) MarkNotificationRead(ctx context.Context, id string) error {
	return m.s.Backend.MarkNotificationRead(ctx, m.sc, id)
}

func (m feedMarker) MarkAllNotificationsRead(ctx context.Context) error {
	return m.s.Backend.MarkAllNotificationsRead(ctx, m.sc)
}

// MarkNotificationRead marks one notification read.
func (s *Server) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mutate(w, r, mutation{
		view: viewNotifications, action: "read", id: id,
		call: func(ctx context.Context, sc session.Context) error {
			return s.feed(r, sc).MarkRead(ctx, feedMarker{s: s, sc: sc}, models.ID(id))
		},
	})
}

// MarkAllNotificationsRead marks every notification read.
func (s *Server) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, mutation{
		view: viewNotifications, action: "read_all",
		call: func(ctx context.Context, sc session.Context) error {
			return s.feed(r, sc).MarkAllRead(ctx, feedMarker{s: s, sc: sc}, nil)
		},
	})
}

// CreateCampaign validates and submits a new campaign. A missing code is
// generated from the creator's role and the current date.
func (s *Server) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := decodeCampaign(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := c.Validate(s.loc()); err != nil {
		s.fail(w, r, err)
		return
	}
	var created models.Campaign
	m := mutation{
		view: viewCampaigns, action: "create",
		notify: models.NotifyCampaignCreated, title: "캠페인 등록",
		call: func(ctx context.Context, sc session.Context) error {
			if c.Code == "" {
				code, err := progress.GenerateCampaignCodeByUserType(string(sc.Role), s.clock().In(s.loc()).Format("2006-01-02"))
				if err != nil {
					return err
				}
				c.Code = code
			}
			if c.CompanyName == "" {
				c.CompanyName = sc.CompanyName
			}
			var err error
			created, err = s.Backend.CreateCampaign(ctx, sc, c)
			return err
		},
	}
	m.reply = func(w http.ResponseWriter, r *http.Request) {
		if outputFormat(r) == formatJSON {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(created)
			return
		}
		s.ListCampaigns(w, r)
	}
	s.mutate(w, r, m)
}

// decodeCampaign reads a campaign from a JSON body or a form post.
func decodeCampaign(r *http.Request) (models.Campaign, error) {
	var c models.Campaign
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			return c, fmt.Errorf("%w: invalid json", errBadRequest)
		}
		return c, nil
	}
	if err := r.ParseForm(); err != nil {
		return c, fmt.Errorf("%w: invalid form", errBadRequest)
	}
	v := &models.ValidationError{}
	c.Title = strings.TrimSpace(r.PostForm.Get("title"))
	c.Code = strings.TrimSpace(r.PostForm.Get("code"))
	c.CompanyName = strings.TrimSpace(r.PostForm.Get("company_name"))
	c.StartDate = strings.TrimSpace(r.PostForm.Get("start_date"))
	c.EndDate = strings.TrimSpace(r.PostForm.Get("end_date"))
	c.Budget = formNumber(r, "budget", v)
	c.TargetCount = formNumber(r, "target_count", v)
	if req := strings.TrimSpace(r.PostForm.Get("requirements")); req != "" {
		if !json.Valid([]byte(req)) {
			v.Fields = append(v.Fields, models.FieldError{Field: "requirements", Message: "must be a JSON document"})
		} else {
			c.Requirements = json.RawMessage(req)
		}
	}
	if len(v.Fields) > 0 {
		return c, v
	}
	return c, nil
}

func formNumber(r *http.Request, field string, v *models.ValidationError) models.Number {
	raw := strings.ReplaceAll(strings.TrimSpace(r.PostForm.Get(field)), ",", "")
	if raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		v.Fields = append(v.Fields, models.FieldError{Field: field, Message: "must be a number"})
		return 0
	}
	return models.Number(f)
}

// CreateInquiry attaches a question to a campaign.
func (s *Server) CreateInquiry(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	inq := models.Inquiry{
		Title:   strings.TrimSpace(r.FormValue("title")),
		Content: strings.TrimSpace(r.FormValue("content")),
	}
	v := &models.ValidationError{}
	if inq.Title == "" {
		v.Fields = append(v.Fields, models.FieldError{Field: "title", Message: "required"})
	}
	if inq.Content == "" {
		v.Fields = append(v.Fields, models.FieldError{Field: "content", Message: "required"})
	}
	if len(v.Fields) > 0 {
		s.fail(w, r, v)
		return
	}
	s.mutate(w, r, mutation{
		view: viewCampaigns, action: "inquiry", id: id,
		notify: models.NotifyInquiryReceived, title: inq.Title,
		call: func(ctx context.Context, sc session.Context) error {
			return s.Backend.CreateInquiry(ctx, sc, id, inq)
		},
	})
}

// SetProgressOverride stores a local progress value for a campaign, or
// clears it when the progress field is empty.
func (s *Server) SetProgressOverride(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if s.Store == nil || s.Store.Client == nil {
		s.fail(w, r, fmt.Errorf("%w: offline cache not configured", errUnavailable))
		return
	}
	raw := strings.TrimSpace(r.FormValue("progress"))
	var pct float64
	if raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.fail(w, r, &models.ValidationError{Fields: []models.FieldError{{Field: "progress", Message: "must be a number"}}})
			return
		}
		if err := models.ValidatePercentage("progress", f); err != nil {
			s.fail(w, r, err)
			return
		}
		pct = f
	}
	action := "override"
	if raw == "" {
		action = "clear_override"
	}
	s.mutate(w, r, mutation{
		view: viewProgress, action: action, id: id,
		call: func(ctx context.Context, _ session.Context) error {
			if raw == "" {
				return s.Store.ClearProgressOverride(ctx, id)
			}
			return s.Store.SetProgressOverride(ctx, id, pct)
		},
	})
}

// MarkCampaignRead records that this console client opened a campaign.
func (s *Server) MarkCampaignRead(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	info(r).entity, info(r).entityID = viewCampaigns, id
	if s.Store == nil || s.Store.Client == nil {
		s.fail(w, r, fmt.Errorf("%w: offline cache not configured", errUnavailable))
		return
	}
	client := session.ClientID(w, r)
	if err := s.Store.MarkCampaignRead(r.Context(), client, id); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", errUnavailable, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
