package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/patrickwarner/troyconsole/internal/analytics"
	"github.com/patrickwarner/troyconsole/internal/middleware"
	"github.com/patrickwarner/troyconsole/internal/models"
	"github.com/patrickwarner/troyconsole/internal/session"
)

// Routes registers the console endpoints on r.
func (s *Server) Routes(r *mux.Router) {
	r.Use(middleware.WithTraceLogger(s.Logger))

	r.HandleFunc("/", s.instrument("page", "", s.Page)).Methods("GET")
	r.HandleFunc("/health", s.instrument("health", "", s.HealthHandler)).Methods("GET")
	r.HandleFunc("/ready", s.instrument("ready", "", s.ReadyHandler)).Methods("GET")
	r.HandleFunc("/session", s.instrument("session", "", s.RememberSession)).Methods("POST")
	r.HandleFunc("/dashboard", s.instrument("dashboard", analytics.EventView, s.Dashboard)).Methods("GET")

	views := r.PathPrefix("/views").Subrouter()
	views.HandleFunc("/campaigns", s.instrument("views.campaigns", analytics.EventView, s.ListCampaigns)).Methods("GET")
	views.HandleFunc("/progress", s.instrument("views.progress", analytics.EventView, s.ListProgress)).Methods("GET")
	views.HandleFunc("/partners", s.instrument("views.partners", analytics.EventView, s.ListOrganizations(models.OrgPartner))).Methods("GET")
	views.HandleFunc("/agencies", s.instrument("views.agencies", analytics.EventView, s.ListOrganizations(models.OrgAgency))).Methods("GET")
	views.HandleFunc("/customers", s.instrument("views.customers", analytics.EventView, s.ListOrganizations(models.OrgCustomer))).Methods("GET")
	views.HandleFunc("/partners/{id}/settlements", s.instrument("views.partner_settlements", analytics.EventView, s.ListSettlements)).Methods("GET")
	views.HandleFunc("/payments", s.instrument("views.payments", analytics.EventView, s.ListPayments)).Methods("GET")
	views.HandleFunc("/settlements", s.instrument("views.settlements", analytics.EventView, s.ListSettlements)).Methods("GET")
	views.HandleFunc("/settlements/months", s.instrument("views.settlement_months", analytics.EventView, s.SettlementMonths)).Methods("GET")
	views.HandleFunc("/notifications", s.instrument("views.notifications", analytics.EventView, s.ListNotifications)).Methods("GET")
	views.HandleFunc("/schedule", s.instrument("views.schedule", analytics.EventView, s.Schedule)).Methods("GET")
	views.HandleFunc("/{view}/{id}", s.instrument("views.modal", analytics.EventModal, s.Modal)).Methods("GET")

	mutate := func(endpoint string, h http.HandlerFunc) http.HandlerFunc {
		return s.instrument(endpoint, analytics.EventMutation, h)
	}
	r.HandleFunc("/campaigns", mutate("campaigns.create", s.CreateCampaign)).Methods("POST")
	r.HandleFunc("/campaigns/{id}/inquiries", mutate("campaigns.inquiry", s.CreateInquiry)).Methods("POST")
	r.HandleFunc("/campaigns/{id}/read", mutate("campaigns.read", s.MarkCampaignRead)).Methods("POST")
	r.HandleFunc("/progress/{id}/override", mutate("progress.override", s.SetProgressOverride)).Methods("POST")
	for _, kind := range []models.OrgKind{models.OrgPartner, models.OrgAgency, models.OrgCustomer} {
		r.HandleFunc("/"+kind.Plural()+"/{id}/approve", mutate(kind.Plural()+".approve", s.SetApproval(kind, true))).Methods("POST")
		r.HandleFunc("/"+kind.Plural()+"/{id}/reject", mutate(kind.Plural()+".reject", s.SetApproval(kind, false))).Methods("POST")
	}
	r.HandleFunc("/payments/bulk-approve", mutate("payments.bulk_approve", s.BulkApprovePayments)).Methods("POST")
	r.HandleFunc("/payments/{id}/approve", mutate("payments.approve", s.ApprovePayment)).Methods("POST")
	r.HandleFunc("/payments/{id}/reject", mutate("payments.reject", s.RejectPayment)).Methods("POST")
	r.HandleFunc("/settlements/{id}/settle", mutate("settlements.settle", s.Settle)).Methods("POST")
	r.HandleFunc("/notifications/read-all", mutate("notifications.read_all", s.MarkAllNotificationsRead)).Methods("POST")
	r.HandleFunc("/notifications/{id}/read", mutate("notifications.read", s.MarkNotificationRead)).Methods("POST")

	r.HandleFunc("/actions", s.instrument("actions", "", s.ListActions)).Methods("GET")
	r.HandleFunc("/reports/activity", s.instrument("reports.activity", "", s.ActivityReportHandler)).Methods("GET")

	r.Handle("/metrics", promhttp.Handler())
}

// Page serves the console shell that loads the fragments.
func (s *Server) Page(w http.ResponseWriter, r *http.Request) {
	session.ClientID(w, r)
	s.html(w, r, "page", nil)
}
