package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/patrickwarner/troyconsole/internal/models"
)

// platform is an in-memory stand-in for the campaign platform REST API.
type platform struct {
	mu            sync.Mutex
	token         string
	logger        *zap.Logger
	nextID        int
	campaigns     []models.Campaign
	progress      []models.ProgressRecord
	orgs          map[models.OrgKind][]models.Organization
	payments      []models.Payment
	settlements   []models.Settlement
	notifications []models.Notification
}

var (
	brands   = []string{"맛있는상점", "뷰티랩", "모닝커피", "펫하우스", "북카페", "헬스짐"}
	subjects = []string{"신메뉴 리뷰", "체험단 모집", "오픈 기념 리뷰", "방문 후기", "제품 사용기", "여름 이벤트"}
	people   = []string{"김리뷰", "이블로그", "박체험", "최후기", "정포스팅"}
)

// seed fills the platform with n campaigns and matching progress, payments
// and settlements around now.
func seed(r *rand.Rand, n int, now time.Time) *platform {
	p := &platform{orgs: map[models.OrgKind][]models.Organization{}}
	statuses := []models.CampaignStatus{models.CampaignPending, models.CampaignActive, models.CampaignActive, models.CampaignCompleted}
	for i := 0; i < n; i++ {
		id := models.ID(strconv.Itoa(100 + i))
		start := now.AddDate(0, 0, r.Intn(40)-20)
		end := start.AddDate(0, 0, 7+r.Intn(30))
		brand := brands[r.Intn(len(brands))]
		target := float64(10 * (1 + r.Intn(10)))
		c := models.Campaign{
			ID:          id,
			Code:        fmt.Sprintf("AD-%02d%02d", int(start.Month()), start.Day()),
			Title:       brand + " " + subjects[r.Intn(len(subjects))],
			Status:      statuses[r.Intn(len(statuses))],
			Budget:      models.Number(100000 * (1 + r.Intn(30))),
			TargetCount: models.Number(target),
			StartDate:   start.Format("2006-01-02"),
			EndDate:     end.Format("2006-01-02"),
			CompanyName: brand,
			CreatedAt:   start.AddDate(0, 0, -3).Format(time.RFC3339),
		}
		p.campaigns = append(p.campaigns, c)

		done := float64(r.Intn(int(target) + 1))
		if c.Status == models.CampaignCompleted {
			done = target
		}
		p.progress = append(p.progress, models.ProgressRecord{
			ID: id, CampaignID: id, Title: c.Title, Status: c.Status,
			ProgressPercentage: models.Number(done / target * 100),
			CompletedCount:     models.Number(done), TargetCount: c.TargetCount,
			StartDate: c.StartDate, EndDate: c.EndDate,
		})

		p.payments = append(p.payments, models.Payment{
			ID: models.ID(strconv.Itoa(9000 + i)), CampaignID: id, CampaignName: c.Title,
			CustomerName: brand, Amount: c.Budget, Method: "card",
			Status:    []string{"waiting", "paid", "pending", "failed"}[r.Intn(4)],
			CreatedAt: c.CreatedAt,
		})

		if c.Status != models.CampaignPending && done > 0 {
			p.settlements = append(p.settlements, models.Settlement{
				ID: models.ID(fmt.Sprintf("SETTLE-%03d", i+1)), PartnerID: models.ID(strconv.Itoa(1 + r.Intn(len(people)))),
				PartnerName: people[r.Intn(len(people))], CustomerName: brand, CampaignID: id,
				ReviewCount: models.Number(done),
				Status:      []models.SettlementStatus{models.SettlementPending, models.SettlementProcessing, models.SettlementCompleted}[r.Intn(3)],
				CreatedAt:   end.Format("2006-01-02"),
			})
		}
	}

	approvals := []models.ApprovalStatus{models.ApprovalPending, models.ApprovalApproved, models.ApprovalApproved}
	for _, kind := range []models.OrgKind{models.OrgPartner, models.OrgAgency, models.OrgCustomer} {
		for i, name := range people {
			p.orgs[kind] = append(p.orgs[kind], models.Organization{
				ID: models.ID(strconv.Itoa(i + 1)), Name: name, CompanyName: name + " " + string(kind),
				ManagerName: name, Phone: fmt.Sprintf("010-%04d-%04d", r.Intn(10000), r.Intn(10000)),
				Email:          fmt.Sprintf("%s%d@example.com", kind, i+1),
				ApprovalStatus: approvals[r.Intn(len(approvals))],
				CreatedAt:      now.AddDate(0, -r.Intn(6), -r.Intn(28)).Format("2006-01-02"),
			})
		}
	}

	types := []models.NotificationType{models.NotifyCampaignCreated, models.NotifyPaymentReceived, models.NotifySettlementRequested, models.NotifyPartnerRegistered}
	for i := 0; i < 8; i++ {
		p.notifications = append(p.notifications, models.Notification{
			ID: models.ID(strconv.Itoa(500 + i)), Type: types[r.Intn(len(types))],
			Title: subjects[r.Intn(len(subjects))], Message: brands[r.Intn(len(brands))],
			IsRead:    models.Flag(r.Intn(2) == 0),
			CreatedAt: now.Add(-time.Duration(r.Intn(72)) * time.Hour).Format(time.RFC3339),
		})
	}
	p.nextID = 100 + n
	return p
}

func (p *platform) routes(r *mux.Router) {
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) { writeJSON(w, map[string]string{"status": "ok"}) })

	api := r.PathPrefix("/api").Subrouter()
	api.Use(p.auth)
	api.HandleFunc("/admin/campaigns", p.list(func() any { return map[string]any{"campaigns": p.campaigns} })).Methods("GET")
	api.HandleFunc("/auth/my-campaigns", p.list(func() any { return p.campaigns })).Methods("GET")
	api.HandleFunc("/admin/campaigns", p.createCampaign).Methods("POST")
	api.HandleFunc("/auth/campaigns", p.createCampaign).Methods("POST")
	api.HandleFunc("/auth/campaigns/{id}/inquiries", p.ok).Methods("POST")
	api.HandleFunc("/admin/campaign-progress", p.list(func() any { return map[string]any{"data": p.progress} })).Methods("GET")
	api.HandleFunc("/admin/campaign-progress/stats", p.progressStats).Methods("GET")
	for _, kind := range []models.OrgKind{models.OrgPartner, models.OrgAgency, models.OrgCustomer} {
		kind := kind
		api.HandleFunc("/admin/"+kind.Plural(), p.list(func() any { return map[string]any{kind.Plural(): p.orgs[kind]} })).Methods("GET")
		api.HandleFunc("/admin/"+kind.Plural()+"/{id}/{action:approve|reject}", p.setApproval(kind)).Methods("PUT")
	}
	api.HandleFunc("/admin/partners/{id}", p.partner).Methods("GET")
	api.HandleFunc("/admin/partners/{id}/settlement", p.partnerSettlements).Methods("GET")
	api.HandleFunc("/admin/payments", p.list(func() any { return map[string]any{"payments": p.payments} })).Methods("GET")
	api.HandleFunc("/admin/payments/bulk-approve", p.bulkApprove).Methods("PUT")
	api.HandleFunc("/admin/payments/{id}/{action:approve|reject}", p.setPayment).Methods("PUT")
	api.HandleFunc("/admin/settlements", p.list(func() any { return p.settlements })).Methods("GET")
	api.HandleFunc("/admin/settlements/{id}/settle", p.settle).Methods("PUT")
	api.HandleFunc("/admin/notifications", p.list(func() any { return map[string]any{"notifications": p.notifications} })).Methods("GET")
	api.HandleFunc("/admin/notifications/read-all", p.readAll).Methods("PUT")
	api.HandleFunc("/admin/notifications/{id}/read", p.read).Methods("PUT")
}

// auth rejects requests without the configured bearer token.
func (p *platform) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p.token != "" && r.Header.Get("Authorization") != "Bearer "+p.token {
			w.WriteHeader(http.StatusUnauthorized)
			writeJSON(w, map[string]string{"message": "인증이 필요합니다"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (p *platform) list(body func() any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		writeJSON(w, body())
	}
}

func (p *platform) ok(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]bool{"success": true})
}

func (p *platform) notFound(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotFound)
	writeJSON(w, map[string]string{"message": "항목을 찾을 수 없습니다"})
}

func (p *platform) createCampaign(w http.ResponseWriter, r *http.Request) {
	var c models.Campaign
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, map[string]string{"message": "invalid json"})
		return
	}
	p.mu.Lock()
	c.ID = models.ID(strconv.Itoa(p.nextID))
	p.nextID++
	c.Status = models.CampaignPending
	p.campaigns = append([]models.Campaign{c}, p.campaigns...)
	p.mu.Unlock()
	p.logger.Info("campaign created", zap.String("id", string(c.ID)), zap.String("code", c.Code))
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, map[string]any{"success": true, "campaign": c})
}

func (p *platform) progressStats(w http.ResponseWriter, _ *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var active, completed int
	var sum float64
	for _, pr := range p.progress {
		switch pr.Status {
		case models.CampaignActive:
			active++
		case models.CampaignCompleted:
			completed++
		}
		sum += pr.ProgressPercentage.Float()
	}
	avg := 0.0
	if len(p.progress) > 0 {
		avg = sum / float64(len(p.progress))
	}
	writeJSON(w, map[string]any{"stats": map[string]any{
		"total_campaigns": len(p.progress), "active_campaigns": active,
		"completed_campaigns": completed, "average_progress": avg,
	}})
}

func (p *platform) setApproval(kind models.OrgKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		p.mu.Lock()
		defer p.mu.Unlock()
		for i := range p.orgs[kind] {
			if string(p.orgs[kind][i].ID) == vars["id"] {
				p.orgs[kind][i].ApprovalStatus = models.ApprovalApproved
				if vars["action"] == "reject" {
					p.orgs[kind][i].ApprovalStatus = models.ApprovalRejected
				}
				p.ok(w, r)
				return
			}
		}
		p.notFound(w)
	}
}

func (p *platform) partner(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, o := range p.orgs[models.OrgPartner] {
		if string(o.ID) == mux.Vars(r)["id"] {
			writeJSON(w, map[string]any{"partner": o})
			return
		}
	}
	p.notFound(w)
}

func (p *platform) partnerSettlements(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := []models.Settlement{}
	for _, s := range p.settlements {
		if string(s.PartnerID) == mux.Vars(r)["id"] {
			out = append(out, s)
		}
	}
	writeJSON(w, map[string]any{"settlements": out})
}

func (p *platform) setPayment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.markPayment(vars["id"], vars["action"] == "approve") {
		p.notFound(w)
		return
	}
	p.ok(w, r)
}

func (p *platform) markPayment(id string, approve bool) bool {
	for i := range p.payments {
		if string(p.payments[i].ID) == id {
			p.payments[i].Status = "rejected"
			if approve {
				p.payments[i].Status = "approved"
				p.payments[i].ApprovedAt = time.Now().UTC().Format(time.RFC3339)
			}
			return true
		}
	}
	return false
}

func (p *platform) bulkApprove(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PaymentIDs []string `json:"payment_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.PaymentIDs) == 0 {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, map[string]string{"message": "payment_ids required"})
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range body.PaymentIDs {
		p.markPayment(id, true)
	}
	p.ok(w, r)
}

func (p *platform) settle(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.settlements {
		if string(p.settlements[i].ID) != mux.Vars(r)["id"] {
			continue
		}
		if p.settlements[i].Status == models.SettlementCompleted {
			w.WriteHeader(http.StatusConflict)
			writeJSON(w, map[string]string{"message": "이미 정산되었습니다"})
			return
		}
		p.settlements[i].Status = models.SettlementCompleted
		p.settlements[i].SettledAt = time.Now().UTC().Format("2006-01-02")
		p.ok(w, r)
		return
	}
	p.notFound(w)
}

func (p *platform) read(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.notifications {
		if string(p.notifications[i].ID) == mux.Vars(r)["id"] {
			p.notifications[i].IsRead = true
			p.ok(w, r)
			return
		}
	}
	p.notFound(w)
}

func (p *platform) readAll(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.notifications {
		p.notifications[i].IsRead = true
	}
	p.ok(w, r)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
