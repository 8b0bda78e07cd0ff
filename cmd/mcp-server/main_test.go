package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/patrickwarner/troyconsole/internal/backend"
	"github.com/patrickwarner/troyconsole/internal/db"
	"github.com/patrickwarner/troyconsole/internal/models"
	"github.com/patrickwarner/troyconsole/internal/schedule"
	"github.com/patrickwarner/troyconsole/internal/session"
)

func newTestTools(t *testing.T, routes map[string]string) *ConsoleTools {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	client := backend.NewClient(ts.URL, 2*time.Second, zap.NewNop(), nil)
	t.Cleanup(func() {
		client.Close()
		ts.Close()
	})
	return &ConsoleTools{
		client:    client,
		session:   session.Context{Role: session.Admin, Token: "tok"},
		unitPrice: 300,
		loc:       time.UTC,
		now:       func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) },
		logger:    zap.NewNop(),
	}
}

const campaigns = `[
  {"id":1,"title":"강남 맛집 리뷰","status":"active","start_date":"2024-06-01","end_date":"2024-06-30"},
  {"id":2,"title":"화장품 체험단","status":"pending","start_date":"2024-07-01","end_date":"2024-07-10"},
  {"id":3,"title":"날짜 오류","status":"active","start_date":"2024-06-20","end_date":"2024-06-01"}
]`

func TestListCampaigns(t *testing.T) {
	tools := newTestTools(t, map[string]string{"/api/admin/campaigns": campaigns})

	_, out, err := tools.ListCampaigns(context.Background(), nil, ListCampaignsInput{Status: "active", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Total)
	require.Len(t, out.Campaigns, 1)
	assert.Equal(t, models.ID("1"), out.Campaigns[0].ID)

	_, out, err = tools.ListCampaigns(context.Background(), nil, ListCampaignsInput{Search: "체험"})
	require.NoError(t, err)
	require.Len(t, out.Campaigns, 1)
	assert.Equal(t, "화장품 체험단", out.Campaigns[0].Title)
}

func TestProgressStats(t *testing.T) {
	tools := newTestTools(t, map[string]string{"/api/admin/campaign-progress": `{"data":[
	  {"campaign_id":1,"status":"active","progress_percentage":50},
	  {"campaign_id":2,"status":"completed","progress_percentage":100}]}`})

	_, out, err := tools.ProgressStats(context.Background(), nil, ProgressStatsInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Campaigns)
	assert.Equal(t, 1, out.Active)
	assert.Equal(t, 1, out.Completed)
	assert.Equal(t, 75, out.Average)
}

func TestSettlementSummary(t *testing.T) {
	tools := newTestTools(t, map[string]string{"/api/admin/settlements": `[
	  {"id":"SETTLE-001","review_count":30,"status":"completed","created_at":"2024-06-01"},
	  {"id":"SETTLE-003","review_count":12,"status":"pending","created_at":"2024-06-12"}]`})

	_, out, err := tools.SettlementSummary(context.Background(), nil, SettlementSummaryInput{Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Summary.Total.Count)
	assert.Equal(t, "3,600원", out.PendingLabel)
	require.Len(t, out.Months, 1)
	assert.Equal(t, "2024-06", out.Months[0].Month)
}

func TestCampaignSchedule(t *testing.T) {
	tools := newTestTools(t, map[string]string{"/api/admin/campaigns": campaigns})

	_, out, err := tools.CampaignSchedule(context.Background(), nil, ScheduleInput{})
	require.NoError(t, err)
	require.Len(t, out.Items, 2)
	assert.Equal(t, models.ID("1"), out.Items[0].ID)
	assert.Equal(t, schedule.Active, out.Items[0].Status)
	assert.Equal(t, schedule.Upcoming, out.Items[1].Status)
	require.Len(t, out.Skipped, 1)
	assert.Contains(t, out.Skipped[0], "3:")

	_, out, err = tools.CampaignSchedule(context.Background(), nil, ScheduleInput{Status: "upcoming"})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, models.ID("2"), out.Items[0].ID)
}

func TestRecentActions(t *testing.T) {
	tools := newTestTools(t, nil)
	_, _, err := tools.RecentActions(context.Background(), nil, RecentActionsInput{})
	assert.Error(t, err)

	j := db.NewMemoryJournal()
	require.NoError(t, j.InsertAction(context.Background(), &models.ConsoleAction{Role: "admin", Entity: "payments", Action: "approve", Outcome: models.OutcomeSuccess}))
	tools.journal = j
	_, out, err := tools.RecentActions(context.Background(), nil, RecentActionsInput{Entity: "settlements"})
	require.NoError(t, err)
	assert.Empty(t, out.Actions)
	assert.NotNil(t, out.Actions)

	_, out, err = tools.RecentActions(context.Background(), nil, RecentActionsInput{Entity: "payments"})
	require.NoError(t, err)
	require.Len(t, out.Actions, 1)
}
