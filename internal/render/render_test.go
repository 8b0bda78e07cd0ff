package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickwarner/troyconsole/internal/listing"
	"github.com/patrickwarner/troyconsole/internal/models"
	"github.com/patrickwarner/troyconsole/internal/progress"
	"github.com/patrickwarner/troyconsole/internal/schedule"
	"github.com/patrickwarner/troyconsole/internal/settlement"
)

func renderString(t *testing.T, name string, data any) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Must().Render(&buf, name, data))
	return buf.String()
}

func TestCampaignListFragment(t *testing.T) {
	items := []models.Campaign{
		{ID: "1", Code: "AD-0601", Title: "<b>리뷰</b>", Status: models.CampaignActive, Budget: 1500000, TargetCount: 50, StartDate: "2024-06-01T00:00:00Z", EndDate: "2024-06-30"},
		{ID: "2", Title: "체험단", Status: "mystery"},
	}
	q := listing.Query{Page: 2, Limit: 2, Status: "active"}
	out := renderString(t, "campaigns", List{
		View: "campaigns", Base: "/views/campaigns", Items: items,
		Pagination: listing.NewPagination(2, 2, 5), Query: q,
		ReadIDs: map[string]bool{"2": true},
	})

	assert.Contains(t, out, `data-action="open" data-id="1"`)
	assert.Contains(t, out, "&lt;b&gt;리뷰&lt;/b&gt;")
	assert.Contains(t, out, "1,500,000원")
	assert.Contains(t, out, "진행중")
	assert.Contains(t, out, "mystery", "unknown status shows raw text")
	assert.Contains(t, out, `class="read"`)
	assert.Contains(t, out, "2024-06-01 ~ 2024-06-30")
	assert.Contains(t, out, `aria-current="page"`)
	assert.Contains(t, out, "/views/campaigns?limit=2&amp;page=3&amp;status=active")
	assert.NotContains(t, out, "onclick")
}

func TestEmptyListAndNoPagination(t *testing.T) {
	out := renderString(t, "payments", List{View: "payments", Base: "/views/payments", Items: []models.Payment{}, Pagination: listing.NewPagination(1, 10, 0)})
	assert.Contains(t, out, "데이터가 없습니다")
	assert.NotContains(t, out, `class="pagination"`)
}

func TestPaymentActionsOnlyForPending(t *testing.T) {
	out := renderString(t, "payments", List{View: "payments", Items: []models.Payment{
		{ID: "p1", Status: "waiting", Amount: 1000},
		{ID: "p2", Status: "paid", Amount: 2000},
	}, Pagination: listing.NewPagination(1, 10, 2)})
	assert.Contains(t, out, `formaction="/payments/p1/approve"`)
	assert.NotContains(t, out, `/payments/p2/approve`)
	assert.Contains(t, out, "승인완료")
}

func TestSettlementListWithSummary(t *testing.T) {
	items := settlement.Fill([]models.Settlement{
		{ID: "SETTLE-001", ReviewCount: 30, Status: models.SettlementCompleted},
		{ID: "SETTLE-003", ReviewCount: 12, Status: models.SettlementPending},
	}, settlement.DefaultUnitPrice)
	sum := settlement.Summarize(items)
	out := renderString(t, "settlements", List{View: "settlements", Items: items, Summary: sum, Pagination: listing.NewPagination(1, 10, 2)})
	assert.Contains(t, out, "12,600원")
	assert.Contains(t, out, "3,600원")
	assert.Contains(t, out, `action="/settlements/SETTLE-003/settle"`)
	assert.NotContains(t, out, `/settlements/SETTLE-001/settle`)
}

func TestProgressListClasses(t *testing.T) {
	items := []models.ProgressRecord{{ID: "1", Title: "a", ProgressPercentage: 80}, {ID: "2", CampaignID: "9", Title: "b", ProgressPercentage: 10}}
	out := renderString(t, "progress", List{View: "progress", Items: items, Summary: progress.CalculateProgressStats(items), Pagination: listing.NewPagination(1, 10, 2)})
	assert.Contains(t, out, `class="progress high"`)
	assert.Contains(t, out, `class="progress low"`)
	assert.Contains(t, out, `action="/progress/9/override"`)
	assert.Contains(t, out, "45%")
}

func TestNotificationsFragment(t *testing.T) {
	items := []models.Notification{
		{ID: "1", Title: "정산", Type: models.NotifySettlementRequested},
		{ID: "2", Title: "기타", Type: "custom_tag", IsRead: true},
	}
	out := renderString(t, "notifications", List{View: "notifications", Items: items, Summary: 1, Pagination: listing.NewPagination(1, 10, 2)})
	assert.Contains(t, out, "🧾")
	assert.Contains(t, out, "custom_tag")
	assert.Contains(t, out, `action="/notifications/1/read"`)
	assert.NotContains(t, out, `/notifications/2/read"`)
	assert.Contains(t, out, `data-unread="1"`)
}

func TestModalPerView(t *testing.T) {
	c := models.Campaign{ID: "7", Title: "캠페인", Requirements: json.RawMessage(`{"photo_ratio":60}`)}
	out := renderString(t, "modal", Modal{View: "campaigns", Record: c})
	assert.Contains(t, out, `data-id="7"`)
	assert.Contains(t, out, "photo_ratio")
	assert.Contains(t, out, `action="/campaigns/7/inquiries"`)

	out = renderString(t, "modal", Modal{View: "agencies", Record: models.Organization{ID: "3", CompanyName: "트로이애드", ApprovalStatus: models.ApprovalPending}})
	assert.Contains(t, out, "트로이애드")
}

func TestErrorFragment(t *testing.T) {
	out := renderString(t, "error", Error{Status: 502, Message: "백엔드 오류: <down>", Retry: "/views/campaigns"})
	assert.Contains(t, out, `role="alert"`)
	assert.Contains(t, out, "&lt;down&gt;")
	assert.Contains(t, out, `data-action="retry"`)
}

func TestScheduleFragment(t *testing.T) {
	now := time.Date(2024, 6, 11, 12, 0, 0, 0, time.UTC)
	items, skipped := schedule.FromCampaigns([]models.Campaign{
		{ID: "1", Title: "A", StartDate: "2024-06-01", EndDate: "2024-06-10"},
		{ID: "2", Title: "B", StartDate: "2024-06-11", EndDate: "2024-06-20"},
		{ID: "3", Title: "C", StartDate: "bad", EndDate: "2024-06-20"},
	}, now, time.UTC)
	out := renderString(t, "schedule", Schedule{
		Year: 2024, Month: "6월", Weekdays: []string{"일", "월", "화", "수", "목", "금", "토"},
		Weeks:    schedule.Calendar(2024, time.June, items, now, time.UTC),
		Gantt:    schedule.NewGantt(items, 200, now),
		Timeline: schedule.Timeline(items),
		Skipped:  skipped,
	})
	assert.Contains(t, out, "left:100px;width:100px")
	assert.Contains(t, out, `class="today" style="left:100px"`)
	assert.Contains(t, out, "2024-06-01 ~ 2024-06-10 A")
	assert.True(t, strings.Index(out, "2024-06-01 ~") < strings.Index(out, "2024-06-11 ~"))
	assert.Contains(t, out, `<li>3:`)
}

func TestDashboardFragment(t *testing.T) {
	sum := settlement.Summarize([]models.Settlement{{Status: models.SettlementPending, Amount: 3600}})
	out := renderString(t, "dashboard", Dashboard{
		Stats:       progress.Stats{Active: 1, Completed: 2, Average: 50},
		Unread:      3,
		Failures:    map[string]string{"notifications": "불러오지 못했습니다"},
		Settlements: &sum,
	})
	assert.Contains(t, out, "50%")
	assert.Contains(t, out, "3,600원")
	assert.Contains(t, out, `data-part="notifications"`)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "2024-06-01", date("2024-06-01T10:00:00Z"))
	assert.Equal(t, "soon", date("soon"))
	assert.Equal(t, "42%", percent(models.Number(42.4)))
	assert.Equal(t, "1,000원", settlement.FormatKRW(decimal.NewFromInt(1000)))
	assert.Equal(t, "/views/x?page=1", pageURL("/views/x", listing.Query{Status: "all"}, 1))
	r := Must()
	assert.True(t, r.Has("page"))
	assert.False(t, r.Has("nope"))
}
