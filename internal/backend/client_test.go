package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/patrickwarner/troyconsole/internal/models"
	"github.com/patrickwarner/troyconsole/internal/observability"
	"github.com/patrickwarner/troyconsole/internal/session"
)

var adminSession = session.Context{Role: session.Admin, Token: "tok"}

func newTestClient(t *testing.T, h http.Handler) (*Client, *observability.MockMetricsRegistry) {
	t.Helper()
	srv := httptest.NewServer(h)
	metrics := &observability.MockMetricsRegistry{}
	c := NewClient(srv.URL, 2*time.Second, zap.NewNop(), metrics)
	t.Cleanup(func() {
		c.Close()
		srv.Close()
	})
	return c, metrics
}

func TestClientSendsBearerAndQuery(t *testing.T) {
	c, metrics := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/campaigns", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"campaigns":[{"id":1,"title":"A","status":"active"}],"total":11,"page":2,"limit":10}`))
	}))

	got, meta, err := c.Campaigns(context.Background(), adminSession, url.Values{"page": {"2"}, "limit": {"10"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Title)
	assert.Equal(t, &Meta{Total: 11, Page: 2, Limit: 10}, meta)
	assert.Equal(t, 1, metrics.Count(metrics.Backend, "campaigns.list success"))
}

func TestClientOmitsEmptyToken(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[]`))
	}))
	_, _, err := c.MyCampaigns(context.Background(), session.Context{Role: session.Customer})
	require.NoError(t, err)
}

func TestClientStatusError(t *testing.T) {
	c, metrics := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"권한이 없습니다"}`))
	}))

	err := c.ApprovePayment(context.Background(), adminSession, "9")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.Code)
	assert.Equal(t, "권한이 없습니다", se.Message)
	assert.True(t, IsStatus(err, http.StatusForbidden))
	assert.Equal(t, 1, metrics.Count(metrics.Backend, "payments.approve failure"))
}

func TestClientMalformedBody(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	_, _, err := c.Settlements(context.Background(), adminSession, nil)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestClientMutationBodies(t *testing.T) {
	type call struct {
		method, path string
		body         map[string]any
	}
	var mu sync.Mutex
	var calls []call
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(b, &body)
		mu.Lock()
		calls = append(calls, call{r.Method, r.URL.Path, body})
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	ctx := context.Background()

	require.NoError(t, c.BulkApprovePayments(ctx, adminSession, []string{"1", "2"}))
	require.NoError(t, c.RejectPayment(ctx, adminSession, "3", "입금 미확인"))
	require.NoError(t, c.SetApproval(ctx, adminSession, models.OrgAgency, "5", true, ""))
	require.NoError(t, c.MarkAllNotificationsRead(ctx, adminSession))
	require.NoError(t, c.Settle(ctx, adminSession, "SETTLE-003"))
	require.NoError(t, c.CreateInquiry(ctx, session.Context{Role: session.Customer, Token: "c"}, "12", models.Inquiry{Title: "문의", Content: "일정"}))

	require.Len(t, calls, 6)
	assert.Equal(t, call{"PUT", "/api/admin/payments/bulk-approve", map[string]any{"payment_ids": []any{"1", "2"}}}, calls[0])
	assert.Equal(t, call{"PUT", "/api/admin/payments/3/reject", map[string]any{"reason": "입금 미확인"}}, calls[1])
	assert.Equal(t, call{"PUT", "/api/admin/agencies/5/approve", nil}, calls[2])
	assert.Equal(t, call{"PUT", "/api/admin/notifications/read-all", nil}, calls[3])
	assert.Equal(t, call{"PUT", "/api/admin/settlements/SETTLE-003/settle", nil}, calls[4])
	assert.Equal(t, "/api/auth/campaigns/12/inquiries", calls[5].path)
	assert.Equal(t, "문의", calls[5].body["title"])
}

func TestCreateCampaignRoutesByRole(t *testing.T) {
	var path atomic.Value
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path.Store(r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"campaign":{"id":99,"title":"새 캠페인"}}`))
	}))

	created, err := c.CreateCampaign(context.Background(), adminSession, models.Campaign{Title: "새 캠페인"})
	require.NoError(t, err)
	assert.Equal(t, models.ID("99"), created.ID)
	assert.Equal(t, "/api/admin/campaigns", path.Load())

	_, err = c.CreateCampaign(context.Background(), session.Context{Role: session.Agency, Token: "a"}, models.Campaign{Title: "x"})
	require.NoError(t, err)
	assert.Equal(t, "/api/auth/campaigns", path.Load())
}

func TestGetJSONSharesInFlightRequests(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte(`[{"id":1}]`))
	}))

	const callers = 5
	var wg sync.WaitGroup
	results := make([][]models.Notification, callers)
	call := func(i int) {
		defer wg.Done()
		got, _, err := c.Notifications(context.Background(), adminSession, nil)
		assert.NoError(t, err)
		results[i] = got
	}

	wg.Add(1)
	go call(0)
	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)
	for i := 1; i < callers; i++ {
		wg.Add(1)
		go call(i)
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
	for _, r := range results {
		assert.Len(t, r, 1)
	}
}

func TestGetJSONCancelledCallerDoesNotFailOthers(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte(`[{"id":1}]`))
	}))

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, _, err := c.Notifications(firstCtx, adminSession, nil)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)

	type result struct {
		items []models.Notification
		err   error
	}
	second := make(chan result, 1)
	go func() {
		got, _, err := c.Notifications(context.Background(), adminSession, nil)
		second <- result{got, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller still waiting")
	}

	close(release)
	res := <-second
	require.NoError(t, res.err)
	assert.Len(t, res.items, 1)
	assert.Equal(t, int32(1), hits.Load())
}

func TestHealthCheck(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	assert.NoError(t, c.HealthCheck(context.Background()))
}
