package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCampaignDecodesMixedIDsAndNumbers(t *testing.T) {
	raw := `{"id": 42, "title": "봄 리뷰", "status": "active", "budget": "1,500,000", "target_count": 30,
		"requirements": {"platforms": ["blog"], "photo_ratio": 50}}`

	var c Campaign
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	assert.Equal(t, ID("42"), c.ID)
	assert.Equal(t, 1500000.0, c.Budget.Float())
	assert.Equal(t, int64(30), c.TargetCount.Int())
	assert.JSONEq(t, `{"platforms": ["blog"], "photo_ratio": 50}`, string(c.Requirements))
	assert.Equal(t, "진행중", c.Status.Label().Text)
}

func TestUnknownStatusFallsBackToRawText(t *testing.T) {
	l := CampaignStatus("archived").Label()
	assert.Equal(t, "archived", l.Text)
	assert.Equal(t, unknownColor, l.Color)
}

func TestFlagAcceptsNumericAndStringForms(t *testing.T) {
	for in, want := range map[string]bool{`true`: true, `1`: true, `"1"`: true, `false`: false, `0`: false, `null`: false} {
		var f Flag
		require.NoError(t, f.UnmarshalJSON([]byte(in)), in)
		assert.Equal(t, want, bool(f), in)
	}
	var f Flag
	assert.Error(t, f.UnmarshalJSON([]byte(`"maybe"`)))
}

func TestBucketForPaymentStatus(t *testing.T) {
	cases := map[string]PaymentBucket{
		"paid":       PaymentApproved,
		"COMPLETED":  PaymentApproved,
		"confirmed":  PaymentApproved,
		"approved":   PaymentApproved,
		"failed":     PaymentRejected,
		"cancelled":  PaymentRejected,
		"refunded":   PaymentRejected,
		"rejected":   PaymentRejected,
		"waiting":    PaymentPending,
		"":           PaymentPending,
		"processing": PaymentPending,
	}
	for status, want := range cases {
		assert.Equal(t, want, BucketForPaymentStatus(status), status)
	}
}

func TestNotificationStyleUnknownType(t *testing.T) {
	s := NotificationType("coupon_issued").Style()
	assert.Equal(t, "coupon_issued", s.Text)
	assert.Equal(t, notificationStyles[NotifySystem].Icon, s.Icon)
	assert.Equal(t, "결제 승인", NotifyPaymentApproved.Style().Text)
	assert.Len(t, notificationStyles, 15)
}

func TestParseDate(t *testing.T) {
	loc := time.UTC
	for _, in := range []string{"2024-06-01", "2024.06.01", "2024/06/01", "2024-06-01T00:00:00Z", "2024-06-01 00:00:00"} {
		got, err := ParseDate(in, loc)
		require.NoError(t, err, in)
		assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, loc), got, in)
	}
	_, err := ParseDate("not a date", loc)
	assert.ErrorIs(t, err, ErrInvalidDate)
	_, err = ParseDate("", loc)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestViewStoreFindAndExpiry(t *testing.T) {
	s := NewInMemoryViewStore(time.Minute)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Put("c1", "settlements", []Record{
		Settlement{ID: "SETTLE-001", Status: SettlementCompleted},
		Settlement{ID: "SETTLE-003", Status: SettlementPending},
	})

	r, err := s.Find("c1", "settlements", "SETTLE-003")
	require.NoError(t, err)
	assert.Equal(t, "pending", r.StatusKey())

	_, err = s.Find("c2", "settlements", "SETTLE-003")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Find("c1", "settlements", "SETTLE-999")
	assert.ErrorIs(t, err, ErrNotFound)

	now = now.Add(2 * time.Minute)
	assert.Nil(t, s.Get("c1", "settlements"))
	_, err = s.Find("c1", "settlements", "SETTLE-003")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestViewStoreForget(t *testing.T) {
	s := NewInMemoryViewStore(0)
	s.Put("c1", "campaigns", []Record{Campaign{ID: "1"}})
	s.Put("c2", "campaigns", []Record{Campaign{ID: "2"}})

	s.Forget("c1")
	assert.Nil(t, s.Get("c1", "campaigns"))
	assert.Len(t, s.Get("c2", "campaigns"), 1)
}

func TestViewStoreForgetView(t *testing.T) {
	s := NewInMemoryViewStore(0)
	s.Put("c1", "payments", []Record{Payment{ID: "1"}})
	s.Put("c2", "payments", []Record{Payment{ID: "2"}})
	s.Put("c1", "campaigns", []Record{Campaign{ID: "3"}})

	s.ForgetView("payments")
	assert.Nil(t, s.Get("c1", "payments"))
	assert.Nil(t, s.Get("c2", "payments"))
	assert.Len(t, s.Get("c1", "campaigns"), 1)
}
