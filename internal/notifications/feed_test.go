package notifications

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickwarner/troyconsole/internal/models"
)

type fakeMarker struct {
	read    []string
	readAll int
	err     error
}

func (m *fakeMarker) MarkNotificationRead(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.read = append(m.read, id)
	return nil
}

func (m *fakeMarker) MarkAllNotificationsRead(context.Context) error {
	if m.err != nil {
		return m.err
	}
	m.readAll++
	return nil
}

func newTestFeed(at time.Time) *Feed {
	f := NewFeed()
	f.now = func() time.Time { return at }
	return f
}

func TestMergeDedupesAndSorts(t *testing.T) {
	f := newTestFeed(time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC))
	local := f.Push(models.NotifyPaymentApproved, "결제 승인", "p-1")
	require.True(t, local.Local)
	require.NotEmpty(t, local.ID)

	server := []models.Notification{
		{ID: "1", Title: "old", CreatedAt: "2024-06-01T10:00:00Z"},
		{ID: "2", Title: "new", CreatedAt: "2024-06-02T10:00:00Z", IsRead: true},
		{ID: "1", Title: "dup", CreatedAt: "2024-06-05T10:00:00Z"},
	}
	got := f.Merge(server)
	require.Len(t, got, 3)
	assert.Equal(t, local.ID, got[0].ID)
	assert.Equal(t, models.ID("2"), got[1].ID)
	assert.Equal(t, "old", got[2].Title)
	assert.Equal(t, 2, UnreadCount(got))
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()
	f := newTestFeed(time.Now())
	local := f.Push(models.NotifySystem, "t", "m")
	m := &fakeMarker{}

	require.NoError(t, f.MarkRead(ctx, m, local.ID))
	assert.Empty(t, m.read, "local ids stay local")

	require.NoError(t, f.MarkRead(ctx, m, "7"))
	assert.Equal(t, []string{"7"}, m.read)

	got := f.Merge([]models.Notification{{ID: "7", CreatedAt: "2024-01-01"}})
	assert.Zero(t, UnreadCount(got))
}

func TestMarkReadBackendFailure(t *testing.T) {
	f := newTestFeed(time.Now())
	boom := errors.New("502")
	err := f.MarkRead(context.Background(), &fakeMarker{err: boom}, "9")
	assert.ErrorIs(t, err, boom)

	got := f.Merge([]models.Notification{{ID: "9"}})
	assert.Equal(t, 1, UnreadCount(got))
}

func TestMarkAllRead(t *testing.T) {
	f := newTestFeed(time.Now())
	f.Push(models.NotifySystem, "a", "")
	server := []models.Notification{{ID: "1"}, {ID: "2"}}
	m := &fakeMarker{}

	require.NoError(t, f.MarkAllRead(context.Background(), m, server))
	assert.Equal(t, 1, m.readAll)
	assert.Zero(t, UnreadCount(f.Merge(server)))
}

func TestPushBounded(t *testing.T) {
	f := newTestFeed(time.Now())
	for i := 0; i < MaxLocal+5; i++ {
		f.Push(models.NotifySystem, "x", "")
	}
	assert.Len(t, f.Merge(nil), MaxLocal)
}

func TestReadMarksBounded(t *testing.T) {
	f := newTestFeed(time.Now())
	for i := 0; i < MaxRead+20; i++ {
		require.NoError(t, f.MarkRead(context.Background(), nil, models.ID(fmt.Sprint(i))))
	}
	assert.Equal(t, MaxRead, f.ReadMarks())

	got := f.Merge([]models.Notification{{ID: "0"}, {ID: models.ID(fmt.Sprint(MaxRead + 19))}})
	assert.Equal(t, 1, UnreadCount(got), "oldest mark dropped, newest kept")
}

func TestFeedsIsolateClientsAndRoles(t *testing.T) {
	fs := NewFeeds(time.Hour)
	admin := fs.For("c1", "admin")
	admin.Push(models.NotifyPaymentApproved, "결제 승인", "P1")

	assert.Same(t, admin, fs.For("c1", "admin"))
	assert.Empty(t, fs.For("c1", "customer").Merge(nil))
	assert.Empty(t, fs.For("c2", "admin").Merge(nil))

	require.NoError(t, fs.For("c2", "admin").MarkAllRead(context.Background(), nil, nil))
	assert.Equal(t, 1, UnreadCount(admin.Merge(nil)))
}

func TestFeedsPruneIdle(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	fs := NewFeeds(time.Hour)
	fs.now = func() time.Time { return now }

	fs.For("old", "admin")
	now = now.Add(30 * time.Minute)
	fs.For("fresh", "admin")
	now = now.Add(45 * time.Minute)

	assert.Equal(t, 1, fs.Prune())
	assert.Equal(t, 1, fs.Len())

	// creating a feed sweeps idle ones as well
	now = now.Add(2 * time.Hour)
	fs.For("new", "partner")
	assert.Equal(t, 1, fs.Len())
}
