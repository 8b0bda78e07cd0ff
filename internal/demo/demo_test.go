package demo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickwarner/troyconsole/internal/backend"
	"github.com/patrickwarner/troyconsole/internal/models"
	"github.com/patrickwarner/troyconsole/internal/settlement"
)

type memSnapshots struct {
	data map[string][]byte
	err  error
}

func (m *memSnapshots) SaveSnapshot(_ context.Context, view string, payload []byte, _ time.Duration) error {
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[view] = payload
	return nil
}

func (m *memSnapshots) LoadSnapshot(_ context.Context, view string) ([]byte, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	b, ok := m.data[view]
	return b, ok, nil
}

func TestFixturesDecode(t *testing.T) {
	for _, view := range []string{"campaigns", "progress", "partners", "agencies", "customers", "settlements", "notifications", "payments"} {
		raw, err := Fixture(view)
		require.NoError(t, err, view)
		page, err := backend.Normalize(raw)
		require.NoError(t, err, view)
		assert.NotEmpty(t, page.Items, view)
	}

	campaigns, _, err := backend.DecodeList[models.Campaign](mustFixture(t, "campaigns"))
	require.NoError(t, err)
	assert.Equal(t, models.ID("101"), campaigns[0].ID)
	assert.Equal(t, 1500000.0, campaigns[0].Budget.Float())
	assert.JSONEq(t, `{"min_length":1000,"photo_ratio":60}`, string(campaigns[0].Requirements))

	_, err = Fixture("unknown")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestFixtureSettlementsPendingFilter(t *testing.T) {
	items, _, err := backend.DecodeList[models.Settlement](mustFixture(t, "settlements"))
	require.NoError(t, err)

	pending := settlement.FilterByStatus(items, "pending")
	require.Len(t, pending, 1)
	assert.Equal(t, models.ID("SETTLE-003"), pending[0].ID)
}

func TestFallbackDisabled(t *testing.T) {
	f := &Fallback{Store: &memSnapshots{data: map[string][]byte{"campaigns": []byte(`[]`)}}}
	_, _, err := f.Load(context.Background(), "campaigns", "")
	assert.ErrorIs(t, err, ErrNoData)

	var nilFallback *Fallback
	_, _, err = nilFallback.Load(context.Background(), "campaigns", "")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestFallbackPrefersSnapshot(t *testing.T) {
	ctx := context.Background()
	store := &memSnapshots{}
	f := &Fallback{Enabled: true, Store: store, TTL: time.Minute}

	raw, src, err := f.Load(ctx, "partners", "admin:a1")
	require.NoError(t, err)
	assert.Equal(t, SourceFixture, src)
	assert.NotEmpty(t, raw)

	f.Remember(ctx, "partners", "admin:a1", []byte(`[{"id":9}]`))
	raw, src, err = f.Load(ctx, "partners", "admin:a1")
	require.NoError(t, err)
	assert.Equal(t, SourceSnapshot, src)
	assert.JSONEq(t, `[{"id":9}]`, string(raw))
}

func TestFallbackSnapshotStaysInScope(t *testing.T) {
	ctx := context.Background()
	store := &memSnapshots{}
	f := &Fallback{Enabled: true, Store: store, TTL: time.Minute}

	f.Remember(ctx, "campaigns", "admin:a1", []byte(`[{"id":1,"title":"관리자 전용"}]`))

	raw, src, err := f.Load(ctx, "campaigns", "customer:c1")
	require.NoError(t, err)
	assert.Equal(t, SourceFixture, src)
	assert.NotContains(t, string(raw), "관리자 전용")

	_, src, err = f.Load(ctx, "campaigns", "admin:a2")
	require.NoError(t, err)
	assert.Equal(t, SourceFixture, src)
}

func TestFallbackSnapshotErrorUsesFixture(t *testing.T) {
	f := &Fallback{Enabled: true, Store: &memSnapshots{err: errors.New("down")}}
	_, src, err := f.Load(context.Background(), "payments", "admin:a1")
	require.NoError(t, err)
	assert.Equal(t, SourceFixture, src)
}

func mustFixture(t *testing.T, view string) []byte {
	t.Helper()
	raw, err := Fixture(view)
	require.NoError(t, err)
	return raw
}
