package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickwarner/troyconsole/internal/models"
)

func TestMemoryJournalNewestFirst(t *testing.T) {
	j := NewMemoryJournal()
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	for i, entity := range []string{"payment", "settlement", "payment"} {
		a := &models.ConsoleAction{Role: "admin", Entity: entity, Action: "approve", Outcome: models.OutcomeSuccess, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, j.InsertAction(ctx, a))
		assert.Equal(t, int64(i+1), a.ID)
	}

	all, err := j.RecentActions(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(3), all[0].ID)

	payments, err := j.RecentActions(ctx, "payment", 1)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, int64(3), payments[0].ID)
}
