package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/patrickwarner/troyconsole/internal/models"
)

// Journal records console mutations. Postgres is the durable implementation;
// MemoryJournal serves tests and deployments without a database.
type Journal interface {
	InsertAction(ctx context.Context, a *models.ConsoleAction) error
	RecentActions(ctx context.Context, entity string, limit int) ([]models.ConsoleAction, error)
}

var (
	_ Journal = (*Postgres)(nil)
	_ Journal = (*MemoryJournal)(nil)
)

// MemoryJournal keeps actions in process memory.
type MemoryJournal struct {
	mu      sync.Mutex
	nextID  int64
	actions []models.ConsoleAction
}

func NewMemoryJournal() *MemoryJournal { return &MemoryJournal{} }

func (j *MemoryJournal) InsertAction(_ context.Context, a *models.ConsoleAction) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.nextID++
	a.ID = j.nextID
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	j.actions = append(j.actions, *a)
	return nil
}

func (j *MemoryJournal) RecentActions(_ context.Context, entity string, limit int) ([]models.ConsoleAction, error) {
	if limit <= 0 {
		limit = 50
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]models.ConsoleAction, 0, len(j.actions))
	for _, a := range j.actions {
		if entity == "" || a.Entity == entity {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, k int) bool {
		if out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].ID > out[k].ID
		}
		return out[i].CreatedAt.After(out[k].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
