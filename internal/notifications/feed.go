// Package notifications merges backend notifications with the ones the
// console synthesizes after actions.
package notifications

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/patrickwarner/troyconsole/internal/models"
)

const (
	// MaxLocal bounds how many synthesized notifications a feed keeps.
	MaxLocal = 100
	// MaxRead bounds how many read marks a feed remembers; the oldest go
	// first.
	MaxRead = 500
)

// Marker is the backend side of read tracking.
type Marker interface {
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
}

// Feed holds synthesized notifications and read state for ids not yet
// confirmed by the backend. It is safe for concurrent use.
type Feed struct {
	mu        sync.Mutex
	local     []models.Notification
	read      map[models.ID]bool
	readOrder []models.ID
	now       func() time.Time
}

func NewFeed() *Feed {
	return &Feed{read: make(map[models.ID]bool), now: time.Now}
}

// Push synthesizes a notification and returns it.
func (f *Feed) Push(typ models.NotificationType, title, message string) models.Notification {
	n := models.Notification{
		ID:        models.ID(uuid.NewString()),
		Title:     title,
		Message:   message,
		Type:      typ,
		CreatedAt: f.now().UTC().Format(time.RFC3339),
		Local:     true,
	}
	f.mu.Lock()
	f.local = append(f.local, n)
	if len(f.local) > MaxLocal {
		f.local = f.local[len(f.local)-MaxLocal:]
	}
	f.mu.Unlock()
	return n
}

// Merge combines server notifications with the feed's local ones. Entries
// are de-duplicated by id (server wins), local read marks are applied and
// the result is ordered newest first.
func (f *Feed) Merge(server []models.Notification) []models.Notification {
	return f.merge(server, true)
}

// Marked applies local read marks to server notifications without adding
// the feed's local ones.
func (f *Feed) Marked(server []models.Notification) []models.Notification {
	return f.merge(server, false)
}

// LocalCount reports how many synthesized notifications the feed holds.
func (f *Feed) LocalCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.local)
}

func (f *Feed) merge(server []models.Notification, withLocal bool) []models.Notification {
	f.mu.Lock()
	var local []models.Notification
	if withLocal {
		local = append(local, f.local...)
	}
	read := make(map[models.ID]bool, len(f.read))
	for k, v := range f.read {
		read[k] = v
	}
	f.mu.Unlock()

	seen := make(map[models.ID]bool, len(server)+len(local))
	out := make([]models.Notification, 0, len(server)+len(local))
	for _, src := range [][]models.Notification{server, local} {
		for _, n := range src {
			if n.ID != "" && seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			if read[n.ID] {
				n.IsRead = true
			}
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return createdAt(out[i]).After(createdAt(out[j]))
	})
	return out
}

func createdAt(n models.Notification) time.Time {
	t, err := models.ParseDate(n.CreatedAt, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

// UnreadCount counts unread entries.
func UnreadCount(ns []models.Notification) int {
	c := 0
	for _, n := range ns {
		if !n.IsRead {
			c++
		}
	}
	return c
}

// MarkRead marks one notification read. Local notifications never reach the
// backend; for the rest the backend call must succeed before the mark sticks.
func (f *Feed) MarkRead(ctx context.Context, m Marker, id models.ID) error {
	if !f.isLocal(id) && m != nil {
		if err := m.MarkNotificationRead(ctx, string(id)); err != nil {
			return err
		}
	}
	f.mu.Lock()
	f.markLocked(id)
	f.mu.Unlock()
	return nil
}

// MarkAllRead marks everything read on the backend and in the feed.
func (f *Feed) MarkAllRead(ctx context.Context, m Marker, current []models.Notification) error {
	if m != nil {
		if err := m.MarkAllNotificationsRead(ctx); err != nil {
			return err
		}
	}
	f.mu.Lock()
	for _, n := range current {
		f.markLocked(n.ID)
	}
	for _, n := range f.local {
		f.markLocked(n.ID)
	}
	f.mu.Unlock()
	return nil
}

// markLocked records id as read, dropping the oldest marks past MaxRead.
// Callers hold f.mu.
func (f *Feed) markLocked(id models.ID) {
	if f.read[id] {
		return
	}
	f.read[id] = true
	f.readOrder = append(f.readOrder, id)
	for len(f.readOrder) > MaxRead {
		delete(f.read, f.readOrder[0])
		f.readOrder = f.readOrder[1:]
	}
}

// ReadMarks reports how many read marks the feed holds.
func (f *Feed) ReadMarks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.read)
}

func (f *Feed) isLocal(id models.ID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.local {
		if n.ID == id {
			return true
		}
	}
	return false
}
