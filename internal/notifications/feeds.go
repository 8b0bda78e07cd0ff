package notifications

import (
	"sync"
	"time"
)

// Feeds keeps one Feed per console client and role so synthesized
// notifications and read marks never cross sessions. Feeds idle longer than
// the TTL are dropped.
type Feeds struct {
	mu    sync.Mutex
	ttl   time.Duration
	feeds map[string]*feedEntry
	now   func() time.Time
}

type feedEntry struct {
	feed *Feed
	seen time.Time
}

// NewFeeds creates a registry. A ttl of zero keeps feeds forever.
func NewFeeds(ttl time.Duration) *Feeds {
	return &Feeds{ttl: ttl, feeds: make(map[string]*feedEntry), now: time.Now}
}

// For returns the feed of client acting as role, creating it on first use.
func (fs *Feeds) For(client, role string) *Feed {
	key := client + "|" + role
	now := fs.now()
	fs.mu.Lock()
	defer fs.mu.Unlock()
	e, ok := fs.feeds[key]
	if !ok {
		fs.pruneLocked(now)
		f := NewFeed()
		f.now = fs.now
		e = &feedEntry{feed: f}
		fs.feeds[key] = e
	}
	e.seen = now
	return e.feed
}

// Prune drops feeds idle longer than the TTL and returns how many it
// removed.
func (fs *Feeds) Prune() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.pruneLocked(fs.now())
}

func (fs *Feeds) pruneLocked(now time.Time) int {
	if fs.ttl <= 0 {
		return 0
	}
	n := 0
	for k, e := range fs.feeds {
		if now.Sub(e.seen) > fs.ttl {
			delete(fs.feeds, k)
			n++
		}
	}
	return n
}

// Len reports how many feeds are held.
func (fs *Feeds) Len() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.feeds)
}
