package models

import (
	"sync"
	"sync/atomic"
	"time"
)

// ViewStore remembers the most recently loaded list of each view per console
// client so detail modals can be opened without another backend round trip.
type ViewStore interface {
	// Put replaces the list a client last saw for a view.
	Put(client, view string, records []Record)
	// Get returns the list a client last saw for a view, or nil.
	Get(client, view string) []Record
	// Find looks up one record by key in the last loaded list.
	Find(client, view, key string) (Record, error)
	// Forget drops every view remembered for a client.
	Forget(client string)
	// ForgetView drops one view for every client.
	ForgetView(view string)
}

type viewKey struct {
	client string
	view   string
}

type viewEntry struct {
	records  []Record
	index    map[string]int
	loadedAt time.Time
}

// viewSnapshot is an immutable set of loaded views.
type viewSnapshot struct {
	views map[viewKey]*viewEntry
}

// InMemoryViewStore implements ViewStore with atomic snapshot swaps. Readers
// never block; writers copy the map under a mutex and publish the new snapshot.
type InMemoryViewStore struct {
	data   atomic.Pointer[viewSnapshot]
	mu     sync.Mutex
	maxAge time.Duration
	now    func() time.Time
}

// NewInMemoryViewStore creates an empty store. Entries older than maxAge are
// treated as absent; a zero maxAge keeps entries until replaced.
func NewInMemoryViewStore(maxAge time.Duration) *InMemoryViewStore {
	s := &InMemoryViewStore{maxAge: maxAge, now: time.Now}
	s.data.Store(&viewSnapshot{views: make(map[viewKey]*viewEntry)})
	return s
}

func (s *InMemoryViewStore) Put(client, view string, records []Record) {
	entry := &viewEntry{
		records:  make([]Record, len(records)),
		index:    make(map[string]int, len(records)),
		loadedAt: s.now(),
	}
	copy(entry.records, records)
	for i, r := range entry.records {
		// first occurrence wins so duplicates resolve the way the list shows them
		if _, ok := entry.index[r.Key()]; !ok {
			entry.index[r.Key()] = i
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.data.Load()
	next := &viewSnapshot{views: make(map[viewKey]*viewEntry, len(old.views)+1)}
	for k, v := range old.views {
		if s.expired(v) {
			continue
		}
		next.views[k] = v
	}
	next.views[viewKey{client, view}] = entry
	s.data.Store(next)
}

func (s *InMemoryViewStore) Get(client, view string) []Record {
	entry, ok := s.data.Load().views[viewKey{client, view}]
	if !ok || s.expired(entry) {
		return nil
	}
	// Return a copy to prevent external modification
	out := make([]Record, len(entry.records))
	copy(out, entry.records)
	return out
}

func (s *InMemoryViewStore) Find(client, view, key string) (Record, error) {
	entry, ok := s.data.Load().views[viewKey{client, view}]
	if !ok || s.expired(entry) {
		return nil, ErrNotFound
	}
	i, ok := entry.index[key]
	if !ok {
		return nil, ErrNotFound
	}
	return entry.records[i], nil
}

func (s *InMemoryViewStore) Forget(client string) {
	s.drop(func(k viewKey) bool { return k.client == client })
}

func (s *InMemoryViewStore) ForgetView(view string) {
	s.drop(func(k viewKey) bool { return k.view == view })
}

func (s *InMemoryViewStore) drop(match func(viewKey) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.data.Load()
	next := &viewSnapshot{views: make(map[viewKey]*viewEntry, len(old.views))}
	for k, v := range old.views {
		if !match(k) {
			next.views[k] = v
		}
	}
	s.data.Store(next)
}

func (s *InMemoryViewStore) expired(e *viewEntry) bool {
	return s.maxAge > 0 && s.now().Sub(e.loadedAt) > s.maxAge
}
