package ratelimit

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/patrickwarner/troyconsole/internal/observability"
)

// Config holds the mutation rate limit settings.
type Config struct {
	Capacity   int  // burst allowance per client
	RefillRate int  // tokens added per second
	Enabled    bool // when false Allow always succeeds
}

// ClientLimiter keeps one token bucket per console client. Buckets are
// created lazily on the first mutation of a client.
type ClientLimiter struct {
	buckets map[string]*TokenBucket
	mu      sync.RWMutex
	config  Config
	metrics observability.MetricsRegistry
	now     func() time.Time
}

// NewClientLimiter creates a limiter. A nil registry disables metrics.
func NewClientLimiter(config Config, metrics observability.MetricsRegistry) *ClientLimiter {
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &ClientLimiter{
		buckets: make(map[string]*TokenBucket),
		config:  config,
		metrics: metrics,
		now:     time.Now,
	}
}

// Allow reports whether client may perform another mutation on entity.
// Rejections are counted per entity.
func (l *ClientLimiter) Allow(client, entity string) bool {
	if l == nil || !l.config.Enabled {
		return true
	}

	l.mu.RLock()
	bucket, ok := l.buckets[client]
	l.mu.RUnlock()
	if !ok {
		l.mu.Lock()
		bucket, ok = l.buckets[client]
		if !ok {
			bucket = newTokenBucket(l.config.Capacity, l.config.RefillRate, l.now)
			l.buckets[client] = bucket
		}
		l.mu.Unlock()
	}

	if bucket.Allow() {
		return true
	}
	l.metrics.IncrementRateLimitHits(entity)
	return false
}

// Prune drops buckets of clients that have been quiet for longer than
// maxIdle and returns how many were removed.
func (l *ClientLimiter) Prune(maxIdle time.Duration) int {
	cutoff := l.now().Add(-maxIdle)
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for client, b := range l.buckets {
		if b.idle(cutoff) {
			delete(l.buckets, client)
			n++
		}
	}
	return n
}

// Stats returns per-client statistics ordered by client id.
func (l *ClientLimiter) Stats() []Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Stats, 0, len(l.buckets))
	for client, bucket := range l.buckets {
		hits, total := bucket.Stats()
		s := Stats{Client: client, Hits: hits, Total: total}
		if total > 0 {
			s.HitRate = float64(hits) / float64(total)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Client < out[j].Client })
	return out
}

// Stats describes rate limiting activity of one console client.
type Stats struct {
	Client  string  `json:"client"`
	Hits    int64   `json:"hits"`
	Total   int64   `json:"total"`
	HitRate float64 `json:"hit_rate"`
}

func (s Stats) String() string {
	return fmt.Sprintf("client %s: %d/%d limited (%.2f%%)", s.Client, s.Hits, s.Total, s.HitRate*100)
}
