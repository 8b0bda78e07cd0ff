package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickwarner/troyconsole/internal/observability"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)}
}

func TestTokenBucketAllow(t *testing.T) {
	clock := newClock()
	bucket := newTokenBucket(5, 1, clock.Now)

	for i := 0; i < 5; i++ {
		assert.True(t, bucket.Allow(), "request %d", i+1)
	}
	assert.False(t, bucket.Allow())

	hits, total := bucket.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(6), total)
}

func TestTokenBucketRefill(t *testing.T) {
	clock := newClock()
	bucket := newTokenBucket(2, 10, clock.Now)
	bucket.Allow()
	bucket.Allow()
	assert.False(t, bucket.Allow())

	clock.Advance(200 * time.Millisecond)
	assert.True(t, bucket.Allow())
	assert.True(t, bucket.Allow())
	assert.False(t, bucket.Allow())

	// refill never exceeds capacity
	clock.Advance(time.Hour)
	assert.True(t, bucket.Allow())
	assert.True(t, bucket.Allow())
	assert.False(t, bucket.Allow())
}

func TestClientLimiterPerClient(t *testing.T) {
	metrics := &observability.MockMetricsRegistry{}
	l := NewClientLimiter(Config{Capacity: 2, RefillRate: 1, Enabled: true}, metrics)
	clock := newClock()
	l.now = clock.Now

	assert.True(t, l.Allow("a", "payments"))
	assert.True(t, l.Allow("a", "payments"))
	assert.False(t, l.Allow("a", "payments"))
	assert.True(t, l.Allow("b", "payments"))
	assert.Equal(t, 1, metrics.Count(metrics.Limited, "payments"))

	stats := l.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, "a", stats[0].Client)
	assert.Equal(t, int64(1), stats[0].Hits)
	assert.Equal(t, int64(3), stats[0].Total)
	assert.Contains(t, stats[0].String(), "1/3")
}

func TestClientLimiterDisabled(t *testing.T) {
	l := NewClientLimiter(Config{Capacity: 1, RefillRate: 1}, nil)
	for i := 0; i < 10; i++ {
		assert.True(t, l.Allow("a", "payments"))
	}
	assert.Empty(t, l.Stats())

	var nilLimiter *ClientLimiter
	assert.True(t, nilLimiter.Allow("a", "payments"))
}

func TestClientLimiterPrune(t *testing.T) {
	l := NewClientLimiter(Config{Capacity: 1, RefillRate: 1, Enabled: true}, nil)
	clock := newClock()
	l.now = clock.Now

	l.Allow("quiet", "payments")
	clock.Advance(2 * time.Minute)
	l.Allow("busy", "payments")

	assert.Equal(t, 1, l.Prune(time.Minute))
	stats := l.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, "busy", stats[0].Client)

	// a pruned client starts over with a full bucket
	assert.True(t, l.Allow("quiet", "payments"))
}

func TestClientLimiterConcurrent(t *testing.T) {
	l := NewClientLimiter(Config{Capacity: 50, RefillRate: 0, Enabled: true}, &observability.MockMetricsRegistry{})
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("shared", "settlements") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}
