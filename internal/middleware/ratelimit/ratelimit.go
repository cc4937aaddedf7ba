package ratelimit

import (
	"sync"
	"time"
)

// bucket is a token bucket for a single client.
type bucket struct {
	tokens     float64
	capacity   float64
	rate       float64
	lastRefill time.Time
	mu         sync.Mutex
	timer      *time.Timer
	key        string
	parent     *Limiter
}

// Limiter tracks one token bucket per client key. Idle buckets expire
// so the map does not grow with every visitor ever seen.
type Limiter struct {
	buckets map[string]*bucket
	mu      sync.RWMutex
	rate    float64
	burst   float64
	idleTTL time.Duration
}

// New creates a Limiter refilling rate tokens per second up to burst.
func New(rate, burst float64, idleTTL time.Duration) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		idleTTL: idleTTL,
	}
}

func (l *Limiter) cleanup(key string) {
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
}

func (b *bucket) resetTimer() {
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.parent.idleTTL, func() {
		b.parent.cleanup(b.key)
	})
}

func (l *Limiter) getBucket(key string) *bucket {
	l.mu.RLock()
	b, exists := l.buckets[key]
	l.mu.RUnlock()

	if exists {
		b.resetTimer()
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	b, exists = l.buckets[key]
	if exists {
		b.resetTimer()
		return b
	}

	b = &bucket{
		tokens:     l.burst,
		capacity:   l.burst,
		rate:       l.rate,
		lastRefill: time.Now(),
		key:        key,
		parent:     l,
	}
	l.buckets[key] = b
	b.resetTimer()

	return b
}

func (b *bucket) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()

	b.tokens += elapsed * b.rate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}

	return false
}

// Allow reports whether a request from the given client key may proceed.
func (l *Limiter) Allow(key string) bool {
	return l.getBucket(key).allow()
}

// Stop cancels all expiration timers.
func (l *Limiter) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, b := range l.buckets {
		if b.timer != nil {
			b.timer.Stop()
		}
	}
}
