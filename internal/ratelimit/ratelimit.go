// Package ratelimit provides per-owner request admission control.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Defaults match the 60-requests-per-minute budget of the API.
const (
	DefaultCapacity  = 60
	DefaultRefillPer = time.Second
	DefaultIdleAfter = 10 * time.Minute
)

// Config tunes the limiter.
type Config struct {
	Capacity  int           // bucket capacity (burst)
	RefillPer time.Duration // interval per replenished token
	IdleAfter time.Duration // evict buckets untouched for this long
}

func (c *Config) applyDefaults() {
	if c.Capacity <= 0 {
		c.Capacity = DefaultCapacity
	}
	if c.RefillPer <= 0 {
		c.RefillPer = DefaultRefillPer
	}
	if c.IdleAfter <= 0 {
		c.IdleAfter = DefaultIdleAfter
	}
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// Limiter admits requests from a token bucket per owner. Buckets refill
// lazily on each call; rejected requests consume nothing. Idle buckets are
// evicted; an evicted owner starts over at full capacity.
type Limiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	capacity  int
	refill    rate.Limit
	idleAfter time.Duration
	lastSweep time.Time

	now func() time.Time // injectable for tests
}

// New creates a limiter.
func New(cfg Config) *Limiter {
	cfg.applyDefaults()
	return &Limiter{
		buckets:   make(map[string]*bucket),
		capacity:  cfg.Capacity,
		refill:    rate.Every(cfg.RefillPer),
		idleAfter: cfg.IdleAfter,
		now:       time.Now,
	}
}

// WithClock overrides the time source (tests).
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Admit consumes one token for ownerID if available and reports whether the
// request is admitted.
func (l *Limiter) Admit(ownerID string) bool {
	now := l.now()

	l.mu.Lock()
	b, ok := l.buckets[ownerID]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.refill, l.capacity)}
		l.buckets[ownerID] = b
	}
	b.lastSeen = now
	l.sweepLocked(now)
	l.mu.Unlock()

	return b.lim.AllowN(now, 1)
}

// sweepLocked evicts idle buckets at most once per idle window.
func (l *Limiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < l.idleAfter {
		return
	}
	l.lastSweep = now
	for owner, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.idleAfter {
			delete(l.buckets, owner)
		}
	}
}

// Owners returns the number of tracked buckets.
func (l *Limiter) Owners() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
