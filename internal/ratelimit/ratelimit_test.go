package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fixedClock is a settable time source.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fixedClock {
	return &fixedClock{t: time.Unix(1_700_000_000, 0)}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestAdmit_ExactCapacityThenReject(t *testing.T) {
	clock := newClock()
	l := New(Config{Capacity: 60, RefillPer: time.Second}).WithClock(clock.Now)

	for i := 0; i < 60; i++ {
		if !l.Admit("alice") {
			t.Fatalf("call %d should be admitted", i+1)
		}
	}
	if l.Admit("alice") {
		t.Fatal("61st call should be rejected")
	}
}

func TestAdmit_RefillsOneTokenPerSecond(t *testing.T) {
	clock := newClock()
	l := New(Config{Capacity: 60, RefillPer: time.Second}).WithClock(clock.Now)

	for n := 0; n < 60; n++ {
		l.Admit("alice")
	}
	if l.Admit("alice") {
		t.Fatal("bucket should be empty")
	}

	clock.Advance(time.Second)
	if !l.Admit("alice") {
		t.Fatal("one token should have refilled after a second")
	}
	if l.Admit("alice") {
		t.Fatal("exactly one token should have refilled")
	}
}

func TestAdmit_RejectedRequestsConsumeNothing(t *testing.T) {
	clock := newClock()
	l := New(Config{Capacity: 2, RefillPer: time.Second}).WithClock(clock.Now)

	l.Admit("alice")
	l.Admit("alice")
	for n := 0; n < 10; n++ {
		if l.Admit("alice") {
			t.Fatal("should be rejected")
		}
	}
	clock.Advance(time.Second)
	if !l.Admit("alice") {
		t.Fatal("rejections must not delay the refill")
	}
}

func TestAdmit_OwnersIsolated(t *testing.T) {
	clock := newClock()
	l := New(Config{Capacity: 1, RefillPer: time.Second}).WithClock(clock.Now)

	if !l.Admit("alice") {
		t.Fatal("alice should be admitted")
	}
	if !l.Admit("bob") {
		t.Fatal("bob has his own bucket")
	}
	if l.Admit("alice") {
		t.Fatal("alice exhausted her bucket")
	}
}

func TestAdmit_ConcurrentNoLostUpdates(t *testing.T) {
	clock := newClock()
	l := New(Config{Capacity: 100, RefillPer: time.Hour}).WithClock(clock.Now)

	var admitted atomic.Int64
	var wg sync.WaitGroup
	for n := 0; n < 200; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Admit("alice") {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := admitted.Load(); got != 100 {
		t.Fatalf("expected exactly 100 admissions, got %d", got)
	}
}

func TestIdleBucketsEvicted(t *testing.T) {
	clock := newClock()
	l := New(Config{Capacity: 1, RefillPer: time.Hour, IdleAfter: time.Minute}).WithClock(clock.Now)

	l.Admit("alice")
	clock.Advance(2 * time.Minute)
	l.Admit("bob") // triggers the sweep

	if l.Owners() != 1 {
		t.Fatalf("expected alice's bucket evicted, have %d buckets", l.Owners())
	}

	// Eviction resets the bucket to full capacity on next access.
	if !l.Admit("alice") {
		t.Fatal("evicted owner should start with a fresh bucket")
	}
}
