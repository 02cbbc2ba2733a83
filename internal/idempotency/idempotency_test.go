package idempotency

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain"
)

func okOp(body string, counter *atomic.Int64) Operation {
	return func(context.Context) (Response, error) {
		counter.Add(1)
		return Response{Status: 201, ContentType: "application/json", Body: []byte(body)}, nil
	}
}

func TestExecute_NoKeyRunsDirectly(t *testing.T) {
	c := New(NewMemoryStore(), time.Hour)
	var calls atomic.Int64

	for n := 0; n < 3; n++ {
		resp, err := c.Execute(context.Background(), "", "alice", Fingerprint([]byte("x")), okOp(`{"id":1}`, &calls))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.Status != 201 {
			t.Fatalf("unexpected status %d", resp.Status)
		}
	}
	if calls.Load() != 3 {
		t.Errorf("absent key must not deduplicate, got %d calls", calls.Load())
	}
}

func TestExecute_ReplayReturnsStoredResponseOnce(t *testing.T) {
	c := New(NewMemoryStore(), time.Hour)
	var calls atomic.Int64
	fp := Fingerprint([]byte(`{"title":"x"}`))

	first, err := c.Execute(context.Background(), "k1", "alice", fp, okOp(`{"id":42}`, &calls))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := c.Execute(context.Background(), "k1", "alice", fp, okOp(`{"id":43}`, &calls))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls.Load() != 1 {
		t.Fatalf("side effect must occur exactly once, got %d", calls.Load())
	}
	if !bytes.Equal(first.Body, second.Body) || first.Status != second.Status {
		t.Errorf("replay must be byte-identical: %q vs %q", first.Body, second.Body)
	}
}

func TestExecute_FingerprintMismatchConflicts(t *testing.T) {
	c := New(NewMemoryStore(), time.Hour)
	var calls atomic.Int64

	if _, err := c.Execute(context.Background(), "k1", "alice", Fingerprint([]byte("a")), okOp("r", &calls)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := c.Execute(context.Background(), "k1", "alice", Fingerprint([]byte("b")), okOp("r", &calls))
	if !errors.Is(err, domain.ErrIdempotencyConflict) {
		t.Fatalf("expected idempotency conflict, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("conflicting request must not execute, got %d calls", calls.Load())
	}
}

func TestExecute_KeysScopedToOwner(t *testing.T) {
	c := New(NewMemoryStore(), time.Hour)
	var calls atomic.Int64
	fp := Fingerprint([]byte("same"))

	_, _ = c.Execute(context.Background(), "k1", "alice", fp, okOp("a", &calls))
	_, _ = c.Execute(context.Background(), "k1", "bob", fp, okOp("b", &calls))

	if calls.Load() != 2 {
		t.Errorf("same key under different owners must execute separately, got %d", calls.Load())
	}
}

func TestExecute_TerminalFailureIsReplayed(t *testing.T) {
	c := New(NewMemoryStore(), time.Hour)
	var calls atomic.Int64
	op := func(context.Context) (Response, error) {
		calls.Add(1)
		return Response{Status: 400, Body: []byte(`{"error":{"code":"FIELD_REQUIRED"}}`)}, nil
	}
	fp := Fingerprint([]byte("bad"))

	_, _ = c.Execute(context.Background(), "k1", "alice", fp, op)
	resp, err := c.Execute(context.Background(), "k1", "alice", fp, op)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != 400 || calls.Load() != 1 {
		t.Errorf("terminal 4xx must be replayed without re-execution (status %d, calls %d)", resp.Status, calls.Load())
	}
}

func TestExecute_OperationErrorNotRecorded(t *testing.T) {
	c := New(NewMemoryStore(), time.Hour)
	var calls atomic.Int64
	fail := func(context.Context) (Response, error) {
		calls.Add(1)
		return Response{}, errors.New("transient")
	}
	fp := Fingerprint([]byte("x"))

	if _, err := c.Execute(context.Background(), "k1", "alice", fp, fail); err == nil {
		t.Fatal("expected error")
	}
	// Retry executes again because nothing terminal was stored.
	if _, err := c.Execute(context.Background(), "k1", "alice", fp, okOp("ok", &calls)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 executions, got %d", calls.Load())
	}
}

func TestExecute_ExpiredKeyIsReusable(t *testing.T) {
	store := NewMemoryStore()
	now := time.Unix(1_700_000_000, 0)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	c := New(store, time.Hour).WithClock(clock)

	var calls atomic.Int64
	fp := Fingerprint([]byte("x"))
	_, _ = c.Execute(context.Background(), "k1", "alice", fp, okOp("a", &calls))

	mu.Lock()
	now = now.Add(2 * time.Hour)
	mu.Unlock()

	// Different payload under the expired key is no longer a conflict.
	if _, err := c.Execute(context.Background(), "k1", "alice", Fingerprint([]byte("y")), okOp("b", &calls)); err != nil {
		t.Fatalf("expired key should be reusable: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 executions, got %d", calls.Load())
	}
}

func TestExecute_ConcurrentReplaysExecuteOnce(t *testing.T) {
	c := New(NewMemoryStore(), time.Hour)
	var calls atomic.Int64
	slow := func(context.Context) (Response, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return Response{Status: 201, Body: []byte("done")}, nil
	}
	fp := Fingerprint([]byte("x"))

	var wg sync.WaitGroup
	for n := 0; n < 10; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := c.Execute(context.Background(), "k1", "alice", fp, slow)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if string(resp.Body) != "done" {
				t.Errorf("unexpected body %q", resp.Body)
			}
		}()
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("concurrent replays must execute the operation once, got %d", calls.Load())
	}
}

func TestMemoryStore_Sweep(t *testing.T) {
	store := NewMemoryStore()
	now := time.Unix(1_700_000_000, 0)
	_ = store.Put(context.Background(), Record{OwnerID: "a", Key: "fresh", ExpiresAt: now.Add(time.Hour)})
	_ = store.Put(context.Background(), Record{OwnerID: "a", Key: "stale", ExpiresAt: now.Add(-time.Hour)})

	if n := store.Sweep(now); n != 1 {
		t.Fatalf("expected 1 swept record, got %d", n)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 remaining record, got %d", store.Len())
	}
	if _, found, _ := store.Get(context.Background(), "a", "fresh"); !found {
		t.Error("fresh record must survive the sweep")
	}
}
