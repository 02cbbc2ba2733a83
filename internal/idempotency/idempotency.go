// Package idempotency deduplicates replayed write requests.
//
// A write carrying an Idempotency-Key executes at most once per
// (owner, key): concurrent replays wait on a per-key lock for the first
// execution to finish, later replays get the stored response back, and a
// replay with a different request body is a conflict.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain"
)

// DefaultRetention is how long records are kept before the key is reusable.
const DefaultRetention = 24 * time.Hour

// Record is the immutable outcome of a deduplicated write.
type Record struct {
	Key         string    `json:"key"`
	OwnerID     string    `json:"owner_id"`
	Fingerprint string    `json:"fingerprint"`
	Status      int       `json:"status"`
	ContentType string    `json:"content_type"`
	Body        []byte    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Response is the captured operation outcome replayed to duplicates.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Operation produces the response for a fresh, admitted request.
type Operation func(ctx context.Context) (Response, error)

// Store persists idempotency records keyed by (owner, key).
type Store interface {
	Get(ctx context.Context, ownerID, key string) (Record, bool, error)
	Put(ctx context.Context, rec Record) error
	Delete(ctx context.Context, ownerID, key string) error
}

// Fingerprint hashes a request body for payload comparison.
func Fingerprint(body []byte) string {
	h := sha256.Sum256(body)
	return hex.EncodeToString(h[:])
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// Coordinator implements the at-most-one-execution guarantee.
type Coordinator struct {
	store     Store
	retention time.Duration

	mu    sync.Mutex
	locks map[string]*keyLock

	now func() time.Time
}

// New creates a coordinator over the given record store.
func New(store Store, retention time.Duration) *Coordinator {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Coordinator{
		store:     store,
		retention: retention,
		locks:     make(map[string]*keyLock),
		now:       time.Now,
	}
}

// WithClock overrides the time source (tests).
func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	c.now = now
	return c
}

// Execute runs op once per (owner, key). An absent key disables
// deduplication. A terminal outcome (op returned a response, whatever its
// status) is persisted even if the caller has gone away, so a retry
// observes the same result instead of re-executing the side effect.
// Operation errors are transient: nothing is recorded and a retry with the
// same key executes again.
func (c *Coordinator) Execute(
	ctx context.Context, key, ownerID, fingerprint string, op Operation,
) (Response, error) {
	if key == "" {
		return op(ctx)
	}

	lockKey := ownerID + "\x00" + key
	lk := c.acquire(lockKey)
	defer c.release(lockKey, lk)

	now := c.now()
	rec, found, err := c.store.Get(ctx, ownerID, key)
	if err != nil {
		return Response{}, fmt.Errorf("load idempotency record: %w", err)
	}
	if found && now.After(rec.ExpiresAt) {
		// Lazy purge: the key becomes reusable.
		if err := c.store.Delete(ctx, ownerID, key); err != nil {
			return Response{}, fmt.Errorf("purge expired idempotency record: %w", err)
		}
		found = false
	}
	if found {
		if rec.Fingerprint != fingerprint {
			return Response{}, fmt.Errorf(
				"key %q fingerprint mismatch: %w", key, domain.ErrIdempotencyConflict,
			)
		}
		return Response{Status: rec.Status, ContentType: rec.ContentType, Body: rec.Body}, nil
	}

	resp, err := op(ctx)
	if err != nil {
		return Response{}, err
	}

	rec = Record{
		Key:         key,
		OwnerID:     ownerID,
		Fingerprint: fingerprint,
		Status:      resp.Status,
		ContentType: resp.ContentType,
		Body:        resp.Body,
		CreatedAt:   now,
		ExpiresAt:   now.Add(c.retention),
	}
	// Persist even when the caller aborted mid-operation: the outcome is
	// terminal and a retry must observe it rather than re-execute.
	if err := c.store.Put(context.WithoutCancel(ctx), rec); err != nil {
		return Response{}, fmt.Errorf("persist idempotency record: %w", err)
	}
	return resp, nil
}

func (c *Coordinator) acquire(key string) *keyLock {
	c.mu.Lock()
	lk, ok := c.locks[key]
	if !ok {
		lk = &keyLock{}
		c.locks[key] = lk
	}
	lk.refs++
	c.mu.Unlock()

	lk.mu.Lock()
	return lk
}

func (c *Coordinator) release(key string, lk *keyLock) {
	lk.mu.Unlock()
	c.mu.Lock()
	lk.refs--
	if lk.refs == 0 {
		delete(c.locks, key)
	}
	c.mu.Unlock()
}
