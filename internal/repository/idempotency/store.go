// Package idempotency persists idempotency records in the kv store so
// deduplication survives restarts when a durable backend is configured.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/idempotency"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/kv"
)

const keyPrefix = "resumerag:idem:"

func recordKey(ownerID, key string) string {
	return keyPrefix + ownerID + ":" + key
}

// store is the consumer interface for record persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

var _ idempotency.Store = (*Store)(nil)

// Store implements idempotency.Store over the kv facade. Records carry a
// TTL matching their retention so the backend expires them on its own.
type Store struct {
	store store
}

// New creates a kv-backed idempotency record store.
func New(s store) *Store {
	return &Store{store: s}
}

// Get returns the record for (owner, key) if present.
func (s *Store) Get(ctx context.Context, ownerID, key string) (idempotency.Record, bool, error) {
	raw, err := s.store.Get(ctx, recordKey(ownerID, key))
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return idempotency.Record{}, false, nil
		}
		return idempotency.Record{}, false, fmt.Errorf("get %s: %w", recordKey(ownerID, key), err)
	}
	var rec idempotency.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return idempotency.Record{}, false, fmt.Errorf("unmarshal idempotency record: %w", err)
	}
	return rec, true, nil
}

// Put stores a record with a TTL derived from its expiry.
func (s *Store) Put(ctx context.Context, rec idempotency.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal idempotency record: %w", err)
	}
	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	key := recordKey(rec.OwnerID, rec.Key)
	if err := s.store.SetWithTTL(ctx, key, data, ttl); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete removes a record.
func (s *Store) Delete(ctx context.Context, ownerID, key string) error {
	if err := s.store.Del(ctx, recordKey(ownerID, key)); err != nil {
		return fmt.Errorf("del %s: %w", recordKey(ownerID, key), err)
	}
	return nil
}
