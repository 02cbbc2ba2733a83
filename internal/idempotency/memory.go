package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process record store.
type MemoryStore struct {
	mu   sync.RWMutex
	recs map[string]Record
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string]Record)}
}

func storeKey(ownerID, key string) string { return ownerID + "\x00" + key }

// Get returns the record for (owner, key) if present.
func (s *MemoryStore) Get(_ context.Context, ownerID, key string) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[storeKey(ownerID, key)]
	return rec, ok, nil
}

// Put stores a record.
func (s *MemoryStore) Put(_ context.Context, rec Record) error {
	s.mu.Lock()
	s.recs[storeKey(rec.OwnerID, rec.Key)] = rec
	s.mu.Unlock()
	return nil
}

// Delete removes a record.
func (s *MemoryStore) Delete(_ context.Context, ownerID, key string) error {
	s.mu.Lock()
	delete(s.recs, storeKey(ownerID, key))
	s.mu.Unlock()
	return nil
}

// Sweep drops records expired as of now. Intended for a periodic ticker;
// expired records are also purged lazily on access.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, rec := range s.recs {
		if now.After(rec.ExpiresAt) {
			delete(s.recs, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recs)
}
