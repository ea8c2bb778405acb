package repository

import (
	"context"
	"sync"

	"github.com/okian/marks/pkg/metrics"
)

// MemoryStore is a bounded in-memory Store with FIFO eviction. Stored
// datasets are cloned on the way in and out so callers never share memory
// with the cache.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    map[Key]Stages
	order      []Key
	maxEntries int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		maxEntries: defaultMaxEntries,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.entries = make(map[Key]Stages, s.maxEntries)
	return s
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key Key) (Stages, error) {
	s.mu.RLock()
	st, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		metrics.RecordStageCacheMiss()
		return Stages{}, ErrNotFound
	}
	metrics.RecordStageCacheHit()
	return Stages{First: st.First.Clone(), Final: st.Final.Clone()}, nil
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, key Key, stages Stages) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; !exists {
		for len(s.order) >= s.maxEntries {
			oldest := s.order[0]
			s.order = s.order[1:]
			delete(s.entries, oldest)
		}
		s.order = append(s.order, key)
	}
	s.entries[key] = Stages{First: stages.First.Clone(), Final: stages.Final.Clone()}
	metrics.UpdateStageCacheEntries(len(s.entries))
	return nil
}

// DeleteSession implements Store.
func (s *MemoryStore) DeleteSession(_ context.Context, sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.order[:0]
	removed := 0
	for _, k := range s.order {
		if k.SessionID == sessionID {
			delete(s.entries, k)
			removed++
			continue
		}
		kept = append(kept, k)
	}
	s.order = kept
	metrics.UpdateStageCacheEntries(len(s.entries))
	return removed
}

// Len implements Store.
func (s *MemoryStore) Len(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
