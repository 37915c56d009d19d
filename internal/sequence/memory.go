package sequence

import (
	"context"
	"sync"
)

// MemoryStore is a mutex-guarded counter store for tests and local runs
// without Postgres. Not suitable for production: allocation must survive
// restarts and be visible across service instances.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]*memoryCounter
}

type memoryCounter struct {
	year  int
	value int64
}

// NewMemoryStore builds an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: make(map[string]*memoryCounter)}
}

// NextValue implements CounterStore with the same year-rollover semantics
// as the Postgres store.
func (s *MemoryStore) NextValue(ctx context.Context, tenantID string, year int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counter, ok := s.counters[tenantID]
	if !ok {
		counter = &memoryCounter{year: year}
		s.counters[tenantID] = counter
	}
	if counter.year != year {
		counter.year = year
		counter.value = 0
	}
	counter.value++
	return counter.value, nil
}
