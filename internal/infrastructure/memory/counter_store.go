package memory

import (
	"context"
	"sync"
)

// CounterStore is the in-process counter resource. The mutex makes each
// increment an atomic read-modify-write, matching the contract Redis gives
// via HINCRBY. Fields are created at 1 on first touch.
type CounterStore struct {
	mu       sync.Mutex
	counters map[string]map[string]int64
}

func NewCounterStore() *CounterStore {
	return &CounterStore{counters: make(map[string]map[string]int64)}
}

func (s *CounterStore) Increment(ctx context.Context, key, field string) (int64, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	fields, ok := s.counters[key]
	if !ok {
		fields = make(map[string]int64)
		s.counters[key] = fields
	}
	fields[field]++
	return fields[field], nil
}
