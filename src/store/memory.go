// Package store provides an in-memory store implementation.
package store

import (
	"context"
	"sync"
)

// DefaultMemoryCapacity bounds the number of events an in-memory journal retains.
const DefaultMemoryCapacity = 1000

// MemoryStore is an in-memory implementation of Store.
// It keeps the most recent events in a ring; counts cover every event ever recorded.
type MemoryStore struct {
	mu       sync.RWMutex
	events   []Event
	next     int
	full     bool
	counts   map[string]map[EventKind]int // flow -> kind -> count
	capacity int
}

// NewMemoryStore creates a new in-memory store holding at most capacity events.
// A non-positive capacity uses DefaultMemoryCapacity.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{
		events:   make([]Event, capacity),
		counts:   make(map[string]map[EventKind]int),
		capacity: capacity,
	}
}

// Record appends an event, evicting the oldest one when full.
func (s *MemoryStore) Record(ctx context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[s.next] = event
	s.next = (s.next + 1) % s.capacity
	if s.next == 0 {
		s.full = true
	}

	byKind, ok := s.counts[event.Flow]
	if !ok {
		byKind = make(map[EventKind]int)
		s.counts[event.Flow] = byKind
	}
	byKind[event.Kind]++

	return nil
}

// Recent returns up to limit events, newest first.
func (s *MemoryStore) Recent(ctx context.Context, flow string, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	size := s.next
	if s.full {
		size = s.capacity
	}
	if limit <= 0 || limit > size {
		limit = size
	}

	out := make([]Event, 0, limit)
	for i := 0; i < size && len(out) < limit; i++ {
		idx := (s.next - 1 - i + s.capacity) % s.capacity
		event := s.events[idx]
		if flow != "" && event.Flow != flow {
			continue
		}
		out = append(out, event)
	}
	return out, nil
}

// Counts returns per-kind totals.
func (s *MemoryStore) Counts(ctx context.Context, flow string) (map[EventKind]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[EventKind]int)
	for f, byKind := range s.counts {
		if flow != "" && f != flow {
			continue
		}
		for kind, n := range byKind {
			out[kind] += n
		}
	}
	return out, nil
}

// Close is a no-op for in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
