// Package memory provides an in-memory audit store for development and tests.
package memory

import (
	"context"
	"sync"

	"trustgate/pkg/platform/audit"
)

// Store keeps audit events in memory. Append-only, bounded to avoid
// unbounded growth in long-running processes.
type Store struct {
	mu     sync.RWMutex
	events []audit.Event
	max    int
}

const defaultMaxEvents = 10000

func New() *Store {
	return &Store{max: defaultMaxEvents}
}

func (s *Store) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	if len(s.events) > s.max {
		// Drop oldest; the durable trail lives in the external sink.
		s.events = s.events[len(s.events)-s.max:]
	}
	return nil
}

func (s *Store) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.events) {
		limit = len(s.events)
	}
	out := make([]audit.Event, 0, limit)
	for i := len(s.events) - 1; i >= len(s.events)-limit; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}
