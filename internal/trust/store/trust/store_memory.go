// Package trust provides TrustStore implementations.
package trust

import (
	"context"
	"sync"

	"trustgate/internal/trust/models"
	"trustgate/pkg/platform/sentinel"
)

// InMemoryStore keeps trust records in memory. Intended for development and
// tests; production deployments use the Redis or Postgres store.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.TrustRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]models.TrustRecord)}
}

func pairKey(userID, deviceID string) string {
	return userID + ":" + deviceID
}

func (s *InMemoryStore) Get(_ context.Context, userID, deviceID string) (models.TrustRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.records[pairKey(userID, deviceID)]; ok {
		return record, nil
	}
	return models.TrustRecord{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) Upsert(_ context.Context, record models.TrustRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[pairKey(record.UserID, record.DeviceID)] = record
	return nil
}
