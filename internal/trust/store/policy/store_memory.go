// Package policy provides PolicyStore implementations.
package policy

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"trustgate/internal/trust/models"
)

// InMemoryStore keeps the policy table in memory. Policies are administrator
// managed and read-heavy; writes copy-on-insert so reads never hold the lock
// while the engine iterates.
type InMemoryStore struct {
	mu       sync.RWMutex
	policies []models.Policy
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// ListActive returns active policies sorted by priority descending.
func (s *InMemoryStore) ListActive(_ context.Context) ([]models.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]models.Policy, 0, len(s.policies))
	for _, p := range s.policies {
		if p.IsActive {
			active = append(active, p)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Priority > active[j].Priority
	})
	return active, nil
}

func (s *InMemoryStore) Insert(_ context.Context, policy models.Policy) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if policy.ID == "" {
		policy.ID = uuid.NewString()
	}
	s.policies = append(s.policies, policy)
	return policy.ID, nil
}
