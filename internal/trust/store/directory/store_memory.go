// Package directory provides the user role directory backing the user_role
// condition.
package directory

import (
	"context"
	"sync"

	"trustgate/pkg/platform/sentinel"
)

// InMemoryDirectory maps user IDs to roles. In production this adapts the
// platform's user service; the engine only needs role lookup.
type InMemoryDirectory struct {
	mu    sync.RWMutex
	roles map[string]string
}

func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{roles: make(map[string]string)}
}

// Seed loads initial role assignments, replacing any existing entry.
func (d *InMemoryDirectory) Seed(roles map[string]string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for userID, role := range roles {
		d.roles[userID] = role
	}
}

func (d *InMemoryDirectory) Role(_ context.Context, userID string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if role, ok := d.roles[userID]; ok {
		return role, nil
	}
	return "", sentinel.ErrNotFound
}
