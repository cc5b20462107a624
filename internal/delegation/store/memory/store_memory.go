// Package memory provides an in-memory permission store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"trustgate/internal/delegation/models"
)

// Store keeps permission rows in insertion order so checks iterate the way
// a database would return them.
type Store struct {
	mu   sync.RWMutex
	rows []models.Permission
}

func New() *Store {
	return &Store{}
}

func matches(p models.Permission, f models.Filter) bool {
	if f.GrantorID != "" && p.GrantorID != f.GrantorID {
		return false
	}
	if f.GranteeID != "" && p.GranteeID != f.GranteeID {
		return false
	}
	if f.PlatformID != "" && p.PlatformID != f.PlatformID {
		return false
	}
	if f.AccessType != "" && p.AccessType != f.AccessType {
		return false
	}
	return true
}

func (s *Store) ListActive(_ context.Context, filter models.Filter) ([]models.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Permission
	for _, row := range s.rows {
		if row.IsActive && matches(row, filter) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *Store) Upsert(_ context.Context, permission models.Permission) (models.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for i, row := range s.rows {
		if row.GrantorID == permission.GrantorID &&
			row.GranteeID == permission.GranteeID &&
			row.PlatformID == permission.PlatformID &&
			row.AccessType == permission.AccessType {
			permission.ID = row.ID
			permission.CreatedAt = row.CreatedAt
			permission.UpdatedAt = now
			s.rows[i] = permission
			return permission, nil
		}
	}

	if permission.ID == "" {
		permission.ID = uuid.NewString()
	}
	permission.CreatedAt = now
	permission.UpdatedAt = now
	s.rows = append(s.rows, permission)
	return permission, nil
}

func (s *Store) SoftDeactivate(_ context.Context, filter models.Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for i := range s.rows {
		if s.rows[i].IsActive && matches(s.rows[i], filter) {
			s.rows[i].IsActive = false
			s.rows[i].UpdatedAt = time.Now()
			changed++
		}
	}
	return changed, nil
}
