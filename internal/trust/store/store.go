// Package store defines the persistence interfaces for the trust module.
// Stores are interface-driven to keep the engine testable and to allow
// swapping in-memory, Redis, or Postgres persistence without rewiring
// decision logic.
package store

import (
	"context"

	"trustgate/internal/trust/models"
)

// TrustStore persists per-(user, device) trust records. Get returns
// sentinel.ErrNotFound when no record exists for the pair; callers fall back
// to the default record. Upsert replaces the current record for the pair.
type TrustStore interface {
	Get(ctx context.Context, userID, deviceID string) (models.TrustRecord, error)
	Upsert(ctx context.Context, record models.TrustRecord) error
}

// PolicyStore holds the administrator-managed policy table. ListActive
// returns active policies sorted by priority descending.
type PolicyStore interface {
	ListActive(ctx context.Context) ([]models.Policy, error)
	Insert(ctx context.Context, policy models.Policy) (string, error)
}

// Directory resolves the stored role for a user, feeding the user_role
// condition. Returns sentinel.ErrNotFound for unknown users.
type Directory interface {
	Role(ctx context.Context, userID string) (string, error)
}
