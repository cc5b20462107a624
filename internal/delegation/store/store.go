// Package store defines persistence for delegated access grants.
package store

import (
	"context"

	"trustgate/internal/delegation/models"
)

// PermissionStore persists delegation grants. Rows are soft-deactivated,
// never removed, preserving the audit trail.
type PermissionStore interface {
	// ListActive returns active rows matching the filter in storage order.
	ListActive(ctx context.Context, filter models.Filter) ([]models.Permission, error)
	// Upsert inserts or replaces the row identified by
	// (grantorId, granteeId, platformId, accessType).
	Upsert(ctx context.Context, permission models.Permission) (models.Permission, error)
	// SoftDeactivate flips is_active off for rows matching the filter and
	// returns how many rows changed.
	SoftDeactivate(ctx context.Context, filter models.Filter) (int, error)
}
