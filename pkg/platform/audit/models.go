// Package audit captures structured audit events emitted from domain logic.
// Events are transport-agnostic so stores and sinks can fan out.
package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose. This
// enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance
	// requiring long retention: permission grants and revocations.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring and
	// forensics: blocked assessments, escalation alerts, denied checks.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity useful for debugging:
	// ordinary assessments and monitoring passes. Can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Action names for audit events.
type Action string

const (
	ActionTrustAssessed    Action = "trust_assessed"
	ActionTrustAdjusted    Action = "trust_adjusted"
	ActionPolicyCreated    Action = "policy_created"
	ActionAccessGranted    Action = "access_granted"
	ActionAccessRevoked    Action = "access_revoked"
	ActionPermissionDenied Action = "permission_denied"
)

// actionCategories maps each action to its category.
var actionCategories = map[Action]EventCategory{
	ActionTrustAssessed:    CategoryOperations,
	ActionTrustAdjusted:    CategorySecurity,
	ActionPolicyCreated:    CategoryCompliance,
	ActionAccessGranted:    CategoryCompliance,
	ActionAccessRevoked:    CategoryCompliance,
	ActionPermissionDenied: CategorySecurity,
}

// CategoryFor returns the category of an action, defaulting to operations.
func CategoryFor(action Action) EventCategory {
	if c, ok := actionCategories[action]; ok {
		return c
	}
	return CategoryOperations
}

// Event is emitted from domain logic to capture key actions.
type Event struct {
	ID         string         `json:"id"`
	Category   EventCategory  `json:"category"`
	Timestamp  time.Time      `json:"timestamp"`
	Actor      string         `json:"actor"`
	Action     Action         `json:"action"`
	TargetType string         `json:"target_type,omitempty"`
	TargetID   string         `json:"target_id,omitempty"`
	Decision   string         `json:"decision,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Store persists audit events. Append-only; events are never deleted.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Emitter is the narrow interface domain services depend on.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}
