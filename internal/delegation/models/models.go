// Package models defines delegated access grants: partial administrative or
// moderation capability one account grants another, scoped to a platform and
// optionally restricted by time, expiry, and source IP.
package models

import "time"

// AccessType classifies the delegation template.
type AccessType string

const (
	AccessAdmin           AccessType = "admin"
	AccessModerator       AccessType = "moderator"
	AccessCreatorDelegate AccessType = "creator_delegate"
)

// IsValid checks if the access type is one of the supported enum values.
func (t AccessType) IsValid() bool {
	switch t {
	case AccessAdmin, AccessModerator, AccessCreatorDelegate:
		return true
	}
	return false
}

// TimeRestrictions limits when a grant is usable. Days are lowercase weekday
// names; hours are an inclusive start and exclusive end in the given zone.
type TimeRestrictions struct {
	Days      []string `json:"days,omitempty"`
	StartHour int      `json:"start_hour"`
	EndHour   int      `json:"end_hour"`
	Timezone  string   `json:"timezone,omitempty"`
}

// Permission is one delegated access grant. A grantee may hold several rows
// for the same platform from different grantors or of different access
// types. Revocation is a soft delete; rows are never removed.
type Permission struct {
	ID         string     `json:"id"`
	GrantorID  string     `json:"grantor_id"`
	GranteeID  string     `json:"grantee_id"`
	PlatformID string     `json:"platform_id"`
	AccessType AccessType `json:"access_type"`

	// Permissions maps action strings to booleans. Keys may be exact
	// actions, action:resource compounds, or namespace wildcards ("content:*").
	Permissions map[string]bool `json:"permissions,omitempty"`

	CanAccessContent  bool `json:"can_access_content"`
	CanModerate       bool `json:"can_moderate"`
	CanManageUsers    bool `json:"can_manage_users"`
	CanViewAnalytics  bool `json:"can_view_analytics"`
	CanManageSettings bool `json:"can_manage_settings"`
	CanManagePayments bool `json:"can_manage_payments"`

	// CustomRules maps actions to a boolean or a richer rule object. A
	// non-boolean rule counts as a pass when present.
	CustomRules map[string]any `json:"custom_rules,omitempty"`

	IPWhitelist      []string          `json:"ip_whitelist,omitempty"`
	TimeRestrictions *TimeRestrictions `json:"time_restrictions,omitempty"`
	ExpiresAt        *time.Time        `json:"expires_at,omitempty"`
	IsActive         bool              `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Filter narrows store listings. Zero-value fields match everything.
type Filter struct {
	GrantorID  string
	GranteeID  string
	PlatformID string
	AccessType AccessType
}

// CheckRequest asks whether a grantee may perform an action on a platform.
type CheckRequest struct {
	GranteeID  string `json:"grantee_id"`
	PlatformID string `json:"platform_id"`
	Action     string `json:"action"`
	Resource   string `json:"resource,omitempty"`
	IP         string `json:"ip,omitempty"`
}

// CheckResult is the permission decision.
type CheckResult struct {
	Allowed    bool        `json:"allowed"`
	Reason     string      `json:"reason,omitempty"`
	Permission *Permission `json:"permission,omitempty"`
}
