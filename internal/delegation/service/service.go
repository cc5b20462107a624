// Package service implements delegated access checks, grants, and
// revocations. Check never returns an error to the caller: an internal
// failure produces a denied result, keeping the decision fail closed.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	domainerrors "trustgate/pkg/domain-errors"
	"trustgate/pkg/platform/audit"
	pstrings "trustgate/pkg/platform/strings"

	"trustgate/internal/delegation/models"
	"trustgate/internal/delegation/store"
)

const (
	reasonNoPermissions   = "No permissions granted"
	reasonActionDenied    = "Permission denied for this action"
	reasonInternalError   = "Permission check failed"
	reasonInvalidGrant    = "invalid grant request"
	reasonInvalidAccess   = "unsupported access type"
	reasonNothingToRevoke = "no matching active grants"
)

// capabilityFlags maps well-known actions to the grant's boolean capability
// fields. These take precedence over the permission map.
var capabilityFlags = map[string]func(models.Permission) bool{
	"content:view":     func(p models.Permission) bool { return p.CanAccessContent },
	"content:moderate": func(p models.Permission) bool { return p.CanModerate },
	"users:manage":     func(p models.Permission) bool { return p.CanManageUsers },
	"analytics:view":   func(p models.Permission) bool { return p.CanViewAnalytics },
	"settings:manage":  func(p models.Permission) bool { return p.CanManageSettings },
	"payments:manage":  func(p models.Permission) bool { return p.CanManagePayments },
}

// Service answers delegation questions against the permission store.
type Service struct {
	permissions store.PermissionStore
	auditor     audit.Emitter
	logger      *slog.Logger
	clock       func() time.Time
	tracer      trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditor(auditor audit.Emitter) Option {
	return func(s *Service) { s.auditor = auditor }
}

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func New(permissions store.PermissionStore, opts ...Option) (*Service, error) {
	if permissions == nil {
		return nil, fmt.Errorf("permission store is required")
	}
	svc := &Service{
		permissions: permissions,
		logger:      slog.Default(),
		clock:       time.Now,
		tracer:      otel.Tracer("trustgate/delegation"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Check decides whether the grantee may perform the action on the platform.
// Active rows are examined in storage order; the first row that is neither
// expired nor blocked by IP or time restrictions and that covers the action
// wins. The denial reason distinguishes "nothing granted" (no active rows at
// all) from "granted but not this action" (rows exist, none applied).
func (s *Service) Check(ctx context.Context, req models.CheckRequest) models.CheckResult {
	ctx, span := s.tracer.Start(ctx, "delegation.check",
		trace.WithAttributes(
			attribute.String("grantee_id", req.GranteeID),
			attribute.String("platform_id", req.PlatformID),
			attribute.String("action", req.Action),
		))
	defer span.End()

	rows, err := s.permissions.ListActive(ctx, models.Filter{
		GranteeID:  req.GranteeID,
		PlatformID: req.PlatformID,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "permission lookup failed, denying",
			"grantee_id", req.GranteeID, "platform_id", req.PlatformID, "error", err)
		result := models.CheckResult{Allowed: false, Reason: reasonInternalError}
		s.emitDenied(ctx, req, result.Reason)
		return result
	}

	now := s.clock()
	for i := range rows {
		row := rows[i]
		if expired(row, now) {
			continue
		}
		if !ipAllowed(row, req.IP) {
			continue
		}
		if !withinTimeRestrictions(row.TimeRestrictions, now) {
			continue
		}
		if hasActionPermission(row, req.Action, req.Resource) {
			return models.CheckResult{Allowed: true, Permission: &row}
		}
	}

	reason := reasonNoPermissions
	if len(rows) > 0 {
		reason = reasonActionDenied
	}
	result := models.CheckResult{Allowed: false, Reason: reason}
	s.emitDenied(ctx, req, reason)
	return result
}

// Grant creates or replaces the grant identified by
// (grantorId, granteeId, platformId, accessType).
func (s *Service) Grant(ctx context.Context, permission models.Permission) (models.Permission, error) {
	ctx, span := s.tracer.Start(ctx, "delegation.grant",
		trace.WithAttributes(
			attribute.String("grantor_id", permission.GrantorID),
			attribute.String("grantee_id", permission.GranteeID),
			attribute.String("platform_id", permission.PlatformID),
		))
	defer span.End()

	if permission.GrantorID == "" || permission.GranteeID == "" || permission.PlatformID == "" {
		return models.Permission{}, domainerrors.New(domainerrors.CodeInvalidInput, reasonInvalidGrant)
	}
	if !permission.AccessType.IsValid() {
		return models.Permission{}, domainerrors.New(domainerrors.CodeInvalidInput, reasonInvalidAccess)
	}

	permission.IsActive = true
	if permission.TimeRestrictions != nil {
		permission.TimeRestrictions.Days = pstrings.DedupeAndTrimLower(permission.TimeRestrictions.Days)
	}
	saved, err := s.permissions.Upsert(ctx, permission)
	if err != nil {
		return models.Permission{}, domainerrors.Wrap(domainerrors.CodeInternal, "store grant", err)
	}

	s.logger.InfoContext(ctx, "delegated access granted",
		"grantor_id", saved.GrantorID, "grantee_id", saved.GranteeID,
		"platform_id", saved.PlatformID, "access_type", string(saved.AccessType))
	s.emit(ctx, audit.Event{
		Actor:      saved.GrantorID,
		Action:     audit.ActionAccessGranted,
		TargetType: "grantee",
		TargetID:   saved.GranteeID,
		Decision:   "allow",
		Metadata: map[string]any{
			"platform_id": saved.PlatformID,
			"access_type": string(saved.AccessType),
			"expires_at":  saved.ExpiresAt,
		},
	})
	return saved, nil
}

// Revoke deactivates the grantee's grants from a grantor on a platform,
// optionally narrowed to one access type. Rows stay in storage for audit.
func (s *Service) Revoke(ctx context.Context, grantorID, granteeID, platformID string, accessType models.AccessType) error {
	ctx, span := s.tracer.Start(ctx, "delegation.revoke",
		trace.WithAttributes(
			attribute.String("grantor_id", grantorID),
			attribute.String("grantee_id", granteeID),
			attribute.String("platform_id", platformID),
		))
	defer span.End()

	if grantorID == "" || granteeID == "" || platformID == "" {
		return domainerrors.New(domainerrors.CodeInvalidInput, reasonInvalidGrant)
	}

	count, err := s.permissions.SoftDeactivate(ctx, models.Filter{
		GrantorID:  grantorID,
		GranteeID:  granteeID,
		PlatformID: platformID,
		AccessType: accessType,
	})
	if err != nil {
		return domainerrors.Wrap(domainerrors.CodeInternal, "revoke grant", err)
	}
	if count == 0 {
		return domainerrors.New(domainerrors.CodeNotFound, reasonNothingToRevoke)
	}

	s.logger.InfoContext(ctx, "delegated access revoked",
		"grantor_id", grantorID, "grantee_id", granteeID,
		"platform_id", platformID, "revoked", count)
	s.emit(ctx, audit.Event{
		Actor:      grantorID,
		Action:     audit.ActionAccessRevoked,
		TargetType: "grantee",
		TargetID:   granteeID,
		Metadata: map[string]any{
			"platform_id": platformID,
			"access_type": string(accessType),
			"revoked":     count,
		},
	})
	return nil
}

// ListGrants returns active grants for the filter, for admin inspection.
func (s *Service) ListGrants(ctx context.Context, filter models.Filter) ([]models.Permission, error) {
	rows, err := s.permissions.ListActive(ctx, filter)
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "list grants", err)
	}
	return rows, nil
}

func expired(p models.Permission, now time.Time) bool {
	return p.ExpiresAt != nil && !p.ExpiresAt.After(now)
}

// ipAllowed passes when the whitelist is empty or contains the request IP
// verbatim. No CIDR interpretation; entries are exact strings.
func ipAllowed(p models.Permission, ip string) bool {
	if len(p.IPWhitelist) == 0 {
		return true
	}
	for _, allowed := range p.IPWhitelist {
		if allowed == ip {
			return true
		}
	}
	return false
}

// withinTimeRestrictions checks the weekday and hour window in the grant's
// timezone. An unknown timezone falls back to UTC rather than invalidating
// the grant.
func withinTimeRestrictions(tr *models.TimeRestrictions, now time.Time) bool {
	if tr == nil {
		return true
	}
	if tr.Timezone != "" {
		if loc, err := time.LoadLocation(tr.Timezone); err == nil {
			now = now.In(loc)
		}
	}
	if len(tr.Days) > 0 {
		day := strings.ToLower(now.Weekday().String())
		found := false
		for _, d := range tr.Days {
			if strings.ToLower(d) == day {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	hour := now.Hour()
	return hour >= tr.StartHour && hour < tr.EndHour
}

// hasActionPermission resolves an action against one grant. Sources are
// consulted in a fixed order: capability flags, the exact action key, the
// action:resource compound key, a namespace wildcard, then custom rules.
func hasActionPermission(p models.Permission, action, resource string) bool {
	if flag, ok := capabilityFlags[action]; ok {
		return flag(p)
	}

	if allowed, ok := p.Permissions[action]; ok {
		return allowed
	}
	if resource != "" {
		if allowed, ok := p.Permissions[action+":"+resource]; ok {
			return allowed
		}
	}
	if ns, _, ok := strings.Cut(action, ":"); ok {
		if allowed, exists := p.Permissions[ns+":*"]; exists {
			return allowed
		}
	}

	if rule, ok := p.CustomRules[action]; ok {
		if allowed, isBool := rule.(bool); isBool {
			return allowed
		}
		// A structured rule present in the map counts as a pass; rule
		// evaluation beyond presence is out of scope for the checker.
		return rule != nil
	}
	return false
}

func (s *Service) emitDenied(ctx context.Context, req models.CheckRequest, reason string) {
	s.emit(ctx, audit.Event{
		Actor:      req.GranteeID,
		Action:     audit.ActionPermissionDenied,
		TargetType: "platform",
		TargetID:   req.PlatformID,
		Decision:   "deny",
		Reason:     reason,
		Metadata: map[string]any{
			"action":   req.Action,
			"resource": req.Resource,
			"ip":       req.IP,
		},
	})
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	event.Timestamp = s.clock()
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", string(event.Action), "error", err)
	}
}
