package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"trustgate/internal/delegation/models"
	"trustgate/internal/delegation/store/memory"
	dErrors "trustgate/pkg/domain-errors"
	"trustgate/pkg/platform/audit"
)

// brokenStore fails every operation.
type brokenStore struct{}

func (brokenStore) ListActive(context.Context, models.Filter) ([]models.Permission, error) {
	return nil, errors.New("store down")
}

func (brokenStore) Upsert(context.Context, models.Permission) (models.Permission, error) {
	return models.Permission{}, errors.New("store down")
}

func (brokenStore) SoftDeactivate(context.Context, models.Filter) (int, error) {
	return 0, errors.New("store down")
}

type captureAuditor struct {
	events []audit.Event
}

func (c *captureAuditor) Emit(_ context.Context, event audit.Event) error {
	c.events = append(c.events, event)
	return nil
}

type DelegationSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.Store
	auditor *captureAuditor
	now     time.Time
	svc     *Service
}

func TestDelegationSuite(t *testing.T) {
	suite.Run(t, new(DelegationSuite))
}

func (s *DelegationSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.auditor = &captureAuditor{}
	s.now = time.Date(2026, 3, 16, 14, 0, 0, 0, time.UTC) // a Monday

	svc, err := New(s.store,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditor(s.auditor),
		WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)
	s.svc = svc
}

func (s *DelegationSuite) grant(mutate func(*models.Permission)) models.Permission {
	p := models.Permission{
		GrantorID:  "owner-1",
		GranteeID:  "helper-1",
		PlatformID: "platform-1",
		AccessType: models.AccessModerator,
	}
	if mutate != nil {
		mutate(&p)
	}
	saved, err := s.svc.Grant(s.ctx, p)
	s.Require().NoError(err)
	return saved
}

func (s *DelegationSuite) check(action, resource, ip string) models.CheckResult {
	return s.svc.Check(s.ctx, models.CheckRequest{
		GranteeID:  "helper-1",
		PlatformID: "platform-1",
		Action:     action,
		Resource:   resource,
		IP:         ip,
	})
}

func (s *DelegationSuite) TestNoGrantsAtAll() {
	result := s.check("content:view", "", "")
	s.False(result.Allowed)
	s.Equal("No permissions granted", result.Reason)

	s.Require().NotEmpty(s.auditor.events)
	last := s.auditor.events[len(s.auditor.events)-1]
	s.Equal(audit.ActionPermissionDenied, last.Action)
	s.Equal("deny", last.Decision)
}

func (s *DelegationSuite) TestCapabilityFlags() {
	s.grant(func(p *models.Permission) {
		p.CanAccessContent = true
	})

	s.Run("flag grants its action", func() {
		result := s.check("content:view", "", "")
		s.True(result.Allowed)
		s.Require().NotNil(result.Permission)
		s.Equal("helper-1", result.Permission.GranteeID)
	})

	s.Run("unset flag denies with action reason", func() {
		result := s.check("payments:manage", "", "")
		s.False(result.Allowed)
		s.Equal("Permission denied for this action", result.Reason)
	})

	s.Run("flag takes precedence over permission map", func() {
		s.grant(func(p *models.Permission) {
			p.CanAccessContent = false
			p.Permissions = map[string]bool{"content:view": true}
		})
		result := s.check("content:view", "", "")
		s.False(result.Allowed)
	})
}

func (s *DelegationSuite) TestPermissionMapResolution() {
	s.grant(func(p *models.Permission) {
		p.Permissions = map[string]bool{
			"posts:edit":         true,
			"posts:delete":       false,
			"reports:*":          true,
			"comments:moderate":  false,
			"comments:moderate:thread-9": true,
		}
	})

	s.Run("exact action key", func() {
		s.True(s.check("posts:edit", "", "").Allowed)
	})

	s.Run("exact key explicitly false denies", func() {
		s.False(s.check("posts:delete", "", "").Allowed)
	})

	s.Run("action plus resource compound key", func() {
		s.True(s.check("comments:moderate:thread-9", "", "").Allowed)
	})

	s.Run("exact false wins over compound lookup", func() {
		// The exact action key is consulted before action:resource.
		s.False(s.check("comments:moderate", "thread-9", "").Allowed)
	})

	s.Run("namespace wildcard", func() {
		s.True(s.check("reports:export", "", "").Allowed)
	})

	s.Run("no namespace no match", func() {
		s.False(s.check("billing:view", "", "").Allowed)
	})
}

func (s *DelegationSuite) TestCompoundResourceKey() {
	s.grant(func(p *models.Permission) {
		p.Permissions = map[string]bool{"moderate:livestream": true}
	})
	s.True(s.check("moderate", "livestream", "").Allowed)
	s.False(s.check("moderate", "vod", "").Allowed)
}

func (s *DelegationSuite) TestCustomRules() {
	s.grant(func(p *models.Permission) {
		p.CustomRules = map[string]any{
			"feature:beta":    true,
			"feature:legacy":  false,
			"feature:complex": map[string]any{"max_per_day": 5},
		}
	})

	s.True(s.check("feature:beta", "", "").Allowed)
	s.False(s.check("feature:legacy", "", "").Allowed)
	// Structured rules count as a pass by presence.
	s.True(s.check("feature:complex", "", "").Allowed)
	s.False(s.check("feature:unknown", "", "").Allowed)
}

func (s *DelegationSuite) TestExpiredGrantSkipped() {
	past := s.now.Add(-time.Hour)
	s.grant(func(p *models.Permission) {
		p.CanModerate = true
		p.ExpiresAt = &past
	})

	result := s.check("content:moderate", "", "")
	s.False(result.Allowed)
	s.Equal("Permission denied for this action", result.Reason)
}

func (s *DelegationSuite) TestDenialReasonReflectsRowPresence() {
	s.Run("no active rows at all", func() {
		result := s.check("content:moderate", "", "")
		s.False(result.Allowed)
		s.Equal("No permissions granted", result.Reason)
	})

	s.Run("rows exist but all are filtered out", func() {
		past := s.now.Add(-time.Hour)
		s.grant(func(p *models.Permission) {
			p.CanModerate = true
			p.ExpiresAt = &past
		})

		result := s.check("content:moderate", "", "")
		s.False(result.Allowed)
		s.Equal("Permission denied for this action", result.Reason)
	})
}

func (s *DelegationSuite) TestIPWhitelist() {
	s.grant(func(p *models.Permission) {
		p.CanModerate = true
		p.IPWhitelist = []string{"10.0.0.5", "10.0.0.6"}
	})

	s.Run("listed IP passes", func() {
		s.True(s.check("content:moderate", "", "10.0.0.5").Allowed)
	})

	s.Run("unlisted IP skips the row entirely", func() {
		result := s.check("content:moderate", "", "192.168.1.1")
		s.False(result.Allowed)
		s.Equal("Permission denied for this action", result.Reason)
	})

	s.Run("entries are verbatim, not CIDR", func() {
		s.False(s.check("content:moderate", "", "10.0.0.50").Allowed)
	})
}

func (s *DelegationSuite) TestTimeRestrictions() {
	s.grant(func(p *models.Permission) {
		p.CanModerate = true
		p.TimeRestrictions = &models.TimeRestrictions{
			Days:      []string{"monday", "tuesday"},
			StartHour: 9,
			EndHour:   17,
			Timezone:  "UTC",
		}
	})

	s.Run("inside window passes", func() {
		s.True(s.check("content:moderate", "", "").Allowed)
	})

	s.Run("outside hours skips the row", func() {
		s.now = time.Date(2026, 3, 16, 18, 0, 0, 0, time.UTC)
		result := s.check("content:moderate", "", "")
		s.False(result.Allowed)
		s.Equal("Permission denied for this action", result.Reason)
	})

	s.Run("end hour is exclusive", func() {
		s.now = time.Date(2026, 3, 16, 17, 0, 0, 0, time.UTC)
		s.False(s.check("content:moderate", "", "").Allowed)
	})

	s.Run("wrong weekday skips the row", func() {
		s.now = time.Date(2026, 3, 18, 14, 0, 0, 0, time.UTC) // a Wednesday
		s.False(s.check("content:moderate", "", "").Allowed)
	})

	s.Run("timezone shifts the window", func() {
		// 23:00 UTC Monday is 09:00 Tuesday in Auckland during NZDT.
		s.grant(func(p *models.Permission) {
			p.GranteeID = "helper-1"
			p.AccessType = models.AccessAdmin
			p.CanManageSettings = true
			p.TimeRestrictions = &models.TimeRestrictions{
				Days:      []string{"tuesday"},
				StartHour: 9,
				EndHour:   17,
				Timezone:  "Pacific/Auckland",
			}
		})
		s.now = time.Date(2026, 3, 16, 20, 0, 0, 0, time.UTC)
		s.True(s.check("settings:manage", "", "").Allowed)
	})
}

func (s *DelegationSuite) TestFirstMatchingRowWins() {
	s.grant(func(p *models.Permission) {
		p.AccessType = models.AccessModerator
	})
	s.grant(func(p *models.Permission) {
		p.AccessType = models.AccessAdmin
		p.CanManageUsers = true
	})

	result := s.check("users:manage", "", "")
	s.True(result.Allowed)
	s.Require().NotNil(result.Permission)
	s.Equal(models.AccessAdmin, result.Permission.AccessType)
}

func (s *DelegationSuite) TestGrantUpsertsByCompositeKey() {
	first := s.grant(func(p *models.Permission) { p.CanModerate = true })
	second := s.grant(func(p *models.Permission) { p.CanModerate = false })

	s.Equal(first.ID, second.ID)

	rows, err := s.store.ListActive(s.ctx, models.Filter{GranteeID: "helper-1"})
	s.Require().NoError(err)
	s.Len(rows, 1)
	s.False(rows[0].CanModerate)

	s.Require().NotEmpty(s.auditor.events)
	s.Equal(audit.ActionAccessGranted, s.auditor.events[0].Action)
}

func (s *DelegationSuite) TestGrantValidation() {
	_, err := s.svc.Grant(s.ctx, models.Permission{GranteeID: "x", PlatformID: "y", AccessType: models.AccessAdmin})
	s.Equal(dErrors.CodeInvalidInput, dErrors.CodeOf(err))

	_, err = s.svc.Grant(s.ctx, models.Permission{GrantorID: "a", GranteeID: "b", PlatformID: "c", AccessType: "superuser"})
	s.Equal(dErrors.CodeInvalidInput, dErrors.CodeOf(err))
}

func (s *DelegationSuite) TestRevokeSoftDeactivates() {
	s.grant(func(p *models.Permission) { p.CanModerate = true })

	err := s.svc.Revoke(s.ctx, "owner-1", "helper-1", "platform-1", "")
	s.Require().NoError(err)

	result := s.check("content:moderate", "", "")
	s.False(result.Allowed)
	s.Equal("No permissions granted", result.Reason)

	last := s.auditor.events[len(s.auditor.events)-1]
	s.Equal(audit.ActionAccessRevoked, last.Action)
}

func (s *DelegationSuite) TestRevokeScopedByAccessType() {
	s.grant(func(p *models.Permission) { p.AccessType = models.AccessModerator; p.CanModerate = true })
	s.grant(func(p *models.Permission) { p.AccessType = models.AccessAdmin; p.CanManageUsers = true })

	err := s.svc.Revoke(s.ctx, "owner-1", "helper-1", "platform-1", models.AccessModerator)
	s.Require().NoError(err)

	s.False(s.check("content:moderate", "", "").Allowed)
	s.True(s.check("users:manage", "", "").Allowed)
}

func (s *DelegationSuite) TestRevokeNothingMatches() {
	err := s.svc.Revoke(s.ctx, "owner-1", "helper-1", "platform-1", "")
	s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func (s *DelegationSuite) TestStoreFailureDeniesClosed() {
	svc, err := New(brokenStore{},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	s.Require().NoError(err)

	result := svc.Check(s.ctx, models.CheckRequest{GranteeID: "g", PlatformID: "p", Action: "a"})
	s.False(result.Allowed)
	s.NotEmpty(result.Reason)
}
