package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"trustgate/internal/delegation/models"
)

type StoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
}

func (s *StoreSuite) permission(accessType models.AccessType) models.Permission {
	return models.Permission{
		GrantorID:  "owner",
		GranteeID:  "helper",
		PlatformID: "platform",
		AccessType: accessType,
		IsActive:   true,
	}
}

func (s *StoreSuite) TestUpsertAssignsIdentity() {
	saved, err := s.store.Upsert(s.ctx, s.permission(models.AccessModerator))
	s.Require().NoError(err)
	s.NotEmpty(saved.ID)
	s.False(saved.CreatedAt.IsZero())
	s.False(saved.UpdatedAt.IsZero())
}

func (s *StoreSuite) TestUpsertReplacesByCompositeKey() {
	first, err := s.store.Upsert(s.ctx, s.permission(models.AccessModerator))
	s.Require().NoError(err)

	update := s.permission(models.AccessModerator)
	update.CanModerate = true
	second, err := s.store.Upsert(s.ctx, update)
	s.Require().NoError(err)

	s.Equal(first.ID, second.ID)
	s.Equal(first.CreatedAt, second.CreatedAt)

	rows, err := s.store.ListActive(s.ctx, models.Filter{})
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.True(rows[0].CanModerate)
}

func (s *StoreSuite) TestDifferentAccessTypesCoexist() {
	_, err := s.store.Upsert(s.ctx, s.permission(models.AccessModerator))
	s.Require().NoError(err)
	_, err = s.store.Upsert(s.ctx, s.permission(models.AccessAdmin))
	s.Require().NoError(err)

	rows, err := s.store.ListActive(s.ctx, models.Filter{GranteeID: "helper"})
	s.Require().NoError(err)
	s.Len(rows, 2)
}

func (s *StoreSuite) TestListActiveFilters() {
	_, err := s.store.Upsert(s.ctx, s.permission(models.AccessModerator))
	s.Require().NoError(err)

	other := s.permission(models.AccessModerator)
	other.GranteeID = "someone-else"
	_, err = s.store.Upsert(s.ctx, other)
	s.Require().NoError(err)

	rows, err := s.store.ListActive(s.ctx, models.Filter{GranteeID: "helper"})
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal("helper", rows[0].GranteeID)

	rows, err = s.store.ListActive(s.ctx, models.Filter{AccessType: models.AccessAdmin})
	s.Require().NoError(err)
	s.Empty(rows)
}

func (s *StoreSuite) TestSoftDeactivate() {
	_, err := s.store.Upsert(s.ctx, s.permission(models.AccessModerator))
	s.Require().NoError(err)
	_, err = s.store.Upsert(s.ctx, s.permission(models.AccessAdmin))
	s.Require().NoError(err)

	count, err := s.store.SoftDeactivate(s.ctx, models.Filter{GranteeID: "helper", AccessType: models.AccessAdmin})
	s.Require().NoError(err)
	s.Equal(1, count)

	rows, err := s.store.ListActive(s.ctx, models.Filter{GranteeID: "helper"})
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal(models.AccessModerator, rows[0].AccessType)

	// Rows stay in storage, deactivated, so a second pass changes nothing.
	count, err = s.store.SoftDeactivate(s.ctx, models.Filter{GranteeID: "helper", AccessType: models.AccessAdmin})
	s.Require().NoError(err)
	s.Zero(count)
}
