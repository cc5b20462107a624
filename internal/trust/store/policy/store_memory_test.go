package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"trustgate/internal/trust/models"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func (s *InMemoryStoreSuite) TestInsertAssignsID() {
	id, err := s.store.Insert(s.ctx, models.Policy{Name: "p", IsActive: true})
	s.Require().NoError(err)
	s.NotEmpty(id)

	keep, err := s.store.Insert(s.ctx, models.Policy{ID: "fixed", Name: "q", IsActive: true})
	s.Require().NoError(err)
	s.Equal("fixed", keep)
}

func (s *InMemoryStoreSuite) TestListActiveFiltersAndOrders() {
	_, err := s.store.Insert(s.ctx, models.Policy{Name: "low", Priority: 1, IsActive: true})
	s.Require().NoError(err)
	_, err = s.store.Insert(s.ctx, models.Policy{Name: "disabled", Priority: 10, IsActive: false})
	s.Require().NoError(err)
	_, err = s.store.Insert(s.ctx, models.Policy{Name: "high", Priority: 9, IsActive: true})
	s.Require().NoError(err)

	active, err := s.store.ListActive(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(active, 2)
	s.Equal("high", active[0].Name)
	s.Equal("low", active[1].Name)
}

func (s *InMemoryStoreSuite) TestListActiveEmptyTable() {
	active, err := s.store.ListActive(s.ctx)
	s.Require().NoError(err)
	s.Empty(active)
}
