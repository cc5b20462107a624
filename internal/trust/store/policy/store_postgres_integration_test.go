//go:build integration

package policy

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"trustgate/internal/trust/models"
	"trustgate/pkg/testutil/containers"
)

const schema = `
CREATE TABLE IF NOT EXISTS zero_trust_policies (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    priority    INT NOT NULL DEFAULT 0,
    is_active   BOOLEAN NOT NULL DEFAULT TRUE,
    conditions  JSONB NOT NULL DEFAULT '[]',
    actions     JSONB NOT NULL DEFAULT '[]'
)`

type PostgresStoreSuite struct {
	suite.Suite
	pool  *pgxpool.Pool
	store *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	pg := containers.NewPostgresContainer(s.T())

	pool, err := pgxpool.New(context.Background(), pg.DSN)
	s.Require().NoError(err)
	s.Require().NoError(pool.Ping(context.Background()))
	_, err = pool.Exec(context.Background(), schema)
	s.Require().NoError(err)

	s.pool = pool
	s.store = NewPostgresStore(pool)
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.pool.Exec(context.Background(), "TRUNCATE zero_trust_policies")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresStoreSuite) TestInsertListRoundTrip() {
	ctx := context.Background()

	id, err := s.store.Insert(ctx, models.Policy{
		Name:     "deny untrusted devices",
		Priority: 9,
		IsActive: true,
		Conditions: []models.PolicyCondition{{
			Type:     models.ConditionDeviceTrust,
			Operator: models.OpGreaterThan,
			Value:    0.5,
			Weight:   1,
		}},
		Actions: []models.PolicyAction{{Type: models.ActionDeny}},
	})
	s.Require().NoError(err)
	s.NotEmpty(id)

	policies, err := s.store.ListActive(ctx)
	s.Require().NoError(err)
	s.Require().Len(policies, 1)

	got := policies[0]
	s.Equal(id, got.ID)
	s.Equal("deny untrusted devices", got.Name)
	s.Equal(9, got.Priority)
	s.Require().Len(got.Conditions, 1)
	s.Equal(models.ConditionDeviceTrust, got.Conditions[0].Type)
	s.Equal(models.OpGreaterThan, got.Conditions[0].Operator)
	s.InDelta(1, got.Conditions[0].Weight, 1e-9)
	s.Require().Len(got.Actions, 1)
	s.Equal(models.ActionDeny, got.Actions[0].Type)
}

func (s *PostgresStoreSuite) TestListSkipsInactive() {
	ctx := context.Background()

	_, err := s.store.Insert(ctx, models.Policy{
		Name:     "disabled rule",
		IsActive: false,
		Conditions: []models.PolicyCondition{{
			Type: models.ConditionUserRole, Operator: models.OpEquals, Value: "admin", Weight: 1,
		}},
	})
	s.Require().NoError(err)

	policies, err := s.store.ListActive(ctx)
	s.Require().NoError(err)
	s.Empty(policies)
}

func (s *PostgresStoreSuite) TestListOrdersByPriority() {
	ctx := context.Background()

	cond := []models.PolicyCondition{{
		Type: models.ConditionUserRole, Operator: models.OpEquals, Value: "admin", Weight: 1,
	}}
	_, err := s.store.Insert(ctx, models.Policy{Name: "low", Priority: 1, IsActive: true, Conditions: cond})
	s.Require().NoError(err)
	_, err = s.store.Insert(ctx, models.Policy{Name: "high", Priority: 9, IsActive: true, Conditions: cond})
	s.Require().NoError(err)

	policies, err := s.store.ListActive(ctx)
	s.Require().NoError(err)
	s.Require().Len(policies, 2)
	s.Equal("high", policies[0].Name)
	s.Equal("low", policies[1].Name)
}
