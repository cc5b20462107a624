package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"trustgate/internal/trust/models"
)

type ConditionSuite struct {
	suite.Suite
	signals Signals
}

func TestConditionSuite(t *testing.T) {
	suite.Run(t, new(ConditionSuite))
}

func (s *ConditionSuite) SetupTest() {
	behavior := 0.8
	network := 0.6
	s.signals = Signals{
		UserRole:    "admin",
		DeviceTrust: 0.75,
		Context: models.RequestContext{
			Location:      &models.Location{Country: "DE", City: "Berlin"},
			BehaviorScore: &behavior,
			NetworkRisk:   &network,
		},
		Now: time.Date(2026, 3, 14, 15, 30, 0, 0, time.UTC),
	}
}

func (s *ConditionSuite) evaluate(t models.ConditionType, op models.Operator, value any) (bool, error) {
	return EvaluateCondition(models.PolicyCondition{Type: t, Operator: op, Value: value, Weight: 1}, s.signals)
}

func (s *ConditionSuite) TestEquals() {
	s.Run("role matches", func() {
		ok, err := s.evaluate(models.ConditionUserRole, models.OpEquals, "admin")
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("role differs", func() {
		ok, err := s.evaluate(models.ConditionUserRole, models.OpEquals, "viewer")
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("numeric equality tolerates integer expected value", func() {
		s.signals.DeviceTrust = 1
		ok, err := s.evaluate(models.ConditionDeviceTrust, models.OpEquals, 1)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("not_equals inverts", func() {
		ok, err := s.evaluate(models.ConditionUserRole, models.OpNotEquals, "viewer")
		s.Require().NoError(err)
		s.True(ok)
	})
}

func (s *ConditionSuite) TestOrderedComparisons() {
	s.Run("greater_than on device trust", func() {
		ok, err := s.evaluate(models.ConditionDeviceTrust, models.OpGreaterThan, 0.5)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("less_than on network risk", func() {
		ok, err := s.evaluate(models.ConditionNetwork, models.OpLessThan, 0.7)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("non-numeric actual fails closed", func() {
		ok, err := s.evaluate(models.ConditionUserRole, models.OpGreaterThan, 0.5)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("non-numeric expected fails closed", func() {
		ok, err := s.evaluate(models.ConditionDeviceTrust, models.OpGreaterThan, "high")
		s.Require().NoError(err)
		s.False(ok)
	})
}

func (s *ConditionSuite) TestContains() {
	ok, err := s.evaluate(models.ConditionLocation, models.OpContains, "D")
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.evaluate(models.ConditionLocation, models.OpContains, "US")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *ConditionSuite) TestInRange() {
	s.Run("hour inside window", func() {
		ok, err := s.evaluate(models.ConditionTime, models.OpInRange, []float64{9, 18})
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("hour at inclusive bound", func() {
		ok, err := s.evaluate(models.ConditionTime, models.OpInRange, []float64{15, 18})
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("hour outside window", func() {
		ok, err := s.evaluate(models.ConditionTime, models.OpInRange, []float64{0, 6})
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("json-decoded bounds", func() {
		ok, err := s.evaluate(models.ConditionTime, models.OpInRange, []any{float64(9), float64(18)})
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("malformed bounds error and fail", func() {
		ok, err := s.evaluate(models.ConditionTime, models.OpInRange, "9-18")
		s.Error(err)
		s.False(ok)
	})
}

func (s *ConditionSuite) TestDefaultsAndErrors() {
	s.Run("behavior default when signal absent", func() {
		s.signals.Context.BehaviorScore = nil
		ok, err := s.evaluate(models.ConditionBehavior, models.OpEquals, 0.5)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("network default when signal absent", func() {
		s.signals.Context.NetworkRisk = nil
		ok, err := s.evaluate(models.ConditionNetwork, models.OpLessThan, 0.1)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("missing location compares as empty string", func() {
		s.signals.Context.Location = nil
		ok, err := s.evaluate(models.ConditionLocation, models.OpEquals, "")
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("unknown condition type fails closed", func() {
		ok, err := s.evaluate("gait", models.OpEquals, "anything")
		s.Error(err)
		s.False(ok)
	})

	s.Run("unknown operator fails closed", func() {
		ok, err := s.evaluate(models.ConditionUserRole, "sounds_like", "admin")
		s.Error(err)
		s.False(ok)
	})
}
