package engine

import (
	"fmt"
	"log/slog"
	"sort"

	"trustgate/internal/trust/models"
	pstrings "trustgate/pkg/platform/strings"
)

// PassThreshold is the weighted score at or above which a policy passes.
// A policy scoring exactly the threshold passes and emits no violation.
const PassThreshold = 0.7

// blockingPriority is the tier above which a critical failure flips the
// overall allow flag. Lower-priority policies only degrade trust and add
// step-up requirements.
const blockingPriority = 8

// PolicyResult is the outcome of evaluating a single policy.
type PolicyResult struct {
	Policy   models.Policy
	Score    float64
	Passed   bool
	Severity models.Severity
	// FailedConditions lists the condition types that did not hold, in
	// declaration order.
	FailedConditions []models.ConditionType
}

// EvaluatePolicy scores one policy against the signal bundle. Conditions are
// evaluated independently and combined by weight; a zero total weight yields
// score 0 so the policy fails closed instead of dividing by zero.
func EvaluatePolicy(p models.Policy, sig Signals, logger *slog.Logger) PolicyResult {
	var conditionsMet, totalWeight float64
	var failed []models.ConditionType

	for _, cond := range p.Conditions {
		totalWeight += cond.Weight
		ok, err := EvaluateCondition(cond, sig)
		if err != nil && logger != nil {
			logger.Warn("condition evaluation failed closed",
				"policy", p.Name,
				"condition_type", string(cond.Type),
				"error", err,
			)
		}
		if ok {
			conditionsMet += cond.Weight
		} else {
			failed = append(failed, cond.Type)
		}
	}

	score := 0.0
	if totalWeight > 0 {
		score = conditionsMet / totalWeight
	}

	return PolicyResult{
		Policy:           p,
		Score:            score,
		Passed:           score >= PassThreshold,
		Severity:         severityForScore(score),
		FailedConditions: failed,
	}
}

// severityForScore grades a policy score. Scores at or above the pass
// threshold grade low, which no emitted violation can carry in practice
// since violations only exist for failed policies.
func severityForScore(score float64) models.Severity {
	switch {
	case score < 0.3:
		return models.SeverityCritical
	case score < 0.5:
		return models.SeverityHigh
	case score < PassThreshold:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// EvaluatePolicies runs every active policy in priority order (descending)
// and aggregates violations, risk factors, and required actions. The allow
// flag starts true and flips only when a policy above the blocking priority
// tier fails critically.
func EvaluatePolicies(policies []models.Policy, sig Signals, logger *slog.Logger) models.PolicyEvaluation {
	ordered := make([]models.Policy, 0, len(policies))
	for _, p := range policies {
		if p.IsActive {
			ordered = append(ordered, p)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	eval := models.PolicyEvaluation{
		Allow:           true,
		Violations:      []models.PolicyViolation{},
		RiskFactors:     []string{},
		RequiredActions: []models.PolicyAction{},
	}

	for _, p := range ordered {
		result := EvaluatePolicy(p, sig, logger)
		if result.Passed {
			continue
		}

		eval.Violations = append(eval.Violations, models.PolicyViolation{
			PolicyID:      p.ID,
			ViolationType: p.Name,
			Severity:      result.Severity,
			Timestamp:     sig.Now,
			Details: fmt.Sprintf("policy %q scored %.2f against threshold %.2f",
				p.Name, result.Score, PassThreshold),
		})

		for _, ct := range result.FailedConditions {
			eval.RiskFactors = append(eval.RiskFactors, string(ct)+"_failed")
		}

		eval.RequiredActions = append(eval.RequiredActions, p.Actions...)

		if p.Priority > blockingPriority && result.Severity == models.SeverityCritical {
			eval.Allow = false
		}
	}

	eval.RiskFactors = pstrings.DedupeAndTrim(eval.RiskFactors)
	return eval
}

// FailClosedEvaluation is the result used when the policy table itself
// cannot be read: deny, a single evaluation-error risk factor, and a
// mandatory deny action.
func FailClosedEvaluation() models.PolicyEvaluation {
	return models.PolicyEvaluation{
		Allow:       false,
		Violations:  []models.PolicyViolation{},
		RiskFactors: []string{"policy_evaluation_error"},
		RequiredActions: []models.PolicyAction{
			{Type: models.ActionDeny},
		},
	}
}
