package engine

import "trustgate/internal/trust/models"

// Penalty and blend constants for the trust formula. Only high and critical
// violations carry a direct penalty; medium and low degrade trust indirectly
// through behavior scores and adaptive controls.
const (
	criticalViolationPenalty = 0.3
	highViolationPenalty     = 0.15
	behaviorBlendPrior       = 0.7
	behaviorBlendSignal      = 0.3
	networkRiskThreshold     = 0.5
	networkRiskPenalty       = 0.1
	inactivityHours          = 24
)

// DecayStrategy maps (trust, hoursSinceLastActivity) to decayed trust.
// It runs only when inactivity exceeds the 24h threshold.
type DecayStrategy func(trust, hoursSinceLastActivity float64) float64

// FlatDecay applies a single 10% haircut once inactivity passes 24 hours,
// regardless of how many days have elapsed. This mirrors the original
// engine's behavior; it is almost certainly an oversimplification (25 hours
// and 25 days decay identically), kept for fidelity. A time-scaled strategy
// can be injected instead.
func FlatDecay(trust, _ float64) float64 {
	return trust * 0.9
}

// ComputeTrustLevel derives the new trust level from the prior level, the
// policy evaluation outcome, and the request context. Pure and deterministic:
// same inputs always produce the same output.
//
// Steps apply in fixed order: violation penalties, behavior blend, network
// risk penalty, inactivity decay, clamp to [0, 1].
func ComputeTrustLevel(prior float64, violations []models.PolicyViolation, rctx models.RequestContext, decay DecayStrategy) float64 {
	trust := prior

	var critical, high int
	for _, v := range violations {
		switch v.Severity {
		case models.SeverityCritical:
			critical++
		case models.SeverityHigh:
			high++
		}
	}
	trust -= criticalViolationPenalty*float64(critical) + highViolationPenalty*float64(high)

	if rctx.BehaviorScore != nil {
		trust = trust*behaviorBlendPrior + *rctx.BehaviorScore*behaviorBlendSignal
	}

	if rctx.NetworkRiskOrDefault() > networkRiskThreshold {
		trust -= networkRiskPenalty
	}

	if rctx.HoursSinceLastActivity != nil && *rctx.HoursSinceLastActivity > inactivityHours {
		if decay == nil {
			decay = FlatDecay
		}
		trust = decay(trust, *rctx.HoursSinceLastActivity)
	}

	return Clamp01(trust)
}

// Clamp01 bounds a trust level to [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
