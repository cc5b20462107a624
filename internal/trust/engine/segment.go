package engine

import (
	"strings"

	"trustgate/internal/trust/models"
)

// LowTrustThreshold is the trust level below which every request must be
// challenged with MFA.
const LowTrustThreshold = 0.4

// WildcardResource marks a segment as having access to all resources.
const WildcardResource = "*"

// SegmentFor maps a trust level to its micro-segment. Pure step function.
func SegmentFor(trust float64) models.MicroSegment {
	switch {
	case trust >= 0.9:
		return models.SegmentHighTrust
	case trust >= 0.7:
		return models.SegmentStandard
	case trust >= 0.4:
		return models.SegmentLimited
	case trust >= 0.2:
		return models.SegmentRestricted
	default:
		return models.SegmentQuarantine
	}
}

// segmentResources is the fixed allowed-resources table. Quarantine is a
// total lockout; high_trust reaches everything.
var segmentResources = map[models.MicroSegment][]string{
	models.SegmentHighTrust:  {WildcardResource},
	models.SegmentStandard:   {"dashboard", "profile", "content", "analytics"},
	models.SegmentLimited:    {"dashboard", "profile"},
	models.SegmentRestricted: {"profile"},
	models.SegmentQuarantine: {},
}

// AllowedResources returns the resources reachable from a segment. The
// returned slice is a copy; callers may mutate it.
func AllowedResources(segment models.MicroSegment) []string {
	resources, ok := segmentResources[segment]
	if !ok {
		return []string{}
	}
	return append([]string{}, resources...)
}

// GenerateControls derives the step-up controls for a session. Controls are
// not mutually exclusive; every applicable one is emitted.
func GenerateControls(trust float64, violations []models.PolicyViolation) []models.AdaptiveControl {
	controls := []models.AdaptiveControl{}

	if trust < LowTrustThreshold {
		controls = append(controls, models.AdaptiveControl{
			Type:      models.ControlMFA,
			Condition: "every_request",
			Action:    models.ControlActionChallenge,
			Parameters: map[string]any{
				"methods": []string{"totp", "sms", "biometric"},
			},
		})
	}

	if violationTypeContains(violations, "device") {
		controls = append(controls, models.AdaptiveControl{
			Type:      models.ControlDeviceVerification,
			Condition: "new_device",
			Action:    models.ControlActionChallenge,
			Parameters: map[string]any{
				"verification_method": "email",
			},
		})
	}

	if violationTypeContains(violations, "network") {
		controls = append(controls, models.AdaptiveControl{
			Type:      models.ControlIPRestriction,
			Condition: "untrusted_network",
			Action:    models.ControlActionDeny,
			Parameters: map[string]any{
				// Empty allow-list blocks everything until configured.
				"allowed_ranges": []string{},
			},
		})
	}

	return controls
}

func violationTypeContains(violations []models.PolicyViolation, substr string) bool {
	for _, v := range violations {
		if strings.Contains(v.ViolationType, substr) {
			return true
		}
	}
	return false
}
