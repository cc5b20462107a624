// Package models defines the domain types for the zero trust engine:
// trust records, policies, violations, adaptive controls, and the context
// bundles consumed during assessment and continuous monitoring.
package models

import "time"

// DefaultTrustLevel seeds the record for a (user, device) pair seen for the
// first time. New pairs land in the restricted segment until they earn trust.
const DefaultTrustLevel = 0.3

// MicroSegment is a named access tier derived from trust level.
type MicroSegment string

const (
	SegmentHighTrust  MicroSegment = "high_trust"
	SegmentStandard   MicroSegment = "standard"
	SegmentLimited    MicroSegment = "limited"
	SegmentRestricted MicroSegment = "restricted"
	SegmentQuarantine MicroSegment = "quarantine"
)

// segmentRank orders segments from least to most privileged.
var segmentRank = map[MicroSegment]int{
	SegmentQuarantine: 0,
	SegmentRestricted: 1,
	SegmentLimited:    2,
	SegmentStandard:   3,
	SegmentHighTrust:  4,
}

// Rank returns the privilege order of the segment. Higher is more privileged.
// Unknown segments rank below quarantine.
func (s MicroSegment) Rank() int {
	if r, ok := segmentRank[s]; ok {
		return r
	}
	return -1
}

// IsValid checks if the segment is one of the supported enum values.
func (s MicroSegment) IsValid() bool {
	_, ok := segmentRank[s]
	return ok
}

// Severity grades a policy violation by its weighted score.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ConditionType selects which signal a policy condition reads.
type ConditionType string

const (
	ConditionUserRole    ConditionType = "user_role"
	ConditionDeviceTrust ConditionType = "device_trust"
	ConditionLocation    ConditionType = "location"
	ConditionTime        ConditionType = "time"
	ConditionBehavior    ConditionType = "behavior"
	ConditionNetwork     ConditionType = "network"
)

// IsValid checks if the condition type is one of the supported enum values.
func (t ConditionType) IsValid() bool {
	switch t {
	case ConditionUserRole, ConditionDeviceTrust, ConditionLocation,
		ConditionTime, ConditionBehavior, ConditionNetwork:
		return true
	}
	return false
}

// Operator compares a resolved signal against a condition's expected value.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpContains    Operator = "contains"
	OpInRange     Operator = "in_range"
)

// IsValid checks if the operator is one of the supported enum values.
func (o Operator) IsValid() bool {
	switch o {
	case OpEquals, OpNotEquals, OpGreaterThan, OpLessThan, OpContains, OpInRange:
		return true
	}
	return false
}

// ActionType is the enforcement outcome a policy requests when it fails.
type ActionType string

const (
	ActionAllow        ActionType = "allow"
	ActionDeny         ActionType = "deny"
	ActionMFARequired  ActionType = "mfa_required"
	ActionDeviceVerify ActionType = "device_verify"
	ActionLogOnly      ActionType = "log_only"
	ActionQuarantine   ActionType = "quarantine"
)

// ControlType identifies a step-up control attached to a low-trust session.
type ControlType string

const (
	ControlMFA                ControlType = "mfa"
	ControlDeviceVerification ControlType = "device_verification"
	ControlIPRestriction      ControlType = "ip_restriction"
	ControlTimeBased          ControlType = "time_based"
	ControlGeoFence           ControlType = "geo_fence"
)

// ControlAction is what an adaptive control does when its condition triggers.
type ControlAction string

const (
	ControlActionAllow     ControlAction = "allow"
	ControlActionDeny      ControlAction = "deny"
	ControlActionChallenge ControlAction = "challenge"
	ControlActionLog       ControlAction = "log"
)

// PolicyCondition is one weighted predicate over context/user/device signals.
// Conditions within a policy combine by weight, never by boolean chaining.
type PolicyCondition struct {
	Type     ConditionType `json:"type"`
	Operator Operator      `json:"operator"`
	// Value is the expected comparison value: a scalar, or for in_range a
	// two-element [min, max] slice.
	Value  any     `json:"value"`
	Weight float64 `json:"weight"`
}

// PolicyAction is an enforcement action carried by a policy.
type PolicyAction struct {
	Type       ActionType     `json:"type"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Policy is an administrator-managed rule. Read-only to the engine;
// soft-disabled via IsActive.
type Policy struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Priority    int               `json:"priority"`
	IsActive    bool              `json:"is_active"`
	Conditions  []PolicyCondition `json:"conditions"`
	Actions     []PolicyAction    `json:"actions"`
}

// PolicyViolation is derived from a failed policy evaluation. It is attached
// to an assessment, never stored as its own entity.
type PolicyViolation struct {
	PolicyID      string    `json:"policy_id"`
	ViolationType string    `json:"violation_type"`
	Severity      Severity  `json:"severity"`
	Timestamp     time.Time `json:"timestamp"`
	Details       string    `json:"details"`
}

// AdaptiveControl is a derived step-up requirement for a session.
type AdaptiveControl struct {
	Type       ControlType    `json:"type"`
	Condition  string         `json:"condition"`
	Action     ControlAction  `json:"action"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// TrustRecord is the persisted trust state for one (user, device) pair.
// At most one current record exists per pair; history is append-friendly
// and ordered by UpdatedAt. Records are never hard-deleted.
type TrustRecord struct {
	UserID     string  `json:"user_id"`
	DeviceID   string  `json:"device_id"`
	TrustLevel float64 `json:"trust_level"`
	// RiskFactors holds the tags from the most recent evaluation. Replaced,
	// not appended, on each update.
	RiskFactors          []string          `json:"risk_factors"`
	MicroSegment         MicroSegment      `json:"micro_segment"`
	AdaptiveControls     []AdaptiveControl `json:"adaptive_controls"`
	PolicyViolationCount int               `json:"policy_violation_count"`
	LastVerification     time.Time         `json:"last_verification"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// NewTrustRecord returns the default record for a pair with no history.
func NewTrustRecord(userID, deviceID string) TrustRecord {
	return TrustRecord{
		UserID:       userID,
		DeviceID:     deviceID,
		TrustLevel:   DefaultTrustLevel,
		RiskFactors:  []string{},
		MicroSegment: SegmentRestricted,
	}
}

// Location carries the opaque geo signal resolved by an upstream provider.
type Location struct {
	Country string `json:"country"`
	City    string `json:"city,omitempty"`
}

// RequestContext is the signal bundle accompanying an assessment request.
// Optional numeric fields are pointers so absence is distinguishable from
// zero; documented defaults apply when absent.
type RequestContext struct {
	IPAddress              string    `json:"ip_address,omitempty"`
	UserAgent              string    `json:"user_agent,omitempty"`
	Location               *Location `json:"location,omitempty"`
	NetworkRisk            *float64  `json:"network_risk,omitempty"`
	BehaviorScore          *float64  `json:"behavior_score,omitempty"`
	HoursSinceLastActivity *float64  `json:"hours_since_last_activity,omitempty"`
	RequestedResource      string    `json:"requested_resource,omitempty"`
}

// BehaviorScoreOrDefault returns the behavior score or its documented
// default of 0.5 when the signal is absent.
func (c RequestContext) BehaviorScoreOrDefault() float64 {
	if c.BehaviorScore != nil {
		return *c.BehaviorScore
	}
	return 0.5
}

// NetworkRiskOrDefault returns the network risk or its documented default
// of 0 when the signal is absent.
func (c RequestContext) NetworkRiskOrDefault() float64 {
	if c.NetworkRisk != nil {
		return *c.NetworkRisk
	}
	return 0
}

// NetworkActivity carries network anomaly flags from telemetry.
type NetworkActivity struct {
	NewLocation bool `json:"new_location"`
	VPNDetected bool `json:"vpn_detected"`
	TorUsage    bool `json:"tor_usage"`
}

// BehaviorData is the telemetry bundle consumed by continuous monitoring.
type BehaviorData struct {
	// AccessTimes holds hour-of-day samples (0-23) of recent accesses.
	AccessTimes []int `json:"access_times,omitempty"`
	// ResourceAccess lists resources touched in the observation window.
	ResourceAccess []string `json:"resource_access,omitempty"`
	// RequestedResources lists resources requested but not necessarily granted.
	RequestedResources []string         `json:"requested_resources,omitempty"`
	NetworkActivity    *NetworkActivity `json:"network_activity,omitempty"`
}

// PolicyEvaluation aggregates the outcome of running all active policies.
type PolicyEvaluation struct {
	Allow           bool              `json:"allow"`
	Violations      []PolicyViolation `json:"violations"`
	RiskFactors     []string          `json:"risk_factors"`
	RequiredActions []PolicyAction    `json:"required_actions"`
}

// TrustAssessment is the full result returned to the caller.
type TrustAssessment struct {
	UserID           string            `json:"user_id"`
	DeviceID         string            `json:"device_id"`
	TrustLevel       float64           `json:"trust_level"`
	MicroSegment     MicroSegment      `json:"micro_segment"`
	AllowedResources []string          `json:"allowed_resources"`
	AdaptiveControls []AdaptiveControl `json:"adaptive_controls"`
	Violations       []PolicyViolation `json:"violations"`
	RiskFactors      []string          `json:"risk_factors"`
	Allow            bool              `json:"allow"`
	AssessedAt       time.Time         `json:"assessed_at"`
}

// MonitoringResult is the outcome of one continuous-monitoring pass.
type MonitoringResult struct {
	// TrustAdjustment is a signed delta, not an absolute level.
	TrustAdjustment float64  `json:"trust_adjustment"`
	Alerts          []string `json:"alerts"`
}
