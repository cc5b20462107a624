package engine

import (
	"strings"

	"trustgate/internal/trust/models"
	pstrings "trustgate/pkg/platform/strings"
)

// Adjustment magnitudes for the continuous monitor. Adjustments are signed
// deltas on the stored trust level, not absolute values.
const (
	anomalyAdjustment      = -0.1
	escalationAdjustment   = -0.3
	suspiciousNetAdjust    = -0.2
	MonitorPersistMinDelta = 0.05
	MonitorErrorAdjustment = -0.1
)

// Alert tags produced by behavioral analysis.
const (
	AlertUnusualAccessTimes    = "unusual_access_times"
	AlertUnusualResourceAccess = "unusual_resource_access"
	AlertPrivilegeEscalation   = "privilege_escalation_detected"
	AlertSuspiciousNetwork     = "suspicious_network_activity"
	AlertMonitoringError       = "monitoring_error"
)

// Working hours window for access-time anomaly detection, inclusive bounds.
const (
	workdayStartHour = 6
	workdayEndHour   = 23
)

// escalationMarkers are resource substrings that indicate an attempt to
// reach privileged surfaces.
var escalationMarkers = []string{"admin", "system", "security", "users"}

// sensitiveMarkers flag resources whose access is anomalous for a normal
// session even when granted.
var sensitiveMarkers = []string{"admin", "system"}

// AnalyzeBehavior runs the three monitoring checks over a telemetry bundle
// and returns the summed trust adjustment with its alert tags. Pure function;
// persistence decisions belong to the service.
func AnalyzeBehavior(data models.BehaviorData) (float64, []string) {
	adjustment := 0.0
	alerts := []string{}

	// Behavioral anomalies: each detected anomaly costs a flat 0.1.
	if unusualAccessTimes(data.AccessTimes) {
		adjustment += anomalyAdjustment
		alerts = append(alerts, AlertUnusualAccessTimes)
	}
	if unusualResourceAccess(data.ResourceAccess) {
		adjustment += anomalyAdjustment
		alerts = append(alerts, AlertUnusualResourceAccess)
	}

	// Privilege escalation: severity is high, but the numeric effect stays
	// at the flat 0.3 penalty.
	if escalationAttempt(data.RequestedResources) {
		adjustment += escalationAdjustment
		alerts = append(alerts, AlertPrivilegeEscalation)
	}

	// Network behavior: a new location alone is suspicious, as is Tor.
	// A detected VPN is recorded as a reason but is not suspicious by itself.
	if suspicious, _ := networkSuspicion(data.NetworkActivity); suspicious {
		adjustment += suspiciousNetAdjust
		alerts = append(alerts, AlertSuspiciousNetwork)
	}

	return adjustment, pstrings.DedupeAndTrim(alerts)
}

// NetworkReasons returns the textual reasons behind a network suspicion
// verdict for logging and audit metadata.
func NetworkReasons(activity *models.NetworkActivity) []string {
	_, reasons := networkSuspicion(activity)
	return reasons
}

// unusualAccessTimes reports whether more than half of the recorded
// hour-of-day samples fall outside the working window.
func unusualAccessTimes(hours []int) bool {
	if len(hours) == 0 {
		return false
	}
	outside := 0
	for _, h := range hours {
		if h < workdayStartHour || h > workdayEndHour {
			outside++
		}
	}
	return outside*2 > len(hours)
}

func unusualResourceAccess(resources []string) bool {
	for _, r := range resources {
		for _, marker := range sensitiveMarkers {
			if strings.Contains(r, marker) {
				return true
			}
		}
	}
	return false
}

func escalationAttempt(requested []string) bool {
	for _, r := range requested {
		for _, marker := range escalationMarkers {
			if strings.Contains(r, marker) {
				return true
			}
		}
	}
	return false
}

func networkSuspicion(activity *models.NetworkActivity) (bool, []string) {
	if activity == nil {
		return false, nil
	}
	suspicious := false
	var reasons []string
	if activity.NewLocation {
		suspicious = true
		reasons = append(reasons, "new_location")
	}
	if activity.TorUsage {
		suspicious = true
		reasons = append(reasons, "tor_usage")
	}
	if activity.VPNDetected {
		reasons = append(reasons, "vpn_detected")
	}
	return suspicious, reasons
}
