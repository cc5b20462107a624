// Package engine holds the pure decision logic of the zero trust core:
// condition evaluation, weighted policy scoring, trust calculation,
// micro-segmentation, and behavioral analysis. No I/O, no side effects -
// the service layer gathers signals and persists results.
package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"trustgate/internal/trust/models"
)

// Signals is the resolved input bundle for condition evaluation. The service
// pre-fetches the stored user role and the pair's current trust level so the
// evaluator stays free of store reads.
type Signals struct {
	UserRole    string
	DeviceTrust float64
	Context     models.RequestContext
	// Now is the assessment time; the time condition reads its hour-of-day
	// from here at evaluation, never from a cached value.
	Now time.Time
}

// EvaluateCondition resolves the condition's actual value from the signal
// bundle and applies its operator. Any unresolvable type or comparison error
// yields false: the condition fails closed and the error is reported to the
// caller for logging, never propagated further.
func EvaluateCondition(cond models.PolicyCondition, sig Signals) (bool, error) {
	actual, err := resolveSignal(cond.Type, sig)
	if err != nil {
		return false, err
	}
	return compare(cond.Operator, actual, cond.Value)
}

func resolveSignal(t models.ConditionType, sig Signals) (any, error) {
	switch t {
	case models.ConditionUserRole:
		return sig.UserRole, nil
	case models.ConditionDeviceTrust:
		return sig.DeviceTrust, nil
	case models.ConditionLocation:
		if sig.Context.Location == nil {
			return "", nil
		}
		return sig.Context.Location.Country, nil
	case models.ConditionTime:
		return sig.Now.Hour(), nil
	case models.ConditionBehavior:
		return sig.Context.BehaviorScoreOrDefault(), nil
	case models.ConditionNetwork:
		return sig.Context.NetworkRiskOrDefault(), nil
	default:
		return nil, fmt.Errorf("unknown condition type %q", t)
	}
}

func compare(op models.Operator, actual, expected any) (bool, error) {
	switch op {
	case models.OpEquals:
		return equalValues(actual, expected), nil
	case models.OpNotEquals:
		return !equalValues(actual, expected), nil
	case models.OpGreaterThan:
		a, b := toFloat(actual), toFloat(expected)
		// NaN comparisons are false, so non-numeric values fail here.
		return a > b, nil
	case models.OpLessThan:
		a, b := toFloat(actual), toFloat(expected)
		return a < b, nil
	case models.OpContains:
		return strings.Contains(toString(actual), toString(expected)), nil
	case models.OpInRange:
		lo, hi, err := rangeBounds(expected)
		if err != nil {
			return false, err
		}
		a := toFloat(actual)
		return a >= lo && a <= hi, nil
	default:
		return false, fmt.Errorf("unknown operator %q", op)
	}
}

// equalValues compares scalars by their string form so that JSON-decoded
// numbers (float64) match integer expected values and vice versa.
func equalValues(actual, expected any) bool {
	af, aNum := numericValue(actual)
	bf, bNum := numericValue(expected)
	if aNum && bNum {
		return af == bf
	}
	return toString(actual) == toString(expected)
}

// toFloat coerces a value to float64, returning NaN for non-numeric values
// so ordered comparisons fail closed.
func toFloat(v any) float64 {
	if f, ok := numericValue(v); ok {
		return f
	}
	return math.NaN()
}

func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// rangeBounds extracts inclusive [min, max] bounds from an in_range expected
// value. Accepts []float64 or a generic two-element slice of numerics.
func rangeBounds(expected any) (float64, float64, error) {
	switch bounds := expected.(type) {
	case []float64:
		if len(bounds) != 2 {
			return 0, 0, fmt.Errorf("in_range expects 2 bounds, got %d", len(bounds))
		}
		return bounds[0], bounds[1], nil
	case []any:
		if len(bounds) != 2 {
			return 0, 0, fmt.Errorf("in_range expects 2 bounds, got %d", len(bounds))
		}
		lo, okLo := numericValue(bounds[0])
		hi, okHi := numericValue(bounds[1])
		if !okLo || !okHi {
			return 0, 0, fmt.Errorf("in_range bounds must be numeric")
		}
		return lo, hi, nil
	default:
		return 0, 0, fmt.Errorf("in_range expects a [min, max] pair, got %T", expected)
	}
}
