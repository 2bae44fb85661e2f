package types

import (
	"fmt"
	"math"
	"strconv"
)

// TypeSpec constrains an output value after an action completes: strings
// stringify, numerics clamp to [Min, Max] and round to Precision decimals,
// and the "eurocent" unit additionally truncates to an integer. Enforcement
// is a pure function of (value, spec) and must be idempotent.
type TypeSpec struct {
	Type      string   `yaml:"type,omitempty"`
	Unit      string   `yaml:"unit,omitempty"`
	Precision *int     `yaml:"precision,omitempty"`
	Min       *float64 `yaml:"min,omitempty"`
	Max       *float64 `yaml:"max,omitempty"`
}

// Enforce applies the type specification to value, returning the coerced
// result. A nil receiver (no type spec declared) passes the value through
// unchanged.
func (ts *TypeSpec) Enforce(value any) any {
	if ts == nil || value == nil {
		return value
	}

	if ts.Type == "string" {
		return fmt.Sprintf("%v", value)
	}

	f, ok := asFloat(value)
	if !ok {
		// Non-numeric value with a numeric-oriented spec passes through.
		return value
	}

	if ts.Min != nil && f < *ts.Min {
		f = *ts.Min
	}
	if ts.Max != nil && f > *ts.Max {
		f = *ts.Max
	}

	if ts.Precision != nil {
		f = roundTo(f, *ts.Precision)
	}

	if ts.Unit == "eurocent" {
		return int64(f)
	}

	return f
}

func roundTo(f float64, precision int) float64 {
	mult := math.Pow(10, float64(precision))
	return math.Round(f*mult) / mult
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
