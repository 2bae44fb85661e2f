package types

import (
	"fmt"
)

// Canonicalize normalizes a value for deterministic JSON serialization and
// cross-implementation comparison in the golden-fixture harness: floats
// round to six decimal places, booleans and integers pass through unchanged,
// maps and slices recurse, and anything else falls back to its string form.
func Canonicalize(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case bool:
		return v
	case float32:
		return roundTo(float64(v), 6)
	case float64:
		return roundTo(v, 6)
	case int, int32, int64:
		return v
	case string:
		return v
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = Canonicalize(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = Canonicalize(val)
		}
		return out
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Truthy implements the engine's truthiness coercion: false, null, 0, and
// the empty string are false; everything else is true.
func Truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case int:
		return v != 0
	case int32:
		return v != 0
	case int64:
		return v != 0
	case float32:
		return v != 0
	case float64:
		return v != 0
	default:
		return true
	}
}
