package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/solatis/tpaconsole/internal/types"
)

// ParseDate normalizes a backend date to YYYY-MM-DD.
//
// Strings are truncated to their first 10 characters. Arrays must hold
// exactly three numbers [year, month, day] with a 1-indexed month. Anything
// else, including an empty string, is nil.
func ParseDate(v any) *string {
	switch x := v.(type) {
	case string:
		runes := []rune(x)
		if len(runes) > 10 {
			runes = runes[:10]
		}
		if len(runes) == 0 {
			return nil
		}
		s := string(runes)
		return &s
	case []any:
		if len(x) != 3 {
			return nil
		}
		parts := make([]int64, 3)
		for i, elem := range x {
			n, ok := tupleNumber(elem)
			if !ok {
				return nil
			}
			parts[i] = n
		}
		return formatDate(parts[0], parts[1], parts[2])
	case []int:
		if len(x) != 3 {
			return nil
		}
		return formatDate(int64(x[0]), int64(x[1]), int64(x[2]))
	case []float64:
		if len(x) != 3 {
			return nil
		}
		parts := make([]int64, 3)
		for i, f := range x {
			n, ok := tupleNumber(f)
			if !ok {
				return nil
			}
			parts[i] = n
		}
		return formatDate(parts[0], parts[1], parts[2])
	default:
		return nil
	}
}

func formatDate(year, month, day int64) *string {
	s := fmt.Sprintf("%d-%02d-%02d", year, month, day)
	return &s
}

// tupleNumber accepts finite numbers only; strings inside a tuple are rejected.
func tupleNumber(v any) (int64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int:
		return int64(x), true
	case int64:
		return x, true
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int64(f), true
}

// ParseNullableNumber passes finite numbers through and parses strings.
// Empty, unparseable and non-numeric values are nil.
func ParseNullableNumber(v any) *float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		if strings.TrimSpace(x) == "" {
			return nil
		}
		parsed, ok := types.ParseNumber(x)
		if !ok {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// numberOrZero dereferences n, treating nil as 0.
func numberOrZero(n *float64) float64 {
	if n == nil {
		return 0
	}
	return *n
}
