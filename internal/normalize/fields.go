// internal/normalize/fields.go
package normalize

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/solatis/tpaconsole/internal/types"
)

/*
 * Field alias resolution for backend JSON records.
 *
 * The backend is inconsistent about field spellings (camelCase, snake_case,
 * short names). Each DTO declares a Fields table mapping its canonical field
 * to an ordered list of candidate keys; Pick walks the list and returns the
 * first value that is present and non-null.
 *
 * Alias order is priority order. A key that is present with a null value
 * does not stop the search.
 *
 * Envelope unwrapping follows single-key paths ("data", "dosageRule", ...)
 * into nested objects. Only objects are descended; a scalar or array under an
 * envelope key leaves the current record in place.
 */

// Record is a decoded backend JSON object.
type Record = map[string]any

// Fields maps a canonical field name to its ordered alias list.
type Fields map[string][]string

// Pick returns the first non-null value among field's aliases, or nil.
// A field with no declared aliases is looked up by its own name.
func (f Fields) Pick(rec Record, field string) any {
	if rec == nil {
		return nil
	}
	aliases, ok := f[field]
	if !ok {
		aliases = []string{field}
	}
	for _, key := range aliases {
		if v, ok := rec[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

// String picks field and stringifies it; absent is "".
func (f Fields) String(rec Record, field string) string {
	return Stringify(f.Pick(rec, field))
}

// Number picks field as a nullable number.
func (f Fields) Number(rec Record, field string) *float64 {
	return ParseNullableNumber(f.Pick(rec, field))
}

// Bool picks field with JavaScript truthiness.
func (f Fields) Bool(rec Record, field string) bool {
	return Truthy(f.Pick(rec, field))
}

// List picks field as an array; anything else is nil.
func (f Fields) List(rec Record, field string) []any {
	list, _ := f.Pick(rec, field).([]any)
	return list
}

// AsRecord returns v as a JSON object, or nil.
func AsRecord(v any) Record {
	rec, _ := v.(map[string]any)
	return rec
}

// Unwrap descends through envelope keys while they hold objects.
// Envelopes are tried in order at every level.
func Unwrap(v any, envelopes ...string) Record {
	rec := AsRecord(v)
	for rec != nil {
		descended := false
		for _, key := range envelopes {
			if inner := AsRecord(rec[key]); inner != nil {
				rec = inner
				descended = true
				break
			}
		}
		if !descended {
			return rec
		}
	}
	return nil
}

// UnwrapList returns the record list in v: a bare array, or an array under
// one of the envelope keys.
func UnwrapList(v any, envelopes ...string) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	rec := AsRecord(v)
	for rec != nil {
		next := Record(nil)
		for _, key := range envelopes {
			switch inner := rec[key].(type) {
			case []any:
				return inner
			case map[string]any:
				if next == nil {
					next = inner
				}
			}
		}
		rec = next
	}
	return nil
}

// Stringify renders a JSON value the way String(value) does in the UI.
// nil is "", numbers drop trailing zeros, objects and arrays are compact JSON.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		if math.IsNaN(x) {
			return "NaN"
		}
		if math.IsInf(x, 0) {
			if x > 0 {
				return "Infinity"
			}
			return "-Infinity"
		}
		return types.FormatNumber(x)
	case json.Number:
		return x.String()
	case int:
		return types.FormatNumber(float64(x))
	case int64:
		return types.FormatNumber(float64(x))
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// Truthy applies JavaScript Boolean() semantics to a decoded JSON value.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0 && !math.IsNaN(x)
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	default:
		return true
	}
}

// trimmedOrNil returns nil for blank text.
func trimmedOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
