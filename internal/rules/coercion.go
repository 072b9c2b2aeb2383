// internal/rules/coercion.go
package rules

import (
	"encoding/json"
	"strings"

	"github.com/solatis/tpaconsole/internal/types"
)

/*
 * Factor value coercion.
 *
 * Form inputs arrive as raw text. The rules engine expects typed values, so
 * each condition value is coerced according to the factor's declared type in
 * the catalog. Coercion never fails; the worst case is the original text.
 *
 * Type modes:
 *   - NUMBER: Number() semantics via types.ParseNumber; unparseable text
 *     (and NaN/Inf) falls back to the raw, untrimmed string
 *   - STRING: trimmed; text starting with '{' or '[' gets a best-effort JSON
 *     parse, falling back to the trimmed text
 *   - unknown key: treated as STRING (free-text factor)
 *
 * The empty string is returned unchanged for every type so a cleared form
 * field stays distinguishable from a zero.
 */

// FactorLookup resolves factor definitions. *factors.Catalog implements it.
type FactorLookup interface {
	Lookup(key string) (types.FactorDefinition, bool)
}

// ParseFactorValue coerces a raw form value for factorKey.
// Returns float64 for numeric factors, string or decoded JSON otherwise.
func ParseFactorValue(lookup FactorLookup, factorKey, rawValue string) any {
	if rawValue == "" {
		return rawValue
	}

	if factorDataType(lookup, factorKey) == types.DataTypeNumber {
		if f, ok := types.ParseNumber(rawValue); ok {
			return f
		}
		return rawValue
	}

	trimmed := strings.TrimSpace(rawValue)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var parsed any
		if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
			return parsed
		}
	}
	return trimmed
}

// factorDataType returns the declared type, STRING for unknown keys or a nil lookup.
func factorDataType(lookup FactorLookup, key string) types.DataType {
	if lookup == nil {
		return types.DataTypeString
	}
	if f, ok := lookup.Lookup(key); ok && f.DataType == types.DataTypeNumber {
		return types.DataTypeNumber
	}
	return types.DataTypeString
}
