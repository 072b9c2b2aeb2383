// Package types provides domain models shared across tpaconsole components.
//
// Zero-dependency design: types.go, rules.go, drugs.go and errors.go use only
// the standard library so the rule core can be embedded in tooling without the
// service stack. ID utilities in ids.go import uuid but are isolated.
//
// Wire shapes live next to the packages that produce them (internal/rules,
// internal/normalize, internal/evaluation). This package only holds the
// vocabulary those packages share.
package types

// DataType is the declared value type of a factor.
type DataType string

const (
	DataTypeString DataType = "STRING"
	DataTypeNumber DataType = "NUMBER"
)

// FactorDefinition describes one named attribute usable as a rule condition.
// Immutable once placed in a catalog.
type FactorDefinition struct {
	Key           string   `json:"key"`
	Name          string   `json:"name"`
	DataType      DataType `json:"dataType"`
	AllowedValues []string `json:"allowedValues,omitempty"`
	Description   string   `json:"description,omitempty"`
}

// HasAllowedValues reports whether the factor is enumerated.
func (f FactorDefinition) HasAllowedValues() bool {
	return len(f.AllowedValues) > 0
}

// Allows reports whether value is acceptable for an enumerated factor.
// Free-form factors accept everything.
func (f FactorDefinition) Allows(value string) bool {
	if !f.HasAllowedValues() {
		return true
	}
	for _, v := range f.AllowedValues {
		if v == value {
			return true
		}
	}
	return false
}

// FactorCategory groups factors for display. Order of Factors is display order.
type FactorCategory struct {
	Key     string             `json:"key"`
	Name    string             `json:"name"`
	Factors []FactorDefinition `json:"factors"`
}

// SubmissionID identifies a journaled rule submission (UUIDv7).
type SubmissionID string

// Resource limits enforced at the HTTP boundary.
const (
	// MaxFactorEntries caps factor entries per draft. The catalog holds ~60
	// factors; anything beyond that is a malformed form.
	MaxFactorEntries = 128

	// MaxConditionValues caps IN-operator value lists on drug and dosage rules.
	MaxConditionValues = 64

	// MaxRequestBodySize bounds JSON bodies accepted by typed endpoints.
	MaxRequestBodySize = 1024 * 1024
)
