// internal/types/rules.go
package types

import (
	"bytes"
	"encoding/json"
)

/*
 * Rule draft vocabulary.
 *
 * RuleDraft is the mutable, form-session-scoped shape the admin UI edits
 * field by field. internal/rules compiles it into the payload sent to the
 * external rules engine; nothing here knows about the wire format.
 *
 * Factor entries are ordered. Conditions are emitted in entry order, so the
 * JSON decoder preserves document key order instead of going through a map.
 */

// Scope selects which family of combination rule a draft belongs to.
type Scope string

const (
	ScopeProcedurePricing  Scope = "procedure_pricing"
	ScopeAuthorizationRule Scope = "authorization_rule"
	ScopeLimitRule         Scope = "limit_rule"
	ScopeCoverageRule      Scope = "coverage_rule"
)

// Status is the two-state rule lifecycle flag.
type Status string

const (
	StatusDraft  Status = "draft"
	StatusActive Status = "active"
)

// PricingMode selects fixed or point-based pricing.
type PricingMode string

const (
	PricingModeFixed PricingMode = "FIXED"
	PricingModePoint PricingMode = "POINT"
)

// DiscountType selects how the discount field is interpreted.
type DiscountType string

const (
	DiscountNone    DiscountType = "none"
	DiscountPercent DiscountType = "percent"
	DiscountAmount  DiscountType = "amount"
)

// AdjustmentDirection is the sign of a price adjustment.
type AdjustmentDirection string

const (
	AdjustmentNone     AdjustmentDirection = "none"
	AdjustmentIncrease AdjustmentDirection = "increase"
	AdjustmentDecrease AdjustmentDirection = "decrease"
)

// AdjustmentUnit is the unit of a price adjustment.
type AdjustmentUnit string

const (
	AdjustmentUnitPercent AdjustmentUnit = "PERCENT"
	AdjustmentUnitAmount  AdjustmentUnit = "AMOUNT"
)

// FactorEntry is one factor key with the raw text the form captured.
type FactorEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// FactorEntries is an insertion-ordered factor key -> raw value mapping.
type FactorEntries []FactorEntry

// Get returns the raw value for key.
func (e FactorEntries) Get(key string) (string, bool) {
	for _, entry := range e {
		if entry.Key == key {
			return entry.Value, true
		}
	}
	return "", false
}

// Set updates key in place or appends it, keeping first-insertion order.
func (e FactorEntries) Set(key, value string) FactorEntries {
	for i := range e {
		if e[i].Key == key {
			e[i].Value = value
			return e
		}
	}
	return append(e, FactorEntry{Key: key, Value: value})
}

// MarshalJSON encodes entries as a JSON object in entry order.
func (e FactorEntries) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range e {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(entry.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(entry.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts either an object (key order preserved) or an array of
// {key, value} entries. Non-string values keep their JSON text.
func (e *FactorEntries) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*e = nil
		return nil
	}

	if trimmed[0] == '[' {
		var list []struct {
			Key   string          `json:"key"`
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		var entries FactorEntries
		for _, entry := range list {
			entries = entries.Set(entry.Key, rawText(entry.Value))
		}
		*e = entries
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return ErrInvalidFactors
	}

	var entries FactorEntries
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return ErrInvalidFactors
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		entries = entries.Set(key, rawText(raw))
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*e = entries
	return nil
}

// rawText unquotes JSON strings, maps null to "" and keeps other JSON as text.
func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return ""
	}
	return string(bytes.TrimSpace(raw))
}

// RuleDraft is the mutable rule form state.
type RuleDraft struct {
	Name   string `json:"name"`
	Scope  Scope  `json:"scope"`
	Status Status `json:"status"`

	PricingMode PricingMode `json:"pricingMode"`
	BasePrice   float64     `json:"basePrice"`
	Points      float64     `json:"points"`
	PointValue  float64     `json:"pointValue"`

	DiscountType  DiscountType `json:"discountType"`
	DiscountValue float64      `json:"discountValue"`
	DiscountCap   *float64     `json:"discountCap,omitempty"`

	AdjustmentDirection AdjustmentDirection `json:"adjustmentDirection"`
	AdjustmentUnit      AdjustmentUnit      `json:"adjustmentUnit"`
	AdjustmentValue     float64             `json:"adjustmentValue"`

	EffectiveFrom string `json:"effectiveFrom"`
	EffectiveTo   string `json:"effectiveTo"`

	Factors  FactorEntries `json:"factors"`
	Priority int           `json:"priority"`
}

// NewRuleDraft returns an empty draft with form defaults.
func NewRuleDraft() *RuleDraft {
	return &RuleDraft{
		Scope:               ScopeProcedurePricing,
		Status:              StatusDraft,
		PricingMode:         PricingModeFixed,
		DiscountType:        DiscountNone,
		AdjustmentDirection: AdjustmentNone,
		AdjustmentUnit:      AdjustmentUnitPercent,
	}
}

// SetFactor records the raw form value for a factor.
func (d *RuleDraft) SetFactor(key, value string) *RuleDraft {
	d.Factors = d.Factors.Set(key, value)
	return d
}

// ApplyDefaults fills zero-valued enum fields left out of a decoded body.
func (d *RuleDraft) ApplyDefaults() {
	if d.Scope == "" {
		d.Scope = ScopeProcedurePricing
	}
	if d.Status == "" {
		d.Status = StatusDraft
	}
	if d.PricingMode == "" {
		d.PricingMode = PricingModeFixed
	}
	if d.DiscountType == "" {
		d.DiscountType = DiscountNone
	}
	if d.AdjustmentDirection == "" {
		d.AdjustmentDirection = AdjustmentNone
	}
	if d.AdjustmentUnit == "" {
		d.AdjustmentUnit = AdjustmentUnitPercent
	}
}
