// internal/normalize/dosage.go
package normalize

import (
	"strconv"
	"strings"
)

/*
 * Dosage rule normalization.
 *
 * Backend responses come flat ({id, drugPackId, ...}) or wrapped in one or
 * more envelopes ({data: {dosageRule: {...}}}). Dates come as ISO strings or
 * [y, m, d] tuples, numbers as numbers or numeric strings. NormalizeDosageRule
 * flattens all of that into DosageRule; BuildPayload is the mirror for
 * submission and emits explicit nulls for empty optional fields.
 */

// Envelope keys the backend wraps rule records in.
var ruleEnvelopes = []string{"data", "dosageRule", "drugRule", "rule"}

// List envelope keys for paged and wrapped list responses.
var listEnvelopes = []string{"data", "content", "items", "rules"}

// DosageRule is the app-side dosage rule.
type DosageRule struct {
	ID           string      `json:"id"`
	DrugPackID   string      `json:"drugPackId"`
	RuleName     string      `json:"ruleName"`
	DosageAmount *float64    `json:"dosageAmount"`
	DosageUnit   string      `json:"dosageUnit"`
	Notes        string      `json:"notes"`
	Priority     int         `json:"priority"`
	ValidFrom    *string     `json:"validFrom"`
	ValidTo      *string     `json:"validTo"`
	IsActive     bool        `json:"isActive"`
	Conditions   []Condition `json:"conditions"`
	Frequencies  []Frequency `json:"frequencies"`
}

// Deactivate flips the rule to inactive. There is no reactivation.
func (r *DosageRule) Deactivate() {
	r.IsActive = false
}

var dosageFields = Fields{
	"id":           {"id", "dosageRuleId", "ruleId"},
	"drugPackId":   {"drugPackId", "drug_pack_id", "packId"},
	"ruleName":     {"ruleName", "name", "rule_name", "description"},
	"dosageAmount": {"dosageAmount", "dosage_amount", "amount", "dose"},
	"dosageUnit":   {"dosageUnit", "dosage_unit", "unit"},
	"notes":        {"notes", "note", "remarks"},
	"priority":     {"priority"},
	"validFrom":    {"validFrom", "valid_from", "effectiveFrom"},
	"validTo":      {"validTo", "valid_to", "effectiveTo"},
	"isActive":     {"isActive", "active", "is_active"},
	"conditions":   {"conditions", "ruleConditions"},
	"frequencies":  {"frequencies", "frequencyList", "frequency_list"},
	"drugPack":     {"drugPack", "pack"},
}

// NormalizeDosageRule maps a backend dosage rule, unwrapping envelopes.
// A missing isActive flag means active.
func NormalizeDosageRule(v any) DosageRule {
	rec := Unwrap(v, ruleEnvelopes...)
	return DosageRule{
		ID:           dosageFields.String(rec, "id"),
		DrugPackID:   drugPackID(dosageFields, rec),
		RuleName:     dosageFields.String(rec, "ruleName"),
		DosageAmount: dosageFields.Number(rec, "dosageAmount"),
		DosageUnit:   dosageFields.String(rec, "dosageUnit"),
		Notes:        dosageFields.String(rec, "notes"),
		Priority:     int(numberOrZero(dosageFields.Number(rec, "priority"))),
		ValidFrom:    ParseDate(dosageFields.Pick(rec, "validFrom")),
		ValidTo:      ParseDate(dosageFields.Pick(rec, "validTo")),
		IsActive:     activeFlag(dosageFields, rec),
		Conditions:   NormalizeConditions(dosageFields.Pick(rec, "conditions")),
		Frequencies:  NormalizeFrequencies(dosageFields.Pick(rec, "frequencies")),
	}
}

// NormalizeDosageRules maps a list response.
func NormalizeDosageRules(v any) []DosageRule {
	list := UnwrapList(v, listEnvelopes...)
	out := make([]DosageRule, 0, len(list))
	for _, elem := range list {
		out = append(out, NormalizeDosageRule(elem))
	}
	return out
}

// drugPackID reads the pack id directly or from a nested drugPack relation.
func drugPackID(f Fields, rec Record) string {
	if id := f.String(rec, "drugPackId"); id != "" {
		return id
	}
	return Stringify(AsRecord(f.Pick(rec, "drugPack"))["id"])
}

func activeFlag(f Fields, rec Record) bool {
	v := f.Pick(rec, "isActive")
	if v == nil {
		return true
	}
	return Truthy(v)
}

// DosageRulePayload is the dosage rule wire shape.
type DosageRulePayload struct {
	DrugPackID   any                `json:"drugPackId"`
	RuleName     *string            `json:"ruleName"`
	DosageAmount *float64           `json:"dosageAmount"`
	DosageUnit   *string            `json:"dosageUnit"`
	Notes        *string            `json:"notes"`
	Priority     int                `json:"priority"`
	ValidFrom    *string            `json:"validFrom"`
	ValidTo      *string            `json:"validTo"`
	IsActive     bool               `json:"isActive"`
	Conditions   []ConditionPayload `json:"conditions"`
	Frequencies  []FrequencyPayload `json:"frequencies"`
}

// BuildPayload mirrors NormalizeDosageRule for submission.
func BuildPayload(r DosageRule) DosageRulePayload {
	frequencies := make([]FrequencyPayload, 0, len(r.Frequencies))
	for _, f := range r.Frequencies {
		frequencies = append(frequencies, BuildFrequencyPayload(f))
	}
	return DosageRulePayload{
		DrugPackID:   WireID(r.DrugPackID),
		RuleName:     trimmedOrNil(r.RuleName),
		DosageAmount: r.DosageAmount,
		DosageUnit:   trimmedOrNil(r.DosageUnit),
		Notes:        trimmedOrNil(r.Notes),
		Priority:     r.Priority,
		ValidFrom:    payloadDate(r.ValidFrom),
		ValidTo:      payloadDate(r.ValidTo),
		IsActive:     r.IsActive,
		Conditions:   buildConditionPayloads(r.Conditions),
		Frequencies:  frequencies,
	}
}

// WireID encodes an id for the backend: canonical integers as JSON numbers,
// other text as a string, blank as null. "007" and "+5" stay strings.
func WireID(id string) any {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	if n, err := strconv.ParseInt(id, 10, 64); err == nil && strconv.FormatInt(n, 10) == id {
		return n
	}
	return id
}

func payloadDate(d *string) *string {
	if d == nil {
		return nil
	}
	return ParseDate(strings.TrimSpace(*d))
}
