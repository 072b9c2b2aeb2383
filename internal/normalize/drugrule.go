package normalize

// DrugRule is the app-side drug eligibility rule.
type DrugRule struct {
	ID              string       `json:"id"`
	DrugPackID      string       `json:"drugPackId"`
	Description     string       `json:"description"`
	Priority        int          `json:"priority"`
	ValidFrom       *string      `json:"validFrom"`
	ValidTo         *string      `json:"validTo"`
	IsActive        bool         `json:"isActive"`
	Eligible        bool         `json:"eligible"`
	MaxQuantity     *float64     `json:"maxQuantity"`
	AdjustmentValue *float64     `json:"adjustmentValue"`
	Conditions      []Condition  `json:"conditions"`
	Indications     []IcdDetails `json:"indications"`
}

// Deactivate flips the rule to inactive. There is no reactivation.
func (r *DrugRule) Deactivate() {
	r.IsActive = false
}

var drugRuleFields = Fields{
	"id":              {"id", "drugRuleId", "ruleId"},
	"drugPackId":      {"drugPackId", "drug_pack_id", "packId"},
	"description":     {"description", "ruleName", "name", "rule_name"},
	"priority":        {"priority"},
	"validFrom":       {"validFrom", "valid_from", "effectiveFrom"},
	"validTo":         {"validTo", "valid_to", "effectiveTo"},
	"isActive":        {"isActive", "active", "is_active"},
	"eligible":        {"eligible", "isEligible", "allowed"},
	"maxQuantity":     {"maxQuantity", "max_quantity", "maxQty"},
	"adjustmentValue": {"adjustmentValue", "adjustment_value", "priceAdjustment"},
	"conditions":      {"conditions", "ruleConditions"},
	"indications":     {"indications", "icds", "drugIcds", "icdRelations"},
	"drugPack":        {"drugPack", "pack"},
}

// NormalizeDrugRule maps a backend drug rule, unwrapping envelopes.
// Missing isActive and eligible flags default to true.
func NormalizeDrugRule(v any) DrugRule {
	rec := Unwrap(v, ruleEnvelopes...)

	eligible := true
	if e := drugRuleFields.Pick(rec, "eligible"); e != nil {
		eligible = Truthy(e)
	}

	return DrugRule{
		ID:              drugRuleFields.String(rec, "id"),
		DrugPackID:      drugPackID(drugRuleFields, rec),
		Description:     drugRuleFields.String(rec, "description"),
		Priority:        int(numberOrZero(drugRuleFields.Number(rec, "priority"))),
		ValidFrom:       ParseDate(drugRuleFields.Pick(rec, "validFrom")),
		ValidTo:         ParseDate(drugRuleFields.Pick(rec, "validTo")),
		IsActive:        activeFlag(drugRuleFields, rec),
		Eligible:        eligible,
		MaxQuantity:     drugRuleFields.Number(rec, "maxQuantity"),
		AdjustmentValue: drugRuleFields.Number(rec, "adjustmentValue"),
		Conditions:      NormalizeConditions(drugRuleFields.Pick(rec, "conditions")),
		Indications:     NormalizeIcdRelations(drugRuleFields.Pick(rec, "indications")),
	}
}

// NormalizeDrugRules maps a list response.
func NormalizeDrugRules(v any) []DrugRule {
	list := UnwrapList(v, listEnvelopes...)
	out := make([]DrugRule, 0, len(list))
	for _, elem := range list {
		out = append(out, NormalizeDrugRule(elem))
	}
	return out
}

// DrugRulePayload is the drug rule wire shape.
type DrugRulePayload struct {
	DrugPackID      any                 `json:"drugPackId"`
	Description     *string             `json:"description"`
	Priority        int                 `json:"priority"`
	ValidFrom       *string             `json:"validFrom"`
	ValidTo         *string             `json:"validTo"`
	IsActive        bool                `json:"isActive"`
	Eligible        bool                `json:"eligible"`
	MaxQuantity     *float64            `json:"maxQuantity"`
	AdjustmentValue *float64            `json:"adjustmentValue"`
	Conditions      []ConditionPayload  `json:"conditions"`
	Indications     []IndicationPayload `json:"indications"`
}

// IndicationPayload links a drug rule to one ICD code.
type IndicationPayload struct {
	IcdID   any     `json:"icdId"`
	IcdCode *string `json:"icdCode"`
}

// BuildDrugRulePayload mirrors NormalizeDrugRule for submission.
func BuildDrugRulePayload(r DrugRule) DrugRulePayload {
	return DrugRulePayload{
		DrugPackID:      WireID(r.DrugPackID),
		Description:     trimmedOrNil(r.Description),
		Priority:        r.Priority,
		ValidFrom:       payloadDate(r.ValidFrom),
		ValidTo:         payloadDate(r.ValidTo),
		IsActive:        r.IsActive,
		Eligible:        r.Eligible,
		MaxQuantity:     r.MaxQuantity,
		AdjustmentValue: r.AdjustmentValue,
		Conditions:      buildConditionPayloads(r.Conditions),
		Indications:     buildIndicationPayloads(r.Indications),
	}
}

func buildIndicationPayloads(icds []IcdDetails) []IndicationPayload {
	out := make([]IndicationPayload, 0, len(icds))
	for _, d := range icds {
		out = append(out, IndicationPayload{
			IcdID:   WireID(d.ID),
			IcdCode: trimmedOrNil(d.Code),
		})
	}
	return out
}
