package evaluation

import (
	"strings"

	"github.com/solatis/tpaconsole/internal/normalize"
)

var responseEnvelopes = []string{"data", "result"}

var decisionFields = normalize.Fields{
	"eligible":      {"eligible", "isEligible", "approved"},
	"reasons":       {"reasons", "reasonList"},
	"pricing":       {"pricing", "priceSummary", "pricingSummary"},
	"dosage":        {"dosage", "dosageRecommendation", "recommendation"},
	"warnings":      {"warnings", "warningList"},
	"clinicalNotes": {"clinicalNotes", "clinical_notes", "notes"},
}

var pricingFields = normalize.Fields{
	"unitPrice":        {"unitPrice", "unit_price", "price"},
	"quantity":         {"quantity", "approvedQuantity"},
	"totalPrice":       {"totalPrice", "total_price", "grossAmount"},
	"discountAmount":   {"discountAmount", "discount"},
	"adjustmentAmount": {"adjustmentAmount", "adjustment"},
	"finalPrice":       {"finalPrice", "final_price", "netAmount"},
	"currency":         {"currency", "currencyCode"},
	"priceListId":      {"priceListId", "price_list_id"},
}

var dosageFields = normalize.Fields{
	"ruleName":      {"ruleName", "name"},
	"dosageAmount":  {"dosageAmount", "dosage_amount", "amount"},
	"dosageUnit":    {"dosageUnit", "dosage_unit", "unit"},
	"frequencyCode": {"frequencyCode", "frequency", "code"},
	"timesPerDay":   {"timesPerDay", "times_per_day"},
	"durationDays":  {"durationDays", "duration_days"},
	"maxDailyDose":  {"maxDailyDose", "max_daily_dose"},
}

var drugRuleEvaluationFields = normalize.Fields{
	"eligible":        {"eligible", "isEligible"},
	"matchedRules":    {"matchedRules", "matched_rules", "rules"},
	"maxQuantity":     {"maxQuantity", "max_quantity"},
	"adjustmentValue": {"adjustmentValue", "adjustment_value"},
	"reasons":         {"reasons"},
	"warnings":        {"warnings"},
}

var matchedRuleFields = normalize.Fields{
	"ruleId":      {"ruleId", "id", "drugRuleId"},
	"description": {"description", "ruleName", "name"},
	"priority":    {"priority"},
	"eligible":    {"eligible", "isEligible"},
}

var requestFields = normalize.Fields{
	"drugPackId":        {"drugPackId", "drug_pack_id"},
	"priceListId":       {"priceListId", "price_list_id"},
	"requestedQuantity": {"requestedQuantity", "quantity"},
	"factors":           {"factors"},
	"requestedDate":     {"requestedDate", "date"},
}

// StringList guards an array and stringifies each element.
// Non-arrays become an empty list.
func StringList(v any) []string {
	list, _ := v.([]any)
	out := make([]string, 0, len(list))
	for _, elem := range list {
		out = append(out, normalize.Stringify(elem))
	}
	return out
}

// optionalString returns nil for absent or blank values.
func optionalString(v any) *string {
	s := strings.TrimSpace(normalize.Stringify(v))
	if s == "" {
		return nil
	}
	return &s
}

func number(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// NormalizeDecision coerces a backend decision response.
func NormalizeDecision(v any) Decision {
	rec := normalize.Unwrap(v, responseEnvelopes...)
	return Decision{
		Eligible:      decisionFields.Bool(rec, "eligible"),
		Reasons:       StringList(decisionFields.Pick(rec, "reasons")),
		Pricing:       NormalizePricingSummary(decisionFields.Pick(rec, "pricing")),
		Dosage:        NormalizeDosageRecommendation(decisionFields.Pick(rec, "dosage")),
		Warnings:      StringList(decisionFields.Pick(rec, "warnings")),
		ClinicalNotes: StringList(decisionFields.Pick(rec, "clinicalNotes")),
	}
}

// NormalizePricingSummary returns nil unless v is an object.
func NormalizePricingSummary(v any) *PricingSummary {
	rec := normalize.AsRecord(v)
	if rec == nil {
		return nil
	}
	return &PricingSummary{
		UnitPrice:        pricingFields.Number(rec, "unitPrice"),
		Quantity:         pricingFields.Number(rec, "quantity"),
		TotalPrice:       pricingFields.Number(rec, "totalPrice"),
		DiscountAmount:   pricingFields.Number(rec, "discountAmount"),
		AdjustmentAmount: pricingFields.Number(rec, "adjustmentAmount"),
		FinalPrice:       pricingFields.Number(rec, "finalPrice"),
		Currency:         optionalString(pricingFields.Pick(rec, "currency")),
		PriceListID:      optionalString(pricingFields.Pick(rec, "priceListId")),
	}
}

// NormalizeDosageRecommendation returns nil unless v is an object.
func NormalizeDosageRecommendation(v any) *DosageRecommendation {
	rec := normalize.AsRecord(v)
	if rec == nil {
		return nil
	}
	return &DosageRecommendation{
		RuleName:      optionalString(dosageFields.Pick(rec, "ruleName")),
		DosageAmount:  dosageFields.Number(rec, "dosageAmount"),
		DosageUnit:    optionalString(dosageFields.Pick(rec, "dosageUnit")),
		FrequencyCode: optionalString(dosageFields.Pick(rec, "frequencyCode")),
		TimesPerDay:   dosageFields.Number(rec, "timesPerDay"),
		DurationDays:  dosageFields.Number(rec, "durationDays"),
		MaxDailyDose:  dosageFields.Number(rec, "maxDailyDose"),
	}
}

// NormalizeDrugRuleEvaluation coerces a backend drug rule evaluation response.
func NormalizeDrugRuleEvaluation(v any) DrugRuleEvaluation {
	rec := normalize.Unwrap(v, responseEnvelopes...)

	list := drugRuleEvaluationFields.List(rec, "matchedRules")
	matched := make([]MatchedRule, 0, len(list))
	for _, elem := range list {
		matched = append(matched, NormalizeMatchedRule(elem))
	}

	return DrugRuleEvaluation{
		Eligible:        drugRuleEvaluationFields.Bool(rec, "eligible"),
		MatchedRules:    matched,
		MaxQuantity:     drugRuleEvaluationFields.Number(rec, "maxQuantity"),
		AdjustmentValue: drugRuleEvaluationFields.Number(rec, "adjustmentValue"),
		Reasons:         StringList(drugRuleEvaluationFields.Pick(rec, "reasons")),
		Warnings:        StringList(drugRuleEvaluationFields.Pick(rec, "warnings")),
	}
}

// NormalizeMatchedRule accepts a rule object or a bare rule description.
func NormalizeMatchedRule(v any) MatchedRule {
	rec := normalize.AsRecord(v)
	if rec == nil {
		return MatchedRule{Description: optionalString(v)}
	}
	return MatchedRule{
		RuleID:      optionalString(matchedRuleFields.Pick(rec, "ruleId")),
		Description: optionalString(matchedRuleFields.Pick(rec, "description")),
		Priority:    number(matchedRuleFields.Number(rec, "priority")),
		Eligible:    matchedRuleFields.Bool(rec, "eligible"),
	}
}

// factorMap stringifies an object's values; anything else is an empty map.
func factorMap(v any) map[string]string {
	rec := normalize.AsRecord(v)
	out := make(map[string]string, len(rec))
	for k, val := range rec {
		out[k] = normalize.Stringify(val)
	}
	return out
}

// NormalizeDecisionRequest coerces a client body into a DecisionRequest.
func NormalizeDecisionRequest(v any) DecisionRequest {
	rec := normalize.AsRecord(v)
	return DecisionRequest{
		DrugPackID:        normalize.WireID(requestFields.String(rec, "drugPackId")),
		PriceListID:       normalize.WireID(requestFields.String(rec, "priceListId")),
		RequestedQuantity: number(requestFields.Number(rec, "requestedQuantity")),
		Factors:           factorMap(requestFields.Pick(rec, "factors")),
		RequestedDate:     normalize.ParseDate(requestFields.Pick(rec, "requestedDate")),
	}
}

// NormalizeDrugRuleEvaluationRequest coerces a client body into a DrugRuleEvaluationRequest.
func NormalizeDrugRuleEvaluationRequest(v any) DrugRuleEvaluationRequest {
	rec := normalize.AsRecord(v)
	return DrugRuleEvaluationRequest{
		DrugPackID:        normalize.WireID(requestFields.String(rec, "drugPackId")),
		RequestedQuantity: number(requestFields.Number(rec, "requestedQuantity")),
		Factors:           factorMap(requestFields.Pick(rec, "factors")),
		RequestedDate:     normalize.ParseDate(requestFields.Pick(rec, "requestedDate")),
	}
}
