// Package evaluation holds the request and response contracts of the two
// backend evaluation endpoints: the combined drug decision (eligibility,
// pricing and dosage) and drug-rule-only evaluation.
//
// The console never evaluates rules itself. It builds requests, forwards
// them, and normalizes whatever comes back into these fixed shapes.
//
// Total normalization: every normalizer returns a value whose JSON encoding
// carries every field. Absent or malformed backend values become null, 0,
// false or an empty array; no key is ever dropped.
package evaluation

// DecisionRequest asks the backend for a combined drug decision.
type DecisionRequest struct {
	DrugPackID        any               `json:"drugPackId"`
	PriceListID       any               `json:"priceListId"`
	RequestedQuantity float64           `json:"requestedQuantity"`
	Factors           map[string]string `json:"factors"`
	RequestedDate     *string           `json:"requestedDate"`
}

// DrugRuleEvaluationRequest asks the backend to evaluate drug rules only.
type DrugRuleEvaluationRequest struct {
	DrugPackID        any               `json:"drugPackId"`
	RequestedQuantity float64           `json:"requestedQuantity"`
	Factors           map[string]string `json:"factors"`
	RequestedDate     *string           `json:"requestedDate"`
}

// PricingSummary is the priced outcome of a decision.
type PricingSummary struct {
	UnitPrice        *float64 `json:"unitPrice"`
	Quantity         *float64 `json:"quantity"`
	TotalPrice       *float64 `json:"totalPrice"`
	DiscountAmount   *float64 `json:"discountAmount"`
	AdjustmentAmount *float64 `json:"adjustmentAmount"`
	FinalPrice       *float64 `json:"finalPrice"`
	Currency         *string  `json:"currency"`
	PriceListID      *string  `json:"priceListId"`
}

// DosageRecommendation is the dosing outcome of a decision.
type DosageRecommendation struct {
	RuleName      *string  `json:"ruleName"`
	DosageAmount  *float64 `json:"dosageAmount"`
	DosageUnit    *string  `json:"dosageUnit"`
	FrequencyCode *string  `json:"frequencyCode"`
	TimesPerDay   *float64 `json:"timesPerDay"`
	DurationDays  *float64 `json:"durationDays"`
	MaxDailyDose  *float64 `json:"maxDailyDose"`
}

// Decision is the combined eligibility, pricing and dosage answer.
type Decision struct {
	Eligible      bool                  `json:"eligible"`
	Reasons       []string              `json:"reasons"`
	Pricing       *PricingSummary       `json:"pricing"`
	Dosage        *DosageRecommendation `json:"dosage"`
	Warnings      []string              `json:"warnings"`
	ClinicalNotes []string              `json:"clinicalNotes"`
}

// MatchedRule identifies one drug rule that fired during evaluation.
type MatchedRule struct {
	RuleID      *string `json:"ruleId"`
	Description *string `json:"description"`
	Priority    float64 `json:"priority"`
	Eligible    bool    `json:"eligible"`
}

// DrugRuleEvaluation is the drug-rule-only answer.
type DrugRuleEvaluation struct {
	Eligible        bool          `json:"eligible"`
	MatchedRules    []MatchedRule `json:"matchedRules"`
	MaxQuantity     *float64      `json:"maxQuantity"`
	AdjustmentValue *float64      `json:"adjustmentValue"`
	Reasons         []string      `json:"reasons"`
	Warnings        []string      `json:"warnings"`
}
