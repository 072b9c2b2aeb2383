package evaluation

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("json.Unmarshal(%s) error = %v", s, err)
	}
	return v
}

// missingKeys reports struct JSON tags absent from v's encoding.
func missingKeys(v any) []string {
	data, err := json.Marshal(v)
	if err != nil {
		return []string{"<marshal error: " + err.Error() + ">"}
	}
	var wire map[string]any
	if err := json.Unmarshal(data, &wire); err != nil {
		return []string{"<not an object>"}
	}

	var missing []string
	typ := reflect.TypeOf(v)
	for i := 0; i < typ.NumField(); i++ {
		tag := strings.Split(typ.Field(i).Tag.Get("json"), ",")[0]
		if _, ok := wire[tag]; !ok {
			missing = append(missing, tag)
		}
	}
	return missing
}

// nilSlices reports slice fields left nil; they would encode as null instead of [].
func nilSlices(v any) []string {
	var out []string
	val := reflect.ValueOf(v)
	for i := 0; i < val.NumField(); i++ {
		f := val.Field(i)
		if (f.Kind() == reflect.Slice || f.Kind() == reflect.Map) && f.IsNil() {
			out = append(out, val.Type().Field(i).Name)
		}
	}
	return out
}

func TestTotalNormalization_EmptyObject(t *testing.T) {
	empty := map[string]any{}
	values := []any{
		NormalizeDecision(empty),
		NormalizeDrugRuleEvaluation(empty),
		NormalizeDecisionRequest(empty),
		NormalizeDrugRuleEvaluationRequest(empty),
		NormalizeMatchedRule(empty),
		*NormalizePricingSummary(empty),
		*NormalizeDosageRecommendation(empty),
	}
	for _, v := range values {
		name := reflect.TypeOf(v).Name()
		if m := missingKeys(v); len(m) > 0 {
			t.Errorf("%s missing keys %v", name, m)
		}
		if n := nilSlices(v); len(n) > 0 {
			t.Errorf("%s has nil collections %v", name, n)
		}
	}
}

func TestNormalizeDecision(t *testing.T) {
	d := NormalizeDecision(decode(t, `{
	  "data": {
	    "isEligible": "yes",
	    "reasons": ["covered", 42, null],
	    "pricing": {"unit_price": "12.5", "quantity": 2, "finalPrice": 20, "currency": "SAR"},
	    "dosageRecommendation": {"amount": 500, "unit": "mg", "frequency": "BID"},
	    "warnings": "not-a-list",
	    "clinical_notes": [{"k": "v"}]
	  }
	}`))

	if !d.Eligible {
		t.Errorf("Eligible = false, want truthy string to be true")
	}
	if want := []string{"covered", "42", ""}; !reflect.DeepEqual(d.Reasons, want) {
		t.Errorf("Reasons = %q, want %q", d.Reasons, want)
	}
	if d.Pricing == nil || *d.Pricing.UnitPrice != 12.5 || *d.Pricing.FinalPrice != 20 || *d.Pricing.Currency != "SAR" {
		t.Errorf("Pricing = %+v", d.Pricing)
	}
	if d.Pricing.DiscountAmount != nil {
		t.Errorf("absent discount must be null")
	}
	if d.Dosage == nil || *d.Dosage.DosageAmount != 500 || *d.Dosage.FrequencyCode != "BID" {
		t.Errorf("Dosage = %+v", d.Dosage)
	}
	if d.Warnings == nil || len(d.Warnings) != 0 {
		t.Errorf("Warnings = %v, want empty list for non-array", d.Warnings)
	}
	if len(d.ClinicalNotes) != 1 || d.ClinicalNotes[0] != `{"k":"v"}` {
		t.Errorf("ClinicalNotes = %q", d.ClinicalNotes)
	}
}

func TestNormalizeDecision_NullBlocks(t *testing.T) {
	d := NormalizeDecision(decode(t, `{"eligible":0,"pricing":"n/a"}`))
	if d.Eligible || d.Pricing != nil || d.Dosage != nil {
		t.Errorf("NormalizeDecision() = %+v", d)
	}
	data, _ := json.Marshal(d)
	if !strings.Contains(string(data), `"pricing":null`) || !strings.Contains(string(data), `"dosage":null`) {
		t.Errorf("encoding = %s, want explicit null blocks", data)
	}
}

func TestNormalizeDrugRuleEvaluation(t *testing.T) {
	e := NormalizeDrugRuleEvaluation(decode(t, `{
	  "eligible": true,
	  "matchedRules": [{"id": 3, "ruleName": "Adults", "priority": "1", "isEligible": true}, "legacy rule"],
	  "max_quantity": "30",
	  "adjustmentValue": "bad"
	}`))

	if !e.Eligible || len(e.MatchedRules) != 2 {
		t.Fatalf("NormalizeDrugRuleEvaluation() = %+v", e)
	}
	first := e.MatchedRules[0]
	if *first.RuleID != "3" || *first.Description != "Adults" || first.Priority != 1 || !first.Eligible {
		t.Errorf("MatchedRules[0] = %+v", first)
	}
	if second := e.MatchedRules[1]; second.RuleID != nil || *second.Description != "legacy rule" {
		t.Errorf("MatchedRules[1] = %+v", second)
	}
	if e.MaxQuantity == nil || *e.MaxQuantity != 30 {
		t.Errorf("MaxQuantity = %v", e.MaxQuantity)
	}
	if e.AdjustmentValue != nil {
		t.Errorf("unparseable adjustment must be null, got %v", *e.AdjustmentValue)
	}
}

func TestNormalizeDecisionRequest(t *testing.T) {
	r := NormalizeDecisionRequest(decode(t, `{
	  "drugPackId": "904", "priceListId": "PL-7", "quantity": "3",
	  "factors": {"patient_age": 45, "gender": "M"},
	  "requestedDate": "2024-06-01T08:00:00Z"
	}`))
	if r.DrugPackID != int64(904) || r.PriceListID != "PL-7" || r.RequestedQuantity != 3 {
		t.Errorf("ids/quantity = %#v %#v %v", r.DrugPackID, r.PriceListID, r.RequestedQuantity)
	}
	if r.Factors["patient_age"] != "45" || r.Factors["gender"] != "M" {
		t.Errorf("Factors = %v", r.Factors)
	}
	if r.RequestedDate == nil || *r.RequestedDate != "2024-06-01" {
		t.Errorf("RequestedDate = %v", r.RequestedDate)
	}
}

// Property-based test: normalizers are total for any single-field record
func TestTotalNormalization_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	keys := []string{"eligible", "reasons", "pricing", "dosage", "warnings", "clinicalNotes", "matchedRules", "maxQuantity", "factors", "data"}

	properties.Property("every field is present after normalization", prop.ForAll(
		func(keyIdx, kind int, s string, f float64) bool {
			var value any
			switch kind {
			case 0:
				value = s
			case 1:
				value = f
			case 2:
				value = []any{s}
			case 3:
				value = map[string]any{"x": s}
			default:
				value = nil
			}
			rec := map[string]any{keys[keyIdx]: value}

			for _, v := range []any{
				NormalizeDecision(rec),
				NormalizeDrugRuleEvaluation(rec),
				NormalizeDecisionRequest(rec),
				NormalizeDrugRuleEvaluationRequest(rec),
			} {
				if len(missingKeys(v)) > 0 || len(nilSlices(v)) > 0 {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, len(keys)-1),
		gen.IntRange(0, 4),
		gen.AnyString(),
		gen.Float64Range(-1e9, 1e9),
	))

	properties.TestingRun(t)
}
