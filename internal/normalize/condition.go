// internal/normalize/condition.go
package normalize

import (
	"fmt"
	"strings"

	"github.com/solatis/tpaconsole/internal/types"
)

// Condition is the app-side shape of a drug or dosage rule condition.
// Values are kept as text; empty string means not set.
type Condition struct {
	FactorCode string                  `json:"factorCode"`
	Operator   types.ConditionOperator `json:"operator"`
	ValueExact string                  `json:"valueExact"`
	ValueFrom  string                  `json:"valueFrom"`
	ValueTo    string                  `json:"valueTo"`
	Values     []string                `json:"values"`
}

// Frequency is one dosing frequency of a dosage rule.
type Frequency struct {
	FrequencyCode string   `json:"frequencyCode"`
	TimesPerDay   *float64 `json:"timesPerDay"`
	IntervalHours *float64 `json:"intervalHours"`
	DurationDays  *float64 `json:"durationDays"`
}

var conditionFields = Fields{
	"factorCode": {"factorCode", "factor", "factorKey", "code"},
	"operator":   {"operator", "op"},
	"valueExact": {"valueExact", "value", "exact_value"},
	"valueFrom":  {"valueFrom", "from", "value_from", "min"},
	"valueTo":    {"valueTo", "to", "value_to", "max"},
	"values":     {"values", "valueList", "value_list"},
}

var frequencyFields = Fields{
	"frequencyCode": {"frequencyCode", "frequency", "code"},
	"timesPerDay":   {"timesPerDay", "times_per_day"},
	"intervalHours": {"intervalHours", "interval_hours"},
	"durationDays":  {"durationDays", "duration_days"},
}

// NormalizeCondition maps a backend condition record to a Condition.
// Unknown operator text is kept upper-cased so the form can show it;
// ValidateCondition rejects it before submission.
func NormalizeCondition(v any) Condition {
	rec := AsRecord(v)
	op, _ := types.ParseConditionOperator(conditionFields.String(rec, "operator"))

	values := conditionValues(conditionFields.Pick(rec, "values"))
	return Condition{
		FactorCode: strings.TrimSpace(conditionFields.String(rec, "factorCode")),
		Operator:   op,
		ValueExact: conditionFields.String(rec, "valueExact"),
		ValueFrom:  conditionFields.String(rec, "valueFrom"),
		ValueTo:    conditionFields.String(rec, "valueTo"),
		Values:     values,
	}
}

// conditionValues accepts an array or a comma-separated string.
func conditionValues(v any) []string {
	values := []string{}
	switch x := v.(type) {
	case []any:
		for _, elem := range x {
			if s := strings.TrimSpace(Stringify(elem)); s != "" {
				values = append(values, s)
			}
		}
	case string:
		for _, part := range strings.Split(x, ",") {
			if s := strings.TrimSpace(part); s != "" {
				values = append(values, s)
			}
		}
	}
	return values
}

// NormalizeConditions maps a backend list; non-arrays yield an empty list.
func NormalizeConditions(v any) []Condition {
	list, _ := v.([]any)
	out := make([]Condition, 0, len(list))
	for _, elem := range list {
		out = append(out, NormalizeCondition(elem))
	}
	return out
}

// NormalizeFrequency maps a backend frequency record.
func NormalizeFrequency(v any) Frequency {
	rec := AsRecord(v)
	return Frequency{
		FrequencyCode: strings.TrimSpace(frequencyFields.String(rec, "frequencyCode")),
		TimesPerDay:   frequencyFields.Number(rec, "timesPerDay"),
		IntervalHours: frequencyFields.Number(rec, "intervalHours"),
		DurationDays:  frequencyFields.Number(rec, "durationDays"),
	}
}

// NormalizeFrequencies maps a backend list; non-arrays yield an empty list.
func NormalizeFrequencies(v any) []Frequency {
	list, _ := v.([]any)
	out := make([]Frequency, 0, len(list))
	for _, elem := range list {
		out = append(out, NormalizeFrequency(elem))
	}
	return out
}

// ConditionPayload is the wire shape of a condition. Empty optional values
// encode as explicit nulls; values is omitted when empty.
type ConditionPayload struct {
	FactorCode string   `json:"factorCode"`
	Operator   string   `json:"operator"`
	ValueExact *string  `json:"valueExact"`
	ValueFrom  *string  `json:"valueFrom"`
	ValueTo    *string  `json:"valueTo"`
	Values     []string `json:"values,omitempty"`
}

// FrequencyPayload is the wire shape of a frequency.
type FrequencyPayload struct {
	FrequencyCode *string  `json:"frequencyCode"`
	TimesPerDay   *float64 `json:"timesPerDay"`
	IntervalHours *float64 `json:"intervalHours"`
	DurationDays  *float64 `json:"durationDays"`
}

// BuildConditionPayload mirrors NormalizeCondition for submission.
func BuildConditionPayload(c Condition) ConditionPayload {
	op := c.Operator
	if op == "" {
		op = types.OperatorEquals
	}
	payload := ConditionPayload{
		FactorCode: strings.TrimSpace(c.FactorCode),
		Operator:   string(op),
		ValueExact: trimmedOrNil(c.ValueExact),
		ValueFrom:  trimmedOrNil(c.ValueFrom),
		ValueTo:    trimmedOrNil(c.ValueTo),
	}
	for _, v := range c.Values {
		if s := strings.TrimSpace(v); s != "" {
			payload.Values = append(payload.Values, s)
		}
	}
	return payload
}

// BuildFrequencyPayload mirrors NormalizeFrequency for submission.
func BuildFrequencyPayload(f Frequency) FrequencyPayload {
	return FrequencyPayload{
		FrequencyCode: trimmedOrNil(f.FrequencyCode),
		TimesPerDay:   f.TimesPerDay,
		IntervalHours: f.IntervalHours,
		DurationDays:  f.DurationDays,
	}
}

func buildConditionPayloads(conditions []Condition) []ConditionPayload {
	out := make([]ConditionPayload, 0, len(conditions))
	for _, c := range conditions {
		out = append(out, BuildConditionPayload(c))
	}
	return out
}

// ValidateCondition checks operator arity before a rule is submitted.
func ValidateCondition(c Condition) error {
	if strings.TrimSpace(c.FactorCode) == "" {
		return types.ErrMissingFactorCode
	}
	op, ok := types.ParseConditionOperator(string(c.Operator))
	if !ok {
		return types.ErrUnknownOperator
	}

	switch op {
	case types.OperatorBetween:
		if strings.TrimSpace(c.ValueFrom) == "" || strings.TrimSpace(c.ValueTo) == "" {
			return types.ErrMissingRange
		}
	case types.OperatorIn:
		payload := BuildConditionPayload(c)
		if len(payload.Values) == 0 {
			return types.ErrMissingValues
		}
		if len(payload.Values) > types.MaxConditionValues {
			return types.ErrTooManyConditionValues
		}
	default:
		if strings.TrimSpace(c.ValueExact) == "" {
			return types.ErrMissingExactValue
		}
	}
	return nil
}

// ValidateConditions returns the first invalid condition's error, or nil.
func ValidateConditions(conditions []Condition) error {
	for i, c := range conditions {
		if err := ValidateCondition(c); err != nil {
			return fmt.Errorf("conditions[%d]: %w", i, err)
		}
	}
	return nil
}
