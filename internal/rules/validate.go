// internal/rules/validate.go
package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/solatis/tpaconsole/internal/types"
)

// Issue is one form-level problem with a draft.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

const dateLayout = "2006-01-02"

// Validate reports draft problems the form should highlight.
// Compile never consults it; a draft with issues still compiles.
func Validate(lookup FactorLookup, d *types.RuleDraft) []Issue {
	var issues []Issue

	if strings.TrimSpace(d.Name) == "" {
		issues = append(issues, Issue{Field: "name", Message: "name is required"})
	}

	if d.DiscountValue < 0 {
		issues = append(issues, Issue{Field: "discountValue", Message: "discount must not be negative"})
	}
	if d.DiscountType == types.DiscountPercent && d.DiscountValue > 100 {
		issues = append(issues, Issue{Field: "discountValue", Message: "percent discount must not exceed 100"})
	}
	if d.AdjustmentValue < 0 {
		issues = append(issues, Issue{Field: "adjustmentValue", Message: "adjustment must not be negative"})
	}

	from, fromErr := parseDay(d.EffectiveFrom)
	if fromErr != nil {
		issues = append(issues, Issue{Field: "effectiveFrom", Message: fromErr.Error()})
	}
	to, toErr := parseDay(d.EffectiveTo)
	if toErr != nil {
		issues = append(issues, Issue{Field: "effectiveTo", Message: toErr.Error()})
	}
	if fromErr == nil && toErr == nil && !from.IsZero() && !to.IsZero() && to.Before(from) {
		issues = append(issues, Issue{Field: "effectiveTo", Message: "effective-to is before effective-from"})
	}

	if lookup != nil {
		for _, entry := range d.Factors {
			value := strings.TrimSpace(entry.Value)
			if value == "" {
				continue
			}
			def, ok := lookup.Lookup(entry.Key)
			if !ok {
				continue
			}
			if !def.Allows(value) {
				issues = append(issues, Issue{
					Field:   "factors." + entry.Key,
					Message: fmt.Sprintf("%q is not an allowed value for %s", value, def.Name),
				})
			}
			if def.DataType == types.DataTypeNumber {
				if _, ok := types.ParseNumber(value); !ok {
					issues = append(issues, Issue{
						Field:   "factors." + entry.Key,
						Message: fmt.Sprintf("%s expects a number", def.Name),
					})
				}
			}
		}
	}

	return issues
}

// parseDay parses YYYY-MM-DD; blank is the zero time.
func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a YYYY-MM-DD date", s)
	}
	return t, nil
}
