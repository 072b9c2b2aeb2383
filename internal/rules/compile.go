// internal/rules/compile.go
package rules

import (
	"strings"

	"github.com/solatis/tpaconsole/internal/types"
)

/*
 * Rule draft compilation.
 *
 * Compiles types.RuleDraft to CompiledRulePayload, the body POSTed to the
 * rules engine's combination-rules endpoint.
 *
 * Compilation workflow:
 *   1. Copy identity fields (name, scope, status, priority)
 *   2. Null out blank effective dates
 *   3. Build pricing/discount/adjustment fragments (pricing scope only)
 *   4. Build EQUALS conditions from non-blank factor entries, in entry order
 *
 * Conditions are emitted as a flat list and the rules engine treats the list
 * as a conjunction. Nothing in the payload says so; grouping would need an
 * engine contract change.
 *
 * Compilation has no error path. Invalid values (negative discounts, unknown
 * enum strings) fall through the fragment guards and produce no fragment.
 * Validate reports those separately for the form.
 */

// OperatorEquals is the only operator combination rules use.
const OperatorEquals = "EQUALS"

// Condition is one factor equality test in a compiled rule.
type Condition struct {
	Factor   string `json:"factor"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// CompiledRulePayload is the wire body for a combination rule.
type CompiledRulePayload struct {
	Name          string         `json:"name"`
	Scope         types.Scope    `json:"scope"`
	Status        types.Status   `json:"status"`
	Priority      int            `json:"priority"`
	EffectiveFrom *string        `json:"effectiveFrom"`
	EffectiveTo   *string        `json:"effectiveTo"`
	Pricing       *PricingBlock  `json:"pricing,omitempty"`
	Discount      *DiscountBlock `json:"discount,omitempty"`
	Adjustments   []Adjustment   `json:"adjustments,omitempty"`
	Conditions    []Condition    `json:"conditions"`
}

// BuildConditions maps factor entries to EQUALS conditions in entry order.
func BuildConditions(lookup FactorLookup, entries types.FactorEntries) []Condition {
	conditions := make([]Condition, 0, len(entries))
	for _, entry := range entries {
		conditions = append(conditions, Condition{
			Factor:   entry.Key,
			Operator: OperatorEquals,
			Value:    ParseFactorValue(lookup, entry.Key, entry.Value),
		})
	}
	return conditions
}

// Compile transforms a draft into its rules-engine payload.
// The draft is not modified.
func Compile(lookup FactorLookup, d *types.RuleDraft) CompiledRulePayload {
	payload := CompiledRulePayload{
		Name:          strings.TrimSpace(d.Name),
		Scope:         d.Scope,
		Status:        d.Status,
		Priority:      d.Priority,
		EffectiveFrom: optionalDate(d.EffectiveFrom),
		EffectiveTo:   optionalDate(d.EffectiveTo),
	}

	if d.Scope == types.ScopeProcedurePricing {
		payload.Pricing = CreatePricingPayload(d)
		payload.Discount = CreateDiscountPayload(d)
		payload.Adjustments = CreateAdjustmentsPayload(d)
	}

	payload.Conditions = BuildConditions(lookup, selectedFactors(d.Factors))
	return payload
}

// selectedFactors drops entries the form left blank.
func selectedFactors(entries types.FactorEntries) types.FactorEntries {
	selected := make(types.FactorEntries, 0, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry.Key) == "" || strings.TrimSpace(entry.Value) == "" {
			continue
		}
		selected = append(selected, entry)
	}
	return selected
}

func optionalDate(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
