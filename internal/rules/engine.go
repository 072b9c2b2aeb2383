package rules

import "github.com/solatis/tpaconsole/internal/types"

// Compiler binds a factor lookup and display currency for the service layer.
// Stateless beyond its configuration; safe for concurrent use.
type Compiler struct {
	lookup   FactorLookup
	currency string
}

// NewCompiler creates a compiler over lookup. Empty currency means DefaultCurrency.
func NewCompiler(lookup FactorLookup, currency string) *Compiler {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Compiler{lookup: lookup, currency: currency}
}

// Summary groups the one-line descriptions shown beside a compiled rule.
type Summary struct {
	Discount      string          `json:"discount"`
	Adjustment    string          `json:"adjustment"`
	Effectiveness string          `json:"effectiveness"`
	Pricing       *PricingSummary `json:"pricing,omitempty"`
	PricingLine   string          `json:"pricingLine,omitempty"`
}

// Result is a compiled draft with its summaries and form issues.
type Result struct {
	Payload CompiledRulePayload `json:"payload"`
	Summary Summary             `json:"summary"`
	Issues  []Issue             `json:"issues"`
}

// Currency returns the configured display currency.
func (c *Compiler) Currency() string {
	return c.currency
}

// Compile compiles d without summaries.
func (c *Compiler) Compile(d *types.RuleDraft) CompiledRulePayload {
	return Compile(c.lookup, d)
}

// Run compiles d and attaches summaries and validation issues.
func (c *Compiler) Run(d *types.RuleDraft) Result {
	summary := Summary{
		Discount:      SummarizeDiscount(d, c.currency),
		Adjustment:    SummarizeAdjustment(d, c.currency),
		Effectiveness: SummarizeEffectiveness(d.EffectiveFrom, d.EffectiveTo),
	}
	if d.Scope == types.ScopeProcedurePricing {
		pricing := CalculatePricingSummary(d, c.currency)
		summary.Pricing = &pricing
		summary.PricingLine = pricing.String()
	}

	issues := Validate(c.lookup, d)
	if issues == nil {
		issues = []Issue{}
	}

	return Result{
		Payload: Compile(c.lookup, d),
		Summary: summary,
		Issues:  issues,
	}
}
