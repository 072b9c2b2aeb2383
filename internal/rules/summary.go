// internal/rules/summary.go
package rules

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/solatis/tpaconsole/internal/types"
)

/*
 * Human-readable rule summaries.
 *
 * One line each, rendered under the rule form. Money goes through
 * shopspring/decimal so 0.1+0.2 style drift never reaches the screen;
 * currency amounts always show two places, percentages show as entered.
 *
 * Formats:
 *   discount:      "10% discount (cap 20.00 USD)", "15.00 USD discount"
 *   adjustment:    "+5% adjustment", "-10.00 USD adjustment"
 *   effectiveness: "Effective 2024-01-01 to 2024-12-31", "Always effective"
 */

// DefaultCurrency is used when no currency code is configured.
const DefaultCurrency = "USD"

var hundred = decimal.NewFromInt(100)

// FormatMoney renders an amount with two decimal places and the currency code.
func FormatMoney(amount decimal.Decimal, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	return amount.StringFixed(2) + " " + currency
}

// SummarizeDiscount describes the draft's discount.
func SummarizeDiscount(d *types.RuleDraft, currency string) string {
	if !(d.DiscountValue > 0) {
		return "No discount"
	}

	var line string
	switch d.DiscountType {
	case types.DiscountPercent:
		line = decimal.NewFromFloat(d.DiscountValue).String() + "% discount"
	case types.DiscountAmount:
		line = FormatMoney(decimal.NewFromFloat(d.DiscountValue), currency) + " discount"
	default:
		return "No discount"
	}

	if d.DiscountCap != nil && *d.DiscountCap > 0 {
		line += " (cap " + FormatMoney(decimal.NewFromFloat(*d.DiscountCap), currency) + ")"
	}
	return line
}

// SummarizeAdjustment describes the draft's price adjustment with an explicit sign.
func SummarizeAdjustment(d *types.RuleDraft, currency string) string {
	if d.AdjustmentDirection != types.AdjustmentIncrease && d.AdjustmentDirection != types.AdjustmentDecrease {
		return "No adjustment"
	}
	if !(d.AdjustmentValue > 0) {
		return "No adjustment"
	}

	sign := "+"
	if d.AdjustmentDirection == types.AdjustmentDecrease {
		sign = "-"
	}

	value := decimal.NewFromFloat(d.AdjustmentValue)
	if d.AdjustmentUnit == types.AdjustmentUnitAmount {
		return sign + FormatMoney(value, currency) + " adjustment"
	}
	return sign + value.String() + "% adjustment"
}

// SummarizeEffectiveness describes the effective date window.
func SummarizeEffectiveness(from, to string) string {
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	switch {
	case from != "" && to != "":
		return fmt.Sprintf("Effective %s to %s", from, to)
	case from != "":
		return "Effective from " + from
	case to != "":
		return "Effective until " + to
	default:
		return "Always effective"
	}
}

// PricingSummary is the price breakdown shown for procedure pricing drafts.
type PricingSummary struct {
	Currency   string          `json:"currency"`
	Base       decimal.Decimal `json:"base"`
	Discount   decimal.Decimal `json:"discount"`
	Adjustment decimal.Decimal `json:"adjustment"`
	Final      decimal.Decimal `json:"final"`
}

// String renders the breakdown as a single line.
func (s PricingSummary) String() string {
	adjSign := "+"
	adj := s.Adjustment
	if adj.IsNegative() {
		adjSign = "-"
		adj = adj.Neg()
	}
	return fmt.Sprintf("Base %s - discount %s %s adjustment %s = %s",
		FormatMoney(s.Base, s.Currency),
		FormatMoney(s.Discount, s.Currency),
		adjSign,
		FormatMoney(adj, s.Currency),
		FormatMoney(s.Final, s.Currency),
	)
}

// CalculatePricingSummary computes the expected price for a draft.
//
// Base is basePrice (FIXED) or points * pointValue (POINT). Percent
// discounts and percent adjustments apply to the base. A positive cap bounds
// the discount. The final price never drops below zero.
func CalculatePricingSummary(d *types.RuleDraft, currency string) PricingSummary {
	if currency == "" {
		currency = DefaultCurrency
	}

	base := decimal.NewFromFloat(d.BasePrice)
	if d.PricingMode == types.PricingModePoint {
		base = decimal.NewFromFloat(d.Points).Mul(decimal.NewFromFloat(d.PointValue))
	}

	discount := decimal.Zero
	if d.DiscountValue > 0 {
		switch d.DiscountType {
		case types.DiscountPercent:
			discount = base.Mul(decimal.NewFromFloat(d.DiscountValue)).Div(hundred)
		case types.DiscountAmount:
			discount = decimal.NewFromFloat(d.DiscountValue)
		}
		if d.DiscountCap != nil && *d.DiscountCap > 0 {
			discount = decimal.Min(discount, decimal.NewFromFloat(*d.DiscountCap))
		}
	}

	adjustment := decimal.Zero
	if d.AdjustmentValue > 0 && (d.AdjustmentDirection == types.AdjustmentIncrease || d.AdjustmentDirection == types.AdjustmentDecrease) {
		value := decimal.NewFromFloat(d.AdjustmentValue)
		if d.AdjustmentUnit == types.AdjustmentUnitAmount {
			adjustment = value
		} else {
			adjustment = base.Mul(value).Div(hundred)
		}
		if d.AdjustmentDirection == types.AdjustmentDecrease {
			adjustment = adjustment.Neg()
		}
	}

	final := base.Sub(discount).Add(adjustment)
	if final.IsNegative() {
		final = decimal.Zero
	}

	return PricingSummary{
		Currency:   currency,
		Base:       base.Round(2),
		Discount:   discount.Round(2),
		Adjustment: adjustment.Round(2),
		Final:      final.Round(2),
	}
}
