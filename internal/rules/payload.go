// internal/rules/payload.go
package rules

import "github.com/solatis/tpaconsole/internal/types"

/*
 * Payload fragments for the external rules engine.
 *
 * Each builder is independent and side-effect free. Guard conditions are the
 * only validation: a draft that does not qualify simply produces no fragment.
 *
 * Routing asymmetry: percent discounts go to the discount block, amount
 * discounts become a FLAT_DISCOUNT adjustment. The engine applies flat
 * discounts through the adjustment pipeline, so the split must be kept.
 *
 * Nil means absent. Builders return nil rather than an empty block or slice,
 * and the encoded payload omits the key.
 */

// Pricing modes on the wire. POINT in the form becomes POINTS here.
const (
	WirePricingFixed  = "FIXED"
	WirePricingPoints = "POINTS"
)

// Adjustment types on the wire.
const (
	AdjustmentFlatDiscount = "FLAT_DISCOUNT"
	AdjustmentPercent      = "PERCENT_ADJUSTMENT"
	AdjustmentAmount       = "AMOUNT_ADJUSTMENT"
)

// GlobalFactorKey scopes an adjustment to every case of the rule.
const GlobalFactorKey = "GLOBAL"

// PricingBlock is either {mode: FIXED, fixedPrice} or {mode: POINTS, points, basePoints}.
type PricingBlock struct {
	Mode       string   `json:"mode"`
	FixedPrice *float64 `json:"fixedPrice,omitempty"`
	Points     *float64 `json:"points,omitempty"`
	BasePoints *float64 `json:"basePoints,omitempty"`
}

// DiscountLogicBlock is one percent discount entry.
type DiscountLogicBlock struct {
	Percent float64 `json:"percent"`
}

// DiscountBlock is the percent-only discount fragment.
type DiscountBlock struct {
	Apply       bool                 `json:"apply"`
	LogicBlocks []DiscountLogicBlock `json:"logicBlocks"`
}

// AdjustmentCases carries the default adjustment value and an optional cap.
type AdjustmentCases struct {
	Default float64  `json:"default"`
	Cap     *float64 `json:"cap,omitempty"`
}

// Adjustment is one entry of the adjustments fragment.
type Adjustment struct {
	Type      string          `json:"type"`
	FactorKey string          `json:"factorKey"`
	Percent   *float64        `json:"percent,omitempty"`
	Cases     AdjustmentCases `json:"cases"`
}

// CreatePricingPayload emits exactly one pricing shape for the draft's mode.
func CreatePricingPayload(d *types.RuleDraft) *PricingBlock {
	if d.PricingMode == types.PricingModePoint {
		points := d.Points
		basePoints := d.Points
		return &PricingBlock{
			Mode:       WirePricingPoints,
			Points:     &points,
			BasePoints: &basePoints,
		}
	}
	price := d.BasePrice
	return &PricingBlock{
		Mode:       WirePricingFixed,
		FixedPrice: &price,
	}
}

// CreateDiscountPayload returns a discount block for positive percent discounts only.
func CreateDiscountPayload(d *types.RuleDraft) *DiscountBlock {
	if d.DiscountType != types.DiscountPercent || !(d.DiscountValue > 0) {
		return nil
	}
	return &DiscountBlock{
		Apply:       true,
		LogicBlocks: []DiscountLogicBlock{{Percent: d.DiscountValue}},
	}
}

// CreateAdjustmentsPayload collects the flat discount and the price adjustment.
// Returns nil when neither applies.
func CreateAdjustmentsPayload(d *types.RuleDraft) []Adjustment {
	var adjustments []Adjustment

	if d.DiscountType == types.DiscountAmount && d.DiscountValue > 0 {
		cases := AdjustmentCases{Default: -d.DiscountValue}
		if d.DiscountCap != nil && *d.DiscountCap > 0 {
			capValue := *d.DiscountCap
			cases.Cap = &capValue
		}
		adjustments = append(adjustments, Adjustment{
			Type:      AdjustmentFlatDiscount,
			FactorKey: GlobalFactorKey,
			Cases:     cases,
		})
	}

	if d.AdjustmentDirection != types.AdjustmentNone && d.AdjustmentDirection != "" && d.AdjustmentValue > 0 {
		signed := d.AdjustmentValue
		if d.AdjustmentDirection == types.AdjustmentDecrease {
			signed = -signed
		}
		if d.AdjustmentUnit == types.AdjustmentUnitAmount {
			adjustments = append(adjustments, Adjustment{
				Type:      AdjustmentAmount,
				FactorKey: GlobalFactorKey,
				Cases:     AdjustmentCases{Default: signed},
			})
		} else {
			percent := signed
			adjustments = append(adjustments, Adjustment{
				Type:      AdjustmentPercent,
				FactorKey: GlobalFactorKey,
				Percent:   &percent,
				Cases:     AdjustmentCases{Default: signed},
			})
		}
	}

	if len(adjustments) == 0 {
		return nil
	}
	return adjustments
}
