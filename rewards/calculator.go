/*
calculator.go - Tiered reward point rule

RULE:
  Points are earned progressively on the part of a purchase that falls
  inside each tier:

    amount ≤ 50          → 0
    50 < amount ≤ 100    → 1 point per unit above 50
    amount > 100         → 50 + 2 points per unit above 100

  i.e. points = 2*max(amount-100, 0) + max(min(amount, 100)-50, 0)

  Worked values: 50 → 0, 120 → 90, 150 → 150, 200 → 250.

SHAPE:
  The curve is piecewise linear, continuous at 50 and 100 and
  monotonic non-decreasing. Negative amounts are outside the contract;
  store records are assumed valid.

EXAMPLE:
  points := rewards.ComputePoints(decimal.NewFromInt(120)) // 90
*/
package rewards

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Calculator converts a purchase amount into reward points.
type Calculator interface {
	Points(amount decimal.Decimal) decimal.Decimal
}

// Tier earns Rate points per unit of amount above Threshold, up to the next
// tier's threshold.
type Tier struct {
	Threshold decimal.Decimal
	Rate      decimal.Decimal
}

// TieredRule is a progressive rule. Tiers are ordered by ascending threshold.
type TieredRule struct {
	Tiers []Tier
}

var _ Calculator = TieredRule{}

// DefaultRule is 1 point per unit between 50 and 100, 2 points per unit above 100.
var DefaultRule = TieredRule{
	Tiers: []Tier{
		{Threshold: decimal.NewFromInt(50), Rate: decimal.NewFromInt(1)},
		{Threshold: decimal.NewFromInt(100), Rate: decimal.NewFromInt(2)},
	},
}

// ComputePoints applies DefaultRule to amount.
func ComputePoints(amount decimal.Decimal) decimal.Decimal {
	return DefaultRule.Points(amount)
}

// Points returns the points earned for amount.
func (r TieredRule) Points(amount decimal.Decimal) decimal.Decimal {
	points := decimal.Zero
	for i, tier := range r.Tiers {
		upper := amount
		if i+1 < len(r.Tiers) {
			upper = decimal.Min(amount, r.Tiers[i+1].Threshold)
		}
		span := upper.Sub(tier.Threshold)
		if !span.IsPositive() {
			continue
		}
		points = points.Add(span.Mul(tier.Rate))
	}
	return points
}

// Validate checks that the rule has tiers, thresholds strictly ascend and
// no threshold or rate is negative.
func (r TieredRule) Validate() error {
	if len(r.Tiers) == 0 {
		return fmt.Errorf("%w: no tiers", ErrInvalidRule)
	}
	for i, tier := range r.Tiers {
		if tier.Threshold.IsNegative() {
			return fmt.Errorf("%w: tier %d has negative threshold %s", ErrInvalidRule, i, tier.Threshold)
		}
		if tier.Rate.IsNegative() {
			return fmt.Errorf("%w: tier %d has negative rate %s", ErrInvalidRule, i, tier.Rate)
		}
		if i > 0 && !tier.Threshold.GreaterThan(r.Tiers[i-1].Threshold) {
			return fmt.Errorf("%w: tier %d threshold %s does not ascend", ErrInvalidRule, i, tier.Threshold)
		}
	}
	return nil
}
