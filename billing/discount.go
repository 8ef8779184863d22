/*
discount.go - Discount computation

PURPOSE:
  Pure computation of the discount amount to apply to an installment under
  a plan's discount policy. The result is only ever APPLIED through the
  ledger (ApplyDiscount), which records the mutation as a waiver
  transaction; this file never mutates state.

COMPOSITION:
  Enabled discounts are additive, not mutually exclusive:

    discount = original x cash%
             + original x group%   (registration's group, if enabled)
             + original x early%   (payment lands >= DaysBefore before due)

  The early-payment component only participates when a payment instant is
  supplied; sweeps and previews without a payment date skip it.
*/
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// DiscountQuote breaks down a computed discount by component.
type DiscountQuote struct {
	Cash  decimal.Decimal
	Group decimal.Decimal
	Early decimal.Decimal
	Total decimal.Decimal
}

// ComputeDiscount quotes the discount for an installment under the given
// policy. groupID is the registration's group (empty for none). paidAt is
// the instant of the payment being quoted; pass the zero time to exclude
// the early-payment component.
func ComputeDiscount(inst *Installment, policy DiscountPolicy, groupID GroupID, paidAt time.Time) DiscountQuote {
	quote := DiscountQuote{
		Cash:  decimal.Zero,
		Group: decimal.Zero,
		Early: decimal.Zero,
	}

	if policy.Cash != nil && policy.Cash.Enabled {
		quote.Cash = pctOf(inst.OriginalAmount, policy.Cash.Percent)
	}

	if pct := policy.GroupPercent(groupID); pct.IsPositive() {
		quote.Group = pctOf(inst.OriginalAmount, pct)
	}

	if policy.Early != nil && policy.Early.Enabled && !paidAt.IsZero() {
		threshold := inst.DueDate.AddDate(0, 0, -policy.Early.DaysBefore)
		if !paidAt.After(threshold) {
			quote.Early = pctOf(inst.OriginalAmount, policy.Early.Percent)
		}
	}

	quote.Total = Round2(quote.Cash.Add(quote.Group).Add(quote.Early))
	return quote
}

func pctOf(amount, percent decimal.Decimal) decimal.Decimal {
	return Round2(amount.Mul(percent).Div(oneHundred))
}
