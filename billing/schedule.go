/*
schedule.go - Installment schedule calculation

PURPOSE:
  Computes due dates and per-installment amounts from a plan and a total.
  This is the only place installment amounts are derived from a total;
  everything downstream treats OriginalAmount as fixed.

ROUNDING RULE:
  amount = floor(total / n, 2 decimals) for every installment, with the
  leftover cents assigned to the FIRST installment. The sum of generated
  amounts therefore equals the total EXACTLY, not within a tolerance.
  Example: 100.00 / 3 -> [33.34, 33.33, 33.33].

DUE DATES:
  dueDate[i] = firstDate advanced by i interval-steps (7 days, 14 days, or
  one calendar month). Dates are strictly increasing.

SEE ALSO:
  - plan.go: Interval semantics, plan validation
  - ledger.go: Consumes the generated installments
*/
package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BuildSchedule generates the ordered installment schedule for a
// registration under the given plan. The plan's FirstInstallmentDate
// anchors the schedule; when unset, the registration date is used.
func BuildSchedule(plan *PaymentPlan, reg *Registration, now time.Time) ([]Installment, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if reg.TotalAmount.IsNegative() {
		return nil, &ValidationError{
			Field:   "total_amount",
			Message: fmt.Sprintf("got %s", reg.TotalAmount),
			Err:     ErrNegativeTotal,
		}
	}

	firstDate := plan.FirstInstallmentDate
	if firstDate.IsZero() {
		firstDate = reg.RegisteredAt
	}
	if firstDate.IsZero() {
		firstDate = now
	}

	amounts := splitAmount(reg.TotalAmount, plan.InstallmentCount)

	installments := make([]Installment, plan.InstallmentCount)
	for i := 0; i < plan.InstallmentCount; i++ {
		due, err := plan.Interval.Advance(firstDate, i)
		if err != nil {
			return nil, err
		}
		installments[i] = Installment{
			ID:              InstallmentID(NewID()),
			RegistrationID:  reg.ID,
			PlanID:          plan.ID,
			Number:          i + 1,
			DueDate:         due,
			OriginalAmount:  amounts[i],
			PaidAmount:      decimal.Zero,
			DiscountAmount:  decimal.Zero,
			LateFeeAmount:   decimal.Zero,
			RemainingAmount: amounts[i],
			Status:          InstallmentPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
	}
	return installments, nil
}

// splitAmount divides total across n installments. Each installment gets
// the total divided by n rounded DOWN to 2 decimals; the first installment
// absorbs the leftover cents so the sum is exact.
func splitAmount(total decimal.Decimal, n int) []decimal.Decimal {
	per := total.Div(decimal.NewFromInt(int64(n))).RoundDown(2)
	first := total.Sub(per.Mul(decimal.NewFromInt(int64(n - 1))))

	amounts := make([]decimal.Decimal, n)
	amounts[0] = Round2(first)
	for i := 1; i < n; i++ {
		amounts[i] = per
	}
	return amounts
}
