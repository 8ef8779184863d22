/*
latefee.go - Late fee computation and delta application

PURPOSE:
  Pure computation of the accrued late fee for an overdue installment,
  plus the sweep that applies fees through the ledger. The computation is
  deterministic and idempotent for a fixed instant; the sweep applies only
  the DELTA between the freshly computed fee and the fee already recorded,
  so repeated runs at the same instant never double-charge.

FORMULA:
  overdueDays <= gracePeriodDays        -> 0
  otherwise:
    fee = fixedFee
        + baseRemaining x (interestRate/100) x ((overdueDays - grace)/30)
    capped at maxLateFee when set

  baseRemaining excludes previously accrued fees (original - paid -
  discount, floored at zero), so interest never compounds on fees.

SEE ALSO:
  - ledger.go: ApplyLateFee, the only mutation path
  - reconcile.go: Overdue status sweep for installments without a fee policy
*/
package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var thirty = decimal.NewFromInt(30)

// ComputeLateFee returns the total late fee accrued on the installment as
// of now. Returns zero within the grace period and for settled
// installments.
func ComputeLateFee(inst *Installment, policy *LateFeePolicy, now time.Time) decimal.Decimal {
	if policy == nil || inst.Status.IsTerminal() {
		return decimal.Zero
	}

	overdueDays := daysBetween(inst.DueDate, now)
	if overdueDays <= policy.GracePeriodDays {
		return decimal.Zero
	}

	chargeableDays := decimal.NewFromInt(int64(overdueDays - policy.GracePeriodDays))
	interest := inst.BaseRemaining().
		Mul(policy.InterestRate).
		Div(oneHundred).
		Mul(chargeableDays).
		Div(thirty)

	fee := policy.FixedFee.Add(interest)
	if policy.MaxLateFee != nil && fee.GreaterThan(*policy.MaxLateFee) {
		fee = *policy.MaxLateFee
	}
	return Round2(fee)
}

// daysBetween counts whole days from due to now, negative when now is
// before due.
func daysBetween(due, now time.Time) int {
	return int(now.Sub(due).Hours() / 24)
}

// =============================================================================
// LATE FEE SWEEP
// =============================================================================

// SweepResult summarizes one late-fee sweep run.
type SweepResult struct {
	Scanned int
	Charged int
	Total   decimal.Decimal
}

// LateFeeSweeper walks overdue installments and applies accrued fees
// through the ledger. Runs are synchronous and bounded by the number of
// overdue installments; invoke from an operator endpoint or a schedule.
type LateFeeSweeper struct {
	store  TxStore
	ledger *PaymentLedger
	log    *logrus.Logger
}

func NewLateFeeSweeper(store TxStore, ledger *PaymentLedger, log *logrus.Logger) *LateFeeSweeper {
	return &LateFeeSweeper{store: store, ledger: ledger, log: log}
}

// Run recomputes late fees for every overdue installment as of asOf,
// optionally scoped to one event, and applies only the positive delta over
// what is already recorded. Idempotent for a fixed asOf.
func (s *LateFeeSweeper) Run(ctx context.Context, asOf time.Time, eventID *EventID) (SweepResult, error) {
	result := SweepResult{Total: decimal.Zero}

	overdue, err := s.store.ListInstallmentsOverdue(ctx, asOf, eventID)
	if err != nil {
		return result, err
	}

	plans := make(map[PlanID]*PaymentPlan)
	for i := range overdue {
		inst := &overdue[i]
		result.Scanned++

		plan, ok := plans[inst.PlanID]
		if !ok {
			plan, err = s.store.GetPlan(ctx, inst.PlanID)
			if err != nil {
				return result, err
			}
			plans[inst.PlanID] = plan
		}
		if plan.LateFeePolicy == nil {
			continue
		}

		fee := ComputeLateFee(inst, plan.LateFeePolicy, asOf)
		delta := fee.Sub(inst.LateFeeAmount)
		if !delta.IsPositive() {
			continue
		}

		_, err := s.ledger.ApplyLateFee(ctx, LateFeeInput{
			InstallmentID: inst.ID,
			Amount:        delta,
			Notes:         "late fee sweep",
			Actor:         "system",
			Now:           asOf,
		})
		if err != nil {
			return result, err
		}

		result.Charged++
		result.Total = result.Total.Add(delta)
		s.log.WithFields(logrus.Fields{
			"installment": inst.ID,
			"delta":       delta.String(),
			"total_fee":   fee.String(),
		}).Info("late fee applied")
	}

	return result, nil
}
