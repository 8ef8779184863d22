package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventflow/payment-engine/billing"
)

func lateFeePolicy(grace int, fixed, rate string, max *string) *billing.LateFeePolicy {
	p := &billing.LateFeePolicy{
		GracePeriodDays: grace,
		FixedFee:        dec(fixed),
		InterestRate:    dec(rate),
	}
	if max != nil {
		m := dec(*max)
		p.MaxLateFee = &m
	}
	return p
}

func strPtr(s string) *string { return &s }

// =============================================================================
// FEE COMPUTATION TESTS
// =============================================================================

func TestComputeLateFee_WithinGracePeriod(t *testing.T) {
	// GIVEN: Grace period of 5 days, installment due June 1
	// WHEN: Computing the fee on June 6 (5 days late)
	// THEN: Zero

	inst := quoteInstallment("100.00", date(2026, time.June, 1))
	policy := lateFeePolicy(5, "10", "2", nil)

	fee := billing.ComputeLateFee(inst, policy, date(2026, time.June, 6))
	assert.True(t, fee.IsZero())
}

func TestComputeLateFee_FixedPlusInterest(t *testing.T) {
	// GIVEN: Grace 5 days, fixed 10.00, 2% per 30 days, 100.00 remaining
	// WHEN: Computing the fee 10 days past due
	// THEN: 10 + 100 x 0.02 x 5/30 = 10.33

	inst := quoteInstallment("100.00", date(2026, time.June, 1))
	policy := lateFeePolicy(5, "10", "2", nil)

	fee := billing.ComputeLateFee(inst, policy, date(2026, time.June, 11))
	assert.True(t, fee.Equal(dec("10.33")), "got %s", fee)
}

func TestComputeLateFee_CappedAtMax(t *testing.T) {
	// GIVEN: A 25.00 cap and a fee that would otherwise exceed it
	// WHEN: Computing a fee far past due
	// THEN: Exactly the cap

	inst := quoteInstallment("1000.00", date(2026, time.January, 1))
	policy := lateFeePolicy(0, "10", "5", strPtr("25.00"))

	fee := billing.ComputeLateFee(inst, policy, date(2026, time.June, 1))
	assert.True(t, fee.Equal(dec("25.00")), "got %s", fee)
}

func TestComputeLateFee_InterestOnBaseNotOnFees(t *testing.T) {
	// GIVEN: An installment already carrying a recorded late fee
	// WHEN: Recomputing the total accrued fee
	// THEN: Interest is charged on the unpaid base only, never on the fee

	inst := quoteInstallment("100.00", date(2026, time.June, 1))
	inst.LateFeeAmount = dec("10.33")
	inst.Recompute()

	policy := lateFeePolicy(5, "10", "2", nil)

	// 20 days past due: 10 + 100 x 0.02 x 15/30 = 11.00
	fee := billing.ComputeLateFee(inst, policy, date(2026, time.June, 21))
	assert.True(t, fee.Equal(dec("11.00")), "got %s", fee)
}

func TestComputeLateFee_SettledInstallmentAccruesNothing(t *testing.T) {
	inst := quoteInstallment("100.00", date(2026, time.June, 1))
	inst.Status = billing.InstallmentPaid

	policy := lateFeePolicy(0, "10", "2", nil)
	fee := billing.ComputeLateFee(inst, policy, date(2026, time.July, 1))
	assert.True(t, fee.IsZero())
}

func TestComputeLateFee_NilPolicy(t *testing.T) {
	inst := quoteInstallment("100.00", date(2026, time.June, 1))
	fee := billing.ComputeLateFee(inst, nil, date(2026, time.July, 1))
	assert.True(t, fee.IsZero())
}

// =============================================================================
// SWEEP TESTS
// =============================================================================

func newSweepFixture(t *testing.T) (*billing.LateFeeSweeper, *billing.PaymentLedger, billing.TxStore, []billing.Installment) {
	t.Helper()
	ledger, store := newTestLedger(t)

	plan := &billing.PaymentPlan{
		ID:               billing.PlanID("plan-" + billing.NewID()),
		EventID:          "evt-camp",
		Name:             "monthly with fees",
		InstallmentCount: 2,
		Interval:         billing.IntervalMonthly,
		LateFeePolicy:    lateFeePolicy(5, "10", "2", nil),
		Status:           billing.PlanActive,
	}
	require.NoError(t, store.SavePlan(context.Background(), plan))

	reg := newRegistration(t, store, "200.00")
	installments, err := billing.AssignPlan(context.Background(), store, plan, reg, date(2026, time.January, 15))
	require.NoError(t, err)

	sweeper := billing.NewLateFeeSweeper(store, ledger, testLogger())
	return sweeper, ledger, store, installments
}

func TestLateFeeSweep_ChargesOverdueOnly(t *testing.T) {
	// GIVEN: Installments due Jan 15 and Feb 15
	// WHEN: Sweeping on Jan 26 (first is 11 days late, second not due)
	// THEN: Only the first is charged

	sweeper, _, store, installments := newSweepFixture(t)
	ctx := context.Background()

	result, err := sweeper.Run(ctx, date(2026, time.January, 26), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Charged)

	first, err := store.GetInstallment(ctx, installments[0].ID)
	require.NoError(t, err)
	// 10 + 100 x 0.02 x 6/30 = 10.40
	assert.True(t, first.LateFeeAmount.Equal(dec("10.40")), "got %s", first.LateFeeAmount)
	assert.Equal(t, billing.InstallmentOverdue, first.Status)

	second, err := store.GetInstallment(ctx, installments[1].ID)
	require.NoError(t, err)
	assert.True(t, second.LateFeeAmount.IsZero())
}

func TestLateFeeSweep_RerunSameInstantIsNoOp(t *testing.T) {
	// GIVEN: A sweep already run at an instant
	// WHEN: Running again at the same instant
	// THEN: Nothing more is charged

	sweeper, _, store, installments := newSweepFixture(t)
	ctx := context.Background()
	asOf := date(2026, time.January, 26)

	_, err := sweeper.Run(ctx, asOf, nil)
	require.NoError(t, err)

	result, err := sweeper.Run(ctx, asOf, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Charged)

	first, err := store.GetInstallment(ctx, installments[0].ID)
	require.NoError(t, err)
	assert.True(t, first.LateFeeAmount.Equal(dec("10.40")))
}

func TestLateFeeSweep_LaterRunChargesOnlyDelta(t *testing.T) {
	// GIVEN: A sweep at day 11 past due recorded 10.40
	// WHEN: Sweeping again at day 20 past due (total accrued 11.00)
	// THEN: Only the 0.60 delta is charged

	sweeper, _, store, installments := newSweepFixture(t)
	ctx := context.Background()

	_, err := sweeper.Run(ctx, date(2026, time.January, 26), nil)
	require.NoError(t, err)

	result, err := sweeper.Run(ctx, date(2026, time.February, 4), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Charged)

	first, err := store.GetInstallment(ctx, installments[0].ID)
	require.NoError(t, err)
	// Total accrued at 20 days late: 10 + 100 x 0.02 x 15/30 = 11.00
	assert.True(t, first.LateFeeAmount.Equal(dec("11.00")), "got %s", first.LateFeeAmount)

	txs, err := store.ListTransactionsByInstallment(ctx, installments[0].ID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.True(t, txs[1].Amount.Equal(dec("0.60")), "delta tx got %s", txs[1].Amount)
}
