package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventflow/payment-engine/billing"
)

// =============================================================================
// AMOUNT SPLITTING TESTS
// =============================================================================

func TestBuildSchedule_EvenSplit(t *testing.T) {
	// GIVEN: A 12-installment monthly plan and a 1200.00 registration
	// WHEN: Building the schedule
	// THEN: Twelve installments of 100.00 each

	plan := &billing.PaymentPlan{
		ID:               "plan-1",
		EventID:          "evt-1",
		Name:             "monthly",
		InstallmentCount: 12,
		Interval:         billing.IntervalMonthly,
		Status:           billing.PlanActive,
	}
	reg := &billing.Registration{
		ID:           "reg-1",
		TotalAmount:  dec("1200.00"),
		RegisteredAt: date(2026, time.January, 15),
	}

	installments, err := billing.BuildSchedule(plan, reg, date(2026, time.January, 15))
	require.NoError(t, err)
	require.Len(t, installments, 12)

	for i, inst := range installments {
		assert.True(t, inst.OriginalAmount.Equal(dec("100.00")),
			"installment %d: got %s", i+1, inst.OriginalAmount)
		assert.Equal(t, i+1, inst.Number)
		assert.Equal(t, billing.InstallmentPending, inst.Status)
		assert.True(t, inst.RemainingAmount.Equal(inst.OriginalAmount))
	}
}

func TestBuildSchedule_UnevenSplit_FirstAbsorbsRemainder(t *testing.T) {
	// GIVEN: 100.00 over 3 installments (not evenly divisible at 2 decimals)
	// WHEN: Building the schedule
	// THEN: 33.34 + 33.33 + 33.33, summing exactly to the total

	plan := &billing.PaymentPlan{
		ID:               "plan-1",
		EventID:          "evt-1",
		Name:             "thirds",
		InstallmentCount: 3,
		Interval:         billing.IntervalMonthly,
		Status:           billing.PlanActive,
	}
	reg := &billing.Registration{
		ID:           "reg-1",
		TotalAmount:  dec("100.00"),
		RegisteredAt: date(2026, time.March, 1),
	}

	installments, err := billing.BuildSchedule(plan, reg, date(2026, time.March, 1))
	require.NoError(t, err)
	require.Len(t, installments, 3)

	assert.True(t, installments[0].OriginalAmount.Equal(dec("33.34")))
	assert.True(t, installments[1].OriginalAmount.Equal(dec("33.33")))
	assert.True(t, installments[2].OriginalAmount.Equal(dec("33.33")))

	sum := installments[0].OriginalAmount.
		Add(installments[1].OriginalAmount).
		Add(installments[2].OriginalAmount)
	assert.True(t, sum.Equal(reg.TotalAmount), "sum %s != total %s", sum, reg.TotalAmount)
}

func TestBuildSchedule_TinyTotal_NoNegativeInstallments(t *testing.T) {
	// GIVEN: 0.10 over 12 installments
	// WHEN: Building the schedule
	// THEN: No installment is negative and the sum is exact

	plan := &billing.PaymentPlan{
		ID:               "plan-1",
		EventID:          "evt-1",
		Name:             "tiny",
		InstallmentCount: 12,
		Interval:         billing.IntervalMonthly,
		Status:           billing.PlanActive,
	}
	reg := &billing.Registration{
		ID:           "reg-1",
		TotalAmount:  dec("0.10"),
		RegisteredAt: date(2026, time.January, 1),
	}

	installments, err := billing.BuildSchedule(plan, reg, date(2026, time.January, 1))
	require.NoError(t, err)

	sum := dec("0")
	for i, inst := range installments {
		assert.False(t, inst.OriginalAmount.IsNegative(), "installment %d is negative", i+1)
		sum = sum.Add(inst.OriginalAmount)
	}
	assert.True(t, sum.Equal(reg.TotalAmount))
}

// =============================================================================
// DUE DATE TESTS
// =============================================================================

func TestBuildSchedule_MonthlyDueDates(t *testing.T) {
	// GIVEN: A monthly plan anchored at Jan 15
	// WHEN: Building the schedule
	// THEN: Due dates advance by calendar month from the anchor

	plan := &billing.PaymentPlan{
		ID:                   "plan-1",
		EventID:              "evt-1",
		Name:                 "monthly",
		InstallmentCount:     3,
		Interval:             billing.IntervalMonthly,
		FirstInstallmentDate: date(2026, time.January, 15),
		Status:               billing.PlanActive,
	}
	reg := &billing.Registration{ID: "reg-1", TotalAmount: dec("300.00")}

	installments, err := billing.BuildSchedule(plan, reg, date(2026, time.January, 1))
	require.NoError(t, err)

	assert.Equal(t, date(2026, time.January, 15), installments[0].DueDate)
	assert.Equal(t, date(2026, time.February, 15), installments[1].DueDate)
	assert.Equal(t, date(2026, time.March, 15), installments[2].DueDate)
}

func TestBuildSchedule_WeeklyDueDates(t *testing.T) {
	// GIVEN: A weekly plan anchored at the registration date
	// WHEN: Building the schedule
	// THEN: Due dates are 7 days apart

	plan := &billing.PaymentPlan{
		ID:               "plan-1",
		EventID:          "evt-1",
		Name:             "weekly",
		InstallmentCount: 4,
		Interval:         billing.IntervalWeekly,
		Status:           billing.PlanActive,
	}
	reg := &billing.Registration{
		ID:           "reg-1",
		TotalAmount:  dec("400.00"),
		RegisteredAt: date(2026, time.June, 1),
	}

	installments, err := billing.BuildSchedule(plan, reg, date(2026, time.June, 1))
	require.NoError(t, err)

	for i := 1; i < len(installments); i++ {
		gap := installments[i].DueDate.Sub(installments[i-1].DueDate)
		assert.Equal(t, 7*24*time.Hour, gap, "gap between %d and %d", i, i+1)
	}
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestBuildSchedule_RejectsInvalidCount(t *testing.T) {
	plan := &billing.PaymentPlan{
		ID:               "plan-1",
		EventID:          "evt-1",
		Name:             "bad",
		InstallmentCount: 0,
		Interval:         billing.IntervalMonthly,
		Status:           billing.PlanActive,
	}
	reg := &billing.Registration{ID: "reg-1", TotalAmount: dec("100.00")}

	_, err := billing.BuildSchedule(plan, reg, date(2026, time.January, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, billing.ErrInvalidInstallmentCount)
}

func TestBuildSchedule_RejectsNegativeTotal(t *testing.T) {
	plan := &billing.PaymentPlan{
		ID:               "plan-1",
		EventID:          "evt-1",
		Name:             "monthly",
		InstallmentCount: 2,
		Interval:         billing.IntervalMonthly,
		Status:           billing.PlanActive,
	}
	reg := &billing.Registration{ID: "reg-1", TotalAmount: dec("-5.00")}

	_, err := billing.BuildSchedule(plan, reg, date(2026, time.January, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, billing.ErrNegativeTotal)
}

// =============================================================================
// PLAN ASSIGNMENT TESTS
// =============================================================================

func TestAssignPlan_PersistsScheduleAndResetsAggregates(t *testing.T) {
	// GIVEN: A saved plan and registration
	// WHEN: Assigning the plan
	// THEN: Installments are persisted and the registration starts pending

	_, store := newTestLedger(t)
	reg, installments := assignSchedule(t, store, 6, "600.00")

	stored, err := store.ListInstallmentsByRegistration(context.Background(), reg.ID)
	require.NoError(t, err)
	require.Len(t, stored, 6)
	assert.Equal(t, installments[0].ID, stored[0].ID)

	fresh, err := store.GetRegistration(context.Background(), reg.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.RegistrationPending, fresh.PaymentStatus)
	assert.True(t, fresh.RemainingAmount.Equal(dec("600.00")))
}

func TestAssignPlan_RejectsSecondSchedule(t *testing.T) {
	// GIVEN: A registration that already has a schedule
	// WHEN: Assigning another plan
	// THEN: The assignment is rejected and no installments are added

	_, store := newTestLedger(t)
	reg, _ := assignSchedule(t, store, 3, "300.00")

	other := monthlyPlan(t, store, 2)
	_, err := billing.AssignPlan(context.Background(), store, other, reg, date(2026, time.February, 1))
	require.Error(t, err)

	stored, err := store.ListInstallmentsByRegistration(context.Background(), reg.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}
