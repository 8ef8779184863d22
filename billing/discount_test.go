package billing_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/eventflow/payment-engine/billing"
)

func quoteInstallment(amount string, due time.Time) *billing.Installment {
	inst := &billing.Installment{
		ID:              "inst-1",
		RegistrationID:  "reg-1",
		PlanID:          "plan-1",
		Number:          1,
		DueDate:         due,
		OriginalAmount:  dec(amount),
		RemainingAmount: dec(amount),
		Status:          billing.InstallmentPending,
	}
	return inst
}

// =============================================================================
// SINGLE-BRANCH QUOTES
// =============================================================================

func TestComputeDiscount_CashOnly(t *testing.T) {
	// GIVEN: A 5% cash discount on a 200.00 installment
	// WHEN: Quoting
	// THEN: 10.00 total, all from the cash branch

	inst := quoteInstallment("200.00", date(2026, time.June, 1))
	policy := billing.DiscountPolicy{
		Cash: &billing.CashDiscount{Enabled: true, Percent: dec("5")},
	}

	quote := billing.ComputeDiscount(inst, policy, "", time.Time{})
	assert.True(t, quote.Cash.Equal(dec("10.00")))
	assert.True(t, quote.Group.IsZero())
	assert.True(t, quote.Early.IsZero())
	assert.True(t, quote.Total.Equal(dec("10.00")))
}

func TestComputeDiscount_GroupMatchesRegistrationGroup(t *testing.T) {
	// GIVEN: A 10% discount for group grp-a and none for grp-b
	// WHEN: Quoting for each group
	// THEN: Only grp-a members get the discount

	inst := quoteInstallment("100.00", date(2026, time.June, 1))
	policy := billing.DiscountPolicy{
		Groups: []billing.GroupDiscount{
			{GroupID: "grp-a", Enabled: true, Percent: dec("10")},
		},
	}

	aQuote := billing.ComputeDiscount(inst, policy, "grp-a", time.Time{})
	assert.True(t, aQuote.Group.Equal(dec("10.00")))

	bQuote := billing.ComputeDiscount(inst, policy, "grp-b", time.Time{})
	assert.True(t, bQuote.Total.IsZero())

	noGroup := billing.ComputeDiscount(inst, policy, "", time.Time{})
	assert.True(t, noGroup.Total.IsZero())
}

func TestComputeDiscount_DisabledBranchIgnored(t *testing.T) {
	inst := quoteInstallment("100.00", date(2026, time.June, 1))
	policy := billing.DiscountPolicy{
		Cash: &billing.CashDiscount{Enabled: false, Percent: dec("5")},
		Groups: []billing.GroupDiscount{
			{GroupID: "grp-a", Enabled: false, Percent: dec("10")},
		},
	}

	quote := billing.ComputeDiscount(inst, policy, "grp-a", time.Time{})
	assert.True(t, quote.Total.IsZero())
}

// =============================================================================
// EARLY PAYMENT QUOTES
// =============================================================================

func TestComputeDiscount_EarlyPayment(t *testing.T) {
	// GIVEN: 2% for paying at least 14 days before the due date of June 15
	// WHEN: Quoting payments on June 1 (14 days early) and June 2 (13 days)
	// THEN: June 1 qualifies, June 2 does not

	inst := quoteInstallment("100.00", date(2026, time.June, 15))
	policy := billing.DiscountPolicy{
		Early: &billing.EarlyPaymentDiscount{Enabled: true, DaysBefore: 14, Percent: dec("2")},
	}

	early := billing.ComputeDiscount(inst, policy, "", date(2026, time.June, 1))
	assert.True(t, early.Early.Equal(dec("2.00")))

	late := billing.ComputeDiscount(inst, policy, "", date(2026, time.June, 2))
	assert.True(t, late.Early.IsZero())
}

func TestComputeDiscount_EarlyRequiresPaymentInstant(t *testing.T) {
	// Previews without a payment date never include the early branch.
	inst := quoteInstallment("100.00", date(2026, time.June, 15))
	policy := billing.DiscountPolicy{
		Early: &billing.EarlyPaymentDiscount{Enabled: true, DaysBefore: 14, Percent: dec("2")},
	}

	quote := billing.ComputeDiscount(inst, policy, "", time.Time{})
	assert.True(t, quote.Early.IsZero())
}

// =============================================================================
// COMPOSITION
// =============================================================================

func TestComputeDiscount_BranchesAreAdditive(t *testing.T) {
	// GIVEN: Cash 5%, group 10%, early 2% all applicable on 100.00
	// WHEN: Quoting an early payment by a group member
	// THEN: Total is 17.00

	inst := quoteInstallment("100.00", date(2026, time.June, 15))
	policy := billing.DiscountPolicy{
		Cash:   &billing.CashDiscount{Enabled: true, Percent: dec("5")},
		Groups: []billing.GroupDiscount{{GroupID: "grp-a", Enabled: true, Percent: dec("10")}},
		Early:  &billing.EarlyPaymentDiscount{Enabled: true, DaysBefore: 14, Percent: dec("2")},
	}

	quote := billing.ComputeDiscount(inst, policy, "grp-a", date(2026, time.May, 1))
	assert.True(t, quote.Total.Equal(dec("17.00")), "got %s", quote.Total)
}

func TestComputeDiscount_RoundsToCents(t *testing.T) {
	// 3% of 33.33 is 0.9999, rounded to 1.00.
	inst := quoteInstallment("33.33", date(2026, time.June, 1))
	policy := billing.DiscountPolicy{
		Cash: &billing.CashDiscount{Enabled: true, Percent: dec("3")},
	}

	quote := billing.ComputeDiscount(inst, policy, "", time.Time{})
	assert.True(t, quote.Cash.Equal(decimal.RequireFromString("1.00")), "got %s", quote.Cash)
}
