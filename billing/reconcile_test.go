package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventflow/payment-engine/billing"
)

func newReconFixture(t *testing.T) (*billing.ReconciliationService, *billing.PaymentLedger, billing.TxStore) {
	t.Helper()
	ledger, store := newTestLedger(t)
	// Before the first due date, so reconciliation alone never sees past-due.
	recon := billing.NewReconciliationService(store, testLogger()).
		WithClock(func() time.Time { return date(2026, time.January, 10) })
	return recon, ledger, store
}

// =============================================================================
// STATUS DERIVATION TESTS
// =============================================================================

func TestReconcile_PendingWithoutPayments(t *testing.T) {
	recon, _, store := newReconFixture(t)
	reg, _ := assignSchedule(t, store, 3, "300.00")

	fresh, err := recon.UpdateRegistrationPaymentStatus(context.Background(), reg.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.RegistrationPending, fresh.PaymentStatus)
	assert.True(t, fresh.AmountPaid.IsZero())
	assert.True(t, fresh.RemainingAmount.Equal(dec("300.00")))
}

func TestReconcile_PartialAfterOnePayment(t *testing.T) {
	recon, ledger, store := newReconFixture(t)
	reg, installments := assignSchedule(t, store, 3, "300.00")
	ctx := context.Background()

	_, err := ledger.RecordPayment(ctx, billing.PaymentInput{
		InstallmentID: installments[0].ID,
		Amount:        dec("100.00"),
		Actor:         "organizer",
	})
	require.NoError(t, err)

	fresh, err := recon.UpdateRegistrationPaymentStatus(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.RegistrationPartial, fresh.PaymentStatus)
	assert.True(t, fresh.AmountPaid.Equal(dec("100.00")))
	assert.True(t, fresh.RemainingAmount.Equal(dec("200.00")))
}

func TestReconcile_PaidWhenAllSettled(t *testing.T) {
	// GIVEN: Two installments, one paid and one waived
	// WHEN: Reconciling
	// THEN: The registration resolves to paid

	recon, ledger, store := newReconFixture(t)
	reg, installments := assignSchedule(t, store, 2, "200.00")
	ctx := context.Background()

	_, err := ledger.RecordPayment(ctx, billing.PaymentInput{
		InstallmentID: installments[0].ID,
		Amount:        dec("100.00"),
		Actor:         "organizer",
	})
	require.NoError(t, err)
	_, err = ledger.ApplyDiscount(ctx, billing.DiscountInput{
		InstallmentID: installments[1].ID,
		Amount:        dec("100.00"),
		Actor:         "organizer",
	})
	require.NoError(t, err)

	fresh, err := recon.UpdateRegistrationPaymentStatus(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.RegistrationPaid, fresh.PaymentStatus)
	assert.True(t, fresh.RemainingAmount.IsZero())
}

func TestReconcile_AllWaivedResolvesToPaid(t *testing.T) {
	recon, ledger, store := newReconFixture(t)
	reg, installments := assignSchedule(t, store, 2, "200.00")
	ctx := context.Background()

	for _, inst := range installments {
		_, err := ledger.ApplyDiscount(ctx, billing.DiscountInput{
			InstallmentID: inst.ID,
			Amount:        dec("100.00"),
			Actor:         "organizer",
		})
		require.NoError(t, err)
	}

	fresh, err := recon.UpdateRegistrationPaymentStatus(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.RegistrationPaid, fresh.PaymentStatus)
}

func TestReconcile_OverdueOverridesPartial(t *testing.T) {
	// GIVEN: A partially paid schedule with one installment past due
	// WHEN: Reconciling after flagging overdue installments
	// THEN: The registration reads overdue, not partial

	recon, ledger, store := newReconFixture(t)
	reg, installments := assignSchedule(t, store, 2, "200.00")
	ctx := context.Background()

	_, err := ledger.RecordPayment(ctx, billing.PaymentInput{
		InstallmentID: installments[1].ID,
		Amount:        dec("40.00"),
		Actor:         "organizer",
	})
	require.NoError(t, err)

	// First installment due Jan 15; sweep well past that.
	_, err = recon.MarkOverdueSweep(ctx, date(2026, time.March, 1), nil)
	require.NoError(t, err)

	fresh, err := store.GetRegistration(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.RegistrationOverdue, fresh.PaymentStatus)
}

// =============================================================================
// IDEMPOTENCE
// =============================================================================

func TestReconcile_Idempotent(t *testing.T) {
	// Re-running reconciliation without new events changes nothing.
	recon, ledger, store := newReconFixture(t)
	reg, installments := assignSchedule(t, store, 2, "200.00")
	ctx := context.Background()

	_, err := ledger.RecordPayment(ctx, billing.PaymentInput{
		InstallmentID: installments[0].ID,
		Amount:        dec("60.00"),
		Actor:         "organizer",
	})
	require.NoError(t, err)

	first, err := recon.UpdateRegistrationPaymentStatus(ctx, reg.ID)
	require.NoError(t, err)
	second, err := recon.UpdateRegistrationPaymentStatus(ctx, reg.ID)
	require.NoError(t, err)

	assert.Equal(t, first.PaymentStatus, second.PaymentStatus)
	assert.True(t, first.AmountPaid.Equal(second.AmountPaid))
	assert.True(t, first.RemainingAmount.Equal(second.RemainingAmount))
}

// =============================================================================
// OVERDUE SWEEP
// =============================================================================

func TestMarkOverdueSweep_FlagsPastDueOnly(t *testing.T) {
	// GIVEN: Installments due Jan 15 and Feb 15
	// WHEN: Sweeping on Feb 1
	// THEN: Only the first is flagged

	recon, _, store := newReconFixture(t)
	_, installments := assignSchedule(t, store, 2, "200.00")
	ctx := context.Background()

	result, err := recon.MarkOverdueSweep(ctx, date(2026, time.February, 1), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Flagged)
	assert.Equal(t, 1, result.Registrations)

	first, err := store.GetInstallment(ctx, installments[0].ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InstallmentOverdue, first.Status)

	second, err := store.GetInstallment(ctx, installments[1].ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InstallmentPending, second.Status)
}

func TestMarkOverdueSweep_RerunFlagsNothing(t *testing.T) {
	recon, _, store := newReconFixture(t)
	assignSchedule(t, store, 2, "200.00")

	ctx := context.Background()
	asOf := date(2026, time.March, 1)

	_, err := recon.MarkOverdueSweep(ctx, asOf, nil)
	require.NoError(t, err)

	result, err := recon.MarkOverdueSweep(ctx, asOf, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Flagged)
}

func TestMarkOverdueSweep_PaidInstallmentsUntouched(t *testing.T) {
	// GIVEN: A paid installment with a past due date
	// WHEN: Sweeping
	// THEN: Paid stays paid

	recon, ledger, store := newReconFixture(t)
	_, installments := assignSchedule(t, store, 1, "100.00")
	ctx := context.Background()

	_, err := ledger.RecordPayment(ctx, billing.PaymentInput{
		InstallmentID: installments[0].ID,
		Amount:        dec("100.00"),
		Actor:         "organizer",
	})
	require.NoError(t, err)

	result, err := recon.MarkOverdueSweep(ctx, date(2026, time.June, 1), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Flagged)

	inst, err := store.GetInstallment(ctx, installments[0].ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InstallmentPaid, inst.Status)
}
