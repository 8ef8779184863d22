package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventflow/payment-engine/billing"
)

// registrationInGroup saves a registration tied to a group.
func registrationInGroup(t *testing.T, store billing.Store, group billing.GroupID, total string) *billing.Registration {
	t.Helper()
	reg := newRegistration(t, store, total)
	reg.GroupID = group
	require.NoError(t, store.UpdateRegistration(context.Background(), reg))
	return reg
}

// =============================================================================
// EVENT REPORT TESTS
// =============================================================================

func TestEventReport_EmptyEvent(t *testing.T) {
	_, store := newTestLedger(t)
	gen := billing.NewPaymentReportGenerator(store)

	report, err := gen.EventReport(context.Background(), "evt-empty")
	require.NoError(t, err)
	assert.True(t, report.TotalExpected.IsZero())
	assert.Equal(t, 0, report.PaidCount)
	assert.Equal(t, 0, report.PendingCount)
}

func TestEventReport_AggregatesAcrossRegistrations(t *testing.T) {
	// GIVEN: Two registrations, one fully paid, one half paid
	// WHEN: Building the event report
	// THEN: Totals and counts cover both schedules

	ledger, store := newTestLedger(t)
	ctx := context.Background()

	regA, _ := assignSchedule(t, store, 2, "200.00")
	_, err := ledger.RecordRegistrationPayment(ctx, regA.ID, billing.PaymentInput{
		Amount: dec("200.00"),
		Actor:  "organizer",
	})
	require.NoError(t, err)

	_, instB := assignSchedule(t, store, 2, "400.00")
	_, err = ledger.RecordPayment(ctx, billing.PaymentInput{
		InstallmentID: instB[0].ID,
		Amount:        dec("200.00"),
		Actor:         "organizer",
	})
	require.NoError(t, err)

	gen := billing.NewPaymentReportGenerator(store)
	report, err := gen.EventReport(ctx, "evt-camp")
	require.NoError(t, err)

	assert.True(t, report.TotalExpected.Equal(dec("600.00")), "expected %s", report.TotalExpected)
	assert.True(t, report.TotalPaid.Equal(dec("400.00")), "paid %s", report.TotalPaid)
	assert.True(t, report.TotalRemaining.Equal(dec("200.00")), "remaining %s", report.TotalRemaining)
	assert.Equal(t, 3, report.PaidCount)
	assert.Equal(t, 1, report.PendingCount)
	assert.Equal(t, 0, report.OverdueCount)
}

func TestEventReport_CountsOverdue(t *testing.T) {
	// GIVEN: An overdue installment carrying a late fee
	// WHEN: Building the report
	// THEN: Overdue amount includes the fee

	ledger, store := newTestLedger(t)
	recon := billing.NewReconciliationService(store, testLogger())
	ctx := context.Background()

	_, installments := assignSchedule(t, store, 2, "200.00")
	_, err := recon.MarkOverdueSweep(ctx, date(2026, time.February, 1), nil)
	require.NoError(t, err)
	_, err = ledger.ApplyLateFee(ctx, billing.LateFeeInput{
		InstallmentID: installments[0].ID,
		Amount:        dec("10.00"),
		Actor:         "system",
	})
	require.NoError(t, err)

	gen := billing.NewPaymentReportGenerator(store)
	report, err := gen.EventReport(ctx, "evt-camp")
	require.NoError(t, err)

	assert.Equal(t, 1, report.OverdueCount)
	assert.True(t, report.OverdueAmount.Equal(dec("110.00")), "overdue %s", report.OverdueAmount)
	assert.True(t, report.TotalRemaining.Equal(dec("210.00")))
}

// =============================================================================
// GROUP REPORT TESTS
// =============================================================================

func TestGroupReport_ScopedToGroup(t *testing.T) {
	// GIVEN: One grouped and one ungrouped registration
	// WHEN: Building the group report
	// THEN: Only the grouped registration's schedule is counted

	_, store := newTestLedger(t)
	ctx := context.Background()

	grouped := registrationInGroup(t, store, "grp-troop", "300.00")
	plan := monthlyPlan(t, store, 3)
	_, err := billing.AssignPlan(ctx, store, plan, grouped, date(2026, time.January, 15))
	require.NoError(t, err)

	assignSchedule(t, store, 2, "200.00") // ungrouped noise

	gen := billing.NewPaymentReportGenerator(store)
	report, err := gen.GroupReport(ctx, "grp-troop")
	require.NoError(t, err)

	assert.True(t, report.TotalExpected.Equal(dec("300.00")), "expected %s", report.TotalExpected)
	assert.Equal(t, 3, report.PendingCount)
}

// =============================================================================
// REMINDER SELECTION TESTS
// =============================================================================

func TestReminders_UpcomingDueWindow(t *testing.T) {
	// GIVEN: Installments due Jan 15, Feb 15, Mar 15
	// WHEN: Selecting reminders for the 7 days after Feb 10
	// THEN: Only the Feb 15 installment is a candidate

	_, store := newTestLedger(t)
	reg, _ := assignSchedule(t, store, 3, "300.00")

	sel := billing.NewReminderSelector(store)
	candidates, err := sel.UpcomingDue(context.Background(), date(2026, time.February, 10), 7)
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, reg.ID, candidates[0].RegistrationID)
	assert.Equal(t, 2, candidates[0].InstallmentNumber)
	assert.Equal(t, "alex@example.com", candidates[0].ParticipantEmail)
	assert.Equal(t, "Summer Camp", candidates[0].EventName)
}

func TestReminders_SettledInstallmentsExcluded(t *testing.T) {
	// GIVEN: The installment inside the window is already paid
	// WHEN: Selecting upcoming reminders
	// THEN: No candidates

	ledger, store := newTestLedger(t)
	_, installments := assignSchedule(t, store, 2, "200.00")

	_, err := ledger.RecordPayment(context.Background(), billing.PaymentInput{
		InstallmentID: installments[0].ID,
		Amount:        dec("100.00"),
		Actor:         "organizer",
	})
	require.NoError(t, err)

	sel := billing.NewReminderSelector(store)
	candidates, err := sel.UpcomingDue(context.Background(), date(2026, time.January, 10), 7)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestReminders_Overdue(t *testing.T) {
	_, store := newTestLedger(t)
	reg, _ := assignSchedule(t, store, 2, "200.00")

	sel := billing.NewReminderSelector(store)
	candidates, err := sel.Overdue(context.Background(), date(2026, time.February, 1), nil)
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, reg.ID, candidates[0].RegistrationID)
	assert.Equal(t, 1, candidates[0].InstallmentNumber)
	assert.True(t, candidates[0].Amount.Equal(dec("100.00")))

	other := billing.EventID("evt-other")
	scoped, err := sel.Overdue(context.Background(), date(2026, time.February, 1), &other)
	require.NoError(t, err)
	assert.Empty(t, scoped)
}
