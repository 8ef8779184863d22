package billing_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/eventflow/payment-engine/billing"
	memstore "github.com/eventflow/payment-engine/billing/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestLedger(t *testing.T) (*billing.PaymentLedger, *memstore.Memory) {
	t.Helper()
	store := memstore.NewMemory()
	// Pinned clock keeps status derivation independent of the wall clock.
	ledger := billing.NewPaymentLedger(store, testLogger()).
		WithClock(func() time.Time { return date(2026, time.February, 1) })
	return ledger, store
}

func dec(s string) decimal.Decimal {
	return billing.MustDecimal(s)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// monthlyPlan returns a saved monthly plan with no policies attached.
func monthlyPlan(t *testing.T, store billing.Store, count int) *billing.PaymentPlan {
	t.Helper()
	plan := &billing.PaymentPlan{
		ID:               billing.PlanID("plan-" + billing.NewID()),
		EventID:          "evt-camp",
		Name:             "monthly",
		InstallmentCount: count,
		Interval:         billing.IntervalMonthly,
		Status:           billing.PlanActive,
		CreatedAt:        date(2026, time.January, 1),
		UpdatedAt:        date(2026, time.January, 1),
	}
	require.NoError(t, store.SavePlan(context.Background(), plan))
	return plan
}

// newRegistration returns a saved registration with the given total.
func newRegistration(t *testing.T, store billing.Store, total string) *billing.Registration {
	t.Helper()
	amount := dec(total)
	reg := &billing.Registration{
		ID:               billing.RegistrationID("reg-" + billing.NewID()),
		EventID:          "evt-camp",
		ParticipantEmail: "alex@example.com",
		EventName:        "Summer Camp",
		TotalAmount:      amount,
		AmountPaid:       decimal.Zero,
		RemainingAmount:  amount,
		PaymentStatus:    billing.RegistrationPending,
		RegisteredAt:     date(2026, time.January, 15),
		UpdatedAt:        date(2026, time.January, 15),
	}
	require.NoError(t, store.SaveRegistration(context.Background(), reg))
	return reg
}

// assignSchedule saves a plan and registration and generates the schedule.
func assignSchedule(t *testing.T, store billing.TxStore, count int, total string) (*billing.Registration, []billing.Installment) {
	t.Helper()
	plan := monthlyPlan(t, store, count)
	reg := newRegistration(t, store, total)

	installments, err := billing.AssignPlan(context.Background(), store, plan, reg, date(2026, time.January, 15))
	require.NoError(t, err)
	require.Len(t, installments, count)
	return reg, installments
}
