/*
reconcile.go - Registration aggregate reconciliation

PURPOSE:
  Derives a registration's aggregate payment status from its installments.
  The aggregate is recomputed wholesale from current installment state,
  never patched incrementally, so calling it twice with no intervening
  transactions yields identical output.

DERIVATION:
  totalPaid      = sum of installment.PaidAmount
  totalRemaining = sum of installment.RemainingAmount
  status:
    paid     totalPaid > 0 and totalRemaining = 0
             (all-waived registrations also resolve here via remaining = 0
              once any payment exists; fully-waived-no-payment stays pending
              by amountPaid but resolves paid through the override guard)
    pending  totalPaid = 0 and nothing remains outstanding past due
    partial  otherwise
    overdue  override when any installment is past due and unsettled,
             unless the registration already resolved to paid

SEE ALSO:
  - ledger.go: Calls the in-transaction reconcile after every mutation
*/
package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ReconciliationService recomputes registration aggregates. Idempotent;
// safe to call after every ledger mutation or on a periodic sweep with no
// new data.
type ReconciliationService struct {
	store TxStore
	log   *logrus.Logger
	clock func() time.Time
}

func NewReconciliationService(store TxStore, log *logrus.Logger) *ReconciliationService {
	return &ReconciliationService{store: store, log: log, clock: time.Now}
}

// WithClock overrides the service's time source.
func (r *ReconciliationService) WithClock(clock func() time.Time) *ReconciliationService {
	r.clock = clock
	return r
}

// UpdateRegistrationPaymentStatus reloads the registration's installments
// and rewrites the aggregate fields.
func (r *ReconciliationService) UpdateRegistrationPaymentStatus(ctx context.Context, regID RegistrationID) (*Registration, error) {
	now := r.clock()

	var updated *Registration
	err := r.store.WithTx(ctx, func(s Store) error {
		if err := reconcileRegistration(ctx, s, regID, now); err != nil {
			return err
		}
		reg, err := s.GetRegistration(ctx, regID)
		if err != nil {
			return err
		}
		updated = reg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// reconcileRegistration is the in-transaction aggregate recompute shared
// by the ledger and the service. It runs against the transaction-scoped
// store so the aggregate commits atomically with the mutation it follows.
func reconcileRegistration(ctx context.Context, s Store, regID RegistrationID, now time.Time) error {
	reg, err := s.GetRegistration(ctx, regID)
	if err != nil {
		return err
	}
	installments, err := s.ListInstallmentsByRegistration(ctx, regID)
	if err != nil {
		return err
	}

	totalPaid := decimal.Zero
	totalRemaining := decimal.Zero
	anyPastDue := false
	for i := range installments {
		inst := &installments[i]
		totalPaid = totalPaid.Add(inst.PaidAmount)
		totalRemaining = totalRemaining.Add(inst.RemainingAmount)
		if inst.IsPastDue(now) {
			anyPastDue = true
		}
	}

	status := derivePaymentStatus(totalPaid, totalRemaining, anyPastDue, len(installments))

	reg.AmountPaid = Round2(totalPaid)
	reg.RemainingAmount = Round2(totalRemaining)
	reg.PaymentStatus = status
	reg.UpdatedAt = now
	return s.UpdateRegistration(ctx, reg)
}

func derivePaymentStatus(totalPaid, totalRemaining decimal.Decimal, anyPastDue bool, installmentCount int) RegistrationPaymentStatus {
	resolved := totalRemaining.IsZero() && installmentCount > 0

	var status RegistrationPaymentStatus
	switch {
	case resolved && totalPaid.IsPositive():
		status = RegistrationPaid
	case resolved:
		// Everything waived without a cent paid still settles the registration.
		status = RegistrationPaid
	case totalPaid.IsZero():
		status = RegistrationPending
	default:
		status = RegistrationPartial
	}

	if anyPastDue && status != RegistrationPaid {
		status = RegistrationOverdue
	}
	return status
}

// =============================================================================
// OVERDUE SWEEP
// =============================================================================

// OverdueSweepResult summarizes one overdue-status sweep.
type OverdueSweepResult struct {
	Flagged       int
	Registrations int
}

// MarkOverdueSweep flips past-due pending/partial installments to overdue
// and reconciles every affected registration. Status is recomputed
// wholesale, so re-running at the same instant changes nothing.
func (r *ReconciliationService) MarkOverdueSweep(ctx context.Context, asOf time.Time, eventID *EventID) (OverdueSweepResult, error) {
	result := OverdueSweepResult{}

	overdue, err := r.store.ListInstallmentsOverdue(ctx, asOf, eventID)
	if err != nil {
		return result, err
	}

	regs := make(map[RegistrationID]bool)
	for i := range overdue {
		inst := overdue[i]
		regs[inst.RegistrationID] = true
		if inst.Status == InstallmentOverdue {
			continue
		}

		err := r.store.WithTx(ctx, func(s Store) error {
			current, err := s.GetInstallment(ctx, inst.ID)
			if err != nil {
				return err
			}
			if current.Status.IsTerminal() || current.Status == InstallmentOverdue {
				return nil
			}
			current.Status = InstallmentOverdue
			current.UpdatedAt = asOf
			return s.UpdateInstallment(ctx, current)
		})
		if err != nil {
			return result, err
		}
		result.Flagged++
	}

	for regID := range regs {
		err := r.store.WithTx(ctx, func(s Store) error {
			return reconcileRegistration(ctx, s, regID, asOf)
		})
		if err != nil {
			return result, err
		}
		result.Registrations++
	}

	if result.Flagged > 0 {
		r.log.WithFields(logrus.Fields{
			"flagged":       result.Flagged,
			"registrations": result.Registrations,
		}).Info("overdue sweep completed")
	}
	return result, nil
}
