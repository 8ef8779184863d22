/*
ledger.go - The payment ledger: the only write path for monetary state

PURPOSE:
  Mutates installment and transaction state for payments, discounts, and
  late fees. Every operation is one atomic unit: validate, mutate the
  installment, append the transaction, recompute the registration
  aggregate. A partial failure rolls the whole unit back.

CRITICAL INVARIANTS:
  1. Transactions are append-only: never deleted, never mutated
  2. Every mutation carries an actor and timestamp
  3. All monetary values are rounded to 2 decimals
  4. RemainingAmount is always recomputed, never set independently
  5. Duplicate idempotency keys are rejected (gateway callback replays)

STATE MACHINE (status is recomputed wholesale, not transitioned):
  pending  -> partial   partial payment
  pending/partial -> paid    payment clears the remainder (sets PaidDate)
  pending/partial -> waived  discount clears the remainder
  pending/partial -> overdue due-date or late-fee sweep
  overdue  -> paid/waived    via the same recompute path; there is no
                             distinct "un-overdue" transition

SEE ALSO:
  - reconcile.go: Registration aggregate recompute (runs inside the unit)
  - latefee.go:   Sweep that drives ApplyLateFee with deltas
*/
package billing

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// IdempotencyTTL bounds how long a processed external event id blocks
// replays. Gateway retry windows are minutes; 48h is generous.
const IdempotencyTTL = 48 * time.Hour

// PaymentLedger is the sole mutation path for installments and
// transactions.
type PaymentLedger struct {
	store TxStore
	log   *logrus.Logger
	clock func() time.Time
}

func NewPaymentLedger(store TxStore, log *logrus.Logger) *PaymentLedger {
	return &PaymentLedger{store: store, log: log, clock: time.Now}
}

// WithClock overrides the ledger's time source. For tests and sweeps that
// must evaluate "now" at a fixed instant.
func (l *PaymentLedger) WithClock(clock func() time.Time) *PaymentLedger {
	l.clock = clock
	return l
}

// =============================================================================
// INPUTS
// =============================================================================

// PaymentInput describes one payment against one installment, from manual
// organizer confirmation or a gateway callback.
type PaymentInput struct {
	InstallmentID  InstallmentID
	Amount         decimal.Decimal
	Method         PaymentMethod
	ExternalTxnID  string
	Notes          string
	Actor          string
	IdempotencyKey string // external event id; empty for manual entries
	Now            time.Time
}

// DiscountInput describes a discount (waiver) applied to an installment.
type DiscountInput struct {
	InstallmentID InstallmentID
	Amount        decimal.Decimal
	Notes         string
	Actor         string
	Now           time.Time
}

// LateFeeInput describes a late-fee adjustment on an installment.
type LateFeeInput struct {
	InstallmentID InstallmentID
	Amount        decimal.Decimal
	Notes         string
	Actor         string
	Now           time.Time
}

func (l *PaymentLedger) at(t time.Time) time.Time {
	if t.IsZero() {
		return l.clock()
	}
	return t
}

// =============================================================================
// RECORD PAYMENT
// =============================================================================

// RecordPayment applies a payment to an installment: PaidAmount grows by
// the amount, RemainingAmount is recomputed, status becomes paid (with
// PaidDate) when nothing remains, else partial. A payment transaction is
// appended and the owning registration is reconciled, all in one atomic
// unit. Rejects non-positive amounts and unknown installments.
func (l *PaymentLedger) RecordPayment(ctx context.Context, in PaymentInput) (*Installment, error) {
	if err := validateAmount(in.Amount); err != nil {
		return nil, err
	}
	now := l.at(in.Now)

	var updated *Installment
	err := l.store.WithTx(ctx, func(s Store) error {
		if in.IdempotencyKey != "" {
			if err := s.ReserveIdempotencyKey(ctx, in.IdempotencyKey, now.Add(IdempotencyTTL)); err != nil {
				return err
			}
		}

		inst, err := s.GetInstallment(ctx, in.InstallmentID)
		if err != nil {
			return err
		}
		if inst.Status.IsTerminal() {
			return ErrInstallmentSettled
		}

		inst.PaidAmount = Round2(inst.PaidAmount.Add(in.Amount))
		inst.Recompute()
		if inst.RemainingAmount.IsZero() {
			inst.Status = InstallmentPaid
			paidAt := now
			inst.PaidDate = &paidAt
		} else {
			inst.Status = InstallmentPartial
		}
		inst.UpdatedAt = now

		if err := s.UpdateInstallment(ctx, inst); err != nil {
			return err
		}
		if err := s.AppendTransaction(ctx, &Transaction{
			ID:             TransactionID(NewID()),
			InstallmentID:  inst.ID,
			RegistrationID: inst.RegistrationID,
			Type:           TxPayment,
			Amount:         Round2(in.Amount),
			Method:         in.Method,
			ExternalTxnID:  in.ExternalTxnID,
			Notes:          in.Notes,
			IdempotencyKey: in.IdempotencyKey,
			Actor:          in.Actor,
			Timestamp:      now,
		}); err != nil {
			return err
		}

		updated = inst
		return reconcileRegistration(ctx, s, inst.RegistrationID, now)
	})
	if err != nil {
		return nil, err
	}

	l.log.WithFields(logrus.Fields{
		"installment": updated.ID,
		"amount":      in.Amount.String(),
		"status":      updated.Status,
		"actor":       in.Actor,
	}).Info("payment recorded")
	return updated, nil
}

// =============================================================================
// APPLY DISCOUNT
// =============================================================================

// ApplyDiscount applies a discount to an installment: DiscountAmount grows
// by the amount, RemainingAmount is recomputed, and the installment is
// waived when the discount clears the remainder without a matching
// payment. A waiver transaction is appended.
func (l *PaymentLedger) ApplyDiscount(ctx context.Context, in DiscountInput) (*Installment, error) {
	if err := validateAmount(in.Amount); err != nil {
		return nil, err
	}
	now := l.at(in.Now)

	var updated *Installment
	err := l.store.WithTx(ctx, func(s Store) error {
		inst, err := s.GetInstallment(ctx, in.InstallmentID)
		if err != nil {
			return err
		}
		if inst.Status.IsTerminal() {
			return ErrInstallmentSettled
		}

		inst.DiscountAmount = Round2(inst.DiscountAmount.Add(in.Amount))
		inst.Recompute()
		if inst.RemainingAmount.IsZero() {
			// Cleared by discount, not payment: waived, not paid.
			inst.Status = InstallmentWaived
		} else if inst.PaidAmount.IsPositive() {
			inst.Status = InstallmentPartial
		}
		inst.UpdatedAt = now

		if err := s.UpdateInstallment(ctx, inst); err != nil {
			return err
		}
		if err := s.AppendTransaction(ctx, &Transaction{
			ID:             TransactionID(NewID()),
			InstallmentID:  inst.ID,
			RegistrationID: inst.RegistrationID,
			Type:           TxWaiver,
			Amount:         Round2(in.Amount),
			Notes:          in.Notes,
			Actor:          in.Actor,
			Timestamp:      now,
		}); err != nil {
			return err
		}

		updated = inst
		return reconcileRegistration(ctx, s, inst.RegistrationID, now)
	})
	if err != nil {
		return nil, err
	}

	l.log.WithFields(logrus.Fields{
		"installment": updated.ID,
		"amount":      in.Amount.String(),
		"status":      updated.Status,
		"actor":       in.Actor,
	}).Info("discount applied")
	return updated, nil
}

// =============================================================================
// APPLY LATE FEE
// =============================================================================

// ApplyLateFee charges a late fee: LateFeeAmount grows by the amount,
// RemainingAmount is recomputed (the fee raises what is owed, prior
// discounts still count), status is forced to overdue, and an adjustment
// transaction is appended. Callers supply the DELTA over the recorded fee;
// see LateFeeSweeper.
func (l *PaymentLedger) ApplyLateFee(ctx context.Context, in LateFeeInput) (*Installment, error) {
	if err := validateAmount(in.Amount); err != nil {
		return nil, err
	}
	now := l.at(in.Now)

	var updated *Installment
	err := l.store.WithTx(ctx, func(s Store) error {
		inst, err := s.GetInstallment(ctx, in.InstallmentID)
		if err != nil {
			return err
		}
		if inst.Status.IsTerminal() {
			return ErrInstallmentSettled
		}

		inst.LateFeeAmount = Round2(inst.LateFeeAmount.Add(in.Amount))
		inst.Recompute()
		inst.Status = InstallmentOverdue
		inst.UpdatedAt = now

		if err := s.UpdateInstallment(ctx, inst); err != nil {
			return err
		}
		if err := s.AppendTransaction(ctx, &Transaction{
			ID:             TransactionID(NewID()),
			InstallmentID:  inst.ID,
			RegistrationID: inst.RegistrationID,
			Type:           TxAdjustment,
			Amount:         Round2(in.Amount),
			Notes:          in.Notes,
			Actor:          in.Actor,
			Timestamp:      now,
		}); err != nil {
			return err
		}

		updated = inst
		return reconcileRegistration(ctx, s, inst.RegistrationID, now)
	})
	if err != nil {
		return nil, err
	}

	l.log.WithFields(logrus.Fields{
		"installment": updated.ID,
		"amount":      in.Amount.String(),
		"actor":       in.Actor,
	}).Info("late fee applied")
	return updated, nil
}

// =============================================================================
// REGISTRATION-LEVEL PAYMENT (gateway callbacks without an installment id)
// =============================================================================

// RecordRegistrationPayment allocates a payment across a registration's
// open installments, oldest due date first. Each installment absorbs up to
// its remaining amount; any residual after the last open installment is
// recorded against it as an overpayment. The whole allocation is one
// atomic unit with a single idempotency key.
func (l *PaymentLedger) RecordRegistrationPayment(ctx context.Context, regID RegistrationID, in PaymentInput) ([]Installment, error) {
	if err := validateAmount(in.Amount); err != nil {
		return nil, err
	}
	now := l.at(in.Now)

	var touched []Installment
	err := l.store.WithTx(ctx, func(s Store) error {
		if in.IdempotencyKey != "" {
			if err := s.ReserveIdempotencyKey(ctx, in.IdempotencyKey, now.Add(IdempotencyTTL)); err != nil {
				return err
			}
		}

		installments, err := s.ListInstallmentsByRegistration(ctx, regID)
		if err != nil {
			return err
		}
		var open []*Installment
		for i := range installments {
			if !installments[i].Status.IsTerminal() {
				open = append(open, &installments[i])
			}
		}
		if len(open) == 0 {
			return &NotFoundError{Kind: "installment", ID: string(regID), Err: ErrInstallmentNotFound}
		}

		remaining := Round2(in.Amount)
		for idx, inst := range open {
			if !remaining.IsPositive() {
				break
			}
			portion := decimal.Min(remaining, inst.RemainingAmount)
			if idx == len(open)-1 {
				// Last open installment absorbs any residual.
				portion = remaining
			}
			if !portion.IsPositive() {
				continue
			}

			if err := applyPaymentLocked(ctx, s, inst, portion, in, now); err != nil {
				return err
			}
			touched = append(touched, *inst)
			remaining = remaining.Sub(portion)
		}

		return reconcileRegistration(ctx, s, regID, now)
	})
	if err != nil {
		return nil, err
	}

	l.log.WithFields(logrus.Fields{
		"registration": regID,
		"amount":       in.Amount.String(),
		"installments": len(touched),
	}).Info("registration payment allocated")
	return touched, nil
}

// applyPaymentLocked mutates one installment for a payment portion inside
// an open storage transaction. Shared by the allocation path.
func applyPaymentLocked(ctx context.Context, s Store, inst *Installment, amount decimal.Decimal, in PaymentInput, now time.Time) error {
	inst.PaidAmount = Round2(inst.PaidAmount.Add(amount))
	inst.Recompute()
	if inst.RemainingAmount.IsZero() {
		inst.Status = InstallmentPaid
		paidAt := now
		inst.PaidDate = &paidAt
	} else {
		inst.Status = InstallmentPartial
	}
	inst.UpdatedAt = now

	if err := s.UpdateInstallment(ctx, inst); err != nil {
		return err
	}
	return s.AppendTransaction(ctx, &Transaction{
		ID:             TransactionID(NewID()),
		InstallmentID:  inst.ID,
		RegistrationID: inst.RegistrationID,
		Type:           TxPayment,
		Amount:         Round2(amount),
		Method:         in.Method,
		ExternalTxnID:  in.ExternalTxnID,
		Notes:          in.Notes,
		Actor:          in.Actor,
		Timestamp:      now,
	})
}

// =============================================================================
// REBUILD - Consistency check against the transaction log
// =============================================================================

// RebuildInstallment recomputes an installment's derived amount fields by
// replaying its transaction log and compares them to the stored values.
// Returns a ConsistencyError naming the first diverging field. Read-only:
// it reports, it does not repair.
func (l *PaymentLedger) RebuildInstallment(ctx context.Context, id InstallmentID) (*Installment, error) {
	inst, err := l.store.GetInstallment(ctx, id)
	if err != nil {
		return nil, err
	}
	txs, err := l.store.ListTransactionsByInstallment(ctx, id)
	if err != nil {
		return nil, err
	}

	derived := *inst
	derived.PaidAmount = decimal.Zero
	derived.DiscountAmount = decimal.Zero
	derived.LateFeeAmount = decimal.Zero
	for _, tx := range txs {
		switch tx.Type {
		case TxPayment:
			derived.PaidAmount = derived.PaidAmount.Add(tx.Amount)
		case TxWaiver:
			derived.DiscountAmount = derived.DiscountAmount.Add(tx.Amount)
		case TxAdjustment:
			derived.LateFeeAmount = derived.LateFeeAmount.Add(tx.Amount)
		}
	}
	derived.PaidAmount = Round2(derived.PaidAmount)
	derived.DiscountAmount = Round2(derived.DiscountAmount)
	derived.LateFeeAmount = Round2(derived.LateFeeAmount)
	derived.Recompute()

	for _, cmp := range []struct {
		field           string
		stored, derived decimal.Decimal
	}{
		{"paid_amount", inst.PaidAmount, derived.PaidAmount},
		{"discount_amount", inst.DiscountAmount, derived.DiscountAmount},
		{"late_fee_amount", inst.LateFeeAmount, derived.LateFeeAmount},
		{"remaining_amount", inst.RemainingAmount, derived.RemainingAmount},
	} {
		if !cmp.stored.Equal(cmp.derived) {
			return nil, &ConsistencyError{
				InstallmentID: id,
				Field:         cmp.field,
				Stored:        cmp.stored.String(),
				Derived:       cmp.derived.String(),
			}
		}
	}
	return &derived, nil
}

// =============================================================================
// VALIDATION
// =============================================================================

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return &ValidationError{
			Field:   "amount",
			Message: "must be greater than zero, got " + amount.String(),
			Err:     ErrNonPositiveAmount,
		}
	}
	return nil
}

// IsSettled reports whether err indicates a terminal installment.
func IsSettled(err error) bool { return errors.Is(err, ErrInstallmentSettled) }
