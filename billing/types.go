/*
Package billing provides the installment payment-plan engine.

PURPOSE:
  This package contains the domain types and algorithms for turning a
  registration's total amount due into a dated schedule of installments,
  recording payments against that schedule as an append-only transaction
  ledger, and reconciling the registration's aggregate payment status.

KEY CONCEPTS IN THIS FILE (types.go):
  - Installment: One scheduled, dated portion of the total amount owed
  - Transaction: An immutable ledger entry recording a monetary event
  - Registration: The external entity whose aggregate status we derive
  - Typed IDs: Prevent mixing installment/plan/registration identifiers

DESIGN PRINCIPLES:
  1. Immutability: Transactions are never modified or deleted
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Derivation: Installment and registration fields are always recomputed
     from their inputs, never patched incrementally
  4. Auditability: Every mutation carries an actor and timestamp

SEE ALSO:
  - plan.go: Payment plan and policy definitions
  - ledger.go: The only write path for monetary state
  - reconcile.go: Registration aggregate derivation
*/
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type RegistrationID string
type PlanID string
type InstallmentID string
type TransactionID string
type EventID string
type GroupID string

// =============================================================================
// MONEY HELPERS
// =============================================================================

// Round2 rounds a monetary value to 2 decimal places. Every value that
// crosses a mutation boundary goes through this.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// MustDecimal parses a decimal string, returning zero on failure.
// Intended for constants and test fixtures, not request input.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// INSTALLMENT - One scheduled portion of a registration's total
// =============================================================================

type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "pending"
	InstallmentPartial InstallmentStatus = "partial"
	InstallmentPaid    InstallmentStatus = "paid"
	InstallmentOverdue InstallmentStatus = "overdue"
	InstallmentWaived  InstallmentStatus = "waived"
)

// IsTerminal reports whether the status admits no further mutation of the
// amount owed. Paid and waived installments are settled.
func (s InstallmentStatus) IsTerminal() bool {
	return s == InstallmentPaid || s == InstallmentWaived
}

// Installment belongs to exactly one registration and one plan. It is
// created once at plan-assignment time; its due date is immutable
// thereafter. All amount fields except OriginalAmount are derived from the
// transaction ledger and rebuildable from it.
type Installment struct {
	ID             InstallmentID
	RegistrationID RegistrationID
	PlanID         PlanID
	Number         int // 1-based position in the schedule
	DueDate        time.Time

	OriginalAmount  decimal.Decimal
	PaidAmount      decimal.Decimal
	DiscountAmount  decimal.Decimal
	LateFeeAmount   decimal.Decimal
	RemainingAmount decimal.Decimal

	Status   InstallmentStatus
	PaidDate *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Recompute derives RemainingAmount from the other amount fields:
//
//	remaining = max(0, original + lateFee - paid - discount)
//
// This is the single composition rule used by every ledger operation.
// RemainingAmount is never set independently.
func (i *Installment) Recompute() {
	remaining := i.OriginalAmount.
		Add(i.LateFeeAmount).
		Sub(i.PaidAmount).
		Sub(i.DiscountAmount)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	i.RemainingAmount = Round2(remaining)
}

// BaseRemaining is the amount still owed excluding accrued late fees.
// Late-fee interest accrues on this base, not on prior fees.
func (i *Installment) BaseRemaining() decimal.Decimal {
	base := i.OriginalAmount.Sub(i.PaidAmount).Sub(i.DiscountAmount)
	if base.IsNegative() {
		return decimal.Zero
	}
	return Round2(base)
}

// IsPastDue reports whether the installment is unpaid past its due date.
func (i *Installment) IsPastDue(asOf time.Time) bool {
	return !i.Status.IsTerminal() && asOf.After(i.DueDate)
}

// =============================================================================
// TRANSACTION - Immutable, append-only ledger entry
// =============================================================================

type TransactionType string

const (
	TxPayment    TransactionType = "payment"    // Money received against an installment
	TxWaiver     TransactionType = "waiver"     // Discount reducing amount owed without payment
	TxAdjustment TransactionType = "adjustment" // Late fee or manual correction
)

type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodCard     PaymentMethod = "card"
	MethodTransfer PaymentMethod = "transfer"
	MethodGateway  PaymentMethod = "gateway"
	MethodManual   PaymentMethod = "manual"
)

// Transaction records one monetary or adjustment event against one
// installment. Transactions are the sole audit trail: installment and
// registration amount fields are derived and rebuildable from them.
type Transaction struct {
	ID             TransactionID
	InstallmentID  InstallmentID
	RegistrationID RegistrationID
	Type           TransactionType
	Amount         decimal.Decimal
	Method         PaymentMethod
	ExternalTxnID  string
	Notes          string
	IdempotencyKey string

	// Audit fields
	Actor     string
	Timestamp time.Time
}

// =============================================================================
// REGISTRATION - External entity mutated by this engine
// =============================================================================

type RegistrationPaymentStatus string

const (
	RegistrationPending RegistrationPaymentStatus = "pending"
	RegistrationPartial RegistrationPaymentStatus = "partial"
	RegistrationPaid    RegistrationPaymentStatus = "paid"
	RegistrationOverdue RegistrationPaymentStatus = "overdue"
)

// Registration is owned by the event-registration system; the engine only
// touches its payment aggregate. ParticipantEmail and EventName are
// denormalized here so reminder candidates can be produced without a
// round-trip to the event service.
type Registration struct {
	ID               RegistrationID
	EventID          EventID
	GroupID          GroupID // empty when the registration is not part of a group
	ParticipantEmail string
	EventName        string

	TotalAmount     decimal.Decimal
	AmountPaid      decimal.Decimal
	RemainingAmount decimal.Decimal
	PaymentStatus   RegistrationPaymentStatus

	RegisteredAt time.Time
	UpdatedAt    time.Time
}
