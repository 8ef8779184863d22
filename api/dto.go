/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Plans:
    PlanDTO (wraps factory.PlanJSON), CreatePlanRequest

  Registrations:
    RegistrationDTO, CreateRegistrationRequest, AssignPlanRequest

  Payments:
    RecordPaymentRequest, GatewayCallbackRequest, ApplyDiscountRequest

  Installments / transactions:
    InstallmentDTO, TransactionDTO, DiscountQuoteDTO

  Admin:
    SweepRequest, LateFeeSweepDTO, OverdueSweepDTO

VALIDATION:
  Request structs carry validate tags; handlers run them through a shared
  validator instance before touching domain logic.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/policy.go: PlanJSON type
*/
package api

import (
	"time"

	"github.com/eventflow/payment-engine/billing"
	"github.com/eventflow/payment-engine/factory"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// PlanDTO represents a payment plan in API responses.
type PlanDTO struct {
	ID        string           `json:"id"`
	EventID   string           `json:"event_id"`
	Name      string           `json:"name"`
	Status    string           `json:"status"`
	Config    factory.PlanJSON `json:"config"`
	CreatedAt string           `json:"created_at,omitempty"`
}

// CreatePlanRequest is the request to create a payment plan.
type CreatePlanRequest struct {
	Config factory.PlanJSON `json:"config"`
}

// RegistrationDTO represents a registration in API responses.
type RegistrationDTO struct {
	ID               string `json:"id"`
	EventID          string `json:"event_id"`
	GroupID          string `json:"group_id,omitempty"`
	ParticipantEmail string `json:"participant_email"`
	EventName        string `json:"event_name"`
	TotalAmount      string `json:"total_amount"`
	AmountPaid       string `json:"amount_paid"`
	RemainingAmount  string `json:"remaining_amount"`
	PaymentStatus    string `json:"payment_status"`
	RegisteredAt     string `json:"registered_at"`
}

// CreateRegistrationRequest is the request to create a registration.
type CreateRegistrationRequest struct {
	ID               string  `json:"id,omitempty"`
	EventID          string  `json:"event_id" validate:"required"`
	GroupID          string  `json:"group_id,omitempty"`
	ParticipantEmail string  `json:"participant_email" validate:"required,email"`
	EventName        string  `json:"event_name" validate:"required"`
	TotalAmount      float64 `json:"total_amount" validate:"gt=0"`
	RegisteredAt     string  `json:"registered_at,omitempty"` // YYYY-MM-DD, defaults to now
}

// AssignPlanRequest attaches a plan to a registration and generates its
// installment schedule.
type AssignPlanRequest struct {
	PlanID string `json:"plan_id" validate:"required"`
}

// InstallmentDTO represents an installment in API responses. Amounts are
// decimal strings to avoid float drift on the wire.
type InstallmentDTO struct {
	ID              string  `json:"id"`
	RegistrationID  string  `json:"registration_id"`
	PlanID          string  `json:"plan_id"`
	Number          int     `json:"number"`
	DueDate         string  `json:"due_date"`
	OriginalAmount  string  `json:"original_amount"`
	PaidAmount      string  `json:"paid_amount"`
	DiscountAmount  string  `json:"discount_amount"`
	LateFeeAmount   string  `json:"late_fee_amount"`
	RemainingAmount string  `json:"remaining_amount"`
	Status          string  `json:"status"`
	PaidDate        *string `json:"paid_date,omitempty"`
}

// RecordPaymentRequest is the request to record a payment, either against
// one installment or against a registration (oldest-due-first allocation).
type RecordPaymentRequest struct {
	Amount         float64 `json:"amount" validate:"gt=0"`
	Method         string  `json:"method,omitempty" validate:"omitempty,oneof=cash card transfer gateway manual"`
	ExternalTxnID  string  `json:"external_txn_id,omitempty"`
	Notes          string  `json:"notes,omitempty"`
	Actor          string  `json:"actor,omitempty"`
	IdempotencyKey string  `json:"idempotency_key,omitempty"`
}

// GatewayCallbackRequest is the payload posted by the payment gateway after
// a settled charge. The transaction ID doubles as the idempotency key, so
// redelivered callbacks are no-ops.
type GatewayCallbackRequest struct {
	RegistrationID string  `json:"registration_id" validate:"required"`
	Amount         float64 `json:"amount" validate:"gt=0"`
	TransactionID  string  `json:"transaction_id" validate:"required"`
	PaidAt         string  `json:"paid_at,omitempty"` // RFC3339
}

// ApplyDiscountRequest applies a discount to an installment. Either a fixed
// amount, or quote=true to apply the plan's policy quote.
type ApplyDiscountRequest struct {
	Amount float64 `json:"amount,omitempty" validate:"min=0"`
	Quote  bool    `json:"quote,omitempty"`
	Notes  string  `json:"notes,omitempty"`
	Actor  string  `json:"actor,omitempty"`
}

// DiscountQuoteDTO breaks a policy quote down by branch.
type DiscountQuoteDTO struct {
	Cash  string `json:"cash"`
	Group string `json:"group"`
	Early string `json:"early"`
	Total string `json:"total"`
}

// TransactionDTO represents a ledger transaction.
type TransactionDTO struct {
	ID             string `json:"id"`
	InstallmentID  string `json:"installment_id"`
	RegistrationID string `json:"registration_id"`
	Type           string `json:"type"`
	Amount         string `json:"amount"`
	Method         string `json:"method,omitempty"`
	ExternalTxnID  string `json:"external_txn_id,omitempty"`
	Notes          string `json:"notes,omitempty"`
	Actor          string `json:"actor"`
	Timestamp      string `json:"timestamp"`
}

// SweepRequest scopes an admin sweep run.
type SweepRequest struct {
	AsOf    string `json:"as_of,omitempty"`    // YYYY-MM-DD, defaults to now
	EventID string `json:"event_id,omitempty"` // empty = all events
}

// LateFeeSweepDTO is the result of a late fee sweep.
type LateFeeSweepDTO struct {
	Scanned int    `json:"scanned"`
	Charged int    `json:"charged"`
	Total   string `json:"total"`
}

// OverdueSweepDTO is the result of an overdue marking sweep.
type OverdueSweepDTO struct {
	Flagged       int `json:"flagged"`
	Registrations int `json:"registrations"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toRegistrationDTO(reg *billing.Registration) RegistrationDTO {
	return RegistrationDTO{
		ID:               string(reg.ID),
		EventID:          string(reg.EventID),
		GroupID:          string(reg.GroupID),
		ParticipantEmail: reg.ParticipantEmail,
		EventName:        reg.EventName,
		TotalAmount:      reg.TotalAmount.StringFixed(2),
		AmountPaid:       reg.AmountPaid.StringFixed(2),
		RemainingAmount:  reg.RemainingAmount.StringFixed(2),
		PaymentStatus:    string(reg.PaymentStatus),
		RegisteredAt:     reg.RegisteredAt.Format(time.RFC3339),
	}
}

func toInstallmentDTO(inst *billing.Installment) InstallmentDTO {
	dto := InstallmentDTO{
		ID:              string(inst.ID),
		RegistrationID:  string(inst.RegistrationID),
		PlanID:          string(inst.PlanID),
		Number:          inst.Number,
		DueDate:         inst.DueDate.Format("2006-01-02"),
		OriginalAmount:  inst.OriginalAmount.StringFixed(2),
		PaidAmount:      inst.PaidAmount.StringFixed(2),
		DiscountAmount:  inst.DiscountAmount.StringFixed(2),
		LateFeeAmount:   inst.LateFeeAmount.StringFixed(2),
		RemainingAmount: inst.RemainingAmount.StringFixed(2),
		Status:          string(inst.Status),
	}
	if inst.PaidDate != nil {
		s := inst.PaidDate.Format(time.RFC3339)
		dto.PaidDate = &s
	}
	return dto
}

func toInstallmentDTOs(installments []billing.Installment) []InstallmentDTO {
	dtos := make([]InstallmentDTO, len(installments))
	for i := range installments {
		dtos[i] = toInstallmentDTO(&installments[i])
	}
	return dtos
}

func toTransactionDTO(tx billing.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:             string(tx.ID),
		InstallmentID:  string(tx.InstallmentID),
		RegistrationID: string(tx.RegistrationID),
		Type:           string(tx.Type),
		Amount:         tx.Amount.StringFixed(2),
		Method:         string(tx.Method),
		ExternalTxnID:  tx.ExternalTxnID,
		Notes:          tx.Notes,
		Actor:          tx.Actor,
		Timestamp:      tx.Timestamp.Format(time.RFC3339),
	}
}

func toTransactionDTOs(txs []billing.Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	return dtos
}
