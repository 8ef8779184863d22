/*
errors.go - Centralized error types for the billing engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers (API layer, sweeps) match with errors.Is / errors.As.

ERROR CATEGORIES:
  1. Validation errors - Bad installment counts, non-positive amounts
  2. Not-found errors  - Missing installment/plan/registration
  3. Consistency errors - Stored state diverges from the transaction log
  4. Idempotency errors - Replayed gateway callbacks

SEE ALSO:
  - ledger.go: Raises validation and not-found errors
  - store.go: Raises not-found and idempotency errors
*/
package billing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInstallmentNotFound is returned when a referenced installment doesn't exist.
	ErrInstallmentNotFound = errors.New("installment not found")

	// ErrPlanNotFound is returned when a referenced payment plan doesn't exist.
	ErrPlanNotFound = errors.New("payment plan not found")

	// ErrRegistrationNotFound is returned when a referenced registration doesn't exist.
	ErrRegistrationNotFound = errors.New("registration not found")

	// ErrNonPositiveAmount is returned when a ledger mutation carries a
	// zero or negative amount.
	ErrNonPositiveAmount = errors.New("amount must be positive")

	// ErrNegativeTotal is returned when a schedule is requested for a
	// negative total amount.
	ErrNegativeTotal = errors.New("total amount must not be negative")

	// ErrInvalidInstallmentCount is returned for installment counts below 1.
	ErrInvalidInstallmentCount = errors.New("installment count must be at least 1")

	// ErrInvalidInterval is returned for unknown installment intervals.
	ErrInvalidInterval = errors.New("invalid installment interval")

	// ErrDuplicateIdempotencyKey is returned when a ledger mutation carries
	// an idempotency key that has already been processed. This is expected
	// behavior for gateway callback retries.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrInconsistentState is returned when stored installment state
	// diverges from the value implied by the recorded transactions.
	ErrInconsistentState = errors.New("stored state inconsistent with transaction log")

	// ErrInstallmentSettled is returned when a payment targets an
	// installment that is already paid or waived.
	ErrInstallmentSettled = errors.New("installment already settled")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes rejected input. Unwraps to one of the
// validation sentinels above.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NotFoundError identifies which entity was missing.
type NotFoundError struct {
	Kind string // "installment", "plan", "registration"
	ID   string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// ConsistencyError reports a divergence between a stored derived value and
// the value implied by the transaction log.
type ConsistencyError struct {
	InstallmentID InstallmentID
	Field         string
	Stored        string
	Derived       string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("installment %s: stored %s %s diverges from ledger-derived %s",
		e.InstallmentID, e.Field, e.Stored, e.Derived)
}

func (e *ConsistencyError) Unwrap() error { return ErrInconsistentState }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNonPositiveAmount) ||
		errors.Is(err, ErrNegativeTotal) ||
		errors.Is(err, ErrInvalidInstallmentCount) ||
		errors.Is(err, ErrInvalidInterval) ||
		errors.Is(err, ErrInstallmentSettled)
}

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrInstallmentNotFound) ||
		errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrRegistrationNotFound)
}

// IsConflict returns true for idempotency replays.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateIdempotencyKey)
}
