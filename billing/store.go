/*
store.go - Persistence interfaces for the billing engine

PURPOSE:
  Defines the interface between the domain logic and the database. The
  engine never reaches for storage directly; every component takes an
  injected Store/TxStore, enabling substitution in tests.

KEY INTERFACES:
  Store:   CRUD + the exact queries the engine needs (by registration,
           due-within-N-days, overdue-as-of)
  TxStore: Atomic multi-write units with per-installment serialization

APPEND-ONLY CONTRACT:
  Transactions have AppendTransaction and reads only. No update, no
  delete. Installments and registrations are mutable because they are
  DERIVED state, rebuildable from the transaction log.

ATOMICITY:
  A ledger mutation is three writes: installment update, transaction
  append, registration aggregate recompute. WithTx wraps them in one
  atomic unit; implementations serialize concurrent writers per
  installment (mutex for SQLite, row locks for PostgreSQL).

IMPLEMENTATIONS:
  - store/sqlite:     Production SQLite
  - store/postgres:   Production PostgreSQL with SELECT ... FOR UPDATE
  - billing/store:    In-memory for testing

SEE ALSO:
  - ledger.go: The write path using these interfaces
*/
package billing

import (
	"context"
	"time"
)

// Store is the persistence surface consumed by the engine.
type Store interface {
	// Payment plans
	SavePlan(ctx context.Context, plan *PaymentPlan) error
	GetPlan(ctx context.Context, id PlanID) (*PaymentPlan, error)
	ListPlansByEvent(ctx context.Context, eventID EventID) ([]PaymentPlan, error)

	// Registrations (external entity; the engine mutates its payment aggregate)
	SaveRegistration(ctx context.Context, reg *Registration) error
	GetRegistration(ctx context.Context, id RegistrationID) (*Registration, error)
	UpdateRegistration(ctx context.Context, reg *Registration) error
	ListRegistrationsByEvent(ctx context.Context, eventID EventID) ([]Registration, error)
	ListRegistrationsByGroup(ctx context.Context, groupID GroupID) ([]Registration, error)

	// Installments
	CreateInstallments(ctx context.Context, installments []Installment) error
	GetInstallment(ctx context.Context, id InstallmentID) (*Installment, error)
	UpdateInstallment(ctx context.Context, inst *Installment) error
	ListInstallmentsByRegistration(ctx context.Context, regID RegistrationID) ([]Installment, error)

	// ListInstallmentsDueWithin returns non-terminal installments whose due
	// date falls in [asOf, asOf+days], ordered by due date.
	ListInstallmentsDueWithin(ctx context.Context, asOf time.Time, days int) ([]Installment, error)

	// ListInstallmentsOverdue returns non-terminal installments past their
	// due date as of asOf, optionally scoped to one event.
	ListInstallmentsOverdue(ctx context.Context, asOf time.Time, eventID *EventID) ([]Installment, error)

	// Transactions (append-only; no update, no delete)
	AppendTransaction(ctx context.Context, tx *Transaction) error
	ListTransactionsByInstallment(ctx context.Context, id InstallmentID) ([]Transaction, error)
	ListTransactionsByRegistration(ctx context.Context, id RegistrationID) ([]Transaction, error)

	// ReserveIdempotencyKey records a processed external event id. Returns
	// ErrDuplicateIdempotencyKey when a live (unexpired) key exists.
	// Expired keys may be reused; implementations purge them lazily.
	ReserveIdempotencyKey(ctx context.Context, key string, expiresAt time.Time) error
}

// TxStore wraps Store with atomic transaction support. The ledger uses
// this to make "mutate installment + append transaction + reconcile
// registration" a single unit: if fn returns an error the whole unit rolls
// back. Implementations must serialize concurrent units touching the same
// installment.
type TxStore interface {
	Store

	WithTx(ctx context.Context, fn func(Store) error) error
}
