/*
Package sqlite provides a SQLite-backed implementation of billing.TxStore.

PURPOSE:
  Production persistence for plans, registrations, installments, the
  append-only transaction ledger, and the idempotency-key table.

APPEND-ONLY ENFORCEMENT:
  No UPDATE or DELETE statements touch the transactions table. Installments
  and registrations are mutable because they are derived state.

ATOMIC UNITS:
  WithTx wraps a ledger mutation (installment update + transaction append +
  registration recompute) in one SQL transaction. SQLite has a single
  writer, so a mutex serializes write units; with PostgreSQL the same
  interfaces are served by row-level locks (see store/postgres).

KEY TABLES:
  payment_plans:      Reusable schedule definitions (policies as JSON)
  registrations:      External entity; payment aggregate columns
  installments:       Derived, mutable per-registration schedule
  transactions:       Immutable ledger of all monetary events
  idempotency_keys:   Processed external event ids with expiry

WAL MODE:
  Opened with WAL so readers don't block during sweeps.

USAGE:
  store, err := sqlite.New("./data/payments.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
  ledger := billing.NewPaymentLedger(store, logger)

SEE ALSO:
  - billing/store.go: Interface contract
  - billing/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/eventflow/payment-engine/billing"
)

// Store implements billing.TxStore using SQLite.
type Store struct {
	db *sql.DB
	c  conn       // db normally, *sql.Tx inside WithTx
	mu sync.Mutex // serializes write units
}

// conn abstracts *sql.DB and *sql.Tx.
type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, c: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS payment_plans (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		name TEXT NOT NULL,
		installment_count INTEGER NOT NULL,
		interval TEXT NOT NULL,
		first_installment_date TEXT,
		discount_policy_json TEXT NOT NULL,
		late_fee_policy_json TEXT,
		is_default BOOLEAN DEFAULT FALSE,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_plans_event
		ON payment_plans(event_id);

	CREATE TABLE IF NOT EXISTS registrations (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		group_id TEXT NOT NULL DEFAULT '',
		participant_email TEXT NOT NULL,
		event_name TEXT NOT NULL DEFAULT '',
		total_amount TEXT NOT NULL,
		amount_paid TEXT NOT NULL,
		remaining_amount TEXT NOT NULL,
		payment_status TEXT NOT NULL DEFAULT 'pending',
		registered_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_registrations_event
		ON registrations(event_id);
	CREATE INDEX IF NOT EXISTS idx_registrations_group
		ON registrations(group_id) WHERE group_id != '';

	CREATE TABLE IF NOT EXISTS installments (
		id TEXT PRIMARY KEY,
		registration_id TEXT NOT NULL,
		plan_id TEXT NOT NULL,
		number INTEGER NOT NULL,
		due_date TEXT NOT NULL,
		original_amount TEXT NOT NULL,
		paid_amount TEXT NOT NULL,
		discount_amount TEXT NOT NULL,
		late_fee_amount TEXT NOT NULL,
		remaining_amount TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		paid_date TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(registration_id, number)
	);

	CREATE INDEX IF NOT EXISTS idx_installments_registration
		ON installments(registration_id);
	-- Hot path for sweeps and reminder selection
	CREATE INDEX IF NOT EXISTS idx_installments_status_due
		ON installments(status, due_date);

	-- Transactions (append-only ledger; no UPDATE, no DELETE)
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		installment_id TEXT NOT NULL,
		registration_id TEXT NOT NULL,
		tx_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		method TEXT,
		external_txn_id TEXT,
		notes TEXT,
		idempotency_key TEXT,
		actor TEXT NOT NULL,
		timestamp TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_installment
		ON transactions(installment_id);
	CREATE INDEX IF NOT EXISTS idx_transactions_registration
		ON transactions(registration_id);

	CREATE TABLE IF NOT EXISTS idempotency_keys (
		key TEXT PRIMARY KEY,
		expires_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONAL UNIT
// =============================================================================

// WithTx executes fn inside one SQL transaction. The mutex serializes
// concurrent write units; rollback on error, commit on nil.
func (s *Store) WithTx(ctx context.Context, fn func(billing.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	shadow := &Store{db: s.db, c: sqlTx}
	if err := fn(shadow); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// =============================================================================
// PAYMENT PLANS
// =============================================================================

func (s *Store) SavePlan(ctx context.Context, plan *billing.PaymentPlan) error {
	discountJSON, lateFeeJSON, err := encodePolicies(plan)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO payment_plans
		(id, event_id, name, installment_count, interval, first_installment_date,
		 discount_policy_json, late_fee_policy_json, is_default, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			installment_count = excluded.installment_count,
			interval = excluded.interval,
			first_installment_date = excluded.first_installment_date,
			discount_policy_json = excluded.discount_policy_json,
			late_fee_policy_json = excluded.late_fee_policy_json,
			is_default = excluded.is_default,
			status = excluded.status,
			updated_at = excluded.updated_at
	`
	_, err = s.c.ExecContext(ctx, query,
		plan.ID, plan.EventID, plan.Name, plan.InstallmentCount, plan.Interval,
		nullTime(plan.FirstInstallmentDate), discountJSON, lateFeeJSON,
		plan.IsDefault, plan.Status,
		plan.CreatedAt.UTC().Format(time.RFC3339), plan.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	return nil
}

func (s *Store) GetPlan(ctx context.Context, id billing.PlanID) (*billing.PaymentPlan, error) {
	query := `
		SELECT id, event_id, name, installment_count, interval, first_installment_date,
		       discount_policy_json, late_fee_policy_json, is_default, status, created_at, updated_at
		FROM payment_plans WHERE id = ?
	`
	plan, err := scanPlan(s.c.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &billing.NotFoundError{Kind: "plan", ID: string(id), Err: billing.ErrPlanNotFound}
	}
	return plan, err
}

func (s *Store) ListPlansByEvent(ctx context.Context, eventID billing.EventID) ([]billing.PaymentPlan, error) {
	query := `
		SELECT id, event_id, name, installment_count, interval, first_installment_date,
		       discount_policy_json, late_fee_policy_json, is_default, status, created_at, updated_at
		FROM payment_plans WHERE event_id = ? ORDER BY created_at ASC
	`
	rows, err := s.c.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []billing.PaymentPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *plan)
	}
	return plans, rows.Err()
}

// =============================================================================
// REGISTRATIONS
// =============================================================================

func (s *Store) SaveRegistration(ctx context.Context, reg *billing.Registration) error {
	query := `
		INSERT INTO registrations
		(id, event_id, group_id, participant_email, event_name,
		 total_amount, amount_paid, remaining_amount, payment_status, registered_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.c.ExecContext(ctx, query,
		reg.ID, reg.EventID, reg.GroupID, reg.ParticipantEmail, reg.EventName,
		reg.TotalAmount.String(), reg.AmountPaid.String(), reg.RemainingAmount.String(),
		reg.PaymentStatus,
		reg.RegisteredAt.UTC().Format(time.RFC3339), reg.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save registration: %w", err)
	}
	return nil
}

func (s *Store) GetRegistration(ctx context.Context, id billing.RegistrationID) (*billing.Registration, error) {
	query := `
		SELECT id, event_id, group_id, participant_email, event_name,
		       total_amount, amount_paid, remaining_amount, payment_status, registered_at, updated_at
		FROM registrations WHERE id = ?
	`
	reg, err := scanRegistration(s.c.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &billing.NotFoundError{Kind: "registration", ID: string(id), Err: billing.ErrRegistrationNotFound}
	}
	return reg, err
}

func (s *Store) UpdateRegistration(ctx context.Context, reg *billing.Registration) error {
	query := `
		UPDATE registrations
		SET amount_paid = ?, remaining_amount = ?, payment_status = ?, updated_at = ?
		WHERE id = ?
	`
	res, err := s.c.ExecContext(ctx, query,
		reg.AmountPaid.String(), reg.RemainingAmount.String(), reg.PaymentStatus,
		reg.UpdatedAt.UTC().Format(time.RFC3339), reg.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update registration: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &billing.NotFoundError{Kind: "registration", ID: string(reg.ID), Err: billing.ErrRegistrationNotFound}
	}
	return nil
}

func (s *Store) ListRegistrationsByEvent(ctx context.Context, eventID billing.EventID) ([]billing.Registration, error) {
	return s.listRegistrations(ctx, "event_id = ?", string(eventID))
}

func (s *Store) ListRegistrationsByGroup(ctx context.Context, groupID billing.GroupID) ([]billing.Registration, error) {
	return s.listRegistrations(ctx, "group_id = ?", string(groupID))
}

func (s *Store) listRegistrations(ctx context.Context, where string, arg string) ([]billing.Registration, error) {
	query := `
		SELECT id, event_id, group_id, participant_email, event_name,
		       total_amount, amount_paid, remaining_amount, payment_status, registered_at, updated_at
		FROM registrations WHERE ` + where + ` ORDER BY registered_at ASC, id ASC
	`
	rows, err := s.c.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	var regs []billing.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, *reg)
	}
	return regs, rows.Err()
}

// =============================================================================
// INSTALLMENTS
// =============================================================================

const installmentColumns = `id, registration_id, plan_id, number, due_date,
	original_amount, paid_amount, discount_amount, late_fee_amount, remaining_amount,
	status, paid_date, created_at, updated_at`

func (s *Store) CreateInstallments(ctx context.Context, installments []billing.Installment) error {
	query := `
		INSERT INTO installments
		(` + installmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i := range installments {
		inst := &installments[i]
		_, err := s.c.ExecContext(ctx, query,
			inst.ID, inst.RegistrationID, inst.PlanID, inst.Number,
			inst.DueDate.UTC().Format(time.RFC3339),
			inst.OriginalAmount.String(), inst.PaidAmount.String(),
			inst.DiscountAmount.String(), inst.LateFeeAmount.String(),
			inst.RemainingAmount.String(), inst.Status, nullTimePtr(inst.PaidDate),
			inst.CreatedAt.UTC().Format(time.RFC3339), inst.UpdatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("failed to create installment %d: %w", inst.Number, err)
		}
	}
	return nil
}

func (s *Store) GetInstallment(ctx context.Context, id billing.InstallmentID) (*billing.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM installments WHERE id = ?`
	inst, err := scanInstallment(s.c.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &billing.NotFoundError{Kind: "installment", ID: string(id), Err: billing.ErrInstallmentNotFound}
	}
	return inst, err
}

func (s *Store) UpdateInstallment(ctx context.Context, inst *billing.Installment) error {
	// Due dates and original amounts are immutable after assignment; this
	// statement deliberately cannot touch them.
	query := `
		UPDATE installments
		SET paid_amount = ?, discount_amount = ?, late_fee_amount = ?,
		    remaining_amount = ?, status = ?, paid_date = ?, updated_at = ?
		WHERE id = ?
	`
	res, err := s.c.ExecContext(ctx, query,
		inst.PaidAmount.String(), inst.DiscountAmount.String(), inst.LateFeeAmount.String(),
		inst.RemainingAmount.String(), inst.Status, nullTimePtr(inst.PaidDate),
		inst.UpdatedAt.UTC().Format(time.RFC3339), inst.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update installment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &billing.NotFoundError{Kind: "installment", ID: string(inst.ID), Err: billing.ErrInstallmentNotFound}
	}
	return nil
}

func (s *Store) ListInstallmentsByRegistration(ctx context.Context, regID billing.RegistrationID) ([]billing.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM installments WHERE registration_id = ? ORDER BY number ASC`
	return s.queryInstallments(ctx, query, regID)
}

func (s *Store) ListInstallmentsDueWithin(ctx context.Context, asOf time.Time, days int) ([]billing.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE status NOT IN ('paid', 'waived') AND due_date >= ? AND due_date <= ?
		ORDER BY due_date ASC, number ASC
	`
	return s.queryInstallments(ctx, query,
		asOf.UTC().Format(time.RFC3339),
		asOf.AddDate(0, 0, days).UTC().Format(time.RFC3339),
	)
}

func (s *Store) ListInstallmentsOverdue(ctx context.Context, asOf time.Time, eventID *billing.EventID) ([]billing.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE status NOT IN ('paid', 'waived') AND due_date < ?
	`
	args := []any{asOf.UTC().Format(time.RFC3339)}
	if eventID != nil {
		query += ` AND registration_id IN (SELECT id FROM registrations WHERE event_id = ?)`
		args = append(args, string(*eventID))
	}
	query += ` ORDER BY due_date ASC, number ASC`
	return s.queryInstallments(ctx, query, args...)
}

func (s *Store) queryInstallments(ctx context.Context, query string, args ...any) ([]billing.Installment, error) {
	rows, err := s.c.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query installments: %w", err)
	}
	defer rows.Close()

	var installments []billing.Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		installments = append(installments, *inst)
	}
	return installments, rows.Err()
}

// =============================================================================
// TRANSACTIONS (append-only)
// =============================================================================

func (s *Store) AppendTransaction(ctx context.Context, tx *billing.Transaction) error {
	query := `
		INSERT INTO transactions
		(id, installment_id, registration_id, tx_type, amount, method,
		 external_txn_id, notes, idempotency_key, actor, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.c.ExecContext(ctx, query,
		tx.ID, tx.InstallmentID, tx.RegistrationID, tx.Type, tx.Amount.String(),
		tx.Method, nullString(tx.ExternalTxnID), tx.Notes, nullString(tx.IdempotencyKey),
		tx.Actor, tx.Timestamp.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

func (s *Store) ListTransactionsByInstallment(ctx context.Context, id billing.InstallmentID) ([]billing.Transaction, error) {
	return s.queryTransactions(ctx, "installment_id = ?", string(id))
}

func (s *Store) ListTransactionsByRegistration(ctx context.Context, id billing.RegistrationID) ([]billing.Transaction, error) {
	return s.queryTransactions(ctx, "registration_id = ?", string(id))
}

func (s *Store) queryTransactions(ctx context.Context, where string, arg string) ([]billing.Transaction, error) {
	query := `
		SELECT id, installment_id, registration_id, tx_type, amount, method,
		       external_txn_id, notes, idempotency_key, actor, timestamp
		FROM transactions WHERE ` + where + ` ORDER BY timestamp ASC, id ASC
	`
	rows, err := s.c.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []billing.Transaction
	for rows.Next() {
		var (
			tx                     billing.Transaction
			amount, ts             string
			method, extID, idemKey sql.NullString
		)
		if err := rows.Scan(&tx.ID, &tx.InstallmentID, &tx.RegistrationID, &tx.Type,
			&amount, &method, &extID, &tx.Notes, &idemKey, &tx.Actor, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Amount = mustDecimal(amount)
		tx.Method = billing.PaymentMethod(method.String)
		tx.ExternalTxnID = extID.String
		tx.IdempotencyKey = idemKey.String
		tx.Timestamp, _ = time.Parse(time.RFC3339, ts)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// =============================================================================
// IDEMPOTENCY
// =============================================================================

func (s *Store) ReserveIdempotencyKey(ctx context.Context, key string, expiresAt time.Time) error {
	now := time.Now().UTC().Format(time.RFC3339)

	// Lazy purge so the table stays bounded.
	if _, err := s.c.ExecContext(ctx, `DELETE FROM idempotency_keys WHERE expires_at < ?`, now); err != nil {
		return fmt.Errorf("failed to purge idempotency keys: %w", err)
	}

	_, err := s.c.ExecContext(ctx,
		`INSERT INTO idempotency_keys (key, expires_at) VALUES (?, ?)`,
		key, expiresAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return billing.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	return nil
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*billing.PaymentPlan, error) {
	var (
		plan                      billing.PaymentPlan
		firstDate                 sql.NullString
		discountJSON, lateFeeJSON sql.NullString
		createdAt, updatedAt      string
	)
	err := row.Scan(&plan.ID, &plan.EventID, &plan.Name, &plan.InstallmentCount,
		&plan.Interval, &firstDate, &discountJSON, &lateFeeJSON,
		&plan.IsDefault, &plan.Status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if firstDate.Valid {
		plan.FirstInstallmentDate, _ = time.Parse(time.RFC3339, firstDate.String)
	}
	if err := decodePolicies(&plan, discountJSON.String, lateFeeJSON.String); err != nil {
		return nil, err
	}
	plan.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	plan.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &plan, nil
}

func scanRegistration(row rowScanner) (*billing.Registration, error) {
	var (
		reg                     billing.Registration
		total, paid, remaining  string
		registeredAt, updatedAt string
	)
	err := row.Scan(&reg.ID, &reg.EventID, &reg.GroupID, &reg.ParticipantEmail, &reg.EventName,
		&total, &paid, &remaining, &reg.PaymentStatus, &registeredAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	reg.TotalAmount = mustDecimal(total)
	reg.AmountPaid = mustDecimal(paid)
	reg.RemainingAmount = mustDecimal(remaining)
	reg.RegisteredAt, _ = time.Parse(time.RFC3339, registeredAt)
	reg.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &reg, nil
}

func scanInstallment(row rowScanner) (*billing.Installment, error) {
	var (
		inst                                     billing.Installment
		dueDate, createdAt, updatedAt            string
		original, paid, discount, fee, remaining string
		paidDate                                 sql.NullString
	)
	err := row.Scan(&inst.ID, &inst.RegistrationID, &inst.PlanID, &inst.Number, &dueDate,
		&original, &paid, &discount, &fee, &remaining,
		&inst.Status, &paidDate, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	inst.DueDate, _ = time.Parse(time.RFC3339, dueDate)
	inst.OriginalAmount = mustDecimal(original)
	inst.PaidAmount = mustDecimal(paid)
	inst.DiscountAmount = mustDecimal(discount)
	inst.LateFeeAmount = mustDecimal(fee)
	inst.RemainingAmount = mustDecimal(remaining)
	if paidDate.Valid {
		t, _ := time.Parse(time.RFC3339, paidDate.String)
		inst.PaidDate = &t
	}
	inst.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	inst.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &inst, nil
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func nullTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
