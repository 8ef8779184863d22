/*
Package postgres provides a PostgreSQL-backed implementation of
billing.TxStore using lib/pq.

CONCURRENCY:
  Unlike the SQLite store, no process-level mutex is held. WithTx opens a
  SQL transaction and reads of installments and registrations inside it use
  SELECT ... FOR UPDATE, so concurrent ledger units touching the same
  installment (or the same registration aggregate) serialize on row locks.
  Two simultaneous payments against one installment cannot both read stale
  PaidAmount.

SCHEMA:
  Same tables as store/sqlite with NUMERIC(12,2) money columns and
  TIMESTAMPTZ dates. Apply migrations/postgres.sql before first use.

SEE ALSO:
  - billing/store.go: Interface contract
  - store/sqlite: Single-writer variant for embedded deployments
*/
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/eventflow/payment-engine/billing"
)

// Store implements billing.TxStore using PostgreSQL.
type Store struct {
	db   *sql.DB
	c    conn
	inTx bool // row-locking reads only make sense inside a transaction
}

type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New connects to PostgreSQL with the given lib/pq connection string.
func New(connStr string) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{db: db, c: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// WithTx executes fn inside one SQL transaction. Reads of installments and
// registrations within fn take row locks, serializing concurrent units.
func (s *Store) WithTx(ctx context.Context, fn func(billing.Store) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	shadow := &Store{db: s.db, c: sqlTx, inTx: true}
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
		 discount_policy, late_fee_policy, is_default, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			installment_count = EXCLUDED.installment_count,
			interval = EXCLUDED.interval,
			first_installment_date = EXCLUDED.first_installment_date,
			discount_policy = EXCLUDED.discount_policy,
			late_fee_policy = EXCLUDED.late_fee_policy,
			is_default = EXCLUDED.is_default,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.c.ExecContext(ctx, query,
		plan.ID, plan.EventID, plan.Name, plan.InstallmentCount, plan.Interval,
		nullTime(plan.FirstInstallmentDate), discountJSON, lateFeeJSON,
		plan.IsDefault, plan.Status, plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	return nil
}

func (s *Store) GetPlan(ctx context.Context, id billing.PlanID) (*billing.PaymentPlan, error) {
	query := `
		SELECT id, event_id, name, installment_count, interval, first_installment_date,
		       discount_policy, late_fee_policy, is_default, status, created_at, updated_at
		FROM payment_plans WHERE id = $1
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
		       discount_policy, late_fee_policy, is_default, status, created_at, updated_at
		FROM payment_plans WHERE event_id = $1 ORDER BY created_at ASC
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

const registrationColumns = `id, event_id, group_id, participant_email, event_name,
	total_amount, amount_paid, remaining_amount, payment_status, registered_at, updated_at`

func (s *Store) SaveRegistration(ctx context.Context, reg *billing.Registration) error {
	query := `
		INSERT INTO registrations (` + registrationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.c.ExecContext(ctx, query,
		reg.ID, reg.EventID, reg.GroupID, reg.ParticipantEmail, reg.EventName,
		reg.TotalAmount, reg.AmountPaid, reg.RemainingAmount, reg.PaymentStatus,
		reg.RegisteredAt, reg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save registration: %w", err)
	}
	return nil
}

func (s *Store) GetRegistration(ctx context.Context, id billing.RegistrationID) (*billing.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1` + s.rowLock()
	reg, err := scanRegistration(s.c.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &billing.NotFoundError{Kind: "registration", ID: string(id), Err: billing.ErrRegistrationNotFound}
	}
	return reg, err
}

func (s *Store) UpdateRegistration(ctx context.Context, reg *billing.Registration) error {
	query := `
		UPDATE registrations
		SET amount_paid = $1, remaining_amount = $2, payment_status = $3, updated_at = $4
		WHERE id = $5
	`
	res, err := s.c.ExecContext(ctx, query,
		reg.AmountPaid, reg.RemainingAmount, reg.PaymentStatus, reg.UpdatedAt, reg.ID,
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
	return s.listRegistrations(ctx, "event_id = $1", string(eventID))
}

func (s *Store) ListRegistrationsByGroup(ctx context.Context, groupID billing.GroupID) ([]billing.Registration, error) {
	return s.listRegistrations(ctx, "group_id = $1", string(groupID))
}

func (s *Store) listRegistrations(ctx context.Context, where string, arg string) ([]billing.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE ` + where +
		` ORDER BY registered_at ASC, id ASC`
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
		INSERT INTO installments (` + installmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	for i := range installments {
		inst := &installments[i]
		_, err := s.c.ExecContext(ctx, query,
			inst.ID, inst.RegistrationID, inst.PlanID, inst.Number, inst.DueDate,
			inst.OriginalAmount, inst.PaidAmount, inst.DiscountAmount,
			inst.LateFeeAmount, inst.RemainingAmount, inst.Status,
			inst.PaidDate, inst.CreatedAt, inst.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create installment %d: %w", inst.Number, err)
		}
	}
	return nil
}

func (s *Store) GetInstallment(ctx context.Context, id billing.InstallmentID) (*billing.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM installments WHERE id = $1` + s.rowLock()
	inst, err := scanInstallment(s.c.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &billing.NotFoundError{Kind: "installment", ID: string(id), Err: billing.ErrInstallmentNotFound}
	}
	return inst, err
}

func (s *Store) UpdateInstallment(ctx context.Context, inst *billing.Installment) error {
	// Due dates and original amounts are immutable after assignment.
	query := `
		UPDATE installments
		SET paid_amount = $1, discount_amount = $2, late_fee_amount = $3,
		    remaining_amount = $4, status = $5, paid_date = $6, updated_at = $7
		WHERE id = $8
	`
	res, err := s.c.ExecContext(ctx, query,
		inst.PaidAmount, inst.DiscountAmount, inst.LateFeeAmount,
		inst.RemainingAmount, inst.Status, inst.PaidDate, inst.UpdatedAt, inst.ID,
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
	query := `SELECT ` + installmentColumns + ` FROM installments WHERE registration_id = $1 ORDER BY number ASC` + s.rowLock()
	return s.queryInstallments(ctx, query, regID)
}

func (s *Store) ListInstallmentsDueWithin(ctx context.Context, asOf time.Time, days int) ([]billing.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE status NOT IN ('paid', 'waived') AND due_date >= $1 AND due_date <= $2
		ORDER BY due_date ASC, number ASC
	`
	return s.queryInstallments(ctx, query, asOf, asOf.AddDate(0, 0, days))
}

func (s *Store) ListInstallmentsOverdue(ctx context.Context, asOf time.Time, eventID *billing.EventID) ([]billing.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE status NOT IN ('paid', 'waived') AND due_date < $1
	`
	args := []any{asOf}
	if eventID != nil {
		query += ` AND registration_id IN (SELECT id FROM registrations WHERE event_id = $2)`
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.c.ExecContext(ctx, query,
		tx.ID, tx.InstallmentID, tx.RegistrationID, tx.Type, tx.Amount,
		tx.Method, nullString(tx.ExternalTxnID), tx.Notes, nullString(tx.IdempotencyKey),
		tx.Actor, tx.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

func (s *Store) ListTransactionsByInstallment(ctx context.Context, id billing.InstallmentID) ([]billing.Transaction, error) {
	return s.queryTransactions(ctx, "installment_id = $1", string(id))
}

func (s *Store) ListTransactionsByRegistration(ctx context.Context, id billing.RegistrationID) ([]billing.Transaction, error) {
	return s.queryTransactions(ctx, "registration_id = $1", string(id))
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
			method, extID, idemKey sql.NullString
		)
		if err := rows.Scan(&tx.ID, &tx.InstallmentID, &tx.RegistrationID, &tx.Type,
			&tx.Amount, &method, &extID, &tx.Notes, &idemKey, &tx.Actor, &tx.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Method = billing.PaymentMethod(method.String)
		tx.ExternalTxnID = extID.String
		tx.IdempotencyKey = idemKey.String
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// =============================================================================
// IDEMPOTENCY
// =============================================================================

func (s *Store) ReserveIdempotencyKey(ctx context.Context, key string, expiresAt time.Time) error {
	if _, err := s.c.ExecContext(ctx, `DELETE FROM idempotency_keys WHERE expires_at < NOW()`); err != nil {
		return fmt.Errorf("failed to purge idempotency keys: %w", err)
	}

	_, err := s.c.ExecContext(ctx,
		`INSERT INTO idempotency_keys (key, expires_at) VALUES ($1, $2)`,
		key, expiresAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return billing.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// rowLock returns the FOR UPDATE suffix inside a transaction, empty
// otherwise. Plain reads outside WithTx take no locks.
func (s *Store) rowLock() string {
	if s.inTx {
		return " FOR UPDATE"
	}
	return ""
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*billing.PaymentPlan, error) {
	var (
		plan                      billing.PaymentPlan
		firstDate                 sql.NullTime
		discountJSON, lateFeeJSON sql.NullString
	)
	err := row.Scan(&plan.ID, &plan.EventID, &plan.Name, &plan.InstallmentCount,
		&plan.Interval, &firstDate, &discountJSON, &lateFeeJSON,
		&plan.IsDefault, &plan.Status, &plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if firstDate.Valid {
		plan.FirstInstallmentDate = firstDate.Time
	}
	if err := decodePolicies(&plan, discountJSON.String, lateFeeJSON.String); err != nil {
		return nil, err
	}
	return &plan, nil
}

func scanRegistration(row rowScanner) (*billing.Registration, error) {
	var reg billing.Registration
	err := row.Scan(&reg.ID, &reg.EventID, &reg.GroupID, &reg.ParticipantEmail, &reg.EventName,
		&reg.TotalAmount, &reg.AmountPaid, &reg.RemainingAmount, &reg.PaymentStatus,
		&reg.RegisteredAt, &reg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func scanInstallment(row rowScanner) (*billing.Installment, error) {
	var (
		inst     billing.Installment
		paidDate sql.NullTime
	)
	err := row.Scan(&inst.ID, &inst.RegistrationID, &inst.PlanID, &inst.Number, &inst.DueDate,
		&inst.OriginalAmount, &inst.PaidAmount, &inst.DiscountAmount, &inst.LateFeeAmount,
		&inst.RemainingAmount, &inst.Status, &paidDate, &inst.CreatedAt, &inst.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if paidDate.Valid {
		t := paidDate.Time
		inst.PaidDate = &t
	}
	return &inst, nil
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
	return t
}
