// Package store provides an in-memory billing.TxStore for tests and dev.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/eventflow/payment-engine/billing"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements billing.TxStore. WithTx serializes units globally and
// rolls back by snapshot restore, which is enough to exercise the
// ledger's atomicity contract in tests.
type Memory struct {
	mu   sync.RWMutex
	txMu sync.Mutex // serializes WithTx units

	plans         map[billing.PlanID]billing.PaymentPlan
	registrations map[billing.RegistrationID]billing.Registration
	installments  map[billing.InstallmentID]billing.Installment
	transactions  []billing.Transaction
	idempotency   map[string]time.Time // key -> expiresAt
}

func NewMemory() *Memory {
	return &Memory{
		plans:         make(map[billing.PlanID]billing.PaymentPlan),
		registrations: make(map[billing.RegistrationID]billing.Registration),
		installments:  make(map[billing.InstallmentID]billing.Installment),
		idempotency:   make(map[string]time.Time),
	}
}

// =============================================================================
// TRANSACTIONAL UNIT
// =============================================================================

// WithTx executes fn as one atomic unit. On error every map is restored
// from a snapshot taken before fn ran.
func (m *Memory) WithTx(_ context.Context, fn func(billing.Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memSnapshot struct {
	plans         map[billing.PlanID]billing.PaymentPlan
	registrations map[billing.RegistrationID]billing.Registration
	installments  map[billing.InstallmentID]billing.Installment
	transactions  []billing.Transaction
	idempotency   map[string]time.Time
}

func (m *Memory) snapshot() memSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := memSnapshot{
		plans:         make(map[billing.PlanID]billing.PaymentPlan, len(m.plans)),
		registrations: make(map[billing.RegistrationID]billing.Registration, len(m.registrations)),
		installments:  make(map[billing.InstallmentID]billing.Installment, len(m.installments)),
		transactions:  make([]billing.Transaction, len(m.transactions)),
		idempotency:   make(map[string]time.Time, len(m.idempotency)),
	}
	for k, v := range m.plans {
		snap.plans[k] = v
	}
	for k, v := range m.registrations {
		snap.registrations[k] = v
	}
	for k, v := range m.installments {
		snap.installments[k] = v
	}
	copy(snap.transactions, m.transactions)
	for k, v := range m.idempotency {
		snap.idempotency[k] = v
	}
	return snap
}

func (m *Memory) restore(snap memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans = snap.plans
	m.registrations = snap.registrations
	m.installments = snap.installments
	m.transactions = snap.transactions
	m.idempotency = snap.idempotency
}

// =============================================================================
// PLANS
// =============================================================================

func (m *Memory) SavePlan(_ context.Context, plan *billing.PaymentPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[plan.ID] = *plan
	return nil
}

func (m *Memory) GetPlan(_ context.Context, id billing.PlanID) (*billing.PaymentPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	plan, ok := m.plans[id]
	if !ok {
		return nil, &billing.NotFoundError{Kind: "plan", ID: string(id), Err: billing.ErrPlanNotFound}
	}
	return &plan, nil
}

func (m *Memory) ListPlansByEvent(_ context.Context, eventID billing.EventID) ([]billing.PaymentPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var plans []billing.PaymentPlan
	for _, p := range m.plans {
		if p.EventID == eventID {
			plans = append(plans, p)
		}
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].ID < plans[j].ID })
	return plans, nil
}

// =============================================================================
// REGISTRATIONS
// =============================================================================

func (m *Memory) SaveRegistration(_ context.Context, reg *billing.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registrations[reg.ID] = *reg
	return nil
}

func (m *Memory) GetRegistration(_ context.Context, id billing.RegistrationID) (*billing.Registration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	reg, ok := m.registrations[id]
	if !ok {
		return nil, &billing.NotFoundError{Kind: "registration", ID: string(id), Err: billing.ErrRegistrationNotFound}
	}
	return &reg, nil
}

func (m *Memory) UpdateRegistration(_ context.Context, reg *billing.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.registrations[reg.ID]; !ok {
		return &billing.NotFoundError{Kind: "registration", ID: string(reg.ID), Err: billing.ErrRegistrationNotFound}
	}
	m.registrations[reg.ID] = *reg
	return nil
}

func (m *Memory) ListRegistrationsByEvent(_ context.Context, eventID billing.EventID) ([]billing.Registration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var regs []billing.Registration
	for _, r := range m.registrations {
		if r.EventID == eventID {
			regs = append(regs, r)
		}
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].ID < regs[j].ID })
	return regs, nil
}

func (m *Memory) ListRegistrationsByGroup(_ context.Context, groupID billing.GroupID) ([]billing.Registration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var regs []billing.Registration
	for _, r := range m.registrations {
		if r.GroupID == groupID {
			regs = append(regs, r)
		}
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].ID < regs[j].ID })
	return regs, nil
}

// =============================================================================
// INSTALLMENTS
// =============================================================================

func (m *Memory) CreateInstallments(_ context.Context, installments []billing.Installment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inst := range installments {
		m.installments[inst.ID] = inst
	}
	return nil
}

func (m *Memory) GetInstallment(_ context.Context, id billing.InstallmentID) (*billing.Installment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.installments[id]
	if !ok {
		return nil, &billing.NotFoundError{Kind: "installment", ID: string(id), Err: billing.ErrInstallmentNotFound}
	}
	return &inst, nil
}

func (m *Memory) UpdateInstallment(_ context.Context, inst *billing.Installment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.installments[inst.ID]; !ok {
		return &billing.NotFoundError{Kind: "installment", ID: string(inst.ID), Err: billing.ErrInstallmentNotFound}
	}
	m.installments[inst.ID] = *inst
	return nil
}

func (m *Memory) ListInstallmentsByRegistration(_ context.Context, regID billing.RegistrationID) ([]billing.Installment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var installments []billing.Installment
	for _, inst := range m.installments {
		if inst.RegistrationID == regID {
			installments = append(installments, inst)
		}
	}
	sort.Slice(installments, func(i, j int) bool { return installments[i].Number < installments[j].Number })
	return installments, nil
}

func (m *Memory) ListInstallmentsDueWithin(_ context.Context, asOf time.Time, days int) ([]billing.Installment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	limit := asOf.AddDate(0, 0, days)
	var installments []billing.Installment
	for _, inst := range m.installments {
		if inst.Status.IsTerminal() {
			continue
		}
		if !inst.DueDate.Before(asOf) && !inst.DueDate.After(limit) {
			installments = append(installments, inst)
		}
	}
	sortByDueDate(installments)
	return installments, nil
}

func (m *Memory) ListInstallmentsOverdue(_ context.Context, asOf time.Time, eventID *billing.EventID) ([]billing.Installment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var installments []billing.Installment
	for _, inst := range m.installments {
		if !inst.IsPastDue(asOf) {
			continue
		}
		if eventID != nil {
			reg, ok := m.registrations[inst.RegistrationID]
			if !ok || reg.EventID != *eventID {
				continue
			}
		}
		installments = append(installments, inst)
	}
	sortByDueDate(installments)
	return installments, nil
}

func sortByDueDate(installments []billing.Installment) {
	sort.Slice(installments, func(i, j int) bool {
		if installments[i].DueDate.Equal(installments[j].DueDate) {
			return installments[i].Number < installments[j].Number
		}
		return installments[i].DueDate.Before(installments[j].DueDate)
	})
}

// =============================================================================
// TRANSACTIONS (append-only)
// =============================================================================

func (m *Memory) AppendTransaction(_ context.Context, tx *billing.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions = append(m.transactions, *tx)
	return nil
}

func (m *Memory) ListTransactionsByInstallment(_ context.Context, id billing.InstallmentID) ([]billing.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var txs []billing.Transaction
	for _, tx := range m.transactions {
		if tx.InstallmentID == id {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

func (m *Memory) ListTransactionsByRegistration(_ context.Context, id billing.RegistrationID) ([]billing.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var txs []billing.Transaction
	for _, tx := range m.transactions {
		if tx.RegistrationID == id {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

// =============================================================================
// IDEMPOTENCY
// =============================================================================

func (m *Memory) ReserveIdempotencyKey(_ context.Context, key string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for k, exp := range m.idempotency {
		if exp.Before(now) {
			delete(m.idempotency, k)
		}
	}

	if exp, ok := m.idempotency[key]; ok && exp.After(now) {
		return billing.ErrDuplicateIdempotencyKey
	}
	m.idempotency[key] = expiresAt
	return nil
}
