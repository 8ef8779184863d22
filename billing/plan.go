/*
plan.go - Payment plan and policy definitions

PURPOSE:
  Defines the reusable schedule definition (count, interval, discount and
  late-fee policy) that an event owner assigns to registrations. Policies
  are closed, typed variants validated at plan-creation time, not free-form
  JSON interpreted at use time.

KEY CONCEPTS:
  - PaymentPlan: Owned by an event; shared by many registrations
  - DiscountPolicy: Cash, group, and early-payment discounts (additive)
  - LateFeePolicy: Grace period, fixed fee, monthly interest, cap
  - AssignPlan: The one moment installments are created for a registration

SEE ALSO:
  - schedule.go: Turns a plan + total into installments
  - factory/policy.go: JSON config -> validated plan
*/
package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// INTERVALS
// =============================================================================

type InstallmentInterval string

const (
	IntervalWeekly   InstallmentInterval = "weekly"
	IntervalBiweekly InstallmentInterval = "biweekly"
	IntervalMonthly  InstallmentInterval = "monthly"
)

// Advance returns the due date i interval-steps after first.
// Weekly and biweekly advance by 7/14 days; monthly advances by whole
// calendar months (time.AddDate normalization applies for month ends).
func (iv InstallmentInterval) Advance(first time.Time, i int) (time.Time, error) {
	switch iv {
	case IntervalWeekly:
		return first.AddDate(0, 0, 7*i), nil
	case IntervalBiweekly:
		return first.AddDate(0, 0, 14*i), nil
	case IntervalMonthly:
		return first.AddDate(0, i, 0), nil
	default:
		return time.Time{}, &ValidationError{
			Field:   "installment_interval",
			Message: fmt.Sprintf("unknown interval %q", iv),
			Err:     ErrInvalidInterval,
		}
	}
}

// =============================================================================
// POLICIES - Closed, typed variants
// =============================================================================

// CashDiscount reduces an installment by a percentage when payment is made
// in cash (or any configured up-front method).
type CashDiscount struct {
	Enabled bool
	Percent decimal.Decimal // e.g. 5 means 5%
}

// GroupDiscount reduces an installment for registrations belonging to a
// specific group.
type GroupDiscount struct {
	GroupID GroupID
	Enabled bool
	Percent decimal.Decimal
}

// EarlyPaymentDiscount reduces an installment when the payment lands at
// least DaysBefore days ahead of the due date.
type EarlyPaymentDiscount struct {
	Enabled    bool
	DaysBefore int
	Percent    decimal.Decimal
}

// DiscountPolicy bundles the discount variants. All enabled discounts are
// additive, not mutually exclusive.
type DiscountPolicy struct {
	Cash   *CashDiscount
	Groups []GroupDiscount
	Early  *EarlyPaymentDiscount
}

// GroupPercent returns the enabled discount percentage for a group, or zero.
func (p DiscountPolicy) GroupPercent(groupID GroupID) decimal.Decimal {
	if groupID == "" {
		return decimal.Zero
	}
	for _, g := range p.Groups {
		if g.GroupID == groupID && g.Enabled {
			return g.Percent
		}
	}
	return decimal.Zero
}

// Validate checks percentage ranges at plan-creation time.
func (p DiscountPolicy) Validate() error {
	check := func(field string, pct decimal.Decimal) error {
		if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
			return &ValidationError{
				Field:   field,
				Message: fmt.Sprintf("percent %s out of range [0,100]", pct),
				Err:     ErrNonPositiveAmount,
			}
		}
		return nil
	}
	if p.Cash != nil {
		if err := check("discount_policy.cash.percent", p.Cash.Percent); err != nil {
			return err
		}
	}
	for _, g := range p.Groups {
		if g.GroupID == "" {
			return &ValidationError{Field: "discount_policy.groups.group_id", Message: "group id required"}
		}
		if err := check("discount_policy.groups.percent", g.Percent); err != nil {
			return err
		}
	}
	if p.Early != nil {
		if p.Early.DaysBefore < 0 {
			return &ValidationError{Field: "discount_policy.early.days_before", Message: "must not be negative"}
		}
		if err := check("discount_policy.early.percent", p.Early.Percent); err != nil {
			return err
		}
	}
	return nil
}

// LateFeePolicy defines the penalty for overdue installments: a fixed fee
// plus monthly interest on the unpaid base, capped at MaxLateFee.
type LateFeePolicy struct {
	GracePeriodDays int
	FixedFee        decimal.Decimal
	InterestRate    decimal.Decimal  // percent per 30 days
	MaxLateFee      *decimal.Decimal // nil = uncapped
}

func (p LateFeePolicy) Validate() error {
	if p.GracePeriodDays < 0 {
		return &ValidationError{Field: "late_fee_policy.grace_period_days", Message: "must not be negative"}
	}
	if p.FixedFee.IsNegative() {
		return &ValidationError{Field: "late_fee_policy.fixed_fee", Message: "must not be negative"}
	}
	if p.InterestRate.IsNegative() {
		return &ValidationError{Field: "late_fee_policy.interest_rate", Message: "must not be negative"}
	}
	if p.MaxLateFee != nil && p.MaxLateFee.IsNegative() {
		return &ValidationError{Field: "late_fee_policy.max_late_fee", Message: "must not be negative"}
	}
	return nil
}

// =============================================================================
// PAYMENT PLAN
// =============================================================================

type PlanStatus string

const (
	PlanActive   PlanStatus = "active"
	PlanArchived PlanStatus = "archived"
)

// PaymentPlan is a reusable schedule definition owned by an event. Many
// registrations may share one plan; each gets its own installments at
// assignment time.
type PaymentPlan struct {
	ID               PlanID
	EventID          EventID
	Name             string
	InstallmentCount int
	Interval         InstallmentInterval

	// FirstInstallmentDate anchors the schedule. Zero value means the
	// registration date is used instead.
	FirstInstallmentDate time.Time

	DiscountPolicy DiscountPolicy
	LateFeePolicy  *LateFeePolicy // nil = no late fees for this plan

	IsDefault bool
	Status    PlanStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate enforces plan invariants at creation time.
func (p *PaymentPlan) Validate() error {
	if p.InstallmentCount < 1 {
		return &ValidationError{
			Field:   "installment_count",
			Message: fmt.Sprintf("got %d, need at least 1", p.InstallmentCount),
			Err:     ErrInvalidInstallmentCount,
		}
	}
	switch p.Interval {
	case IntervalWeekly, IntervalBiweekly, IntervalMonthly:
	default:
		return &ValidationError{
			Field:   "installment_interval",
			Message: fmt.Sprintf("unknown interval %q", p.Interval),
			Err:     ErrInvalidInterval,
		}
	}
	if err := p.DiscountPolicy.Validate(); err != nil {
		return err
	}
	if p.LateFeePolicy != nil {
		if err := p.LateFeePolicy.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// PLAN ASSIGNMENT
// =============================================================================

// AssignPlan generates and persists the installment schedule for a
// registration, atomically with the registration aggregate update.
// Installments are created exactly once per registration; due dates are
// immutable after this point.
func AssignPlan(ctx context.Context, store TxStore, plan *PaymentPlan, reg *Registration, now time.Time) ([]Installment, error) {
	installments, err := BuildSchedule(plan, reg, now)
	if err != nil {
		return nil, err
	}

	err = store.WithTx(ctx, func(s Store) error {
		existing, err := s.ListInstallmentsByRegistration(ctx, reg.ID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return &ValidationError{
				Field:   "registration_id",
				Message: "registration already has an installment schedule",
			}
		}
		if err := s.CreateInstallments(ctx, installments); err != nil {
			return err
		}

		reg.AmountPaid = decimal.Zero
		reg.RemainingAmount = reg.TotalAmount
		reg.PaymentStatus = RegistrationPending
		reg.UpdatedAt = now
		return s.UpdateRegistration(ctx, reg)
	})
	if err != nil {
		return nil, err
	}
	return installments, nil
}

// NewID returns a fresh opaque identifier.
func NewID() string { return uuid.NewString() }
