/*
Package factory provides JSON to Go payment-plan conversion.

PURPOSE:
  Converts JSON plan definitions into billing.PaymentPlan objects. This
  enables plan configuration without code changes - event organizers can
  define plans in JSON, and the factory creates the proper Go structs.

WHY JSON?
  - Non-developers can modify plans
  - Easy integration with admin UI
  - Version control for plan definitions
  - Database storage of plan configs

JSON SCHEMA:
  {
    "id": "summer-camp-monthly",
    "event_id": "evt-summer-camp",
    "name": "Monthly over 6 months",
    "installment_count": 6,
    "interval": "monthly",
    "discount": {
      "cash": {"percent": 5},
      "groups": [{"group_id": "grp-troop-12", "percent": 10}],
      "early": {"days_before": 14, "percent": 2}
    },
    "late_fee": {
      "grace_period_days": 5,
      "fixed_fee": 10,
      "interest_rate": 2,
      "max_late_fee": 50
    }
  }

KEY FEATURES:
  - Validates JSON structure (struct tags + domain rules)
  - Sets sensible defaults (monthly interval, active status)
  - Rejects malformed policies before they reach the store

USAGE:
  factory := NewPlanFactory()

  plan, err := factory.ParsePlan(jsonString)
  if err != nil { ... }

  store.SavePlan(ctx, plan)

SEE ALSO:
  - billing/plan.go: PaymentPlan type and domain validation
  - api/handlers.go: HTTP surface that feeds this factory
*/
package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/eventflow/payment-engine/billing"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PlanJSON is the JSON representation of a payment plan.
type PlanJSON struct {
	ID                   string        `json:"id,omitempty"`
	EventID              string        `json:"event_id" validate:"required"`
	Name                 string        `json:"name" validate:"required"`
	InstallmentCount     int           `json:"installment_count" validate:"required,min=1,max=36"`
	Interval             string        `json:"interval,omitempty" validate:"omitempty,oneof=weekly biweekly monthly"`
	FirstInstallmentDate string        `json:"first_installment_date,omitempty"` // YYYY-MM-DD
	IsDefault            bool          `json:"is_default,omitempty"`
	Discount             *DiscountJSON `json:"discount,omitempty"`
	LateFee              *LateFeeJSON  `json:"late_fee,omitempty"`
}

// DiscountJSON represents discount configuration. All branches are optional;
// an absent branch simply never applies.
type DiscountJSON struct {
	Cash   *CashDiscountJSON   `json:"cash,omitempty"`
	Groups []GroupDiscountJSON `json:"groups,omitempty" validate:"dive"`
	Early  *EarlyDiscountJSON  `json:"early,omitempty"`
}

// CashDiscountJSON rewards paying the full amount in one go.
type CashDiscountJSON struct {
	Percent float64 `json:"percent" validate:"gt=0,lte=100"`
}

// GroupDiscountJSON grants a percentage to one registration group.
type GroupDiscountJSON struct {
	GroupID string  `json:"group_id" validate:"required"`
	Percent float64 `json:"percent" validate:"gt=0,lte=100"`
}

// EarlyDiscountJSON rewards paying ahead of the due date.
type EarlyDiscountJSON struct {
	DaysBefore int     `json:"days_before" validate:"min=1"`
	Percent    float64 `json:"percent" validate:"gt=0,lte=100"`
}

// LateFeeJSON represents late fee configuration.
type LateFeeJSON struct {
	GracePeriodDays int      `json:"grace_period_days" validate:"min=0"`
	FixedFee        float64  `json:"fixed_fee" validate:"min=0"`
	InterestRate    float64  `json:"interest_rate" validate:"min=0,lte=100"` // percent per 30 days
	MaxLateFee      *float64 `json:"max_late_fee,omitempty"`
}

// =============================================================================
// PLAN FACTORY
// =============================================================================

// PlanFactory converts JSON plans to billing.PaymentPlan structs.
type PlanFactory struct {
	validate *validator.Validate
}

// NewPlanFactory creates a new plan factory.
func NewPlanFactory() *PlanFactory {
	return &PlanFactory{validate: validator.New()}
}

// ParsePlan parses a JSON string into a validated PaymentPlan.
func (f *PlanFactory) ParsePlan(jsonStr string) (*billing.PaymentPlan, error) {
	var pj PlanJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return nil, fmt.Errorf("failed to parse plan JSON: %w", err)
	}
	return f.FromJSON(pj)
}

// FromJSON converts PlanJSON to a PaymentPlan. Structural validation runs
// first (struct tags), then the domain rules on billing.PaymentPlan.
func (f *PlanFactory) FromJSON(pj PlanJSON) (*billing.PaymentPlan, error) {
	if err := f.validate.Struct(pj); err != nil {
		return nil, &billing.ValidationError{Field: "plan", Message: err.Error(), Err: err}
	}

	id := pj.ID
	if id == "" {
		id = billing.NewID()
	}

	now := time.Now().UTC()
	plan := &billing.PaymentPlan{
		ID:               billing.PlanID(id),
		EventID:          billing.EventID(pj.EventID),
		Name:             pj.Name,
		InstallmentCount: pj.InstallmentCount,
		Interval:         parseInterval(pj.Interval),
		IsDefault:        pj.IsDefault,
		Status:           billing.PlanActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if pj.FirstInstallmentDate != "" {
		t, err := time.Parse("2006-01-02", pj.FirstInstallmentDate)
		if err != nil {
			return nil, &billing.ValidationError{
				Field:   "first_installment_date",
				Message: "expected YYYY-MM-DD",
				Err:     err,
			}
		}
		plan.FirstInstallmentDate = t
	}

	if pj.Discount != nil {
		plan.DiscountPolicy = parseDiscountPolicy(*pj.Discount)
	}
	if pj.LateFee != nil {
		plan.LateFeePolicy = parseLateFeePolicy(*pj.LateFee)
	}

	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return plan, nil
}

// ToJSON converts a PaymentPlan back to its JSON representation.
func (f *PlanFactory) ToJSON(plan *billing.PaymentPlan) PlanJSON {
	pj := PlanJSON{
		ID:               string(plan.ID),
		EventID:          string(plan.EventID),
		Name:             plan.Name,
		InstallmentCount: plan.InstallmentCount,
		Interval:         string(plan.Interval),
		IsDefault:        plan.IsDefault,
	}
	if !plan.FirstInstallmentDate.IsZero() {
		pj.FirstInstallmentDate = plan.FirstInstallmentDate.Format("2006-01-02")
	}

	dp := plan.DiscountPolicy
	if dp.Cash != nil || len(dp.Groups) > 0 || dp.Early != nil {
		dj := &DiscountJSON{}
		if dp.Cash != nil && dp.Cash.Enabled {
			dj.Cash = &CashDiscountJSON{Percent: toFloat(dp.Cash.Percent)}
		}
		for _, g := range dp.Groups {
			if !g.Enabled {
				continue
			}
			dj.Groups = append(dj.Groups, GroupDiscountJSON{
				GroupID: string(g.GroupID),
				Percent: toFloat(g.Percent),
			})
		}
		if dp.Early != nil && dp.Early.Enabled {
			dj.Early = &EarlyDiscountJSON{
				DaysBefore: dp.Early.DaysBefore,
				Percent:    toFloat(dp.Early.Percent),
			}
		}
		pj.Discount = dj
	}

	if lf := plan.LateFeePolicy; lf != nil {
		lj := &LateFeeJSON{
			GracePeriodDays: lf.GracePeriodDays,
			FixedFee:        toFloat(lf.FixedFee),
			InterestRate:    toFloat(lf.InterestRate),
		}
		if lf.MaxLateFee != nil {
			v := toFloat(*lf.MaxLateFee)
			lj.MaxLateFee = &v
		}
		pj.LateFee = lj
	}

	return pj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseInterval(s string) billing.InstallmentInterval {
	switch s {
	case "weekly":
		return billing.IntervalWeekly
	case "biweekly":
		return billing.IntervalBiweekly
	default:
		return billing.IntervalMonthly
	}
}

func parseDiscountPolicy(dj DiscountJSON) billing.DiscountPolicy {
	var dp billing.DiscountPolicy
	if dj.Cash != nil {
		dp.Cash = &billing.CashDiscount{
			Enabled: true,
			Percent: decimal.NewFromFloat(dj.Cash.Percent),
		}
	}
	for _, g := range dj.Groups {
		dp.Groups = append(dp.Groups, billing.GroupDiscount{
			GroupID: billing.GroupID(g.GroupID),
			Enabled: true,
			Percent: decimal.NewFromFloat(g.Percent),
		})
	}
	if dj.Early != nil {
		dp.Early = &billing.EarlyPaymentDiscount{
			Enabled:    true,
			DaysBefore: dj.Early.DaysBefore,
			Percent:    decimal.NewFromFloat(dj.Early.Percent),
		}
	}
	return dp
}

func parseLateFeePolicy(lj LateFeeJSON) *billing.LateFeePolicy {
	lf := &billing.LateFeePolicy{
		GracePeriodDays: lj.GracePeriodDays,
		FixedFee:        decimal.NewFromFloat(lj.FixedFee),
		InterestRate:    decimal.NewFromFloat(lj.InterestRate),
	}
	if lj.MaxLateFee != nil {
		max := decimal.NewFromFloat(*lj.MaxLateFee)
		lf.MaxLateFee = &max
	}
	return lf
}

func toFloat(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}

// =============================================================================
// PRESET PLANS
// =============================================================================

// MonthlyPlanJSON returns a JSON preset for an n-installment monthly plan
// with standard late fees. Useful for seeding and tests.
func MonthlyPlanJSON(id, eventID, name string, installments int) string {
	b, _ := json.Marshal(PlanJSON{
		ID:               id,
		EventID:          eventID,
		Name:             name,
		InstallmentCount: installments,
		Interval:         "monthly",
		LateFee: &LateFeeJSON{
			GracePeriodDays: 5,
			FixedFee:        10,
			InterestRate:    2,
		},
	})
	return string(b)
}

// PayInFullPlanJSON returns a JSON preset for a single-installment plan
// with a cash discount.
func PayInFullPlanJSON(id, eventID, name string, cashPercent float64) string {
	b, _ := json.Marshal(PlanJSON{
		ID:               id,
		EventID:          eventID,
		Name:             name,
		InstallmentCount: 1,
		Interval:         "monthly",
		Discount: &DiscountJSON{
			Cash: &CashDiscountJSON{Percent: cashPercent},
		},
	})
	return string(b)
}
