/*
report.go - Read-only payment reporting

PURPOSE:
  Aggregates payment state across an event's or a group's registrations
  for dashboards. No side effects: reports read installments and never
  touch the ledger.

SHAPE (per event and per group, same fields):
  totalExpected   sum of original amounts
  totalPaid       sum of paid amounts
  totalRemaining  sum of remaining amounts (fees included, discounts out)
  overdueAmount   remaining on overdue installments
  overdueCount    overdue installments
  paidCount       paid + waived installments
  pendingCount    pending + partial installments
*/
package billing

import (
	"context"

	"github.com/shopspring/decimal"
)

// PaymentReport is the aggregation consumed by dashboards, serialized to
// JSON by the API layer.
type PaymentReport struct {
	TotalExpected  decimal.Decimal `json:"total_expected"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	TotalRemaining decimal.Decimal `json:"total_remaining"`
	OverdueAmount  decimal.Decimal `json:"overdue_amount"`
	OverdueCount   int             `json:"overdue_count"`
	PaidCount      int             `json:"paid_count"`
	PendingCount   int             `json:"pending_count"`
}

// PaymentReportGenerator produces read-only aggregations.
type PaymentReportGenerator struct {
	store Store
}

func NewPaymentReportGenerator(store Store) *PaymentReportGenerator {
	return &PaymentReportGenerator{store: store}
}

// EventReport aggregates across every registration of an event.
func (g *PaymentReportGenerator) EventReport(ctx context.Context, eventID EventID) (*PaymentReport, error) {
	regs, err := g.store.ListRegistrationsByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return g.aggregate(ctx, regs)
}

// GroupReport aggregates across the registrations of one group.
func (g *PaymentReportGenerator) GroupReport(ctx context.Context, groupID GroupID) (*PaymentReport, error) {
	regs, err := g.store.ListRegistrationsByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return g.aggregate(ctx, regs)
}

func (g *PaymentReportGenerator) aggregate(ctx context.Context, regs []Registration) (*PaymentReport, error) {
	report := &PaymentReport{
		TotalExpected:  decimal.Zero,
		TotalPaid:      decimal.Zero,
		TotalRemaining: decimal.Zero,
		OverdueAmount:  decimal.Zero,
	}

	for i := range regs {
		installments, err := g.store.ListInstallmentsByRegistration(ctx, regs[i].ID)
		if err != nil {
			return nil, err
		}
		for j := range installments {
			inst := &installments[j]
			report.TotalExpected = report.TotalExpected.Add(inst.OriginalAmount)
			report.TotalPaid = report.TotalPaid.Add(inst.PaidAmount)
			report.TotalRemaining = report.TotalRemaining.Add(inst.RemainingAmount)

			switch inst.Status {
			case InstallmentOverdue:
				report.OverdueCount++
				report.OverdueAmount = report.OverdueAmount.Add(inst.RemainingAmount)
			case InstallmentPaid, InstallmentWaived:
				report.PaidCount++
			default:
				report.PendingCount++
			}
		}
	}

	report.TotalExpected = Round2(report.TotalExpected)
	report.TotalPaid = Round2(report.TotalPaid)
	report.TotalRemaining = Round2(report.TotalRemaining)
	report.OverdueAmount = Round2(report.OverdueAmount)
	return report, nil
}
