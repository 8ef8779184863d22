/*
reminders.go - Reminder candidate lists for the notification sink

PURPOSE:
  Produces the candidate lists (upcoming-due, overdue) that the external
  notification system turns into reminder emails. The engine only selects
  and shapes candidates; delivery is out of scope.
*/
package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ReminderCandidate is the payload consumed by the notification sink.
type ReminderCandidate struct {
	RegistrationID    RegistrationID  `json:"registration_id"`
	ParticipantEmail  string          `json:"participant_email"`
	EventName         string          `json:"event_name"`
	InstallmentNumber int             `json:"installment_number"`
	Amount            decimal.Decimal `json:"amount"`
	DueDate           time.Time       `json:"due_date"`
}

// ReminderSelector builds candidate lists from installment state.
type ReminderSelector struct {
	store Store
}

func NewReminderSelector(store Store) *ReminderSelector {
	return &ReminderSelector{store: store}
}

// UpcomingDue returns candidates for installments due within the next
// `days` days of asOf, ordered by due date.
func (r *ReminderSelector) UpcomingDue(ctx context.Context, asOf time.Time, days int) ([]ReminderCandidate, error) {
	installments, err := r.store.ListInstallmentsDueWithin(ctx, asOf, days)
	if err != nil {
		return nil, err
	}
	return r.toCandidates(ctx, installments)
}

// Overdue returns candidates for installments past due as of asOf,
// optionally scoped to one event.
func (r *ReminderSelector) Overdue(ctx context.Context, asOf time.Time, eventID *EventID) ([]ReminderCandidate, error) {
	installments, err := r.store.ListInstallmentsOverdue(ctx, asOf, eventID)
	if err != nil {
		return nil, err
	}
	return r.toCandidates(ctx, installments)
}

func (r *ReminderSelector) toCandidates(ctx context.Context, installments []Installment) ([]ReminderCandidate, error) {
	regs := make(map[RegistrationID]*Registration)

	candidates := make([]ReminderCandidate, 0, len(installments))
	for i := range installments {
		inst := &installments[i]

		reg, ok := regs[inst.RegistrationID]
		if !ok {
			var err error
			reg, err = r.store.GetRegistration(ctx, inst.RegistrationID)
			if err != nil {
				return nil, err
			}
			regs[inst.RegistrationID] = reg
		}

		candidates = append(candidates, ReminderCandidate{
			RegistrationID:    inst.RegistrationID,
			ParticipantEmail:  reg.ParticipantEmail,
			EventName:         reg.EventName,
			InstallmentNumber: inst.Number,
			Amount:            inst.RemainingAmount,
			DueDate:           inst.DueDate,
		})
	}
	return candidates, nil
}
