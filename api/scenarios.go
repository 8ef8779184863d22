/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	data for testing and demos. Each scenario creates plans, registrations,
	schedules, and ledger activity that demonstrate specific features.

AVAILABLE SCENARIOS:

	fresh-registration:  New registration on a monthly plan, nothing paid
	partial-payments:    Mixed paid/partial/pending installments
	paid-in-full:        Single installment settled with a cash discount
	overdue-late-fees:   Past-due schedule after overdue and late-fee sweeps
	group-discounts:     Troop registrations with a group discount applied

HOW SCENARIOS WORK:
 1. Create a plan via the factory presets
 2. Create registrations under a scenario-specific event
 3. Assign the plan, generating the installment schedule
 4. Record payments, discounts, and sweeps through the ledger

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "overdue-late-fees"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, h)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios append data under their own event IDs; they do not reset
	existing data. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: LoadScenario, ListScenarios handlers
  - factory/policy.go: Plan JSON presets
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/eventflow/payment-engine/billing"
	"github.com/eventflow/payment-engine/factory"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ScenarioDTO describes one loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "fresh-registration",
		Name:        "Fresh Registration",
		Description: "New registration on a 3-month plan, nothing paid yet",
		Category:    "schedule",
	},
	{
		ID:          "partial-payments",
		Name:        "Partial Payments",
		Description: "Payments spread across a schedule: paid, partial, pending",
		Category:    "ledger",
	},
	{
		ID:          "paid-in-full",
		Name:        "Paid In Full",
		Description: "Single installment settled after a cash discount",
		Category:    "discounts",
	},
	{
		ID:          "overdue-late-fees",
		Name:        "Overdue With Late Fees",
		Description: "Past-due installments flagged and charged by the sweeps",
		Category:    "sweeps",
	},
	{
		ID:          "group-discounts",
		Name:        "Group Discounts",
		Description: "Troop registrations with a group discount on the first installment",
		Category:    "discounts",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the most recently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	var err error
	switch req.ScenarioID {
	case "fresh-registration":
		err = h.loadFreshRegistrationScenario(ctx)
	case "partial-payments":
		err = h.loadPartialPaymentsScenario(ctx)
	case "paid-in-full":
		err = h.loadPaidInFullScenario(ctx)
	case "overdue-late-fees":
		err = h.loadOverdueLateFeesScenario(ctx)
	case "group-discounts":
		err = h.loadGroupDiscountsScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadFreshRegistrationScenario(ctx context.Context) error {
	plan, err := h.seedPlan(ctx, factory.MonthlyPlanJSON("plan-fresh", "evt-fresh", "Monthly over 3 months", 3))
	if err != nil {
		return err
	}

	reg, err := h.seedRegistration(ctx, "reg-fresh", "evt-fresh", "", "jordan@example.com", "Spring Retreat", "300.00")
	if err != nil {
		return err
	}

	_, err = billing.AssignPlan(ctx, h.Store, plan, reg, time.Now().UTC())
	return err
}

func (h *Handler) loadPartialPaymentsScenario(ctx context.Context) error {
	plan, err := h.seedPlan(ctx, factory.MonthlyPlanJSON("plan-partial", "evt-partial", "Monthly over 3 months", 3))
	if err != nil {
		return err
	}

	reg, err := h.seedRegistration(ctx, "reg-partial", "evt-partial", "", "sam@example.com", "Summer Camp", "300.00")
	if err != nil {
		return err
	}
	if _, err := billing.AssignPlan(ctx, h.Store, plan, reg, time.Now().UTC()); err != nil {
		return err
	}

	// One and a half installments paid: first settles, second goes partial.
	_, err = h.Ledger.RecordRegistrationPayment(ctx, reg.ID, billing.PaymentInput{
		Amount: billing.MustDecimal("150.00"),
		Method: billing.MethodCard,
		Notes:  "Initial deposit",
		Actor:  "organizer",
	})
	return err
}

func (h *Handler) loadPaidInFullScenario(ctx context.Context) error {
	plan, err := h.seedPlan(ctx, factory.PayInFullPlanJSON("plan-full", "evt-full", "Pay in full", 5))
	if err != nil {
		return err
	}

	reg, err := h.seedRegistration(ctx, "reg-full", "evt-full", "", "riley@example.com", "Winter Workshop", "200.00")
	if err != nil {
		return err
	}
	installments, err := billing.AssignPlan(ctx, h.Store, plan, reg, time.Now().UTC())
	if err != nil {
		return err
	}

	// Cash discount first, then one payment settles the reduced amount.
	first := installments[0].ID
	if _, err := h.Ledger.ApplyDiscount(ctx, billing.DiscountInput{
		InstallmentID: first,
		Amount:        billing.MustDecimal("10.00"),
		Notes:         "Cash discount (5%)",
		Actor:         "organizer",
	}); err != nil {
		return err
	}
	_, err = h.Ledger.RecordPayment(ctx, billing.PaymentInput{
		InstallmentID: first,
		Amount:        billing.MustDecimal("190.00"),
		Method:        billing.MethodCash,
		Notes:         "Paid in full at registration",
		Actor:         "organizer",
	})
	return err
}

func (h *Handler) loadOverdueLateFeesScenario(ctx context.Context) error {
	// Anchor the schedule two months back so the first installments are
	// already past due when the sweeps run.
	anchor := time.Now().UTC().AddDate(0, -2, 0)

	pj := factory.PlanJSON{
		ID:                   "plan-overdue",
		EventID:              "evt-overdue",
		Name:                 "Monthly with late fees",
		InstallmentCount:     4,
		Interval:             "monthly",
		FirstInstallmentDate: anchor.Format("2006-01-02"),
		LateFee: &factory.LateFeeJSON{
			GracePeriodDays: 5,
			FixedFee:        10,
			InterestRate:    2,
		},
	}
	raw, _ := json.Marshal(pj)
	plan, err := h.seedPlan(ctx, string(raw))
	if err != nil {
		return err
	}

	reg, err := h.seedRegistration(ctx, "reg-overdue", "evt-overdue", "", "casey@example.com", "Fall Expedition", "400.00")
	if err != nil {
		return err
	}
	if _, err := billing.AssignPlan(ctx, h.Store, plan, reg, anchor); err != nil {
		return err
	}

	now := time.Now().UTC()
	evt := billing.EventID("evt-overdue")
	if _, err := h.Recon.MarkOverdueSweep(ctx, now, &evt); err != nil {
		return err
	}
	_, err = h.Sweeper.Run(ctx, now, &evt)
	return err
}

func (h *Handler) loadGroupDiscountsScenario(ctx context.Context) error {
	pj := factory.PlanJSON{
		ID:               "plan-troop",
		EventID:          "evt-troop",
		Name:             "Troop monthly plan",
		InstallmentCount: 3,
		Interval:         "monthly",
		Discount: &factory.DiscountJSON{
			Groups: []factory.GroupDiscountJSON{
				{GroupID: "grp-troop-12", Percent: 10},
			},
		},
	}
	raw, _ := json.Marshal(pj)
	plan, err := h.seedPlan(ctx, string(raw))
	if err != nil {
		return err
	}

	members := []struct{ id, email string }{
		{"reg-troop-1", "taylor@example.com"},
		{"reg-troop-2", "morgan@example.com"},
	}
	for _, m := range members {
		reg, err := h.seedRegistration(ctx, m.id, "evt-troop", "grp-troop-12", m.email, "Jamboree", "300.00")
		if err != nil {
			return err
		}
		installments, err := billing.AssignPlan(ctx, h.Store, plan, reg, time.Now().UTC())
		if err != nil {
			return err
		}

		// Group discount on the first installment: 10% of 100.00.
		if _, err := h.Ledger.ApplyDiscount(ctx, billing.DiscountInput{
			InstallmentID: installments[0].ID,
			Amount:        billing.MustDecimal("10.00"),
			Notes:         "Group discount (grp-troop-12)",
			Actor:         "organizer",
		}); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// SEED HELPERS
// =============================================================================

func (h *Handler) seedPlan(ctx context.Context, planJSON string) (*billing.PaymentPlan, error) {
	plan, err := h.PlanFactory.ParsePlan(planJSON)
	if err != nil {
		return nil, err
	}
	if err := h.Store.SavePlan(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (h *Handler) seedRegistration(ctx context.Context, id, eventID, groupID, email, eventName, total string) (*billing.Registration, error) {
	now := time.Now().UTC()
	amount := billing.MustDecimal(total)
	reg := &billing.Registration{
		ID:               billing.RegistrationID(id),
		EventID:          billing.EventID(eventID),
		GroupID:          billing.GroupID(groupID),
		ParticipantEmail: email,
		EventName:        eventName,
		TotalAmount:      amount,
		RemainingAmount:  amount,
		PaymentStatus:    billing.RegistrationPending,
		RegisteredAt:     now,
		UpdatedAt:        now,
	}
	if err := h.Store.SaveRegistration(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}
