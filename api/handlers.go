/*
handlers.go - HTTP API handlers for the payment engine

PURPOSE:
  Exposes the installment billing engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Plans:
    GET    /api/plans/{id}                    Get plan
    POST   /api/plans                         Create plan from JSON config
    GET    /api/events/{id}/plans             Plans for an event

  Registrations:
    POST   /api/registrations                       Create registration
    GET    /api/registrations/{id}                  Get registration
    POST   /api/registrations/{id}/plan             Assign plan, build schedule
    GET    /api/registrations/{id}/installments     Installment schedule
    GET    /api/registrations/{id}/transactions     Audit trail
    POST   /api/registrations/{id}/payments         Payment, oldest-due-first
    POST   /api/registrations/{id}/reconcile        Recompute payment status

  Installments:
    GET    /api/installments/{id}                  Get installment
    POST   /api/installments/{id}/payments         Record payment
    POST   /api/installments/{id}/discounts        Apply discount/waiver
    GET    /api/installments/{id}/discount-quote   Quote policy discounts
    GET    /api/installments/{id}/transactions     Audit trail
    POST   /api/installments/{id}/rebuild          Replay ledger, verify state

  Gateway:
    POST   /api/callbacks/gateway             Settled-charge webhook

  Admin:
    POST   /api/admin/sweeps/late-fees        Charge accrued late fees
    POST   /api/admin/sweeps/overdue          Flag past-due installments

  Reports / reminders:
    GET    /api/events/{id}/report            Event payment report
    GET    /api/groups/{id}/report            Group payment report
    GET    /api/reminders/upcoming?days=N     Installments due soon
    GET    /api/reminders/overdue             Overdue installments

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access (any billing.TxStore)
  - Ledger / Recon / Sweeper / Reports / Reminders: domain services
  - PlanFactory: JSON to PaymentPlan conversion

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, settled installments
  - 404: Entity not found
  - 409: Idempotency replays, ledger/state divergence
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.
  Front with an authenticating proxy in production.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/eventflow/payment-engine/billing"
	"github.com/eventflow/payment-engine/factory"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       billing.TxStore
	Ledger      *billing.PaymentLedger
	Recon       *billing.ReconciliationService
	Sweeper     *billing.LateFeeSweeper
	Reports     *billing.PaymentReportGenerator
	Reminders   *billing.ReminderSelector
	PlanFactory *factory.PlanFactory

	validate *validator.Validate
	log      *logrus.Logger

	currentScenario string // last demo scenario loaded, if any
}

// NewHandler wires the domain services around the given store.
func NewHandler(store billing.TxStore, log *logrus.Logger) *Handler {
	ledger := billing.NewPaymentLedger(store, log)
	return &Handler{
		Store:       store,
		Ledger:      ledger,
		Recon:       billing.NewReconciliationService(store, log),
		Sweeper:     billing.NewLateFeeSweeper(store, ledger, log),
		Reports:     billing.NewPaymentReportGenerator(store),
		Reminders:   billing.NewReminderSelector(store),
		PlanFactory: factory.NewPlanFactory(),
		validate:    validator.New(),
		log:         log,
	}
}

// decodeAndValidate parses the request body and runs struct validation.
func (h *Handler) decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return h.validate.Struct(dst)
}

// =============================================================================
// PLAN HANDLERS
// =============================================================================

// CreatePlan creates a payment plan from a JSON config.
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	plan, err := h.PlanFactory.FromJSON(req.Config)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid plan config", err)
		return
	}

	if err := h.Store.SavePlan(r.Context(), plan); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save plan", err)
		return
	}

	writeJSON(w, http.StatusCreated, h.toPlanDTO(plan))
}

// GetPlan returns a single plan.
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id := billing.PlanID(chi.URLParam(r, "id"))

	plan, err := h.Store.GetPlan(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to get plan", err)
		return
	}
	writeJSON(w, http.StatusOK, h.toPlanDTO(plan))
}

// ListEventPlans returns all plans of an event.
func (h *Handler) ListEventPlans(w http.ResponseWriter, r *http.Request) {
	eventID := billing.EventID(chi.URLParam(r, "id"))

	plans, err := h.Store.ListPlansByEvent(r.Context(), eventID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list plans", err)
		return
	}

	dtos := make([]PlanDTO, len(plans))
	for i := range plans {
		dtos[i] = h.toPlanDTO(&plans[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) toPlanDTO(plan *billing.PaymentPlan) PlanDTO {
	return PlanDTO{
		ID:        string(plan.ID),
		EventID:   string(plan.EventID),
		Name:      plan.Name,
		Status:    string(plan.Status),
		Config:    h.PlanFactory.ToJSON(plan),
		CreatedAt: plan.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// REGISTRATION HANDLERS
// =============================================================================

// CreateRegistration creates a registration without a schedule. Attach a
// plan afterwards to generate installments.
func (h *Handler) CreateRegistration(w http.ResponseWriter, r *http.Request) {
	var req CreateRegistrationRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	registeredAt := time.Now().UTC()
	if req.RegisteredAt != "" {
		t, err := time.Parse("2006-01-02", req.RegisteredAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid registered_at format (use YYYY-MM-DD)", err)
			return
		}
		registeredAt = t
	}

	id := req.ID
	if id == "" {
		id = billing.NewID()
	}

	total := billing.Round2(decimal.NewFromFloat(req.TotalAmount))
	reg := &billing.Registration{
		ID:               billing.RegistrationID(id),
		EventID:          billing.EventID(req.EventID),
		GroupID:          billing.GroupID(req.GroupID),
		ParticipantEmail: req.ParticipantEmail,
		EventName:        req.EventName,
		TotalAmount:      total,
		AmountPaid:       decimal.Zero,
		RemainingAmount:  total,
		PaymentStatus:    billing.RegistrationPending,
		RegisteredAt:     registeredAt,
		UpdatedAt:        registeredAt,
	}

	if err := h.Store.SaveRegistration(r.Context(), reg); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create registration", err)
		return
	}

	writeJSON(w, http.StatusCreated, toRegistrationDTO(reg))
}

// GetRegistration returns a single registration.
func (h *Handler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	id := billing.RegistrationID(chi.URLParam(r, "id"))

	reg, err := h.Store.GetRegistration(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to get registration", err)
		return
	}
	writeJSON(w, http.StatusOK, toRegistrationDTO(reg))
}

// ListEventRegistrations returns all registrations of an event.
func (h *Handler) ListEventRegistrations(w http.ResponseWriter, r *http.Request) {
	eventID := billing.EventID(chi.URLParam(r, "id"))

	regs, err := h.Store.ListRegistrationsByEvent(r.Context(), eventID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list registrations", err)
		return
	}

	dtos := make([]RegistrationDTO, len(regs))
	for i := range regs {
		dtos[i] = toRegistrationDTO(&regs[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AssignPlan attaches a plan to a registration and generates its
// installment schedule. Fails if a schedule already exists.
func (h *Handler) AssignPlan(w http.ResponseWriter, r *http.Request) {
	regID := billing.RegistrationID(chi.URLParam(r, "id"))

	var req AssignPlanRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	plan, err := h.Store.GetPlan(ctx, billing.PlanID(req.PlanID))
	if err != nil {
		h.writeDomainError(w, "Failed to get plan", err)
		return
	}
	reg, err := h.Store.GetRegistration(ctx, regID)
	if err != nil {
		h.writeDomainError(w, "Failed to get registration", err)
		return
	}

	installments, err := billing.AssignPlan(ctx, h.Store, plan, reg, time.Now().UTC())
	if err != nil {
		h.writeDomainError(w, "Failed to assign plan", err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"registration_id": regID,
		"plan_id":         plan.ID,
		"installments":    len(installments),
	}).Info("plan assigned")

	writeJSON(w, http.StatusCreated, toInstallmentDTOs(installments))
}

// GetRegistrationInstallments returns the installment schedule.
func (h *Handler) GetRegistrationInstallments(w http.ResponseWriter, r *http.Request) {
	id := billing.RegistrationID(chi.URLParam(r, "id"))

	installments, err := h.Store.ListInstallmentsByRegistration(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list installments", err)
		return
	}
	writeJSON(w, http.StatusOK, toInstallmentDTOs(installments))
}

// GetRegistrationTransactions returns the registration's audit trail.
func (h *Handler) GetRegistrationTransactions(w http.ResponseWriter, r *http.Request) {
	id := billing.RegistrationID(chi.URLParam(r, "id"))

	txs, err := h.Store.ListTransactionsByRegistration(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transactions", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(txs))
}

// RecordRegistrationPayment records a payment against a registration,
// allocated across open installments oldest due date first.
func (h *Handler) RecordRegistrationPayment(w http.ResponseWriter, r *http.Request) {
	regID := billing.RegistrationID(chi.URLParam(r, "id"))

	var req RecordPaymentRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	touched, err := h.Ledger.RecordRegistrationPayment(r.Context(), regID, paymentInput(req))
	if err != nil {
		h.writeDomainError(w, "Failed to record payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toInstallmentDTOs(touched))
}

// ReconcileRegistration recomputes the registration's aggregates and
// payment status from its installments.
func (h *Handler) ReconcileRegistration(w http.ResponseWriter, r *http.Request) {
	id := billing.RegistrationID(chi.URLParam(r, "id"))

	reg, err := h.Recon.UpdateRegistrationPaymentStatus(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to reconcile registration", err)
		return
	}
	writeJSON(w, http.StatusOK, toRegistrationDTO(reg))
}

// =============================================================================
// INSTALLMENT HANDLERS
// =============================================================================

// GetInstallment returns a single installment.
func (h *Handler) GetInstallment(w http.ResponseWriter, r *http.Request) {
	id := billing.InstallmentID(chi.URLParam(r, "id"))

	inst, err := h.Store.GetInstallment(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to get installment", err)
		return
	}
	writeJSON(w, http.StatusOK, toInstallmentDTO(inst))
}

// RecordInstallmentPayment records a payment against one installment.
func (h *Handler) RecordInstallmentPayment(w http.ResponseWriter, r *http.Request) {
	id := billing.InstallmentID(chi.URLParam(r, "id"))

	var req RecordPaymentRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in := paymentInput(req)
	in.InstallmentID = id

	inst, err := h.Ledger.RecordPayment(r.Context(), in)
	if err != nil {
		h.writeDomainError(w, "Failed to record payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toInstallmentDTO(inst))
}

// ApplyDiscount applies a discount to an installment. With quote=true the
// amount comes from the plan's discount policy instead of the body.
func (h *Handler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	id := billing.InstallmentID(chi.URLParam(r, "id"))

	var req ApplyDiscountRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	amount := billing.Round2(decimal.NewFromFloat(req.Amount))
	notes := req.Notes

	if req.Quote {
		quote, err := h.quoteInstallment(ctx, id, time.Now().UTC())
		if err != nil {
			h.writeDomainError(w, "Failed to quote discount", err)
			return
		}
		amount = quote.Total
		if notes == "" {
			notes = "policy discount"
		}
	}

	inst, err := h.Ledger.ApplyDiscount(ctx, billing.DiscountInput{
		InstallmentID: id,
		Amount:        amount,
		Notes:         notes,
		Actor:         actorOrDefault(req.Actor),
	})
	if err != nil {
		h.writeDomainError(w, "Failed to apply discount", err)
		return
	}
	writeJSON(w, http.StatusCreated, toInstallmentDTO(inst))
}

// GetDiscountQuote quotes the plan's discount policy for an installment
// without applying anything. paid_at defaults to now.
func (h *Handler) GetDiscountQuote(w http.ResponseWriter, r *http.Request) {
	id := billing.InstallmentID(chi.URLParam(r, "id"))

	paidAt := time.Now().UTC()
	if s := r.URL.Query().Get("paid_at"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid paid_at format (use YYYY-MM-DD)", err)
			return
		}
		paidAt = t
	}

	quote, err := h.quoteInstallment(r.Context(), id, paidAt)
	if err != nil {
		h.writeDomainError(w, "Failed to quote discount", err)
		return
	}

	writeJSON(w, http.StatusOK, DiscountQuoteDTO{
		Cash:  quote.Cash.StringFixed(2),
		Group: quote.Group.StringFixed(2),
		Early: quote.Early.StringFixed(2),
		Total: quote.Total.StringFixed(2),
	})
}

func (h *Handler) quoteInstallment(ctx context.Context, id billing.InstallmentID, paidAt time.Time) (billing.DiscountQuote, error) {
	inst, err := h.Store.GetInstallment(ctx, id)
	if err != nil {
		return billing.DiscountQuote{}, err
	}
	plan, err := h.Store.GetPlan(ctx, inst.PlanID)
	if err != nil {
		return billing.DiscountQuote{}, err
	}
	reg, err := h.Store.GetRegistration(ctx, inst.RegistrationID)
	if err != nil {
		return billing.DiscountQuote{}, err
	}
	return billing.ComputeDiscount(inst, plan.DiscountPolicy, reg.GroupID, paidAt), nil
}

// GetInstallmentTransactions returns the installment's audit trail.
func (h *Handler) GetInstallmentTransactions(w http.ResponseWriter, r *http.Request) {
	id := billing.InstallmentID(chi.URLParam(r, "id"))

	txs, err := h.Store.ListTransactionsByInstallment(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transactions", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(txs))
}

// RebuildInstallment replays the installment's ledger and verifies the
// stored amounts match. 409 with details on divergence.
func (h *Handler) RebuildInstallment(w http.ResponseWriter, r *http.Request) {
	id := billing.InstallmentID(chi.URLParam(r, "id"))

	inst, err := h.Ledger.RebuildInstallment(r.Context(), id)
	if err != nil {
		var cerr *billing.ConsistencyError
		if errors.As(err, &cerr) {
			writeJSON(w, http.StatusConflict, ErrorResponse{
				Error: "Stored state diverges from ledger",
				Code:  "inconsistent_state",
				Details: map[string]string{
					"installment_id": string(cerr.InstallmentID),
					"field":          cerr.Field,
					"stored":         cerr.Stored,
					"derived":        cerr.Derived,
				},
			})
			return
		}
		h.writeDomainError(w, "Failed to rebuild installment", err)
		return
	}
	writeJSON(w, http.StatusOK, toInstallmentDTO(inst))
}

// =============================================================================
// GATEWAY CALLBACK
// =============================================================================

// GatewayCallback handles the payment gateway's settled-charge webhook.
// The gateway transaction ID is the idempotency key, so redeliveries
// return 200 without double-crediting.
func (h *Handler) GatewayCallback(w http.ResponseWriter, r *http.Request) {
	var req GatewayCallbackRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	paidAt := time.Now().UTC()
	if req.PaidAt != "" {
		t, err := time.Parse(time.RFC3339, req.PaidAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid paid_at format (use RFC3339)", err)
			return
		}
		paidAt = t
	}

	touched, err := h.Ledger.RecordRegistrationPayment(r.Context(),
		billing.RegistrationID(req.RegistrationID),
		billing.PaymentInput{
			Amount:         billing.Round2(decimal.NewFromFloat(req.Amount)),
			Method:         billing.MethodGateway,
			ExternalTxnID:  req.TransactionID,
			IdempotencyKey: req.TransactionID,
			Actor:          "gateway",
			Now:            paidAt,
		})
	if err != nil {
		if billing.IsConflict(err) {
			// Redelivery of a callback we already processed.
			writeJSON(w, http.StatusOK, map[string]string{"status": "already_processed"})
			return
		}
		h.writeDomainError(w, "Failed to process callback", err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"registration_id": req.RegistrationID,
		"external_txn_id": req.TransactionID,
		"installments":    len(touched),
	}).Info("gateway payment recorded")

	writeJSON(w, http.StatusCreated, toInstallmentDTOs(touched))
}

// =============================================================================
// ADMIN SWEEPS
// =============================================================================

// RunLateFeeSweep charges accrued late fees on overdue installments.
func (h *Handler) RunLateFeeSweep(w http.ResponseWriter, r *http.Request) {
	asOf, eventID, err := parseSweepRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.Sweeper.Run(r.Context(), asOf, eventID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Late fee sweep failed", err)
		return
	}

	writeJSON(w, http.StatusOK, LateFeeSweepDTO{
		Scanned: result.Scanned,
		Charged: result.Charged,
		Total:   result.Total.StringFixed(2),
	})
}

// RunOverdueSweep flags past-due installments and reconciles the affected
// registrations.
func (h *Handler) RunOverdueSweep(w http.ResponseWriter, r *http.Request) {
	asOf, eventID, err := parseSweepRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.Recon.MarkOverdueSweep(r.Context(), asOf, eventID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Overdue sweep failed", err)
		return
	}

	writeJSON(w, http.StatusOK, OverdueSweepDTO{
		Flagged:       result.Flagged,
		Registrations: result.Registrations,
	})
}

func parseSweepRequest(r *http.Request) (time.Time, *billing.EventID, error) {
	var req SweepRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return time.Time{}, nil, err
		}
	}

	asOf := time.Now().UTC()
	if req.AsOf != "" {
		t, err := time.Parse("2006-01-02", req.AsOf)
		if err != nil {
			return time.Time{}, nil, err
		}
		asOf = t
	}

	var eventID *billing.EventID
	if req.EventID != "" {
		id := billing.EventID(req.EventID)
		eventID = &id
	}
	return asOf, eventID, nil
}

// =============================================================================
// REPORTS AND REMINDERS
// =============================================================================

// EventReport aggregates payment state across an event.
func (h *Handler) EventReport(w http.ResponseWriter, r *http.Request) {
	eventID := billing.EventID(chi.URLParam(r, "id"))

	report, err := h.Reports.EventReport(r.Context(), eventID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build report", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GroupReport aggregates payment state across a group.
func (h *Handler) GroupReport(w http.ResponseWriter, r *http.Request) {
	groupID := billing.GroupID(chi.URLParam(r, "id"))

	report, err := h.Reports.GroupReport(r.Context(), groupID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build report", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// UpcomingReminders returns installments due within ?days (default 7).
func (h *Handler) UpcomingReminders(w http.ResponseWriter, r *http.Request) {
	days := 7
	if s := r.URL.Query().Get("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid days parameter", err)
			return
		}
		days = n
	}

	candidates, err := h.Reminders.UpcomingDue(r.Context(), time.Now().UTC(), days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list reminders", err)
		return
	}
	writeJSON(w, http.StatusOK, candidates)
}

// OverdueReminders returns overdue installments, optionally scoped to
// ?event_id.
func (h *Handler) OverdueReminders(w http.ResponseWriter, r *http.Request) {
	var eventID *billing.EventID
	if s := r.URL.Query().Get("event_id"); s != "" {
		id := billing.EventID(s)
		eventID = &id
	}

	candidates, err := h.Reminders.Overdue(r.Context(), time.Now().UTC(), eventID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list reminders", err)
		return
	}
	writeJSON(w, http.StatusOK, candidates)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

func paymentInput(req RecordPaymentRequest) billing.PaymentInput {
	method := billing.PaymentMethod(req.Method)
	if method == "" {
		method = billing.MethodManual
	}
	return billing.PaymentInput{
		Amount:         billing.Round2(decimal.NewFromFloat(req.Amount)),
		Method:         method,
		ExternalTxnID:  req.ExternalTxnID,
		Notes:          req.Notes,
		Actor:          actorOrDefault(req.Actor),
		IdempotencyKey: req.IdempotencyKey,
	}
}

func actorOrDefault(actor string) string {
	if actor == "" {
		return "organizer"
	}
	return actor
}

// writeDomainError maps domain errors to HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	var verr *billing.ValidationError
	switch {
	case billing.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case billing.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case billing.IsClientError(err), errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.log.WithError(err).Error(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
