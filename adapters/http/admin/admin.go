// Package admin provides HTTP handlers for the Admin API.
package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/clubgate/clubgate/app"
	"github.com/clubgate/clubgate/ports"
)

// Handler provides admin API endpoints.
type Handler struct {
	membership *app.MembershipService
	billing    *app.BillingService
	lifecycle  *app.LifecycleService
	renewal    *app.RenewalService
	logger     zerolog.Logger
}

// Deps contains dependencies for the admin handler.
type Deps struct {
	Membership *app.MembershipService
	Billing    *app.BillingService
	Lifecycle  *app.LifecycleService
	Renewal    *app.RenewalService
	Logger     zerolog.Logger
}

// NewHandler creates a new admin API handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		membership: deps.Membership,
		billing:    deps.Billing,
		lifecycle:  deps.Lifecycle,
		renewal:    deps.Renewal,
		logger:     deps.Logger,
	}
}

// Router returns the admin API router.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	// Plans
	r.Get("/plans", h.ListPlans)
	r.Post("/plans", h.CreatePlan)
	r.Get("/plans/{id}", h.GetPlan)
	r.Put("/plans/{id}", h.UpdatePlan)
	r.Delete("/plans/{id}", h.DeletePlan)

	// Members
	r.Get("/members", h.ListMembers)
	r.Post("/members", h.CreateMember)
	r.Get("/members/{id}", h.GetMember)
	r.Get("/members/{id}/subscriptions", h.ListMemberSubscriptions)

	// Subscriptions
	r.Post("/subscriptions", h.CreateSubscription)
	r.Get("/subscriptions/{id}", h.GetSubscription)
	r.Put("/subscriptions/{id}/status", h.SetSubscriptionStatus)
	r.Get("/subscriptions/{id}/amount-due", h.AmountDue)
	r.Get("/subscriptions/{id}/renewal", h.PreviewRenewal)
	r.Post("/subscriptions/{id}/renew", h.Renew)
	r.Post("/subscriptions/{id}/upgrade", h.Upgrade)
	r.Post("/subscriptions/{id}/checkins", h.RecordCheckIn)
	r.Get("/subscriptions/{id}/checkins", h.ListCheckIns)
	r.Get("/subscriptions/{id}/transactions", h.ListTransactions)
	r.Get("/subscriptions/{id}/invoices", h.ListSubscriptionInvoices)

	// Transactions
	r.Post("/transactions", h.CreateTransaction)
	r.Get("/transactions/{id}", h.GetTransaction)
	r.Post("/transactions/{id}/complete", h.CompleteTransaction)
	r.Post("/transactions/{id}/fail", h.FailTransaction)

	// Invoices
	r.Post("/invoices", h.CreateInvoice)
	r.Get("/invoices/{id}", h.GetInvoice)
	r.Post("/invoices/{id}/settle", h.SettleInvoice)
	r.Post("/invoices/{id}/cancel", h.CancelInvoice)

	// Sweeps
	r.Post("/sweeps/expire", h.ExpireDue)
	r.Post("/sweeps/overdue", h.MarkOverdue)

	return r
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// writeServiceError maps the service sentinels onto status codes.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, app.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, app.ErrNotEligible):
		writeError(w, http.StatusUnprocessableEntity, "not_eligible", err.Error())
	case errors.Is(err, app.ErrOverlap):
		writeError(w, http.StatusConflict, "period_overlap", err.Error())
	case errors.Is(err, app.ErrConflict), errors.Is(err, ports.ErrVersionConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, ports.ErrDuplicate):
		writeError(w, http.StatusConflict, "duplicate", err.Error())
	default:
		h.logger.Error().Err(err).Msg("admin request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return false
	}
	return true
}

func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}
