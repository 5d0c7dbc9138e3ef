package admin

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/clubgate/clubgate/app"
	"github.com/clubgate/clubgate/domain/checkin"
	"github.com/clubgate/clubgate/domain/subscription"
)

// SubscriptionRequest is the create payload for a subscription.
type SubscriptionRequest struct {
	SubscriberType string `json:"subscriber_type"`
	SubscriberID   string `json:"subscriber_id"`
	PlanID         string `json:"plan_id"`
	BillingType    string `json:"billing_type"`
	UnitPrice      string `json:"unit_price,omitempty"`
}

// CreateSubscription creates a pending subscription.
func (h *Handler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req SubscriptionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	price := decimal.Zero
	if req.UnitPrice != "" {
		var err error
		price, err = decimal.NewFromString(req.UnitPrice)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unit_price is not a valid decimal")
			return
		}
	}

	sub, err := h.lifecycle.CreateSubscription(r.Context(), app.SubscriptionRequest{
		SubscriberType: subscription.SubscriberType(req.SubscriberType),
		SubscriberID:   req.SubscriberID,
		PlanID:         req.PlanID,
		BillingType:    subscription.BillingType(req.BillingType),
		UnitPrice:      price,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubscriptionResponse(sub))
}

// GetSubscription returns one subscription.
func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.lifecycle.GetSubscription(r.Context(), urlParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

// ListMemberSubscriptions returns a member's subscriptions.
func (h *Handler) ListMemberSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.lifecycle.ListSubscriptions(r.Context(),
		subscription.SubscriberMember, urlParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"subscriptions": toSubscriptionResponses(subs)})
}

// StatusRequest carries a target status.
type StatusRequest struct {
	Status string `json:"status"`
}

// SetSubscriptionStatus moves a subscription to a new status.
func (h *Handler) SetSubscriptionStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sub, err := h.lifecycle.SetSubscriptionStatus(r.Context(),
		urlParam(r, "id"), subscription.Status(req.Status))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

// AmountDue returns the current amount due with its formula.
func (h *Handler) AmountDue(w http.ResponseWriter, r *http.Request) {
	q, err := h.billing.AmountDue(r.Context(), urlParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"amount":      q.Amount.String(),
		"description": q.Description,
		"check_ins":   q.CheckIns,
	})
}

// PreviewRenewal classifies a renewal without executing it.
func (h *Handler) PreviewRenewal(w http.ResponseWriter, r *http.Request) {
	terms, err := h.renewal.Preview(r.Context(), urlParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRenewalTermsResponse(terms))
}

// RenewRequest carries the renewal flags.
type RenewRequest struct {
	Force bool `json:"force,omitempty"`
}

// Renew bills the next plan period.
func (h *Handler) Renew(w http.ResponseWriter, r *http.Request) {
	var req RenewRequest
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}

	res, err := h.renewal.Renew(r.Context(), urlParam(r, "id"), req.Force)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRenewalResponse(res))
}

// UpgradeRequest carries the target plan.
type UpgradeRequest struct {
	PlanID string `json:"plan_id"`
}

// Upgrade moves the subscription to a new plan with proration.
func (h *Handler) Upgrade(w http.ResponseWriter, r *http.Request) {
	var req UpgradeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.renewal.Upgrade(r.Context(), urlParam(r, "id"), req.PlanID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUpgradeResponse(res))
}

// CheckInRequest is the payload for recording a visit.
type CheckInRequest struct {
	MemberID string `json:"member_id"`
	Status   string `json:"status,omitempty"`
}

// RecordCheckIn records a gym visit.
func (h *Handler) RecordCheckIn(w http.ResponseWriter, r *http.Request) {
	var req CheckInRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Status == "" {
		req.Status = string(checkin.StatusCompleted)
	}

	c, err := h.membership.RecordCheckIn(r.Context(),
		urlParam(r, "id"), req.MemberID, checkin.Status(req.Status))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCheckInResponse(c))
}

// ListCheckIns returns recent check-ins for a subscription.
func (h *Handler) ListCheckIns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	checkins, err := h.membership.ListCheckIns(r.Context(), urlParam(r, "id"), limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"checkins": toCheckInResponses(checkins)})
}

// ListTransactions returns a subscription's transactions.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.lifecycle.ListTransactions(r.Context(), urlParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": toTransactionResponses(txns)})
}
