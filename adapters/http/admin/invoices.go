package admin

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clubgate/clubgate/app"
	"github.com/clubgate/clubgate/domain/money"
)

// InvoiceRequest is the create payload for an invoice.
type InvoiceRequest struct {
	SubscriptionID string `json:"subscription_id"`
	PeriodStart    string `json:"period_start,omitempty"` // RFC 3339
	PeriodEnd      string `json:"period_end,omitempty"`
	DiscountValue  string `json:"discount_value,omitempty"`
	DiscountKind   string `json:"discount_kind,omitempty"` // "percentage" or "fixed"
}

// CreateInvoice assembles an invoice for a billing period.
func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req InvoiceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	svcReq := app.InvoiceRequest{
		SubscriptionID: req.SubscriptionID,
		DiscountKind:   money.DiscountKind(req.DiscountKind),
	}

	var err error
	if req.PeriodStart != "" {
		svcReq.PeriodStart, err = time.Parse(time.RFC3339, req.PeriodStart)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "period_start is not RFC 3339")
			return
		}
	}
	if req.PeriodEnd != "" {
		svcReq.PeriodEnd, err = time.Parse(time.RFC3339, req.PeriodEnd)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "period_end is not RFC 3339")
			return
		}
	}
	if req.DiscountValue != "" {
		svcReq.DiscountValue, err = decimal.NewFromString(req.DiscountValue)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "discount_value is not a valid decimal")
			return
		}
	}

	inv, err := h.billing.CreateInvoice(r.Context(), svcReq)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInvoiceResponse(inv))
}

// GetInvoice returns one invoice.
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.billing.GetInvoice(r.Context(), urlParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
}

// ListSubscriptionInvoices returns a subscription's invoices.
func (h *Handler) ListSubscriptionInvoices(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	invoices, err := h.billing.ListInvoices(r.Context(), urlParam(r, "id"), limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"invoices": toInvoiceResponses(invoices)})
}

// SettleInvoice marks an invoice as paid.
func (h *Handler) SettleInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.billing.SettleInvoice(r.Context(), urlParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
}

// CancelInvoice voids an open invoice.
func (h *Handler) CancelInvoice(w http.ResponseWriter, r *http.Request) {
	if err := h.billing.CancelInvoice(r.Context(), urlParam(r, "id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TransactionRequest is the create payload for a payment transaction.
type TransactionRequest struct {
	SubscriptionID string `json:"subscription_id"`
	InvoiceID      string `json:"invoice_id,omitempty"`
	AmountDue      string `json:"amount_due,omitempty"`
}

// CreateTransaction opens a pending payment for a subscription. When
// amount_due is omitted the current amount due is used. An invoice_id
// ties the payment to that invoice, which is settled on completion.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var amount decimal.Decimal
	if req.AmountDue != "" {
		var err error
		amount, err = decimal.NewFromString(req.AmountDue)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "amount_due is not a valid decimal")
			return
		}
	} else {
		q, err := h.billing.AmountDue(r.Context(), req.SubscriptionID)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		amount = q.Amount
	}

	txn, err := h.lifecycle.CreateTransaction(r.Context(), req.SubscriptionID, req.InvoiceID, amount)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(txn))
}

// GetTransaction returns one transaction.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	txn, err := h.lifecycle.GetTransaction(r.Context(), urlParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(txn))
}

// CompleteRequest carries the paid amount.
type CompleteRequest struct {
	AmountPaid string `json:"amount_paid,omitempty"`
}

// CompleteTransaction settles a payment and extends the subscription.
func (h *Handler) CompleteTransaction(w http.ResponseWriter, r *http.Request) {
	var req CompleteRequest
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}

	var paid decimal.Decimal
	if req.AmountPaid != "" {
		var err error
		paid, err = decimal.NewFromString(req.AmountPaid)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "amount_paid is not a valid decimal")
			return
		}
	}

	txn, err := h.lifecycle.CompleteTransaction(r.Context(), urlParam(r, "id"), paid)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(txn))
}

// FailTransaction marks a pending payment as failed.
func (h *Handler) FailTransaction(w http.ResponseWriter, r *http.Request) {
	txn, err := h.lifecycle.FailTransaction(r.Context(), urlParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(txn))
}

// ExpireDue moves lapsed subscriptions to expired.
func (h *Handler) ExpireDue(w http.ResponseWriter, r *http.Request) {
	n, err := h.lifecycle.ExpireDue(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"expired": n})
}

// MarkOverdue flags open invoices past their due date.
func (h *Handler) MarkOverdue(w http.ResponseWriter, r *http.Request) {
	n, err := h.billing.MarkOverdue(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"overdue": n})
}
