package admin

import (
	"time"

	"github.com/clubgate/clubgate/app"
	"github.com/clubgate/clubgate/domain/checkin"
	"github.com/clubgate/clubgate/domain/invoice"
	"github.com/clubgate/clubgate/domain/member"
	"github.com/clubgate/clubgate/domain/plan"
	"github.com/clubgate/clubgate/domain/subscription"
	"github.com/clubgate/clubgate/domain/transaction"
)

// PlanResponse represents a plan in API responses.
type PlanResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Price        string    `json:"price"`
	Duration     int       `json:"duration"`
	DurationUnit string    `json:"duration_unit"`
	Enabled      bool      `json:"enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toPlanResponse(p plan.Plan) PlanResponse {
	return PlanResponse{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price.String(),
		Duration:     p.Duration,
		DurationUnit: string(p.DurationUnit),
		Enabled:      p.Enabled,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// MemberResponse represents a member in API responses.
type MemberResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CompanyID string    `json:"company_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toMemberResponse(m member.Member) MemberResponse {
	return MemberResponse{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Phone:     m.Phone,
		CompanyID: m.CompanyID,
		CreatedAt: m.CreatedAt,
	}
}

// SubscriptionResponse represents a subscription in API responses.
type SubscriptionResponse struct {
	ID             string     `json:"id"`
	SubscriberType string     `json:"subscriber_type"`
	SubscriberID   string     `json:"subscriber_id"`
	PlanID         string     `json:"plan_id"`
	UnitPrice      string     `json:"unit_price"`
	BillingType    string     `json:"billing_type"`
	StartDate      time.Time  `json:"start_date"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func toSubscriptionResponse(s subscription.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:             s.ID,
		SubscriberType: string(s.SubscriberType),
		SubscriberID:   s.SubscriberID,
		PlanID:         s.PlanID,
		UnitPrice:      s.UnitPrice.String(),
		BillingType:    string(s.BillingType),
		StartDate:      s.StartDate,
		EndDate:        s.EndDate,
		Status:         string(s.Status),
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID                string    `json:"id"`
	SubscriptionID    string    `json:"subscription_id"`
	InvoiceID         string    `json:"invoice_id,omitempty"`
	AmountDue         string    `json:"amount_due"`
	AmountPaid        string    `json:"amount_paid"`
	Status            string    `json:"status"`
	CurrentExpiryDate time.Time `json:"current_expiry_date"`
	NextExpiryDate    time.Time `json:"next_expiry_date"`
	CreatedAt         time.Time `json:"created_at"`
}

func toTransactionResponse(t transaction.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                t.ID,
		SubscriptionID:    t.SubscriptionID,
		InvoiceID:         t.InvoiceID,
		AmountDue:         t.AmountDue.String(),
		AmountPaid:        t.AmountPaid.String(),
		Status:            string(t.Status),
		CurrentExpiryDate: t.CurrentExpiryDate,
		NextExpiryDate:    t.NextExpiryDate,
		CreatedAt:         t.CreatedAt,
	}
}

// InvoiceResponse represents an invoice in API responses.
type InvoiceResponse struct {
	ID             string     `json:"id"`
	SubscriptionID string     `json:"subscription_id"`
	Reference      string     `json:"reference"`
	Amount         string     `json:"amount"`
	TaxAmount      string     `json:"tax_amount"`
	DiscountAmount string     `json:"discount_amount"`
	TotalAmount    string     `json:"total_amount"`
	Currency       string     `json:"currency"`
	PeriodStart    time.Time  `json:"period_start"`
	PeriodEnd      time.Time  `json:"period_end"`
	Status         string     `json:"status"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toInvoiceResponse(i invoice.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:             i.ID,
		SubscriptionID: i.SubscriptionID,
		Reference:      i.Reference,
		Amount:         i.Amount.String(),
		TaxAmount:      i.TaxAmount.String(),
		DiscountAmount: i.DiscountAmount.String(),
		TotalAmount:    i.TotalAmount.String(),
		Currency:       i.Currency,
		PeriodStart:    i.PeriodStart,
		PeriodEnd:      i.PeriodEnd,
		Status:         string(i.Status),
		DueDate:        i.DueDate,
		PaidAt:         i.PaidAt,
		CreatedAt:      i.CreatedAt,
	}
}

// CheckInResponse represents a check-in in API responses.
type CheckInResponse struct {
	ID             string    `json:"id"`
	SubscriptionID string    `json:"subscription_id"`
	MemberID       string    `json:"member_id"`
	At             time.Time `json:"at"`
	Status         string    `json:"status"`
}

func toCheckInResponse(c checkin.CheckIn) CheckInResponse {
	return CheckInResponse{
		ID:             c.ID,
		SubscriptionID: c.SubscriptionID,
		MemberID:       c.MemberID,
		At:             c.At,
		Status:         string(c.Status),
	}
}

// RenewalTermsResponse represents classified renewal terms.
type RenewalTermsResponse struct {
	Kind        string    `json:"kind"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	CanRenewNow bool      `json:"can_renew_now"`
}

func toRenewalTermsResponse(t subscription.RenewalTerms) RenewalTermsResponse {
	return RenewalTermsResponse{
		Kind:        string(t.Kind),
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		CanRenewNow: t.CanRenewNow,
	}
}

// RenewalResponse is the outcome of a renewal.
type RenewalResponse struct {
	Terms       RenewalTermsResponse `json:"terms"`
	Invoice     InvoiceResponse      `json:"invoice"`
	Transaction TransactionResponse  `json:"transaction"`
}

func toRenewalResponse(r app.RenewalResult) RenewalResponse {
	return RenewalResponse{
		Terms:       toRenewalTermsResponse(r.Terms),
		Invoice:     toInvoiceResponse(r.Invoice),
		Transaction: toTransactionResponse(r.Transaction),
	}
}

// UpgradeResponse is the outcome of an upgrade.
type UpgradeResponse struct {
	Subscription SubscriptionResponse `json:"subscription"`
	Invoice      InvoiceResponse      `json:"invoice"`
	Transaction  *TransactionResponse `json:"transaction,omitempty"`
	Credit       string               `json:"credit"`
}

func toUpgradeResponse(r app.UpgradeResult) UpgradeResponse {
	resp := UpgradeResponse{
		Subscription: toSubscriptionResponse(r.Subscription),
		Invoice:      toInvoiceResponse(r.Invoice),
		Credit:       r.Credit.String(),
	}
	if r.Transaction != nil {
		txn := toTransactionResponse(*r.Transaction)
		resp.Transaction = &txn
	}
	return resp
}

func toPlanResponses(plans []plan.Plan) []PlanResponse {
	out := make([]PlanResponse, len(plans))
	for i, p := range plans {
		out[i] = toPlanResponse(p)
	}
	return out
}

func toMemberResponses(members []member.Member) []MemberResponse {
	out := make([]MemberResponse, len(members))
	for i, m := range members {
		out[i] = toMemberResponse(m)
	}
	return out
}

func toSubscriptionResponses(subs []subscription.Subscription) []SubscriptionResponse {
	out := make([]SubscriptionResponse, len(subs))
	for i, s := range subs {
		out[i] = toSubscriptionResponse(s)
	}
	return out
}

func toTransactionResponses(txns []transaction.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txns))
	for i, t := range txns {
		out[i] = toTransactionResponse(t)
	}
	return out
}

func toInvoiceResponses(invoices []invoice.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		out[i] = toInvoiceResponse(inv)
	}
	return out
}

func toCheckInResponses(checkins []checkin.CheckIn) []CheckInResponse {
	out := make([]CheckInResponse, len(checkins))
	for i, c := range checkins {
		out[i] = toCheckInResponse(c)
	}
	return out
}
