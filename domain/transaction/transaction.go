// Package transaction provides payment transaction value types.
package transaction

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/clubgate/clubgate/domain/plan"
	"github.com/clubgate/clubgate/domain/subscription"
)

// Status represents transaction state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
	StatusRejected  Status = "rejected"
)

// ValidStatus reports whether s is a known status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusCancelled, StatusRefunded, StatusRejected:
		return true
	}
	return false
}

// Transaction represents one payment against a subscription (value
// type). CurrentExpiryDate and NextExpiryDate are snapshots taken once
// at creation and never recomputed, so the extension a completion
// applies is fixed the moment the transaction exists. InvoiceID links
// the payment to the invoice it settles; empty when the payment bills
// no particular invoice.
type Transaction struct {
	ID                string
	SubscriptionID    string
	InvoiceID         string
	AmountDue         decimal.Decimal
	AmountPaid        decimal.Decimal
	Status            Status
	CurrentExpiryDate time.Time
	NextExpiryDate    time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CanComplete reports whether the transaction may move to completed.
// Only pending transactions complete; a second completion attempt is a
// conflict, which is what keeps expiry extension once-per-transaction.
func (t Transaction) CanComplete() bool {
	return t.Status == StatusPending
}

// Build constructs a pending transaction for a subscription, snapshotting
// the expiry window. The current expiry is the subscription's end date
// while still in the future, otherwise now; the next expiry is one plan
// period past it. ID and timestamps are the caller's concern.
// This is a PURE function.
func Build(s subscription.Subscription, p plan.Plan, amountDue decimal.Decimal, now time.Time) Transaction {
	current := subscription.RolloverAnchor(s, now)
	return Transaction{
		SubscriptionID:    s.ID,
		AmountDue:         amountDue,
		Status:            StatusPending,
		CurrentExpiryDate: current,
		NextExpiryDate:    p.PeriodEnd(current),
	}
}
