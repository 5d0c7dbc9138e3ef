// Package invoice provides invoice value types, the amount/tax/discount
// assembler and reference formats.
package invoice

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clubgate/clubgate/domain/money"
)

// Status represents invoice state. It mirrors the transaction lifecycle
// with the two collection states on top.
type Status string

const (
	StatusPending       Status = "pending"
	StatusCompleted     Status = "completed"
	StatusFailed        Status = "failed"
	StatusCancelled     Status = "cancelled"
	StatusRefunded      Status = "refunded"
	StatusRejected      Status = "rejected"
	StatusPartiallyPaid Status = "partially_paid"
	StatusOverdue       Status = "overdue"
)

// ValidStatus reports whether s is a known status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusCancelled,
		StatusRefunded, StatusRejected, StatusPartiallyPaid, StatusOverdue:
		return true
	}
	return false
}

// Invoice represents a billing invoice (value type).
// TotalAmount always equals Amount + TaxAmount - DiscountAmount.
type Invoice struct {
	ID             string
	SubscriptionID string
	Reference      string
	Amount         decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
	Currency       string
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Status         Status
	DueDate        *time.Time
	PaidAt         *time.Time
	CreatedAt      time.Time
}

// IsOpen reports whether the invoice still awaits collection.
func (i Invoice) IsOpen() bool {
	switch i.Status {
	case StatusPending, StatusPartiallyPaid, StatusOverdue:
		return true
	}
	return false
}

// Build assembles a pending invoice: tax from the rate, discount
// clamped to the amount, total from the invariant. Reference, ID and
// CreatedAt are the caller's concern.
// This is a PURE function.
func Build(
	subscriptionID string,
	amount decimal.Decimal,
	taxRatePercent decimal.Decimal,
	discountValue decimal.Decimal,
	discountKind money.DiscountKind,
	currency string,
	periodStart, periodEnd time.Time,
) Invoice {
	amount = money.Round(amount)
	tax := money.Tax(amount, taxRatePercent)
	discount := money.Discount(amount, discountValue, discountKind)

	return Invoice{
		SubscriptionID: subscriptionID,
		Amount:         amount,
		TaxAmount:      tax,
		DiscountAmount: discount,
		TotalAmount:    amount.Add(tax).Sub(discount),
		Currency:       currency,
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,
		Status:         StatusPending,
	}
}

// CheckTotal verifies the total invariant; stores call it before any
// write.
func (i Invoice) CheckTotal() error {
	want := i.Amount.Add(i.TaxAmount).Sub(i.DiscountAmount)
	if !i.TotalAmount.Equal(want) {
		return fmt.Errorf("invoice %s total %s != amount %s + tax %s - discount %s",
			i.Reference, i.TotalAmount, i.Amount, i.TaxAmount, i.DiscountAmount)
	}
	if i.DiscountAmount.GreaterThan(i.Amount) {
		return fmt.Errorf("invoice %s discount %s exceeds amount %s",
			i.Reference, i.DiscountAmount, i.Amount)
	}
	return nil
}

// PeriodPrefix returns the shared reference prefix for the month of t,
// e.g. "INV-202403-".
// This is a PURE function.
func PeriodPrefix(t time.Time) string {
	return "INV-" + t.Format("200601") + "-"
}

// SequentialReference formats a period-scoped reference with a
// zero-padded sequence, e.g. "INV-202403-000042".
// This is a PURE function.
func SequentialReference(t time.Time, seq int64) string {
	return fmt.Sprintf("%s%06d", PeriodPrefix(t), seq)
}

// SequenceOf extracts the sequence from a reference carrying the given
// period prefix. Returns false for foreign or malformed references.
// This is a PURE function.
func SequenceOf(reference, prefix string) (int64, bool) {
	rest, ok := strings.CutPrefix(reference, prefix)
	if !ok {
		return 0, false
	}
	seq, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || seq < 0 {
		return 0, false
	}
	return seq, true
}

// RandomReference formats a date+subscription+random reference, e.g.
// "INV-20240310-MS7F2A-9C41". Uniqueness still rests on the store's
// unique constraint; the random suffix just makes collisions rare.
// This is a PURE function.
func RandomReference(t time.Time, subscriptionID, random string) string {
	return fmt.Sprintf("INV-%s-MS%s-%s",
		t.Format("20060102"), shortID(subscriptionID), strings.ToUpper(random))
}

// shortID keeps references human-sized for UUID subscription IDs.
func shortID(id string) string {
	id = strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
