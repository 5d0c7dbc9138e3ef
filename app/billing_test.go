package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clubgate/clubgate/app"
	"github.com/clubgate/clubgate/domain/checkin"
	"github.com/clubgate/clubgate/domain/invoice"
	"github.com/clubgate/clubgate/domain/money"
	"github.com/clubgate/clubgate/domain/subscription"
)

func TestAmountDue_PerPass(t *testing.T) {
	f := newFixture(t)
	p := f.seedPlan(t, "passes", "15", 1, "months")
	sub := f.seedMemberSub(t, p.ID, subscription.BillingPerPass)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := f.membership.RecordCheckIn(ctx, sub.ID, sub.SubscriberID, checkin.StatusCompleted); err != nil {
			t.Fatal(err)
		}
	}
	// Failed check-ins are never billed.
	if _, err := f.membership.RecordCheckIn(ctx, sub.ID, sub.SubscriberID, checkin.StatusFailed); err != nil {
		t.Fatal(err)
	}

	q, err := f.billing.AmountDue(ctx, sub.ID)
	if err != nil {
		t.Fatalf("AmountDue error: %v", err)
	}
	if !q.Amount.Equal(decimal.NewFromInt(45)) {
		t.Errorf("Amount = %s, want 45", q.Amount)
	}
	if q.CheckIns != 3 {
		t.Errorf("CheckIns = %d, want 3", q.CheckIns)
	}
	if want := "3 passes x USD 15.00 = USD 45.00"; q.Description != want {
		t.Errorf("Description = %q, want %q", q.Description, want)
	}
}

func TestAmountDue_RetailFixed(t *testing.T) {
	f := newFixture(t)
	p := f.seedPlan(t, "quarterly", "50", 3, "months")
	sub := f.seedMemberSub(t, p.ID, subscription.BillingRetailFixed)

	q, err := f.billing.AmountDue(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("AmountDue error: %v", err)
	}
	if !q.Amount.Equal(decimal.NewFromInt(150)) {
		t.Errorf("Amount = %s, want 150", q.Amount)
	}
	if want := "USD 50.00 x 3 months = USD 150.00"; q.Description != want {
		t.Errorf("Description = %q, want %q", q.Description, want)
	}
}

func TestCreateInvoice_TotalInvariant(t *testing.T) {
	f := newFixture(t)
	p := f.seedPlan(t, "monthly", "100", 1, "months")
	sub := f.seedMemberSub(t, p.ID, subscription.BillingRetailFixed)

	inv, err := f.billing.CreateInvoice(context.Background(), app.InvoiceRequest{
		SubscriptionID: sub.ID,
		DiscountValue:  decimal.NewFromInt(20),
		DiscountKind:   money.DiscountPercentage,
	})
	if err != nil {
		t.Fatalf("CreateInvoice error: %v", err)
	}

	// 100 + 10% tax - 20% discount = 90.
	if !inv.Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Amount = %s, want 100", inv.Amount)
	}
	if !inv.TaxAmount.Equal(decimal.NewFromInt(10)) {
		t.Errorf("TaxAmount = %s, want 10", inv.TaxAmount)
	}
	if !inv.DiscountAmount.Equal(decimal.NewFromInt(20)) {
		t.Errorf("DiscountAmount = %s, want 20", inv.DiscountAmount)
	}
	if !inv.TotalAmount.Equal(decimal.NewFromInt(90)) {
		t.Errorf("TotalAmount = %s, want 90", inv.TotalAmount)
	}
	if err := inv.CheckTotal(); err != nil {
		t.Errorf("CheckTotal: %v", err)
	}
	if inv.Status != invoice.StatusPending {
		t.Errorf("Status = %s, want pending", inv.Status)
	}
	if inv.DueDate == nil {
		t.Fatal("DueDate = nil, want 14 days out")
	}
	if want := f.clock.Now().AddDate(0, 0, 14); !inv.DueDate.Equal(want) {
		t.Errorf("DueDate = %v, want %v", inv.DueDate, want)
	}
}

func TestCreateInvoice_SequentialReferences(t *testing.T) {
	f := newFixture(t)
	p := f.seedPlan(t, "monthly", "50", 1, "months")
	ctx := context.Background()

	first := f.seedMemberSub(t, p.ID, subscription.BillingRetailFixed)
	second := f.seedMemberSub(t, p.ID, subscription.BillingRetailFixed)

	a, err := f.billing.CreateInvoice(ctx, app.InvoiceRequest{SubscriptionID: first.ID})
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.billing.CreateInvoice(ctx, app.InvoiceRequest{SubscriptionID: second.ID})
	if err != nil {
		t.Fatal(err)
	}

	if a.Reference != "INV-202403-000001" {
		t.Errorf("first reference = %s, want INV-202403-000001", a.Reference)
	}
	if b.Reference != "INV-202403-000002" {
		t.Errorf("second reference = %s, want INV-202403-000002", b.Reference)
	}
}

func TestCreateInvoice_RandomReferences(t *testing.T) {
	f := newFixture(t)
	f.params.ReferenceScheme = "random"
	p := f.seedPlan(t, "monthly", "50", 1, "months")
	sub := f.seedMemberSub(t, p.ID, subscription.BillingRetailFixed)

	inv, err := f.billing.CreateInvoice(context.Background(), app.InvoiceRequest{SubscriptionID: sub.ID})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(inv.Reference, "INV-20240310-MS") {
		t.Errorf("reference = %s, want INV-20240310-MS prefix", inv.Reference)
	}
}

func TestCreateInvoice_OverlapGuard(t *testing.T) {
	f := newFixture(t)
	p := f.seedPlan(t, "monthly", "50", 1, "months")
	sub := f.seedMemberSub(t, p.ID, subscription.BillingRetailFixed)
	ctx := context.Background()

	if _, err := f.billing.CreateInvoice(ctx, app.InvoiceRequest{SubscriptionID: sub.ID}); err != nil {
		t.Fatal(err)
	}

	// Same period again while the first invoice is still open.
	_, err := f.billing.CreateInvoice(ctx, app.InvoiceRequest{SubscriptionID: sub.ID})
	if !errors.Is(err, app.ErrOverlap) {
		t.Fatalf("error = %v, want ErrOverlap", err)
	}

	// Settling the first invoice clears the guard.
	invs, err := f.billing.ListInvoices(ctx, sub.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.billing.SettleInvoice(ctx, invs[0].ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.billing.CreateInvoice(ctx, app.InvoiceRequest{SubscriptionID: sub.ID}); err != nil {
		t.Errorf("CreateInvoice after settle: %v", err)
	}
}

func TestCreateInvoice_PerPassBillsUniqueMemberDays(t *testing.T) {
	f := newFixture(t)
	f.params.TaxRatePercent = decimal.Zero
	p := f.seedPlan(t, "passes", "15", 1, "months")
	sub := f.seedMemberSub(t, p.ID, subscription.BillingPerPass)
	ctx := context.Background()

	// Two visits the same day count once; a second day counts again.
	for i := 0; i < 2; i++ {
		if _, err := f.membership.RecordCheckIn(ctx, sub.ID, sub.SubscriberID, checkin.StatusCompleted); err != nil {
			t.Fatal(err)
		}
	}
	f.clock.Advance(24 * time.Hour)
	if _, err := f.membership.RecordCheckIn(ctx, sub.ID, sub.SubscriberID, checkin.StatusCompleted); err != nil {
		t.Fatal(err)
	}

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)
	inv, err := f.billing.CreateInvoice(ctx, app.InvoiceRequest{
		SubscriptionID: sub.ID,
		PeriodStart:    start,
		PeriodEnd:      end,
	})
	if err != nil {
		t.Fatal(err)
	}

	if !inv.Amount.Equal(decimal.NewFromInt(30)) {
		t.Errorf("Amount = %s, want 30 (2 member-days x 15)", inv.Amount)
	}
}

func TestSettleInvoice_Conflicts(t *testing.T) {
	f := newFixture(t)
	p := f.seedPlan(t, "monthly", "50", 1, "months")
	sub := f.seedMemberSub(t, p.ID, subscription.BillingRetailFixed)
	ctx := context.Background()

	inv, err := f.billing.CreateInvoice(ctx, app.InvoiceRequest{SubscriptionID: sub.ID})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.billing.SettleInvoice(ctx, inv.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := f.billing.SettleInvoice(ctx, inv.ID); !errors.Is(err, app.ErrConflict) {
		t.Errorf("double settle: error = %v, want ErrConflict", err)
	}
	if err := f.billing.CancelInvoice(ctx, inv.ID); !errors.Is(err, app.ErrConflict) {
		t.Errorf("cancel settled: error = %v, want ErrConflict", err)
	}
}

func TestMarkOverdue(t *testing.T) {
	f := newFixture(t)
	p := f.seedPlan(t, "monthly", "50", 1, "months")
	sub := f.seedMemberSub(t, p.ID, subscription.BillingRetailFixed)
	ctx := context.Background()

	inv, err := f.billing.CreateInvoice(ctx, app.InvoiceRequest{SubscriptionID: sub.ID})
	if err != nil {
		t.Fatal(err)
	}

	n, err := f.billing.MarkOverdue(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("MarkOverdue before due date = %d, want 0", n)
	}

	f.clock.Advance(15 * 24 * time.Hour)

	n, err = f.billing.MarkOverdue(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("MarkOverdue after due date = %d, want 1", n)
	}

	got, err := f.billing.GetInvoice(ctx, inv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != invoice.StatusOverdue {
		t.Errorf("Status = %s, want overdue", got.Status)
	}

	// The sweep is idempotent.
	n, err = f.billing.MarkOverdue(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("second MarkOverdue = %d, want 0", n)
	}
}
