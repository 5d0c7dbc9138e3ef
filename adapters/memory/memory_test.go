package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clubgate/clubgate/adapters/memory"
	"github.com/clubgate/clubgate/domain/checkin"
	"github.com/clubgate/clubgate/domain/invoice"
	"github.com/clubgate/clubgate/domain/money"
	"github.com/clubgate/clubgate/domain/plan"
	"github.com/clubgate/clubgate/domain/subscription"
	"github.com/clubgate/clubgate/ports"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPlanStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := memory.NewPlanStore()

	p := plan.Plan{ID: "monthly", Name: "Monthly", Price: decimal.NewFromInt(50)}
	if err := s.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(ctx, p); !errors.Is(err, ports.ErrDuplicate) {
		t.Errorf("duplicate Create = %v, want ErrDuplicate", err)
	}

	got, err := s.Get(ctx, "monthly")
	if err != nil || got.Name != "Monthly" {
		t.Errorf("Get = %+v, %v", got, err)
	}

	p.Name = "Monthly Gold"
	if err := s.Update(ctx, p); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := s.Delete(ctx, "monthly"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "monthly"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
}

func TestSubscriptionStoreVersioning(t *testing.T) {
	ctx := context.Background()
	s := memory.NewSubscriptionStore()

	sub := subscription.Subscription{ID: "sub-1", Status: subscription.StatusPending, Version: 1}
	if err := s.Create(ctx, sub); err != nil {
		t.Fatalf("Create: %v", err)
	}

	sub.Status = subscription.StatusInProgress
	if err := s.UpdateVersioned(ctx, sub, 1); err != nil {
		t.Fatalf("UpdateVersioned: %v", err)
	}

	got, _ := s.Get(ctx, "sub-1")
	if got.Version != 2 {
		t.Errorf("Version = %d, want 2", got.Version)
	}

	// Stale writer loses.
	sub.Status = subscription.StatusCancelled
	if err := s.UpdateVersioned(ctx, sub, 1); !errors.Is(err, ports.ErrVersionConflict) {
		t.Errorf("stale UpdateVersioned = %v, want ErrVersionConflict", err)
	}

	got, _ = s.Get(ctx, "sub-1")
	if got.Status != subscription.StatusInProgress {
		t.Errorf("stale write leaked: status = %s", got.Status)
	}
}

func newInvoice(id, ref, subID string, start, end time.Time) invoice.Invoice {
	inv := invoice.Build(subID, decimal.NewFromInt(100), decimal.Zero, decimal.Zero,
		money.DiscountFixed, "USD", start, end)
	inv.ID = id
	inv.Reference = ref
	inv.CreatedAt = start
	return inv
}

func TestInvoiceStoreReferenceUniqueness(t *testing.T) {
	ctx := context.Background()
	s := memory.NewInvoiceStore()

	inv := newInvoice("inv-1", "INV-202403-000001", "sub-1", date(2024, 3, 1), date(2024, 4, 1))
	if err := s.Create(ctx, inv); err != nil {
		t.Fatalf("Create: %v", err)
	}

	dup := newInvoice("inv-2", "INV-202403-000001", "sub-2", date(2024, 3, 1), date(2024, 4, 1))
	if err := s.Create(ctx, dup); !errors.Is(err, ports.ErrDuplicate) {
		t.Errorf("duplicate reference Create = %v, want ErrDuplicate", err)
	}
}

func TestInvoiceStoreLastReference(t *testing.T) {
	ctx := context.Background()
	s := memory.NewInvoiceStore()

	if _, err := s.LastReference(ctx, "INV-202403-"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("empty LastReference = %v, want ErrNotFound", err)
	}

	refs := []string{"INV-202403-000001", "INV-202403-000007", "INV-202402-000099"}
	for i, ref := range refs {
		inv := newInvoice("inv-"+ref, ref, "sub-1", date(2024, 3, 1).AddDate(0, 0, i), date(2024, 4, 1))
		if err := s.Create(ctx, inv); err != nil {
			t.Fatalf("Create %s: %v", ref, err)
		}
	}

	last, err := s.LastReference(ctx, "INV-202403-")
	if err != nil || last != "INV-202403-000007" {
		t.Errorf("LastReference = %q, %v", last, err)
	}
}

func TestInvoiceStoreFindOpenOverlap(t *testing.T) {
	ctx := context.Background()
	s := memory.NewInvoiceStore()

	inv := newInvoice("inv-1", "INV-202403-000001", "sub-1", date(2024, 3, 1), date(2024, 4, 1))
	if err := s.Create(ctx, inv); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := s.FindOpenOverlap(ctx, "sub-1", date(2024, 3, 15), date(2024, 4, 15)); err != nil {
		t.Errorf("overlapping period: %v, want match", err)
	}
	if _, err := s.FindOpenOverlap(ctx, "sub-1", date(2024, 5, 1), date(2024, 6, 1)); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("disjoint period = %v, want ErrNotFound", err)
	}
	if _, err := s.FindOpenOverlap(ctx, "sub-2", date(2024, 3, 15), date(2024, 4, 15)); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("other subscription = %v, want ErrNotFound", err)
	}

	// Settled invoices don't block.
	if err := s.UpdateStatus(ctx, "inv-1", invoice.StatusCompleted, nil); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if _, err := s.FindOpenOverlap(ctx, "sub-1", date(2024, 3, 15), date(2024, 4, 15)); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("settled invoice still blocks: %v", err)
	}
}

func TestCheckInStoreCounts(t *testing.T) {
	ctx := context.Background()
	s := memory.NewCheckInStore()

	add := func(id, memberID string, at time.Time, status checkin.Status) {
		t.Helper()
		err := s.Create(ctx, checkin.CheckIn{
			ID: id, SubscriptionID: "sub-1", MemberID: memberID, At: at, Status: status,
		})
		if err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}

	add("c1", "m1", date(2024, 6, 1).Add(9*time.Hour), checkin.StatusCompleted)
	add("c2", "m1", date(2024, 6, 1).Add(18*time.Hour), checkin.StatusCompleted)
	add("c3", "m2", date(2024, 6, 1).Add(10*time.Hour), checkin.StatusCompleted)
	add("c4", "m1", date(2024, 6, 2), checkin.StatusCompleted)
	add("c5", "m2", date(2024, 6, 2), checkin.StatusFailed)

	count, err := s.CountCompleted(ctx, "sub-1")
	if err != nil || count != 4 {
		t.Errorf("CountCompleted = %d, %v, want 4", count, err)
	}

	days, err := s.UniqueMemberDays(ctx, "sub-1", date(2024, 6, 1), date(2024, 6, 30))
	if err != nil || days != 3 {
		t.Errorf("UniqueMemberDays = %d, %v, want 3", days, err)
	}
}
