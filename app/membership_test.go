package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/clubgate/clubgate/app"
	"github.com/clubgate/clubgate/domain/checkin"
	"github.com/clubgate/clubgate/domain/plan"
	"github.com/clubgate/clubgate/domain/subscription"
	"github.com/clubgate/clubgate/ports"
)

func TestPlanCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.seedPlan(t, "monthly", "49.90", 1, "months")

	got, err := f.membership.GetPlan(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPlan error: %v", err)
	}
	if !got.Price.Equal(decimal.RequireFromString("49.90")) {
		t.Errorf("Price = %s, want 49.90", got.Price)
	}

	got.Name = "Monthly Gold"
	if _, err := f.membership.UpdatePlan(ctx, got); err != nil {
		t.Fatalf("UpdatePlan error: %v", err)
	}
	got, err = f.membership.GetPlan(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Monthly Gold" {
		t.Errorf("Name = %s, want Monthly Gold", got.Name)
	}

	if err := f.membership.DeletePlan(ctx, p.ID); err != nil {
		t.Fatalf("DeletePlan error: %v", err)
	}
	if _, err := f.membership.GetPlan(ctx, p.ID); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("GetPlan after delete: error = %v, want ErrNotFound", err)
	}
}

func TestCreatePlan_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	nameless, err := app.PlanFromSeed("p1", "", "10", 1, "months", true)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.membership.CreatePlan(ctx, nameless); !errors.Is(err, app.ErrValidation) {
		t.Errorf("nameless plan: error = %v, want ErrValidation", err)
	}

	if _, err := app.PlanFromSeed("p2", "P2", "cheap", 1, "months", true); !errors.Is(err, app.ErrValidation) {
		t.Errorf("bad price: error = %v, want ErrValidation", err)
	}
}

func TestUpdatePlan_ZeroDurationDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.seedPlan(t, "quarterly", "120", 3, "months")

	p.Duration = 0
	updated, err := f.membership.UpdatePlan(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Duration != 1 {
		t.Errorf("Duration = %d, want 1", updated.Duration)
	}
	start := f.clock.Now()
	if !updated.PeriodEnd(start).After(start) {
		t.Error("PeriodEnd not after start, zero-length period")
	}

	p.Duration = -1
	if _, err := f.membership.UpdatePlan(ctx, p); !errors.Is(err, app.ErrValidation) {
		t.Errorf("negative duration: error = %v, want ErrValidation", err)
	}
}

func TestSeedPlans_SkipsExisting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.seedPlan(t, "monthly", "50", 1, "months")
	p.Name = "Edited At Runtime"
	if _, err := f.membership.UpdatePlan(ctx, p); err != nil {
		t.Fatal(err)
	}

	seed, err := app.PlanFromSeed("monthly", "monthly", "50", 1, "months", true)
	if err != nil {
		t.Fatal(err)
	}
	other, err := app.PlanFromSeed("annual", "Annual", "500", 1, "years", true)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.membership.SeedPlans(ctx, []plan.Plan{seed, other}); err != nil {
		t.Fatalf("SeedPlans error: %v", err)
	}

	got, err := f.membership.GetPlan(ctx, "monthly")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Edited At Runtime" {
		t.Errorf("seed overwrote runtime edit: Name = %s", got.Name)
	}
	if _, err := f.membership.GetPlan(ctx, "annual"); err != nil {
		t.Errorf("new seed not created: %v", err)
	}
}

func TestRecordCheckIn_TerminalSubscription(t *testing.T) {
	f := newFixture(t)
	p := f.seedPlan(t, "monthly", "50", 1, "months")
	sub := f.seedMemberSub(t, p.ID, subscription.BillingPerPass)
	ctx := context.Background()

	if _, err := f.lifecycle.SetSubscriptionStatus(ctx, sub.ID, subscription.StatusCancelled); err != nil {
		t.Fatal(err)
	}

	_, err := f.membership.RecordCheckIn(ctx, sub.ID, sub.SubscriberID, checkin.StatusCompleted)
	if !errors.Is(err, app.ErrNotEligible) {
		t.Errorf("error = %v, want ErrNotEligible", err)
	}
}

func TestRecordCheckIn_UnknownStatus(t *testing.T) {
	f := newFixture(t)
	p := f.seedPlan(t, "monthly", "50", 1, "months")
	sub := f.seedMemberSub(t, p.ID, subscription.BillingPerPass)

	_, err := f.membership.RecordCheckIn(context.Background(), sub.ID, sub.SubscriberID, "tailgated")
	if !errors.Is(err, app.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}
