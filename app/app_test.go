package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/clubgate/clubgate/adapters/clock"
	"github.com/clubgate/clubgate/adapters/idgen"
	"github.com/clubgate/clubgate/adapters/memory"
	"github.com/clubgate/clubgate/adapters/metrics"
	"github.com/clubgate/clubgate/adapters/random"
	"github.com/clubgate/clubgate/app"
	"github.com/clubgate/clubgate/domain/member"
	"github.com/clubgate/clubgate/domain/plan"
	"github.com/clubgate/clubgate/domain/subscription"
)

// fixture wires the services over in-memory stores with a fake clock.
type fixture struct {
	clock      *clock.Fake
	plans      *memory.PlanStore
	members    *memory.MemberStore
	subs       *memory.SubscriptionStore
	txns       *memory.TransactionStore
	invoices   *memory.InvoiceStore
	checkins   *memory.CheckInStore
	membership *app.MembershipService
	billing    *app.BillingService
	lifecycle  *app.LifecycleService
	renewal    *app.RenewalService
	params     app.BillingParams
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		clock:    clock.NewFake(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)),
		plans:    memory.NewPlanStore(),
		members:  memory.NewMemberStore(),
		subs:     memory.NewSubscriptionStore(),
		txns:     memory.NewTransactionStore(),
		invoices: memory.NewInvoiceStore(),
		checkins: memory.NewCheckInStore(),
		params: app.BillingParams{
			Currency:        "USD",
			TaxRatePercent:  decimal.NewFromInt(10),
			ReferenceScheme: "sequential",
			DueDays:         14,
		},
	}

	ids := idgen.NewSequential("id-")
	collector := metrics.NewWith(prometheus.NewRegistry())
	logger := zerolog.Nop()

	f.membership = app.NewMembershipService(f.plans, f.members, f.subs, f.checkins, f.clock, ids, logger)
	f.billing = app.NewBillingService(f.subs, f.plans, f.invoices, f.checkins, f.clock, ids,
		random.NewFake(), func() app.BillingParams { return f.params }, collector, logger)
	f.lifecycle = app.NewLifecycleService(f.subs, f.plans, f.members, f.txns, f.invoices, f.clock, ids, collector, logger)
	f.renewal = app.NewRenewalService(f.subs, f.plans, f.billing, f.lifecycle, f.clock, collector, logger)
	return f
}

func (f *fixture) seedPlan(t *testing.T, id, price string, duration int, unit string) plan.Plan {
	t.Helper()
	p, err := app.PlanFromSeed(id, id, price, duration, unit, true)
	if err != nil {
		t.Fatalf("seed plan %s: %v", id, err)
	}
	created, err := f.membership.CreatePlan(context.Background(), p)
	if err != nil {
		t.Fatalf("create plan %s: %v", id, err)
	}
	return created
}

func (f *fixture) seedMemberSub(t *testing.T, planID string, billing subscription.BillingType) subscription.Subscription {
	t.Helper()
	ctx := context.Background()

	m, err := f.membership.CreateMember(ctx, memberNamed("Ada"))
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	sub, err := f.lifecycle.CreateSubscription(ctx, app.SubscriptionRequest{
		SubscriberType: subscription.SubscriberMember,
		SubscriberID:   m.ID,
		PlanID:         planID,
		BillingType:    billing,
	})
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	return sub
}

// activate pays the first transaction so the subscription becomes
// in_progress with one full period on the clock.
func (f *fixture) activate(t *testing.T, subID string) subscription.Subscription {
	t.Helper()
	ctx := context.Background()

	txn, err := f.lifecycle.CreateTransaction(ctx, subID, "", decimal.NewFromInt(50))
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if _, err := f.lifecycle.CompleteTransaction(ctx, txn.ID, decimal.Zero); err != nil {
		t.Fatalf("complete transaction: %v", err)
	}
	sub, err := f.lifecycle.GetSubscription(ctx, subID)
	if err != nil {
		t.Fatalf("get subscription: %v", err)
	}
	return sub
}

func memberNamed(name string) member.Member {
	return member.Member{Name: name, Email: name + "@example.com"}
}
