package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/clubgate/clubgate/adapters/metrics"
	"github.com/clubgate/clubgate/domain/invoice"
	"github.com/clubgate/clubgate/domain/money"
	"github.com/clubgate/clubgate/domain/subscription"
	"github.com/clubgate/clubgate/domain/transaction"
	"github.com/clubgate/clubgate/ports"
)

// RenewalService executes renewals and plan upgrades. It composes the
// billing and lifecycle services so invoices and transactions go
// through one code path each.
type RenewalService struct {
	subs      ports.SubscriptionStore
	plans     ports.PlanStore
	billing   *BillingService
	lifecycle *LifecycleService
	clock     ports.Clock
	metrics   *metrics.Collector
	logger    zerolog.Logger
}

// NewRenewalService creates a new renewal service.
func NewRenewalService(
	subs ports.SubscriptionStore,
	plans ports.PlanStore,
	billing *BillingService,
	lifecycle *LifecycleService,
	clock ports.Clock,
	collector *metrics.Collector,
	logger zerolog.Logger,
) *RenewalService {
	return &RenewalService{
		subs:      subs,
		plans:     plans,
		billing:   billing,
		lifecycle: lifecycle,
		clock:     clock,
		metrics:   collector,
		logger:    logger,
	}
}

// RenewalResult is the outcome of a renewal: the classified terms plus
// the invoice and pending transaction that bill the new period.
type RenewalResult struct {
	Terms       subscription.RenewalTerms
	Invoice     invoice.Invoice
	Transaction transaction.Transaction
}

// Preview classifies a renewal without executing it.
func (s *RenewalService) Preview(ctx context.Context, subscriptionID string) (subscription.RenewalTerms, error) {
	sub, err := s.subs.Get(ctx, subscriptionID)
	if err != nil {
		return subscription.RenewalTerms{}, err
	}
	p, err := s.plans.Get(ctx, sub.PlanID)
	if err != nil {
		return subscription.RenewalTerms{}, fmt.Errorf("plan %s: %w", sub.PlanID, err)
	}
	return subscription.PlanRenewal(sub, p, s.clock.Now()), nil
}

// Renew bills the subscription for its next plan period. The renewal is
// classified by days to expiry; one more than 30 days out needs force.
// The new period takes effect when the returned transaction completes.
func (s *RenewalService) Renew(ctx context.Context, subscriptionID string, force bool) (RenewalResult, error) {
	sub, err := s.subs.Get(ctx, subscriptionID)
	if err != nil {
		return RenewalResult{}, err
	}
	if !sub.CanRenew() {
		s.metrics.EligibilityDenied.WithLabelValues("renew").Inc()
		return RenewalResult{}, fmt.Errorf("%w: subscription %s is %s", ErrNotEligible, sub.ID, sub.Status)
	}

	p, err := s.plans.Get(ctx, sub.PlanID)
	if err != nil {
		return RenewalResult{}, fmt.Errorf("plan %s: %w", sub.PlanID, err)
	}
	if !p.Enabled {
		s.metrics.EligibilityDenied.WithLabelValues("renew").Inc()
		return RenewalResult{}, fmt.Errorf("%w: plan %s is disabled", ErrNotEligible, p.ID)
	}

	now := s.clock.Now()
	terms := subscription.PlanRenewal(sub, p, now)
	if !terms.CanRenewNow && !force {
		s.metrics.EligibilityDenied.WithLabelValues("renew").Inc()
		return RenewalResult{}, fmt.Errorf("%w: %d days remain, renewal needs force",
			ErrNotEligible, sub.DaysRemaining(now))
	}

	price := money.Round(p.Price)
	inv, err := s.billing.CreateInvoice(ctx, InvoiceRequest{
		SubscriptionID: sub.ID,
		PeriodStart:    terms.StartDate,
		PeriodEnd:      terms.EndDate,
		Amount:         &price,
	})
	if err != nil {
		return RenewalResult{}, err
	}

	txn, err := s.lifecycle.CreateTransaction(ctx, sub.ID, inv.ID, inv.TotalAmount)
	if err != nil {
		return RenewalResult{}, err
	}

	s.metrics.Renewals.WithLabelValues(string(terms.Kind)).Inc()
	s.logger.Info().
		Str("subscription_id", sub.ID).
		Str("kind", string(terms.Kind)).
		Time("period_start", terms.StartDate).
		Time("period_end", terms.EndDate).
		Str("reference", inv.Reference).
		Msg("renewal billed")

	return RenewalResult{Terms: terms, Invoice: inv, Transaction: txn}, nil
}

// UpgradeResult is the outcome of a plan upgrade. Transaction is set
// when the subscription had no paid time: activation then waits for
// that payment to complete.
type UpgradeResult struct {
	Subscription subscription.Subscription
	Invoice      invoice.Invoice
	Transaction  *transaction.Transaction
	Credit       decimal.Decimal
}

// Upgrade moves the subscription to a new plan. The plan and unit price
// switch immediately. Unused days on the old plan become a linear
// day-based credit, applied as a fixed discount on the upgrade invoice
// and capped at the new plan price.
//
// An in_progress subscription trades its remaining time for the credit,
// so its new period starts now. A pending or expired subscription has
// no active time to trade: it keeps its status and end date, and the
// returned pending transaction activates it on completion, same as a
// first sale.
func (s *RenewalService) Upgrade(ctx context.Context, subscriptionID, newPlanID string) (UpgradeResult, error) {
	sub, err := s.subs.Get(ctx, subscriptionID)
	if err != nil {
		return UpgradeResult{}, err
	}
	if !sub.CanUpgradeTo(newPlanID) {
		s.metrics.EligibilityDenied.WithLabelValues("upgrade").Inc()
		return UpgradeResult{}, fmt.Errorf("%w: subscription %s cannot move to plan %s",
			ErrNotEligible, sub.ID, newPlanID)
	}

	oldPlan, err := s.plans.Get(ctx, sub.PlanID)
	if err != nil {
		return UpgradeResult{}, fmt.Errorf("plan %s: %w", sub.PlanID, err)
	}
	newPlan, err := s.plans.Get(ctx, newPlanID)
	if err != nil {
		return UpgradeResult{}, fmt.Errorf("plan %s: %w", newPlanID, err)
	}
	if !newPlan.Enabled {
		s.metrics.EligibilityDenied.WithLabelValues("upgrade").Inc()
		return UpgradeResult{}, fmt.Errorf("%w: plan %s is disabled", ErrNotEligible, newPlan.ID)
	}

	now := s.clock.Now()
	credit := prorationCredit(sub.DaysRemaining(now), oldPlan.TotalDays(now), oldPlan.Price, newPlan.Price)

	inv, err := s.billing.CreateInvoice(ctx, InvoiceRequest{
		SubscriptionID: sub.ID,
		PeriodStart:    now,
		PeriodEnd:      newPlan.PeriodEnd(now),
		Amount:         &newPlan.Price,
		DiscountValue:  credit,
		DiscountKind:   money.DiscountFixed,
	})
	if err != nil {
		return UpgradeResult{}, err
	}

	active := sub.Status == subscription.StatusInProgress
	sub.PlanID = newPlan.ID
	sub.UnitPrice = newPlan.Price
	if active {
		end := newPlan.PeriodEnd(now)
		sub.EndDate = &end
	}
	sub.UpdatedAt = now
	if err := s.subs.UpdateVersioned(ctx, sub, sub.Version); err != nil {
		return UpgradeResult{}, fmt.Errorf("switch plan: %w", err)
	}
	sub.Version++

	var txn *transaction.Transaction
	if !active {
		t, err := s.lifecycle.CreateTransaction(ctx, sub.ID, inv.ID, inv.TotalAmount)
		if err != nil {
			return UpgradeResult{}, err
		}
		txn = &t
	}

	s.metrics.Upgrades.Inc()
	s.logger.Info().
		Str("subscription_id", sub.ID).
		Str("from_plan", oldPlan.ID).
		Str("to_plan", newPlan.ID).
		Str("credit", credit.String()).
		Str("reference", inv.Reference).
		Msg("subscription upgraded")

	return UpgradeResult{Subscription: sub, Invoice: inv, Transaction: txn, Credit: credit}, nil
}

// prorationCredit computes the unused-time credit for an upgrade:
// the old price scaled by unused days over the old plan's period
// length, rounded, and capped at both prices so the invoice never goes
// negative.
// This is a PURE function.
func prorationCredit(unusedDays, totalDays int, oldPrice, newPrice decimal.Decimal) decimal.Decimal {
	if unusedDays <= 0 || totalDays <= 0 {
		return decimal.Zero
	}
	if unusedDays > totalDays {
		unusedDays = totalDays
	}

	credit := money.Round(oldPrice.
		Mul(decimal.NewFromInt(int64(unusedDays))).
		Div(decimal.NewFromInt(int64(totalDays))))
	if credit.GreaterThan(oldPrice) {
		credit = oldPrice
	}
	if credit.GreaterThan(newPrice) {
		credit = newPrice
	}
	return credit
}
