package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/clubgate/clubgate/adapters/metrics"
	"github.com/clubgate/clubgate/domain/invoice"
	"github.com/clubgate/clubgate/domain/money"
	"github.com/clubgate/clubgate/domain/plan"
	"github.com/clubgate/clubgate/domain/subscription"
	"github.com/clubgate/clubgate/ports"
)

// referenceAttempts bounds the retry loop on reference collisions.
const referenceAttempts = 5

// BillingParams are the billing knobs read from configuration. Services
// take a provider function so hot reload stays out of their code.
type BillingParams struct {
	Currency        string
	TaxRatePercent  decimal.Decimal
	ReferenceScheme string
	DueDays         int
}

// ParamsProvider returns the current billing parameters.
type ParamsProvider func() BillingParams

// Quote is the current amount due for a subscription with the formula
// that produced it.
type Quote struct {
	Amount      decimal.Decimal
	Description string
	CheckIns    int64
}

// BillingService computes amounts due and assembles invoices.
type BillingService struct {
	subs     ports.SubscriptionStore
	plans    ports.PlanStore
	invoices ports.InvoiceStore
	checkins ports.CheckInStore
	clock    ports.Clock
	idgen    ports.IDGenerator
	random   ports.Random
	params   ParamsProvider
	metrics  *metrics.Collector
	logger   zerolog.Logger
}

// NewBillingService creates a new billing service.
func NewBillingService(
	subs ports.SubscriptionStore,
	plans ports.PlanStore,
	invoices ports.InvoiceStore,
	checkins ports.CheckInStore,
	clock ports.Clock,
	idgen ports.IDGenerator,
	random ports.Random,
	params ParamsProvider,
	collector *metrics.Collector,
	logger zerolog.Logger,
) *BillingService {
	return &BillingService{
		subs:     subs,
		plans:    plans,
		invoices: invoices,
		checkins: checkins,
		clock:    clock,
		idgen:    idgen,
		random:   random,
		params:   params,
		metrics:  collector,
		logger:   logger,
	}
}

// AmountDue returns the current amount due for a subscription together
// with the human-readable formula. Per-pass subscriptions are charged
// by their all-time completed check-in count.
func (s *BillingService) AmountDue(ctx context.Context, subscriptionID string) (Quote, error) {
	sub, err := s.subs.Get(ctx, subscriptionID)
	if err != nil {
		return Quote{}, err
	}
	p, err := s.plans.Get(ctx, sub.PlanID)
	if err != nil {
		return Quote{}, fmt.Errorf("plan %s: %w", sub.PlanID, err)
	}

	var count int64
	if sub.BillingType == subscription.BillingPerPass {
		count, err = s.checkins.CountCompleted(ctx, subscriptionID)
		if err != nil {
			return Quote{}, fmt.Errorf("count check-ins: %w", err)
		}
	}

	cfg := s.params()
	return Quote{
		Amount:      subscription.AmountDue(sub, p, count),
		Description: subscription.Describe(sub, p, count, cfg.Currency),
		CheckIns:    count,
	}, nil
}

// InvoiceRequest describes an invoice to create. A zero PeriodStart and
// PeriodEnd default to the plan period starting now. Discount is
// optional. Amount, when set, overrides the billing-type computation;
// renewals use it to bill the period at plan price.
type InvoiceRequest struct {
	SubscriptionID string
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Amount         *decimal.Decimal
	DiscountValue  decimal.Decimal
	DiscountKind   money.DiscountKind
}

// CreateInvoice assembles and stores an invoice for a billing period.
//
// The amount is the billing-type charge for the period: unique member
// days times unit price for per-pass, the plan price for fixed retail.
// An open invoice overlapping the period blocks creation (ErrOverlap).
// The reference is generated under the configured scheme and retried a
// bounded number of times when the unique constraint rejects it.
func (s *BillingService) CreateInvoice(ctx context.Context, req InvoiceRequest) (invoice.Invoice, error) {
	sub, err := s.subs.Get(ctx, req.SubscriptionID)
	if err != nil {
		return invoice.Invoice{}, err
	}
	p, err := s.plans.Get(ctx, sub.PlanID)
	if err != nil {
		return invoice.Invoice{}, fmt.Errorf("plan %s: %w", sub.PlanID, err)
	}

	now := s.clock.Now()
	start, end := req.PeriodStart, req.PeriodEnd
	if start.IsZero() {
		start = subscription.RolloverAnchor(sub, now)
	}
	if end.IsZero() {
		end = p.PeriodEnd(start)
	}
	if end.Before(start) {
		return invoice.Invoice{}, fmt.Errorf("%w: period end %s before start %s",
			ErrValidation, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	if existing, err := s.invoices.FindOpenOverlap(ctx, sub.ID, start, end); err == nil {
		s.metrics.InvoiceConflicts.WithLabelValues("overlap").Inc()
		return invoice.Invoice{}, fmt.Errorf("%w: invoice %s covers %s to %s",
			ErrOverlap, existing.Reference,
			existing.PeriodStart.Format("2006-01-02"), existing.PeriodEnd.Format("2006-01-02"))
	} else if !errors.Is(err, ports.ErrNotFound) {
		return invoice.Invoice{}, fmt.Errorf("overlap check: %w", err)
	}

	var amount decimal.Decimal
	if req.Amount != nil {
		if req.Amount.IsNegative() {
			return invoice.Invoice{}, fmt.Errorf("%w: amount must not be negative", ErrValidation)
		}
		amount = *req.Amount
	} else {
		amount, err = s.periodAmount(ctx, sub, p, start, end)
		if err != nil {
			return invoice.Invoice{}, err
		}
	}

	cfg := s.params()
	inv := invoice.Build(sub.ID, amount, cfg.TaxRatePercent, req.DiscountValue, req.DiscountKind,
		cfg.Currency, start, end)
	inv.ID = s.idgen.New()
	inv.CreatedAt = now
	if cfg.DueDays > 0 {
		due := now.AddDate(0, 0, cfg.DueDays)
		inv.DueDate = &due
	}

	stored, err := s.storeWithReference(ctx, inv, cfg.ReferenceScheme, now)
	if err != nil {
		return invoice.Invoice{}, err
	}

	s.metrics.InvoicesCreated.WithLabelValues(string(sub.BillingType)).Inc()
	s.logger.Info().
		Str("invoice_id", stored.ID).
		Str("reference", stored.Reference).
		Str("subscription_id", sub.ID).
		Str("total", stored.TotalAmount.String()).
		Msg("invoice created")
	return stored, nil
}

// periodAmount computes the charge for one billing period.
func (s *BillingService) periodAmount(
	ctx context.Context,
	sub subscription.Subscription,
	p plan.Plan,
	start, end time.Time,
) (decimal.Decimal, error) {
	switch sub.BillingType {
	case subscription.BillingPerPass:
		days, err := s.checkins.UniqueMemberDays(ctx, sub.ID, start, end)
		if err != nil {
			return decimal.Zero, fmt.Errorf("unique member days: %w", err)
		}
		return money.PerPass(days, sub.UnitPrice), nil
	case subscription.BillingRetailFixed:
		return money.Round(p.Price), nil
	}
	return money.Round(sub.UnitPrice), nil
}

// storeWithReference generates a reference and inserts, retrying on a
// uniqueness conflict. The store's unique constraint is the arbiter;
// the loop just picks the next candidate.
func (s *BillingService) storeWithReference(ctx context.Context, inv invoice.Invoice, scheme string, now time.Time) (invoice.Invoice, error) {
	for attempt := 0; attempt < referenceAttempts; attempt++ {
		ref, err := s.nextReference(ctx, inv.SubscriptionID, scheme, now, attempt)
		if err != nil {
			return invoice.Invoice{}, err
		}
		inv.Reference = ref

		err = s.invoices.Create(ctx, inv)
		if err == nil {
			return inv, nil
		}
		if !errors.Is(err, ports.ErrDuplicate) {
			return invoice.Invoice{}, fmt.Errorf("store invoice: %w", err)
		}

		s.metrics.ReferenceRetries.Inc()
		s.logger.Warn().
			Str("reference", ref).
			Int("attempt", attempt+1).
			Msg("invoice reference taken, retrying")
	}

	s.metrics.InvoiceConflicts.WithLabelValues("reference_exhausted").Inc()
	return invoice.Invoice{}, fmt.Errorf("invoice reference: %d collisions for subscription %s",
		referenceAttempts, inv.SubscriptionID)
}

// nextReference produces the next candidate reference. Sequential
// references continue the month's sequence and step past collisions;
// random ones draw a fresh suffix each attempt.
func (s *BillingService) nextReference(ctx context.Context, subscriptionID, scheme string, now time.Time, attempt int) (string, error) {
	if scheme == "random" {
		suffix, err := s.random.String(4)
		if err != nil {
			return "", fmt.Errorf("reference suffix: %w", err)
		}
		return invoice.RandomReference(now, subscriptionID, suffix), nil
	}

	prefix := invoice.PeriodPrefix(now)
	last, err := s.invoices.LastReference(ctx, prefix)
	var seq int64
	switch {
	case err == nil:
		if n, ok := invoice.SequenceOf(last, prefix); ok {
			seq = n
		}
	case errors.Is(err, ports.ErrNotFound):
		// First invoice of the month.
	default:
		return "", fmt.Errorf("last reference: %w", err)
	}
	return invoice.SequentialReference(now, seq+1+int64(attempt)), nil
}

// GetInvoice retrieves an invoice by ID.
func (s *BillingService) GetInvoice(ctx context.Context, id string) (invoice.Invoice, error) {
	return s.invoices.Get(ctx, id)
}

// ListInvoices returns recent invoices for a subscription.
func (s *BillingService) ListInvoices(ctx context.Context, subscriptionID string, limit int) ([]invoice.Invoice, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.invoices.ListBySubscription(ctx, subscriptionID, limit)
}

// SettleInvoice marks an invoice as paid. Settling a non-open invoice
// is a conflict.
func (s *BillingService) SettleInvoice(ctx context.Context, id string) (invoice.Invoice, error) {
	inv, err := s.invoices.Get(ctx, id)
	if err != nil {
		return invoice.Invoice{}, err
	}
	if !inv.IsOpen() {
		return invoice.Invoice{}, fmt.Errorf("%w: invoice %s is %s", ErrConflict, inv.Reference, inv.Status)
	}

	now := s.clock.Now()
	if err := s.invoices.UpdateStatus(ctx, id, invoice.StatusCompleted, &now); err != nil {
		return invoice.Invoice{}, fmt.Errorf("settle invoice: %w", err)
	}

	inv.Status = invoice.StatusCompleted
	inv.PaidAt = &now
	s.logger.Info().Str("invoice_id", id).Str("reference", inv.Reference).Msg("invoice settled")
	return inv, nil
}

// CancelInvoice voids an open invoice.
func (s *BillingService) CancelInvoice(ctx context.Context, id string) error {
	inv, err := s.invoices.Get(ctx, id)
	if err != nil {
		return err
	}
	if !inv.IsOpen() {
		return fmt.Errorf("%w: invoice %s is %s", ErrConflict, inv.Reference, inv.Status)
	}
	if err := s.invoices.UpdateStatus(ctx, id, invoice.StatusCancelled, nil); err != nil {
		return fmt.Errorf("cancel invoice: %w", err)
	}
	s.logger.Info().Str("invoice_id", id).Msg("invoice cancelled")
	return nil
}

// MarkOverdue moves open invoices past their due date to overdue.
// Returns the number of invoices flagged.
func (s *BillingService) MarkOverdue(ctx context.Context) (int, error) {
	due, err := s.invoices.ListDueBefore(ctx, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("list due invoices: %w", err)
	}

	var flagged int
	for _, inv := range due {
		if inv.Status == invoice.StatusOverdue {
			continue
		}
		if err := s.invoices.UpdateStatus(ctx, inv.ID, invoice.StatusOverdue, nil); err != nil {
			return flagged, fmt.Errorf("mark invoice %s overdue: %w", inv.Reference, err)
		}
		flagged++
		s.logger.Info().Str("reference", inv.Reference).Msg("invoice overdue")
	}
	return flagged, nil
}
