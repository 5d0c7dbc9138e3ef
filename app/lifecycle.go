package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/clubgate/clubgate/adapters/metrics"
	"github.com/clubgate/clubgate/domain/invoice"
	"github.com/clubgate/clubgate/domain/subscription"
	"github.com/clubgate/clubgate/domain/transaction"
	"github.com/clubgate/clubgate/ports"
)

// versionedAttempts bounds retries on optimistic version conflicts.
const versionedAttempts = 3

// LifecycleService drives subscription state and payment transactions.
type LifecycleService struct {
	subs     ports.SubscriptionStore
	plans    ports.PlanStore
	members  ports.MemberStore
	txns     ports.TransactionStore
	invoices ports.InvoiceStore
	clock    ports.Clock
	idgen    ports.IDGenerator
	metrics  *metrics.Collector
	logger   zerolog.Logger
}

// NewLifecycleService creates a new lifecycle service.
func NewLifecycleService(
	subs ports.SubscriptionStore,
	plans ports.PlanStore,
	members ports.MemberStore,
	txns ports.TransactionStore,
	invoices ports.InvoiceStore,
	clock ports.Clock,
	idgen ports.IDGenerator,
	collector *metrics.Collector,
	logger zerolog.Logger,
) *LifecycleService {
	return &LifecycleService{
		subs:     subs,
		plans:    plans,
		members:  members,
		txns:     txns,
		invoices: invoices,
		clock:    clock,
		idgen:    idgen,
		metrics:  collector,
		logger:   logger,
	}
}

// SubscriptionRequest describes a subscription to create. A zero
// UnitPrice defaults to the plan price.
type SubscriptionRequest struct {
	SubscriberType subscription.SubscriberType
	SubscriberID   string
	PlanID         string
	BillingType    subscription.BillingType
	UnitPrice      decimal.Decimal
}

// CreateSubscription creates a pending subscription. It stays pending,
// with no end date, until its first completed payment activates it.
func (s *LifecycleService) CreateSubscription(ctx context.Context, req SubscriptionRequest) (subscription.Subscription, error) {
	switch req.SubscriberType {
	case subscription.SubscriberMember:
		if _, err := s.members.Get(ctx, req.SubscriberID); err != nil {
			return subscription.Subscription{}, fmt.Errorf("member %s: %w", req.SubscriberID, err)
		}
	case subscription.SubscriberCompany:
		// Company rosters live outside this service; the id is taken
		// as given.
	default:
		return subscription.Subscription{}, fmt.Errorf("%w: unknown subscriber type %q", ErrValidation, req.SubscriberType)
	}

	switch req.BillingType {
	case subscription.BillingPerPass, subscription.BillingRetailFixed:
	default:
		return subscription.Subscription{}, fmt.Errorf("%w: unknown billing type %q", ErrValidation, req.BillingType)
	}

	p, err := s.plans.Get(ctx, req.PlanID)
	if err != nil {
		return subscription.Subscription{}, fmt.Errorf("plan %s: %w", req.PlanID, err)
	}
	if !p.Enabled {
		return subscription.Subscription{}, fmt.Errorf("%w: plan %s is disabled", ErrNotEligible, p.ID)
	}

	price := req.UnitPrice
	if price.IsZero() {
		price = p.Price
	}
	if price.IsNegative() {
		return subscription.Subscription{}, fmt.Errorf("%w: unit price must not be negative", ErrValidation)
	}

	now := s.clock.Now()
	sub := subscription.Subscription{
		ID:             s.idgen.New(),
		SubscriberType: req.SubscriberType,
		SubscriberID:   req.SubscriberID,
		PlanID:         p.ID,
		UnitPrice:      price,
		BillingType:    req.BillingType,
		StartDate:      now,
		Status:         subscription.StatusPending,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		return subscription.Subscription{}, fmt.Errorf("create subscription: %w", err)
	}

	s.logger.Info().
		Str("subscription_id", sub.ID).
		Str("plan_id", p.ID).
		Str("subscriber_id", req.SubscriberID).
		Str("billing_type", string(req.BillingType)).
		Msg("subscription created")
	return sub, nil
}

// GetSubscription retrieves a subscription by ID.
func (s *LifecycleService) GetSubscription(ctx context.Context, id string) (subscription.Subscription, error) {
	return s.subs.Get(ctx, id)
}

// ListSubscriptions returns subscriptions for one subscriber.
func (s *LifecycleService) ListSubscriptions(ctx context.Context, subscriberType subscription.SubscriberType, subscriberID string) ([]subscription.Subscription, error) {
	return s.subs.ListBySubscriber(ctx, subscriberType, subscriberID)
}

// CreateTransaction opens a pending payment for the subscription,
// snapshotting the expiry window the completion will apply. A non-empty
// invoiceID links the payment to an invoice; completing it marks the
// invoice paid.
func (s *LifecycleService) CreateTransaction(ctx context.Context, subscriptionID, invoiceID string, amountDue decimal.Decimal) (transaction.Transaction, error) {
	sub, err := s.subs.Get(ctx, subscriptionID)
	if err != nil {
		return transaction.Transaction{}, err
	}
	if sub.IsTerminal() {
		return transaction.Transaction{}, fmt.Errorf("%w: subscription %s is %s", ErrNotEligible, sub.ID, sub.Status)
	}
	p, err := s.plans.Get(ctx, sub.PlanID)
	if err != nil {
		return transaction.Transaction{}, fmt.Errorf("plan %s: %w", sub.PlanID, err)
	}
	if amountDue.IsNegative() {
		return transaction.Transaction{}, fmt.Errorf("%w: amount due must not be negative", ErrValidation)
	}

	now := s.clock.Now()
	txn := transaction.Build(sub, p, amountDue, now)
	txn.ID = s.idgen.New()
	txn.InvoiceID = invoiceID
	txn.CreatedAt = now
	txn.UpdatedAt = now

	if err := s.txns.Create(ctx, txn); err != nil {
		return transaction.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	s.logger.Info().
		Str("transaction_id", txn.ID).
		Str("subscription_id", sub.ID).
		Str("amount_due", amountDue.String()).
		Time("next_expiry", txn.NextExpiryDate).
		Msg("transaction created")
	return txn, nil
}

// CompleteTransaction settles a pending transaction and applies its
// snapshotted expiry extension: the subscription's end date becomes the
// transaction's next expiry, and a pending subscription activates.
//
// The extension is applied with the optimistic version check and
// retried on conflict. Because the new end date was fixed at
// transaction creation, a concurrent duplicate completion converges on
// the same end date instead of extending twice.
//
// Writes are ordered so the transaction flip is the final single-row
// step: the subscription extension and the linked invoice settlement
// come first, and both are idempotent, so a failed completion leaves
// the transaction pending and safe to retry.
func (s *LifecycleService) CompleteTransaction(ctx context.Context, transactionID string, amountPaid decimal.Decimal) (transaction.Transaction, error) {
	txn, err := s.txns.Get(ctx, transactionID)
	if err != nil {
		return transaction.Transaction{}, err
	}
	if !txn.CanComplete() {
		s.metrics.EligibilityDenied.WithLabelValues("complete_transaction").Inc()
		return transaction.Transaction{}, fmt.Errorf("%w: transaction %s is %s", ErrConflict, txn.ID, txn.Status)
	}

	sub, err := s.subs.Get(ctx, txn.SubscriptionID)
	if err != nil {
		return transaction.Transaction{}, fmt.Errorf("subscription %s: %w", txn.SubscriptionID, err)
	}
	if sub.IsTerminal() {
		return transaction.Transaction{}, fmt.Errorf("%w: subscription %s is %s", ErrNotEligible, sub.ID, sub.Status)
	}

	if err := s.applyExpiry(ctx, sub, txn); err != nil {
		return transaction.Transaction{}, err
	}
	if err := s.settleLinkedInvoice(ctx, txn); err != nil {
		return transaction.Transaction{}, err
	}

	now := s.clock.Now()
	if amountPaid.IsZero() {
		amountPaid = txn.AmountDue
	}
	txn.AmountPaid = amountPaid
	txn.Status = transaction.StatusCompleted
	txn.UpdatedAt = now
	if err := s.txns.Update(ctx, txn); err != nil {
		return transaction.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	s.metrics.TransactionsCompleted.Inc()
	s.logger.Info().
		Str("transaction_id", txn.ID).
		Str("subscription_id", sub.ID).
		Time("new_expiry", txn.NextExpiryDate).
		Msg("transaction completed")
	return txn, nil
}

// applyExpiry writes the snapshotted extension onto the subscription,
// retrying on version conflicts.
func (s *LifecycleService) applyExpiry(ctx context.Context, sub subscription.Subscription, txn transaction.Transaction) error {
	for attempt := 0; attempt < versionedAttempts; attempt++ {
		end := txn.NextExpiryDate
		sub.EndDate = &end
		if sub.Status == subscription.StatusPending || sub.Status == subscription.StatusExpired {
			sub.Status = subscription.StatusInProgress
		}
		sub.UpdatedAt = s.clock.Now()

		err := s.subs.UpdateVersioned(ctx, sub, sub.Version)
		if err == nil {
			s.metrics.ExpiryExtensions.Inc()
			return nil
		}
		if !errors.Is(err, ports.ErrVersionConflict) {
			return fmt.Errorf("extend subscription %s: %w", sub.ID, err)
		}

		s.metrics.VersionConflicts.Inc()
		sub, err = s.subs.Get(ctx, sub.ID)
		if err != nil {
			return fmt.Errorf("reload subscription: %w", err)
		}
		if sub.IsTerminal() {
			return fmt.Errorf("%w: subscription %s became %s", ErrConflict, sub.ID, sub.Status)
		}
	}
	return fmt.Errorf("%w: subscription %s kept changing", ErrConflict, sub.ID)
}

// settleLinkedInvoice marks the invoice the transaction pays as paid.
// Already-settled invoices are left alone so a retried completion stays
// idempotent.
func (s *LifecycleService) settleLinkedInvoice(ctx context.Context, txn transaction.Transaction) error {
	if txn.InvoiceID == "" {
		return nil
	}
	inv, err := s.invoices.Get(ctx, txn.InvoiceID)
	if err != nil {
		return fmt.Errorf("invoice %s: %w", txn.InvoiceID, err)
	}
	if !inv.IsOpen() {
		return nil
	}

	now := s.clock.Now()
	if err := s.invoices.UpdateStatus(ctx, inv.ID, invoice.StatusCompleted, &now); err != nil {
		return fmt.Errorf("settle invoice %s: %w", inv.Reference, err)
	}
	s.logger.Info().
		Str("invoice_id", inv.ID).
		Str("reference", inv.Reference).
		Str("transaction_id", txn.ID).
		Msg("invoice settled by payment")
	return nil
}

// FailTransaction marks a pending transaction as failed. The
// subscription is untouched.
func (s *LifecycleService) FailTransaction(ctx context.Context, transactionID string) (transaction.Transaction, error) {
	txn, err := s.txns.Get(ctx, transactionID)
	if err != nil {
		return transaction.Transaction{}, err
	}
	if txn.Status != transaction.StatusPending {
		return transaction.Transaction{}, fmt.Errorf("%w: transaction %s is %s", ErrConflict, txn.ID, txn.Status)
	}

	txn.Status = transaction.StatusFailed
	txn.UpdatedAt = s.clock.Now()
	if err := s.txns.Update(ctx, txn); err != nil {
		return transaction.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	s.logger.Info().Str("transaction_id", txn.ID).Msg("transaction failed")
	return txn, nil
}

// GetTransaction retrieves a transaction by ID.
func (s *LifecycleService) GetTransaction(ctx context.Context, id string) (transaction.Transaction, error) {
	return s.txns.Get(ctx, id)
}

// ListTransactions returns transactions for a subscription.
func (s *LifecycleService) ListTransactions(ctx context.Context, subscriptionID string) ([]transaction.Transaction, error) {
	return s.txns.ListBySubscription(ctx, subscriptionID)
}

// SetSubscriptionStatus moves a subscription to the given status.
// Terminal subscriptions never leave their state; unknown statuses are
// rejected.
func (s *LifecycleService) SetSubscriptionStatus(ctx context.Context, id string, status subscription.Status) (subscription.Subscription, error) {
	if !subscription.ValidStatus(status) {
		return subscription.Subscription{}, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	sub, err := s.subs.Get(ctx, id)
	if err != nil {
		return subscription.Subscription{}, err
	}
	if sub.Status == status {
		return sub, nil
	}
	if sub.IsTerminal() {
		s.metrics.EligibilityDenied.WithLabelValues("set_status").Inc()
		return subscription.Subscription{}, fmt.Errorf("%w: subscription %s is %s", ErrConflict, sub.ID, sub.Status)
	}

	old := sub.Status
	sub.Status = status
	sub.UpdatedAt = s.clock.Now()
	if err := s.subs.UpdateVersioned(ctx, sub, sub.Version); err != nil {
		return subscription.Subscription{}, fmt.Errorf("update subscription: %w", err)
	}
	sub.Version++

	s.logger.Info().
		Str("subscription_id", sub.ID).
		Str("from", string(old)).
		Str("to", string(status)).
		Msg("subscription status changed")
	return sub, nil
}

// ExpireDue moves in_progress subscriptions whose end date has passed
// to expired. Returns the number expired. Meant to be run periodically.
func (s *LifecycleService) ExpireDue(ctx context.Context) (int, error) {
	now := s.clock.Now()
	active, err := s.subs.ListByStatus(ctx, subscription.StatusInProgress)
	if err != nil {
		return 0, fmt.Errorf("list active subscriptions: %w", err)
	}

	var expired int
	for _, sub := range active {
		if sub.EndDate == nil || sub.EndDate.After(now) {
			continue
		}
		sub.Status = subscription.StatusExpired
		sub.UpdatedAt = now
		err := s.subs.UpdateVersioned(ctx, sub, sub.Version)
		if errors.Is(err, ports.ErrVersionConflict) {
			// A concurrent payment or renewal won; next sweep
			// re-evaluates.
			s.metrics.VersionConflicts.Inc()
			continue
		}
		if err != nil {
			return expired, fmt.Errorf("expire subscription %s: %w", sub.ID, err)
		}
		expired++
		s.metrics.SubscriptionsExpired.Inc()
		s.logger.Info().
			Str("subscription_id", sub.ID).
			Time("end_date", *sub.EndDate).
			Msg("subscription expired")
	}
	return expired, nil
}
