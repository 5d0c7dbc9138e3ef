// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/clubgate/clubgate/domain/checkin"
	"github.com/clubgate/clubgate/domain/invoice"
	"github.com/clubgate/clubgate/domain/member"
	"github.com/clubgate/clubgate/domain/plan"
	"github.com/clubgate/clubgate/domain/subscription"
	"github.com/clubgate/clubgate/domain/transaction"
)

// Store sentinels. Every store implementation (sqlite, memory) returns
// these, so application code matches one symbol regardless of backend.
var (
	// ErrNotFound is returned when an entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a unique constraint is violated,
	// notably on invoice references.
	ErrDuplicate = errors.New("already exists")

	// ErrVersionConflict is returned by versioned updates when the row
	// changed since it was read.
	ErrVersionConflict = errors.New("version conflict")
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// Random abstracts randomness for testability.
type Random interface {
	// Bytes generates n random bytes.
	Bytes(n int) ([]byte, error)
	// String generates a random string of n characters.
	String(n int) (string, error)
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// PlanStore persists membership plans.
type PlanStore interface {
	// List returns all plans.
	List(ctx context.Context) ([]plan.Plan, error)

	// Get retrieves a plan by ID.
	Get(ctx context.Context, id string) (plan.Plan, error)

	// Create stores a new plan.
	Create(ctx context.Context, p plan.Plan) error

	// Update modifies a plan.
	Update(ctx context.Context, p plan.Plan) error

	// Delete removes a plan.
	Delete(ctx context.Context, id string) error
}

// MemberStore persists members.
type MemberStore interface {
	// Get retrieves a member by ID.
	Get(ctx context.Context, id string) (member.Member, error)

	// Create stores a new member.
	Create(ctx context.Context, m member.Member) error

	// List returns members with pagination.
	List(ctx context.Context, limit, offset int) ([]member.Member, error)
}

// SubscriptionStore persists subscriptions.
type SubscriptionStore interface {
	// Get retrieves a subscription by ID.
	Get(ctx context.Context, id string) (subscription.Subscription, error)

	// Create stores a new subscription.
	Create(ctx context.Context, s subscription.Subscription) error

	// UpdateVersioned writes status/end-date changes guarded by the
	// optimistic version check: the write succeeds only while the
	// stored version equals expectedVersion, and increments it.
	// Returns ErrVersionConflict otherwise.
	UpdateVersioned(ctx context.Context, s subscription.Subscription, expectedVersion int64) error

	// ListBySubscriber returns subscriptions for one member or company.
	ListBySubscriber(ctx context.Context, subscriberType subscription.SubscriberType, subscriberID string) ([]subscription.Subscription, error)

	// ListByStatus returns subscriptions in the given status.
	ListByStatus(ctx context.Context, status subscription.Status) ([]subscription.Subscription, error)
}

// TransactionStore persists payment transactions.
type TransactionStore interface {
	// Get retrieves a transaction by ID.
	Get(ctx context.Context, id string) (transaction.Transaction, error)

	// Create stores a new transaction.
	Create(ctx context.Context, t transaction.Transaction) error

	// Update modifies a transaction.
	Update(ctx context.Context, t transaction.Transaction) error

	// ListBySubscription returns transactions for a subscription.
	ListBySubscription(ctx context.Context, subscriptionID string) ([]transaction.Transaction, error)
}

// InvoiceStore persists invoices.
type InvoiceStore interface {
	// Get retrieves an invoice by ID.
	Get(ctx context.Context, id string) (invoice.Invoice, error)

	// Create stores a new invoice. Returns ErrDuplicate when the
	// reference is already taken.
	Create(ctx context.Context, inv invoice.Invoice) error

	// UpdateStatus updates invoice status.
	UpdateStatus(ctx context.Context, id string, status invoice.Status, paidAt *time.Time) error

	// ListBySubscription returns invoices for a subscription, newest first.
	ListBySubscription(ctx context.Context, subscriptionID string, limit int) ([]invoice.Invoice, error)

	// LastReference returns the highest reference carrying the given
	// period prefix, or ErrNotFound when none was issued yet.
	LastReference(ctx context.Context, prefix string) (string, error)

	// FindOpenOverlap returns an open (pending/partially paid/overdue)
	// invoice whose billing period overlaps [start, end] for the
	// subscription, or ErrNotFound.
	FindOpenOverlap(ctx context.Context, subscriptionID string, start, end time.Time) (invoice.Invoice, error)

	// ListDueBefore returns open invoices whose due date is before t.
	ListDueBefore(ctx context.Context, t time.Time) ([]invoice.Invoice, error)
}

// CheckInStore persists check-ins.
type CheckInStore interface {
	// Create stores a new check-in.
	Create(ctx context.Context, c checkin.CheckIn) error

	// CountCompleted counts all-time completed check-ins for a
	// subscription. Feeds the billing descriptor.
	CountCompleted(ctx context.Context, subscriptionID string) (int64, error)

	// UniqueMemberDays counts distinct (member, calendar day) pairs
	// among completed check-ins within [from, to]. Feeds per-pass
	// invoice amounts.
	UniqueMemberDays(ctx context.Context, subscriptionID string, from, to time.Time) (int64, error)

	// ListBySubscription returns check-ins for a subscription.
	ListBySubscription(ctx context.Context, subscriptionID string, limit int) ([]checkin.CheckIn, error)
}
