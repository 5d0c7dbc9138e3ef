package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/clubgate/clubgate/domain/subscription"
	"github.com/clubgate/clubgate/ports"
)

// SubscriptionStore implements ports.SubscriptionStore using SQLite.
// Status/end-date writes go through an optimistic version check so two
// concurrent payment completions cannot both extend the expiry.
type SubscriptionStore struct {
	db *DB
}

// NewSubscriptionStore creates a new SQLite subscription store.
func NewSubscriptionStore(db *DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

const subscriptionColumns = `
	id, subscriber_type, subscriber_id, plan_id, unit_price, billing_type,
	start_date, end_date, status, version, created_at, updated_at`

// Get retrieves a subscription by ID.
func (s *SubscriptionStore) Get(ctx context.Context, id string) (subscription.Subscription, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE id = ?
	`, id)

	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return subscription.Subscription{}, ports.ErrNotFound
	}
	return sub, err
}

// Create stores a new subscription at version 1.
func (s *SubscriptionStore) Create(ctx context.Context, sub subscription.Subscription) error {
	now := time.Now().UTC()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	if sub.Version == 0 {
		sub.Version = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sub.ID, string(sub.SubscriberType), sub.SubscriberID, sub.PlanID,
		sub.UnitPrice.String(), string(sub.BillingType),
		sub.StartDate, nullTime(sub.EndDate), string(sub.Status),
		sub.Version, sub.CreatedAt, sub.UpdatedAt,
	)

	if isUniqueConstraintError(err) {
		return ports.ErrDuplicate
	}
	return err
}

// UpdateVersioned writes the subscription guarded by the version check.
// The WHERE clause carries the expected version, so a stale writer
// matches zero rows and loses.
func (s *SubscriptionStore) UpdateVersioned(ctx context.Context, sub subscription.Subscription, expectedVersion int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET plan_id = ?, unit_price = ?, billing_type = ?,
		    start_date = ?, end_date = ?, status = ?,
		    version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`,
		sub.PlanID, sub.UnitPrice.String(), string(sub.BillingType),
		sub.StartDate, nullTime(sub.EndDate), string(sub.Status),
		time.Now().UTC(), sub.ID, expectedVersion,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	// Distinguish a stale version from a missing row.
	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM subscriptions WHERE id = ?`, sub.ID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.ErrNotFound
	}
	if err != nil {
		return err
	}
	return ports.ErrVersionConflict
}

// ListBySubscriber returns subscriptions for one member or company.
func (s *SubscriptionStore) ListBySubscriber(ctx context.Context, subscriberType subscription.SubscriberType, subscriberID string) ([]subscription.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE subscriber_type = ? AND subscriber_id = ?
		ORDER BY id
	`, string(subscriberType), subscriberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

// ListByStatus returns subscriptions in the given status.
func (s *SubscriptionStore) ListByStatus(ctx context.Context, status subscription.Status) ([]subscription.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE status = ?
		ORDER BY id
	`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

func collectSubscriptions(rows *sql.Rows) ([]subscription.Subscription, error) {
	var subs []subscription.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func scanSubscription(row rowScanner) (subscription.Subscription, error) {
	var sub subscription.Subscription
	var subscriberType, billingType, status, unitPrice string
	var endDate sql.NullTime

	err := row.Scan(
		&sub.ID, &subscriberType, &sub.SubscriberID, &sub.PlanID,
		&unitPrice, &billingType, &sub.StartDate, &endDate,
		&status, &sub.Version, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return subscription.Subscription{}, err
	}

	if sub.UnitPrice, err = parseDecimal(unitPrice); err != nil {
		return subscription.Subscription{}, err
	}
	sub.SubscriberType = subscription.SubscriberType(subscriberType)
	sub.BillingType = subscription.BillingType(billingType)
	sub.Status = subscription.Status(status)
	sub.EndDate = timePtr(endDate)
	return sub, nil
}

var _ ports.SubscriptionStore = (*SubscriptionStore)(nil)
