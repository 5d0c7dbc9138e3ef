package sqlite

import (
	"context"
	"time"

	"github.com/clubgate/clubgate/domain/checkin"
	"github.com/clubgate/clubgate/ports"
)

// CheckInStore implements ports.CheckInStore using SQLite.
type CheckInStore struct {
	db *DB
}

// NewCheckInStore creates a new SQLite check-in store.
func NewCheckInStore(db *DB) *CheckInStore {
	return &CheckInStore{db: db}
}

// Create stores a new check-in.
func (s *CheckInStore) Create(ctx context.Context, c checkin.CheckIn) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkins (id, subscription_id, member_id, at, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.ID, c.SubscriptionID, c.MemberID, c.At, string(c.Status), c.CreatedAt)

	if isUniqueConstraintError(err) {
		return ports.ErrDuplicate
	}
	return err
}

// CountCompleted counts all-time completed check-ins for a subscription.
func (s *CheckInStore) CountCompleted(ctx context.Context, subscriptionID string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM checkins
		WHERE subscription_id = ? AND status = ?
	`, subscriptionID, string(checkin.StatusCompleted)).Scan(&n)
	return n, err
}

// UniqueMemberDays counts distinct (member, calendar day) pairs among
// completed check-ins within [from, to].
func (s *CheckInStore) UniqueMemberDays(ctx context.Context, subscriptionID string, from, to time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT member_id || '|' || date(at))
		FROM checkins
		WHERE subscription_id = ? AND status = ? AND at >= ? AND at <= ?
	`, subscriptionID, string(checkin.StatusCompleted), from, to).Scan(&n)
	return n, err
}

// ListBySubscription returns check-ins for a subscription, oldest first.
func (s *CheckInStore) ListBySubscription(ctx context.Context, subscriptionID string, limit int) ([]checkin.CheckIn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subscription_id, member_id, at, status, created_at
		FROM checkins
		WHERE subscription_id = ?
		ORDER BY at
		LIMIT ?
	`, subscriptionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var checkins []checkin.CheckIn
	for rows.Next() {
		var c checkin.CheckIn
		var status string
		if err := rows.Scan(&c.ID, &c.SubscriptionID, &c.MemberID, &c.At, &status, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Status = checkin.Status(status)
		checkins = append(checkins, c)
	}
	return checkins, rows.Err()
}

var _ ports.CheckInStore = (*CheckInStore)(nil)
