package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/clubgate/clubgate/domain/checkin"
	"github.com/clubgate/clubgate/ports"
)

// CheckInStore is an in-memory implementation of ports.CheckInStore.
type CheckInStore struct {
	mu       sync.RWMutex
	checkins []checkin.CheckIn
}

// NewCheckInStore creates a new in-memory check-in store.
func NewCheckInStore() *CheckInStore {
	return &CheckInStore{}
}

// Create stores a new check-in.
func (s *CheckInStore) Create(ctx context.Context, c checkin.CheckIn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.checkins {
		if existing.ID == c.ID {
			return ports.ErrDuplicate
		}
	}
	s.checkins = append(s.checkins, c)
	return nil
}

// CountCompleted counts all-time completed check-ins for a subscription.
func (s *CheckInStore) CountCompleted(ctx context.Context, subscriptionID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, c := range s.checkins {
		if c.SubscriptionID == subscriptionID && c.Status == checkin.StatusCompleted {
			n++
		}
	}
	return n, nil
}

// UniqueMemberDays counts distinct (member, day) pairs among completed
// check-ins within [from, to].
func (s *CheckInStore) UniqueMemberDays(ctx context.Context, subscriptionID string, from, to time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matching []checkin.CheckIn
	for _, c := range s.checkins {
		if c.SubscriptionID == subscriptionID {
			matching = append(matching, c)
		}
	}
	return checkin.UniqueMemberDays(matching, from, to), nil
}

// ListBySubscription returns check-ins for a subscription, oldest first.
func (s *CheckInStore) ListBySubscription(ctx context.Context, subscriptionID string, limit int) ([]checkin.CheckIn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []checkin.CheckIn
	for _, c := range s.checkins {
		if c.SubscriptionID == subscriptionID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

var _ ports.CheckInStore = (*CheckInStore)(nil)
