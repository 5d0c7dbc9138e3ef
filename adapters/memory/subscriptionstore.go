package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/clubgate/clubgate/domain/subscription"
	"github.com/clubgate/clubgate/ports"
)

// SubscriptionStore is an in-memory implementation of
// ports.SubscriptionStore with the same optimistic-versioning contract
// as the sqlite store.
type SubscriptionStore struct {
	mu   sync.RWMutex
	subs map[string]subscription.Subscription
}

// NewSubscriptionStore creates a new in-memory subscription store.
func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{subs: make(map[string]subscription.Subscription)}
}

// Get retrieves a subscription by ID.
func (s *SubscriptionStore) Get(ctx context.Context, id string) (subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[id]
	if !ok {
		return subscription.Subscription{}, ports.ErrNotFound
	}
	return sub, nil
}

// Create stores a new subscription.
func (s *SubscriptionStore) Create(ctx context.Context, sub subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[sub.ID]; ok {
		return ports.ErrDuplicate
	}
	s.subs[sub.ID] = sub
	return nil
}

// UpdateVersioned writes sub only while the stored version still equals
// expectedVersion, then increments the version.
func (s *SubscriptionStore) UpdateVersioned(ctx context.Context, sub subscription.Subscription, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.subs[sub.ID]
	if !ok {
		return ports.ErrNotFound
	}
	if current.Version != expectedVersion {
		return ports.ErrVersionConflict
	}
	sub.Version = expectedVersion + 1
	s.subs[sub.ID] = sub
	return nil
}

// ListBySubscriber returns subscriptions for one member or company.
func (s *SubscriptionStore) ListBySubscriber(ctx context.Context, subscriberType subscription.SubscriberType, subscriberID string) ([]subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []subscription.Subscription
	for _, sub := range s.subs {
		if sub.SubscriberType == subscriberType && sub.SubscriberID == subscriberID {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListByStatus returns subscriptions in the given status.
func (s *SubscriptionStore) ListByStatus(ctx context.Context, status subscription.Status) ([]subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []subscription.Subscription
	for _, sub := range s.subs {
		if sub.Status == status {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var _ ports.SubscriptionStore = (*SubscriptionStore)(nil)
