package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/clubgate/clubgate/domain/transaction"
	"github.com/clubgate/clubgate/ports"
)

// TransactionStore is an in-memory implementation of ports.TransactionStore.
type TransactionStore struct {
	mu  sync.RWMutex
	txs map[string]transaction.Transaction
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{txs: make(map[string]transaction.Transaction)}
}

// Get retrieves a transaction by ID.
func (s *TransactionStore) Get(ctx context.Context, id string) (transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.txs[id]
	if !ok {
		return transaction.Transaction{}, ports.ErrNotFound
	}
	return t, nil
}

// Create stores a new transaction.
func (s *TransactionStore) Create(ctx context.Context, t transaction.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.txs[t.ID]; ok {
		return ports.ErrDuplicate
	}
	s.txs[t.ID] = t
	return nil
}

// Update modifies a transaction.
func (s *TransactionStore) Update(ctx context.Context, t transaction.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.txs[t.ID]; !ok {
		return ports.ErrNotFound
	}
	s.txs[t.ID] = t
	return nil
}

// ListBySubscription returns transactions for a subscription.
func (s *TransactionStore) ListBySubscription(ctx context.Context, subscriptionID string) ([]transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []transaction.Transaction
	for _, t := range s.txs {
		if t.SubscriptionID == subscriptionID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

var _ ports.TransactionStore = (*TransactionStore)(nil)
