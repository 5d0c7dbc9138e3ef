package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/clubgate/clubgate/domain/invoice"
	"github.com/clubgate/clubgate/domain/period"
	"github.com/clubgate/clubgate/ports"
)

// InvoiceStore is an in-memory implementation of ports.InvoiceStore.
// References are unique across the store, matching the sqlite unique
// index.
type InvoiceStore struct {
	mu       sync.RWMutex
	invoices map[string]invoice.Invoice
	byRef    map[string]string // reference -> id
}

// NewInvoiceStore creates a new in-memory invoice store.
func NewInvoiceStore() *InvoiceStore {
	return &InvoiceStore{
		invoices: make(map[string]invoice.Invoice),
		byRef:    make(map[string]string),
	}
}

// Get retrieves an invoice by ID.
func (s *InvoiceStore) Get(ctx context.Context, id string) (invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[id]
	if !ok {
		return invoice.Invoice{}, ports.ErrNotFound
	}
	return inv, nil
}

// Create stores a new invoice, enforcing the totals invariant and
// reference uniqueness.
func (s *InvoiceStore) Create(ctx context.Context, inv invoice.Invoice) error {
	if err := inv.CheckTotal(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.invoices[inv.ID]; ok {
		return ports.ErrDuplicate
	}
	if _, ok := s.byRef[inv.Reference]; ok {
		return ports.ErrDuplicate
	}
	s.invoices[inv.ID] = inv
	s.byRef[inv.Reference] = inv.ID
	return nil
}

// UpdateStatus updates invoice status.
func (s *InvoiceStore) UpdateStatus(ctx context.Context, id string, status invoice.Status, paidAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[id]
	if !ok {
		return ports.ErrNotFound
	}
	inv.Status = status
	inv.PaidAt = paidAt
	s.invoices[id] = inv
	return nil
}

// ListBySubscription returns invoices for a subscription, newest first.
func (s *InvoiceStore) ListBySubscription(ctx context.Context, subscriptionID string, limit int) ([]invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []invoice.Invoice
	for _, inv := range s.invoices {
		if inv.SubscriptionID == subscriptionID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// LastReference returns the highest reference with the given prefix.
func (s *InvoiceStore) LastReference(ctx context.Context, prefix string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var last string
	for ref := range s.byRef {
		if len(ref) >= len(prefix) && ref[:len(prefix)] == prefix && ref > last {
			last = ref
		}
	}
	if last == "" {
		return "", ports.ErrNotFound
	}
	return last, nil
}

// FindOpenOverlap returns an open invoice overlapping [start, end].
func (s *InvoiceStore) FindOpenOverlap(ctx context.Context, subscriptionID string, start, end time.Time) (invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, inv := range s.invoices {
		if inv.SubscriptionID != subscriptionID || !inv.IsOpen() {
			continue
		}
		if period.Overlaps(inv.PeriodStart, inv.PeriodEnd, start, end) {
			return inv, nil
		}
	}
	return invoice.Invoice{}, ports.ErrNotFound
}

// ListDueBefore returns open invoices due before t.
func (s *InvoiceStore) ListDueBefore(ctx context.Context, t time.Time) ([]invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []invoice.Invoice
	for _, inv := range s.invoices {
		if inv.IsOpen() && inv.DueDate != nil && inv.DueDate.Before(t) {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var _ ports.InvoiceStore = (*InvoiceStore)(nil)
