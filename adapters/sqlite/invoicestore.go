package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/clubgate/clubgate/domain/invoice"
	"github.com/clubgate/clubgate/ports"
)

// InvoiceStore implements ports.InvoiceStore using SQLite. The unique
// index on reference is what makes concurrent invoice creation safe:
// the app generates a candidate, inserts, and retries on ErrDuplicate.
type InvoiceStore struct {
	db *DB
}

// NewInvoiceStore creates a new SQLite invoice store.
func NewInvoiceStore(db *DB) *InvoiceStore {
	return &InvoiceStore{db: db}
}

const invoiceColumns = `
	id, subscription_id, reference, amount, tax_amount, discount_amount,
	total_amount, currency, period_start, period_end, status, due_date,
	paid_at, created_at`

// Get retrieves an invoice by ID.
func (s *InvoiceStore) Get(ctx context.Context, id string) (invoice.Invoice, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE id = ?
	`, id)

	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return invoice.Invoice{}, ports.ErrNotFound
	}
	return inv, err
}

// Create stores a new invoice after verifying the totals invariant.
func (s *InvoiceStore) Create(ctx context.Context, inv invoice.Invoice) error {
	if err := inv.CheckTotal(); err != nil {
		return err
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invoices (`+invoiceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		inv.ID, inv.SubscriptionID, inv.Reference,
		inv.Amount.String(), inv.TaxAmount.String(), inv.DiscountAmount.String(),
		inv.TotalAmount.String(), inv.Currency, inv.PeriodStart, inv.PeriodEnd,
		string(inv.Status), nullTime(inv.DueDate), nullTime(inv.PaidAt), inv.CreatedAt,
	)

	if isUniqueConstraintError(err) {
		return ports.ErrDuplicate
	}
	return err
}

// UpdateStatus updates invoice status.
func (s *InvoiceStore) UpdateStatus(ctx context.Context, id string, status invoice.Status, paidAt *time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE invoices
		SET status = ?, paid_at = ?
		WHERE id = ?
	`, string(status), nullTime(paidAt), id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// ListBySubscription returns invoices for a subscription, newest first.
func (s *InvoiceStore) ListBySubscription(ctx context.Context, subscriptionID string, limit int) ([]invoice.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE subscription_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, subscriptionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInvoices(rows)
}

// LastReference returns the highest reference with the given prefix.
// References zero-pad the sequence, so lexicographic order is numeric
// order.
func (s *InvoiceStore) LastReference(ctx context.Context, prefix string) (string, error) {
	var ref string
	err := s.db.QueryRowContext(ctx, `
		SELECT reference
		FROM invoices
		WHERE reference LIKE ? || '%'
		ORDER BY reference DESC
		LIMIT 1
	`, prefix).Scan(&ref)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ports.ErrNotFound
	}
	return ref, err
}

// FindOpenOverlap returns an open invoice overlapping [start, end].
func (s *InvoiceStore) FindOpenOverlap(ctx context.Context, subscriptionID string, start, end time.Time) (invoice.Invoice, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE subscription_id = ?
		  AND status IN (?, ?, ?)
		  AND period_start <= ?
		  AND period_end >= ?
		LIMIT 1
	`, subscriptionID,
		string(invoice.StatusPending), string(invoice.StatusPartiallyPaid), string(invoice.StatusOverdue),
		end, start)

	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return invoice.Invoice{}, ports.ErrNotFound
	}
	return inv, err
}

// ListDueBefore returns open invoices whose due date is before t.
func (s *InvoiceStore) ListDueBefore(ctx context.Context, t time.Time) ([]invoice.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE status IN (?, ?, ?)
		  AND due_date IS NOT NULL
		  AND due_date < ?
		ORDER BY id
	`, string(invoice.StatusPending), string(invoice.StatusPartiallyPaid), string(invoice.StatusOverdue), t)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInvoices(rows)
}

func collectInvoices(rows *sql.Rows) ([]invoice.Invoice, error) {
	var invoices []invoice.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func scanInvoice(row rowScanner) (invoice.Invoice, error) {
	var inv invoice.Invoice
	var amount, tax, discount, total, status string
	var dueDate, paidAt sql.NullTime

	err := row.Scan(
		&inv.ID, &inv.SubscriptionID, &inv.Reference,
		&amount, &tax, &discount, &total, &inv.Currency,
		&inv.PeriodStart, &inv.PeriodEnd, &status,
		&dueDate, &paidAt, &inv.CreatedAt,
	)
	if err != nil {
		return invoice.Invoice{}, err
	}

	if inv.Amount, err = parseDecimal(amount); err != nil {
		return invoice.Invoice{}, err
	}
	if inv.TaxAmount, err = parseDecimal(tax); err != nil {
		return invoice.Invoice{}, err
	}
	if inv.DiscountAmount, err = parseDecimal(discount); err != nil {
		return invoice.Invoice{}, err
	}
	if inv.TotalAmount, err = parseDecimal(total); err != nil {
		return invoice.Invoice{}, err
	}
	inv.Status = invoice.Status(status)
	inv.DueDate = timePtr(dueDate)
	inv.PaidAt = timePtr(paidAt)
	return inv, nil
}

var _ ports.InvoiceStore = (*InvoiceStore)(nil)
