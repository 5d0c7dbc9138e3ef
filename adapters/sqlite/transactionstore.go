package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/clubgate/clubgate/domain/transaction"
	"github.com/clubgate/clubgate/ports"
)

// TransactionStore implements ports.TransactionStore using SQLite.
type TransactionStore struct {
	db *DB
}

// NewTransactionStore creates a new SQLite transaction store.
func NewTransactionStore(db *DB) *TransactionStore {
	return &TransactionStore{db: db}
}

const transactionColumns = `
	id, subscription_id, invoice_id, amount_due, amount_paid, status,
	current_expiry_date, next_expiry_date, created_at, updated_at`

// Get retrieves a transaction by ID.
func (s *TransactionStore) Get(ctx context.Context, id string) (transaction.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = ?
	`, id)

	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return transaction.Transaction{}, ports.ErrNotFound
	}
	return t, err
}

// Create stores a new transaction.
func (s *TransactionStore) Create(ctx context.Context, t transaction.Transaction) error {
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID, t.SubscriptionID, t.InvoiceID, t.AmountDue.String(), t.AmountPaid.String(),
		string(t.Status), t.CurrentExpiryDate, t.NextExpiryDate, t.CreatedAt, t.UpdatedAt,
	)

	if isUniqueConstraintError(err) {
		return ports.ErrDuplicate
	}
	return err
}

// Update modifies a transaction.
func (s *TransactionStore) Update(ctx context.Context, t transaction.Transaction) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET amount_paid = ?, status = ?, updated_at = ?
		WHERE id = ?
	`, t.AmountPaid.String(), string(t.Status), time.Now().UTC(), t.ID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// ListBySubscription returns transactions for a subscription, oldest first.
func (s *TransactionStore) ListBySubscription(ctx context.Context, subscriptionID string) ([]transaction.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE subscription_id = ?
		ORDER BY created_at
	`, subscriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []transaction.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func scanTransaction(row rowScanner) (transaction.Transaction, error) {
	var t transaction.Transaction
	var amountDue, amountPaid, status string

	err := row.Scan(
		&t.ID, &t.SubscriptionID, &t.InvoiceID, &amountDue, &amountPaid, &status,
		&t.CurrentExpiryDate, &t.NextExpiryDate, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return transaction.Transaction{}, err
	}

	if t.AmountDue, err = parseDecimal(amountDue); err != nil {
		return transaction.Transaction{}, err
	}
	if t.AmountPaid, err = parseDecimal(amountPaid); err != nil {
		return transaction.Transaction{}, err
	}
	t.Status = transaction.Status(status)
	return t, nil
}

var _ ports.TransactionStore = (*TransactionStore)(nil)
