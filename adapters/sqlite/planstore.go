package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/clubgate/clubgate/domain/period"
	"github.com/clubgate/clubgate/domain/plan"
	"github.com/clubgate/clubgate/ports"
)

// PlanStore implements ports.PlanStore using SQLite.
type PlanStore struct {
	db *DB
}

// NewPlanStore creates a new SQLite plan store.
func NewPlanStore(db *DB) *PlanStore {
	return &PlanStore{db: db}
}

// List returns all plans ordered by ID.
func (s *PlanStore) List(ctx context.Context) ([]plan.Plan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, price, duration, duration_unit, enabled, created_at, updated_at
		FROM plans
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []plan.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// Get retrieves a plan by ID.
func (s *PlanStore) Get(ctx context.Context, id string) (plan.Plan, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, price, duration, duration_unit, enabled, created_at, updated_at
		FROM plans
		WHERE id = ?
	`, id)

	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return plan.Plan{}, ports.ErrNotFound
	}
	return p, err
}

// Create stores a new plan.
func (s *PlanStore) Create(ctx context.Context, p plan.Plan) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plans (id, name, price, duration, duration_unit, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Price.String(), p.Duration, string(p.DurationUnit), p.Enabled, p.CreatedAt, p.UpdatedAt)

	if isUniqueConstraintError(err) {
		return ports.ErrDuplicate
	}
	return err
}

// Update modifies a plan.
func (s *PlanStore) Update(ctx context.Context, p plan.Plan) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE plans
		SET name = ?, price = ?, duration = ?, duration_unit = ?, enabled = ?, updated_at = ?
		WHERE id = ?
	`, p.Name, p.Price.String(), p.Duration, string(p.DurationUnit), p.Enabled, time.Now().UTC(), p.ID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// Delete removes a plan.
func (s *PlanStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (plan.Plan, error) {
	var p plan.Plan
	var price, unit string

	err := row.Scan(&p.ID, &p.Name, &price, &p.Duration, &unit, &p.Enabled, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return plan.Plan{}, err
	}

	if p.Price, err = parseDecimal(price); err != nil {
		return plan.Plan{}, err
	}
	p.DurationUnit = period.ParseUnit(unit)
	return p, nil
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ports.ErrNotFound
	}
	return nil
}

var _ ports.PlanStore = (*PlanStore)(nil)
