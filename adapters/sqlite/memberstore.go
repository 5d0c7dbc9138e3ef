package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/clubgate/clubgate/domain/member"
	"github.com/clubgate/clubgate/ports"
)

// MemberStore implements ports.MemberStore using SQLite.
type MemberStore struct {
	db *DB
}

// NewMemberStore creates a new SQLite member store.
func NewMemberStore(db *DB) *MemberStore {
	return &MemberStore{db: db}
}

// Get retrieves a member by ID.
func (s *MemberStore) Get(ctx context.Context, id string) (member.Member, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, company_id, created_at, updated_at
		FROM members
		WHERE id = ?
	`, id)

	var m member.Member
	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.CompanyID, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return member.Member{}, ports.ErrNotFound
	}
	return m, err
}

// Create stores a new member.
func (s *MemberStore) Create(ctx context.Context, m member.Member) error {
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO members (id, name, email, phone, company_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.Name, m.Email, m.Phone, m.CompanyID, m.CreatedAt, m.UpdatedAt)

	if isUniqueConstraintError(err) {
		return ports.ErrDuplicate
	}
	return err
}

// List returns members with pagination, ordered by ID.
func (s *MemberStore) List(ctx context.Context, limit, offset int) ([]member.Member, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, phone, company_id, created_at, updated_at
		FROM members
		ORDER BY id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []member.Member
	for rows.Next() {
		var m member.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.CompanyID, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

var _ ports.MemberStore = (*MemberStore)(nil)
