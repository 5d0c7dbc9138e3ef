package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/clubgate/clubgate/domain/member"
	"github.com/clubgate/clubgate/ports"
)

// MemberStore is an in-memory implementation of ports.MemberStore.
type MemberStore struct {
	mu      sync.RWMutex
	members map[string]member.Member
}

// NewMemberStore creates a new in-memory member store.
func NewMemberStore() *MemberStore {
	return &MemberStore{members: make(map[string]member.Member)}
}

// Get retrieves a member by ID.
func (s *MemberStore) Get(ctx context.Context, id string) (member.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.members[id]
	if !ok {
		return member.Member{}, ports.ErrNotFound
	}
	return m, nil
}

// Create stores a new member.
func (s *MemberStore) Create(ctx context.Context, m member.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.members[m.ID]; ok {
		return ports.ErrDuplicate
	}
	s.members[m.ID] = m
	return nil
}

// List returns members with pagination, ordered by ID.
func (s *MemberStore) List(ctx context.Context, limit, offset int) ([]member.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]member.Member, 0, len(s.members))
	for _, m := range s.members {
		all = append(all, m)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

var _ ports.MemberStore = (*MemberStore)(nil)
