package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/clubgate/clubgate/domain/checkin"
	"github.com/clubgate/clubgate/domain/member"
	"github.com/clubgate/clubgate/domain/period"
	"github.com/clubgate/clubgate/domain/plan"
	"github.com/clubgate/clubgate/ports"
)

// MembershipService manages plans, members and check-ins.
type MembershipService struct {
	plans    ports.PlanStore
	members  ports.MemberStore
	subs     ports.SubscriptionStore
	checkins ports.CheckInStore
	clock    ports.Clock
	idgen    ports.IDGenerator
	logger   zerolog.Logger
}

// NewMembershipService creates a new membership service.
func NewMembershipService(
	plans ports.PlanStore,
	members ports.MemberStore,
	subs ports.SubscriptionStore,
	checkins ports.CheckInStore,
	clock ports.Clock,
	idgen ports.IDGenerator,
	logger zerolog.Logger,
) *MembershipService {
	return &MembershipService{
		plans:    plans,
		members:  members,
		subs:     subs,
		checkins: checkins,
		clock:    clock,
		idgen:    idgen,
		logger:   logger,
	}
}

// CreatePlan validates and stores a new plan. A zero duration defaults
// to one period of the given unit.
func (s *MembershipService) CreatePlan(ctx context.Context, p plan.Plan) (plan.Plan, error) {
	if strings.TrimSpace(p.Name) == "" {
		return plan.Plan{}, fmt.Errorf("%w: plan name is required", ErrValidation)
	}
	if p.Price.IsNegative() {
		return plan.Plan{}, fmt.Errorf("%w: plan price must not be negative", ErrValidation)
	}
	if p.Duration < 0 {
		return plan.Plan{}, fmt.Errorf("%w: plan duration must not be negative", ErrValidation)
	}
	if p.Duration == 0 {
		p.Duration = 1
	}

	now := s.clock.Now()
	if p.ID == "" {
		p.ID = s.idgen.New()
	}
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.plans.Create(ctx, p); err != nil {
		return plan.Plan{}, fmt.Errorf("create plan: %w", err)
	}

	s.logger.Info().
		Str("plan_id", p.ID).
		Str("name", p.Name).
		Str("price", p.Price.String()).
		Msg("plan created")
	return p, nil
}

// UpdatePlan modifies an existing plan. Subscriptions keep the unit
// price they were sold at; a price change only affects new sales.
func (s *MembershipService) UpdatePlan(ctx context.Context, p plan.Plan) (plan.Plan, error) {
	current, err := s.plans.Get(ctx, p.ID)
	if err != nil {
		return plan.Plan{}, err
	}
	if strings.TrimSpace(p.Name) == "" {
		p.Name = current.Name
	}
	if p.Price.IsNegative() {
		return plan.Plan{}, fmt.Errorf("%w: plan price must not be negative", ErrValidation)
	}
	if p.Duration < 0 {
		return plan.Plan{}, fmt.Errorf("%w: plan duration must not be negative", ErrValidation)
	}
	if p.Duration == 0 {
		p.Duration = 1
	}
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = s.clock.Now()

	if err := s.plans.Update(ctx, p); err != nil {
		return plan.Plan{}, fmt.Errorf("update plan: %w", err)
	}

	s.logger.Info().Str("plan_id", p.ID).Msg("plan updated")
	return p, nil
}

// DeletePlan removes a plan. Existing subscriptions are unaffected;
// they carry their own unit price and duration snapshot via the plan id
// they were created with.
func (s *MembershipService) DeletePlan(ctx context.Context, id string) error {
	if err := s.plans.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("plan_id", id).Msg("plan deleted")
	return nil
}

// GetPlan retrieves a plan by ID.
func (s *MembershipService) GetPlan(ctx context.Context, id string) (plan.Plan, error) {
	return s.plans.Get(ctx, id)
}

// ListPlans returns all plans.
func (s *MembershipService) ListPlans(ctx context.Context) ([]plan.Plan, error) {
	return s.plans.List(ctx)
}

// SeedPlans creates the configured plans that do not exist yet.
// Existing plans are left untouched so runtime edits survive restarts.
func (s *MembershipService) SeedPlans(ctx context.Context, seeds []plan.Plan) error {
	for _, p := range seeds {
		if _, err := s.plans.Get(ctx, p.ID); err == nil {
			continue
		} else if !errors.Is(err, ports.ErrNotFound) {
			return fmt.Errorf("seed plan %s: %w", p.ID, err)
		}
		if _, err := s.CreatePlan(ctx, p); err != nil {
			return fmt.Errorf("seed plan %s: %w", p.ID, err)
		}
	}
	return nil
}

// CreateMember validates and stores a new member.
func (s *MembershipService) CreateMember(ctx context.Context, m member.Member) (member.Member, error) {
	if strings.TrimSpace(m.Name) == "" {
		return member.Member{}, fmt.Errorf("%w: member name is required", ErrValidation)
	}

	now := s.clock.Now()
	if m.ID == "" {
		m.ID = s.idgen.New()
	}
	m.CreatedAt = now
	m.UpdatedAt = now

	if err := s.members.Create(ctx, m); err != nil {
		return member.Member{}, fmt.Errorf("create member: %w", err)
	}

	s.logger.Info().Str("member_id", m.ID).Msg("member created")
	return m, nil
}

// GetMember retrieves a member by ID.
func (s *MembershipService) GetMember(ctx context.Context, id string) (member.Member, error) {
	return s.members.Get(ctx, id)
}

// ListMembers returns members with pagination.
func (s *MembershipService) ListMembers(ctx context.Context, limit, offset int) ([]member.Member, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.members.List(ctx, limit, offset)
}

// RecordCheckIn records a gym visit against a subscription. Visits on
// terminal subscriptions are rejected; a failed check-in (turnstile
// denied) is recorded for audit but never billed.
func (s *MembershipService) RecordCheckIn(ctx context.Context, subscriptionID, memberID string, status checkin.Status) (checkin.CheckIn, error) {
	if !checkin.ValidStatus(status) {
		return checkin.CheckIn{}, fmt.Errorf("%w: unknown check-in status %q", ErrValidation, status)
	}

	sub, err := s.subs.Get(ctx, subscriptionID)
	if err != nil {
		return checkin.CheckIn{}, err
	}
	if sub.IsTerminal() {
		return checkin.CheckIn{}, fmt.Errorf("%w: subscription %s is %s", ErrNotEligible, sub.ID, sub.Status)
	}

	now := s.clock.Now()
	c := checkin.CheckIn{
		ID:             s.idgen.New(),
		SubscriptionID: subscriptionID,
		MemberID:       memberID,
		Status:         status,
		At:             now,
		CreatedAt:      now,
	}
	if err := s.checkins.Create(ctx, c); err != nil {
		return checkin.CheckIn{}, fmt.Errorf("record check-in: %w", err)
	}

	s.logger.Debug().
		Str("subscription_id", subscriptionID).
		Str("member_id", memberID).
		Str("status", string(status)).
		Msg("check-in recorded")
	return c, nil
}

// ListCheckIns returns recent check-ins for a subscription.
func (s *MembershipService) ListCheckIns(ctx context.Context, subscriptionID string, limit int) ([]checkin.CheckIn, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.checkins.ListBySubscription(ctx, subscriptionID, limit)
}

// PlanFromSeed converts a config-style seed into a plan value.
func PlanFromSeed(id, name, price string, duration int, unit string, enabled bool) (plan.Plan, error) {
	p := plan.Plan{
		ID:           id,
		Name:         name,
		Duration:     duration,
		DurationUnit: period.ParseUnit(unit),
		Enabled:      enabled,
	}
	if price != "" {
		d, err := decimal.NewFromString(price)
		if err != nil {
			return plan.Plan{}, fmt.Errorf("%w: plan %s price %q", ErrValidation, id, price)
		}
		p.Price = d
	}
	return p, nil
}
