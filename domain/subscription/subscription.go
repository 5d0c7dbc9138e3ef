// Package subscription provides subscription value types and the pure
// lifecycle, rollover and renewal rules. One set of rules serves both
// member and company subscriptions; the subscriber type is data.
package subscription

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/clubgate/clubgate/domain/period"
	"github.com/clubgate/clubgate/domain/plan"
)

// Status represents subscription state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCancelled  Status = "cancelled"
	StatusExpired    Status = "expired"
	StatusRefunded   Status = "refunded"
	StatusRejected   Status = "rejected"
)

// ValidStatus reports whether s is a known status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCancelled, StatusExpired, StatusRefunded, StatusRejected:
		return true
	}
	return false
}

// BillingType selects how the amount due is computed.
type BillingType string

const (
	BillingPerPass     BillingType = "per_pass"
	BillingRetailFixed BillingType = "retail_fixed"
)

// SubscriberType distinguishes member and company subscriptions.
type SubscriberType string

const (
	SubscriberMember  SubscriberType = "member"
	SubscriberCompany SubscriberType = "company"
)

// Subscription represents a membership subscription (value type).
// EndDate is derived state: it is recomputed on payment completion and
// renewal, never edited directly. Version backs the optimistic
// concurrency check on every status/end-date write.
type Subscription struct {
	ID             string
	SubscriberType SubscriberType
	SubscriberID   string
	PlanID         string
	UnitPrice      decimal.Decimal
	BillingType    BillingType
	StartDate      time.Time
	EndDate        *time.Time
	Status         Status
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsTerminal reports whether the subscription is in a state renewal can
// never leave. Expired is not terminal: it is re-entered via renewal.
func (s Subscription) IsTerminal() bool {
	switch s.Status {
	case StatusCancelled, StatusRefunded, StatusRejected:
		return true
	}
	return false
}

// CanRenew reports renewal eligibility: in_progress and expired
// subscriptions renew, and a pending one may be activated by its first
// payment. Terminal states never renew.
func (s Subscription) CanRenew() bool {
	switch s.Status {
	case StatusInProgress, StatusExpired, StatusPending:
		return true
	}
	return false
}

// CanUpgradeTo reports whether the subscription may move to newPlanID.
func (s Subscription) CanUpgradeTo(newPlanID string) bool {
	return newPlanID != "" && newPlanID != s.PlanID && !s.IsTerminal()
}

// DaysRemaining returns whole days until EndDate, partial days rounded
// up; 0 when there is no end date or it has passed.
func (s Subscription) DaysRemaining(now time.Time) int {
	if s.EndDate == nil {
		return 0
	}
	return period.DaysRemaining(now, *s.EndDate)
}

// RolloverAnchor returns the date a new paid period is anchored at: the
// current end date while it is still in the future, otherwise now. A
// lapsed subscription does not get credit for the gap.
// This is a PURE function.
func RolloverAnchor(s Subscription, now time.Time) time.Time {
	if s.EndDate != nil && s.EndDate.After(now) {
		return *s.EndDate
	}
	return now
}

// NextExpiry returns the end date one plan period past the rollover
// anchor. This is the value a completing payment writes back.
// This is a PURE function.
func NextExpiry(s Subscription, p plan.Plan, now time.Time) time.Time {
	return p.PeriodEnd(RolloverAnchor(s, now))
}

// RenewalKind classifies a renewal by how close to expiry it happens.
// Purely informative; it never changes the computed dates' arithmetic.
type RenewalKind string

const (
	RenewalNew     RenewalKind = "new"
	RenewalExpired RenewalKind = "expired_renewal"
	RenewalEarly   RenewalKind = "early_renewal"
	RenewalPre     RenewalKind = "pre_renewal"
	RenewalFuture  RenewalKind = "future_renewal"
)

// RenewalTerms is the classified outcome of a renewal request.
type RenewalTerms struct {
	Kind        RenewalKind
	StartDate   time.Time
	EndDate     time.Time
	CanRenewNow bool
}

// PlanRenewal classifies a renewal of s under p as of now and computes
// the new period. Expired (or lapsed) subscriptions restart today; all
// others chain onto the current end date with no gap. More than 30 days
// out the renewal is flagged not-renewable-now and callers need an
// explicit force.
// This is a PURE function.
func PlanRenewal(s Subscription, p plan.Plan, now time.Time) RenewalTerms {
	terms := RenewalTerms{CanRenewNow: true}

	switch {
	case s.EndDate == nil:
		terms.Kind = RenewalNew
		terms.StartDate = now
	case s.Status == StatusExpired || !s.EndDate.After(now):
		terms.Kind = RenewalExpired
		terms.StartDate = now
	default:
		terms.StartDate = *s.EndDate
		switch days := s.DaysRemaining(now); {
		case days <= 7:
			terms.Kind = RenewalEarly
		case days <= 30:
			terms.Kind = RenewalPre
		default:
			terms.Kind = RenewalFuture
			terms.CanRenewNow = false
		}
	}

	terms.EndDate = p.PeriodEnd(terms.StartDate)
	return terms
}
