// Package plan provides plan value types and pure functions.
package plan

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/clubgate/clubgate/domain/period"
)

// Plan represents a membership tier (immutable value type). Price is
// the total cost for one full duration, not a per-unit rate.
type Plan struct {
	ID           string
	Name         string
	Price        decimal.Decimal
	Duration     int
	DurationUnit period.Unit
	Enabled      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PeriodEnd returns the end of one plan period starting at start.
// This is a PURE function.
func (p Plan) PeriodEnd(start time.Time) time.Time {
	return period.Add(start, p.DurationUnit, p.Duration)
}

// TotalDays returns the calendar-day length of one plan period
// anchored at start. Month lengths vary, so the anchor matters.
// This is a PURE function.
func (p Plan) TotalDays(start time.Time) int {
	return period.DaysRemaining(start, p.PeriodEnd(start))
}

// Find finds a plan by ID in a list.
// This is a PURE function.
func Find(plans []Plan, id string) (Plan, bool) {
	for _, p := range plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}
