package subscription

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/clubgate/clubgate/domain/money"
	"github.com/clubgate/clubgate/domain/plan"
)

// AmountDue computes the current amount due by billing type.
//
// per_pass charges the all-time completed check-in count at the unit
// price (the ranged count belongs to invoice creation, not here).
// retail_fixed charges unit price times the plan's duration count.
// An unknown billing type falls back to the unit price unchanged.
// This is a PURE function.
func AmountDue(s Subscription, p plan.Plan, completedCheckIns int64) decimal.Decimal {
	switch s.BillingType {
	case BillingPerPass:
		return money.PerPass(completedCheckIns, s.UnitPrice)
	case BillingRetailFixed:
		return money.Round(s.UnitPrice.Mul(decimal.NewFromInt(int64(p.Duration))))
	}
	return money.Round(s.UnitPrice)
}

// Describe renders the amount-due formula for display. The string is
// not authoritative; AmountDue is.
// This is a PURE function.
func Describe(s Subscription, p plan.Plan, completedCheckIns int64, currency string) string {
	total := AmountDue(s, p, completedCheckIns)
	switch s.BillingType {
	case BillingPerPass:
		return fmt.Sprintf("%d passes x %s = %s",
			completedCheckIns, money.Format(s.UnitPrice, currency), money.Format(total, currency))
	case BillingRetailFixed:
		return fmt.Sprintf("%s x %d %s = %s",
			money.Format(s.UnitPrice, currency), p.Duration, p.DurationUnit, money.Format(total, currency))
	}
	return money.Format(total, currency)
}
