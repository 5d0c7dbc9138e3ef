// Package money provides billing amount arithmetic as pure functions.
//
// All amounts and rates are decimals; results are rounded to two places
// (half up) since they end up on invoices.
package money

import "github.com/shopspring/decimal"

// DiscountKind selects how a discount value is interpreted.
type DiscountKind string

const (
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
)

var hundred = decimal.NewFromInt(100)

// Round normalizes an amount to cents.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// Tax returns amount * ratePercent / 100. A negative amount or rate
// yields zero.
// This is a PURE function.
func Tax(amount, ratePercent decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() || ratePercent.IsNegative() {
		return decimal.Zero
	}
	return Round(amount.Mul(ratePercent).Div(hundred))
}

// Discount computes the discount portion of amount.
//
// Percentage values are clamped to [0, 100]; fixed values are capped at
// amount. A non-positive value or unknown kind yields zero, so the
// result never exceeds amount and is never negative.
// This is a PURE function.
func Discount(amount, value decimal.Decimal, kind DiscountKind) decimal.Decimal {
	if value.Sign() <= 0 || amount.Sign() <= 0 {
		return decimal.Zero
	}
	switch kind {
	case DiscountPercentage:
		pct := value
		if pct.GreaterThan(hundred) {
			pct = hundred
		}
		return Round(amount.Mul(pct).Div(hundred))
	case DiscountFixed:
		if value.GreaterThan(amount) {
			return Round(amount)
		}
		return Round(value)
	}
	return decimal.Zero
}

// PerPass returns the usage charge for a count of unique member-days at
// the given unit price.
// This is a PURE function.
func PerPass(uniqueMemberDays int64, unitPrice decimal.Decimal) decimal.Decimal {
	if uniqueMemberDays <= 0 {
		return decimal.Zero
	}
	return Round(unitPrice.Mul(decimal.NewFromInt(uniqueMemberDays)))
}

// Format renders an amount with its currency code, e.g. "USD 120.00".
// This is a PURE function.
func Format(amount decimal.Decimal, currency string) string {
	if currency == "" {
		return amount.StringFixed(2)
	}
	return currency + " " + amount.StringFixed(2)
}
