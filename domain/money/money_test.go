package money_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/clubgate/clubgate/domain/money"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestTax(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		rate   string
		want   string
	}{
		{"plain", "1000", "18", "180"},
		{"zero rate", "1000", "0", "0"},
		{"zero amount", "0", "18", "0"},
		{"fractional rate", "200", "7.5", "15"},
		{"rounds to cents", "99.99", "18", "18"},
		{"negative rate yields zero", "1000", "-5", "0"},
		{"negative amount yields zero", "-100", "18", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := money.Tax(dec(tt.amount), dec(tt.rate))
			if !got.Equal(dec(tt.want)) {
				t.Errorf("Tax(%s, %s) = %s, want %s", tt.amount, tt.rate, got, tt.want)
			}
		})
	}
}

func TestDiscount(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		value  string
		kind   money.DiscountKind
		want   string
	}{
		{"percentage", "1000", "10", money.DiscountPercentage, "100"},
		{"percentage clamped over 100", "1000", "150", money.DiscountPercentage, "1000"},
		{"percentage exactly 100", "1000", "100", money.DiscountPercentage, "1000"},
		{"fixed", "1000", "250", money.DiscountFixed, "250"},
		{"fixed capped at amount", "1000", "5000", money.DiscountFixed, "1000"},
		{"zero value", "1000", "0", money.DiscountPercentage, "0"},
		{"negative value", "1000", "-10", money.DiscountFixed, "0"},
		{"unknown kind", "1000", "10", money.DiscountKind("loyalty"), "0"},
		{"zero amount", "0", "10", money.DiscountPercentage, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := money.Discount(dec(tt.amount), dec(tt.value), tt.kind)
			if !got.Equal(dec(tt.want)) {
				t.Errorf("Discount(%s, %s, %s) = %s, want %s", tt.amount, tt.value, tt.kind, got, tt.want)
			}
			if got.GreaterThan(dec(tt.amount)) && dec(tt.amount).Sign() > 0 {
				t.Errorf("discount %s exceeds amount %s", got, tt.amount)
			}
			if got.IsNegative() {
				t.Errorf("discount went negative: %s", got)
			}
		})
	}
}

func TestPerPass(t *testing.T) {
	tests := []struct {
		name      string
		days      int64
		unitPrice string
		want      string
	}{
		{"plain", 12, "15", "180"},
		{"zero days", 0, "15", "0"},
		{"negative days", -3, "15", "0"},
		{"fractional price", 3, "9.99", "29.97"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := money.PerPass(tt.days, dec(tt.unitPrice))
			if !got.Equal(dec(tt.want)) {
				t.Errorf("PerPass(%d, %s) = %s, want %s", tt.days, tt.unitPrice, got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	if got := money.Format(dec("120"), "USD"); got != "USD 120.00" {
		t.Errorf("Format = %q", got)
	}
	if got := money.Format(dec("9.5"), ""); got != "9.50" {
		t.Errorf("Format without currency = %q", got)
	}
}
