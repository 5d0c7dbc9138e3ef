package plan_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clubgate/clubgate/domain/period"
	"github.com/clubgate/clubgate/domain/plan"
)

func TestPeriodEnd(t *testing.T) {
	p := plan.Plan{ID: "monthly", Duration: 1, DurationUnit: period.UnitMonths}
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	want := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	if got := p.PeriodEnd(start); !got.Equal(want) {
		t.Errorf("PeriodEnd = %v, want %v", got, want)
	}
}

func TestTotalDays(t *testing.T) {
	p := plan.Plan{Duration: 1, DurationUnit: period.UnitMonths}

	// February 2024 has 29 days.
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if got := p.TotalDays(start); got != 29 {
		t.Errorf("TotalDays(feb) = %d, want 29", got)
	}

	start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := p.TotalDays(start); got != 31 {
		t.Errorf("TotalDays(jan) = %d, want 31", got)
	}
}

func TestFind(t *testing.T) {
	plans := []plan.Plan{
		{ID: "basic", Price: decimal.NewFromInt(50)},
		{ID: "pro", Price: decimal.NewFromInt(90)},
	}

	if p, ok := plan.Find(plans, "pro"); !ok || !p.Price.Equal(decimal.NewFromInt(90)) {
		t.Errorf("Find(pro) = %+v, %v", p, ok)
	}
	if _, ok := plan.Find(plans, "missing"); ok {
		t.Error("Find(missing) should not match")
	}
}
