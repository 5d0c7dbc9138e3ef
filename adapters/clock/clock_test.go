package clock_test

import (
	"testing"
	"time"

	"github.com/clubgate/clubgate/adapters/clock"
)

func TestRealNowIsUTC(t *testing.T) {
	now := clock.Real{}.Now()
	if now.Location() != time.UTC {
		t.Errorf("Real.Now() location = %v, want UTC", now.Location())
	}
	if time.Since(now) > time.Minute {
		t.Error("Real.Now() is stale")
	}
}

func TestFake(t *testing.T) {
	start := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	f := clock.NewFake(start)

	if !f.Now().Equal(start) {
		t.Errorf("Now = %v, want %v", f.Now(), start)
	}

	f.Advance(48 * time.Hour)
	if want := start.Add(48 * time.Hour); !f.Now().Equal(want) {
		t.Errorf("after Advance: Now = %v, want %v", f.Now(), want)
	}

	other := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f.Set(other)
	if !f.Now().Equal(other) {
		t.Errorf("after Set: Now = %v, want %v", f.Now(), other)
	}
}
