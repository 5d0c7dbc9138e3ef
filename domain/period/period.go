// Package period provides duration-unit date math as pure functions.
package period

import "time"

// Unit is the unit a plan duration is counted in.
type Unit string

const (
	UnitDays   Unit = "days"
	UnitWeeks  Unit = "weeks"
	UnitMonths Unit = "months"
	UnitYears  Unit = "years"
)

// ParseUnit maps a string to a Unit. Unknown values fall back to days.
func ParseUnit(s string) Unit {
	switch Unit(s) {
	case UnitDays, UnitWeeks, UnitMonths, UnitYears:
		return Unit(s)
	}
	return UnitDays
}

// Add advances t by count units. Unknown units count as days.
// Month and year addition clamp to the last valid day of the target
// month, so 2024-01-31 plus one month is 2024-02-29.
// This is a PURE function.
func Add(t time.Time, unit Unit, count int) time.Time {
	switch unit {
	case UnitWeeks:
		return t.AddDate(0, 0, 7*count)
	case UnitMonths:
		return addMonthsClamped(t, count)
	case UnitYears:
		return addMonthsClamped(t, 12*count)
	default:
		return t.AddDate(0, 0, count)
	}
}

// addMonthsClamped adds months without the normalization overflow of
// AddDate (which turns Jan 31 + 1 month into Mar 2/3).
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	// Date normalizes the month index, so month+months may leave 1..12.
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); day > last {
		day = last
	}
	hour, min, sec := t.Clock()
	return time.Date(first.Year(), first.Month(), day, hour, min, sec, t.Nanosecond(), t.Location())
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month, loc *time.Location) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// DaysRemaining returns the number of days from now until end, rounding
// partial days up. Returns 0 when end is at or before now.
// This is a PURE function.
func DaysRemaining(now, end time.Time) int {
	if !end.After(now) {
		return 0
	}
	d := end.Sub(now)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// Overlaps reports whether [aStart, aEnd] and [bStart, bEnd] share any
// instant. Bounds are inclusive.
// This is a PURE function.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}
