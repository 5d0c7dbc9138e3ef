// Package checkin provides check-in value types and the unique
// member-day count that per-pass billing is based on.
package checkin

import "time"

// Status represents the outcome of a check-in attempt.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ValidStatus reports whether s is a known status.
func ValidStatus(s Status) bool {
	return s == StatusCompleted || s == StatusFailed
}

// CheckIn represents a member entering the club under a subscription
// (value type).
type CheckIn struct {
	ID             string
	SubscriptionID string
	MemberID       string
	At             time.Time
	Status         Status
	CreatedAt      time.Time
}

// UniqueMemberDays counts distinct (member, calendar day) pairs among
// completed check-ins within [from, to]. A member checking in twice on
// the same day counts once. Calendar days are taken in the check-in's
// own location.
// This is a PURE function.
func UniqueMemberDays(checkins []CheckIn, from, to time.Time) int64 {
	seen := make(map[string]struct{})
	for _, c := range checkins {
		if c.Status != StatusCompleted {
			continue
		}
		if c.At.Before(from) || c.At.After(to) {
			continue
		}
		key := c.MemberID + "|" + c.At.Format("2006-01-02")
		seen[key] = struct{}{}
	}
	return int64(len(seen))
}

// CountCompleted counts completed check-ins with no date bound.
// This is a PURE function.
func CountCompleted(checkins []CheckIn) int64 {
	var n int64
	for _, c := range checkins {
		if c.Status == StatusCompleted {
			n++
		}
	}
	return n
}
