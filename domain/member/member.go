// Package member provides subscriber value types.
package member

import "time"

// Member represents an individual club member (value type).
type Member struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	CompanyID string // empty for individual members
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Company represents a corporate subscriber whose employees check in
// under a shared subscription (value type).
type Company struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
