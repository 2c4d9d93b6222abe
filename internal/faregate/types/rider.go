package types

import "time"

// Category is a rider's fare class. It selects the price column in the
// fare table.
type Category string

const (
	CategoryStandard Category = "standard"
	CategoryStudent  Category = "student"
	CategorySenior   Category = "senior"
	CategoryStaff    Category = "staff"
)

// Valid reports whether c is one of the four known fare classes.
func (c Category) Valid() bool {
	switch c {
	case CategoryStandard, CategoryStudent, CategorySenior, CategoryStaff:
		return true
	}
	return false
}

// AccountStatus is the lifecycle state of a rider's account as reported by
// the rider directory.
type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusSuspended AccountStatus = "suspended"
	StatusExpired   AccountStatus = "expired"
)

// Rider is a snapshot of a fare-card holder read from the rider directory.
// The balance is authoritative only at the directory; the processor never
// debits from a snapshot, it asks the directory to conditionally debit.
type Rider struct {
	CardID       string        `json:"card_id"`
	Name         string        `json:"name"`
	Category     Category      `json:"category"`
	Status       AccountStatus `json:"status"`
	BalanceCents int64         `json:"balance_cents"`
	ValidUntil   time.Time     `json:"valid_until"`
}

// Expired reports whether the rider's validity deadline has passed at now,
// or the directory has already marked the account expired.
func (r Rider) Expired(now time.Time) bool {
	return r.Status == StatusExpired || now.After(r.ValidUntil)
}
