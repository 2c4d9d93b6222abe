package types

import "time"

// EventKind distinguishes the two halves of a trip.
type EventKind string

const (
	KindEntry EventKind = "entry"
	KindExit  EventKind = "exit"
)

// Outcome is the terminal result of a tap. Every processed tap gets exactly
// one outcome; rejections are outcomes, not Go errors.
type Outcome string

const (
	OutcomeSuccess             Outcome = "success"
	OutcomeInsufficientBalance Outcome = "insufficient_balance"
	OutcomeCardExpired         Outcome = "card_expired"
	OutcomeCardSuspended       Outcome = "card_suspended"
	OutcomeDuplicateEntry      Outcome = "duplicate_entry"
	OutcomeNoMatchingEntry     Outcome = "no_matching_entry"
	OutcomeSystemError         Outcome = "system_error"
)

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeSuccess, OutcomeInsufficientBalance, OutcomeCardExpired,
		OutcomeCardSuspended, OutcomeDuplicateEntry, OutcomeNoMatchingEntry,
		OutcomeSystemError:
		return true
	}
	return false
}

// TripEvent is one immutable record in the trip ledger. Events are only ever
// appended, never updated or deleted.
//
// Seq is assigned by the ledger store on append and is strictly increasing
// in insertion order. Open-trip derivation orders by Seq, not by timestamp,
// so two events sharing a timestamp are still unambiguous.
type TripEvent struct {
	Seq               int64     `json:"seq"`
	EventID           string    `json:"event_id"`
	Kind              EventKind `json:"kind"`
	RiderID           string    `json:"rider_id"`
	RiderName         string    `json:"rider_name,omitempty"`
	StationID         string    `json:"station_id"`
	GateID            string    `json:"gate_id"`
	OccurredAt        time.Time `json:"occurred_at"`
	FareCents         int64     `json:"fare_cents"`
	BalanceAfterCents int64     `json:"balance_after_cents"`
	DurationMs        int64     `json:"duration_ms,omitempty"` // set on successful exits only
	Outcome           Outcome   `json:"outcome"`
	Detail            string    `json:"detail,omitempty"`
}

// Successful reports whether the event records a completed entry or exit.
// Only successful events participate in open-trip derivation.
func (e TripEvent) Successful() bool {
	return e.Outcome == OutcomeSuccess
}
