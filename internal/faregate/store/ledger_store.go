package store

import (
	"context"

	"github.com/Cythina1106/faregate/internal/faregate/types"
)

// RecentFilter narrows a Recent query. Zero-value fields match everything.
// Limit caps the result size; stores apply DefaultRecentLimit when it is
// zero or negative.
type RecentFilter struct {
	RiderID string
	GateID  string
	Kind    types.EventKind
	Outcome types.Outcome
	Limit   int
}

// DefaultRecentLimit bounds Recent queries that do not specify a limit.
const DefaultRecentLimit = 100

// Matches reports whether ev passes the filter (ignoring Limit). Shared by
// the memory store and by in-process consumers of the ledger.
func (f RecentFilter) Matches(ev types.TripEvent) bool {
	if f.RiderID != "" && ev.RiderID != f.RiderID {
		return false
	}
	if f.GateID != "" && ev.GateID != f.GateID {
		return false
	}
	if f.Kind != "" && ev.Kind != f.Kind {
		return false
	}
	if f.Outcome != "" && ev.Outcome != f.Outcome {
		return false
	}
	return true
}

// LedgerStore persists trip events as an append-only log. Implementations
// assign each appended event a monotonically increasing sequence number;
// nothing ever updates or deletes a row.
type LedgerStore interface {
	// Append stores the event and returns it with Seq populated.
	// An append failure is the one fatal condition in tap processing.
	Append(ctx context.Context, ev types.TripEvent) (types.TripEvent, error)

	// FindOpenEntry returns the rider's most recent successful entry event
	// that has no later (by sequence) successful exit event, or ok=false if
	// the rider has no open trip. Failure events never count.
	FindOpenEntry(ctx context.Context, riderID string) (types.TripEvent, bool, error)

	// Recent returns events matching the filter, newest first.
	Recent(ctx context.Context, f RecentFilter) ([]types.TripEvent, error)
}
