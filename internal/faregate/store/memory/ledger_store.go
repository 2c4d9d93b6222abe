package memory

import (
	"context"
	"sync"

	"github.com/Cythina1106/faregate/internal/faregate/store"
	"github.com/Cythina1106/faregate/internal/faregate/types"
)

// LedgerStore is an in-memory append-only trip ledger, used in tests and dev
// environments. Alongside the log it maintains a per-rider index of the
// currently open entry so FindOpenEntry does not rescan the whole log; the
// log itself stays the source of truth.
type LedgerStore struct {
	mu     sync.Mutex
	events []types.TripEvent
	open   map[string]types.TripEvent // rider id -> open entry event
	seq    int64
}

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{open: make(map[string]types.TripEvent)}
}

func (s *LedgerStore) Append(_ context.Context, ev types.TripEvent) (types.TripEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	ev.Seq = s.seq
	s.events = append(s.events, ev)

	// Only successful events move the open-trip index.
	if ev.Successful() {
		switch ev.Kind {
		case types.KindEntry:
			s.open[ev.RiderID] = ev
		case types.KindExit:
			delete(s.open, ev.RiderID)
		}
	}

	return ev, nil
}

func (s *LedgerStore) FindOpenEntry(_ context.Context, riderID string) (types.TripEvent, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.open[riderID]
	return ev, ok, nil
}

func (s *LedgerStore) Recent(_ context.Context, f store.RecentFilter) ([]types.TripEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := f.Limit
	if limit <= 0 {
		limit = store.DefaultRecentLimit
	}

	out := make([]types.TripEvent, 0, limit)
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		if f.Matches(s.events[i]) {
			out = append(out, s.events[i])
		}
	}
	return out, nil
}

// Events returns a copy of the full log in insertion order. Test-only helper.
func (s *LedgerStore) Events() []types.TripEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.TripEvent, len(s.events))
	copy(out, s.events)
	return out
}
