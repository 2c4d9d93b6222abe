package service_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cythina1106/faregate/internal/faregate/fare"
	"github.com/Cythina1106/faregate/internal/faregate/service"
	"github.com/Cythina1106/faregate/internal/faregate/store"
	"github.com/Cythina1106/faregate/internal/faregate/store/memory"
	"github.com/Cythina1106/faregate/internal/faregate/types"
)

var testValidUntil = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

func testGates() []types.Gate {
	return []types.Gate{
		{ID: "gate-a-in", StationID: "st_a", Mode: types.GateEntryOnly, Status: types.GateOnline},
		{ID: "gate-a-bi", StationID: "st_a", Mode: types.GateBidirectional, Status: types.GateOnline},
		{ID: "gate-b-bi", StationID: "st_b", Mode: types.GateBidirectional, Status: types.GateOnline},
		{ID: "gate-b-out", StationID: "st_b", Mode: types.GateExitOnly, Status: types.GateOnline},
		{ID: "gate-dark", StationID: "st_b", Mode: types.GateBidirectional, Status: types.GateOffline},
	}
}

func testRiders() []types.Rider {
	return []types.Rider{
		{CardID: "card-std", Name: "Asha Rao", Category: types.CategoryStandard, Status: types.StatusActive, BalanceCents: 1000, ValidUntil: testValidUntil},
		{CardID: "card-poor", Name: "Lee Chan", Category: types.CategoryStandard, Status: types.StatusActive, BalanceCents: 100, ValidUntil: testValidUntil},
		{CardID: "card-staff", Name: "Joe Ops", Category: types.CategoryStaff, Status: types.StatusActive, BalanceCents: 0, ValidUntil: testValidUntil},
		{CardID: "card-susp", Name: "Max Dorn", Category: types.CategoryStandard, Status: types.StatusSuspended, BalanceCents: 1000, ValidUntil: testValidUntil},
		{CardID: "card-old", Name: "Ida Wolf", Category: types.CategoryStandard, Status: types.StatusActive, BalanceCents: 1000, ValidUntil: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func testFares() *fare.Table {
	return fare.New([]fare.Rule{
		{StationA: "st_a", StationB: "st_b", Prices: map[types.Category]int64{
			types.CategoryStandard: 300,
			types.CategoryStaff:    0,
		}},
	}, 500)
}

// newTestProcessor wires a processor against in-memory stores and a fixed
// clock, returning the stores so tests can inspect the ledger and balances.
func newTestProcessor(t *testing.T) (*service.Processor, *memory.LedgerStore, *memory.RiderStore, *memory.GateStore) {
	t.Helper()

	ledger := memory.NewLedgerStore()
	riders := memory.NewRiderStore(testRiders())
	gates := memory.NewGateStore(testGates())

	p := service.NewProcessor(gates, riders, ledger, testFares(),
		slog.New(slog.DiscardHandler), nil)
	p.SetClock(func() time.Time {
		return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	})
	return p, ledger, riders, gates
}

// ── Entry ────────────────────────────────────────────────────────────────────

func TestProcessTap_EntryOpensTrip(t *testing.T) {
	p, ledger, _, _ := newTestProcessor(t)

	ev, err := p.ProcessTap(context.Background(), "gate-a-in", "card-std")
	require.NoError(t, err)

	assert.Equal(t, types.KindEntry, ev.Kind)
	assert.Equal(t, types.OutcomeSuccess, ev.Outcome)
	assert.Equal(t, int64(0), ev.FareCents)
	assert.Equal(t, int64(1000), ev.BalanceAfterCents)
	assert.Equal(t, "st_a", ev.StationID)
	assert.Equal(t, "Asha Rao", ev.RiderName)
	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, int64(1), ev.Seq)

	require.Len(t, ledger.Events(), 1)
}

func TestProcessTap_SecondEntryIsDuplicate(t *testing.T) {
	p, ledger, _, _ := newTestProcessor(t)
	ctx := context.Background()

	_, err := p.ProcessTap(ctx, "gate-a-in", "card-std")
	require.NoError(t, err)

	ev, err := p.ProcessTap(ctx, "gate-a-in", "card-std")
	require.NoError(t, err)

	assert.Equal(t, types.KindEntry, ev.Kind)
	assert.Equal(t, types.OutcomeDuplicateEntry, ev.Outcome)
	assert.Equal(t, int64(0), ev.FareCents)
	require.Len(t, ledger.Events(), 2)

	// The original entry stays open; the duplicate does not replace it.
	open, ok, err := ledger.FindOpenEntry(ctx, "card-std")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), open.Seq)
}

// ── Exit ─────────────────────────────────────────────────────────────────────

func TestProcessTap_ExitClosesTripAndDebits(t *testing.T) {
	p, ledger, riders, _ := newTestProcessor(t)
	ctx := context.Background()

	entry, err := p.ProcessTap(ctx, "gate-a-in", "card-std")
	require.NoError(t, err)

	// Exit an hour later so the trip has a measurable duration.
	p.SetClock(func() time.Time {
		return entry.OccurredAt.Add(time.Hour)
	})

	ev, err := p.ProcessTap(ctx, "gate-b-bi", "card-std")
	require.NoError(t, err)

	assert.Equal(t, types.KindExit, ev.Kind)
	assert.Equal(t, types.OutcomeSuccess, ev.Outcome)
	assert.Equal(t, int64(300), ev.FareCents)
	assert.Equal(t, int64(700), ev.BalanceAfterCents)
	assert.Equal(t, time.Hour.Milliseconds(), ev.DurationMs)
	assert.Equal(t, "st_b", ev.StationID)

	r, err := riders.Lookup(ctx, "card-std")
	require.NoError(t, err)
	assert.Equal(t, int64(700), r.BalanceCents)

	_, ok, err := ledger.FindOpenEntry(ctx, "card-std")
	require.NoError(t, err)
	assert.False(t, ok, "trip should be closed after a successful exit")
}

func TestProcessTap_StaffExitIsFree(t *testing.T) {
	p, _, riders, _ := newTestProcessor(t)
	ctx := context.Background()

	_, err := p.ProcessTap(ctx, "gate-a-in", "card-staff")
	require.NoError(t, err)

	ev, err := p.ProcessTap(ctx, "gate-b-bi", "card-staff")
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeSuccess, ev.Outcome)
	assert.Equal(t, int64(0), ev.FareCents)

	r, err := riders.Lookup(ctx, "card-staff")
	require.NoError(t, err)
	assert.Equal(t, int64(0), r.BalanceCents)
}

func TestProcessTap_UnknownStationPairUsesDefaultFare(t *testing.T) {
	p, _, _, gates := newTestProcessor(t)
	ctx := context.Background()

	// st_c has no rule against st_a, so the table default applies.
	gates.Add(types.Gate{ID: "gate-c-bi", StationID: "st_c", Mode: types.GateBidirectional, Status: types.GateOnline})

	_, err := p.ProcessTap(ctx, "gate-a-in", "card-std")
	require.NoError(t, err)

	ev, err := p.ProcessTap(ctx, "gate-c-bi", "card-std")
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeSuccess, ev.Outcome)
	assert.Equal(t, int64(500), ev.FareCents)
	assert.Equal(t, int64(500), ev.BalanceAfterCents)
}

func TestProcessTap_ExitWithoutEntry(t *testing.T) {
	p, ledger, _, _ := newTestProcessor(t)
	ctx := context.Background()

	ev, err := p.ProcessTap(ctx, "gate-b-out", "card-std")
	require.NoError(t, err)

	assert.Equal(t, types.KindExit, ev.Kind)
	assert.Equal(t, types.OutcomeNoMatchingEntry, ev.Outcome)
	assert.Equal(t, int64(0), ev.FareCents)

	// Retrying does not change the outcome; both attempts land in the ledger.
	ev2, err := p.ProcessTap(ctx, "gate-b-out", "card-std")
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeNoMatchingEntry, ev2.Outcome)
	require.Len(t, ledger.Events(), 2)
}

func TestProcessTap_InsufficientBalanceKeepsTripOpen(t *testing.T) {
	p, ledger, riders, _ := newTestProcessor(t)
	ctx := context.Background()

	_, err := p.ProcessTap(ctx, "gate-a-in", "card-poor")
	require.NoError(t, err)

	ev, err := p.ProcessTap(ctx, "gate-b-bi", "card-poor")
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeInsufficientBalance, ev.Outcome)
	assert.Equal(t, int64(0), ev.FareCents, "no fare charged on rejection")
	assert.Equal(t, int64(100), ev.BalanceAfterCents)

	r, err := riders.Lookup(ctx, "card-poor")
	require.NoError(t, err)
	assert.Equal(t, int64(100), r.BalanceCents, "balance must be untouched")

	_, ok, err := ledger.FindOpenEntry(ctx, "card-poor")
	require.NoError(t, err)
	assert.True(t, ok, "trip stays open so the rider can top up and retry")

	// Top up and retry: the exit now succeeds against the original entry.
	_, err = riders.Credit(ctx, "card-poor", 1000)
	require.NoError(t, err)

	ev3, err := p.ProcessTap(ctx, "gate-b-bi", "card-poor")
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeSuccess, ev3.Outcome)
	assert.Equal(t, int64(300), ev3.FareCents)
}

// ── Eligibility ──────────────────────────────────────────────────────────────

func TestProcessTap_SuspendedCard(t *testing.T) {
	p, ledger, _, _ := newTestProcessor(t)

	ev, err := p.ProcessTap(context.Background(), "gate-a-in", "card-susp")
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeCardSuspended, ev.Outcome)
	assert.Equal(t, int64(0), ev.FareCents)
	require.Len(t, ledger.Events(), 1)
}

func TestProcessTap_ExpiredCard(t *testing.T) {
	p, _, _, _ := newTestProcessor(t)

	ev, err := p.ProcessTap(context.Background(), "gate-a-in", "card-old")
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeCardExpired, ev.Outcome)
}

func TestProcessTap_UnknownCardRecordsSystemError(t *testing.T) {
	p, ledger, _, _ := newTestProcessor(t)

	ev, err := p.ProcessTap(context.Background(), "gate-a-in", "card-nope")
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeSystemError, ev.Outcome)
	assert.Equal(t, "card not recognized", ev.Detail)
	require.Len(t, ledger.Events(), 1)
}

func TestProcessTap_OfflineGateRecordsSystemError(t *testing.T) {
	p, ledger, _, _ := newTestProcessor(t)

	ev, err := p.ProcessTap(context.Background(), "gate-dark", "card-std")
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeSystemError, ev.Outcome)
	assert.Contains(t, ev.Detail, "offline")
	require.Len(t, ledger.Events(), 1)

	// The failed tap must not have opened a trip.
	_, ok, err := ledger.FindOpenEntry(context.Background(), "card-std")
	require.NoError(t, err)
	assert.False(t, ok)
}

// ── Validation (nothing recorded) ────────────────────────────────────────────

func TestProcessTap_MissingGateID(t *testing.T) {
	p, ledger, _, _ := newTestProcessor(t)

	_, err := p.ProcessTap(context.Background(), "  ", "card-std")
	require.ErrorIs(t, err, service.ErrInvalidGateID)
	assert.Empty(t, ledger.Events())
}

func TestProcessTap_MissingCardID(t *testing.T) {
	p, ledger, _, _ := newTestProcessor(t)

	_, err := p.ProcessTap(context.Background(), "gate-a-in", "")
	require.ErrorIs(t, err, service.ErrInvalidCardID)
	assert.Empty(t, ledger.Events())
}

func TestProcessTap_UnknownGate(t *testing.T) {
	p, ledger, _, _ := newTestProcessor(t)

	_, err := p.ProcessTap(context.Background(), "gate-nope", "card-std")
	require.ErrorIs(t, err, store.ErrGateNotFound)
	assert.Empty(t, ledger.Events())
}

// ── Failure compensation ─────────────────────────────────────────────────────

// failingLedger rejects appends after a configurable number of successes.
type failingLedger struct {
	*memory.LedgerStore
	mu        sync.Mutex
	remaining int
}

func (f *failingLedger) Append(ctx context.Context, ev types.TripEvent) (types.TripEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.remaining <= 0 {
		return types.TripEvent{}, errors.New("disk full")
	}
	f.remaining--
	return f.LedgerStore.Append(ctx, ev)
}

func TestProcessTap_AppendFailureRefundsFare(t *testing.T) {
	ledger := &failingLedger{LedgerStore: memory.NewLedgerStore(), remaining: 1}
	riders := memory.NewRiderStore(testRiders())
	gates := memory.NewGateStore(testGates())

	p := service.NewProcessor(gates, riders, ledger, testFares(),
		slog.New(slog.DiscardHandler), nil)
	ctx := context.Background()

	_, err := p.ProcessTap(ctx, "gate-a-in", "card-std")
	require.NoError(t, err)

	// The exit debits 300, then the append fails; the debit must be undone.
	_, err = p.ProcessTap(ctx, "gate-b-bi", "card-std")
	require.Error(t, err)

	r, err := riders.Lookup(ctx, "card-std")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), r.BalanceCents, "failed append must refund the debit")
}

// ── Concurrency ──────────────────────────────────────────────────────────────

func TestProcessTap_ConcurrentEntriesSameCard(t *testing.T) {
	p, ledger, _, _ := newTestProcessor(t)
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	outcomes := make([]types.Outcome, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ev, err := p.ProcessTap(ctx, "gate-a-in", "card-std")
			if err != nil {
				t.Errorf("ProcessTap: %v", err)
				return
			}
			outcomes[i] = ev.Outcome
		}(i)
	}
	wg.Wait()

	var successes, duplicates int
	for _, o := range outcomes {
		switch o {
		case types.OutcomeSuccess:
			successes++
		case types.OutcomeDuplicateEntry:
			duplicates++
		}
	}
	assert.Equal(t, 1, successes, "exactly one tap may open the trip")
	assert.Equal(t, n-1, duplicates)
	assert.Len(t, ledger.Events(), n, "every tap appends exactly one event")
}

// ── Event bus ────────────────────────────────────────────────────────────────

func TestProcessTap_PublishesAppendedEvent(t *testing.T) {
	bus := service.NewEventBus()
	got := make(chan types.TripEvent, 1)
	bus.Subscribe(func(_ context.Context, ev types.TripEvent) {
		got <- ev
	})

	ledger := memory.NewLedgerStore()
	p := service.NewProcessor(
		memory.NewGateStore(testGates()),
		memory.NewRiderStore(testRiders()),
		ledger, testFares(),
		slog.New(slog.DiscardHandler), bus)

	ev, err := p.ProcessTap(context.Background(), "gate-a-in", "card-std")
	require.NoError(t, err)

	select {
	case published := <-got:
		assert.Equal(t, ev.EventID, published.EventID)
		assert.Equal(t, ev.Seq, published.Seq)
	case <-time.After(time.Second):
		t.Fatal("expected event on the bus")
	}
}
