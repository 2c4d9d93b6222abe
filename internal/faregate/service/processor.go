package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Cythina1106/faregate/internal/faregate/fare"
	"github.com/Cythina1106/faregate/internal/faregate/store"
	"github.com/Cythina1106/faregate/internal/faregate/types"
)

var (
	ErrInvalidGateID = errors.New("gate_id is required")
	ErrInvalidCardID = errors.New("card_id is required")
)

// Processor pairs entry/exit taps into trips, validates rider eligibility,
// computes fares, debits balances, and appends every terminal outcome to the
// trip ledger. It holds no trip state of its own; "is this rider mid-trip"
// is always derived from the ledger.
//
// Every call to ProcessTap appends exactly one event, success or rejection.
// Rejections are outcomes on the event, not Go errors; the only error a
// caller sees (beyond input validation and unknown gates) is a ledger
// append failure, which is fatal to that call.
type Processor struct {
	gates  store.GateStore
	riders store.RiderStore
	ledger store.LedgerStore
	fares  *fare.Table
	logger *slog.Logger
	bus    *EventBus

	locks *keyedMutex
	now   func() time.Time
}

// NewProcessor wires a Processor. logger must not be nil; bus may be nil
// when no in-process subscribers are wanted.
func NewProcessor(
	gates store.GateStore,
	riders store.RiderStore,
	ledger store.LedgerStore,
	fares *fare.Table,
	logger *slog.Logger,
	bus *EventBus,
) *Processor {
	return &Processor{
		gates:  gates,
		riders: riders,
		ledger: ledger,
		fares:  fares,
		logger: logger,
		bus:    bus,
		locks:  newKeyedMutex(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the processor's time source. Test hook.
func (p *Processor) SetClock(now func() time.Time) { p.now = now }

// ProcessTap handles one scan at one gate.
//
// Input validation failures and unknown gates return an error and record
// nothing: with no resolvable gate there is no station to attribute an
// event to. Everything after gate resolution is recorded.
func (p *Processor) ProcessTap(ctx context.Context, gateID, cardID string) (types.TripEvent, error) {
	gateID = strings.TrimSpace(gateID)
	cardID = strings.TrimSpace(cardID)

	if gateID == "" {
		return types.TripEvent{}, ErrInvalidGateID
	}
	if cardID == "" {
		return types.TripEvent{}, ErrInvalidCardID
	}

	gate, err := p.gates.Get(ctx, gateID)
	if err != nil {
		return types.TripEvent{}, err
	}

	// Serialize per card id: two concurrent scans of the same card must not
	// both open (or both close) a trip.
	unlock := p.locks.lock(cardID)
	defer unlock()

	now := p.now()
	ev := p.decide(ctx, gate, cardID, now)
	return p.record(ctx, ev)
}

// decide runs the validation and pairing state machine and returns the
// event to append. It performs the balance debit for successful exits; the
// debit is compensated in record if the append then fails.
func (p *Processor) decide(ctx context.Context, gate types.Gate, cardID string, now time.Time) types.TripEvent {
	base := types.TripEvent{
		EventID:    uuid.NewString(),
		RiderID:    cardID,
		StationID:  gate.StationID,
		GateID:     gate.ID,
		OccurredAt: now,
	}

	// Intended kind for rejections recorded before pairing resolves: follow
	// the gate's direction, defaulting to entry on bidirectional gates.
	intended := types.KindEntry
	if gate.Mode == types.GateExitOnly {
		intended = types.KindExit
	}

	rider, err := p.riders.Lookup(ctx, cardID)
	if err != nil {
		if errors.Is(err, store.ErrRiderNotFound) {
			return reject(base, intended, types.OutcomeSystemError, "card not recognized")
		}
		p.logger.Error("rider lookup failed", "card_id", cardID, "error", err)
		return reject(base, intended, types.OutcomeSystemError, "rider directory unavailable")
	}
	base.RiderName = rider.Name
	base.BalanceAfterCents = rider.BalanceCents // snapshot; adjusted on successful exits

	// An offline or faulted gate must never produce a successful event.
	if gate.Status != types.GateOnline {
		return reject(base, intended, types.OutcomeSystemError,
			fmt.Sprintf("gate %s is %s", gate.ID, gate.Status))
	}

	// Eligibility, checked before any pairing decision.
	if rider.Status == types.StatusSuspended {
		return reject(base, intended, types.OutcomeCardSuspended, "account suspended")
	}
	if rider.Expired(now) {
		return reject(base, intended, types.OutcomeCardExpired, "card validity expired")
	}

	switch gate.Mode {
	case types.GateEntryOnly:
		return p.attemptEntry(ctx, base)
	case types.GateExitOnly:
		return p.attemptExit(ctx, base, gate, rider, now)
	case types.GateBidirectional:
		// The only place gate mode and ledger state jointly decide: an open
		// trip means this tap is an exit, otherwise it is an entry.
		open, ok, err := p.ledger.FindOpenEntry(ctx, base.RiderID)
		if err != nil {
			p.logger.Error("open entry lookup failed", "card_id", cardID, "error", err)
			return reject(base, types.KindEntry, types.OutcomeSystemError, "ledger unavailable")
		}
		if ok {
			return p.exitAgainst(ctx, base, gate, rider, open, now)
		}
		return p.attemptEntry(ctx, base)
	default:
		return reject(base, intended, types.OutcomeSystemError,
			fmt.Sprintf("gate %s has unknown mode %q", gate.ID, gate.Mode))
	}
}

// attemptEntry opens a trip, unless one is already open for the rider. The
// check runs regardless of gate mode, so entry-only gates reject duplicates
// just like bidirectional ones.
func (p *Processor) attemptEntry(ctx context.Context, base types.TripEvent) types.TripEvent {
	_, open, err := p.ledger.FindOpenEntry(ctx, base.RiderID)
	if err != nil {
		p.logger.Error("open entry lookup failed", "card_id", base.RiderID, "error", err)
		return reject(base, types.KindEntry, types.OutcomeSystemError, "ledger unavailable")
	}
	if open {
		return reject(base, types.KindEntry, types.OutcomeDuplicateEntry, "trip already open")
	}

	base.Kind = types.KindEntry
	base.Outcome = types.OutcomeSuccess
	base.FareCents = 0
	return base
}

// attemptExit closes the rider's open trip if one exists.
func (p *Processor) attemptExit(ctx context.Context, base types.TripEvent, gate types.Gate, rider types.Rider, now time.Time) types.TripEvent {
	open, ok, err := p.ledger.FindOpenEntry(ctx, base.RiderID)
	if err != nil {
		p.logger.Error("open entry lookup failed", "card_id", base.RiderID, "error", err)
		return reject(base, types.KindExit, types.OutcomeSystemError, "ledger unavailable")
	}
	if !ok {
		return reject(base, types.KindExit, types.OutcomeNoMatchingEntry, "no open entry for this card")
	}
	return p.exitAgainst(ctx, base, gate, rider, open, now)
}

// exitAgainst prices and settles the exit for a known open entry. On an
// insufficient balance the entry stays open so the rider can top up and
// retry.
func (p *Processor) exitAgainst(ctx context.Context, base types.TripEvent, gate types.Gate, rider types.Rider, open types.TripEvent, now time.Time) types.TripEvent {
	fareCents := p.fares.FareFor(open.StationID, gate.StationID, rider.Category)

	newBalance, err := p.riders.DebitIfSufficient(ctx, base.RiderID, fareCents)
	if err != nil {
		if errors.Is(err, store.ErrInsufficientFunds) {
			base.BalanceAfterCents = newBalance
			return reject(base, types.KindExit, types.OutcomeInsufficientBalance,
				fmt.Sprintf("fare %d exceeds balance %d", fareCents, newBalance))
		}
		p.logger.Error("debit failed", "card_id", base.RiderID, "fare_cents", fareCents, "error", err)
		return reject(base, types.KindExit, types.OutcomeSystemError, "debit failed")
	}

	base.Kind = types.KindExit
	base.Outcome = types.OutcomeSuccess
	base.FareCents = fareCents
	base.BalanceAfterCents = newBalance
	base.DurationMs = now.Sub(open.OccurredAt).Milliseconds()
	return base
}

// record appends the event to the ledger, the one step that may fail the
// whole call. If the append fails after a successful exit already debited
// the rider, the debit is compensated with a credit before the error
// propagates.
func (p *Processor) record(ctx context.Context, ev types.TripEvent) (types.TripEvent, error) {
	appended, err := p.ledger.Append(ctx, ev)
	if err != nil {
		if ev.Successful() && ev.Kind == types.KindExit && ev.FareCents > 0 {
			if _, crErr := p.riders.Credit(ctx, ev.RiderID, ev.FareCents); crErr != nil {
				p.logger.Error("refund after failed append also failed; manual reconciliation required",
					"card_id", ev.RiderID, "event_id", ev.EventID, "fare_cents", ev.FareCents, "error", crErr)
			} else {
				p.logger.Warn("ledger append failed; fare refunded",
					"card_id", ev.RiderID, "event_id", ev.EventID, "fare_cents", ev.FareCents)
			}
		}
		return types.TripEvent{}, fmt.Errorf("append trip event: %w", err)
	}

	if p.bus != nil {
		p.bus.Publish(ctx, appended)
	}
	return appended, nil
}

// reject stamps a failure outcome onto the event. Fare charged is always
// zero on rejections; any computed fare lives in the detail text.
func reject(base types.TripEvent, kind types.EventKind, outcome types.Outcome, detail string) types.TripEvent {
	base.Kind = kind
	base.Outcome = outcome
	base.FareCents = 0
	base.DurationMs = 0
	base.Detail = detail
	return base
}
