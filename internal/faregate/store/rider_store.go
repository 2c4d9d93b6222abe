package store

import (
	"context"
	"errors"

	"github.com/Cythina1106/faregate/internal/faregate/types"
)

var (
	// ErrRiderNotFound is returned by Lookup when the card id resolves to
	// no rider.
	ErrRiderNotFound = errors.New("rider not found")

	// ErrInsufficientFunds is returned by DebitIfSufficient when the
	// rider's balance is below the requested amount. No debit occurs.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// RiderStore is the rider directory as seen by the processor. The balance is
// authoritative here, which is why the debit is a single conditional
// operation rather than a read followed by a write.
type RiderStore interface {
	// Lookup returns a snapshot of the rider for the given card id.
	Lookup(ctx context.Context, cardID string) (types.Rider, error)

	// DebitIfSufficient atomically subtracts amountCents from the rider's
	// balance and returns the new balance. Returns ErrInsufficientFunds
	// (and leaves the balance untouched) when the balance is too low.
	DebitIfSufficient(ctx context.Context, cardID string, amountCents int64) (int64, error)

	// Credit adds amountCents back to the rider's balance and returns the
	// new balance. Used only as a compensating refund when a ledger append
	// fails after a successful debit.
	Credit(ctx context.Context, cardID string, amountCents int64) (int64, error)
}
