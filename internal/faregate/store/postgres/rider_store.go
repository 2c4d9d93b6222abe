package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Cythina1106/faregate/internal/faregate/store"
	"github.com/Cythina1106/faregate/internal/faregate/types"
)

// RiderStore is the Postgres implementation of store.RiderStore.
type RiderStore struct {
	db db
}

func NewRiderStore(db db) *RiderStore {
	return &RiderStore{db: db}
}

func (s *RiderStore) Lookup(ctx context.Context, cardID string) (types.Rider, error) {
	const q = `
		SELECT card_id, name, category, status, balance_cents, valid_until
		FROM riders
		WHERE card_id = @card_id`

	var (
		r        types.Rider
		category string
		status   string
	)
	err := s.db.QueryRow(ctx, q, pgx.NamedArgs{"card_id": cardID}).Scan(
		&r.CardID, &r.Name, &category, &status, &r.BalanceCents, &r.ValidUntil,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return types.Rider{}, store.ErrRiderNotFound
		}
		return types.Rider{}, fmt.Errorf("postgres.RiderStore.Lookup: %w", err)
	}

	r.Category = types.Category(category)
	r.Status = types.AccountStatus(status)
	r.ValidUntil = r.ValidUntil.UTC()
	return r, nil
}

// DebitIfSufficient performs the balance check and subtraction in a single
// guarded UPDATE so concurrent debits cannot overdraw.
func (s *RiderStore) DebitIfSufficient(ctx context.Context, cardID string, amountCents int64) (int64, error) {
	const q = `
		UPDATE riders
		SET balance_cents = balance_cents - @amount,
		    updated_at    = now()
		WHERE card_id = @card_id AND balance_cents >= @amount
		RETURNING balance_cents`

	var newBalance int64
	err := s.db.QueryRow(ctx, q, pgx.NamedArgs{
		"card_id": cardID,
		"amount":  amountCents,
	}).Scan(&newBalance)
	if err == nil {
		return newBalance, nil
	}
	if err != pgx.ErrNoRows {
		return 0, fmt.Errorf("postgres.RiderStore.DebitIfSufficient: %w", err)
	}

	// The guarded UPDATE matched nothing: missing rider or thin balance.
	const check = `SELECT balance_cents FROM riders WHERE card_id = @card_id`
	var balance int64
	err = s.db.QueryRow(ctx, check, pgx.NamedArgs{"card_id": cardID}).Scan(&balance)
	if err == pgx.ErrNoRows {
		return 0, store.ErrRiderNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("postgres.RiderStore.DebitIfSufficient: recheck: %w", err)
	}
	return balance, store.ErrInsufficientFunds
}

func (s *RiderStore) Credit(ctx context.Context, cardID string, amountCents int64) (int64, error) {
	const q = `
		UPDATE riders
		SET balance_cents = balance_cents + @amount,
		    updated_at    = now()
		WHERE card_id = @card_id
		RETURNING balance_cents`

	var newBalance int64
	err := s.db.QueryRow(ctx, q, pgx.NamedArgs{
		"card_id": cardID,
		"amount":  amountCents,
	}).Scan(&newBalance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, store.ErrRiderNotFound
		}
		return 0, fmt.Errorf("postgres.RiderStore.Credit: %w", err)
	}
	return newBalance, nil
}
