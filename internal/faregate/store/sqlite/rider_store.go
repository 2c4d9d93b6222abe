package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/Cythina1106/faregate/internal/db"
	"github.com/Cythina1106/faregate/internal/faregate/store"
	"github.com/Cythina1106/faregate/internal/faregate/types"
)

type RiderStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewRiderStore(db *sql.DB, writer *dbpkg.Worker) *RiderStore {
	return &RiderStore{db: db, writer: writer}
}

func (s *RiderStore) Lookup(ctx context.Context, cardID string) (types.Rider, error) {
	cardID = strings.TrimSpace(cardID)

	var (
		r            types.Rider
		category     string
		status       string
		validUntilMs int64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT card_id, name, category, status, balance_cents, valid_until_ms
FROM riders
WHERE card_id = ?;`, cardID).Scan(
		&r.CardID, &r.Name, &category, &status, &r.BalanceCents, &validUntilMs,
	)
	if err == sql.ErrNoRows {
		return types.Rider{}, store.ErrRiderNotFound
	}
	if err != nil {
		return types.Rider{}, fmt.Errorf("Lookup query: %w", err)
	}

	r.Category = types.Category(category)
	r.Status = types.AccountStatus(status)
	r.ValidUntil = time.UnixMilli(validUntilMs).UTC()
	return r, nil
}

// DebitIfSufficient runs the balance check and the subtraction as a single
// guarded UPDATE, so a stale snapshot can never overdraw the account.
func (s *RiderStore) DebitIfSufficient(ctx context.Context, cardID string, amountCents int64) (int64, error) {
	var newBalance int64

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		nowMs := time.Now().UTC().UnixMilli()

		res, err := tx.ExecContext(ctx, `
UPDATE riders
SET balance_cents = balance_cents - ?,
    updated_at_ms = ?
WHERE card_id = ? AND balance_cents >= ?;`,
			amountCents, nowMs, cardID, amountCents,
		)
		if err != nil {
			return fmt.Errorf("DebitIfSufficient update: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("DebitIfSufficient rows affected: %w", err)
		}
		if n == 0 {
			// Distinguish a missing rider from a thin balance.
			var balance int64
			err := tx.QueryRowContext(ctx,
				`SELECT balance_cents FROM riders WHERE card_id = ?;`, cardID,
			).Scan(&balance)
			if err == sql.ErrNoRows {
				return store.ErrRiderNotFound
			}
			if err != nil {
				return fmt.Errorf("DebitIfSufficient recheck: %w", err)
			}
			newBalance = balance
			return store.ErrInsufficientFunds
		}

		return tx.QueryRowContext(ctx,
			`SELECT balance_cents FROM riders WHERE card_id = ?;`, cardID,
		).Scan(&newBalance)
	})
	if err != nil {
		return newBalance, err
	}
	return newBalance, nil
}

func (s *RiderStore) Credit(ctx context.Context, cardID string, amountCents int64) (int64, error) {
	var newBalance int64

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		nowMs := time.Now().UTC().UnixMilli()

		res, err := tx.ExecContext(ctx, `
UPDATE riders
SET balance_cents = balance_cents + ?,
    updated_at_ms = ?
WHERE card_id = ?;`,
			amountCents, nowMs, cardID,
		)
		if err != nil {
			return fmt.Errorf("Credit update: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("Credit rows affected: %w", err)
		}
		if n == 0 {
			return store.ErrRiderNotFound
		}

		return tx.QueryRowContext(ctx,
			`SELECT balance_cents FROM riders WHERE card_id = ?;`, cardID,
		).Scan(&newBalance)
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}
