package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/Cythina1106/faregate/internal/faregate/store"
	"github.com/Cythina1106/faregate/internal/faregate/store/sqlite"
	"github.com/Cythina1106/faregate/internal/faregate/types"
)

func newTestRiderStore(t *testing.T) (*sqlite.RiderStore, *sql.DB) {
	t.Helper()
	conn := openTestDB(t)
	return sqlite.NewRiderStore(conn, newTestWriter(t, conn)), conn
}

func activeRider(cardID string, balance int64) types.Rider {
	return types.Rider{
		CardID:       cardID,
		Name:         "Test Rider",
		Category:     types.CategoryStandard,
		Status:       types.StatusActive,
		BalanceCents: balance,
		ValidUntil:   time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// ── Lookup ───────────────────────────────────────────────────────────────────

func TestLookup_ReturnsRider(t *testing.T) {
	s, conn := newTestRiderStore(t)
	insertRider(t, conn, activeRider("card-1", 500))

	r, err := s.Lookup(context.Background(), "card-1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if r.CardID != "card-1" || r.BalanceCents != 500 {
		t.Errorf("rider = %+v", r)
	}
	if r.Category != types.CategoryStandard || r.Status != types.StatusActive {
		t.Errorf("category/status = %s/%s", r.Category, r.Status)
	}
	if r.ValidUntil.Year() != 2030 {
		t.Errorf("valid_until = %v", r.ValidUntil)
	}
}

func TestLookup_UnknownCard(t *testing.T) {
	s, _ := newTestRiderStore(t)

	_, err := s.Lookup(context.Background(), "card-nope")
	if !errors.Is(err, store.ErrRiderNotFound) {
		t.Fatalf("err = %v, want ErrRiderNotFound", err)
	}
}

// ── DebitIfSufficient ────────────────────────────────────────────────────────

func TestDebitIfSufficient_Debits(t *testing.T) {
	s, conn := newTestRiderStore(t)
	insertRider(t, conn, activeRider("card-1", 500))

	balance, err := s.DebitIfSufficient(context.Background(), "card-1", 300)
	if err != nil {
		t.Fatalf("DebitIfSufficient: %v", err)
	}
	if balance != 200 {
		t.Errorf("balance = %d, want 200", balance)
	}
}

func TestDebitIfSufficient_ExactBalance(t *testing.T) {
	s, conn := newTestRiderStore(t)
	insertRider(t, conn, activeRider("card-1", 300))

	balance, err := s.DebitIfSufficient(context.Background(), "card-1", 300)
	if err != nil {
		t.Fatalf("DebitIfSufficient: %v", err)
	}
	if balance != 0 {
		t.Errorf("balance = %d, want 0", balance)
	}
}

func TestDebitIfSufficient_InsufficientLeavesBalance(t *testing.T) {
	s, conn := newTestRiderStore(t)
	insertRider(t, conn, activeRider("card-1", 100))
	ctx := context.Background()

	balance, err := s.DebitIfSufficient(ctx, "card-1", 300)
	if !errors.Is(err, store.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	if balance != 100 {
		t.Errorf("reported balance = %d, want 100", balance)
	}

	r, err := s.Lookup(ctx, "card-1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if r.BalanceCents != 100 {
		t.Errorf("stored balance = %d, want 100 (untouched)", r.BalanceCents)
	}
}

func TestDebitIfSufficient_UnknownCard(t *testing.T) {
	s, _ := newTestRiderStore(t)

	_, err := s.DebitIfSufficient(context.Background(), "card-nope", 100)
	if !errors.Is(err, store.ErrRiderNotFound) {
		t.Fatalf("err = %v, want ErrRiderNotFound", err)
	}
}

func TestDebitIfSufficient_ZeroAmount(t *testing.T) {
	s, conn := newTestRiderStore(t)
	insertRider(t, conn, activeRider("card-1", 0))

	// A free fare debits nothing and succeeds even at zero balance.
	balance, err := s.DebitIfSufficient(context.Background(), "card-1", 0)
	if err != nil {
		t.Fatalf("DebitIfSufficient: %v", err)
	}
	if balance != 0 {
		t.Errorf("balance = %d, want 0", balance)
	}
}

// ── Credit ───────────────────────────────────────────────────────────────────

func TestCredit_AddsToBalance(t *testing.T) {
	s, conn := newTestRiderStore(t)
	insertRider(t, conn, activeRider("card-1", 100))

	balance, err := s.Credit(context.Background(), "card-1", 400)
	if err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if balance != 500 {
		t.Errorf("balance = %d, want 500", balance)
	}
}

func TestCredit_UnknownCard(t *testing.T) {
	s, _ := newTestRiderStore(t)

	_, err := s.Credit(context.Background(), "card-nope", 100)
	if !errors.Is(err, store.ErrRiderNotFound) {
		t.Fatalf("err = %v, want ErrRiderNotFound", err)
	}
}
