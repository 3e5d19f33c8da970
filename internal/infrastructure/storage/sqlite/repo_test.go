package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"biarb/internal/domain/model"
)

func testRepo(t *testing.T) *Repo {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSaveSignal(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	sig := &model.Signal{
		ShouldTrade:     true,
		Symbol:          "BTC/USDT",
		Direction:       model.ShortALongB,
		Spread:          0.5,
		SpreadPercent:   0.005,
		ProfitPotential: 0.001,
		Reason:          "best opportunity in BTC/USDT with 0.0050 spread, direction: short_a_long_b",
		Timestamp:       1234567890,
	}
	if err := repo.SaveSignal(ctx, sig); err != nil {
		t.Fatalf("SaveSignal failed: %v", err)
	}

	noTrade := &model.Signal{Reason: "no profitable opportunities found", Timestamp: 1234567891}
	if err := repo.SaveSignal(ctx, noTrade); err != nil {
		t.Fatalf("SaveSignal (no trade) failed: %v", err)
	}
}

func TestPositionLifecycleRows(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	pos := &model.Position{
		ID:          "pos-1",
		Symbol:      "BTC/USDT",
		Direction:   model.ShortALongB,
		BuyVenue:    "XT",
		ShortVenue:  "OKX",
		BuyPrice:    100.0,
		ShortPrice:  101.0,
		Quantity:    1.0,
		EntrySpread: 1.0,
		EntryFees:   0.201,
		Status:      model.StatusOpen,
		OpenTime:    1234567890,
	}
	if err := repo.SavePositionOpened(ctx, pos); err != nil {
		t.Fatalf("SavePositionOpened failed: %v", err)
	}

	pos.Status = model.StatusClosed
	pos.ExitBuyPrice = 100.5
	pos.ExitShortPrice = 100.2
	pos.GrossProfit = 1.3
	pos.ExitFees = 0.2007
	pos.NetProfit = 0.8983
	pos.CloseTime = 1234567999
	if err := repo.SavePositionClosed(ctx, pos); err != nil {
		t.Fatalf("SavePositionClosed failed: %v", err)
	}

	trades, err := repo.ListClosedTrades(ctx, 10)
	if err != nil {
		t.Fatalf("ListClosedTrades failed: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("expected 1 closed trade, got %d", len(trades))
	}
	if trades[0].ID != "pos-1" || trades[0].NetProfit != 0.8983 {
		t.Errorf("unexpected closed trade: %+v", trades[0])
	}
}

func TestListClosedTradesExcludesOpen(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	pos := &model.Position{
		ID:       "pos-open",
		Symbol:   "ETH/USDT",
		BuyVenue: "XT", ShortVenue: "OKX",
		Status:   model.StatusOpen,
		OpenTime: 1234567890,
	}
	if err := repo.SavePositionOpened(ctx, pos); err != nil {
		t.Fatalf("SavePositionOpened failed: %v", err)
	}

	trades, err := repo.ListClosedTrades(ctx, 10)
	if err != nil {
		t.Fatalf("ListClosedTrades failed: %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("open positions must not appear in the closed list, got %d", len(trades))
	}
}

func TestSaveSnapshot(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if err := repo.SaveSnapshot(ctx, 1234567890, `{"total_trades":1}`); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
}
