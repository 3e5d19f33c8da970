package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"biarb/internal/application/port"
	"biarb/internal/domain/model"
)

// Repo is the sqlite trade journal. Append-only from the bot's point of
// view; nothing here is read back into engine state.
type Repo struct {
	db *sql.DB
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS signals (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  ts_ms INTEGER NOT NULL,
  should_trade INTEGER NOT NULL,
  symbol TEXT,
  direction TEXT,
  spread REAL,
  spread_percent REAL,
  profit_potential REAL,
  reason TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_signals_ts ON signals(ts_ms);
CREATE INDEX IF NOT EXISTS idx_signals_symbol ON signals(symbol);

CREATE TABLE IF NOT EXISTS positions (
  id TEXT PRIMARY KEY,
  symbol TEXT NOT NULL,
  direction TEXT NOT NULL,
  buy_venue TEXT NOT NULL,
  short_venue TEXT NOT NULL,
  buy_price REAL NOT NULL,
  short_price REAL NOT NULL,
  quantity REAL NOT NULL,
  entry_spread REAL NOT NULL,
  entry_fees REAL NOT NULL,
  status TEXT NOT NULL,
  open_time INTEGER NOT NULL,
  exit_buy_price REAL,
  exit_short_price REAL,
  gross_profit REAL,
  exit_fees REAL,
  net_profit REAL,
  close_time INTEGER,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_positions_symbol ON positions(symbol);
CREATE INDEX IF NOT EXISTS idx_positions_status ON positions(status);

CREATE TABLE IF NOT EXISTS snapshots (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  ts_ms INTEGER NOT NULL,
  payload TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON snapshots(ts_ms);
`)
	return err
}

func (r *Repo) SaveSignal(ctx context.Context, sig *model.Signal) error {
	payload, _ := json.Marshal(sig)
	shouldTrade := 0
	if sig.ShouldTrade {
		shouldTrade = 1
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO signals(
			ts_ms, should_trade, symbol, direction, spread, spread_percent,
			profit_potential, reason, payload, created_at
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sig.Timestamp, shouldTrade, sig.Symbol, sig.Direction.String(), sig.Spread,
		sig.SpreadPercent, sig.ProfitPotential, sig.Reason, string(payload), time.Now().UnixMilli())
	return err
}

func (r *Repo) SavePositionOpened(ctx context.Context, pos *model.Position) error {
	now := time.Now().UnixMilli()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO positions(
			id, symbol, direction, buy_venue, short_venue, buy_price, short_price,
			quantity, entry_spread, entry_fees, status, open_time, created_at, updated_at
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, pos.ID, pos.Symbol, pos.Direction.String(), pos.BuyVenue, pos.ShortVenue,
		pos.BuyPrice, pos.ShortPrice, pos.Quantity, pos.EntrySpread, pos.EntryFees,
		string(pos.Status), pos.OpenTime, now, now)
	return err
}

func (r *Repo) SavePositionClosed(ctx context.Context, pos *model.Position) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE positions SET
			status=?, exit_buy_price=?, exit_short_price=?, gross_profit=?,
			exit_fees=?, net_profit=?, close_time=?, updated_at=?
		WHERE id=?
	`, string(pos.Status), pos.ExitBuyPrice, pos.ExitShortPrice, pos.GrossProfit,
		pos.ExitFees, pos.NetProfit, pos.CloseTime, time.Now().UnixMilli(), pos.ID)
	return err
}

func (r *Repo) SaveSnapshot(ctx context.Context, ts int64, payload string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO snapshots(ts_ms, payload, created_at) VALUES(?, ?, ?)
	`, ts, payload, time.Now().UnixMilli())
	return err
}

// ClosedTrade is a row from the positions table for inspection tooling.
type ClosedTrade struct {
	ID        string
	Symbol    string
	NetProfit float64
	CloseTime int64
}

// ListClosedTrades returns the most recent closed trades, newest first.
func (r *Repo) ListClosedTrades(ctx context.Context, limit int) ([]ClosedTrade, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, symbol, net_profit, close_time
		FROM positions
		WHERE status='closed'
		ORDER BY close_time DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ClosedTrade
	for rows.Next() {
		var t ClosedTrade
		var netProfit, closeTime sql.NullFloat64
		if err := rows.Scan(&t.ID, &t.Symbol, &netProfit, &closeTime); err != nil {
			return nil, err
		}
		t.NetProfit = netProfit.Float64
		t.CloseTime = int64(closeTime.Float64)
		out = append(out, t)
	}
	return out, rows.Err()
}

var _ port.Journal = (*Repo)(nil)
