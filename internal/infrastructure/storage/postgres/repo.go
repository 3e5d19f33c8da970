package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "github.com/jackc/pgx/v5/stdlib"

	"biarb/internal/application/port"
	"biarb/internal/domain/model"
)

type Repo struct {
	db *sql.DB
}

func New(dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

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
  id BIGSERIAL PRIMARY KEY,
  ts_ms BIGINT NOT NULL,
  should_trade BOOLEAN NOT NULL,
  symbol TEXT,
  reason TEXT NOT NULL,
  payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_signals_ts ON signals(ts_ms);

CREATE TABLE IF NOT EXISTS positions (
  id TEXT PRIMARY KEY,
  symbol TEXT NOT NULL,
  status TEXT NOT NULL,
  payload TEXT NOT NULL,
  open_time BIGINT NOT NULL,
  close_time BIGINT,
  net_profit DOUBLE PRECISION
);
CREATE INDEX IF NOT EXISTS idx_positions_status ON positions(status);

CREATE TABLE IF NOT EXISTS snapshots (
  id BIGSERIAL PRIMARY KEY,
  ts_ms BIGINT NOT NULL,
  payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON snapshots(ts_ms);
`)
	return err
}

func (r *Repo) SaveSignal(ctx context.Context, sig *model.Signal) error {
	payload, _ := json.Marshal(sig)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO signals(ts_ms, should_trade, symbol, reason, payload) VALUES($1, $2, $3, $4, $5)`,
		sig.Timestamp, sig.ShouldTrade, sig.Symbol, sig.Reason, string(payload))
	return err
}

func (r *Repo) SavePositionOpened(ctx context.Context, pos *model.Position) error {
	payload, _ := json.Marshal(pos)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO positions(id, symbol, status, payload, open_time) VALUES($1, $2, $3, $4, $5)`,
		pos.ID, pos.Symbol, string(pos.Status), string(payload), pos.OpenTime)
	return err
}

func (r *Repo) SavePositionClosed(ctx context.Context, pos *model.Position) error {
	payload, _ := json.Marshal(pos)
	_, err := r.db.ExecContext(ctx,
		`UPDATE positions SET status=$1, payload=$2, close_time=$3, net_profit=$4 WHERE id=$5`,
		string(pos.Status), string(payload), pos.CloseTime, pos.NetProfit, pos.ID)
	return err
}

func (r *Repo) SaveSnapshot(ctx context.Context, ts int64, payload string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO snapshots(ts_ms, payload) VALUES($1, $2)`, ts, payload)
	return err
}

var _ port.Journal = (*Repo)(nil)
