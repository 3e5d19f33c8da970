package redis

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"biarb/internal/application/port"
	"biarb/internal/domain/model"
)

// Repo publishes the bot's activity to redis: signals go to a stream and a
// pub/sub channel for downstream consumers, closed trades to their own
// stream, and the latest statistics snapshot to a single key.
type Repo struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration

	signalStream string
	signalChan   string
	tradeStream  string
	snapshotKey  string
}

func New(rdb *redis.Client, prefix string, ttl time.Duration) *Repo {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "biarb"
	}
	return &Repo{
		rdb:          rdb,
		prefix:       prefix,
		ttl:          ttl,
		signalStream: prefix + ":signals",
		signalChan:   prefix + ":signals:pub",
		tradeStream:  prefix + ":trades",
		snapshotKey:  prefix + ":snapshot:latest",
	}
}

func (r *Repo) Close() error { return r.rdb.Close() }

func (r *Repo) SaveSignal(ctx context.Context, sig *model.Signal) error {
	b, _ := json.Marshal(sig)

	pipe := r.rdb.Pipeline()
	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: r.signalStream,
		MaxLen: 10000,
		Approx: true,
		Values: map[string]interface{}{
			"ts":           sig.Timestamp,
			"should_trade": sig.ShouldTrade,
			"symbol":       sig.Symbol,
			"payload":      string(b),
		},
	})
	if sig.ShouldTrade {
		pipe.Publish(ctx, r.signalChan, string(b))
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Repo) savePosition(ctx context.Context, event string, pos *model.Position) error {
	b, _ := json.Marshal(pos)
	return r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: r.tradeStream,
		MaxLen: 10000,
		Approx: true,
		Values: map[string]interface{}{
			"event":    event,
			"position": pos.ID,
			"symbol":   pos.Symbol,
			"payload":  string(b),
		},
	}).Err()
}

func (r *Repo) SavePositionOpened(ctx context.Context, pos *model.Position) error {
	return r.savePosition(ctx, "opened", pos)
}

func (r *Repo) SavePositionClosed(ctx context.Context, pos *model.Position) error {
	return r.savePosition(ctx, "closed", pos)
}

func (r *Repo) SaveSnapshot(ctx context.Context, ts int64, payload string) error {
	pipe := r.rdb.Pipeline()
	pipe.Set(ctx, r.snapshotKey, payload, r.ttl)
	pipe.HSet(ctx, r.prefix+":snapshot:meta", "ts", ts)
	_, err := pipe.Exec(ctx)
	return err
}

var _ port.Journal = (*Repo)(nil)
