package port

import (
	"context"

	"biarb/internal/domain/model"
)

// Journal is a write-only record of what the bot saw and did. Implementations
// must never feed state back into the engine; persistence is observability
// only.
type Journal interface {
	SaveSignal(ctx context.Context, sig *model.Signal) error
	SavePositionOpened(ctx context.Context, pos *model.Position) error
	SavePositionClosed(ctx context.Context, pos *model.Position) error
	SaveSnapshot(ctx context.Context, ts int64, payload string) error
	Close() error
}
