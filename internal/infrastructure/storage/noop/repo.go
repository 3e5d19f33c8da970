package noop

import (
	"context"

	"biarb/internal/application/port"
	"biarb/internal/domain/model"
)

// Repo discards every journal write. Used when no storage backend is
// configured.
type Repo struct{}

func New() *Repo { return &Repo{} }

func (*Repo) SaveSignal(context.Context, *model.Signal) error           { return nil }
func (*Repo) SavePositionOpened(context.Context, *model.Position) error { return nil }
func (*Repo) SavePositionClosed(context.Context, *model.Position) error { return nil }
func (*Repo) SaveSnapshot(context.Context, int64, string) error         { return nil }
func (*Repo) Close() error                                              { return nil }

var _ port.Journal = (*Repo)(nil)
