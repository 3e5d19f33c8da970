package composite

import (
	"context"

	"biarb/internal/application/port"
	"biarb/internal/domain/model"
)

// Repo fans journal writes out to every configured backend, returning the
// first error while still attempting the rest.
type Repo struct {
	journals []port.Journal
}

func New(journals ...port.Journal) *Repo {
	// nil journals are allowed; filter in constructor for safety
	out := make([]port.Journal, 0, len(journals))
	for _, j := range journals {
		if j != nil {
			out = append(out, j)
		}
	}
	return &Repo{journals: out}
}

func (r *Repo) each(fn func(port.Journal) error) error {
	var firstErr error
	for _, j := range r.journals {
		if err := fn(j); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) SaveSignal(ctx context.Context, sig *model.Signal) error {
	return r.each(func(j port.Journal) error { return j.SaveSignal(ctx, sig) })
}

func (r *Repo) SavePositionOpened(ctx context.Context, pos *model.Position) error {
	return r.each(func(j port.Journal) error { return j.SavePositionOpened(ctx, pos) })
}

func (r *Repo) SavePositionClosed(ctx context.Context, pos *model.Position) error {
	return r.each(func(j port.Journal) error { return j.SavePositionClosed(ctx, pos) })
}

func (r *Repo) SaveSnapshot(ctx context.Context, ts int64, payload string) error {
	return r.each(func(j port.Journal) error { return j.SaveSnapshot(ctx, ts, payload) })
}

func (r *Repo) Close() error {
	return r.each(func(j port.Journal) error { return j.Close() })
}

var _ port.Journal = (*Repo)(nil)
