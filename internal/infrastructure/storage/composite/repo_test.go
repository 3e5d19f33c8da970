package composite

import (
	"context"
	"errors"
	"testing"

	"biarb/internal/domain/model"
)

type stubJournal struct {
	signals int
	closed  bool
	err     error
}

func (s *stubJournal) SaveSignal(ctx context.Context, sig *model.Signal) error {
	s.signals++
	return s.err
}
func (s *stubJournal) SavePositionOpened(ctx context.Context, pos *model.Position) error {
	return s.err
}
func (s *stubJournal) SavePositionClosed(ctx context.Context, pos *model.Position) error {
	return s.err
}
func (s *stubJournal) SaveSnapshot(ctx context.Context, ts int64, payload string) error {
	return s.err
}
func (s *stubJournal) Close() error {
	s.closed = true
	return s.err
}

func TestCompositeFansOut(t *testing.T) {
	a := &stubJournal{}
	b := &stubJournal{}
	repo := New(a, nil, b)

	if err := repo.SaveSignal(context.Background(), &model.Signal{}); err != nil {
		t.Fatalf("SaveSignal failed: %v", err)
	}
	if a.signals != 1 || b.signals != 1 {
		t.Errorf("both journals must receive the write: %d / %d", a.signals, b.signals)
	}
}

func TestCompositeReturnsFirstErrorButContinues(t *testing.T) {
	boom := errors.New("boom")
	a := &stubJournal{err: boom}
	b := &stubJournal{}
	repo := New(a, b)

	err := repo.SaveSignal(context.Background(), &model.Signal{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the first error, got %v", err)
	}
	if b.signals != 1 {
		t.Error("later journals must still receive the write")
	}
}

func TestCompositeCloseClosesAll(t *testing.T) {
	a := &stubJournal{err: errors.New("boom")}
	b := &stubJournal{}
	repo := New(a, b)

	if err := repo.Close(); err == nil {
		t.Fatal("expected close error to propagate")
	}
	if !a.closed || !b.closed {
		t.Error("close must reach every journal")
	}
}
