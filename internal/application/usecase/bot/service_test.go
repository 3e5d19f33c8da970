package bot

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	appsvc "biarb/internal/application/service"
	"biarb/internal/domain/model"
	dsvc "biarb/internal/domain/service"
)

// sharedPhase flips venue quotes from divergent to converged once the open
// trade's two orders have filled.
type sharedPhase struct {
	mu     sync.Mutex
	orders int
	phase  int
}

func (p *sharedPhase) filled() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orders++
	if p.orders >= 2 {
		p.phase = 1
	}
}

func (p *sharedPhase) current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}

type quote struct {
	bid float64
	ask float64
}

type scriptedVenue struct {
	name   string
	fee    float64
	phase  *sharedPhase
	quotes [2]quote
}

func (v *scriptedVenue) Name() string     { return v.name }
func (v *scriptedVenue) FeeRate() float64 { return v.fee }

func (v *scriptedVenue) book(symbol string) *model.OrderBook {
	q := v.quotes[v.phase.current()]
	return &model.OrderBook{
		Symbol:    symbol,
		Bids:      []model.PriceLevel{{Price: q.bid, Size: 5}},
		Asks:      []model.PriceLevel{{Price: q.ask, Size: 5}},
		Timestamp: time.Now().UnixMilli(),
	}
}

func (v *scriptedVenue) FetchOrderBook(ctx context.Context, symbol string) (*model.OrderBook, error) {
	return v.book(symbol), nil
}

func (v *scriptedVenue) FetchOrderBooks(ctx context.Context, symbols []string) (map[string]*model.OrderBook, error) {
	out := make(map[string]*model.OrderBook, len(symbols))
	for _, sym := range symbols {
		out[sym] = v.book(sym)
	}
	return out, nil
}

func (v *scriptedVenue) SupportedPairs(ctx context.Context) ([]string, error) {
	return []string{"BTC/USDT"}, nil
}

func (v *scriptedVenue) CreateOrder(ctx context.Context, side string, quantity, price float64, symbol string) (*model.Order, error) {
	v.phase.filled()
	return &model.Order{
		ID:     fmt.Sprintf("%s-%s", v.name, side),
		Venue:  v.name,
		Symbol: symbol,
		Side:   side,
		Status: "filled",
	}, nil
}

type countingJournal struct {
	mu      sync.Mutex
	signals int
	opened  int
	closed  int
}

func (j *countingJournal) SaveSignal(ctx context.Context, sig *model.Signal) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.signals++
	return nil
}

func (j *countingJournal) SavePositionOpened(ctx context.Context, pos *model.Position) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.opened++
	return nil
}

func (j *countingJournal) SavePositionClosed(ctx context.Context, pos *model.Position) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.closed++
	return nil
}

func (j *countingJournal) SaveSnapshot(ctx context.Context, ts int64, payload string) error { return nil }

func (j *countingJournal) Close() error { return nil }

func (j *countingJournal) counts() (signals, opened, closed int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.signals, j.opened, j.closed
}

type discardSink struct {
	mu     sync.Mutex
	frames int
}

func (s *discardSink) WriteDashboard(frame string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames++
	return nil
}

func (s *discardSink) WriteSnapshot(ts time.Time, line string) error { return nil }

func (s *discardSink) NewLine() error { return nil }

func (s *discardSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

func TestLoopOpensAndClosesOnConvergence(t *testing.T) {
	phase := &sharedPhase{}

	// phase 0: short A at 100.0 vs buy B at 99.5, a 0.50% spread.
	// phase 1: spread collapses to 0.10, under the 0.30 close ratio,
	// and well under the profitability threshold, so the loop stays flat.
	venueA := &scriptedVenue{
		name: "OKX", fee: 0.001, phase: phase,
		quotes: [2]quote{{bid: 99.7, ask: 100.0}, {bid: 99.95, ask: 100.0}},
	}
	venueB := &scriptedVenue{
		name: "XT", fee: 0.001, phase: phase,
		quotes: [2]quote{{bid: 99.5, ask: 99.6}, {bid: 99.9, ask: 99.92}},
	}

	eval := dsvc.NewEvaluator("OKX", "XT", 0.001, 0.001, 0.002)
	selector := dsvc.NewSelector(eval, []string{"BTC/USDT"})
	journal := &countingJournal{}
	sink := &discardSink{}

	engine := appsvc.NewTradingEngine(appsvc.EngineConfig{
		VenueA:           "OKX",
		VenueB:           "XT",
		InitialCapital:   2000,
		PositionFraction: 0.1,
	}, journal)

	svc := NewService(ServiceDeps{
		VenueA:        venueA,
		VenueB:        venueB,
		Selector:      selector,
		Engine:        engine,
		Journal:       journal,
		Sink:          sink,
		Policy:        ClosePolicy{ConvergenceRatio: 0.3},
		CycleInterval: time.Millisecond,
		BackoffDelay:  time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = svc.Run(ctx)
		close(done)
	}()

	deadline := time.After(5 * time.Second)
	for {
		if len(engine.History()) >= 1 {
			break
		}
		select {
		case <-deadline:
			cancel()
			t.Fatal("loop never completed an open/close roundtrip")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done

	signals, opened, closed := journal.counts()
	if signals < 2 {
		t.Errorf("expected at least two journaled signals, got %d", signals)
	}
	if opened != 1 || closed != 1 {
		t.Errorf("expected exactly one open and one close, got open=%d close=%d", opened, closed)
	}

	history := engine.History()
	if len(history) != 1 {
		t.Fatalf("expected one closed trade, got %d", len(history))
	}
	pos := history[0]
	if pos.Symbol != "BTC/USDT" || pos.Direction != model.ShortALongB {
		t.Errorf("unexpected closed position: %+v", pos)
	}
	if pos.NetProfit <= 0 {
		t.Errorf("convergence from 0.5 to 0.1 should net a profit, got %v", pos.NetProfit)
	}
	if sink.count() == 0 {
		t.Error("dashboard was never rendered")
	}
}

func TestLoopStaysFlatWithoutOpportunity(t *testing.T) {
	phase := &sharedPhase{}

	// symmetric tight books in both phases: nothing covers the cost
	venueA := &scriptedVenue{
		name: "OKX", fee: 0.001, phase: phase,
		quotes: [2]quote{{bid: 99.99, ask: 100.01}, {bid: 99.99, ask: 100.01}},
	}
	venueB := &scriptedVenue{
		name: "XT", fee: 0.001, phase: phase,
		quotes: [2]quote{{bid: 99.99, ask: 100.01}, {bid: 99.99, ask: 100.01}},
	}

	eval := dsvc.NewEvaluator("OKX", "XT", 0.001, 0.001, 0.002)
	selector := dsvc.NewSelector(eval, []string{"BTC/USDT"})
	journal := &countingJournal{}

	engine := appsvc.NewTradingEngine(appsvc.EngineConfig{
		VenueA:           "OKX",
		VenueB:           "XT",
		InitialCapital:   2000,
		PositionFraction: 0.1,
	}, journal)

	svc := NewService(ServiceDeps{
		VenueA:        venueA,
		VenueB:        venueB,
		Selector:      selector,
		Engine:        engine,
		Journal:       journal,
		Sink:          &discardSink{},
		Policy:        ClosePolicy{ConvergenceRatio: 0.3},
		CycleInterval: time.Millisecond,
		BackoffDelay:  time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_ = svc.Run(ctx)

	if got := len(engine.OpenPositions()) + len(engine.History()); got != 0 {
		t.Errorf("flat market must not trade, got %d positions", got)
	}
	signals, _, _ := journal.counts()
	if signals == 0 {
		t.Error("signals must still be journaled in a flat market")
	}
}
