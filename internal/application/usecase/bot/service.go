package bot

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"biarb/internal/application/port"
	appsvc "biarb/internal/application/service"
	"biarb/internal/domain/model"
	dsvc "biarb/internal/domain/service"
)

// ServiceDeps wires the loop's collaborators.
type ServiceDeps struct {
	VenueA port.Venue
	VenueB port.Venue

	Selector *dsvc.Selector
	Engine   *appsvc.TradingEngine
	Journal  port.Journal
	Sink     port.Sink

	Policy ClosePolicy

	CycleInterval     time.Duration
	BackoffDelay      time.Duration
	RenderEvery       int // render the dashboard every N cycles
	RefreshPairsEvery int // re-intersect supported pairs every N cycles, 0 disables
}

// Service runs the evaluation loop: one consistent snapshot per cycle, then
// evaluate, act (open or check-and-close), render, sleep. Cycles never
// overlap; engine mutation only starts once all cycle inputs are in hand.
type Service struct {
	deps     ServiceDeps
	fmt      *Formatter
	counters *ErrorCounters

	cycle        int
	lastRendered int // open-position count at last render
}

func NewService(deps ServiceDeps) *Service {
	if deps.CycleInterval <= 0 {
		deps.CycleInterval = 2 * time.Second
	}
	if deps.BackoffDelay <= 0 {
		deps.BackoffDelay = 5 * time.Second
	}
	if deps.RenderEvery <= 0 {
		deps.RenderEvery = 5
	}
	return &Service{
		deps:         deps,
		fmt:          NewFormatter(deps.VenueA.Name(), deps.VenueB.Name()),
		counters:     NewErrorCounters(),
		lastRendered: -1,
	}
}

func (s *Service) Run(ctx context.Context) error {
	s.refreshPairs(ctx)

	for {
		if err := ctx.Err(); err != nil {
			_ = s.deps.Sink.NewLine()
			return err
		}

		s.cycle++
		if s.deps.RefreshPairsEvery > 0 && s.cycle%s.deps.RefreshPairsEvery == 0 {
			s.refreshPairs(ctx)
		}

		snap, err := s.fetchSnapshot(ctx)
		if err != nil {
			s.counters.Fail(CatMarketData, err)
			if !s.sleep(ctx, s.deps.BackoffDelay) {
				return ctx.Err()
			}
			continue
		}
		s.counters.Reset(CatMarketData)

		sig := s.deps.Selector.SelectBest(snap)
		s.counters.Reset(CatStrategy)
		if err := s.deps.Journal.SaveSignal(ctx, sig); err != nil {
			log.Error().Err(err).Msg("journal signal failed")
		}

		open := s.deps.Engine.OpenPositions()
		s.render(ctx, snap, sig, open)

		if sig.ShouldTrade && len(open) == 0 {
			s.tryOpen(ctx, sig)
		} else if len(open) > 0 {
			s.tryClose(ctx, snap, open)
		}

		if !s.sleep(ctx, s.deps.CycleInterval) {
			return ctx.Err()
		}
	}
}

// refreshPairs intersects both venues' supported pairs, keeping venue A's
// listing order for deterministic evaluation. Falls back to the current list
// when the intersection is empty, and logs newly listed instruments.
func (s *Service) refreshPairs(ctx context.Context) {
	pairsA, err := s.deps.VenueA.SupportedPairs(ctx)
	if err != nil {
		s.counters.Fail(CatMarketData, err)
		return
	}
	pairsB, err := s.deps.VenueB.SupportedPairs(ctx)
	if err != nil {
		s.counters.Fail(CatMarketData, err)
		return
	}

	inB := make(map[string]struct{}, len(pairsB))
	for _, p := range pairsB {
		inB[p] = struct{}{}
	}
	common := make([]string, 0, len(pairsA))
	for _, p := range pairsA {
		if _, ok := inB[p]; ok {
			common = append(common, p)
		}
	}
	if len(common) == 0 {
		return
	}

	old := make(map[string]struct{}, len(s.deps.Selector.Symbols()))
	for _, p := range s.deps.Selector.Symbols() {
		old[p] = struct{}{}
	}
	for _, p := range common {
		if _, ok := old[p]; !ok {
			log.Info().Str("symbol", p).Msg("new trading pair detected")
		}
	}

	s.deps.Selector.SetSymbols(common)
}

// fetchSnapshot pulls one consistent set of order books from both venues.
// Only instruments with books on both sides enter the snapshot.
func (s *Service) fetchSnapshot(ctx context.Context) (model.Snapshot, error) {
	symbols := s.deps.Selector.Symbols()

	booksA, err := s.deps.VenueA.FetchOrderBooks(ctx, symbols)
	if err != nil {
		return nil, err
	}
	booksB, err := s.deps.VenueB.FetchOrderBooks(ctx, symbols)
	if err != nil {
		return nil, err
	}

	snap := make(model.Snapshot, len(symbols))
	for _, sym := range symbols {
		a, okA := booksA[sym]
		b, okB := booksB[sym]
		if okA && okB {
			snap[sym] = model.PairBooks{VenueA: a, VenueB: b}
		}
	}
	return snap, nil
}

// venuesFor maps a direction onto the short and buy venue adapters.
func (s *Service) venuesFor(dir model.Direction) (shortVenue, buyVenue port.Venue) {
	if dir == model.ShortBLongA {
		return s.deps.VenueB, s.deps.VenueA
	}
	return s.deps.VenueA, s.deps.VenueB
}

func (s *Service) tryOpen(ctx context.Context, sig *model.Signal) {
	shortVenue, buyVenue := s.venuesFor(sig.Direction)
	if _, err := s.deps.Engine.OpenPosition(ctx, sig, shortVenue, buyVenue); err != nil {
		s.counters.Fail(CatExecution, err)
		return
	}
	s.counters.Reset(CatExecution)
}

// tryClose checks every open position against the close policy using the
// cycle snapshot, and closes at most one position per cycle.
func (s *Service) tryClose(ctx context.Context, snap model.Snapshot, open []*model.Position) {
	for _, pos := range open {
		pair, ok := snap[pos.Symbol]
		if !ok {
			continue
		}

		current := dsvc.CurrentSpread(pos.Direction, pair.VenueA, pair.VenueB)
		if !s.deps.Policy.ShouldClose(pos.EntrySpread, current) {
			continue
		}

		shortVenue, buyVenue := s.venuesFor(pos.Direction)

		buyBook, err := buyVenue.FetchOrderBook(ctx, pos.Symbol)
		if err != nil {
			s.counters.Fail(CatPositionClosing, err)
			continue
		}
		shortBook, err := shortVenue.FetchOrderBook(ctx, pos.Symbol)
		if err != nil {
			s.counters.Fail(CatPositionClosing, err)
			continue
		}

		// Sell spot into the buy venue's bid, cover the short at the short
		// venue's bid.
		exitBuy := buyBook.BestBid()
		exitShort := shortBook.BestBid()

		if _, err := s.deps.Engine.ClosePosition(ctx, pos, exitBuy, exitShort, shortVenue, buyVenue); err != nil {
			s.counters.Fail(CatPositionClosing, err)
			continue
		}
		s.counters.Reset(CatPositionClosing)
		break
	}
}

// render redraws the dashboard every RenderEvery cycles, or immediately when
// the open-position count changed since the last draw.
func (s *Service) render(ctx context.Context, snap model.Snapshot, sig *model.Signal, open []*model.Position) {
	due := s.cycle%s.deps.RenderEvery == 0
	if !due && len(open) == s.lastRendered {
		return
	}
	s.lastRendered = len(open)

	counts := make(map[Category]int, len(Categories))
	for _, cat := range Categories {
		counts[cat] = s.counters.Count(cat)
	}

	frame := s.fmt.Render(Frame{
		Signal:    sig,
		Summary:   s.deps.Selector.MarketSummary(snap),
		Positions: open,
		Balances:  s.deps.Engine.Balances(),
		Stats:     s.deps.Engine.Statistics(),
		Errors:    counts,
	})
	_ = s.deps.Sink.WriteDashboard(frame)

	if payload, err := json.Marshal(s.deps.Engine.Statistics()); err == nil {
		if err := s.deps.Journal.SaveSnapshot(ctx, time.Now().UnixMilli(), string(payload)); err != nil {
			log.Error().Err(err).Msg("journal snapshot failed")
		}
	}
}

// sleep waits for d or until the context is cancelled; false means stop.
func (s *Service) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
