package service

import (
	"fmt"
	"sort"
	"time"

	"biarb/internal/domain/model"
)

// Selector enumerates configured instruments in both directions and picks
// the single best profitable opportunity per cycle.
type Selector struct {
	eval    *Evaluator
	symbols []string
}

func NewSelector(eval *Evaluator, symbols []string) *Selector {
	return &Selector{eval: eval, symbols: symbols}
}

// SetSymbols replaces the instrument list. Called when the supported-pair
// refresh detects new listings.
func (s *Selector) SetSymbols(symbols []string) { s.symbols = symbols }

func (s *Selector) Symbols() []string { return s.symbols }

// evaluateAll walks the configured instrument list in order, direction 1
// before direction 2, skipping instruments missing a book on either venue.
func (s *Selector) evaluateAll(snap model.Snapshot) []model.Opportunity {
	opps := make([]model.Opportunity, 0, 2*len(s.symbols))
	for _, sym := range s.symbols {
		pair, ok := snap[sym]
		if !ok || pair.VenueA == nil || pair.VenueB == nil {
			continue
		}
		opps = append(opps, s.eval.Evaluate(sym, model.ShortALongB, pair.VenueA, pair.VenueB))
		opps = append(opps, s.eval.Evaluate(sym, model.ShortBLongA, pair.VenueA, pair.VenueB))
	}
	return opps
}

// SelectBest evaluates the whole snapshot and returns the cycle's signal.
// Ties on profit potential keep the first-encountered opportunity, so the
// configured instrument order is the tie-break.
func (s *Selector) SelectBest(snap model.Snapshot) *model.Signal {
	opps := s.evaluateAll(snap)
	now := time.Now().UnixMilli()

	best := -1
	for i, opp := range opps {
		if !opp.Profitable {
			continue
		}
		if best < 0 || opp.ProfitPotential > opps[best].ProfitPotential {
			best = i
		}
	}

	if best < 0 {
		return &model.Signal{
			ShouldTrade:   false,
			Reason:        "no profitable opportunities found",
			Opportunities: opps,
			Timestamp:     now,
		}
	}

	win := opps[best]
	return &model.Signal{
		ShouldTrade:     true,
		Symbol:          win.Symbol,
		Direction:       win.Direction,
		ShortVenue:      win.ShortVenue,
		BuyVenue:        win.BuyVenue,
		ShortPrice:      win.ShortPrice,
		BuyPrice:        win.BuyPrice,
		Spread:          win.Spread,
		SpreadPercent:   win.SpreadPercent,
		ProfitPotential: win.ProfitPotential,
		Reason: fmt.Sprintf("best opportunity in %s with %.4f spread, direction: %s",
			win.Symbol, win.SpreadPercent, win.Direction),
		Opportunities: opps,
		Timestamp:     now,
	}
}

// MarketSummary returns every evaluated opportunity sorted by percentage
// spread descending. Stable sort: equal spreads keep evaluation order.
func (s *Selector) MarketSummary(snap model.Snapshot) []model.Opportunity {
	opps := s.evaluateAll(snap)
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].SpreadPercent > opps[j].SpreadPercent
	})
	return opps
}
