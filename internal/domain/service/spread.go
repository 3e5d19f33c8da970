package service

import (
	"biarb/internal/domain/model"
)

// Evaluator computes directional spread opportunities between two venues.
// The total cost threshold (both fee rates plus the minimum profit floor) is
// fixed at construction.
type Evaluator struct {
	venueA    string
	venueB    string
	totalCost float64
}

func NewEvaluator(venueA, venueB string, feeA, feeB, minProfit float64) *Evaluator {
	return &Evaluator{
		venueA:    venueA,
		venueB:    venueB,
		totalCost: feeA + feeB + minProfit,
	}
}

// TotalCost returns the fee-plus-floor threshold a percentage spread must
// strictly exceed to be profitable.
func (e *Evaluator) TotalCost() float64 { return e.totalCost }

// SpreadPercent is the absolute spread relative to the average of the two
// leg prices. Defined as 0 when the average is not positive, so bad inputs
// degrade instead of dividing by zero.
func SpreadPercent(spread, shortPrice, buyPrice float64) float64 {
	avg := (shortPrice + buyPrice) / 2
	if avg <= 0 {
		return 0
	}
	return spread / avg
}

// Evaluate computes the opportunity for one instrument in one direction.
// Direction ShortALongB uses A's ask as the short leg and B's bid as the buy
// leg; ShortBLongA is the mirror. Pure function of the books and the fixed
// threshold.
func (e *Evaluator) Evaluate(symbol string, dir model.Direction, bookA, bookB *model.OrderBook) model.Opportunity {
	var shortVenue, buyVenue string
	var shortPrice, buyPrice float64

	switch dir {
	case model.ShortBLongA:
		shortVenue, buyVenue = e.venueB, e.venueA
		shortPrice, buyPrice = bookB.BestAsk(), bookA.BestBid()
	default:
		shortVenue, buyVenue = e.venueA, e.venueB
		shortPrice, buyPrice = bookA.BestAsk(), bookB.BestBid()
	}

	spread := shortPrice - buyPrice
	pct := SpreadPercent(spread, shortPrice, buyPrice)
	profitable := pct > e.totalCost

	potential := 0.0
	if profitable {
		potential = pct - e.totalCost
	}

	return model.Opportunity{
		Symbol:          symbol,
		Direction:       dir,
		ShortVenue:      shortVenue,
		BuyVenue:        buyVenue,
		ShortPrice:      shortPrice,
		BuyPrice:        buyPrice,
		Spread:          spread,
		SpreadPercent:   pct,
		Profitable:      profitable,
		ProfitPotential: potential,
	}
}

// CurrentSpread recomputes the raw spread for an instrument in a fixed
// direction from fresh books. Used by the close-trigger check against a
// position's entry spread.
func CurrentSpread(dir model.Direction, bookA, bookB *model.OrderBook) float64 {
	if dir == model.ShortBLongA {
		return bookB.BestAsk() - bookA.BestBid()
	}
	return bookA.BestAsk() - bookB.BestBid()
}
