package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"biarb/internal/application/port"
	"biarb/internal/domain/model"
)

var (
	// ErrNoTradeSignal rejects open attempts on a negative signal.
	ErrNoTradeSignal = errors.New("no trading signal")
	// ErrNegligibleQuantity rejects dust-sized opens after the sizer clamp.
	ErrNegligibleQuantity = errors.New("computed quantity is negligible")
)

// minQuantity is the dust clamp: anything smaller sizes to exactly 0.
const minQuantity = 1e-10

// EngineConfig holds the simulated account parameters.
type EngineConfig struct {
	VenueA           string
	VenueB           string
	InitialCapital   float64 // split evenly across both venues
	PositionFraction float64 // fraction of constraining venue's cash per trade
}

// TradingEngine owns the per-venue balances, the open position set and the
// trade history. All mutation happens inside OpenPosition/ClosePosition,
// sequentially within one evaluation cycle; other components only read
// through accessors.
type TradingEngine struct {
	mu  sync.Mutex
	cfg EngineConfig

	balances map[string]*model.Balance
	open     []*model.Position
	history  []*model.Position

	totalTrades      int
	profitableTrades int
	totalProfit      float64
	dailyProfit      float64

	journal port.Journal
}

func NewTradingEngine(cfg EngineConfig, journal port.Journal) *TradingEngine {
	half := cfg.InitialCapital / 2
	return &TradingEngine{
		cfg: cfg,
		balances: map[string]*model.Balance{
			cfg.VenueA: {Venue: cfg.VenueA, Cash: half, Assets: make(map[string]float64)},
			cfg.VenueB: {Venue: cfg.VenueB, Cash: half, Assets: make(map[string]float64)},
		},
		journal: journal,
	}
}

// CalculatePositionSize converts available capital and a price into a trade
// quantity. Available capital is the minimum of the two venues' cash, so the
// sizer never assumes more than the constraining venue has. A non-positive
// price is replaced with 1.0 and logged; dust results clamp to exactly 0.
func (e *TradingEngine) CalculatePositionSize(price float64) float64 {
	e.mu.Lock()
	available := e.balances[e.cfg.VenueA].Cash
	if b := e.balances[e.cfg.VenueB].Cash; b < available {
		available = b
	}
	e.mu.Unlock()

	if price <= 0 {
		log.Warn().Float64("price", price).Msg("invalid price for sizing, using default of 1.0")
		price = 1.0
	}

	quantity := available * e.cfg.PositionFraction / price
	if quantity < minQuantity {
		log.Warn().Float64("quantity", quantity).Msg("calculated position size too small, setting to 0")
		return 0
	}
	return quantity
}

// baseAsset extracts the base currency from an instrument like "BTC/USDT".
func baseAsset(symbol string) string {
	if i := strings.IndexByte(symbol, '/'); i > 0 {
		return symbol[:i]
	}
	return symbol
}

// OpenPosition executes the paired open: spot buy on the buy venue, contract
// short on the short venue, both at the signal's leg prices. Balance
// mutation begins only after both simulated orders have been placed, so a
// failed external call leaves no partial state.
func (e *TradingEngine) OpenPosition(ctx context.Context, sig *model.Signal, shortVenue, buyVenue port.Venue) (*model.Position, error) {
	if sig == nil || !sig.ShouldTrade {
		return nil, ErrNoTradeSignal
	}

	symbol := sig.Symbol
	buyPrice := sig.BuyPrice
	shortPrice := sig.ShortPrice

	quantity := e.CalculatePositionSize(buyPrice)
	if quantity == 0 {
		return nil, ErrNegligibleQuantity
	}

	spotCost := quantity * buyPrice

	e.mu.Lock()
	buyBal := e.balances[buyVenue.Name()]
	if buyBal == nil || buyBal.Cash < spotCost {
		e.mu.Unlock()
		return nil, fmt.Errorf("insufficient cash balance on %s for spot purchase", buyVenue.Name())
	}
	e.mu.Unlock()

	spotOrder, err := buyVenue.CreateOrder(ctx, "buy", quantity, buyPrice, symbol)
	if err != nil {
		return nil, fmt.Errorf("spot buy on %s: %w", buyVenue.Name(), err)
	}
	contractOrder, err := shortVenue.CreateOrder(ctx, "sell", quantity, shortPrice, symbol)
	if err != nil {
		return nil, fmt.Errorf("contract short on %s: %w", shortVenue.Name(), err)
	}

	contractValue := quantity * shortPrice
	buyFee := spotCost * buyVenue.FeeRate()
	shortFee := contractValue * shortVenue.FeeRate()

	pos := &model.Position{
		ID:              uuid.NewString(),
		Symbol:          symbol,
		Direction:       sig.Direction,
		BuyVenue:        buyVenue.Name(),
		ShortVenue:      shortVenue.Name(),
		BuyPrice:        buyPrice,
		ShortPrice:      shortPrice,
		Quantity:        quantity,
		EntrySpread:     shortPrice - buyPrice,
		EntryFees:       buyFee + shortFee,
		SpotOrderID:     spotOrder.ID,
		ContractOrderID: contractOrder.ID,
		Status:          model.StatusOpen,
		OpenTime:        time.Now().UnixMilli(),
	}

	e.mu.Lock()
	buyBal = e.balances[buyVenue.Name()]
	shortBal := e.balances[shortVenue.Name()]

	buyBal.Cash -= spotCost
	buyBal.Assets[baseAsset(symbol)] += quantity

	shortBal.Cash += contractValue
	shortBal.Contracts -= quantity

	buyBal.Cash -= buyFee
	shortBal.Cash -= shortFee

	e.open = append(e.open, pos)
	e.mu.Unlock()

	if err := e.journal.SavePositionOpened(ctx, pos); err != nil {
		log.Error().Err(err).Str("position", pos.ID).Msg("journal position opened failed")
	}

	log.Info().
		Str("symbol", symbol).
		Str("buy_venue", buyVenue.Name()).
		Str("short_venue", shortVenue.Name()).
		Float64("buy_price", buyPrice).
		Float64("short_price", shortPrice).
		Float64("quantity", quantity).
		Float64("entry_spread", pos.EntrySpread).
		Msg("arbitrage position opened")

	return pos, nil
}

// ClosePosition unwinds a previously opened position at the supplied exit
// prices: spot sell on the buy venue, contract cover on the short venue.
// Callers must only pass positions currently tracked as open; closing is the
// one-way transition into trade history.
func (e *TradingEngine) ClosePosition(ctx context.Context, pos *model.Position, exitBuyPrice, exitShortPrice float64, shortVenue, buyVenue port.Venue) (*model.Position, error) {
	spotOrder, err := buyVenue.CreateOrder(ctx, "sell", pos.Quantity, exitBuyPrice, pos.Symbol)
	if err != nil {
		return nil, fmt.Errorf("spot sell on %s: %w", buyVenue.Name(), err)
	}
	coverOrder, err := shortVenue.CreateOrder(ctx, "buy", pos.Quantity, exitShortPrice, pos.Symbol)
	if err != nil {
		return nil, fmt.Errorf("contract cover on %s: %w", shortVenue.Name(), err)
	}

	spotPL := (exitBuyPrice - pos.BuyPrice) * pos.Quantity
	contractPL := (pos.ShortPrice - exitShortPrice) * pos.Quantity
	grossProfit := spotPL + contractPL

	spotExitCost := pos.Quantity * exitBuyPrice
	coverCost := pos.Quantity * exitShortPrice
	buyExitFee := spotExitCost * buyVenue.FeeRate()
	shortExitFee := coverCost * shortVenue.FeeRate()
	exitFees := buyExitFee + shortExitFee

	netProfit := grossProfit - exitFees - pos.EntryFees

	e.mu.Lock()
	buyBal := e.balances[buyVenue.Name()]
	shortBal := e.balances[shortVenue.Name()]

	buyBal.Cash += spotExitCost
	buyBal.Assets[baseAsset(pos.Symbol)] -= pos.Quantity

	shortBal.Cash -= coverCost
	shortBal.Contracts += pos.Quantity

	buyBal.Cash -= buyExitFee
	shortBal.Cash -= shortExitFee

	pos.Status = model.StatusClosed
	pos.ExitBuyPrice = exitBuyPrice
	pos.ExitShortPrice = exitShortPrice
	pos.ExitSpread = exitBuyPrice - exitShortPrice
	pos.SpotExitOrderID = spotOrder.ID
	pos.ContractExitOrderID = coverOrder.ID
	pos.GrossProfit = grossProfit
	pos.ExitFees = exitFees
	pos.NetProfit = netProfit
	pos.CloseTime = time.Now().UnixMilli()

	for i, p := range e.open {
		if p.ID == pos.ID {
			e.open = append(e.open[:i], e.open[i+1:]...)
			break
		}
	}
	e.history = append(e.history, pos)

	e.totalTrades++
	if netProfit > 0 {
		e.profitableTrades++
	}
	e.totalProfit += netProfit
	e.dailyProfit += netProfit
	e.mu.Unlock()

	if err := e.journal.SavePositionClosed(ctx, pos); err != nil {
		log.Error().Err(err).Str("position", pos.ID).Msg("journal position closed failed")
	}

	log.Info().
		Str("symbol", pos.Symbol).
		Str("buy_venue", buyVenue.Name()).
		Str("short_venue", shortVenue.Name()).
		Float64("exit_buy_price", exitBuyPrice).
		Float64("exit_short_price", exitShortPrice).
		Float64("gross_profit", grossProfit).
		Float64("net_profit", netProfit).
		Msg("arbitrage position closed")

	return pos, nil
}

// OpenPositions returns a copy of the open set.
func (e *TradingEngine) OpenPositions() []*model.Position {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*model.Position, len(e.open))
	copy(out, e.open)
	return out
}

// History returns a copy of the closed-trade list.
func (e *TradingEngine) History() []*model.Position {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*model.Position, len(e.history))
	copy(out, e.history)
	return out
}

// Balances returns a deep copy of both venues' balances.
func (e *TradingEngine) Balances() map[string]model.Balance {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]model.Balance, len(e.balances))
	for name, b := range e.balances {
		cp := model.Balance{Venue: b.Venue, Cash: b.Cash, Contracts: b.Contracts, Assets: make(map[string]float64, len(b.Assets))}
		for a, v := range b.Assets {
			cp.Assets[a] = v
		}
		out[name] = cp
	}
	return out
}

// Statistics aggregates the trade history. Win rate is a percentage, 0 when
// there are no trades. The daily accumulator is never reset here.
func (e *TradingEngine) Statistics() model.Statistics {
	e.mu.Lock()
	defer e.mu.Unlock()

	winRate := 0.0
	if e.totalTrades > 0 {
		winRate = float64(e.profitableTrades) / float64(e.totalTrades) * 100
	}
	return model.Statistics{
		TotalTrades:      e.totalTrades,
		ProfitableTrades: e.profitableTrades,
		WinRate:          winRate,
		TotalProfit:      e.totalProfit,
		DailyProfit:      e.dailyProfit,
		OpenPositions:    len(e.open),
	}
}
