package sim

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"biarb/internal/domain/model"
)

// Venue is a simulated exchange: per-instrument base prices follow a bounded
// random walk, order books carry three levels per side, and every order
// fills immediately and fully.
type Venue struct {
	mu sync.Mutex

	name string
	fee  float64

	basePrices   map[string]float64
	volatilities map[string]float64
	listing      []string // listing order

	// New-listing simulation: after every listingEvery SupportedPairs polls
	// the listingSymbol appears, once.
	listingSymbol  string
	listingPrice   float64
	listingEvery   int
	listingCounter int

	rng *rand.Rand
}

type Option func(*Venue)

// WithSeed makes the price walk deterministic, for tests.
func WithSeed(seed int64) Option {
	return func(v *Venue) { v.rng = rand.New(rand.NewSource(seed)) }
}

// WithListing enables the periodic new-listing simulation.
func WithListing(symbol string, price float64, every int) Option {
	return func(v *Venue) {
		v.listingSymbol = symbol
		v.listingPrice = price
		v.listingEvery = every
	}
}

func New(name string, fee float64, basePrices map[string]float64, volatilities map[string]float64, opts ...Option) *Venue {
	v := &Venue{
		name:         name,
		fee:          fee,
		basePrices:   make(map[string]float64, len(basePrices)),
		volatilities: make(map[string]float64, len(volatilities)),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for sym, p := range basePrices {
		v.basePrices[sym] = p
		v.listing = append(v.listing, sym)
	}
	// Map iteration order is random; keep the listing deterministic.
	sort.Strings(v.listing)
	for sym, vol := range volatilities {
		v.volatilities[sym] = vol
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Venue) Name() string     { return v.name }
func (v *Venue) FeeRate() float64 { return v.fee }

// walk advances the instrument's base price one step and returns the
// current bid/ask around it.
func (v *Venue) walk(symbol string) (bid, ask float64, ok bool) {
	base, found := v.basePrices[symbol]
	if !found {
		return 0, 0, false
	}

	base += (v.rng.Float64()*2 - 1) * base * 0.01
	v.basePrices[symbol] = base

	vol := v.volatilities[symbol]
	if vol <= 0 {
		vol = 0.001
	}
	bid = base * (1 - v.rng.Float64()*vol)
	ask = base * (1 + v.rng.Float64()*vol)
	return bid, ask, true
}

func (v *Venue) FetchOrderBook(ctx context.Context, symbol string) (*model.OrderBook, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v.mu.Lock()
	bid, ask, ok := v.walk(symbol)
	sizes := [6]float64{}
	for i := range sizes {
		sizes[i] = 0.1 + v.rng.Float64()*9.9
	}
	v.mu.Unlock()

	if !ok {
		return nil, &UnknownSymbolError{Venue: v.name, Symbol: symbol}
	}

	return &model.OrderBook{
		Symbol: symbol,
		Bids: []model.PriceLevel{
			{Price: bid, Size: sizes[0]},
			{Price: bid * 0.999, Size: sizes[1]},
			{Price: bid * 0.998, Size: sizes[2]},
		},
		Asks: []model.PriceLevel{
			{Price: ask, Size: sizes[3]},
			{Price: ask * 1.001, Size: sizes[4]},
			{Price: ask * 1.002, Size: sizes[5]},
		},
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

func (v *Venue) FetchOrderBooks(ctx context.Context, symbols []string) (map[string]*model.OrderBook, error) {
	out := make(map[string]*model.OrderBook, len(symbols))
	for _, sym := range symbols {
		book, err := v.FetchOrderBook(ctx, sym)
		if err != nil {
			if _, unknown := err.(*UnknownSymbolError); unknown {
				continue
			}
			return nil, err
		}
		out[sym] = book
	}
	return out, nil
}

func (v *Venue) SupportedPairs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.listingCounter++
	if v.listingEvery > 0 && v.listingCounter%v.listingEvery == 0 {
		if _, exists := v.basePrices[v.listingSymbol]; !exists && v.listingSymbol != "" {
			v.basePrices[v.listingSymbol] = v.listingPrice
			v.volatilities[v.listingSymbol] = 0.005
			v.listing = append(v.listing, v.listingSymbol)
			log.Info().Str("venue", v.name).Str("symbol", v.listingSymbol).Msg("new listing available")
		}
	}

	out := make([]string, len(v.listing))
	copy(out, v.listing)
	return out, nil
}

func (v *Venue) CreateOrder(ctx context.Context, side string, quantity, price float64, symbol string) (*model.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &model.Order{
		ID:        uuid.NewString(),
		Venue:     v.name,
		Symbol:    symbol,
		Side:      side,
		Quantity:  quantity,
		Price:     price,
		Status:    "filled",
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// UnknownSymbolError marks a request for an instrument the venue does not
// list.
type UnknownSymbolError struct {
	Venue  string
	Symbol string
}

func (e *UnknownSymbolError) Error() string {
	return "symbol " + e.Symbol + " not listed on " + e.Venue
}

// PrimaryBasePrices seeds venue A slightly above venue B, so spreads in
// both directions occur.
func PrimaryBasePrices() map[string]float64 {
	return map[string]float64{
		"BTC/USDT": 60000.0,
		"ETH/USDT": 3000.0,
		"BNB/USDT": 500.0,
		"ADA/USDT": 0.5,
		"DOT/USDT": 7.0,
	}
}

// SecondaryBasePrices seeds venue B.
func SecondaryBasePrices() map[string]float64 {
	return map[string]float64{
		"BTC/USDT": 59800.0,
		"ETH/USDT": 2990.0,
		"BNB/USDT": 495.0,
		"ADA/USDT": 0.49,
		"DOT/USDT": 6.9,
	}
}

// DefaultVolatilities returns per-instrument walk widths.
func DefaultVolatilities() map[string]float64 {
	return map[string]float64{
		"BTC/USDT": 0.0006,
		"ETH/USDT": 0.0012,
		"BNB/USDT": 0.0025,
		"ADA/USDT": 0.006,
		"DOT/USDT": 0.0035,
	}
}
