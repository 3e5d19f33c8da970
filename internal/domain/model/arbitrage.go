package model

// ========== Market Data Models ==========

// PriceLevel is a single order book level: price and size.
type PriceLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// OrderBook holds best-to-worst bid/ask levels for one instrument on one
// venue. Index 0 is the best price on each side.
type OrderBook struct {
	Symbol    string       `json:"symbol"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
	Timestamp int64        `json:"ts_ms"`
}

// BestBid returns the top-of-book bid price, 0 when the side is empty.
func (b *OrderBook) BestBid() float64 {
	if b == nil || len(b.Bids) == 0 {
		return 0
	}
	return b.Bids[0].Price
}

// BestAsk returns the top-of-book ask price, 0 when the side is empty.
func (b *OrderBook) BestAsk() float64 {
	if b == nil || len(b.Asks) == 0 {
		return 0
	}
	return b.Asks[0].Price
}

// PairBooks is one instrument's order books from both venues, taken from the
// same snapshot.
type PairBooks struct {
	VenueA *OrderBook `json:"venue_a"`
	VenueB *OrderBook `json:"venue_b"`
}

// Snapshot maps instrument -> both venues' books for one evaluation cycle.
type Snapshot map[string]PairBooks

// ========== Opportunity Models ==========

// Direction fixes which venue takes the short contract leg and which takes
// the spot buy leg.
type Direction int

const (
	// ShortALongB: short contract on venue A (its ask), buy spot on venue B (its bid).
	ShortALongB Direction = iota
	// ShortBLongA: short contract on venue B (its ask), buy spot on venue A (its bid).
	ShortBLongA
)

func (d Direction) String() string {
	if d == ShortBLongA {
		return "short_b_long_a"
	}
	return "short_a_long_b"
}

// Opportunity is one instrument evaluated in one direction. Ephemeral,
// recomputed every cycle.
type Opportunity struct {
	Symbol          string    `json:"symbol"`
	Direction       Direction `json:"direction"`
	ShortVenue      string    `json:"short_venue"`
	BuyVenue        string    `json:"buy_venue"`
	ShortPrice      float64   `json:"short_price"` // short-leg ask
	BuyPrice        float64   `json:"buy_price"`   // buy-leg bid
	Spread          float64   `json:"spread"`      // short price - buy price
	SpreadPercent   float64   `json:"spread_percent"`
	Profitable      bool      `json:"profitable"`
	ProfitPotential float64   `json:"profit_potential"` // spread% - total cost, floored at 0
}

// Signal is the selected best opportunity for one cycle, or a no-trade
// marker with the full opportunity list for observability.
type Signal struct {
	ShouldTrade     bool          `json:"should_trade"`
	Symbol          string        `json:"symbol,omitempty"`
	Direction       Direction     `json:"direction"`
	ShortVenue      string        `json:"short_venue,omitempty"`
	BuyVenue        string        `json:"buy_venue,omitempty"`
	ShortPrice      float64       `json:"short_price,omitempty"`
	BuyPrice        float64       `json:"buy_price,omitempty"`
	Spread          float64       `json:"spread,omitempty"`
	SpreadPercent   float64       `json:"spread_percent,omitempty"`
	ProfitPotential float64       `json:"profit_potential,omitempty"`
	Reason          string        `json:"reason"`
	Opportunities   []Opportunity `json:"opportunities"`
	Timestamp       int64         `json:"ts_ms"`
}

// ========== Position Models ==========

// PositionStatus is the position lifecycle tag. The only transition is
// open -> closed.
type PositionStatus string

const (
	StatusOpen   PositionStatus = "open"
	StatusClosed PositionStatus = "closed"
)

// Position is a paired trade: spot long on the buy venue, contract short on
// the short venue. Owned by the trading engine while open; moved into trade
// history on close.
type Position struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Direction  Direction `json:"direction"`
	BuyVenue   string    `json:"buy_venue"`
	ShortVenue string    `json:"short_venue"`

	BuyPrice    float64 `json:"buy_price"`
	ShortPrice  float64 `json:"short_price"`
	Quantity    float64 `json:"quantity"`
	EntrySpread float64 `json:"entry_spread"` // short price - buy price
	EntryFees   float64 `json:"entry_fees"`   // both venues' open fees

	SpotOrderID     string `json:"spot_order_id,omitempty"`
	ContractOrderID string `json:"contract_order_id,omitempty"`

	Status   PositionStatus `json:"status"`
	OpenTime int64          `json:"open_time"`

	// Set on close.
	ExitBuyPrice        float64 `json:"exit_buy_price,omitempty"`   // spot sell price
	ExitShortPrice      float64 `json:"exit_short_price,omitempty"` // contract cover price
	ExitSpread          float64 `json:"exit_spread,omitempty"`
	SpotExitOrderID     string  `json:"spot_exit_order_id,omitempty"`
	ContractExitOrderID string  `json:"contract_exit_order_id,omitempty"`
	GrossProfit         float64 `json:"gross_profit,omitempty"`
	ExitFees            float64 `json:"exit_fees,omitempty"`
	NetProfit           float64 `json:"net_profit,omitempty"`
	CloseTime           int64   `json:"close_time,omitempty"`
}

// ========== Account Models ==========

// Balance is one venue's simulated account: quote-currency cash, base-asset
// holdings and a signed contract position (negative = net short). Mutated
// only by the trading engine.
type Balance struct {
	Venue     string             `json:"venue"`
	Cash      float64            `json:"cash"`
	Assets    map[string]float64 `json:"assets"`
	Contracts float64            `json:"contracts"`
}

// Statistics aggregates the trade history.
type Statistics struct {
	TotalTrades      int     `json:"total_trades"`
	ProfitableTrades int     `json:"profitable_trades"`
	WinRate          float64 `json:"win_rate"` // percent, 0 when no trades
	TotalProfit      float64 `json:"total_profit"`
	DailyProfit      float64 `json:"daily_profit"` // never reset by the engine
	OpenPositions    int     `json:"open_positions"`
}

// ========== Order Models ==========

// Order is an immediate-fill simulated order record.
type Order struct {
	ID        string  `json:"id"`
	Venue     string  `json:"venue"`
	Symbol    string  `json:"symbol"`
	Side      string  `json:"side"` // "buy" or "sell"
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price"`
	Status    string  `json:"status"` // always "filled" in simulation
	Timestamp int64   `json:"ts_ms"`
}
