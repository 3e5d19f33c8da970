package port

import (
	"context"

	"biarb/internal/domain/model"
)

// Venue is one exchange: market data plus an immediate-fill order execution
// capability. Order placement is simulated in every mode; only the quote
// source differs between sim and live venues.
type Venue interface {
	Name() string
	// FeeRate is the venue's taker fee as a decimal fraction (e.g. 0.001).
	FeeRate() float64

	FetchOrderBook(ctx context.Context, symbol string) (*model.OrderBook, error)
	FetchOrderBooks(ctx context.Context, symbols []string) (map[string]*model.OrderBook, error)
	SupportedPairs(ctx context.Context) ([]string, error)

	// CreateOrder places a simulated order. All orders fill immediately and
	// fully; no rejection is modeled.
	CreateOrder(ctx context.Context, side string, quantity, price float64, symbol string) (*model.Order, error)
}
