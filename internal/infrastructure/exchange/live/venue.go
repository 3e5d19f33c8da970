package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"biarb/internal/domain/model"
)

// ErrNoQuote: the stream has not delivered a book ticker for the instrument
// yet.
var ErrNoQuote = errors.New("no quote received yet")

// combinedMsg wraps a combined-stream book ticker message.
type combinedMsg struct {
	Stream string        `json:"stream"`
	Data   bookTickerMsg `json:"data"`
}

type bookTickerMsg struct {
	Symbol  string `json:"s"`
	BidPx   string `json:"b"`
	BidSize string `json:"B"`
	AskPx   string `json:"a"`
	AskSize string `json:"A"`
}

// Venue serves quotes from an exchange bookTicker websocket stream while
// keeping order execution simulated, so live prices can drive paper trades.
type Venue struct {
	name    string
	fee     float64
	baseURL string
	symbols []string // instrument form, e.g. "BTC/USDT"

	mu    sync.RWMutex
	books map[string]*model.OrderBook
}

func New(name string, fee float64, baseURL string, symbols []string) *Venue {
	return &Venue{
		name:    name,
		fee:     fee,
		baseURL: baseURL,
		symbols: append([]string(nil), symbols...),
		books:   make(map[string]*model.OrderBook),
	}
}

func (v *Venue) Name() string     { return v.name }
func (v *Venue) FeeRate() float64 { return v.fee }

// streamSymbol converts "BTC/USDT" to the stream form "btcusdt".
func streamSymbol(instrument string) string {
	return strings.ToLower(strings.ReplaceAll(instrument, "/", ""))
}

// instrumentFor maps a stream symbol like "BTCUSDT" back to the configured
// instrument, or "" when unknown.
func (v *Venue) instrumentFor(streamSym string) string {
	for _, s := range v.symbols {
		if strings.EqualFold(strings.ReplaceAll(s, "/", ""), streamSym) {
			return s
		}
	}
	return ""
}

func (v *Venue) buildURL() (string, error) {
	if v.baseURL == "" {
		return "", errors.New("ws url is empty")
	}
	if len(v.symbols) == 0 {
		return "", errors.New("symbols list is empty")
	}
	streams := make([]string, 0, len(v.symbols))
	for _, s := range v.symbols {
		streams = append(streams, streamSymbol(s)+"@bookTicker")
	}
	u, err := url.Parse(v.baseURL)
	if err != nil {
		return "", err
	}
	u.Path = "/stream"
	u.RawQuery = "streams=" + strings.Join(streams, "/")
	return u.String(), nil
}

// Start runs the stream with automatic reconnection until ctx is cancelled.
// Call once, before the evaluation loop begins.
func (v *Venue) Start(ctx context.Context) {
	go func() {
		backoff := 500 * time.Millisecond
		const maxBackoff = 10 * time.Second

		for {
			if ctx.Err() != nil {
				return
			}

			err := v.connect(ctx)
			if errors.Is(err, context.Canceled) {
				return
			}
			if err != nil {
				log.Warn().Err(err).Str("venue", v.name).Msg("stream disconnected, reconnecting")
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}()
}

func (v *Venue) connect(ctx context.Context) error {
	wsURL, err := v.buildURL()
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	pingTicker := time.NewTicker(25 * time.Second)
	defer pingTicker.Stop()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				errCh <- err
				return
			}
			v.handle(data)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		case <-pingTicker.C:
			_ = conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))
		}
	}
}

func (v *Venue) handle(data []byte) {
	var msg combinedMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	instrument := v.instrumentFor(msg.Data.Symbol)
	if instrument == "" {
		return
	}

	bid, err1 := strconv.ParseFloat(msg.Data.BidPx, 64)
	ask, err2 := strconv.ParseFloat(msg.Data.AskPx, 64)
	if err1 != nil || err2 != nil || bid <= 0 || ask <= 0 {
		return
	}
	bidSize, _ := strconv.ParseFloat(msg.Data.BidSize, 64)
	askSize, _ := strconv.ParseFloat(msg.Data.AskSize, 64)

	book := &model.OrderBook{
		Symbol:    instrument,
		Bids:      []model.PriceLevel{{Price: bid, Size: bidSize}},
		Asks:      []model.PriceLevel{{Price: ask, Size: askSize}},
		Timestamp: time.Now().UnixMilli(),
	}

	v.mu.Lock()
	v.books[instrument] = book
	v.mu.Unlock()
}

func (v *Venue) FetchOrderBook(ctx context.Context, symbol string) (*model.OrderBook, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.mu.RLock()
	book := v.books[symbol]
	v.mu.RUnlock()
	if book == nil {
		return nil, fmt.Errorf("%s %s: %w", v.name, symbol, ErrNoQuote)
	}
	return book, nil
}

func (v *Venue) FetchOrderBooks(ctx context.Context, symbols []string) (map[string]*model.OrderBook, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string]*model.OrderBook, len(symbols))
	v.mu.RLock()
	for _, sym := range symbols {
		if book := v.books[sym]; book != nil {
			out[sym] = book
		}
	}
	v.mu.RUnlock()
	return out, nil
}

func (v *Venue) SupportedPairs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]string(nil), v.symbols...), nil
}

// CreateOrder is a paper fill at the requested price.
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
