package live

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestStreamSymbol(t *testing.T) {
	if got := streamSymbol("BTC/USDT"); got != "btcusdt" {
		t.Errorf("expected btcusdt, got %s", got)
	}
	if got := streamSymbol("eth/usdt"); got != "ethusdt" {
		t.Errorf("expected ethusdt, got %s", got)
	}
}

func TestBuildURL(t *testing.T) {
	v := New("OKX", 0.001, "wss://stream.example.com", []string{"BTC/USDT", "ETH/USDT"})

	u, err := v.buildURL()
	if err != nil {
		t.Fatalf("buildURL failed: %v", err)
	}
	if !strings.Contains(u, "/stream?streams=btcusdt@bookTicker/ethusdt@bookTicker") {
		t.Errorf("unexpected url: %s", u)
	}
}

func TestBuildURLRejectsEmptyConfig(t *testing.T) {
	if _, err := New("OKX", 0.001, "", []string{"BTC/USDT"}).buildURL(); err == nil {
		t.Error("expected error for empty base url")
	}
	if _, err := New("OKX", 0.001, "wss://x", nil).buildURL(); err == nil {
		t.Error("expected error for empty symbol list")
	}
}

func TestHandleUpdatesBook(t *testing.T) {
	v := New("OKX", 0.001, "wss://x", []string{"BTC/USDT"})
	ctx := context.Background()

	// nothing cached yet
	if _, err := v.FetchOrderBook(ctx, "BTC/USDT"); !errors.Is(err, ErrNoQuote) {
		t.Fatalf("expected ErrNoQuote, got %v", err)
	}

	v.handle([]byte(`{"stream":"btcusdt@bookTicker","data":{"s":"BTCUSDT","b":"60000.5","B":"1.2","a":"60001.0","A":"0.8"}}`))

	book, err := v.FetchOrderBook(ctx, "BTC/USDT")
	if err != nil {
		t.Fatalf("FetchOrderBook failed: %v", err)
	}
	if book.BestBid() != 60000.5 || book.BestAsk() != 60001.0 {
		t.Errorf("unexpected quote: bid %v ask %v", book.BestBid(), book.BestAsk())
	}
	if book.Bids[0].Size != 1.2 || book.Asks[0].Size != 0.8 {
		t.Errorf("unexpected sizes: %+v", book)
	}
}

func TestHandleIgnoresBadMessages(t *testing.T) {
	v := New("OKX", 0.001, "wss://x", []string{"BTC/USDT"})
	ctx := context.Background()

	v.handle([]byte(`not json`))
	v.handle([]byte(`{"stream":"dogeusdt@bookTicker","data":{"s":"DOGEUSDT","b":"0.1","a":"0.2"}}`))
	v.handle([]byte(`{"stream":"btcusdt@bookTicker","data":{"s":"BTCUSDT","b":"bad","a":"60001.0"}}`))
	v.handle([]byte(`{"stream":"btcusdt@bookTicker","data":{"s":"BTCUSDT","b":"-1","a":"60001.0"}}`))

	if _, err := v.FetchOrderBook(ctx, "BTC/USDT"); !errors.Is(err, ErrNoQuote) {
		t.Errorf("malformed messages must not populate the book, got %v", err)
	}
}

func TestFetchOrderBooksReturnsOnlyCached(t *testing.T) {
	v := New("OKX", 0.001, "wss://x", []string{"BTC/USDT", "ETH/USDT"})
	ctx := context.Background()

	v.handle([]byte(`{"stream":"btcusdt@bookTicker","data":{"s":"BTCUSDT","b":"60000.5","B":"1","a":"60001.0","A":"1"}}`))

	books, err := v.FetchOrderBooks(ctx, []string{"BTC/USDT", "ETH/USDT"})
	if err != nil {
		t.Fatalf("FetchOrderBooks failed: %v", err)
	}
	if len(books) != 1 {
		t.Errorf("expected only the quoted instrument, got %d", len(books))
	}
}

func TestPaperOrderFills(t *testing.T) {
	v := New("OKX", 0.001, "wss://x", []string{"BTC/USDT"})

	order, err := v.CreateOrder(context.Background(), "sell", 2.0, 60000.0, "BTC/USDT")
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if order.Status != "filled" || order.ID == "" {
		t.Errorf("expected filled paper order with id, got %+v", order)
	}
}
