package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"signal-backend/internal/config"
)

func TestTwelveDataQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "XAU/USD" {
			t.Errorf("expected mapped symbol XAU/USD, got %q", got)
		}
		if got := r.URL.Query().Get("apikey"); got != "key" {
			t.Errorf("expected api key, got %q", got)
		}
		switch r.URL.Path {
		case "/price":
			_, _ = w.Write([]byte(`{"price":"2020.00","timestamp":1700000000}`))
		case "/quote":
			_, _ = w.Write([]byte(`{"symbol":"XAU/USD","previous_close":"2000.00"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	q, err := NewTwelveData(srv.URL, "key").Quote(context.Background(), "XAUUSD")
	if err != nil {
		t.Fatalf("Quote returned error: %v", err)
	}
	if q.Symbol != "XAUUSD" || q.Source != "twelve_data" {
		t.Fatalf("unexpected quote %+v", q)
	}
	if !q.Price.Equal(decimal.NewFromInt(2020)) {
		t.Fatalf("expected price 2020, got %s", q.Price)
	}
	if !q.Change.Equal(decimal.NewFromInt(20)) || !q.ChangePercent.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected change 20 (1%%), got %s (%s%%)", q.Change, q.ChangePercent)
	}
	if q.Timestamp == nil || *q.Timestamp != 1700000000 {
		t.Fatalf("unexpected timestamp %v", q.Timestamp)
	}
}

func TestTwelveDataErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":400,"message":"symbol not found","status":"error"}`))
	}))
	defer srv.Close()

	if _, err := NewTwelveData(srv.URL, "key").Quote(context.Background(), "NOPE"); err == nil {
		t.Fatal("expected error for API error payload")
	}
}

func TestTwelveDataQuoteFallsBackToPriceOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/quote" {
			_, _ = w.Write([]byte(`{"code":429,"message":"rate limited"}`))
			return
		}
		_, _ = w.Write([]byte(`{"price":"1.0850"}`))
	}))
	defer srv.Close()

	q, err := NewTwelveData(srv.URL, "key").Quote(context.Background(), "EURUSD")
	if err != nil {
		t.Fatalf("Quote returned error: %v", err)
	}
	if !q.ChangePercent.IsZero() || q.PreviousClose != nil {
		t.Fatalf("expected price only, got %+v", q)
	}
}

func TestTwelveDataRequiresKey(t *testing.T) {
	_, err := NewTwelveData("http://127.0.0.1:0", "").Quote(context.Background(), "XAUUSD")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestBinanceQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/24hr" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Errorf("expected BTCUSDT, got %q", got)
		}
		_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","lastPrice":"101.00000000","prevClosePrice":"100.00000000","priceChangePercent":"1.000","closeTime":1700000000000}`))
	}))
	defer srv.Close()

	q, err := NewBinance(srv.URL).Quote(context.Background(), "BTCUSD")
	if err != nil {
		t.Fatalf("Quote returned error: %v", err)
	}
	if !q.Price.Equal(decimal.NewFromInt(101)) || !q.ChangePercent.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("unexpected quote %+v", q)
	}
	if q.Timestamp == nil || *q.Timestamp != 1700000000 {
		t.Fatalf("expected seconds timestamp, got %v", q.Timestamp)
	}
}

func TestBinanceHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	if _, err := NewBinance(srv.URL).Quote(context.Background(), "XXX"); err == nil {
		t.Fatal("expected error for 400 response")
	}
}

func TestNewSelectsProvider(t *testing.T) {
	for name, want := range map[string]string{"twelvedata": "twelve_data", "binance": "binance", "alpaca": "alpaca"} {
		p, err := New(config.MarketData{Provider: name})
		if err != nil {
			t.Fatalf("%s: unexpected error %v", name, err)
		}
		if p.Name() != want {
			t.Fatalf("%s: expected %s, got %s", name, want, p.Name())
		}
	}
	if _, err := New(config.MarketData{Provider: "yahoo"}); err == nil {
		t.Fatal("expected unknown provider error")
	}
}
