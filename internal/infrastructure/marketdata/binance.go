package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"signal-backend/internal/domain"
)

const BinanceBaseURL = "https://api.binance.com"

// Binance reads spot prices from the public 24h ticker.
type Binance struct {
	httpClient *http.Client
	baseURL    string
}

func NewBinance(baseURL string) *Binance {
	if baseURL == "" {
		baseURL = BinanceBaseURL
	}
	return &Binance{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (c *Binance) Name() string { return "binance" }

type ticker24h struct {
	Symbol             string          `json:"symbol"`
	LastPrice          decimal.Decimal `json:"lastPrice"`
	PrevClosePrice     decimal.Decimal `json:"prevClosePrice"`
	PriceChangePercent decimal.Decimal `json:"priceChangePercent"`
	CloseTime          int64           `json:"closeTime"`
}

// binanceSymbol maps USD pairs to their USDT market, e.g. BTCUSD -> BTCUSDT.
func binanceSymbol(symbol string) string {
	s := strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
	if strings.HasSuffix(s, "USD") {
		s += "T"
	}
	return s
}

func (c *Binance) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	url := fmt.Sprintf("%s/api/v3/ticker/24hr?symbol=%s", c.baseURL, binanceSymbol(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("binance request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("binance API error: %d", resp.StatusCode)
	}

	var t ticker24h
	if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
		return nil, fmt.Errorf("invalid response from binance: %w", err)
	}
	ts := t.CloseTime / 1000
	q := &domain.Quote{Symbol: symbol, Price: t.LastPrice, Timestamp: &ts, Source: c.Name()}
	return q.WithPreviousClose(t.PrevClosePrice), nil
}
