package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"signal-backend/internal/domain"
)

// twelveDataSymbols maps tracker symbols to Twelve Data's slash notation.
var twelveDataSymbols = map[string]string{
	"XAUUSD": "XAU/USD",
	"BTCUSD": "BTC/USD",
	"EURUSD": "EUR/USD",
	"US30":   "US30",
}

var ErrNotConfigured = errors.New("market data provider is not configured")

type TwelveData struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewTwelveData(baseURL, apiKey string) *TwelveData {
	return &TwelveData{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

func (c *TwelveData) Name() string { return "twelve_data" }

type twelveDataPrice struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	Price     decimal.Decimal `json:"price"`
	Timestamp *int64          `json:"timestamp"`
}

type twelveDataQuote struct {
	Code          int                 `json:"code"`
	Message       string              `json:"message"`
	PreviousClose decimal.NullDecimal `json:"previous_close"`
}

// Quote fetches the real-time price and, when available, the previous close.
func (c *TwelveData) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("twelve data: %w", ErrNotConfigured)
	}
	mapped := symbol
	if m, ok := twelveDataSymbols[symbol]; ok {
		mapped = m
	}

	var price twelveDataPrice
	if err := c.get(ctx, "/price", mapped, &price); err != nil {
		return nil, err
	}
	if price.Code != 0 && price.Code != http.StatusOK {
		return nil, fmt.Errorf("twelve data API error: %s", price.Message)
	}
	q := &domain.Quote{Symbol: symbol, Price: price.Price, Timestamp: price.Timestamp, Source: c.Name()}

	var quote twelveDataQuote
	if err := c.get(ctx, "/quote", mapped, &quote); err != nil {
		return q, nil
	}
	if (quote.Code != 0 && quote.Code != http.StatusOK) || !quote.PreviousClose.Valid {
		return q, nil
	}
	return q.WithPreviousClose(quote.PreviousClose.Decimal), nil
}

func (c *TwelveData) get(ctx context.Context, path, symbol string, out any) error {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("apikey", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("twelve data request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("twelve data API error: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response from twelve data: %w", err)
	}
	return nil
}
