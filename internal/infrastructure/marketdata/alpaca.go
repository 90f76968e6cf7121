package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"signal-backend/internal/domain"
)

// Alpaca quotes US equities from the latest trade and the previous daily bar.
type Alpaca struct {
	client *marketdata.Client
}

func NewAlpaca(apiKey, apiSecret string) *Alpaca {
	return &Alpaca{client: marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	})}
}

func (a *Alpaca) Name() string { return "alpaca" }

// Quote ignores ctx; the SDK calls are not context aware.
func (a *Alpaca) Quote(_ context.Context, symbol string) (*domain.Quote, error) {
	trade, err := a.client.GetLatestTrade(symbol, marketdata.GetLatestTradeRequest{})
	if err != nil {
		return nil, fmt.Errorf("alpaca latest trade: %w", err)
	}
	if trade == nil {
		return nil, fmt.Errorf("alpaca: no trade for %s", symbol)
	}
	ts := trade.Timestamp.Unix()
	q := &domain.Quote{
		Symbol:    symbol,
		Price:     decimal.NewFromFloat(trade.Price),
		Timestamp: &ts,
		Source:    a.Name(),
	}

	now := time.Now()
	bars, err := a.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     now.AddDate(0, 0, -7),
		End:       now,
	})
	if err != nil {
		return q, nil
	}
	today := now.Truncate(24 * time.Hour)
	for i := len(bars) - 1; i >= 0; i-- {
		if bars[i].Timestamp.Before(today) {
			return q.WithPreviousClose(decimal.NewFromFloat(bars[i].Close)), nil
		}
	}
	return q, nil
}
