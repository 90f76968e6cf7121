package marketdata

import (
	"fmt"

	"signal-backend/internal/config"
	"signal-backend/internal/domain"
)

// New returns the provider named in cfg.
func New(cfg config.MarketData) (domain.PriceProvider, error) {
	switch cfg.Provider {
	case "", "twelvedata":
		return NewTwelveData(cfg.TwelveDataBaseURL, cfg.TwelveDataAPIKey), nil
	case "binance":
		return NewBinance(cfg.BinanceBaseURL), nil
	case "alpaca":
		return NewAlpaca(cfg.AlpacaAPIKey, cfg.AlpacaAPISecret), nil
	default:
		return nil, fmt.Errorf("unknown market data provider %q", cfg.Provider)
	}
}
