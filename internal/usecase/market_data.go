package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"signal-backend/internal/domain"
)

const maxQuoteSymbols = 20

// QuoteResult is one entry of a multi-symbol lookup. Exactly one of Quote and Error is set.
type QuoteResult struct {
	Symbol string        `json:"symbol"`
	Quote  *domain.Quote `json:"quote,omitempty"`
	Error  string        `json:"error,omitempty"`
}

type MarketDataService struct {
	provider domain.PriceProvider
	log      zerolog.Logger
}

func NewMarketDataService(provider domain.PriceProvider, log zerolog.Logger) *MarketDataService {
	return &MarketDataService{
		provider: provider,
		log:      log.With().Str("component", "market_data").Str("provider", provider.Name()).Logger(),
	}
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func (s *MarketDataService) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, domain.NewValidationError("symbol", "is required")
	}
	q, err := s.provider.Quote(ctx, symbol)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("quote lookup failed")
		return nil, err
	}
	return q, nil
}

// QuoteMany looks up each symbol in turn. A failing symbol does not fail the batch.
func (s *MarketDataService) QuoteMany(ctx context.Context, symbols []string) ([]QuoteResult, error) {
	seen := make(map[string]bool, len(symbols))
	var list []string
	for _, sym := range symbols {
		sym = normalizeSymbol(sym)
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		list = append(list, sym)
	}
	if len(list) == 0 {
		return nil, domain.NewValidationError("symbols", "at least one symbol is required")
	}
	if len(list) > maxQuoteSymbols {
		return nil, domain.NewValidationError("symbols", "at most %d symbols per request", maxQuoteSymbols)
	}

	results := make([]QuoteResult, 0, len(list))
	for _, sym := range list {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q, err := s.provider.Quote(ctx, sym)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", sym).Msg("quote lookup failed")
			results = append(results, QuoteResult{Symbol: sym, Error: err.Error()})
			continue
		}
		results = append(results, QuoteResult{Symbol: sym, Quote: q})
	}
	return results, nil
}
