package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Quote is the latest price for a symbol with the move since the previous close.
type Quote struct {
	Symbol        string           `json:"symbol"`
	Price         decimal.Decimal  `json:"price"`
	Change        decimal.Decimal  `json:"change"`
	ChangePercent decimal.Decimal  `json:"change_percent"`
	PreviousClose *decimal.Decimal `json:"previous_close,omitempty"`
	Timestamp     *int64           `json:"timestamp,omitempty"`
	Source        string           `json:"source"`
}

// WithPreviousClose fills the change fields from prev. A non-positive prev leaves them at zero.
func (q *Quote) WithPreviousClose(prev decimal.Decimal) *Quote {
	q.PreviousClose = &prev
	if !prev.IsPositive() {
		return q
	}
	q.Change = q.Price.Sub(prev)
	q.ChangePercent = q.Change.Div(prev).Mul(decimal.NewFromInt(100)).Round(2)
	return q
}

// PriceProvider fetches quotes from an external market data source.
type PriceProvider interface {
	Name() string
	Quote(ctx context.Context, symbol string) (*Quote, error)
}
