package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	OutcomeWin     = "WIN"
	OutcomeLoss    = "LOSS"
	OutcomePending = "PENDING"
)

func ValidOutcome(s string) bool {
	return s == OutcomeWin || s == OutcomeLoss || s == OutcomePending
}

// Signal is a persisted trading call.
type Signal struct {
	ID                  uuid.UUID           `json:"id"`
	ChannelID           uuid.UUID           `json:"channel_id"`
	TemplateID          uuid.UUID           `json:"template_id"`
	UserID              string              `json:"user_id"`
	OriginalMessageID   *int64              `json:"original_message_id"`
	OriginalMessageText string              `json:"original_message_text"`
	Symbol              string              `json:"symbol"`
	EntryPrice          decimal.Decimal     `json:"entry_price"`
	TakeProfits         []TakeProfit        `json:"take_profits"`
	StopLoss            *StopLoss           `json:"stop_loss"`
	SignalType          SignalType          `json:"signal_type"`
	Timeframe           *string             `json:"timeframe"`
	ConfidenceScore     decimal.Decimal     `json:"confidence_score"`
	ExtractionMetadata  map[string]Value    `json:"extraction_metadata"`
	UserNotes           *string             `json:"user_notes"`
	PerformanceOutcome  string              `json:"performance_outcome"`
	ClosePrice          decimal.NullDecimal `json:"close_price"`
	PnL                 decimal.NullDecimal `json:"pnl"`
	PnLPercent          decimal.NullDecimal `json:"pnl_percent"`
	ClosedAt            *time.Time          `json:"closed_at"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// SignalFilter narrows channel listings. Limit 0 means no limit.
type SignalFilter struct {
	Symbol             string
	SignalType         string
	PerformanceOutcome string
	Limit              int
	Offset             int
}

// SignalRepository persists signals.
type SignalRepository interface {
	Create(ctx context.Context, signal *Signal) error
	GetByID(ctx context.Context, id uuid.UUID) (*Signal, error)
	ListByChannel(ctx context.Context, channelID uuid.UUID, filter SignalFilter) ([]*Signal, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Signal, error)
	Update(ctx context.Context, signal *Signal) error
	Delete(ctx context.Context, id uuid.UUID) error
}
