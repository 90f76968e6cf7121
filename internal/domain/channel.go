package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	ChannelActive   = "ACTIVE"
	ChannelInactive = "INACTIVE"
	ChannelOrphan   = "ORPHAN" // owning account was deleted
)

// Channel is a messaging channel whose posts are parsed into signals.
type Channel struct {
	ID                uuid.UUID  `json:"id"`
	AccountID         *uuid.UUID `json:"account_id"`
	Name              string     `json:"name"`
	TelegramChannelID string     `json:"telegram_channel_id"`
	Status            string     `json:"status"`
	ConnectionStatus  string     `json:"connection_status"`
	ConnectionError   *string    `json:"connection_error"`
	SignalCount       int        `json:"signal_count"`
	LastActiveAt      *time.Time `json:"last_active_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func ValidChannelStatus(s string) bool {
	return s == ChannelActive || s == ChannelInactive || s == ChannelOrphan
}

// ChannelFilter narrows List results. Zero values mean "any".
type ChannelFilter struct {
	Status    string
	AccountID *uuid.UUID
}

// ChannelRepository persists channels.
type ChannelRepository interface {
	Create(ctx context.Context, channel *Channel) error
	GetByID(ctx context.Context, id uuid.UUID) (*Channel, error)
	List(ctx context.Context, filter ChannelFilter) ([]*Channel, error)
	Update(ctx context.Context, channel *Channel) error
	Delete(ctx context.Context, id uuid.UUID) error
	// AddSignals adjusts signal_count by delta (never below zero) and stamps last_active_at when delta > 0.
	AddSignals(ctx context.Context, id uuid.UUID, delta int, at time.Time) error
	// OrphanByAccount detaches every channel of the account and marks it ORPHAN.
	OrphanByAccount(ctx context.Context, accountID uuid.UUID, at time.Time) error
}
