package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DeviceToken is a push notification registration for one device.
type DeviceToken struct {
	Token     string    `json:"token"`
	AccountID uuid.UUID `json:"account_id"`
	Platform  string    `json:"platform"` // "android" or "ios"
	CreatedAt time.Time `json:"created_at"`
}

type TokenRepository interface {
	Register(ctx context.Context, token *DeviceToken) error
	Unregister(ctx context.Context, token string) error
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]string, error)
	Count(ctx context.Context) (int, error)
}
