package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is a registered user of the tracker.
type Account struct {
	ID                  uuid.UUID       `json:"id"`
	Username            string          `json:"username"`
	Email               *string         `json:"email"`
	PasswordHash        string          `json:"-"`
	AccountBalance      decimal.Decimal `json:"account_balance"`
	RiskPerTrade        decimal.Decimal `json:"risk_per_trade"`
	MaxDrawdown         decimal.Decimal `json:"max_drawdown"`
	TelegramConnected   bool            `json:"telegram_connected"`
	MT5Connected        bool            `json:"mt5_connected"`
	ResetToken          *string         `json:"-"`
	ResetTokenExpiresAt *time.Time      `json:"-"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// RiskSettings is the trade-sizing subset of an account.
type RiskSettings struct {
	AccountBalance decimal.Decimal `json:"account_balance"`
	RiskPerTrade   decimal.Decimal `json:"risk_per_trade"`
	MaxDrawdown    decimal.Decimal `json:"max_drawdown"`
}

func (a *Account) RiskSettings() RiskSettings {
	return RiskSettings{
		AccountBalance: a.AccountBalance,
		RiskPerTrade:   a.RiskPerTrade,
		MaxDrawdown:    a.MaxDrawdown,
	}
}

// AccountRepository persists accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByResetToken(ctx context.Context, token string) (*Account, error)
	List(ctx context.Context) ([]*Account, error)
	Update(ctx context.Context, account *Account) error
	Delete(ctx context.Context, id uuid.UUID) error
}
