package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"signal-backend/internal/domain"
	"signal-backend/internal/infrastructure/auth"
)

const (
	minPasswordLength = 8
	resetTokenTTL     = time.Hour
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Mailer delivers account emails.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, username, token string) error
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Account     *domain.Account `json:"account"`
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   int64           `json:"expires_in"`
}

type RegisterInput struct {
	Username string  `json:"username"`
	Email    *string `json:"email"`
	Password string  `json:"password"`
}

// AccountUpdate carries optional profile changes. Nil fields are left untouched.
type AccountUpdate struct {
	Username          *string `json:"username"`
	Email             *string `json:"email"`
	TelegramConnected *bool   `json:"telegram_connected"`
	MT5Connected      *bool   `json:"mt5_connected"`
}

type RiskUpdate struct {
	AccountBalance *decimal.Decimal `json:"account_balance"`
	RiskPerTrade   *decimal.Decimal `json:"risk_per_trade"`
	MaxDrawdown    *decimal.Decimal `json:"max_drawdown"`
}

type AccountService struct {
	accounts domain.AccountRepository
	channels domain.ChannelRepository
	tokens   *auth.Tokens
	mailer   Mailer
	log      zerolog.Logger
	now      func() time.Time
}

func NewAccountService(accounts domain.AccountRepository, channels domain.ChannelRepository, tokens *auth.Tokens, mailer Mailer, log zerolog.Logger) *AccountService {
	return &AccountService{
		accounts: accounts,
		channels: channels,
		tokens:   tokens,
		mailer:   mailer,
		log:      log.With().Str("component", "accounts").Logger(),
		now:      time.Now,
	}
}

func validateUsername(username string) error {
	if username == "" {
		return domain.NewValidationError("username", "cannot be empty")
	}
	if !usernamePattern.MatchString(username) {
		return domain.NewValidationError("username", "can only contain letters, numbers, and underscores")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return domain.NewValidationError("password", "must be at least %d characters long", minPasswordLength)
	}
	return nil
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	e := strings.TrimSpace(*email)
	if e == "" {
		return nil
	}
	return &e
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	username := strings.TrimSpace(in.Username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	email := normalizeEmail(in.Email)
	if email != nil && !strings.Contains(*email, "@") {
		return nil, domain.NewValidationError("email", "is not a valid address")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	account := &domain.Account{
		ID:             domain.NewID(),
		Username:       username,
		Email:          email,
		PasswordHash:   hash,
		AccountBalance: decimal.Zero,
		RiskPerTrade:   decimal.Zero,
		MaxDrawdown:    decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.NewValidationError("username", "username or email already exists")
		}
		return nil, err
	}
	s.log.Info().Str("account_id", account.ID.String()).Str("username", username).Msg("account registered")
	return s.issue(account)
}

func (s *AccountService) issue(account *domain.Account) (*AuthResult, error) {
	token, err := s.tokens.Issue(account.ID, account.Username)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		Account:     account,
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokens.Expiry().Seconds()),
	}, nil
}

func (s *AccountService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	invalid := domain.NewValidationError("", "invalid username or password")
	account, err := s.accounts.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}
	ok, err := auth.CheckPassword(account.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalid
	}
	return s.issue(account)
}

func (s *AccountService) Get(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.accounts.GetByID(ctx, id)
}

func (s *AccountService) List(ctx context.Context) ([]*domain.Account, error) {
	return s.accounts.List(ctx)
}

func (s *AccountService) Update(ctx context.Context, id uuid.UUID, in AccountUpdate) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if err := validateUsername(username); err != nil {
			return nil, err
		}
		account.Username = username
	}
	if in.Email != nil {
		account.Email = normalizeEmail(in.Email)
	}
	if in.TelegramConnected != nil {
		account.TelegramConnected = *in.TelegramConnected
	}
	if in.MT5Connected != nil {
		account.MT5Connected = *in.MT5Connected
	}
	account.UpdatedAt = s.now().UTC()
	if err := s.accounts.Update(ctx, account); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.NewValidationError("username", "username or email already exists")
		}
		return nil, err
	}
	return account, nil
}

// Delete removes the account and leaves its channels behind as orphans.
func (s *AccountService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.accounts.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.channels.OrphanByAccount(ctx, id, s.now().UTC()); err != nil {
		return err
	}
	if err := s.accounts.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("account_id", id.String()).Msg("account deleted, channels orphaned")
	return nil
}

// RequestPasswordReset never reveals whether the email is registered.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.NewValidationError("email", "is required")
	}
	account, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		s.log.Debug().Msg("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	token, err := auth.NewResetToken()
	if err != nil {
		return err
	}
	expires := s.now().UTC().Add(resetTokenTTL)
	account.ResetToken = &token
	account.ResetTokenExpiresAt = &expires
	account.UpdatedAt = s.now().UTC()
	if err := s.accounts.Update(ctx, account); err != nil {
		return err
	}
	if err := s.mailer.SendPasswordReset(ctx, *account.Email, account.Username, token); err != nil {
		s.log.Error().Err(err).Str("account_id", account.ID.String()).Msg("failed to send reset email")
	}
	return nil
}

func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return domain.NewValidationError("token", "is required")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	account, err := s.accounts.GetByResetToken(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewValidationError("token", "invalid or expired reset token")
	}
	if err != nil {
		return err
	}
	if account.ResetTokenExpiresAt == nil || s.now().After(*account.ResetTokenExpiresAt) {
		return domain.NewValidationError("token", "invalid or expired reset token")
	}
	return s.setPassword(ctx, account, newPassword)
}

func (s *AccountService) ChangePassword(ctx context.Context, id uuid.UUID, current, newPassword string) error {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	ok, err := auth.CheckPassword(account.PasswordHash, current)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NewValidationError("current_password", "is incorrect")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	return s.setPassword(ctx, account, newPassword)
}

func (s *AccountService) setPassword(ctx context.Context, account *domain.Account, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	account.PasswordHash = hash
	account.ResetToken = nil
	account.ResetTokenExpiresAt = nil
	account.UpdatedAt = s.now().UTC()
	return s.accounts.Update(ctx, account)
}

func (s *AccountService) RiskSettings(ctx context.Context, id uuid.UUID) (domain.RiskSettings, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return domain.RiskSettings{}, err
	}
	return account.RiskSettings(), nil
}

var hundred = decimal.NewFromInt(100)

func percentInRange(field string, v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(hundred) {
		return domain.NewValidationError(field, "must be between 0 and 100")
	}
	return nil
}

func (s *AccountService) UpdateRiskSettings(ctx context.Context, id uuid.UUID, in RiskUpdate) (domain.RiskSettings, error) {
	if in.AccountBalance == nil && in.RiskPerTrade == nil && in.MaxDrawdown == nil {
		return domain.RiskSettings{}, domain.NewValidationError("", "at least one field must be provided for update")
	}
	if in.AccountBalance != nil && in.AccountBalance.IsNegative() {
		return domain.RiskSettings{}, domain.NewValidationError("account_balance", "cannot be negative")
	}
	if in.RiskPerTrade != nil {
		if err := percentInRange("risk_per_trade", *in.RiskPerTrade); err != nil {
			return domain.RiskSettings{}, err
		}
	}
	if in.MaxDrawdown != nil {
		if err := percentInRange("max_drawdown", *in.MaxDrawdown); err != nil {
			return domain.RiskSettings{}, err
		}
	}

	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return domain.RiskSettings{}, err
	}
	if in.AccountBalance != nil {
		account.AccountBalance = *in.AccountBalance
	}
	if in.RiskPerTrade != nil {
		account.RiskPerTrade = *in.RiskPerTrade
	}
	if in.MaxDrawdown != nil {
		account.MaxDrawdown = *in.MaxDrawdown
	}
	account.UpdatedAt = s.now().UTC()
	if err := s.accounts.Update(ctx, account); err != nil {
		return domain.RiskSettings{}, err
	}
	return account.RiskSettings(), nil
}
