package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"signal-backend/internal/domain"
)

type ChannelInput struct {
	Name              string     `json:"name"`
	TelegramChannelID string     `json:"telegram_channel_id"`
	AccountID         *uuid.UUID `json:"account_id"`
	Status            string     `json:"status"`
	ConnectionStatus  string     `json:"connection_status"`
}

// ChannelUpdate carries optional channel changes. Nil fields are left untouched.
type ChannelUpdate struct {
	Name              *string    `json:"name"`
	TelegramChannelID *string    `json:"telegram_channel_id"`
	AccountID         *uuid.UUID `json:"account_id"`
	Status            *string    `json:"status"`
	ConnectionStatus  *string    `json:"connection_status"`
	ConnectionError   *string    `json:"connection_error"`
}

type ChannelService struct {
	channels domain.ChannelRepository
	accounts domain.AccountRepository
	log      zerolog.Logger
	now      func() time.Time
}

func NewChannelService(channels domain.ChannelRepository, accounts domain.AccountRepository, log zerolog.Logger) *ChannelService {
	return &ChannelService{
		channels: channels,
		accounts: accounts,
		log:      log.With().Str("component", "channels").Logger(),
		now:      time.Now,
	}
}

func (s *ChannelService) Create(ctx context.Context, in ChannelInput) (*domain.Channel, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", "is required")
	}
	telegramID := strings.TrimSpace(in.TelegramChannelID)
	if telegramID == "" {
		return nil, domain.NewValidationError("telegram_channel_id", "is required")
	}
	status := in.Status
	if status == "" {
		status = domain.ChannelActive
	}
	if !domain.ValidChannelStatus(status) {
		return nil, domain.NewValidationError("status", "must be ACTIVE, INACTIVE or ORPHAN")
	}
	connStatus := in.ConnectionStatus
	if connStatus == "" {
		connStatus = "disconnected"
	}
	if in.AccountID != nil {
		if _, err := s.accounts.GetByID(ctx, *in.AccountID); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	ch := &domain.Channel{
		ID:                domain.NewID(),
		AccountID:         in.AccountID,
		Name:              name,
		TelegramChannelID: telegramID,
		Status:            status,
		ConnectionStatus:  connStatus,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.channels.Create(ctx, ch); err != nil {
		return nil, err
	}
	s.log.Info().Str("channel_id", ch.ID.String()).Str("telegram_channel_id", telegramID).Msg("channel created")
	return ch, nil
}

func (s *ChannelService) Get(ctx context.Context, id uuid.UUID) (*domain.Channel, error) {
	return s.channels.GetByID(ctx, id)
}

// ListForAccount returns the account's channels, optionally narrowed to one status.
func (s *ChannelService) ListForAccount(ctx context.Context, accountID uuid.UUID, status string) ([]*domain.Channel, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if status != "" && !domain.ValidChannelStatus(status) {
		return nil, domain.NewValidationError("status", "must be ACTIVE, INACTIVE or ORPHAN")
	}
	return s.channels.List(ctx, domain.ChannelFilter{Status: status, AccountID: &accountID})
}

func (s *ChannelService) ListOrphaned(ctx context.Context) ([]*domain.Channel, error) {
	return s.channels.List(ctx, domain.ChannelFilter{Status: domain.ChannelOrphan})
}

func (s *ChannelService) Update(ctx context.Context, id uuid.UUID, in ChannelUpdate) (*domain.Channel, error) {
	ch, err := s.channels.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.NewValidationError("name", "cannot be empty")
		}
		ch.Name = name
	}
	if in.TelegramChannelID != nil {
		tid := strings.TrimSpace(*in.TelegramChannelID)
		if tid == "" {
			return nil, domain.NewValidationError("telegram_channel_id", "cannot be empty")
		}
		ch.TelegramChannelID = tid
	}
	if in.Status != nil {
		if !domain.ValidChannelStatus(*in.Status) {
			return nil, domain.NewValidationError("status", "must be ACTIVE, INACTIVE or ORPHAN")
		}
		ch.Status = *in.Status
	}
	if in.ConnectionStatus != nil {
		ch.ConnectionStatus = *in.ConnectionStatus
	}
	if in.ConnectionError != nil {
		ch.ConnectionError = in.ConnectionError
	}
	if in.AccountID != nil {
		if _, err := s.accounts.GetByID(ctx, *in.AccountID); err != nil {
			return nil, err
		}
		ch.AccountID = in.AccountID
		if ch.Status == domain.ChannelOrphan {
			ch.Status = domain.ChannelActive
		}
	}
	ch.UpdatedAt = s.now().UTC()
	if err := s.channels.Update(ctx, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// Reassign hands an orphaned channel to a new owner and re-activates it.
func (s *ChannelService) Reassign(ctx context.Context, id, accountID uuid.UUID) (*domain.Channel, error) {
	ch, err := s.channels.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ch.Status != domain.ChannelOrphan {
		return nil, domain.NewValidationError("status", "only orphaned channels can be reassigned")
	}
	return s.Update(ctx, id, ChannelUpdate{AccountID: &accountID})
}

func (s *ChannelService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.channels.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("channel_id", id.String()).Msg("channel deleted")
	return nil
}
