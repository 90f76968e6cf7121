package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"signal-backend/internal/domain"
)

var (
	ErrPushDisabled = errors.New("push notifications are not configured")
	ErrNoDevices    = errors.New("no registered devices")
)

// PushSender delivers a notification to a set of device tokens.
type PushSender interface {
	IsEnabled() bool
	SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) (int, error)
}

type NotificationService struct {
	tokens   domain.TokenRepository
	push     PushSender
	cooldown time.Duration
	log      zerolog.Logger
	now      func() time.Time

	mu       sync.Mutex
	notified map[string]time.Time
}

func NewNotificationService(tokens domain.TokenRepository, push PushSender, cooldown time.Duration, log zerolog.Logger) *NotificationService {
	return &NotificationService{
		tokens:   tokens,
		push:     push,
		cooldown: cooldown,
		log:      log.With().Str("component", "notifications").Logger(),
		now:      time.Now,
		notified: make(map[string]time.Time),
	}
}

func (s *NotificationService) enabled() bool {
	return s.push != nil && s.push.IsEnabled()
}

// RegisterDevice stores a device token for the account and returns the total number of devices.
func (s *NotificationService) RegisterDevice(ctx context.Context, accountID uuid.UUID, token, platform string) (int, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, domain.NewValidationError("token", "is required")
	}
	platform = strings.ToLower(strings.TrimSpace(platform))
	if platform == "" {
		platform = "android"
	}
	if platform != "android" && platform != "ios" {
		return 0, domain.NewValidationError("platform", "must be android or ios")
	}
	err := s.tokens.Register(ctx, &domain.DeviceToken{
		Token:     token,
		AccountID: accountID,
		Platform:  platform,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return 0, err
	}
	return s.tokens.Count(ctx)
}

func (s *NotificationService) UnregisterDevice(ctx context.Context, token string) (int, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, domain.NewValidationError("token", "is required")
	}
	if err := s.tokens.Unregister(ctx, token); err != nil {
		return 0, err
	}
	return s.tokens.Count(ctx)
}

func (s *NotificationService) DeviceCount(ctx context.Context) (int, error) {
	return s.tokens.Count(ctx)
}

// NotifySignal pushes a new signal to the devices of the channel owner. Repeats for the
// same channel and symbol inside the cooldown window are dropped.
func (s *NotificationService) NotifySignal(ctx context.Context, ch *domain.Channel, sig *domain.Signal) {
	if !s.enabled() || ch.AccountID == nil {
		return
	}
	key := ch.ID.String() + ":" + sig.Symbol
	now := s.now()

	s.mu.Lock()
	last, seen := s.notified[key]
	if seen && now.Sub(last) < s.cooldown {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	tokens, err := s.tokens.ListByAccount(ctx, *ch.AccountID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load device tokens")
		return
	}
	if len(tokens) == 0 {
		return
	}

	title := fmt.Sprintf("%s %s", sig.SignalType, sig.Symbol)
	body := fmt.Sprintf("%s | Entry: %s", ch.Name, sig.EntryPrice.String())
	if sig.StopLoss != nil {
		body += " | SL: " + sig.StopLoss.Price.String()
	}
	if len(sig.TakeProfits) > 0 {
		body += " | " + sig.TakeProfits[0].Level + ": " + sig.TakeProfits[0].Price.String()
	}
	data := map[string]string{
		"type":       "signal",
		"signal_id":  sig.ID.String(),
		"channel_id": ch.ID.String(),
		"symbol":     sig.Symbol,
		"direction":  string(sig.SignalType),
		"entry":      sig.EntryPrice.String(),
	}

	failed, err := s.push.SendMulticast(ctx, tokens, title, body, data)
	if err != nil {
		s.log.Error().Err(err).Str("symbol", sig.Symbol).Msg("error sending signal notification")
		return
	}
	s.log.Info().Str("symbol", sig.Symbol).Int("devices", len(tokens)).Int("failed", failed).Msg("sent signal notification")

	s.mu.Lock()
	s.notified[key] = now
	for k, t := range s.notified {
		if now.Sub(t) > 2*s.cooldown {
			delete(s.notified, k)
		}
	}
	s.mu.Unlock()
}

// SendTest sends a test notification to every device of the account and returns the device count.
func (s *NotificationService) SendTest(ctx context.Context, accountID uuid.UUID) (int, error) {
	if !s.enabled() {
		return 0, ErrPushDisabled
	}
	tokens, err := s.tokens.ListByAccount(ctx, accountID)
	if err != nil {
		return 0, err
	}
	if len(tokens) == 0 {
		return 0, ErrNoDevices
	}
	data := map[string]string{
		"type":      "test",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	}
	if _, err := s.push.SendMulticast(ctx, tokens, "Test Notification", "Notifications are working.", data); err != nil {
		return len(tokens), fmt.Errorf("send test notification: %w", err)
	}
	return len(tokens), nil
}
