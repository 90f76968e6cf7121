package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"signal-backend/internal/domain"
	"signal-backend/internal/extraction"
	"signal-backend/internal/infrastructure/metrics"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// SignalPublisher pushes new signals to live subscribers.
type SignalPublisher interface {
	Publish(channel *domain.Channel, signal *domain.Signal)
}

// SignalNotifier sends push notifications for new signals.
type SignalNotifier interface {
	NotifySignal(ctx context.Context, channel *domain.Channel, signal *domain.Signal)
}

type CreateSignalInput struct {
	ChannelID           uuid.UUID `json:"channel_id"`
	OriginalMessageText string    `json:"original_message_text"`
	OriginalMessageID   *int64    `json:"original_message_id"`
}

// SignalUpdate carries the user-editable fields of a signal. Nil fields are left untouched.
type SignalUpdate struct {
	UserNotes          *string          `json:"user_notes"`
	PerformanceOutcome *string          `json:"performance_outcome"`
	ClosePrice         *decimal.Decimal `json:"close_price"`
	PnL                *decimal.Decimal `json:"pnl"`
	PnLPercent         *decimal.Decimal `json:"pnl_percent"`
	ClosedAt           *time.Time       `json:"closed_at"`
}

type SignalService struct {
	signals   domain.SignalRepository
	channels  domain.ChannelRepository
	templates domain.TemplateRepository
	engine    *extraction.Engine
	publisher SignalPublisher
	notifier  SignalNotifier
	notes     *bluemonday.Policy
	log       zerolog.Logger
	now       func() time.Time
}

func NewSignalService(
	signals domain.SignalRepository,
	channels domain.ChannelRepository,
	templates domain.TemplateRepository,
	engine *extraction.Engine,
	publisher SignalPublisher,
	notifier SignalNotifier,
	log zerolog.Logger,
) *SignalService {
	return &SignalService{
		signals:   signals,
		channels:  channels,
		templates: templates,
		engine:    engine,
		publisher: publisher,
		notifier:  notifier,
		notes:     bluemonday.StrictPolicy(),
		log:       log.With().Str("component", "signals").Logger(),
		now:       time.Now,
	}
}

// Create extracts a signal from a channel message with the channel's active templates
// and stores it. Every template tried is recorded in its extraction history.
func (s *SignalService) Create(ctx context.Context, userID string, in CreateSignalInput) (*domain.Signal, error) {
	if strings.TrimSpace(in.OriginalMessageText) == "" {
		return nil, domain.NewValidationError("original_message_text", "cannot be empty")
	}
	ch, err := s.channels.GetByID(ctx, in.ChannelID)
	if err != nil {
		return nil, err
	}
	templates, err := s.templates.ListByChannel(ctx, ch.ID, true)
	if err != nil {
		return nil, err
	}

	res, err := s.engine.Resolve(templates, in.OriginalMessageText)
	var nm *extraction.NoMatchError
	if errors.As(err, &nm) {
		s.recordFailures(ctx, nm.Failures, in.OriginalMessageText)
		s.log.Warn().Str("channel_id", ch.ID.String()).Int("templates", len(templates)).Msg("no template matched message")
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	s.recordFailures(ctx, res.Failures, in.OriginalMessageText)

	now := s.now().UTC()
	ex := res.Signal
	sig := &domain.Signal{
		ID:                  domain.NewID(),
		ChannelID:           ch.ID,
		TemplateID:          res.Template.ID,
		UserID:              userID,
		OriginalMessageID:   in.OriginalMessageID,
		OriginalMessageText: in.OriginalMessageText,
		Symbol:              ex.Symbol,
		EntryPrice:          ex.EntryPrice,
		TakeProfits:         ex.TakeProfits,
		StopLoss:            ex.StopLoss,
		SignalType:          ex.SignalType,
		Timeframe:           ex.Timeframe,
		ConfidenceScore:     decimal.NewFromInt(1),
		ExtractionMetadata:  ex.RawExtraction,
		PerformanceOutcome:  domain.OutcomePending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.signals.Create(ctx, sig); err != nil {
		return nil, err
	}
	if err := s.channels.AddSignals(ctx, ch.ID, 1, now); err != nil {
		s.log.Error().Err(err).Str("channel_id", ch.ID.String()).Msg("failed to update channel counters")
	}
	s.recordHistory(ctx, res.Template.ID, true, nil, ex.RawExtraction, in.OriginalMessageText)
	metrics.SignalsCreatedTotal.Inc()

	s.log.Info().
		Str("signal_id", sig.ID.String()).
		Str("template_id", res.Template.ID.String()).
		Str("symbol", sig.Symbol).
		Str("type", string(sig.SignalType)).
		Msg("signal extracted")

	if s.publisher != nil {
		s.publisher.Publish(ch, sig)
	}
	if s.notifier != nil {
		s.notifier.NotifySignal(ctx, ch, sig)
	}
	return sig, nil
}

func (s *SignalService) recordFailures(ctx context.Context, failures []extraction.TemplateFailure, message string) {
	for _, f := range failures {
		reason := f.Reason
		s.recordHistory(ctx, f.TemplateID, false, &reason, nil, message)
	}
}

func (s *SignalService) recordHistory(ctx context.Context, templateID uuid.UUID, ok bool, reason *string, data map[string]domain.Value, message string) {
	h := &domain.ExtractionHistory{
		ID:              domain.NewID(),
		TemplateID:      templateID,
		WasSuccessful:   ok,
		ErrorMessage:    reason,
		ExtractedData:   data,
		OriginalMessage: message,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.templates.RecordExtraction(ctx, h); err != nil {
		s.log.Error().Err(err).Str("template_id", templateID.String()).Msg("failed to record extraction history")
	}
}

func (s *SignalService) Get(ctx context.Context, id uuid.UUID) (*domain.Signal, error) {
	return s.signals.GetByID(ctx, id)
}

func pageSize(limit int) int {
	switch {
	case limit <= 0:
		return defaultPageSize
	case limit > maxPageSize:
		return maxPageSize
	default:
		return limit
	}
}

func (s *SignalService) ListByChannel(ctx context.Context, channelID uuid.UUID, f domain.SignalFilter) ([]*domain.Signal, error) {
	if _, err := s.channels.GetByID(ctx, channelID); err != nil {
		return nil, err
	}
	if f.Offset < 0 {
		return nil, domain.NewValidationError("offset", "cannot be negative")
	}
	if f.PerformanceOutcome != "" && !domain.ValidOutcome(strings.ToUpper(f.PerformanceOutcome)) {
		return nil, domain.NewValidationError("performance_outcome", "must be one of WIN, LOSS, PENDING")
	}
	f.Limit = pageSize(f.Limit)
	return s.signals.ListByChannel(ctx, channelID, f)
}

func (s *SignalService) ListForUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Signal, error) {
	if offset < 0 {
		return nil, domain.NewValidationError("offset", "cannot be negative")
	}
	return s.signals.ListByUser(ctx, userID, pageSize(limit), offset)
}

func (s *SignalService) Update(ctx context.Context, id uuid.UUID, in SignalUpdate) (*domain.Signal, error) {
	sig, err := s.signals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.UserNotes != nil {
		notes := strings.TrimSpace(s.notes.Sanitize(*in.UserNotes))
		sig.UserNotes = &notes
	}
	if in.PerformanceOutcome != nil {
		outcome := strings.ToUpper(strings.TrimSpace(*in.PerformanceOutcome))
		if !domain.ValidOutcome(outcome) {
			return nil, domain.NewValidationError("performance_outcome", "must be one of WIN, LOSS, PENDING")
		}
		sig.PerformanceOutcome = outcome
	}
	if in.ClosePrice != nil {
		sig.ClosePrice = decimal.NewNullDecimal(*in.ClosePrice)
	}
	if in.PnL != nil {
		sig.PnL = decimal.NewNullDecimal(*in.PnL)
	}
	if in.PnLPercent != nil {
		sig.PnLPercent = decimal.NewNullDecimal(*in.PnLPercent)
	}
	if in.ClosedAt != nil {
		closed := in.ClosedAt.UTC()
		sig.ClosedAt = &closed
	}
	sig.UpdatedAt = s.now().UTC()
	if err := s.signals.Update(ctx, sig); err != nil {
		return nil, err
	}
	return sig, nil
}

func (s *SignalService) Delete(ctx context.Context, id uuid.UUID) error {
	sig, err := s.signals.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.signals.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.channels.AddSignals(ctx, sig.ChannelID, -1, s.now().UTC()); err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.log.Error().Err(err).Str("channel_id", sig.ChannelID.String()).Msg("failed to update channel counters")
	}
	return nil
}
