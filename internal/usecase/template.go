package usecase

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"signal-backend/internal/domain"
	"signal-backend/internal/extraction"
)

type TemplateInput struct {
	ChannelID   uuid.UUID               `json:"channel_id"`
	Config      domain.ExtractionConfig `json:"extraction_config"`
	TestMessage *string                 `json:"test_message"`
	IsActive    *bool                   `json:"is_active"`
}

type TemplateUpdate struct {
	Config      *domain.ExtractionConfig `json:"extraction_config"`
	TestMessage *string                  `json:"test_message"`
	IsActive    *bool                    `json:"is_active"`
}

// TestResult reports what a template extracts from a message without persisting anything.
type TestResult struct {
	Success bool                    `json:"success"`
	Signal  *domain.ExtractedSignal `json:"signal,omitempty"`
	Fields  map[string]domain.Value `json:"fields"`
	Error   string                  `json:"error,omitempty"`
}

type TemplateService struct {
	templates domain.TemplateRepository
	channels  domain.ChannelRepository
	engine    *extraction.Engine
	log       zerolog.Logger
	now       func() time.Time
}

func NewTemplateService(templates domain.TemplateRepository, channels domain.ChannelRepository, engine *extraction.Engine, log zerolog.Logger) *TemplateService {
	return &TemplateService{
		templates: templates,
		channels:  channels,
		engine:    engine,
		log:       log.With().Str("component", "templates").Logger(),
		now:       time.Now,
	}
}

// ValidateConfig checks a rule set before it is stored.
func ValidateConfig(cfg domain.ExtractionConfig) error {
	if len(cfg.Fields) == 0 {
		return domain.NewValidationError("extraction_config", "must contain at least one field")
	}
	seen := make(map[string]bool, len(cfg.Fields))
	for i, f := range cfg.Fields {
		field := fmt.Sprintf("extraction_config.fields[%d]", i)
		if f.Name == "" || f.Key == "" || f.Type == "" || f.Method == "" {
			return domain.NewValidationError(field, "name, key, type and method are required")
		}
		switch f.Type {
		case domain.TypeString, domain.TypeNumber, domain.TypeArray:
		default:
			return domain.NewValidationError(field, "invalid type, must be 'string', 'number', or 'array'")
		}
		switch f.Method {
		case domain.MethodRegex:
			if f.Regex == "" {
				return domain.NewValidationError(field, "regex is required for the regex method")
			}
		case domain.MethodMarker:
			if f.StartMarker == "" {
				return domain.NewValidationError(field, "startMarker is required for the marker method")
			}
		default:
			return domain.NewValidationError(field, "invalid method, must be 'regex' or 'marker'")
		}
		if seen[f.Key] {
			return domain.NewValidationError(field, "duplicate key %q", f.Key)
		}
		seen[f.Key] = true
	}
	return nil
}

func (s *TemplateService) Create(ctx context.Context, createdBy uuid.UUID, in TemplateInput) (*domain.Template, error) {
	if _, err := s.channels.GetByID(ctx, in.ChannelID); err != nil {
		return nil, err
	}
	if err := ValidateConfig(in.Config); err != nil {
		return nil, err
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	now := s.now().UTC()
	t := &domain.Template{
		ID:          domain.NewID(),
		ChannelID:   in.ChannelID,
		Version:     1,
		Config:      in.Config,
		TestMessage: in.TestMessage,
		IsActive:    active,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.templates.Create(ctx, t); err != nil {
		return nil, err
	}
	s.log.Info().Str("template_id", t.ID.String()).Str("channel_id", t.ChannelID.String()).Int("fields", len(t.Config.Fields)).Msg("template created")
	return t, nil
}

func (s *TemplateService) Get(ctx context.Context, id uuid.UUID) (*domain.Template, error) {
	return s.templates.GetByID(ctx, id)
}

func (s *TemplateService) ListByChannel(ctx context.Context, channelID uuid.UUID, activeOnly bool) ([]*domain.Template, error) {
	if _, err := s.channels.GetByID(ctx, channelID); err != nil {
		return nil, err
	}
	return s.templates.ListByChannel(ctx, channelID, activeOnly)
}

// Update applies changes; any change to the rule set bumps the version.
func (s *TemplateService) Update(ctx context.Context, id uuid.UUID, in TemplateUpdate) (*domain.Template, error) {
	t, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Config != nil {
		if err := ValidateConfig(*in.Config); err != nil {
			return nil, err
		}
		if !reflect.DeepEqual(t.Config, *in.Config) {
			t.Config = *in.Config
			t.Version++
		}
	}
	if in.TestMessage != nil {
		t.TestMessage = in.TestMessage
	}
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
	t.UpdatedAt = s.now().UTC()
	if err := s.templates.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TemplateService) ToggleActive(ctx context.Context, id uuid.UUID) (*domain.Template, error) {
	t, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	active := !t.IsActive
	return s.Update(ctx, id, TemplateUpdate{IsActive: &active})
}

func (s *TemplateService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.templates.Delete(ctx, id)
}

// Test runs a stored template against message.
func (s *TemplateService) Test(ctx context.Context, id uuid.UUID, message string) (*TestResult, error) {
	t, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.TestConfig(t.Config, message)
}

// TestConfig runs an unsaved rule set against message.
func (s *TemplateService) TestConfig(cfg domain.ExtractionConfig, message string) (*TestResult, error) {
	if message == "" {
		return nil, domain.NewValidationError("message", "is required")
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	res := &TestResult{Fields: make(map[string]domain.Value)}
	for _, rule := range cfg.Fields {
		if v, ok, _ := s.engine.Evaluate(rule, message); ok {
			res.Fields[rule.Key] = v
		}
	}
	sig, err := s.engine.Extract(cfg, message)
	if err != nil {
		res.Error = err.Error()
		return res, nil
	}
	res.Success = true
	res.Signal = sig
	return res, nil
}

func (s *TemplateService) History(ctx context.Context, id uuid.UUID, limit int) ([]*domain.ExtractionHistory, error) {
	if _, err := s.templates.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.templates.ListHistory(ctx, id, limit)
}
