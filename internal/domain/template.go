package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Template is a versioned extraction rule set scoped to one channel.
type Template struct {
	ID                    uuid.UUID        `json:"id"`
	ChannelID             uuid.UUID        `json:"channel_id"`
	Version               int              `json:"version"`
	Config                ExtractionConfig `json:"extraction_config"`
	TestMessage           *string          `json:"test_message"`
	IsActive              bool             `json:"is_active"`
	ExtractionAttempts    int              `json:"extraction_attempts"`
	ExtractionSuccesses   int              `json:"extraction_successes"`
	ExtractionSuccessRate int              `json:"extraction_success_rate"`
	LastUsedAt            *time.Time       `json:"last_used_at"`
	CreatedBy             uuid.UUID        `json:"created_by"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// RecordAttempt folds one extraction outcome into the usage counters.
func (t *Template) RecordAttempt(success bool, at time.Time) {
	t.ExtractionAttempts++
	if success {
		t.ExtractionSuccesses++
		t.LastUsedAt = &at
	}
	t.ExtractionSuccessRate = t.ExtractionSuccesses * 100 / t.ExtractionAttempts
}

// ExtractionHistory is the audit row written for every template tried on a message.
type ExtractionHistory struct {
	ID              uuid.UUID        `json:"id"`
	TemplateID      uuid.UUID        `json:"template_id"`
	WasSuccessful   bool             `json:"was_successful"`
	ErrorMessage    *string          `json:"error_message"`
	ExtractedData   map[string]Value `json:"extracted_data"`
	OriginalMessage string           `json:"original_message"`
	CreatedAt       time.Time        `json:"created_at"`
}

// TemplateRepository persists templates and their extraction history.
type TemplateRepository interface {
	Create(ctx context.Context, template *Template) error
	GetByID(ctx context.Context, id uuid.UUID) (*Template, error)
	// ListByChannel returns templates newest first.
	ListByChannel(ctx context.Context, channelID uuid.UUID, activeOnly bool) ([]*Template, error)
	Update(ctx context.Context, template *Template) error
	Delete(ctx context.Context, id uuid.UUID) error
	// RecordExtraction stores the history row and applies it to the template counters.
	RecordExtraction(ctx context.Context, history *ExtractionHistory) error
	ListHistory(ctx context.Context, templateID uuid.UUID, limit int) ([]*ExtractionHistory, error)
}
