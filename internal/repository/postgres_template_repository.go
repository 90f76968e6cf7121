package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"signal-backend/internal/domain"
)

type PostgresTemplateRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresTemplateRepository(pool *pgxpool.Pool) *PostgresTemplateRepository {
	return &PostgresTemplateRepository{pool: pool}
}

const templateColumns = `id, channel_id, version, extraction_config, test_message, is_active,
	extraction_attempts, extraction_successes, extraction_success_rate, last_used_at,
	created_by, created_at, updated_at`

func (r *PostgresTemplateRepository) Create(ctx context.Context, t *domain.Template) error {
	if t == nil {
		return errors.New("nil template")
	}
	cfg, err := json.Marshal(t.Config)
	if err != nil {
		return fmt.Errorf("encode extraction config: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		insert into extraction_templates(`+templateColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		t.ID, t.ChannelID, t.Version, cfg, nullableText(t.TestMessage), t.IsActive,
		t.ExtractionAttempts, t.ExtractionSuccesses, t.ExtractionSuccessRate, nullableTime(t.LastUsedAt),
		t.CreatedBy, t.CreatedAt, t.UpdatedAt,
	)
	return mapError(err, domain.NotFound("template"), domain.ErrConflict)
}

func (r *PostgresTemplateRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Template, error) {
	row := r.pool.QueryRow(ctx, `select `+templateColumns+` from extraction_templates where id=$1`, id)
	t, err := scanTemplate(row)
	if err != nil {
		return nil, mapError(err, domain.NotFound("template"), domain.ErrConflict)
	}
	return t, nil
}

func (r *PostgresTemplateRepository) ListByChannel(ctx context.Context, channelID uuid.UUID, activeOnly bool) ([]*domain.Template, error) {
	rows, err := r.pool.Query(ctx, `
		select `+templateColumns+`
		from extraction_templates
		where channel_id = $1 and ($2 = false or is_active)
		order by created_at desc, id desc
	`, channelID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.Template, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PostgresTemplateRepository) Update(ctx context.Context, t *domain.Template) error {
	if t == nil {
		return errors.New("nil template")
	}
	cfg, err := json.Marshal(t.Config)
	if err != nil {
		return fmt.Errorf("encode extraction config: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `
		update extraction_templates set
			version=$2,
			extraction_config=$3,
			test_message=$4,
			is_active=$5,
			updated_at=$6
		where id=$1
	`, t.ID, t.Version, cfg, nullableText(t.TestMessage), t.IsActive, t.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("template")
	}
	return nil
}

func (r *PostgresTemplateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `delete from extraction_templates where id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("template")
	}
	return nil
}

// RecordExtraction writes the history row and bumps the counters in one transaction.
func (r *PostgresTemplateRepository) RecordExtraction(ctx context.Context, h *domain.ExtractionHistory) error {
	data, err := jsonb(h.ExtractedData)
	if err != nil {
		return fmt.Errorf("encode extracted data: %w", err)
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			update extraction_templates set
				extraction_attempts = extraction_attempts + 1,
				extraction_successes = extraction_successes + case when $2 then 1 else 0 end,
				extraction_success_rate = ((extraction_successes + case when $2 then 1 else 0 end) * 100) / (extraction_attempts + 1),
				last_used_at = case when $2 then $3 else last_used_at end
			where id = $1
		`, h.TemplateID, h.WasSuccessful, h.CreatedAt)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.NotFound("template")
		}
		_, err = tx.Exec(ctx, `
			insert into extraction_history(id, template_id, was_successful, error_message, extracted_data, original_message, created_at)
			values ($1,$2,$3,$4,$5,$6,$7)
		`, h.ID, h.TemplateID, h.WasSuccessful, nullableText(h.ErrorMessage), data, h.OriginalMessage, h.CreatedAt)
		return err
	})
}

func (r *PostgresTemplateRepository) ListHistory(ctx context.Context, templateID uuid.UUID, limit int) ([]*domain.ExtractionHistory, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		select id, template_id, was_successful, error_message, extracted_data, original_message, created_at
		from extraction_history
		where template_id = $1
		order by created_at desc
		limit $2
	`, templateID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.ExtractionHistory, 0)
	for rows.Next() {
		var h domain.ExtractionHistory
		var errMsg pgtype.Text
		var data []byte
		if err := rows.Scan(&h.ID, &h.TemplateID, &h.WasSuccessful, &errMsg, &data, &h.OriginalMessage, &h.CreatedAt); err != nil {
			return nil, err
		}
		h.ErrorMessage = textPtr(errMsg)
		if len(data) > 0 {
			if err := json.Unmarshal(data, &h.ExtractedData); err != nil {
				return nil, fmt.Errorf("decode extracted data: %w", err)
			}
		}
		out = append(out, &h)
	}
	return out, rows.Err()
}

func scanTemplate(s scanner) (*domain.Template, error) {
	var t domain.Template
	var cfg []byte
	var testMessage pgtype.Text
	var lastUsed pgtype.Timestamptz

	err := s.Scan(
		&t.ID, &t.ChannelID, &t.Version, &cfg, &testMessage, &t.IsActive,
		&t.ExtractionAttempts, &t.ExtractionSuccesses, &t.ExtractionSuccessRate, &lastUsed,
		&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(cfg, &t.Config); err != nil {
		return nil, fmt.Errorf("decode extraction config: %w", err)
	}
	t.TestMessage = textPtr(testMessage)
	t.LastUsedAt = timePtr(lastUsed)
	return &t, nil
}

var _ domain.TemplateRepository = (*PostgresTemplateRepository)(nil)
