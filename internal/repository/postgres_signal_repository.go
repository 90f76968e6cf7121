package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"signal-backend/internal/domain"
)

type PostgresSignalRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresSignalRepository(pool *pgxpool.Pool) *PostgresSignalRepository {
	return &PostgresSignalRepository{pool: pool}
}

const signalColumns = `id, channel_id, template_id, user_id, original_message_id, original_message_text,
	symbol, entry_price, take_profits, stop_loss, signal_type, timeframe, confidence_score,
	extraction_metadata, user_notes, performance_outcome, close_price, pnl, pnl_percent, closed_at,
	created_at, updated_at`

func (r *PostgresSignalRepository) Create(ctx context.Context, s *domain.Signal) error {
	if s == nil {
		return errors.New("nil signal")
	}
	tps, err := json.Marshal(s.TakeProfits)
	if err != nil {
		return fmt.Errorf("encode take profits: %w", err)
	}
	sl, err := jsonb(s.StopLoss)
	if err != nil {
		return fmt.Errorf("encode stop loss: %w", err)
	}
	meta, err := jsonb(s.ExtractionMetadata)
	if err != nil {
		return fmt.Errorf("encode extraction metadata: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		insert into signals(`+signalColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
	`,
		s.ID, s.ChannelID, s.TemplateID, s.UserID, nullableInt64(s.OriginalMessageID), s.OriginalMessageText,
		s.Symbol, s.EntryPrice, tps, sl, string(s.SignalType), nullableText(s.Timeframe), s.ConfidenceScore,
		meta, nullableText(s.UserNotes), s.PerformanceOutcome, s.ClosePrice, s.PnL, s.PnLPercent, nullableTime(s.ClosedAt),
		s.CreatedAt, s.UpdatedAt,
	)
	return mapError(err, domain.NotFound("signal"), domain.ErrConflict)
}

func (r *PostgresSignalRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Signal, error) {
	row := r.pool.QueryRow(ctx, `select `+signalColumns+` from signals where id=$1`, id)
	s, err := scanSignal(row)
	if err != nil {
		return nil, mapError(err, domain.NotFound("signal"), domain.ErrConflict)
	}
	return s, nil
}

func (r *PostgresSignalRepository) query(ctx context.Context, where []string, args []any, limit, offset int) ([]*domain.Signal, error) {
	q := `select ` + signalColumns + ` from signals where ` + strings.Join(where, " and ") + ` order by created_at desc, id desc`
	if limit > 0 {
		args = append(args, limit)
		q += fmt.Sprintf(" limit $%d", len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		q += fmt.Sprintf(" offset $%d", len(args))
	}
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.Signal, 0)
	for rows.Next() {
		s, err := scanSignal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresSignalRepository) ListByChannel(ctx context.Context, channelID uuid.UUID, f domain.SignalFilter) ([]*domain.Signal, error) {
	where := []string{"channel_id = $1"}
	args := []any{channelID}
	if f.Symbol != "" {
		args = append(args, f.Symbol)
		where = append(where, fmt.Sprintf("upper(symbol) = upper($%d)", len(args)))
	}
	if f.SignalType != "" {
		args = append(args, strings.ToUpper(f.SignalType))
		where = append(where, fmt.Sprintf("signal_type = $%d", len(args)))
	}
	if f.PerformanceOutcome != "" {
		args = append(args, strings.ToUpper(f.PerformanceOutcome))
		where = append(where, fmt.Sprintf("performance_outcome = $%d", len(args)))
	}
	return r.query(ctx, where, args, f.Limit, f.Offset)
}

func (r *PostgresSignalRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Signal, error) {
	return r.query(ctx, []string{"user_id = $1"}, []any{userID}, limit, offset)
}

func (r *PostgresSignalRepository) Update(ctx context.Context, s *domain.Signal) error {
	if s == nil {
		return errors.New("nil signal")
	}
	tps, err := json.Marshal(s.TakeProfits)
	if err != nil {
		return fmt.Errorf("encode take profits: %w", err)
	}
	sl, err := jsonb(s.StopLoss)
	if err != nil {
		return fmt.Errorf("encode stop loss: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `
		update signals set
			take_profits=$2,
			stop_loss=$3,
			user_notes=$4,
			performance_outcome=$5,
			close_price=$6,
			pnl=$7,
			pnl_percent=$8,
			closed_at=$9,
			updated_at=$10
		where id=$1
	`, s.ID, tps, sl, nullableText(s.UserNotes), s.PerformanceOutcome,
		s.ClosePrice, s.PnL, s.PnLPercent, nullableTime(s.ClosedAt), s.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("signal")
	}
	return nil
}

func (r *PostgresSignalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `delete from signals where id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("signal")
	}
	return nil
}

func scanSignal(s scanner) (*domain.Signal, error) {
	var sig domain.Signal
	var msgID pgtype.Int8
	var tps, sl, meta []byte
	var signalType string
	var timeframe, notes pgtype.Text
	var closedAt pgtype.Timestamptz

	err := s.Scan(
		&sig.ID, &sig.ChannelID, &sig.TemplateID, &sig.UserID, &msgID, &sig.OriginalMessageText,
		&sig.Symbol, &sig.EntryPrice, &tps, &sl, &signalType, &timeframe, &sig.ConfidenceScore,
		&meta, &notes, &sig.PerformanceOutcome, &sig.ClosePrice, &sig.PnL, &sig.PnLPercent, &closedAt,
		&sig.CreatedAt, &sig.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sig.SignalType = domain.SignalType(signalType)
	sig.OriginalMessageID = int64Ptr(msgID)
	sig.Timeframe = textPtr(timeframe)
	sig.UserNotes = textPtr(notes)
	sig.ClosedAt = timePtr(closedAt)

	sig.TakeProfits = []domain.TakeProfit{}
	if len(tps) > 0 {
		if err := json.Unmarshal(tps, &sig.TakeProfits); err != nil {
			return nil, fmt.Errorf("decode take profits: %w", err)
		}
	}
	if len(sl) > 0 {
		if err := json.Unmarshal(sl, &sig.StopLoss); err != nil {
			return nil, fmt.Errorf("decode stop loss: %w", err)
		}
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &sig.ExtractionMetadata); err != nil {
			return nil, fmt.Errorf("decode extraction metadata: %w", err)
		}
	}
	return &sig, nil
}

var _ domain.SignalRepository = (*PostgresSignalRepository)(nil)
