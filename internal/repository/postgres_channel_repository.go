package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"signal-backend/internal/domain"
)

type PostgresChannelRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresChannelRepository(pool *pgxpool.Pool) *PostgresChannelRepository {
	return &PostgresChannelRepository{pool: pool}
}

const channelColumns = `id, account_id, name, telegram_channel_id, status, connection_status, connection_error,
	signal_count, last_active_at, created_at, updated_at`

func nullableUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func (r *PostgresChannelRepository) Create(ctx context.Context, c *domain.Channel) error {
	if c == nil {
		return errors.New("nil channel")
	}
	_, err := r.pool.Exec(ctx, `
		insert into channels(`+channelColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		c.ID, nullableUUID(c.AccountID), c.Name, c.TelegramChannelID, c.Status,
		c.ConnectionStatus, nullableText(c.ConnectionError), c.SignalCount,
		nullableTime(c.LastActiveAt), c.CreatedAt, c.UpdatedAt,
	)
	return mapError(err, domain.NotFound("channel"), domain.ErrConflict)
}

func (r *PostgresChannelRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Channel, error) {
	row := r.pool.QueryRow(ctx, `select `+channelColumns+` from channels where id=$1`, id)
	c, err := scanChannel(row)
	if err != nil {
		return nil, mapError(err, domain.NotFound("channel"), domain.ErrConflict)
	}
	return c, nil
}

func (r *PostgresChannelRepository) List(ctx context.Context, f domain.ChannelFilter) ([]*domain.Channel, error) {
	var where []string
	var args []any
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.AccountID != nil {
		args = append(args, *f.AccountID)
		where = append(where, fmt.Sprintf("account_id = $%d", len(args)))
	}
	q := `select ` + channelColumns + ` from channels`
	if len(where) > 0 {
		q += ` where ` + strings.Join(where, " and ")
	}
	q += ` order by created_at desc`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.Channel, 0)
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresChannelRepository) Update(ctx context.Context, c *domain.Channel) error {
	if c == nil {
		return errors.New("nil channel")
	}
	tag, err := r.pool.Exec(ctx, `
		update channels set
			account_id=$2,
			name=$3,
			telegram_channel_id=$4,
			status=$5,
			connection_status=$6,
			connection_error=$7,
			signal_count=$8,
			last_active_at=$9,
			updated_at=$10
		where id=$1
	`,
		c.ID, nullableUUID(c.AccountID), c.Name, c.TelegramChannelID, c.Status,
		c.ConnectionStatus, nullableText(c.ConnectionError), c.SignalCount,
		nullableTime(c.LastActiveAt), c.UpdatedAt,
	)
	if err != nil {
		return mapError(err, domain.NotFound("channel"), domain.ErrConflict)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("channel")
	}
	return nil
}

func (r *PostgresChannelRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `delete from channels where id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("channel")
	}
	return nil
}

func (r *PostgresChannelRepository) AddSignals(ctx context.Context, id uuid.UUID, delta int, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		update channels set
			signal_count = greatest(signal_count + $2, 0),
			last_active_at = case when $2 > 0 then $3 else last_active_at end,
			updated_at = $3
		where id=$1
	`, id, delta, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("channel")
	}
	return nil
}

func (r *PostgresChannelRepository) OrphanByAccount(ctx context.Context, accountID uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		update channels set account_id = null, status = $2, updated_at = $3
		where account_id = $1
	`, accountID, domain.ChannelOrphan, at)
	return err
}

func scanChannel(s scanner) (*domain.Channel, error) {
	var c domain.Channel
	var accountID uuid.NullUUID
	var connErr pgtype.Text
	var lastActive pgtype.Timestamptz

	err := s.Scan(
		&c.ID, &accountID, &c.Name, &c.TelegramChannelID, &c.Status,
		&c.ConnectionStatus, &connErr, &c.SignalCount,
		&lastActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if accountID.Valid {
		id := accountID.UUID
		c.AccountID = &id
	}
	c.ConnectionError = textPtr(connErr)
	c.LastActiveAt = timePtr(lastActive)
	return &c, nil
}

var _ domain.ChannelRepository = (*PostgresChannelRepository)(nil)
