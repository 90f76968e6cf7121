package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"signal-backend/internal/domain"
)

type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

const accountColumns = `id, username, email, password_hash, account_balance, risk_per_trade, max_drawdown,
	telegram_connected, mt5_connected, reset_token, reset_token_expires_at, created_at, updated_at`

func (r *PostgresAccountRepository) Create(ctx context.Context, a *domain.Account) error {
	if a == nil {
		return errors.New("nil account")
	}
	_, err := r.pool.Exec(ctx, `
		insert into accounts(`+accountColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		a.ID, a.Username, nullableText(a.Email), a.PasswordHash,
		a.AccountBalance, a.RiskPerTrade, a.MaxDrawdown,
		a.TelegramConnected, a.MT5Connected,
		nullableText(a.ResetToken), nullableTime(a.ResetTokenExpiresAt),
		a.CreatedAt, a.UpdatedAt,
	)
	return mapError(err, domain.NotFound("account"), domain.ErrConflict)
}

func (r *PostgresAccountRepository) getBy(ctx context.Context, where string, arg any) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, `select `+accountColumns+` from accounts where `+where, arg)
	a, err := scanAccount(row)
	if err != nil {
		return nil, mapError(err, domain.NotFound("account"), domain.ErrConflict)
	}
	return a, nil
}

func (r *PostgresAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return r.getBy(ctx, "id = $1", id)
}

func (r *PostgresAccountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.getBy(ctx, "lower(username) = lower($1)", username)
}

func (r *PostgresAccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.getBy(ctx, "lower(email) = lower($1)", email)
}

func (r *PostgresAccountRepository) GetByResetToken(ctx context.Context, token string) (*domain.Account, error) {
	return r.getBy(ctx, "reset_token = $1", token)
}

func (r *PostgresAccountRepository) List(ctx context.Context) ([]*domain.Account, error) {
	rows, err := r.pool.Query(ctx, `select `+accountColumns+` from accounts order by created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresAccountRepository) Update(ctx context.Context, a *domain.Account) error {
	if a == nil {
		return errors.New("nil account")
	}
	tag, err := r.pool.Exec(ctx, `
		update accounts set
			username=$2,
			email=$3,
			password_hash=$4,
			account_balance=$5,
			risk_per_trade=$6,
			max_drawdown=$7,
			telegram_connected=$8,
			mt5_connected=$9,
			reset_token=$10,
			reset_token_expires_at=$11,
			updated_at=$12
		where id=$1
	`,
		a.ID, a.Username, nullableText(a.Email), a.PasswordHash,
		a.AccountBalance, a.RiskPerTrade, a.MaxDrawdown,
		a.TelegramConnected, a.MT5Connected,
		nullableText(a.ResetToken), nullableTime(a.ResetTokenExpiresAt),
		a.UpdatedAt,
	)
	if err != nil {
		return mapError(err, domain.NotFound("account"), domain.ErrConflict)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("account")
	}
	return nil
}

func (r *PostgresAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `delete from accounts where id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("account")
	}
	return nil
}

func scanAccount(s scanner) (*domain.Account, error) {
	var a domain.Account
	var email, resetToken pgtype.Text
	var resetExpires pgtype.Timestamptz

	err := s.Scan(
		&a.ID, &a.Username, &email, &a.PasswordHash,
		&a.AccountBalance, &a.RiskPerTrade, &a.MaxDrawdown,
		&a.TelegramConnected, &a.MT5Connected,
		&resetToken, &resetExpires,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Email = textPtr(email)
	a.ResetToken = textPtr(resetToken)
	a.ResetTokenExpiresAt = timePtr(resetExpires)
	return &a, nil
}

var _ domain.AccountRepository = (*PostgresAccountRepository)(nil)
