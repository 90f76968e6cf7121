package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"signal-backend/internal/domain"
)

type PostgresTokenRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresTokenRepository(pool *pgxpool.Pool) *PostgresTokenRepository {
	return &PostgresTokenRepository{pool: pool}
}

func (r *PostgresTokenRepository) Register(ctx context.Context, t *domain.DeviceToken) error {
	_, err := r.pool.Exec(ctx, `
		insert into device_tokens(token, account_id, platform, created_at)
		values ($1,$2,$3,$4)
		on conflict (token) do update set account_id=excluded.account_id, platform=excluded.platform
	`, t.Token, t.AccountID, t.Platform, t.CreatedAt)
	return err
}

func (r *PostgresTokenRepository) Unregister(ctx context.Context, token string) error {
	_, err := r.pool.Exec(ctx, `delete from device_tokens where token=$1`, token)
	return err
}

func (r *PostgresTokenRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx, `select token from device_tokens where account_id=$1 order by token`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := make([]string, 0)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (r *PostgresTokenRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `select count(*) from device_tokens`).Scan(&n)
	return n, err
}

var _ domain.TokenRepository = (*PostgresTokenRepository)(nil)
