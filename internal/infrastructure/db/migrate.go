package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the tables the service needs. Statements are idempotent and run on every start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`create table if not exists accounts (
			id uuid primary key,
			username text not null unique,
			email text null unique,
			password_hash text not null,
			account_balance numeric(20, 2) not null default 0,
			risk_per_trade numeric(5, 2) not null default 0,
			max_drawdown numeric(5, 2) not null default 0,
			telegram_connected boolean not null default false,
			mt5_connected boolean not null default false,
			reset_token text null,
			reset_token_expires_at timestamptz null,
			created_at timestamptz not null default now(),
			updated_at timestamptz not null default now()
		);`,
		`create index if not exists accounts_reset_token_idx on accounts(reset_token) where reset_token is not null;`,
		`create table if not exists channels (
			id uuid primary key,
			account_id uuid null references accounts(id) on delete set null,
			name text not null,
			telegram_channel_id text not null unique,
			status text not null default 'ACTIVE',
			connection_status text not null default 'disconnected',
			connection_error text null,
			signal_count int not null default 0,
			last_active_at timestamptz null,
			created_at timestamptz not null default now(),
			updated_at timestamptz not null default now()
		);`,
		`create index if not exists channels_account_idx on channels(account_id);`,
		`create index if not exists channels_status_idx on channels(status);`,
		`create table if not exists extraction_templates (
			id uuid primary key,
			channel_id uuid not null references channels(id) on delete cascade,
			version int not null default 1,
			extraction_config jsonb not null,
			test_message text null,
			is_active boolean not null default true,
			extraction_attempts int not null default 0,
			extraction_successes int not null default 0,
			extraction_success_rate int not null default 0,
			last_used_at timestamptz null,
			created_by uuid not null,
			created_at timestamptz not null default now(),
			updated_at timestamptz not null default now()
		);`,
		`create index if not exists extraction_templates_channel_idx on extraction_templates(channel_id, created_at desc);`,
		`create table if not exists extraction_history (
			id uuid primary key,
			template_id uuid not null references extraction_templates(id) on delete cascade,
			was_successful boolean not null,
			error_message text null,
			extracted_data jsonb null,
			original_message text not null,
			created_at timestamptz not null default now()
		);`,
		`create index if not exists extraction_history_template_idx on extraction_history(template_id, created_at desc);`,
		`create table if not exists signals (
			id uuid primary key,
			channel_id uuid not null references channels(id) on delete cascade,
			template_id uuid not null references extraction_templates(id) on delete cascade,
			user_id text not null,
			original_message_id bigint null,
			original_message_text text not null,
			symbol text not null,
			entry_price numeric(20, 8) not null,
			take_profits jsonb not null default '[]'::jsonb,
			stop_loss jsonb null,
			signal_type text not null,
			timeframe text null,
			confidence_score numeric(3, 2) not null default 1.0,
			extraction_metadata jsonb null,
			user_notes text null,
			performance_outcome text not null default 'PENDING',
			close_price numeric(20, 8) null,
			pnl numeric(20, 8) null,
			pnl_percent numeric(10, 4) null,
			closed_at timestamptz null,
			created_at timestamptz not null default now(),
			updated_at timestamptz not null default now()
		);`,
		`create index if not exists signals_channel_created_idx on signals(channel_id, created_at desc);`,
		`create index if not exists signals_user_created_idx on signals(user_id, created_at desc);`,
		`create index if not exists signals_symbol_idx on signals(symbol);`,
		`create table if not exists device_tokens (
			token text primary key,
			account_id uuid not null references accounts(id) on delete cascade,
			platform text not null,
			created_at timestamptz not null default now()
		);`,
		`create index if not exists device_tokens_account_idx on device_tokens(account_id);`,
	}

	for i, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}
