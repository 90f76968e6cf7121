package db

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PoolConfig struct {
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConns:          10,
		MinConns:          2,
		MaxConnLifetime:   30 * time.Minute,
		MaxConnIdleTime:   5 * time.Minute,
		HealthCheckPeriod: 30 * time.Second,
	}
}

func PoolConfigFromEnv() PoolConfig {
	return poolConfigFrom(os.Getenv)
}

func poolConfigFrom(getenv func(string) string) PoolConfig {
	cfg := DefaultPoolConfig()

	if v := strings.TrimSpace(getenv("DB_MAX_CONNS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			cfg.MaxConns = int32(n)
		}
	}
	if v := strings.TrimSpace(getenv("DB_MIN_CONNS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			cfg.MinConns = int32(n)
		}
	}
	if v := strings.TrimSpace(getenv("DB_MAX_CONN_LIFETIME")); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.MaxConnLifetime = d
		}
	}
	if v := strings.TrimSpace(getenv("DB_MAX_CONN_IDLE_TIME")); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.MaxConnIdleTime = d
		}
	}
	if v := strings.TrimSpace(getenv("DB_HEALTHCHECK_PERIOD")); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HealthCheckPeriod = d
		}
	}

	if cfg.MaxConns < 1 {
		cfg.MaxConns = 1
	}
	if cfg.MinConns < 0 {
		cfg.MinConns = 0
	}
	if cfg.MinConns > cfg.MaxConns {
		cfg.MinConns = cfg.MaxConns
	}

	return cfg
}

// withSSLMode adds sslmode when the URL does not name one. Local hosts default to
// "disable", everything else to "require".
func withSSLMode(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		// pgx reports the parse failure with a better message.
		return dbURL
	}

	q := u.Query()
	if q.Get("sslmode") == "" {
		mode := "require"
		switch u.Hostname() {
		case "localhost", "127.0.0.1", "::1", "postgres", "db":
			mode = "disable"
		}
		q.Set("sslmode", mode)
		u.RawQuery = q.Encode()
	}
	return strings.TrimSpace(u.String())
}

// NewPool opens a pool and verifies it with a ping.
func NewPool(ctx context.Context, databaseURL string, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(withSSLMode(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
