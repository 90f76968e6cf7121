package db

import (
	"testing"
	"time"
)

func TestPoolConfigFrom(t *testing.T) {
	env := map[string]string{
		"DB_MAX_CONNS":          "4",
		"DB_MIN_CONNS":          "9",
		"DB_MAX_CONN_LIFETIME":  "1h",
		"DB_HEALTHCHECK_PERIOD": "bogus",
	}
	cfg := poolConfigFrom(func(k string) string { return env[k] })

	if cfg.MaxConns != 4 {
		t.Fatalf("expected MaxConns 4, got %d", cfg.MaxConns)
	}
	if cfg.MinConns != 4 {
		t.Fatalf("expected MinConns clamped to 4, got %d", cfg.MinConns)
	}
	if cfg.MaxConnLifetime != time.Hour {
		t.Fatalf("expected 1h lifetime, got %s", cfg.MaxConnLifetime)
	}
	if cfg.HealthCheckPeriod != DefaultPoolConfig().HealthCheckPeriod {
		t.Fatalf("expected default health check on bad input, got %s", cfg.HealthCheckPeriod)
	}
}

func TestWithSSLMode(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@localhost:5432/signals":                     "postgres://u:p@localhost:5432/signals?sslmode=disable",
		"postgres://u:p@db.example.com/signals":                     "postgres://u:p@db.example.com/signals?sslmode=require",
		"postgres://u:p@db.example.com/signals?sslmode=verify-full": "postgres://u:p@db.example.com/signals?sslmode=verify-full",
	}
	for in, want := range tests {
		if got := withSSLMode(in); got != want {
			t.Fatalf("withSSLMode(%q): expected %q, got %q", in, want, got)
		}
	}
}
