package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

type scanner interface {
	Scan(dest ...any) error
}

const uniqueViolation = "23505"

// mapError translates driver errors into domain sentinels.
func mapError(err error, notFound error, conflict error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", conflict, pgErr.ConstraintName)
	}
	return err
}

func nullableText(v *string) any {
	if v == nil {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{Valid: true, String: *v}
}

func nullableTime(v *time.Time) any {
	if v == nil {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Valid: true, Time: *v}
}

func nullableInt64(v *int64) any {
	if v == nil {
		return pgtype.Int8{Valid: false}
	}
	return pgtype.Int8{Valid: true, Int64: *v}
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

func timePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func int64Ptr(t pgtype.Int8) *int64 {
	if !t.Valid {
		return nil
	}
	v := t.Int64
	return &v
}

// jsonb encodes v for a jsonb column. A nil pointer or map becomes SQL null.
func jsonb(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return nil, nil
	}
	return b, nil
}
