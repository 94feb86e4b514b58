package revocation

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresList persists revocations in PostgreSQL for deployments that
// already carry a relational store but no Redis.
type PostgresList struct {
	db    *sql.DB
	clock Clock
}

type PostgresListOption func(*PostgresList)

// WithPostgresClock sets the clock function for testability.
func WithPostgresClock(clock Clock) PostgresListOption {
	return func(l *PostgresList) {
		if clock != nil {
			l.clock = clock
		}
	}
}

func NewPostgresList(db *sql.DB, opts ...PostgresListOption) *PostgresList {
	l := &PostgresList{
		db:    db,
		clock: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Schema creates the backing table. Called from wiring; idempotent.
func (l *PostgresList) Schema(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS token_revocations (
			jti        TEXT PRIMARY KEY,
			expires_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create token_revocations: %w", err)
	}
	return nil
}

func (l *PostgresList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	expiresAt := l.clock().Add(ttl)
	query := `
		INSERT INTO token_revocations (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO UPDATE SET
			expires_at = EXCLUDED.expires_at
	`
	if _, err := l.db.ExecContext(ctx, query, jti, expiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (l *PostgresList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	var expiresAt time.Time
	err := l.db.QueryRowContext(ctx,
		`SELECT expires_at FROM token_revocations WHERE jti = $1`, jti,
	).Scan(&expiresAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return l.clock().Before(expiresAt), nil
}

// Sweep removes expired rows; run it periodically from a background task.
func (l *PostgresList) Sweep(ctx context.Context) (int64, error) {
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM token_revocations WHERE expires_at < $1`, l.clock())
	if err != nil {
		return 0, fmt.Errorf("sweep revocations: %w", err)
	}
	return res.RowsAffected()
}
