package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"risk-adaptive-auth/internal/db"
	"risk-adaptive-auth/internal/token/domain"
)

const (
	createRefreshToken = `INSERT INTO refresh_tokens (id, account_id, session_id, guard, token_hash, created_at, expires_at, rotated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	getRefreshTokenByHash = `SELECT id, account_id, session_id, guard, token_hash, created_at, expires_at, rotated_at
FROM refresh_tokens WHERE token_hash = $1`

	rotateRefreshToken = `UPDATE refresh_tokens SET token_hash = $3, rotated_at = $4, expires_at = $5
WHERE id = $1 AND token_hash = $2`

	expireRefreshTokensBySession = `UPDATE refresh_tokens SET expires_at = $2
WHERE session_id = $1 AND expires_at > $2`
)

// PostgresRepository stores refresh tokens in the refresh_tokens table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a refresh token repository that uses the given db.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// Create persists t. ID must be set.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.RefreshToken) error {
	_, err := r.db.ExecContext(ctx, createRefreshToken,
		t.ID, t.AccountID, t.SessionID, t.Guard, t.TokenHash, t.CreatedAt, t.ExpiresAt, db.NullTime(t.RotatedAt))
	return err
}

// GetByHash returns the token row for tokenHash, or nil if not found.
func (r *PostgresRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	var (
		t       domain.RefreshToken
		rotated sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, getRefreshTokenByHash, tokenHash).Scan(
		&t.ID, &t.AccountID, &t.SessionID, &t.Guard, &t.TokenHash, &t.CreatedAt, &t.ExpiresAt, &rotated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	t.RotatedAt = db.TimePtr(rotated)
	return &t, nil
}

// Rotate is a compare-and-swap on token_hash.
func (r *PostgresRepository) Rotate(ctx context.Context, id, oldHash, newHash string, rotatedAt, expiresAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, rotateRefreshToken, id, oldHash, newHash, rotatedAt, expiresAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// ExpireBySession pulls the expiry of the session's tokens back to at.
func (r *PostgresRepository) ExpireBySession(ctx context.Context, sessionID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, expireRefreshTokensBySession, sessionID, at)
	return err
}
