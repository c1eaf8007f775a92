package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"risk-adaptive-auth/internal/mfa/domain"
)

const (
	createChallenge = `INSERT INTO otp_challenges (id, account_id, session_id, code_hash, attempts, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	latestChallenge = `SELECT id, account_id, session_id, code_hash, attempts, expires_at, created_at
FROM otp_challenges WHERE account_id = $1 AND session_id = $2
ORDER BY created_at DESC, id DESC LIMIT 1`

	incrementAttempts = `UPDATE otp_challenges SET attempts = attempts + 1 WHERE id = $1 RETURNING attempts`

	deleteChallenge = `DELETE FROM otp_challenges WHERE id = $1`

	deleteExpired = `DELETE FROM otp_challenges WHERE expires_at < $1`
)

// PostgresRepository stores challenges in the otp_challenges table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an OTP challenge repository that uses the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the challenge. The challenge must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Challenge) error {
	_, err := r.db.ExecContext(ctx, createChallenge,
		c.ID, c.AccountID, c.SessionID, c.CodeHash, c.Attempts, c.ExpiresAt, c.CreatedAt)
	return err
}

// Latest returns the newest challenge for (accountID, sessionID), or nil if none exists.
func (r *PostgresRepository) Latest(ctx context.Context, accountID, sessionID string) (*domain.Challenge, error) {
	var c domain.Challenge
	err := r.db.QueryRowContext(ctx, latestChallenge, accountID, sessionID).Scan(
		&c.ID, &c.AccountID, &c.SessionID, &c.CodeHash, &c.Attempts, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// IncrementAttempts bumps attempts for id. A missing row returns 0 with no error.
func (r *PostgresRepository) IncrementAttempts(ctx context.Context, id string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, incrementAttempts, id).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return n, err
}

// Delete removes the challenge by id.
func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, deleteChallenge, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteExpired removes every challenge whose expiry is before cutoff.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteExpired, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
