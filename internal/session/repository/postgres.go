package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"risk-adaptive-auth/internal/db"
	"risk-adaptive-auth/internal/session/domain"
)

const sessionColumns = `id, account_id, email, guard, portal, ip, device, browser, os, user_agent,
country, city, timezone, success, created_at, updated_at, logged_out_at`

const (
	createSession = `INSERT INTO session_records (` + sessionColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	getSession = `SELECT ` + sessionColumns + ` FROM session_records WHERE id = $1`

	markSessionLoggedOut = `UPDATE session_records SET success = FALSE, logged_out_at = $2, updated_at = $2
WHERE id = $1 AND success = TRUE`

	hasSessionDevice = `SELECT EXISTS (SELECT 1 FROM session_records
WHERE account_id = $1 AND device = $2 AND success = TRUE AND id <> $3)`

	hasSessionIP = `SELECT EXISTS (SELECT 1 FROM session_records
WHERE account_id = $1 AND ip = $2 AND success = TRUE AND id <> $3)`

	countSuccessfulSessions = `SELECT count(*) FROM session_records
WHERE account_id = $1 AND success = TRUE AND ($2 = '' OR device = $2) AND id <> $3
  AND ($4::timestamptz IS NULL OR created_at >= $4)`

	countAllSessions = `SELECT count(*) FROM session_records WHERE account_id = $1 AND id <> $2`

	listSessionsByAccount = `SELECT ` + sessionColumns + ` FROM session_records
WHERE account_id = $1 ORDER BY created_at DESC LIMIT $2`
)

// PostgresRepository stores session records in the session_records table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// Create persists the session. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx, createSession,
		s.ID, s.AccountID, s.Email, s.Guard, s.Portal, s.IP, s.Device, s.Browser, s.OS, s.UserAgent,
		db.NullString(s.Location.Country), db.NullString(s.Location.City), db.NullString(s.Location.Timezone),
		s.Success, s.CreatedAt, s.UpdatedAt, db.NullTime(s.LoggedOutAt))
	return err
}

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, getSession, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// MarkLoggedOut flips success to false for an active session.
func (r *PostgresRepository) MarkLoggedOut(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, markSessionLoggedOut, id, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// HasDevice reports whether any other record of the account used the device class.
func (r *PostgresRepository) HasDevice(ctx context.Context, accountID, device, excludeID string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, hasSessionDevice, accountID, device, excludeID).Scan(&ok)
	return ok, err
}

// HasIP reports whether any other record of the account came from ip.
func (r *PostgresRepository) HasIP(ctx context.Context, accountID, ip, excludeID string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, hasSessionIP, accountID, ip, excludeID).Scan(&ok)
	return ok, err
}

// CountSuccessful counts successful records, optionally for one device class and a creation floor.
func (r *PostgresRepository) CountSuccessful(ctx context.Context, accountID, device, excludeID string, since time.Time) (int, error) {
	var floor *time.Time
	if !since.IsZero() {
		floor = &since
	}
	var n int
	err := r.db.QueryRowContext(ctx, countSuccessfulSessions, accountID, device, excludeID, db.NullTime(floor)).Scan(&n)
	return n, err
}

// CountAll counts every record of the account.
func (r *PostgresRepository) CountAll(ctx context.Context, accountID, excludeID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countAllSessions, accountID, excludeID).Scan(&n)
	return n, err
}

// ListByAccount returns the newest records first.
func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string, limit int32) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, listSessionsByAccount, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var (
		s                       domain.Session
		country, city, timezone sql.NullString
		loggedOut               sql.NullTime
	)
	err := row.Scan(&s.ID, &s.AccountID, &s.Email, &s.Guard, &s.Portal, &s.IP, &s.Device, &s.Browser, &s.OS, &s.UserAgent,
		&country, &city, &timezone, &s.Success, &s.CreatedAt, &s.UpdatedAt, &loggedOut)
	if err != nil {
		return nil, err
	}
	s.Location = domain.Location{Country: country.String, City: city.String, Timezone: timezone.String}
	s.LoggedOutAt = db.TimePtr(loggedOut)
	return &s, nil
}
