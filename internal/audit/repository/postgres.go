package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"risk-adaptive-auth/internal/audit/domain"
	"risk-adaptive-auth/internal/db"
)

const appendAuditEvent = `INSERT INTO audit_events (id, event, account_id, email, session_id, ip, device, browser, meta, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// PostgresRepository stores audit events in the audit_events table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// Append inserts e. Meta is stored as JSONB; a nil map is stored as {}.
func (r *PostgresRepository) Append(ctx context.Context, e *domain.AuditEvent) error {
	meta := e.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("audit meta: %w", err)
	}
	_, err = r.db.ExecContext(ctx, appendAuditEvent,
		e.ID, string(e.Event), db.NullString(e.AccountID), e.Email, db.NullString(e.SessionID),
		e.IP, e.Device, e.Browser, raw, e.CreatedAt)
	return err
}
