// Package audit records authentication events in the append-only audit trail.
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"risk-adaptive-auth/internal/audit/domain"
	auditrepo "risk-adaptive-auth/internal/audit/repository"
	"risk-adaptive-auth/internal/logging"
)

// ErrNoRepository is returned by Record when the logger has no backing store.
var ErrNoRepository = errors.New("audit: no repository configured")

// Recorder writes audit events. Record is synchronous: a non-nil error means the event was
// not persisted and the calling operation must fail.
type Recorder interface {
	Record(ctx context.Context, e *domain.AuditEvent) error
}

// Logger implements Recorder on top of the audit repository.
type Logger struct {
	repo   auditrepo.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewLogger returns a Logger that persists to repo. logger may be nil.
func NewLogger(repo auditrepo.Repository, logger *zap.Logger) *Logger {
	return &Logger{repo: repo, logger: logging.OrNop(logger), now: time.Now}
}

// Record assigns ID and CreatedAt when unset and appends e.
func (l *Logger) Record(ctx context.Context, e *domain.AuditEvent) error {
	if l.repo == nil {
		return ErrNoRepository
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = l.now().UTC()
	}
	if e.IP == "" {
		e.IP = "unknown"
	}
	if err := l.repo.Append(ctx, e); err != nil {
		l.logger.Error("audit write failed",
			zap.String("event", string(e.Event)),
			zap.String("account_id", e.AccountID),
			zap.Error(err))
		return fmt.Errorf("audit: record %s: %w", e.Event, err)
	}
	l.logger.Debug("audit event recorded", zap.String("event", string(e.Event)), zap.String("id", e.ID))
	return nil
}
