package repository

import (
	"context"

	"risk-adaptive-auth/internal/audit/domain"
)

// Repository persists audit events. There is no update or delete.
type Repository interface {
	Append(ctx context.Context, e *domain.AuditEvent) error
}
