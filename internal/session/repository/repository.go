package repository

import (
	"context"
	"time"

	"risk-adaptive-auth/internal/session/domain"
)

// Repository defines persistence for session records. excludeID removes one record (normally
// the session being scored) from counting queries; empty excludes nothing.
type Repository interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	// MarkLoggedOut flips success to false. It reports false when the session was already logged out or missing.
	MarkLoggedOut(ctx context.Context, id string, at time.Time) (bool, error)
	HasDevice(ctx context.Context, accountID, device, excludeID string) (bool, error)
	HasIP(ctx context.Context, accountID, ip, excludeID string) (bool, error)
	// CountSuccessful counts success=true records; an empty device counts every device class
	// and a zero since counts every creation time.
	CountSuccessful(ctx context.Context, accountID, device, excludeID string, since time.Time) (int, error)
	// CountAll counts every record regardless of success.
	CountAll(ctx context.Context, accountID, excludeID string) (int, error)
	ListByAccount(ctx context.Context, accountID string, limit int32) ([]*domain.Session, error)
}
