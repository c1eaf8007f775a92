package repository

import (
	"context"
	"time"

	"risk-adaptive-auth/internal/token/domain"
)

// Repository persists refresh token rows.
type Repository interface {
	Create(ctx context.Context, t *domain.RefreshToken) error
	// GetByHash returns the row whose current hash is tokenHash, or nil.
	GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	// Rotate replaces oldHash with newHash on row id only if oldHash is still current.
	// It reports false when another caller rotated first.
	Rotate(ctx context.Context, id, oldHash, newHash string, rotatedAt, expiresAt time.Time) (bool, error)
	// ExpireBySession makes every refresh token of the session unusable from at.
	ExpireBySession(ctx context.Context, sessionID string, at time.Time) error
}
