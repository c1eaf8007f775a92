package repository

import (
	"context"
	"time"

	"risk-adaptive-auth/internal/mfa/domain"
)

// Repository defines persistence for OTP challenges.
type Repository interface {
	Create(ctx context.Context, c *domain.Challenge) error
	// Latest returns the most recently created challenge for the pair, expired or not, or nil.
	Latest(ctx context.Context, accountID, sessionID string) (*domain.Challenge, error)
	// IncrementAttempts bumps the failed-attempt counter and returns the new value.
	IncrementAttempts(ctx context.Context, id string) (int, error)
	// Delete removes the challenge and reports whether a row was removed.
	Delete(ctx context.Context, id string) (bool, error)
	// DeleteExpired removes challenges that expired before cutoff.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// DefaultChallengeTTL is the default OTP challenge expiry.
const DefaultChallengeTTL = 10 * time.Minute
