package repository

import (
	"context"

	"risk-adaptive-auth/internal/account/domain"
)

// Repository defines read access to the user directory, plus Create for seeding.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
}
