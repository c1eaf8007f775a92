// Package account is the read-only user directory the login flow consults.
package account

import (
	"context"
	"errors"
	"fmt"

	"risk-adaptive-auth/internal/account/domain"
	accountrepo "risk-adaptive-auth/internal/account/repository"
	"risk-adaptive-auth/internal/security"
)

// ErrNotFound is returned when no account matches.
var ErrNotFound = errors.New("account: not found")

// Directory looks up accounts and verifies passwords.
type Directory struct {
	repo   accountrepo.Repository
	hasher *security.Hasher
}

// NewDirectory returns a Directory over repo using hasher for password checks.
func NewDirectory(repo accountrepo.Repository, hasher *security.Hasher) *Directory {
	return &Directory{repo: repo, hasher: hasher}
}

// FindByEmail returns the account for the canonical form of email, or ErrNotFound.
func (d *Directory) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	a, err := d.repo.GetByEmail(ctx, domain.CanonicalEmail(email))
	if err != nil {
		return nil, fmt.Errorf("account: lookup: %w", err)
	}
	if a == nil {
		return nil, ErrNotFound
	}
	return a, nil
}

// GetByID returns the account or ErrNotFound.
func (d *Directory) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	a, err := d.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("account: get: %w", err)
	}
	if a == nil {
		return nil, ErrNotFound
	}
	return a, nil
}

// VerifyPassword reports whether password matches the account's hash. A nil account burns a
// dummy comparison and returns false.
func (d *Directory) VerifyPassword(a *domain.Account, password string) bool {
	if a == nil || a.PasswordHash == "" {
		d.hasher.DummyCompare([]byte(password))
		return false
	}
	return d.hasher.Compare(a.PasswordHash, []byte(password)) == nil
}

// RolesOf returns the account's role names.
func (d *Directory) RolesOf(a *domain.Account) []string {
	return append([]string(nil), a.Roles...)
}

// IsActive reports whether the account may log in.
func (d *Directory) IsActive(a *domain.Account) bool {
	return a.Active()
}
