package repository

import (
	"context"
	"errors"
	"sync"

	"risk-adaptive-auth/internal/account/domain"
)

// ErrDuplicateEmail is returned by MemoryRepository.Create when the email is taken.
var ErrDuplicateEmail = errors.New("account: email already exists")

// MemoryRepository is an in-process account directory for tests and local runs.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Account
	byEmail map[string]string
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*domain.Account), byEmail: make(map[string]string)}
}

func (m *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return clone(a), nil
}

func (m *MemoryRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[domain.CanonicalEmail(email)]
	if !ok {
		return nil, nil
	}
	return clone(m.byID[id]), nil
}

func (m *MemoryRepository) Create(ctx context.Context, a *domain.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[a.Email]; ok {
		return ErrDuplicateEmail
	}
	m.byID[a.ID] = clone(a)
	m.byEmail[a.Email] = a.ID
	return nil
}

// SetStatus changes an account's status in place.
func (m *MemoryRepository) SetStatus(id string, status domain.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.byID[id]; ok {
		a.Status = status
	}
}

func clone(a *domain.Account) *domain.Account {
	cp := *a
	cp.Roles = append([]string(nil), a.Roles...)
	return &cp
}
