package repository

import (
	"context"
	"sync"
	"time"

	"risk-adaptive-auth/internal/token/domain"
)

// MemoryRepository is an in-process refresh token store for tests and local runs.
type MemoryRepository struct {
	mu   sync.Mutex
	rows map[string]*domain.RefreshToken
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[string]*domain.RefreshToken)}
}

func (m *MemoryRepository) Create(ctx context.Context, t *domain.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.rows[t.ID] = &cp
	return nil
}

func (m *MemoryRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.rows {
		if t.TokenHash == tokenHash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryRepository) Rotate(ctx context.Context, id, oldHash, newHash string, rotatedAt, expiresAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[id]
	if !ok || t.TokenHash != oldHash {
		return false, nil
	}
	t.TokenHash = newHash
	t.RotatedAt = &rotatedAt
	t.ExpiresAt = expiresAt
	return true, nil
}

func (m *MemoryRepository) ExpireBySession(ctx context.Context, sessionID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.rows {
		if t.SessionID == sessionID && t.ExpiresAt.After(at) {
			t.ExpiresAt = at
		}
	}
	return nil
}

// Len returns the number of stored rows.
func (m *MemoryRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
