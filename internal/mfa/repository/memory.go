package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"risk-adaptive-auth/internal/mfa/domain"
)

// MemoryRepository is an in-process Repository for tests and local runs without Postgres.
type MemoryRepository struct {
	mu         sync.Mutex
	challenges map[string]*domain.Challenge
	// CreateErr, when set, is returned by Create.
	CreateErr error
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{challenges: make(map[string]*domain.Challenge)}
}

func (m *MemoryRepository) Create(ctx context.Context, c *domain.Challenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	cp := *c
	m.challenges[c.ID] = &cp
	return nil
}

func (m *MemoryRepository) Latest(ctx context.Context, accountID, sessionID string) (*domain.Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*domain.Challenge
	for _, c := range m.challenges {
		if c.AccountID == accountID && c.SessionID == sessionID {
			list = append(list, c)
		}
	}
	if len(list) == 0 {
		return nil, nil
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	cp := *list[0]
	return &cp, nil
}

func (m *MemoryRepository) IncrementAttempts(ctx context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.challenges[id]
	if !ok {
		return 0, nil
	}
	c.Attempts++
	return c.Attempts, nil
}

func (m *MemoryRepository) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.challenges[id]
	delete(m.challenges, id)
	return ok, nil
}

func (m *MemoryRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, c := range m.challenges {
		if c.ExpiresAt.Before(cutoff) {
			delete(m.challenges, id)
			n++
		}
	}
	return n, nil
}

// Get returns a copy of the stored challenge, or nil.
func (m *MemoryRepository) Get(id string) *domain.Challenge {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.challenges[id]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

// Len returns the number of stored challenges.
func (m *MemoryRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.challenges)
}
