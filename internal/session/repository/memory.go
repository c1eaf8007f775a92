package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"risk-adaptive-auth/internal/session/domain"
)

// MemoryRepository is an in-process Repository. It backs unit tests and local runs without Postgres.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[string]*domain.Session)}
}

func (m *MemoryRepository) Create(ctx context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryRepository) MarkLoggedOut(ctx context.Context, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || !s.Success {
		return false, nil
	}
	s.Success = false
	s.LoggedOutAt = &at
	s.UpdatedAt = at
	return true, nil
}

func (m *MemoryRepository) HasDevice(ctx context.Context, accountID, device, excludeID string) (bool, error) {
	n := m.count(func(s *domain.Session) bool {
		return s.AccountID == accountID && s.Success && s.Device == device && s.ID != excludeID
	})
	return n > 0, nil
}

func (m *MemoryRepository) HasIP(ctx context.Context, accountID, ip, excludeID string) (bool, error) {
	n := m.count(func(s *domain.Session) bool {
		return s.AccountID == accountID && s.Success && s.IP == ip && s.ID != excludeID
	})
	return n > 0, nil
}

func (m *MemoryRepository) CountSuccessful(ctx context.Context, accountID, device, excludeID string, since time.Time) (int, error) {
	return m.count(func(s *domain.Session) bool {
		return s.AccountID == accountID && s.Success && (device == "" || s.Device == device) &&
			s.ID != excludeID && !s.CreatedAt.Before(since)
	}), nil
}

func (m *MemoryRepository) CountAll(ctx context.Context, accountID, excludeID string) (int, error) {
	return m.count(func(s *domain.Session) bool {
		return s.AccountID == accountID && s.ID != excludeID
	}), nil
}

func (m *MemoryRepository) ListByAccount(ctx context.Context, accountID string, limit int32) ([]*domain.Session, error) {
	m.mu.RLock()
	var out []*domain.Session
	for _, s := range m.sessions {
		if s.AccountID == accountID {
			cp := *s
			out = append(out, &cp)
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > int(limit) {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepository) count(match func(*domain.Session) bool) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.sessions {
		if match(s) {
			n++
		}
	}
	return n
}
