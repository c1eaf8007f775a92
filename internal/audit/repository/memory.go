package repository

import (
	"context"
	"sync"

	"risk-adaptive-auth/internal/audit/domain"
)

// MemoryRepository is an in-process append-only Repository for tests and local runs.
type MemoryRepository struct {
	mu     sync.Mutex
	events []*domain.AuditEvent
	// AppendErr, when set, is returned by Append and nothing is stored.
	AppendErr error
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (m *MemoryRepository) Append(ctx context.Context, e *domain.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return m.AppendErr
	}
	cp := *e
	m.events = append(m.events, &cp)
	return nil
}

// Events returns every stored event in append order.
func (m *MemoryRepository) Events() []*domain.AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.AuditEvent, len(m.events))
	copy(out, m.events)
	return out
}
