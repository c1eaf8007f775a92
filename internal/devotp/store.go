// Package devotp keeps the last plain code per session so local clients can complete step-up
// without a mail or SMS provider. It is wired only outside production.
package devotp

import (
	"context"
	"sync"
	"time"

	"risk-adaptive-auth/internal/notification"
)

// Store holds plain codes by session id.
type Store interface {
	// Put stores code for sessionID until expiresAt, replacing any earlier code.
	Put(ctx context.Context, sessionID, code string, expiresAt time.Time)
	// Get returns the code for sessionID if present and not expired.
	Get(ctx context.Context, sessionID string) (code string, ok bool)
}

type entry struct {
	code      string
	expiresAt time.Time
}

// MemoryStore is an in-memory Store. It also implements notification.Dispatcher.
type MemoryStore struct {
	mu   sync.RWMutex
	m    map[string]entry
	nowF func() time.Time
}

var _ notification.Dispatcher = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m:    make(map[string]entry),
		nowF: func() time.Time { return time.Now().UTC() },
	}
}

// Put stores code for sessionID until expiresAt.
func (s *MemoryStore) Put(ctx context.Context, sessionID, code string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[sessionID] = entry{code: code, expiresAt: expiresAt}
}

// Get returns the code for sessionID if present and not expired. Expired entries are dropped.
func (s *MemoryStore) Get(ctx context.Context, sessionID string) (string, bool) {
	s.mu.RLock()
	e, ok := s.m[sessionID]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}
	if !e.expiresAt.After(s.nowF()) {
		s.mu.Lock()
		delete(s.m, sessionID)
		s.mu.Unlock()
		return "", false
	}
	return e.code, true
}

// SendOTP records the code instead of delivering it.
func (s *MemoryStore) SendOTP(ctx context.Context, msg notification.OTPMessage) error {
	if msg.SessionID == "" {
		return notification.ErrNoRecipient
	}
	s.Put(ctx, msg.SessionID, msg.Code, msg.ExpiresAt)
	return nil
}
