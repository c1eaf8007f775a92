// Package notification delivers step-up codes to account holders.
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"risk-adaptive-auth/internal/logging"
)

var (
	// ErrNoRecipient is returned by a channel that has no address for the account (e.g. no phone).
	ErrNoRecipient = errors.New("notification: no recipient for channel")
	// ErrNotConfigured is returned when a channel is missing credentials.
	ErrNotConfigured = errors.New("notification: channel not configured")
)

// OTPMessage is everything a channel may need to deliver a code. Code is the only secret.
type OTPMessage struct {
	AccountID   string
	Email       string
	Phone       string
	Name        string
	SessionID   string
	ChallengeID string
	Code        string
	ExpiresAt   time.Time
}

// Dispatcher sends a one-time code through one channel.
type Dispatcher interface {
	SendOTP(ctx context.Context, msg OTPMessage) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, msg OTPMessage) error

func (f DispatcherFunc) SendOTP(ctx context.Context, msg OTPMessage) error {
	return f(ctx, msg)
}

// Multi fans a message out to every channel. It succeeds when at least one channel delivered.
type Multi struct {
	channels map[string]Dispatcher
	order    []string
	logger   *zap.Logger
}

// NewMulti returns an empty fan-out dispatcher.
func NewMulti(logger *zap.Logger) *Multi {
	return &Multi{channels: make(map[string]Dispatcher), logger: logging.OrNop(logger)}
}

// Add registers d under name. A nil d is ignored.
func (m *Multi) Add(name string, d Dispatcher) *Multi {
	if d == nil {
		return m
	}
	if _, ok := m.channels[name]; !ok {
		m.order = append(m.order, name)
	}
	m.channels[name] = d
	return m
}

// Len returns the number of registered channels.
func (m *Multi) Len() int {
	return len(m.order)
}

// SendOTP tries every channel in registration order.
func (m *Multi) SendOTP(ctx context.Context, msg OTPMessage) error {
	if len(m.order) == 0 {
		return ErrNotConfigured
	}
	var errs []error
	delivered := 0
	for _, name := range m.order {
		err := m.channels[name].SendOTP(ctx, msg)
		if err == nil {
			delivered++
			continue
		}
		if errors.Is(err, ErrNoRecipient) {
			m.logger.Debug("otp channel skipped", zap.String("channel", name), zap.String("account_id", msg.AccountID))
		} else {
			m.logger.Warn("otp channel failed", zap.String("channel", name), zap.String("account_id", msg.AccountID), zap.Error(err))
		}
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}
	if delivered > 0 {
		return nil
	}
	return errors.Join(errs...)
}
