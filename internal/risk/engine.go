package risk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	accountdomain "risk-adaptive-auth/internal/account/domain"
	"risk-adaptive-auth/internal/logging"
	"risk-adaptive-auth/internal/portal"
	sessiondomain "risk-adaptive-auth/internal/session/domain"
)

// ErrMissingInput is returned when Score is called without an account or session.
var ErrMissingInput = errors.New("risk: account and session are required")

// SessionHistory is the read side of the session registry the engine needs.
type SessionHistory interface {
	HasKnownDevice(ctx context.Context, accountID, deviceClass, excludingID string) (bool, error)
	HasKnownIP(ctx context.Context, accountID, ip, excludingID string) (bool, error)
	CountActiveSessions(ctx context.Context, accountID, deviceClass, excludingID string, since time.Time) (int, error)
	CountPriorSessions(ctx context.Context, accountID, excludingID string) (int, error)
}

// Engine gathers signals from session history and hands them to an Evaluator.
type Engine struct {
	history SessionHistory
	eval    Evaluator
	cfg     Config
	logger  *zap.Logger
}

// NewEngine returns an Engine. A nil eval uses Builtin.
func NewEngine(history SessionHistory, eval Evaluator, cfg Config, logger *zap.Logger) *Engine {
	if eval == nil {
		eval = Builtin{}
	}
	return &Engine{history: history, eval: eval, cfg: cfg, logger: logging.OrNop(logger)}
}

// Config returns the scoring constants in use.
func (e *Engine) Config() Config {
	return e.cfg
}

// Signals collects the facts about sess. sess must already be recorded; it is excluded from
// every query.
func (e *Engine) Signals(ctx context.Context, acct *accountdomain.Account, sess *sessiondomain.Session) (Signals, error) {
	if acct == nil || sess == nil {
		return Signals{}, ErrMissingInput
	}
	s := Signals{Privileged: portal.IsPrivileged(acct.Roles)}
	var err error
	if s.PriorSessions, err = e.history.CountPriorSessions(ctx, acct.ID, sess.ID); err != nil {
		return Signals{}, fmt.Errorf("risk: prior sessions: %w", err)
	}
	knownDevice, err := e.history.HasKnownDevice(ctx, acct.ID, sess.Device, sess.ID)
	if err != nil {
		return Signals{}, fmt.Errorf("risk: known device: %w", err)
	}
	s.NewDevice = !knownDevice
	knownIP, err := e.history.HasKnownIP(ctx, acct.ID, sess.IP, sess.ID)
	if err != nil {
		return Signals{}, fmt.Errorf("risk: known ip: %w", err)
	}
	s.NewIP = !knownIP
	var since time.Time
	if e.cfg.ConcurrentWindow > 0 {
		since = sess.CreatedAt.Add(-e.cfg.ConcurrentWindow)
	}
	if s.SameDeviceSessions, err = e.history.CountActiveSessions(ctx, acct.ID, sess.Device, sess.ID, since); err != nil {
		return Signals{}, fmt.Errorf("risk: same device sessions: %w", err)
	}
	if s.SuccessfulSessions, err = e.history.CountActiveSessions(ctx, acct.ID, "", sess.ID, time.Time{}); err != nil {
		return Signals{}, fmt.Errorf("risk: successful sessions: %w", err)
	}
	return s, nil
}

// Score assesses a freshly created session for acct.
func (e *Engine) Score(ctx context.Context, acct *accountdomain.Account, sess *sessiondomain.Session) (Assessment, error) {
	s, err := e.Signals(ctx, acct, sess)
	if err != nil {
		return Assessment{}, err
	}
	a, err := e.eval.Evaluate(ctx, e.cfg, s)
	if err != nil {
		return Assessment{}, fmt.Errorf("risk: evaluate: %w", err)
	}
	e.logger.Debug("login risk assessed",
		zap.String("account_id", acct.ID),
		zap.String("session_id", sess.ID),
		zap.Int("risk_value", a.RiskValue),
		zap.Bool("suspicious", a.IsSuspicious),
		zap.Strings("reasons", a.Reasons),
	)
	return a, nil
}
