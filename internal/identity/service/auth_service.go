// Package service orchestrates risk-adaptive login: credential check, portal validation,
// session recording, risk scoring and either token issuance or OTP step-up.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"risk-adaptive-auth/internal/account"
	accountdomain "risk-adaptive-auth/internal/account/domain"
	"risk-adaptive-auth/internal/audit"
	auditdomain "risk-adaptive-auth/internal/audit/domain"
	"risk-adaptive-auth/internal/device"
	"risk-adaptive-auth/internal/logging"
	"risk-adaptive-auth/internal/mfa"
	mfadomain "risk-adaptive-auth/internal/mfa/domain"
	"risk-adaptive-auth/internal/notification"
	"risk-adaptive-auth/internal/portal"
	"risk-adaptive-auth/internal/ratelimit"
	"risk-adaptive-auth/internal/risk"
	"risk-adaptive-auth/internal/session"
	sessiondomain "risk-adaptive-auth/internal/session/domain"
	"risk-adaptive-auth/internal/token"
	tokendomain "risk-adaptive-auth/internal/token/domain"
)

const (
	defaultMaxAttempts     = 5
	defaultThrottleWindow  = 5 * time.Minute
	defaultDispatchTimeout = 5 * time.Second
)

// Credentials are the first-factor inputs of a login.
type Credentials struct {
	Email    string
	Password string
}

// AccountDirectory is the user directory the service reads.
type AccountDirectory interface {
	FindByEmail(ctx context.Context, email string) (*accountdomain.Account, error)
	GetByID(ctx context.Context, id string) (*accountdomain.Account, error)
	VerifyPassword(a *accountdomain.Account, password string) bool
}

// SessionRegistry records and looks up login sessions.
type SessionRegistry interface {
	Create(ctx context.Context, in session.NewSession) (*sessiondomain.Session, error)
	GetByID(ctx context.Context, id string) (*sessiondomain.Session, error)
	MarkDeviceLoggedOut(ctx context.Context, id string) error
	ListByAccount(ctx context.Context, accountID string, limit int32) ([]*sessiondomain.Session, error)
}

// RiskScorer decides whether a fresh session needs step-up.
type RiskScorer interface {
	Score(ctx context.Context, acct *accountdomain.Account, sess *sessiondomain.Session) (risk.Assessment, error)
}

// TokenIssuer mints, rotates and revokes tokens.
type TokenIssuer interface {
	Issue(ctx context.Context, acct *accountdomain.Account, sessionID, guard string) (*tokendomain.TokenPair, error)
	Refresh(ctx context.Context, raw string) (*tokendomain.TokenPair, *tokendomain.RefreshToken, error)
	RevokeSession(ctx context.Context, sessionID string) error
}

// OTPVerifier generates and checks step-up codes.
type OTPVerifier interface {
	Generate(ctx context.Context, accountID, sessionID string) (string, *mfadomain.Challenge, error)
	Verify(ctx context.Context, accountID, sessionID, code string) (mfa.Outcome, error)
}

// Throttle is an atomic fixed-window counter.
type Throttle interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Observer receives login outcomes for metrics. Implementations must not block.
type Observer interface {
	LoginOutcome(ctx context.Context, outcome string)
	RiskScore(ctx context.Context, value int, suspicious bool)
}

// Deps holds the AuthService collaborators and settings. Zero settings use defaults.
type Deps struct {
	Accounts AccountDirectory
	Sessions SessionRegistry
	Risk     RiskScorer
	Tokens   TokenIssuer
	OTP      OTPVerifier
	Throttle Throttle
	Audit    audit.Recorder
	Notifier notification.Dispatcher
	Observer Observer
	Logger   *zap.Logger

	MaxAttempts     int
	ThrottleWindow  time.Duration
	DispatchTimeout time.Duration
	// OperationTimeout bounds every public call; zero leaves the caller's deadline alone.
	OperationTimeout time.Duration
	// ReturnOTPToClient copies the code into LoginResult.DevOTP. Never set in production.
	ReturnOTPToClient bool
}

// AuthService implements login, OTP verification, refresh and logout.
type AuthService struct {
	accounts AccountDirectory
	sessions SessionRegistry
	risk     RiskScorer
	tokens   TokenIssuer
	otp      OTPVerifier
	throttle Throttle
	audit    audit.Recorder
	notifier notification.Dispatcher
	observer Observer
	logger   *zap.Logger

	maxAttempts      int
	window           time.Duration
	dispatchTimeout  time.Duration
	operationTimeout time.Duration
	returnOTP        bool
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(d Deps) *AuthService {
	if d.MaxAttempts <= 0 {
		d.MaxAttempts = defaultMaxAttempts
	}
	if d.ThrottleWindow <= 0 {
		d.ThrottleWindow = defaultThrottleWindow
	}
	if d.DispatchTimeout <= 0 {
		d.DispatchTimeout = defaultDispatchTimeout
	}
	return &AuthService{
		accounts:         d.Accounts,
		sessions:         d.Sessions,
		risk:             d.Risk,
		tokens:           d.Tokens,
		otp:              d.OTP,
		throttle:         d.Throttle,
		audit:            d.Audit,
		notifier:         d.Notifier,
		observer:         d.Observer,
		logger:           logging.OrNop(d.Logger),
		maxAttempts:      d.MaxAttempts,
		window:           d.ThrottleWindow,
		dispatchTimeout:  d.DispatchTimeout,
		operationTimeout: d.OperationTimeout,
		returnOTP:        d.ReturnOTPToClient,
	}
}

// Login runs the credential phase. Expected refusals are returned as *DeclineError; any
// other error is an infrastructure fault.
func (s *AuthService) Login(ctx context.Context, creds Credentials, portalName string, client sessiondomain.ClientContext) (*LoginResult, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	email := accountdomain.CanonicalEmail(creds.Email)
	count, err := s.throttle.Hit(ctx, ratelimit.ThrottleKey(email), s.window)
	if err != nil {
		return nil, fmt.Errorf("login: throttle: %w", err)
	}
	if count > int64(s.maxAttempts) {
		s.outcome(ctx, string(ReasonRateLimited))
		return nil, decline(ReasonRateLimited, nil)
	}

	acct, err := s.accounts.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, account.ErrNotFound) {
		return nil, fmt.Errorf("login: lookup account: %w", err)
	}
	if !s.accounts.VerifyPassword(acct, creds.Password) {
		s.countFailure(ctx, email)
		ev := s.event(auditdomain.EventLoginFailed, client)
		ev.Email = email
		ev.Meta = map[string]any{"reason": string(ReasonInvalidCredentials)}
		if acct != nil {
			ev.AccountID = acct.ID
		}
		return nil, s.declineAudited(ctx, ev, ReasonInvalidCredentials, nil)
	}
	trace := []State{StateCredentialsChecked}

	if !acct.Active() {
		ev := s.accountEvent(auditdomain.EventLoginFailed, acct, client)
		ev.Meta = map[string]any{"reason": "inactive_account"}
		return nil, s.declineAudited(ctx, ev, ReasonAccountInactive, trace)
	}

	portalName = strings.ToLower(strings.TrimSpace(portalName))
	guard, err := portal.ResolveGuard(portalName, acct.Roles)
	if err != nil {
		s.countFailure(ctx, email)
		ev := s.accountEvent(auditdomain.EventLoginFailed, acct, client)
		ev.Meta = map[string]any{"reason": string(ReasonPortalUnauthorized), "portal": portalName}
		return nil, s.declineAudited(ctx, ev, ReasonPortalUnauthorized, trace)
	}
	if portalName == "" {
		portalName = portalFor(guard)
	}
	trace = append(trace, StatePortalValidated)

	sess, err := s.sessions.Create(ctx, session.NewSession{
		AccountID: acct.ID,
		Email:     acct.Email,
		Guard:     string(guard),
		Portal:    portalName,
		Client:    client,
	})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	trace = append(trace, StateSessionCreated)

	assessment, err := s.risk.Score(ctx, acct, sess)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	trace = append(trace, StateRiskEvaluated)
	if s.observer != nil {
		s.observer.RiskScore(ctx, assessment.RiskValue, assessment.IsSuspicious)
	}

	res := &LoginResult{
		SessionID: sess.ID,
		Guard:     string(guard),
		Portal:    portalName,
		Account:   summarize(acct),
		Session:   sess,
		Risk:      assessment,
	}
	if assessment.IsSuspicious {
		return s.stepUp(ctx, acct, sess, client, res, trace)
	}

	pair, err := s.tokens.Issue(ctx, acct, sess.ID, string(guard))
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	ev := s.sessionEvent(auditdomain.EventLoginSuccess, acct, sess)
	ev.Meta = map[string]any{"portal": portalName, "guard": string(guard), "risk": assessment.RiskValue}
	if err := s.audit.Record(ctx, ev); err != nil {
		return nil, err
	}
	res.Tokens = pair
	res.State = StateTokenIssued
	res.Trace = append(trace, StateTokenIssued)
	s.outcome(ctx, "token_issued")
	return res, nil
}

func (s *AuthService) stepUp(ctx context.Context, acct *accountdomain.Account, sess *sessiondomain.Session, client sessiondomain.ClientContext, res *LoginResult, trace []State) (*LoginResult, error) {
	code, challenge, err := s.otp.Generate(ctx, acct.ID, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	delivered := s.dispatch(ctx, acct, sess, challenge, code)

	ev := s.sessionEvent(auditdomain.EventOTPSent, acct, sess)
	ev.Meta = map[string]any{
		"reason":    "suspicious_login",
		"risk":      res.Risk.RiskValue,
		"signals":   res.Risk.Reasons,
		"delivered": delivered,
	}
	if err := s.audit.Record(ctx, ev); err != nil {
		return nil, err
	}
	res.RequiresVerification = true
	res.State = StateOTPPending
	res.Trace = append(trace, StateOTPPending)
	if s.returnOTP {
		res.DevOTP = code
	}
	s.outcome(ctx, "otp_pending")
	return res, nil
}

// dispatch delivers the code best-effort. Failure never undoes the stored challenge.
func (s *AuthService) dispatch(ctx context.Context, acct *accountdomain.Account, sess *sessiondomain.Session, c *mfadomain.Challenge, code string) bool {
	if s.notifier == nil {
		return false
	}
	dctx, cancel := context.WithTimeout(ctx, s.dispatchTimeout)
	defer cancel()
	err := s.notifier.SendOTP(dctx, notification.OTPMessage{
		AccountID:   acct.ID,
		Email:       acct.Email,
		Phone:       acct.Phone,
		Name:        acct.Name,
		SessionID:   sess.ID,
		ChallengeID: c.ID,
		Code:        code,
		ExpiresAt:   c.ExpiresAt,
	})
	if err != nil {
		s.logger.Warn("otp dispatch failed", zap.String("account_id", acct.ID), zap.String("session_id", sess.ID), zap.Error(err))
		return false
	}
	return true
}

// VerifyOTP runs the step-up phase for a session left in OTP_PENDING.
func (s *AuthService) VerifyOTP(ctx context.Context, accountID, sessionID, code string, client sessiondomain.ClientContext) (*LoginResult, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	trace := []State{StateOTPPending}

	sess, err := s.ownedSession(ctx, accountID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil || !sess.Active() {
		ev := s.event(auditdomain.EventOTPFailed, client)
		ev.AccountID = accountID
		ev.Meta = map[string]any{"reason": string(ReasonInvalidSession), "session_id": sessionID}
		return nil, s.declineAudited(ctx, ev, ReasonInvalidSession, append(trace, StateOTPFailed))
	}

	outcome, err := s.otp.Verify(ctx, accountID, sessionID, strings.TrimSpace(code))
	if err != nil {
		return nil, fmt.Errorf("verify otp: %w", err)
	}
	if outcome != mfa.Verified {
		reason := ReasonInvalidOrExpiredOTP
		if outcome == mfa.AttemptsExceeded {
			reason = ReasonOTPAttemptsExceeded
		}
		ev := s.sessionEvent(auditdomain.EventOTPFailed, nil, sess)
		ev.AccountID = accountID
		ev.Meta = map[string]any{"reason": outcome.String()}
		return nil, s.declineAudited(ctx, ev, reason, append(trace, StateOTPFailed))
	}
	trace = append(trace, StateOTPVerified)

	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil && !errors.Is(err, account.ErrNotFound) {
		return nil, fmt.Errorf("verify otp: %w", err)
	}
	if acct == nil || !acct.Active() {
		ev := s.sessionEvent(auditdomain.EventLoginFailed, acct, sess)
		ev.AccountID = accountID
		ev.Meta = map[string]any{"reason": "inactive_account"}
		return nil, s.declineAudited(ctx, ev, ReasonAccountInactive, trace)
	}

	pair, err := s.tokens.Issue(ctx, acct, sess.ID, sess.Guard)
	if err != nil {
		return nil, fmt.Errorf("verify otp: %w", err)
	}
	ev := s.sessionEvent(auditdomain.EventOTPVerified, acct, sess)
	ev.Meta = map[string]any{"portal": sess.Portal, "guard": sess.Guard}
	if err := s.audit.Record(ctx, ev); err != nil {
		return nil, err
	}
	s.outcome(ctx, "otp_verified")
	return &LoginResult{
		State:     StateTokenIssued,
		Trace:     append(trace, StateTokenIssued),
		SessionID: sess.ID,
		Guard:     sess.Guard,
		Portal:    sess.Portal,
		Tokens:    pair,
		Account:   summarize(acct),
		Session:   sess,
	}, nil
}

// RefreshToken redeems a refresh secret for a rotated pair.
func (s *AuthService) RefreshToken(ctx context.Context, raw string, client sessiondomain.ClientContext) (*tokendomain.TokenPair, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	pair, row, err := s.tokens.Refresh(ctx, strings.TrimSpace(raw))
	if errors.Is(err, token.ErrInvalidRefreshToken) {
		ev := s.event(auditdomain.EventRefreshFailed, client)
		ev.Meta = map[string]any{"reason": string(ReasonInvalidRefreshToken)}
		return nil, s.declineAudited(ctx, ev, ReasonInvalidRefreshToken, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	ev := s.event(auditdomain.EventTokenRefreshed, client)
	ev.AccountID = row.AccountID
	ev.SessionID = row.SessionID
	if err := s.audit.Record(ctx, ev); err != nil {
		return nil, err
	}
	return pair, nil
}

// LogoutCurrentDevice revokes the access of the caller's own session.
func (s *AuthService) LogoutCurrentDevice(ctx context.Context, accountID, sessionID string, client sessiondomain.ClientContext) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	sess, err := s.ownedSession(ctx, accountID, sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return decline(ReasonInvalidSession, nil)
	}
	if err := s.tokens.RevokeSession(ctx, sess.ID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	ev := s.sessionEvent(auditdomain.EventLogout, nil, sess)
	ev.IP, ev.Device, ev.Browser = clientFields(client)
	return s.audit.Record(ctx, ev)
}

// LogoutDevice signs out one of the account's sessions. Other sessions are unaffected.
func (s *AuthService) LogoutDevice(ctx context.Context, accountID, targetSessionID string, client sessiondomain.ClientContext) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	sess, err := s.ownedSession(ctx, accountID, targetSessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return decline(ReasonInvalidSession, nil)
	}
	if err := s.sessions.MarkDeviceLoggedOut(ctx, sess.ID); err != nil {
		return fmt.Errorf("logout device: %w", err)
	}
	if err := s.tokens.RevokeSession(ctx, sess.ID); err != nil {
		return fmt.Errorf("logout device: %w", err)
	}
	ev := s.event(auditdomain.EventDeviceLogout, client)
	ev.AccountID = accountID
	ev.Email = sess.Email
	ev.SessionID = sess.ID
	ev.Meta = map[string]any{"device": sess.Device, "browser": sess.Browser, "ip": sess.IP}
	return s.audit.Record(ctx, ev)
}

// ListSessions returns the account's login history, newest first.
func (s *AuthService) ListSessions(ctx context.Context, accountID string, limit int32) ([]*sessiondomain.Session, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.sessions.ListByAccount(ctx, accountID, limit)
}

// ownedSession returns the session when it exists and belongs to accountID, nil otherwise.
func (s *AuthService) ownedSession(ctx context.Context, accountID, sessionID string) (*sessiondomain.Session, error) {
	if accountID == "" || sessionID == "" {
		return nil, nil
	}
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sess.AccountID != accountID {
		return nil, nil
	}
	return sess, nil
}

func (s *AuthService) declineAudited(ctx context.Context, ev *auditdomain.AuditEvent, reason Reason, trace []State) error {
	if err := s.audit.Record(ctx, ev); err != nil {
		return err
	}
	s.outcome(ctx, string(reason))
	return decline(reason, trace)
}

// countFailure bumps the failed-login density counter. It never gates, so errors are logged only.
func (s *AuthService) countFailure(ctx context.Context, email string) {
	if _, err := s.throttle.Hit(ctx, ratelimit.FailureKey(email), s.window); err != nil {
		s.logger.Warn("failed login counter unavailable", zap.Error(err))
	}
}

func (s *AuthService) outcome(ctx context.Context, outcome string) {
	if s.observer != nil {
		s.observer.LoginOutcome(ctx, outcome)
	}
}

func (s *AuthService) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.operationTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.operationTimeout)
}

func (s *AuthService) event(kind auditdomain.Event, client sessiondomain.ClientContext) *auditdomain.AuditEvent {
	ev := &auditdomain.AuditEvent{Event: kind}
	ev.IP, ev.Device, ev.Browser = clientFields(client)
	return ev
}

func (s *AuthService) accountEvent(kind auditdomain.Event, acct *accountdomain.Account, client sessiondomain.ClientContext) *auditdomain.AuditEvent {
	ev := s.event(kind, client)
	ev.AccountID = acct.ID
	ev.Email = acct.Email
	return ev
}

func (s *AuthService) sessionEvent(kind auditdomain.Event, acct *accountdomain.Account, sess *sessiondomain.Session) *auditdomain.AuditEvent {
	ev := &auditdomain.AuditEvent{
		Event:     kind,
		AccountID: sess.AccountID,
		Email:     sess.Email,
		SessionID: sess.ID,
		IP:        sess.IP,
		Device:    sess.Device,
		Browser:   sess.Browser,
	}
	if acct != nil {
		ev.AccountID = acct.ID
		ev.Email = acct.Email
	}
	return ev
}

func clientFields(client sessiondomain.ClientContext) (ip, deviceClass, browser string) {
	info := device.Parse(client.UserAgent)
	return client.IP, string(info.Class), info.Browser
}

func summarize(acct *accountdomain.Account) AccountSummary {
	return AccountSummary{
		ID:    acct.ID,
		Email: acct.Email,
		Name:  acct.Name,
		Roles: append([]string(nil), acct.Roles...),
	}
}

func portalFor(guard portal.Guard) string {
	if guard == portal.AdminScope {
		return portal.Admin
	}
	return portal.Customer
}
