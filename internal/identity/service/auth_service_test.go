package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"risk-adaptive-auth/internal/account"
	accountdomain "risk-adaptive-auth/internal/account/domain"
	accountrepo "risk-adaptive-auth/internal/account/repository"
	"risk-adaptive-auth/internal/audit"
	auditdomain "risk-adaptive-auth/internal/audit/domain"
	auditrepo "risk-adaptive-auth/internal/audit/repository"
	"risk-adaptive-auth/internal/mfa"
	mfarepo "risk-adaptive-auth/internal/mfa/repository"
	"risk-adaptive-auth/internal/notification"
	"risk-adaptive-auth/internal/ratelimit"
	"risk-adaptive-auth/internal/risk"
	"risk-adaptive-auth/internal/security"
	"risk-adaptive-auth/internal/session"
	sessiondomain "risk-adaptive-auth/internal/session/domain"
	sessionrepo "risk-adaptive-auth/internal/session/repository"
	"risk-adaptive-auth/internal/token"
	tokenrepo "risk-adaptive-auth/internal/token/repository"
)

const (
	desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	mobileUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	password  = "correct horse"
)

var (
	homeDesktop = sessiondomain.ClientContext{IP: "10.0.0.1", UserAgent: desktopUA}
	travelPhone = sessiondomain.ClientContext{IP: "203.0.113.9", UserAgent: mobileUA}
)

type sentOTPs struct {
	mu   sync.Mutex
	msgs []notification.OTPMessage
	err  error
}

func (s *sentOTPs) SendOTP(ctx context.Context, msg notification.OTPMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return s.err
}

func (s *sentOTPs) last(t *testing.T) notification.OTPMessage {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.msgs, "no otp dispatched")
	return s.msgs[len(s.msgs)-1]
}

type countingObserver struct {
	mu       sync.Mutex
	outcomes map[string]int
	scores   []int
}

func (o *countingObserver) LoginOutcome(ctx context.Context, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes[outcome]++
}

func (o *countingObserver) RiskScore(ctx context.Context, value int, suspicious bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.scores = append(o.scores, value)
}

type harness struct {
	svc      *AuthService
	accounts *accountrepo.MemoryRepository
	registry *session.Registry
	audits   *auditrepo.MemoryRepository
	otps     *mfarepo.MemoryRepository
	sent     *sentOTPs
	observer *countingObserver
	issuer   *token.Issuer
	provider *security.TokenProvider
	redis    *miniredis.Miniredis
	hasher   *security.Hasher
	clock    time.Time
}

func newHarness(t *testing.T, mutate ...func(*Deps)) *harness {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	provider, err := security.NewTestTokenProvider()
	require.NoError(t, err)

	h := &harness{
		accounts: accountrepo.NewMemoryRepository(),
		audits:   auditrepo.NewMemoryRepository(),
		otps:     mfarepo.NewMemoryRepository(),
		sent:     &sentOTPs{},
		observer: &countingObserver{outcomes: map[string]int{}},
		provider: provider,
		redis:    mr,
		hasher:   security.NewHasher(4),
		clock:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	now := func() time.Time { return h.clock }
	h.registry = session.NewRegistry(sessionrepo.NewMemoryRepository(), now)
	h.issuer = token.NewIssuer(token.Config{
		Repo:        tokenrepo.NewMemoryRepository(),
		Provider:    provider,
		Accounts:    account.NewDirectory(h.accounts, h.hasher),
		Revocations: token.NewMemoryRevocations(),
		Now:         now,
	})
	deps := Deps{
		Accounts: account.NewDirectory(h.accounts, h.hasher),
		Sessions: h.registry,
		Risk:     risk.NewEngine(h.registry, nil, risk.DefaultConfig(), nil),
		Tokens:   h.issuer,
		OTP:      mfa.NewVerifier(h.otps, 10*time.Minute, 5, now),
		Throttle: ratelimit.New(rdb),
		Audit:    audit.NewLogger(h.audits, nil),
		Notifier: h.sent,
		Observer: h.observer,
	}
	for _, m := range mutate {
		m(&deps)
	}
	h.svc = NewAuthService(deps)
	return h
}

func (h *harness) addAccount(t *testing.T, id string, roles ...string) *accountdomain.Account {
	t.Helper()
	hash, err := h.hasher.Hash([]byte(password))
	require.NoError(t, err)
	a := &accountdomain.Account{ID: id, Email: id + "@example.com", Name: id, PasswordHash: hash, Roles: roles}
	require.NoError(t, h.accounts.Create(context.Background(), a))
	return a
}

// seed records n earlier logins from client, one day apart, ending before the current clock.
func (h *harness) seed(t *testing.T, a *accountdomain.Account, client sessiondomain.ClientContext, n int) {
	t.Helper()
	start := h.clock
	h.clock = start.Add(-time.Duration(n+1) * 24 * time.Hour)
	for i := 0; i < n; i++ {
		_, err := h.registry.Create(context.Background(), session.NewSession{
			AccountID: a.ID, Email: a.Email, Guard: "customer-scope", Portal: "customer", Client: client,
		})
		require.NoError(t, err)
		h.clock = h.clock.Add(24 * time.Hour)
	}
	h.clock = start
}

func (h *harness) login(email, portalName string, client sessiondomain.ClientContext) (*LoginResult, error) {
	return h.svc.Login(context.Background(), Credentials{Email: email, Password: password}, portalName, client)
}

func (h *harness) events(kind auditdomain.Event) []*auditdomain.AuditEvent {
	var out []*auditdomain.AuditEvent
	for _, e := range h.audits.Events() {
		if e.Event == kind {
			out = append(out, e)
		}
	}
	return out
}

func (h *harness) sessionCount(t *testing.T, accountID string) int {
	t.Helper()
	list, err := h.registry.ListByAccount(context.Background(), accountID, 0)
	require.NoError(t, err)
	return len(list)
}

func TestLogin_FirstLoginStepsUp(t *testing.T) {
	h := newHarness(t)
	h.addAccount(t, "alice", "Customer")

	res, err := h.login("alice@example.com", "customer", homeDesktop)
	require.NoError(t, err)
	assert.Equal(t, StateOTPPending, res.State)
	assert.True(t, res.RequiresVerification)
	assert.Nil(t, res.Tokens)
	assert.Empty(t, res.DevOTP)
	assert.True(t, res.Risk.Forced)
	assert.Contains(t, res.Risk.Reasons, risk.ReasonFirstLogin)
	assert.Equal(t, []State{StateCredentialsChecked, StatePortalValidated, StateSessionCreated, StateRiskEvaluated, StateOTPPending}, res.Trace)

	msg := h.sent.last(t)
	assert.Equal(t, res.SessionID, msg.SessionID)
	assert.Equal(t, "alice@example.com", msg.Email)
	assert.Len(t, msg.Code, 6)

	sent := h.events(auditdomain.EventOTPSent)
	require.Len(t, sent, 1)
	assert.Equal(t, "suspicious_login", sent[0].Meta["reason"])
	assert.Equal(t, res.SessionID, sent[0].SessionID)
	assert.Equal(t, "desktop", sent[0].Device)
	assert.Equal(t, 1, h.observer.outcomes["otp_pending"])
}

func TestLogin_StepUpThenVerify(t *testing.T) {
	h := newHarness(t)
	a := h.addAccount(t, "alice", "Customer")

	res, err := h.login("alice@example.com", "customer", homeDesktop)
	require.NoError(t, err)
	code := h.sent.last(t).Code

	verified, err := h.svc.VerifyOTP(context.Background(), a.ID, res.SessionID, code, homeDesktop)
	require.NoError(t, err)
	assert.Equal(t, StateTokenIssued, verified.State)
	assert.Equal(t, []State{StateOTPPending, StateOTPVerified, StateTokenIssued}, verified.Trace)
	require.NotNil(t, verified.Tokens)
	assert.Equal(t, "customer-scope", verified.Guard)

	claims, err := h.provider.ValidateAccess(verified.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.SessionID, claims.SessionID)
	assert.Len(t, h.events(auditdomain.EventOTPVerified), 1)

	_, err = h.svc.VerifyOTP(context.Background(), a.ID, res.SessionID, code, homeDesktop)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredOTP, "a code is usable once")
}

func TestLogin_EstablishedKnownDevice(t *testing.T) {
	h := newHarness(t)
	a := h.addAccount(t, "bob", "Customer")
	h.seed(t, a, homeDesktop, 6)

	res, err := h.login("bob@example.com", "customer", homeDesktop)
	require.NoError(t, err)
	assert.Equal(t, StateTokenIssued, res.State)
	assert.False(t, res.RequiresVerification)
	assert.Equal(t, 40, res.Risk.RiskValue)
	require.NotNil(t, res.Tokens)
	assert.Equal(t, "Bearer", res.Tokens.TokenType)
	assert.Equal(t, []State{StateCredentialsChecked, StatePortalValidated, StateSessionCreated, StateRiskEvaluated, StateTokenIssued}, res.Trace)

	success := h.events(auditdomain.EventLoginSuccess)
	require.Len(t, success, 1)
	assert.Equal(t, "customer", success[0].Meta["portal"])
	assert.Equal(t, 40, success[0].Meta["risk"])
	assert.Empty(t, h.sent.msgs)
	assert.Equal(t, []int{40}, h.observer.scores)
}

func TestLogin_NewDeviceAndIP(t *testing.T) {
	h := newHarness(t)
	a := h.addAccount(t, "carol", "Customer")
	h.seed(t, a, homeDesktop, 6)

	res, err := h.login("carol@example.com", "customer", travelPhone)
	require.NoError(t, err)
	assert.Equal(t, StateOTPPending, res.State)
	assert.Equal(t, 110, res.Risk.RiskValue)
	assert.Equal(t, []string{risk.ReasonNewDevice, risk.ReasonNewIP, risk.ReasonSessionCount}, res.Risk.Reasons)
	assert.Nil(t, res.Tokens)
}

func TestLogin_RefreshReplayDeclined(t *testing.T) {
	h := newHarness(t)
	a := h.addAccount(t, "dave", "Customer")
	h.seed(t, a, homeDesktop, 6)
	res, err := h.login("dave@example.com", "", homeDesktop)
	require.NoError(t, err)
	require.NotNil(t, res.Tokens)

	rotated, err := h.svc.RefreshToken(context.Background(), res.Tokens.RefreshToken, homeDesktop)
	require.NoError(t, err)
	assert.NotEqual(t, res.Tokens.RefreshToken, rotated.RefreshToken)

	_, err = h.svc.RefreshToken(context.Background(), res.Tokens.RefreshToken, homeDesktop)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	assert.Len(t, h.events(auditdomain.EventTokenRefreshed), 1)
	assert.Len(t, h.events(auditdomain.EventRefreshFailed), 1)
}

func TestLogin_PortalHopDeclined(t *testing.T) {
	h := newHarness(t)
	a := h.addAccount(t, "erin", "Customer")

	_, err := h.login("erin@example.com", "admin", homeDesktop)
	require.ErrorIs(t, err, ErrPortalUnauthorized)
	d, ok := AsDecline(err)
	require.True(t, ok)
	assert.Equal(t, []State{StateCredentialsChecked}, d.Trace)
	assert.Equal(t, 0, h.sessionCount(t, a.ID), "no session for a refused portal")

	failed := h.events(auditdomain.EventLoginFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, "portal_unauthorized", failed[0].Meta["reason"])
	assert.Equal(t, "admin", failed[0].Meta["portal"])
}

func TestLogin_PrivilegedAlwaysStepsUp(t *testing.T) {
	h := newHarness(t)
	a := h.addAccount(t, "root", "Super Admin")
	h.seed(t, a, homeDesktop, 6)

	res, err := h.login("root@example.com", "admin", homeDesktop)
	require.NoError(t, err)
	assert.Equal(t, StateOTPPending, res.State)
	assert.Equal(t, "admin-scope", res.Guard)
	assert.Contains(t, res.Risk.Reasons, risk.ReasonPrivilegedRole)
}

func TestLogin_EmptyPortalDerivesFromRole(t *testing.T) {
	h := newHarness(t)
	h.addAccount(t, "ann", "Admin", "Customer")

	res, err := h.login("ann@example.com", "", homeDesktop)
	require.NoError(t, err)
	assert.Equal(t, "admin-scope", res.Guard)
	assert.Equal(t, "admin", res.Portal)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	h := newHarness(t)
	a := h.addAccount(t, "frank", "Customer")

	_, err := h.svc.Login(context.Background(), Credentials{Email: "frank@example.com", Password: "nope"}, "customer", homeDesktop)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = h.svc.Login(context.Background(), Credentials{Email: "ghost@example.com", Password: password}, "customer", homeDesktop)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	failed := h.events(auditdomain.EventLoginFailed)
	require.Len(t, failed, 2)
	assert.Equal(t, a.ID, failed[0].AccountID)
	assert.Empty(t, failed[1].AccountID)
	assert.Equal(t, "ghost@example.com", failed[1].Email)
	assert.Equal(t, 0, h.sessionCount(t, a.ID))

	n, err := h.redis.Get(ratelimit.FailureKey("frank@example.com"))
	require.NoError(t, err)
	assert.Equal(t, "1", n)
}

func TestLogin_InactiveAccount(t *testing.T) {
	h := newHarness(t)
	a := h.addAccount(t, "gina", "Customer")
	h.accounts.SetStatus(a.ID, accountdomain.StatusInactive)

	_, err := h.login("gina@example.com", "customer", homeDesktop)
	assert.ErrorIs(t, err, ErrAccountInactive)
	assert.Equal(t, 0, h.sessionCount(t, a.ID))
}

func TestLogin_SixthAttemptRateLimited(t *testing.T) {
	h := newHarness(t)
	h.addAccount(t, "hank", "Customer")

	for i := 0; i < 5; i++ {
		_, err := h.svc.Login(context.Background(), Credentials{Email: "hank@example.com", Password: "wrong"}, "customer", homeDesktop)
		require.ErrorIs(t, err, ErrInvalidCredentials, "attempt %d", i+1)
	}
	before := len(h.audits.Events())

	_, err := h.login(" HANK@example.com ", "customer", homeDesktop)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Len(t, h.audits.Events(), before, "throttled attempts are not audited")

	h.redis.FastForward(6 * time.Minute)
	_, err = h.login("hank@example.com", "customer", homeDesktop)
	assert.NoError(t, err)
}

func TestLogin_DevOTPReturnedWhenEnabled(t *testing.T) {
	h := newHarness(t, func(d *Deps) { d.ReturnOTPToClient = true })
	h.addAccount(t, "ivy", "Customer")

	res, err := h.login("ivy@example.com", "customer", homeDesktop)
	require.NoError(t, err)
	assert.Equal(t, h.sent.last(t).Code, res.DevOTP)
}

func TestLogin_DispatchFailureKeepsChallenge(t *testing.T) {
	h := newHarness(t)
	h.sent.err = errors.New("smtp down")
	a := h.addAccount(t, "jay", "Customer")

	res, err := h.login("jay@example.com", "customer", homeDesktop)
	require.NoError(t, err)
	assert.Equal(t, StateOTPPending, res.State)
	assert.Equal(t, 1, h.otps.Len())

	_, err = h.svc.VerifyOTP(context.Background(), a.ID, res.SessionID, h.sent.last(t).Code, homeDesktop)
	assert.NoError(t, err)
}

func TestLogin_AuditFailureFailsOperation(t *testing.T) {
	h := newHarness(t)
	a := h.addAccount(t, "kim", "Customer")
	h.seed(t, a, homeDesktop, 6)
	h.audits.AppendErr = errors.New("disk full")

	_, err := h.login("kim@example.com", "customer", homeDesktop)
	require.Error(t, err)
	_, isDecline := AsDecline(err)
	assert.False(t, isDecline)
}

type stalledDirectory struct {
	AccountDirectory
}

func (d stalledDirectory) FindByEmail(ctx context.Context, email string) (*accountdomain.Account, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestLogin_OperationTimeoutCutsOffSlowDirectory(t *testing.T) {
	h := newHarness(t, func(d *Deps) {
		d.Accounts = stalledDirectory{AccountDirectory: d.Accounts}
		d.OperationTimeout = 20 * time.Millisecond
	})
	a := h.addAccount(t, "wren", "Customer")

	start := time.Now()
	_, err := h.login("wren@example.com", "customer", homeDesktop)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	_, declined := AsDecline(err)
	assert.False(t, declined, "a timeout is an infrastructure fault, not a decline")
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Zero(t, h.sessionCount(t, a.ID))
	assert.Empty(t, h.audits.Events())
}

func TestVerifyOTP_WrongSessionOrAccount(t *testing.T) {
	h := newHarness(t)
	a := h.addAccount(t, "lee", "Customer")
	other := h.addAccount(t, "max", "Customer")
	res, err := h.login("lee@example.com", "customer", homeDesktop)
	require.NoError(t, err)
	code := h.sent.last(t).Code

	_, err = h.svc.VerifyOTP(context.Background(), other.ID, res.SessionID, code, homeDesktop)
	assert.ErrorIs(t, err, ErrInvalidSession)
	_, err = h.svc.VerifyOTP(context.Background(), a.ID, "missing", code, homeDesktop)
	assert.ErrorIs(t, err, ErrInvalidSession)

	d, ok := AsDecline(err)
	require.True(t, ok)
	assert.Equal(t, []State{StateOTPPending, StateOTPFailed}, d.Trace)

	_, err = h.svc.VerifyOTP(context.Background(), a.ID, res.SessionID, code, homeDesktop)
	assert.NoError(t, err, "failed lookups do not consume the challenge")
}

func TestVerifyOTP_Expired(t *testing.T) {
	h := newHarness(t)
	a := h.addAccount(t, "ned", "Customer")
	res, err := h.login("ned@example.com", "customer", homeDesktop)
	require.NoError(t, err)

	h.clock = h.clock.Add(10 * time.Minute)
	_, err = h.svc.VerifyOTP(context.Background(), a.ID, res.SessionID, h.sent.last(t).Code, homeDesktop)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredOTP)
	assert.Len(t, h.events(auditdomain.EventOTPFailed), 1)
}

func TestVerifyOTP_AttemptsExceeded(t *testing.T) {
	h := newHarness(t)
	a := h.addAccount(t, "oli", "Customer")
	res, err := h.login("oli@example.com", "customer", homeDesktop)
	require.NoError(t, err)
	code := h.sent.last(t).Code
	wrong := "000000"
	if code == wrong {
		wrong = "000001"
	}

	for i := 0; i < 4; i++ {
		_, err = h.svc.VerifyOTP(context.Background(), a.ID, res.SessionID, wrong, homeDesktop)
		require.ErrorIs(t, err, ErrInvalidOrExpiredOTP)
	}
	_, err = h.svc.VerifyOTP(context.Background(), a.ID, res.SessionID, wrong, homeDesktop)
	assert.ErrorIs(t, err, ErrOTPAttemptsExceeded)
	_, err = h.svc.VerifyOTP(context.Background(), a.ID, res.SessionID, code, homeDesktop)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredOTP, "challenge is gone after the cap")
}

func TestVerifyOTP_LoggedOutSessionRejected(t *testing.T) {
	h := newHarness(t)
	a := h.addAccount(t, "pat", "Customer")
	res, err := h.login("pat@example.com", "customer", homeDesktop)
	require.NoError(t, err)
	require.NoError(t, h.svc.LogoutDevice(context.Background(), a.ID, res.SessionID, homeDesktop))

	_, err = h.svc.VerifyOTP(context.Background(), a.ID, res.SessionID, h.sent.last(t).Code, homeDesktop)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestLogoutDevice(t *testing.T) {
	h := newHarness(t)
	a := h.addAccount(t, "quinn", "Customer")
	h.seed(t, a, homeDesktop, 6)
	first, err := h.login("quinn@example.com", "customer", homeDesktop)
	require.NoError(t, err)
	h.clock = h.clock.Add(time.Hour)
	second, err := h.login("quinn@example.com", "customer", homeDesktop)
	require.NoError(t, err)
	require.NotNil(t, second.Tokens)

	require.NoError(t, h.svc.LogoutDevice(context.Background(), a.ID, first.SessionID, homeDesktop))

	sess, err := h.registry.GetByID(context.Background(), first.SessionID)
	require.NoError(t, err)
	assert.False(t, sess.Active())
	revoked, err := h.issuer.IsRevoked(context.Background(), first.SessionID)
	require.NoError(t, err)
	assert.True(t, revoked)
	revoked, err = h.issuer.IsRevoked(context.Background(), second.SessionID)
	require.NoError(t, err)
	assert.False(t, revoked, "other sessions are unaffected")

	_, err = h.svc.RefreshToken(context.Background(), first.Tokens.RefreshToken, homeDesktop)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	logouts := h.events(auditdomain.EventDeviceLogout)
	require.Len(t, logouts, 1)
	assert.Equal(t, first.SessionID, logouts[0].SessionID)
}

func TestLogin_LoggedOutDeviceScoresAsNew(t *testing.T) {
	h := newHarness(t)
	a := h.addAccount(t, "vera", "Customer")
	h.seed(t, a, homeDesktop, 6)
	first, err := h.login("vera@example.com", "customer", travelPhone)
	require.NoError(t, err)
	require.Equal(t, 110, first.Risk.RiskValue)
	require.NoError(t, h.svc.LogoutDevice(context.Background(), a.ID, first.SessionID, homeDesktop))

	h.clock = h.clock.Add(time.Minute)
	again, err := h.login("vera@example.com", "customer", travelPhone)
	require.NoError(t, err)
	assert.Equal(t, StateOTPPending, again.State)
	assert.Equal(t, 110, again.Risk.RiskValue)
	assert.Equal(t, []string{risk.ReasonNewDevice, risk.ReasonNewIP, risk.ReasonSessionCount}, again.Risk.Reasons)
}

func TestLogoutDevice_ForeignSession(t *testing.T) {
	h := newHarness(t)
	h.addAccount(t, "ray", "Customer")
	other := h.addAccount(t, "sam", "Customer")
	res, err := h.login("ray@example.com", "customer", homeDesktop)
	require.NoError(t, err)

	err = h.svc.LogoutDevice(context.Background(), other.ID, res.SessionID, homeDesktop)
	assert.ErrorIs(t, err, ErrInvalidSession)
	sess, err := h.registry.GetByID(context.Background(), res.SessionID)
	require.NoError(t, err)
	assert.True(t, sess.Active())
}

func TestLogoutCurrentDevice(t *testing.T) {
	h := newHarness(t)
	a := h.addAccount(t, "tess", "Customer")
	h.seed(t, a, homeDesktop, 6)
	res, err := h.login("tess@example.com", "customer", homeDesktop)
	require.NoError(t, err)

	require.NoError(t, h.svc.LogoutCurrentDevice(context.Background(), a.ID, res.SessionID, homeDesktop))
	revoked, err := h.issuer.IsRevoked(context.Background(), res.SessionID)
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Len(t, h.events(auditdomain.EventLogout), 1)
}

func TestListSessions(t *testing.T) {
	h := newHarness(t)
	a := h.addAccount(t, "uma", "Customer")
	h.seed(t, a, homeDesktop, 3)
	res, err := h.login("uma@example.com", "customer", travelPhone)
	require.NoError(t, err)

	list, err := h.svc.ListSessions(context.Background(), a.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, res.SessionID, list[0].ID)
	assert.Equal(t, "mobile", list[0].Device)
}

func TestDeclineError(t *testing.T) {
	err := decline(ReasonRateLimited, []State{StateCredentialsChecked})
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, "too many attempts, retry later", err.Error())

	wrapped := errors.Join(errors.New("ctx"), err)
	d, ok := AsDecline(wrapped)
	require.True(t, ok)
	assert.Equal(t, ReasonRateLimited, d.Reason)
}
