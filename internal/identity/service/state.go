package service

import (
	"errors"

	"risk-adaptive-auth/internal/risk"
	sessiondomain "risk-adaptive-auth/internal/session/domain"
	tokendomain "risk-adaptive-auth/internal/token/domain"
)

// State is a step of the two-phase login. A login call ends in TOKEN_ISSUED or OTP_PENDING;
// a verify call starts from OTP_PENDING and ends in TOKEN_ISSUED or OTP_FAILED.
type State string

const (
	StateCredentialsChecked State = "CREDENTIALS_CHECKED"
	StatePortalValidated    State = "PORTAL_VALIDATED"
	StateSessionCreated     State = "SESSION_CREATED"
	StateRiskEvaluated      State = "RISK_EVALUATED"
	StateTokenIssued        State = "TOKEN_ISSUED"
	StateOTPPending         State = "OTP_PENDING"
	StateOTPVerified        State = "OTP_VERIFIED"
	StateOTPFailed          State = "OTP_FAILED"
)

// Reason is the stable code of a declined operation.
type Reason string

const (
	ReasonRateLimited         Reason = "rate_limited"
	ReasonInvalidCredentials  Reason = "invalid_credentials"
	ReasonAccountInactive     Reason = "account_inactive"
	ReasonPortalUnauthorized  Reason = "portal_unauthorized"
	ReasonInvalidSession      Reason = "invalid_session"
	ReasonInvalidOrExpiredOTP Reason = "invalid_or_expired_otp"
	ReasonOTPAttemptsExceeded Reason = "otp_attempts_exceeded"
	ReasonInvalidRefreshToken Reason = "invalid_refresh_token"
)

var reasonMessages = map[Reason]string{
	ReasonRateLimited:         "too many attempts, retry later",
	ReasonInvalidCredentials:  "invalid credentials",
	ReasonAccountInactive:     "account is inactive",
	ReasonPortalUnauthorized:  "not authorized for this portal",
	ReasonInvalidSession:      "invalid session",
	ReasonInvalidOrExpiredOTP: "invalid or expired otp",
	ReasonOTPAttemptsExceeded: "too many otp attempts, log in again",
	ReasonInvalidRefreshToken: "invalid or expired refresh token",
}

// DeclineError is an expected, recoverable refusal. Trace holds the states reached before
// the decline.
type DeclineError struct {
	Reason Reason
	Trace  []State
}

func (e *DeclineError) Error() string {
	if msg, ok := reasonMessages[e.Reason]; ok {
		return msg
	}
	return string(e.Reason)
}

// Is matches any DeclineError with the same reason.
func (e *DeclineError) Is(target error) bool {
	t, ok := target.(*DeclineError)
	return ok && t.Reason == e.Reason
}

// AsDecline returns the DeclineError in err's chain, if any.
func AsDecline(err error) (*DeclineError, bool) {
	var d *DeclineError
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

func decline(reason Reason, trace []State) *DeclineError {
	return &DeclineError{Reason: reason, Trace: append([]State(nil), trace...)}
}

// Sentinel declines for errors.Is checks.
var (
	ErrRateLimited         = &DeclineError{Reason: ReasonRateLimited}
	ErrInvalidCredentials  = &DeclineError{Reason: ReasonInvalidCredentials}
	ErrAccountInactive     = &DeclineError{Reason: ReasonAccountInactive}
	ErrPortalUnauthorized  = &DeclineError{Reason: ReasonPortalUnauthorized}
	ErrInvalidSession      = &DeclineError{Reason: ReasonInvalidSession}
	ErrInvalidOrExpiredOTP = &DeclineError{Reason: ReasonInvalidOrExpiredOTP}
	ErrOTPAttemptsExceeded = &DeclineError{Reason: ReasonOTPAttemptsExceeded}
	ErrInvalidRefreshToken = &DeclineError{Reason: ReasonInvalidRefreshToken}
)

// AccountSummary is the part of the account returned to the client.
type AccountSummary struct {
	ID    string
	Email string
	Name  string
	Roles []string
}

// LoginResult is the outcome of Login or VerifyOTP.
type LoginResult struct {
	State State
	Trace []State

	RequiresVerification bool
	SessionID            string
	// Guard and Portal route the client to the area it was granted.
	Guard  string
	Portal string

	Tokens  *tokendomain.TokenPair
	Account AccountSummary
	Session *sessiondomain.Session
	Risk    risk.Assessment

	// DevOTP is set only when codes are returned to clients outside production.
	DevOTP string
}
