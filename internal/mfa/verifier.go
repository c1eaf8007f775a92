// Package mfa issues and verifies step-up one-time passwords bound to a login session.
package mfa

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"risk-adaptive-auth/internal/mfa/domain"
	mfarepo "risk-adaptive-auth/internal/mfa/repository"
)

// Outcome is the result of a verification attempt.
type Outcome int

const (
	// Invalid covers a missing, expired or mismatched challenge.
	Invalid Outcome = iota
	// Verified means the code matched and the challenge was consumed.
	Verified
	// AttemptsExceeded means this guess exhausted the challenge; it has been deleted.
	AttemptsExceeded
)

func (o Outcome) String() string {
	switch o {
	case Verified:
		return "verified"
	case AttemptsExceeded:
		return "attempts_exceeded"
	default:
		return "invalid"
	}
}

// Verifier generates and checks OTP challenges.
type Verifier struct {
	repo        mfarepo.Repository
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
}

// NewVerifier returns a Verifier. ttl <= 0 uses DefaultChallengeTTL; maxAttempts <= 0 disables
// the per-challenge attempt cap.
func NewVerifier(repo mfarepo.Repository, ttl time.Duration, maxAttempts int, now func() time.Time) *Verifier {
	if ttl <= 0 {
		ttl = mfarepo.DefaultChallengeTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Verifier{repo: repo, ttl: ttl, maxAttempts: maxAttempts, now: now}
}

// Generate creates a fresh challenge for (accountID, sessionID) and returns the plaintext code
// for delivery. Earlier challenges for the pair are superseded, not deleted.
func (v *Verifier) Generate(ctx context.Context, accountID, sessionID string) (string, *domain.Challenge, error) {
	code, err := GenerateOTP()
	if err != nil {
		return "", nil, fmt.Errorf("mfa: generate code: %w", err)
	}
	now := v.now().UTC()
	c := &domain.Challenge{
		ID:        uuid.New().String(),
		AccountID: accountID,
		SessionID: sessionID,
		CodeHash:  HashOTP(code),
		ExpiresAt: now.Add(v.ttl),
		CreatedAt: now,
	}
	if err := v.repo.Create(ctx, c); err != nil {
		return "", nil, fmt.Errorf("mfa: store challenge: %w", err)
	}
	return code, c, nil
}

// Verify checks code against the latest challenge for the pair. Only the latest challenge is
// consulted. A match deletes the challenge, so a code is usable once.
func (v *Verifier) Verify(ctx context.Context, accountID, sessionID, code string) (Outcome, error) {
	c, err := v.repo.Latest(ctx, accountID, sessionID)
	if err != nil {
		return Invalid, fmt.Errorf("mfa: load challenge: %w", err)
	}
	if c == nil || c.Expired(v.now()) {
		return Invalid, nil
	}
	if !WellFormed(code) || !OTPEqual(code, c.CodeHash) {
		return v.recordFailure(ctx, c)
	}
	deleted, err := v.repo.Delete(ctx, c.ID)
	if err != nil {
		return Invalid, fmt.Errorf("mfa: consume challenge: %w", err)
	}
	// A concurrent verify already consumed it.
	if !deleted {
		return Invalid, nil
	}
	return Verified, nil
}

// Sweep deletes challenges that expired before now and returns how many were removed.
func (v *Verifier) Sweep(ctx context.Context) (int64, error) {
	n, err := v.repo.DeleteExpired(ctx, v.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("mfa: sweep: %w", err)
	}
	return n, nil
}

func (v *Verifier) recordFailure(ctx context.Context, c *domain.Challenge) (Outcome, error) {
	if v.maxAttempts <= 0 {
		return Invalid, nil
	}
	attempts, err := v.repo.IncrementAttempts(ctx, c.ID)
	if err != nil {
		return Invalid, fmt.Errorf("mfa: count attempt: %w", err)
	}
	if attempts < v.maxAttempts {
		return Invalid, nil
	}
	if _, err := v.repo.Delete(ctx, c.ID); err != nil {
		return Invalid, fmt.Errorf("mfa: drop exhausted challenge: %w", err)
	}
	return AttemptsExceeded, nil
}
