// Package token issues access/refresh token pairs and rotates refresh tokens.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"risk-adaptive-auth/internal/account"
	accountdomain "risk-adaptive-auth/internal/account/domain"
	"risk-adaptive-auth/internal/logging"
	"risk-adaptive-auth/internal/security"
	"risk-adaptive-auth/internal/token/domain"
	tokenrepo "risk-adaptive-auth/internal/token/repository"
)

// TokenTypeBearer is the token_type of every pair.
const TokenTypeBearer = "Bearer"

// DefaultRefreshTTL is the refresh token lifetime when none is configured.
const DefaultRefreshTTL = 30 * 24 * time.Hour

var (
	// ErrInvalidRefreshToken covers unknown, expired, rotated-away and orphaned refresh tokens.
	ErrInvalidRefreshToken = errors.New("token: invalid refresh token")
)

// AccountLookup resolves the owner of a refresh token. A missing account is reported as
// account.ErrNotFound or a nil account.
type AccountLookup interface {
	GetByID(ctx context.Context, id string) (*accountdomain.Account, error)
}

// Issuer mints token pairs and rotates refresh tokens.
type Issuer struct {
	repo        tokenrepo.Repository
	provider    *security.TokenProvider
	accounts    AccountLookup
	revocations Revocations
	refreshTTL  time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

// Config bundles the Issuer's collaborators. RefreshTTL <= 0 uses DefaultRefreshTTL.
type Config struct {
	Repo        tokenrepo.Repository
	Provider    *security.TokenProvider
	Accounts    AccountLookup
	Revocations Revocations
	RefreshTTL  time.Duration
	Now         func() time.Time
	Logger      *zap.Logger
}

// NewIssuer returns an Issuer.
func NewIssuer(cfg Config) *Issuer {
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Issuer{
		repo:        cfg.Repo,
		provider:    cfg.Provider,
		accounts:    cfg.Accounts,
		revocations: cfg.Revocations,
		refreshTTL:  cfg.RefreshTTL,
		now:         cfg.Now,
		logger:      logging.OrNop(cfg.Logger),
	}
}

// Issue mints an access token bound to sessionID and guard and stores a new refresh token row.
func (i *Issuer) Issue(ctx context.Context, acct *accountdomain.Account, sessionID, guard string) (*domain.TokenPair, error) {
	secret, err := security.GenerateRefreshSecret()
	if err != nil {
		return nil, fmt.Errorf("token: refresh secret: %w", err)
	}
	now := i.now().UTC()
	row := &domain.RefreshToken{
		ID:        uuid.New().String(),
		AccountID: acct.ID,
		SessionID: sessionID,
		Guard:     guard,
		TokenHash: security.HashRefreshSecret(secret),
		CreatedAt: now,
		ExpiresAt: now.Add(i.refreshTTL),
	}
	if err := i.repo.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("token: store refresh token: %w", err)
	}
	return i.pair(acct, sessionID, guard, secret)
}

// Refresh exchanges a refresh secret for a new pair. The presented secret stops working: the
// same row is rotated to a new hash with a compare-and-swap, so of two concurrent calls with
// the same secret at most one succeeds.
func (i *Issuer) Refresh(ctx context.Context, raw string) (*domain.TokenPair, *domain.RefreshToken, error) {
	if raw == "" {
		return nil, nil, ErrInvalidRefreshToken
	}
	oldHash := security.HashRefreshSecret(raw)
	row, err := i.repo.GetByHash(ctx, oldHash)
	if err != nil {
		return nil, nil, fmt.Errorf("token: lookup refresh token: %w", err)
	}
	now := i.now().UTC()
	if row == nil || !security.RefreshSecretHashEqual(raw, row.TokenHash) || row.Expired(now) {
		return nil, nil, ErrInvalidRefreshToken
	}
	acct, err := i.accounts.GetByID(ctx, row.AccountID)
	if err != nil && !errors.Is(err, account.ErrNotFound) {
		return nil, nil, fmt.Errorf("token: resolve account: %w", err)
	}
	if acct == nil || !acct.Active() {
		return nil, row, ErrInvalidRefreshToken
	}

	secret, err := security.GenerateRefreshSecret()
	if err != nil {
		return nil, nil, fmt.Errorf("token: refresh secret: %w", err)
	}
	newHash := security.HashRefreshSecret(secret)
	expiresAt := now.Add(i.refreshTTL)
	swapped, err := i.repo.Rotate(ctx, row.ID, oldHash, newHash, now, expiresAt)
	if err != nil {
		return nil, nil, fmt.Errorf("token: rotate refresh token: %w", err)
	}
	if !swapped {
		i.logger.Warn("refresh token rotated concurrently", zap.String("session_id", row.SessionID))
		return nil, row, ErrInvalidRefreshToken
	}
	row.TokenHash = newHash
	row.RotatedAt = &now
	row.ExpiresAt = expiresAt

	pair, err := i.pair(acct, row.SessionID, row.Guard, secret)
	if err != nil {
		return nil, nil, err
	}
	return pair, row, nil
}

// RevokeSession stops the session's access tokens (until they would have expired anyway) and
// expires its refresh tokens.
func (i *Issuer) RevokeSession(ctx context.Context, sessionID string) error {
	if i.revocations != nil {
		if err := i.revocations.Revoke(ctx, sessionID, i.provider.AccessTTL()); err != nil {
			return fmt.Errorf("token: revoke access: %w", err)
		}
	}
	if err := i.repo.ExpireBySession(ctx, sessionID, i.now().UTC()); err != nil {
		return fmt.Errorf("token: expire refresh tokens: %w", err)
	}
	return nil
}

// IsRevoked reports whether access tokens of sessionID were revoked.
func (i *Issuer) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	if i.revocations == nil {
		return false, nil
	}
	return i.revocations.IsRevoked(ctx, sessionID)
}

func (i *Issuer) pair(acct *accountdomain.Account, sessionID, guard, secret string) (*domain.TokenPair, error) {
	access, _, exp, err := i.provider.IssueAccess(sessionID, acct.ID, guard, acct.Roles)
	if err != nil {
		return nil, fmt.Errorf("token: issue access token: %w", err)
	}
	return &domain.TokenPair{
		AccessToken:     access,
		RefreshToken:    secret,
		TokenType:       TokenTypeBearer,
		ExpiresIn:       int64(i.provider.AccessTTL() / time.Second),
		AccessExpiresAt: exp,
		SessionID:       sessionID,
		Guard:           guard,
	}, nil
}
