// Package session keeps the per-account history of login records the risk engine reads.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"risk-adaptive-auth/internal/device"
	"risk-adaptive-auth/internal/session/domain"
	sessionrepo "risk-adaptive-auth/internal/session/repository"
)

// ErrNotFound is returned when a session id does not exist.
var ErrNotFound = errors.New("session: not found")

// NewSession carries what the orchestrator knows when a login passes the portal check.
type NewSession struct {
	AccountID string
	Email     string
	Guard     string
	Portal    string
	Client    domain.ClientContext
}

// Registry creates and queries session records.
type Registry struct {
	repo sessionrepo.Repository
	now  func() time.Time
}

// NewRegistry returns a Registry over repo. now may be nil.
func NewRegistry(repo sessionrepo.Repository, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{repo: repo, now: now}
}

// Create records a successful login with a fresh, never reused id. Device class, browser and
// OS are derived from the user agent.
func (r *Registry) Create(ctx context.Context, in NewSession) (*domain.Session, error) {
	info := device.Parse(in.Client.UserAgent)
	now := r.now().UTC()
	s := &domain.Session{
		ID:        uuid.New().String(),
		AccountID: in.AccountID,
		Email:     in.Email,
		Guard:     in.Guard,
		Portal:    in.Portal,
		IP:        in.Client.IP,
		Device:    string(info.Class),
		Browser:   info.Browser,
		OS:        info.OS,
		UserAgent: in.Client.UserAgent,
		Location:  in.Client.Location,
		Success:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.repo.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("session: create: %w", err)
	}
	return s, nil
}

// GetByID returns the session or ErrNotFound.
func (r *Registry) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	s, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("session: get: %w", err)
	}
	if s == nil {
		return nil, ErrNotFound
	}
	return s, nil
}

// MarkDeviceLoggedOut flips the record's success flag. Logging out twice is a no-op.
func (r *Registry) MarkDeviceLoggedOut(ctx context.Context, id string) error {
	if _, err := r.repo.MarkLoggedOut(ctx, id, r.now().UTC()); err != nil {
		return fmt.Errorf("session: logout: %w", err)
	}
	return nil
}

// HasKnownDevice reports whether the account has a successful session other than excludingID on
// this device class. Logged-out devices are not known.
func (r *Registry) HasKnownDevice(ctx context.Context, accountID, deviceClass, excludingID string) (bool, error) {
	ok, err := r.repo.HasDevice(ctx, accountID, deviceClass, excludingID)
	if err != nil {
		return false, fmt.Errorf("session: known device: %w", err)
	}
	return ok, nil
}

// HasKnownIP reports whether the account has a successful session other than excludingID from ip.
func (r *Registry) HasKnownIP(ctx context.Context, accountID, ip, excludingID string) (bool, error) {
	ok, err := r.repo.HasIP(ctx, accountID, ip, excludingID)
	if err != nil {
		return false, fmt.Errorf("session: known ip: %w", err)
	}
	return ok, nil
}

// CountActiveSessions counts successful sessions other than excludingID, restricted to
// deviceClass unless it is empty and to records created at or after since unless it is zero.
func (r *Registry) CountActiveSessions(ctx context.Context, accountID, deviceClass, excludingID string, since time.Time) (int, error) {
	n, err := r.repo.CountSuccessful(ctx, accountID, deviceClass, excludingID, since)
	if err != nil {
		return 0, fmt.Errorf("session: count active: %w", err)
	}
	return n, nil
}

// CountPriorSessions counts every record of the account other than excludingID.
func (r *Registry) CountPriorSessions(ctx context.Context, accountID, excludingID string) (int, error) {
	n, err := r.repo.CountAll(ctx, accountID, excludingID)
	if err != nil {
		return 0, fmt.Errorf("session: count prior: %w", err)
	}
	return n, nil
}

// ListByAccount returns the account's newest sessions first.
func (r *Registry) ListByAccount(ctx context.Context, accountID string, limit int32) ([]*domain.Session, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	list, err := r.repo.ListByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("session: list: %w", err)
	}
	return list, nil
}
