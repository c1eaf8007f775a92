package domain

import (
	"errors"
	"strings"
	"time"
)

// Account is a directory entry that can log in. Email is stored canonical (trimmed, lower-case).
type Account struct {
	ID           string
	Email        string
	Name         string
	Phone        string // optional; SMS channel target
	PasswordHash string
	Status       Status
	Roles        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// CanonicalEmail trims and lower-cases an email for lookup and storage.
func CanonicalEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Active reports whether the account may log in.
func (a *Account) Active() bool {
	return a.Status == StatusActive
}

// Validate validates the account for persistence. Returns an error describing the first validation failure.
func (a *Account) Validate() error {
	a.Email = CanonicalEmail(a.Email)
	if a.Email == "" {
		return errors.New("email is required")
	}
	if a.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	if a.Status == "" {
		a.Status = StatusActive
	}
	if a.Status != StatusActive && a.Status != StatusInactive {
		return errors.New("status must be active or inactive")
	}
	return nil
}
