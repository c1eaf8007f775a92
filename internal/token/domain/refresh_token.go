package domain

import "time"

// RefreshToken is the stored half of a refresh credential. TokenHash is the SHA-256 of the
// secret handed to the client. Rotation overwrites TokenHash on the same row.
type RefreshToken struct {
	ID        string
	AccountID string
	SessionID string
	Guard     string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	RotatedAt *time.Time
}

// Expired reports whether the token can no longer be exchanged at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// TokenPair is what a successful login, OTP verification or refresh returns.
type TokenPair struct {
	AccessToken     string
	RefreshToken    string
	TokenType       string
	ExpiresIn       int64 // seconds until AccessExpiresAt
	AccessExpiresAt time.Time
	SessionID       string
	Guard           string
}
