package domain

import "time"

// Challenge is a pending step-up OTP for one login session (otp_challenges table).
// CodeHash is the SHA-256 of the code; the plaintext is never stored.
type Challenge struct {
	ID        string
	AccountID string
	SessionID string
	CodeHash  string
	Attempts  int
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the challenge is no longer usable at now.
func (c *Challenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
