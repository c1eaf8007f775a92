// Package risk decides whether a login that passed the password check must be stepped up
// with a one-time code.
package risk

import (
	"context"
	"time"
)

// Reasons recorded on an Assessment, in evaluation order.
const (
	ReasonPrivilegedRole   = "privileged_role"
	ReasonFirstLogin       = "first_login"
	ReasonNewDevice        = "new_device"
	ReasonNewIP            = "new_ip"
	ReasonConcurrentDevice = "concurrent_device"
	ReasonSessionCount     = "session_count"
)

// Config holds the scoring constants. The zero value is not usable; start from DefaultConfig.
type Config struct {
	Threshold              int
	NewDevicePoints        int
	NewIPPoints            int
	ConcurrentDevicePoints int
	ConcurrentDeviceMin    int
	// ConcurrentWindow limits the same-device count to sessions created this long before the
	// new one. Zero counts the whole history.
	ConcurrentWindow   time.Duration
	SessionCountPoints int
	SessionCountMin    int
}

// DefaultConfig returns the production scoring constants.
func DefaultConfig() Config {
	return Config{
		Threshold:              50,
		NewDevicePoints:        40,
		NewIPPoints:            30,
		ConcurrentDevicePoints: 30,
		ConcurrentDeviceMin:    2,
		ConcurrentWindow:       15 * time.Minute,
		SessionCountPoints:     40,
		SessionCountMin:        5,
	}
}

// Signals are the facts about a login the decision is made from. Every count excludes the
// session being scored.
type Signals struct {
	Privileged         bool
	PriorSessions      int
	NewDevice          bool
	NewIP              bool
	SameDeviceSessions int
	SuccessfulSessions int
}

// Assessment is the outcome of scoring one login.
type Assessment struct {
	IsSuspicious bool
	RiskValue    int
	// Forced is set when an override rule required step-up regardless of RiskValue.
	Forced  bool
	Reasons []string
}

// Evaluator turns signals into an assessment.
type Evaluator interface {
	Evaluate(ctx context.Context, cfg Config, s Signals) (Assessment, error)
}
