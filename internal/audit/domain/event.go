package domain

import "time"

// Event is the kind of an authentication audit record.
type Event string

const (
	EventLoginSuccess   Event = "login_success"
	EventLoginFailed    Event = "login_failed"
	EventOTPSent        Event = "otp_sent"
	EventOTPVerified    Event = "otp_verified"
	EventOTPFailed      Event = "otp_failed"
	EventTokenRefreshed Event = "token_refreshed"
	EventRefreshFailed  Event = "refresh_failed"
	EventLogout         Event = "logout"
	EventDeviceLogout   Event = "device_logout"
)

// AuditEvent is one append-only authentication audit record. AccountID and SessionID are
// empty when the event could not be attributed (e.g. unknown email).
type AuditEvent struct {
	ID        string
	Event     Event
	AccountID string
	Email     string
	SessionID string
	IP        string
	Device    string
	Browser   string
	Meta      map[string]any
	CreatedAt time.Time
}
