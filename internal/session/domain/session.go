package domain

import "time"

// Location is the caller-supplied geolocation of a login. Every field is optional.
type Location struct {
	Country  string
	City     string
	Timezone string
}

// ClientContext describes where a request came from.
type ClientContext struct {
	IP        string
	UserAgent string
	Location  Location
}

// Session is one login record (session_records table). Records are never deleted; the only
// mutation is a device logout flipping Success to false.
type Session struct {
	ID          string
	AccountID   string
	Email       string
	Guard       string
	Portal      string
	IP          string
	Device      string
	Browser     string
	OS          string
	UserAgent   string
	Location    Location
	Success     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LoggedOutAt *time.Time // nil while the device is logged in
}

// Active reports whether the session still counts as a successful login.
func (s *Session) Active() bool {
	return s.Success && s.LoggedOutAt == nil
}
