// Package device classifies the client device of a login from its user-agent string.
package device

import (
	"strings"

	"github.com/mssola/user_agent"
)

// Class is the coarse device class used by the risk engine.
type Class string

const (
	Desktop Class = "desktop"
	Mobile  Class = "mobile"
	Tablet  Class = "tablet"
	Bot     Class = "bot"
	Unknown Class = "unknown"
)

// Info is what a session records about the client device.
type Info struct {
	Class          Class
	Browser        string
	BrowserVersion string
	OS             string
	UserAgent      string
}

// Parse classifies ua. An empty user agent yields Unknown.
func Parse(ua string) Info {
	ua = strings.TrimSpace(ua)
	if ua == "" {
		return Info{Class: Unknown}
	}
	parsed := user_agent.New(ua)
	browser, version := parsed.Browser()
	info := Info{
		Browser:        browser,
		BrowserVersion: version,
		OS:             parsed.OS(),
		UserAgent:      ua,
	}
	lower := strings.ToLower(ua)
	switch {
	case parsed.Bot():
		info.Class = Bot
	case strings.Contains(lower, "tablet") || strings.Contains(lower, "ipad"):
		info.Class = Tablet
	case parsed.Mobile():
		info.Class = Mobile
	default:
		info.Class = Desktop
	}
	return info
}
