// Package devicelabel derives a short, human-readable device/client label
// from a User-Agent header, surfaced on GET /auth/sessions so a user can
// recognize which session is which (spec.md supplemented feature, grounded
// on original_source/server-rust/src/utils/device_detection.rs). No pack
// repo imports a UA-parsing library, so this is a small stdlib parser
// rather than a third-party dependency.
package devicelabel

import "strings"

// Parse returns a label like "Chrome on Windows" or "Safari on iPhone".
// An empty string gives "Unknown device"; a browser or OS it does not
// recognize is named "Unknown browser" or "Unknown OS" in the label.
func Parse(userAgent string) string {
	if userAgent == "" {
		return "Unknown device"
	}
	ua := strings.ToLower(userAgent)
	return browser(ua) + " on " + os(ua)
}

func browser(ua string) string {
	switch {
	case strings.Contains(ua, "edg/"):
		return "Edge"
	case strings.Contains(ua, "opr/") || strings.Contains(ua, "opera"):
		return "Opera"
	case strings.Contains(ua, "firefox"):
		return "Firefox"
	case strings.Contains(ua, "crios"):
		return "Chrome"
	case strings.Contains(ua, "chrome"):
		return "Chrome"
	case strings.Contains(ua, "safari") && strings.Contains(ua, "version/"):
		return "Safari"
	default:
		return "Unknown browser"
	}
}

func os(ua string) string {
	switch {
	case strings.Contains(ua, "iphone"):
		return "iPhone"
	case strings.Contains(ua, "ipad"):
		return "iPad"
	case strings.Contains(ua, "android"):
		return "Android"
	case strings.Contains(ua, "mac os x") || strings.Contains(ua, "macintosh"):
		return "macOS"
	case strings.Contains(ua, "windows"):
		return "Windows"
	case strings.Contains(ua, "linux"):
		return "Linux"
	default:
		return "Unknown OS"
	}
}
