// Package cookies centralizes Set-Cookie construction for cookie-mode
// auth (spec.md §6): access/refresh cookies with HttpOnly, a validated
// Domain, SameSite from config, and path scoping that restricts the
// refresh cookie to the refresh endpoint.
package cookies

import (
	"net/http"
	"strings"
	"time"
)

// Config is the cookie-mode configuration for one deployment.
type Config struct {
	Enabled          bool
	Domain           string
	Secure           bool
	SameSite         http.SameSite
	AccessCookieName string
	RefreshCookieName string
	PathPrefix       string
}

// TokenPair is the minimal token shape cookies are built from.
type TokenPair struct {
	AccessToken        string
	RefreshToken       string
	AccessExpiresIn    time.Duration
	RefreshExpiresIn   time.Duration
}

// AccessCookie builds the Set-Cookie for the access token.
func (c Config) AccessCookie(token string) *http.Cookie {
	return c.build(c.AccessCookieName, token, c.AccessPath(), 0)
}

// RefreshCookie builds the Set-Cookie for the refresh token, scoped to
// the refresh endpoint path.
func (c Config) RefreshCookie(token string, maxAge time.Duration) *http.Cookie {
	return c.build(c.RefreshCookieName, token, c.RefreshPath(), maxAge)
}

func (c Config) build(name, value, path string, maxAge time.Duration) *http.Cookie {
	cookie := &http.Cookie{
		Name: name, Value: value, Path: path,
		HttpOnly: true, Secure: c.Secure, SameSite: c.sameSiteOrDefault(),
	}
	if maxAge > 0 {
		cookie.MaxAge = int(maxAge.Seconds())
	}
	if IsValidDomain(c.Domain) {
		cookie.Domain = c.Domain
	}
	return cookie
}

func (c Config) sameSiteOrDefault() http.SameSite {
	if c.SameSite == 0 {
		return http.SameSiteLaxMode
	}
	return c.SameSite
}

// TokenCookies builds both access and refresh Set-Cookie headers for a
// freshly issued token pair.
func (c Config) TokenCookies(tokens TokenPair) []*http.Cookie {
	return []*http.Cookie{
		c.AccessCookie(tokens.AccessToken),
		c.RefreshCookie(tokens.RefreshToken, tokens.RefreshExpiresIn),
	}
}

// LogoutCookies builds deletion cookies (Max-Age=0) for both the access
// and refresh cookie, used by logout so stale cookies are always
// cleared even without a valid JWT (spec §6).
func (c Config) LogoutCookies() []*http.Cookie {
	return []*http.Cookie{
		c.deleteCookie(c.AccessCookieName, c.AccessPath()),
		c.deleteCookie(c.RefreshCookieName, c.RefreshPath()),
	}
}

func (c Config) deleteCookie(name, path string) *http.Cookie {
	cookie := &http.Cookie{
		Name: name, Value: "deleted", Path: path, MaxAge: -1,
		HttpOnly: true, Secure: c.Secure, SameSite: c.sameSiteOrDefault(),
	}
	if IsValidDomain(c.Domain) {
		cookie.Domain = c.Domain
	}
	return cookie
}

// Attach writes every cookie this config produces for tokens onto w, a
// no-op when cookie mode is disabled.
func (c Config) Attach(w http.ResponseWriter, tokens TokenPair) {
	if !c.Enabled {
		return
	}
	for _, ck := range c.TokenCookies(tokens) {
		http.SetCookie(w, ck)
	}
}

// AttachLogout writes deletion cookies onto w regardless of whether
// cookie mode is currently enabled, so a client carrying stale cookies
// from a prior configuration still gets them cleared.
func (c Config) AttachLogout(w http.ResponseWriter) {
	for _, ck := range c.LogoutCookies() {
		http.SetCookie(w, ck)
	}
}

func (c Config) AccessPath() string {
	trimmed := strings.TrimSuffix(c.PathPrefix, "/")
	if trimmed == "" {
		return "/"
	}
	return trimmed
}

func (c Config) RefreshPath() string {
	trimmed := strings.TrimSuffix(c.PathPrefix, "/")
	if trimmed == "" {
		return "/refresh"
	}
	return trimmed + "/refresh"
}

// IsValidDomain rejects anything that isn't a plain, multi-label
// hostname (spec §6 / MW-03): alnum/dot/hyphen only, at least two
// labels, no label starting or ending with a hyphen. An empty domain
// also returns false, so the cookie builders omit the Domain attribute
// for an unset domain just as they do for an invalid one.
func IsValidDomain(domain string) bool {
	if domain == "" {
		return false
	}
	for _, r := range domain {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '.' || r == '-') {
			return false
		}
	}
	stripped := strings.TrimPrefix(domain, ".")
	labels := strings.Split(stripped, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if label == "" {
			return false
		}
		first, last := label[0], label[len(label)-1]
		if !isAlnum(first) || !isAlnum(last) {
			return false
		}
	}
	return true
}

func isAlnum(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
