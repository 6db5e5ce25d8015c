package cookies

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		Enabled: true, AccessCookieName: "cedros_access", RefreshCookieName: "cedros_refresh",
	}
}

func TestAccessCookieDefaults(t *testing.T) {
	c := testConfig()
	ck := c.AccessCookie("test_token")
	if ck.Name != "cedros_access" || ck.Value != "test_token" {
		t.Fatalf("unexpected cookie: %+v", ck)
	}
	if ck.Path != "/" {
		t.Fatalf("expected default path /, got %s", ck.Path)
	}
	if !ck.HttpOnly {
		t.Fatal("expected HttpOnly")
	}
	if ck.SameSite != http.SameSiteLaxMode {
		t.Fatalf("expected default SameSite=Lax, got %v", ck.SameSite)
	}
}

func TestAccessCookieWithPathPrefix(t *testing.T) {
	c := testConfig()
	c.PathPrefix = "/auth"
	ck := c.AccessCookie("test_token")
	if ck.Path != "/auth" {
		t.Fatalf("expected path /auth, got %s", ck.Path)
	}
	logout := c.LogoutCookies()
	if logout[0].Path != "/auth" {
		t.Fatalf("expected logout access cookie path /auth, got %s", logout[0].Path)
	}
}

func TestRefreshCookiePathScoping(t *testing.T) {
	c := testConfig()
	ck := c.RefreshCookie("refresh_token", 7*24*time.Hour)
	if ck.Path != "/refresh" {
		t.Fatalf("expected path /refresh, got %s", ck.Path)
	}
	if ck.MaxAge != int((7 * 24 * time.Hour).Seconds()) {
		t.Fatalf("unexpected max age: %d", ck.MaxAge)
	}

	c.PathPrefix = "/auth"
	ck = c.RefreshCookie("refresh_token", time.Minute)
	if ck.Path != "/auth/refresh" {
		t.Fatalf("expected path /auth/refresh, got %s", ck.Path)
	}
}

func TestSecureAndDomainAttributes(t *testing.T) {
	c := testConfig()
	c.Secure = true
	c.Domain = ".example.com"
	ck := c.AccessCookie("token")
	if !ck.Secure {
		t.Fatal("expected Secure")
	}
	if ck.Domain != ".example.com" {
		t.Fatalf("expected domain to be set, got %q", ck.Domain)
	}
}

func TestSameSiteStrict(t *testing.T) {
	c := testConfig()
	c.SameSite = http.SameSiteStrictMode
	ck := c.AccessCookie("token")
	if ck.SameSite != http.SameSiteStrictMode {
		t.Fatalf("expected SameSite=Strict, got %v", ck.SameSite)
	}
}

func TestAttachWritesBothCookiesWhenEnabled(t *testing.T) {
	c := testConfig()
	rec := httptest.NewRecorder()
	c.Attach(rec, TokenPair{AccessToken: "a", RefreshToken: "r", AccessExpiresIn: time.Minute, RefreshExpiresIn: time.Hour})
	if len(rec.Result().Cookies()) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(rec.Result().Cookies()))
	}
}

func TestAttachWritesNoCookiesWhenDisabled(t *testing.T) {
	c := testConfig()
	c.Enabled = false
	rec := httptest.NewRecorder()
	c.Attach(rec, TokenPair{AccessToken: "a", RefreshToken: "r"})
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("expected no cookies when cookie mode is disabled")
	}
}

func TestAttachLogoutAlwaysClearsCookies(t *testing.T) {
	c := testConfig()
	c.Enabled = false
	rec := httptest.NewRecorder()
	c.AttachLogout(rec)
	if len(rec.Result().Cookies()) != 2 {
		t.Fatal("expected logout to clear cookies even when cookie mode is currently disabled")
	}
}

func TestIsValidDomain(t *testing.T) {
	valid := []string{".example.com", "example.com", "sub-domain.example.com", "example123.com", "a.b.c.example.com"}
	for _, d := range valid {
		if !IsValidDomain(d) {
			t.Errorf("expected %q to be valid", d)
		}
	}
	invalid := []string{
		"", "example.com; Secure", "example.com\nEvil: header", "example com",
		".com", ".org", "com", ".", "example..com", "example.com.",
		"-example.com", "example-.com",
	}
	for _, d := range invalid {
		if IsValidDomain(d) {
			t.Errorf("expected %q to be invalid", d)
		}
	}
}
