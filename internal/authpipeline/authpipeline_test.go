package authpipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/authpipeline"
	"github.com/cedros/core/internal/orgauthz"
	"github.com/cedros/core/internal/ratelimit"
	"github.com/cedros/core/internal/store/memory"
	"github.com/cedros/core/internal/tokens"
)

func newTestEngine() *authpipeline.Engine {
	st := memory.New()
	issuer := tokens.NewIssuer([]byte("01234567890123456789012345678901"), "cedros.test", "cedros-api", 15*time.Minute)
	orgs := orgauthz.New(st)
	limiter := ratelimit.New(nil, st.RateLimit, ratelimit.Config{MaxAttempts: 5, BaseLockout: time.Minute, MaxLockout: time.Hour})
	return authpipeline.New(st, issuer, orgs, limiter, 10, false)
}

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	dc := authpipeline.DeviceContext{IPAddress: "1.2.3.4", UserAgent: "test"}

	reg, err := eng.Register(ctx, authpipeline.RegisterRequest{Email: "Alice@Example.com", Password: "correct horse battery"}, dc)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !reg.IsNew || reg.Session.OrgID == nil {
		t.Fatal("expected a new user with a default org bound to the session")
	}

	login, mfa, err := eng.Login(ctx, authpipeline.LoginRequest{Email: "alice@example.com", Password: "correct horse battery"}, dc)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if mfa != nil {
		t.Fatal("expected no mfa challenge for an account without totp enrolled")
	}
	if login.User.ID != reg.User.ID {
		t.Fatal("login must resolve to the same user that registered")
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	dc := authpipeline.DeviceContext{}

	if _, err := eng.Register(ctx, authpipeline.RegisterRequest{Email: "bob@example.com", Password: "correct horse battery"}, dc); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, err := eng.Login(ctx, authpipeline.LoginRequest{Email: "bob@example.com", Password: "wrong password"}, dc)
	if apperr.As(err) == nil || apperr.As(err).Kind != apperr.InvalidCredentials {
		t.Fatalf("expected InvalidCredentials, got %v", err)
	}
}

func TestLoginUnknownEmailReturnsGenericError(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()

	_, _, err := eng.Login(ctx, authpipeline.LoginRequest{Email: "nobody@example.com", Password: "whatever"}, authpipeline.DeviceContext{})
	if apperr.As(err) == nil || apperr.As(err).Kind != apperr.InvalidCredentials {
		t.Fatalf("expected InvalidCredentials for unknown email, got %v", err)
	}
}

func TestMFAEnrollAndLoginChallenge(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	dc := authpipeline.DeviceContext{}

	reg, err := eng.Register(ctx, authpipeline.RegisterRequest{Email: "carol@example.com", Password: "correct horse battery"}, dc)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	uri, err := eng.EnrollTOTP(ctx, reg.User.ID, "carol@example.com")
	if err != nil {
		t.Fatalf("enroll totp: %v", err)
	}
	key, err := otp.NewKeyFromURL(uri)
	if err != nil {
		t.Fatalf("parse provisioning uri: %v", err)
	}

	firstCode, err := totp.GenerateCode(key.Secret(), time.Now())
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}
	if _, err := eng.ConfirmTOTP(ctx, reg.User.ID, firstCode); err != nil {
		t.Fatalf("confirm totp: %v", err)
	}

	_, mfa, err := eng.Login(ctx, authpipeline.LoginRequest{Email: "carol@example.com", Password: "correct horse battery"}, dc)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if mfa == nil {
		t.Fatal("expected an mfa challenge once totp is enabled")
	}

	secondCode, err := totp.GenerateCode(key.Secret(), time.Now())
	if err != nil {
		t.Fatalf("generate second code: %v", err)
	}
	result, err := eng.CompleteMFALogin(ctx, mfa.MFAToken, secondCode, dc)
	if err != nil {
		t.Fatalf("complete mfa login: %v", err)
	}
	if result.User.ID != reg.User.ID {
		t.Fatal("mfa login must resolve to the same user")
	}
}

func TestRefreshRotatesAndRejectsReuse(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	dc := authpipeline.DeviceContext{}

	reg, err := eng.Register(ctx, authpipeline.RegisterRequest{Email: "dave@example.com", Password: "correct horse battery"}, dc)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	rotated, err := eng.Refresh(ctx, reg.Tokens.RefreshToken, dc)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.Session.ID == reg.Session.ID {
		t.Fatal("refresh must mint a new session id")
	}

	// Replaying the original (now-revoked) refresh token is reuse.
	_, err = eng.Refresh(ctx, reg.Tokens.RefreshToken, dc)
	if apperr.As(err) == nil || apperr.As(err).Kind != apperr.InvalidToken {
		t.Fatalf("expected InvalidToken on refresh-token reuse, got %v", err)
	}

	// Reuse detection must have revoked the rotated session too.
	_, err = eng.Refresh(ctx, rotated.Tokens.RefreshToken, dc)
	if apperr.As(err) == nil || apperr.As(err).Kind != apperr.InvalidToken {
		t.Fatalf("expected the rotated session to be revoked by reuse detection, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	dc := authpipeline.DeviceContext{}

	reg, err := eng.Register(ctx, authpipeline.RegisterRequest{Email: "erin@example.com", Password: "correct horse battery"}, dc)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := eng.Logout(ctx, reg.Session.ID, reg.User.ID, dc); err != nil {
		t.Fatalf("logout: %v", err)
	}

	_, err = eng.Refresh(ctx, reg.Tokens.RefreshToken, dc)
	if apperr.As(err) == nil || apperr.As(err).Kind != apperr.InvalidToken {
		t.Fatalf("expected a logged-out session's refresh token to be rejected, got %v", err)
	}
}
