package authpipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/cedros/core/internal/authpipeline"
)

func newTestEngineWithWebAuthn(t *testing.T) *authpipeline.Engine {
	t.Helper()
	eng := newTestEngine()
	wa, err := webauthn.New(&webauthn.Config{
		RPID:          "localhost",
		RPDisplayName: "Cedros Test",
		RPOrigins:     []string{"https://localhost"},
	})
	if err != nil {
		t.Fatalf("construct webauthn: %v", err)
	}
	eng.WebAuthn = wa
	return eng
}

func TestBeginWebAuthnRegistrationRequiresStepUp(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngineWithWebAuthn(t)
	dc := authpipeline.DeviceContext{IPAddress: "1.2.3.4", UserAgent: "test"}

	reg, err := eng.Register(ctx, authpipeline.RegisterRequest{Email: "kim@example.com", Password: "correct horse battery"}, dc)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := eng.BeginWebAuthnRegistration(ctx, reg.User.ID, nil); err == nil {
		t.Fatal("expected registration without a strong-auth timestamp to require step-up")
	}

	stale := time.Now().Add(-time.Hour)
	if _, _, err := eng.BeginWebAuthnRegistration(ctx, reg.User.ID, &stale); err == nil {
		t.Fatal("expected registration with a stale strong-auth timestamp to require step-up")
	}

	recent := time.Now()
	options, challengeID, err := eng.BeginWebAuthnRegistration(ctx, reg.User.ID, &recent)
	if err != nil {
		t.Fatalf("expected registration with a recent strong auth to succeed: %v", err)
	}
	if options == nil || challengeID.String() == "" {
		t.Fatal("expected registration options and a challenge id")
	}
}

func TestBeginWebAuthnLoginDiscoverableAndUnknownEmail(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngineWithWebAuthn(t)

	if _, _, err := eng.BeginWebAuthnLogin(ctx, nil); err != nil {
		t.Fatalf("expected discoverable login to begin without error: %v", err)
	}

	unknown := "nobody@example.com"
	if _, _, err := eng.BeginWebAuthnLogin(ctx, &unknown); err == nil {
		t.Fatal("expected email-first login for an unknown email to fail")
	}
}

func TestFinishWebAuthnLoginRejectsMalformedResponse(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngineWithWebAuthn(t)

	_, challengeID, err := eng.BeginWebAuthnLogin(ctx, nil)
	if err != nil {
		t.Fatalf("begin discoverable login: %v", err)
	}

	dc := authpipeline.DeviceContext{IPAddress: "1.2.3.4", UserAgent: "test"}
	if _, err := eng.FinishWebAuthnLogin(ctx, challengeID, []byte("not json"), dc); err == nil {
		t.Fatal("expected a malformed credential response to be rejected")
	}
}

func TestFinishWebAuthnLoginRejectsReusedChallenge(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngineWithWebAuthn(t)
	dc := authpipeline.DeviceContext{IPAddress: "1.2.3.4", UserAgent: "test"}

	_, challengeID, err := eng.BeginWebAuthnLogin(ctx, nil)
	if err != nil {
		t.Fatalf("begin discoverable login: %v", err)
	}
	if _, err := eng.FinishWebAuthnLogin(ctx, challengeID, []byte("not json"), dc); err == nil {
		t.Fatal("expected first (malformed) attempt to fail")
	}
	if _, err := eng.FinishWebAuthnLogin(ctx, challengeID, []byte("not json"), dc); err == nil {
		t.Fatal("expected a second attempt against the same (already consumed) challenge to fail")
	}
}
