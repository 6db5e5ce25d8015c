package authpipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/oidc"
	"github.com/cedros/core/internal/store"
)

const (
	googleIssuer  = "https://accounts.google.com"
	googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"
	appleIssuer   = "https://appleid.apple.com"
	appleJWKSURL  = "https://appleid.apple.com/auth/keys"
)

// appleRealUserUnsupported/Unknown/Real are Apple's real_user_status
// values; only "unknown" (likely a bot) blocks new registrations, per
// spec §4.4b. Existing users and already-authenticated accounts are
// never blocked by this check.
const (
	appleRealUserUnsupported = 0
	appleRealUserUnknown     = 1
	appleRealUserReal        = 2
)

// GoogleLogin verifies a Google ID token and completes authentication,
// creating a new account on first sign-in (spec §4.4b). Auto-linking to
// an existing email/password account is deliberately not implemented:
// an email collision with a non-google account is rejected to prevent
// account takeover via a forged or attacker-controlled Google identity.
func (e *Engine) GoogleLogin(ctx context.Context, idToken string, dc DeviceContext) (*LoginResult, error) {
	cfg := e.OAuth.Google
	if !cfg.Enabled {
		return nil, apperr.New(apperr.NotFound, "google sign-in is disabled")
	}
	claims, err := e.OIDC.Verify(ctx, idToken, cfg.JWKSURL, cfg.Issuer, cfg.ClientID)
	if err != nil {
		return nil, apperr.New(apperr.Unauthorized, "invalid google id token")
	}
	sub := oidc.ClaimString(claims, "sub")
	if sub == "" {
		return nil, apperr.New(apperr.Unauthorized, "invalid google id token")
	}

	user, err := e.Store.Users.GetByGoogleID(ctx, sub)
	if err == nil {
		result, err := e.completeAuth(ctx, user, dc, true)
		return result, err
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Wrap(apperr.Internal, "load user", err)
	}

	email := normalizeEmail(oidc.ClaimString(claims, "email"))
	if email != "" {
		if _, err := e.Store.Users.GetByEmail(ctx, email); err == nil {
			return nil, apperr.New(apperr.EmailExists, "an account with this email already exists")
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Wrap(apperr.Internal, "check existing email", err)
		}
	}

	now := time.Now()
	var emailPtr *string
	if email != "" {
		emailPtr = &email
	}
	var name *string
	if n := oidc.ClaimString(claims, "name"); n != "" {
		name = &n
	}
	var picture *string
	if p := oidc.ClaimString(claims, "picture"); p != "" {
		picture = &p
	}
	newUser := &store.User{
		ID: uuid.New(), Email: emailPtr, EmailVerified: oidc.ClaimBool(claims, "email_verified"),
		Name: name, Picture: picture, GoogleID: &sub,
		AuthMethods: []store.AuthMethod{store.AuthMethodGoogle}, CreatedAt: now, UpdatedAt: now,
	}
	return e.registerNewUser(ctx, newUser, personalOrgName(name, sub), dc)
}

// AppleLogin verifies an Apple ID token and completes authentication
// (spec §4.4b). Apple only supplies the user's name on the very first
// sign-in (passed separately by the client, not in the token), and
// real_user_status gates new registrations against Apple's anti-fraud
// signal without blocking sign-in for accounts that already exist.
func (e *Engine) AppleLogin(ctx context.Context, idToken string, name *string, dc DeviceContext) (*LoginResult, error) {
	cfg := e.OAuth.Apple
	if !cfg.Enabled {
		return nil, apperr.New(apperr.NotFound, "apple sign-in is disabled")
	}
	claims, err := e.OIDC.Verify(ctx, idToken, cfg.JWKSURL, cfg.Issuer, cfg.ClientID)
	if err != nil {
		return nil, apperr.New(apperr.Unauthorized, "invalid apple id token")
	}
	sub := oidc.ClaimString(claims, "sub")
	if sub == "" {
		return nil, apperr.New(apperr.Unauthorized, "invalid apple id token")
	}

	user, err := e.Store.Users.GetByAppleID(ctx, sub)
	if err == nil {
		result, err := e.completeAuth(ctx, user, dc, true)
		return result, err
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Wrap(apperr.Internal, "load user", err)
	}

	if status, ok := oidc.ClaimInt(claims, "real_user_status"); ok && status == appleRealUserUnknown {
		return nil, apperr.New(apperr.Validation, "unable to verify account authenticity, please try again later")
	}

	email := normalizeEmail(oidc.ClaimString(claims, "email"))
	if email != "" {
		if _, err := e.Store.Users.GetByEmail(ctx, email); err == nil {
			return nil, apperr.New(apperr.EmailExists, "an account with this email already exists")
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Wrap(apperr.Internal, "check existing email", err)
		}
	}

	now := time.Now()
	var emailPtr *string
	if email != "" {
		emailPtr = &email
	}
	newUser := &store.User{
		ID: uuid.New(), Email: emailPtr, EmailVerified: oidc.ClaimBool(claims, "email_verified"),
		Name: name, AppleID: &sub,
		AuthMethods: []store.AuthMethod{store.AuthMethodApple}, CreatedAt: now, UpdatedAt: now,
	}
	return e.registerNewUser(ctx, newUser, personalOrgName(name, sub), dc)
}
