package authpipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/crypto"
	"github.com/cedros/core/internal/store"
)

// normalizeEmail lowercases and trims an email address before any
// lookup or storage, so the same address always resolves to the same
// user regardless of case.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterRequest is the email/password signup payload (spec §4.4a).
type RegisterRequest struct {
	Email    string
	Password string
	Name     *string
}

// Register creates a user, a personal organization, an owner membership,
// and an initial session as one atomic unit (spec §4.2
// register_user_atomic). Disposable email domains are rejected up front.
func (e *Engine) Register(ctx context.Context, req RegisterRequest, dc DeviceContext) (*LoginResult, error) {
	email := normalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.New(apperr.Validation, "a valid email is required")
	}
	if len(req.Password) < 8 {
		return nil, apperr.New(apperr.Validation, "password must be at least 8 characters")
	}
	domain := email[strings.LastIndex(email, "@")+1:]
	if e.Store.DisposableDomains.IsDisposable(ctx, domain) {
		return nil, apperr.New(apperr.Validation, "disposable email domains are not allowed")
	}
	if _, err := e.Store.Users.GetByEmail(ctx, email); err == nil {
		return nil, apperr.New(apperr.EmailExists, "an account with this email already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Wrap(apperr.Internal, "check existing email", err)
	}

	passwordHash, err := crypto.HashPassword(req.Password, crypto.DefaultArgon2Params)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "hash password", err)
	}

	now := time.Now()
	user := &store.User{
		ID: uuid.New(), Email: &email, PasswordHash: &passwordHash, Name: req.Name,
		AuthMethods: []store.AuthMethod{store.AuthMethodEmail}, CreatedAt: now, UpdatedAt: now,
	}

	result, err := e.registerNewUser(ctx, user, personalOrgName(req.Name, email), dc)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.EmailExists, "an account with this email already exists")
		}
		return nil, err
	}

	e.sendVerificationEmail(ctx, user)
	return result, nil
}

// sendVerificationEmail issues a single-use verification token and
// enqueues the verification email. Failure to enqueue never fails
// registration itself: the user can request another link later.
func (e *Engine) sendVerificationEmail(ctx context.Context, user *store.User) {
	if user.Email == nil {
		return
	}
	token, err := crypto.GenerateOpaqueToken(32)
	if err != nil {
		return
	}
	if err := e.Store.VerificationTokens.Create(ctx, &store.VerificationToken{
		UserID: user.ID, TokenHash: crypto.SHA256Hex(token), TokenType: store.TokenEmailVerify,
		ExpiresAt: time.Now().Add(emailVerifyTTL), CreatedAt: time.Now(),
	}); err != nil {
		return
	}
	name := ""
	if user.Name != nil {
		name = *user.Name
	}
	_ = e.Store.Outbox.Enqueue(ctx, &store.OutboxItem{
		ID: uuid.New(), Kind: store.OutboxEmail,
		Payload: map[string]interface{}{
			"template": "email_verification", "email": *user.Email, "user_name": name,
			"verification_url": e.PublicBaseURL + "/verify-email?token=" + token,
		},
		NextAttempt: time.Now(), CreatedAt: time.Now(),
	})
}

// CompleteEmailVerification marks the user's email verified from a
// verification-email link click (spec §4.4a).
func (e *Engine) CompleteEmailVerification(ctx context.Context, token string) error {
	tokenHash := crypto.SHA256Hex(token)
	vt, err := e.Store.VerificationTokens.ConsumeIfValid(ctx, tokenHash, store.TokenEmailVerify)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.New(apperr.Validation, "invalid or expired link")
		}
		return apperr.Wrap(apperr.Internal, "consume verification token", err)
	}
	user, err := e.Store.Users.GetByID(ctx, vt.UserID)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "load user", err)
	}
	if user.EmailVerified {
		return nil
	}
	user.EmailVerified = true
	if err := e.Store.Users.Update(ctx, user); err != nil {
		return apperr.Wrap(apperr.Internal, "mark email verified", err)
	}
	return nil
}

// RequestPasswordReset issues a single-use reset token and enqueues the
// reset email. It always returns nil for an unknown email, matching
// RequestInstantLink's enumeration-resistant shape (spec §7 SEC-003).
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	normalized := normalizeEmail(email)
	user, err := e.Store.Users.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return apperr.Wrap(apperr.Internal, "load user", err)
	}
	if user.PasswordHash == nil {
		// Passwordless accounts have nothing to reset; silently succeed
		// so this endpoint can't be used to fingerprint auth method.
		return nil
	}

	token, err := crypto.GenerateOpaqueToken(32)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "generate reset token", err)
	}
	if err := e.Store.VerificationTokens.Create(ctx, &store.VerificationToken{
		UserID: user.ID, TokenHash: crypto.SHA256Hex(token), TokenType: store.TokenPasswordReset,
		ExpiresAt: time.Now().Add(passwordResetTTL), CreatedAt: time.Now(),
	}); err != nil {
		return apperr.Wrap(apperr.Internal, "persist reset token", err)
	}

	name := ""
	if user.Name != nil {
		name = *user.Name
	}
	_ = e.Store.Outbox.Enqueue(ctx, &store.OutboxItem{
		ID: uuid.New(), Kind: store.OutboxEmail,
		Payload: map[string]interface{}{
			"template": "password_reset", "email": normalized, "user_name": name,
			"reset_url": e.PublicBaseURL + "/reset-password?token=" + token,
		},
		NextAttempt: time.Now(), CreatedAt: time.Now(),
	})
	return nil
}

// CompletePasswordReset consumes a reset token and sets a new password,
// revoking every existing session so a stolen refresh token can't
// survive a password change (spec §7).
func (e *Engine) CompletePasswordReset(ctx context.Context, token, newPassword string, dc DeviceContext) error {
	if len(newPassword) < 8 {
		return apperr.New(apperr.Validation, "password must be at least 8 characters")
	}
	tokenHash := crypto.SHA256Hex(token)
	vt, err := e.Store.VerificationTokens.ConsumeIfValid(ctx, tokenHash, store.TokenPasswordReset)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.New(apperr.Validation, "invalid or expired link")
		}
		return apperr.Wrap(apperr.Internal, "consume reset token", err)
	}
	user, err := e.Store.Users.GetByID(ctx, vt.UserID)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "load user", err)
	}

	passwordHash, err := crypto.HashPassword(newPassword, crypto.DefaultArgon2Params)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "hash password", err)
	}
	user.PasswordHash = &passwordHash
	if err := e.Store.Users.Update(ctx, user); err != nil {
		return apperr.Wrap(apperr.Internal, "update password", err)
	}
	if err := e.Store.Sessions.RevokeAllForUser(ctx, user.ID, store.RevokePasswordReset); err != nil {
		return apperr.Wrap(apperr.Internal, "revoke sessions", err)
	}
	e.audit(ctx, store.AuditPasswordReset, &user.ID, nil, dc, nil)
	return nil
}

const (
	emailVerifyTTL    = 24 * time.Hour
	passwordResetTTL  = 30 * time.Minute
)

func personalOrgName(name *string, email string) string {
	if name != nil && *name != "" {
		return *name + "'s workspace"
	}
	return email + "'s workspace"
}

// LoginRequest is the email/password login payload (spec §4.4a).
type LoginRequest struct {
	Email    string
	Password string
}

// MFAPending is returned instead of a LoginResult when the account has
// TOTP enabled; the caller must complete CompleteMFALogin with the
// returned token and a TOTP code.
type MFAPending struct {
	MFAToken string
	UserID   uuid.UUID
}

// Login verifies an email/password pair under exponential lockout, with
// constant-time dummy verification on unknown emails and passwordless
// accounts to avoid timing-based email enumeration (spec §4.4a, §7
// SEC-003). On success it either completes the session directly or, if
// the account has MFA enabled, returns an MFAPending challenge.
func (e *Engine) Login(ctx context.Context, req LoginRequest, dc DeviceContext) (*LoginResult, *MFAPending, error) {
	email := normalizeEmail(req.Email)

	lockout, err := e.Limiter.GetLockoutState(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if lockout.Locked() {
		return nil, nil, apperr.New(apperr.AccountLocked, "too many failed attempts, try again later")
	}

	user, err := e.Store.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			crypto.VerifyDummy(req.Password)
			_, _ = e.Limiter.RecordFailedLogin(ctx, email)
			return nil, nil, apperr.New(apperr.InvalidCredentials, "invalid email or password")
		}
		return nil, nil, apperr.Wrap(apperr.Internal, "load user", err)
	}

	if user.PasswordHash == nil {
		crypto.VerifyDummy(req.Password)
		_, _ = e.Limiter.RecordFailedLogin(ctx, email)
		return nil, nil, apperr.New(apperr.InvalidCredentials, "invalid email or password")
	}
	if !crypto.VerifyPassword(req.Password, *user.PasswordHash) {
		_, _ = e.Limiter.RecordFailedLogin(ctx, email)
		return nil, nil, apperr.New(apperr.InvalidCredentials, "invalid email or password")
	}

	// Email verification is checked only after the password is confirmed
	// correct, and returns the same generic error, so a failed check here
	// never discloses anything beyond "invalid credentials" (spec §7).
	if e.RequireEmailVerify && !user.EmailVerified {
		return nil, nil, apperr.New(apperr.InvalidCredentials, "invalid email or password")
	}

	_ = e.Limiter.ClearFailedLogins(ctx, email)

	hasMFA, err := e.hasMFAEnabled(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	if hasMFA {
		pending, err := e.issueMFAPendingToken(ctx, user.ID)
		if err != nil {
			return nil, nil, err
		}
		e.audit(ctx, store.AuditUserAuthenticated, &user.ID, nil, dc, map[string]string{"stage": "mfa_challenge_issued"})
		return nil, pending, nil
	}

	result, err := e.completeAuth(ctx, user, dc, true)
	return result, nil, err
}
