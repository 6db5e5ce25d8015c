package authpipeline

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/crypto"
	"github.com/cedros/core/internal/store"
)

const (
	totpIssuer        = "Cedros"
	totpPeriod        = 30
	totpSkew          = 1
	mfaPendingTTL     = 5 * time.Minute
	recoveryCodeCount = 8
)

var totpValidateOpts = totp.ValidateOpts{
	Period:    totpPeriod,
	Skew:      totpSkew,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

func (e *Engine) hasMFAEnabled(ctx context.Context, userID uuid.UUID) (bool, error) {
	t, err := e.Store.TOTP.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, apperr.Wrap(apperr.Internal, "load totp secret", err)
	}
	return t.Enabled, nil
}

// EnrollTOTP generates a new, not-yet-enabled TOTP secret for the user
// and returns it as a provisioning URI for a client authenticator app.
// The secret only takes effect once ConfirmTOTP validates a code against
// it (spec §4.4g).
func (e *Engine) EnrollTOTP(ctx context.Context, userID uuid.UUID, accountName string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: accountName,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "generate totp secret", err)
	}
	if err := e.Store.TOTP.Upsert(ctx, &store.TOTPSecret{UserID: userID, Base32Secret: key.Secret(), Enabled: false}); err != nil {
		return "", apperr.Wrap(apperr.Internal, "store totp secret", err)
	}
	return key.String(), nil
}

// ConfirmTOTP validates the first code from the user's authenticator app
// against the enrolled-but-not-yet-enabled secret, flips it to enabled,
// and returns a one-time set of recovery codes (spec §4.4g). The
// plaintext codes are never stored; only their hashes are.
func (e *Engine) ConfirmTOTP(ctx context.Context, userID uuid.UUID, code string) ([]string, error) {
	secret, err := e.Store.TOTP.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.Validation, "totp has not been enrolled")
		}
		return nil, apperr.Wrap(apperr.Internal, "load totp secret", err)
	}
	ok, err := totp.ValidateCustom(code, secret.Base32Secret, time.Now(), totpValidateOpts)
	if err != nil || !ok {
		return nil, apperr.New(apperr.Validation, "invalid verification code")
	}

	codes, hashes, err := generateRecoveryCodes()
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "generate recovery codes", err)
	}
	secret.Enabled = true
	secret.RecoveryCodeHashes = hashes
	if err := e.Store.TOTP.Upsert(ctx, secret); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "enable totp", err)
	}
	return codes, nil
}

func generateRecoveryCodes() ([]string, []string, error) {
	codes := make([]string, recoveryCodeCount)
	hashes := make([]string, recoveryCodeCount)
	for i := range codes {
		raw := make([]byte, 10)
		if _, err := rand.Read(raw); err != nil {
			return nil, nil, err
		}
		code := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw)
		codes[i] = code
		hashes[i] = crypto.SHA256Hex(code)
	}
	return codes, hashes, nil
}

func (e *Engine) issueMFAPendingToken(ctx context.Context, userID uuid.UUID) (*MFAPending, error) {
	token, err := crypto.GenerateOpaqueToken(32)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "generate mfa token", err)
	}
	vt := &store.VerificationToken{
		UserID: userID, TokenHash: crypto.SHA256Hex(token), TokenType: store.TokenMFAPending,
		ExpiresAt: time.Now().Add(mfaPendingTTL), CreatedAt: time.Now(),
	}
	if err := e.Store.VerificationTokens.Create(ctx, vt); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "store mfa pending token", err)
	}
	return &MFAPending{MFAToken: token, UserID: userID}, nil
}

// CompleteMFALogin finishes a password login that returned MFAPending: it
// consumes the pending token exactly once and validates the TOTP code
// with replay protection via last_used_time_step (spec §4.4g, SEC S-14).
// Only TOTP codes are accepted here; the recovery codes ConfirmTOTP
// issues are not checked by this method.
func (e *Engine) CompleteMFALogin(ctx context.Context, mfaToken, code string, dc DeviceContext) (*LoginResult, error) {
	tokenHash := crypto.SHA256Hex(mfaToken)
	vt, err := e.Store.VerificationTokens.ConsumeIfValid(ctx, tokenHash, store.TokenMFAPending)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.Validation, "invalid or expired mfa token")
		}
		return nil, apperr.Wrap(apperr.Internal, "consume mfa token", err)
	}

	secret, err := e.Store.TOTP.Get(ctx, vt.UserID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "load totp secret", err)
	}
	if !secret.Enabled {
		return nil, apperr.New(apperr.Validation, "mfa is not enabled")
	}

	step, ok := matchTOTPStep(code, secret.Base32Secret, secret.LastUsedTimeStep)
	recorded := false
	if ok {
		recorded, err = e.Store.TOTP.RecordUsedStep(ctx, vt.UserID, step)
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, "record totp step", err)
		}
	}
	if !ok || !recorded {
		if lockout, lerr := e.Limiter.RecordMFAFailure(ctx, vt.UserID); lerr == nil && lockout.LockedUntil != nil && time.Now().Before(*lockout.LockedUntil) {
			return nil, apperr.New(apperr.TooManyRequests, "too many verification attempts, try again later")
		}
		return nil, apperr.New(apperr.Validation, "invalid verification code")
	}

	_ = e.Limiter.ClearMFAFailures(ctx, vt.UserID)

	user, err := e.Store.Users.GetByID(ctx, vt.UserID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "load user", err)
	}
	return e.completeAuth(ctx, user, dc, true)
}

// matchTOTPStep scans the valid skew window for the time step the code
// matches, rejecting anything at or before lastUsedStep so a captured
// code cannot be replayed (spec §4.4g S-14).
func matchTOTPStep(code, secret string, lastUsedStep int64) (int64, bool) {
	now := time.Now().Unix() / totpPeriod
	for step := now - totpSkew; step <= now+totpSkew; step++ {
		if step <= lastUsedStep {
			continue
		}
		candidate, err := totp.GenerateCodeCustom(secret, time.Unix(step*totpPeriod, 0), totpValidateOpts)
		if err == nil && candidate == code {
			return step, true
		}
	}
	return 0, false
}
