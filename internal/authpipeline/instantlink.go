package authpipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/crypto"
	"github.com/cedros/core/internal/store"
)

const (
	instantLinkTTL         = 15 * time.Minute
	instantLinkMinDuration = 150 * time.Millisecond
)

// RequestInstantLink always reports success to the caller regardless of
// whether the email matches an account (spec §4.4f), enforcing a
// minimum response-duration floor so the "account exists" path (extra
// DB and outbox work) isn't distinguishable by timing from "no such
// account".
func (e *Engine) RequestInstantLink(ctx context.Context, email string, dc DeviceContext) error {
	started := time.Now()
	normalized := normalizeEmail(email)

	allowed, err := e.Limiter.InstantLinkAllowed(ctx, normalized)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "check instant link throttle", err)
	}
	if !allowed {
		return apperr.New(apperr.TooManyRequests, "too many instant link requests, try again later")
	}

	user, err := e.Store.Users.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			waitOutMinDuration(started)
			return nil
		}
		return apperr.Wrap(apperr.Internal, "load user", err)
	}

	token, err := crypto.GenerateOpaqueToken(32)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "generate instant link token", err)
	}
	if err := e.Store.VerificationTokens.Create(ctx, &store.VerificationToken{
		UserID: user.ID, TokenHash: crypto.SHA256Hex(token), TokenType: store.TokenInstantLink,
		ExpiresAt: time.Now().Add(instantLinkTTL), CreatedAt: time.Now(),
	}); err != nil {
		return apperr.Wrap(apperr.Internal, "persist instant link token", err)
	}

	name := ""
	if user.Name != nil {
		name = *user.Name
	}
	_ = e.Store.Outbox.Enqueue(ctx, &store.OutboxItem{
		ID: uuid.New(), Kind: store.OutboxEmail,
		Payload: map[string]interface{}{
			"template": "instant_link", "email": normalized, "user_name": name, "user_id": user.ID.String(),
			"instant_link_url": e.PublicBaseURL + "/instant-link?token=" + token,
		},
		NextAttempt: time.Now(), CreatedAt: time.Now(),
	})
	e.audit(ctx, store.AuditInstantLinkRequested, &user.ID, nil, dc, nil)

	waitOutMinDuration(started)
	return nil
}

func waitOutMinDuration(started time.Time) {
	if elapsed := time.Since(started); elapsed < instantLinkMinDuration {
		time.Sleep(instantLinkMinDuration - elapsed)
	}
}

// CompleteInstantLink consumes a single-use instant-link token and
// completes authentication (spec §4.4f). Clicking the link proves
// ownership of the mailbox, so the account's email is marked verified
// here if it wasn't already; it does not prove possession of a second
// factor, so an MFA-enabled account still gets an MFAPending challenge.
func (e *Engine) CompleteInstantLink(ctx context.Context, token string, dc DeviceContext) (*LoginResult, *MFAPending, error) {
	tokenHash := crypto.SHA256Hex(token)
	vt, err := e.Store.VerificationTokens.ConsumeIfValid(ctx, tokenHash, store.TokenInstantLink)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, apperr.New(apperr.Validation, "invalid or expired link")
		}
		return nil, nil, apperr.Wrap(apperr.Internal, "consume instant link token", err)
	}

	user, err := e.Store.Users.GetByID(ctx, vt.UserID)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.Internal, "load user", err)
	}
	if !user.EmailVerified {
		user.EmailVerified = true
		if err := e.Store.Users.Update(ctx, user); err != nil {
			return nil, nil, apperr.Wrap(apperr.Internal, "mark email verified", err)
		}
	}

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
