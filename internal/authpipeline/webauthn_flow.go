package authpipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/store"
)

// marshalSessionData/unmarshalSessionData round-trip a ceremony's
// SessionData through the opaque Challenge blob every WebAuthnChallenge
// row carries, so the ceremony can resume statelessly on the next
// request without keeping anything in process memory.
func marshalSessionData(s *webauthn.SessionData) ([]byte, error) {
	return json.Marshal(s)
}

func unmarshalSessionData(blob []byte, s *webauthn.SessionData) error {
	return json.Unmarshal(blob, s)
}

const webauthnChallengeTTL = 5 * time.Minute

// engineUser adapts a store.User and its registered credentials to the
// go-webauthn library's User interface (spec §4.4d).
type engineUser struct {
	user  *store.User
	creds []*store.WebAuthnCredential
}

func (u *engineUser) WebAuthnID() []byte { return u.user.ID[:] }

func (u *engineUser) WebAuthnName() string {
	if u.user.Email != nil {
		return *u.user.Email
	}
	return u.user.ID.String()
}

func (u *engineUser) WebAuthnDisplayName() string {
	if u.user.Name != nil {
		return *u.user.Name
	}
	return u.WebAuthnName()
}

func (u *engineUser) WebAuthnCredentials() []webauthn.Credential {
	out := make([]webauthn.Credential, 0, len(u.creds))
	for _, c := range u.creds {
		out = append(out, webauthn.Credential{
			ID:            c.CredentialID,
			PublicKey:     c.PublicKey,
			Authenticator: webauthn.Authenticator{SignCount: c.SignCount},
		})
	}
	return out
}

func (e *Engine) loadEngineUser(ctx context.Context, userID uuid.UUID) (*engineUser, error) {
	user, err := e.Store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "load user", err)
	}
	creds, err := e.Store.WebAuthnCredentials.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "load webauthn credentials", err)
	}
	return &engineUser{user: user, creds: creds}, nil
}

// BeginWebAuthnRegistration starts a passkey registration ceremony for an
// already-authenticated user. Registration requires a recent strong
// authentication (spec §4.4d), since adding a new passkey is equivalent
// to adding a new credential an attacker could use to keep access.
func (e *Engine) BeginWebAuthnRegistration(ctx context.Context, userID uuid.UUID, lastStrongAuthAt *time.Time) (*protocol.CredentialCreation, uuid.UUID, error) {
	if err := requireStepUp(lastStrongAuthAt); err != nil {
		return nil, uuid.Nil, err
	}
	wu, err := e.loadEngineUser(ctx, userID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	options, session, err := e.WebAuthn.BeginRegistration(wu)
	if err != nil {
		return nil, uuid.Nil, apperr.Wrap(apperr.Internal, "begin webauthn registration", err)
	}

	challengeID := uuid.New()
	sessionBlob, err := marshalSessionData(session)
	if err != nil {
		return nil, uuid.Nil, apperr.Wrap(apperr.Internal, "marshal webauthn session", err)
	}
	if err := e.Store.WebAuthnChallenges.Create(ctx, &store.WebAuthnChallenge{
		ID: challengeID, UserID: &userID, Challenge: sessionBlob,
		ChallengeType: store.ChallengeEmailFirst, ExpiresAt: time.Now().Add(webauthnChallengeTTL),
	}); err != nil {
		return nil, uuid.Nil, apperr.Wrap(apperr.Internal, "persist webauthn challenge", err)
	}
	return options, challengeID, nil
}

// FinishWebAuthnRegistration verifies the browser's attestation response
// against the pending challenge and stores the new credential.
func (e *Engine) FinishWebAuthnRegistration(ctx context.Context, userID, challengeID uuid.UUID, rawResponse []byte) error {
	challenge, err := e.Store.WebAuthnChallenges.ConsumeIfValid(ctx, challengeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.New(apperr.ChallengeExpired, "challenge not found or already used")
		}
		return apperr.Wrap(apperr.Internal, "consume webauthn challenge", err)
	}
	if challenge.UserID == nil || *challenge.UserID != userID {
		return apperr.New(apperr.Forbidden, "challenge does not belong to this user")
	}
	var session webauthn.SessionData
	if err := unmarshalSessionData(challenge.Challenge, &session); err != nil {
		return apperr.Wrap(apperr.Internal, "unmarshal webauthn session", err)
	}

	wu, err := e.loadEngineUser(ctx, userID)
	if err != nil {
		return err
	}
	parsed, err := protocol.ParseCredentialCreationResponseBody(bytes.NewReader(rawResponse))
	if err != nil {
		return apperr.New(apperr.Validation, "invalid credential creation response")
	}
	cred, err := e.WebAuthn.CreateCredential(wu, session, parsed)
	if err != nil {
		return apperr.New(apperr.Unauthorized, "webauthn registration verification failed")
	}

	if err := e.Store.WebAuthnCredentials.Create(ctx, &store.WebAuthnCredential{
		ID: uuid.New(), UserID: userID, CredentialID: cred.ID, PublicKey: cred.PublicKey,
		SignCount: cred.Authenticator.SignCount, CreatedAt: time.Now(),
	}); err != nil {
		return apperr.Wrap(apperr.Internal, "persist webauthn credential", err)
	}
	return nil
}

// BeginWebAuthnLogin starts a passkey authentication ceremony. With an
// email, it is scoped to that account's credentials (email-first); with
// none, it is a discoverable-credential ceremony where the authenticator
// itself picks a credential (spec §4.4d).
func (e *Engine) BeginWebAuthnLogin(ctx context.Context, email *string) (*protocol.CredentialAssertion, uuid.UUID, error) {
	var userID *uuid.UUID
	var options *protocol.CredentialAssertion
	var session *webauthn.SessionData
	challengeType := store.ChallengeDiscoverable

	if email != nil {
		normalized := normalizeEmail(*email)
		user, err := e.Store.Users.GetByEmail(ctx, normalized)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, uuid.Nil, apperr.New(apperr.InvalidCredentials, "invalid email or password")
			}
			return nil, uuid.Nil, apperr.Wrap(apperr.Internal, "load user", err)
		}
		wu, err := e.loadEngineUser(ctx, user.ID)
		if err != nil {
			return nil, uuid.Nil, err
		}
		opts, s, err := e.WebAuthn.BeginLogin(wu)
		if err != nil {
			return nil, uuid.Nil, apperr.Wrap(apperr.Internal, "begin webauthn login", err)
		}
		options, session, userID, challengeType = opts, s, &user.ID, store.ChallengeEmailFirst
	} else {
		opts, s, err := e.WebAuthn.BeginDiscoverableLogin()
		if err != nil {
			return nil, uuid.Nil, apperr.Wrap(apperr.Internal, "begin discoverable webauthn login", err)
		}
		options, session = opts, s
	}

	challengeID := uuid.New()
	sessionBlob, err := marshalSessionData(session)
	if err != nil {
		return nil, uuid.Nil, apperr.Wrap(apperr.Internal, "marshal webauthn session", err)
	}
	if err := e.Store.WebAuthnChallenges.Create(ctx, &store.WebAuthnChallenge{
		ID: challengeID, UserID: userID, Challenge: sessionBlob,
		ChallengeType: challengeType, ExpiresAt: time.Now().Add(webauthnChallengeTTL),
	}); err != nil {
		return nil, uuid.Nil, apperr.Wrap(apperr.Internal, "persist webauthn challenge", err)
	}
	return options, challengeID, nil
}

// FinishWebAuthnLogin verifies the browser's assertion response against
// the pending challenge and completes authentication.
func (e *Engine) FinishWebAuthnLogin(ctx context.Context, challengeID uuid.UUID, rawResponse []byte, dc DeviceContext) (*LoginResult, error) {
	challenge, err := e.Store.WebAuthnChallenges.ConsumeIfValid(ctx, challengeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.ChallengeExpired, "challenge not found or already used")
		}
		return nil, apperr.Wrap(apperr.Internal, "consume webauthn challenge", err)
	}
	var session webauthn.SessionData
	if err := unmarshalSessionData(challenge.Challenge, &session); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "unmarshal webauthn session", err)
	}

	parsed, err := protocol.ParseCredentialRequestResponseBody(bytes.NewReader(rawResponse))
	if err != nil {
		return nil, apperr.New(apperr.Validation, "invalid credential request response")
	}

	var user *store.User
	if challenge.ChallengeType == store.ChallengeDiscoverable {
		handler := func(rawID, userHandle []byte) (webauthn.User, error) {
			uid, err := uuid.FromBytes(userHandle)
			if err != nil {
				return nil, err
			}
			wu, err := e.loadEngineUser(ctx, uid)
			if err != nil {
				return nil, err
			}
			user = wu.user
			return wu, nil
		}
		if _, err := e.WebAuthn.ValidateDiscoverableLogin(handler, session, parsed); err != nil {
			return nil, apperr.New(apperr.Unauthorized, "webauthn authentication failed")
		}
	} else {
		if challenge.UserID == nil {
			return nil, apperr.New(apperr.Internal, "email-first challenge missing user")
		}
		wu, err := e.loadEngineUser(ctx, *challenge.UserID)
		if err != nil {
			return nil, err
		}
		if _, err := e.WebAuthn.ValidateLogin(wu, session, parsed); err != nil {
			return nil, apperr.New(apperr.Unauthorized, "webauthn authentication failed")
		}
		user = wu.user
	}

	return e.completeAuth(ctx, user, dc, true)
}
