// Package authpipeline implements the uniform auth-method state machine
// of spec §4.4: every login method (password, OAuth, SIWS, WebAuthn, SSO,
// instant-link) converges on the same session/token issuance
// path, and every session-mutating operation (refresh, logout, org
// switch) shares the same revoke-and-audit plumbing.
package authpipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/devicelabel"
	"github.com/cedros/core/internal/oidc"
	"github.com/cedros/core/internal/orgauthz"
	"github.com/cedros/core/internal/ratelimit"
	"github.com/cedros/core/internal/store"
	"github.com/cedros/core/internal/tokens"
)

// OAuthProviderConfig is one OAuth-ID provider's verification parameters
// (spec §4.4b). JWKSURL and Issuer are fixed per provider; ClientID is
// the audience every ID token for this deployment must carry.
type OAuthProviderConfig struct {
	Enabled  bool
	ClientID string
	Issuer   string
	JWKSURL  string
}

// OAuthConfig groups the two OAuth-ID providers spec §4.4b names.
type OAuthConfig struct {
	Google OAuthProviderConfig
	Apple  OAuthProviderConfig
}

// Engine wires every dependency a login-completing method needs: the
// store, the token issuer, org resolution for the initial token context,
// and the lockout limiter. One Engine is shared process-wide.
type Engine struct {
	Store              *store.Store
	Tokens             *tokens.Issuer
	Orgs               *orgauthz.Engine
	Limiter            *ratelimit.Limiter
	OIDC               *oidc.Verifier
	OAuth              OAuthConfig
	WebAuthn           *webauthn.WebAuthn
	// SSOSecretKey decrypts a per-org SSOProvider's client secret
	// (AEAD-sealed at rest, spec §4.4e).
	SSOSecretKey       []byte
	AllowedRedirectHosts []string
	MaxSessionsPerUser int
	RequireEmailVerify bool
	// PublicBaseURL is this deployment's externally reachable origin,
	// used to build the links embedded in verification/reset/instant-link
	// emails (e.g. "https://app.cedros.example").
	PublicBaseURL string
}

func New(s *store.Store, iss *tokens.Issuer, orgs *orgauthz.Engine, lim *ratelimit.Limiter, maxSessions int, requireEmailVerify bool) *Engine {
	return &Engine{
		Store: s, Tokens: iss, Orgs: orgs, Limiter: lim,
		OIDC:               oidc.NewVerifier(nil, 10*time.Minute),
		MaxSessionsPerUser: maxSessions, RequireEmailVerify: requireEmailVerify,
	}
}

// LoginResult is what every completed auth method returns to its caller.
type LoginResult struct {
	User    *store.User
	Session *store.Session
	Tokens  tokens.Pair
	IsNew   bool
}

// DeviceContext carries the request-scoped metadata every session row and
// audit event needs, collected once at the handler layer.
type DeviceContext struct {
	IPAddress string
	UserAgent string
}

// completeAuth mints a session and token pair for an already-authenticated
// user, resolving the initial org/role context via DefaultOrg the same
// way every auth method in spec §4.4 does, then audits the event and
// enforces the session cap (spec §3 MAX_SESSIONS_PER_USER).
func (e *Engine) completeAuth(ctx context.Context, user *store.User, dc DeviceContext, strongAuth bool) (*LoginResult, error) {
	var orgID *uuid.UUID
	var role *string
	if m, err := e.Orgs.DefaultOrg(ctx, user.ID); err == nil && m != nil {
		orgID = &m.OrgID
		r := string(m.Role)
		role = &r
	}

	sessionID := uuid.New()
	pair, err := e.Tokens.IssuePair(user.ID, sessionID, orgID, role, user.IsSystemAdmin, user.EmailVerified)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "issue token pair", err)
	}

	session := &store.Session{
		ID:               sessionID,
		UserID:           user.ID,
		RefreshTokenHash: pair.RefreshTokenHash,
		OrgID:            orgID,
		Role:             role,
		ExpiresAt:        pair.AccessExpiresAt.Add(refreshLifetimeOverAccess),
		IPAddress:        dc.IPAddress,
		UserAgent:        dc.UserAgent,
		DeviceLabel:      devicelabel.Parse(dc.UserAgent),
		CreatedAt:        time.Now(),
	}
	if strongAuth {
		now := time.Now()
		session.LastStrongAuthAt = &now
	}
	if err := e.Store.Sessions.Create(ctx, session); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "persist session", err)
	}

	if capper, ok := e.Store.Sessions.(interface {
		EnforceSessionCap(uuid.UUID, int)
	}); ok && e.MaxSessionsPerUser > 0 {
		capper.EnforceSessionCap(user.ID, e.MaxSessionsPerUser)
	}

	e.audit(ctx, store.AuditUserAuthenticated, &user.ID, orgID, dc, nil)
	e.enqueueWebhook(ctx, "user_authenticated", user.ID, orgID)

	return &LoginResult{User: user, Session: session, Tokens: pair}, nil
}

// registerNewUser persists a brand-new user together with a personal
// organization, an owner membership, and an initial session as one
// atomic unit (spec §4.2 register_user_atomic), then audits and
// enqueues the registration webhook. Shared by every auth method that
// can create an account on first use (password, SIWS, OAuth, SSO): each
// caller builds the User row with its own identity fields set
// (password hash, wallet address, google/apple id, ...) and hands it
// here to finish registration uniformly.
func (e *Engine) registerNewUser(ctx context.Context, user *store.User, orgName string, dc DeviceContext) (*LoginResult, error) {
	now := time.Now()

	// The organization insert sits outside RegisterUserAtomic's
	// (user, membership, session) tuple: org rows carry no uniqueness
	// constraint this registration could race on, so an orphaned org
	// from a failed atomic step below is harmless, just unreferenced.
	org := &store.Organization{
		ID: uuid.New(), Name: orgName, Slug: uuid.NewString(),
		IsPersonal: true, OwnerID: user.ID, CreatedAt: now, UpdatedAt: now,
	}
	if err := e.Store.Orgs.Create(ctx, org); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "create personal organization", err)
	}
	membership := &store.Membership{ID: uuid.New(), UserID: user.ID, OrgID: org.ID, Role: store.RoleOwner, CreatedAt: now}

	sessionID := uuid.New()
	role := string(store.RoleOwner)
	pair, err := e.Tokens.IssuePair(user.ID, sessionID, &org.ID, &role, user.IsSystemAdmin, user.EmailVerified)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "issue token pair", err)
	}
	strongAuth := now
	session := &store.Session{
		ID: sessionID, UserID: user.ID, RefreshTokenHash: pair.RefreshTokenHash,
		OrgID: &org.ID, Role: &role, ExpiresAt: pair.AccessExpiresAt.Add(refreshLifetimeOverAccess),
		LastStrongAuthAt: &strongAuth,
		IPAddress:        dc.IPAddress, UserAgent: dc.UserAgent, CreatedAt: now,
	}

	if err := e.Store.Tx.RegisterUserAtomic(ctx, user, membership, session); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, apperr.New(apperr.EmailExists, "an account with this identity already exists")
		}
		return nil, apperr.Wrap(apperr.Internal, "register user", err)
	}

	e.audit(ctx, store.AuditUserRegistered, &user.ID, &org.ID, dc, nil)
	e.enqueueWebhook(ctx, "user_registered", user.ID, &org.ID)

	return &LoginResult{User: user, Session: session, Tokens: pair, IsNew: true}, nil
}

// stepUpWindow bounds how recently a session must have completed strong
// authentication (password, TOTP, recovery code, fresh WebAuthn) to
// perform a step-up-gated operation (spec glossary "Step-up").
const stepUpWindow = 5 * time.Minute

// requireStepUp enforces the step-up freshness window against a
// session's last recorded strong authentication.
func requireStepUp(lastStrongAuthAt *time.Time) error {
	if lastStrongAuthAt == nil || time.Since(*lastStrongAuthAt) > stepUpWindow {
		return apperr.New(apperr.StepUpRequired, "this action requires a recent strong authentication")
	}
	return nil
}

// refreshLifetimeOverAccess is a coarse upper bound on how long a
// refresh-bound session row stays live relative to its last-issued
// access token; the real expiry is refreshed on every successful
// rotation (spec §4.4g), so this only matters for a session that's never
// refreshed before its refresh token would naturally expire.
const refreshLifetimeOverAccess = 30 * 24 * time.Hour

// audit is a fire-and-forget write: a failure here must never fail the
// auth operation it describes (spec §4.4, REL-001), so the error is
// swallowed. The caller already holds everything needed to retry or
// reconstruct the event from other state if the audit log is lossy.
func (e *Engine) audit(ctx context.Context, eventType store.AuditEventType, userID, orgID *uuid.UUID, dc DeviceContext, metadata map[string]string) {
	_ = e.Store.Audit.Insert(ctx, &store.AuditEvent{
		ID:        uuid.New(),
		EventType: eventType,
		UserID:    userID,
		OrgID:     orgID,
		IPAddress: dc.IPAddress,
		UserAgent: dc.UserAgent,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	})
}

// enqueueWebhook hands the event off to the outbox for async delivery
// (spec glossary "Outbox"); delivery, retry, and signing are
// internal/outbox's concern, not this engine's.
func (e *Engine) enqueueWebhook(ctx context.Context, kind string, userID uuid.UUID, orgID *uuid.UUID) {
	payload := map[string]interface{}{"event": kind, "user_id": userID.String()}
	if orgID != nil {
		payload["org_id"] = orgID.String()
	}
	_ = e.Store.Outbox.Enqueue(ctx, &store.OutboxItem{
		ID:          uuid.New(),
		Kind:        store.OutboxWebhook,
		Payload:     payload,
		NextAttempt: time.Now(),
		CreatedAt:   time.Now(),
	})
}
