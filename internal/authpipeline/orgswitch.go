package authpipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/store"
)

// SwitchOrg rebinds a session to a different organization the user is a
// member of (spec §4.4i): the current session is revoked with
// reason=org_switch and a new session/token pair carries the new org/role
// context, so an access token's org claim always reflects the session it
// was minted for.
func (e *Engine) SwitchOrg(ctx context.Context, sessionID, userID, orgID uuid.UUID, dc DeviceContext) (*LoginResult, error) {
	membership, err := e.Orgs.RequireMember(ctx, userID, orgID)
	if err != nil {
		return nil, err
	}

	old, err := e.Store.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "load session", err)
	}
	if old.UserID != userID {
		return nil, apperr.New(apperr.Forbidden, "session does not belong to this user")
	}
	if _, err := e.Store.Sessions.RevokeIfValid(ctx, sessionID, store.RevokeOrgSwitch); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "revoke session", err)
	}

	user, err := e.Store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "load user", err)
	}

	role := string(membership.Role)
	newSessionID := uuid.New()
	pair, err := e.Tokens.IssuePair(userID, newSessionID, &orgID, &role, user.IsSystemAdmin, user.EmailVerified)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "issue token pair", err)
	}
	newSession := &store.Session{
		ID: newSessionID, UserID: userID, RefreshTokenHash: pair.RefreshTokenHash,
		OrgID: &orgID, Role: &role, ExpiresAt: pair.AccessExpiresAt.Add(refreshLifetimeOverAccess),
		LastStrongAuthAt: old.LastStrongAuthAt,
		IPAddress:        dc.IPAddress, UserAgent: dc.UserAgent, CreatedAt: time.Now(),
	}
	if err := e.Store.Sessions.Create(ctx, newSession); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "persist session", err)
	}

	return &LoginResult{User: user, Session: newSession, Tokens: pair}, nil
}
