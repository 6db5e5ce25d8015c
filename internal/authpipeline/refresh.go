package authpipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/store"
)

// Refresh rotates a refresh token: the presented token must hash to a
// session that is not revoked, in which case it is revoked with
// reason=rotated and a fresh pair is issued bound to a new session row
// (spec §4.4g). Presenting an already-revoked session's token is treated
// as token reuse (spec §8 B1): every other session for that user is
// revoked and the attempt is audited.
func (e *Engine) Refresh(ctx context.Context, refreshToken string, dc DeviceContext) (*LoginResult, error) {
	hash := e.Tokens.HashRefreshToken(refreshToken)
	session, err := e.Store.Sessions.GetByRefreshTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.InvalidToken, "invalid refresh token")
		}
		return nil, apperr.Wrap(apperr.Internal, "load session", err)
	}

	if session.IsRevoked() {
		_ = e.Store.Sessions.RevokeAllForUser(ctx, session.UserID, store.RevokeTokenReuse)
		e.audit(ctx, store.AuditTokenReuseDetected, &session.UserID, session.OrgID, dc, nil)
		return nil, apperr.New(apperr.InvalidToken, "invalid refresh token")
	}
	if time.Now().After(session.ExpiresAt) {
		return nil, apperr.New(apperr.TokenExpired, "refresh token has expired")
	}

	revoked, err := e.Store.Sessions.RevokeIfValid(ctx, session.ID, store.RevokeRotated)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "revoke session", err)
	}
	if !revoked {
		// Lost the race to a concurrent refresh of the same token: treat
		// this attempt as reuse rather than silently succeeding twice.
		_ = e.Store.Sessions.RevokeAllForUser(ctx, session.UserID, store.RevokeTokenReuse)
		e.audit(ctx, store.AuditTokenReuseDetected, &session.UserID, session.OrgID, dc, nil)
		return nil, apperr.New(apperr.InvalidToken, "invalid refresh token")
	}

	user, err := e.Store.Users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "load user", err)
	}

	if dc.IPAddress != "" && session.IPAddress != "" && dc.IPAddress != session.IPAddress {
		e.audit(ctx, store.AuditIPChangedOnRefresh, &user.ID, session.OrgID, dc, map[string]string{"previous_ip": session.IPAddress})
	}

	newSessionID := uuid.New()
	role := session.Role
	pair, err := e.Tokens.IssuePair(user.ID, newSessionID, session.OrgID, role, user.IsSystemAdmin, user.EmailVerified)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "issue token pair", err)
	}
	newSession := &store.Session{
		ID: newSessionID, UserID: user.ID, RefreshTokenHash: pair.RefreshTokenHash,
		OrgID: session.OrgID, Role: role, ExpiresAt: pair.AccessExpiresAt.Add(refreshLifetimeOverAccess),
		LastStrongAuthAt: session.LastStrongAuthAt,
		IPAddress:        dc.IPAddress, UserAgent: dc.UserAgent, CreatedAt: time.Now(),
	}
	if err := e.Store.Sessions.Create(ctx, newSession); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "persist rotated session", err)
	}

	return &LoginResult{User: user, Session: newSession, Tokens: pair}, nil
}
