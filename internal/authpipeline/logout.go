package authpipeline

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/store"
)

// Logout revokes a single session (spec §4.4h). Idempotent: revoking an
// already-revoked or missing session is not an error.
func (e *Engine) Logout(ctx context.Context, sessionID, userID uuid.UUID, dc DeviceContext) error {
	session, err := e.Store.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return apperr.Wrap(apperr.Internal, "load session", err)
	}
	if session.UserID != userID {
		return apperr.New(apperr.Forbidden, "session does not belong to this user")
	}
	if _, err := e.Store.Sessions.RevokeIfValid(ctx, sessionID, store.RevokeLogout); err != nil {
		return apperr.Wrap(apperr.Internal, "revoke session", err)
	}
	e.audit(ctx, store.AuditUserLogout, &userID, session.OrgID, dc, nil)
	return nil
}

// LogoutAll revokes every active session for a user (spec §4.4h
// "logout all devices").
func (e *Engine) LogoutAll(ctx context.Context, userID uuid.UUID, dc DeviceContext) error {
	if err := e.Store.Sessions.RevokeAllForUser(ctx, userID, store.RevokeLogoutAll); err != nil {
		return apperr.Wrap(apperr.Internal, "revoke all sessions", err)
	}
	e.audit(ctx, store.AuditUserLogout, &userID, nil, dc, map[string]string{"scope": "all_devices"})
	return nil
}
