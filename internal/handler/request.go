package handler

import (
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/authpipeline"
	"github.com/cedros/core/internal/middleware"
	"github.com/cedros/core/internal/tokens"
)

// DeviceContext builds the request-scoped metadata every session row and
// audit event needs (spec §4.2), preferring the left-most X-Forwarded-For
// hop over RemoteAddr when the gateway sits behind a reverse proxy.
func DeviceContext(r *http.Request) authpipeline.DeviceContext {
	return authpipeline.DeviceContext{IPAddress: clientIP(r), UserAgent: r.UserAgent()}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RequireClaims pulls the verified bearer claims a RequiredAuthMiddleware
// already attached to the request context; handlers registered behind
// that middleware can assume ok is always true.
func RequireClaims(r *http.Request) (*tokens.Claims, bool) {
	return middleware.ClaimsFromContext(r.Context())
}

// RequireUserID extracts the authenticated subject and session id from the
// request context, returning an apperr.Unauthorized if either is missing or
// malformed. Callers are always registered behind RequiredAuthMiddleware.
func RequireUserID(r *http.Request) (userID, sessionID uuid.UUID, err error) {
	claims, ok := RequireClaims(r)
	if !ok {
		return uuid.Nil, uuid.Nil, apperr.New(apperr.Unauthorized, "unauthorized")
	}
	userID, err = uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, uuid.Nil, apperr.New(apperr.Unauthorized, "unauthorized")
	}
	return userID, claims.SessionID, nil
}
