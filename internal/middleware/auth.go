// Package middleware adapts the teacher's RPC-backed RequiredAuthMiddleware/
// OptionalAuthMiddleware split to this service's in-process token issuer:
// there is no separate auth microservice to call over zrpc, so the bearer
// token is verified directly against internal/tokens.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/cedros/core/internal/tokens"
)

const (
	authorizationHeaderKey = "Authorization"
	bearerPrefix           = "Bearer "
)

type contextKey string

const claimsContextKey contextKey = "claims"

// RequiredAuthMiddleware rejects a request that has no valid bearer token.
type RequiredAuthMiddleware struct {
	issuer *tokens.Issuer
}

// OptionalAuthMiddleware attaches claims when a valid bearer token is
// present, but never rejects a request for lacking one.
type OptionalAuthMiddleware struct {
	issuer *tokens.Issuer
}

func NewRequiredAuthMiddleware(issuer *tokens.Issuer) *RequiredAuthMiddleware {
	return &RequiredAuthMiddleware{issuer: issuer}
}

func NewOptionalAuthMiddleware(issuer *tokens.Issuer) *OptionalAuthMiddleware {
	return &OptionalAuthMiddleware{issuer: issuer}
}

func (m *RequiredAuthMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := bearerClaims(r, m.issuer)
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), claimsContextKey, claims)))
	}
}

func (m *OptionalAuthMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := bearerClaims(r, m.issuer); ok {
			r = r.WithContext(context.WithValue(r.Context(), claimsContextKey, claims))
		}
		next(w, r)
	}
}

func bearerClaims(r *http.Request, issuer *tokens.Issuer) (*tokens.Claims, bool) {
	header := r.Header.Get(authorizationHeaderKey)
	if header == "" || !strings.HasPrefix(header, bearerPrefix) {
		return nil, false
	}
	claims, err := issuer.VerifyAccessToken(strings.TrimPrefix(header, bearerPrefix))
	if err != nil {
		return nil, false
	}
	return claims, true
}

// ClaimsFromContext returns the verified claims a RequiredAuthMiddleware or
// OptionalAuthMiddleware attached to ctx, if any.
func ClaimsFromContext(ctx context.Context) (*tokens.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*tokens.Claims)
	return claims, ok
}
