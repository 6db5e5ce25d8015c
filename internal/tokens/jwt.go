// Package tokens issues and verifies the access-token / refresh-token
// pair of spec §4.3: a short-lived signed JWT carrying session context,
// and an opaque high-entropy refresh token the server never stores in
// cleartext.
package tokens

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cedros/core/internal/apperr"
)

// Algorithm names a JWT signing method. Access tokens are signed and
// verified with HS256 only: AlgorithmRS256 is declared here, but no code
// path signs or verifies with it and config has no setting that selects it.
type Algorithm string

const (
	AlgorithmHS256 Algorithm = "HS256"
	AlgorithmRS256 Algorithm = "RS256"
)

// Claims is the access-token payload of spec §4.3.
type Claims struct {
	jwt.RegisteredClaims
	SessionID      uuid.UUID  `json:"sid"`
	OrgID          *uuid.UUID `json:"org_id,omitempty"`
	Role           *string    `json:"role,omitempty"`
	IsSystemAdmin  bool       `json:"is_system_admin,omitempty"`
	EmailVerified  bool       `json:"email_verified,omitempty"`
}

// Issuer signs and verifies access tokens with a single symmetric key,
// mirroring gourdiantoken's Symmetric signing mode without its
// rotation/revocation machinery, which internal/store/memory.sessionRepo
// already covers via refresh-token hashing and revoke_if_valid.
type Issuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

func NewIssuer(secret []byte, issuer, audience string, accessTTL time.Duration) *Issuer {
	return &Issuer{secret: secret, issuer: issuer, audience: audience, ttl: accessTTL}
}

// IssueAccessToken produces a signed, short-lived bearer token for the
// given session context (spec §4.3).
func (i *Issuer) IssueAccessToken(userID uuid.UUID, sessionID uuid.UUID, orgID *uuid.UUID, role *string, isSystemAdmin, emailVerified bool) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(i.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		SessionID:     sessionID,
		OrgID:         orgID,
		Role:          role,
		IsSystemAdmin: isSystemAdmin,
		EmailVerified: emailVerified,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, apperr.Wrap(apperr.Internal, "sign access token", err)
	}
	return signed, expiresAt, nil
}

// VerifyAccessToken parses and validates a bearer token, rejecting
// anything not signed with the configured algorithm (no "alg":"none"
// confusion) and anything expired, not-yet-valid, or issued by/for a
// different issuer/audience.
func (i *Issuer) VerifyAccessToken(raw string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithIssuer(i.issuer), jwt.WithAudience(i.audience), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, apperr.New(apperr.Unauthorized, "invalid or expired access token")
	}
	return claims, nil
}
