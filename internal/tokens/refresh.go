package tokens

import (
	"time"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/crypto"
)

const refreshTokenBytes = 32

// Pair is the token pair issued atomically with a session row (spec
// §4.3): a signed access token plus an opaque refresh token. Only
// RefreshTokenHash is ever persisted.
type Pair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshTokenHash string
}

// IssuePair mints a fresh access token and a fresh opaque refresh token,
// hashing the refresh token with HMAC-SHA-256 under the same secret the
// Issuer signs access tokens with (spec §4.3's refresh-token hashing
// note), so callers persist only Pair.RefreshTokenHash.
func (i *Issuer) IssuePair(userID, sessionID uuid.UUID, orgID *uuid.UUID, role *string, isSystemAdmin, emailVerified bool) (Pair, error) {
	access, expiresAt, err := i.IssueAccessToken(userID, sessionID, orgID, role, isSystemAdmin, emailVerified)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := crypto.GenerateOpaqueToken(refreshTokenBytes)
	if err != nil {
		return Pair{}, err
	}
	return Pair{
		AccessToken:      access,
		AccessExpiresAt:  expiresAt,
		RefreshToken:      refresh,
		RefreshTokenHash: crypto.RefreshTokenHash(i.secret, refresh),
	}, nil
}

// HashRefreshToken exposes the same HMAC used at issuance, so the refresh
// handler (spec §4.4g) can hash an incoming token to look up its session.
func (i *Issuer) HashRefreshToken(token string) string {
	return crypto.RefreshTokenHash(i.secret, token)
}
