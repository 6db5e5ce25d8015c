package tokens

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIssuer() *Issuer {
	return NewIssuer([]byte("01234567890123456789012345678901"), "cedros.test", "cedros-api", 15*time.Minute)
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	iss := testIssuer()
	userID, sessionID, orgID := uuid.New(), uuid.New(), uuid.New()
	role := "owner"

	signed, expiresAt, err := iss.IssueAccessToken(userID, sessionID, &orgID, &role, false, true)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := iss.VerifyAccessToken(signed)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, sessionID, claims.SessionID)
	require.NotNil(t, claims.OrgID)
	assert.Equal(t, orgID, *claims.OrgID)
	assert.True(t, claims.EmailVerified)
}

func TestVerifyAccessTokenRejectsWrongSecret(t *testing.T) {
	iss := testIssuer()
	other := NewIssuer([]byte("abcdefghijabcdefghijabcdefghijab"), "cedros.test", "cedros-api", 15*time.Minute)

	signed, _, err := iss.IssueAccessToken(uuid.New(), uuid.New(), nil, nil, false, false)
	require.NoError(t, err)

	_, err = other.VerifyAccessToken(signed)
	assert.Error(t, err)
}

func TestVerifyAccessTokenRejectsExpired(t *testing.T) {
	iss := NewIssuer([]byte("01234567890123456789012345678901"), "cedros.test", "cedros-api", -time.Minute)
	signed, _, err := iss.IssueAccessToken(uuid.New(), uuid.New(), nil, nil, false, false)
	require.NoError(t, err)

	_, err = iss.VerifyAccessToken(signed)
	assert.Error(t, err)
}

func TestIssuePairProducesDistinctHashableRefreshToken(t *testing.T) {
	iss := testIssuer()
	pair, err := iss.IssuePair(uuid.New(), uuid.New(), nil, nil, false, false)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, iss.HashRefreshToken(pair.RefreshToken), pair.RefreshTokenHash)

	pair2, err := iss.IssuePair(uuid.New(), uuid.New(), nil, nil, false, false)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, pair2.RefreshToken)
}
