package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
)

// HMACSHA256 computes HMAC-SHA-256(key, data), used both for refresh-token
// hashing (key = JWT signing secret) and webhook payload signing.
func HMACSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// HMACSHA256Hex is HMACSHA256 hex-encoded, matching the
// X-Cedros-Signature header format in spec §6.
func HMACSHA256Hex(key, data []byte) string {
	return hex.EncodeToString(HMACSHA256(key, data))
}

// ConstantTimeEqual compares two byte slices without leaking timing.
func ConstantTimeEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// SHA256Hex hashes an opaque token for verification-token storage (spec §3).
func SHA256Hex(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RefreshTokenHash computes HMAC(secret, token) used to store only a hash
// of the opaque refresh token, per spec §4.3.
func RefreshTokenHash(secret []byte, token string) string {
	return HMACSHA256Hex(secret, []byte(token))
}

// GenerateOpaqueToken returns a URL-safe, high-entropy opaque token
// (refresh tokens, verification tokens, invite tokens, SSO state ids).
func GenerateOpaqueToken(nBytes int) (string, error) {
	buf := make([]byte, nBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
