// Package oidc verifies third-party-issued ID tokens (Google, Apple, and
// per-org SSO providers, spec §4.4b/e) against the issuer's published
// JWKS document, caching resolved keys per issuer for a configurable
// TTL so a verification never blocks on a network fetch under normal
// operation (spec §5 "in-memory caches: JWKS per issuer with an
// expiry").
package oidc

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

type cachedKeys struct {
	byKID     map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// Verifier fetches and caches JWKS documents and verifies RS256 ID
// tokens against them. One Verifier is shared process-wide across every
// OIDC-backed auth method (Google, Apple, per-org SSO).
type Verifier struct {
	httpClient *http.Client
	ttl        time.Duration

	mu    sync.RWMutex
	cache map[string]*cachedKeys // keyed by jwks URL
}

func NewVerifier(httpClient *http.Client, ttl time.Duration) *Verifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Second}
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Verifier{httpClient: httpClient, ttl: ttl, cache: make(map[string]*cachedKeys)}
}

// Verify parses and validates an RS256 ID token: signature against the
// issuer's JWKS, issuer, audience, and expiry. Claims are returned as a
// map since Google and Apple both diverge on the Go types of a few
// fields (Apple sends some booleans as strings).
func (v *Verifier) Verify(ctx context.Context, idToken, jwksURL, issuer, audience string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithIssuer(issuer), jwt.WithAudience(audience), jwt.WithExpirationRequired())
	_, err := parser.ParseWithClaims(idToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("id token is missing a kid header")
		}
		return v.keyFor(ctx, jwksURL, kid)
	})
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", err)
	}
	return claims, nil
}

func (v *Verifier) keyFor(ctx context.Context, jwksURL, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	entry, fresh := v.cache[jwksURL]
	v.mu.RUnlock()
	if fresh && time.Since(entry.fetchedAt) < v.ttl {
		if key, ok := entry.byKID[kid]; ok {
			return key, nil
		}
	}

	fetched, err := v.fetchJWKS(ctx, jwksURL)
	if err != nil {
		// A stale cached key is preferable to a hard failure on a
		// transient fetch error; only a cache miss on both is fatal.
		if fresh {
			if key, ok := entry.byKID[kid]; ok {
				return key, nil
			}
		}
		return nil, err
	}

	v.mu.Lock()
	v.cache[jwksURL] = fetched
	v.mu.Unlock()

	key, ok := fetched.byKID[kid]
	if !ok {
		return nil, fmt.Errorf("no jwks key matches kid %q", kid)
	}
	return key, nil
}

func (v *Verifier) fetchJWKS(ctx context.Context, jwksURL string) (*cachedKeys, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("fetch jwks: unexpected status %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode jwks: %w", err)
	}

	byKID := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		key, err := rsaKeyFromJWK(k.N, k.E)
		if err != nil {
			continue
		}
		byKID[k.Kid] = key
	}
	return &cachedKeys{byKID: byKID, fetchedAt: time.Now()}, nil
}

func rsaKeyFromJWK(nB64, eB64 string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nB64)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(eB64)
	if err != nil {
		return nil, err
	}
	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}, nil
}

// ClaimString reads a string claim, returning "" if absent or of a
// different type.
func ClaimString(c jwt.MapClaims, key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

// ClaimBool reads a boolean claim. Apple's id_token encodes
// email_verified and is_private_email as the strings "true"/"false"
// rather than JSON booleans, so both representations are accepted.
func ClaimBool(c jwt.MapClaims, key string) bool {
	switch v := c[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}

// ClaimInt reads an integer claim, which JSON decodes as float64 (or,
// for Apple, occasionally as a numeric string).
func ClaimInt(c jwt.MapClaims, key string) (int, bool) {
	switch v := c[key].(type) {
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		if err == nil {
			return n, true
		}
	}
	return 0, false
}
