package authpipeline_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cedros/core/internal/authpipeline"
	"github.com/cedros/core/internal/crypto"
	"github.com/cedros/core/internal/store"
)

// ssoTestProvider bundles everything needed to stand in for an org's
// OIDC provider: discovery and token endpoints on one mux, plus a
// separate JWKS server the discovery document points at. idToken is
// read at request time so each test can set it after construction.
type ssoTestProvider struct {
	server *httptest.Server
	issuer *testIDTokenIssuer
	idToken string
}

func newSSOTestProvider(t *testing.T) *ssoTestProvider {
	t.Helper()
	p := &ssoTestProvider{}
	mux := http.NewServeMux()
	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	p.issuer = newTestIDTokenIssuer(t, p.server.URL)

	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"issuer":                 p.server.URL,
			"authorization_endpoint": p.server.URL + "/authorize",
			"token_endpoint":         p.server.URL + "/token",
			"jwks_uri":               p.issuer.server.URL,
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "test-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     p.idToken,
		})
	})
	return p
}

func extractSSOState(t *testing.T, authURL string) string {
	t.Helper()
	u, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("parse authorization url: %v", err)
	}
	return u.Query().Get("state")
}

func TestSSOLoginRegistersNewUser(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	dc := authpipeline.DeviceContext{IPAddress: "1.2.3.4", UserAgent: "test"}

	idp := newSSOTestProvider(t)
	secretKey := make([]byte, crypto.AEADKeySize)
	for i := range secretKey {
		secretKey[i] = byte(i)
	}
	ciphertext, nonce, err := crypto.AEADEncrypt(secretKey, []byte("super-secret"))
	if err != nil {
		t.Fatalf("encrypt client secret: %v", err)
	}
	provider := &store.SSOProvider{
		ID: uuid.New(), OrgID: uuid.New(), IssuerURL: idp.server.URL, ClientID: "sso-client",
		EncryptedSecret: ciphertext, SecretNonce: nonce, AllowedScopes: []string{"openid", "email"},
		Enabled: true, AllowRegistration: true,
	}
	if err := eng.Store.SSOProviders.Create(ctx, provider); err != nil {
		t.Fatalf("create sso provider: %v", err)
	}
	eng.SSOSecretKey = secretKey
	idp.idToken = idp.issuer.sign(t, "sso-client", jwt.MapClaims{
		"sub": "sso-user-1", "email": "henry@example.com", "email_verified": true, "name": "Henry",
	})

	authURL, err := eng.StartSSO(ctx, provider.ID, nil)
	if err != nil {
		t.Fatalf("start sso: %v", err)
	}
	state := extractSSOState(t, authURL)

	result, err := eng.FinishSSO(ctx, state, "test-code", dc)
	if err != nil {
		t.Fatalf("finish sso: %v", err)
	}
	if !result.IsNew {
		t.Fatal("expected sso login to register a new account")
	}
	if result.User.Email == nil || *result.User.Email != "henry@example.com" {
		t.Fatal("expected the registered user's email to match the sso identity")
	}
}

func TestSSOLoginRejectsEmailDomainMismatch(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	dc := authpipeline.DeviceContext{IPAddress: "1.2.3.4", UserAgent: "test"}

	idp := newSSOTestProvider(t)
	secretKey := make([]byte, crypto.AEADKeySize)
	ciphertext, nonce, err := crypto.AEADEncrypt(secretKey, []byte("super-secret"))
	if err != nil {
		t.Fatalf("encrypt client secret: %v", err)
	}
	allowedDomain := "corp.example.com"
	provider := &store.SSOProvider{
		ID: uuid.New(), OrgID: uuid.New(), IssuerURL: idp.server.URL, ClientID: "sso-client",
		EncryptedSecret: ciphertext, SecretNonce: nonce, AllowedScopes: []string{"openid", "email"},
		Enabled: true, AllowRegistration: true, EmailDomain: &allowedDomain,
	}
	if err := eng.Store.SSOProviders.Create(ctx, provider); err != nil {
		t.Fatalf("create sso provider: %v", err)
	}
	eng.SSOSecretKey = secretKey
	idp.idToken = idp.issuer.sign(t, "sso-client", jwt.MapClaims{
		"sub": "sso-user-2", "email": "ivan@other.com", "email_verified": true,
	})

	authURL, err := eng.StartSSO(ctx, provider.ID, nil)
	if err != nil {
		t.Fatalf("start sso: %v", err)
	}
	state := extractSSOState(t, authURL)

	if _, err := eng.FinishSSO(ctx, state, "test-code", dc); err == nil {
		t.Fatal("expected sso login to reject an email outside the allowed domain")
	}
}

func TestSSOLoginRejectsReusedState(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	dc := authpipeline.DeviceContext{IPAddress: "1.2.3.4", UserAgent: "test"}

	idp := newSSOTestProvider(t)
	secretKey := make([]byte, crypto.AEADKeySize)
	ciphertext, nonce, err := crypto.AEADEncrypt(secretKey, []byte("super-secret"))
	if err != nil {
		t.Fatalf("encrypt client secret: %v", err)
	}
	provider := &store.SSOProvider{
		ID: uuid.New(), OrgID: uuid.New(), IssuerURL: idp.server.URL, ClientID: "sso-client",
		EncryptedSecret: ciphertext, SecretNonce: nonce, AllowedScopes: []string{"openid", "email"},
		Enabled: true, AllowRegistration: true,
	}
	if err := eng.Store.SSOProviders.Create(ctx, provider); err != nil {
		t.Fatalf("create sso provider: %v", err)
	}
	eng.SSOSecretKey = secretKey
	idp.idToken = idp.issuer.sign(t, "sso-client", jwt.MapClaims{
		"sub": "sso-user-3", "email": "judy@example.com", "email_verified": true,
	})

	authURL, err := eng.StartSSO(ctx, provider.ID, nil)
	if err != nil {
		t.Fatalf("start sso: %v", err)
	}
	state := extractSSOState(t, authURL)

	if _, err := eng.FinishSSO(ctx, state, "test-code", dc); err != nil {
		t.Fatalf("first finish should succeed: %v", err)
	}
	if _, err := eng.FinishSSO(ctx, state, "test-code", dc); err == nil {
		t.Fatal("expected a reused sso state to be rejected")
	}
}
