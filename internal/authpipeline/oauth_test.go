package authpipeline_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cedros/core/internal/authpipeline"
)

// testIDTokenIssuer signs RS256 ID tokens and serves the matching JWKS
// document, standing in for Google/Apple in these tests.
type testIDTokenIssuer struct {
	key    *rsa.PrivateKey
	kid    string
	issuer string
	server *httptest.Server
}

func newTestIDTokenIssuer(t *testing.T, issuer string) *testIDTokenIssuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	iss := &testIDTokenIssuer{key: key, kid: "test-key-1", issuer: issuer}
	iss.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		doc := map[string]interface{}{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": iss.kid,
				"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
			}},
		}
		json.NewEncoder(w).Encode(doc)
	}))
	t.Cleanup(iss.server.Close)
	return iss
}

func (iss *testIDTokenIssuer) sign(t *testing.T, audience string, claims jwt.MapClaims) string {
	t.Helper()
	base := jwt.MapClaims{
		"iss": iss.issuer,
		"aud": audience,
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
	for k, v := range claims {
		base[k] = v
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, base)
	token.Header["kid"] = iss.kid
	signed, err := token.SignedString(iss.key)
	if err != nil {
		t.Fatalf("sign id token: %v", err)
	}
	return signed
}

func TestGoogleLoginRegistersThenLogsIn(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	dc := authpipeline.DeviceContext{IPAddress: "1.2.3.4", UserAgent: "test"}

	iss := newTestIDTokenIssuer(t, "https://accounts.google.com")
	eng.OAuth.Google = authpipeline.OAuthProviderConfig{
		Enabled: true, ClientID: "client-1", Issuer: iss.issuer, JWKSURL: iss.server.URL,
	}

	idToken := iss.sign(t, "client-1", jwt.MapClaims{
		"sub": "google-user-1", "email": "dave@example.com", "email_verified": true, "name": "Dave",
	})

	result, err := eng.GoogleLogin(ctx, idToken, dc)
	if err != nil {
		t.Fatalf("google login: %v", err)
	}
	if !result.IsNew {
		t.Fatal("expected first google login to register a new account")
	}

	idToken2 := iss.sign(t, "client-1", jwt.MapClaims{
		"sub": "google-user-1", "email": "dave@example.com", "email_verified": true, "name": "Dave",
	})
	result2, err := eng.GoogleLogin(ctx, idToken2, dc)
	if err != nil {
		t.Fatalf("second google login: %v", err)
	}
	if result2.IsNew || result2.User.ID != result.User.ID {
		t.Fatal("second google login must resolve to the same account")
	}
}

func TestGoogleLoginRejectsEmailCollisionWithPasswordAccount(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	dc := authpipeline.DeviceContext{IPAddress: "1.2.3.4", UserAgent: "test"}

	if _, err := eng.Register(ctx, authpipeline.RegisterRequest{Email: "erin@example.com", Password: "correct horse battery"}, dc); err != nil {
		t.Fatalf("register: %v", err)
	}

	iss := newTestIDTokenIssuer(t, "https://accounts.google.com")
	eng.OAuth.Google = authpipeline.OAuthProviderConfig{
		Enabled: true, ClientID: "client-1", Issuer: iss.issuer, JWKSURL: iss.server.URL,
	}
	idToken := iss.sign(t, "client-1", jwt.MapClaims{
		"sub": "google-user-2", "email": "erin@example.com", "email_verified": true,
	})

	if _, err := eng.GoogleLogin(ctx, idToken, dc); err == nil {
		t.Fatal("expected google login to reject an email collision with an existing password account")
	}
}

func TestAppleLoginBlocksUnknownRealUserStatusOnRegistration(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	dc := authpipeline.DeviceContext{IPAddress: "1.2.3.4", UserAgent: "test"}

	iss := newTestIDTokenIssuer(t, "https://appleid.apple.com")
	eng.OAuth.Apple = authpipeline.OAuthProviderConfig{
		Enabled: true, ClientID: "client-apple", Issuer: iss.issuer, JWKSURL: iss.server.URL,
	}
	idToken := iss.sign(t, "client-apple", jwt.MapClaims{
		"sub": "apple-user-1", "email": "frank@example.com", "real_user_status": float64(1),
	})

	if _, err := eng.AppleLogin(ctx, idToken, nil, dc); err == nil {
		t.Fatal("expected apple login to block registration with an unknown real_user_status")
	}
}

func TestAppleLoginAllowsRealUserRegistration(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	dc := authpipeline.DeviceContext{IPAddress: "1.2.3.4", UserAgent: "test"}

	iss := newTestIDTokenIssuer(t, "https://appleid.apple.com")
	eng.OAuth.Apple = authpipeline.OAuthProviderConfig{
		Enabled: true, ClientID: "client-apple", Issuer: iss.issuer, JWKSURL: iss.server.URL,
	}
	name := "Grace"
	idToken := iss.sign(t, "client-apple", jwt.MapClaims{
		"sub": "apple-user-2", "email": "grace@example.com", "real_user_status": float64(2),
	})

	result, err := eng.AppleLogin(ctx, idToken, &name, dc)
	if err != nil {
		t.Fatalf("apple login: %v", err)
	}
	if !result.IsNew {
		t.Fatal("expected apple login to register a new account")
	}
}
