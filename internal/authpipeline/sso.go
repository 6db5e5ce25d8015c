package authpipeline

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/crypto"
	"github.com/cedros/core/internal/oidc"
	"github.com/cedros/core/internal/store"
)

const ssoStateTTL = 10 * time.Minute

// StartSSO begins a per-org OIDC authorization-code flow (spec §4.4e):
// it discovers the provider's endpoints, persists a random state bound
// to the provider and an optional allowlisted redirect URI, and returns
// the authorization URL the client should redirect the user to.
func (e *Engine) StartSSO(ctx context.Context, providerID uuid.UUID, redirectURI *string) (string, error) {
	provider, err := e.Store.SSOProviders.GetByID(ctx, providerID)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "load sso provider", err)
	}
	if !provider.Enabled {
		return "", apperr.New(apperr.NotFound, "sso provider is disabled")
	}
	if !hasScopes(provider.AllowedScopes, "openid", "email") {
		return "", apperr.New(apperr.ConfigErr, "sso provider must allow the openid and email scopes")
	}
	if redirectURI != nil {
		if err := e.validateRedirectURI(*redirectURI); err != nil {
			return "", err
		}
	}

	endpoints, err := oidc.Discover(ctx, nil, provider.IssuerURL)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "discover oidc endpoints", err)
	}

	state, err := crypto.GenerateOpaqueToken(24)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "generate sso state", err)
	}
	if err := e.Store.SSOAuthStates.Create(ctx, &store.SSOAuthState{
		StateID: state, ProviderID: providerID, RedirectURI: redirectURI, ExpiresAt: time.Now().Add(ssoStateTTL),
	}); err != nil {
		return "", apperr.Wrap(apperr.Internal, "persist sso state", err)
	}

	conf := &oauth2.Config{
		ClientID: provider.ClientID,
		Endpoint: oauth2.Endpoint{AuthURL: endpoints.AuthorizationEndpoint, TokenURL: endpoints.TokenEndpoint},
		Scopes:   provider.AllowedScopes,
	}
	return conf.AuthCodeURL(state), nil
}

// FinishSSO completes the authorization-code flow: it consumes the
// state, exchanges the code for tokens, verifies the returned ID token
// against the provider's JWKS, and either logs in an existing user with
// a matching email or registers a new one if the provider allows it
// (spec §4.4e). Tokens are never placed in a URL; this method only ever
// returns a LoginResult for the caller to deliver via cookie or body.
func (e *Engine) FinishSSO(ctx context.Context, state, code string, dc DeviceContext) (*LoginResult, error) {
	authState, err := e.Store.SSOAuthStates.ConsumeIfValid(ctx, state)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.ChallengeExpired, "sso state not found or already used")
		}
		return nil, apperr.Wrap(apperr.Internal, "consume sso state", err)
	}

	provider, err := e.Store.SSOProviders.GetByID(ctx, authState.ProviderID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "load sso provider", err)
	}
	if !provider.Enabled {
		return nil, apperr.New(apperr.NotFound, "sso provider is disabled")
	}

	secret, err := crypto.AEADDecrypt(e.SSOSecretKey, provider.SecretNonce, provider.EncryptedSecret)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "decrypt sso client secret", err)
	}

	endpoints, err := oidc.Discover(ctx, nil, provider.IssuerURL)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "discover oidc endpoints", err)
	}
	conf := &oauth2.Config{
		ClientID: provider.ClientID, ClientSecret: string(secret),
		Endpoint: oauth2.Endpoint{AuthURL: endpoints.AuthorizationEndpoint, TokenURL: endpoints.TokenEndpoint},
	}
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, apperr.New(apperr.Unauthorized, "sso code exchange failed")
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, apperr.New(apperr.Unauthorized, "provider did not return an id token")
	}

	claims, err := e.OIDC.Verify(ctx, rawIDToken, endpoints.JWKSURI, endpoints.Issuer, provider.ClientID)
	if err != nil {
		return nil, apperr.New(apperr.Unauthorized, "invalid sso id token")
	}
	email := normalizeEmail(oidc.ClaimString(claims, "email"))
	if email == "" {
		return nil, apperr.New(apperr.Validation, "sso identity did not provide an email")
	}
	if provider.EmailDomain != nil {
		domain := email[strings.LastIndex(email, "@")+1:]
		if domain != *provider.EmailDomain {
			return nil, apperr.New(apperr.Forbidden, "email domain is not allowed for this provider")
		}
	}

	user, err := e.Store.Users.GetByEmail(ctx, email)
	if err == nil {
		result, err := e.completeAuth(ctx, user, dc, true)
		return result, err
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Wrap(apperr.Internal, "load user", err)
	}
	if !provider.AllowRegistration {
		return nil, apperr.New(apperr.Forbidden, "this organization does not allow sso self-registration")
	}

	now := time.Now()
	var name *string
	if n := oidc.ClaimString(claims, "name"); n != "" {
		name = &n
	}
	newUser := &store.User{
		ID: uuid.New(), Email: &email, EmailVerified: oidc.ClaimBool(claims, "email_verified"),
		Name: name, AuthMethods: []store.AuthMethod{store.AuthMethodSSO}, CreatedAt: now, UpdatedAt: now,
	}
	return e.registerNewUser(ctx, newUser, personalOrgName(name, email), dc)
}

func hasScopes(scopes []string, required ...string) bool {
	have := make(map[string]bool, len(scopes))
	for _, s := range scopes {
		have[s] = true
	}
	for _, r := range required {
		if !have[r] {
			return false
		}
	}
	return true
}

// validateRedirectURI rejects any redirect target whose host is not in
// the configured allowlist (spec §4.4e); an empty allowlist refuses every
// redirect rather than silently permitting all hosts.
func (e *Engine) validateRedirectURI(uri string) error {
	u, err := url.Parse(uri)
	if err != nil || u.Host == "" {
		return apperr.New(apperr.Validation, "redirect_uri is not in the allowed list")
	}
	for _, allowed := range e.AllowedRedirectHosts {
		if strings.EqualFold(u.Hostname(), allowed) {
			return nil
		}
	}
	return apperr.New(apperr.Validation, "redirect_uri is not in the allowed list")
}
