// Package admin holds system-admin/org-owner management operations that
// sit outside the regular end-user auth surface: per-org SSO provider
// CRUD today, the same scope the Rust teacher's handlers/admin package
// covers.
package admin

import (
	"context"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/crypto"
	"github.com/cedros/core/internal/store"
)

// Engine manages SSOProvider rows. SecretKey is the same AEAD key
// authpipeline.Engine.SSOSecretKey decrypts client secrets with, so a
// provider created here is immediately usable by the SSO login flow.
type Engine struct {
	Store              *store.Store
	SecretKey          []byte
	RequireHTTPSIssuer bool
}

func New(s *store.Store, secretKey []byte, requireHTTPSIssuer bool) *Engine {
	return &Engine{Store: s, SecretKey: secretKey, RequireHTTPSIssuer: requireHTTPSIssuer}
}

var requiredScopes = []string{"openid", "email"}

func validateProviderSettings(issuerURL string, scopes []string, requireHTTPS bool) error {
	u, err := url.Parse(issuerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return apperr.New(apperr.Validation, "invalid issuer url")
	}
	if requireHTTPS && u.Scheme != "https" {
		return apperr.New(apperr.Validation, "oidc issuer url must use https in production")
	}
	for _, required := range requiredScopes {
		found := false
		for _, s := range scopes {
			if strings.EqualFold(s, required) {
				found = true
				break
			}
		}
		if !found {
			return apperr.New(apperr.Validation, "oidc scope '"+required+"' is required")
		}
	}
	return nil
}

// access reports whether userID may manage SSO providers for orgID:
// system admins manage every org, otherwise only an Owner of that org.
func (e *Engine) access(ctx context.Context, userID, orgID uuid.UUID) error {
	user, err := e.Store.Users.GetByID(ctx, userID)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "load user", err)
	}
	if user.IsSystemAdmin {
		return nil
	}
	m, err := e.Store.Memberships.Get(ctx, userID, orgID)
	if err != nil || m == nil || m.Role != store.RoleOwner {
		return apperr.New(apperr.Forbidden, "sso management requires org owner or system admin privileges")
	}
	return nil
}

// List returns orgID's providers: system admins may list any org's
// providers, anyone else must own the org.
func (e *Engine) List(ctx context.Context, userID, orgID uuid.UUID) ([]*store.SSOProvider, error) {
	if err := e.access(ctx, userID, orgID); err != nil {
		return nil, err
	}
	return e.Store.SSOProviders.ListByOrg(ctx, orgID)
}

func (e *Engine) Get(ctx context.Context, userID, providerID uuid.UUID) (*store.SSOProvider, error) {
	provider, err := e.Store.SSOProviders.GetByID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if err := e.access(ctx, userID, provider.OrgID); err != nil {
		return nil, err
	}
	return provider, nil
}

// CreateRequest mirrors the Rust teacher's CreateSsoProviderRequest;
// ClientSecret is the plaintext secret, encrypted here before storage.
type CreateRequest struct {
	OrgID             uuid.UUID
	Name              string
	IssuerURL         string
	ClientID          string
	ClientSecret      string
	Scopes            []string
	Enabled           bool
	AllowRegistration bool
	EmailDomain       *string
}

func (e *Engine) Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*store.SSOProvider, error) {
	if err := e.access(ctx, userID, req.OrgID); err != nil {
		return nil, err
	}
	if _, err := e.Store.Orgs.GetByID(ctx, req.OrgID); err != nil {
		return nil, apperr.New(apperr.NotFound, "organization not found")
	}
	scopes := req.Scopes
	if len(scopes) == 0 {
		scopes = []string{"openid", "email", "profile"}
	}
	if err := validateProviderSettings(req.IssuerURL, scopes, e.RequireHTTPSIssuer); err != nil {
		return nil, err
	}
	ciphertext, nonce, err := crypto.AEADEncrypt(e.SecretKey, []byte(req.ClientSecret))
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "encrypt client secret", err)
	}
	provider := &store.SSOProvider{
		ID: uuid.New(), OrgID: req.OrgID, Name: req.Name, IssuerURL: req.IssuerURL,
		ClientID: req.ClientID, EncryptedSecret: ciphertext, SecretNonce: nonce,
		AllowedScopes: scopes, Enabled: req.Enabled, AllowRegistration: req.AllowRegistration,
		EmailDomain: req.EmailDomain,
	}
	if err := e.Store.SSOProviders.Create(ctx, provider); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "create sso provider", err)
	}
	return provider, nil
}

// UpdateRequest fields are applied only when non-nil, the same
// partial-update semantics as the Rust teacher's UpdateSsoProviderRequest.
type UpdateRequest struct {
	Name              *string
	IssuerURL         *string
	ClientID          *string
	ClientSecret      *string
	Scopes            []string
	Enabled           *bool
	AllowRegistration *bool
	EmailDomain       *string
	EmailDomainSet    bool
}

func (e *Engine) Update(ctx context.Context, userID, providerID uuid.UUID, req UpdateRequest) (*store.SSOProvider, error) {
	provider, err := e.Store.SSOProviders.GetByID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if err := e.access(ctx, userID, provider.OrgID); err != nil {
		return nil, err
	}
	if req.Name != nil {
		provider.Name = *req.Name
	}
	if req.IssuerURL != nil {
		provider.IssuerURL = *req.IssuerURL
	}
	if req.ClientID != nil {
		provider.ClientID = *req.ClientID
	}
	if req.ClientSecret != nil {
		ciphertext, nonce, err := crypto.AEADEncrypt(e.SecretKey, []byte(*req.ClientSecret))
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, "encrypt client secret", err)
		}
		provider.EncryptedSecret, provider.SecretNonce = ciphertext, nonce
	}
	if req.Scopes != nil {
		provider.AllowedScopes = req.Scopes
	}
	if req.Enabled != nil {
		provider.Enabled = *req.Enabled
	}
	if req.AllowRegistration != nil {
		provider.AllowRegistration = *req.AllowRegistration
	}
	if req.EmailDomainSet {
		provider.EmailDomain = req.EmailDomain
	}
	if err := validateProviderSettings(provider.IssuerURL, provider.AllowedScopes, e.RequireHTTPSIssuer); err != nil {
		return nil, err
	}
	if err := e.Store.SSOProviders.Update(ctx, provider); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "update sso provider", err)
	}
	return provider, nil
}

func (e *Engine) Delete(ctx context.Context, userID, providerID uuid.UUID) error {
	provider, err := e.Store.SSOProviders.GetByID(ctx, providerID)
	if err != nil {
		return err
	}
	if err := e.access(ctx, userID, provider.OrgID); err != nil {
		return err
	}
	if err := e.Store.SSOProviders.Delete(ctx, providerID); err != nil {
		return apperr.Wrap(apperr.Internal, "delete sso provider", err)
	}
	return nil
}
