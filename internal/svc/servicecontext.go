// Code scaffolded in the teacher's goctl style. Safe to edit.
package svc

import (
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest"

	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/cedros/core/internal/admin"
	"github.com/cedros/core/internal/apikey"
	"github.com/cedros/core/internal/authpipeline"
	"github.com/cedros/core/internal/chain"
	"github.com/cedros/core/internal/config"
	"github.com/cedros/core/internal/cookies"
	"github.com/cedros/core/internal/credit"
	"github.com/cedros/core/internal/email"
	"github.com/cedros/core/internal/middleware"
	"github.com/cedros/core/internal/oidc"
	"github.com/cedros/core/internal/orgauthz"
	"github.com/cedros/core/internal/outbox"
	"github.com/cedros/core/internal/ratelimit"
	"github.com/cedros/core/internal/store"
	"github.com/cedros/core/internal/store/memory"
	"github.com/cedros/core/internal/store/postgres"
	"github.com/cedros/core/internal/tokens"
	"github.com/cedros/core/internal/wallet"
)

// ServiceContext holds every engine a handler needs, constructed once at
// boot and shared process-wide, the same shape as the teacher's
// svc.ServiceContext holding RPC clients and middleware.
type ServiceContext struct {
	Config config.Config

	Store *store.Store

	Auth    *authpipeline.Engine
	Orgs    *orgauthz.Engine
	Wallet  *wallet.Engine
	Credit  *credit.Engine
	APIKeys *apikey.Engine
	SSOAdmin *admin.Engine

	Cookies cookies.Config
	Outbox  *outbox.Worker

	RequiredAuthMiddleware rest.Middleware
	OptionalAuthMiddleware rest.Middleware
}

// NewServiceContext wires every engine from c, following the teacher's
// NewServiceContext pattern of constructing downstream clients once and
// handing the finished struct to every handler.
//
// The store is the in-process memory.New() backend for every repository
// except the audit log: when c.Database.DataSource is set, audit events
// are persisted to Postgres instead, since audit rows are the one
// compliance-sensitive record that must outlive a process restart.
// Every other repository remains memory-only until internal/store/postgres
// grows the rest of the schema.
func NewServiceContext(c config.Config) *ServiceContext {
	st := memory.New()

	if c.Database.DataSource != "" {
		db, err := postgres.Open(c.Database.DataSource)
		if err != nil {
			logx.Errorf("postgres unavailable, audit log staying in-memory: %v", err)
		} else if err := postgres.Migrate(db); err != nil {
			logx.Errorf("audit_events migration failed, audit log staying in-memory: %v", err)
		} else {
			st.Audit = postgres.NewAuditRepo(db)
		}
	}

	var rdb *redis.Client
	if c.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{Addr: c.Redis.Host, Password: c.Redis.Password, DB: c.Redis.DB})
	}

	limiter := ratelimit.New(rdb, st.RateLimit, ratelimit.Config{
		MaxAttempts: c.Lockout.MaxAttempts, BaseLockout: c.Lockout.BaseLockout, MaxLockout: c.Lockout.MaxLockout,
	})

	issuer := tokens.NewIssuer([]byte(c.Auth.AccessSecret), c.Auth.Issuer, c.Auth.Audience, c.Auth.AccessExpire)
	orgs := orgauthz.New(st)

	authEngine := authpipeline.New(st, issuer, orgs, limiter, c.Auth.MaxSessionsPerUser, c.Auth.RequireEmailVerify)
	authEngine.PublicBaseURL = c.Auth.PublicBaseURL
	authEngine.OIDC = oidc.NewVerifier(&http.Client{Timeout: 5 * time.Second}, 10*time.Minute)
	authEngine.OAuth = authpipeline.OAuthConfig{
		Google: authpipeline.OAuthProviderConfig{ClientID: c.OAuth.Google.ClientID, ClientSecret: c.OAuth.Google.ClientSecret},
		Apple:  authpipeline.OAuthProviderConfig{ClientID: c.OAuth.Apple.ClientID, ClientSecret: c.OAuth.Apple.ClientSecret},
	}
	authEngine.SSOSecretKey = []byte(c.SSO.SecretKey)
	authEngine.AllowedRedirectHosts = c.AllowedRedirectHosts

	if c.WebAuthn.RPID != "" {
		wa, err := webauthn.New(&webauthn.Config{
			RPID: c.WebAuthn.RPID, RPDisplayName: c.WebAuthn.RPDisplayName, RPOrigins: c.WebAuthn.RPOrigins,
		})
		if err != nil {
			logx.Errorf("construct webauthn: %v", err)
		} else {
			authEngine.WebAuthn = wa
		}
	}

	var chainVerifier chain.Verifier
	if c.Chain.SolanaRPCEndpoint != "" {
		chainVerifier = chain.NewSolanaClient(c.Chain.SolanaRPCEndpoint)
	}

	var sender email.Sender
	switch c.Email.Provider {
	case "postmark":
		sender = email.NewPostmarkSender(email.PostmarkConfig{
			APIToken: c.Email.Postmark.APIToken, FromEmail: c.Email.Postmark.FromEmail,
		})
	case "noop":
		sender = email.NoopSender{}
	default:
		sender = email.NewLogSender()
	}
	dispatcher := email.NewDispatcher(sender)

	var webhookSender *outbox.WebhookSender
	if c.Webhook.Secret != "" {
		ws, err := outbox.NewWebhookSender(outbox.WebhookConfig{
			Secret: []byte(c.Webhook.Secret), Timeout: c.Webhook.Timeout, MaxRetries: c.Webhook.MaxRetries,
		})
		if err != nil {
			logx.Errorf("construct webhook sender: %v", err)
		} else {
			webhookSender = ws
		}
	}
	outboxWorker := outbox.NewWorker(st, webhookSender, dispatcher, nil, c.OutboxMaxPerSecond)

	required := middleware.NewRequiredAuthMiddleware(issuer)
	optional := middleware.NewOptionalAuthMiddleware(issuer)

	return &ServiceContext{
		Config:  c,
		Store:   st,
		Auth:    authEngine,
		Orgs:    orgs,
		Wallet:  wallet.New(st),
		Credit:  credit.NewWithChain(st, chainVerifier),
		APIKeys: apikey.New(st, []byte(c.APIKey.Secret)),
		SSOAdmin: admin.New(st, []byte(c.SSO.SecretKey), c.Mode == "pro"),
		Cookies: cookies.Config{
			Enabled: c.Cookies.Enabled, Domain: c.Cookies.Domain, Secure: c.Cookies.Secure,
			SameSite: parseSameSite(c.Cookies.SameSite), AccessCookieName: c.Cookies.AccessCookieName,
			RefreshCookieName: c.Cookies.RefreshCookieName, PathPrefix: c.Cookies.PathPrefix,
		},
		Outbox:                 outboxWorker,
		RequiredAuthMiddleware: required.Handle,
		OptionalAuthMiddleware: optional.Handle,
	}
}

func parseSameSite(s string) http.SameSite {
	switch s {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
