// Package memory is the in-memory reference implementation of every
// store.* repository interface, used for tests and for running the
// server without Postgres. Every atomic contract from spec §4.2 is
// implemented under a per-store sync.Mutex so "read then write" never
// spans a suspension point (spec §5).
package memory

import (
	"github.com/google/uuid"

	"github.com/cedros/core/internal/store"
)

// New builds a fully in-memory store.Store with every repository wired
// to a shared TransactionalOps façade, mirroring the teacher's single
// BaseRepository wired into ServiceContext.
func New() *store.Store {
	users := &userRepo{byID: map[uuid.UUID]*store.User{}}
	sessions := &sessionRepo{byID: map[uuid.UUID]*store.Session{}}
	vtokens := &verificationTokenRepo{byHash: map[string]*store.VerificationToken{}}
	nonces := &nonceRepo{byNonce: map[string]*store.SolanaNonce{}}
	totp := &totpRepo{byUser: map[uuid.UUID]*store.TOTPSecret{}}
	orgs := &orgRepo{byID: map[uuid.UUID]*store.Organization{}}
	memberships := &membershipRepo{byID: map[uuid.UUID]*store.Membership{}}
	invites := &inviteRepo{byID: map[uuid.UUID]*store.Invite{}}
	policies := &policyRepo{byOrg: map[uuid.UUID][]*store.Policy{}}
	wallets := &walletRepo{byUser: map[uuid.UUID]*store.WalletMaterial{}, byID: map[uuid.UUID]*store.WalletMaterial{}}
	derived := &derivedWalletRepo{byUser: map[uuid.UUID][]*store.DerivedWallet{}}
	pending := &pendingRecoveryRepo{byUser: map[uuid.UUID]*store.PendingWalletRecovery{}}
	apikeys := &apiKeyRepo{byHash: map[string]*store.APIKey{}, byID: map[uuid.UUID]*store.APIKey{}}
	credTx := &creditTxRepo{byUser: map[uuid.UUID][]*store.CreditTransaction{}, byID: map[uuid.UUID]*store.CreditTransaction{}}
	holds := &creditHoldRepo{byID: map[uuid.UUID]*store.CreditHold{}}
	refunds := &refundRequestRepo{byID: map[uuid.UUID]*store.RefundRequest{}}
	waCreds := &webAuthnCredRepo{byUser: map[uuid.UUID][]*store.WebAuthnCredential{}}
	waChallenges := &webAuthnChallengeRepo{byID: map[uuid.UUID]*store.WebAuthnChallenge{}}
	ssoProviders := &ssoProviderRepo{byID: map[uuid.UUID]*store.SSOProvider{}}
	ssoStates := &ssoAuthStateRepo{byID: map[string]*store.SSOAuthState{}}
	audit := &auditRepo{}
	outbox := &outboxRepo{byID: map[uuid.UUID]*store.OutboxItem{}}
	ratelimit := &rateLimitRepo{byEmail: map[string]*store.FailedLoginCounter{}, mfaFailures: map[uuid.UUID]*mfaCounter{}}
	disposable := &disposableDomainRepo{domains: map[string]bool{"mailinator.com": true, "tempmail.com": true, "10minutemail.com": true}}

	tx := &txOps{
		users: users, sessions: sessions, memberships: memberships, invites: invites,
		wallets: wallets, credTx: credTx, holds: holds,
	}

	return &store.Store{
		Users: users, Sessions: sessions, VerificationTokens: vtokens, Nonces: nonces,
		TOTP: totp, Orgs: orgs, Memberships: memberships, Invites: invites, Policies: policies,
		Wallets: wallets, DerivedWallets: derived, PendingRecoveries: pending, APIKeys: apikeys,
		CreditTx: credTx, CreditHolds: holds, RefundRequests: refunds,
		WebAuthnCredentials: waCreds, WebAuthnChallenges: waChallenges,
		SSOProviders: ssoProviders, SSOAuthStates: ssoStates,
		Audit: audit, Outbox: outbox, RateLimit: ratelimit, DisposableDomains: disposable,
		Tx: tx,
	}
}

var errNotFound = store.ErrNotFound

func cp[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
