package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors every repository implementation returns verbatim so
// business logic can branch on them with errors.Is regardless of backend.
var (
	ErrNotFound              = errors.New("store: record not found")
	ErrLastOwner             = errors.New("store: cannot change or remove the last owner of an organization")
	ErrDuplicateIdempotency  = errors.New("store: duplicate idempotency key")
	ErrInsufficientBalance   = errors.New("store: insufficient available balance")
	ErrAlreadyExists         = errors.New("store: record already exists")
)

// Narrow CRUD repository contracts, per spec §2/§4.2. Each is oblivious
// to whether it is backed by memory or a relational store.

type UserRepo interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*User, error)
	GetByAppleID(ctx context.Context, appleID string) (*User, error)
	GetByWalletAddress(ctx context.Context, addr string) (*User, error)
	Update(ctx context.Context, u *User) error
	List(ctx context.Context, offset, limit int) ([]*User, error)
}

type SessionRepo interface {
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	GetByRefreshTokenHash(ctx context.Context, hash string) (*Session, error)
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*Session, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Session, error)
	// RevokeIfValid atomically revokes the session iff it is not already
	// revoked, returning revoked=true iff this call performed the
	// revocation (spec §4.2 revoke_session_if_valid).
	RevokeIfValid(ctx context.Context, id uuid.UUID, reason RevokeReason) (revoked bool, err error)
	RevokeAllForUser(ctx context.Context, userID uuid.UUID, reason RevokeReason) error
}

type VerificationTokenRepo interface {
	Create(ctx context.Context, t *VerificationToken) error
	// ConsumeIfValid atomically sets UsedAt iff the token exists, is
	// unused, and unexpired, returning the row (spec §4.2).
	ConsumeIfValid(ctx context.Context, tokenHash string, tokenType VerificationTokenType) (*VerificationToken, error)
}

type NonceRepo interface {
	Create(ctx context.Context, n *SolanaNonce) error
	// ConsumeIfValid is the SIWS analogue of verification-token consume.
	ConsumeIfValid(ctx context.Context, nonce string) (*SolanaNonce, error)
}

type TOTPRepo interface {
	Get(ctx context.Context, userID uuid.UUID) (*TOTPSecret, error)
	Upsert(ctx context.Context, t *TOTPSecret) error
	// RecordUsedStep enforces the replay guard on last_used_time_step.
	RecordUsedStep(ctx context.Context, userID uuid.UUID, step int64) (bool, error)
}

type OrgRepo interface {
	Create(ctx context.Context, o *Organization) error
	GetByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	GetBySlug(ctx context.Context, slug string) (*Organization, error)
	Update(ctx context.Context, o *Organization) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*Organization, error)
}

type MembershipRepo interface {
	Create(ctx context.Context, m *Membership) error
	Get(ctx context.Context, userID, orgID uuid.UUID) (*Membership, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Membership, error)
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*Membership, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Membership, error)
	CountOwners(ctx context.Context, orgID uuid.UUID) (int, error)
	// UpdateRoleIfNotLastOwner and DeleteIfNotLastOwner implement the
	// guarded atomic update from spec §4.2/§4.5.
	UpdateRoleIfNotLastOwner(ctx context.Context, membershipID uuid.UUID, newRole Role) error
	DeleteIfNotLastOwner(ctx context.Context, membershipID uuid.UUID) error
}

type InviteRepo interface {
	Create(ctx context.Context, i *Invite) error
	GetByID(ctx context.Context, id uuid.UUID) (*Invite, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*Invite, error)
	GetPendingForRecipient(ctx context.Context, orgID uuid.UUID, email, wallet *string) (*Invite, error)
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*Invite, error)
	MarkAccepted(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type PolicyRepo interface {
	Create(ctx context.Context, p *Policy) error
	ListByOrgOrderedByPriority(ctx context.Context, orgID uuid.UUID) ([]*Policy, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type WalletRepo interface {
	Create(ctx context.Context, w *WalletMaterial) error
	GetDefaultByUser(ctx context.Context, userID uuid.UUID) (*WalletMaterial, error)
	GetByAPIKeyID(ctx context.Context, apiKeyID uuid.UUID) (*WalletMaterial, error)
	Update(ctx context.Context, w *WalletMaterial) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type DerivedWalletRepo interface {
	Create(ctx context.Context, d *DerivedWallet) error
	FindByID(ctx context.Context, id, userID uuid.UUID) (*DerivedWallet, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*DerivedWallet, error)
	NextDerivationIndex(ctx context.Context, userID uuid.UUID) (int, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type PendingRecoveryRepo interface {
	Upsert(ctx context.Context, p *PendingWalletRecovery) error
	Get(ctx context.Context, userID uuid.UUID) (*PendingWalletRecovery, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

type APIKeyRepo interface {
	Create(ctx context.Context, k *APIKey) error
	GetByHash(ctx context.Context, hash string) (*APIKey, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*APIKey, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	UpdateLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
}

type CreditTxRepo interface {
	Insert(ctx context.Context, tx *CreditTransaction) error
	GetByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*CreditTransaction, error)
	GetByID(ctx context.Context, id uuid.UUID) (*CreditTransaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*CreditTransaction, error)
	Balance(ctx context.Context, userID uuid.UUID, currency string) (int64, error)
	SumRefundsForOriginal(ctx context.Context, originalTxID uuid.UUID) (int64, error)
}

type CreditHoldRepo interface {
	Insert(ctx context.Context, h *CreditHold) error
	GetByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*CreditHold, error)
	GetByID(ctx context.Context, id uuid.UUID) (*CreditHold, error)
	ListPendingByUser(ctx context.Context, userID uuid.UUID, currency string) ([]*CreditHold, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*CreditHold, error)
	Update(ctx context.Context, h *CreditHold) error
}

type RefundRequestRepo interface {
	Insert(ctx context.Context, r *RefundRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*RefundRequest, error)
	Update(ctx context.Context, r *RefundRequest) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*RefundRequest, error)
}

type WebAuthnCredentialRepo interface {
	Create(ctx context.Context, c *WebAuthnCredential) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*WebAuthnCredential, error)
	GetByCredentialID(ctx context.Context, credentialID []byte) (*WebAuthnCredential, error)
	UpdateSignCount(ctx context.Context, id uuid.UUID, signCount uint32) error
}

type WebAuthnChallengeRepo interface {
	Create(ctx context.Context, c *WebAuthnChallenge) error
	ConsumeIfValid(ctx context.Context, id uuid.UUID) (*WebAuthnChallenge, error)
}

type SSOProviderRepo interface {
	Create(ctx context.Context, p *SSOProvider) error
	GetByID(ctx context.Context, id uuid.UUID) (*SSOProvider, error)
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*SSOProvider, error)
	Update(ctx context.Context, p *SSOProvider) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type SSOAuthStateRepo interface {
	Create(ctx context.Context, s *SSOAuthState) error
	ConsumeIfValid(ctx context.Context, stateID string) (*SSOAuthState, error)
}

type AuditRepo interface {
	Insert(ctx context.Context, e *AuditEvent) error
	ListRecent(ctx context.Context, limit int) ([]*AuditEvent, error)
}

type OutboxRepo interface {
	Enqueue(ctx context.Context, item *OutboxItem) error
	// Dequeue returns up to n items ready for delivery (NextAttempt <= now).
	Dequeue(ctx context.Context, now time.Time, n int) ([]*OutboxItem, error)
	MarkDelivered(ctx context.Context, id uuid.UUID) error
	MarkRetry(ctx context.Context, id uuid.UUID, nextAttempt time.Time) error
}

type RateLimitRepo interface {
	// RecordFailedLoginAttempt implements record_failed_login_attempt_atomic
	// (spec §4.2): increments a per-email counter and returns the
	// resulting lockout state.
	RecordFailedLoginAttempt(ctx context.Context, email string, cfg LockoutConfig) (FailedLoginCounter, error)
	ClearFailedLoginAttempts(ctx context.Context, email string) error
	GetFailedLoginCounter(ctx context.Context, email string) (FailedLoginCounter, error)

	RecordMFAFailure(ctx context.Context, userID uuid.UUID) (count int, lockedUntil *time.Time, err error)
	ClearMFAFailures(ctx context.Context, userID uuid.UUID) error

	// InstantLinkAllowed piggybacks on the failed-login counter store per
	// spec §4.4(f).
	InstantLinkAllowed(ctx context.Context, email string) (bool, error)
}

// LockoutConfig parameterizes the exponential lockout policy.
type LockoutConfig struct {
	MaxAttempts     int
	BaseLockout     time.Duration
	MaxLockout      time.Duration
}

type DisposableDomainRepo interface {
	IsDisposable(ctx context.Context, domain string) bool
}

// TransactionalOps is the façade for the multi-row atomic operations of
// spec §4.2 that a single narrow repository cannot express alone. Every
// method here MUST be a single transactional unit — no "read then write"
// across a suspension point (spec §5).
type TransactionalOps interface {
	// RegisterUserAtomic inserts (user, membership in assigned org,
	// session) as one unit.
	RegisterUserAtomic(ctx context.Context, u *User, m *Membership, session *Session) error

	// AcceptInviteAtomic consumes the invite and inserts the membership,
	// idempotent on re-submission.
	AcceptInviteAtomic(ctx context.Context, invite *Invite, userID uuid.UUID) (*Membership, error)

	// RecoverWalletAtomic deletes existing default wallet material and
	// inserts new material with the same pubkey.
	RecoverWalletAtomic(ctx context.Context, userID uuid.UUID, newMaterial *WalletMaterial) error

	// CreditAdd appends a positive ledger transaction (deposit/adjustment).
	CreditAdd(ctx context.Context, tx *CreditTransaction) error
	// CreditSpend checks available balance and appends a negative
	// transaction in one unit, returning ErrInsufficientBalance if the
	// balance would go negative and the actor is not a system admin
	// issuing adjustment_negative.
	CreditSpend(ctx context.Context, tx *CreditTransaction) error
	// HoldCreate inserts a pending hold after checking availability.
	HoldCreate(ctx context.Context, h *CreditHold) error
	// HoldCapture transitions a pending hold to captured and inserts the
	// bound spend transaction atomically.
	HoldCapture(ctx context.Context, holdID uuid.UUID, spendTx *CreditTransaction) (*CreditHold, *CreditTransaction, error)
	// HoldRelease transitions a pending hold to released.
	HoldRelease(ctx context.Context, holdID uuid.UUID) (*CreditHold, error)
}

// Store aggregates every repository plus the transactional façade, the
// single object a ServiceContext needs to hold (mirrors the teacher's
// single *repository.BaseRepository field).
type Store struct {
	Users               UserRepo
	Sessions            SessionRepo
	VerificationTokens  VerificationTokenRepo
	Nonces              NonceRepo
	TOTP                TOTPRepo
	Orgs                OrgRepo
	Memberships         MembershipRepo
	Invites             InviteRepo
	Policies            PolicyRepo
	Wallets             WalletRepo
	DerivedWallets      DerivedWalletRepo
	PendingRecoveries   PendingRecoveryRepo
	APIKeys             APIKeyRepo
	CreditTx            CreditTxRepo
	CreditHolds         CreditHoldRepo
	RefundRequests      RefundRequestRepo
	WebAuthnCredentials WebAuthnCredentialRepo
	WebAuthnChallenges  WebAuthnChallengeRepo
	SSOProviders        SSOProviderRepo
	SSOAuthStates       SSOAuthStateRepo
	Audit               AuditRepo
	Outbox              OutboxRepo
	RateLimit           RateLimitRepo
	DisposableDomains   DisposableDomainRepo
	Tx                  TransactionalOps
}
