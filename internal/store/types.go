// Package store defines the repository contracts and entity types the
// rest of the engine is built against. Implementations may be in-memory
// (store/memory) or SQL-backed; business logic never sees a driver type.
package store

import (
	"time"

	"github.com/google/uuid"
)

type AuthMethod string

const (
	AuthMethodEmail    AuthMethod = "email"
	AuthMethodGoogle   AuthMethod = "google"
	AuthMethodApple    AuthMethod = "apple"
	AuthMethodSolana   AuthMethod = "solana"
	AuthMethodWebAuthn AuthMethod = "webauthn"
	AuthMethodSSO      AuthMethod = "sso"
)

// User is the core identity row (spec §3).
type User struct {
	ID                uuid.UUID
	Email             *string
	EmailVerified     bool
	PasswordHash      *string
	Name              *string
	Picture           *string
	WalletAddress     *string
	GoogleID          *string
	AppleID           *string
	StripeCustomerID  *string
	AuthMethods       []AuthMethod
	IsSystemAdmin     bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
	LastLoginAt       *time.Time
}

type RevokeReason string

const (
	RevokeRotated            RevokeReason = "rotated"
	RevokeLogout             RevokeReason = "logout"
	RevokeLogoutAll          RevokeReason = "logout_all"
	RevokePasswordReset      RevokeReason = "password_reset"
	RevokeOrgSwitch          RevokeReason = "org_switch"
	RevokeOrgSwitchCleanup   RevokeReason = "org_switch_cleanup"
	RevokeSessionLimit       RevokeReason = "session_limit"
	RevokeTokenReuse         RevokeReason = "token_reuse"
	RevokeUnspecified        RevokeReason = "unspecified"
)

// Session is a refresh-token-backed session row (spec §3).
type Session struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	RefreshTokenHash  string
	OrgID             *uuid.UUID
	Role              *string
	ExpiresAt         time.Time
	RevokedAt         *time.Time
	RevokedReason     *RevokeReason
	IPAddress         string
	UserAgent         string
	DeviceLabel       string
	LastStrongAuthAt  *time.Time
	CreatedAt         time.Time
}

func (s *Session) IsRevoked() bool { return s.RevokedAt != nil }

type VerificationTokenType string

const (
	TokenEmailVerify  VerificationTokenType = "email_verify"
	TokenPasswordReset VerificationTokenType = "password_reset"
	TokenInstantLink  VerificationTokenType = "instant_link"
	TokenMFAPending   VerificationTokenType = "mfa_pending"
)

// VerificationToken backs email verify / password reset / instant-link /
// mfa_pending single-use tokens (spec §3).
type VerificationToken struct {
	UserID    uuid.UUID
	TokenHash string
	TokenType VerificationTokenType
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
	// Metadata carries method-specific payload, e.g. the mfa_pending
	// token's resolved default-org context, so it need not be
	// re-resolved on verify.
	Metadata map[string]string
}

// SolanaNonce is a SIWS single-use challenge (spec §3).
type SolanaNonce struct {
	Nonce     string
	PublicKey string
	Message   string
	ExpiresAt time.Time
	UsedAt    *time.Time
}

// TOTPSecret is a user's enrolled TOTP state (spec §3).
type TOTPSecret struct {
	UserID             uuid.UUID
	Base32Secret       string
	Enabled            bool
	RecoveryCodeHashes []string
	LastUsedTimeStep   int64
}

// Organization (spec §3).
type Organization struct {
	ID         uuid.UUID
	Name       string
	Slug       string
	LogoURL    *string
	IsPersonal bool
	OwnerID    uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// RoleRank gives Owner > Admin > Member a total order, per spec §4.5.
func RoleRank(r Role) int {
	switch r {
	case RoleOwner:
		return 3
	case RoleAdmin:
		return 2
	case RoleMember:
		return 1
	default:
		return 0
	}
}

// Membership (spec §3).
type Membership struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	OrgID     uuid.UUID
	Role      Role
	CreatedAt time.Time
}

// Invite (spec §3). Exactly one of Email/WalletAddress is set.
type Invite struct {
	ID            uuid.UUID
	OrgID         uuid.UUID
	Email         *string
	WalletAddress *string
	Role          Role
	TokenHash     string
	ExpiresAt     time.Time
	AcceptedAt    *time.Time
	CreatedAt     time.Time
}

type PolicyEffect string

const (
	EffectAllow PolicyEffect = "allow"
	EffectDeny  PolicyEffect = "deny"
)

// Policy is an ABAC policy row (spec §3).
type Policy struct {
	ID         uuid.UUID
	OrgID      uuid.UUID
	Name       string
	Effect     PolicyEffect
	Actions    []string
	Principals []string // user_id strings or role names
	Condition  ConditionNode
	Priority   int
}

// ConditionNode is one node of the ABAC JSON condition tree (spec §4.5):
// eq/ne/in/contains/startsWith/and/or/not over attribute paths.
type ConditionNode struct {
	Op       string // "eq","ne","in","contains","startsWith","and","or","not"
	Path     string
	Value    interface{}
	Children []ConditionNode
}

type ShareAAuthMethod string

const (
	ShareAPassword ShareAAuthMethod = "password"
	ShareAPin      ShareAAuthMethod = "pin"
	ShareAPasskey  ShareAAuthMethod = "passkey"
	ShareAAPIKey   ShareAAuthMethod = "api_key"
)

// Argon2Params mirrors crypto.Argon2Params for storage without importing
// the crypto package's internal encoding from store.
type Argon2Params struct {
	MemoryKiB uint32
	Time      uint32
	Threads   uint8
}

// WalletMaterial is the server-held half of a custodial wallet (spec §3).
type WalletMaterial struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	SchemeVersion     int
	DerivationIndex   int
	SolanaPubkey      string
	ShareAAuthMethod  ShareAAuthMethod
	ShareACiphertext  []byte
	ShareANonce       []byte
	ShareAKDFSalt     []byte // password/pin only
	ShareAKDFParams   Argon2Params
	PRFSalt           []byte // passkey only
	ShareAPinHash     *string
	ShareB            []byte // plaintext share, 32+ bytes
	APIKeyID          *uuid.UUID
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// DerivedWallet is a child wallet (spec §4.6 "Derived wallets").
type DerivedWallet struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	DerivationIndex int
	SolanaPubkey    string
	Label           string
	CreatedAt       time.Time
}

// PendingWalletRecovery holds an encrypted-at-rest recovery phrase with a
// short TTL (spec §4.6 "Recovery-phrase delivery").
type PendingWalletRecovery struct {
	UserID           uuid.UUID
	EncryptedPayload []byte
	Nonce            []byte
	ExpiresAt        time.Time
}

type APIKey struct {
	ID     uuid.UUID
	UserID uuid.UUID
	// KeyHash is an HMAC over the raw key, never the raw key itself; the
	// raw value is only ever shown once, at creation/regeneration time.
	KeyHash string
	// KeyPrefix is the first few characters of the raw key, safe to
	// display afterward so a user can recognize which key is which.
	KeyPrefix  string
	Label      string
	CreatedAt  time.Time
	LastUsedAt *time.Time
	RevokedAt  *time.Time
}

type TxType string

const (
	TxDeposit             TxType = "deposit"
	TxSpend               TxType = "spend"
	TxAdjustmentPositive  TxType = "adjustment_positive"
	TxAdjustmentNegative  TxType = "adjustment_negative"
	TxRefundAdjustment    TxType = "refund_adjustment"
)

// CreditTransaction is one append-only ledger row (spec §3).
type CreditTransaction struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Amount         int64
	Currency       string
	TxType         TxType
	IdempotencyKey *string
	ReferenceType  *string
	ReferenceID    *string
	// Reason and AdminUserID are set for admin-issued adjustment_positive /
	// adjustment_negative rows (spec §4.7 "adjustment (admin)"); nil for
	// every other tx_type.
	Reason      *string
	AdminUserID *uuid.UUID
	// Metadata is an opaque caller-supplied bag (spec §4.7); every write
	// path that accepts one runs it through
	// credit.ValidateMetadataNoSecrets first.
	Metadata  map[string]string
	CreatedAt time.Time
}

type HoldStatus string

const (
	HoldPending  HoldStatus = "pending"
	HoldCaptured HoldStatus = "captured"
	HoldReleased HoldStatus = "released"
	HoldExpired  HoldStatus = "expired"
)

// CreditHold (spec §3).
type CreditHold struct {
	ID                    uuid.UUID
	UserID                uuid.UUID
	Amount                int64
	Currency              string
	Status                HoldStatus
	ExpiresAt             time.Time
	IdempotencyKey        *string
	CapturedTransactionID *uuid.UUID
	ReferenceType         *string
	ReferenceID           *string
	Metadata              map[string]string
	CreatedAt             time.Time
}

type RefundStatus string

const (
	RefundPending   RefundStatus = "pending"
	RefundProcessed RefundStatus = "processed"
)

// RefundRequest is a user-initiated refund against an original positive
// transaction (spec §4.7).
type RefundRequest struct {
	ID                    uuid.UUID
	UserID                uuid.UUID
	OriginalTransactionID uuid.UUID
	Amount                int64
	Status                RefundStatus
	ProcessedTransactionID *uuid.UUID
	CreatedAt             time.Time
	ProcessedAt           *time.Time
}

// WebAuthnCredential is a registered passkey credential (spec §4.4(d)).
type WebAuthnCredential struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	CredentialID    []byte
	PublicKey       []byte
	SignCount       uint32
	CreatedAt       time.Time
}

type WebAuthnChallengeType string

const (
	ChallengeEmailFirst   WebAuthnChallengeType = "email_first"
	ChallengeDiscoverable WebAuthnChallengeType = "discoverable"
)

// WebAuthnChallenge is a pending ceremony challenge (spec §4.4(d)).
type WebAuthnChallenge struct {
	ID            uuid.UUID
	UserID        *uuid.UUID
	Challenge     []byte
	ChallengeType WebAuthnChallengeType
	ExpiresAt     time.Time
	UsedAt        *time.Time
}

// SSOProvider is a per-org OIDC provider configuration (spec §4.4(e)).
type SSOProvider struct {
	ID                 uuid.UUID
	OrgID              uuid.UUID
	IssuerURL          string
	ClientID           string
	EncryptedSecret    []byte
	SecretNonce        []byte
	AllowedScopes      []string
	Enabled            bool
	AllowRegistration  bool
	EmailDomain        *string
}

// SSOAuthState is a pending OIDC authorization-code flow (spec §4.4(e)).
type SSOAuthState struct {
	StateID     string
	ProviderID  uuid.UUID
	RedirectURI *string
	ExpiresAt   time.Time
	UsedAt      *time.Time
}

type AuditEventType string

const (
	AuditUserAuthenticated     AuditEventType = "user_authenticated"
	AuditUserRegistered        AuditEventType = "user_registered"
	AuditUserLogout            AuditEventType = "user_logout"
	AuditTokenReuseDetected    AuditEventType = "token_reuse_detected"
	AuditWalletEnrolled        AuditEventType = "wallet_enrolled"
	AuditWalletSigned          AuditEventType = "wallet_transaction_signed"
	AuditWalletRotated         AuditEventType = "wallet_rotated"
	AuditWalletRecovered       AuditEventType = "wallet_recovered"
	AuditMembershipRoleChanged AuditEventType = "membership_role_changed"
	AuditIPChangedOnRefresh    AuditEventType = "ip_changed_on_refresh"
	AuditInstantLinkRequested  AuditEventType = "instant_link_requested"
	AuditPasswordReset         AuditEventType = "password_reset_completed"
)

// AuditEvent is a fire-and-forget audit log row (spec §4.4, §5).
type AuditEvent struct {
	ID        uuid.UUID
	EventType AuditEventType
	UserID    *uuid.UUID
	OrgID     *uuid.UUID
	IPAddress string
	UserAgent string
	Metadata  map[string]string
	CreatedAt time.Time
}

// OutboxKind names an outbox item's delivery channel. Webhook items carry
// their event name (user_authenticated or user_registered) in the
// payload's "event" field.
type OutboxKind string

const (
	OutboxWebhook       OutboxKind = "webhook"
	OutboxEmail         OutboxKind = "email"
	OutboxNotification  OutboxKind = "notification"
)

// OutboxItem is a queued asynchronous delivery (spec glossary "Outbox").
type OutboxItem struct {
	ID         uuid.UUID
	Kind       OutboxKind
	Payload    map[string]interface{}
	Attempts   int
	NextAttempt time.Time
	Delivered  bool
	CreatedAt  time.Time
}

type FailedLoginCounter struct {
	Email           string
	FailedAttempts  int
	LockedUntil     *time.Time
}

type DisposableDomain struct {
	Domain string
}
