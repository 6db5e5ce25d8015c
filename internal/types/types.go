// Code scaffolded in the teacher's goctl style. Safe to edit.
// Package types holds the request/response DTOs httpx.Parse/OkJsonCtx
// marshal at the handler boundary; engines never see these directly.
package types

import "time"

type RegisterRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	UserID           string    `json:"user_id"`
	SessionID        string    `json:"session_id"`
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token,omitempty"`
	EmailVerified    bool      `json:"email_verified"`
	IsNewUser        bool      `json:"is_new_user"`
}

type MFAPendingResponse struct {
	MFAToken string `json:"mfa_token"`
	UserID   string `json:"user_id"`
}

type CompleteMFALoginRequest struct {
	MFAToken string `json:"mfa_token"`
	Code     string `json:"code"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	SessionID string `json:"session_id"`
}

type RequestPasswordResetRequest struct {
	Email string `json:"email"`
}

type CompletePasswordResetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type VerifyEmailRequest struct {
	Token string `json:"token"`
}

type RequestInstantLinkRequest struct {
	Email string `json:"email"`
}

type CompleteInstantLinkRequest struct {
	Token string `json:"token"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

// EnrollWalletRequest carries the already-split wallet shares the client
// produced locally (client-side cryptography is explicitly out of scope
// for this server, spec.md Non-goals): the server never splits a seed
// itself; it stores these shares and recombines Shares A and B only
// transiently, to sign or to derive child wallets (internal/wallet).
type EnrollWalletRequest struct {
	SolanaPubkey        string  `json:"solana_pubkey"`
	AuthMethod          string  `json:"auth_method"` // "password", "pin", "passkey", or "api_key"
	ShareACiphertextB64 string  `json:"share_a_ciphertext_b64"`
	ShareANonceB64      string  `json:"share_a_nonce_b64"`
	ShareBB64           string  `json:"share_b_b64"`
	KDFSaltB64          string  `json:"kdf_salt_b64,omitempty"`
	PRFSaltB64          string  `json:"prf_salt_b64,omitempty"`
	PIN                 *string `json:"pin,omitempty"`
}

type WalletResponse struct {
	PublicKey string `json:"public_key"`
}

type UnlockWalletRequest struct {
	Password     *string `json:"password,omitempty"`
	PIN          *string `json:"pin,omitempty"`
	PRFOutputB64 string  `json:"prf_output_b64,omitempty"`
}

type SignRequest struct {
	MessageBase64 string `json:"message_base64"`
}

type SignResponse struct {
	SignatureBase64 string `json:"signature_base64"`
}

type CreateDerivedWalletRequest struct {
	Label string `json:"label"`
}

type DerivedWalletResponse struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	PublicKey string `json:"public_key"`
}

type DepositFromChainRequest struct {
	Signature     string `json:"signature"`
	CustodyPubkey string `json:"custody_pubkey"`
	Currency      string `json:"currency"`
}

type SpendRequest struct {
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	IdempotencyKey *string           `json:"idempotency_key,omitempty"`
	ReferenceType  string            `json:"reference_type"`
	ReferenceID    *string           `json:"reference_id,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type CreditTransactionResponse struct {
	ID        string    `json:"id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	TxType    string    `json:"tx_type"`
	CreatedAt time.Time `json:"created_at"`
}

type BalanceResponse struct {
	Currency         string `json:"currency"`
	Balance          int64  `json:"balance"`
	AvailableBalance int64  `json:"available_balance"`
}

type HistoryResponse struct {
	Transactions []CreditTransactionResponse `json:"transactions"`
}

type APIKeyResponse struct {
	RawKey    string    `json:"raw_key,omitempty"`
	KeyPrefix string    `json:"key_prefix"`
	CreatedAt time.Time `json:"created_at"`
}

type RegenerateAPIKeyRequest struct {
	Label string `json:"label"`
}

type ListSSOProvidersRequest struct {
	OrgID string `form:"org_id"`
}

type SSOProviderIDRequest struct {
	ID string `path:"id"`
}

type CreateSSOProviderRequest struct {
	OrgID             string   `json:"org_id"`
	Name              string   `json:"name"`
	IssuerURL         string   `json:"issuer_url"`
	ClientID          string   `json:"client_id"`
	ClientSecret      string   `json:"client_secret"`
	Scopes            []string `json:"scopes,omitempty"`
	Enabled           bool     `json:"enabled"`
	AllowRegistration bool     `json:"allow_registration"`
	EmailDomain       *string  `json:"email_domain,omitempty"`
}

type UpdateSSOProviderRequest struct {
	ID                string   `path:"id"`
	Name              *string  `json:"name,omitempty"`
	IssuerURL         *string  `json:"issuer_url,omitempty"`
	ClientID          *string  `json:"client_id,omitempty"`
	ClientSecret      *string  `json:"client_secret,omitempty"`
	Scopes            []string `json:"scopes,omitempty"`
	Enabled           *bool    `json:"enabled,omitempty"`
	AllowRegistration *bool    `json:"allow_registration,omitempty"`
	EmailDomain       *string  `json:"email_domain,omitempty"`
	EmailDomainSet    bool     `json:"email_domain_set,omitempty"`
}

type SSOProviderResponse struct {
	ID                string   `json:"id"`
	OrgID             string   `json:"org_id"`
	Name              string   `json:"name"`
	IssuerURL         string   `json:"issuer_url"`
	ClientID          string   `json:"client_id"`
	Scopes            []string `json:"scopes"`
	Enabled           bool     `json:"enabled"`
	AllowRegistration bool     `json:"allow_registration"`
	EmailDomain       *string  `json:"email_domain,omitempty"`
}

type ListSSOProvidersResponse struct {
	Providers []SSOProviderResponse `json:"providers"`
}

type DeleteResponse struct {
	Success bool `json:"success"`
}
