package authpipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/crypto"
	"github.com/cedros/core/internal/store"
)

const siwsChallengeTTL = 5 * time.Minute

// SolanaChallenge is the nonce + canonical message a client must sign to
// complete Sign-In-With-Solana (spec §4.4c).
type SolanaChallenge struct {
	Nonce     string
	Message   string
	ExpiresAt time.Time
}

// SolanaChallengeRequest starts SIWS: a client presents the base58
// public key it wants to authenticate as and receives a single-use
// nonce embedded in a canonical message to sign (spec §4.6: 32-50 char
// base58 public key).
func (e *Engine) SolanaChallengeRequest(ctx context.Context, publicKey string) (*SolanaChallenge, error) {
	if err := crypto.ValidateSolanaPubkeyString(publicKey); err != nil {
		return nil, apperr.New(apperr.Validation, "invalid solana public key")
	}

	nonce, err := crypto.GenerateOpaqueToken(24)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "generate challenge nonce", err)
	}
	now := time.Now()
	expiresAt := now.Add(siwsChallengeTTL)
	message := siwsMessage(publicKey, nonce, expiresAt)

	if err := e.Store.Nonces.Create(ctx, &store.SolanaNonce{
		Nonce: nonce, PublicKey: publicKey, Message: message, ExpiresAt: expiresAt,
	}); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "persist challenge", err)
	}

	return &SolanaChallenge{Nonce: nonce, Message: message, ExpiresAt: expiresAt}, nil
}

func siwsMessage(publicKey, nonce string, expiresAt time.Time) string {
	return fmt.Sprintf(
		"Sign in to Cedros\n\nWallet: %s\nNonce: %s\nExpires: %s",
		publicKey, nonce, expiresAt.UTC().Format(time.RFC3339),
	)
}

// SolanaLogin verifies a signed SIWS challenge and completes
// authentication, creating a wallet-authenticated account on first use
// (spec §4.4c, S3). The nonce is atomically consumed before any other
// check so a replayed or concurrently-raced request can only ever
// succeed once.
func (e *Engine) SolanaLogin(ctx context.Context, publicKey, signature, message string, dc DeviceContext) (*LoginResult, error) {
	nonce, ok := extractSIWSNonce(message)
	if !ok {
		return nil, apperr.New(apperr.Validation, "malformed challenge message")
	}

	consumed, err := e.Store.Nonces.ConsumeIfValid(ctx, nonce)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.ChallengeExpired, "challenge not found or already used")
		}
		return nil, apperr.Wrap(apperr.Internal, "consume challenge", err)
	}
	if consumed.PublicKey != publicKey || consumed.Message != message {
		return nil, apperr.New(apperr.Unauthorized, "signature does not match challenge")
	}

	sigBytes, err := crypto.DecodeBase58(signature)
	if err != nil {
		return nil, apperr.New(apperr.Unauthorized, "invalid signature encoding")
	}
	valid, err := crypto.VerifySignature(publicKey, []byte(message), sigBytes)
	if err != nil || !valid {
		return nil, apperr.New(apperr.Unauthorized, "signature does not match challenge")
	}

	user, err := e.Store.Users.GetByWalletAddress(ctx, publicKey)
	if err == nil {
		result, err := e.completeAuth(ctx, user, dc, true)
		return result, err
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Wrap(apperr.Internal, "load user", err)
	}

	now := time.Now()
	newUser := &store.User{
		ID: uuid.New(), WalletAddress: &publicKey,
		AuthMethods: []store.AuthMethod{store.AuthMethodSolana}, CreatedAt: now, UpdatedAt: now,
	}
	return e.registerNewUser(ctx, newUser, publicKey+"'s workspace", dc)
}

// extractSIWSNonce pulls the nonce back out of a canonical message so
// the server need not trust a client-submitted nonce alongside it;
// matching it against the consumed challenge's stored message (above)
// is what actually authorizes the request.
func extractSIWSNonce(message string) (string, bool) {
	const prefix = "Nonce: "
	idx := indexAfterLinePrefix(message, prefix)
	if idx < 0 {
		return "", false
	}
	end := idx
	for end < len(message) && message[end] != '\n' {
		end++
	}
	return message[idx:end], true
}

func indexAfterLinePrefix(s, prefix string) int {
	for i := 0; i+len(prefix) <= len(s); i++ {
		if s[i:i+len(prefix)] == prefix {
			return i + len(prefix)
		}
	}
	return -1
}
