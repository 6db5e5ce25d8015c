package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/crypto"
	"github.com/cedros/core/internal/store"
)

// RecoverRequest is the full-seed recovery path (spec §4.6 "Recovery"):
// the client has reconstructed the seed from its phrase, re-derived the
// pubkey, re-split, and re-encrypted Share A under a (possibly new)
// credential. The server only verifies the pubkey still matches.
type RecoverRequest struct {
	ExpectedPubkey string
	New            EnrollRequest
}

// Recover verifies the submitted pubkey against the existing material and
// swaps in the new material atomically (spec §4.6, recover_wallet_atomic).
// A pubkey mismatch is a Validation error, never silently accepted.
func (e *Engine) Recover(ctx context.Context, userID uuid.UUID, req RecoverRequest) error {
	existing, err := e.Store.Wallets.GetDefaultByUser(ctx, userID)
	if err != nil {
		return mapStoreErr(err, "no enrolled wallet for this user")
	}
	if existing.SolanaPubkey != req.ExpectedPubkey {
		return apperr.New(apperr.Validation, "recovered pubkey does not match existing wallet")
	}
	if len(req.New.ShareANonce) != crypto.AEADNonceSize {
		return apperr.New(apperr.Validation, "share a nonce must be 12 bytes")
	}

	material := &store.WalletMaterial{
		ID:               uuid.New(),
		UserID:           userID,
		SchemeVersion:    existing.SchemeVersion,
		DerivationIndex:  0,
		SolanaPubkey:     req.ExpectedPubkey,
		ShareAAuthMethod: req.New.AuthMethod,
		ShareACiphertext: req.New.ShareACiphertext,
		ShareANonce:      req.New.ShareANonce,
		ShareAKDFSalt:    req.New.KDFSalt,
		PRFSalt:          req.New.PRFSalt,
		ShareB:           req.New.ShareB,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	if req.New.AuthMethod == store.ShareAPassword || req.New.AuthMethod == store.ShareAPin {
		material.ShareAKDFParams = store.Argon2Params{
			MemoryKiB: req.New.KDFParams.MemoryKiB, Time: req.New.KDFParams.Time, Threads: req.New.KDFParams.Threads,
		}
	}

	if err := e.Store.Tx.RecoverWalletAtomic(ctx, userID, material); err != nil {
		return apperr.Wrap(apperr.Internal, "recover wallet", err)
	}
	return nil
}

// ShareCRecover implements the feature-flagged Share-C-only recovery:
// the client sends Share C, the server combines B⊕C and verifies the
// derived pubkey, returning Share B on a match so the client can
// re-enroll. Share C must be exactly 32 bytes.
func (e *Engine) ShareCRecover(ctx context.Context, userID uuid.UUID, shareC [crypto.SeedSize]byte) (shareB []byte, err error) {
	material, err := e.Store.Wallets.GetDefaultByUser(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err, "no enrolled wallet for this user")
	}
	if len(material.ShareB) != crypto.SeedSize {
		return nil, apperr.Internalf("malformed share b length")
	}
	b := crypto.Share{X: 2}
	copy(b.Y[:], material.ShareB)
	c := crypto.Share{X: 3, Y: shareC}

	seed, err := crypto.ShamirCombine(b, c)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "invalid share c")
	}
	defer crypto.ZeroSeed(&seed)

	_, pubkey := crypto.Ed25519FromSeed(seed)
	if pubkey != material.SolanaPubkey {
		return nil, apperr.New(apperr.Validation, "recovered pubkey does not match existing wallet")
	}

	out := make([]byte, len(material.ShareB))
	copy(out, material.ShareB)
	return out, nil
}

// StorePendingRecovery stores an encrypted-at-rest recovery payload with a
// short TTL (spec §4.6 "Recovery-phrase delivery").
func (e *Engine) StorePendingRecovery(ctx context.Context, userID uuid.UUID, key []byte, plaintext []byte, ttl time.Duration) error {
	ciphertext, nonce, err := crypto.AEADEncrypt(key, plaintext)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "encrypt pending recovery", err)
	}
	return e.Store.PendingRecoveries.Upsert(ctx, &store.PendingWalletRecovery{
		UserID: userID, EncryptedPayload: ciphertext, Nonce: nonce, ExpiresAt: time.Now().Add(ttl),
	})
}

// FetchPendingRecovery returns the stored payload once; the caller is
// expected to follow up with AcknowledgeRecovery to delete it.
func (e *Engine) FetchPendingRecovery(ctx context.Context, userID uuid.UUID) (*store.PendingWalletRecovery, error) {
	p, err := e.Store.PendingRecoveries.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.NotFound, "no pending recovery payload")
		}
		return nil, apperr.Wrap(apperr.Internal, "fetch pending recovery", err)
	}
	if time.Now().After(p.ExpiresAt) {
		_ = e.Store.PendingRecoveries.Delete(ctx, userID)
		return nil, apperr.New(apperr.NotFound, "pending recovery payload has expired")
	}
	return p, nil
}

func (e *Engine) AcknowledgeRecovery(ctx context.Context, userID uuid.UUID) error {
	if err := e.Store.PendingRecoveries.Delete(ctx, userID); err != nil {
		return apperr.Wrap(apperr.Internal, "delete pending recovery", err)
	}
	return nil
}
