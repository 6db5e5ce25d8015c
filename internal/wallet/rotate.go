package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/crypto"
	"github.com/cedros/core/internal/store"
)

// RotateSecretRequest re-encrypts Share A under a newly derived key,
// without changing the underlying seed or pubkey. Requires the current
// credential (spec §4.6 "rotate_user_secret (requires current
// credential)").
type RotateSecretRequest struct {
	Current  UnlockCredential
	New      EnrollRequest // ShareACiphertext/ShareANonce/KDF fields for the new credential
}

// RotateUserSecret verifies the current credential via the same AEAD
// decrypt used by Unlock, then swaps in the client-supplied re-encryption
// of Share A under the new credential. Share B and the pubkey are
// unchanged.
func (e *Engine) RotateUserSecret(ctx context.Context, userID uuid.UUID, req RotateSecretRequest) error {
	material, err := e.Store.Wallets.GetDefaultByUser(ctx, userID)
	if err != nil {
		return mapStoreErr(err, "no enrolled wallet for this user")
	}

	key, err := e.deriveShareAKey(material, req.Current)
	if err != nil {
		return err
	}
	defer crypto.Zero(key)
	if _, err := crypto.AEADDecrypt(key, material.ShareANonce, material.ShareACiphertext); err != nil {
		return apperr.New(apperr.InvalidCredentials, "invalid current credential")
	}

	if len(req.New.ShareANonce) != crypto.AEADNonceSize {
		return apperr.New(apperr.Validation, "share a nonce must be 12 bytes")
	}
	material.ShareAAuthMethod = req.New.AuthMethod
	material.ShareACiphertext = req.New.ShareACiphertext
	material.ShareANonce = req.New.ShareANonce
	material.ShareAKDFSalt = req.New.KDFSalt
	material.PRFSalt = req.New.PRFSalt
	material.ShareAPinHash = nil
	if req.New.AuthMethod == store.ShareAPin {
		if req.New.PIN == nil {
			return apperr.New(apperr.Validation, "pin required")
		}
		if err := validatePIN(*req.New.PIN); err != nil {
			return err
		}
		hash, err := crypto.HashPassword(*req.New.PIN, crypto.DefaultArgon2Params)
		if err != nil {
			return apperr.Wrap(apperr.Internal, "hash pin", err)
		}
		material.ShareAPinHash = &hash
	}
	if req.New.AuthMethod == store.ShareAPassword || req.New.AuthMethod == store.ShareAPin {
		material.ShareAKDFParams = store.Argon2Params{
			MemoryKiB: req.New.KDFParams.MemoryKiB, Time: req.New.KDFParams.Time, Threads: req.New.KDFParams.Threads,
		}
	}
	material.UpdatedAt = time.Now()

	if err := e.Store.Wallets.Update(ctx, material); err != nil {
		return apperr.Wrap(apperr.Internal, "update wallet material", err)
	}
	return nil
}

// RotateKeysRequest replaces the entire wallet with a brand new keypair
// (spec §4.6 "rotate (new keys; requires step-up for sessions)"). The
// session layer must enforce the step-up requirement before calling this.
type RotateKeysRequest = EnrollRequest

// RotateKeys discards the old wallet material and installs entirely new
// material under the same user, requiring a fresh client-side Shamir
// split just like Enroll.
func (e *Engine) RotateKeys(ctx context.Context, userID uuid.UUID, req RotateKeysRequest) (*store.WalletMaterial, error) {
	old, err := e.Store.Wallets.GetDefaultByUser(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err, "no enrolled wallet for this user")
	}
	if err := e.Store.Wallets.Delete(ctx, old.ID); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "delete old wallet material", err)
	}
	return e.Enroll(ctx, req, false)
}
