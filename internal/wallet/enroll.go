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

// EnrollRequest carries the client-prepared Shamir split (spec §4.6
// "Enrollment"): the client has already split the seed 2-of-3, encrypted
// Share A under a key derived from the chosen unlock credential, and kept
// Share C for itself.
type EnrollRequest struct {
	UserID           uuid.UUID
	SolanaPubkey     string
	AuthMethod       store.ShareAAuthMethod
	ShareACiphertext []byte
	ShareANonce      []byte
	ShareB           []byte
	KDFSalt          []byte // password/pin only
	KDFParams        crypto.Argon2Params
	PRFSalt          []byte // passkey only
	PIN              *string
}

// Enroll stores server-held wallet material. Users who authenticated via
// an external wallet (user.wallet_address set) cannot enroll embedded
// wallet material (spec §4.6).
func (e *Engine) Enroll(ctx context.Context, req EnrollRequest, userHasExternalWallet bool) (*store.WalletMaterial, error) {
	if userHasExternalWallet {
		return nil, apperr.New(apperr.Validation, "users authenticated via an external wallet cannot enroll embedded wallet material")
	}
	if err := crypto.ValidateSolanaPubkeyString(req.SolanaPubkey); err != nil {
		return nil, apperr.New(apperr.Validation, "invalid solana pubkey")
	}
	if len(req.ShareANonce) != crypto.AEADNonceSize {
		return nil, apperr.New(apperr.Validation, "share a nonce must be 12 bytes")
	}

	material := &store.WalletMaterial{
		ID:               uuid.New(),
		UserID:           req.UserID,
		SchemeVersion:    1,
		DerivationIndex:  0,
		SolanaPubkey:     req.SolanaPubkey,
		ShareAAuthMethod: req.AuthMethod,
		ShareACiphertext: req.ShareACiphertext,
		ShareANonce:      req.ShareANonce,
		ShareB:           req.ShareB,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	switch req.AuthMethod {
	case store.ShareAPassword, store.ShareAPin:
		if len(req.KDFSalt) < 16 {
			return nil, apperr.New(apperr.Validation, "kdf salt must be at least 16 bytes")
		}
		if err := crypto.ValidateArgon2Params(req.KDFParams); err != nil {
			return nil, apperr.New(apperr.Validation, err.Error())
		}
		material.ShareAKDFSalt = req.KDFSalt
		material.ShareAKDFParams = store.Argon2Params{
			MemoryKiB: req.KDFParams.MemoryKiB, Time: req.KDFParams.Time, Threads: req.KDFParams.Threads,
		}
		if req.AuthMethod == store.ShareAPin {
			if req.PIN == nil {
				return nil, apperr.New(apperr.Validation, "pin required")
			}
			if err := validatePIN(*req.PIN); err != nil {
				return nil, err
			}
			// The PIN is also Argon2-hashed and stored to gate future
			// rotations, independent of its use as the unlock KDF input.
			hash, err := crypto.HashPassword(*req.PIN, crypto.DefaultArgon2Params)
			if err != nil {
				return nil, apperr.Wrap(apperr.Internal, "hash pin", err)
			}
			material.ShareAPinHash = &hash
		}
	case store.ShareAPasskey:
		if len(req.PRFSalt) != crypto.PRFSaltSize {
			return nil, apperr.New(apperr.Validation, "prf salt must be 32 bytes")
		}
		material.PRFSalt = req.PRFSalt
	case store.ShareAAPIKey:
		// API-key-backed wallets reuse the passkey HKDF unlock path keyed
		// off the raw API key instead of PRF output, so they need the
		// same PRFSalt the passkey path stores.
		if len(req.PRFSalt) != crypto.PRFSaltSize {
			return nil, apperr.New(apperr.Validation, "prf salt must be 32 bytes")
		}
		material.PRFSalt = req.PRFSalt
	default:
		return nil, apperr.New(apperr.Validation, "unsupported share a auth method")
	}

	if err := e.Store.Wallets.Create(ctx, material); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, apperr.New(apperr.WalletExists, "user already has an enrolled wallet")
		}
		return nil, apperr.Wrap(apperr.Internal, "store wallet material", err)
	}
	return material, nil
}
