package wallet

import (
	"context"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/crypto"
	"github.com/cedros/core/internal/store"
)

// Sign reconstructs the Solana seed from the cached unlock key (Share A)
// and stored Share B, signs msg with the resulting Ed25519 key, and zeros
// every transient secret before returning. Any error here — wrong cache
// state, decrypt failure, combine failure — is reported as the same
// generic failure, never distinguishing *why* signing failed (SEC-008 /
// spec §4.6, §7).
func (e *Engine) Sign(ctx context.Context, sessionID, userID uuid.UUID, msg []byte) ([]byte, error) {
	material, err := e.Store.Wallets.GetDefaultByUser(ctx, userID)
	if err != nil {
		return nil, apperr.New(apperr.Internal, "wallet signing failed")
	}
	return e.signWithMaterial(sessionID, msg, material, material.SolanaPubkey, 0)
}

// SignDerived signs with the child key at derivedWalletID's derivation
// index, looked up at sign time from the derived_wallets row rather than
// cached anywhere. The session must already hold an unlocked Share-A key
// for the user's default wallet (spec §4.6 "Derived wallets").
func (e *Engine) SignDerived(ctx context.Context, sessionID, userID, derivedWalletID uuid.UUID, msg []byte) ([]byte, error) {
	material, err := e.Store.Wallets.GetDefaultByUser(ctx, userID)
	if err != nil {
		return nil, apperr.New(apperr.Internal, "wallet signing failed")
	}
	child, err := e.Store.DerivedWallets.FindByID(ctx, derivedWalletID, userID)
	if err != nil {
		return nil, apperr.New(apperr.Internal, "wallet signing failed")
	}
	return e.signWithMaterial(sessionID, msg, material, child.SolanaPubkey, child.DerivationIndex)
}

func (e *Engine) signWithMaterial(sessionID uuid.UUID, msg []byte, material *store.WalletMaterial, expectedPubkey string, derivationIndex int) ([]byte, error) {
	key, ok := e.cache.Get(sessionID)
	if !ok {
		return nil, apperr.New(apperr.Unauthorized, "wallet is locked")
	}

	shareAPlain, err := crypto.AEADDecrypt(key, material.ShareANonce, material.ShareACiphertext)
	if err != nil {
		return nil, apperr.New(apperr.Internal, "wallet signing failed")
	}
	defer crypto.Zero(shareAPlain)

	shareA, shareB, err := decodeShares(shareAPlain, material.ShareB)
	if err != nil {
		return nil, apperr.New(apperr.Internal, "wallet signing failed")
	}

	seed, err := crypto.ShamirCombine(shareA, shareB)
	if err != nil {
		return nil, apperr.New(apperr.Internal, "wallet signing failed")
	}
	defer crypto.ZeroSeed(&seed)

	signerSeed := seed
	if derivationIndex > 0 {
		derived := crypto.DeriveChildSeed(seed, uint32(derivationIndex))
		defer crypto.ZeroSeed(&derived)
		signerSeed = derived
	}

	priv, pubkey := crypto.Ed25519FromSeed(signerSeed)
	defer crypto.Zero(priv)
	if pubkey != expectedPubkey {
		return nil, apperr.New(apperr.Internal, "wallet signing failed")
	}

	return crypto.SignMessage(priv, msg), nil
}

// decodeShares rebuilds crypto.Share values from the stored wire format:
// Share A's plaintext is the 32-byte Y vector with X=1 implied, and Share
// B is stored as X=2's Y vector the same way (see enroll.go).
func decodeShares(shareAPlain, shareBRaw []byte) (a, b crypto.Share, err error) {
	if len(shareAPlain) != crypto.SeedSize || len(shareBRaw) != crypto.SeedSize {
		return crypto.Share{}, crypto.Share{}, apperr.Internalf("malformed share length")
	}
	a.X = 1
	copy(a.Y[:], shareAPlain)
	b.X = 2
	copy(b.Y[:], shareBRaw)
	return a, b, nil
}
