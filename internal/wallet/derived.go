package wallet

import (
	"context"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/crypto"
	"github.com/cedros/core/internal/store"
)

// CreateDerivedWallet mints a new child wallet at the next incremental
// derivation index. The wallet must already be unlocked for sessionID:
// deriving the child pubkey requires reconstructing the seed once, the
// same way Sign does, but the resulting key is never cached or returned —
// only the derived pubkey and label are persisted (spec §4.6 "Derived
// wallets").
func (e *Engine) CreateDerivedWallet(ctx context.Context, sessionID, userID uuid.UUID, label string) (*store.DerivedWallet, error) {
	material, err := e.Store.Wallets.GetDefaultByUser(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err, "no enrolled wallet for this user")
	}

	key, ok := e.cache.Get(sessionID)
	if !ok {
		return nil, apperr.New(apperr.Unauthorized, "wallet is locked")
	}

	shareAPlain, err := crypto.AEADDecrypt(key, material.ShareANonce, material.ShareACiphertext)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "derive child wallet", err)
	}
	defer crypto.Zero(shareAPlain)

	shareA, shareB, err := decodeShares(shareAPlain, material.ShareB)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "derive child wallet", err)
	}

	seed, err := crypto.ShamirCombine(shareA, shareB)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "derive child wallet", err)
	}
	defer crypto.ZeroSeed(&seed)

	index, err := e.Store.DerivedWallets.NextDerivationIndex(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "allocate derivation index", err)
	}

	childSeed := crypto.DeriveChildSeed(seed, uint32(index))
	defer crypto.ZeroSeed(&childSeed)
	priv, pubkey := crypto.Ed25519FromSeed(childSeed)
	crypto.Zero(priv)

	child := &store.DerivedWallet{
		ID:              uuid.New(),
		UserID:          userID,
		DerivationIndex: index,
		SolanaPubkey:    pubkey,
		Label:           label,
	}
	if err := e.Store.DerivedWallets.Create(ctx, child); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "store derived wallet", err)
	}
	return child, nil
}

// ListDerivedWallets returns all child wallets for a user.
func (e *Engine) ListDerivedWallets(ctx context.Context, userID uuid.UUID) ([]*store.DerivedWallet, error) {
	wallets, err := e.Store.DerivedWallets.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list derived wallets", err)
	}
	return wallets, nil
}

// DeleteDerivedWallet removes a child wallet. The underlying key material
// is never separately stored, so deletion only drops the cached pubkey
// and label; it remains re-derivable from the seed at the same index.
func (e *Engine) DeleteDerivedWallet(ctx context.Context, id, userID uuid.UUID) error {
	if err := e.Store.DerivedWallets.Delete(ctx, id, userID); err != nil {
		return mapStoreErr(err, "derived wallet not found")
	}
	return nil
}
