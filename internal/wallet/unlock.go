package wallet

import (
	"context"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/crypto"
	"github.com/cedros/core/internal/store"
)

// UnlockCredential carries exactly the fields relevant to the wallet's
// configured ShareAAuthMethod (spec §4.6 "Unlock").
type UnlockCredential struct {
	Password   *string
	PIN        *string
	PRFOutput  []byte // passkey
	APIKeyRaw  *string
}

// Unlock derives the 32-byte Share-A key from the credential and the
// stored salt/params, then verifies it by attempting an AEAD decrypt of
// Share A. AEAD authentication failure IS the verification failure — the
// caller never learns whether the key or the ciphertext was wrong (spec
// §4.6). On success the key is cached under session_id with a TTL.
func (e *Engine) Unlock(ctx context.Context, sessionID, userID uuid.UUID, cred UnlockCredential) error {
	material, err := e.Store.Wallets.GetDefaultByUser(ctx, userID)
	if err != nil {
		return mapStoreErr(err, "no enrolled wallet for this user")
	}

	key, err := e.deriveShareAKey(material, cred)
	if err != nil {
		return err
	}

	plaintext, err := crypto.AEADDecrypt(key, material.ShareANonce, material.ShareACiphertext)
	if err != nil {
		crypto.Zero(key)
		return apperr.New(apperr.InvalidCredentials, "invalid unlock credential")
	}
	crypto.Zero(plaintext)

	e.cache.Put(sessionID, key)
	return nil
}

func (e *Engine) deriveShareAKey(material *store.WalletMaterial, cred UnlockCredential) ([]byte, error) {
	params := crypto.Argon2Params{
		MemoryKiB: material.ShareAKDFParams.MemoryKiB,
		Time:      material.ShareAKDFParams.Time,
		Threads:   material.ShareAKDFParams.Threads,
		KeyLen:    crypto.AEADKeySize,
	}
	switch material.ShareAAuthMethod {
	case store.ShareAPassword:
		if cred.Password == nil {
			return nil, apperr.New(apperr.Validation, "password required")
		}
		return crypto.DeriveKeyArgon2(*cred.Password, material.ShareAKDFSalt, params)
	case store.ShareAPin:
		if cred.PIN == nil {
			return nil, apperr.New(apperr.Validation, "pin required")
		}
		if err := validatePIN(*cred.PIN); err != nil {
			return nil, err
		}
		return crypto.DeriveKeyArgon2(*cred.PIN, material.ShareAKDFSalt, params)
	case store.ShareAPasskey:
		if len(cred.PRFOutput) == 0 {
			return nil, apperr.New(apperr.Validation, "passkey prf output required")
		}
		return crypto.DeriveKeyHKDF(cred.PRFOutput, material.PRFSalt)
	case store.ShareAAPIKey:
		if cred.APIKeyRaw == nil {
			return nil, apperr.New(apperr.Validation, "api key required")
		}
		return crypto.DeriveKeyHKDF(apiKeyPRFSeed(*cred.APIKeyRaw), material.PRFSalt)
	default:
		return nil, apperr.Internalf("unsupported share a auth method %q", material.ShareAAuthMethod)
	}
}

// apiKeyPRFSeed stretches a raw API key into HKDF-sized input material,
// mirroring the passkey-PRF unlock path rather than inventing a fourth
// primitive for the fourth ShareAAuthMethod (spec §4 supplemented API-key
// auth method carries the same unlock shape as passkey PRF).
func apiKeyPRFSeed(rawKey string) []byte {
	return crypto.HMACSHA256([]byte("cedros-core/wallet/api-key-unlock/v1"), []byte(rawKey))
}
