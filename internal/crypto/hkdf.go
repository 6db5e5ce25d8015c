package crypto

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// PRFSaltSize is the passkey PRF salt length mandated by spec §4.6.
const PRFSaltSize = 32

// passkeyUnlockInfo is the fixed HKDF info string for passkey-derived
// unlock keys (spec §4.1: "HKDF-SHA-256 over PRF output with prf_salt as
// salt and a fixed info string").
const passkeyUnlockInfo = "cedros-core/wallet/share-a-unlock/v1"

// DeriveKeyHKDF derives a 32-byte AEAD key from passkey PRF output using
// HKDF-SHA-256 with prf_salt as the HKDF salt.
func DeriveKeyHKDF(prfOutput, prfSalt []byte) ([]byte, error) {
	if len(prfSalt) != PRFSaltSize {
		return nil, fmt.Errorf("crypto: prf salt must be %d bytes", PRFSaltSize)
	}
	reader := hkdf.New(sha256.New, prfOutput, prfSalt, []byte(passkeyUnlockInfo))
	key := make([]byte, AEADKeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("crypto: hkdf expand: %w", err)
	}
	return key, nil
}
