// Package crypto wraps the primitives the rest of the engine treats as
// opaque: AEAD, Argon2id, HMAC, HKDF, Shamir secret sharing, Ed25519
// signing, constant-time comparisons and secure zeroization.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
)

const (
	// AEADKeySize is the AES-256-GCM key size in bytes.
	AEADKeySize = 32
	// AEADNonceSize is the GCM nonce size mandated by spec §4.6.
	AEADNonceSize = 12
)

// AEADEncrypt encrypts plaintext under key with a freshly generated
// 12-byte nonce. Associated data is unused; integrity comes from the GCM
// tag, per spec §4.1.
func AEADEncrypt(key, plaintext []byte) (ciphertext, nonce []byte, err error) {
	if len(key) != AEADKeySize {
		return nil, nil, fmt.Errorf("crypto: aead key must be %d bytes", AEADKeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("crypto: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, AEADNonceSize)
	if err != nil {
		return nil, nil, fmt.Errorf("crypto: new gcm: %w", err)
	}
	nonce = make([]byte, AEADNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("crypto: nonce: %w", err)
	}
	ciphertext = gcm.Seal(nil, nonce, plaintext, nil)
	return ciphertext, nonce, nil
}

// AEADDecrypt decrypts ciphertext under key/nonce. AEAD authentication
// failure IS the verification failure for wallet unlock (spec §4.6) — the
// caller must not distinguish "wrong key" from "corrupt ciphertext".
func AEADDecrypt(key, nonce, ciphertext []byte) ([]byte, error) {
	if len(key) != AEADKeySize {
		return nil, fmt.Errorf("crypto: aead key must be %d bytes", AEADKeySize)
	}
	if len(nonce) != AEADNonceSize {
		return nil, fmt.Errorf("crypto: aead nonce must be %d bytes", AEADNonceSize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, AEADNonceSize)
	if err != nil {
		return nil, fmt.Errorf("crypto: new gcm: %w", err)
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("crypto: aead open: %w", err)
	}
	return plaintext, nil
}
