package crypto

import (
	"crypto/ed25519"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// Ed25519FromSeed derives an Ed25519 signing key and its base58 Solana
// pubkey from a 32-byte seed, per spec §4.1/§4.6.
func Ed25519FromSeed(seed [SeedSize]byte) (priv ed25519.PrivateKey, pubkeyBase58 string) {
	priv = ed25519.NewKeyFromSeed(seed[:])
	pub := priv.Public().(ed25519.PublicKey)
	return priv, base58.Encode(pub)
}

// SolanaPrivateKeyFromSeed returns a gagliardetto/solana-go PrivateKey so
// signed transactions interoperate with the wider Solana-Go ecosystem
// (transaction building, RPC submission) used by the chain collaborator.
func SolanaPrivateKeyFromSeed(seed [SeedSize]byte) solana.PrivateKey {
	priv := ed25519.NewKeyFromSeed(seed[:])
	return solana.PrivateKey(priv)
}

// SignMessage signs msg with an Ed25519 private key, returning the 64-byte
// signature.
func SignMessage(priv ed25519.PrivateKey, msg []byte) []byte {
	return ed25519.Sign(priv, msg)
}

// VerifySignature verifies a base58 Solana pubkey against msg/signature.
func VerifySignature(pubkeyBase58 string, msg, signature []byte) (bool, error) {
	pub, err := DecodeSolanaPubkey(pubkeyBase58)
	if err != nil {
		return false, err
	}
	return ed25519.Verify(pub, msg, signature), nil
}

// DecodeSolanaPubkey decodes and validates a base58 Solana public key per
// the 32-50 char / base58-alphabet constants in spec §4.6.
func DecodeSolanaPubkey(s string) (ed25519.PublicKey, error) {
	if err := ValidateSolanaPubkeyString(s); err != nil {
		return nil, err
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("crypto: base58 decode: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("crypto: decoded pubkey must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// ValidateSolanaPubkeyString enforces the length and alphabet bounds from
// spec §4.6: 32-50 chars, base58 alphabet only.
func ValidateSolanaPubkeyString(s string) error {
	if len(s) < 32 || len(s) > 50 {
		return fmt.Errorf("crypto: solana pubkey length out of range: %d", len(s))
	}
	for _, r := range s {
		if !isBase58Rune(r) {
			return fmt.Errorf("crypto: solana pubkey contains non-base58 character %q", r)
		}
	}
	return nil
}

func isBase58Rune(r rune) bool {
	for _, a := range base58Alphabet {
		if a == r {
			return true
		}
	}
	return false
}

// EncodeBase58 is a thin re-export so callers outside crypto never need to
// import mr-tron/base58 directly.
func EncodeBase58(b []byte) string { return base58.Encode(b) }

// DecodeBase58 is the inverse of EncodeBase58.
func DecodeBase58(s string) ([]byte, error) { return base58.Decode(s) }
