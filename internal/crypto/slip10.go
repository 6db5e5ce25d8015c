package crypto

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
)

// slip10Ed25519Seed is the fixed HMAC-SHA512 key SLIP-10 specifies for
// deriving the master node of an Ed25519 keychain.
var slip10Ed25519Seed = []byte("ed25519 seed")

// DeriveChildSeed derives the hardened SLIP-10 Ed25519 child seed at
// m/44'/501'/index' from a 32-byte master seed, for wallet derivation
// index>0 (spec §4.6 step 4: "derive child seed via BIP32-Ed25519
// (SLIP-10) at derivation_index"). Only hardened derivation exists for
// Ed25519, so every path segment is hardened.
func DeriveChildSeed(masterSeed [SeedSize]byte, index uint32) [SeedSize]byte {
	key, chainCode := slip10Master(masterSeed[:])
	// m/44'/501'/index' — 44' and 501' (Solana's SLIP-44 coin type) are
	// fixed; only the account index varies per derived wallet.
	key, chainCode = slip10ChildHardened(key, chainCode, 44)
	key, chainCode = slip10ChildHardened(key, chainCode, 501)
	key, _ = slip10ChildHardened(key, chainCode, index)
	var out [SeedSize]byte
	copy(out[:], key)
	return out
}

func slip10Master(seed []byte) (key, chainCode []byte) {
	mac := hmac.New(sha512.New, slip10Ed25519Seed)
	mac.Write(seed)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}

func slip10ChildHardened(parentKey, parentChainCode []byte, index uint32) (key, chainCode []byte) {
	hardenedIndex := index | 0x80000000
	data := make([]byte, 0, 1+32+4)
	data = append(data, 0x00)
	data = append(data, parentKey...)
	var idxBuf [4]byte
	binary.BigEndian.PutUint32(idxBuf[:], hardenedIndex)
	data = append(data, idxBuf[:]...)

	mac := hmac.New(sha512.New, parentChainCode)
	mac.Write(data)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}
