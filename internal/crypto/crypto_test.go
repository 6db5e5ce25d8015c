package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAEADRoundTrip(t *testing.T) {
	key := make([]byte, AEADKeySize)
	_, _ = rand.Read(key)
	plaintext := []byte("share-a-plaintext-seed-material")

	ciphertext, nonce, err := AEADEncrypt(key, plaintext)
	require.NoError(t, err)
	require.Len(t, nonce, AEADNonceSize)

	got, err := AEADDecrypt(key, nonce, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestAEADDecryptWrongKeyFails(t *testing.T) {
	key := make([]byte, AEADKeySize)
	_, _ = rand.Read(key)
	ciphertext, nonce, err := AEADEncrypt(key, []byte("seed"))
	require.NoError(t, err)

	wrongKey := make([]byte, AEADKeySize)
	_, _ = rand.Read(wrongKey)
	_, err = AEADDecrypt(wrongKey, nonce, ciphertext)
	assert.Error(t, err)
}

func TestArgon2HashVerify(t *testing.T) {
	encoded, err := HashPassword("Str0ng!Passw0rd", DefaultArgon2Params)
	require.NoError(t, err)
	assert.True(t, VerifyPassword("Str0ng!Passw0rd", encoded))
	assert.False(t, VerifyPassword("wrong-password", encoded))
}

func TestVerifyDummyDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() { VerifyDummy("anything") })
}

func TestShamirSplitCombine(t *testing.T) {
	var seed [SeedSize]byte
	_, _ = rand.Read(seed[:])

	a, b, c, err := ShamirSplit(seed)
	require.NoError(t, err)

	for _, pair := range [][2]Share{{a, b}, {a, c}, {b, c}} {
		got, err := ShamirCombine(pair[0], pair[1])
		require.NoError(t, err)
		assert.Equal(t, seed, got)
	}
}

func TestShamirCombineRejectsSameShare(t *testing.T) {
	var seed [SeedSize]byte
	_, _ = rand.Read(seed[:])
	a, _, _, err := ShamirSplit(seed)
	require.NoError(t, err)
	_, err = ShamirCombine(a, a)
	assert.Error(t, err)
}

func TestEd25519SignVerify(t *testing.T) {
	var seed [SeedSize]byte
	_, _ = rand.Read(seed[:])
	priv, pubkey := Ed25519FromSeed(seed)

	msg := []byte("solana transaction bytes")
	sig := SignMessage(priv, msg)
	ok, err := VerifySignature(pubkey, msg, sig)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifySignature(pubkey, []byte("tampered"), sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidateSolanaPubkeyString(t *testing.T) {
	var seed [SeedSize]byte
	_, pubkey := Ed25519FromSeed(seed)
	assert.NoError(t, ValidateSolanaPubkeyString(pubkey))
	assert.Error(t, ValidateSolanaPubkeyString("short"))
	assert.Error(t, ValidateSolanaPubkeyString("not-base58-chars-!!!-0OIl-0000000000000000"))
}

func TestHMACRefreshTokenHash(t *testing.T) {
	secret := []byte("super-secret-signing-key")
	h1 := RefreshTokenHash(secret, "token-a")
	h2 := RefreshTokenHash(secret, "token-a")
	h3 := RefreshTokenHash(secret, "token-b")
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
}

func TestDeriveKeyHKDFDeterministic(t *testing.T) {
	prf := make([]byte, 32)
	_, _ = rand.Read(prf)
	salt := make([]byte, PRFSaltSize)
	_, _ = rand.Read(salt)

	k1, err := DeriveKeyHKDF(prf, salt)
	require.NoError(t, err)
	k2, err := DeriveKeyHKDF(prf, salt)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, AEADKeySize)
}

func TestDeriveChildSeedDeterministicAndDistinct(t *testing.T) {
	var master [SeedSize]byte
	_, _ = rand.Read(master[:])

	c1 := DeriveChildSeed(master, 1)
	c1Again := DeriveChildSeed(master, 1)
	c2 := DeriveChildSeed(master, 2)

	assert.Equal(t, c1, c1Again)
	assert.NotEqual(t, c1, c2)

	// Derived seeds must still be valid Ed25519 seeds.
	priv := ed25519.NewKeyFromSeed(c1[:])
	assert.Len(t, priv.Public().(ed25519.PublicKey), ed25519.PublicKeySize)
}
