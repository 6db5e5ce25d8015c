package wallet_test

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/crypto"
	"github.com/cedros/core/internal/store"
	"github.com/cedros/core/internal/store/memory"
	"github.com/cedros/core/internal/wallet"
)

func newTestMaterial(t *testing.T, password string) (wallet.EnrollRequest, crypto.Share, crypto.Share) {
	t.Helper()
	var seed [crypto.SeedSize]byte
	if _, err := rand.Read(seed[:]); err != nil {
		t.Fatal(err)
	}
	shareA, shareB, shareC := must3(crypto.ShamirSplit(seed))

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		t.Fatal(err)
	}
	params := crypto.Argon2Params{MemoryKiB: 19 * 1024, Time: 2, Threads: 1, KeyLen: crypto.AEADKeySize}
	key, err := crypto.DeriveKeyArgon2(password, salt, params)
	if err != nil {
		t.Fatal(err)
	}
	ciphertext, nonce, err := crypto.AEADEncrypt(key, shareA.Y[:])
	if err != nil {
		t.Fatal(err)
	}

	_, pubkey := crypto.Ed25519FromSeed(seed)

	req := wallet.EnrollRequest{
		UserID:           uuid.New(),
		SolanaPubkey:     pubkey,
		AuthMethod:       store.ShareAPassword,
		ShareACiphertext: ciphertext,
		ShareANonce:      nonce,
		ShareB:           shareB.Y[:],
		KDFSalt:          salt,
		KDFParams:        params,
	}
	return req, shareA, shareC
}

func must3(a, b, c crypto.Share, err error) (crypto.Share, crypto.Share, crypto.Share) {
	if err != nil {
		panic(err)
	}
	return a, b, c
}

func TestEnrollUnlockSignRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	eng := wallet.New(st)

	req, _, _ := newTestMaterial(t, "correct horse battery staple")
	req.UserID = uuid.New()
	material, err := eng.Enroll(ctx, req, false)
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}

	sessionID := uuid.New()
	password := "correct horse battery staple"
	if err := eng.Unlock(ctx, sessionID, req.UserID, wallet.UnlockCredential{Password: &password}); err != nil {
		t.Fatalf("unlock: %v", err)
	}

	sig, err := eng.Sign(ctx, sessionID, req.UserID, []byte("hello"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if len(sig) == 0 {
		t.Fatal("expected non-empty signature")
	}

	ok, err := crypto.VerifySignature(material.SolanaPubkey, []byte("hello"), sig)
	if err != nil || !ok {
		t.Fatalf("signature does not verify against enrolled pubkey: ok=%v err=%v", ok, err)
	}
}

func TestUnlockRejectsWrongPassword(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	eng := wallet.New(st)

	req, _, _ := newTestMaterial(t, "correct horse battery staple")
	req.UserID = uuid.New()
	if _, err := eng.Enroll(ctx, req, false); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	wrong := "wrong password"
	err := eng.Unlock(ctx, uuid.New(), req.UserID, wallet.UnlockCredential{Password: &wrong})
	if apperr.As(err) == nil || apperr.As(err).Kind != apperr.InvalidCredentials {
		t.Fatalf("expected InvalidCredentials, got %v", err)
	}
}

func TestSignWithoutUnlockIsLocked(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	eng := wallet.New(st)

	req, _, _ := newTestMaterial(t, "correct horse battery staple")
	req.UserID = uuid.New()
	if _, err := eng.Enroll(ctx, req, false); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	_, err := eng.Sign(ctx, uuid.New(), req.UserID, []byte("hello"))
	if apperr.As(err) == nil || apperr.As(err).Kind != apperr.Unauthorized {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
}

func TestRotateUserSecretThenUnlockWithNewCredential(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	eng := wallet.New(st)

	req, shareA, _ := newTestMaterial(t, "old password")
	req.UserID = uuid.New()
	if _, err := eng.Enroll(ctx, req, false); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	newSalt := make([]byte, 16)
	rand.Read(newSalt)
	newParams := crypto.Argon2Params{MemoryKiB: 19 * 1024, Time: 2, Threads: 1, KeyLen: crypto.AEADKeySize}
	newKey, err := crypto.DeriveKeyArgon2("new password", newSalt, newParams)
	if err != nil {
		t.Fatal(err)
	}

	old := "old password"
	newCipher, newNonce, err := crypto.AEADEncrypt(newKey, shareA.Y[:])
	if err != nil {
		t.Fatal(err)
	}

	rotReq := wallet.RotateSecretRequest{
		Current: wallet.UnlockCredential{Password: &old},
		New: wallet.EnrollRequest{
			AuthMethod:       store.ShareAPassword,
			ShareACiphertext: newCipher,
			ShareANonce:      newNonce,
			KDFSalt:          newSalt,
			KDFParams:        newParams,
		},
	}
	if err := eng.RotateUserSecret(ctx, req.UserID, rotReq); err != nil {
		t.Fatalf("rotate: %v", err)
	}

	newPass := "new password"
	sessionID := uuid.New()
	if err := eng.Unlock(ctx, sessionID, req.UserID, wallet.UnlockCredential{Password: &newPass}); err != nil {
		t.Fatalf("unlock with new credential: %v", err)
	}
}

func TestRecoverRejectsPubkeyMismatch(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	eng := wallet.New(st)

	req, _, _ := newTestMaterial(t, "password")
	req.UserID = uuid.New()
	if _, err := eng.Enroll(ctx, req, false); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	newReq, _, _ := newTestMaterial(t, "password")
	err := eng.Recover(ctx, req.UserID, wallet.RecoverRequest{
		ExpectedPubkey: "11111111111111111111111111111111",
		New:            newReq,
	})
	if apperr.As(err) == nil || apperr.As(err).Kind != apperr.Validation {
		t.Fatalf("expected Validation on pubkey mismatch, got %v", err)
	}
}

func TestDerivedWalletSigning(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	eng := wallet.New(st)

	req, _, _ := newTestMaterial(t, "password")
	req.UserID = uuid.New()
	if _, err := eng.Enroll(ctx, req, false); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	sessionID := uuid.New()
	pass := "password"
	if err := eng.Unlock(ctx, sessionID, req.UserID, wallet.UnlockCredential{Password: &pass}); err != nil {
		t.Fatalf("unlock: %v", err)
	}

	child, err := eng.CreateDerivedWallet(ctx, sessionID, req.UserID, "savings")
	if err != nil {
		t.Fatalf("create derived wallet: %v", err)
	}
	if child.DerivationIndex == 0 {
		t.Fatal("derived wallet must not reuse index 0")
	}
	if child.SolanaPubkey == req.SolanaPubkey {
		t.Fatal("derived wallet must have a distinct pubkey from the default wallet")
	}

	sig, err := eng.SignDerived(ctx, sessionID, req.UserID, child.ID, []byte("derived message"))
	if err != nil {
		t.Fatalf("sign derived: %v", err)
	}
	ok, err := crypto.VerifySignature(child.SolanaPubkey, []byte("derived message"), sig)
	if err != nil || !ok {
		t.Fatalf("derived signature does not verify against derived pubkey: ok=%v err=%v", ok, err)
	}
}

func TestShareCRecoverReturnsShareBOnMatch(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	eng := wallet.New(st)

	req, _, shareC := newTestMaterial(t, "password")
	req.UserID = uuid.New()
	if _, err := eng.Enroll(ctx, req, false); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	shareB, err := eng.ShareCRecover(ctx, req.UserID, shareC.Y)
	if err != nil {
		t.Fatalf("share c recover: %v", err)
	}
	if len(shareB) != crypto.SeedSize {
		t.Fatalf("expected %d byte share b, got %d", crypto.SeedSize, len(shareB))
	}
}

func TestPendingRecoveryFetchOnceThenDelete(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	eng := wallet.New(st)
	userID := uuid.New()

	key := make([]byte, crypto.AEADKeySize)
	rand.Read(key)
	if err := eng.StorePendingRecovery(ctx, userID, key, []byte("recovery phrase words"), time.Minute); err != nil {
		t.Fatalf("store pending recovery: %v", err)
	}

	if _, err := eng.FetchPendingRecovery(ctx, userID); err != nil {
		t.Fatalf("fetch pending recovery before acknowledge: %v", err)
	}

	if err := eng.AcknowledgeRecovery(ctx, userID); err != nil {
		t.Fatalf("acknowledge recovery: %v", err)
	}

	_, err := eng.FetchPendingRecovery(ctx, userID)
	if apperr.As(err) == nil || apperr.As(err).Kind != apperr.NotFound {
		t.Fatalf("expected NotFound after acknowledge, got %v", err)
	}
}
