package authpipeline_test

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"

	"github.com/cedros/core/internal/authpipeline"
	"github.com/cedros/core/internal/crypto"
)

func TestSolanaLoginRegistersThenLogsIn(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	dc := authpipeline.DeviceContext{IPAddress: "1.2.3.4", UserAgent: "test"}

	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	pubKey := base58.Encode(pub)

	challenge, err := eng.SolanaChallengeRequest(ctx, pubKey)
	if err != nil {
		t.Fatalf("challenge request: %v", err)
	}
	sig := crypto.SignMessage(priv, []byte(challenge.Message))
	sigB58 := crypto.EncodeBase58(sig)

	result, err := eng.SolanaLogin(ctx, pubKey, sigB58, challenge.Message, dc)
	if err != nil {
		t.Fatalf("solana login: %v", err)
	}
	if !result.IsNew {
		t.Fatal("expected first solana login to register a new account")
	}

	challenge2, err := eng.SolanaChallengeRequest(ctx, pubKey)
	if err != nil {
		t.Fatalf("second challenge request: %v", err)
	}
	sig2 := crypto.EncodeBase58(crypto.SignMessage(priv, []byte(challenge2.Message)))
	result2, err := eng.SolanaLogin(ctx, pubKey, sig2, challenge2.Message, dc)
	if err != nil {
		t.Fatalf("second solana login: %v", err)
	}
	if result2.IsNew {
		t.Fatal("expected second solana login to resolve the existing account")
	}
	if result2.User.ID != result.User.ID {
		t.Fatal("second login must resolve to the same user")
	}
}

func TestSolanaLoginRejectsReplayedChallenge(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	dc := authpipeline.DeviceContext{IPAddress: "1.2.3.4", UserAgent: "test"}

	pub, priv, _ := ed25519.GenerateKey(nil)
	pubKey := base58.Encode(pub)

	challenge, err := eng.SolanaChallengeRequest(ctx, pubKey)
	if err != nil {
		t.Fatalf("challenge request: %v", err)
	}
	sig := crypto.EncodeBase58(crypto.SignMessage(priv, []byte(challenge.Message)))

	if _, err := eng.SolanaLogin(ctx, pubKey, sig, challenge.Message, dc); err != nil {
		t.Fatalf("first login should succeed: %v", err)
	}
	if _, err := eng.SolanaLogin(ctx, pubKey, sig, challenge.Message, dc); err == nil {
		t.Fatal("expected replayed challenge to be rejected")
	}
}

func TestSolanaLoginRejectsWrongSignature(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	dc := authpipeline.DeviceContext{IPAddress: "1.2.3.4", UserAgent: "test"}

	pub, _, _ := ed25519.GenerateKey(nil)
	_, otherPriv, _ := ed25519.GenerateKey(nil)
	pubKey := base58.Encode(pub)

	challenge, err := eng.SolanaChallengeRequest(ctx, pubKey)
	if err != nil {
		t.Fatalf("challenge request: %v", err)
	}
	wrongSig := crypto.EncodeBase58(crypto.SignMessage(otherPriv, []byte(challenge.Message)))

	if _, err := eng.SolanaLogin(ctx, pubKey, wrongSig, challenge.Message, dc); err == nil {
		t.Fatal("expected signature from a different key to be rejected")
	}
}
