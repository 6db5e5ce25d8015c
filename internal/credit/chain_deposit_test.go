package credit_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/chain"
	"github.com/cedros/core/internal/credit"
	"github.com/cedros/core/internal/store/memory"
)

func TestDepositFromChainCreditsConfirmedTransfer(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	mock := chain.NewMockVerifier()
	custody := "custodyPubkey11111111111111111111111111111"
	mock.Transactions["sig-abc"] = &chain.TransactionInfo{
		Signature: "sig-abc", Slot: 100, Confirmed: true, LamportsMoved: 5_000_000,
	}
	eng := credit.NewWithChain(st, mock)
	user := uuid.New()

	tx, err := eng.DepositFromChain(ctx, user, "sig-abc", custody, "SOL")
	if err != nil {
		t.Fatalf("deposit from chain: %v", err)
	}
	if tx.Amount != 5_000_000 {
		t.Fatalf("expected amount 5000000, got %d", tx.Amount)
	}

	bal, err := eng.Balance(ctx, user, "SOL")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal != 5_000_000 {
		t.Fatalf("expected balance 5000000, got %d", bal)
	}
}

func TestDepositFromChainRejectsUnconfirmedTransaction(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	mock := chain.NewMockVerifier()
	eng := credit.NewWithChain(st, mock)

	if _, err := eng.DepositFromChain(ctx, uuid.New(), "unknown-sig", "custody", "SOL"); err == nil {
		t.Fatal("expected an unconfirmed signature to be rejected")
	}
}

func TestDepositFromChainIsIdempotentPerSignature(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	mock := chain.NewMockVerifier()
	mock.Transactions["sig-xyz"] = &chain.TransactionInfo{
		Signature: "sig-xyz", Confirmed: true, LamportsMoved: 1_000,
	}
	eng := credit.NewWithChain(st, mock)
	user := uuid.New()

	first, err := eng.DepositFromChain(ctx, user, "sig-xyz", "custody", "SOL")
	if err != nil {
		t.Fatalf("first deposit: %v", err)
	}
	second, err := eng.DepositFromChain(ctx, user, "sig-xyz", "custody", "SOL")
	if err != nil {
		t.Fatalf("replayed deposit should short-circuit, not error: %v", err)
	}
	if first.ID != second.ID {
		t.Fatal("expected the replayed deposit to resolve to the same transaction")
	}

	bal, _ := eng.Balance(ctx, user, "SOL")
	if bal != 1_000 {
		t.Fatalf("expected the replay to not double-credit, got balance %d", bal)
	}
}

func TestDepositFromChainRejectsZeroMovedAmount(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	mock := chain.NewMockVerifier()
	mock.Transactions["sig-zero"] = &chain.TransactionInfo{Signature: "sig-zero", Confirmed: true, LamportsMoved: 0}
	eng := credit.NewWithChain(st, mock)

	if _, err := eng.DepositFromChain(ctx, uuid.New(), "sig-zero", "custody", "SOL"); err == nil {
		t.Fatal("expected a transaction with no funds moved to the custody address to be rejected")
	}
}
