package credit_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/credit"
	"github.com/cedros/core/internal/store/memory"
)

func TestDepositThenSpend(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	eng := credit.New(st)
	user := uuid.New()
	ref := "deposit"

	if _, err := eng.Deposit(ctx, user, 1_000, "SOL", nil, &ref, nil); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	spendRef := "order"
	if _, err := eng.Spend(ctx, user, 400, "SOL", nil, &spendRef, nil, nil); err != nil {
		t.Fatalf("spend: %v", err)
	}

	bal, err := eng.Balance(ctx, user, "SOL")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal != 600 {
		t.Fatalf("expected balance 600, got %d", bal)
	}
}

func TestSpendRejectsInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	eng := credit.New(st)
	user := uuid.New()
	ref := "order"

	_, err := eng.Spend(ctx, user, 500, "SOL", nil, &ref, nil, nil)
	if apperr.As(err) == nil || apperr.As(err).Kind != apperr.Validation {
		t.Fatalf("expected Validation on insufficient balance, got %v", err)
	}
}

func TestSpendRejectsWhenPendingHoldExceedsAvailableBalance(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	eng := credit.New(st)
	user := uuid.New()
	depRef := "deposit"

	if _, err := eng.Deposit(ctx, user, 1_000_000_000, "SOL", nil, &depRef, nil); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := eng.CreateHold(ctx, user, 400_000_000, "SOL", nil, 15, nil, nil, nil); err != nil {
		t.Fatalf("create hold: %v", err)
	}

	// Ledger balance (1_000_000_000) alone covers this spend, but the
	// pending hold's 400_000_000 must also be reserved: available
	// balance is only 600_000_000, so an 800_000_000 spend must be
	// rejected rather than later driving the ledger negative once the
	// hold is captured (spec §4.7, §3 CREDIT HOLD invariant, P4, B3).
	ref := "order"
	_, err := eng.Spend(ctx, user, 800_000_000, "SOL", nil, &ref, nil, nil)
	if apperr.As(err) == nil || apperr.As(err).Kind != apperr.Validation {
		t.Fatalf("expected Validation when a pending hold leaves insufficient available balance, got %v", err)
	}

	bal, err := eng.Balance(ctx, user, "SOL")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal != 1_000_000_000 {
		t.Fatalf("rejected spend must not touch the ledger, got balance %d", bal)
	}
}

func TestSpendIsIdempotentOnDuplicateKey(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	eng := credit.New(st)
	user := uuid.New()
	depRef := "deposit"
	if _, err := eng.Deposit(ctx, user, 1_000, "SOL", nil, &depRef, nil); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	key := "order:abc"
	ref := "order"
	tx1, err := eng.Spend(ctx, user, 100, "SOL", &key, &ref, nil, nil)
	if err != nil {
		t.Fatalf("first spend: %v", err)
	}
	tx2, err := eng.Spend(ctx, user, 100, "SOL", &key, &ref, nil, nil)
	if err != nil {
		t.Fatalf("replayed spend: %v", err)
	}
	if tx1.ID != tx2.ID {
		t.Fatal("replayed spend with same idempotency key must return the same transaction")
	}

	bal, err := eng.Balance(ctx, user, "SOL")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal != 900 {
		t.Fatalf("duplicate spend must not be charged twice, got balance %d", bal)
	}
}

func TestHoldCreateCaptureReleaseFlow(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	eng := credit.New(st)
	user := uuid.New()
	depRef := "deposit"
	if _, err := eng.Deposit(ctx, user, 1_000, "SOL", nil, &depRef, nil); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	hold, err := eng.CreateHold(ctx, user, 400, "SOL", nil, 15, nil, nil, nil)
	if err != nil {
		t.Fatalf("create hold: %v", err)
	}

	avail, err := eng.AvailableBalance(ctx, user, "SOL")
	if err != nil {
		t.Fatalf("available balance: %v", err)
	}
	if avail != 600 {
		t.Fatalf("expected available balance 600 with a pending hold, got %d", avail)
	}

	capturedHold, spendTx, err := eng.CaptureHold(ctx, hold.ID)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if spendTx.Amount != -400 {
		t.Fatalf("expected captured spend of -400, got %d", spendTx.Amount)
	}

	// Idempotent replay of capture.
	capturedAgain, spendTxAgain, err := eng.CaptureHold(ctx, hold.ID)
	if err != nil {
		t.Fatalf("replayed capture: %v", err)
	}
	if capturedAgain.ID != capturedHold.ID || spendTxAgain.ID != spendTx.ID {
		t.Fatal("replayed capture must return the same hold and transaction")
	}

	bal, err := eng.Balance(ctx, user, "SOL")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal != 600 {
		t.Fatalf("expected balance 600 after single capture, got %d", bal)
	}
}

func TestHoldReleaseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	eng := credit.New(st)
	user := uuid.New()
	depRef := "deposit"
	if _, err := eng.Deposit(ctx, user, 1_000, "SOL", nil, &depRef, nil); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	hold, err := eng.CreateHold(ctx, user, 400, "SOL", nil, 15, nil, nil, nil)
	if err != nil {
		t.Fatalf("create hold: %v", err)
	}

	if _, err := eng.ReleaseHold(ctx, hold.ID); err != nil {
		t.Fatalf("release: %v", err)
	}
	released, err := eng.ReleaseHold(ctx, hold.ID)
	if err != nil {
		t.Fatalf("replayed release: %v", err)
	}
	if released.Status != "released" {
		t.Fatalf("expected hold to remain released, got %s", released.Status)
	}

	avail, err := eng.AvailableBalance(ctx, user, "SOL")
	if err != nil {
		t.Fatalf("available balance: %v", err)
	}
	if avail != 1_000 {
		t.Fatalf("expected released hold to free the full balance, got %d", avail)
	}
}

func TestRefundRequestAndProcess(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	eng := credit.New(st)
	user := uuid.New()
	admin := uuid.New()
	depRef := "deposit"

	depositTx, err := eng.Deposit(ctx, user, 1_000, "SOL", nil, &depRef, nil)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}

	req, err := eng.RequestRefund(ctx, user, depositTx.ID, 300)
	if err != nil {
		t.Fatalf("request refund: %v", err)
	}

	processed, tx, err := eng.ProcessRefund(ctx, admin, req.ID, 300, "customer request", nil)
	if err != nil {
		t.Fatalf("process refund: %v", err)
	}
	if tx.Amount != 300 {
		t.Fatalf("expected refund transaction amount 300, got %d", tx.Amount)
	}
	if processed.Status != "processed" {
		t.Fatalf("expected refund request processed, got %s", processed.Status)
	}

	bal, err := eng.Balance(ctx, user, "SOL")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal != 1_000 {
		t.Fatalf("deposit then full refund should net to the original amount, got %d", bal)
	}

	// Replaying process must not double-refund.
	_, txAgain, err := eng.ProcessRefund(ctx, admin, req.ID, 300, "customer request", nil)
	if err != nil {
		t.Fatalf("replayed process refund: %v", err)
	}
	if txAgain.ID != tx.ID {
		t.Fatal("replayed process must return the original refund transaction")
	}
}

func TestRefundRejectsOverRefund(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	eng := credit.New(st)
	user := uuid.New()
	depRef := "deposit"

	depositTx, err := eng.Deposit(ctx, user, 1_000, "SOL", nil, &depRef, nil)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}

	_, err = eng.RequestRefund(ctx, user, depositTx.ID, 1_500)
	if apperr.As(err) == nil || apperr.As(err).Kind != apperr.Validation {
		t.Fatalf("expected Validation rejecting over-refund request, got %v", err)
	}
}

func TestValidateMetadataNoSecretsRejectsSecretLikeFields(t *testing.T) {
	err := credit.ValidateMetadataNoSecrets(map[string]string{"user_token": "abc"})
	if apperr.As(err) == nil || apperr.As(err).Kind != apperr.Validation {
		t.Fatalf("expected Validation for secret-like metadata field, got %v", err)
	}
}
