package credit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/chain"
	"github.com/cedros/core/internal/store"
)

// Engine wires ledger/hold/refund operations to the store. One Engine is
// shared process-wide; every mutating call is routed through
// store.TransactionalOps so the balance check and the append happen as
// one unit (spec §5).
type Engine struct {
	Store *store.Store
	// Chain is consulted only by DepositFromChain; left nil, on-chain
	// deposit crediting is simply unavailable (e.g. in tests that never
	// call it).
	Chain chain.Verifier
}

func New(s *store.Store) *Engine {
	return &Engine{Store: s}
}

// NewWithChain wires a chain.Verifier so DepositFromChain can confirm
// on-chain deposits before crediting them.
func NewWithChain(s *store.Store, c chain.Verifier) *Engine {
	return &Engine{Store: s, Chain: c}
}

// DepositFromChain credits a user for a landed on-chain transfer,
// without trusting the client's claimed amount: it asks chain.Verifier
// to confirm the signature landed and report the lamports actually
// moved to custodyPubkey, then deposits exactly that amount. The
// transaction signature is used as the idempotency key, so replaying
// the same signature (a client retry, or a second webhook delivery of
// the same on-chain event) credits the user only once (spec §4.2 R4).
func (e *Engine) DepositFromChain(ctx context.Context, userID uuid.UUID, signature, custodyPubkey, currency string) (*store.CreditTransaction, error) {
	if e.Chain == nil {
		return nil, apperr.New(apperr.Internal, "chain verification is not configured")
	}
	info, err := e.Chain.VerifyTransaction(ctx, signature, custodyPubkey)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "verify on-chain transaction", err)
	}
	if !info.Confirmed {
		return nil, apperr.New(apperr.Validation, "transaction has not landed")
	}
	if info.LamportsMoved == 0 {
		return nil, apperr.New(apperr.Validation, "no funds moved to the custody address in this transaction")
	}

	idempotencyKey := signature
	refType := "deposit"
	return e.Deposit(ctx, userID, int64(info.LamportsMoved), currency, &idempotencyKey, &refType, &signature)
}

// Deposit appends a positive ledger row (tx_type=deposit). Re-submission
// with the same idempotency key returns the existing transaction.
func (e *Engine) Deposit(ctx context.Context, userID uuid.UUID, amount int64, currency string, idempotencyKey *string, refType, refID *string) (*store.CreditTransaction, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if err := validateCurrency(currency); err != nil {
		return nil, err
	}
	if refType != nil {
		if err := validateReferenceType(*refType); err != nil {
			return nil, err
		}
	}

	tx := &store.CreditTransaction{
		ID: uuid.New(), UserID: userID, Amount: amount, Currency: currency, TxType: store.TxDeposit,
		IdempotencyKey: idempotencyKey, ReferenceType: refType, ReferenceID: refID, CreatedAt: time.Now(),
	}
	if err := e.Store.Tx.CreditAdd(ctx, tx); err != nil {
		return e.handleDuplicateOrFail(ctx, userID, idempotencyKey, err, "deposit credits")
	}
	return tx, nil
}

// Spend checks available balance (ledger balance minus pending holds on
// the same currency, spec §3 CREDIT HOLD invariant) and appends a
// negative ledger row (tx_type=spend) in one atomic unit. Re-submission
// with the same idempotency key returns the existing transaction
// instead of erroring (spec §4.7 "spend"). metadata, if non-nil, is
// rejected when it carries a secret-like field (spec §4.7).
func (e *Engine) Spend(ctx context.Context, userID uuid.UUID, amount int64, currency string, idempotencyKey *string, refType, refID *string, metadata map[string]string) (*store.CreditTransaction, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if err := validateCurrency(currency); err != nil {
		return nil, err
	}
	if refType == nil {
		return nil, apperr.New(apperr.Validation, "reference_type is required")
	}
	if err := validateReferenceType(*refType); err != nil {
		return nil, err
	}
	if err := ValidateMetadataNoSecrets(metadata); err != nil {
		return nil, err
	}

	tx := &store.CreditTransaction{
		ID: uuid.New(), UserID: userID, Amount: -amount, Currency: currency, TxType: store.TxSpend,
		IdempotencyKey: idempotencyKey, ReferenceType: refType, ReferenceID: refID, Metadata: metadata, CreatedAt: time.Now(),
	}
	if err := e.Store.Tx.CreditSpend(ctx, tx); err != nil {
		if errors.Is(err, store.ErrInsufficientBalance) {
			return nil, apperr.New(apperr.Validation, "insufficient balance")
		}
		return e.handleDuplicateOrFail(ctx, userID, idempotencyKey, err, "spend credits")
	}
	return tx, nil
}

// AdjustPositive records an admin-issued positive adjustment (e.g. a
// goodwill credit). Unlike Deposit, it always carries the admin's user
// id and a reason. metadata, if non-nil, is rejected when it carries a
// secret-like field (spec §4.7).
func (e *Engine) AdjustPositive(ctx context.Context, adminUserID, userID uuid.UUID, amount int64, currency, reason string, refType, refID *string, metadata map[string]string) (*store.CreditTransaction, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if err := validateCurrency(currency); err != nil {
		return nil, err
	}
	if reason == "" {
		return nil, apperr.New(apperr.Validation, "reason is required")
	}
	if err := ValidateMetadataNoSecrets(metadata); err != nil {
		return nil, err
	}

	tx := &store.CreditTransaction{
		ID: uuid.New(), UserID: userID, Amount: amount, Currency: currency, TxType: store.TxAdjustmentPositive,
		Reason: &reason, AdminUserID: &adminUserID, ReferenceType: refType, ReferenceID: refID, Metadata: metadata, CreatedAt: time.Now(),
	}
	if err := e.Store.Tx.CreditAdd(ctx, tx); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "adjust credits", err)
	}
	return tx, nil
}

// AdjustNegative records an admin-issued negative adjustment. This is
// the only tx_type allowed to drive a user's balance below zero (spec
// §3 CREDIT TRANSACTION invariant). metadata, if non-nil, is rejected
// when it carries a secret-like field (spec §4.7).
func (e *Engine) AdjustNegative(ctx context.Context, adminUserID, userID uuid.UUID, amount int64, currency, reason string, refType, refID *string, metadata map[string]string) (*store.CreditTransaction, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if err := validateCurrency(currency); err != nil {
		return nil, err
	}
	if reason == "" {
		return nil, apperr.New(apperr.Validation, "reason is required")
	}
	if err := ValidateMetadataNoSecrets(metadata); err != nil {
		return nil, err
	}

	tx := &store.CreditTransaction{
		ID: uuid.New(), UserID: userID, Amount: -amount, Currency: currency, TxType: store.TxAdjustmentNegative,
		Reason: &reason, AdminUserID: &adminUserID, ReferenceType: refType, ReferenceID: refID, Metadata: metadata, CreatedAt: time.Now(),
	}
	// CreditSpend skips the balance floor for TxAdjustmentNegative.
	if err := e.Store.Tx.CreditSpend(ctx, tx); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "adjust credits", err)
	}
	return tx, nil
}

// Balance returns the user's ledger balance for a currency: the sum of
// every transaction row, never a separately maintained counter.
func (e *Engine) Balance(ctx context.Context, userID uuid.UUID, currency string) (int64, error) {
	bal, err := e.Store.CreditTx.Balance(ctx, userID, currency)
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, "read balance", err)
	}
	return bal, nil
}

// AvailableBalance subtracts the sum of pending holds from the ledger
// balance (spec §3 CREDIT HOLD invariant).
func (e *Engine) AvailableBalance(ctx context.Context, userID uuid.UUID, currency string) (int64, error) {
	bal, err := e.Balance(ctx, userID, currency)
	if err != nil {
		return 0, err
	}
	holds, err := e.Store.CreditHolds.ListPendingByUser(ctx, userID, currency)
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, "list pending holds", err)
	}
	var held int64
	for _, h := range holds {
		held += h.Amount
	}
	return bal - held, nil
}

// History returns a page of the user's transactions in the order the
// store returns them (append order).
func (e *Engine) History(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*store.CreditTransaction, error) {
	txs, err := e.Store.CreditTx.ListByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list transactions", err)
	}
	return txs, nil
}

// handleDuplicateOrFail treats a duplicate idempotency key as a
// short-circuit success: fetch and return the transaction it collided
// with instead of erroring the caller's retry.
func (e *Engine) handleDuplicateOrFail(ctx context.Context, userID uuid.UUID, idempotencyKey *string, err error, op string) (*store.CreditTransaction, error) {
	if errors.Is(err, store.ErrDuplicateIdempotency) && idempotencyKey != nil {
		existing, getErr := e.Store.CreditTx.GetByIdempotencyKey(ctx, userID, *idempotencyKey)
		if getErr == nil {
			return existing, nil
		}
	}
	return nil, apperr.Wrap(apperr.Internal, op, err)
}
