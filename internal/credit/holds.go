package credit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/store"
)

// CreateHold reserves amount from the user's available balance (ledger
// balance minus other pending holds) without spending it yet. Holds
// expire after ttlMinutes ∈ [1, 60] (spec §3, §4.7 "hold").
// Re-submission with the same idempotency key returns the existing,
// unchanged hold. metadata, if non-nil, is rejected when it carries a
// secret-like field (spec §4.7).
func (e *Engine) CreateHold(ctx context.Context, userID uuid.UUID, amount int64, currency string, idempotencyKey *string, ttlMinutes int, refType, refID *string, metadata map[string]string) (*store.CreditHold, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if err := validateCurrency(currency); err != nil {
		return nil, err
	}
	if err := validateTTLMinutes(ttlMinutes); err != nil {
		return nil, err
	}
	if refType != nil {
		if err := validateReferenceType(*refType); err != nil {
			return nil, err
		}
	}
	if err := ValidateMetadataNoSecrets(metadata); err != nil {
		return nil, err
	}

	hold := &store.CreditHold{
		ID: uuid.New(), UserID: userID, Amount: amount, Currency: currency, Status: store.HoldPending,
		ExpiresAt: time.Now().Add(time.Duration(ttlMinutes) * time.Minute),
		IdempotencyKey: idempotencyKey, ReferenceType: refType, ReferenceID: refID, Metadata: metadata, CreatedAt: time.Now(),
	}
	if err := e.Store.Tx.HoldCreate(ctx, hold); err != nil {
		if errors.Is(err, store.ErrInsufficientBalance) {
			return nil, apperr.New(apperr.Validation, "insufficient available balance")
		}
		if errors.Is(err, store.ErrDuplicateIdempotency) && idempotencyKey != nil {
			existing, getErr := e.Store.CreditHolds.GetByIdempotencyKey(ctx, userID, *idempotencyKey)
			if getErr == nil {
				return existing, nil
			}
		}
		return nil, apperr.Wrap(apperr.Internal, "create hold", err)
	}
	return hold, nil
}

// CaptureHold finalizes a pending hold into a spend transaction bound by
// an idempotency key derived from the hold id, so replaying a capture
// never double-spends. Idempotent when the hold is already captured.
func (e *Engine) CaptureHold(ctx context.Context, holdID uuid.UUID) (*store.CreditHold, *store.CreditTransaction, error) {
	hold, err := e.Store.CreditHolds.GetByID(ctx, holdID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, apperr.New(apperr.NotFound, "hold not found")
		}
		return nil, nil, apperr.Wrap(apperr.Internal, "load hold", err)
	}

	idemKey := "hold_capture:" + holdID.String()
	spendTx := &store.CreditTransaction{
		ID: uuid.New(), UserID: hold.UserID, Amount: -hold.Amount, Currency: hold.Currency, TxType: store.TxSpend,
		IdempotencyKey: &idemKey, ReferenceType: hold.ReferenceType, ReferenceID: hold.ReferenceID, CreatedAt: time.Now(),
	}

	capturedHold, capturedTx, err := e.Store.Tx.HoldCapture(ctx, holdID, spendTx)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, nil, apperr.New(apperr.Validation, "hold is not in a capturable state")
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, apperr.New(apperr.NotFound, "hold not found")
		}
		return nil, nil, apperr.Wrap(apperr.Internal, "capture hold", err)
	}
	return capturedHold, capturedTx, nil
}

// ReleaseHold returns a pending hold's reserved amount to the user's
// available balance. Idempotent on any non-pending hold (spec §4.7
// "release").
func (e *Engine) ReleaseHold(ctx context.Context, holdID uuid.UUID) (*store.CreditHold, error) {
	hold, err := e.Store.Tx.HoldRelease(ctx, holdID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.NotFound, "hold not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "release hold", err)
	}
	return hold, nil
}

// ListPendingHolds returns the user's currently pending holds in a
// currency, used to compute available balance at the API layer.
func (e *Engine) ListPendingHolds(ctx context.Context, userID uuid.UUID, currency string) ([]*store.CreditHold, error) {
	holds, err := e.Store.CreditHolds.ListPendingByUser(ctx, userID, currency)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list pending holds", err)
	}
	return holds, nil
}

// ListHolds returns every hold (any status) for the user.
func (e *Engine) ListHolds(ctx context.Context, userID uuid.UUID) ([]*store.CreditHold, error) {
	holds, err := e.Store.CreditHolds.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list holds", err)
	}
	return holds, nil
}

// ExpireHold transitions an overdue pending hold to expired. Intended to
// be called by a periodic sweep; it is not part of the user-facing API.
func (e *Engine) ExpireHold(ctx context.Context, hold *store.CreditHold) error {
	if hold.Status != store.HoldPending || time.Now().Before(hold.ExpiresAt) {
		return nil
	}
	hold.Status = store.HoldExpired
	if err := e.Store.CreditHolds.Update(ctx, hold); err != nil {
		return apperr.Wrap(apperr.Internal, "expire hold", err)
	}
	return nil
}
