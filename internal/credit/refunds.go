package credit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/store"
)

// RequestRefund records a user-initiated refund request against an
// original positive transaction. amount must not exceed the original
// transaction's amount (spec §4.7 "refund-request").
func (e *Engine) RequestRefund(ctx context.Context, userID, originalTxID uuid.UUID, amount int64) (*store.RefundRequest, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	original, err := e.Store.CreditTx.GetByID(ctx, originalTxID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.NotFound, "original transaction not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "load original transaction", err)
	}
	if original.UserID != userID {
		return nil, apperr.New(apperr.Forbidden, "original transaction does not belong to this user")
	}
	if original.Amount <= 0 {
		return nil, apperr.New(apperr.Validation, "only positive transactions can be refunded")
	}
	if amount > original.Amount {
		return nil, apperr.New(apperr.Validation, "refund amount cannot exceed the original transaction amount")
	}

	req := &store.RefundRequest{
		ID: uuid.New(), UserID: userID, OriginalTransactionID: originalTxID, Amount: amount,
		Status: store.RefundPending, CreatedAt: time.Now(),
	}
	if err := e.Store.RefundRequests.Insert(ctx, req); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "record refund request", err)
	}
	return req, nil
}

// ProcessRefund is the admin-side approval: it insert a refund_adjustment
// transaction with an idempotency key derived from the request id, so a
// duplicate approval call is treated as already processed, and marks the
// request processed (spec §4.7 "refund-process"). metadata, if non-nil,
// is rejected when it carries a secret-like field (spec §4.7).
func (e *Engine) ProcessRefund(ctx context.Context, adminUserID, requestID uuid.UUID, amount int64, reason string, metadata map[string]string) (*store.RefundRequest, *store.CreditTransaction, error) {
	if err := validateAmount(amount); err != nil {
		return nil, nil, err
	}
	if reason == "" {
		return nil, nil, apperr.New(apperr.Validation, "reason is required")
	}
	if err := ValidateMetadataNoSecrets(metadata); err != nil {
		return nil, nil, err
	}

	req, err := e.Store.RefundRequests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, apperr.New(apperr.NotFound, "refund request not found")
		}
		return nil, nil, apperr.Wrap(apperr.Internal, "load refund request", err)
	}

	idemKey := "refund_request:" + requestID.String()

	if req.Status == store.RefundProcessed {
		if req.ProcessedTransactionID == nil {
			return nil, nil, apperr.Internalf("processed refund request missing processed_transaction_id")
		}
		existing, err := e.Store.CreditTx.GetByID(ctx, *req.ProcessedTransactionID)
		if err != nil {
			return nil, nil, apperr.Wrap(apperr.Internal, "load processed refund transaction", err)
		}
		return req, existing, nil
	}

	if amount > req.Amount {
		return nil, nil, apperr.New(apperr.Validation, "processed amount cannot exceed requested amount")
	}

	original, err := e.Store.CreditTx.GetByID(ctx, req.OriginalTransactionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, apperr.New(apperr.NotFound, "original transaction not found")
		}
		return nil, nil, apperr.Wrap(apperr.Internal, "load original transaction", err)
	}
	if original.UserID != req.UserID {
		return nil, nil, apperr.New(apperr.Validation, "refund request user does not match original transaction")
	}

	refunded, err := e.Store.CreditTx.SumRefundsForOriginal(ctx, req.OriginalTransactionID)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.Internal, "sum prior refunds", err)
	}
	remaining := original.Amount - refunded
	if amount > remaining {
		return nil, nil, apperr.New(apperr.Validation, "refund amount exceeds remaining refundable amount")
	}

	refOriginal := req.OriginalTransactionID.String()
	tx := &store.CreditTransaction{
		ID: uuid.New(), UserID: req.UserID, Amount: amount, Currency: original.Currency, TxType: store.TxRefundAdjustment,
		IdempotencyKey: &idemKey, ReferenceType: strPtr("refund"), ReferenceID: &refOriginal,
		Reason: &reason, AdminUserID: &adminUserID, Metadata: metadata, CreatedAt: time.Now(),
	}

	if err := e.Store.Tx.CreditAdd(ctx, tx); err != nil {
		if errors.Is(err, store.ErrDuplicateIdempotency) {
			existing, getErr := e.Store.CreditTx.GetByIdempotencyKey(ctx, req.UserID, idemKey)
			if getErr != nil {
				return nil, nil, apperr.Wrap(apperr.Internal, "load duplicate refund transaction", getErr)
			}
			tx = existing
		} else {
			return nil, nil, apperr.Wrap(apperr.Internal, "insert refund transaction", err)
		}
	}

	req.Status = store.RefundProcessed
	req.ProcessedTransactionID = &tx.ID
	now := time.Now()
	req.ProcessedAt = &now
	if err := e.Store.RefundRequests.Update(ctx, req); err != nil {
		return nil, nil, apperr.Wrap(apperr.Internal, "mark refund request processed", err)
	}

	return req, tx, nil
}

// ListRefundRequests returns every refund request a user has filed.
func (e *Engine) ListRefundRequests(ctx context.Context, userID uuid.UUID) ([]*store.RefundRequest, error) {
	reqs, err := e.Store.RefundRequests.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list refund requests", err)
	}
	return reqs, nil
}

func strPtr(s string) *string { return &s }
