package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/store"
)

type creditTxRepo struct {
	mu     sync.Mutex
	byUser map[uuid.UUID][]*store.CreditTransaction
	byID   map[uuid.UUID]*store.CreditTransaction
}

func (r *creditTxRepo) Insert(_ context.Context, tx *store.CreditTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(tx)
}

func (r *creditTxRepo) insertLocked(tx *store.CreditTransaction) error {
	if tx.IdempotencyKey != nil {
		for _, existing := range r.byUser[tx.UserID] {
			if existing.IdempotencyKey != nil && *existing.IdempotencyKey == *tx.IdempotencyKey {
				return store.ErrDuplicateIdempotency
			}
		}
	}
	c := cp(tx)
	r.byUser[tx.UserID] = append(r.byUser[tx.UserID], c)
	r.byID[tx.ID] = c
	return nil
}

func (r *creditTxRepo) GetByIdempotencyKey(_ context.Context, userID uuid.UUID, key string) (*store.CreditTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.byUser[userID] {
		if t.IdempotencyKey != nil && *t.IdempotencyKey == key {
			return cp(t), nil
		}
	}
	return nil, errNotFound
}

func (r *creditTxRepo) GetByID(_ context.Context, id uuid.UUID) (*store.CreditTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getByIDLocked(id)
}

func (r *creditTxRepo) getByIDLocked(id uuid.UUID) (*store.CreditTransaction, error) {
	t, ok := r.byID[id]
	if !ok {
		return nil, errNotFound
	}
	return cp(t), nil
}

func (r *creditTxRepo) ListByUser(_ context.Context, userID uuid.UUID, offset, limit int) ([]*store.CreditTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	src := r.byUser[userID]
	if offset >= len(src) {
		return []*store.CreditTransaction{}, nil
	}
	end := offset + limit
	if end > len(src) || limit <= 0 {
		end = len(src)
	}
	out := make([]*store.CreditTransaction, 0, end-offset)
	for _, t := range src[offset:end] {
		out = append(out, cp(t))
	}
	return out, nil
}

// Balance sums every ledger row for (userID, currency), per spec §4.7: the
// balance is always a derived sum over the append-only ledger, never a
// separately stored counter.
func (r *creditTxRepo) Balance(_ context.Context, userID uuid.UUID, currency string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, t := range r.byUser[userID] {
		if t.Currency == currency {
			total += t.Amount
		}
	}
	return total, nil
}

// SumRefundsForOriginal sums every refund_adjustment amount that
// references originalTxID. refund_adjustment rows credit the user (a
// positive amount, per the ledger-balance invariant), so this is a plain
// sum, not a negation.
func (r *creditTxRepo) SumRefundsForOriginal(_ context.Context, originalTxID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, list := range r.byUser {
		for _, t := range list {
			if t.TxType == store.TxRefundAdjustment && t.ReferenceID != nil && *t.ReferenceID == originalTxID.String() {
				total += t.Amount
			}
		}
	}
	return total, nil
}

type creditHoldRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*store.CreditHold
}

func (r *creditHoldRepo) Insert(_ context.Context, h *store.CreditHold) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(h)
}

func (r *creditHoldRepo) insertLocked(h *store.CreditHold) error {
	if h.IdempotencyKey != nil {
		for _, existing := range r.byID {
			if existing.UserID == h.UserID && existing.IdempotencyKey != nil && *existing.IdempotencyKey == *h.IdempotencyKey {
				return store.ErrDuplicateIdempotency
			}
		}
	}
	r.byID[h.ID] = cp(h)
	return nil
}

func (r *creditHoldRepo) GetByIdempotencyKey(_ context.Context, userID uuid.UUID, key string) (*store.CreditHold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.byID {
		if h.UserID == userID && h.IdempotencyKey != nil && *h.IdempotencyKey == key {
			return cp(h), nil
		}
	}
	return nil, errNotFound
}

func (r *creditHoldRepo) GetByID(_ context.Context, id uuid.UUID) (*store.CreditHold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.byID[id]
	if !ok {
		return nil, errNotFound
	}
	return cp(h), nil
}

func (r *creditHoldRepo) ListPendingByUser(_ context.Context, userID uuid.UUID, currency string) ([]*store.CreditHold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*store.CreditHold
	for _, h := range r.byID {
		if h.UserID == userID && h.Currency == currency && h.Status == store.HoldPending {
			out = append(out, cp(h))
		}
	}
	return out, nil
}

func (r *creditHoldRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*store.CreditHold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*store.CreditHold
	for _, h := range r.byID {
		if h.UserID == userID {
			out = append(out, cp(h))
		}
	}
	return out, nil
}

func (r *creditHoldRepo) Update(_ context.Context, h *store.CreditHold) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[h.ID]; !ok {
		return errNotFound
	}
	r.byID[h.ID] = cp(h)
	return nil
}

type refundRequestRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*store.RefundRequest
}

func (r *refundRequestRepo) Insert(_ context.Context, req *store.RefundRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[req.ID] = cp(req)
	return nil
}

func (r *refundRequestRepo) GetByID(_ context.Context, id uuid.UUID) (*store.RefundRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.byID[id]
	if !ok {
		return nil, errNotFound
	}
	return cp(req), nil
}

func (r *refundRequestRepo) Update(_ context.Context, req *store.RefundRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[req.ID]; !ok {
		return errNotFound
	}
	r.byID[req.ID] = cp(req)
	return nil
}

func (r *refundRequestRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*store.RefundRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*store.RefundRequest
	for _, req := range r.byID {
		if req.UserID == userID {
			out = append(out, cp(req))
		}
	}
	return out, nil
}
