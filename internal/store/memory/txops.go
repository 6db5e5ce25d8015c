package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/store"
)

// txOps implements store.TransactionalOps over the in-memory repos. A
// single mutex serializes every multi-repo operation so two callers can
// never interleave a partial RegisterUserAtomic or CreditSpend the way a
// real SQL transaction would forbid (spec §5, §4.2).
type txOps struct {
	mu sync.Mutex

	users       *userRepo
	sessions    *sessionRepo
	memberships *membershipRepo
	invites     *inviteRepo
	wallets     *walletRepo
	credTx      *creditTxRepo
	holds       *creditHoldRepo
}

func (t *txOps) RegisterUserAtomic(_ context.Context, u *store.User, m *store.Membership, session *store.Session) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.users.insertLocked(u); err != nil {
		return err
	}
	t.memberships.mu.Lock()
	t.memberships.byID[m.ID] = cp(m)
	t.memberships.mu.Unlock()
	t.sessions.mu.Lock()
	t.sessions.byID[session.ID] = cp(session)
	t.sessions.mu.Unlock()
	return nil
}

func (t *txOps) AcceptInviteAtomic(_ context.Context, invite *store.Invite, userID uuid.UUID) (*store.Membership, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.invites.mu.Lock()
	current, ok := t.invites.byID[invite.ID]
	if !ok {
		t.invites.mu.Unlock()
		return nil, store.ErrNotFound
	}
	t.memberships.mu.Lock()
	for _, existing := range t.memberships.byID {
		if existing.UserID == userID && existing.OrgID == current.OrgID {
			t.memberships.mu.Unlock()
			t.invites.mu.Unlock()
			return cp(existing), nil
		}
	}
	if current.AcceptedAt != nil {
		// Already accepted by a different user; this invite is spent.
		t.memberships.mu.Unlock()
		t.invites.mu.Unlock()
		return nil, store.ErrAlreadyExists
	}
	m := &store.Membership{
		ID:     uuid.New(),
		UserID: userID,
		OrgID:  current.OrgID,
		Role:   current.Role,
	}
	t.memberships.byID[m.ID] = cp(m)
	t.memberships.mu.Unlock()

	now := time.Now()
	current.AcceptedAt = &now
	t.invites.mu.Unlock()

	return cp(m), nil
}

func (t *txOps) RecoverWalletAtomic(_ context.Context, userID uuid.UUID, newMaterial *store.WalletMaterial) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.wallets.mu.Lock()
	defer t.wallets.mu.Unlock()
	if old, ok := t.wallets.byUser[userID]; ok {
		delete(t.wallets.byID, old.ID)
	}
	c := cp(newMaterial)
	t.wallets.byUser[userID] = c
	t.wallets.byID[newMaterial.ID] = c
	return nil
}

func (t *txOps) CreditAdd(_ context.Context, tx *store.CreditTransaction) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.credTx.mu.Lock()
	defer t.credTx.mu.Unlock()
	return t.credTx.insertLocked(tx)
}

// CreditSpend enforces non-negative available balance (spec §4.7 P4,
// B3) under the same lock that computes it, so no concurrent spend can
// observe a stale balance between the check and the append. Available
// balance nets out any pending holds on the same currency, the same way
// HoldCreate does, so a spend can never drive the ledger negative once
// an outstanding hold is later captured.
func (t *txOps) CreditSpend(_ context.Context, tx *store.CreditTransaction) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.credTx.mu.Lock()
	defer t.credTx.mu.Unlock()

	if tx.TxType != store.TxAdjustmentNegative {
		var balance int64
		for _, existing := range t.credTx.byUser[tx.UserID] {
			if existing.Currency == tx.Currency {
				balance += existing.Amount
			}
		}

		t.holds.mu.Lock()
		var held int64
		for _, existing := range t.holds.byID {
			if existing.UserID == tx.UserID && existing.Currency == tx.Currency && existing.Status == store.HoldPending {
				held += existing.Amount
			}
		}
		t.holds.mu.Unlock()

		if balance-held+tx.Amount < 0 {
			return store.ErrInsufficientBalance
		}
	}
	return t.credTx.insertLocked(tx)
}

func (t *txOps) HoldCreate(_ context.Context, h *store.CreditHold) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.credTx.mu.Lock()
	var balance int64
	for _, existing := range t.credTx.byUser[h.UserID] {
		if existing.Currency == h.Currency {
			balance += existing.Amount
		}
	}
	t.credTx.mu.Unlock()

	t.holds.mu.Lock()
	var held int64
	for _, existing := range t.holds.byID {
		if existing.UserID == h.UserID && existing.Currency == h.Currency && existing.Status == store.HoldPending {
			held += existing.Amount
		}
	}
	defer t.holds.mu.Unlock()

	if balance-held < h.Amount {
		return store.ErrInsufficientBalance
	}
	return t.holds.insertLocked(h)
}

// HoldCapture is idempotent when called again on an already-captured hold
// (spec §4.7 "capture"): it returns the existing hold and its bound
// transaction rather than erroring. Any other non-pending status
// (released, expired) cannot be captured.
func (t *txOps) HoldCapture(_ context.Context, holdID uuid.UUID, spendTx *store.CreditTransaction) (*store.CreditHold, *store.CreditTransaction, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.holds.mu.Lock()
	h, ok := t.holds.byID[holdID]
	if !ok {
		t.holds.mu.Unlock()
		return nil, nil, store.ErrNotFound
	}
	if h.Status == store.HoldCaptured {
		result := cp(h)
		t.holds.mu.Unlock()
		t.credTx.mu.Lock()
		existing, err := t.credTx.getByIDLocked(*h.CapturedTransactionID)
		t.credTx.mu.Unlock()
		if err != nil {
			return nil, nil, err
		}
		return result, existing, nil
	}
	if h.Status != store.HoldPending {
		t.holds.mu.Unlock()
		return nil, nil, store.ErrAlreadyExists
	}

	t.credTx.mu.Lock()
	if err := t.credTx.insertLocked(spendTx); err != nil {
		t.credTx.mu.Unlock()
		t.holds.mu.Unlock()
		return nil, nil, err
	}
	t.credTx.mu.Unlock()

	h.Status = store.HoldCaptured
	h.CapturedTransactionID = &spendTx.ID
	result := cp(h)
	t.holds.mu.Unlock()

	return result, cp(spendTx), nil
}

// HoldRelease is idempotent for any non-pending hold (spec §4.7
// "release": "if status=pending, set released; else idempotent
// success"), returning the hold's current state unchanged.
func (t *txOps) HoldRelease(_ context.Context, holdID uuid.UUID) (*store.CreditHold, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.holds.mu.Lock()
	defer t.holds.mu.Unlock()
	h, ok := t.holds.byID[holdID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if h.Status == store.HoldPending {
		h.Status = store.HoldReleased
	}
	return cp(h), nil
}
