package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedros/core/internal/store"
)

func TestSessionRevokeIfValidIsSingleWinner(t *testing.T) {
	s := New()
	ctx := context.Background()
	sess := &store.Session{ID: uuid.New(), UserID: uuid.New(), ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, s.Sessions.Create(ctx, sess))

	ok1, err := s.Sessions.RevokeIfValid(ctx, sess.ID, store.RevokeRotated)
	require.NoError(t, err)
	ok2, err := s.Sessions.RevokeIfValid(ctx, sess.ID, store.RevokeTokenReuse)
	require.NoError(t, err)

	assert.True(t, ok1)
	assert.False(t, ok2, "second revoke of an already-revoked session must report false")
}

func TestUpdateRoleIfNotLastOwnerRejectsSoleOwnerDemotion(t *testing.T) {
	s := New()
	ctx := context.Background()
	org := uuid.New()
	m := &store.Membership{ID: uuid.New(), UserID: uuid.New(), OrgID: org, Role: store.RoleOwner}
	require.NoError(t, s.Memberships.Create(ctx, m))

	err := s.Memberships.UpdateRoleIfNotLastOwner(ctx, m.ID, store.RoleAdmin)
	require.ErrorIs(t, err, store.ErrLastOwner)

	got, err := s.Memberships.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, store.RoleOwner, got.Role, "state must be unchanged after a rejected demotion")
}

func TestUpdateRoleIfNotLastOwnerAllowsWithSecondOwner(t *testing.T) {
	s := New()
	ctx := context.Background()
	org := uuid.New()
	m1 := &store.Membership{ID: uuid.New(), UserID: uuid.New(), OrgID: org, Role: store.RoleOwner}
	m2 := &store.Membership{ID: uuid.New(), UserID: uuid.New(), OrgID: org, Role: store.RoleOwner}
	require.NoError(t, s.Memberships.Create(ctx, m1))
	require.NoError(t, s.Memberships.Create(ctx, m2))

	require.NoError(t, s.Memberships.UpdateRoleIfNotLastOwner(ctx, m1.ID, store.RoleAdmin))
}

func TestCreditSpendRejectsOverdraft(t *testing.T) {
	s := New()
	ctx := context.Background()
	user := uuid.New()

	require.NoError(t, s.Tx.CreditAdd(ctx, &store.CreditTransaction{
		ID: uuid.New(), UserID: user, Amount: 100, Currency: "USD", TxType: store.TxDeposit,
	}))

	err := s.Tx.CreditSpend(ctx, &store.CreditTransaction{
		ID: uuid.New(), UserID: user, Amount: -150, Currency: "USD", TxType: store.TxSpend,
	})
	require.ErrorIs(t, err, store.ErrInsufficientBalance)

	balance, err := s.CreditTx.Balance(ctx, user, "USD")
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance, "rejected spend must not alter the ledger")
}

func TestCreditSpendDuplicateIdempotencyKeyIsRejected(t *testing.T) {
	s := New()
	ctx := context.Background()
	user := uuid.New()
	key := "req-1"

	require.NoError(t, s.Tx.CreditAdd(ctx, &store.CreditTransaction{
		ID: uuid.New(), UserID: user, Amount: 500, Currency: "USD", TxType: store.TxDeposit,
	}))
	require.NoError(t, s.Tx.CreditSpend(ctx, &store.CreditTransaction{
		ID: uuid.New(), UserID: user, Amount: -50, Currency: "USD", TxType: store.TxSpend, IdempotencyKey: &key,
	}))

	err := s.Tx.CreditSpend(ctx, &store.CreditTransaction{
		ID: uuid.New(), UserID: user, Amount: -50, Currency: "USD", TxType: store.TxSpend, IdempotencyKey: &key,
	})
	require.True(t, errors.Is(err, store.ErrDuplicateIdempotency))
}

func TestHoldCreateRejectsWhenInsufficientAvailable(t *testing.T) {
	s := New()
	ctx := context.Background()
	user := uuid.New()

	require.NoError(t, s.Tx.CreditAdd(ctx, &store.CreditTransaction{
		ID: uuid.New(), UserID: user, Amount: 100, Currency: "USD", TxType: store.TxDeposit,
	}))
	require.NoError(t, s.Tx.HoldCreate(ctx, &store.CreditHold{
		ID: uuid.New(), UserID: user, Amount: 80, Currency: "USD", Status: store.HoldPending, ExpiresAt: time.Now().Add(time.Hour),
	}))

	err := s.Tx.HoldCreate(ctx, &store.CreditHold{
		ID: uuid.New(), UserID: user, Amount: 30, Currency: "USD", Status: store.HoldPending, ExpiresAt: time.Now().Add(time.Hour),
	})
	require.ErrorIs(t, err, store.ErrInsufficientBalance)
}

func TestHoldCaptureTransitionsOnce(t *testing.T) {
	s := New()
	ctx := context.Background()
	user := uuid.New()

	require.NoError(t, s.Tx.CreditAdd(ctx, &store.CreditTransaction{
		ID: uuid.New(), UserID: user, Amount: 100, Currency: "USD", TxType: store.TxDeposit,
	}))
	hold := &store.CreditHold{ID: uuid.New(), UserID: user, Amount: 50, Currency: "USD", Status: store.HoldPending, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, s.Tx.HoldCreate(ctx, hold))

	spendTx := &store.CreditTransaction{ID: uuid.New(), UserID: user, Amount: -50, Currency: "USD", TxType: store.TxSpend}
	capturedHold, _, err := s.Tx.HoldCapture(ctx, hold.ID, spendTx)
	require.NoError(t, err)
	assert.Equal(t, store.HoldCaptured, capturedHold.Status)

	_, replayTx, err := s.Tx.HoldCapture(ctx, hold.ID, &store.CreditTransaction{ID: uuid.New(), UserID: user, Amount: -1, Currency: "USD", TxType: store.TxSpend})
	require.NoError(t, err)
	assert.Equal(t, spendTx.ID, replayTx.ID, "replaying capture of a captured hold returns the original spend transaction")
}

func TestAcceptInviteAtomicIsIdempotentOnReplay(t *testing.T) {
	s := New()
	ctx := context.Background()
	org := uuid.New()
	email := "person@example.com"
	invite := &store.Invite{ID: uuid.New(), OrgID: org, Email: &email, Role: store.RoleMember, TokenHash: "h", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, s.Invites.Create(ctx, invite))

	userID := uuid.New()
	m1, err := s.Tx.AcceptInviteAtomic(ctx, invite, userID)
	require.NoError(t, err)

	fetched, err := s.Invites.GetByID(ctx, invite.ID)
	require.NoError(t, err)
	m2, err := s.Tx.AcceptInviteAtomic(ctx, fetched, userID)
	require.NoError(t, err)

	assert.Equal(t, m1.ID, m2.ID, "replaying acceptance of an already-accepted invite must be idempotent")
}

func TestVerificationTokenConsumeIfValidIsSingleUse(t *testing.T) {
	s := New()
	ctx := context.Background()
	vt := &store.VerificationToken{UserID: uuid.New(), TokenHash: "tok", TokenType: store.TokenEmailVerify, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, s.VerificationTokens.Create(ctx, vt))

	_, err := s.VerificationTokens.ConsumeIfValid(ctx, "tok", store.TokenEmailVerify)
	require.NoError(t, err)

	_, err = s.VerificationTokens.ConsumeIfValid(ctx, "tok", store.TokenEmailVerify)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRecordFailedLoginAttemptLocksOutAfterThreshold(t *testing.T) {
	s := New()
	ctx := context.Background()
	cfg := store.LockoutConfig{MaxAttempts: 3, BaseLockout: time.Second, MaxLockout: time.Minute}

	var last store.FailedLoginCounter
	for i := 0; i < 5; i++ {
		c, err := s.RateLimit.RecordFailedLoginAttempt(ctx, "a@b.com", cfg)
		require.NoError(t, err)
		last = c
	}
	require.NotNil(t, last.LockedUntil)
	assert.True(t, last.LockedUntil.After(time.Now()))
}
