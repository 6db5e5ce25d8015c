package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedros/core/internal/store/memory"
)

func TestRecordFailedLoginLocksOutAfterThreshold(t *testing.T) {
	st := memory.New()
	lim := New(nil, st.RateLimit, Config{MaxAttempts: 3, BaseLockout: time.Second, MaxLockout: time.Minute})
	ctx := context.Background()

	var last LockoutState
	for i := 0; i < 5; i++ {
		s, err := lim.RecordFailedLogin(ctx, "a@b.com")
		require.NoError(t, err)
		last = s
	}
	assert.True(t, last.Locked())
}

func TestClearFailedLoginsResetsState(t *testing.T) {
	st := memory.New()
	lim := New(nil, st.RateLimit, Config{MaxAttempts: 3, BaseLockout: time.Second, MaxLockout: time.Minute})
	ctx := context.Background()

	_, err := lim.RecordFailedLogin(ctx, "a@b.com")
	require.NoError(t, err)
	require.NoError(t, lim.ClearFailedLogins(ctx, "a@b.com"))

	state, err := lim.GetLockoutState(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, 0, state.FailedAttempts)
}

func TestInstantLinkAllowedThrottles(t *testing.T) {
	st := memory.New()
	lim := New(nil, st.RateLimit, Config{MaxAttempts: 3, BaseLockout: time.Second, MaxLockout: time.Minute})
	ctx := context.Background()

	ok1, err := lim.InstantLinkAllowed(ctx, "a@b.com")
	require.NoError(t, err)
	ok2, err := lim.InstantLinkAllowed(ctx, "a@b.com")
	require.NoError(t, err)

	assert.True(t, ok1)
	assert.False(t, ok2)
}
