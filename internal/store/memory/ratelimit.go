package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/store"
)

// mfaCounter tracks per-user MFA step-up failures separately from the
// per-email login-failure counter, per spec §4.4(g).
type mfaCounter struct {
	count       int
	lockedUntil *time.Time
}

type rateLimitRepo struct {
	mu          sync.Mutex
	byEmail     map[string]*store.FailedLoginCounter
	mfaFailures map[uuid.UUID]*mfaCounter
}

// RecordFailedLoginAttempt implements the exponential lockout of spec
// §4.4(a)/(g): lockout duration doubles per attempt past MaxAttempts,
// capped at cfg.MaxLockout, computed and stored under one lock so two
// concurrent failures cannot both observe a stale counter.
func (r *rateLimitRepo) RecordFailedLoginAttempt(_ context.Context, email string, cfg store.LockoutConfig) (store.FailedLoginCounter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byEmail[email]
	if !ok {
		c = &store.FailedLoginCounter{Email: email}
		r.byEmail[email] = c
	}
	c.FailedAttempts++
	if c.FailedAttempts > cfg.MaxAttempts {
		shift := c.FailedAttempts - cfg.MaxAttempts - 1
		if shift > 30 {
			shift = 30
		}
		lockout := cfg.BaseLockout * time.Duration(1<<uint(shift))
		if lockout > cfg.MaxLockout || lockout <= 0 {
			lockout = cfg.MaxLockout
		}
		until := time.Now().Add(lockout)
		c.LockedUntil = &until
	}
	return *c, nil
}

func (r *rateLimitRepo) ClearFailedLoginAttempts(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byEmail, email)
	return nil
}

func (r *rateLimitRepo) GetFailedLoginCounter(_ context.Context, email string) (store.FailedLoginCounter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byEmail[email]
	if !ok {
		return store.FailedLoginCounter{Email: email}, nil
	}
	return *c, nil
}

func (r *rateLimitRepo) RecordMFAFailure(_ context.Context, userID uuid.UUID) (int, *time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.mfaFailures[userID]
	if !ok {
		c = &mfaCounter{}
		r.mfaFailures[userID] = c
	}
	c.count++
	if c.count >= 5 {
		until := time.Now().Add(5 * time.Minute)
		c.lockedUntil = &until
	}
	return c.count, c.lockedUntil, nil
}

func (r *rateLimitRepo) ClearMFAFailures(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.mfaFailures, userID)
	return nil
}

// InstantLinkAllowed enforces the one-instant-link-per-interval throttle of
// spec §4.4(f) by piggybacking on the failed-login counter's LockedUntil.
func (r *rateLimitRepo) InstantLinkAllowed(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byEmail["instant_link:"+email]
	now := time.Now()
	if ok && c.LockedUntil != nil && now.Before(*c.LockedUntil) {
		return false, nil
	}
	until := now.Add(60 * time.Second)
	r.byEmail["instant_link:"+email] = &store.FailedLoginCounter{Email: email, LockedUntil: &until}
	return true, nil
}
