// Package ratelimit implements the failed-login, MFA-failure, and
// instant-link throttles of spec §4.2/§4.4. A *redis.Client backs the
// counters when configured (mirroring the teacher's authcache.Cache
// wrapping go-zero's redis client); with no client it falls back to the
// in-process store.RateLimitRepo counter, so tests and single-process
// deployments need no external dependency.
package ratelimit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/store"
)

// Config parameterizes the exponential login lockout (spec §3/§4.4a).
type Config struct {
	MaxAttempts int
	BaseLockout time.Duration
	MaxLockout  time.Duration
}

func (c Config) toStoreConfig() store.LockoutConfig {
	return store.LockoutConfig{MaxAttempts: c.MaxAttempts, BaseLockout: c.BaseLockout, MaxLockout: c.MaxLockout}
}

// Limiter fronts the lockout counters. It prefers rdb when non-nil so
// counters survive process restarts and are shared across replicas; it
// always keeps fallback wired so a Redis outage degrades to single-process
// throttling rather than disabling lockouts outright.
type Limiter struct {
	rdb      *redis.Client
	fallback store.RateLimitRepo
	cfg      Config
}

func New(rdb *redis.Client, fallback store.RateLimitRepo, cfg Config) *Limiter {
	return &Limiter{rdb: rdb, fallback: fallback, cfg: cfg}
}

// LockoutState is returned to the login handler for the generic
// "invalid_credentials" vs "account_locked" decision of spec §7.
type LockoutState struct {
	FailedAttempts int
	LockedUntil    *time.Time
}

func (s LockoutState) Locked() bool {
	return s.LockedUntil != nil && time.Now().Before(*s.LockedUntil)
}

// RecordFailedLogin increments the per-email counter and returns the
// resulting lockout state (spec §4.2 record_failed_login_attempt_atomic).
func (l *Limiter) RecordFailedLogin(ctx context.Context, email string) (LockoutState, error) {
	if l.rdb != nil {
		return l.recordFailedLoginRedis(ctx, email)
	}
	c, err := l.fallback.RecordFailedLoginAttempt(ctx, email, l.cfg.toStoreConfig())
	if err != nil {
		return LockoutState{}, apperr.Wrap(apperr.Internal, "record failed login attempt", err)
	}
	return LockoutState{FailedAttempts: c.FailedAttempts, LockedUntil: c.LockedUntil}, nil
}

func (l *Limiter) ClearFailedLogins(ctx context.Context, email string) error {
	if l.rdb != nil {
		return l.rdb.Del(ctx, redisLoginKey(email)).Err()
	}
	return l.fallback.ClearFailedLoginAttempts(ctx, email)
}

func (l *Limiter) GetLockoutState(ctx context.Context, email string) (LockoutState, error) {
	if l.rdb != nil {
		return l.getLockoutStateRedis(ctx, email)
	}
	c, err := l.fallback.GetFailedLoginCounter(ctx, email)
	if err != nil {
		return LockoutState{}, apperr.Wrap(apperr.Internal, "get failed login counter", err)
	}
	return LockoutState{FailedAttempts: c.FailedAttempts, LockedUntil: c.LockedUntil}, nil
}

// MFAFailureState reports the per-user step-up failure count (spec §4.4g).
type MFAFailureState struct {
	Count       int
	LockedUntil *time.Time
}

func (l *Limiter) RecordMFAFailure(ctx context.Context, userID uuid.UUID) (MFAFailureState, error) {
	count, lockedUntil, err := l.fallback.RecordMFAFailure(ctx, userID)
	if err != nil {
		return MFAFailureState{}, apperr.Wrap(apperr.Internal, "record mfa failure", err)
	}
	return MFAFailureState{Count: count, LockedUntil: lockedUntil}, nil
}

// ClearMFAFailures resets a user's step-up failure count, called once a
// code verifies successfully so a stale count doesn't lock out a later
// attempt.
func (l *Limiter) ClearMFAFailures(ctx context.Context, userID uuid.UUID) error {
	return l.fallback.ClearMFAFailures(ctx, userID)
}

// InstantLinkAllowed enforces the per-email instant-link throttle (spec §4.4f).
func (l *Limiter) InstantLinkAllowed(ctx context.Context, email string) (bool, error) {
	ok, err := l.fallback.InstantLinkAllowed(ctx, email)
	if err != nil {
		return false, apperr.Wrap(apperr.Internal, "check instant link throttle", err)
	}
	return ok, nil
}

func redisLoginKey(email string) string { return "cedros:login_failures:" + email }
