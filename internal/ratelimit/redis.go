package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// recordFailedLoginRedis mirrors store/memory's exponential-lockout math
// but keeps the counter in Redis via INCR, so multiple gateway replicas
// share one lockout clock (spec §4.2/§4.4a).
func (l *Limiter) recordFailedLoginRedis(ctx context.Context, email string) (LockoutState, error) {
	key := redisLoginKey(email)
	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return LockoutState{}, err
	}
	l.rdb.Expire(ctx, key, l.cfg.MaxLockout*2)

	state := LockoutState{FailedAttempts: int(n)}
	if int(n) > l.cfg.MaxAttempts {
		shift := int(n) - l.cfg.MaxAttempts - 1
		if shift > 30 {
			shift = 30
		}
		lockout := l.cfg.BaseLockout * time.Duration(int64(1)<<uint(shift))
		if lockout > l.cfg.MaxLockout || lockout <= 0 {
			lockout = l.cfg.MaxLockout
		}
		until := time.Now().Add(lockout)
		state.LockedUntil = &until
		l.rdb.Set(ctx, lockKey(email), strconv.FormatInt(until.Unix(), 10), lockout)
	}
	return state, nil
}

func (l *Limiter) getLockoutStateRedis(ctx context.Context, email string) (LockoutState, error) {
	n, err := l.rdb.Get(ctx, redisLoginKey(email)).Int()
	if err != nil && err != redis.Nil {
		return LockoutState{}, err
	}
	state := LockoutState{FailedAttempts: n}

	raw, err := l.rdb.Get(ctx, lockKey(email)).Result()
	if err == nil {
		if unix, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
			until := time.Unix(unix, 0)
			state.LockedUntil = &until
		}
	} else if err != redis.Nil {
		return LockoutState{}, err
	}
	return state, nil
}

func lockKey(email string) string { return "cedros:login_locked_until:" + email }
