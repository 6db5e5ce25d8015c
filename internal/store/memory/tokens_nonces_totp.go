package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/store"
)

type verificationTokenRepo struct {
	mu     sync.Mutex
	byHash map[string]*store.VerificationToken
}

func (r *verificationTokenRepo) Create(_ context.Context, t *store.VerificationToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byHash[t.TokenHash] = cp(t)
	return nil
}

// ConsumeIfValid is the single CAS required by spec §3/§4.2/P3: at most
// one caller observes UsedAt==nil for a given token, across concurrent
// callers, because the check-and-set happens under the same lock.
func (r *verificationTokenRepo) ConsumeIfValid(_ context.Context, tokenHash string, tokenType store.VerificationTokenType) (*store.VerificationToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byHash[tokenHash]
	if !ok || t.TokenType != tokenType {
		return nil, errNotFound
	}
	if t.UsedAt != nil {
		return nil, errNotFound
	}
	if time.Now().After(t.ExpiresAt) {
		return nil, errNotFound
	}
	now := time.Now()
	t.UsedAt = &now
	return cp(t), nil
}

type nonceRepo struct {
	mu      sync.Mutex
	byNonce map[string]*store.SolanaNonce
}

func (r *nonceRepo) Create(_ context.Context, n *store.SolanaNonce) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byNonce[n.Nonce] = cp(n)
	return nil
}

func (r *nonceRepo) ConsumeIfValid(_ context.Context, nonce string) (*store.SolanaNonce, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.byNonce[nonce]
	if !ok {
		return nil, errNotFound
	}
	if n.UsedAt != nil || time.Now().After(n.ExpiresAt) {
		return nil, errNotFound
	}
	now := time.Now()
	n.UsedAt = &now
	return cp(n), nil
}

type totpRepo struct {
	mu     sync.Mutex
	byUser map[uuid.UUID]*store.TOTPSecret
}

func (r *totpRepo) Get(_ context.Context, userID uuid.UUID) (*store.TOTPSecret, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byUser[userID]
	if !ok {
		return nil, errNotFound
	}
	return cp(t), nil
}

func (r *totpRepo) Upsert(_ context.Context, t *store.TOTPSecret) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[t.UserID] = cp(t)
	return nil
}

// RecordUsedStep rejects replays of the same or an older TOTP time-step,
// per spec §3's "replay guard".
func (r *totpRepo) RecordUsedStep(_ context.Context, userID uuid.UUID, step int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byUser[userID]
	if !ok {
		return false, errNotFound
	}
	if step <= t.LastUsedTimeStep {
		return false, nil
	}
	t.LastUsedTimeStep = step
	return true, nil
}
