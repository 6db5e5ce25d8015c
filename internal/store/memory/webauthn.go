package memory

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/store"
)

type webAuthnCredRepo struct {
	mu     sync.Mutex
	byUser map[uuid.UUID][]*store.WebAuthnCredential
}

func (r *webAuthnCredRepo) Create(_ context.Context, c *store.WebAuthnCredential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[c.UserID] = append(r.byUser[c.UserID], cp(c))
	return nil
}

func (r *webAuthnCredRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*store.WebAuthnCredential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	src := r.byUser[userID]
	out := make([]*store.WebAuthnCredential, len(src))
	for i, c := range src {
		out[i] = cp(c)
	}
	return out, nil
}

func (r *webAuthnCredRepo) GetByCredentialID(_ context.Context, credentialID []byte) (*store.WebAuthnCredential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, list := range r.byUser {
		for _, c := range list {
			if bytes.Equal(c.CredentialID, credentialID) {
				return cp(c), nil
			}
		}
	}
	return nil, errNotFound
}

func (r *webAuthnCredRepo) UpdateSignCount(_ context.Context, id uuid.UUID, signCount uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, list := range r.byUser {
		for _, c := range list {
			if c.ID == id {
				c.SignCount = signCount
				return nil
			}
		}
	}
	return errNotFound
}

type webAuthnChallengeRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*store.WebAuthnChallenge
}

func (r *webAuthnChallengeRepo) Create(_ context.Context, c *store.WebAuthnChallenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[c.ID] = cp(c)
	return nil
}

func (r *webAuthnChallengeRepo) ConsumeIfValid(_ context.Context, id uuid.UUID) (*store.WebAuthnChallenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok || c.UsedAt != nil || time.Now().After(c.ExpiresAt) {
		return nil, errNotFound
	}
	now := time.Now()
	c.UsedAt = &now
	return cp(c), nil
}
