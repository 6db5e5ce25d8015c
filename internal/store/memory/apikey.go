package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/store"
)

type apiKeyRepo struct {
	mu     sync.Mutex
	byHash map[string]*store.APIKey
	byID   map[uuid.UUID]*store.APIKey
}

func (r *apiKeyRepo) Create(_ context.Context, k *store.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := cp(k)
	r.byHash[k.KeyHash] = c
	r.byID[k.ID] = c
	return nil
}

func (r *apiKeyRepo) GetByHash(_ context.Context, hash string) (*store.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.byHash[hash]
	if !ok || k.RevokedAt != nil {
		return nil, errNotFound
	}
	return cp(k), nil
}

func (r *apiKeyRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*store.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*store.APIKey
	for _, k := range r.byID {
		if k.UserID == userID {
			out = append(out, cp(k))
		}
	}
	return out, nil
}

func (r *apiKeyRepo) Revoke(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.byID[id]
	if !ok {
		return errNotFound
	}
	now := time.Now()
	k.RevokedAt = &now
	return nil
}

func (r *apiKeyRepo) UpdateLastUsed(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.byID[id]
	if !ok {
		return errNotFound
	}
	k.LastUsedAt = &at
	return nil
}
