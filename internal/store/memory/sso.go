package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/store"
)

type ssoProviderRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*store.SSOProvider
}

func (r *ssoProviderRepo) Create(_ context.Context, p *store.SSOProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[p.ID] = cp(p)
	return nil
}

func (r *ssoProviderRepo) GetByID(_ context.Context, id uuid.UUID) (*store.SSOProvider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, errNotFound
	}
	return cp(p), nil
}

func (r *ssoProviderRepo) ListByOrg(_ context.Context, orgID uuid.UUID) ([]*store.SSOProvider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*store.SSOProvider
	for _, p := range r.byID {
		if p.OrgID == orgID {
			out = append(out, cp(p))
		}
	}
	return out, nil
}

func (r *ssoProviderRepo) Update(_ context.Context, p *store.SSOProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[p.ID]; !ok {
		return errNotFound
	}
	r.byID[p.ID] = cp(p)
	return nil
}

func (r *ssoProviderRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return errNotFound
	}
	delete(r.byID, id)
	return nil
}

type ssoAuthStateRepo struct {
	mu   sync.Mutex
	byID map[string]*store.SSOAuthState
}

func (r *ssoAuthStateRepo) Create(_ context.Context, s *store.SSOAuthState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[s.StateID] = cp(s)
	return nil
}

func (r *ssoAuthStateRepo) ConsumeIfValid(_ context.Context, stateID string) (*store.SSOAuthState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[stateID]
	if !ok || s.UsedAt != nil || time.Now().After(s.ExpiresAt) {
		return nil, errNotFound
	}
	now := time.Now()
	s.UsedAt = &now
	return cp(s), nil
}
