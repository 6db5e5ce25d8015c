package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/store"
)

type orgRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*store.Organization
}

func (r *orgRepo) Create(_ context.Context, o *store.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Slug == o.Slug {
			return store.ErrAlreadyExists
		}
	}
	r.byID[o.ID] = cp(o)
	return nil
}

func (r *orgRepo) GetByID(_ context.Context, id uuid.UUID) (*store.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok {
		return nil, errNotFound
	}
	return cp(o), nil
}

func (r *orgRepo) GetBySlug(_ context.Context, slug string) (*store.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.byID {
		if o.Slug == slug {
			return cp(o), nil
		}
	}
	return nil, errNotFound
}

func (r *orgRepo) Update(_ context.Context, o *store.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[o.ID]; !ok {
		return errNotFound
	}
	r.byID[o.ID] = cp(o)
	return nil
}

func (r *orgRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}

func (r *orgRepo) ListForUser(_ context.Context, userID uuid.UUID) ([]*store.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*store.Organization
	for _, o := range r.byID {
		if o.OwnerID == userID {
			out = append(out, cp(o))
		}
	}
	return out, nil
}
