package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/store"
)

type walletRepo struct {
	mu     sync.Mutex
	byUser map[uuid.UUID]*store.WalletMaterial
	byID   map[uuid.UUID]*store.WalletMaterial
}

func (r *walletRepo) Create(_ context.Context, w *store.WalletMaterial) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byUser[w.UserID]; exists {
		return store.ErrAlreadyExists
	}
	c := cp(w)
	r.byUser[w.UserID] = c
	r.byID[w.ID] = c
	return nil
}

func (r *walletRepo) GetDefaultByUser(_ context.Context, userID uuid.UUID) (*store.WalletMaterial, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.byUser[userID]
	if !ok {
		return nil, errNotFound
	}
	return cp(w), nil
}

func (r *walletRepo) GetByAPIKeyID(_ context.Context, apiKeyID uuid.UUID) (*store.WalletMaterial, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.byID {
		if w.APIKeyID != nil && *w.APIKeyID == apiKeyID {
			return cp(w), nil
		}
	}
	return nil, errNotFound
}

func (r *walletRepo) Update(_ context.Context, w *store.WalletMaterial) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[w.ID]; !ok {
		return errNotFound
	}
	c := cp(w)
	r.byID[w.ID] = c
	r.byUser[w.UserID] = c
	return nil
}

func (r *walletRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.byID[id]
	if !ok {
		return errNotFound
	}
	delete(r.byID, id)
	if r.byUser[w.UserID] != nil && r.byUser[w.UserID].ID == id {
		delete(r.byUser, w.UserID)
	}
	return nil
}

type derivedWalletRepo struct {
	mu     sync.Mutex
	byUser map[uuid.UUID][]*store.DerivedWallet
}

func (r *derivedWalletRepo) Create(_ context.Context, d *store.DerivedWallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[d.UserID] = append(r.byUser[d.UserID], cp(d))
	return nil
}

func (r *derivedWalletRepo) FindByID(_ context.Context, id, userID uuid.UUID) (*store.DerivedWallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.byUser[userID] {
		if d.ID == id {
			return cp(d), nil
		}
	}
	return nil, errNotFound
}

func (r *derivedWalletRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*store.DerivedWallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	src := r.byUser[userID]
	out := make([]*store.DerivedWallet, len(src))
	for i, d := range src {
		out[i] = cp(d)
	}
	return out, nil
}

// NextDerivationIndex returns the next hardened child index for the user,
// per spec §4.6: indices are assigned sequentially starting at 1 (index 0
// is reserved for the primary wallet).
func (r *derivedWalletRepo) NextDerivationIndex(_ context.Context, userID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, d := range r.byUser[userID] {
		if d.DerivationIndex > max {
			max = d.DerivationIndex
		}
	}
	return max + 1, nil
}

func (r *derivedWalletRepo) Delete(_ context.Context, id, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.byUser[userID]
	for i, d := range list {
		if d.ID == id {
			r.byUser[userID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return errNotFound
}

type pendingRecoveryRepo struct {
	mu     sync.Mutex
	byUser map[uuid.UUID]*store.PendingWalletRecovery
}

func (r *pendingRecoveryRepo) Upsert(_ context.Context, p *store.PendingWalletRecovery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[p.UserID] = cp(p)
	return nil
}

func (r *pendingRecoveryRepo) Get(_ context.Context, userID uuid.UUID) (*store.PendingWalletRecovery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byUser[userID]
	if !ok {
		return nil, errNotFound
	}
	return cp(p), nil
}

func (r *pendingRecoveryRepo) Delete(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byUser, userID)
	return nil
}
