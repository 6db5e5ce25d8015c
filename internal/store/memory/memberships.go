package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/store"
)

type membershipRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*store.Membership
}

func (r *membershipRepo) Create(_ context.Context, m *store.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.UserID == m.UserID && existing.OrgID == m.OrgID {
			return store.ErrAlreadyExists
		}
	}
	r.byID[m.ID] = cp(m)
	return nil
}

func (r *membershipRepo) Get(_ context.Context, userID, orgID uuid.UUID) (*store.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.byID {
		if m.UserID == userID && m.OrgID == orgID {
			return cp(m), nil
		}
	}
	return nil, errNotFound
}

func (r *membershipRepo) GetByID(_ context.Context, id uuid.UUID) (*store.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		return nil, errNotFound
	}
	return cp(m), nil
}

func (r *membershipRepo) ListByOrg(_ context.Context, orgID uuid.UUID) ([]*store.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*store.Membership
	for _, m := range r.byID {
		if m.OrgID == orgID {
			out = append(out, cp(m))
		}
	}
	return out, nil
}

func (r *membershipRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*store.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*store.Membership
	for _, m := range r.byID {
		if m.UserID == userID {
			out = append(out, cp(m))
		}
	}
	return out, nil
}

func (r *membershipRepo) CountOwners(_ context.Context, orgID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.countOwnersLocked(orgID)
}

func (r *membershipRepo) countOwnersLocked(orgID uuid.UUID) (int, error) {
	n := 0
	for _, m := range r.byID {
		if m.OrgID == orgID && m.Role == store.RoleOwner {
			n++
		}
	}
	return n, nil
}

// UpdateRoleIfNotLastOwner implements the guarded atomic update from spec
// §4.2/§4.5/P2: demoting the sole remaining Owner of a non-personal org
// must fail and leave state unchanged (spec §8 B2), checked and applied
// under the same lock so two concurrent demotions cannot both succeed.
func (r *membershipRepo) UpdateRoleIfNotLastOwner(_ context.Context, membershipID uuid.UUID, newRole store.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[membershipID]
	if !ok {
		return errNotFound
	}
	if m.Role == store.RoleOwner && newRole != store.RoleOwner {
		owners, _ := r.countOwnersLocked(m.OrgID)
		if owners <= 1 {
			return store.ErrLastOwner
		}
	}
	m.Role = newRole
	return nil
}

// DeleteIfNotLastOwner guards membership removal with the same invariant.
func (r *membershipRepo) DeleteIfNotLastOwner(_ context.Context, membershipID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[membershipID]
	if !ok {
		return errNotFound
	}
	if m.Role == store.RoleOwner {
		owners, _ := r.countOwnersLocked(m.OrgID)
		if owners <= 1 {
			return store.ErrLastOwner
		}
	}
	delete(r.byID, membershipID)
	return nil
}

