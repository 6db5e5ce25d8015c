package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/store"
)

type policyRepo struct {
	mu    sync.Mutex
	byOrg map[uuid.UUID][]*store.Policy
}

func (r *policyRepo) Create(_ context.Context, p *store.Policy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byOrg[p.OrgID] = append(r.byOrg[p.OrgID], cp(p))
	return nil
}

// ListByOrgOrderedByPriority returns policies highest-priority first, the
// order the ABAC evaluator (spec §4.5) walks them in; orgauthz.Evaluate
// also sorts its input itself.
func (r *policyRepo) ListByOrgOrderedByPriority(_ context.Context, orgID uuid.UUID) ([]*store.Policy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	src := r.byOrg[orgID]
	out := make([]*store.Policy, len(src))
	for i, p := range src {
		out[i] = cp(p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out, nil
}

func (r *policyRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for orgID, list := range r.byOrg {
		for i, p := range list {
			if p.ID == id {
				r.byOrg[orgID] = append(list[:i], list[i+1:]...)
				return nil
			}
		}
	}
	return errNotFound
}
