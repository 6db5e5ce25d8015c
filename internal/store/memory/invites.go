package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/store"
)

type inviteRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*store.Invite
}

func (r *inviteRepo) Create(_ context.Context, i *store.Invite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[i.ID] = cp(i)
	return nil
}

func (r *inviteRepo) GetByID(_ context.Context, id uuid.UUID) (*store.Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.byID[id]
	if !ok {
		return nil, errNotFound
	}
	return cp(i), nil
}

func (r *inviteRepo) GetByTokenHash(_ context.Context, tokenHash string) (*store.Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, i := range r.byID {
		if i.TokenHash == tokenHash {
			return cp(i), nil
		}
	}
	return nil, errNotFound
}

// GetPendingForRecipient matches spec §4.3's one-pending-invite-per-recipient
// rule: exactly one of email/wallet identifies the recipient.
func (r *inviteRepo) GetPendingForRecipient(_ context.Context, orgID uuid.UUID, email, wallet *string) (*store.Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, i := range r.byID {
		if i.OrgID != orgID || i.AcceptedAt != nil {
			continue
		}
		if email != nil && i.Email != nil && *i.Email == *email {
			return cp(i), nil
		}
		if wallet != nil && i.WalletAddress != nil && *i.WalletAddress == *wallet {
			return cp(i), nil
		}
	}
	return nil, errNotFound
}

func (r *inviteRepo) ListByOrg(_ context.Context, orgID uuid.UUID) ([]*store.Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*store.Invite
	for _, i := range r.byID {
		if i.OrgID == orgID {
			out = append(out, cp(i))
		}
	}
	return out, nil
}

func (r *inviteRepo) MarkAccepted(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.byID[id]
	if !ok {
		return errNotFound
	}
	now := time.Now()
	i.AcceptedAt = &now
	return nil
}

func (r *inviteRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}
