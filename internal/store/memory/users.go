package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/store"
)

type userRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*store.User
}

func (r *userRepo) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(u)
}

func (r *userRepo) insertLocked(u *User) error {
	if u.Email != nil {
		for _, existing := range r.byID {
			if existing.Email != nil && strings.EqualFold(*existing.Email, *u.Email) {
				return store.ErrAlreadyExists
			}
		}
	}
	r.byID[u.ID] = cp(u)
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, errNotFound
	}
	return cp(u), nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email != nil && strings.EqualFold(*u.Email, email) {
			return cp(u), nil
		}
	}
	return nil, errNotFound
}

func (r *userRepo) GetByGoogleID(_ context.Context, googleID string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			return cp(u), nil
		}
	}
	return nil, errNotFound
}

func (r *userRepo) GetByAppleID(_ context.Context, appleID string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.AppleID != nil && *u.AppleID == appleID {
			return cp(u), nil
		}
	}
	return nil, errNotFound
}

func (r *userRepo) GetByWalletAddress(_ context.Context, addr string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.WalletAddress != nil && *u.WalletAddress == addr {
			return cp(u), nil
		}
	}
	return nil, errNotFound
}

func (r *userRepo) Update(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[u.ID]; !ok {
		return errNotFound
	}
	r.byID[u.ID] = cp(u)
	return nil
}

func (r *userRepo) List(_ context.Context, offset, limit int) ([]*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, cp(u))
	}
	if offset >= len(out) {
		return []*User{}, nil
	}
	end := offset + limit
	if end > len(out) || limit <= 0 {
		end = len(out)
	}
	return out[offset:end], nil
}

type User = store.User
