package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/store"
)

type sessionRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*store.Session
}

func (r *sessionRepo) Create(_ context.Context, s *store.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[s.ID] = cp(s)
	return nil
}

func (r *sessionRepo) GetByID(_ context.Context, id uuid.UUID) (*store.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, errNotFound
	}
	return cp(s), nil
}

func (r *sessionRepo) GetByRefreshTokenHash(_ context.Context, hash string) (*store.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byID {
		if s.RefreshTokenHash == hash {
			return cp(s), nil
		}
	}
	return nil, errNotFound
}

func (r *sessionRepo) ListActiveByUser(_ context.Context, userID uuid.UUID) ([]*store.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*store.Session
	for _, s := range r.byID {
		if s.UserID == userID && !s.IsRevoked() {
			out = append(out, cp(s))
		}
	}
	return out, nil
}

func (r *sessionRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*store.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*store.Session
	for _, s := range r.byID {
		if s.UserID == userID {
			out = append(out, cp(s))
		}
	}
	return out, nil
}

// RevokeIfValid is the CAS at the heart of spec §4.2/§4.4(g)/P1: it
// returns revoked=true only on the call that actually flips the session
// from non-revoked to revoked, so concurrent refresh attempts can detect
// reuse (spec §8 B1).
func (r *sessionRepo) RevokeIfValid(_ context.Context, id uuid.UUID, reason store.RevokeReason) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return false, errNotFound
	}
	if s.IsRevoked() {
		return false, nil
	}
	now := time.Now()
	s.RevokedAt = &now
	s.RevokedReason = &reason
	return true, nil
}

func (r *sessionRepo) RevokeAllForUser(_ context.Context, userID uuid.UUID, reason store.RevokeReason) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, s := range r.byID {
		if s.UserID == userID && !s.IsRevoked() {
			s.RevokedAt = &now
			s.RevokedReason = &reason
		}
	}
	return nil
}

// EnforceSessionCap supports MAX_SESSIONS_PER_USER (spec §3):
// the oldest non-revoked sessions are revoked with reason=session_limit
// once a new session would push the count over the cap.
func (r *sessionRepo) EnforceSessionCap(userID uuid.UUID, maxSessions int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var active []*store.Session
	for _, s := range r.byID {
		if s.UserID == userID && !s.IsRevoked() {
			active = append(active, s)
		}
	}
	if len(active) <= maxSessions {
		return
	}
	// oldest-first
	for i := 0; i < len(active); i++ {
		for j := i + 1; j < len(active); j++ {
			if active[j].CreatedAt.Before(active[i].CreatedAt) {
				active[i], active[j] = active[j], active[i]
			}
		}
	}
	excess := len(active) - maxSessions
	now := time.Now()
	reason := store.RevokeSessionLimit
	for i := 0; i < excess; i++ {
		active[i].RevokedAt = &now
		active[i].RevokedReason = &reason
	}
}
