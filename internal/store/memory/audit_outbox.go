package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/store"
)

// auditRepo is fire-and-forget per spec §4.4/§5: callers never block on it
// and never branch on its error.
type auditRepo struct {
	mu     sync.Mutex
	events []*store.AuditEvent
}

func (r *auditRepo) Insert(_ context.Context, e *store.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, cp(e))
	return nil
}

func (r *auditRepo) ListRecent(_ context.Context, limit int) ([]*store.AuditEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*store.AuditEvent, len(r.events))
	copy(out, r.events)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

type outboxRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*store.OutboxItem
}

func (r *outboxRepo) Enqueue(_ context.Context, item *store.OutboxItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[item.ID] = cp(item)
	return nil
}

func (r *outboxRepo) Dequeue(_ context.Context, now time.Time, n int) ([]*store.OutboxItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*store.OutboxItem
	for _, item := range r.byID {
		if item.Delivered || item.NextAttempt.After(now) {
			continue
		}
		out = append(out, cp(item))
		if len(out) >= n {
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *outboxRepo) MarkDelivered(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.byID[id]
	if !ok {
		return errNotFound
	}
	item.Delivered = true
	return nil
}

func (r *outboxRepo) MarkRetry(_ context.Context, id uuid.UUID, nextAttempt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.byID[id]
	if !ok {
		return errNotFound
	}
	item.Attempts++
	item.NextAttempt = nextAttempt
	return nil
}
