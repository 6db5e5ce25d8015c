package postgres

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"github.com/cedros/core/internal/store"
)

// auditRepo is the Postgres-backed store.AuditRepo. It mirrors the
// memory repo's fire-and-forget contract: callers never block on it and
// never branch on its error beyond logging.
type auditRepo struct {
	db *sqlx.DB
}

// NewAuditRepo returns a store.AuditRepo backed by db. Migrate must have
// been called against db first.
func NewAuditRepo(db *sqlx.DB) store.AuditRepo {
	return &auditRepo{db: db}
}

func (r *auditRepo) Insert(ctx context.Context, e *store.AuditEvent) error {
	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, event_type, user_id, org_id, ip_address, user_agent, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		e.ID, string(e.EventType), e.UserID, e.OrgID, e.IPAddress, e.UserAgent, meta, e.CreatedAt,
	)
	return err
}

func (r *auditRepo) ListRecent(ctx context.Context, limit int) ([]*store.AuditEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_type, user_id, org_id, ip_address, user_agent, metadata, created_at
		FROM audit_events ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*store.AuditEvent
	for rows.Next() {
		var (
			e        store.AuditEvent
			evtType  string
			metaJSON []byte
		)
		if err := rows.Scan(&e.ID, &evtType, &e.UserID, &e.OrgID, &e.IPAddress, &e.UserAgent, &metaJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.EventType = store.AuditEventType(evtType)
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &e.Metadata); err != nil {
				return nil, err
			}
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
