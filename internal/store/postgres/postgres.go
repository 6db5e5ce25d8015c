// Package postgres backs the append-only audit log with a real
// Postgres table instead of the in-process memory store. Every other
// repository still lives under internal/store/memory: audit rows are
// compliance-sensitive and outlive a single process, so they are the
// first repository pulled onto durable storage.
package postgres

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/zeromicro/go-zero/core/logx"
)

// Open connects to Postgres using a DSN, tunes the pool, and verifies
// connectivity before returning.
func Open(dataSource string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dataSource)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logx.Info("connected to postgres")
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id          UUID PRIMARY KEY,
	event_type  TEXT NOT NULL,
	user_id     UUID,
	org_id      UUID,
	ip_address  TEXT NOT NULL DEFAULT '',
	user_agent  TEXT NOT NULL DEFAULT '',
	metadata    JSONB NOT NULL DEFAULT '{}',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS audit_events_created_at_idx ON audit_events (created_at DESC);
`

// Migrate creates the tables this package owns if they do not exist
// yet. Called once at boot; there is no migration framework here since
// the schema surface is a single append-only table.
func Migrate(db *sqlx.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("migrate audit_events: %w", err)
	}
	return nil
}
