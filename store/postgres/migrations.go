package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Ledger store.
// It can be registered with the grove extension for orchestrated migration
// management (locking, version tracking, rollback support).
var Migrations = migrate.NewGroup("ledger")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_ledger_workspaces",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS ledger_workspaces (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL DEFAULT '',
    metadata    JSONB NOT NULL DEFAULT '{}',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_ledger_workspaces_created ON ledger_workspaces (created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS ledger_workspaces`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_ledger_events",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS ledger_events (
    id              TEXT PRIMARY KEY,
    event_key       TEXT NOT NULL,
    type            TEXT NOT NULL DEFAULT '',
    occurred_at     TIMESTAMPTZ NOT NULL,
    workspace_id    TEXT NOT NULL DEFAULT '',
    actor           TEXT NOT NULL DEFAULT '',
    repository      TEXT NOT NULL DEFAULT '',
    target_type     TEXT NOT NULL DEFAULT '',
    target_id       TEXT NOT NULL DEFAULT '',
    xp              DOUBLE PRECISION NOT NULL DEFAULT 0,
    source          TEXT NOT NULL DEFAULT '',
    payload         JSONB,
    schema_version  INT NOT NULL DEFAULT 1,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_events_key ON ledger_events (event_key);
CREATE INDEX IF NOT EXISTS idx_ledger_events_workspace ON ledger_events (workspace_id);
CREATE INDEX IF NOT EXISTS idx_ledger_events_type ON ledger_events (type);
CREATE INDEX IF NOT EXISTS idx_ledger_events_occurred ON ledger_events (occurred_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS ledger_events`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_ledger_dead_letters",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS ledger_dead_letters (
    id               TEXT PRIMARY KEY,
    workspace_id     TEXT NOT NULL DEFAULT '',
    event_type       TEXT NOT NULL DEFAULT '',
    occurred_at      TIMESTAMPTZ NOT NULL,
    actor            TEXT NOT NULL DEFAULT '',
    repository       TEXT NOT NULL DEFAULT '',
    target_type      TEXT NOT NULL DEFAULT '',
    target_id        TEXT NOT NULL DEFAULT '',
    xp               DOUBLE PRECISION NOT NULL DEFAULT 0,
    source           TEXT NOT NULL DEFAULT '',
    payload          JSONB,
    trigger_source   TEXT NOT NULL DEFAULT '',
    error_message    TEXT NOT NULL DEFAULT '',
    error_type       TEXT NOT NULL DEFAULT '',
    status           TEXT NOT NULL DEFAULT 'pending',
    retry_count      INT NOT NULL DEFAULT 0,
    resolved_at      TIMESTAMPTZ,
    resolution_notes TEXT NOT NULL DEFAULT '',
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_ledger_dead_letters_pending ON ledger_dead_letters (created_at) WHERE status = 'pending';
CREATE INDEX IF NOT EXISTS idx_ledger_dead_letters_workspace ON ledger_dead_letters (workspace_id);
CREATE INDEX IF NOT EXISTS idx_ledger_dead_letters_status ON ledger_dead_letters (status);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS ledger_dead_letters`)
				return err
			},
		},
	)
}
