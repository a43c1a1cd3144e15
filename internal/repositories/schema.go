package repositories

import "context"

// EnsureSchema creates the three tables this service owns if they are
// missing. It runs at startup, before any repository is used.
func EnsureSchema(ctx context.Context, db DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS pending_markers (
			asset_id   TEXT PRIMARY KEY,
			size_bytes BIGINT,
			marked_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pending_markers_marked_at
			ON pending_markers (marked_at DESC)`,

		`CREATE TABLE IF NOT EXISTS commit_log (
			asset_id   TEXT PRIMARY KEY,
			status     TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_commit_log_status
			ON commit_log (status, created_at)`,

		// Single-row table: this is a single-device, single-user store.
		`CREATE TABLE IF NOT EXISTS quota_state (
			id              SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			deletes_today   INT NOT NULL DEFAULT 0,
			last_date       DATE NOT NULL,
			is_pro          BOOLEAN NOT NULL DEFAULT FALSE,
			last_validation TIMESTAMPTZ
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
