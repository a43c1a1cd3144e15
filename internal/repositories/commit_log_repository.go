package repositories

import (
	"context"
	"time"

	"github.com/snapsweep/media-service/internal/models"
)

// CommitLogRepository handles the write-ahead commit log. It is a pure
// durability primitive: no business queries run against it, only the
// startup recovery sweep and the commit reconciliation.
type CommitLogRepository interface {
	// MarkCommitting upserts one COMMITTING entry per id with a fresh
	// created_at. Must be persisted before the ids go to the media store.
	MarkCommitting(ctx context.Context, ids []string) error
	// MarkFailed flips existing entries to FAILED. Unknown ids are ignored.
	MarkFailed(ctx context.Context, ids []string) error
	// Clear removes entries entirely. Only called after the pending marker
	// for the same id has been reconciled.
	Clear(ctx context.Context, ids []string) error
	// ListStaleCommitting returns ids of COMMITTING entries created before
	// cutoff. These are orphans from a process that died mid-batch.
	ListStaleCommitting(ctx context.Context, cutoff time.Time) ([]string, error)
	// PurgeFailedBefore drops resolved FAILED entries older than cutoff and
	// returns how many were removed.
	PurgeFailedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type commitLogRepository struct {
	db DB
}

// NewCommitLogRepository creates a new repository.
func NewCommitLogRepository(db DB) CommitLogRepository {
	return &commitLogRepository{db: db}
}

func (r *commitLogRepository) MarkCommitting(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `
        INSERT INTO commit_log (asset_id, status, created_at)
        SELECT unnest($1::text[]), $2, now()
        ON CONFLICT (asset_id)
        DO UPDATE SET status = EXCLUDED.status, created_at = EXCLUDED.created_at
    `
	_, err := r.db.Exec(ctx, query, ids, models.CommitStatusCommitting)
	return err
}

func (r *commitLogRepository) MarkFailed(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx,
		`UPDATE commit_log SET status = $1 WHERE asset_id = ANY($2)`,
		models.CommitStatusFailed, ids,
	)
	return err
}

func (r *commitLogRepository) Clear(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `DELETE FROM commit_log WHERE asset_id = ANY($1)`, ids)
	return err
}

func (r *commitLogRepository) ListStaleCommitting(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT asset_id FROM commit_log WHERE status = $1 AND created_at < $2`,
		models.CommitStatusCommitting, cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *commitLogRepository) PurgeFailedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM commit_log WHERE status = $1 AND created_at < $2`,
		models.CommitStatusFailed, cutoff,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
