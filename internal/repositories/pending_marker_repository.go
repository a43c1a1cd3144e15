package repositories

import (
	"context"

	"github.com/jackc/pgtype"
	"github.com/snapsweep/media-service/internal/models"
)

// PendingMarkerRepository handles CRUD for "marked for deletion" assets.
type PendingMarkerRepository interface {
	// Mark upserts a marker for assetID. Re-marking an already-marked
	// asset keeps the original row (idempotent).
	Mark(ctx context.Context, assetID string, sizeBytes *int64) error
	// List returns markers ordered by marked_at descending.
	List(ctx context.Context, limit, offset int) ([]*models.PendingMarker, error)
	Count(ctx context.Context) (int, error)
	SumSizeBytes(ctx context.Context) (int64, error)
	// Remove deletes only markers whose id is in ids. No-op on empty input.
	Remove(ctx context.Context, ids []string) error
	RemoveAll(ctx context.Context) error
}

type pendingMarkerRepository struct {
	db DB
}

// NewPendingMarkerRepository creates a new repository.
func NewPendingMarkerRepository(db DB) PendingMarkerRepository {
	return &pendingMarkerRepository{db: db}
}

func (r *pendingMarkerRepository) Mark(ctx context.Context, assetID string, sizeBytes *int64) error {
	query := `
        INSERT INTO pending_markers (asset_id, size_bytes, marked_at)
        VALUES ($1, $2, now())
        ON CONFLICT (asset_id) DO NOTHING
    `
	_, err := r.db.Exec(ctx, query, assetID, sizeBytes)
	return err
}

func (r *pendingMarkerRepository) List(ctx context.Context, limit, offset int) ([]*models.PendingMarker, error) {
	query := `
        SELECT asset_id, size_bytes, marked_at
        FROM pending_markers
        ORDER BY marked_at DESC, asset_id
        LIMIT $1 OFFSET $2
    `
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var markers []*models.PendingMarker
	for rows.Next() {
		var m models.PendingMarker
		var size pgtype.Int8
		if err := rows.Scan(&m.AssetID, &size, &m.MarkedAt); err != nil {
			return nil, err
		}
		if size.Status == pgtype.Present {
			m.SizeBytes = &size.Int
		}
		markers = append(markers, &m)
	}
	return markers, rows.Err()
}

func (r *pendingMarkerRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM pending_markers`).Scan(&count)
	return count, err
}

func (r *pendingMarkerRepository) SumSizeBytes(ctx context.Context) (int64, error) {
	var sum int64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(size_bytes), 0) FROM pending_markers`).Scan(&sum)
	return sum, err
}

func (r *pendingMarkerRepository) Remove(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `DELETE FROM pending_markers WHERE asset_id = ANY($1)`, ids)
	return err
}

func (r *pendingMarkerRepository) RemoveAll(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM pending_markers`)
	return err
}
