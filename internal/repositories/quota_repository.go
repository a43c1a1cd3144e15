package repositories

import (
	"context"

	"github.com/jackc/pgtype"
	"github.com/snapsweep/media-service/internal/models"
)

// QuotaRepository persists the single quota row.
type QuotaRepository interface {
	// Get returns the persisted state, or pgx.ErrNoRows when the row has
	// never been written.
	Get(ctx context.Context) (*models.QuotaState, error)
	Upsert(ctx context.Context, state *models.QuotaState) error
}

type quotaRepository struct {
	db DB
}

// NewQuotaRepository creates a new repository.
func NewQuotaRepository(db DB) QuotaRepository {
	return &quotaRepository{db: db}
}

func (r *quotaRepository) Get(ctx context.Context) (*models.QuotaState, error) {
	row := r.db.QueryRow(ctx, `
        SELECT deletes_today, last_date, is_pro, last_validation
        FROM quota_state
        WHERE id = 1
    `)
	var q models.QuotaState
	var lastValidation pgtype.Timestamptz
	if err := row.Scan(&q.DeletesToday, &q.LastDate, &q.IsPro, &lastValidation); err != nil {
		return nil, err
	}
	if lastValidation.Status == pgtype.Present {
		t := lastValidation.Time
		q.LastValidation = &t
	}
	return &q, nil
}

func (r *quotaRepository) Upsert(ctx context.Context, state *models.QuotaState) error {
	query := `
        INSERT INTO quota_state (id, deletes_today, last_date, is_pro, last_validation)
        VALUES (1, $1, $2, $3, $4)
        ON CONFLICT (id)
        DO UPDATE SET
            deletes_today   = EXCLUDED.deletes_today,
            last_date       = EXCLUDED.last_date,
            is_pro          = EXCLUDED.is_pro,
            last_validation = EXCLUDED.last_validation
    `
	_, err := r.db.Exec(ctx, query,
		state.DeletesToday, state.LastDate, state.IsPro, state.LastValidation,
	)
	return err
}
