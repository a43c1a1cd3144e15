package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/snapsweep/media-service/internal/entitlement"
	"github.com/snapsweep/media-service/internal/models"
	"github.com/snapsweep/media-service/internal/repositories"
	"github.com/snapsweep/media-service/internal/utils"
)

// Pro entitlements are re-checked at most once per hour; the stamp is
// written even when the check fails, to bound re-validation frequency.
const entitlementValidationInterval = time.Hour

// QuotaLedgerService tracks the rolling daily deletion allowance and the
// paid-tier override. Load never fails outward: any persistence problem
// degrades to free-tier defaults instead of blocking the pipeline.
type QuotaLedgerService struct {
	repo     repositories.QuotaRepository
	provider entitlement.Provider
	now      func() time.Time
}

func NewQuotaLedgerService(repo repositories.QuotaRepository, provider entitlement.Provider) *QuotaLedgerService {
	return &QuotaLedgerService{
		repo:     repo,
		provider: provider,
		now:      time.Now,
	}
}

// Load reads the persisted quota state, zeroing the counter on UTC day
// rollover and re-validating a stale pro entitlement.
func (s *QuotaLedgerService) Load(ctx context.Context) *models.QuotaState {
	now := s.now().UTC()

	q, err := s.repo.Get(ctx)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			utils.Logger.WithError(err).Error("Failed to load quota state; falling back to free-tier defaults")
		}
		q = &models.QuotaState{LastDate: now}
	}

	if !q.SameUTCDay(now) {
		q.DeletesToday = 0
		q.LastDate = now
		if err := s.repo.Upsert(ctx, q); err != nil {
			utils.Logger.WithError(err).Warn("Failed to persist quota day rollover")
		}
	}

	if q.IsPro && (q.LastValidation == nil || now.Sub(*q.LastValidation) > entitlementValidationInterval) {
		s.validate(ctx, q)
	}

	return q
}

// RecordDeletions adds count verified deletions to today's tally. The
// orchestrator calls this exactly once per commit, with the verified
// success count. Negative counts are rejected with a warning, not an error.
func (s *QuotaLedgerService) RecordDeletions(ctx context.Context, count int) error {
	if count < 0 {
		utils.Logger.Warnf("RecordDeletions called with negative count %d; ignoring", count)
		return nil
	}
	if count == 0 {
		return nil
	}

	now := s.now().UTC()
	q, err := s.repo.Get(ctx)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: load quota: %v", utils.ErrStoreUnavailable, err)
		}
		q = &models.QuotaState{LastDate: now}
	}

	if q.SameUTCDay(now) {
		q.DeletesToday += count
	} else {
		q.DeletesToday = count
		q.LastDate = now
	}

	if err := s.repo.Upsert(ctx, q); err != nil {
		return fmt.Errorf("%w: persist quota: %v", utils.ErrStoreUnavailable, err)
	}
	return nil
}

// CanCommit reports whether n deletions fit in today's allowance.
func (s *QuotaLedgerService) CanCommit(ctx context.Context, n int) bool {
	q := s.Load(ctx)
	return q.IsPro || n <= q.RemainingToday()
}

// UnlockPro delegates to the entitlement collaborator. On failure nothing
// is mutated; the error propagates to the caller.
func (s *QuotaLedgerService) UnlockPro(ctx context.Context) (bool, error) {
	ok, err := s.provider.Purchase(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %v", utils.ErrEntitlementFailure, err)
	}
	if !ok {
		return false, nil
	}

	q := s.Load(ctx)
	q.IsPro = true
	stamp := s.now().UTC()
	q.LastValidation = &stamp
	if err := s.repo.Upsert(ctx, q); err != nil {
		return true, fmt.Errorf("%w: persist pro unlock: %v", utils.ErrStoreUnavailable, err)
	}
	return true, nil
}

// Validate re-checks a pro entitlement immediately, regardless of the
// hourly throttle. Used by the scheduled revalidation job.
func (s *QuotaLedgerService) Validate(ctx context.Context) {
	q, err := s.repo.Get(ctx)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			utils.Logger.WithError(err).Warn("Skipping entitlement validation; quota state unavailable")
		}
		return
	}
	if !q.IsPro {
		return
	}
	s.validate(ctx, q)
}

func (s *QuotaLedgerService) validate(ctx context.Context, q *models.QuotaState) {
	stamp := s.now().UTC()
	q.LastValidation = &stamp

	valid, err := s.provider.Validate(ctx)
	if err != nil {
		utils.Logger.WithError(err).Warn("Entitlement validation failed; demoting to free tier")
		q.IsPro = false
	} else if !valid {
		utils.Logger.Info("Pro entitlement no longer active; demoting to free tier")
		q.IsPro = false
	}

	if err := s.repo.Upsert(ctx, q); err != nil {
		utils.Logger.WithError(err).Warn("Failed to persist entitlement validation result")
	}
}
