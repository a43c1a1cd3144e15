package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/snapsweep/media-service/internal/models"
	"github.com/snapsweep/media-service/internal/observability"
	"github.com/snapsweep/media-service/internal/repositories"
	"github.com/snapsweep/media-service/internal/utils"
)

const (
	doubleConfirmItemThreshold = 200
	doubleConfirmByteThreshold = int64(2) << 30 // 2 GiB

	// DefaultStaleAfter is how old a COMMITTING entry must be before the
	// recovery sweep treats it as an orphan from a dead process. The value
	// is a heuristic, not load-bearing; deployments tune it via config.
	DefaultStaleAfter = time.Hour
)

// CommitPreview describes what Execute would do right now. Derived, never
// persisted, and re-derived inside Execute — a displayed preview is never
// trusted across the confirm round-trip.
type CommitPreview struct {
	PendingCount          int
	EligibleToCommit      int
	WillDefer             int
	BytesEstimate         int64
	RequiresDoubleConfirm bool
}

// CommitResult is what a finished (or refused) commit reports back.
type CommitResult struct {
	Success         bool
	Message         string
	SuccessCount    int
	FailureCount    int
	DeferredCount   int
	BytesFreed      int64
	PermissionError bool
	FailedAssetIDs  []string
}

// QuotaLedger is the slice of the quota service the orchestrator consumes.
type QuotaLedger interface {
	Load(ctx context.Context) *models.QuotaState
	RecordDeletions(ctx context.Context, count int) error
}

// CommitOrchestrator composes the pending store, commit log, quota ledger
// and deletion executor into the preview → confirm → execute → reconcile
// protocol. All three stores are mutated only here, and at most one
// Execute runs per process at a time.
type CommitOrchestrator struct {
	markers    repositories.PendingMarkerRepository
	commitLog  repositories.CommitLogRepository
	quota      QuotaLedger
	executor   *DeletionExecutor
	events     observability.Emitter
	staleAfter time.Duration
	now        func() time.Time

	mu sync.Mutex // re-entrancy guard around Execute
}

func NewCommitOrchestrator(
	markers repositories.PendingMarkerRepository,
	commitLog repositories.CommitLogRepository,
	quota QuotaLedger,
	executor *DeletionExecutor,
	events observability.Emitter,
	staleAfter time.Duration,
) *CommitOrchestrator {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &CommitOrchestrator{
		markers:    markers,
		commitLog:  commitLog,
		quota:      quota,
		executor:   executor,
		events:     events,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// BuildPreview reads the bin and the quota ledger and reports what a commit
// would do. Pure with respect to mutation. Safe to call while an Execute is
// in flight; the view may then be transiently stale.
func (o *CommitOrchestrator) BuildPreview(ctx context.Context) (*CommitPreview, error) {
	preview, err := o.derivePreview(ctx)
	if err != nil {
		return nil, err
	}
	o.events.Emit(observability.EventPreviewShown, map[string]any{
		"pending_count":           preview.PendingCount,
		"eligible_to_commit":      preview.EligibleToCommit,
		"will_defer":              preview.WillDefer,
		"bytes_estimate":          preview.BytesEstimate,
		"requires_double_confirm": preview.RequiresDoubleConfirm,
	})
	return preview, nil
}

func (o *CommitOrchestrator) derivePreview(ctx context.Context) (*CommitPreview, error) {
	var (
		count         int
		bytesEstimate int64
		countErr      error
		sumErr        error
		state         *models.QuotaState
		wg            sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		count, countErr = o.markers.Count(ctx)
		if countErr == nil {
			bytesEstimate, sumErr = o.markers.SumSizeBytes(ctx)
		}
	}()
	go func() {
		defer wg.Done()
		state = o.quota.Load(ctx)
	}()
	wg.Wait()

	if countErr != nil {
		return nil, fmt.Errorf("%w: count pending: %v", utils.ErrStoreUnavailable, countErr)
	}
	if sumErr != nil {
		return nil, fmt.Errorf("%w: sum pending size: %v", utils.ErrStoreUnavailable, sumErr)
	}

	eligible := count
	if !state.IsPro {
		if remaining := state.RemainingToday(); remaining < eligible {
			eligible = remaining
		}
	}

	return &CommitPreview{
		PendingCount:          count,
		EligibleToCommit:      eligible,
		WillDefer:             count - eligible,
		BytesEstimate:         bytesEstimate,
		RequiresDoubleConfirm: eligible >= doubleConfirmItemThreshold || bytesEstimate >= doubleConfirmByteThreshold,
	}, nil
}

// Execute re-derives eligibility, writes the commit log, drives the
// executor and reconciles all three stores from the outcome. It runs to
// completion or to a permission short-circuit — there is no mid-batch
// cancellation, and only one Execute may run at a time.
func (o *CommitOrchestrator) Execute(ctx context.Context) (*CommitResult, error) {
	if !o.mu.TryLock() {
		return nil, utils.ErrCommitInProgress
	}
	defer o.mu.Unlock()

	batchID := uuid.NewString()

	preview, err := o.derivePreview(ctx)
	if err != nil {
		o.emitError(batchID, "preview", err)
		return nil, err
	}

	if preview.EligibleToCommit == 0 {
		return &CommitResult{
			Success:       false,
			Message:       "no items",
			DeferredCount: preview.WillDefer,
		}, nil
	}

	// Most recently marked first: under a quota that forces deferral, the
	// oldest-marked items wait, not the user's freshest decisions.
	batch, err := o.markers.List(ctx, preview.EligibleToCommit, 0)
	if err != nil {
		err = fmt.Errorf("%w: list pending: %v", utils.ErrStoreUnavailable, err)
		o.emitError(batchID, "select_batch", err)
		return nil, err
	}

	ids := make([]string, 0, len(batch))
	for _, m := range batch {
		ids = append(ids, m.AssetID)
	}

	// The crash-safety invariant: the commit log must be durable before any
	// id reaches the media store. If this write fails, nothing proceeds.
	if err := o.commitLog.MarkCommitting(ctx, ids); err != nil {
		err = fmt.Errorf("%w: mark committing: %v", utils.ErrStoreUnavailable, err)
		o.emitError(batchID, "mark_committing", err)
		return nil, err
	}

	progress := make(chan ChunkProgress, 8)
	go func() {
		for p := range progress {
			utils.Logger.Debugf("Commit %s progress: chunk %d/%d, %d succeeded, %d failed",
				batchID, p.Chunk, p.Chunks, p.Succeeded, p.Failed)
		}
	}()

	outcome := o.executor.Execute(ctx, batch, progress)

	failedIDs := make([]string, 0, len(outcome.FailedIDs))
	for id := range outcome.FailedIDs {
		failedIDs = append(failedIDs, id)
	}
	sort.Strings(failedIDs)

	// Reconcile order matters: markers first, then the log. A commit-log
	// entry may only disappear once the marker is gone too.
	if err := o.markers.Remove(ctx, outcome.SucceededIDs); err != nil {
		// The COMMITTING entries stay put; the recovery sweep resolves them.
		err = fmt.Errorf("%w: remove committed markers: %v", utils.ErrStoreUnavailable, err)
		utils.Logger.WithError(err).WithField("asset_ids", outcome.SucceededIDs).
			Error("Failed to reconcile pending markers after commit (phase=reconcile_markers)")
		o.emitError(batchID, "reconcile_markers", err)
		return nil, err
	}
	if err := o.commitLog.Clear(ctx, outcome.SucceededIDs); err != nil {
		// Markers are gone; the stale entries get swept on next startup.
		utils.Logger.WithError(err).WithField("asset_ids", outcome.SucceededIDs).
			Error("Failed to clear commit-log entries (phase=clear_log)")
	}
	if err := o.commitLog.MarkFailed(ctx, failedIDs); err != nil {
		utils.Logger.WithError(err).WithField("asset_ids", failedIDs).
			Error("Failed to mark commit-log entries failed (phase=mark_failed)")
	}

	if err := o.quota.RecordDeletions(ctx, outcome.SuccessCount); err != nil {
		utils.Logger.WithError(err).Warn("Failed to record deletions against quota")
	}

	result := &CommitResult{
		Success:         outcome.FailureCount == 0,
		Message:         commitMessage(outcome),
		SuccessCount:    outcome.SuccessCount,
		FailureCount:    outcome.FailureCount,
		DeferredCount:   preview.WillDefer,
		BytesFreed:      outcome.TotalBytesFreed,
		PermissionError: outcome.PermissionError,
		FailedAssetIDs:  failedIDs,
	}

	o.events.Emit(observability.EventCompleted, map[string]any{
		"batch_id":         batchID,
		"success_count":    outcome.SuccessCount,
		"failure_count":    outcome.FailureCount,
		"bytes_freed":      outcome.TotalBytesFreed,
		"deferred_count":   preview.WillDefer,
		"permission_error": outcome.PermissionError,
	})
	if outcome.PermissionError {
		o.events.Emit(observability.EventBlockedPermissions, map[string]any{
			"batch_id":      batchID,
			"failure_count": outcome.FailureCount,
		})
	}

	return result, nil
}

// RecoverStuckCommits drops COMMITTING entries older than the staleness
// threshold. They belong to a process that died mid-batch; the assets are
// in an unknown state, so the safe policy is to clear the in-flight marker
// and let the next library scan re-derive truth from the media store
// rather than retry a possibly-completed deletion. Must run once at
// startup, before the first preview.
func (o *CommitOrchestrator) RecoverStuckCommits(ctx context.Context) error {
	cutoff := o.now().Add(-o.staleAfter)
	ids, err := o.commitLog.ListStaleCommitting(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("%w: list stale commits: %v", utils.ErrStoreUnavailable, err)
	}
	if len(ids) == 0 {
		return nil
	}
	if err := o.commitLog.Clear(ctx, ids); err != nil {
		return fmt.Errorf("%w: clear stale commits: %v", utils.ErrStoreUnavailable, err)
	}
	utils.Logger.Warnf("Recovered %d stuck commit-log entries older than %s; the affected assets remain pending",
		len(ids), o.staleAfter)
	return nil
}

// PurgeResolvedFailures drops FAILED entries older than olderThan. They are
// fully resolved bookkeeping; keeping them around forever just grows the log.
func (o *CommitOrchestrator) PurgeResolvedFailures(ctx context.Context, olderThan time.Duration) error {
	n, err := o.commitLog.PurgeFailedBefore(ctx, o.now().Add(-olderThan))
	if err != nil {
		return fmt.Errorf("%w: purge failed entries: %v", utils.ErrStoreUnavailable, err)
	}
	if n > 0 {
		utils.Logger.Infof("Purged %d resolved failed commit-log entries", n)
	}
	return nil
}

func (o *CommitOrchestrator) emitError(batchID, phase string, err error) {
	o.events.Emit(observability.EventError, map[string]any{
		"batch_id": batchID,
		"phase":    phase,
		"error":    err.Error(),
	})
}

func commitMessage(out *DeletionOutcome) string {
	switch {
	case out.PermissionError:
		return "media store access was revoked; grant full access and try again"
	case out.FailureCount == 0:
		return fmt.Sprintf("deleted %d items", out.SuccessCount)
	default:
		return fmt.Sprintf("deleted %d items, %d failed", out.SuccessCount, out.FailureCount)
	}
}
