package services

import (
	"context"
	"errors"

	"github.com/snapsweep/media-service/internal/mediastore"
	"github.com/snapsweep/media-service/internal/models"
	"github.com/snapsweep/media-service/internal/utils"
)

// deleteChunkSize bounds the blast radius of a single external delete call.
const deleteChunkSize = 50

// ChunkProgress is sent on the progress channel at every chunk boundary so
// the host stays responsive during large batches.
type ChunkProgress struct {
	Chunk     int `json:"chunk"`
	Chunks    int `json:"chunks"`
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// DeletionOutcome aggregates the verified per-id results of one batch.
type DeletionOutcome struct {
	SuccessCount    int
	FailureCount    int
	FailedIDs       map[string]struct{}
	SucceededIDs    []string
	TotalBytesFreed int64
	PermissionError bool
}

// DeletionExecutor drives one batch of deletions against the media store.
// It is stateless between calls: everything lives in the input batch and
// the accumulating outcome.
//
// The store's delete result is never trusted. Every chunk is followed by a
// verification read, and only assets the read confirms gone count as
// successes (and contribute bytes). A permission failure anywhere aborts
// the remaining chunks; everything not yet verified gone is reported failed.
type DeletionExecutor struct {
	store     mediastore.Store
	chunkSize int
}

func NewDeletionExecutor(store mediastore.Store) *DeletionExecutor {
	return &DeletionExecutor{store: store, chunkSize: deleteChunkSize}
}

// Execute processes the batch chunk by chunk, sequentially. If progress is
// non-nil it receives a ChunkProgress at each chunk boundary and is closed
// when the batch settles. Execute itself never fails; all failure modes are
// folded into the outcome.
func (e *DeletionExecutor) Execute(ctx context.Context, batch []*models.PendingMarker, progress chan<- ChunkProgress) *DeletionOutcome {
	if progress != nil {
		defer close(progress)
	}

	out := &DeletionOutcome{FailedIDs: make(map[string]struct{})}
	if len(batch) == 0 {
		return out
	}

	perm, err := e.store.Permission(ctx)
	if err != nil || !perm.CanDelete() {
		if err != nil {
			utils.Logger.WithError(err).Error("Media store permission probe failed; aborting batch")
		} else {
			utils.Logger.Warnf("Media store access is %s; aborting batch before any delete", perm)
		}
		e.failAll(out, batch)
		out.PermissionError = true
		return out
	}

	chunks := chunkMarkers(batch, e.chunkSize)
	for i, chunk := range chunks {
		permissionLost := e.runChunk(ctx, chunk, out)
		if permissionLost {
			for _, rest := range chunks[i+1:] {
				e.failAll(out, rest)
			}
			out.PermissionError = true
			e.yield(progress, i+1, len(chunks), out)
			break
		}
		e.yield(progress, i+1, len(chunks), out)
	}
	return out
}

// runChunk attempts one chunk and folds the verified result into out. It
// returns true when the media store's permission is known to be revoked,
// which short-circuits the batch.
func (e *DeletionExecutor) runChunk(ctx context.Context, chunk []*models.PendingMarker, out *DeletionOutcome) bool {
	// Permission can be revoked mid-session; re-check before every chunk.
	perm, err := e.store.Permission(ctx)
	if err != nil || !perm.CanDelete() {
		e.failAll(out, chunk)
		return true
	}

	ids := make([]string, 0, len(chunk))
	for _, m := range chunk {
		ids = append(ids, m.AssetID)
	}

	claimed, err := e.store.DeleteByIDs(ctx, ids)
	if err != nil {
		if errors.Is(err, mediastore.ErrNoAccess) {
			e.failAll(out, chunk)
			return true
		}
		// Transient/unknown: the chunk counts as fully failed, batch continues.
		utils.Logger.WithError(err).Warnf("Delete call failed for a chunk of %d assets: %v", len(chunk), utils.ErrExternalDeleteFailed)
		e.failAll(out, chunk)
		return false
	}
	if !claimed {
		utils.Logger.Warn("Media store reported delete failure; verifying anyway")
	}

	// The verification read is mandatory: the store can report success
	// while leaving files intact. Its result is the authoritative split.
	remaining, err := e.store.ListExisting(ctx, ids)
	if err != nil {
		if errors.Is(err, mediastore.ErrNoAccess) {
			e.failAll(out, chunk)
			return true
		}
		utils.Logger.WithError(err).Warnf("Post-delete verification failed for a chunk of %d assets; counting chunk as failed", len(chunk))
		e.failAll(out, chunk)
		return false
	}

	still := make(map[string]struct{}, len(remaining))
	for _, id := range remaining {
		still[id] = struct{}{}
	}
	for _, m := range chunk {
		if _, present := still[m.AssetID]; present {
			out.FailureCount++
			out.FailedIDs[m.AssetID] = struct{}{}
		} else {
			out.SuccessCount++
			out.SucceededIDs = append(out.SucceededIDs, m.AssetID)
			out.TotalBytesFreed += utils.Val(m.SizeBytes)
		}
	}
	return false
}

func (e *DeletionExecutor) failAll(out *DeletionOutcome, markers []*models.PendingMarker) {
	for _, m := range markers {
		out.FailureCount++
		out.FailedIDs[m.AssetID] = struct{}{}
	}
}

// yield hands chunk-boundary progress to the host without ever blocking
// the batch on a slow consumer.
func (e *DeletionExecutor) yield(progress chan<- ChunkProgress, chunk, chunks int, out *DeletionOutcome) {
	if progress == nil {
		return
	}
	select {
	case progress <- ChunkProgress{
		Chunk:     chunk,
		Chunks:    chunks,
		Attempted: out.SuccessCount + out.FailureCount,
		Succeeded: out.SuccessCount,
		Failed:    out.FailureCount,
	}:
	default:
	}
}

func chunkMarkers(batch []*models.PendingMarker, size int) [][]*models.PendingMarker {
	var chunks [][]*models.PendingMarker
	for start := 0; start < len(batch); start += size {
		end := start + size
		if end > len(batch) {
			end = len(batch)
		}
		chunks = append(chunks, batch[start:end])
	}
	return chunks
}
