package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/snapsweep/media-service/internal/mediastore"
	"github.com/snapsweep/media-service/internal/models"
	"github.com/snapsweep/media-service/internal/utils"
	"github.com/stretchr/testify/require"
)

func makeBatch(n int, sizeEach int64) []*models.PendingMarker {
	batch := make([]*models.PendingMarker, 0, n)
	for i := 0; i < n; i++ {
		batch = append(batch, &models.PendingMarker{
			AssetID:   fmt.Sprintf("asset-%03d", i),
			SizeBytes: utils.Ptr(sizeEach),
		})
	}
	return batch
}

func TestExecuteEmptyBatch(t *testing.T) {
	store := &scriptedStore{}
	out := NewDeletionExecutor(store).Execute(context.Background(), nil, nil)

	require.Zero(t, out.SuccessCount)
	require.Zero(t, out.FailureCount)
	require.False(t, out.PermissionError)
	require.Zero(t, store.deleteCalls)
}

func TestPreflightPermissionDeniedFailsWholeBatch(t *testing.T) {
	store := &scriptedStore{
		permFn: func(int) (mediastore.PermissionStatus, error) {
			return mediastore.PermissionDenied, nil
		},
	}
	batch := makeBatch(10, 100)

	out := NewDeletionExecutor(store).Execute(context.Background(), batch, nil)

	require.True(t, out.PermissionError)
	require.Equal(t, 10, out.FailureCount)
	require.Zero(t, out.SuccessCount)
	require.Zero(t, store.deleteCalls, "no chunk may be attempted without permission")
}

func TestLimitedAccessIsInsufficientForDeletion(t *testing.T) {
	store := &scriptedStore{
		permFn: func(int) (mediastore.PermissionStatus, error) {
			return mediastore.PermissionLimited, nil
		},
	}
	out := NewDeletionExecutor(store).Execute(context.Background(), makeBatch(3, 1), nil)

	require.True(t, out.PermissionError)
	require.Equal(t, 3, out.FailureCount)
	require.Zero(t, store.deleteCalls)
}

// 120 items = chunks of 50/50/20. Chunk 2's delete call loses permission:
// chunk 1's 50 succeed, chunk 2's 50 and chunk 3's never-attempted 20 fail.
func TestPermissionShortCircuitMidBatch(t *testing.T) {
	deleted := make(map[string]bool)
	store := &scriptedStore{
		deleteFn: func(call int, ids []string) (bool, error) {
			if call >= 1 {
				return false, mediastore.ErrNoAccess
			}
			for _, id := range ids {
				deleted[id] = true
			}
			return true, nil
		},
		listFn: func(ids []string) ([]string, error) {
			var still []string
			for _, id := range ids {
				if !deleted[id] {
					still = append(still, id)
				}
			}
			return still, nil
		},
	}
	batch := makeBatch(120, 10)

	out := NewDeletionExecutor(store).Execute(context.Background(), batch, nil)

	require.True(t, out.PermissionError)
	require.Equal(t, 50, out.SuccessCount)
	require.Equal(t, 70, out.FailureCount)
	require.Equal(t, 2, store.deleteCalls, "chunk 3 must never be attempted")

	// chunk 3's ids (indexes 100..119) are reported failed
	for i := 100; i < 120; i++ {
		id := fmt.Sprintf("asset-%03d", i)
		require.Contains(t, out.FailedIDs, id)
	}
}

func TestVerificationCatchesOptimisticSuccess(t *testing.T) {
	store := mediastore.NewMemoryStore()
	batch := makeBatch(60, 1000)
	for _, m := range batch {
		store.Put(m.AssetID, *m.SizeBytes)
	}
	// the store will claim success for these but keep them
	store.MakeSticky("asset-003")
	store.MakeSticky("asset-017")
	store.MakeSticky("asset-059")

	out := NewDeletionExecutor(store).Execute(context.Background(), batch, nil)

	require.False(t, out.PermissionError)
	require.Equal(t, 57, out.SuccessCount)
	require.Equal(t, 3, out.FailureCount)
	require.Contains(t, out.FailedIDs, "asset-003")
	require.Contains(t, out.FailedIDs, "asset-017")
	require.Contains(t, out.FailedIDs, "asset-059")
	// bytes only for verified removals
	require.Equal(t, int64(57*1000), out.TotalBytesFreed)
}

func TestTransientErrorFailsChunkAndContinues(t *testing.T) {
	deleted := make(map[string]bool)
	store := &scriptedStore{
		deleteFn: func(call int, ids []string) (bool, error) {
			if call == 0 {
				return false, errors.New("timeout talking to media store")
			}
			for _, id := range ids {
				deleted[id] = true
			}
			return true, nil
		},
		listFn: func(ids []string) ([]string, error) {
			var still []string
			for _, id := range ids {
				if !deleted[id] {
					still = append(still, id)
				}
			}
			return still, nil
		},
	}
	batch := makeBatch(75, 10) // chunks of 50/25

	out := NewDeletionExecutor(store).Execute(context.Background(), batch, nil)

	require.False(t, out.PermissionError)
	require.Equal(t, 50, out.FailureCount, "the chunk that errored counts fully failed")
	require.Equal(t, 25, out.SuccessCount)
	require.Equal(t, 2, store.deleteCalls)
}

func TestVerificationFailureCountsChunkFailed(t *testing.T) {
	store := &scriptedStore{
		listFn: func(ids []string) ([]string, error) {
			return nil, errors.New("listing unavailable")
		},
	}
	out := NewDeletionExecutor(store).Execute(context.Background(), makeBatch(5, 1), nil)

	// delete "succeeded" but could not be verified, so nothing may be
	// claimed as removed
	require.Equal(t, 5, out.FailureCount)
	require.Zero(t, out.SuccessCount)
	require.False(t, out.PermissionError)
}

func TestProgressIsSentAtChunkBoundaries(t *testing.T) {
	store := mediastore.NewMemoryStore()
	batch := makeBatch(120, 1)
	for _, m := range batch {
		store.Put(m.AssetID, 1)
	}

	progress := make(chan ChunkProgress, 16)
	out := NewDeletionExecutor(store).Execute(context.Background(), batch, progress)

	var updates []ChunkProgress
	for p := range progress {
		updates = append(updates, p)
	}
	require.Len(t, updates, 3)
	require.Equal(t, 3, updates[2].Chunks)
	require.Equal(t, 120, updates[2].Attempted)
	require.Equal(t, out.SuccessCount, updates[2].Succeeded)
}
