package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/snapsweep/media-service/internal/dtos"
	"github.com/snapsweep/media-service/internal/mediastore"
	"github.com/snapsweep/media-service/internal/models"
	"github.com/snapsweep/media-service/internal/observability"
	"github.com/snapsweep/media-service/internal/services"
	"github.com/stretchr/testify/require"
)

// Minimal in-memory fakes; just enough to drive the orchestrator from the
// HTTP layer.

type stubMarkerRepo struct {
	markers map[string]*models.PendingMarker
}

func newStubMarkerRepo() *stubMarkerRepo {
	return &stubMarkerRepo{markers: make(map[string]*models.PendingMarker)}
}

func (r *stubMarkerRepo) Mark(ctx context.Context, assetID string, sizeBytes *int64) error {
	if _, ok := r.markers[assetID]; !ok {
		r.markers[assetID] = &models.PendingMarker{AssetID: assetID, SizeBytes: sizeBytes, MarkedAt: time.Now()}
	}
	return nil
}

func (r *stubMarkerRepo) List(ctx context.Context, limit, offset int) ([]*models.PendingMarker, error) {
	all := make([]*models.PendingMarker, 0, len(r.markers))
	for _, m := range r.markers {
		all = append(all, m)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].AssetID < all[j].AssetID })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *stubMarkerRepo) Count(ctx context.Context) (int, error) { return len(r.markers), nil }

func (r *stubMarkerRepo) SumSizeBytes(ctx context.Context) (int64, error) {
	var sum int64
	for _, m := range r.markers {
		if m.SizeBytes != nil {
			sum += *m.SizeBytes
		}
	}
	return sum, nil
}

func (r *stubMarkerRepo) Remove(ctx context.Context, ids []string) error {
	for _, id := range ids {
		delete(r.markers, id)
	}
	return nil
}

func (r *stubMarkerRepo) RemoveAll(ctx context.Context) error {
	r.markers = make(map[string]*models.PendingMarker)
	return nil
}

type stubCommitLog struct {
	entries map[string]models.CommitStatusType
}

func newStubCommitLog() *stubCommitLog {
	return &stubCommitLog{entries: make(map[string]models.CommitStatusType)}
}

func (l *stubCommitLog) MarkCommitting(ctx context.Context, ids []string) error {
	for _, id := range ids {
		l.entries[id] = models.CommitStatusCommitting
	}
	return nil
}

func (l *stubCommitLog) MarkFailed(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if _, ok := l.entries[id]; ok {
			l.entries[id] = models.CommitStatusFailed
		}
	}
	return nil
}

func (l *stubCommitLog) Clear(ctx context.Context, ids []string) error {
	for _, id := range ids {
		delete(l.entries, id)
	}
	return nil
}

func (l *stubCommitLog) ListStaleCommitting(ctx context.Context, cutoff time.Time) ([]string, error) {
	return nil, nil
}

func (l *stubCommitLog) PurgeFailedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type stubLedger struct {
	state models.QuotaState
}

func (s *stubLedger) Load(ctx context.Context) *models.QuotaState { return &s.state }

func (s *stubLedger) RecordDeletions(ctx context.Context, n int) error {
	s.state.DeletesToday += n
	return nil
}

type commitFixture struct {
	controller *CommitController
	markers    *stubMarkerRepo
	store      *mediastore.MemoryStore
}

func newCommitFixture(t *testing.T, pro bool) *commitFixture {
	t.Helper()
	markers := newStubMarkerRepo()
	store := mediastore.NewMemoryStore()
	ledger := &stubLedger{state: models.QuotaState{IsPro: pro, LastDate: time.Now().UTC()}}
	events := observability.NewLogEmitter()
	orch := services.NewCommitOrchestrator(
		markers, newStubCommitLog(), ledger, services.NewDeletionExecutor(store), events, time.Hour,
	)
	return &commitFixture{
		controller: NewCommitController(orch, events),
		markers:    markers,
		store:      store,
	}
}

func (f *commitFixture) markAssets(t *testing.T, n int, sizeEach int64) {
	t.Helper()
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("asset-%03d", i)
		f.store.Put(id, sizeEach)
		size := sizeEach
		require.NoError(t, f.markers.Mark(context.Background(), id, &size))
	}
}

func postCommit(t *testing.T, c *CommitController, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/media/v1/commit", strings.NewReader(body))
	rr := httptest.NewRecorder()
	c.Commit(rr, req)
	return rr
}

func TestCommit_RequiresConfirmation(t *testing.T) {
	f := newCommitFixture(t, false)
	f.markAssets(t, 3, 1000)

	rr := postCommit(t, f.controller, `{"confirmed": false}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	// Nothing was deleted.
	require.Equal(t, 3, f.store.Len())
}

func TestCommit_LargeBatchNeedsDoubleConfirm(t *testing.T) {
	f := newCommitFixture(t, true)
	// One asset above the byte threshold is enough to trip the second step.
	f.markAssets(t, 1, int64(3)<<30)

	rr := postCommit(t, f.controller, `{"confirmed": true}`)
	require.Equal(t, http.StatusPreconditionFailed, rr.Code)

	var errResp struct {
		Code    string                     `json:"code"`
		Details dtos.CommitPreviewResponse `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errResp))
	require.Equal(t, "confirmation_required", errResp.Code)
	require.True(t, errResp.Details.RequiresDoubleConfirm)
	require.Equal(t, 1, f.store.Len())

	rr = postCommit(t, f.controller, `{"confirmed": true, "double_confirmed": true}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 0, f.store.Len())
}

func TestCommit_HappyPath(t *testing.T) {
	f := newCommitFixture(t, false)
	f.markAssets(t, 5, 1000)

	rr := postCommit(t, f.controller, `{"confirmed": true}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp dtos.CommitResultResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, 5, resp.SuccessCount)
	require.Equal(t, 0, resp.FailureCount)
	require.Equal(t, int64(5000), resp.BytesFreed)
	require.Equal(t, 0, f.store.Len())
	require.Empty(t, f.markers.markers)
}

func TestGetPreview(t *testing.T) {
	f := newCommitFixture(t, false)
	f.markAssets(t, 4, 2500)

	req := httptest.NewRequest(http.MethodGet, "/media/v1/commit/preview", nil)
	rr := httptest.NewRecorder()
	f.controller.GetPreview(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp dtos.CommitPreviewResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, 4, resp.PendingCount)
	require.Equal(t, 4, resp.EligibleToCommit)
	require.Equal(t, 0, resp.WillDefer)
	require.Equal(t, int64(10000), resp.BytesEstimate)
	require.False(t, resp.RequiresDoubleConfirm)
}
