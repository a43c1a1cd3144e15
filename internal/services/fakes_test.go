package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/snapsweep/media-service/internal/mediastore"
	"github.com/snapsweep/media-service/internal/models"
)

// ---------------------------------------------------------------------------
// In-memory repository fakes, substituted through the same constructors the
// real wiring uses.
// ---------------------------------------------------------------------------

type memMarkerRepo struct {
	mu      sync.Mutex
	markers map[string]*models.PendingMarker
	failAll bool
	err     error
}

func newMemMarkerRepo() *memMarkerRepo {
	return &memMarkerRepo{markers: make(map[string]*models.PendingMarker)}
}

func (r *memMarkerRepo) Mark(ctx context.Context, assetID string, sizeBytes *int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, exists := r.markers[assetID]; exists {
		return nil
	}
	r.markers[assetID] = &models.PendingMarker{AssetID: assetID, SizeBytes: sizeBytes, MarkedAt: time.Now()}
	return nil
}

func (r *memMarkerRepo) put(assetID string, size int64, markedAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markers[assetID] = &models.PendingMarker{AssetID: assetID, SizeBytes: &size, MarkedAt: markedAt}
}

func (r *memMarkerRepo) List(ctx context.Context, limit, offset int) ([]*models.PendingMarker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	all := make([]*models.PendingMarker, 0, len(r.markers))
	for _, m := range r.markers {
		all = append(all, m)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].MarkedAt.Equal(all[j].MarkedAt) {
			return all[i].MarkedAt.After(all[j].MarkedAt)
		}
		return all[i].AssetID < all[j].AssetID
	})
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *memMarkerRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	return len(r.markers), nil
}

func (r *memMarkerRepo) SumSizeBytes(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	var sum int64
	for _, m := range r.markers {
		if m.SizeBytes != nil {
			sum += *m.SizeBytes
		}
	}
	return sum, nil
}

func (r *memMarkerRepo) Remove(ctx context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return r.err
	}
	for _, id := range ids {
		delete(r.markers, id)
	}
	return nil
}

func (r *memMarkerRepo) RemoveAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markers = make(map[string]*models.PendingMarker)
	return nil
}

type memCommitLog struct {
	mu                sync.Mutex
	entries           map[string]*models.CommitLogEntry
	markCommittingErr error
}

func newMemCommitLog() *memCommitLog {
	return &memCommitLog{entries: make(map[string]*models.CommitLogEntry)}
}

func (l *memCommitLog) MarkCommitting(ctx context.Context, ids []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.markCommittingErr != nil {
		return l.markCommittingErr
	}
	for _, id := range ids {
		l.entries[id] = &models.CommitLogEntry{
			AssetID:   id,
			Status:    models.CommitStatusCommitting,
			CreatedAt: time.Now(),
		}
	}
	return nil
}

func (l *memCommitLog) MarkFailed(ctx context.Context, ids []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range ids {
		if e, ok := l.entries[id]; ok {
			e.Status = models.CommitStatusFailed
		}
	}
	return nil
}

func (l *memCommitLog) Clear(ctx context.Context, ids []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range ids {
		delete(l.entries, id)
	}
	return nil
}

func (l *memCommitLog) ListStaleCommitting(ctx context.Context, cutoff time.Time) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var ids []string
	for id, e := range l.entries {
		if e.Status == models.CommitStatusCommitting && e.CreatedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (l *memCommitLog) PurgeFailedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int64
	for id, e := range l.entries {
		if e.Status == models.CommitStatusFailed && e.CreatedAt.Before(cutoff) {
			delete(l.entries, id)
			n++
		}
	}
	return n, nil
}

func (l *memCommitLog) get(id string) *models.CommitLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entries[id]
}

func (l *memCommitLog) putEntry(id string, status models.CommitStatusType, createdAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[id] = &models.CommitLogEntry{AssetID: id, Status: status, CreatedAt: createdAt}
}

func (l *memCommitLog) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

type memQuotaRepo struct {
	mu     sync.Mutex
	state  *models.QuotaState
	getErr error
	putErr error
}

func (r *memQuotaRepo) Get(ctx context.Context) (*models.QuotaState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	if r.state == nil {
		return nil, pgx.ErrNoRows
	}
	cp := *r.state
	return &cp, nil
}

func (r *memQuotaRepo) Upsert(ctx context.Context, state *models.QuotaState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.putErr != nil {
		return r.putErr
	}
	cp := *state
	r.state = &cp
	return nil
}

// ---------------------------------------------------------------------------
// Collaborator fakes
// ---------------------------------------------------------------------------

type fakeEntitlement struct {
	valid       bool
	validateErr error
	purchaseOK  bool
	purchaseErr error

	validateCalls int
	purchaseCalls int
}

func (f *fakeEntitlement) Validate(ctx context.Context) (bool, error) {
	f.validateCalls++
	return f.valid, f.validateErr
}

func (f *fakeEntitlement) Purchase(ctx context.Context) (bool, error) {
	f.purchaseCalls++
	return f.purchaseOK, f.purchaseErr
}

// fakeLedger implements QuotaLedger for orchestrator tests and records
// every RecordDeletions call.
type fakeLedger struct {
	state    models.QuotaState
	recorded []int
}

func (f *fakeLedger) Load(ctx context.Context) *models.QuotaState {
	cp := f.state
	return &cp
}

func (f *fakeLedger) RecordDeletions(ctx context.Context, count int) error {
	f.recorded = append(f.recorded, count)
	return nil
}

type capturedEvent struct {
	name   string
	fields map[string]any
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (f *fakeEmitter) Emit(event string, fields map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, capturedEvent{name: event, fields: fields})
}

func (f *fakeEmitter) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.name)
	}
	return out
}

// scriptedStore lets a test control the media store call by call.
type scriptedStore struct {
	mu sync.Mutex

	permFn   func(call int) (mediastore.PermissionStatus, error)
	deleteFn func(call int, ids []string) (bool, error)
	listFn   func(ids []string) ([]string, error)

	permCalls   int
	deleteCalls int
	listCalls   int
}

func (s *scriptedStore) Permission(ctx context.Context) (mediastore.PermissionStatus, error) {
	s.mu.Lock()
	call := s.permCalls
	s.permCalls++
	fn := s.permFn
	s.mu.Unlock()
	if fn == nil {
		return mediastore.PermissionGranted, nil
	}
	return fn(call)
}

func (s *scriptedStore) DeleteByIDs(ctx context.Context, ids []string) (bool, error) {
	s.mu.Lock()
	call := s.deleteCalls
	s.deleteCalls++
	fn := s.deleteFn
	s.mu.Unlock()
	if fn == nil {
		return true, nil
	}
	return fn(call, ids)
}

func (s *scriptedStore) ListExisting(ctx context.Context, ids []string) ([]string, error) {
	s.mu.Lock()
	s.listCalls++
	fn := s.listFn
	s.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(ids)
}
