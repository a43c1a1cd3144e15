package mediastore

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store used in development mode and in tests.
// It can simulate the platform behaviors the executor must tolerate:
// permission revocation mid-session and "success" responses that leave
// assets in place.
type MemoryStore struct {
	mu         sync.Mutex
	assets     map[string]int64 // id -> size
	permission PermissionStatus
	stickyIDs  map[string]bool // ids that survive DeleteByIDs despite success
}

// NewMemoryStore creates an empty store with full access.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		assets:     make(map[string]int64),
		permission: PermissionGranted,
		stickyIDs:  make(map[string]bool),
	}
}

// Put adds (or replaces) an asset.
func (m *MemoryStore) Put(id string, size int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[id] = size
}

// SetPermission changes the access grant returned by Permission.
func (m *MemoryStore) SetPermission(p PermissionStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.permission = p
}

// MakeSticky marks an asset so DeleteByIDs reports success without
// removing it, mimicking a limited-access grant.
func (m *MemoryStore) MakeSticky(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stickyIDs[id] = true
}

// Len returns the number of assets currently in the store.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.assets)
}

func (m *MemoryStore) Permission(ctx context.Context) (PermissionStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.permission, nil
}

func (m *MemoryStore) DeleteByIDs(ctx context.Context, ids []string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.permission == PermissionDenied {
		return false, ErrNoAccess
	}
	for _, id := range ids {
		if m.stickyIDs[id] || m.permission == PermissionLimited {
			continue
		}
		delete(m.assets, id)
	}
	// Optimistic: reports success even when sticky or limited-grant assets
	// were silently skipped.
	return true, nil
}

func (m *MemoryStore) ListExisting(ctx context.Context, ids []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var existing []string
	for _, id := range ids {
		if _, ok := m.assets[id]; ok {
			existing = append(existing, id)
		}
	}
	return existing, nil
}
