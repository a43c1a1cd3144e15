package mediastore

import (
	"context"
	"fmt"

	"github.com/snapsweep/media-service/internal/utils"
)

// PermissionStatus enumerates the platform access grant for the media store.
type PermissionStatus int

const (
	PermissionGranted PermissionStatus = iota
	// PermissionLimited is a partial-access grant. It is insufficient for
	// deletion: stores with limited grants are known to report delete
	// success while leaving files intact.
	PermissionLimited
	PermissionDenied
)

func (p PermissionStatus) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionLimited:
		return "limited"
	case PermissionDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// CanDelete reports whether this grant allows durable deletions.
func (p PermissionStatus) CanDelete() bool {
	return p == PermissionGranted
}

// Store is the external media-store deletion capability. Its delete result
// is optimistic: a true return means the store accepted the request, not
// that the assets are gone. Callers must follow up with ListExisting to get
// the authoritative per-id outcome.
type Store interface {
	// Permission returns the current access grant. It can change mid-session.
	Permission(ctx context.Context) (PermissionStatus, error)

	// DeleteByIDs asks the store to remove the given assets. The boolean is
	// the store's own (optimistic) claim of success.
	DeleteByIDs(ctx context.Context, ids []string) (bool, error)

	// ListExisting returns the subset of ids that still exist in the store.
	ListExisting(ctx context.Context, ids []string) ([]string, error)
}

// ErrNoAccess is the adapter-level cause reported when the store rejects a
// call for lack of access. It wraps the service-level permission sentinel
// so errors.Is(err, utils.ErrPermissionDenied) holds across layers.
var ErrNoAccess = fmt.Errorf("%w: media store access denied", utils.ErrPermissionDenied)
