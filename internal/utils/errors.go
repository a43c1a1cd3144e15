package utils

import "errors"

// Domain-level errors used by the service layer to provide
// fine-grained failure reasons.
var (
	// ErrPermissionDenied means the media store revoked (or never granted)
	// full access. A batch stops as soon as this is known.
	ErrPermissionDenied = errors.New("permission_denied")

	// ErrStoreUnavailable covers any read/write failure against the
	// pending-marker, commit-log or quota tables.
	ErrStoreUnavailable = errors.New("store_unavailable")

	// ErrExternalDeleteFailed is the per-chunk classification for a delete
	// call that errored or a verification read that found assets still
	// present. It never aborts the batch.
	ErrExternalDeleteFailed = errors.New("external_delete_failed")

	// ErrCommitInProgress is returned when a second Execute is attempted
	// while one is already running.
	ErrCommitInProgress = errors.New("commit_in_progress")

	ErrEntitlementFailure = errors.New("entitlement_failure")
	ErrInvalidAssetID     = errors.New("invalid_asset_id")
)
