package models

import "time"

// PendingMarker represents a user's "delete this" decision that has not
// been applied yet. There is exactly one marker per asset id; re-marking
// an already-marked asset is a no-op.
type PendingMarker struct {
	AssetID   string    `json:"asset_id"`
	SizeBytes *int64    `json:"size_bytes,omitempty"`
	MarkedAt  time.Time `json:"marked_at"`
}
