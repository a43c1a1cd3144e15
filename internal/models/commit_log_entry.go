package models

import "time"

// CommitStatusType defines the possible states of an in-flight deletion.
type CommitStatusType string

const (
	CommitStatusCommitting CommitStatusType = "COMMITTING"
	CommitStatusFailed     CommitStatusType = "FAILED"
)

// CommitLogEntry is the write-ahead record for a single asset handed to the
// media store for deletion. An entry is written, and durably persisted,
// before the asset id is passed to the external delete call. Absence of an
// entry means "fully resolved", never "never attempted" — entries are only
// cleared after the pending marker has been reconciled too.
type CommitLogEntry struct {
	AssetID   string           `json:"asset_id"`
	Status    CommitStatusType `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}
