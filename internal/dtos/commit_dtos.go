package dtos

type CommitPreviewResponse struct {
	PendingCount          int   `json:"pending_count"`
	EligibleToCommit      int   `json:"eligible_to_commit"`
	WillDefer             int   `json:"will_defer"`
	BytesEstimate         int64 `json:"bytes_estimate"`
	RequiresDoubleConfirm bool  `json:"requires_double_confirm"`
}

// CommitRequest is the confirmation handshake. `confirmed` must always be
// true; `double_confirmed` must additionally be true when the preview
// reported requires_double_confirm.
type CommitRequest struct {
	Confirmed       bool `json:"confirmed" validate:"required"`
	DoubleConfirmed bool `json:"double_confirmed"`
}

type CommitResultResponse struct {
	Success         bool     `json:"success"`
	Message         string   `json:"message"`
	SuccessCount    int      `json:"success_count"`
	FailureCount    int      `json:"failure_count"`
	DeferredCount   int      `json:"deferred_count"`
	BytesFreed      int64    `json:"bytes_freed"`
	PermissionError bool     `json:"permission_error"`
	FailedAssetIDs  []string `json:"failed_asset_ids,omitempty"`
}
