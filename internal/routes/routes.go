package routes

const (
	Health        = "/health"
	BinMarkers    = "/media/v1/bin/markers"
	BinRestore    = "/media/v1/bin/restore"
	BinRestoreAll = "/media/v1/bin/restore_all"
	CommitPreview = "/media/v1/commit/preview"
	Commit        = "/media/v1/commit"
	Quota         = "/media/v1/quota"
	QuotaUnlock   = "/media/v1/quota/unlock"
)
