package constants

import "time"

const (
	// Stuck-commit recovery and quota revalidation both run hourly; the
	// failed-entry purge runs once a day after midnight UTC.
	StuckCommitSweepCronSpec  = "5 * * * *"
	QuotaRevalidationCronSpec = "30 * * * *"
	FailedPurgeCronSpec       = "15 0 * * *"

	StuckCommitSweepTimeout = 2 * time.Minute
	FailedPurgeTimeout      = 2 * time.Minute

	// FAILED commit-log entries are kept around for audit this long before
	// the daily purge drops them.
	FailedEntryRetention = 7 * 24 * time.Hour
)
