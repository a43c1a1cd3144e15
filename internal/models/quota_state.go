package models

import "time"

// DailyDeleteLimit is the free-tier allowance of committed deletions per
// UTC day. Pro accounts have no limit.
const DailyDeleteLimit = 50

// QuotaState tracks the rolling daily deletion allowance plus the paid-tier
// flag. DeletesToday is only meaningful for LastDate == today (UTC); the
// ledger zeroes it on day rollover.
type QuotaState struct {
	DeletesToday   int        `json:"deletes_today"`
	LastDate       time.Time  `json:"last_date"` // date only, UTC
	IsPro          bool       `json:"is_pro"`
	LastValidation *time.Time `json:"last_validation,omitempty"`
}

// RemainingToday returns how many more deletions the free tier allows
// today. Callers must check IsPro first; for pro accounts the allowance
// is unlimited and this value is meaningless.
func (q *QuotaState) RemainingToday() int {
	remaining := DailyDeleteLimit - q.DeletesToday
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SameUTCDay reports whether LastDate falls on the same UTC day as t.
func (q *QuotaState) SameUTCDay(t time.Time) bool {
	y1, m1, d1 := q.LastDate.UTC().Date()
	y2, m2, d2 := t.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
