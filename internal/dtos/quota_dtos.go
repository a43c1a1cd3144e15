package dtos

type QuotaResponse struct {
	DeletesToday int  `json:"deletes_today"`
	DailyLimit   int  `json:"daily_limit"`
	IsPro        bool `json:"is_pro"`
	// RemainingToday is omitted for pro accounts (unlimited).
	RemainingToday *int `json:"remaining_today,omitempty"`
}

type UnlockProResponse struct {
	IsPro bool `json:"is_pro"`
}
