package controllers

import (
	"net/http"

	"github.com/snapsweep/media-service/internal/dtos"
	"github.com/snapsweep/media-service/internal/models"
	"github.com/snapsweep/media-service/internal/services"
	"github.com/snapsweep/media-service/internal/utils"
)

type QuotaController struct {
	quota *services.QuotaLedgerService
}

func NewQuotaController(quota *services.QuotaLedgerService) *QuotaController {
	return &QuotaController{quota: quota}
}

// GET /media/v1/quota
func (c *QuotaController) GetQuota(w http.ResponseWriter, r *http.Request) {
	q := c.quota.Load(r.Context())

	resp := dtos.QuotaResponse{
		DeletesToday: q.DeletesToday,
		DailyLimit:   models.DailyDeleteLimit,
		IsPro:        q.IsPro,
	}
	if !q.IsPro {
		resp.RemainingToday = utils.Ptr(q.RemainingToday())
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// POST /media/v1/quota/unlock
func (c *QuotaController) UnlockPro(w http.ResponseWriter, r *http.Request) {
	isPro, err := c.quota.UnlockPro(r.Context())
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadGateway, utils.ErrCodeExternalServiceFailure,
			"Could not verify the purchase, please try again", nil, err,
		)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.UnlockProResponse{IsPro: isPro})
}
