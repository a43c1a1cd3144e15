package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/snapsweep/media-service/internal/dtos"
	"github.com/snapsweep/media-service/internal/services"
	"github.com/snapsweep/media-service/internal/utils"
)

var validate = validator.New()

// BinController exposes the pending bin: marking, listing and restoring.
type BinController struct {
	svc *services.MarkerService
}

func NewBinController(svc *services.MarkerService) *BinController {
	return &BinController{svc: svc}
}

// POST /media/v1/bin/markers
func (c *BinController) MarkAsset(w http.ResponseWriter, r *http.Request) {
	var req dtos.MarkAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON payload", nil, err,
		)
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "asset_id required; size_bytes must be >= 0", nil, err,
		)
		return
	}

	if err := c.svc.Mark(r.Context(), req.AssetID, req.SizeBytes); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.MessageResponse{Message: "marked"})
}

// GET /media/v1/bin/markers?limit=&offset=
func (c *BinController) ListBin(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	markers, err := c.svc.List(r.Context(), limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	count, totalBytes, err := c.svc.Stats(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := dtos.ListBinResponse{
		Markers:    make([]dtos.MarkerItem, 0, len(markers)),
		Count:      count,
		TotalBytes: totalBytes,
	}
	for _, m := range markers {
		resp.Markers = append(resp.Markers, dtos.MarkerItem{
			AssetID:   m.AssetID,
			SizeBytes: m.SizeBytes,
			MarkedAt:  m.MarkedAt,
		})
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// POST /media/v1/bin/restore
func (c *BinController) RestoreAssets(w http.ResponseWriter, r *http.Request) {
	var req dtos.RestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON payload", nil, err,
		)
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "asset_ids must be a non-empty list", nil, err,
		)
		return
	}

	if err := c.svc.Restore(r.Context(), req.AssetIDs); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.MessageResponse{Message: "restored"})
}

// POST /media/v1/bin/restore_all
func (c *BinController) RestoreAll(w http.ResponseWriter, r *http.Request) {
	if err := c.svc.RestoreAll(r.Context()); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.MessageResponse{Message: "restored all"})
}

// respondServiceError maps service-layer sentinels to HTTP codes.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, utils.ErrInvalidAssetID):
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid asset id", nil, err,
		)
	case errors.Is(err, utils.ErrStoreUnavailable):
		utils.RespondErrorWithCode(
			w, http.StatusServiceUnavailable, utils.ErrCodeStoreUnavailable, "Local store unavailable", nil, err,
		)
	case errors.Is(err, utils.ErrCommitInProgress):
		utils.RespondErrorWithCode(
			w, http.StatusConflict, utils.ErrCodeCommitInProgress, "A commit is already running", nil, err,
		)
	default:
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal, "An unexpected error occurred", nil, err,
		)
	}
}
