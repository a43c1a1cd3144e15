package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/snapsweep/media-service/internal/dtos"
	"github.com/snapsweep/media-service/internal/observability"
	"github.com/snapsweep/media-service/internal/services"
	"github.com/snapsweep/media-service/internal/utils"
)

// CommitController is the UI-collaborator side of the commit protocol: it
// shows previews and enforces the confirmation handshake before handing
// control to the orchestrator.
type CommitController struct {
	orch   *services.CommitOrchestrator
	events observability.Emitter
}

func NewCommitController(orch *services.CommitOrchestrator, events observability.Emitter) *CommitController {
	return &CommitController{orch: orch, events: events}
}

// GET /media/v1/commit/preview
func (c *CommitController) GetPreview(w http.ResponseWriter, r *http.Request) {
	preview, err := c.orch.BuildPreview(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.CommitPreviewResponse{
		PendingCount:          preview.PendingCount,
		EligibleToCommit:      preview.EligibleToCommit,
		WillDefer:             preview.WillDefer,
		BytesEstimate:         preview.BytesEstimate,
		RequiresDoubleConfirm: preview.RequiresDoubleConfirm,
	})
}

// POST /media/v1/commit
//
// The preview shown to the user is never trusted: eligibility is re-derived
// here (and once more inside Execute). The request must carry `confirmed`,
// plus `double_confirmed` when the fresh preview demands the second step.
func (c *CommitController) Commit(w http.ResponseWriter, r *http.Request) {
	var req dtos.CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON payload", nil, err,
		)
		return
	}
	if err := validate.Struct(req); err != nil || !req.Confirmed {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeConfirmationRequired, "Commit must be confirmed", nil, err,
		)
		return
	}

	preview, err := c.orch.BuildPreview(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if preview.RequiresDoubleConfirm && !req.DoubleConfirmed {
		utils.RespondErrorWithCode(
			w, http.StatusPreconditionFailed, utils.ErrCodeConfirmationRequired,
			"This batch is large or destructive; a second confirmation is required",
			dtos.CommitPreviewResponse{
				PendingCount:          preview.PendingCount,
				EligibleToCommit:      preview.EligibleToCommit,
				WillDefer:             preview.WillDefer,
				BytesEstimate:         preview.BytesEstimate,
				RequiresDoubleConfirm: true,
			},
		)
		return
	}

	c.events.Emit(observability.EventConfirmed, map[string]any{
		"eligible_to_commit": preview.EligibleToCommit,
		"double_confirmed":   req.DoubleConfirmed,
	})

	result, err := c.orch.Execute(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.CommitResultResponse{
		Success:         result.Success,
		Message:         result.Message,
		SuccessCount:    result.SuccessCount,
		FailureCount:    result.FailureCount,
		DeferredCount:   result.DeferredCount,
		BytesFreed:      result.BytesFreed,
		PermissionError: result.PermissionError,
		FailedAssetIDs:  result.FailedAssetIDs,
	})
}
