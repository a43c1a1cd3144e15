package utils

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

const (
	ErrCodeInvalidPayload        = "invalid_payload"
	ErrCodeValidation            = "validation_error"
	ErrCodeUnauthorized          = "unauthorized"
	ErrCodeTokenExpired          = "token_expired"
	ErrCodeInternal              = "internal_server_error"
	ErrCodeNotFound              = "not_found"
	ErrCodeConflict              = "conflict"
	ErrCodeCommitInProgress      = "commit_in_progress"
	ErrCodeConfirmationRequired  = "confirmation_required"
	ErrCodeStoreUnavailable      = "store_unavailable"
	ErrCodePermissionDenied      = "permission_denied"
	ErrCodeExternalServiceFailure = "external_service_failure"
)

// ErrorResponse carries a machine-readable code plus a human message.
// The optional `Details` field carries additional info for the client.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// RespondErrorWithCode builds a JSON error response with a standard
// code and message. The optional `details` is included if non-nil.
// Any devErrs are logged server-side only, never sent to the client.
func RespondErrorWithCode(
	w http.ResponseWriter,
	status int,
	errorCode string,
	publicMessage string,
	details any,
	devErrs ...error,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errBody := ErrorResponse{
		Code:    errorCode,
		Message: publicMessage,
	}
	if details != nil {
		errBody.Details = details
	}

	for _, devErr := range devErrs {
		if devErr != nil {
			Logger.WithFields(logrus.Fields{
				"status": status,
				"code":   errorCode,
			}).WithError(devErr).Debug("request failed")
		}
	}

	if err := json.NewEncoder(w).Encode(errBody); err != nil {
		Logger.WithError(err).Error("Failed to encode error response")
	}
}

// RespondWithJSON writes `payload` as the JSON body with the given status.
func RespondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		Logger.WithError(err).Error("Failed to encode JSON response")
	}
}
