package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/Ussyboy7/npa-emr-flow/pkg/errors"
)

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps application error types to HTTP status codes:
// missing resources are 404, flow conflicts are 409, bad requests are 400.
func respondWithAppError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	switch appErr.Type {
	case apperrors.ErrorTypeEncounterNotFound, apperrors.ErrorTypeRoomNotFound:
		respondWithError(w, http.StatusNotFound, appErr.Message)
	case apperrors.ErrorTypeRoomUnavailable,
		apperrors.ErrorTypeRoomBusy,
		apperrors.ErrorTypeNotInQueue,
		apperrors.ErrorTypeInvalidTransition:
		respondWithError(w, http.StatusConflict, appErr.Message)
	case apperrors.ErrorTypeValidation:
		respondWithError(w, http.StatusBadRequest, appErr.Message)
	default:
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
