package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"eukexpress-backend/internal/models"
	"eukexpress-backend/internal/services"
	"eukexpress-backend/internal/storage"
	"eukexpress-backend/pkg/utils"
)

const trackingNotFound = "Tracking number not found"

// writeServiceError maps service errors onto HTTP responses. Anything
// unrecognised is logged and reported as a 500 without details.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var transition *models.InvalidTransitionError
	var validation *models.ValidationError

	switch {
	case errors.As(err, &transition):
		allowed := make([]string, len(transition.Allowed))
		for i, s := range transition.Allowed {
			allowed[i] = string(s)
		}
		utils.ErrorWithDetails(w, http.StatusConflict, err.Error(), map[string]interface{}{
			"from":    transition.From,
			"to":      transition.To,
			"allowed": allowed,
		})
	case errors.As(err, &validation):
		utils.ErrorWithDetails(w, http.StatusBadRequest, "Validation failed", validation.Fields)
	case errors.Is(err, models.ErrValidation):
		utils.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		utils.Error(w, http.StatusNotFound, "Not found")
	case errors.Is(err, models.ErrInvalidAction):
		utils.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrInvalidCredentials):
		utils.Error(w, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, models.ErrTOTPRequired):
		utils.JSON(w, http.StatusUnauthorized, map[string]interface{}{
			"error":         "Two-factor code required",
			"totp_required": true,
		})
	case errors.Is(err, models.ErrRateLimited):
		utils.Error(w, http.StatusTooManyRequests, "Too many login attempts, try again later")
	case errors.Is(err, services.ErrPaymentsDisabled):
		utils.Error(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, services.ErrNoTOTPSecret),
		errors.Is(err, services.ErrInvalidTOTPCode),
		errors.Is(err, services.ErrTOTPNotEnabled):
		utils.Error(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("request failed", zap.Error(err))
		utils.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

// writePublicError hides every lookup failure behind the same 404.
func writePublicError(w http.ResponseWriter, logger *zap.Logger, err error) {
	if errors.Is(err, models.ErrNotFound) || errors.Is(err, storage.ErrNotFound) {
		utils.Error(w, http.StatusNotFound, trackingNotFound)
		return
	}
	writeServiceError(w, logger, err)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}
