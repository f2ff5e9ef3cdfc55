// Package httputil provides HTTP utility functions for request and response handling.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/secrets/internal/errors"
)

// MakeJSONResponse writes a JSON response with the given status code and data
func MakeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// ErrorResponse is the wire shape of every error body this service returns:
// a single human-readable message under "error", nothing else.
type ErrorResponse struct {
	Error string `json:"error"`
}

// statusAndMessage maps a domain error to the HTTP status code and
// client-facing message it should produce. Errors not matching any domain
// sentinel map to 500 with a generic message — internal details are never
// exposed to the client.
func statusAndMessage(err error) (int, string) {
	switch {
	case apperrors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case apperrors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, err.Error()
	case apperrors.Is(err, apperrors.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case apperrors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, "authentication is required"
	case apperrors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, "you don't have permission to access this resource"
	case apperrors.Is(err, apperrors.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, err.Error()
	case apperrors.Is(err, apperrors.ErrLocked):
		return http.StatusConflict, err.Error()
	case apperrors.Is(err, apperrors.ErrCryptoError),
		apperrors.Is(err, apperrors.ErrKmsError),
		apperrors.Is(err, apperrors.ErrDatabaseError):
		return http.StatusInternalServerError, "an internal error occurred"
	default:
		return http.StatusInternalServerError, "an internal error occurred"
	}
}

// HandleError maps domain errors to HTTP status codes and writes an appropriate response.
// It logs the error with structured logging and returns a user-friendly error message.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	statusCode, message := statusAndMessage(err)

	if logger != nil {
		logger.Error("request failed", slog.Int("status_code", statusCode), slog.Any("error", err))
	}

	MakeJSONResponse(w, statusCode, ErrorResponse{Error: message})
}

// HandleValidationError writes a 400 Bad Request response for validation errors
func HandleValidationError(w http.ResponseWriter, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("validation failed", slog.Any("error", err))
	}

	MakeJSONResponse(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
}

// HandleErrorGin is the Gin-native counterpart to HandleError, used by every
// handler registered on the gin.Engine in internal/http.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	statusCode, message := statusAndMessage(err)

	if logger != nil {
		logger.Error("request failed",
			slog.Int("status_code", statusCode),
			slog.String("path", c.FullPath()),
			slog.Any("error", err),
		)
	}

	c.AbortWithStatusJSON(statusCode, ErrorResponse{Error: message})
}

// HandleValidationErrorGin is the Gin-native counterpart to HandleValidationError.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("validation failed", slog.String("path", c.FullPath()), slog.Any("error", err))
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
}
