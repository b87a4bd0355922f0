package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
	"github.com/tair/central-kitchen/pkg/logger"
)

// Response is the envelope of every API response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Code    domain.Code `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// statusOf maps a domain error kind to its HTTP status.
func statusOf(err *domain.Error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrBusinessRule):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondOK(w http.ResponseWriter, status int, code domain.Code, message string, data interface{}) {
	respondJSON(w, status, Response{
		Success: true,
		Message: message,
		Code:    code,
		Data:    data,
	})
}

// respondError writes err in the envelope. data, when non-nil, is returned
// alongside the failure.
func respondError(w http.ResponseWriter, r *http.Request, err error, data interface{}) {
	de := domain.AsError(err)
	status := statusOf(de)
	message := de.Message
	if status == http.StatusInternalServerError {
		logger.Error(r.Context()).
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
		message = "internal server error"
	}
	respondJSON(w, status, Response{
		Success: false,
		Code:    de.Code,
		Data:    data,
		Error:   message,
	})
}

func decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.Validation(domain.CodeInvalidFormat, "invalid request body")
	}
	return nil
}
