// Package response provides utilities for sending consistent HTTP responses.
// It includes helpers for JSON responses and standardized error responses.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ndewijer/invest-tracker/internal/apperrors"
	"github.com/ndewijer/invest-tracker/internal/validation"
)

// ErrorResponse represents a structured error response returned by the API.
// The Details field is optional and can contain additional context about the error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// RespondJSON sends a JSON response with the given status code.
// If data is nil, only the status code is sent (useful for 204 No Content).
// Logs encoding errors but does not fail the response.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Error().Err(err).Msg("failed to encode JSON response")
		}
	}
}

// RespondError sends a structured error response with the given status code.
// The message should be a user-friendly error description.
// The details parameter can be an error string, additional context, or nil.
//
// Example:
//
//	response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
//	response.RespondError(w, http.StatusNotFound, "resource not found", "")
func RespondError(w http.ResponseWriter, status int, message string, details any) {
	RespondJSON(w, status, ErrorResponse{
		Error:   message,
		Details: details,
	})
}

// RespondServiceError maps a service error to its status code and sends it.
// Field validation errors are sent with their field map as details.
func RespondServiceError(w http.ResponseWriter, message string, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		RespondError(w, http.StatusBadRequest, message, verr.Fields)
		return
	}
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg(message)
	}
	RespondError(w, status, message, err.Error())
}

// StatusFor returns the HTTP status for a service error:
//   - 404 for a missing account
//   - 400 for invalid ids, ranges and currencies
//   - 422 for malformed or empty ledgers
//   - 503 when a provider is unavailable
//   - 500 otherwise
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidUUID),
		errors.Is(err, apperrors.ErrEmptyID),
		errors.Is(err, apperrors.ErrInvalidDateRange),
		errors.Is(err, apperrors.ErrUnsupportedCurrency):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrMalformedLedgerEntry),
		errors.Is(err, apperrors.ErrEmptyLedger):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrProviderUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
