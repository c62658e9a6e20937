package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ekaya-inc/ekaya-oracle/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-oracle/pkg/logging"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// StatusFor maps a datasource error to an HTTP status and error code.
func StatusFor(err error) (int, string) {
	var (
		connErr    *apperrors.ConnectionError
		timeoutErr *apperrors.TimeoutError
		execErr    *apperrors.ExecutionError
	)
	switch {
	case errors.As(err, &connErr), errors.Is(err, apperrors.ErrPoolClosed):
		return http.StatusServiceUnavailable, "connection_error"
	case errors.As(err, &timeoutErr):
		return http.StatusGatewayTimeout, "timeout"
	case apperrors.IsUserError(err):
		return http.StatusBadRequest, "bad_request"
	case errors.As(err, &execErr):
		return http.StatusUnprocessableEntity, "execution_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// WriteAppError writes err as a JSON error response. Connection details in
// the message are masked.
func WriteAppError(w http.ResponseWriter, err error) error {
	status, code := StatusFor(err)
	return ErrorResponse(w, status, code, logging.SanitizeError(err))
}
