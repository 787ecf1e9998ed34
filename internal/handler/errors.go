package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hanlin-tw/mileage-report/backend/internal/domain"
)

// ErrorDetail is the machine-readable error payload.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the JSON body returned on every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

// writeError maps a service error to an HTTP status and JSON body.
// Sentinel mapping:
//
//	ErrValidation    → 422 validation_error
//	ErrPlaceNotFound → 404 place_not_found
//	ErrQuotaExceeded → 429 quota_exceeded
//	ErrRouteUnavailable, ErrMapUnavailable → 502 upstream_error
//	ErrAssembly      → 500 assembly_error
//
// Anything unmapped is a 500 internal_error with a generic message so
// internals never leak to clients.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody("validation_error", err))
	case errors.Is(err, domain.ErrPlaceNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("place_not_found", err))
	case errors.Is(err, domain.ErrQuotaExceeded):
		writeJSON(w, http.StatusTooManyRequests, errorBody("quota_exceeded", err))
	case errors.Is(err, domain.ErrRouteUnavailable), errors.Is(err, domain.ErrMapUnavailable):
		writeJSON(w, http.StatusBadGateway, errorBody("upstream_error", err))
	case errors.Is(err, domain.ErrAssembly):
		writeJSON(w, http.StatusInternalServerError, errorBody("assembly_error", err))
	default:
		slog.Error("unhandled error", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{Code: "internal_error", Message: "internal server error"},
		})
	}
}

// requestError rejects a request before it reaches the service layer,
// e.g. a missing or malformed body.
func requestError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Error: ErrorDetail{Code: "validation_error", Message: message},
	})
}

func errorBody(code string, err error) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: code, Message: err.Error()}}
}
