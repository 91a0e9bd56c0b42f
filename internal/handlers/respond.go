// Package handlers implements the JSON API endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"casepress/internal/apperr"
)

// errorResponse is the JSON body for all error replies.
type errorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// writeJSON serializes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

// writeError maps an application error to its HTTP status and writes the
// JSON error body. Unknown errors are logged and reported as 500 without
// leaking internals.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		slog.Error("unhandled error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Internal server error"})
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Kind {
	case apperr.KindValidation, apperr.KindConflict:
		status = http.StatusBadRequest
	case apperr.KindUnauthorized:
		status = http.StatusUnauthorized
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindInternal:
		slog.Error("internal error", "error", appErr.Unwrap())
		writeJSON(w, status, errorResponse{Message: "Internal server error"})
		return
	}

	writeJSON(w, status, errorResponse{Message: appErr.Message, Errors: appErr.Fields})
}
