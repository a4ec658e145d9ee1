package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
)

// envelope is the uniform response shape: {"success":true,"data":...}
// on success, {"success":false,"error":"..."} on failure.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respondData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func respondErrorMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: false, Error: message}); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// respondError maps domain errors onto HTTP statuses. Anything outside
// the known taxonomy is a store failure: logged with detail, reported
// with a generic message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrUnauthenticated):
		respondErrorMessage(w, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, core.ErrNotFound):
		respondErrorMessage(w, http.StatusNotFound, "record not found")
	case errors.Is(err, core.ErrInvalidInput),
		errors.Is(err, core.ErrInvalidFilter),
		errors.Is(err, core.ErrInvalidPayload):
		respondErrorMessage(w, http.StatusBadRequest, err.Error())
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path)
		respondErrorMessage(w, http.StatusInternalServerError, "internal error")
	}
}
