package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/services"
)

// handleIdentityWebhook receives user lifecycle events from the
// identity provider. The signature covers the raw body, so the body is
// read before decoding. Malformed payloads are client errors; only
// store failures surface as 500 so the provider retries them.
func (s *Server) handleIdentityWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "unreadable body")
		return
	}

	if err := s.webhook.Verify(body, r.Header.Get(auth.SignatureHeader)); err != nil {
		slog.WarnContext(r.Context(), "webhook signature rejected")
		respondErrorMessage(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var event services.IdentityEvent
	if err := json.Unmarshal(body, &event); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "malformed payload")
		return
	}

	if err := s.provisioning.Handle(r.Context(), event); err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"received": event.Type})
}
