package http

import (
	"net/http"

	"fintrack/internal/auth"
)

// handleDashboard returns the owner's aggregated summary, optionally
// narrowed to one month.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	owner, err := auth.OwnerFromContext(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	month, year, err := monthYearFilter(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	summary, err := s.records.Summary(r.Context(), owner, month, year)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, summary)
}
