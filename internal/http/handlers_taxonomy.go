package http

import (
	"net/http"

	"fintrack/internal/core"
)

// handleTaxonomy serves the category tree and income source list that
// feed client pickers. Public: it contains no user data.
func (s *Server) handleTaxonomy(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, struct {
		Categories    []core.Category `json:"categories"`
		IncomeSources []string        `json:"incomeSources"`
	}{
		Categories:    core.Categories,
		IncomeSources: core.IncomeSources,
	})
}
