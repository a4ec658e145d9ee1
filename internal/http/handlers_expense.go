package http

import (
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

// expenseResponse is the wire shape of one expense record.
type expenseResponse struct {
	ID          int64     `json:"id"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory"`
	Amount      float64   `json:"amount"`
	Date        core.Date `json:"date"`
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		Category:    e.Category,
		Subcategory: e.Subcategory,
		Amount:      e.Amount.Float(),
		Date:        e.Date,
	}
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	owner, err := auth.OwnerFromContext(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	rng, err := rangeFilter(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	expenses, err := s.records.ListExpenses(r.Context(), owner, rng)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		out[i] = toExpenseResponse(e)
	}
	respondData(w, http.StatusOK, out)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	owner, err := auth.OwnerFromContext(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	payload, err := decodePayload(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	expense, err := payload.toExpense(owner, 0)
	if err != nil {
		respondError(w, r, err)
		return
	}

	created, err := s.records.CreateExpense(r.Context(), expense)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, toExpenseResponse(created))
}

// handleUpdateExpense replaces the whole record; there are no partial
// updates.
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	owner, err := auth.OwnerFromContext(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	payload, err := decodePayload(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	expense, err := payload.toExpense(owner, id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.records.UpdateExpense(r.Context(), expense); err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toExpenseResponse(expense))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	owner, err := auth.OwnerFromContext(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.records.DeleteExpense(r.Context(), owner, id); err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]int64{"id": id})
}
