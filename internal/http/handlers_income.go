package http

import (
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

// incomeResponse is the wire shape of one income record.
type incomeResponse struct {
	ID     int64     `json:"id"`
	Source string    `json:"source"`
	Amount float64   `json:"amount"`
	Date   core.Date `json:"date"`
}

func toIncomeResponse(i core.Income) incomeResponse {
	return incomeResponse{
		ID:     i.ID,
		Source: i.Source,
		Amount: i.Amount.Float(),
		Date:   i.Date,
	}
}

func (s *Server) handleListIncome(w http.ResponseWriter, r *http.Request) {
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

	incomes, err := s.records.ListIncome(r.Context(), owner, rng)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]incomeResponse, len(incomes))
	for i, record := range incomes {
		out[i] = toIncomeResponse(record)
	}
	respondData(w, http.StatusOK, out)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
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
	income, err := payload.toIncome(owner, 0)
	if err != nil {
		respondError(w, r, err)
		return
	}

	created, err := s.records.CreateIncome(r.Context(), income)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, toIncomeResponse(created))
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
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
	income, err := payload.toIncome(owner, id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.records.UpdateIncome(r.Context(), income); err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toIncomeResponse(income))
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
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

	if err := s.records.DeleteIncome(r.Context(), owner, id); err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]int64{"id": id})
}
