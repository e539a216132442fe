package http

import (
	"net/http"

	"fintrack/internal/core"
)

type incomeRequest struct {
	Title       string      `json:"title" validate:"required"`
	Amount      *core.Money `json:"amount" validate:"required"`
	Category    string      `json:"category"`
	Date        string      `json:"date" validate:"required"`
	Description string      `json:"description"`
}

type expenseRequest struct {
	Title       string      `json:"title" validate:"required"`
	Amount      *core.Money `json:"amount" validate:"required"`
	Category    string      `json:"category" validate:"required"`
	Date        string      `json:"date" validate:"required"`
	Description string      `json:"description"`
}

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r.Context())
	f, page, err := parseListFilter(userID, r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := s.ledger.ListIncomes(r.Context(), userID, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newList(items, page.Page, page.Limit))
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDate(req.Date, s.location)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, err := s.ledger.CreateIncome(r.Context(), userFrom(r.Context()), core.Income{
		Title:       req.Title,
		Amount:      *req.Amount,
		Category:    req.Category,
		Date:        date,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, in)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteIncome(r.Context(), userFrom(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r.Context())
	f, page, err := parseListFilter(userID, r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := s.ledger.ListExpenses(r.Context(), userID, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newList(items, page.Page, page.Limit))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDate(req.Date, s.location)
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.ledger.CreateExpense(r.Context(), userFrom(r.Context()), core.Expense{
		Title:       req.Title,
		Amount:      *req.Amount,
		Category:    req.Category,
		Date:        date,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteExpense(r.Context(), userFrom(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}
