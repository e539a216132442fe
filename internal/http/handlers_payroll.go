package http

import (
	"fmt"
	"net/http"
	"strconv"

	"fintrack/internal/core"
)

type expenseCategoryRequest struct {
	Category    string      `json:"category" validate:"required"`
	Amount      *core.Money `json:"amount" validate:"required"`
	Month       int         `json:"month" validate:"required,min=1,max=12"`
	Year        int         `json:"year" validate:"required"`
	Description string      `json:"description"`
}

func (req expenseCategoryRequest) toDomain() core.ExpenseCategory {
	return core.ExpenseCategory{
		Category:    req.Category,
		Amount:      *req.Amount,
		Month:       req.Month,
		Year:        req.Year,
		Description: req.Description,
	}
}

type employeeRequest struct {
	Name        string      `json:"name" validate:"required"`
	Salary      *core.Money `json:"salary" validate:"required"`
	JobTitle    string      `json:"jobTitle"`
	PhoneNumber string      `json:"phoneNumber"`
	DateJoined  *string     `json:"dateJoined"`
	// IsActive is read on update only; absent keeps the current flag.
	IsActive *bool `json:"isActive"`
}

type employeeTransactionRequest struct {
	Type        string      `json:"type" validate:"required,oneof=BONUS DEDUCTION"`
	Amount      *core.Money `json:"amount" validate:"required"`
	Month       int         `json:"month" validate:"required,min=1,max=12"`
	Year        int         `json:"year" validate:"required"`
	Description string      `json:"description"`
}

func (s *Server) handleListExpenseCategories(w http.ResponseWriter, r *http.Request) {
	p, err := queryPeriod(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := s.ledger.ListExpenseCategories(r.Context(), userFrom(r.Context()), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newList(items, 0, 0))
}

func (s *Server) handleCreateExpenseCategory(w http.ResponseWriter, r *http.Request) {
	var req expenseCategoryRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.ledger.CreateExpenseCategory(r.Context(), userFrom(r.Context()), req.toDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, c)
}

func (s *Server) handleUpdateExpenseCategory(w http.ResponseWriter, r *http.Request) {
	var req expenseCategoryRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.ledger.UpdateExpenseCategory(r.Context(), userFrom(r.Context()), r.PathValue("id"), req.toDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, c)
}

func (s *Server) handleDeleteExpenseCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteExpenseCategory(r.Context(), userFrom(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if v := r.URL.Query().Get("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: active must be a boolean", core.ErrValidation))
			return
		}
		activeOnly = b
	}
	items, err := s.ledger.ListEmployees(r.Context(), userFrom(r.Context()), activeOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newList(items, 0, 0))
}

func (s *Server) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	joined, err := parseOptionalDate(req.DateJoined, s.location)
	if err != nil {
		writeError(w, r, err)
		return
	}
	e := core.Employee{
		Name:        req.Name,
		Salary:      *req.Salary,
		JobTitle:    req.JobTitle,
		PhoneNumber: req.PhoneNumber,
	}
	if joined != nil {
		e.DateJoined = *joined
	}
	created, err := s.ledger.CreateEmployee(r.Context(), userFrom(r.Context()), e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	e, err := s.ledger.GetEmployee(r.Context(), userFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, e)
}

func (s *Server) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, id := userFrom(ctx), r.PathValue("id")

	var req employeeRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	joined, err := parseOptionalDate(req.DateJoined, s.location)
	if err != nil {
		writeError(w, r, err)
		return
	}
	current, err := s.ledger.GetEmployee(ctx, userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	upd := core.Employee{
		Name:        req.Name,
		Salary:      *req.Salary,
		JobTitle:    req.JobTitle,
		PhoneNumber: req.PhoneNumber,
		IsActive:    current.IsActive,
	}
	if req.IsActive != nil {
		upd.IsActive = *req.IsActive
	}
	if joined != nil {
		upd.DateJoined = *joined
	}
	e, err := s.ledger.UpdateEmployee(ctx, userID, id, upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, e)
}

// handleDeactivateEmployee soft-deletes; the record stays listable.
func (s *Server) handleDeactivateEmployee(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeactivateEmployee(r.Context(), userFrom(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}

func (s *Server) handleListEmployeeTransactions(w http.ResponseWriter, r *http.Request) {
	p, err := queryPeriod(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := s.ledger.ListEmployeeTransactions(r.Context(), userFrom(r.Context()), r.PathValue("id"), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newList(items, 0, 0))
}

func (s *Server) handleCreateEmployeeTransaction(w http.ResponseWriter, r *http.Request) {
	var req employeeTransactionRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.ledger.CreateEmployeeTransaction(r.Context(), userFrom(r.Context()), r.PathValue("id"), core.EmployeeTransaction{
		Type:        core.TransactionType(req.Type),
		Amount:      *req.Amount,
		Month:       req.Month,
		Year:        req.Year,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, t)
}

func (s *Server) handleDeleteEmployeeTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteEmployeeTransaction(r.Context(), userFrom(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}
