package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
)

type customerRequest struct {
	Name            string      `json:"name" validate:"required"`
	BrandName       string      `json:"brandName"`
	PhoneNumber     string      `json:"phoneNumber"`
	MonthlyAmount   *core.Money `json:"monthlyAmount" validate:"required"`
	PaymentDeadline int         `json:"paymentDeadline" validate:"required,min=1,max=31"`
}

func (req customerRequest) toDomain() core.Customer {
	return core.Customer{
		Name:            req.Name,
		BrandName:       req.BrandName,
		PhoneNumber:     req.PhoneNumber,
		MonthlyAmount:   *req.MonthlyAmount,
		PaymentDeadline: req.PaymentDeadline,
	}
}

// paymentRequest names the period a payment settles. PaidAt is matched
// against UTC month boundaries, so calendar dates are read as UTC.
type paymentRequest struct {
	Month  int     `json:"month" validate:"required,min=1,max=12"`
	Year   int     `json:"year" validate:"required"`
	PaidAt *string `json:"paidAt"`
}

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	items, err := s.ledger.ListCustomers(r.Context(), userFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newList(items, 0, 0))
}

func (s *Server) handleOverdueCustomers(w http.ResponseWriter, r *http.Request) {
	items, err := s.ledger.OverdueCustomers(r.Context(), userFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newList(items, 0, 0))
}

func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.ledger.CreateCustomer(r.Context(), userFrom(r.Context()), req.toDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, c)
}

func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := s.ledger.GetCustomer(r.Context(), userFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, c)
}

func (s *Server) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.ledger.UpdateCustomer(r.Context(), userFrom(r.Context()), r.PathValue("id"), req.toDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, c)
}

func (s *Server) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteCustomer(r.Context(), userFrom(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}

func (s *Server) handlePayCustomer(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	paidAt, err := parseOptionalDate(req.PaidAt, time.UTC)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, err := s.ledger.PayCustomer(r.Context(), userFrom(r.Context()), r.PathValue("id"),
		core.Period{Month: req.Month, Year: req.Year}, paidAt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, in)
}

func (s *Server) handleUnpayCustomer(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	err := s.ledger.UnpayCustomer(r.Context(), userFrom(r.Context()), r.PathValue("id"),
		core.Period{Month: req.Month, Year: req.Year})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}
