package http

import (
	"net/http"
)

// handleListSummaries returns the stored summaries of the caller, newest
// period first. Nothing is computed.
func (s *Server) handleListSummaries(w http.ResponseWriter, r *http.Request) {
	items, err := s.summaries.List(r.Context(), userFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newList(items, 0, 0))
}

// handleGetSummary reads through: a missing period is computed and stored.
func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	p, err := pathPeriod(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sum, err := s.summaries.Get(r.Context(), userFrom(r.Context()), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sum)
}

func (s *Server) handleRecalculateSummary(w http.ResponseWriter, r *http.Request) {
	p, err := pathPeriod(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sum, err := s.summaries.Recalculate(r.Context(), userFrom(r.Context()), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sum)
}

func (s *Server) handleYearOverview(w http.ResponseWriter, r *http.Request) {
	year, err := atoi("year", r.PathValue("year"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	overview, err := s.summaries.Year(r.Context(), userFrom(r.Context()), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, overview)
}
