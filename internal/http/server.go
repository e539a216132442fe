package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	applog "fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	"fintrack/internal/summary"
)

// HeaderUserID names the caller; it is set by the gateway in front of the API.
const HeaderUserID = "X-User-ID"

type contextKey string

const userIDKey contextKey = "user_id"

// Pinger reports whether the record store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options carries the collaborators of the API server.
type Options struct {
	Ledger    *services.LedgerService
	Summaries *summary.Service
	Store     Pinger
	Metrics   *metrics.Metrics
	Logger    *applog.Logger

	// RateLimitPerMinute bounds write requests per client IP.
	RateLimitPerMinute int
	// Location reads calendar dates without a zone; nil means time.Local.
	Location *time.Location
}

type Server struct {
	http.Server

	ledger    *services.LedgerService
	summaries *summary.Service
	store     Pinger
	metrics   *metrics.Metrics
	validate  *validator.Validate
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	access    *applog.StructuredLogger
	location  *time.Location

	shutdownOnce sync.Once
}

func NewServer(addr string, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	s := &Server{
		ledger:    opts.Ledger,
		summaries: opts.Summaries,
		store:     opts.Store,
		metrics:   opts.Metrics,
		validate:  newValidator(),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:  security.NewDetector(),
		access:    applog.NewStructuredLogger(logger),
		location:  loc,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	s.api(mux, "GET /api/summaries", s.handleListSummaries)
	s.api(mux, "GET /api/summaries/{year}", s.handleYearOverview)
	s.api(mux, "GET /api/summaries/{year}/{month}", s.handleGetSummary)
	s.api(mux, "POST /api/summaries/{year}/{month}/recalculate", s.handleRecalculateSummary)

	s.api(mux, "GET /api/incomes", s.handleListIncomes)
	s.api(mux, "POST /api/incomes", s.handleCreateIncome)
	s.api(mux, "DELETE /api/incomes/{id}", s.handleDeleteIncome)

	s.api(mux, "GET /api/expenses", s.handleListExpenses)
	s.api(mux, "POST /api/expenses", s.handleCreateExpense)
	s.api(mux, "DELETE /api/expenses/{id}", s.handleDeleteExpense)

	s.api(mux, "GET /api/expense-categories", s.handleListExpenseCategories)
	s.api(mux, "POST /api/expense-categories", s.handleCreateExpenseCategory)
	s.api(mux, "PUT /api/expense-categories/{id}", s.handleUpdateExpenseCategory)
	s.api(mux, "DELETE /api/expense-categories/{id}", s.handleDeleteExpenseCategory)

	s.api(mux, "GET /api/employees", s.handleListEmployees)
	s.api(mux, "POST /api/employees", s.handleCreateEmployee)
	s.api(mux, "GET /api/employees/{id}", s.handleGetEmployee)
	s.api(mux, "PUT /api/employees/{id}", s.handleUpdateEmployee)
	s.api(mux, "DELETE /api/employees/{id}", s.handleDeactivateEmployee)
	s.api(mux, "GET /api/employees/{id}/transactions", s.handleListEmployeeTransactions)
	s.api(mux, "POST /api/employees/{id}/transactions", s.handleCreateEmployeeTransaction)
	s.api(mux, "DELETE /api/employee-transactions/{id}", s.handleDeleteEmployeeTransaction)

	s.api(mux, "GET /api/customers", s.handleListCustomers)
	s.api(mux, "POST /api/customers", s.handleCreateCustomer)
	s.api(mux, "GET /api/customers/overdue", s.handleOverdueCustomers)
	s.api(mux, "GET /api/customers/{id}", s.handleGetCustomer)
	s.api(mux, "PUT /api/customers/{id}", s.handleUpdateCustomer)
	s.api(mux, "DELETE /api/customers/{id}", s.handleDeleteCustomer)
	s.api(mux, "POST /api/customers/{id}/pay", s.handlePayCustomer)
	s.api(mux, "POST /api/customers/{id}/unpay", s.handleUnpayCustomer)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(s.logRequest, s.observeRequest)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, handleRateLimited)(handler)
	handler = s.detector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// api registers an endpoint that requires the caller's user ID.
func (s *Server) api(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, requireUser(h))
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if userID == "" {
			writeJSON(w, r, http.StatusUnauthorized, ErrorResponse{Error: "missing " + HeaderUserID + " header"})
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userFrom returns the caller stored by requireUser.
func userFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

func (s *Server) logRequest(r *http.Request, status int, d time.Duration) {
	ctx := r.Context()
	s.access.LogHTTPEnd(ctx, r, status, d.Milliseconds(),
		s.detector.ExtractClientIP(r),
		trace.GetRequestID(ctx),
		strings.TrimSpace(r.Header.Get(HeaderUserID)))
}

func (s *Server) observeRequest(r *http.Request, status int, d time.Duration) {
	s.metrics.ObserveHTTP(r.Method, status, d)
}

func handleRateLimited(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded, retry later"})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			slog.WarnContext(r.Context(), "Readiness check failed", "error", err)
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
