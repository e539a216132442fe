package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/services"
	"fintrack/internal/storage/memory"
	"fintrack/internal/summary"
)

type testAPI struct {
	srv   *Server
	store *memory.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := memory.New()
	m := metrics.New()
	summaries := summary.NewService(summary.NewEngine(store), store, summary.WithMetrics(m))
	recalc := summary.NewRecalculator(summaries, nil, m)

	seq := 0
	ledger := services.NewLedgerService(store, recalc,
		services.WithClock(func() time.Time { return time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC) }),
		services.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
		services.WithResolver(core.NewResolver(time.UTC)),
	)

	srv := NewServer(":0", Options{
		Ledger:             ledger,
		Summaries:          summaries,
		Store:              store,
		Metrics:            m,
		Logger:             applog.New(applog.Config{Component: applog.ComponentHTTP, Output: io.Discard}),
		RateLimitPerMinute: 1000,
		Location:           time.UTC,
	})
	t.Cleanup(srv.limiter.Stop)
	return &testAPI{srv: srv, store: store}
}

func (a *testAPI) do(t *testing.T, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if user != "" {
		req.Header.Set(HeaderUserID, user)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	a := newTestAPI(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := a.do(t, http.MethodGet, path, "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s = %d", path, rec.Code)
		}
	}
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("database is locked") }

func TestReadyReportsStoreFailure(t *testing.T) {
	a := newTestAPI(t)
	a.srv.store = failingPinger{}

	rec := a.do(t, http.MethodGet, "/readyz", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("GET /readyz = %d, want 503", rec.Code)
	}
}

func TestMissingUserIsUnauthorized(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/summaries", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if got := rec.Header().Get("X-Request-ID"); got == "" {
		t.Fatal("expected a request ID on every response")
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected security headers, got %q", got)
	}
}

func TestIncomeUpdatesSummary(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/incomes", "u1",
		`{"title":"Invoice 12","amount":"1000.00","date":"2024-03-15"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create income = %d %s", rec.Code, rec.Body)
	}
	in := decode[core.Income](t, rec)
	if in.Category != core.DefaultIncomeCategory || in.Amount.Cents != 100000 {
		t.Fatalf("unexpected income %+v", in)
	}

	rec = a.do(t, http.MethodPost, "/api/expenses", "u1",
		`{"title":"Fuel","amount":250.5,"category":"Transportation","date":"2024-03-10"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create expense = %d %s", rec.Code, rec.Body)
	}

	rec = a.do(t, http.MethodGet, "/api/summaries/2024/3", "u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get summary = %d %s", rec.Code, rec.Body)
	}
	sum := decode[core.MonthlySummary](t, rec)
	if sum.TotalIncome.Cents != 100000 || sum.TotalExpenses.Cents != 25050 || sum.Profit.Cents != 74950 {
		t.Fatalf("unexpected totals %+v", sum.SummaryResult)
	}
	if got := sum.ExpenseBreakdown.RegularExpenses.Cents; got != 25050 {
		t.Fatalf("RegularExpenses = %d", got)
	}

	rec = a.do(t, http.MethodGet, "/api/summaries", "u1", "")
	list := decode[ListResponse[core.MonthlySummary]](t, rec)
	if len(list.Items) != 1 || list.Items[0].Period() != (core.Period{Month: 3, Year: 2024}) {
		t.Fatalf("unexpected summary list %+v", list.Items)
	}

	rec = a.do(t, http.MethodDelete, "/api/incomes/"+in.ID, "u1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete income = %d %s", rec.Code, rec.Body)
	}
	rec = a.do(t, http.MethodGet, "/api/summaries/2024/3", "u1", "")
	if sum := decode[core.MonthlySummary](t, rec); sum.TotalIncome.Cents != 0 || sum.Profit.Cents != -25050 {
		t.Fatalf("delete was not reflected: %+v", sum.SummaryResult)
	}
}

func TestValidationErrors(t *testing.T) {
	a := newTestAPI(t)

	tests := []struct {
		name, method, path, body string
		field                    string
	}{
		{"missing amount", http.MethodPost, "/api/incomes", `{"title":"x","date":"2024-03-01"}`, "amount"},
		{"negative amount", http.MethodPost, "/api/incomes", `{"title":"x","amount":-5,"date":"2024-03-01"}`, ""},
		{"bad date", http.MethodPost, "/api/incomes", `{"title":"x","amount":5,"date":"March"}`, ""},
		{"unknown field", http.MethodPost, "/api/expenses", `{"title":"x","amount":5,"category":"c","date":"2024-03-01","tip":1}`, ""},
		{"bad transaction type", http.MethodPost, "/api/employees/e1/transactions", `{"type":"GIFT","amount":5,"month":3,"year":2024}`, "type"},
		{"deadline out of range", http.MethodPost, "/api/customers", `{"name":"Acme","monthlyAmount":10,"paymentDeadline":40}`, "paymentDeadline"},
		{"month out of range", http.MethodGet, "/api/summaries/2024/13", "", ""},
		{"year before range", http.MethodGet, "/api/summaries/1999/1", "", ""},
		{"non numeric month", http.MethodGet, "/api/summaries/2024/march", "", ""},
		{"half a period filter", http.MethodGet, "/api/incomes?month=3", "", ""},
		{"bad page", http.MethodGet, "/api/incomes?page=0", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, tt.method, tt.path, "u1", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d %s, want 400", rec.Code, rec.Body)
			}
			if tt.field == "" {
				return
			}
			body := decode[ErrorResponse](t, rec)
			if _, ok := body.Fields[tt.field]; !ok {
				t.Fatalf("expected field %q in %+v", tt.field, body.Fields)
			}
		})
	}
}

func TestOwnershipAndNotFound(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/expense-categories", "u1",
		`{"category":"Rent","amount":800,"month":3,"year":2024}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create bucket = %d %s", rec.Code, rec.Body)
	}
	c := decode[core.ExpenseCategory](t, rec)

	if rec := a.do(t, http.MethodDelete, "/api/expense-categories/"+c.ID, "u2", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign delete = %d, want 403", rec.Code)
	}
	if rec := a.do(t, http.MethodDelete, "/api/expense-categories/missing", "u1", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing delete = %d, want 404", rec.Code)
	}

	rec = a.do(t, http.MethodPut, "/api/expense-categories/"+c.ID, "u1",
		`{"category":"Rent","amount":900,"month":4,"year":2024}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("move bucket = %d %s", rec.Code, rec.Body)
	}
	march := decode[core.MonthlySummary](t, a.do(t, http.MethodGet, "/api/summaries/2024/3", "u1", ""))
	april := decode[core.MonthlySummary](t, a.do(t, http.MethodGet, "/api/summaries/2024/4", "u1", ""))
	if march.TotalExpenses.Cents != 0 || april.TotalExpenses.Cents != 90000 {
		t.Fatalf("move not reflected: march %s april %s", march.TotalExpenses, april.TotalExpenses)
	}
}

func TestEmployeeLifecycle(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/employees", "u1", `{"name":"Ada","salary":2000,"jobTitle":"Installer"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create employee = %d %s", rec.Code, rec.Body)
	}
	emp := decode[core.Employee](t, rec)

	rec = a.do(t, http.MethodPost, "/api/employees/"+emp.ID+"/transactions", "u1",
		`{"type":"DEDUCTION","amount":150,"month":3,"year":2024}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction = %d %s", rec.Code, rec.Body)
	}
	sum := decode[core.MonthlySummary](t, a.do(t, http.MethodGet, "/api/summaries/2024/3", "u1", ""))
	if sum.TotalSalaries.Cents != 185000 {
		t.Fatalf("TotalSalaries = %s, want 1850.00", sum.TotalSalaries)
	}

	rec = a.do(t, http.MethodPut, "/api/employees/"+emp.ID, "u1", `{"name":"Ada","salary":2500}`)
	if updated := decode[core.Employee](t, rec); rec.Code != http.StatusOK || !updated.IsActive {
		t.Fatalf("update without isActive must keep the flag: %d %+v", rec.Code, updated)
	}

	if rec := a.do(t, http.MethodDelete, "/api/employees/"+emp.ID, "u1", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("deactivate = %d", rec.Code)
	}
	sum = decode[core.MonthlySummary](t, a.do(t, http.MethodGet, "/api/summaries/2024/3", "u1", ""))
	if sum.TotalSalaries.Cents != -15000 {
		t.Fatalf("deactivated salary must drop out, got %s", sum.TotalSalaries)
	}

	list := decode[ListResponse[core.Employee]](t, a.do(t, http.MethodGet, "/api/employees?active=true", "u1", ""))
	if len(list.Items) != 0 {
		t.Fatalf("active listing returned %+v", list.Items)
	}
	list = decode[ListResponse[core.Employee]](t, a.do(t, http.MethodGet, "/api/employees", "u1", ""))
	if len(list.Items) != 1 {
		t.Fatalf("full listing returned %+v", list.Items)
	}
}

func TestCustomerPaymentFlow(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/customers", "u1",
		`{"name":"Acme","brandName":"Acme Signs","monthlyAmount":400,"paymentDeadline":10}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create customer = %d %s", rec.Code, rec.Body)
	}
	c := decode[core.Customer](t, rec)

	overdue := decode[ListResponse[core.Customer]](t, a.do(t, http.MethodGet, "/api/customers/overdue", "u1", ""))
	if len(overdue.Items) != 1 {
		t.Fatalf("unpaid customer past its deadline must be overdue, got %+v", overdue.Items)
	}

	pay := `{"month":3,"year":2024,"paidAt":"2024-03-05"}`
	if rec := a.do(t, http.MethodPost, "/api/customers/"+c.ID+"/pay", "u1", pay); rec.Code != http.StatusCreated {
		t.Fatalf("pay = %d %s", rec.Code, rec.Body)
	}
	if rec := a.do(t, http.MethodPost, "/api/customers/"+c.ID+"/pay", "u1", pay); rec.Code != http.StatusConflict {
		t.Fatalf("second pay = %d, want 409", rec.Code)
	}
	sum := decode[core.MonthlySummary](t, a.do(t, http.MethodGet, "/api/summaries/2024/3", "u1", ""))
	if sum.TotalIncome.Cents != 40000 {
		t.Fatalf("TotalIncome = %s", sum.TotalIncome)
	}

	incomes := decode[ListResponse[core.Income]](t, a.do(t, http.MethodGet, "/api/incomes?month=3&year=2024&customer="+c.ID, "u1", ""))
	if len(incomes.Items) != 1 || incomes.Items[0].CustomerID != c.ID {
		t.Fatalf("unexpected customer incomes %+v", incomes.Items)
	}

	if rec := a.do(t, http.MethodPost, "/api/customers/"+c.ID+"/unpay", "u1", `{"month":3,"year":2024}`); rec.Code != http.StatusNoContent {
		t.Fatalf("unpay = %d %s", rec.Code, rec.Body)
	}
	if rec := a.do(t, http.MethodPost, "/api/customers/"+c.ID+"/unpay", "u1", `{"month":3,"year":2024}`); rec.Code != http.StatusNotFound {
		t.Fatalf("second unpay = %d, want 404", rec.Code)
	}
	got := decode[core.Customer](t, a.do(t, http.MethodGet, "/api/customers/"+c.ID, "u1", ""))
	if got.LastPaidDate != nil {
		t.Fatalf("LastPaidDate = %v, want nil", got.LastPaidDate)
	}

	if rec := a.do(t, http.MethodPost, "/api/customers/"+c.ID+"/pay", "u1", `{"month":3,"year":2024,"paidAt":"2024-04-01"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("pay outside the month = %d, want 400", rec.Code)
	}
}

func TestRecalculateAndYearOverview(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()

	rec := a.do(t, http.MethodPost, "/api/incomes", "u1", `{"title":"Job","amount":100,"date":"2024-02-10"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create income = %d %s", rec.Code, rec.Body)
	}

	// A record written behind the service's back is picked up only by an
	// explicit recalculation.
	if err := a.store.CreateIncome(ctx, core.Income{
		ID: "direct", UserID: "u1", Title: "Cash", Amount: core.Cents(5000),
		Category: core.DefaultIncomeCategory, Date: time.Date(2024, 2, 11, 12, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatal(err)
	}
	stale := decode[core.MonthlySummary](t, a.do(t, http.MethodGet, "/api/summaries/2024/2", "u1", ""))
	if stale.TotalIncome.Cents != 10000 {
		t.Fatalf("read must return the stored row, got %s", stale.TotalIncome)
	}
	rec = a.do(t, http.MethodPost, "/api/summaries/2024/2/recalculate", "u1", "")
	if fresh := decode[core.MonthlySummary](t, rec); rec.Code != http.StatusOK || fresh.TotalIncome.Cents != 15000 {
		t.Fatalf("recalculate = %d %+v", rec.Code, fresh.SummaryResult)
	}

	rec = a.do(t, http.MethodGet, "/api/summaries/2024", "u1", "")
	overview := decode[summary.YearOverview](t, rec)
	if len(overview.Months) != 12 || overview.CachedMonths != 1 || overview.TotalIncome.Cents != 15000 {
		t.Fatalf("unexpected overview %+v", overview)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	a := newTestAPI(t)
	a.do(t, http.MethodGet, "/api/summaries/2024/3", "u1", "")

	rec := a.do(t, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "summary_lookups_total") {
		t.Fatalf("expected summary lookup metrics in:\n%s", rec.Body)
	}
}

func TestWriteRateLimit(t *testing.T) {
	a := newTestAPI(t)
	a.srv.limiter.Stop()
	a.srv = NewServer(":0", Options{
		Ledger:             a.srv.ledger,
		Summaries:          a.srv.summaries,
		Logger:             applog.New(applog.Config{Output: io.Discard}),
		RateLimitPerMinute: 2,
	})
	t.Cleanup(a.srv.limiter.Stop)

	body := `{"name":"Acme","monthlyAmount":10,"paymentDeadline":5}`
	for i := 0; i < 2; i++ {
		if rec := a.do(t, http.MethodPost, "/api/customers", "u1", body); rec.Code != http.StatusCreated {
			t.Fatalf("request %d = %d", i, rec.Code)
		}
	}
	rec := a.do(t, http.MethodPost, "/api/customers", "u1", body)
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Fatalf("third write = %d, want 429 with Retry-After", rec.Code)
	}
	if rec := a.do(t, http.MethodGet, "/api/customers", "u1", ""); rec.Code != http.StatusOK {
		t.Fatalf("reads are not limited, got %d", rec.Code)
	}
}

func TestErrorResponseMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrInvalidMonth, http.StatusBadRequest},
		{fmt.Errorf("get income: %w", core.ErrNotFound), http.StatusNotFound},
		{core.ErrForbidden, http.StatusForbidden},
		{core.ErrConflict, http.StatusConflict},
		{fmt.Errorf("recalculate: %w", summary.ErrRecalculation), http.StatusInternalServerError},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := errorResponse(tt.err); got != tt.want {
			t.Errorf("errorResponse(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
