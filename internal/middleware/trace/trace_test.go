package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMiddleware_AssignsRequestIDAndObserves(t *testing.T) {
	var gotStatus int
	var gotID string
	m := NewMiddleware(func(r *http.Request, status int, _ time.Duration) {
		gotStatus = status
		gotID = GetRequestID(r.Context())
	})

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusCreated)
		w.WriteHeader(http.StatusInternalServerError) // ignored
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/incomes", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("handler saw request id %q", seen)
	}
	if rr.Header().Get(HeaderRequestID) != seen || gotID != seen {
		t.Fatalf("request id not propagated: header=%q observer=%q", rr.Header().Get(HeaderRequestID), gotID)
	}
	if gotStatus != http.StatusCreated {
		t.Fatalf("observed status %d", gotStatus)
	}
}

func TestMiddleware_IncomingRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"valid", "abc-123", true},
		{"too long", strings.Repeat("a", 65), false},
		{"bad characters", "id with spaces", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewMiddleware().Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(HeaderRequestID, tt.incoming)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if got := rr.Header().Get(HeaderRequestID) == tt.incoming; got != tt.keep {
				t.Fatalf("kept=%v, want %v (got %q)", got, tt.keep, rr.Header().Get(HeaderRequestID))
			}
		})
	}
}

func TestMiddleware_DefaultStatusIsOK(t *testing.T) {
	var gotStatus int
	h := NewMiddleware(func(_ *http.Request, status int, _ time.Duration) { gotStatus = status }).
		Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if gotStatus != http.StatusOK {
		t.Fatalf("observed status %d", gotStatus)
	}
}
