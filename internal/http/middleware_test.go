package httpapi

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestUnknownPathsShareOneRouteLabel(t *testing.T) {
	env := newTestEnv(t, nil)
	for i := 0; i < 50; i++ {
		rec := env.do(t, http.MethodGet, fmt.Sprintf("/scan/%d", i), "", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	}
	metrics := env.server.Metrics
	if n := testutil.CollectAndCount(metrics.requests, "hostel_http_requests_total"); n != 1 {
		t.Fatalf("expected one request series, got %d", n)
	}
	if got := testutil.ToFloat64(metrics.requests.WithLabelValues(http.MethodGet, unmatchedRoute, "404")); got != 50 {
		t.Fatalf("expected 50 unmatched requests, got %v", got)
	}
}

func TestRecoveredPanicIsCounted(t *testing.T) {
	s := &Server{Log: zerolog.Nop(), Metrics: NewMetrics()}
	r := chi.NewRouter()
	s.useMiddleware(r)
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if got := testutil.ToFloat64(s.Metrics.requests.WithLabelValues(http.MethodGet, "/boom", "500")); got != 1 {
		t.Fatalf("expected the recovered request to be counted once, got %v", got)
	}
}
