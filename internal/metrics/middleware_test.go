package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/v1/recommendations", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/traces/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/slow", func(w http.ResponseWriter, _ *http.Request) {
		if got := testutil.ToFloat64(httpInFlight); got < 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func serve(h http.Handler, method, target string) int {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, target, http.NoBody))
	return rr.Code
}

func TestMiddleware_ImplicitOK(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/v1/recommendations", "200"))
	if code := serve(newRouter(), "POST", "/v1/recommendations"); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/v1/recommendations", "200"))
	if after != before+1 {
		t.Errorf("requests_total delta = %v, want 1", after-before)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected duration observations")
	}
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	h := newRouter()
	serve(h, "GET", "/v1/traces/abc")
	serve(h, "GET", "/v1/traces/def")

	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/traces/{id}", "404")); got < 2 {
		t.Errorf("expected both ids under one pattern, got %v", got)
	}
}

func TestMiddleware_Unmatched(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", routeUnmatched, "404"))
	serve(newRouter(), "GET", "/nope/123")
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", routeUnmatched, "404")); got != before+1 {
		t.Errorf("unmatched delta = %v, want 1", got-before)
	}
}

func TestMiddleware_InFlight(t *testing.T) {
	if code := serve(newRouter(), "GET", "/slow"); code != http.StatusNoContent {
		t.Fatalf("in-flight gauge not raised during request, status %d", code)
	}
	if got := testutil.ToFloat64(httpInFlight); got != 0 {
		t.Errorf("in-flight = %v after request, want 0", got)
	}
}
