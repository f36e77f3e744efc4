package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/v1/adsorbates/{adsorbate}/unsimulated", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("[]"))
	})

	for _, ads := range []string{"CO", "H", "OH"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/adsorbates/"+ads+"/unsimulated", http.NoBody)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(
		http.MethodGet, "/v1/adsorbates/{adsorbate}/unsimulated", "200"))
	if got < 3 {
		t.Errorf("expected >= 3 requests on the route pattern, got %f", got)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected duration observations")
	}
	if v := testutil.ToFloat64(httpRequestsInFlight); v != 0 {
		t.Errorf("in-flight = %f after requests finished", v)
	}
}

func TestMiddleware_StatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/v1/purge", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.WriteHeader(http.StatusOK) // ignored, first status wins
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/purge", http.NoBody)
	r.ServeHTTP(httptest.NewRecorder(), req)

	if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodPost, "/v1/purge", "422")); v < 1 {
		t.Errorf("expected a 422 observation, got %f", v)
	}
}

func TestRouteLabel_NoRouteContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/anything", http.NoBody)
	if got := routeLabel(req); got != "unmatched" {
		t.Errorf("routeLabel = %q", got)
	}
}

func TestRegister_Idempotent(t *testing.T) {
	Register()
	Register()
}

func TestObserveDuration(t *testing.T) {
	before := testutil.CollectAndCount(OperationDuration)
	ObserveDuration("test_operation", time.Now().Add(-time.Second))
	if testutil.CollectAndCount(OperationDuration) != before+1 {
		t.Error("expected a new operation series")
	}
}
