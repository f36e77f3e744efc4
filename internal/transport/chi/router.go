// Package chi serves the gasdb HTTP API on a chi router.
package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/surfcat/gasdb/internal/metrics"
)

// NewRouter mounts s with the standard middleware stack. apiKeys guard /v1;
// health and metrics stay open for probes and scrapers.
func NewRouter(s *Server, apiKeys []string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())

	r.Get("/healthz", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(APIKeyAuth(apiKeys))
		r.Get("/adsorbates/{adsorbate}/unsimulated", s.Unsimulated)
		r.Get("/adsorbates/{adsorbate}/low-coverage", s.LowCoverage)
		r.Post("/purge", s.Purge)
		r.Post("/fingerprint", s.Fingerprint)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	return r
}
