package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/surfcat/gasdb/internal/domain"
	"github.com/surfcat/gasdb/internal/domain/document"
	"github.com/surfcat/gasdb/internal/domain/fingerprint"
	"github.com/surfcat/gasdb/internal/domain/merge"
	"github.com/surfcat/gasdb/internal/logger"
	cataloguc "github.com/surfcat/gasdb/internal/usecase/catalog"
	coverageuc "github.com/surfcat/gasdb/internal/usecase/coverage"
	healthuc "github.com/surfcat/gasdb/internal/usecase/health"
	"github.com/surfcat/gasdb/internal/version"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest        = "bad_request"
	CodeUnauthorized      = "unauthorized"
	CodeInvalidDocument   = "invalid_document"
	CodeUnknownCalculator = "unknown_calculator"
	CodeInternal          = "internal_error"
)

const maxBodyBytes = 16 << 20

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Defaults fill request parameters the caller leaves out.
type Defaults struct {
	Calculator string
	Model      string
	Rotations  []document.Map
}

// Server serves the gasdb HTTP API.
type Server struct {
	catalog       CatalogService
	coverage      CoverageService
	purge         PurgeService
	health        HealthService
	defaults      Defaults
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. purge may be nil to disable POST /v1/purge.
func NewServer(
	catalog CatalogService,
	coverage CoverageService,
	purge PurgeService,
	health HealthService,
	defaults Defaults,
) *Server {
	return &Server{
		catalog:  catalog,
		coverage: coverage,
		purge:    purge,
		health:   health,
		defaults: defaults,
		errorHandlers: []errorHandler{
			sentinelHandler(domain.ErrMissingField, http.StatusUnprocessableEntity, CodeInvalidDocument),
			sentinelHandler(domain.ErrFieldType, http.StatusUnprocessableEntity, CodeInvalidDocument),
			sentinelHandler(domain.ErrUnhashableValue, http.StatusUnprocessableEntity, CodeInvalidDocument),
			sentinelHandler(domain.ErrUnknownCalculator, http.StatusBadRequest, CodeUnknownCalculator),
		},
	}
}

// UnsimulatedResponse lists catalog sites still to simulate.
type UnsimulatedResponse struct {
	Adsorbate  string              `json:"adsorbate"`
	Calculator string              `json:"calculator"`
	Count      int                 `json:"count"`
	Documents  []document.Document `json:"documents"`
}

// Unsimulated handles GET /v1/adsorbates/{adsorbate}/unsimulated.
func (s *Server) Unsimulated(w http.ResponseWriter, r *http.Request) {
	req := cataloguc.Request{
		Adsorbate:  chi.URLParam(r, "adsorbate"),
		Calculator: s.calculator(r),
		Rotations:  s.defaults.Rotations,
	}

	docs, err := s.catalog.Unsimulated(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if docs == nil {
		docs = []document.Document{}
	}
	writeJSON(w, http.StatusOK, UnsimulatedResponse{
		Adsorbate:  req.Adsorbate,
		Calculator: req.Calculator,
		Count:      len(docs),
		Documents:  docs,
	})
}

// SiteResponse is one resolved surface.
type SiteResponse struct {
	MaterialID    string            `json:"mpid"`
	Miller        string            `json:"miller"`
	Shift         float64           `json:"shift"`
	Top           bool              `json:"top"`
	State         string            `json:"state"`
	Authoritative bool              `json:"authoritative"`
	Document      document.Document `json:"document"`
}

// LowCoverageResponse lists the strongest-binding site per surface.
type LowCoverageResponse struct {
	Adsorbate  string         `json:"adsorbate"`
	Model      string         `json:"model"`
	Calculator string         `json:"calculator"`
	Sites      []SiteResponse `json:"sites"`
}

// LowCoverage handles GET /v1/adsorbates/{adsorbate}/low-coverage.
func (s *Server) LowCoverage(w http.ResponseWriter, r *http.Request) {
	req := coverageuc.Request{
		Adsorbate:  chi.URLParam(r, "adsorbate"),
		Model:      r.URL.Query().Get("model"),
		Calculator: s.calculator(r),
	}
	if req.Model == "" {
		req.Model = s.defaults.Model
	}

	outcomes, err := s.coverage.LowCoverage(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, LowCoverageResponse{
		Adsorbate:  req.Adsorbate,
		Model:      req.Model,
		Calculator: req.Calculator,
		Sites:      sitesToResponse(outcomes),
	})
}

// PurgeRequest names the FireWorks IDs to purge.
type PurgeRequest struct {
	FWIDs []int `json:"fwids"`
}

// Purge handles POST /v1/purge.
func (s *Server) Purge(w http.ResponseWriter, r *http.Request) {
	if s.purge == nil {
		writeError(w, http.StatusNotFound, CodeBadRequest, "purge is disabled")
		return
	}
	var req PurgeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.FWIDs) == 0 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "fwids is required")
		return
	}

	report, err := s.purge.Purge(r.Context(), req.FWIDs)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// FingerprintResponse carries a document's content hash.
type FingerprintResponse struct {
	Fingerprint string `json:"fingerprint"`
	Canonical   string `json:"canonical,omitempty"`
}

// Fingerprint handles POST /v1/fingerprint. The body is the document;
// ?ignore=a,b drops keys and ?canonical=true echoes the canonical form.
func (s *Server) Fingerprint(w http.ResponseWriter, r *http.Request) {
	var doc document.Document
	if err := decodeBody(r, &doc); err != nil {
		if errors.Is(err, domain.ErrUnhashableValue) {
			s.handleDomainError(w, r, err)
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var ignore []string
	if raw := r.URL.Query().Get("ignore"); raw != "" {
		ignore = strings.Split(raw, ",")
	}

	fp, err := fingerprint.Of(doc, ignore)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	resp := FingerprintResponse{Fingerprint: fp.String()}
	if r.URL.Query().Get("canonical") == "true" {
		if resp.Canonical, err = fingerprint.Canonical(doc, ignore); err != nil {
			s.handleDomainError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthResponse reports component health and the build.
type HealthResponse struct {
	Status  healthuc.Status                 `json:"status"`
	Checks  map[string]healthuc.CheckResult `json:"checks"`
	Version string                          `json:"version"`
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{
		Status:  report.Status,
		Checks:  report.Checks,
		Version: version.Version,
	})
}

func (s *Server) calculator(r *http.Request) string {
	if c := r.URL.Query().Get("calculator"); c != "" {
		return c
	}
	return s.defaults.Calculator
}

func sitesToResponse(outcomes []merge.Outcome) []SiteResponse {
	sites := make([]SiteResponse, len(outcomes))
	for i, o := range outcomes {
		sites[i] = SiteResponse{
			MaterialID:    o.Key.MaterialID,
			Miller:        o.Key.Miller,
			Shift:         o.Key.Shift,
			Top:           o.Key.Top,
			State:         o.State.String(),
			Authoritative: o.State.Authoritative(),
			Document:      o.Doc,
		}
	}
	return sites
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// Document errors carry the offending field, which is safe to expose.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, innermost(err, sentinel))
		return true
	}
}

// innermost strips usecase context from err, keeping the domain message.
func innermost(err, sentinel error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil || next == sentinel {
			return err.Error()
		}
		err = next
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternal, "internal error")
}
