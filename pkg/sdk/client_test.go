package gasdb

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/surfcat/gasdb/internal/domain"
	"github.com/surfcat/gasdb/internal/domain/document"
	"github.com/surfcat/gasdb/internal/domain/merge"
	"github.com/surfcat/gasdb/internal/domain/surface"
	cataloguc "github.com/surfcat/gasdb/internal/usecase/catalog"
	coverageuc "github.com/surfcat/gasdb/internal/usecase/coverage"
	fetchuc "github.com/surfcat/gasdb/internal/usecase/fetch"
	healthuc "github.com/surfcat/gasdb/internal/usecase/health"
	purgeuc "github.com/surfcat/gasdb/internal/usecase/purge"
)

func testClient(obs *observer) *Client {
	return &Client{
		defaults: queryConfig{calculator: "vasp", model: "model0"},
		obs:      obs,
	}
}

func TestNew_NoStore(t *testing.T) {
	_, err := New(context.Background())
	if err == nil {
		t.Fatal("expected error when no store is configured")
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(context.Background(), WithMongo("", "gasdb"))
	if err == nil || !strings.Contains(err.Error(), "database.mongo.uri is required") {
		t.Fatalf("expected missing uri error, got %v", err)
	}
}

func TestNew_UnknownCalculator(t *testing.T) {
	_, err := New(context.Background(), WithSQLite(":memory:"), WithDefaultCalculator("abinit"))
	if !errors.Is(err, ErrUnknownCalculator) {
		t.Fatalf("expected ErrUnknownCalculator, got %v", err)
	}
}

func TestUnsimulated_Defaults(t *testing.T) {
	c := testClient(nil)
	c.catalog = &mockCatalogUC{
		unsimulatedFn: func(_ context.Context, req cataloguc.Request) ([]document.Document, error) {
			if req.Adsorbate != "CO" || req.Calculator != "vasp" || req.Rotations != nil {
				t.Errorf("request = %+v", req)
			}
			return []document.Document{document.MustFromMap(map[string]any{"mpid": "mp-1"})}, nil
		},
	}

	docs, err := c.Unsimulated(context.Background(), "CO")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 || docs[0]["mpid"] != "mp-1" {
		t.Errorf("docs = %v", docs)
	}
}

func TestUnsimulated_QueryOptions(t *testing.T) {
	c := testClient(nil)
	c.catalog = &mockCatalogUC{
		unsimulatedFn: func(_ context.Context, req cataloguc.Request) ([]document.Document, error) {
			if req.Calculator != "qe" {
				t.Errorf("calculator = %q", req.Calculator)
			}
			if len(req.Rotations) != 2 || req.Rotations[1]["phi"] != document.Number(90) {
				t.Errorf("rotations = %v", req.Rotations)
			}
			return nil, nil
		},
	}

	_, err := c.Unsimulated(context.Background(), "H",
		WithCalculator("qe"),
		WithRotations(map[string]float64{"phi": 0}, map[string]float64{"phi": 90}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLowCoverage_ToSite(t *testing.T) {
	c := testClient(nil)
	c.coverage = &mockCoverageUC{
		lowCoverageFn: func(_ context.Context, req coverageuc.Request) ([]merge.Outcome, error) {
			if req.Model != "model1" || req.Calculator != "vasp" {
				t.Errorf("request = %+v", req)
			}
			doc := document.MustFromMap(map[string]any{"energy": -0.4, "authoritative": true})
			return []merge.Outcome{{
				Key:   surface.Key{MaterialID: "mp-1", Miller: "[1, 1, 1]", Shift: 0.25, Top: true},
				State: merge.AuthWins,
				Doc:   doc,
			}}, nil
		},
	}

	sites, err := c.LowCoverage(context.Background(), "CO", WithModel("model1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sites) != 1 {
		t.Fatalf("expected 1 site, got %d", len(sites))
	}
	s := sites[0]
	if s.MaterialID != "mp-1" || s.State != "auth_wins" || !s.Authoritative || s.Energy != -0.4 {
		t.Errorf("site = %+v", s)
	}
}

func TestLowCoverage_ErrorPassesThrough(t *testing.T) {
	c := testClient(nil)
	c.coverage = &mockCoverageUC{
		lowCoverageFn: func(context.Context, coverageuc.Request) ([]merge.Outcome, error) {
			return nil, domain.NewMissingField("energy")
		},
	}
	if _, err := c.LowCoverage(context.Background(), "CO"); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestAdsorption_DefaultParams(t *testing.T) {
	c := testClient(nil)
	c.documents = &mockDocumentUC{
		adsorptionFn: func(_ context.Context, adsorbate string, p fetchuc.Params) ([]document.Document, error) {
			if adsorbate != "CO" || p.Calculator != "vasp" {
				t.Errorf("Adsorption(%q, %+v)", adsorbate, p)
			}
			if p.Filters != nil || p.ExtraProjections != nil {
				t.Errorf("expected default policy, got %+v", p)
			}
			return []document.Document{document.MustFromMap(map[string]any{"energy": -0.5})}, nil
		},
	}

	docs, err := c.Adsorption(context.Background(), "CO")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 || docs[0]["energy"] != -0.5 {
		t.Errorf("docs = %v", docs)
	}
}

func TestSurfaces_FiltersAndProjections(t *testing.T) {
	c := testClient(nil)
	c.documents = &mockDocumentUC{
		surfaceFn: func(_ context.Context, p fetchuc.Params) ([]document.Document, error) {
			if p.Calculator != "qe" {
				t.Errorf("calculator = %q", p.Calculator)
			}
			if len(p.Filters) != 2 || p.Filters[0] != Eq("mpid", "mp-1") || p.Filters[1].Path != "fmax" {
				t.Errorf("filters = %+v", p.Filters)
			}
			if len(p.ExtraProjections) != 1 || p.ExtraProjections[0].Field != "fwid" || p.ExtraProjections[0].Path != "fwid" {
				t.Errorf("projections = %+v", p.ExtraProjections)
			}
			return nil, nil
		},
	}

	_, err := c.Surfaces(context.Background(),
		WithCalculator("qe"),
		WithFilters(Eq("mpid", "mp-1"), Lt("fmax", 0.05)),
		WithProjection("fwid", "fwid"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWithFilters_EmptyMatchesEverything(t *testing.T) {
	c := testClient(nil)
	c.documents = &mockDocumentUC{
		adsorptionFn: func(_ context.Context, _ string, p fetchuc.Params) ([]document.Document, error) {
			if p.Filters == nil || len(p.Filters) != 0 {
				t.Errorf("filters = %#v, want empty non-nil", p.Filters)
			}
			return nil, nil
		},
	}
	if _, err := c.Adsorption(context.Background(), "", WithFilters()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPurge_PartialReport(t *testing.T) {
	boom := errors.New("write conflict")
	c := testClient(nil)
	c.purge = &mockPurgeUC{
		purgeFn: func(_ context.Context, fwids []int) (purgeuc.Report, error) {
			if len(fwids) != 2 {
				t.Errorf("fwids = %v", fwids)
			}
			return purgeuc.Report{Defused: 2, AtomsDeleted: 2, AdsorptionDeleted: map[string]int64{}}, boom
		},
	}

	report, err := c.Purge(context.Background(), 1, 2)
	if !errors.Is(err, boom) {
		t.Fatalf("expected purge error, got %v", err)
	}
	if report.Defused != 2 || report.AtomsDeleted != 2 {
		t.Errorf("report = %+v", report)
	}
}

func TestPredictions(t *testing.T) {
	c := testClient(nil)
	c.predictions = &mockPredictionUC{
		discoverFn: func(_ context.Context, calc string) (fetchuc.PredictionKeys, error) {
			return fetchuc.PredictionKeys{Adsorbates: []string{"CO", "H"}, AdsorptionModels: []string{"model0"}}, nil
		},
		catalogFn: func(_ context.Context, calc string, latest bool) ([]document.Document, error) {
			if !latest {
				t.Error("latest not forwarded")
			}
			return nil, nil
		},
	}

	p, err := c.Predictions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Adsorbates) != 2 || p.AdsorptionModels[0] != "model0" {
		t.Errorf("predictions = %+v", p)
	}
	if _, err := c.CatalogWithPredictions(context.Background(), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHealth(t *testing.T) {
	c := testClient(nil)
	c.health = &mockHealthUC{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK, "launchpad": healthuc.CheckError},
	}}

	h := c.Health(context.Background())
	if h.Status != "degraded" || h.Checks["launchpad"] != "error" {
		t.Errorf("health = %+v", h)
	}

	var unhealthy *UnhealthyError
	if err := c.Ping(context.Background()); !errors.As(err, &unhealthy) {
		t.Fatalf("expected UnhealthyError, got %v", err)
	}
	if unhealthy.Status.Checks["database"] != "ok" {
		t.Errorf("status = %+v", unhealthy.Status)
	}
}

func TestObserver_MetricsAndLogs(t *testing.T) {
	reg := prometheus.NewRegistry()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	obs, err := newObserver(logger, reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	obs.observe("unsimulated", time.Now(), 3, nil)
	obs.observe("unsimulated", time.Now(), 0, errors.New("boom"))

	if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("unsimulated", "ok")); got != 1 {
		t.Errorf("ok operations = %v", got)
	}
	if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("unsimulated", "error")); got != 1 {
		t.Errorf("error operations = %v", got)
	}
	if got := testutil.ToFloat64(obs.metrics.documents.WithLabelValues("unsimulated")); got != 3 {
		t.Errorf("documents = %v", got)
	}
	if !strings.Contains(buf.String(), "operation failed") {
		t.Errorf("missing failure log: %s", buf.String())
	}
}

func TestObserver_ReuseRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := newObserver(nil, reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := newObserver(nil, reg); err != nil {
		t.Fatalf("second registration must reuse collectors: %v", err)
	}
}

func TestObserver_Nil(t *testing.T) {
	var obs *observer
	obs.observe("noop", time.Now(), 0, nil)
}

func TestFingerprint(t *testing.T) {
	a := Document{"mpid": "mp-1", "energy": -0.3, "_id": "x"}
	b := Document{"energy": 1.2, "mpid": "mp-1", "mongo_id": "y"}

	fa, err := Fingerprint(a, "energy")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fb, err := Fingerprint(b, "energy")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fa != fb {
		t.Errorf("fingerprints differ: %s vs %s", fa, fb)
	}

	ca, _ := Canonical(a, "energy")
	if strings.Contains(ca, "_id") || !strings.Contains(ca, "mp-1") {
		t.Errorf("canonical = %s", ca)
	}
}
