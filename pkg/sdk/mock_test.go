package gasdb

import (
	"context"

	"github.com/surfcat/gasdb/internal/domain/document"
	"github.com/surfcat/gasdb/internal/domain/merge"
	cataloguc "github.com/surfcat/gasdb/internal/usecase/catalog"
	coverageuc "github.com/surfcat/gasdb/internal/usecase/coverage"
	fetchuc "github.com/surfcat/gasdb/internal/usecase/fetch"
	healthuc "github.com/surfcat/gasdb/internal/usecase/health"
	purgeuc "github.com/surfcat/gasdb/internal/usecase/purge"
)

// --- catalogUseCase mock ---

type mockCatalogUC struct {
	unsimulatedFn func(ctx context.Context, req cataloguc.Request) ([]document.Document, error)
}

func (m *mockCatalogUC) Unsimulated(ctx context.Context, req cataloguc.Request) ([]document.Document, error) {
	return m.unsimulatedFn(ctx, req)
}

// --- coverageUseCase mock ---

type mockCoverageUC struct {
	lowCoverageFn func(ctx context.Context, req coverageuc.Request) ([]merge.Outcome, error)
}

func (m *mockCoverageUC) LowCoverage(ctx context.Context, req coverageuc.Request) ([]merge.Outcome, error) {
	return m.lowCoverageFn(ctx, req)
}

// --- purgeUseCase mock ---

type mockPurgeUC struct {
	purgeFn func(ctx context.Context, fwids []int) (purgeuc.Report, error)
}

func (m *mockPurgeUC) Purge(ctx context.Context, fwids []int) (purgeuc.Report, error) {
	return m.purgeFn(ctx, fwids)
}

// --- predictionUseCase mock ---

type mockPredictionUC struct {
	discoverFn func(ctx context.Context, calc string) (fetchuc.PredictionKeys, error)
	catalogFn  func(ctx context.Context, calc string, latest bool) ([]document.Document, error)
}

func (m *mockPredictionUC) DiscoverPredictions(ctx context.Context, calc string) (fetchuc.PredictionKeys, error) {
	return m.discoverFn(ctx, calc)
}

func (m *mockPredictionUC) CatalogWithPredictions(
	ctx context.Context, calc string, latest bool,
) ([]document.Document, error) {
	return m.catalogFn(ctx, calc, latest)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

// --- documentUseCase mock ---

type mockDocumentUC struct {
	adsorptionFn func(ctx context.Context, adsorbate string, p fetchuc.Params) ([]document.Document, error)
	surfaceFn    func(ctx context.Context, p fetchuc.Params) ([]document.Document, error)
}

func (m *mockDocumentUC) Adsorption(ctx context.Context, adsorbate string, p fetchuc.Params) ([]document.Document, error) {
	return m.adsorptionFn(ctx, adsorbate, p)
}

func (m *mockDocumentUC) Surface(ctx context.Context, p fetchuc.Params) ([]document.Document, error) {
	return m.surfaceFn(ctx, p)
}
