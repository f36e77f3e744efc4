package chi

import (
	"context"

	"github.com/surfcat/gasdb/internal/domain/document"
	"github.com/surfcat/gasdb/internal/domain/merge"
	cataloguc "github.com/surfcat/gasdb/internal/usecase/catalog"
	coverageuc "github.com/surfcat/gasdb/internal/usecase/coverage"
	healthuc "github.com/surfcat/gasdb/internal/usecase/health"
	purgeuc "github.com/surfcat/gasdb/internal/usecase/purge"
)

// CatalogService answers unsimulated-catalog queries.
type CatalogService interface {
	Unsimulated(ctx context.Context, req cataloguc.Request) ([]document.Document, error)
}

// CoverageService answers low-coverage queries.
type CoverageService interface {
	LowCoverage(ctx context.Context, req coverageuc.Request) ([]merge.Outcome, error)
}

// PurgeService removes calculations.
type PurgeService interface {
	Purge(ctx context.Context, fwids []int) (purgeuc.Report, error)
}

// HealthService reports store health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
