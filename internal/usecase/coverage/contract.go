package coverage

import (
	"context"

	"github.com/surfcat/gasdb/internal/domain/document"
	"github.com/surfcat/gasdb/internal/usecase/fetch"
)

// Fetcher reads relaxed adsorption results and surrogate estimates.
type Fetcher interface {
	Adsorption(ctx context.Context, adsorbate string, p fetch.Params) ([]document.Document, error)
	Approximate(ctx context.Context, adsorbate, model, calc string) ([]document.Document, error)
}
