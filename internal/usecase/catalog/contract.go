package catalog

import (
	"context"

	"github.com/surfcat/gasdb/internal/domain/document"
)

// Fetcher reads catalog sites and attempted calculations.
type Fetcher interface {
	Catalog(ctx context.Context, calc string) ([]document.Document, error)
	Attempted(ctx context.Context, adsorbate, calc string) ([]document.Document, error)
}

// RotationProvider supplies the rotation used when a request names none.
type RotationProvider interface {
	DefaultRotation() document.Map
}
