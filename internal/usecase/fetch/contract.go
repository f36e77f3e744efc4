package fetch

import (
	"context"

	"github.com/surfcat/gasdb/internal/domain/document"
	"github.com/surfcat/gasdb/internal/domain/query"
)

// Source fetches the documents a spec describes. progress, when non-nil,
// receives the running count of fetched documents.
type Source interface {
	Fetch(ctx context.Context, spec query.Spec, progress func(fetched int)) ([]document.Document, error)
}
