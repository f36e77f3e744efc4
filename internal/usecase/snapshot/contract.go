package snapshot

import (
	"context"

	"github.com/surfcat/gasdb/internal/domain/document"
	"github.com/surfcat/gasdb/internal/domain/query"
)

// Source reads documents.
type Source interface {
	Fetch(ctx context.Context, spec query.Spec, progress func(fetched int)) ([]document.Document, error)
}

// Sink stores documents.
type Sink interface {
	Put(ctx context.Context, collection string, docs []document.Document) error
}
