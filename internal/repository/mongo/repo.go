// Package mongo is the document source over MongoDB aggregation pipelines.
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/surfcat/gasdb/internal/domain"
	"github.com/surfcat/gasdb/internal/domain/document"
	"github.com/surfcat/gasdb/internal/domain/query"
)

// store is the consumer interface for the MongoDB store (ISP).
type store interface {
	Aggregate(ctx context.Context, tag string, pipeline mongo.Pipeline, each func(bson.M) error) error
	DeleteMany(ctx context.Context, tag string, filter bson.M) (int64, error)
}

// Repo implements the fetch and purge document sources.
type Repo struct {
	store store
}

// New creates a MongoDB-backed document source.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Fetch runs spec as an aggregation and converts every result. progress, when
// non-nil, receives the running count after each document.
func (r *Repo) Fetch(ctx context.Context, spec query.Spec, progress func(fetched int)) ([]document.Document, error) {
	var docs []document.Document
	err := r.store.Aggregate(ctx, spec.Collection(), buildPipeline(spec), func(raw bson.M) error {
		doc, err := toDocument(raw)
		if err != nil {
			return fmt.Errorf("document %d: %w", len(docs), err)
		}
		docs = append(docs, doc)
		if progress != nil {
			progress(len(docs))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", spec.Collection(), err)
	}
	return docs, nil
}

// Delete removes every document matching spec's conditions. Sampling has no
// meaning for deletes and is rejected; projections are ignored.
func (r *Repo) Delete(ctx context.Context, spec query.Spec) (int64, error) {
	if spec.Sample() > 0 {
		return 0, fmt.Errorf("delete with sample: %w", domain.ErrUnsupported)
	}
	n, err := r.store.DeleteMany(ctx, spec.Collection(), buildFilter(spec.Conditions()))
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", spec.Collection(), err)
	}
	return n, nil
}
