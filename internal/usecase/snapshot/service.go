// Package snapshot copies collections from a live store into a blob store,
// typically a SQLite file that reconciliation can later run against offline.
package snapshot

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/surfcat/gasdb/internal/domain/query"
	"github.com/surfcat/gasdb/internal/logger"
	"github.com/surfcat/gasdb/internal/metrics"
	"github.com/surfcat/gasdb/internal/policy"
)

// DefaultBatchSize is how many documents go into one Put.
const DefaultBatchSize = 500

// Service copies collections.
type Service struct {
	source    Source
	sink      Sink
	batchSize int
}

// New creates a snapshot service.
func New(source Source, sink Sink) *Service {
	return &Service{source: source, sink: sink, batchSize: DefaultBatchSize}
}

// WithBatchSize sets the number of documents per Put.
func (s *Service) WithBatchSize(n int) *Service {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// Collections lists the collections reconciliation reads for every calculator.
// RISM shares the QE catalog, so catalogs are deduplicated.
func Collections(p *policy.Provider) []string {
	var out []string
	for _, calc := range p.Calculators() {
		out = append(out, p.AdsorptionCollection(calc), p.SurfaceCollection(calc))
		if c := p.CatalogCollection(calc); !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

// Copy copies every document of each collection, storage ids included. It
// returns the number of documents copied per collection and stops at the
// first failure.
func (s *Service) Copy(ctx context.Context, collections []string) (map[string]int, error) {
	defer metrics.ObserveDuration("snapshot", time.Now())
	log := logger.FromContext(ctx)

	counts := make(map[string]int, len(collections))
	for _, coll := range collections {
		spec, err := query.New(coll).Build()
		if err != nil {
			return counts, err
		}
		docs, err := s.source.Fetch(ctx, spec, nil)
		if err != nil {
			return counts, fmt.Errorf("snapshot %s: %w", coll, err)
		}
		for batch := range slices.Chunk(docs, s.batchSize) {
			if err := s.sink.Put(ctx, coll, batch); err != nil {
				return counts, fmt.Errorf("snapshot %s: %w", coll, err)
			}
		}
		counts[coll] = len(docs)
		log.Info("Copied collection", zap.String("collection", coll), zap.Int("documents", len(docs)))
	}
	return counts, nil
}
