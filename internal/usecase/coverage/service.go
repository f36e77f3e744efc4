// Package coverage answers low-coverage queries: the strongest-binding site
// of every surface, taken from simulations where they settle it and from
// surrogate estimates elsewhere.
package coverage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/surfcat/gasdb/internal/domain/document"
	"github.com/surfcat/gasdb/internal/domain/extremal"
	"github.com/surfcat/gasdb/internal/domain/merge"
	"github.com/surfcat/gasdb/internal/domain/surface"
	"github.com/surfcat/gasdb/internal/logger"
	"github.com/surfcat/gasdb/internal/metrics"
	"github.com/surfcat/gasdb/internal/usecase/fetch"
)

// Request selects the adsorbate, surrogate model and calculator.
type Request struct {
	Adsorbate  string
	Model      string
	Calculator string
}

// Service resolves low-coverage sites.
type Service struct {
	fetch     Fetcher
	tie       merge.TieIgnore
	streaming bool
}

// New creates a coverage service with the default tie ignore sets.
func New(f Fetcher) *Service {
	return &Service{fetch: f, tie: merge.DefaultTieIgnore()}
}

// WithTieIgnore overrides the keys dropped before the tie-check fingerprints.
func (s *Service) WithTieIgnore(tie merge.TieIgnore) *Service {
	s.tie = tie
	return s
}

// WithStreaming selects the single-pass aggregator, which avoids sorting
// large inputs and gives the same result.
func (s *Service) WithStreaming(on bool) *Service {
	s.streaming = on
	return s
}

// LowCoverage returns one outcome per surface, ordered by surface key. Each
// outcome document is tagged with merge.ProvenanceKey.
func (s *Service) LowCoverage(ctx context.Context, req Request) ([]merge.Outcome, error) {
	defer metrics.ObserveDuration("low_coverage", time.Now())
	log := logger.FromContext(ctx).With(zap.String("adsorbate", req.Adsorbate))

	var auth, approx []document.Document
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		auth, err = s.fetch.Adsorption(gctx, req.Adsorbate, fetch.Params{Calculator: req.Calculator})
		return err
	})
	g.Go(func() error {
		var err error
		approx, err = s.fetch.Approximate(gctx, req.Adsorbate, req.Model, req.Calculator)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("low coverage %s: %w", req.Adsorbate, err)
	}

	lowestAuth, err := s.lowest(auth)
	if err != nil {
		return nil, fmt.Errorf("low coverage %s: simulated: %w", req.Adsorbate, err)
	}
	lowestApprox, err := s.lowest(approx)
	if err != nil {
		return nil, fmt.Errorf("low coverage %s: estimated: %w", req.Adsorbate, err)
	}

	outcomes, err := merge.New(s.tie).Resolve(lowestAuth, lowestApprox)
	if err != nil {
		return nil, fmt.Errorf("low coverage %s: %w", req.Adsorbate, err)
	}

	counts := map[merge.State]int{}
	for _, o := range outcomes {
		counts[o.State]++
	}
	fields := []zap.Field{
		zap.Int("simulated_surfaces", len(lowestAuth)),
		zap.Int("estimated_surfaces", len(lowestApprox)),
	}
	for state, n := range counts {
		metrics.MergeOutcomesTotal.WithLabelValues(state.String()).Add(float64(n))
		fields = append(fields, zap.Int(state.String(), n))
	}
	log.Info("Resolved low-coverage sites", fields...)

	return outcomes, nil
}

// lowest picks the strongest-binding document per surface and writes the
// keyed (rounded) shift back into it, so tie-check fingerprints of the two
// sources agree on shift whenever their surface keys do.
func (s *Service) lowest(docs []document.Document) (map[surface.Key]document.Document, error) {
	var (
		picked map[surface.Key]document.Document
		err    error
	)
	if s.streaming {
		picked, err = extremal.LowestPerSurfaceStreaming(docs, extremal.DefaultEnergyKey)
	} else {
		picked, err = extremal.LowestPerSurface(docs, extremal.DefaultEnergyKey)
	}
	if err != nil {
		return nil, err
	}
	for k, doc := range picked {
		picked[k] = doc.With(surface.FieldShift, document.Number(k.Shift))
	}
	return picked, nil
}
