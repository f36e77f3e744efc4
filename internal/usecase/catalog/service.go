// Package catalog finds catalog sites that have not been simulated yet.
package catalog

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/surfcat/gasdb/internal/domain/document"
	"github.com/surfcat/gasdb/internal/domain/reconcile"
	"github.com/surfcat/gasdb/internal/logger"
	"github.com/surfcat/gasdb/internal/metrics"
)

// Request selects the adsorbate, calculator and rotations to check.
type Request struct {
	Adsorbate  string
	Calculator string
	// Rotations to simulate every site with. Empty means the default rotation.
	Rotations []document.Map
}

// Service answers unsimulated-catalog queries.
type Service struct {
	fetch           Fetcher
	rotations       RotationProvider
	candidateIgnore []string
	attemptedIgnore []string
}

// New creates a catalog service with the default ignore sets.
func New(f Fetcher, r RotationProvider) *Service {
	return &Service{
		fetch:           f,
		rotations:       r,
		candidateIgnore: reconcile.CatalogIgnore,
		attemptedIgnore: reconcile.AttemptedIgnore,
	}
}

// WithIgnore overrides the keys dropped from candidate and attempted fingerprints.
func (s *Service) WithIgnore(candidate, attempted []string) *Service {
	s.candidateIgnore = candidate
	s.attemptedIgnore = attempted
	return s
}

// Unsimulated returns one document per catalog site and rotation for which no
// calculation of req.Adsorbate was attempted. Each document carries the
// rotation under reconcile.RotationKey.
func (s *Service) Unsimulated(ctx context.Context, req Request) ([]document.Document, error) {
	defer metrics.ObserveDuration("unsimulated", time.Now())
	log := logger.FromContext(ctx).With(zap.String("adsorbate", req.Adsorbate))

	var catalogDocs, attempted []document.Document
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		catalogDocs, err = s.fetch.Catalog(gctx, req.Calculator)
		return err
	})
	g.Go(func() error {
		var err error
		attempted, err = s.fetch.Attempted(gctx, req.Adsorbate, req.Calculator)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("unsimulated %s: %w", req.Adsorbate, err)
	}

	rotations := req.Rotations
	if len(rotations) == 0 {
		rotations = []document.Map{s.rotations.DefaultRotation()}
	}
	candidates := reconcile.ExpandRotations(catalogDocs, rotations)

	out, err := reconcile.FindUnattempted(candidates, attempted, s.candidateIgnore, s.attemptedIgnore)
	if err != nil {
		return nil, fmt.Errorf("unsimulated %s: %w", req.Adsorbate, err)
	}

	metrics.UnattemptedCandidates.WithLabelValues(req.Adsorbate).Set(float64(len(out)))
	log.Info("Reconciled catalog",
		zap.Int("sites", len(catalogDocs)),
		zap.Int("rotations", len(rotations)),
		zap.Int("attempted", len(attempted)),
		zap.Int("unsimulated", len(out)),
	)
	return out, nil
}
