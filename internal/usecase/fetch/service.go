// Package fetch pulls each category of document (adsorption results, surface
// energies, catalog sites, attempted calculations, surrogate estimates) with
// the default policy applied, and drops incomplete documents.
package fetch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/surfcat/gasdb/internal/domain/document"
	"github.com/surfcat/gasdb/internal/domain/query"
	"github.com/surfcat/gasdb/internal/domain/validity"
	"github.com/surfcat/gasdb/internal/logger"
	"github.com/surfcat/gasdb/internal/metrics"
	"github.com/surfcat/gasdb/internal/policy"
)

// DefaultProgressEvery is how many documents pass between progress log lines.
const DefaultProgressEvery = 10000

// kpts is chosen per structure at submission time, so exact-match filters on
// it never hit.
const kptsPath = "dft_settings.kpts"

// Params customizes a fetch. The zero value applies the default policy.
type Params struct {
	// Calculator defaults to policy.DefaultCalculator.
	Calculator string
	// Filters replace the default match conditions when non-nil.
	Filters []query.Condition
	// ExtraProjections are added to the default projection; a field that is
	// already projected is redirected to the new path.
	ExtraProjections []query.Projection
}

func (p Params) calculator() string {
	if p.Calculator == "" {
		return policy.DefaultCalculator
	}
	return p.Calculator
}

// Service fetches documents through a Source.
type Service struct {
	source        Source
	policy        *policy.Provider
	progressEvery int
}

// Option configures a Service.
type Option func(*Service)

// WithProgressEvery sets how often fetch progress is logged. n <= 0 disables it.
func WithProgressEvery(n int) Option {
	return func(s *Service) { s.progressEvery = n }
}

// New creates a fetch service.
func New(source Source, p *policy.Provider, opts ...Option) *Service {
	s := &Service{source: source, policy: p, progressEvery: DefaultProgressEvery}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Policy returns the policy provider the service applies.
func (s *Service) Policy() *policy.Provider { return s.policy }

// Adsorption returns relaxed adsorption documents of adsorbate that pass the
// quality window. An empty adsorbate fetches all adsorbates.
func (s *Service) Adsorption(ctx context.Context, adsorbate string, p Params) ([]document.Document, error) {
	calc := p.calculator()
	if err := s.policy.CheckCalculator(calc); err != nil {
		return nil, err
	}

	conds := p.Filters
	if conds == nil {
		conds = s.policy.AdsorptionFilters(adsorbate, calc)
	}
	b := query.New(s.policy.AdsorptionCollection(calc)).Match(conds...).Without(kptsPath)
	if adsorbate != "" {
		b.Without("adsorbate").Where("adsorbate", adsorbate)
	}
	b.Projections(s.policy.AdsorptionProjection(calc)...).Projections(p.ExtraProjections...)

	return s.run(ctx, "adsorption", b)
}

// Surface returns surface energy documents that pass the quality limits.
func (s *Service) Surface(ctx context.Context, p Params) ([]document.Document, error) {
	calc := p.calculator()
	if err := s.policy.CheckCalculator(calc); err != nil {
		return nil, err
	}

	conds := p.Filters
	if conds == nil {
		conds = s.policy.SurfaceFilters(calc)
	}
	b := query.New(s.policy.SurfaceCollection(calc)).
		Match(conds...).
		Without(kptsPath).
		Projections(s.policy.SurfaceProjection(calc)...).
		Projections(p.ExtraProjections...)

	return s.run(ctx, "surface", b)
}

// Catalog returns every catalog site of calc.
func (s *Service) Catalog(ctx context.Context, calc string) ([]document.Document, error) {
	if calc == "" {
		calc = policy.DefaultCalculator
	}
	if err := s.policy.CheckCalculator(calc); err != nil {
		return nil, err
	}
	b := query.New(s.policy.CatalogCollection(calc)).Projections(s.policy.CatalogProjection()...)
	return s.run(ctx, "catalog", b)
}

// Attempted returns every adsorption calculation of adsorbate that was
// submitted with the default settings of calc, converged or not. Fingerprint
// fields describe the unrelaxed structure so that they line up with the catalog.
func (s *Service) Attempted(ctx context.Context, adsorbate, calc string) ([]document.Document, error) {
	if calc == "" {
		calc = policy.DefaultCalculator
	}
	if err := s.policy.CheckCalculator(calc); err != nil {
		return nil, err
	}

	b := query.New(s.policy.AdsorptionCollection(calc)).
		Match(s.policy.SettingsFilters(calc)...).
		Without(kptsPath)
	if adsorbate != "" {
		b.Where("adsorbate", adsorbate)
	}
	b.Projections(s.policy.AttemptedProjection(calc)...)

	return s.run(ctx, "attempted", b)
}

// Approximate returns catalog sites carrying the latest surrogate estimate of
// adsorbate by model under the energy key.
func (s *Service) Approximate(ctx context.Context, adsorbate, model, calc string) ([]document.Document, error) {
	if calc == "" {
		calc = policy.DefaultCalculator
	}
	if model == "" {
		model = policy.DefaultModel
	}
	if err := s.policy.CheckCalculator(calc); err != nil {
		return nil, err
	}

	// Each prediction is a [timestamp, energy] pair; take the energy of the newest.
	b := query.New(s.policy.CatalogCollection(calc)).
		Projections(s.policy.CatalogProjection()...).
		ProjectElem("energy", policy.PredictionPath(adsorbate, model), -1, 1)

	return s.run(ctx, "approximate", b)
}

// run builds the spec, fetches, and applies the validity filter against the
// projected fields.
func (s *Service) run(ctx context.Context, stage string, b *query.Builder) ([]document.Document, error) {
	spec, err := b.Build()
	if err != nil {
		return nil, err
	}
	collection := spec.Collection()
	log := logger.FromContext(ctx).With(zap.String("stage", stage), zap.String("collection", collection))

	var progress func(int)
	if s.progressEvery > 0 {
		progress = func(n int) {
			if n%s.progressEvery == 0 {
				log.Debug("Fetching documents", zap.Int("fetched", n))
			}
		}
	}

	docs, err := s.source.Fetch(ctx, spec, progress)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", stage, err)
	}
	metrics.DocumentsFetchedTotal.WithLabelValues(collection).Add(float64(len(docs)))

	valid, warn := validity.Filter(docs, spec.Fields())
	dropped := len(docs) - len(valid)
	metrics.DocumentsDroppedTotal.WithLabelValues(collection).Add(float64(dropped))
	if warn != nil {
		warn.Stage = stage
		metrics.EmptyResultsTotal.WithLabelValues(collection).Inc()
		log.Warn("No valid documents", zap.Int("fetched", len(docs)), zap.Error(warn))
		return valid, nil
	}

	log.Info("Fetched documents", zap.Int("fetched", len(docs)), zap.Int("dropped", dropped))
	return valid, nil
}
