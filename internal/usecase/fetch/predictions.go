package fetch

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/surfcat/gasdb/internal/domain/document"
	"github.com/surfcat/gasdb/internal/domain/query"
	"github.com/surfcat/gasdb/internal/logger"
	"github.com/surfcat/gasdb/internal/policy"
)

// PredictionKeys names the surrogate predictions present in a catalog.
type PredictionKeys struct {
	// Adsorbates and AdsorptionModels span the adsorption energy predictions;
	// every combination is projected.
	Adsorbates       []string
	AdsorptionModels []string
	// OnsetModels lists the models with ORR onset potential predictions.
	OnsetModels []string
}

// Empty reports whether no prediction was found.
func (k PredictionKeys) Empty() bool {
	return len(k.Adsorbates) == 0 && len(k.OnsetModels) == 0
}

// DiscoverPredictions samples one catalog document and reads the prediction
// layout from it. Catalog documents share one layout, so one sample is enough.
func (s *Service) DiscoverPredictions(ctx context.Context, calc string) (PredictionKeys, error) {
	spec, err := query.New(s.policy.CatalogCollection(calc)).
		Project("predictions", "predictions").
		Sample(1).
		Build()
	if err != nil {
		return PredictionKeys{}, err
	}
	docs, err := s.source.Fetch(ctx, spec, nil)
	if err != nil {
		return PredictionKeys{}, fmt.Errorf("sample %s: %w", spec.Collection(), err)
	}
	if len(docs) == 0 {
		return PredictionKeys{}, nil
	}

	preds, _ := docs[0].Get("predictions")
	pm, _ := preds.(document.Map)

	var keys PredictionKeys
	if ads, ok := pm["adsorption_energy"].(document.Map); ok {
		models := map[string]struct{}{}
		for a, byModel := range ads {
			keys.Adsorbates = append(keys.Adsorbates, a)
			if bm, ok := byModel.(document.Map); ok {
				for m := range bm {
					models[m] = struct{}{}
				}
			}
		}
		for m := range models {
			keys.AdsorptionModels = append(keys.AdsorptionModels, m)
		}
	}
	if orr, ok := pm["orr_onset_potential_4e"].(document.Map); ok {
		for m := range orr {
			keys.OnsetModels = append(keys.OnsetModels, m)
		}
	}
	slices.Sort(keys.Adsorbates)
	slices.Sort(keys.AdsorptionModels)
	slices.Sort(keys.OnsetModels)
	return keys, nil
}

// CatalogWithPredictions returns catalog sites along with their surrogate
// predictions. With latest set, each prediction history is reduced to its
// newest [timestamp, value] entry.
func (s *Service) CatalogWithPredictions(ctx context.Context, calc string, latest bool) ([]document.Document, error) {
	if calc == "" {
		calc = policy.DefaultCalculator
	}
	if err := s.policy.CheckCalculator(calc); err != nil {
		return nil, err
	}

	keys, err := s.DiscoverPredictions(ctx, calc)
	if err != nil {
		return nil, err
	}
	if keys.Empty() {
		logger.FromContext(ctx).Warn("Catalog carries no predictions",
			zap.String("collection", s.policy.CatalogCollection(calc)))
	}

	var elems []int
	if latest {
		elems = []int{-1}
	}
	b := query.New(s.policy.CatalogCollection(calc)).Projections(s.policy.CatalogProjection()...)
	for _, a := range keys.Adsorbates {
		for _, m := range keys.AdsorptionModels {
			path := policy.PredictionPath(a, m)
			b.ProjectElem(path, path, elems...)
		}
	}
	for _, m := range keys.OnsetModels {
		path := policy.OnsetPotentialPath(m)
		b.ProjectElem(path, path, elems...)
	}

	return s.run(ctx, "catalog_predictions", b)
}
