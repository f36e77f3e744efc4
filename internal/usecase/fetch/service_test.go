package fetch

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/surfcat/gasdb/internal/domain"
	"github.com/surfcat/gasdb/internal/domain/document"
	"github.com/surfcat/gasdb/internal/domain/query"
	"github.com/surfcat/gasdb/internal/policy"
)

// --- Mocks ---

type mockSource struct {
	fetchFn func(ctx context.Context, spec query.Spec, progress func(int)) ([]document.Document, error)
	specs   []query.Spec
}

func (m *mockSource) Fetch(ctx context.Context, spec query.Spec, progress func(int)) ([]document.Document, error) {
	m.specs = append(m.specs, spec)
	if m.fetchFn != nil {
		return m.fetchFn(ctx, spec, progress)
	}
	return nil, nil
}

func returning(docs ...document.Document) func(context.Context, query.Spec, func(int)) ([]document.Document, error) {
	return func(_ context.Context, _ query.Spec, progress func(int)) ([]document.Document, error) {
		for i := range docs {
			if progress != nil {
				progress(i + 1)
			}
		}
		return docs, nil
	}
}

func hasCondition(spec query.Spec, path string) bool {
	return slices.ContainsFunc(spec.Conditions(), func(c query.Condition) bool { return c.Path == path })
}

func conditionValue(spec query.Spec, path string) (any, bool) {
	for _, c := range spec.Conditions() {
		if c.Path == path && c.Op == query.OpEq {
			return c.Value, true
		}
	}
	return nil, false
}

// adsorptionDoc has exactly the fields of the default vasp adsorption projection.
func adsorptionDoc(mpid string, energy float64) document.Document {
	return document.MustFromMap(map[string]any{
		"mongo_id":                "id-" + mpid,
		"mpid":                    mpid,
		"formula":                 "Cu",
		"miller":                  []any{1, 1, 1},
		"shift":                   0.25,
		"top":                     true,
		"coordination":            "Cu-Cu",
		"neighborcoord":           []any{"Cu:Cu-Cu"},
		"nextnearestcoordination": "Cu",
		"energy":                  energy,
		"adsorbate":               "CO",
		"adsorption_site":         []any{0.0, 1.0, 2.0},
	})
}

// --- Adsorption ---

func TestAdsorption_DefaultPolicy(t *testing.T) {
	src := &mockSource{fetchFn: returning(
		adsorptionDoc("mp-30", -0.5),
		adsorptionDoc("mp-81", -0.2).Without("formula"), // incomplete, dropped
	)}
	svc := New(src, policy.Default())

	docs, err := svc.Adsorption(context.Background(), "CO", Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 valid doc, got %d", len(docs))
	}

	spec := src.specs[0]
	if spec.Collection() != "adsorption_vasp" {
		t.Errorf("collection = %s", spec.Collection())
	}
	if hasCondition(spec, "dft_settings.kpts") {
		t.Error("kpts condition must be dropped")
	}
	if v, ok := conditionValue(spec, "adsorbate"); !ok || v != "CO" {
		t.Errorf("adsorbate condition = %v, %v", v, ok)
	}
	if !hasCondition(spec, "adsorption_energy") {
		t.Error("expected energy window")
	}
}

func TestAdsorption_CustomFiltersAndProjection(t *testing.T) {
	src := &mockSource{}
	svc := New(src, policy.Default())

	_, err := svc.Adsorption(context.Background(), "H", Params{
		Calculator: policy.QE,
		Filters: []query.Condition{
			{Path: "adsorbate", Op: query.OpEq, Value: "CO"},
			{Path: "dft_settings.kpts", Op: query.OpEq, Value: []any{4, 4, 1}},
		},
		ExtraProjections: []query.Projection{{Field: "fwid", Path: "fwid"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spec := src.specs[0]
	if spec.Collection() != "adsorption_qe" {
		t.Errorf("collection = %s", spec.Collection())
	}
	if hasCondition(spec, "adsorption_energy") {
		t.Error("custom filters must replace the defaults")
	}
	if v, _ := conditionValue(spec, "adsorbate"); v != "H" {
		t.Errorf("adsorbate = %v, want the requested adsorbate", v)
	}
	if len(spec.Conditions()) != 1 {
		t.Errorf("conditions = %v", spec.Conditions())
	}
	if !slices.Contains(spec.Fields(), "fwid") {
		t.Errorf("fields = %v", spec.Fields())
	}
}

func TestAdsorption_UnknownCalculator(t *testing.T) {
	src := &mockSource{}
	_, err := New(src, policy.Default()).Adsorption(context.Background(), "CO", Params{Calculator: "gaussian"})
	if !errors.Is(err, domain.ErrUnknownCalculator) {
		t.Fatalf("expected ErrUnknownCalculator, got %v", err)
	}
	if len(src.specs) != 0 {
		t.Error("source must not be called")
	}
}

func TestAdsorption_SourceError(t *testing.T) {
	boom := errors.New("server selection timeout")
	src := &mockSource{fetchFn: func(context.Context, query.Spec, func(int)) ([]document.Document, error) {
		return nil, boom
	}}
	_, err := New(src, policy.Default()).Adsorption(context.Background(), "CO", Params{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected source error, got %v", err)
	}
}

func TestAdsorption_EmptyIsNotAnError(t *testing.T) {
	src := &mockSource{fetchFn: returning(adsorptionDoc("mp-1", 0).With("formula", document.String("")))}
	docs, err := New(src, policy.Default(), WithProgressEvery(1)).Adsorption(context.Background(), "CO", Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected no docs, got %d", len(docs))
	}
}

// --- Other categories ---

func TestSurface(t *testing.T) {
	src := &mockSource{}
	if _, err := New(src, policy.Default()).Surface(context.Background(), Params{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	spec := src.specs[0]
	if spec.Collection() != "surface_energy_vasp" {
		t.Errorf("collection = %s", spec.Collection())
	}
	if !hasCondition(spec, "max_force") || hasCondition(spec, "dft_settings.kpts") {
		t.Errorf("conditions = %v", spec.Conditions())
	}
}

func TestCatalog_RISMUsesQE(t *testing.T) {
	src := &mockSource{}
	if _, err := New(src, policy.Default()).Catalog(context.Background(), policy.RISM); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := src.specs[0].Collection(); got != "catalog_qe" {
		t.Errorf("collection = %s", got)
	}
}

func TestAttempted(t *testing.T) {
	src := &mockSource{}
	if _, err := New(src, policy.Default()).Attempted(context.Background(), "OH", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	spec := src.specs[0]
	if hasCondition(spec, "adsorption_energy") || hasCondition(spec, "fmax") {
		t.Error("attempted documents are not quality filtered")
	}
	if !hasCondition(spec, "dft_settings.gga") {
		t.Error("expected settings filters")
	}
	for _, p := range spec.Projections() {
		if p.Field == "neighborcoord" && p.Path != "fp_init.neighborcoord" {
			t.Errorf("neighborcoord <- %s, want the initial fingerprint", p.Path)
		}
	}
	if !slices.Contains(spec.Fields(), "adsorbate_rotation") {
		t.Errorf("fields = %v", spec.Fields())
	}
}

func TestApproximate(t *testing.T) {
	src := &mockSource{}
	if _, err := New(src, policy.Default()).Approximate(context.Background(), "CO", "", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var energy *query.Projection
	for _, p := range src.specs[0].Projections() {
		if p.Field == "energy" {
			energy = &p
		}
	}
	if energy == nil {
		t.Fatal("expected an energy projection")
	}
	if energy.Path != "predictions.adsorption_energy.CO.model0" || !slices.Equal(energy.Elements, []int{-1, 1}) {
		t.Errorf("energy <- %s %v", energy.Path, energy.Elements)
	}
}

// --- Predictions ---

func TestCatalogWithPredictions(t *testing.T) {
	sample := document.MustFromMap(map[string]any{
		"predictions": map[string]any{
			"adsorption_energy": map[string]any{
				"CO": map[string]any{"model0": []any{}},
				"H":  map[string]any{"model1": []any{}},
			},
			"orr_onset_potential_4e": map[string]any{"model0": []any{}},
		},
	})
	src := &mockSource{}
	src.fetchFn = func(_ context.Context, spec query.Spec, _ func(int)) ([]document.Document, error) {
		if spec.Sample() == 1 {
			return []document.Document{sample}, nil
		}
		return nil, nil
	}

	svc := New(src, policy.Default())
	if _, err := svc.CatalogWithPredictions(context.Background(), "", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(src.specs) != 2 {
		t.Fatalf("expected discovery + fetch, got %d calls", len(src.specs))
	}

	var paths []string
	for _, p := range src.specs[1].Projections() {
		if p.Field == p.Path && len(p.Elements) == 1 && p.Elements[0] == -1 {
			paths = append(paths, p.Path)
		}
	}
	want := []string{
		"predictions.adsorption_energy.CO.model0",
		"predictions.adsorption_energy.CO.model1",
		"predictions.adsorption_energy.H.model0",
		"predictions.adsorption_energy.H.model1",
		"predictions.orr_onset_potential_4e.model0",
	}
	if !slices.Equal(paths, want) {
		t.Errorf("prediction projections = %v", paths)
	}
	if !slices.Contains(src.specs[1].Fields(), "predictions") {
		t.Errorf("fields = %v", src.specs[1].Fields())
	}
}

func TestDiscoverPredictions_EmptyCatalog(t *testing.T) {
	keys, err := New(&mockSource{}, policy.Default()).DiscoverPredictions(context.Background(), policy.VASP)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !keys.Empty() {
		t.Errorf("keys = %+v", keys)
	}
}
