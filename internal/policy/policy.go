// Package policy provides the default filters, projections and simulation
// settings used to fetch documents. Every accessor builds a fresh value, so
// callers may modify what they get without affecting later calls.
package policy

import (
	"fmt"
	"maps"
	"slices"

	"github.com/surfcat/gasdb/internal/domain"
	"github.com/surfcat/gasdb/internal/domain/document"
	"github.com/surfcat/gasdb/internal/domain/query"
)

// Calculators.
const (
	VASP = "vasp"
	QE   = "qe"
	RISM = "rism"
)

// DefaultCalculator is used when a request names none.
const DefaultCalculator = VASP

// DefaultModel is the surrogate model tag used when a request names none.
const DefaultModel = "model0"

// Window bounds accepted adsorption energies and relaxation quality.
type Window struct {
	EnergyMin            float64 `yaml:"energy_min"`
	EnergyMax            float64 `yaml:"energy_max"`
	MaxForce             float64 `yaml:"max_force"`
	MaxAdsorbateMovement float64 `yaml:"max_adsorbate_movement"`
	MaxBareSlabMovement  float64 `yaml:"max_bare_slab_movement"`
	MaxSurfaceMovement   float64 `yaml:"max_surface_movement"`
}

// Setting is one named simulation parameter.
type Setting struct {
	Name  string
	Value any
}

// Provider serves default policies. Build it with Default.
type Provider struct {
	windows         map[string]Window
	fallback        Window
	surfaceMaxForce float64
	surfaceMaxMove  float64
	adslab          map[string][]Setting
	rotation        map[string]float64
}

// Default returns a provider with the built-in policy.
func Default() *Provider {
	base := Window{
		EnergyMin: -50, EnergyMax: 50,
		MaxForce: 0.5, MaxAdsorbateMovement: 1.5, MaxBareSlabMovement: 0.5, MaxSurfaceMovement: 1.5,
	}
	withEnergy := func(lo, hi float64) Window {
		w := base
		w.EnergyMin, w.EnergyMax = lo, hi
		return w
	}

	vasp := []Setting{
		{"gga", "RP"},
		{"pp_version", "5.4"},
		{"encut", 350},
		{"isym", 0},
		{"ibrion", 2},
		{"nsw", 200},
		{"ediffg", -0.03},
		{"kpts", "auto"},
	}
	qe := []Setting{
		{"xcf", "rpbe"},
		{"encut", 500},
		{"spol", 0},
		{"psps", "GBRV"},
		{"sigma", 0.1},
		{"kpts", "auto"},
	}
	rism := append(slices.Clone(qe),
		Setting{"esm_bc", "bc1"},
		Setting{"laue_starting_right", -1},
	)

	return &Provider{
		windows: map[string]Window{
			"CO":  withEnergy(-7, 5),
			"H":   withEnergy(-3.5, 2.5),
			"O":   withEnergy(-4, 9),
			"OH":  withEnergy(-3.5, 4),
			"OOH": withEnergy(0, 9),
			"N":   withEnergy(-5, 5),
		},
		fallback:        base,
		surfaceMaxForce: 0.5,
		surfaceMaxMove:  0.5,
		adslab:          map[string][]Setting{VASP: vasp, QE: qe, RISM: rism},
		rotation:        map[string]float64{"phi": 0, "theta": 0, "psi": 0},
	}
}

// WithWindow returns a copy of p using w for adsorbate. An empty adsorbate sets the fallback.
func (p *Provider) WithWindow(adsorbate string, w Window) *Provider {
	c := p.clone()
	if adsorbate == "" {
		c.fallback = w
		return c
	}
	c.windows[adsorbate] = w
	return c
}

// WithSurfaceLimits returns a copy of p with the surface-energy quality limits replaced.
func (p *Provider) WithSurfaceLimits(maxForce, maxMovement float64) *Provider {
	c := p.clone()
	c.surfaceMaxForce = maxForce
	c.surfaceMaxMove = maxMovement
	return c
}

func (p *Provider) clone() *Provider {
	c := *p
	c.windows = maps.Clone(p.windows)
	c.adslab = make(map[string][]Setting, len(p.adslab))
	for k, v := range p.adslab {
		c.adslab[k] = slices.Clone(v)
	}
	c.rotation = maps.Clone(p.rotation)
	return &c
}

// Calculators lists the supported calculators in a stable order.
func (p *Provider) Calculators() []string {
	return []string{VASP, QE, RISM}
}

// CheckCalculator returns ErrUnknownCalculator for unsupported names.
func (p *Provider) CheckCalculator(calc string) error {
	if _, ok := p.adslab[calc]; !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownCalculator, calc)
	}
	return nil
}

// AdsorptionCollection is the collection tag of adsorption results for calc.
func (p *Provider) AdsorptionCollection(calc string) string { return "adsorption_" + calc }

// SurfaceCollection is the collection tag of surface energy results for calc.
func (p *Provider) SurfaceCollection(calc string) string { return "surface_energy_" + calc }

// CatalogCollection is the collection tag of catalog sites for calc. RISM
// shares the QE catalog: its bulks carry no potential or solvent.
func (p *Provider) CatalogCollection(calc string) string {
	if calc == RISM {
		calc = QE
	}
	return "catalog_" + calc
}

// AtomsCollection holds raw structures keyed by FireWorks ID.
func (p *Provider) AtomsCollection() string { return "atoms" }

// LaunchpadCollection holds FireWorks job documents.
func (p *Provider) LaunchpadCollection() string { return "fireworks" }

// Window returns the quality window for adsorbate.
func (p *Provider) Window(adsorbate string) Window {
	if w, ok := p.windows[adsorbate]; ok {
		return w
	}
	return p.fallback
}

// AdsorptionFilters returns the default match conditions for adsorption
// documents of adsorbate computed with calc. An empty adsorbate matches any.
func (p *Provider) AdsorptionFilters(adsorbate, calc string) []query.Condition {
	w := p.Window(adsorbate)
	conds := []query.Condition{
		{Path: "adsorption_energy", Op: query.OpGt, Value: w.EnergyMin},
		{Path: "adsorption_energy", Op: query.OpLt, Value: w.EnergyMax},
		{Path: "fmax", Op: query.OpLt, Value: w.MaxForce},
		{Path: "movement_data.max_adsorbate_movement", Op: query.OpLt, Value: w.MaxAdsorbateMovement},
		{Path: "movement_data.max_bare_slab_movement", Op: query.OpLt, Value: w.MaxBareSlabMovement},
		{Path: "movement_data.max_surface_movement", Op: query.OpLt, Value: w.MaxSurfaceMovement},
	}
	conds = append(conds, p.SettingsFilters(calc)...)
	if adsorbate != "" {
		conds = append(conds, query.Condition{Path: "adsorbate", Op: query.OpEq, Value: adsorbate})
	}
	return conds
}

// SettingsFilters matches documents computed with the default adslab settings of calc.
func (p *Provider) SettingsFilters(calc string) []query.Condition {
	settings := p.AdslabSettings(calc)
	conds := make([]query.Condition, 0, len(settings))
	for _, s := range settings {
		conds = append(conds, query.Condition{Path: "dft_settings." + s.Name, Op: query.OpEq, Value: s.Value})
	}
	return conds
}

// SurfaceFilters returns the default match conditions for surface energy documents.
func (p *Provider) SurfaceFilters(calc string) []query.Condition {
	conds := []query.Condition{
		{Path: "max_force", Op: query.OpLt, Value: p.surfaceMaxForce},
		{Path: "max_surface_movement", Op: query.OpLt, Value: p.surfaceMaxMove},
	}
	return append(conds, p.SettingsFilters(calc)...)
}

// AdslabSettings returns the default simulation settings of calc, in a stable order.
func (p *Provider) AdslabSettings(calc string) []Setting {
	return slices.Clone(p.adslab[calc])
}

// DefaultRotation is the adsorbate rotation used when a request gives none.
func (p *Provider) DefaultRotation() document.Map {
	m := make(document.Map, len(p.rotation))
	for k, v := range p.rotation {
		m[k] = document.Number(v)
	}
	return m
}

// AdsorptionProjection returns the projection of relaxed adsorption documents.
func (p *Provider) AdsorptionProjection(calc string) []query.Projection {
	ps := []query.Projection{
		{Field: "mongo_id", Path: "_id"},
		{Field: "mpid", Path: "mpid"},
		{Field: "formula", Path: "formula"},
		{Field: "miller", Path: "miller"},
		{Field: "shift", Path: "shift"},
		{Field: "top", Path: "top"},
		{Field: "coordination", Path: "fp_final.coordination"},
		{Field: "neighborcoord", Path: "fp_final.neighborcoord"},
		{Field: "nextnearestcoordination", Path: "fp_final.nextnearestcoordination"},
		{Field: "energy", Path: "adsorption_energy"},
		{Field: "adsorbate", Path: "adsorbate"},
		{Field: "adsorption_site", Path: "adsorption_site"},
	}
	if calc == RISM {
		ps = append(ps, query.Projection{Field: "applied_potential", Path: "dft_settings.applied_potential"})
	}
	return ps
}

// AttemptedProjection points the fingerprint at the unrelaxed structure so that
// attempted documents line up with catalog sites.
func (p *Provider) AttemptedProjection(calc string) []query.Projection {
	return override(p.AdsorptionProjection(calc),
		query.Projection{Field: "coordination", Path: "fp_init.coordination"},
		query.Projection{Field: "neighborcoord", Path: "fp_init.neighborcoord"},
		query.Projection{Field: "nextnearestcoordination", Path: "fp_init.nextnearestcoordination"},
		query.Projection{Field: "adsorbate_rotation", Path: "adsorbate_rotation"},
		query.Projection{Field: "adsorption_site", Path: "initial_adsorption_site"},
	)
}

// override replaces projections of the same field in place and appends the rest.
func override(ps []query.Projection, extra ...query.Projection) []query.Projection {
	for _, e := range extra {
		i := slices.IndexFunc(ps, func(p query.Projection) bool { return p.Field == e.Field })
		if i >= 0 {
			ps[i] = e
			continue
		}
		ps = append(ps, e)
	}
	return ps
}

// SurfaceProjection returns the projection of surface energy documents.
func (p *Provider) SurfaceProjection(calc string) []query.Projection {
	return []query.Projection{
		{Field: "mongo_id", Path: "_id"},
		{Field: "mpid", Path: "mpid"},
		{Field: "formula", Path: "formula"},
		{Field: "miller", Path: "miller"},
		{Field: "shift", Path: "shift"},
		{Field: "intercept", Path: "intercept"},
		{Field: "intercept_uncertainty", Path: "intercept_uncertainty"},
	}
}

// CatalogProjection returns the projection of catalog site documents.
func (p *Provider) CatalogProjection() []query.Projection {
	return []query.Projection{
		{Field: "mongo_id", Path: "_id"},
		{Field: "mpid", Path: "mpid"},
		{Field: "formula", Path: "formula"},
		{Field: "miller", Path: "miller"},
		{Field: "shift", Path: "shift"},
		{Field: "top", Path: "top"},
		{Field: "natoms", Path: "natoms"},
		{Field: "coordination", Path: "coordination"},
		{Field: "neighborcoord", Path: "neighborcoord"},
		{Field: "nextnearestcoordination", Path: "nextnearestcoordination"},
		{Field: "adsorption_site", Path: "adsorption_site"},
	}
}

// PredictionPath locates the surrogate predictions of adsorbate by model.
func PredictionPath(adsorbate, model string) string {
	return "predictions.adsorption_energy." + adsorbate + "." + model
}

// OnsetPotentialPath locates the 4e- ORR onset potential predictions of model.
func OnsetPotentialPath(model string) string {
	return "predictions.orr_onset_potential_4e." + model
}
