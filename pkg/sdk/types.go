package gasdb

import (
	"github.com/surfcat/gasdb/internal/domain/document"
	"github.com/surfcat/gasdb/internal/domain/merge"
	fetchuc "github.com/surfcat/gasdb/internal/usecase/fetch"
	purgeuc "github.com/surfcat/gasdb/internal/usecase/purge"
)

// Document is a JSON-compatible document: nested maps, slices, strings,
// float64 numbers, bools and nils.
type Document = map[string]any

// Site is the best-known lowest-energy site of one surface.
type Site struct {
	MaterialID string
	Miller     string
	Shift      float64
	Top        bool
	// State tells how the surface was resolved: "auth_wins", "only_auth",
	// "only_approx", "tie_authoritative" or "tie_approximate".
	State string
	// Authoritative is true when Document comes from a finished simulation.
	Authoritative bool
	Energy        float64
	Document      Document
}

// PurgeReport counts what a purge touched.
type PurgeReport struct {
	Defused           int64
	AtomsDeleted      int64
	AdsorptionDeleted map[string]int64 // collection → documents
}

// Predictions names the surrogate predictions a catalog carries.
type Predictions struct {
	Adsorbates       []string
	AdsorptionModels []string
	OnsetModels      []string
}

func toDocuments(docs []document.Document) []Document {
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = d.ToMap()
	}
	return out
}

func toSite(o merge.Outcome) Site {
	energy, _ := o.Doc.Number("energy")
	return Site{
		MaterialID:    o.Key.MaterialID,
		Miller:        o.Key.Miller,
		Shift:         o.Key.Shift,
		Top:           o.Key.Top,
		State:         o.State.String(),
		Authoritative: o.State.Authoritative(),
		Energy:        energy,
		Document:      o.Doc.ToMap(),
	}
}

func toPurgeReport(r purgeuc.Report) PurgeReport {
	return PurgeReport{
		Defused:           r.Defused,
		AtomsDeleted:      r.AtomsDeleted,
		AdsorptionDeleted: r.AdsorptionDeleted,
	}
}

func toPredictions(k fetchuc.PredictionKeys) Predictions {
	return Predictions{
		Adsorbates:       k.Adsorbates,
		AdsorptionModels: k.AdsorptionModels,
		OnsetModels:      k.OnsetModels,
	}
}

func toRotations(rs []map[string]float64) []document.Map {
	if len(rs) == 0 {
		return nil
	}
	out := make([]document.Map, len(rs))
	for i, r := range rs {
		m := make(document.Map, len(r))
		for k, v := range r {
			m[k] = document.Number(v)
		}
		out[i] = m
	}
	return out
}
