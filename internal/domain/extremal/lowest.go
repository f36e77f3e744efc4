// Package extremal keeps the lowest-energy document per surface.
package extremal

import (
	"cmp"
	"slices"

	"github.com/surfcat/gasdb/internal/domain/document"
	"github.com/surfcat/gasdb/internal/domain/surface"
)

// DefaultEnergyKey is the document field compared by the aggregator.
const DefaultEnergyKey = "energy"

type entry struct {
	key    surface.Key
	energy float64
	doc    document.Document
}

// LowestPerSurface groups docs by surface key and keeps the document with the
// lowest energy in each group. Ties keep the document that comes first in docs.
// Any document with a missing or non-numeric key field or energy fails the call.
func LowestPerSurface(docs []document.Document, energyKey string) (map[surface.Key]document.Document, error) {
	entries, err := collect(docs, energyKey)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		return cmp.Compare(a.energy, b.energy)
	})

	out := make(map[surface.Key]document.Document)
	for _, e := range entries {
		if _, seen := out[e.key]; seen {
			continue
		}
		out[e.key] = e.doc
	}
	return out, nil
}

// LowestPerSurfaceStreaming returns the same result as LowestPerSurface with a
// single running-minimum pass instead of a sort.
func LowestPerSurfaceStreaming(docs []document.Document, energyKey string) (map[surface.Key]document.Document, error) {
	best := make(map[surface.Key]entry)
	for _, d := range docs {
		e, err := newEntry(d, energyKey)
		if err != nil {
			return nil, err
		}
		cur, ok := best[e.key]
		if !ok || e.energy < cur.energy {
			best[e.key] = e
		}
	}

	out := make(map[surface.Key]document.Document, len(best))
	for k, e := range best {
		out[k] = e.doc
	}
	return out, nil
}

func collect(docs []document.Document, energyKey string) ([]entry, error) {
	entries := make([]entry, 0, len(docs))
	for _, d := range docs {
		e, err := newEntry(d, energyKey)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func newEntry(d document.Document, energyKey string) (entry, error) {
	key, err := surface.FromDocument(d)
	if err != nil {
		return entry{}, err
	}
	energy, err := d.Number(energyKey)
	if err != nil {
		return entry{}, err
	}
	return entry{key: key, energy: energy, doc: d}, nil
}
