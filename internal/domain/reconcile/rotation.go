package reconcile

import "github.com/surfcat/gasdb/internal/domain/document"

// RotationKey tags a candidate with the adsorbate rotation it would be simulated with.
const RotationKey = "adsorbate_rotation"

// ExpandRotations returns one copy of every document per rotation, tagged under
// RotationKey. Documents vary slowest: all rotations of docs[0] come first.
func ExpandRotations(docs []document.Document, rotations []document.Map) []document.Document {
	out := make([]document.Document, 0, len(docs)*len(rotations))
	for _, d := range docs {
		for _, r := range rotations {
			out = append(out, d.With(RotationKey, cloneMap(r)))
		}
	}
	return out
}

func cloneMap(m document.Map) document.Map {
	c := make(document.Map, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
