// Package reconcile matches catalog candidates against attempted calculations.
package reconcile

import (
	"fmt"

	"github.com/surfcat/gasdb/internal/domain/document"
	"github.com/surfcat/gasdb/internal/domain/fingerprint"
)

// Default ignore sets for catalog/attempt reconciliation.
var (
	// CatalogIgnore masks catalog-only structural fields.
	CatalogIgnore = []string{"natoms"}
	// AttemptedIgnore masks result fields absent from the catalog.
	AttemptedIgnore = []string{"adsorbate", "energy"}
)

// FindUnattempted returns the candidates whose fingerprint (under candidateIgnore)
// matches no attempted fingerprint (under attemptedIgnore).
//
// Candidates sharing a fingerprint collapse into one: the last one wins but takes
// the position of the first. Output order is otherwise the input order.
func FindUnattempted(
	candidates, attempted []document.Document,
	candidateIgnore, attemptedIgnore []string,
) ([]document.Document, error) {
	order := make([]fingerprint.Fingerprint, 0, len(candidates))
	byHash := make(map[fingerprint.Fingerprint]document.Document, len(candidates))
	for i, c := range candidates {
		fp, err := fingerprint.Of(c, candidateIgnore)
		if err != nil {
			return nil, fmt.Errorf("candidate %d: %w", i, err)
		}
		if _, seen := byHash[fp]; !seen {
			order = append(order, fp)
		}
		byHash[fp] = c
	}

	for i, a := range attempted {
		fp, err := fingerprint.Of(a, attemptedIgnore)
		if err != nil {
			return nil, fmt.Errorf("attempted %d: %w", i, err)
		}
		delete(byHash, fp)
	}

	out := make([]document.Document, 0, len(byHash))
	for _, fp := range order {
		if d, ok := byHash[fp]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}
