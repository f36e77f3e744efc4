// Package merge combines authoritative and approximate per-surface results into
// one best-known document per surface.
package merge

import (
	"fmt"
	"slices"

	"github.com/surfcat/gasdb/internal/domain/document"
	"github.com/surfcat/gasdb/internal/domain/extremal"
	"github.com/surfcat/gasdb/internal/domain/fingerprint"
	"github.com/surfcat/gasdb/internal/domain/surface"
)

// ProvenanceKey is the field added to every merged document; true marks authoritative data.
const ProvenanceKey = "authoritative"

// State records how a surface was resolved.
type State int

// Resolution states.
const (
	OnlyApprox State = iota
	AuthWins
	TieAuthoritative
	TieApproximate
	OnlyAuth
)

var stateNames = [...]string{"only_approx", "auth_wins", "tie_authoritative", "tie_approximate", "only_auth"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Authoritative reports whether the resolved document came from the authoritative set.
func (s State) Authoritative() bool {
	return s == AuthWins || s == TieAuthoritative || s == OnlyAuth
}

// TieIgnore lists the keys each side drops before the tie-check fingerprint,
// so that structural residue of either source does not block a match.
type TieIgnore struct {
	Authoritative []string
	Approximate   []string
}

// Symmetric applies the same ignore set to both sides.
func Symmetric(keys ...string) TieIgnore {
	return TieIgnore{Authoritative: keys, Approximate: keys}
}

// DefaultTieIgnore masks energies plus the fields only one source carries.
func DefaultTieIgnore() TieIgnore {
	return TieIgnore{
		Authoritative: []string{"energy", "adsorbate", "adsorption_site"},
		Approximate:   []string{"energy", "natoms", "adsorption_site", "predictions"},
	}
}

// Outcome is the resolution of one surface.
type Outcome struct {
	Key   surface.Key
	State State
	Doc   document.Document
}

// Merger resolves surfaces. The zero value is not usable; build it with New.
type Merger struct {
	energyKey     string
	provenanceKey string
	tie           TieIgnore
}

// New creates a Merger comparing DefaultEnergyKey and tagging ProvenanceKey.
func New(tie TieIgnore) *Merger {
	return &Merger{
		energyKey:     extremal.DefaultEnergyKey,
		provenanceKey: ProvenanceKey,
		tie:           tie,
	}
}

// WithEnergyKey sets the compared energy field.
func (m *Merger) WithEnergyKey(key string) *Merger {
	m.energyKey = key
	return m
}

// WithProvenanceKey sets the provenance tag field.
func (m *Merger) WithProvenanceKey(key string) *Merger {
	m.provenanceKey = key
	return m
}

// Resolve decides every surface in the union of both maps. Outcomes are ordered
// by surface key. Input documents are never modified; tagged copies are returned.
func (m *Merger) Resolve(auth, approx map[surface.Key]document.Document) ([]Outcome, error) {
	out := make([]Outcome, 0, len(approx)+len(auth))

	for _, k := range surface.SortedKeys(approx) {
		ad := approx[k]
		state, err := m.decide(k, auth, ad)
		if err != nil {
			return nil, err
		}
		doc := ad
		if state.Authoritative() {
			doc = auth[k]
		}
		out = append(out, Outcome{Key: k, State: state, Doc: m.tag(doc, state)})
	}

	for _, k := range surface.SortedKeys(auth) {
		if _, ok := approx[k]; ok {
			continue
		}
		out = append(out, Outcome{Key: k, State: OnlyAuth, Doc: m.tag(auth[k], OnlyAuth)})
	}

	slices.SortFunc(out, func(a, b Outcome) int { return surface.Compare(a.Key, b.Key) })
	return out, nil
}

func (m *Merger) decide(k surface.Key, auth map[surface.Key]document.Document, ad document.Document) (State, error) {
	dd, ok := auth[k]
	if !ok {
		return OnlyApprox, nil
	}

	authEnergy, err := dd.Number(m.energyKey)
	if err != nil {
		return 0, fmt.Errorf("authoritative %s: %w", k, err)
	}
	approxEnergy, err := ad.Number(m.energyKey)
	if err != nil {
		return 0, fmt.Errorf("approximate %s: %w", k, err)
	}
	if authEnergy < approxEnergy {
		return AuthWins, nil
	}

	authFP, err := fingerprint.Of(dd, m.tie.Authoritative)
	if err != nil {
		return 0, fmt.Errorf("authoritative %s: %w", k, err)
	}
	approxFP, err := fingerprint.Of(ad, m.tie.Approximate)
	if err != nil {
		return 0, fmt.Errorf("approximate %s: %w", k, err)
	}
	if authFP == approxFP {
		return TieAuthoritative, nil
	}
	return TieApproximate, nil
}

func (m *Merger) tag(d document.Document, s State) document.Document {
	return d.With(m.provenanceKey, document.Bool(s.Authoritative()))
}

// Merge returns the resolved documents, ordered by surface key.
func (m *Merger) Merge(auth, approx map[surface.Key]document.Document) ([]document.Document, error) {
	outcomes, err := m.Resolve(auth, approx)
	if err != nil {
		return nil, err
	}
	docs := make([]document.Document, len(outcomes))
	for i, o := range outcomes {
		docs[i] = o.Doc
	}
	return docs, nil
}

// BestKnown merges with the default energy and provenance keys.
func BestKnown(auth, approx map[surface.Key]document.Document, tie TieIgnore) ([]document.Document, error) {
	return New(tie).Merge(auth, approx)
}
