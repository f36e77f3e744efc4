// Package query describes what a document source should fetch: a collection,
// match conditions, and a projection. The reconciliation core never looks
// inside a Spec; only sources interpret it.
package query

import (
	"fmt"
	"slices"
	"strings"
)

// Op is a match operator.
type Op string

// Supported operators. Semantics follow MongoDB query operators.
const (
	OpEq     Op = "eq"
	OpIn     Op = "in"
	OpLt     Op = "lt"
	OpLte    Op = "lte"
	OpGt     Op = "gt"
	OpGte    Op = "gte"
	OpExists Op = "exists"
)

// Valid reports whether o is a known operator.
func (o Op) Valid() bool {
	switch o {
	case OpEq, OpIn, OpLt, OpLte, OpGt, OpGte, OpExists:
		return true
	}
	return false
}

// Condition restricts documents by the value at a dotted path.
type Condition struct {
	Path  string
	Op    Op
	Value any
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %v", c.Path, c.Op, c.Value)
}

// Projection copies the value at a dotted source path into an output field.
// Elements, when set, select array elements in turn; negative indexes count
// from the end.
type Projection struct {
	Field    string
	Path     string
	Elements []int
}

// Spec is an immutable fetch description. Build it with New.
type Spec struct {
	collection  string
	conditions  []Condition
	projections []Projection
	sample      int
}

// Collection returns the collection tag the spec targets.
func (s Spec) Collection() string { return s.collection }

// Conditions returns a copy of the match conditions.
func (s Spec) Conditions() []Condition { return slices.Clone(s.conditions) }

// Projections returns a copy of the projection.
func (s Spec) Projections() []Projection {
	out := make([]Projection, len(s.projections))
	for i, p := range s.projections {
		p.Elements = slices.Clone(p.Elements)
		out[i] = p
	}
	return out
}

// Sample returns the random sample size; 0 means no sampling.
func (s Spec) Sample() int { return s.sample }

// Fields returns the top-level output field names, in projection order. Dotted
// projection fields nest, so "predictions.CO" contributes "predictions".
func (s Spec) Fields() []string {
	out := make([]string, 0, len(s.projections))
	for _, p := range s.projections {
		top, _, _ := strings.Cut(p.Field, ".")
		if !slices.Contains(out, top) {
			out = append(out, top)
		}
	}
	return out
}

// Projected reports whether the spec carries a projection. Without one, sources
// return whole documents.
func (s Spec) Projected() bool { return len(s.projections) > 0 }
