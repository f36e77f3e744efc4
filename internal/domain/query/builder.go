package query

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Builder is a fluent builder for fetch specs.
type Builder struct {
	spec Spec
}

// New starts a spec against the given collection tag.
func New(collection string) *Builder {
	return &Builder{spec: Spec{collection: collection}}
}

// Where adds an equality condition.
func (b *Builder) Where(path string, value any) *Builder {
	return b.WhereOp(path, OpEq, value)
}

// WhereIn adds a membership condition.
func (b *Builder) WhereIn(path string, values ...any) *Builder {
	return b.WhereOp(path, OpIn, values)
}

// WhereOp adds a condition with an explicit operator.
func (b *Builder) WhereOp(path string, op Op, value any) *Builder {
	b.spec.conditions = append(b.spec.conditions, Condition{Path: path, Op: op, Value: value})
	return b
}

// Match appends prepared conditions.
func (b *Builder) Match(conds ...Condition) *Builder {
	b.spec.conditions = append(b.spec.conditions, conds...)
	return b
}

// Without drops every condition on path and on paths below it.
func (b *Builder) Without(path string) *Builder {
	b.spec.conditions = slices.DeleteFunc(b.spec.conditions, func(c Condition) bool {
		return c.Path == path || strings.HasPrefix(c.Path, path+".")
	})
	return b
}

// Project maps the value at path to field. A later projection of the same field
// replaces the earlier one in place.
func (b *Builder) Project(field, path string) *Builder {
	return b.ProjectElem(field, path)
}

// ProjectElem maps an array element of the value at path to field.
func (b *Builder) ProjectElem(field, path string, elements ...int) *Builder {
	p := Projection{Field: field, Path: path, Elements: elements}
	for i := range b.spec.projections {
		if b.spec.projections[i].Field == field {
			b.spec.projections[i] = p
			return b
		}
	}
	b.spec.projections = append(b.spec.projections, p)
	return b
}

// Projections appends prepared projections with the same replacement rule as Project.
func (b *Builder) Projections(ps ...Projection) *Builder {
	for _, p := range ps {
		b.ProjectElem(p.Field, p.Path, p.Elements...)
	}
	return b
}

// Sample restricts the result to n randomly chosen documents.
func (b *Builder) Sample(n int) *Builder {
	b.spec.sample = n
	return b
}

// Build validates and returns the spec.
func (b *Builder) Build() (Spec, error) {
	var errs []error
	if b.spec.collection == "" {
		errs = append(errs, errors.New("collection is required"))
	}
	if b.spec.sample < 0 {
		errs = append(errs, fmt.Errorf("sample size must be non-negative, got %d", b.spec.sample))
	}
	for _, c := range b.spec.conditions {
		if c.Path == "" {
			errs = append(errs, errors.New("condition path is required"))
		}
		if !c.Op.Valid() {
			errs = append(errs, fmt.Errorf("condition on %q: unknown operator %q", c.Path, c.Op))
		}
	}
	for _, p := range b.spec.projections {
		if p.Field == "" || p.Path == "" {
			errs = append(errs, fmt.Errorf("projection %q <- %q: field and path are required", p.Field, p.Path))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return Spec{}, fmt.Errorf("invalid query: %w", err)
	}

	s := b.spec
	s.conditions = slices.Clone(s.conditions)
	s.projections = slices.Clone(s.projections)
	return s, nil
}

// MustBuild calls Build and panics on error.
func (b *Builder) MustBuild() Spec {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
