package document

import (
	"strconv"
	"strings"

	"github.com/surfcat/gasdb/internal/domain/document"
	"github.com/surfcat/gasdb/internal/domain/query"
)

// lookup resolves a dotted path the way MongoDB query paths do: a numeric
// segment indexes into an array, any other segment applied to an array fans
// out over its map elements. It returns every value reached.
func lookup(v document.Value, segs []string) []document.Value {
	if len(segs) == 0 {
		return []document.Value{v}
	}
	switch x := v.(type) {
	case document.Map:
		child, ok := x[segs[0]]
		if !ok {
			return nil
		}
		return lookup(child, segs[1:])
	case document.Seq:
		if i, err := strconv.Atoi(segs[0]); err == nil {
			if i < 0 || i >= len(x) {
				return nil
			}
			return lookup(x[i], segs[1:])
		}
		var out []document.Value
		for _, e := range x {
			if _, ok := e.(document.Map); ok {
				out = append(out, lookup(e, segs)...)
			}
		}
		return out
	}
	return nil
}

// matches reports whether doc satisfies every condition.
func matches(doc document.Map, conds []query.Condition) (bool, error) {
	for _, c := range conds {
		ok, err := matchOne(doc, c)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func matchOne(doc document.Map, c query.Condition) (bool, error) {
	found := lookup(doc, strings.Split(c.Path, "."))

	if c.Op == query.OpExists {
		want, _ := c.Value.(bool)
		return (len(found) > 0) == want, nil
	}

	var targets []document.Value
	if c.Op == query.OpIn {
		list, err := document.FromAny(c.Value)
		if err != nil {
			return false, err
		}
		seq, ok := list.(document.Seq)
		if !ok {
			seq = document.Seq{list}
		}
		targets = seq
	} else {
		t, err := document.FromAny(c.Value)
		if err != nil {
			return false, err
		}
		targets = []document.Value{t}
	}

	// {path: null} also matches documents without the path.
	if len(found) == 0 {
		if c.Op == query.OpEq || c.Op == query.OpIn {
			for _, t := range targets {
				if document.IsNull(t) {
					return true, nil
				}
			}
		}
		return false, nil
	}

	for _, v := range found {
		for _, t := range targets {
			if compare(v, c.Op, t) {
				return true, nil
			}
			// Array values match when any element does.
			if seq, ok := v.(document.Seq); ok {
				for _, e := range seq {
					if compare(e, c.Op, t) {
						return true, nil
					}
				}
			}
		}
	}
	return false, nil
}

// compare applies op with MongoDB type bracketing: ordering operators only
// compare numbers with numbers and strings with strings.
func compare(v document.Value, op query.Op, t document.Value) bool {
	switch op {
	case query.OpEq, query.OpIn:
		return document.Equal(v, t)
	}

	var c int
	switch a := v.(type) {
	case document.Number:
		b, ok := t.(document.Number)
		if !ok {
			return false
		}
		switch {
		case a < b:
			c = -1
		case a > b:
			c = 1
		}
	case document.String:
		b, ok := t.(document.String)
		if !ok {
			return false
		}
		c = strings.Compare(string(a), string(b))
	default:
		return false
	}

	switch op {
	case query.OpLt:
		return c < 0
	case query.OpLte:
		return c <= 0
	case query.OpGt:
		return c > 0
	case query.OpGte:
		return c >= 0
	}
	return false
}

// project builds the output document the way an aggregation $project stage
// with "$path" expressions and nested $arrayElemAt would. Missing paths and
// out-of-range elements leave the field out.
func project(doc document.Map, ps []query.Projection) document.Map {
	out := document.Map{}
	for _, p := range ps {
		v, ok := resolve(doc, strings.Split(p.Path, "."))
		if !ok {
			continue
		}
		for _, idx := range p.Elements {
			seq, isSeq := v.(document.Seq)
			if !isSeq {
				if document.IsNull(v) {
					break
				}
				ok = false
				break
			}
			if idx < 0 {
				idx += len(seq)
			}
			if idx < 0 || idx >= len(seq) {
				ok = false
				break
			}
			v = seq[idx]
		}
		if !ok {
			continue
		}
		setPath(out, strings.Split(p.Field, "."), v)
	}
	return out
}

// resolve follows an aggregation field path. Unlike query paths, numeric
// segments do not index arrays; a segment applied to an array maps over it.
func resolve(v document.Value, segs []string) (document.Value, bool) {
	if len(segs) == 0 {
		return v, true
	}
	switch x := v.(type) {
	case document.Map:
		child, ok := x[segs[0]]
		if !ok {
			return nil, false
		}
		return resolve(child, segs[1:])
	case document.Seq:
		out := make(document.Seq, 0, len(x))
		for _, e := range x {
			if r, ok := resolve(e, segs); ok {
				out = append(out, r)
			}
		}
		return out, true
	}
	return nil, false
}

func setPath(m document.Map, segs []string, v document.Value) {
	for _, s := range segs[:len(segs)-1] {
		child, ok := m[s].(document.Map)
		if !ok {
			child = document.Map{}
			m[s] = child
		}
		m = child
	}
	m[segs[len(segs)-1]] = v
}
