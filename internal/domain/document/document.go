package document

import (
	"math"
	"slices"

	"github.com/surfcat/gasdb/internal/domain"
)

// Document is a flat mapping from field name to Value (immutable value object).
// Nested Seq and Map values are shared between copies and must not be mutated.
type Document struct {
	fields map[string]Value
}

// New creates a Document from fields. The top-level map is copied; nil values become Null.
func New(fields map[string]Value) Document {
	c := make(map[string]Value, len(fields))
	for k, v := range fields {
		if v == nil {
			v = Null{}
		}
		c[k] = v
	}
	return Document{fields: c}
}

// FromMap converts a decoded JSON/BSON-like map into a Document.
func FromMap(m map[string]any) (Document, error) {
	c := make(map[string]Value, len(m))
	for k, raw := range m {
		v, err := fromAny(k, raw)
		if err != nil {
			return Document{}, err
		}
		c[k] = v
	}
	return Document{fields: c}, nil
}

// MustFromMap is FromMap that panics on error. Intended for tests and literals.
func MustFromMap(m map[string]any) Document {
	d, err := FromMap(m)
	if err != nil {
		panic(err)
	}
	return d
}

// Get returns the value stored under key.
func (d Document) Get(key string) (Value, bool) {
	v, ok := d.fields[key]
	return v, ok
}

// Has reports whether key is present.
func (d Document) Has(key string) bool {
	_, ok := d.fields[key]
	return ok
}

// Len returns the number of fields.
func (d Document) Len() int { return len(d.fields) }

// Keys returns the field names in sorted order.
func (d Document) Keys() []string {
	keys := make([]string, 0, len(d.fields))
	for k := range d.fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Fields returns a copy of the top-level field map.
func (d Document) Fields() map[string]Value {
	c := make(map[string]Value, len(d.fields))
	for k, v := range d.fields {
		c[k] = v
	}
	return c
}

// With returns a copy with key set to v.
func (d Document) With(key string, v Value) Document {
	c := d.Fields()
	if v == nil {
		v = Null{}
	}
	c[key] = v
	return Document{fields: c}
}

// Without returns a copy with the given keys removed.
func (d Document) Without(keys ...string) Document {
	c := d.Fields()
	for _, k := range keys {
		delete(c, k)
	}
	return Document{fields: c}
}

// Equal reports whether both documents hold the same fields and values.
func (d Document) Equal(o Document) bool {
	return Equal(Map(d.fields), Map(o.fields))
}

// Text returns the value of a String field.
func (d Document) Text(key string) (string, error) {
	v, ok := d.fields[key]
	if !ok {
		return "", domain.NewMissingField(key)
	}
	s, ok := v.(String)
	if !ok {
		return "", domain.NewFieldType(key, KindString.String(), KindOf(v).String())
	}
	return string(s), nil
}

// Number returns the value of a finite Number field.
func (d Document) Number(key string) (float64, error) {
	v, ok := d.fields[key]
	if !ok {
		return 0, domain.NewMissingField(key)
	}
	n, ok := v.(Number)
	if !ok {
		return 0, domain.NewFieldType(key, KindNumber.String(), KindOf(v).String())
	}
	f := float64(n)
	if math.IsNaN(f) {
		return 0, domain.NewFieldType(key, "finite number", "NaN")
	}
	return f, nil
}

// Bool returns the value of a Bool field.
func (d Document) Bool(key string) (bool, error) {
	v, ok := d.fields[key]
	if !ok {
		return false, domain.NewMissingField(key)
	}
	b, ok := v.(Bool)
	if !ok {
		return false, domain.NewFieldType(key, KindBool.String(), KindOf(v).String())
	}
	return bool(b), nil
}

// ToMap converts the document back to plain Go values (nil, bool, float64,
// string, []any, map[string]any).
func (d Document) ToMap() map[string]any {
	m := make(map[string]any, len(d.fields))
	for k, v := range d.fields {
		m[k] = ToAny(v)
	}
	return m
}
